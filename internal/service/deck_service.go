package service

import (
	"context"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

type DeckService struct {
	DB       *gorm.DB
	DeckRepo *repository.DeckRepository
	CardRepo *repository.CardRepository
	Clock    *Clock
}

func NewDeckService(db *gorm.DB, deckRepo *repository.DeckRepository, cardRepo *repository.CardRepository, clock *Clock) *DeckService {
	return &DeckService{
		DB:       db,
		DeckRepo: deckRepo,
		CardRepo: cardRepo,
		Clock:    clock,
	}
}

func (s *DeckService) List(ctx context.Context, userID uint) ([]model.Deck, error) {
	decks, err := s.DeckRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}
	if decks == nil {
		decks = []model.Deck{}
	}
	return decks, nil
}

// Get 含按位置排序的卡片
func (s *DeckService) Get(ctx context.Context, userID, deckID uint) (*model.Deck, error) {
	deck, err := s.DeckRepo.FindWithCards(ctx, deckID, userID)
	if err != nil {
		return nil, dbError(err, util.ErrDeckNotFound)
	}
	if deck.Cards == nil {
		deck.Cards = []model.Card{}
	}
	return deck, nil
}

type DeckStats struct {
	TotalDecks     int64 `json:"total_decks"`
	CompletedDecks int64 `json:"completed_decks"`
	ActiveDecks    int64 `json:"active_decks"`
}

func (s *DeckService) Stats(ctx context.Context, userID uint) (*DeckStats, error) {
	total, completed, err := s.DeckRepo.CountStats(ctx, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}
	return &DeckStats{
		TotalDecks:     total,
		CompletedDecks: completed,
		ActiveDecks:    total - completed,
	}, nil
}

type DeckInput struct {
	Name        string
	Description string
	Color       string
}

func (s *DeckService) Create(ctx context.Context, userID uint, in DeckInput) (*model.Deck, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, util.NewValidationError("Deck name is required")
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = model.DefaultDeckColor
	}

	deck := &model.Deck{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Color:       color,
	}
	if err := s.DeckRepo.Create(ctx, deck); err != nil {
		return nil, dbError(err, nil)
	}
	return s.Get(ctx, userID, deck.ID)
}

// DeckUpdate 为 nil 的字段不修改
type DeckUpdate struct {
	Name         *string
	Description  *string
	Color        *string
	BestScore    *int
	LastAccuracy *float64
	// 兼容旧前端，值本身忽略，仅触发服务端重算
	QuizCompleted *bool
}

func (u DeckUpdate) empty() bool {
	return u.Name == nil && u.Description == nil && u.Color == nil &&
		u.BestScore == nil && u.LastAccuracy == nil && u.QuizCompleted == nil
}

func (s *DeckService) Update(ctx context.Context, userID, deckID uint, in DeckUpdate) (*model.Deck, error) {
	deck, err := s.DeckRepo.FindForUser(ctx, deckID, userID)
	if err != nil {
		return nil, dbError(err, util.ErrDeckNotFound)
	}
	if in.empty() {
		return nil, util.ErrNoFieldsToUpdate
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, util.NewValidationError("Deck name cannot be empty")
		}
		fields["name"] = name
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Color != nil {
		color := strings.TrimSpace(*in.Color)
		if color == "" {
			color = model.DefaultDeckColor
		}
		fields["color"] = color
	}
	if in.LastAccuracy != nil {
		if *in.LastAccuracy < 0 || *in.LastAccuracy > 100 {
			return nil, util.NewValidationError("Accuracy must be between 0 and 100")
		}
		fields["last_accuracy"] = util.Round2(*in.LastAccuracy)
	}
	if in.BestScore != nil && (*in.BestScore < 0 || int64(*in.BestScore) > deck.CardCount) {
		return nil, util.NewValidationError("Best score must be between 0 and the number of cards")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		decks := s.DeckRepo.WithTx(tx)
		if len(fields) > 0 {
			if err := decks.UpdateFields(ctx, deckID, fields); err != nil {
				return err
			}
		}
		if in.BestScore != nil {
			if err := decks.RaiseBestScore(ctx, deckID, *in.BestScore); err != nil {
				return err
			}
		}
		_, err := decks.RecomputeMastery(ctx, deckID, s.Clock.Now())
		return err
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return s.Get(ctx, userID, deckID)
}

func (s *DeckService) Delete(ctx context.Context, userID, deckID uint) error {
	if _, err := s.DeckRepo.FindForUser(ctx, deckID, userID); err != nil {
		return dbError(err, util.ErrDeckNotFound)
	}
	return dbError(s.DeckRepo.Delete(ctx, deckID), nil)
}
