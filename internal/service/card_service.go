package service

import (
	"context"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

type CardService struct {
	DB       *gorm.DB
	DeckRepo *repository.DeckRepository
	CardRepo *repository.CardRepository
	Clock    *Clock
}

func NewCardService(db *gorm.DB, deckRepo *repository.DeckRepository, cardRepo *repository.CardRepository, clock *Clock) *CardService {
	return &CardService{
		DB:       db,
		DeckRepo: deckRepo,
		CardRepo: cardRepo,
		Clock:    clock,
	}
}

func (s *CardService) ListByDeck(ctx context.Context, userID, deckID uint) ([]model.Card, error) {
	if _, err := s.DeckRepo.FindForUser(ctx, deckID, userID); err != nil {
		return nil, dbError(err, util.ErrDeckNotFound)
	}
	cards, err := s.CardRepo.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, dbError(err, nil)
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return cards, nil
}

func (s *CardService) Get(ctx context.Context, userID, cardID uint) (*model.Card, error) {
	card, err := s.CardRepo.FindForUser(ctx, cardID, userID)
	if err != nil {
		return nil, dbError(err, util.ErrCardNotFound)
	}
	return card, nil
}

type CardInput struct {
	DeckID   uint
	Question string
	Answer   string
}

// Create 追加到牌组末尾，牌组重新变为未完成
func (s *CardService) Create(ctx context.Context, userID uint, in CardInput) (*model.Card, error) {
	if in.DeckID == 0 {
		return nil, util.NewValidationError("Deck ID, question, and answer are required")
	}
	question := strings.TrimSpace(in.Question)
	answer := strings.TrimSpace(in.Answer)
	if question == "" || answer == "" {
		return nil, util.NewValidationError("Question and answer cannot be empty")
	}
	if _, err := s.DeckRepo.FindForUser(ctx, in.DeckID, userID); err != nil {
		return nil, dbError(err, util.ErrDeckNotFound)
	}

	card := &model.Card{
		DeckID:   in.DeckID,
		Question: question,
		Answer:   answer,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cards := s.CardRepo.WithTx(tx)
		position, err := cards.NextPosition(ctx, in.DeckID)
		if err != nil {
			return err
		}
		card.Position = position
		if err := cards.Create(ctx, card); err != nil {
			return err
		}
		return s.DeckRepo.WithTx(tx).UpdateFields(ctx, in.DeckID, map[string]interface{}{"quiz_completed": false})
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return card, nil
}

type CardUpdate struct {
	Question *string
	Answer   *string
	Position *int
}

func (s *CardService) Update(ctx context.Context, userID, cardID uint, in CardUpdate) (*model.Card, error) {
	if _, err := s.CardRepo.FindForUser(ctx, cardID, userID); err != nil {
		return nil, dbError(err, util.ErrCardNotFound)
	}

	fields := map[string]interface{}{}
	if in.Question != nil {
		q := strings.TrimSpace(*in.Question)
		if q == "" {
			return nil, util.NewValidationError("Question and answer cannot be empty")
		}
		fields["question"] = q
	}
	if in.Answer != nil {
		a := strings.TrimSpace(*in.Answer)
		if a == "" {
			return nil, util.NewValidationError("Question and answer cannot be empty")
		}
		fields["answer"] = a
	}
	if in.Position != nil {
		if *in.Position < 0 {
			return nil, util.NewValidationError("Position cannot be negative")
		}
		fields["position"] = *in.Position
	}
	if len(fields) == 0 {
		return nil, util.ErrNoFieldsToUpdate
	}

	if err := s.CardRepo.UpdateFields(ctx, cardID, fields); err != nil {
		return nil, dbError(err, nil)
	}
	return s.Get(ctx, userID, cardID)
}

// Reorder ids 为新的卡片顺序
func (s *CardService) Reorder(ctx context.Context, userID, deckID uint, ids []uint) error {
	if deckID == 0 || ids == nil {
		return util.NewValidationError("Deck ID and cards array are required")
	}
	if _, err := s.DeckRepo.FindForUser(ctx, deckID, userID); err != nil {
		return dbError(err, util.ErrDeckNotFound)
	}
	return dbError(s.CardRepo.Reorder(ctx, deckID, ids), nil)
}

// Delete 删除后位置前移并重算牌组掌握状态
func (s *CardService) Delete(ctx context.Context, userID, cardID uint) error {
	card, err := s.CardRepo.FindForUser(ctx, cardID, userID)
	if err != nil {
		return dbError(err, util.ErrCardNotFound)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.CardRepo.WithTx(tx).Delete(ctx, card); err != nil {
			return err
		}
		_, err := s.DeckRepo.WithTx(tx).RecomputeMastery(ctx, card.DeckID, s.Clock.Now())
		return err
	})
	return dbError(err, nil)
}
