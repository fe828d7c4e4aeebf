package repository

import (
	"context"
	"memodeck_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

type DeckProgressRow struct {
	ID           uint
	Name         string
	Color        string
	BestScore    int
	TimesStudied int
	TotalCards   int64
}

// DeckRows 每个牌组一行，附卡片数
func (r *ProgressRepository) DeckRows(ctx context.Context, userID uint) ([]DeckProgressRow, error) {
	var rows []DeckProgressRow
	err := r.DB.WithContext(ctx).Model(&model.Deck{}).
		Select("decks.id, decks.name, decks.color, decks.best_score, decks.times_studied, COUNT(cards.id) AS total_cards").
		Joins("LEFT JOIN cards ON cards.deck_id = decks.id").
		Where("decks.user_id = ?", userID).
		Group("decks.id, decks.name, decks.color, decks.best_score, decks.times_studied").
		Order("decks.name ASC").
		Scan(&rows).Error
	return rows, err
}
