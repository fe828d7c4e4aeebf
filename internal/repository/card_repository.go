package repository

import (
	"context"
	"memodeck_backend/internal/model"

	"gorm.io/gorm"
)

type CardRepository struct {
	DB *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{DB: db}
}

func (r *CardRepository) WithTx(tx *gorm.DB) *CardRepository {
	return &CardRepository{DB: tx}
}

func (r *CardRepository) Create(ctx context.Context, card *model.Card) error {
	return r.DB.WithContext(ctx).Create(card).Error
}

func (r *CardRepository) CreateBatch(ctx context.Context, cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&cards).Error
}

// FindForUser 通过所属牌组校验归属
func (r *CardRepository) FindForUser(ctx context.Context, id, userID uint) (*model.Card, error) {
	var card model.Card
	err := r.DB.WithContext(ctx).
		Joins("JOIN decks ON decks.id = cards.deck_id").
		Where("cards.id = ? AND decks.user_id = ?", id, userID).
		First(&card).Error
	return &card, err
}

func (r *CardRepository) ListByDeck(ctx context.Context, deckID uint) ([]model.Card, error) {
	var cards []model.Card
	err := r.DB.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("position ASC, id ASC").
		Find(&cards).Error
	return cards, err
}

// NextPosition 新卡片追加在末尾，空牌组从 0 开始
func (r *CardRepository) NextPosition(ctx context.Context, deckID uint) (int, error) {
	var next int
	err := r.DB.WithContext(ctx).Model(&model.Card{}).
		Select("COALESCE(MAX(position), -1) + 1").
		Where("deck_id = ?", deckID).
		Scan(&next).Error
	return next, err
}

func (r *CardRepository) CountByDeck(ctx context.Context, deckID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Card{}).Where("deck_id = ?", deckID).Count(&count).Error
	return count, err
}

func (r *CardRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Card{}).
		Joins("JOIN decks ON decks.id = cards.deck_id").
		Where("decks.user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// FindInDeck 返回 ids 中属于该牌组的卡片
func (r *CardRepository) FindInDeck(ctx context.Context, deckID uint, ids []uint) ([]model.Card, error) {
	var cards []model.Card
	if len(ids) == 0 {
		return cards, nil
	}
	err := r.DB.WithContext(ctx).Where("deck_id = ? AND id IN ?", deckID, ids).Find(&cards).Error
	return cards, err
}

func (r *CardRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.Card{}).Where("id = ?", id).Updates(fields).Error
}

// Reorder 位置取提交顺序的下标，不属于该牌组的 id 忽略
func (r *CardRepository) Reorder(ctx context.Context, deckID uint, ids []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for index, id := range ids {
			err := tx.Model(&model.Card{}).
				Where("id = ? AND deck_id = ?", id, deckID).
				Update("position", index).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 删除后将后续卡片位置前移，保持位置连续
func (r *CardRepository) Delete(ctx context.Context, card *model.Card) error {
	db := r.DB.WithContext(ctx)
	if err := db.Delete(&model.Card{}, card.ID).Error; err != nil {
		return err
	}
	return db.Model(&model.Card{}).
		Where("deck_id = ? AND position > ?", card.DeckID, card.Position).
		Update("position", gorm.Expr("position - 1")).Error
}

// RecordQuizOutcome 累加卡片的出现与答对次数
func (r *CardRepository) RecordQuizOutcome(ctx context.Context, id uint, correct bool) error {
	fields := map[string]interface{}{"times_shown": gorm.Expr("times_shown + 1")}
	if correct {
		fields["times_correct"] = gorm.Expr("times_correct + 1")
	}
	return r.UpdateFields(ctx, id, fields)
}
