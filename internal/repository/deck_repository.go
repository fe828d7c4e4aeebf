package repository

import (
	"context"
	"memodeck_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

const cardCountSelect = "decks.*, (SELECT COUNT(*) FROM cards WHERE cards.deck_id = decks.id) AS card_count"

type DeckRepository struct {
	DB *gorm.DB
}

func NewDeckRepository(db *gorm.DB) *DeckRepository {
	return &DeckRepository{DB: db}
}

func (r *DeckRepository) WithTx(tx *gorm.DB) *DeckRepository {
	return &DeckRepository{DB: tx}
}

func (r *DeckRepository) Create(ctx context.Context, deck *model.Deck) error {
	return r.DB.WithContext(ctx).Omit("Cards").Create(deck).Error
}

// FindForUser 按归属查询，不属于该用户时返回 gorm.ErrRecordNotFound
func (r *DeckRepository) FindForUser(ctx context.Context, id, userID uint) (*model.Deck, error) {
	var deck model.Deck
	err := r.DB.WithContext(ctx).
		Select(cardCountSelect).
		Where("decks.id = ? AND decks.user_id = ?", id, userID).
		First(&deck).Error
	return &deck, err
}

func (r *DeckRepository) FindWithCards(ctx context.Context, id, userID uint) (*model.Deck, error) {
	var deck model.Deck
	err := r.DB.WithContext(ctx).
		Select(cardCountSelect).
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("cards.position ASC, cards.id ASC")
		}).
		Where("decks.id = ? AND decks.user_id = ?", id, userID).
		First(&deck).Error
	return &deck, err
}

func (r *DeckRepository) ListByUser(ctx context.Context, userID uint) ([]model.Deck, error) {
	var decks []model.Deck
	err := r.DB.WithContext(ctx).
		Select(cardCountSelect).
		Where("decks.user_id = ?", userID).
		Order("decks.created_at DESC, decks.id DESC").
		Find(&decks).Error
	return decks, err
}

// CountStats 返回总数与已完成数
func (r *DeckRepository) CountStats(ctx context.Context, userID uint) (total, completed int64, err error) {
	db := r.DB.WithContext(ctx).Model(&model.Deck{})
	if err = db.Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return
	}
	err = r.DB.WithContext(ctx).Model(&model.Deck{}).
		Where("user_id = ? AND quiz_completed = ?", userID, true).
		Count(&completed).Error
	return
}

func (r *DeckRepository) SumBestScore(ctx context.Context, userID uint) (int64, error) {
	var sum int64
	err := r.DB.WithContext(ctx).Model(&model.Deck{}).
		Select("COALESCE(SUM(best_score), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

func (r *DeckRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.Deck{}).Where("id = ?", id).Updates(fields).Error
}

// RaiseBestScore best_score 只增不减，单条条件更新
func (r *DeckRepository) RaiseBestScore(ctx context.Context, id uint, score int) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"best_score": gorm.Expr("CASE WHEN best_score < ? THEN ? ELSE best_score END", score, score),
	})
}

// ApplyQuizResult 测验完成后更新最佳成绩、最近正确率与学习次数
func (r *DeckRepository) ApplyQuizResult(ctx context.Context, id uint, score int, accuracy float64) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"best_score":    gorm.Expr("CASE WHEN best_score < ? THEN ? ELSE best_score END", score, score),
		"last_accuracy": accuracy,
		"times_studied": gorm.Expr("times_studied + 1"),
	})
}

func (r *DeckRepository) IncrementTimesStudied(ctx context.Context, id uint) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"times_studied": gorm.Expr("times_studied + 1"),
	})
}

// RecomputeMastery 按当前卡片数重新计算 quiz_completed，空牌组清零最佳成绩
func (r *DeckRepository) RecomputeMastery(ctx context.Context, id uint, now time.Time) (*model.Deck, error) {
	db := r.DB.WithContext(ctx)

	var deck model.Deck
	if err := db.First(&deck, id).Error; err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&model.Card{}).Where("deck_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}

	completed := count > 0 && int64(deck.BestScore) == count
	fields := map[string]interface{}{"quiz_completed": completed}
	if count == 0 {
		fields["best_score"] = 0
		deck.BestScore = 0
	}
	if completed && !deck.QuizCompleted {
		fields["last_completed"] = now
		deck.LastCompleted = &now
	}
	if err := db.Model(&model.Deck{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, err
	}

	deck.QuizCompleted = completed
	deck.CardCount = count
	return &deck, nil
}

// Delete 删除牌组及其卡片、学习记录
func (r *DeckRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := tx.Model(&model.QuizAttempt{}).Select("id").Where("deck_id = ?", id)
		sessions := tx.Model(&model.StudySession{}).Select("id").Where("deck_id = ?", id)

		if err := tx.Where("attempt_id IN (?)", attempts).Delete(&model.QuizResponse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("deck_id = ?", id).Delete(&model.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id IN (?)", sessions).Delete(&model.StudyProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("deck_id = ?", id).Delete(&model.StudySession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("deck_id = ?", id).Delete(&model.Card{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Deck{}, id).Error
	})
}
