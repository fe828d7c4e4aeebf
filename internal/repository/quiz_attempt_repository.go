package repository

import (
	"context"
	"math"
	"memodeck_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) WithTx(tx *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: tx}
}

// Create 连同 Responses 一并写入
func (r *QuizAttemptRepository) Create(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

func (r *QuizAttemptRepository) FindBySession(ctx context.Context, sessionID uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_responses.id ASC")
		}).
		Where("session_id = ?", sessionID).
		First(&attempt).Error
	return &attempt, err
}

// AccuracyTotals 全部已完成测验的正确率之和（单位为百分之一）与次数
func (r *QuizAttemptRepository) AccuracyTotals(ctx context.Context, userID uint) (int64, int64, error) {
	var row struct {
		Hundredths float64
		Attempts   int64
	}
	err := r.DB.WithContext(ctx).Model(&model.QuizAttempt{}).
		Select("COALESCE(SUM(ROUND(accuracy * 100)), 0) AS hundredths, COUNT(*) AS attempts").
		Where("user_id = ? AND completed = ?", userID, true).
		Scan(&row).Error
	return int64(math.Round(row.Hundredths)), row.Attempts, err
}
