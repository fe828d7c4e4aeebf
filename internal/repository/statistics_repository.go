package repository

import (
	"context"
	"errors"
	"memodeck_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatisticsRepository struct {
	DB *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) *StatisticsRepository {
	return &StatisticsRepository{DB: db}
}

func (r *StatisticsRepository) WithTx(tx *gorm.DB) *StatisticsRepository {
	return &StatisticsRepository{DB: tx}
}

// FindByUser 没有统计行时返回零值，不写库
func (r *StatisticsRepository) FindByUser(ctx context.Context, userID uint) (*model.UserStatistics, error) {
	var stats model.UserStatistics
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.UserStatistics{UserID: userID}, nil
	}
	return &stats, err
}

// LockForUser 事务内加锁读取统计行，缺失时补建
func (r *StatisticsRepository) LockForUser(ctx context.Context, userID uint) (*model.UserStatistics, error) {
	db := r.DB.WithContext(ctx)

	var stats model.UserStatistics
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = model.UserStatistics{UserID: userID}
		err = db.Create(&stats).Error
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *StatisticsRepository) Save(ctx context.Context, stats *model.UserStatistics) error {
	return r.DB.WithContext(ctx).Save(stats).Error
}
