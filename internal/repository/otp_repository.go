package repository

import (
	"context"
	"memodeck_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type OTPRepository struct {
	DB *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{DB: db}
}

func (r *OTPRepository) Create(ctx context.Context, otp *model.PasswordResetOTP) error {
	return r.DB.WithContext(ctx).Create(otp).Error
}

// FindActive 最近一条未使用且未过期的验证码
func (r *OTPRepository) FindActive(ctx context.Context, userID uint, now time.Time) (*model.PasswordResetOTP, error) {
	var otp model.PasswordResetOTP
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND used = ? AND expires_at > ?", userID, false, now).
		Order("created_at DESC, id DESC").
		First(&otp).Error
	return &otp, err
}

func (r *OTPRepository) FindUnused(ctx context.Context, userID uint, code string) (*model.PasswordResetOTP, error) {
	var otp model.PasswordResetOTP
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND otp = ? AND used = ?", userID, code, false).
		Order("created_at DESC, id DESC").
		First(&otp).Error
	return &otp, err
}

func (r *OTPRepository) MarkUsed(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&model.PasswordResetOTP{}).Where("id = ?", id).Update("used", true).Error
}

func (r *OTPRepository) InvalidateAll(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&model.PasswordResetOTP{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true).Error
}

// PurgeStale 清理已使用或已过期的验证码
func (r *OTPRepository) PurgeStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("used = ? OR expires_at <= ?", true, now).
		Delete(&model.PasswordResetOTP{})
	return result.RowsAffected, result.Error
}
