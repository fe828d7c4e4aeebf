package repository

import (
	"context"
	"memodeck_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

// Create 同时创建用户统计行
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&model.UserStatistics{UserID: user.ID}).Error
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

// ExistsByUsernameOrEmail 注册时的唯一性检查
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"last_login": at})
}

// DeleteWithData 删除用户及其全部数据，子表先于父表
func (r *UserRepository) DeleteWithData(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := tx.Model(&model.QuizAttempt{}).Select("id").Where("user_id = ?", userID)
		sessions := tx.Model(&model.StudySession{}).Select("id").Where("user_id = ?", userID)
		decks := tx.Model(&model.Deck{}).Select("id").Where("user_id = ?", userID)

		steps := []func() error{
			func() error { return tx.Where("attempt_id IN (?)", attempts).Delete(&model.QuizResponse{}).Error },
			func() error { return tx.Where("user_id = ?", userID).Delete(&model.QuizAttempt{}).Error },
			func() error { return tx.Where("session_id IN (?)", sessions).Delete(&model.StudyProgress{}).Error },
			func() error { return tx.Where("user_id = ?", userID).Delete(&model.StudySession{}).Error },
			func() error { return tx.Where("deck_id IN (?)", decks).Delete(&model.Card{}).Error },
			func() error { return tx.Where("user_id = ?", userID).Delete(&model.Deck{}).Error },
			func() error { return tx.Where("user_id = ?", userID).Delete(&model.UserStatistics{}).Error },
			func() error { return tx.Where("user_id = ?", userID).Delete(&model.PasswordResetOTP{}).Error },
			func() error { return tx.Delete(&model.User{}, userID).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
}
