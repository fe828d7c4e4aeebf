package model

import (
	"time"
)

// swagger:model
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All 参与自动迁移的模型，顺序即建表顺序
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserStatistics{},
		&Deck{},
		&Card{},
		&StudySession{},
		&StudyProgress{},
		&QuizAttempt{},
		&QuizResponse{},
		&PasswordResetOTP{},
	}
}
