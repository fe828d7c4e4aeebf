package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Username   string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email      string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Name       string     `gorm:"size:100" json:"name"`
	Password   string     `gorm:"size:255;not null" json:"-"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	JoinedDate time.Time  `json:"joined_date"`
	LastLogin  *time.Time `json:"last_login"`
}

func (User) TableName() string {
	return "users"
}

// UserStatistics 每个用户一行，随学习会话完成滚动更新
type UserStatistics struct {
	BaseModel
	UserID            uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	StudyStreak       int     `gorm:"not null;default:0" json:"study_streak"`
	LongestStreak     int     `gorm:"not null;default:0" json:"longest_streak"`
	TotalStudyTime    int     `gorm:"not null;default:0" json:"total_study_time"`
	TotalCardsStudied int     `gorm:"not null;default:0" json:"total_cards_studied"`
	TotalQuizzesTaken int     `gorm:"not null;default:0" json:"total_quizzes_taken"`
	TotalFlipSessions int     `gorm:"not null;default:0" json:"total_flip_sessions"`
	AverageAccuracy   float64 `gorm:"not null;default:0" json:"average_accuracy"`
	BestQuizAccuracy  float64 `gorm:"not null;default:0" json:"best_quiz_accuracy"`
	// 格式 2006-01-02，空串表示从未学习
	LastStudyDate string `gorm:"size:10" json:"last_study_date"`
}

func (UserStatistics) TableName() string {
	return "user_statistics"
}
