package model

import (
	"time"
)

type SessionType string

const (
	SessionFlip SessionType = "flip"
	SessionQuiz SessionType = "quiz"
)

func (t SessionType) Valid() bool {
	return t == SessionFlip || t == SessionQuiz
}

// swagger:model StudySession
type StudySession struct {
	BaseModel
	UserID          uint        `gorm:"index;not null" json:"user_id"`
	DeckID          uint        `gorm:"index;not null" json:"deck_id"`
	SessionType     SessionType `gorm:"size:10;not null" json:"session_type"`
	SessionDate     string      `gorm:"size:10;index;not null" json:"session_date"`
	StartedAt       time.Time   `gorm:"not null" json:"started_at"`
	CompletedAt     *time.Time  `json:"completed_at"`
	DurationSeconds int         `gorm:"not null;default:0" json:"duration_seconds"`
	CardsStudied    int         `gorm:"not null;default:0" json:"cards_studied"`
	CorrectAnswers  int         `gorm:"not null;default:0" json:"correct_answers"`
	TotalAnswers    int         `gorm:"not null;default:0" json:"total_answers"`
	Accuracy        float64     `gorm:"not null;default:0" json:"accuracy"`
	BestStreak      int         `gorm:"not null;default:0" json:"best_streak"`
	Completed       bool        `gorm:"not null;default:false" json:"completed"`

	DeckName string `gorm:"->;-:migration" json:"deck_name,omitempty"`
}

func (StudySession) TableName() string {
	return "study_sessions"
}

// StudyProgress 同一会话同一卡片只保留一行，重复翻转累加耗时
type StudyProgress struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID        uint      `gorm:"uniqueIndex:idx_progress_session_card;not null" json:"session_id"`
	CardID           uint      `gorm:"uniqueIndex:idx_progress_session_card;not null" json:"card_id"`
	Flipped          bool      `gorm:"not null" json:"flipped"`
	TimeSpentSeconds int       `gorm:"not null;default:0" json:"time_spent_seconds"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (StudyProgress) TableName() string {
	return "study_progress"
}
