package model

import (
	"time"
)

const (
	PerformanceExcellent        = "excellent"
	PerformanceGood             = "good"
	PerformanceAverage          = "average"
	PerformanceNeedsImprovement = "needs_improvement"
)

// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	SessionID        uint    `gorm:"uniqueIndex;not null" json:"session_id"`
	DeckID           uint    `gorm:"index;not null" json:"deck_id"`
	UserID           uint    `gorm:"index;not null" json:"user_id"`
	Score            int     `gorm:"not null" json:"score"`
	TotalQuestions   int     `gorm:"not null" json:"total_questions"`
	Accuracy         float64 `gorm:"not null" json:"accuracy"`
	BestStreak       int     `gorm:"not null;default:0" json:"best_streak"`
	PerformanceLevel string  `gorm:"size:20;not null" json:"performance_level"`
	Completed        bool    `gorm:"not null" json:"completed"`

	Responses []QuizResponse `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

type QuizResponse struct {
	ID                  uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AttemptID           uint      `gorm:"index;not null" json:"attempt_id"`
	CardID              uint      `gorm:"index;not null" json:"card_id"`
	UserAnswer          *string   `gorm:"type:text" json:"user_answer"`
	CorrectAnswer       string    `gorm:"type:text;not null" json:"correct_answer"`
	IsCorrect           bool      `gorm:"not null" json:"is_correct"`
	Skipped             bool      `gorm:"not null" json:"skipped"`
	ResponseTimeSeconds *int      `json:"response_time_seconds"`
	CreatedAt           time.Time `json:"created_at"`
}

func (QuizResponse) TableName() string {
	return "quiz_responses"
}
