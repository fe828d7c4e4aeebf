package model

import (
	"time"
)

const DefaultDeckColor = "primary"

// swagger:model Deck
type Deck struct {
	BaseModel
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	Color         string     `gorm:"size:50;not null;default:primary" json:"color"`
	BestScore     int        `gorm:"not null;default:0" json:"best_score"`
	LastAccuracy  float64    `gorm:"not null;default:0" json:"last_accuracy"`
	QuizCompleted bool       `gorm:"not null;default:false" json:"quiz_completed"`
	LastCompleted *time.Time `json:"last_completed"`
	TimesStudied  int        `gorm:"not null;default:0" json:"times_studied"`

	// 仅查询时填充
	CardCount int64  `gorm:"->;-:migration" json:"card_count"`
	Cards     []Card `gorm:"foreignKey:DeckID;constraint:OnDelete:CASCADE" json:"cards,omitempty"`
}

func (Deck) TableName() string {
	return "decks"
}

// swagger:model Card
type Card struct {
	BaseModel
	DeckID       uint   `gorm:"index;not null" json:"deck_id"`
	Question     string `gorm:"type:text;not null" json:"question"`
	Answer       string `gorm:"type:text;not null" json:"answer"`
	Position     int    `gorm:"not null;default:0" json:"position"`
	TimesShown   int    `gorm:"not null;default:0" json:"times_shown"`
	TimesCorrect int    `gorm:"not null;default:0" json:"times_correct"`
}

func (Card) TableName() string {
	return "cards"
}
