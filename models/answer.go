package models

import "time"

// QuestionAnswer is one answer event, the raw material for analytics and
// mastery tracking. DuelID is set when the answer was given inside a duel.
type QuestionAnswer struct {
	ID         int64   `gorm:"primaryKey" json:"id"`
	UserID     int64   `gorm:"index;not null" json:"userId"`
	QuestionID int64   `gorm:"index;not null" json:"questionId"`
	DuelID     *string `gorm:"type:uuid;index" json:"duelId,omitempty"`

	SelectedOption string `gorm:"size:8;not null" json:"selectedOption"`
	IsCorrect      bool   `gorm:"not null" json:"isCorrect"`
	TimeSpentMs    int64  `gorm:"not null;default:0" json:"timeSpentMs"`

	AnsweredAt time.Time `gorm:"index;not null" json:"answeredAt"`
}
