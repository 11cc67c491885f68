package models

import "time"

// SubtopicProgress tracks per-user mastery of one subtopic. Mastery blends
// the latest observation with history (0.6/0.4); the review interval
// doubles on a correct answer and snaps back to one day on a miss.
type SubtopicProgress struct {
	ID         int64 `gorm:"primaryKey" json:"id"`
	UserID     int64 `gorm:"not null;uniqueIndex:idx_progress_user_subtopic" json:"userId"`
	SubtopicID int64 `gorm:"not null;uniqueIndex:idx_progress_user_subtopic" json:"subtopicId"`

	MasteryLevel   float64 `gorm:"not null;default:0" json:"masteryLevel"`
	CorrectAnswers int64   `gorm:"not null;default:0" json:"correctAnswers"`
	WrongAnswers   int64   `gorm:"not null;default:0" json:"wrongAnswers"`
	Repetitions    int64   `gorm:"not null;default:0" json:"repetitions"`
	IntervalDays   int     `gorm:"not null;default:1" json:"intervalDays"`

	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
	NextReviewAt   *time.Time `gorm:"index" json:"nextReviewAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
