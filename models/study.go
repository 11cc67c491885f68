package models

import "time"

// StudySession is one stretch of study time. A user has at most one open
// session (EndedAt null); starting a new one closes the previous first.
type StudySession struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   int64  `gorm:"index;not null" json:"userId"`
	CourseID *int64 `gorm:"index" json:"courseId,omitempty"`
	TopicID  *int64 `gorm:"index" json:"topicId,omitempty"`

	StartedAt       time.Time  `gorm:"index;not null" json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationSeconds int64      `gorm:"not null;default:0" json:"durationSeconds"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
