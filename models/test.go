package models

import "time"

// Test is a named question set. Linked to a course and optionally pinned
// to one of its topics.
type Test struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	Title           string `gorm:"size:255;not null" json:"title"`
	CourseID        *int64 `gorm:"index" json:"courseId,omitempty"`
	TopicID         *int64 `gorm:"index" json:"topicId,omitempty"`
	DifficultyLevel int    `gorm:"not null;default:1;check:difficulty_level BETWEEN 1 AND 5" json:"difficultyLevel"`
	TimeLimitSec    int    `gorm:"not null;default:0" json:"timeLimitSec"`

	Questions []Question `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Question options are stored as a JSON object keyed by option letter
// ({"A": "...", "B": "..."}). The correct answer never leaves the server
// in question payloads; correctness is judged server-side when an answer
// is recorded.
type Question struct {
	ID            int64   `gorm:"primaryKey" json:"id"`
	TestID        int64   `gorm:"index;not null" json:"testId"`
	TopicID       *int64  `gorm:"index" json:"topicId,omitempty"`
	SubtopicID    *int64  `gorm:"index" json:"subtopicId,omitempty"`
	Text          string  `gorm:"type:text;not null" json:"text"`
	Options       string  `gorm:"type:jsonb;not null" json:"options"`
	CorrectAnswer string  `gorm:"size:8;not null" json:"-"`
	Explanation   *string `gorm:"type:text" json:"explanation,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
