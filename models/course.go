package models

import "time"

// Course is the top level of the content hierarchy (e.g. Periodontoloji).
type Course struct {
	ID          int64   `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Slug        string  `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	TitleSearch string  `gorm:"size:255;index" json:"-"` // Turkish-folded title for LIKE search
	Description string  `gorm:"type:text" json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	SortOrder   int     `gorm:"not null;default:0" json:"sortOrder"`

	Topics []Topic `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"topics,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Topic is a branch within a course. Duels may be scoped to one (branchId).
type Topic struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	CourseID    int64  `gorm:"index;not null" json:"courseId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	SortOrder   int    `gorm:"not null;default:0" json:"sortOrder"`

	Subtopics []Subtopic `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"subtopics,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Subtopic is the unit mastery is tracked against.
type Subtopic struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	TopicID   int64  `gorm:"index;not null" json:"topicId"`
	Title     string `gorm:"size:255;not null" json:"title"`
	SortOrder int    `gorm:"not null;default:0" json:"sortOrder"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
