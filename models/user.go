package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a platform account. Duel counters are denormalized onto the row
// and only ever move through store-side increment expressions, never
// read-modify-write.
type User struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	Email        string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username     string  `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string  `gorm:"size:255;not null" json:"-"`
	Role         string  `gorm:"size:16;not null;default:'student';check:role IN ('student','admin')" json:"role"`
	AvatarURL    *string `json:"avatarUrl,omitempty"`

	// Duel counters
	TotalDuels          int64 `gorm:"not null;default:0" json:"totalDuels"`
	DuelsWon            int64 `gorm:"not null;default:0" json:"duelsWon"`
	DuelsLost           int64 `gorm:"not null;default:0" json:"duelsLost"`
	CurrentLosingStreak int64 `gorm:"not null;default:0" json:"currentLosingStreak"`
	LongestLosingStreak int64 `gorm:"not null;default:0" json:"longestLosingStreak"`

	// Study bookkeeping
	TotalStudyTime int64      `gorm:"not null;default:0" json:"totalStudyTime"` // seconds
	LastActiveAt   *time.Time `json:"lastActiveAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// WinRate returns duelsWon/totalDuels with two decimals, "0.00" for users
// who never completed a duel.
func (u *User) WinRate() string {
	if u.TotalDuels == 0 {
		return "0.00"
	}
	return decimal.NewFromInt(u.DuelsWon).
		Div(decimal.NewFromInt(u.TotalDuels)).
		StringFixed(2)
}

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)
