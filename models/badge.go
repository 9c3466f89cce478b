package models

import "time"

// Profile metrics a badge can be unlocked by.
const (
	CriteriaXP             = "xp"
	CriteriaStreakCount    = "streakCount"
	CriteriaCompletedCount = "completedCount"
)

// Badge is a catalog entry. Rows are immutable by convention once seeded.
type Badge struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Code        string    `gorm:"size:64;uniqueIndex;not null" json:"code" yaml:"code"`
	Title       string    `gorm:"size:128;not null" json:"title" yaml:"title"`
	Description string    `gorm:"size:255" json:"description" yaml:"description"`
	Icon        string    `gorm:"size:32" json:"icon,omitempty" yaml:"icon"`
	Criteria    string    `gorm:"size:32;not null" json:"criteria" yaml:"criteria"`
	Threshold   int       `gorm:"not null" json:"threshold" yaml:"threshold"`
	CreatedAt   time.Time `json:"-" yaml:"-"`
	UpdatedAt   time.Time `json:"-" yaml:"-"`
}
