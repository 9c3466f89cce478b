package models

import "time"

// Profile stores the cumulative progress of one subject.
type Profile struct {
	ID              uint       `gorm:"primaryKey" json:"-"`
	SubjectID       string     `gorm:"size:64;uniqueIndex;not null" json:"subject_id"`
	XP              int        `gorm:"not null;default:0" json:"xp"`
	Level           int        `gorm:"not null;default:1" json:"level"`
	StreakCount     int        `gorm:"not null;default:0" json:"streak_count"`
	LastCompletedAt *time.Time `json:"last_completed_at"`
	CompletedCount  int        `gorm:"not null;default:0" json:"completed_count"`
	Version         int64      `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewProfile returns the snapshot a subject starts with before any completion.
func NewProfile(subjectID string) Profile {
	return Profile{SubjectID: subjectID, Level: 1}
}
