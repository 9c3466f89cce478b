package models

import (
	"time"

	"gorm.io/gorm"
)

// Award records that a subject unlocked a badge. The (subject, badge) pair is unique.
type Award struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	SubjectID string    `gorm:"size:64;not null;index:idx_award_subject_badge,unique" json:"subject_id"`
	BadgeCode string    `gorm:"size:64;not null;index:idx_award_subject_badge,unique" json:"badge_code"`
	AwardedAt time.Time `gorm:"not null" json:"awarded_at"`
	CreatedAt time.Time `json:"-"`
}

// BeforeCreate fills AwardedAt when the caller did not supply one.
func (a *Award) BeforeCreate(tx *gorm.DB) error {
	if a.AwardedAt.IsZero() {
		a.AwardedAt = time.Now()
	}
	return nil
}

// AwardedBadge joins an Award with its catalog entry for display.
type AwardedBadge struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	AwardedAt   time.Time `json:"awarded_at"`
}
