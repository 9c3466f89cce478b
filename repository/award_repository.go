package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/taskquest/models"
	"github.com/cppla/taskquest/progress"
)

// AwardRepository is the gorm-backed progress.Ledger. Uniqueness of (subject, badge) is the
// idx_award_subject_badge index, not application logic.
type AwardRepository struct {
	db *gorm.DB
}

// NewAwardRepository creates a new AwardRepository.
func NewAwardRepository(db *gorm.DB) *AwardRepository {
	return &AwardRepository{db: db}
}

// HasAward reports whether subjectID already owns badgeCode.
func (r *AwardRepository) HasAward(ctx context.Context, subjectID, badgeCode string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Award{}).
		Where("subject_id = ? AND badge_code = ?", subjectID, badgeCode).
		Count(&n).Error
	if err != nil {
		return false, progress.Persistence("check award", err)
	}
	return n > 0, nil
}

// Award inserts the record or returns progress.ErrDuplicateAward when it exists.
func (r *AwardRepository) Award(ctx context.Context, subjectID, badgeCode string, at time.Time) error {
	row := models.Award{SubjectID: subjectID, BadgeCode: badgeCode, AwardedAt: at}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return progress.ErrDuplicateAward
		}
		return progress.Persistence("insert award", err)
	}
	return nil
}

// ListFor returns the subject's awards joined with their badges, oldest first.
func (r *AwardRepository) ListFor(ctx context.Context, subjectID string) ([]models.AwardedBadge, error) {
	out := []models.AwardedBadge{}
	err := r.db.WithContext(ctx).Table("awards").
		Select("badges.code, badges.title, badges.description, badges.icon, awards.awarded_at").
		Joins("JOIN badges ON badges.code = awards.badge_code").
		Where("awards.subject_id = ?", subjectID).
		Order("awards.awarded_at ASC, awards.id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, progress.Persistence("list awards", err)
	}
	return out, nil
}
