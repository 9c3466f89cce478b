package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/taskquest/models"
	"github.com/cppla/taskquest/progress"
)

// ProfileRepository is the gorm-backed progress.ProfileStore.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get loads the profile for subjectID, inserting the default row on first access.
func (r *ProfileRepository) Get(ctx context.Context, subjectID string) (models.Profile, error) {
	p, err := r.find(ctx, subjectID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Profile{}, progress.Persistence("find profile", err)
	}

	// Two first requests may race here; the unique subject_id index keeps one row.
	fresh := models.NewProfile(subjectID)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "subject_id"}}, DoNothing: true}).
		Create(&fresh).Error; err != nil && !isDuplicateKey(err) {
		return models.Profile{}, progress.Persistence("create profile", err)
	}

	p, err = r.find(ctx, subjectID)
	if err != nil {
		return models.Profile{}, progress.Persistence("reload profile", err)
	}
	return p, nil
}

func (r *ProfileRepository) find(ctx context.Context, subjectID string) (models.Profile, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&p).Error
	return p, err
}

// Save writes the whole snapshot if the stored version still equals p.Version, then bumps
// p.Version. A moved version yields progress.ErrStaleProfile.
func (r *ProfileRepository) Save(ctx context.Context, p *models.Profile) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("subject_id = ? AND version = ?", p.SubjectID, p.Version).
		Updates(map[string]interface{}{
			"xp":                p.XP,
			"level":             p.Level,
			"streak_count":      p.StreakCount,
			"last_completed_at": p.LastCompletedAt,
			"completed_count":   p.CompletedCount,
			"version":           p.Version + 1,
			"updated_at":        now,
		})
	if res.Error != nil {
		return progress.Persistence("save profile", res.Error)
	}
	if res.RowsAffected == 1 {
		p.Version++
		p.UpdatedAt = now
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("subject_id = ?", p.SubjectID).Count(&count).Error; err != nil {
		return progress.Persistence("save profile", err)
	}
	if count > 0 {
		return progress.ErrStaleProfile
	}

	// Snapshot for a subject that was never loaded: insert it as the first version.
	row := *p
	row.ID = 0
	row.Version = p.Version + 1
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return progress.ErrStaleProfile
		}
		return progress.Persistence("insert profile", err)
	}
	*p = row
	return nil
}
