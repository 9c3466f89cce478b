package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/taskquest/models"
	"github.com/cppla/taskquest/progress"
)

// BadgeRepository is the gorm-backed progress.Catalog.
type BadgeRepository struct {
	db       *gorm.DB
	defaults []models.Badge
}

// NewBadgeRepository creates a catalog seeded from defaults. A nil slice means
// progress.DefaultBadges.
func NewBadgeRepository(db *gorm.DB, defaults []models.Badge) *BadgeRepository {
	if defaults == nil {
		defaults = progress.DefaultBadges()
	}
	return &BadgeRepository{db: db, defaults: defaults}
}

// List returns every badge in insertion order.
func (r *BadgeRepository) List(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&badges).Error; err != nil {
		return nil, progress.Persistence("list badges", err)
	}
	return badges, nil
}

// EnsureSeeded inserts the default set when the table is empty. Concurrent seeders collide on
// the unique code index, which counts as success.
func (r *BadgeRepository) EnsureSeeded(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Badge{}).Count(&count).Error; err != nil {
		return progress.Persistence("count badges", err)
	}
	if count > 0 {
		return nil
	}
	_, err := r.AddMissing(ctx, r.defaults)
	return err
}

// AddMissing inserts the definitions whose code is not stored yet and leaves existing rows
// untouched. It returns how many rows were inserted.
func (r *BadgeRepository) AddMissing(ctx context.Context, defs []models.Badge) (int, error) {
	inserted := 0
	for _, def := range defs {
		row := def
		row.ID = 0
		res := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
			Create(&row)
		if res.Error != nil {
			if isDuplicateKey(res.Error) {
				continue
			}
			return inserted, progress.Persistence("insert badge "+def.Code, res.Error)
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}
