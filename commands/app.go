package commands

import (
	"time"

	"gorm.io/gorm"

	"github.com/cppla/taskquest/config"
	"github.com/cppla/taskquest/models"
	"github.com/cppla/taskquest/progress"
	"github.com/cppla/taskquest/repository"
	"github.com/cppla/taskquest/utils"
)

// app bundles the wired engine and the stores behind it.
type app struct {
	db      *gorm.DB
	badges  *repository.BadgeRepository
	catalog []models.Badge
	tracker *progress.Tracker
}

func newApp(cfg config.AppConfig) (*app, error) {
	catalog, err := progress.LoadCatalogFile(cfg.BadgeCatalogPath)
	if err != nil {
		return nil, err
	}

	db, err := config.Open(cfg, &models.Profile{}, &models.Badge{}, &models.Award{})
	if err != nil {
		return nil, err
	}

	var locker progress.Locker = progress.NewKeyedMutex()
	if rc := utils.GetRedis(); rc != nil {
		locker = utils.NewRedisLocker(rc,
			time.Duration(cfg.SubjectLockTTLSec)*time.Second,
			time.Duration(cfg.SubjectLockWaitSec)*time.Second)
	}

	badges := repository.NewBadgeRepository(db, catalog)
	tracker := progress.NewTracker(
		repository.NewProfileRepository(db),
		badges,
		repository.NewAwardRepository(db),
		progress.Options{
			Location: cfg.Location(),
			Locker:   locker,
			Logger:   utils.Logger.Named("progress"),
		},
	)
	return &app{db: db, badges: badges, catalog: catalog, tracker: tracker}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
