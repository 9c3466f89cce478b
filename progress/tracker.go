package progress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cppla/taskquest/models"
)

// ProfileStore persists one Profile per subject.
type ProfileStore interface {
	// Get returns the stored profile, creating the default one when absent.
	Get(ctx context.Context, subjectID string) (models.Profile, error)
	// Save overwrites every field of p and advances p.Version. It returns ErrStaleProfile
	// when the stored version no longer matches p.Version.
	Save(ctx context.Context, p *models.Profile) error
}

// Catalog is the shared, read-only set of badge definitions.
type Catalog interface {
	List(ctx context.Context) ([]models.Badge, error)
	EnsureSeeded(ctx context.Context) error
}

// Ledger records which badges a subject owns. Award must return ErrDuplicateAward when the
// storage uniqueness constraint rejects the pair.
type Ledger interface {
	HasAward(ctx context.Context, subjectID, badgeCode string) (bool, error)
	Award(ctx context.Context, subjectID, badgeCode string, at time.Time) error
	ListFor(ctx context.Context, subjectID string) ([]models.AwardedBadge, error)
}

// Result is what a completion or un-completion reports back to the caller.
type Result struct {
	Profile      models.Profile `json:"profile"`
	NewlyAwarded []models.Badge `json:"newly_awarded"`
}

// BadgeStatus is a catalog entry annotated for one subject.
type BadgeStatus struct {
	models.Badge
	Unlocked  bool       `json:"unlocked"`
	AwardedAt *time.Time `json:"awarded_at,omitempty"`
}

// Rules describes the fixed reward model.
type Rules struct {
	XPPerCompletion int    `json:"xp_per_completion"`
	XPPerLevel      int    `json:"xp_per_level"`
	StreakTimezone  string `json:"streak_timezone"`
}

// Options tunes a Tracker. Zero values pick the defaults.
type Options struct {
	// Location is the calendar used to compare completion days. Defaults to UTC.
	Location *time.Location
	// Locker serializes transitions per subject. Defaults to an in-process KeyedMutex.
	Locker Locker
	Logger *zap.Logger
	Clock  func() time.Time
	// MaxRetries bounds how often a stale profile save is retried.
	MaxRetries uint64
}

// Tracker applies completion events to the stores.
type Tracker struct {
	profiles ProfileStore
	catalog  Catalog
	ledger   Ledger
	locker   Locker
	loc      *time.Location
	log      *zap.Logger
	now      func() time.Time
	retries  uint64
	seeded   atomic.Bool
}

// NewTracker wires a Tracker over the given stores.
func NewTracker(profiles ProfileStore, catalog Catalog, ledger Ledger, opts Options) *Tracker {
	t := &Tracker{
		profiles: profiles,
		catalog:  catalog,
		ledger:   ledger,
		locker:   opts.Locker,
		loc:      opts.Location,
		log:      opts.Logger,
		now:      opts.Clock,
		retries:  opts.MaxRetries,
	}
	if t.locker == nil {
		t.locker = NewKeyedMutex()
	}
	if t.loc == nil {
		t.loc = time.UTC
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.retries == 0 {
		t.retries = 5
	}
	return t
}

// OnTaskCompleted records a completion at the tracker's current time.
func (t *Tracker) OnTaskCompleted(ctx context.Context, subjectID string) (Result, error) {
	return t.RecordCompletion(ctx, subjectID, t.now())
}

// OnTaskUncompleted reports the current profile; nothing is reversed.
func (t *Tracker) OnTaskUncompleted(ctx context.Context, subjectID string) (Result, error) {
	return t.RecordUncompletion(ctx, subjectID)
}

// RecordCompletion applies one completion at now and awards newly qualifying badges.
// Callers retrying after a failure should pass the same now.
func (t *Tracker) RecordCompletion(ctx context.Context, subjectID string, now time.Time) (Result, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return Result{}, err
	}

	unlock, err := t.locker.Lock(ctx, subjectID)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	var saved models.Profile
	op := func() error {
		cur, err := t.profiles.Get(ctx, subjectID)
		if err != nil {
			return backoff.Permanent(Persistence("load profile", err))
		}
		next := ApplyCompletion(cur, now, t.loc)
		if err := t.profiles.Save(ctx, &next); err != nil {
			if errors.Is(err, ErrStaleProfile) {
				return err
			}
			return backoff.Permanent(Persistence("save profile", err))
		}
		saved = next
		return nil
	}
	notify := func(err error, wait time.Duration) {
		t.log.Warn("profile save conflict, retrying",
			zap.String("subject", subjectID), zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(op, t.retryPolicy(ctx), notify); err != nil {
		if errors.Is(err, ErrStaleProfile) {
			return Result{}, fmt.Errorf("save profile: %w: %w", ErrPersistence, err)
		}
		return Result{}, err
	}

	t.log.Debug("completion applied",
		zap.String("subject", subjectID),
		zap.Int("xp", saved.XP),
		zap.Int("level", saved.Level),
		zap.Int("streak", saved.StreakCount),
		zap.Int("completed", saved.CompletedCount))

	awarded, err := t.EvaluateBadges(ctx, saved, now)
	if err != nil {
		return Result{Profile: saved, NewlyAwarded: awarded}, err
	}
	return Result{Profile: saved, NewlyAwarded: awarded}, nil
}

func (t *Tracker) retryPolicy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 5 * time.Millisecond
	eb.MaxInterval = 200 * time.Millisecond
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, t.retries), ctx)
}

// EvaluateBadges awards every catalog badge p qualifies for and returns those that were not
// owned yet. Running it again against the same state returns an empty slice.
func (t *Tracker) EvaluateBadges(ctx context.Context, p models.Profile, at time.Time) ([]models.Badge, error) {
	badges, err := t.Catalog(ctx)
	if err != nil {
		return []models.Badge{}, err
	}

	awarded := []models.Badge{}
	for _, b := range badges {
		if !Qualifies(p, b) {
			continue
		}
		owned, err := t.ledger.HasAward(ctx, p.SubjectID, b.Code)
		if err != nil {
			return awarded, Persistence("check award", err)
		}
		if owned {
			continue
		}
		// The unique index decides races between concurrent evaluations.
		if err := t.ledger.Award(ctx, p.SubjectID, b.Code, at); err != nil {
			if errors.Is(err, ErrDuplicateAward) {
				continue
			}
			return awarded, Persistence("award badge", err)
		}
		t.log.Info("badge awarded", zap.String("subject", p.SubjectID), zap.String("badge", b.Code))
		awarded = append(awarded, b)
	}
	return awarded, nil
}

// RecordUncompletion returns the subject's profile unchanged.
func (t *Tracker) RecordUncompletion(ctx context.Context, subjectID string) (Result, error) {
	p, err := t.Profile(ctx, subjectID)
	if err != nil {
		return Result{}, err
	}
	return Result{Profile: ApplyUncompletion(p), NewlyAwarded: []models.Badge{}}, nil
}

// Profile returns the current snapshot, creating it on first access.
func (t *Tracker) Profile(ctx context.Context, subjectID string) (models.Profile, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return models.Profile{}, err
	}
	p, err := t.profiles.Get(ctx, subjectID)
	if err != nil {
		return models.Profile{}, Persistence("load profile", err)
	}
	return p, nil
}

// Catalog returns the badge definitions, seeding the defaults on first use.
func (t *Tracker) Catalog(ctx context.Context) ([]models.Badge, error) {
	if !t.seeded.Load() {
		if err := t.catalog.EnsureSeeded(ctx); err != nil {
			return nil, Persistence("seed catalog", err)
		}
		t.seeded.Store(true)
	}
	badges, err := t.catalog.List(ctx)
	if err != nil {
		return nil, Persistence("list badges", err)
	}
	return badges, nil
}

// Awards lists the badges a subject owns.
func (t *Tracker) Awards(ctx context.Context, subjectID string) ([]models.AwardedBadge, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return nil, err
	}
	awards, err := t.ledger.ListFor(ctx, subjectID)
	if err != nil {
		return nil, Persistence("list awards", err)
	}
	return awards, nil
}

// CatalogFor returns the full catalog with each entry marked unlocked or locked for subjectID.
func (t *Tracker) CatalogFor(ctx context.Context, subjectID string) ([]BadgeStatus, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return nil, err
	}

	var (
		badges []models.Badge
		awards []models.AwardedBadge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		badges, err = t.Catalog(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		awards, err = t.Awards(gctx, subjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owned := make(map[string]time.Time, len(awards))
	for _, a := range awards {
		owned[a.Code] = a.AwardedAt
	}
	out := make([]BadgeStatus, 0, len(badges))
	for _, b := range badges {
		st := BadgeStatus{Badge: b}
		if at, ok := owned[b.Code]; ok {
			at := at
			st.Unlocked = true
			st.AwardedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// Rules reports the reward model in effect.
func (t *Tracker) Rules() Rules {
	return Rules{
		XPPerCompletion: XPPerCompletion,
		XPPerLevel:      XPPerLevel,
		StreakTimezone:  t.loc.String(),
	}
}
