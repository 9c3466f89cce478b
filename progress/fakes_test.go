package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cppla/taskquest/models"
)

type memProfiles struct {
	mu      sync.Mutex
	rows    map[string]models.Profile
	stale   int
	saveErr error
	getErr  error
	saves   int
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: map[string]models.Profile{}}
}

func (m *memProfiles) Get(_ context.Context, subjectID string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return models.Profile{}, m.getErr
	}
	p, ok := m.rows[subjectID]
	if !ok {
		p = models.NewProfile(subjectID)
		m.rows[subjectID] = p
	}
	return p, nil
}

func (m *memProfiles) Save(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.stale > 0 {
		m.stale--
		return ErrStaleProfile
	}
	if cur := m.rows[p.SubjectID]; cur.Version != p.Version {
		return ErrStaleProfile
	}
	p.Version++
	m.rows[p.SubjectID] = *p
	return nil
}

type memCatalog struct {
	mu      sync.Mutex
	badges  []models.Badge
	seeds   int
	listErr error
}

func (m *memCatalog) List(context.Context) ([]models.Badge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.Badge(nil), m.badges...), nil
}

func (m *memCatalog) EnsureSeeded(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeds++
	if len(m.badges) == 0 {
		m.badges = DefaultBadges()
	}
	return nil
}

type memLedger struct {
	mu sync.Mutex
	at map[string]time.Time
	// blind makes HasAward always answer false so Award has to reject duplicates itself.
	blind    bool
	awardErr error
	awards   int
}

func newMemLedger() *memLedger {
	return &memLedger{at: map[string]time.Time{}}
}

func (m *memLedger) HasAward(_ context.Context, subjectID, badgeCode string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blind {
		return false, nil
	}
	_, ok := m.at[subjectID+"|"+badgeCode]
	return ok, nil
}

func (m *memLedger) Award(_ context.Context, subjectID, badgeCode string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.awardErr != nil {
		return m.awardErr
	}
	key := subjectID + "|" + badgeCode
	if _, ok := m.at[key]; ok {
		return ErrDuplicateAward
	}
	m.at[key] = at
	m.awards++
	return nil
}

func (m *memLedger) ListFor(_ context.Context, subjectID string) ([]models.AwardedBadge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.AwardedBadge{}
	for key, at := range m.at {
		if len(key) > len(subjectID) && key[:len(subjectID)+1] == subjectID+"|" {
			out = append(out, models.AwardedBadge{Code: key[len(subjectID)+1:], AwardedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memLedger) count(subjectID, badgeCode string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.at[subjectID+"|"+badgeCode]; ok {
		return 1
	}
	return 0
}
