package progress

import (
	"fmt"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/cppla/taskquest/models"
)

var textPolicy = bluemonday.StrictPolicy()

// DefaultBadges is the catalog seeded into an empty badge table.
func DefaultBadges() []models.Badge {
	return []models.Badge{
		{
			Code:        "first-five",
			Title:       "Starter Spark",
			Description: "Completed 5 tasks",
			Icon:        "✨",
			Criteria:    models.CriteriaCompletedCount,
			Threshold:   5,
		},
		{
			Code:        "streak-3",
			Title:       "Momentum Maker",
			Description: "3-day completion streak",
			Icon:        "🔥",
			Criteria:    models.CriteriaStreakCount,
			Threshold:   3,
		},
		{
			Code:        "xp-500",
			Title:       "XP Trailblazer",
			Description: "Earned 500 XP",
			Icon:        "🚀",
			Criteria:    models.CriteriaXP,
			Threshold:   500,
		},
	}
}

type catalogFile struct {
	Version int            `yaml:"version"`
	Badges  []models.Badge `yaml:"badges"`
}

// LoadCatalogFile reads badge definitions from a YAML file of the form
//
//	version: 2
//	badges:
//	  - code: first-five
//	    title: Starter Spark
//	    criteria: completedCount
//	    threshold: 5
//
// Free text is stripped of markup. An empty path yields DefaultBadges.
func LoadCatalogFile(path string) ([]models.Badge, error) {
	if path == "" {
		return DefaultBadges(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read badge catalog %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse badge catalog %s: %w: %v", path, ErrValidation, err)
	}
	for i := range f.Badges {
		b := &f.Badges[i]
		b.Code = strings.TrimSpace(b.Code)
		b.Title = textPolicy.Sanitize(strings.TrimSpace(b.Title))
		b.Description = textPolicy.Sanitize(strings.TrimSpace(b.Description))
		b.Icon = textPolicy.Sanitize(strings.TrimSpace(b.Icon))
	}
	if err := ValidateBadges(f.Badges); err != nil {
		return nil, fmt.Errorf("badge catalog %s: %w", path, err)
	}
	return f.Badges, nil
}

// ValidateBadges checks codes are present and unique, criteria are known and thresholds positive.
func ValidateBadges(defs []models.Badge) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: catalog has no badges", ErrValidation)
	}
	seen := make(map[string]bool, len(defs))
	for _, b := range defs {
		if b.Code == "" || b.Title == "" {
			return fmt.Errorf("%w: badge needs a code and a title", ErrValidation)
		}
		if seen[b.Code] {
			return fmt.Errorf("%w: duplicate badge code %q", ErrValidation, b.Code)
		}
		seen[b.Code] = true
		if _, ok := Metric(models.Profile{}, b.Criteria); !ok {
			return fmt.Errorf("%w: badge %q has unknown criteria %q", ErrValidation, b.Code, b.Criteria)
		}
		if b.Threshold <= 0 {
			return fmt.Errorf("%w: badge %q needs a positive threshold", ErrValidation, b.Code)
		}
	}
	return nil
}
