// Package progress holds the rules that turn task completions into XP, levels, streaks and
// badges, and the Tracker that applies them against a store.
package progress

import (
	"time"

	"github.com/cppla/taskquest/models"
)

const (
	// XPPerCompletion is granted for every completion regardless of the task's own points.
	XPPerCompletion = 25
	// XPPerLevel is the width of one level.
	XPPerLevel = 100
)

// LevelFor returns the level for an XP total.
func LevelFor(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// DaysBetween returns the number of calendar days from last to now, both truncated to
// midnight in loc. It is negative when now lies before last.
func DaysBetween(last, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	a := dateOnly(last, loc)
	b := dateOnly(now, loc)
	// Dates are rebuilt in UTC so DST transitions in loc do not produce 23h or 25h days.
	return int(b.Sub(a).Hours() / 24)
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ApplyCompletion returns the profile after one completion at now. Only a gap of exactly one
// calendar day extends the streak; a repeat on the same day or a longer gap restarts it at 1.
func ApplyCompletion(p models.Profile, now time.Time, loc *time.Location) models.Profile {
	if p.LastCompletedAt == nil {
		p.StreakCount = 1
	} else if DaysBetween(*p.LastCompletedAt, now, loc) == 1 {
		p.StreakCount++
	} else {
		p.StreakCount = 1
	}

	at := now
	p.LastCompletedAt = &at
	p.CompletedCount++
	p.XP += XPPerCompletion
	p.Level = LevelFor(p.XP)
	return p
}

// ApplyUncompletion returns p unchanged. Rewards are never taken back.
func ApplyUncompletion(p models.Profile) models.Profile {
	return p
}

// Metric returns the profile value a badge criteria refers to.
func Metric(p models.Profile, criteria string) (int, bool) {
	switch criteria {
	case models.CriteriaXP:
		return p.XP, true
	case models.CriteriaStreakCount:
		return p.StreakCount, true
	case models.CriteriaCompletedCount:
		return p.CompletedCount, true
	default:
		return 0, false
	}
}

// Qualifies reports whether p meets the badge threshold. Unknown criteria never qualify.
func Qualifies(p models.Profile, b models.Badge) bool {
	v, ok := Metric(p, b.Criteria)
	return ok && v >= b.Threshold
}
