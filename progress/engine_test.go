package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/taskquest/models"
)

// day returns 09:00 UTC on the n-th day of March 2024 counted from 1.
func day(n int) time.Time {
	return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, n-1)
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{25, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{500, 6},
		{-10, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelFor(tc.xp), "xp=%d", tc.xp)
	}
}

func TestDaysBetween(t *testing.T) {
	t.Run("same day ignores time of day", func(t *testing.T) {
		a := time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC)
		b := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, 0, DaysBetween(a, b, time.UTC))
	})

	t.Run("midnight crossing is one day", func(t *testing.T) {
		a := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
		b := time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)
		assert.Equal(t, 1, DaysBetween(a, b, time.UTC))
	})

	t.Run("month and leap day boundaries", func(t *testing.T) {
		a := time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC)
		b := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, 2, DaysBetween(a, b, time.UTC))
	})

	t.Run("calendar follows the configured location", func(t *testing.T) {
		est := time.FixedZone("EST", -5*3600)
		last := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC) // Mar 9 22:00 EST
		now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC) // Mar 10 10:00 EST
		assert.Equal(t, 0, DaysBetween(last, now, time.UTC))
		assert.Equal(t, 1, DaysBetween(last, now, est))
	})

	t.Run("clock going backwards is negative", func(t *testing.T) {
		assert.Equal(t, -1, DaysBetween(day(2), day(1), time.UTC))
	})

	t.Run("nil location means UTC", func(t *testing.T) {
		assert.Equal(t, 3, DaysBetween(day(1), day(4), nil))
	})
}

func TestApplyCompletion_Scenario(t *testing.T) {
	p := models.NewProfile("demo-user")

	p = ApplyCompletion(p, day(1), time.UTC)
	assert.Equal(t, 25, p.XP)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 1, p.StreakCount)
	assert.Equal(t, 1, p.CompletedCount)

	p = ApplyCompletion(p, day(2), time.UTC)
	assert.Equal(t, 50, p.XP)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 2, p.StreakCount)
	assert.Equal(t, 2, p.CompletedCount)

	p = ApplyCompletion(p, day(4), time.UTC)
	assert.Equal(t, 75, p.XP)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 1, p.StreakCount)
	assert.Equal(t, 3, p.CompletedCount)
	require.NotNil(t, p.LastCompletedAt)
	assert.True(t, p.LastCompletedAt.Equal(day(4)))
}

func TestApplyCompletion_ConsecutiveDaysBuildStreak(t *testing.T) {
	p := models.NewProfile("s1")
	for n := 1; n <= 30; n++ {
		p = ApplyCompletion(p, day(n), time.UTC)
		assert.Equal(t, n, p.StreakCount)
		assert.Equal(t, n, p.CompletedCount)
		assert.Equal(t, n*XPPerCompletion, p.XP)
		assert.Equal(t, p.XP/100+1, p.Level)
	}
}

func TestApplyCompletion_GapsResetStreak(t *testing.T) {
	cases := []struct {
		name string
		next time.Time
	}{
		{"same day", day(3).Add(5 * time.Hour)},
		{"two days", day(5)},
		{"a month", day(33)},
		{"clock skew into the past", day(2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := models.NewProfile("s1")
			p = ApplyCompletion(p, day(1), time.UTC)
			p = ApplyCompletion(p, day(2), time.UTC)
			p = ApplyCompletion(p, day(3), time.UTC)
			require.Equal(t, 3, p.StreakCount)

			p = ApplyCompletion(p, tc.next, time.UTC)
			assert.Equal(t, 1, p.StreakCount)
			assert.Equal(t, 4, p.CompletedCount)
			assert.Equal(t, 100, p.XP)
			assert.Equal(t, 2, p.Level)
		})
	}
}

func TestApplyCompletion_DoesNotMutateInput(t *testing.T) {
	last := day(1)
	in := models.Profile{SubjectID: "s1", XP: 75, Level: 1, StreakCount: 3, CompletedCount: 3, LastCompletedAt: &last}

	out := ApplyCompletion(in, day(2), time.UTC)

	assert.Equal(t, 75, in.XP)
	assert.Equal(t, 3, in.StreakCount)
	assert.True(t, in.LastCompletedAt.Equal(day(1)))
	assert.Equal(t, 100, out.XP)
	assert.Equal(t, 2, out.Level)
	assert.Equal(t, 4, out.StreakCount)
}

func TestApplyCompletion_RecomputesDriftedLevel(t *testing.T) {
	p := models.Profile{SubjectID: "s1", XP: 390, Level: 1}
	p = ApplyCompletion(p, day(1), time.UTC)
	assert.Equal(t, 415, p.XP)
	assert.Equal(t, 5, p.Level)
}

func TestApplyUncompletion_KeepsEverything(t *testing.T) {
	last := day(7)
	p := models.Profile{SubjectID: "s1", XP: 300, Level: 4, StreakCount: 5, CompletedCount: 12, LastCompletedAt: &last, Version: 9}
	assert.Equal(t, p, ApplyUncompletion(p))
}

func TestQualifies(t *testing.T) {
	p := models.Profile{XP: 500, StreakCount: 2, CompletedCount: 5}

	assert.True(t, Qualifies(p, models.Badge{Criteria: models.CriteriaXP, Threshold: 500}))
	assert.True(t, Qualifies(p, models.Badge{Criteria: models.CriteriaCompletedCount, Threshold: 5}))
	assert.False(t, Qualifies(p, models.Badge{Criteria: models.CriteriaStreakCount, Threshold: 3}))
	assert.False(t, Qualifies(p, models.Badge{Criteria: "karma", Threshold: 0}))
}
