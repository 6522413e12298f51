package streaks

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerHubAPI/internal/types/streak"
)

func jan(day, hour, min int) time.Time {
	return time.Date(2025, time.January, day, hour, min, 0, 0, time.UTC)
}

func TestAdvanceFirstActivityStartsAtOne(t *testing.T) {
	next, outcome := Advance(streak.Record{}, jan(1, 9, 0), time.UTC)

	assert.Equal(t, OutcomeStarted, outcome)
	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 1, next.LongestStreak)
	require.NotNil(t, next.LastActivityDate)
	assert.Equal(t, jan(1, 9, 0), *next.LastActivityDate)
}

func TestAdvanceConsecutiveThenGap(t *testing.T) {
	rec := streak.Record{}
	var outcome Outcome
	for _, day := range []int{1, 2, 3} {
		rec, outcome = Advance(rec, jan(day, 12, 0), time.UTC)
	}
	assert.Equal(t, OutcomeExtended, outcome)
	assert.Equal(t, 3, rec.CurrentStreak)
	assert.Equal(t, 3, rec.LongestStreak)

	rec, outcome = Advance(rec, jan(5, 12, 0), time.UTC)
	assert.Equal(t, OutcomeReset, outcome)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Equal(t, 3, rec.LongestStreak)
	assert.Equal(t, jan(5, 12, 0), *rec.LastActivityDate)
}

func TestAdvanceMidnightBoundaryIsConsecutive(t *testing.T) {
	rec, _ := Advance(streak.Record{}, jan(1, 23, 59), time.UTC)
	rec, outcome := Advance(rec, jan(2, 0, 1), time.UTC)

	assert.Equal(t, OutcomeExtended, outcome)
	assert.Equal(t, 2, rec.CurrentStreak)
}

func TestAdvanceNextCalendarDayCountsRegardlessOfHours(t *testing.T) {
	// 00:01 to 23:59 the next day is almost 48h apart but one calendar day.
	rec, _ := Advance(streak.Record{}, jan(1, 0, 1), time.UTC)
	rec, outcome := Advance(rec, jan(2, 23, 59), time.UTC)

	assert.Equal(t, OutcomeExtended, outcome)
	assert.Equal(t, 2, rec.CurrentStreak)
}

func TestAdvanceUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	// 20:00 UTC on Jan 1 is already Jan 2 in UTC+5.
	rec, _ := Advance(streak.Record{}, jan(1, 10, 0), loc)
	rec, outcome := Advance(rec, jan(1, 20, 0), loc)

	assert.Equal(t, OutcomeExtended, outcome)
	assert.Equal(t, 2, rec.CurrentStreak)
}

func TestAdvanceBackfilledDateNeverMovesCountersBack(t *testing.T) {
	rec := streak.Record{}
	for _, day := range []int{4, 5, 6} {
		rec, _ = Advance(rec, jan(day, 8, 0), time.UTC)
	}

	next, outcome := Advance(rec, jan(2, 8, 0), time.UTC)

	assert.Equal(t, OutcomeBackfilled, outcome)
	assert.Equal(t, rec, next)
	assert.Equal(t, jan(6, 8, 0), *next.LastActivityDate)
}

func TestAdvanceSameDayIsUnchanged(t *testing.T) {
	rec, _ := Advance(streak.Record{}, jan(1, 8, 0), time.UTC)
	next, outcome := Advance(rec, jan(1, 18, 0), time.UTC)

	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.False(t, outcome.Changed())
	assert.Equal(t, rec, next)
}

// longestConsecutiveSuffix is the reference for the monotonicity property.
func longestConsecutiveSuffix(days []time.Time) int {
	n := 1
	for i := len(days) - 1; i > 0; i-- {
		if DaysBetween(days[i-1], days[i], time.UTC) != 1 {
			break
		}
		n++
	}
	return n
}

func TestAdvanceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 500; iter++ {
		rec := streak.Record{}
		day := jan(1, 0, 0)
		var days []time.Time
		maxSeen := 0
		steps := 1 + rng.Intn(40)

		for step := 0; step < steps; step++ {
			day = day.AddDate(0, 0, 1+rng.Intn(3)*rng.Intn(2))
			at := day.Add(time.Duration(rng.Intn(24*60)) * time.Minute)
			days = append(days, at)

			var outcome Outcome
			rec, outcome = Advance(rec, at, time.UTC)
			require.True(t, outcome.Changed())

			if rec.CurrentStreak > maxSeen {
				maxSeen = rec.CurrentStreak
			}
			require.LessOrEqual(t, rec.CurrentStreak, rec.LongestStreak)
			require.Equal(t, maxSeen, rec.LongestStreak)
			require.GreaterOrEqual(t, rec.CurrentStreak, 1)
		}

		assert.Equal(t, longestConsecutiveSuffix(days), rec.CurrentStreak)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(jan(1, 0, 0), jan(1, 23, 59), time.UTC))
	assert.Equal(t, 1, DaysBetween(jan(1, 23, 59), jan(2, 0, 0), time.UTC))
	assert.Equal(t, -3, DaysBetween(jan(5, 1, 0), jan(2, 23, 0), time.UTC))

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	before := time.Date(2025, time.March, 8, 12, 0, 0, 0, ny)
	after := time.Date(2025, time.March, 9, 12, 0, 0, 0, ny)
	assert.Equal(t, 1, DaysBetween(before, after, ny), "DST switch must not change day count")
}

func TestNormalizeActivityType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"general", "general", false},
		{"  Coding ", "coding", false},
		{"mock-interview_2", "mock-interview_2", false},
		{"", "", true},
		{"   ", "", true},
		{"has space", "", true},
		{"emoji🔥", "", true},
		{string(make([]byte, MaxActivityTypeLen+1)), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeActivityType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMilestone(t *testing.T) {
	assert.Equal(t, 7, Milestone(6, 7))
	assert.Equal(t, 0, Milestone(7, 8))
	assert.Equal(t, 30, Milestone(29, 30))
	assert.Equal(t, 0, Milestone(7, 1))
	assert.Equal(t, 0, Milestone(0, 1))
	assert.Equal(t, 365, Milestone(364, 365))
}
