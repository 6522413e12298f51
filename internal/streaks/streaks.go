// Package streaks holds the calendar-day streak rules. Everything here is
// pure: callers load state, call Advance, and persist the result.
package streaks

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"careerHubAPI/internal/types/streak"
)

type Outcome string

const (
	OutcomeStarted    Outcome = "started"
	OutcomeExtended   Outcome = "extended"
	OutcomeReset      Outcome = "reset"
	OutcomeUnchanged  Outcome = "unchanged"
	OutcomeBackfilled Outcome = "backfilled"
	OutcomeDuplicate  Outcome = "duplicate"
)

// Changed reports whether the outcome modifies the stored record.
func (o Outcome) Changed() bool {
	switch o {
	case OutcomeStarted, OutcomeExtended, OutcomeReset:
		return true
	}
	return false
}

const (
	MaxActivityTypeLen = 50
	MaxDescriptionLen  = 500
)

var activityTypePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// NormalizeActivityType trims and lower-cases t and checks it is a usable tag.
func NormalizeActivityType(t string) (string, error) {
	t = strings.ToLower(strings.TrimSpace(t))
	switch {
	case t == "":
		return "", fmt.Errorf("activity_type is required")
	case len(t) > MaxActivityTypeLen:
		return "", fmt.Errorf("activity_type must be at most %d characters", MaxActivityTypeLen)
	case !activityTypePattern.MatchString(t):
		return "", fmt.Errorf("activity_type may only contain a-z, 0-9, '_' and '-'")
	}
	return t, nil
}

// Day returns the calendar day of t in loc, expressed as UTC midnight so that
// day arithmetic is immune to DST shifts.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b in loc. It is negative when b
// falls on an earlier day than a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	return int(Day(b, loc).Sub(Day(a, loc)).Hours() / 24)
}

// Advance applies one new activity at occurred to rec. rec must not be nil
// but may be the zero record of a user/type that has never been active.
// The duplicate same-day check happens before Advance, against the log.
func Advance(rec streak.Record, occurred time.Time, loc *time.Location) (streak.Record, Outcome) {
	next := rec

	if rec.LastActivityDate == nil || rec.CurrentStreak == 0 {
		at := occurred
		next.CurrentStreak = 1
		if next.LongestStreak < 1 {
			next.LongestStreak = 1
		}
		next.LastActivityDate = &at
		return next, OutcomeStarted
	}

	gap := DaysBetween(*rec.LastActivityDate, occurred, loc)
	switch {
	case gap < 0:
		return rec, OutcomeBackfilled
	case gap == 0:
		return rec, OutcomeUnchanged
	case gap == 1:
		next.CurrentStreak++
	default:
		next.CurrentStreak = 1
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	at := occurred
	next.LastActivityDate = &at

	if gap == 1 {
		return next, OutcomeExtended
	}
	return next, OutcomeReset
}

var milestones = []int{7, 30, 100, 365}

// Milestone returns the milestone reached by moving from before to after
// current-streak days, or 0.
func Milestone(before, after int) int {
	if after <= before {
		return 0
	}
	for _, m := range milestones {
		if before < m && after >= m {
			return m
		}
	}
	return 0
}
