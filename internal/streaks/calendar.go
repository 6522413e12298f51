package streaks

import (
	"fmt"
	"time"

	"careerHubAPI/internal/types/calendar"
)

const dayKey = "2006-01-02"

// ValidateMonth checks the year/month pair accepted by the calendar view.
func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return fmt.Errorf("year must be between 2000 and 2100")
	}
	return nil
}

// MonthBounds returns the first and last calendar day of the month as UTC
// midnights.
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// BuildCalendar lays out every day of the month with its activity flag and
// the running streak through that day. activeDays are calendar days (UTC
// midnights, any order, duplicates allowed) and may reach back before the
// month so streaks that began earlier are counted. today is a calendar day.
func BuildCalendar(year, month int, activeDays []time.Time, today time.Time) []*calendar.CalendarDay {
	start, end := MonthBounds(year, month)

	active := make(map[string]bool, len(activeDays))
	for _, d := range activeDays {
		active[d.Format(dayKey)] = true
	}

	run := 0
	for d := start.AddDate(0, 0, -1); active[d.Format(dayKey)]; d = d.AddDate(0, 0, -1) {
		run++
	}

	todayKey := today.Format(dayKey)
	days := make([]*calendar.CalendarDay, 0, end.Day())
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayKey)
		if active[key] {
			run++
		} else {
			run = 0
		}
		days = append(days, &calendar.CalendarDay{
			Date:        d,
			Active:      active[key],
			StreakCount: run,
			IsToday:     key == todayKey,
		})
	}
	return days
}
