package calendar

import "time"

type CalendarDay struct {
	Date        time.Time `json:"date"`
	Active      bool      `json:"active"`
	StreakCount int       `json:"streak_count"`
	IsToday     bool      `json:"is_today"`
}

type CalendarResponse struct {
	Year         int            `json:"year"`
	Month        int            `json:"month"`
	ActivityType string         `json:"activity_type"`
	ActiveDays   int            `json:"active_days"`
	Days         []*CalendarDay `json:"days"`
}
