package streak

import (
	"time"

	"github.com/google/uuid"
)

const GeneralActivity = "general"

// Record is the streak state of one user for one activity type.
// A nil LastActivityDate means no activity has been recorded yet.
type Record struct {
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	ActivityType     string     `json:"activity_type" db:"activity_type"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date" db:"last_activity_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type ActivityLogEntry struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	ActivityType string    `json:"activity_type" db:"activity_type"`
	ActivityDate time.Time `json:"activity_date" db:"activity_date"`
	// ActivityDay is the calendar day of ActivityDate, as UTC midnight.
	ActivityDay time.Time `json:"activity_day" db:"activity_day"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type RecordActivityRequest struct {
	ActivityType string     `json:"activity_type"`
	Description  *string    `json:"description,omitempty"`
	OccurredAt   *time.Time `json:"occurred_at,omitempty"`
}

type RecordResult struct {
	Streak        *Record `json:"streak"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	Duplicate     bool    `json:"duplicate"`
	Outcome       string  `json:"outcome"`
}

type Stats struct {
	TotalActivities   int  `json:"total_activities"`
	ActiveDays        int  `json:"active_days"`
	ActivityTypes     int  `json:"activity_types"`
	BestCurrentStreak int  `json:"best_current_streak"`
	BestLongestStreak int  `json:"best_longest_streak"`
	TodayLogged       bool `json:"today_logged"`
}
