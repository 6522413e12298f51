package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"careerHubAPI/internal/types/streak"
)

// LogSummary aggregates a user's activity log.
type LogSummary struct {
	TotalActivities int
	ActiveDays      int
	TodayLogged     bool
}

type StreakRepository interface {
	// EnsureAndLock returns the streak row for (userID, activityType) locked
	// for the rest of the transaction, creating an empty one first if needed.
	EnsureAndLock(ctx context.Context, q DBTX, userID uuid.UUID, activityType string) (*streak.Record, error)
	// InsertLog appends e and reports false when an entry for the same
	// calendar day already exists.
	InsertLog(ctx context.Context, q DBTX, e *streak.ActivityLogEntry) (bool, error)
	Update(ctx context.Context, q DBTX, rec *streak.Record) error
	ListByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]*streak.Record, error)
	// ActiveDays returns the distinct calendar days on or before until, newest
	// first. An empty activityType matches every type.
	ActiveDays(ctx context.Context, q DBTX, userID uuid.UUID, activityType string, until time.Time) ([]time.Time, error)
	ListLog(ctx context.Context, q DBTX, userID uuid.UUID, activityType string, limit int) ([]*streak.ActivityLogEntry, error)
	Summary(ctx context.Context, q DBTX, userID uuid.UUID, today time.Time) (*LogSummary, error)
}

type StreakRepo struct{}

func NewStreakRepo() *StreakRepo { return &StreakRepo{} }

const streakColumns = `user_id, activity_type, current_streak, longest_streak, last_activity_date, created_at, updated_at`

func scanStreak(row pgx.Row) (*streak.Record, error) {
	rec := &streak.Record{}
	err := row.Scan(
		&rec.UserID,
		&rec.ActivityType,
		&rec.CurrentStreak,
		&rec.LongestStreak,
		&rec.LastActivityDate,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

func (r *StreakRepo) EnsureAndLock(ctx context.Context, q DBTX, userID uuid.UUID, activityType string) (*streak.Record, error) {
	_, err := q.Exec(ctx, `
	INSERT INTO streaks (user_id, activity_type, current_streak, longest_streak)
	VALUES ($1, $2, 0, 0)
	ON CONFLICT (user_id, activity_type) DO NOTHING
	`, userID, activityType)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure streak row: %w", err)
	}

	rec, err := scanStreak(q.QueryRow(ctx, `
	SELECT `+streakColumns+`
	FROM streaks
	WHERE user_id = $1 AND activity_type = $2
	FOR UPDATE
	`, userID, activityType))
	if err != nil {
		return nil, fmt.Errorf("failed to lock streak row: %w", err)
	}
	return rec, nil
}

func (r *StreakRepo) InsertLog(ctx context.Context, q DBTX, e *streak.ActivityLogEntry) (bool, error) {
	tag, err := q.Exec(ctx, `
	INSERT INTO activity_log (id, user_id, activity_type, activity_date, activity_day, description, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, activity_type, activity_day) DO NOTHING
	`, e.ID, e.UserID, e.ActivityType, e.ActivityDate, e.ActivityDay, e.Description, e.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert activity log entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *StreakRepo) Update(ctx context.Context, q DBTX, rec *streak.Record) error {
	tag, err := q.Exec(ctx, `
	UPDATE streaks
	SET current_streak = $3, longest_streak = $4, last_activity_date = $5, updated_at = $6
	WHERE user_id = $1 AND activity_type = $2
	`, rec.UserID, rec.ActivityType, rec.CurrentStreak, rec.LongestStreak, rec.LastActivityDate, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StreakRepo) ListByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]*streak.Record, error) {
	rows, err := q.Query(ctx, `
	SELECT `+streakColumns+`
	FROM streaks
	WHERE user_id = $1 AND last_activity_date IS NOT NULL
	ORDER BY activity_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}
	defer rows.Close()

	records := []*streak.Record{}
	for rows.Next() {
		rec, err := scanStreak(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan streak: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *StreakRepo) ActiveDays(ctx context.Context, q DBTX, userID uuid.UUID, activityType string, until time.Time) ([]time.Time, error) {
	rows, err := q.Query(ctx, `
	SELECT DISTINCT activity_day
	FROM activity_log
	WHERE user_id = $1
	  AND ($2 = '' OR activity_type = $2)
	  AND activity_day <= $3
	ORDER BY activity_day DESC
	`, userID, activityType, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load active days: %w", err)
	}
	defer rows.Close()

	days := []time.Time{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan active day: %w", err)
		}
		days = append(days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
	}
	return days, rows.Err()
}

func (r *StreakRepo) ListLog(ctx context.Context, q DBTX, userID uuid.UUID, activityType string, limit int) ([]*streak.ActivityLogEntry, error) {
	rows, err := q.Query(ctx, `
	SELECT id, user_id, activity_type, activity_date, activity_day, description, created_at
	FROM activity_log
	WHERE user_id = $1 AND ($2 = '' OR activity_type = $2)
	ORDER BY activity_date DESC, id DESC
	LIMIT $3
	`, userID, activityType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log: %w", err)
	}
	defer rows.Close()

	entries := []*streak.ActivityLogEntry{}
	for rows.Next() {
		e := &streak.ActivityLogEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.ActivityType, &e.ActivityDate, &e.ActivityDay, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *StreakRepo) Summary(ctx context.Context, q DBTX, userID uuid.UUID, today time.Time) (*LogSummary, error) {
	s := &LogSummary{}
	err := q.QueryRow(ctx, `
	SELECT
		COUNT(*),
		COUNT(DISTINCT activity_day),
		COALESCE(BOOL_OR(activity_day = $2), FALSE)
	FROM activity_log
	WHERE user_id = $1
	`, userID, today).Scan(&s.TotalActivities, &s.ActiveDays, &s.TodayLogged)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise activity log: %w", err)
	}
	return s, nil
}
