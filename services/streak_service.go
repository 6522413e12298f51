package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/metrics"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/streaks"
	"careerHubAPI/internal/types/calendar"
	"careerHubAPI/internal/types/notification"
	"careerHubAPI/internal/types/streak"
)

const (
	defaultLogLimit = 20
	maxLogLimit     = 100

	// CalendarAllTypes selects the union of every activity type.
	CalendarAllTypes = "all"

	maxFutureSkew = 24 * time.Hour
)

type StreakService struct {
	db       repository.DBTX
	tx       repository.TxRunner
	users    repository.UserRepository
	streaks  repository.StreakRepository
	loc      *time.Location
	log      *logger.Logger
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewStreakService(db repository.DBTX, tx repository.TxRunner, users repository.UserRepository, streakRepo repository.StreakRepository, loc *time.Location, log *logger.Logger) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{
		db:      db,
		tx:      tx,
		users:   users,
		streaks: streakRepo,
		loc:     loc,
		log:     log.With("service", "streak"),
		now:     utcNow,
	}
}

func (s *StreakService) SetNotifier(n Notifier) { s.notifier = n }

func (s *StreakService) SetMetrics(m *metrics.Metrics) { s.metrics = m }

func (s *StreakService) SetClock(now func() time.Time) { s.now = now }

// CurrentMonth is the year and month of today in the service timezone.
func (s *StreakService) CurrentMonth() (int, int) {
	t := s.now().In(s.loc)
	return t.Year(), int(t.Month())
}

// RecordActivity logs one activity and advances the streak of its type. A
// second activity on the same calendar day is a no-op reported through
// Duplicate, not an error. The log entry and the counters are written in one
// transaction.
func (s *StreakService) RecordActivity(ctx context.Context, clerkID string, req *streak.RecordActivityRequest) (*streak.RecordResult, error) {
	if req == nil {
		return nil, apperr.Validation("request body is required")
	}
	activityType, err := streaks.NormalizeActivityType(req.ActivityType)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	var description *string
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if utf8.RuneCountInString(d) > streaks.MaxDescriptionLen {
			return nil, apperr.Validation("description must be at most %d characters", streaks.MaxDescriptionLen)
		}
		if d != "" {
			description = &d
		}
	}

	now := s.now()
	occurred := now
	if req.OccurredAt != nil && !req.OccurredAt.IsZero() {
		occurred = req.OccurredAt.UTC()
		if occurred.After(now.Add(maxFutureSkew)) {
			return nil, apperr.Validation("occurred_at cannot be more than one day in the future")
		}
	}

	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, u.ID, activityType, occurred, description)
}

// RecordLogin records today's general activity for a login. It is
// opportunistic: failures are logged and never returned.
func (s *StreakService) RecordLogin(ctx context.Context, clerkID string) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		s.log.Warn("login streak skipped", "clerk_id", clerkID, "error", err)
		return
	}
	res, err := s.record(ctx, u.ID, streak.GeneralActivity, s.now(), nil)
	if err != nil {
		s.log.Error("login streak failed", "user_id", u.ID, "error", err)
		return
	}
	s.log.Debug("login streak recorded", "user_id", u.ID, "outcome", res.Outcome, "current_streak", res.CurrentStreak)
}

func (s *StreakService) record(ctx context.Context, userID uuid.UUID, activityType string, occurred time.Time, description *string) (*streak.RecordResult, error) {
	var (
		before  int
		result  streak.Record
		outcome streaks.Outcome
	)

	err := s.tx.InTx(ctx, func(q repository.DBTX) error {
		rec, err := s.streaks.EnsureAndLock(ctx, q, userID, activityType)
		if err != nil {
			return fmt.Errorf("lock streak: %w", err)
		}
		before = rec.CurrentStreak

		inserted, err := s.streaks.InsertLog(ctx, q, &streak.ActivityLogEntry{
			ID:           uuid.New(),
			UserID:       userID,
			ActivityType: activityType,
			ActivityDate: occurred,
			ActivityDay:  streaks.Day(occurred, s.loc),
			Description:  description,
			CreatedAt:    s.now(),
		})
		if err != nil {
			return fmt.Errorf("insert activity log: %w", err)
		}
		if !inserted {
			result, outcome = *rec, streaks.OutcomeDuplicate
			return nil
		}

		result, outcome = streaks.Advance(*rec, occurred, s.loc)
		if !outcome.Changed() {
			return nil
		}
		result.UpdatedAt = s.now()
		if err := s.streaks.Update(ctx, q, &result); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("record activity failed", "user_id", userID, "activity_type", activityType, "error", err)
		return nil, apperr.Lift(err)
	}

	s.metrics.StreakActivity(string(outcome))
	if m := streaks.Milestone(before, result.CurrentStreak); m > 0 && outcome.Changed() {
		s.notifyMilestone(ctx, userID, activityType, m)
	}

	return &streak.RecordResult{
		Streak:        &result,
		CurrentStreak: result.CurrentStreak,
		LongestStreak: result.LongestStreak,
		Duplicate:     outcome == streaks.OutcomeDuplicate,
		Outcome:       string(outcome),
	}, nil
}

func (s *StreakService) notifyMilestone(ctx context.Context, userID uuid.UUID, activityType string, days int) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:  userID,
		Type:    notification.TypeStreakMilestone,
		Title:   fmt.Sprintf("%d-day streak!", days),
		Message: fmt.Sprintf("You kept your %s streak going for %d days in a row.", activityType, days),
		Data: map[string]any{
			"activity_type": activityType,
			"days":          days,
		},
	})
	if err != nil {
		s.log.Warn("milestone notification failed", "user_id", userID, "days", days, "error", err)
	}
}

// GetStreaks lists every active streak of the caller by activity type.
func (s *StreakService) GetStreaks(ctx context.Context, clerkID string) ([]*streak.Record, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	records, err := s.streaks.ListByUser(ctx, s.db, u.ID)
	if err != nil {
		return nil, apperr.Lift(err)
	}
	return records, nil
}

func (s *StreakService) GetStats(ctx context.Context, clerkID string) (*streak.Stats, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var (
		records []*streak.Record
		summary *repository.LogSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.streaks.ListByUser(gctx, s.db, u.ID)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = s.streaks.Summary(gctx, s.db, u.ID, streaks.Day(s.now(), s.loc))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Lift(err)
	}

	stats := &streak.Stats{
		TotalActivities: summary.TotalActivities,
		ActiveDays:      summary.ActiveDays,
		ActivityTypes:   len(records),
		TodayLogged:     summary.TodayLogged,
	}
	for _, r := range records {
		stats.BestCurrentStreak = max(stats.BestCurrentStreak, r.CurrentStreak)
		stats.BestLongestStreak = max(stats.BestLongestStreak, r.LongestStreak)
	}
	return stats, nil
}

// GetCalendar builds the month view. An empty activityType means general and
// CalendarAllTypes merges every type.
func (s *StreakService) GetCalendar(ctx context.Context, clerkID string, year, month int, activityType string) (*calendar.CalendarResponse, error) {
	if err := streaks.ValidateMonth(year, month); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	filter, label, err := calendarFilter(activityType)
	if err != nil {
		return nil, err
	}

	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	_, end := streaks.MonthBounds(year, month)
	days, err := s.streaks.ActiveDays(ctx, s.db, u.ID, filter, end)
	if err != nil {
		return nil, apperr.Lift(err)
	}

	resp := &calendar.CalendarResponse{
		Year:         year,
		Month:        month,
		ActivityType: label,
		Days:         streaks.BuildCalendar(year, month, days, streaks.Day(s.now(), s.loc)),
	}
	for _, d := range resp.Days {
		if d.Active {
			resp.ActiveDays++
		}
	}
	return resp, nil
}

func calendarFilter(activityType string) (filter, label string, err error) {
	t := strings.ToLower(strings.TrimSpace(activityType))
	switch t {
	case "":
		return streak.GeneralActivity, streak.GeneralActivity, nil
	case CalendarAllTypes:
		return "", CalendarAllTypes, nil
	}
	t, err = streaks.NormalizeActivityType(t)
	if err != nil {
		return "", "", apperr.Validation("%s", err.Error())
	}
	return t, t, nil
}

// GetActivityLog returns the newest log entries, optionally for one type.
func (s *StreakService) GetActivityLog(ctx context.Context, clerkID, activityType string, limit int) ([]*streak.ActivityLogEntry, error) {
	filter := ""
	if strings.TrimSpace(activityType) != "" {
		t, err := streaks.NormalizeActivityType(activityType)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		filter = t
	}

	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	entries, err := s.streaks.ListLog(ctx, s.db, u.ID, filter, clampLimit(limit, defaultLogLimit, maxLogLimit))
	if err != nil {
		return nil, apperr.Lift(err)
	}
	return entries, nil
}
