package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/cache"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/metrics"
	"careerHubAPI/internal/ranking"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/types/leaderboard"
)

// LeaderboardService runs the Resumeathon leaderboard.
type LeaderboardService struct {
	db          repository.DBTX
	users       repository.UserRepository
	leaderboard repository.LeaderboardRepository
	assessments repository.AssessmentRepository
	opts        ranking.Options
	cache       cache.LeaderboardCache
	metrics     *metrics.Metrics
	log         *logger.Logger
	now         func() time.Time
}

func NewLeaderboardService(db repository.DBTX, users repository.UserRepository, lb repository.LeaderboardRepository, assessments repository.AssessmentRepository, opts ranking.Options, log *logger.Logger) *LeaderboardService {
	return &LeaderboardService{
		db:          db,
		users:       users,
		leaderboard: lb,
		assessments: assessments,
		opts:        opts,
		log:         log.With("service", "leaderboard"),
		now:         utcNow,
	}
}

// SetCache enables caching of the ranked entries.
func (s *LeaderboardService) SetCache(c cache.LeaderboardCache) { s.cache = c }

func (s *LeaderboardService) SetMetrics(m *metrics.Metrics) { s.metrics = m }

func (s *LeaderboardService) SetClock(now func() time.Time) { s.now = now }

// GetLeaderboard returns the ranked entries plus the caller's own position.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}

	hasJoined := true
	if _, err := s.leaderboard.GetActive(ctx, s.db, u.ID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Lift(err)
		}
		hasJoined = false
	}

	lb := &leaderboard.Leaderboard{
		Entries:           entries,
		HasJoined:         hasJoined,
		TotalParticipants: len(entries),
	}
	for _, e := range entries {
		if e.UserID == u.ID {
			lb.UserPosition = e
			break
		}
	}
	return lb, nil
}

func (s *LeaderboardService) entries(ctx context.Context) ([]*leaderboard.RankEntry, error) {
	if s.cache != nil {
		entries, hit, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.log.Warn("leaderboard cache read failed", "error", err)
		case hit:
			s.metrics.LeaderboardBuild("cache")
			return entries, nil
		}
	}
	return s.build(ctx)
}

// build ranks from the database and refreshes the cache. The cache
// generation is read first so an invalidation during the build wins.
func (s *LeaderboardService) build(ctx context.Context) ([]*leaderboard.RankEntry, error) {
	var (
		gen      int64
		cacheGen = s.cache != nil
	)
	if cacheGen {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.log.Warn("leaderboard cache generation read failed", "error", err)
			cacheGen = false
		}
	}

	if n, err := s.leaderboard.RepointToLatest(ctx, s.db); err != nil {
		s.log.Warn("failed to repoint participants", "error", err)
	} else if n > 0 {
		s.log.Debug("participants repointed to latest assessment", "count", n)
	}

	candidates, err := s.leaderboard.ListCandidates(ctx, s.db)
	if err != nil {
		return nil, apperr.Lift(err)
	}
	entries := ranking.Rank(candidates, s.opts)
	s.metrics.LeaderboardBuild("db")

	if cacheGen {
		if err := s.cache.Set(ctx, gen, entries); err != nil {
			s.log.Warn("leaderboard cache write failed", "error", err)
		}
	}
	return entries, nil
}

// Refresh rebuilds the cached leaderboard. The refresher worker calls it.
func (s *LeaderboardService) Refresh(ctx context.Context) error {
	entries, err := s.build(ctx)
	if err != nil {
		return err
	}
	s.log.Debug("leaderboard refreshed", "entries", len(entries))
	return nil
}

// Join adds the caller to the Resumeathon. It is idempotent and requires at
// least one assessment.
func (s *LeaderboardService) Join(ctx context.Context, clerkID string) (*leaderboard.Participant, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	existing, err := s.leaderboard.GetActive(ctx, s.db, u.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Lift(err)
	}

	latest, err := s.assessments.Latest(ctx, s.db, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNoAssessmentYet
		}
		return nil, apperr.Lift(err)
	}

	assessmentID := latest.ID
	p := &leaderboard.Participant{
		ID:           uuid.New(),
		UserID:       u.ID,
		AssessmentID: &assessmentID,
		JoinedAt:     s.now(),
		IsActive:     true,
	}
	inserted, err := s.leaderboard.Insert(ctx, s.db, p)
	if err != nil {
		return nil, apperr.Lift(err)
	}
	if !inserted {
		// A concurrent join won the partial unique index.
		existing, err := s.leaderboard.GetActive(ctx, s.db, u.ID)
		if err != nil {
			return nil, liftRepoErr(err, "leaderboard participant")
		}
		return existing, nil
	}

	s.log.Info("user joined leaderboard", "user_id", u.ID, "assessment_id", assessmentID)
	s.InvalidateCache(ctx)
	return p, nil
}

// Leave deactivates the caller's participation.
func (s *LeaderboardService) Leave(ctx context.Context, clerkID string) error {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return err
	}
	ok, err := s.leaderboard.Deactivate(ctx, s.db, u.ID)
	if err != nil {
		return apperr.Lift(err)
	}
	if !ok {
		return apperr.NotFound("leaderboard participant")
	}
	s.log.Info("user left leaderboard", "user_id", u.ID)
	s.InvalidateCache(ctx)
	return nil
}

// InvalidateCache drops the cached entries. Failures only log.
func (s *LeaderboardService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("leaderboard cache invalidation failed", "error", err)
	}
}
