package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/metrics"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/scoring"
	"careerHubAPI/internal/types/assessment"
)

const (
	maxTargetRoleLen     = 200
	defaultAssessmentCap = 20
	maxAssessmentCap     = 100
	scoringTimeout       = 60 * time.Second
)

type AssessmentService struct {
	db          repository.DBTX
	users       repository.UserRepository
	assessments repository.AssessmentRepository
	scorer      scoring.Scorer
	leaderboard *LeaderboardService
	metrics     *metrics.Metrics
	log         *logger.Logger
	now         func() time.Time
}

// NewAssessmentService accepts a nil scorer; submissions then fail as
// unavailable while reads keep working.
func NewAssessmentService(db repository.DBTX, users repository.UserRepository, assessments repository.AssessmentRepository, scorer scoring.Scorer, log *logger.Logger) *AssessmentService {
	return &AssessmentService{
		db:          db,
		users:       users,
		assessments: assessments,
		scorer:      scorer,
		log:         log.With("service", "assessment"),
		now:         utcNow,
	}
}

// SetLeaderboard lets new assessments invalidate the cached ranking.
func (s *AssessmentService) SetLeaderboard(lb *LeaderboardService) { s.leaderboard = lb }

func (s *AssessmentService) SetMetrics(m *metrics.Metrics) { s.metrics = m }

// Submit scores a resume and stores the result as the caller's newest
// assessment.
func (s *AssessmentService) Submit(ctx context.Context, clerkID string, req *assessment.SubmitRequest) (*assessment.Assessment, error) {
	if req == nil {
		return nil, apperr.Validation("request body is required")
	}
	text := scoring.Sanitize(req.ResumeText)
	if err := scoring.ValidateResume(text); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	var targetRole *string
	if req.TargetRole != nil {
		role := scoring.Sanitize(*req.TargetRole)
		if utf8.RuneCountInString(role) > maxTargetRoleLen {
			return nil, apperr.Validation("target_role must be at most %d characters", maxTargetRoleLen)
		}
		if role != "" {
			targetRole = &role
		}
	}

	if s.scorer == nil {
		return nil, apperr.Unavailable("resume scoring is not configured")
	}

	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	scoreCtx, cancel := context.WithTimeout(ctx, scoringTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.scorer.Score(scoreCtx, text, deref(targetRole))
	if err != nil {
		s.metrics.AssessmentScored("error", time.Since(start).Seconds())
		s.log.Error("resume scoring failed", "user_id", u.ID, "error", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "resume scoring failed, please retry", err)
	}
	s.metrics.AssessmentScored("ok", time.Since(start).Seconds())

	a := &assessment.Assessment{
		ID:              uuid.New(),
		UserID:          u.ID,
		TargetRole:      targetRole,
		TotalScore:      res.TotalScore,
		ContentScore:    res.ContentScore,
		ImpactScore:     res.ImpactScore,
		SkillsScore:     res.SkillsScore,
		FormattingScore: res.FormattingScore,
		Summary:         res.Summary,
		CreatedAt:       s.now(),
	}
	if err := s.assessments.Insert(ctx, s.db, a); err != nil {
		return nil, apperr.Lift(err)
	}

	s.log.Info("assessment stored", "user_id", u.ID, "assessment_id", a.ID, "total_score", a.TotalScore)
	if s.leaderboard != nil {
		s.leaderboard.InvalidateCache(ctx)
	}
	return a, nil
}

func (s *AssessmentService) Latest(ctx context.Context, clerkID string) (*assessment.Assessment, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	a, err := s.assessments.Latest(ctx, s.db, u.ID)
	if err != nil {
		return nil, liftRepoErr(err, "assessment")
	}
	return a, nil
}

func (s *AssessmentService) List(ctx context.Context, clerkID string, limit int) ([]*assessment.Assessment, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	list, err := s.assessments.ListByUser(ctx, s.db, u.ID, clampLimit(limit, defaultAssessmentCap, maxAssessmentCap))
	if err != nil {
		return nil, apperr.Lift(err)
	}
	return list, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
