package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/ranking"
	"careerHubAPI/internal/scoring"
	"careerHubAPI/internal/testutil"
	"careerHubAPI/internal/types/assessment"
)

type stubScorer struct {
	result *scoring.Result
	err    error
	calls  int
	role   string
}

func (s *stubScorer) Score(ctx context.Context, resumeText, targetRole string) (*scoring.Result, error) {
	s.calls++
	s.role = targetRole
	return s.result, s.err
}

var sampleResume = strings.Repeat("Led a team of five engineers shipping payment APIs. ", 6)

func TestSubmitAssessment(t *testing.T) {
	store := testutil.NewStore()
	u := seedMember(store, "a", "a@careerhub.io")
	scorer := &stubScorer{result: &scoring.Result{TotalScore: 81.5, ContentScore: 25, ImpactScore: 24, SkillsScore: 20, FormattingScore: 12.5, Summary: "Strong."}}

	cache := &testutil.MemoryLeaderboardCache{}
	lb := NewLeaderboardService(nil, store.Users, store.Leaderboard, store.Assessments, ranking.Options{}, logger.Nop())
	lb.SetCache(cache)
	require.NoError(t, cache.Set(context.Background(), 0, nil))

	svc := NewAssessmentService(nil, store.Users, store.Assessments, scorer, logger.Nop())
	svc.SetLeaderboard(lb)

	a, err := svc.Submit(context.Background(), "a", &assessment.SubmitRequest{ResumeText: sampleResume, TargetRole: ptr("  Backend Engineer ")})
	require.NoError(t, err)
	assert.Equal(t, u.ID, a.UserID)
	assert.Equal(t, 81.5, a.TotalScore)
	require.NotNil(t, a.TargetRole)
	assert.Equal(t, "Backend Engineer", *a.TargetRole)
	assert.Equal(t, "Backend Engineer", scorer.role)
	assert.False(t, cache.Present(), "new assessment invalidates the leaderboard")

	latest, err := svc.Latest(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, a.ID, latest.ID)

	list, err := svc.List(context.Background(), "a", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubmitAssessmentValidation(t *testing.T) {
	store := testutil.NewStore()
	seedMember(store, "a", "a@careerhub.io")
	scorer := &stubScorer{result: &scoring.Result{}}
	svc := NewAssessmentService(nil, store.Users, store.Assessments, scorer, logger.Nop())

	for name, req := range map[string]*assessment.SubmitRequest{
		"nil":       nil,
		"too short": {ResumeText: "short resume"},
		"too long":  {ResumeText: strings.Repeat("a", scoring.MaxResumeLen+1)},
		"long role": {ResumeText: sampleResume, TargetRole: ptr(strings.Repeat("r", 201))},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), "a", req)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
	assert.Zero(t, scorer.calls)
}

func TestSubmitAssessmentScorerUnavailable(t *testing.T) {
	store := testutil.NewStore()
	seedMember(store, "a", "a@careerhub.io")

	svc := NewAssessmentService(nil, store.Users, store.Assessments, nil, logger.Nop())
	_, err := svc.Submit(context.Background(), "a", &assessment.SubmitRequest{ResumeText: sampleResume})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))

	failing := NewAssessmentService(nil, store.Users, store.Assessments, &stubScorer{err: errors.New("quota")}, logger.Nop())
	_, err = failing.Submit(context.Background(), "a", &assessment.SubmitRequest{ResumeText: sampleResume})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	assert.NotContains(t, apperr.PublicMessage(err), "quota")

	_, err = svc.Latest(context.Background(), "a")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
