package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerHubAPI/internal/types/assessment"
	"careerHubAPI/internal/types/leaderboard"
	"careerHubAPI/internal/types/streak"
	"careerHubAPI/internal/types/user"
	"careerHubAPI/internal/types/workshop"
)

// These tests run against a real database when TEST_DATABASE_URL is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, url, DefaultPoolOptions())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../db/schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool) *user.User {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.New()
	u, err := NewUserRepo().Create(context.Background(), pool, &user.User{
		ID:        id,
		ClerkID:   "user_" + id.String(),
		Email:     id.String() + "@careerhub.io",
		Username:  "it-" + id.String()[:8],
		Role:      user.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return u
}

func TestStreakRowLockAndDuplicateDay(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	u := seedUser(t, pool)
	repo := NewStreakRepo()
	tx := NewTxRunner(pool)

	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	entry := func() *streak.ActivityLogEntry {
		return &streak.ActivityLogEntry{
			ID:           uuid.New(),
			UserID:       u.ID,
			ActivityType: "coding",
			ActivityDate: day.Add(9 * time.Hour),
			ActivityDay:  day,
			CreatedAt:    time.Now().UTC(),
		}
	}

	err := tx.InTx(ctx, func(q DBTX) error {
		rec, err := repo.EnsureAndLock(ctx, q, u.ID, "coding")
		require.NoError(t, err)
		assert.Nil(t, rec.LastActivityDate)

		inserted, err := repo.InsertLog(ctx, q, entry())
		require.NoError(t, err)
		assert.True(t, inserted)

		at := day.Add(9 * time.Hour)
		rec.CurrentStreak, rec.LongestStreak, rec.LastActivityDate, rec.UpdatedAt = 1, 1, &at, time.Now().UTC()
		return repo.Update(ctx, q, rec)
	})
	require.NoError(t, err)

	inserted, err := repo.InsertLog(ctx, pool, entry())
	require.NoError(t, err)
	assert.False(t, inserted, "second entry on the same day must be ignored")

	records, err := repo.ListByUser(ctx, pool, u.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].CurrentStreak)

	days, err := repo.ActiveDays(ctx, pool, u.ID, "", day)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day}, days)
}

func TestTxRunnerRollsBack(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	u := seedUser(t, pool)
	repo := NewStreakRepo()

	boom := errors.New("boom")
	err := NewTxRunner(pool).InTx(ctx, func(q DBTX) error {
		if _, err := repo.EnsureAndLock(ctx, q, u.ID, "rollback"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	records, err := repo.ListByUser(ctx, pool, u.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLeaderboardCandidatesResolveLatestAssessment(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	u := seedUser(t, pool)
	assessments := NewAssessmentRepo()
	board := NewLeaderboardRepo()

	first := &assessment.Assessment{ID: uuid.New(), UserID: u.ID, TotalScore: 40, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	require.NoError(t, assessments.Insert(ctx, pool, first))

	p := &leaderboard.Participant{ID: uuid.New(), UserID: u.ID, AssessmentID: &first.ID, JoinedAt: time.Now().UTC()}
	inserted, err := board.Insert(ctx, pool, p)
	require.NoError(t, err)
	require.True(t, inserted)

	again, err := board.Insert(ctx, pool, &leaderboard.Participant{ID: uuid.New(), UserID: u.ID, JoinedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.False(t, again, "only one active participant per user")

	second := &assessment.Assessment{ID: uuid.New(), UserID: u.ID, TotalScore: 85, CreatedAt: time.Now().UTC()}
	require.NoError(t, assessments.Insert(ctx, pool, second))

	candidates, err := board.ListCandidates(ctx, pool)
	require.NoError(t, err)
	var mine *leaderboard.Candidate
	for i := range candidates {
		if candidates[i].UserID == u.ID {
			mine = &candidates[i]
		}
	}
	require.NotNil(t, mine)
	require.NotNil(t, mine.LatestScore)
	assert.Equal(t, 85.0, *mine.LatestScore)
	assert.Equal(t, second.ID, *mine.LatestAssessmentID)

	_, err = board.RepointToLatest(ctx, pool)
	require.NoError(t, err)
	active, err := board.GetActive(ctx, pool, u.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *active.AssessmentID)

	left, err := board.Deactivate(ctx, pool, u.ID)
	require.NoError(t, err)
	assert.True(t, left)
	_, err = board.GetActive(ctx, pool, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkshopUpdateGuardedByStatus(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	u := seedUser(t, pool)
	repo := NewWorkshopRepo()

	now := time.Now().UTC()
	w := &workshop.Workshop{
		ID:          uuid.New(),
		Title:       "Portfolio review",
		ScheduledAt: now.Add(48 * time.Hour),
		CreatedBy:   u.ID,
		Status:      workshop.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Insert(ctx, pool, w))

	w.Status = workshop.StatusPublished
	ok, err := repo.UpdateState(ctx, pool, w, workshop.StatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateState(ctx, pool, w, workshop.StatusPending)
	require.NoError(t, err)
	assert.False(t, ok, "a second writer must lose")

	got, err := repo.Get(ctx, pool, w.ID)
	require.NoError(t, err)
	assert.Equal(t, workshop.StatusPublished, got.Status)
}
