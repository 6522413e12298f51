package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/streaks"
	"careerHubAPI/internal/types/streak"
	"careerHubAPI/internal/types/user"
)

// Runs against a real database when TEST_DATABASE_URL is set.
func TestRecordActivityConcurrentSameDayPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	opts := repository.DefaultPoolOptions()
	pool, err := repository.Connect(ctx, url, opts)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../db/schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	users := repository.NewUserRepo()
	streakRepo := repository.NewStreakRepo()
	now := time.Now().UTC()
	id := uuid.New()
	u, err := users.Create(ctx, pool, &user.User{
		ID:        id,
		ClerkID:   "user_" + id.String(),
		Email:     id.String() + "@careerhub.io",
		Username:  "it-" + id.String()[:8],
		Role:      user.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	svc := NewStreakService(pool, repository.NewTxRunner(pool), users, streakRepo, time.UTC, logger.Nop())
	svc.SetClock(func() time.Time { return now })

	const callers = 8
	results := make([]*streak.RecordResult, callers)
	errs := make([]error, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = svc.RecordActivity(ctx, u.ClerkID, &streak.RecordActivityRequest{ActivityType: "coding"})
		}(i)
	}
	close(start)
	wg.Wait()

	fresh := 0
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 1, results[i].CurrentStreak)
		if !results[i].Duplicate {
			fresh++
			assert.Equal(t, string(streaks.OutcomeStarted), results[i].Outcome)
		}
	}
	assert.Equal(t, 1, fresh, "exactly one caller records the day")

	log, err := streakRepo.ListLog(ctx, pool, u.ID, "coding", 50)
	require.NoError(t, err)
	assert.Len(t, log, 1)

	records, err := streakRepo.ListByUser(ctx, pool, u.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].CurrentStreak)
	assert.Equal(t, 1, records[0].LongestStreak)
}
