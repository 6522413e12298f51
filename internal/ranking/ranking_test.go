package ranking

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerHubAPI/internal/types/leaderboard"
)

var t0 = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

func candidate(name string, score float64, joinedOffset time.Duration) leaderboard.Candidate {
	s := score
	aid := uuid.New()
	return leaderboard.Candidate{
		ParticipantID:      uuid.New(),
		UserID:             uuid.New(),
		Username:           name,
		Email:              name + "@careerhub.io",
		JoinedAt:           t0.Add(joinedOffset),
		IsActive:           true,
		AssessmentID:       &aid,
		LatestAssessmentID: &aid,
		LatestScore:        &s,
	}
}

func TestRankTieBrokenByJoinTime(t *testing.T) {
	entries := Rank([]leaderboard.Candidate{
		candidate("carol", 70, 3*time.Minute),
		candidate("bob", 90, 2*time.Minute),
		candidate("alice", 90, time.Minute),
	}, Options{})

	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, leaderboard.BadgeGold, entries[0].Badge)
	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, leaderboard.BadgeSilver, entries[1].Badge)
	assert.Equal(t, "carol", entries[2].Username)
	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, leaderboard.BadgeBronze, entries[2].Badge)
}

func TestRankFiltersInactiveAndUnscored(t *testing.T) {
	inactive := candidate("gone", 99, 0)
	inactive.IsActive = false
	unscored := candidate("ghost", 0, 0)
	unscored.LatestScore = nil

	entries := Rank([]leaderboard.Candidate{inactive, unscored, candidate("kept", 10, 0)}, Options{})

	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Username)
}

func TestRankSyntheticExclusionOnlyForZeroScores(t *testing.T) {
	patterns := []string{"@example.com", "+test"}

	zeroSynthetic := candidate("bot", 0, 0)
	zeroSynthetic.Email = "bot@example.com"
	scoredSynthetic := candidate("qa", 55, 0)
	scoredSynthetic.Email = "qa+test@careerhub.io"
	zeroReal := candidate("newbie", 0, time.Minute)

	entries := Rank([]leaderboard.Candidate{zeroSynthetic, scoredSynthetic, zeroReal}, Options{SyntheticPatterns: patterns})

	require.Len(t, entries, 2)
	assert.Equal(t, "qa", entries[0].Username)
	assert.Equal(t, "newbie", entries[1].Username)
	assert.Equal(t, 0.0, entries[1].Score)
}

func TestRankIdenticalJoinTimeStillStrict(t *testing.T) {
	a := candidate("a", 80, 0)
	b := candidate("b", 80, 0)
	first, second := a, b
	if b.ParticipantID.String() < a.ParticipantID.String() {
		first, second = b, a
	}

	entries := Rank([]leaderboard.Candidate{second, first}, Options{})
	require.Len(t, entries, 2)
	assert.Equal(t, first.ParticipantID, entries[0].ParticipantID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestRankUsesLatestAssessment(t *testing.T) {
	c := candidate("mover", 42, 0)
	stale := uuid.New()
	c.AssessmentID = &stale

	entries := Rank([]leaderboard.Candidate{c}, Options{})
	require.Len(t, entries, 1)
	assert.Equal(t, c.LatestAssessmentID, entries[0].AssessmentID)
	assert.Equal(t, 42.0, entries[0].Score)
}

func TestRankOrderingAndDensityProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(30)
		cands := make([]leaderboard.Candidate, 0, n)
		for i := 0; i < n; i++ {
			c := candidate(fmt.Sprintf("u%d", i), float64(rng.Intn(5)*10), time.Duration(rng.Intn(10))*time.Minute)
			c.IsActive = rng.Intn(5) != 0
			cands = append(cands, c)
		}

		entries := Rank(cands, Options{})

		for i, e := range entries {
			require.Equal(t, i+1, e.Rank)
			require.Equal(t, BadgeFor(e.Rank), e.Badge)
			if i == 0 {
				continue
			}
			prev := entries[i-1]
			require.GreaterOrEqual(t, prev.Score, e.Score)
			if prev.Score == e.Score {
				require.False(t, e.JoinedAt.Before(prev.JoinedAt))
			}
		}
	}
}

func TestBadgeFor(t *testing.T) {
	assert.Equal(t, leaderboard.BadgeGold, BadgeFor(1))
	assert.Equal(t, leaderboard.BadgeSilver, BadgeFor(2))
	assert.Equal(t, leaderboard.BadgeBronze, BadgeFor(3))
	assert.Equal(t, leaderboard.BadgeParticipant, BadgeFor(4))
	assert.Equal(t, leaderboard.BadgeParticipant, BadgeFor(250))
}

func TestIsSynthetic(t *testing.T) {
	patterns := []string{"@example.com", "demo"}
	assert.True(t, IsSynthetic("Someone@Example.com", patterns))
	assert.True(t, IsSynthetic("demo.user@careerhub.io", patterns))
	assert.False(t, IsSynthetic("real@careerhub.io", patterns))
	assert.False(t, IsSynthetic("", patterns))
	assert.False(t, IsSynthetic("someone@example.com", nil))
}
