// Package ranking orders leaderboard candidates. It never touches storage;
// the caller resolves each candidate's latest assessment first.
package ranking

import (
	"sort"
	"strings"

	"careerHubAPI/internal/types/leaderboard"
)

type Options struct {
	// SyntheticPatterns are lower-case substrings of an email that mark a
	// test account.
	SyntheticPatterns []string
}

// Rank filters, sorts and numbers candidates. Inactive candidates and those
// without a resolved score are dropped. Synthetic accounts are dropped only
// when their score is zero. Ties on score go to the earlier join, then to
// the lower participant id, so ranks are always 1..N without repeats.
func Rank(candidates []leaderboard.Candidate, opts Options) []*leaderboard.RankEntry {
	kept := make([]leaderboard.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.IsActive || c.LatestScore == nil {
			continue
		}
		if *c.LatestScore == 0 && IsSynthetic(c.Email, opts.SyntheticPatterns) {
			continue
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if *a.LatestScore != *b.LatestScore {
			return *a.LatestScore > *b.LatestScore
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ParticipantID.String() < b.ParticipantID.String()
	})

	entries := make([]*leaderboard.RankEntry, 0, len(kept))
	for i, c := range kept {
		rank := i + 1
		entries = append(entries, &leaderboard.RankEntry{
			ParticipantID: c.ParticipantID,
			UserID:        c.UserID,
			Username:      c.Username,
			ImageURL:      c.ImageURL,
			Score:         *c.LatestScore,
			AssessmentID:  c.LatestAssessmentID,
			JoinedAt:      c.JoinedAt,
			Rank:          rank,
			Badge:         BadgeFor(rank),
		})
	}
	return entries
}

func BadgeFor(rank int) leaderboard.Badge {
	switch rank {
	case 1:
		return leaderboard.BadgeGold
	case 2:
		return leaderboard.BadgeSilver
	case 3:
		return leaderboard.BadgeBronze
	default:
		return leaderboard.BadgeParticipant
	}
}

func IsSynthetic(email string, patterns []string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, p := range patterns {
		if p != "" && strings.Contains(email, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
