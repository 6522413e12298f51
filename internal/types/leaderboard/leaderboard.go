package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

type Badge string

const (
	BadgeGold        Badge = "gold"
	BadgeSilver      Badge = "silver"
	BadgeBronze      Badge = "bronze"
	BadgeParticipant Badge = "participant"
)

type Participant struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	AssessmentID *uuid.UUID `json:"assessment_id" db:"assessment_id"`
	JoinedAt     time.Time  `json:"joined_at" db:"joined_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
}

// Candidate is a participant joined with its owner and the latest
// assessment resolved at ranking time. LatestScore is nil when the user has
// no assessment.
type Candidate struct {
	ParticipantID      uuid.UUID
	UserID             uuid.UUID
	Username           string
	ImageURL           *string
	Email              string
	JoinedAt           time.Time
	IsActive           bool
	AssessmentID       *uuid.UUID
	LatestAssessmentID *uuid.UUID
	LatestScore        *float64
}

type RankEntry struct {
	ParticipantID uuid.UUID  `json:"participant_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Username      string     `json:"username"`
	ImageURL      *string    `json:"image_url"`
	Score         float64    `json:"score"`
	AssessmentID  *uuid.UUID `json:"assessment_id"`
	JoinedAt      time.Time  `json:"joined_at"`
	Rank          int        `json:"rank"`
	Badge         Badge      `json:"badge"`
}

type Leaderboard struct {
	Entries           []*RankEntry `json:"entries"`
	UserPosition      *RankEntry   `json:"user_position"`
	HasJoined         bool         `json:"has_joined"`
	TotalParticipants int          `json:"total_participants"`
}
