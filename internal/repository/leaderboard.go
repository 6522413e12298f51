package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"careerHubAPI/internal/types/leaderboard"
)

type LeaderboardRepository interface {
	GetActive(ctx context.Context, q DBTX, userID uuid.UUID) (*leaderboard.Participant, error)
	// Insert reports false when the user already has an active participant.
	Insert(ctx context.Context, q DBTX, p *leaderboard.Participant) (bool, error)
	Deactivate(ctx context.Context, q DBTX, userID uuid.UUID) (bool, error)
	// ListCandidates returns every active participant joined with its user
	// and latest assessment.
	ListCandidates(ctx context.Context, q DBTX) ([]leaderboard.Candidate, error)
	// RepointToLatest moves every active participant onto its user's latest
	// assessment and returns how many rows changed.
	RepointToLatest(ctx context.Context, q DBTX) (int64, error)
}

type LeaderboardRepo struct{}

func NewLeaderboardRepo() *LeaderboardRepo { return &LeaderboardRepo{} }

func scanParticipant(row pgx.Row) (*leaderboard.Participant, error) {
	p := &leaderboard.Participant{}
	if err := row.Scan(&p.ID, &p.UserID, &p.AssessmentID, &p.JoinedAt, &p.IsActive); err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *LeaderboardRepo) GetActive(ctx context.Context, q DBTX, userID uuid.UUID) (*leaderboard.Participant, error) {
	p, err := scanParticipant(q.QueryRow(ctx, `
	SELECT id, user_id, assessment_id, joined_at, is_active
	FROM leaderboard_participants
	WHERE user_id = $1 AND is_active
	`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

func (r *LeaderboardRepo) Insert(ctx context.Context, q DBTX, p *leaderboard.Participant) (bool, error) {
	tag, err := q.Exec(ctx, `
	INSERT INTO leaderboard_participants (id, user_id, assessment_id, joined_at, is_active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (user_id) WHERE is_active DO NOTHING
	`, p.ID, p.UserID, p.AssessmentID, p.JoinedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert participant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *LeaderboardRepo) Deactivate(ctx context.Context, q DBTX, userID uuid.UUID) (bool, error) {
	tag, err := q.Exec(ctx, `
	UPDATE leaderboard_participants SET is_active = FALSE
	WHERE user_id = $1 AND is_active
	`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate participant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LeaderboardRepo) ListCandidates(ctx context.Context, q DBTX) ([]leaderboard.Candidate, error) {
	rows, err := q.Query(ctx, `
	SELECT
		lp.id, lp.user_id, u.username, u.image_url, u.email, lp.joined_at, lp.is_active,
		lp.assessment_id, latest.id, latest.total_score
	FROM leaderboard_participants lp
	JOIN users u ON u.id = lp.user_id
	LEFT JOIN LATERAL (
		SELECT a.id, a.total_score
		FROM assessments a
		WHERE a.user_id = lp.user_id
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT 1
	) latest ON TRUE
	WHERE lp.is_active
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard candidates: %w", err)
	}
	defer rows.Close()

	candidates := []leaderboard.Candidate{}
	for rows.Next() {
		var c leaderboard.Candidate
		err := rows.Scan(
			&c.ParticipantID,
			&c.UserID,
			&c.Username,
			&c.ImageURL,
			&c.Email,
			&c.JoinedAt,
			&c.IsActive,
			&c.AssessmentID,
			&c.LatestAssessmentID,
			&c.LatestScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (r *LeaderboardRepo) RepointToLatest(ctx context.Context, q DBTX) (int64, error) {
	tag, err := q.Exec(ctx, `
	UPDATE leaderboard_participants lp
	SET assessment_id = latest.id
	FROM (
		SELECT DISTINCT ON (user_id) user_id, id
		FROM assessments
		ORDER BY user_id, created_at DESC, id DESC
	) latest
	WHERE lp.user_id = latest.user_id
	  AND lp.is_active
	  AND lp.assessment_id IS DISTINCT FROM latest.id
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to repoint participants: %w", err)
	}
	return tag.RowsAffected(), nil
}
