package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"careerHubAPI/internal/types/assessment"
)

type AssessmentRepository interface {
	Insert(ctx context.Context, q DBTX, a *assessment.Assessment) error
	// Latest orders by created_at then id, both descending.
	Latest(ctx context.Context, q DBTX, userID uuid.UUID) (*assessment.Assessment, error)
	ListByUser(ctx context.Context, q DBTX, userID uuid.UUID, limit int) ([]*assessment.Assessment, error)
}

type AssessmentRepo struct{}

func NewAssessmentRepo() *AssessmentRepo { return &AssessmentRepo{} }

const assessmentColumns = `id, user_id, target_role, total_score, content_score, impact_score, skills_score, formatting_score, summary, created_at`

func scanAssessment(row pgx.Row) (*assessment.Assessment, error) {
	a := &assessment.Assessment{}
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.TargetRole,
		&a.TotalScore,
		&a.ContentScore,
		&a.ImpactScore,
		&a.SkillsScore,
		&a.FormattingScore,
		&a.Summary,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *AssessmentRepo) Insert(ctx context.Context, q DBTX, a *assessment.Assessment) error {
	_, err := q.Exec(ctx, `
	INSERT INTO assessments (`+assessmentColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.UserID, a.TargetRole, a.TotalScore, a.ContentScore, a.ImpactScore, a.SkillsScore, a.FormattingScore, a.Summary, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepo) Latest(ctx context.Context, q DBTX, userID uuid.UUID) (*assessment.Assessment, error) {
	a, err := scanAssessment(q.QueryRow(ctx, `
	SELECT `+assessmentColumns+`
	FROM assessments
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT 1
	`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	return a, nil
}

func (r *AssessmentRepo) ListByUser(ctx context.Context, q DBTX, userID uuid.UUID, limit int) ([]*assessment.Assessment, error) {
	rows, err := q.Query(ctx, `
	SELECT `+assessmentColumns+`
	FROM assessments
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	list := []*assessment.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
