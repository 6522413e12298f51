package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"careerHubAPI/internal/types/workshop"
)

type WorkshopRepository interface {
	Insert(ctx context.Context, q DBTX, w *workshop.Workshop) error
	Get(ctx context.Context, q DBTX, id uuid.UUID) (*workshop.Workshop, error)
	// UpdateState writes the review fields of w only while the stored status
	// is still expected. It reports false when another writer got there first.
	UpdateState(ctx context.Context, q DBTX, w *workshop.Workshop, expected workshop.Status) (bool, error)
	ListByStatus(ctx context.Context, q DBTX, status workshop.Status, limit int) ([]*workshop.Workshop, error)
}

type WorkshopRepo struct{}

func NewWorkshopRepo() *WorkshopRepo { return &WorkshopRepo{} }

const workshopColumns = `id, title, description, scheduled_at, created_by, status, approved_by, approved_at, rejection_reason, created_at, updated_at`

func scanWorkshop(row pgx.Row) (*workshop.Workshop, error) {
	w := &workshop.Workshop{}
	err := row.Scan(
		&w.ID,
		&w.Title,
		&w.Description,
		&w.ScheduledAt,
		&w.CreatedBy,
		&w.Status,
		&w.ApprovedBy,
		&w.ApprovedAt,
		&w.RejectionReason,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

func (r *WorkshopRepo) Insert(ctx context.Context, q DBTX, w *workshop.Workshop) error {
	_, err := q.Exec(ctx, `
	INSERT INTO workshops (`+workshopColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, w.ID, w.Title, w.Description, w.ScheduledAt, w.CreatedBy, w.Status, w.ApprovedBy, w.ApprovedAt, w.RejectionReason, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert workshop: %w", err)
	}
	return nil
}

func (r *WorkshopRepo) Get(ctx context.Context, q DBTX, id uuid.UUID) (*workshop.Workshop, error) {
	w, err := scanWorkshop(q.QueryRow(ctx, `SELECT `+workshopColumns+` FROM workshops WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get workshop: %w", err)
	}
	return w, nil
}

func (r *WorkshopRepo) UpdateState(ctx context.Context, q DBTX, w *workshop.Workshop, expected workshop.Status) (bool, error) {
	tag, err := q.Exec(ctx, `
	UPDATE workshops
	SET status = $2, approved_by = $3, approved_at = $4, rejection_reason = $5, updated_at = $6
	WHERE id = $1 AND status = $7
	`, w.ID, w.Status, w.ApprovedBy, w.ApprovedAt, w.RejectionReason, w.UpdatedAt, expected)
	if err != nil {
		return false, fmt.Errorf("failed to update workshop: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *WorkshopRepo) ListByStatus(ctx context.Context, q DBTX, status workshop.Status, limit int) ([]*workshop.Workshop, error) {
	rows, err := q.Query(ctx, `
	SELECT `+workshopColumns+`
	FROM workshops
	WHERE status = $1
	ORDER BY scheduled_at ASC, id ASC
	LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list workshops: %w", err)
	}
	defer rows.Close()

	list := []*workshop.Workshop{}
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workshop: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}
