package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"careerHubAPI/internal/types/user"
)

type UserRepository interface {
	Create(ctx context.Context, q DBTX, u *user.User) (*user.User, error)
	GetByClerkID(ctx context.Context, q DBTX, clerkID string) (*user.User, error)
	GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, q DBTX, clerkID string, req *user.UpdateProfileRequest) (*user.User, error)
	DeleteByClerkID(ctx context.Context, q DBTX, clerkID string) error
}

type UserRepo struct{}

func NewUserRepo() *UserRepo { return &UserRepo{} }

const userColumns = `id, clerk_id, email, username, first_name, last_name, image_url, role, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Create inserts u. Replayed webhooks for an existing clerk_id return the
// stored row.
func (r *UserRepo) Create(ctx context.Context, q DBTX, u *user.User) (*user.User, error) {
	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (clerk_id) DO UPDATE SET clerk_id = EXCLUDED.clerk_id
	RETURNING ` + userColumns

	created, err := scanUser(q.QueryRow(ctx, query,
		u.ID, u.ClerkID, u.Email, u.Username, u.FirstName, u.LastName, u.ImageURL, u.Role, u.CreatedAt, u.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (r *UserRepo) GetByClerkID(ctx context.Context, q DBTX, clerkID string) (*user.User, error) {
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE clerk_id = $1`, clerkID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*user.User, error) {
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of req.
func (r *UserRepo) UpdateProfile(ctx context.Context, q DBTX, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users SET
		email      = COALESCE($2, email),
		username   = COALESCE($3, username),
		first_name = COALESCE($4, first_name),
		last_name  = COALESCE($5, last_name),
		image_url  = COALESCE($6, image_url),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING ` + userColumns

	u, err := scanUser(q.QueryRow(ctx, query, clerkID, req.Email, req.Username, req.FirstName, req.LastName, req.ImageURL))
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) DeleteByClerkID(ctx context.Context, q DBTX, clerkID string) error {
	tag, err := q.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
