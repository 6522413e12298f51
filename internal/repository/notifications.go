package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"careerHubAPI/internal/types/notification"
)

type NotificationRepository interface {
	Insert(ctx context.Context, q DBTX, n *notification.Notification) error
	List(ctx context.Context, q DBTX, userID uuid.UUID, limit, offset int) ([]*notification.Notification, error)
	Counts(ctx context.Context, q DBTX, userID uuid.UUID) (unread, total int, err error)
	MarkRead(ctx context.Context, q DBTX, userID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, q DBTX, userID uuid.UUID) (int64, error)
	MarkSent(ctx context.Context, q DBTX, id uuid.UUID, at time.Time) error
	UpsertDevice(ctx context.Context, q DBTX, userID uuid.UUID, d notification.DeviceToken) error
	DeviceTokens(ctx context.Context, q DBTX, userID uuid.UUID) ([]notification.DeviceToken, error)
	DeleteDevices(ctx context.Context, q DBTX, tokens []string) error
}

type NotificationRepo struct{}

func NewNotificationRepo() *NotificationRepo { return &NotificationRepo{} }

const notificationColumns = `id, user_id, type, title, message, data, is_read, sent_at, created_at`

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	n := &notification.Notification{}
	var data []byte
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.IsRead, &n.SentAt, &n.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to decode notification data: %w", err)
		}
	}
	return n, nil
}

func (r *NotificationRepo) Insert(ctx context.Context, q DBTX, n *notification.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode notification data: %w", err)
	}

	_, err = q.Exec(ctx, `
	INSERT INTO notifications (`+notificationColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, raw, n.IsRead, n.SentAt, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) List(ctx context.Context, q DBTX, userID uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	rows, err := q.Query(ctx, `
	SELECT `+notificationColumns+`
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	list := []*notification.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *NotificationRepo) Counts(ctx context.Context, q DBTX, userID uuid.UUID) (int, int, error) {
	var unread, total int
	err := q.QueryRow(ctx, `
	SELECT COUNT(*) FILTER (WHERE NOT is_read), COUNT(*)
	FROM notifications
	WHERE user_id = $1
	`, userID).Scan(&unread, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return unread, total, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, q DBTX, userID, id uuid.UUID) (bool, error) {
	tag, err := q.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, q DBTX, userID uuid.UUID) (int64, error) {
	tag, err := q.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepo) MarkSent(ctx context.Context, q DBTX, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `UPDATE notifications SET sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// UpsertDevice moves a token to userID if another account registered it before.
func (r *NotificationRepo) UpsertDevice(ctx context.Context, q DBTX, userID uuid.UUID, d notification.DeviceToken) error {
	_, err := q.Exec(ctx, `
	INSERT INTO device_tokens (token, user_id, platform, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token) DO UPDATE
	SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = NOW()
	`, d.Token, userID, d.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (r *NotificationRepo) DeviceTokens(ctx context.Context, q DBTX, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := q.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device tokens: %w", err)
	}
	defer rows.Close()

	tokens := []notification.DeviceToken{}
	for rows.Next() {
		var d notification.DeviceToken
		if err := rows.Scan(&d.Token, &d.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, d)
	}
	return tokens, rows.Err()
}

func (r *NotificationRepo) DeleteDevices(ctx context.Context, q DBTX, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `DELETE FROM device_tokens WHERE token = ANY($1)`, tokens)
	if err != nil {
		return fmt.Errorf("failed to delete device tokens: %w", err)
	}
	return nil
}
