package services

import (
	"context"
	"errors"
	"time"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/types/notification"
	"careerHubAPI/internal/types/user"
)

// Notifier creates in-app notifications. *NotificationService implements it.
type Notifier interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

// resolveUser maps the Clerk id of the caller to the local user row.
func resolveUser(ctx context.Context, users repository.UserRepository, q repository.DBTX, clerkID string) (*user.User, error) {
	if clerkID == "" {
		return nil, apperr.NotFound("user")
	}
	u, err := users.GetByClerkID(ctx, q, clerkID)
	if err != nil {
		return nil, liftRepoErr(err, "user")
	}
	return u, nil
}

// liftRepoErr turns repository.ErrNotFound into a NotFound for what and any
// other unclassified error into a persistence failure.
func liftRepoErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(what)
	}
	return apperr.Lift(err)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func utcNow() time.Time { return time.Now().UTC() }
