package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/types/notification"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxTokenLen     = 4096
)

type NotificationService struct {
	db            repository.DBTX
	users         repository.UserRepository
	notifications repository.NotificationRepository
	dispatcher    *NotificationDispatcher
	log           *logger.Logger
}

func NewNotificationService(db repository.DBTX, users repository.UserRepository, notifications repository.NotificationRepository, log *logger.Logger) *NotificationService {
	return &NotificationService{
		db:            db,
		users:         users,
		notifications: notifications,
		log:           log.With("service", "notification"),
	}
}

// SetDispatcher enables push delivery for newly created notifications.
func (s *NotificationService) SetDispatcher(d *NotificationDispatcher) {
	s.dispatcher = d
}

// CreateNotification stores an in-app notification and queues it for push.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	if req == nil || req.UserID == uuid.Nil {
		return nil, apperr.Validation("notification recipient is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validation("notification title is required")
	}

	n := &notification.Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Data:      req.Data,
		CreatedAt: utcNow(),
	}
	if err := s.notifications.Insert(ctx, s.db, n); err != nil {
		return nil, apperr.Lift(err)
	}

	if s.dispatcher != nil {
		s.dispatcher.DispatchNotification(ctx, n)
	}
	return n, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, page, pageSize int) (*notification.NotificationListResponse, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	pageSize = clampLimit(pageSize, defaultPageSize, maxPageSize)

	list, err := s.notifications.List(ctx, s.db, u.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperr.Lift(err)
	}
	unread, total, err := s.notifications.Counts(ctx, s.db, u.ID)
	if err != nil {
		return nil, apperr.Lift(err)
	}

	return &notification.NotificationListResponse{
		Notifications: list,
		UnreadCount:   unread,
		TotalCount:    total,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return 0, err
	}
	unread, _, err := s.notifications.Counts(ctx, s.db, u.ID)
	if err != nil {
		return 0, apperr.Lift(err)
	}
	return unread, nil
}

// MarkAsRead only touches notifications owned by the caller.
func (s *NotificationService) MarkAsRead(ctx context.Context, clerkID string, id uuid.UUID) error {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return err
	}
	ok, err := s.notifications.MarkRead(ctx, s.db, u.ID, id)
	if err != nil {
		return apperr.Lift(err)
	}
	if !ok {
		return apperr.NotFound("notification")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) (int64, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return 0, err
	}
	n, err := s.notifications.MarkAllRead(ctx, s.db, u.ID)
	if err != nil {
		return 0, apperr.Lift(err)
	}
	return n, nil
}

// RegisterDevice stores a push token for the caller. A token already known
// for another user moves to the caller.
func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	if req == nil {
		return apperr.Validation("request body is required")
	}
	token := strings.TrimSpace(req.Token)
	if token == "" || len(token) > maxTokenLen {
		return apperr.Validation("token is required")
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	switch platform {
	case "ios", "android", "web":
	default:
		return apperr.Validation("platform must be one of ios, android, web")
	}

	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return err
	}
	if err := s.notifications.UpsertDevice(ctx, s.db, u.ID, notification.DeviceToken{Token: token, Platform: platform}); err != nil {
		return apperr.Lift(err)
	}
	s.log.Debug("device registered", "user_id", u.ID, "platform", platform)
	return nil
}
