package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/approval"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/metrics"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/types/notification"
	"careerHubAPI/internal/types/user"
	"careerHubAPI/internal/types/workshop"
)

const (
	defaultWorkshopLimit = 50
	maxWorkshopLimit     = 200
)

type WorkshopService struct {
	db        repository.DBTX
	users     repository.UserRepository
	workshops repository.WorkshopRepository
	notifier  Notifier
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewWorkshopService(db repository.DBTX, users repository.UserRepository, workshops repository.WorkshopRepository, log *logger.Logger) *WorkshopService {
	return &WorkshopService{
		db:        db,
		users:     users,
		workshops: workshops,
		log:       log.With("service", "workshop"),
		now:       utcNow,
	}
}

func (s *WorkshopService) SetNotifier(n Notifier) { s.notifier = n }

func (s *WorkshopService) SetMetrics(m *metrics.Metrics) { s.metrics = m }

func (s *WorkshopService) SetClock(now func() time.Time) { s.now = now }

// Create submits a workshop for review.
func (s *WorkshopService) Create(ctx context.Context, clerkID string, req *workshop.CreateRequest) (*workshop.Workshop, error) {
	if err := approval.ValidateCreate(req); err != nil {
		return nil, err
	}
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	w := approval.New(*req, u.ID, s.now())
	if err := s.workshops.Insert(ctx, s.db, &w); err != nil {
		return nil, apperr.Lift(err)
	}
	s.metrics.WorkshopTransition("created")
	s.log.Info("workshop submitted", "workshop_id", w.ID, "created_by", u.ID)
	return &w, nil
}

// Get returns a published workshop to anyone. Unpublished ones are visible
// to their creator and to approvers only.
func (s *WorkshopService) Get(ctx context.Context, clerkID string, id uuid.UUID) (*workshop.Workshop, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	w, err := s.workshops.Get(ctx, s.db, id)
	if err != nil {
		return nil, liftRepoErr(err, "workshop")
	}
	if w.Status != workshop.StatusPublished && w.CreatedBy != u.ID && !u.CanApprove() {
		return nil, apperr.NotFound("workshop")
	}
	return w, nil
}

// List returns workshops in status, published by default. Other statuses are
// for approvers.
func (s *WorkshopService) List(ctx context.Context, clerkID, status string, limit int) ([]*workshop.Workshop, error) {
	st := workshop.Status(strings.ToLower(strings.TrimSpace(status)))
	if st == "" {
		st = workshop.StatusPublished
	}
	if !st.Valid() {
		return nil, apperr.Validation("unknown workshop status %q", status)
	}

	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if st != workshop.StatusPublished && !u.CanApprove() {
		return nil, apperr.Forbidden("only approvers can list unpublished workshops")
	}

	list, err := s.workshops.ListByStatus(ctx, s.db, st, clampLimit(limit, defaultWorkshopLimit, maxWorkshopLimit))
	if err != nil {
		return nil, apperr.Lift(err)
	}
	return list, nil
}

func (s *WorkshopService) ListPending(ctx context.Context, clerkID string, limit int) ([]*workshop.Workshop, error) {
	return s.List(ctx, clerkID, string(workshop.StatusPending), limit)
}

func (s *WorkshopService) Approve(ctx context.Context, clerkID string, id uuid.UUID) (*workshop.Workshop, error) {
	return s.transition(ctx, clerkID, id, approval.ActionApprove, "")
}

func (s *WorkshopService) Reject(ctx context.Context, clerkID string, id uuid.UUID, reason string) (*workshop.Workshop, error) {
	return s.transition(ctx, clerkID, id, approval.ActionReject, reason)
}

func (s *WorkshopService) Resubmit(ctx context.Context, clerkID string, id uuid.UUID) (*workshop.Workshop, error) {
	return s.transition(ctx, clerkID, id, approval.ActionResubmit, "")
}

func (s *WorkshopService) transition(ctx context.Context, clerkID string, id uuid.UUID, action approval.Action, reason string) (*workshop.Workshop, error) {
	u, err := resolveUser(ctx, s.users, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	current, err := s.workshops.Get(ctx, s.db, id)
	if err != nil {
		return nil, liftRepoErr(err, "workshop")
	}

	next, err := approval.Apply(*current, action, approval.Actor{UserID: u.ID, CanApprove: u.CanApprove()}, reason, s.now())
	if err != nil {
		return nil, err
	}

	ok, err := s.workshops.UpdateState(ctx, s.db, &next, approval.RequiredStatus(action))
	if err != nil {
		return nil, apperr.Lift(err)
	}
	if !ok {
		return nil, apperr.InvalidState("workshop was modified concurrently, reload and retry")
	}

	s.metrics.WorkshopTransition(string(action))
	s.log.Info("workshop transition", "workshop_id", next.ID, "action", action, "status", next.Status, "actor", u.ID)
	s.notifyCreator(ctx, &next, action, u)
	return &next, nil
}

func (s *WorkshopService) notifyCreator(ctx context.Context, w *workshop.Workshop, action approval.Action, actor *user.User) {
	if s.notifier == nil || w.CreatedBy == actor.ID {
		return
	}

	req := &notification.CreateNotificationRequest{
		UserID: w.CreatedBy,
		Data:   map[string]any{"workshop_id": w.ID.String()},
	}
	switch action {
	case approval.ActionApprove:
		req.Type = notification.TypeWorkshopApproved
		req.Title = "Workshop approved"
		req.Message = fmt.Sprintf("%q is now published.", w.Title)
	case approval.ActionReject:
		req.Type = notification.TypeWorkshopRejected
		req.Title = "Workshop needs changes"
		req.Message = fmt.Sprintf("%q was sent back: %s", w.Title, deref(w.RejectionReason))
	default:
		return
	}

	if _, err := s.notifier.CreateNotification(ctx, req); err != nil {
		s.log.Warn("workshop notification failed", "workshop_id", w.ID, "action", action, "error", err)
	}
}
