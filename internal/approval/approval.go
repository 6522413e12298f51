// Package approval is the workshop review state machine.
//
//	draft -> pending -> approved -> published
//	             \----> rejected -> draft
//
// Approve collapses approved->published into one step. Reject lands back in
// draft so the creator can edit and resubmit.
package approval

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/types/workshop"
)

type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionResubmit Action = "resubmit"
)

const (
	MinTitleLen        = 3
	MaxTitleLen        = 200
	MaxDescriptionLen  = 5000
	MaxRejectReasonLen = 1000
)

// Actor is the user attempting a transition.
type Actor struct {
	UserID     uuid.UUID
	CanApprove bool
}

// ValidateCreate normalises a create request in place.
func ValidateCreate(req *workshop.CreateRequest) error {
	if req == nil {
		return apperr.Validation("request body is required")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	n := utf8.RuneCountInString(req.Title)
	if n < MinTitleLen || n > MaxTitleLen {
		return apperr.Validation("title must be between %d and %d characters", MinTitleLen, MaxTitleLen)
	}
	if utf8.RuneCountInString(req.Description) > MaxDescriptionLen {
		return apperr.Validation("description must be at most %d characters", MaxDescriptionLen)
	}
	if req.ScheduledAt.IsZero() {
		return apperr.Validation("scheduled_at is required")
	}
	return nil
}

// New builds a freshly submitted workshop. Every new workshop awaits review.
func New(req workshop.CreateRequest, creator uuid.UUID, now time.Time) workshop.Workshop {
	return workshop.Workshop{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt.UTC(),
		CreatedBy:   creator,
		Status:      workshop.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply returns w after action, or an error leaving w untouched.
func Apply(w workshop.Workshop, action Action, actor Actor, reason string, now time.Time) (workshop.Workshop, error) {
	switch action {
	case ActionApprove:
		if !actor.CanApprove {
			return w, apperr.Forbidden("only approvers can approve workshops")
		}
		if w.Status != workshop.StatusPending {
			return w, apperr.InvalidState("cannot approve a workshop in status %q", w.Status)
		}
		next := stamp(w, actor, now)
		next.Status = workshop.StatusPublished
		next.RejectionReason = nil
		return next, nil

	case ActionReject:
		if !actor.CanApprove {
			return w, apperr.Forbidden("only approvers can reject workshops")
		}
		if w.Status != workshop.StatusPending {
			return w, apperr.InvalidState("cannot reject a workshop in status %q", w.Status)
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return w, apperr.Validation("a rejection reason is required")
		}
		if utf8.RuneCountInString(reason) > MaxRejectReasonLen {
			return w, apperr.Validation("rejection reason must be at most %d characters", MaxRejectReasonLen)
		}
		next := stamp(w, actor, now)
		next.Status = workshop.StatusDraft
		next.RejectionReason = &reason
		return next, nil

	case ActionResubmit:
		if actor.UserID != w.CreatedBy {
			return w, apperr.Forbidden("only the creator can resubmit a workshop")
		}
		if w.Status != workshop.StatusDraft {
			return w, apperr.InvalidState("cannot resubmit a workshop in status %q", w.Status)
		}
		next := w
		next.Status = workshop.StatusPending
		next.RejectionReason = nil
		next.ApprovedBy = nil
		next.ApprovedAt = nil
		next.UpdatedAt = now
		return next, nil
	}

	return w, apperr.Validation("unknown action %q", action)
}

// RequiredStatus is the status a workshop must be in for action to apply.
func RequiredStatus(action Action) workshop.Status {
	if action == ActionResubmit {
		return workshop.StatusDraft
	}
	return workshop.StatusPending
}

func stamp(w workshop.Workshop, actor Actor, now time.Time) workshop.Workshop {
	by := actor.UserID
	at := now
	w.ApprovedBy = &by
	w.ApprovedAt = &at
	w.UpdatedAt = now
	return w
}
