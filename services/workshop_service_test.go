package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/testutil"
	"careerHubAPI/internal/types/notification"
	"careerHubAPI/internal/types/workshop"
)

func newWorkshopFixture(t *testing.T) (*WorkshopService, *testutil.Store, *recordingNotifier) {
	t.Helper()
	store := testutil.NewStore()
	notifier := &recordingNotifier{}
	svc := NewWorkshopService(nil, store.Users, store.Workshops, logger.Nop())
	svc.SetNotifier(notifier)
	svc.SetClock(newClock(day(10, 9)).Now)
	return svc, store, notifier
}

func createWorkshop(t *testing.T, svc *WorkshopService, clerkID string) *workshop.Workshop {
	t.Helper()
	w, err := svc.Create(context.Background(), clerkID, &workshop.CreateRequest{
		Title:       "  Resume Teardown  ",
		Description: "Live review of three resumes.",
		ScheduledAt: day(20, 17),
	})
	require.NoError(t, err)
	return w
}

func TestCreateWorkshopStartsPending(t *testing.T) {
	svc, store, _ := newWorkshopFixture(t)
	u := seedMember(store, "creator", "c@careerhub.io")

	w := createWorkshop(t, svc, "creator")
	assert.Equal(t, workshop.StatusPending, w.Status)
	assert.Equal(t, "Resume Teardown", w.Title)
	assert.Equal(t, u.ID, w.CreatedBy)

	_, err := svc.Create(context.Background(), "creator", &workshop.CreateRequest{Title: "ab", ScheduledAt: day(20, 17)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.Create(context.Background(), "creator", &workshop.CreateRequest{Title: "Mock interviews"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestApproveWorkshop(t *testing.T) {
	svc, store, notifier := newWorkshopFixture(t)
	creator := seedMember(store, "creator", "c@careerhub.io")
	approver := seedApprover(store, "approver")
	w := createWorkshop(t, svc, "creator")

	_, err := svc.Approve(context.Background(), "creator", w.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	approved, err := svc.Approve(context.Background(), "approver", w.ID)
	require.NoError(t, err)
	assert.Equal(t, workshop.StatusPublished, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, approver.ID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = svc.Approve(context.Background(), "approver", w.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	_, err = svc.Reject(context.Background(), "approver", w.ID, "too late")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	sent := notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, creator.ID, sent[0].UserID)
	assert.Equal(t, notification.TypeWorkshopApproved, sent[0].Type)

	published, err := svc.List(context.Background(), "creator", "", 0)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, w.ID, published[0].ID)
}

func TestRejectAndResubmitWorkshop(t *testing.T) {
	svc, store, notifier := newWorkshopFixture(t)
	seedMember(store, "creator", "c@careerhub.io")
	seedMember(store, "other", "o@careerhub.io")
	seedApprover(store, "approver")
	w := createWorkshop(t, svc, "creator")

	_, err := svc.Reject(context.Background(), "approver", w.ID, "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	rejected, err := svc.Reject(context.Background(), "approver", w.ID, "Add an agenda")
	require.NoError(t, err)
	assert.Equal(t, workshop.StatusDraft, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Add an agenda", *rejected.RejectionReason)

	sent := notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.TypeWorkshopRejected, sent[0].Type)
	assert.Contains(t, sent[0].Message, "Add an agenda")

	_, err = svc.Resubmit(context.Background(), "other", w.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	again, err := svc.Resubmit(context.Background(), "creator", w.ID)
	require.NoError(t, err)
	assert.Equal(t, workshop.StatusPending, again.Status)
	assert.Nil(t, again.RejectionReason)

	_, err = svc.Resubmit(context.Background(), "creator", w.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestWorkshopLostRaceIsInvalidState(t *testing.T) {
	svc, store, _ := newWorkshopFixture(t)
	seedMember(store, "creator", "c@careerhub.io")
	approver := seedApprover(store, "approver")
	w := createWorkshop(t, svc, "creator")

	// Another approver publishes between our read and our write.
	stale := *w
	stale.Status = workshop.StatusPublished
	stale.ApprovedBy = &approver.ID
	ok, err := store.Workshops.UpdateState(context.Background(), nil, &stale, workshop.StatusPending)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Reject(context.Background(), "approver", w.ID, "duplicate")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestWorkshopVisibility(t *testing.T) {
	svc, store, _ := newWorkshopFixture(t)
	seedMember(store, "creator", "c@careerhub.io")
	seedMember(store, "other", "o@careerhub.io")
	seedApprover(store, "approver")
	w := createWorkshop(t, svc, "creator")

	_, err := svc.Get(context.Background(), "creator", w.ID)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), "approver", w.ID)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), "other", w.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.Get(context.Background(), "creator", uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.ListPending(context.Background(), "other", 0)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	pending, err := svc.ListPending(context.Background(), "approver", 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = svc.List(context.Background(), "approver", "archived", 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestWorkshopNotificationFailureDoesNotFailApproval(t *testing.T) {
	svc, store, notifier := newWorkshopFixture(t)
	seedMember(store, "creator", "c@careerhub.io")
	seedApprover(store, "approver")
	notifier.err = errors.New("push down")
	w := createWorkshop(t, svc, "creator")

	approved, err := svc.Approve(context.Background(), "approver", w.ID)
	require.NoError(t, err)
	assert.Equal(t, workshop.StatusPublished, approved.Status)
}

func TestWorkshopPersistenceFailure(t *testing.T) {
	svc, store, _ := newWorkshopFixture(t)
	seedMember(store, "creator", "c@careerhub.io")
	seedApprover(store, "approver")
	w := createWorkshop(t, svc, "creator")

	store.FailOn("workshops.UpdateState", errors.New("deadlock detected"))
	_, err := svc.Approve(context.Background(), "approver", w.ID)
	assert.True(t, apperr.Is(err, apperr.KindPersistence))

	store.FailOn("workshops.UpdateState", nil)
	got, err := svc.Get(context.Background(), "approver", w.ID)
	require.NoError(t, err)
	assert.Equal(t, workshop.StatusPending, got.Status)
}
