package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"careerHubAPI/internal/testutil"
	"careerHubAPI/internal/types/notification"
	"careerHubAPI/internal/types/user"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingNotifier struct {
	mu   sync.Mutex
	reqs []*notification.CreateNotificationRequest
	err  error
}

func (n *recordingNotifier) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reqs = append(n.reqs, req)
	if n.err != nil {
		return nil, n.err
	}
	return &notification.Notification{ID: uuid.New(), UserID: req.UserID, Type: req.Type, Title: req.Title}, nil
}

func (n *recordingNotifier) sent() []*notification.CreateNotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*notification.CreateNotificationRequest(nil), n.reqs...)
}

func seedMember(store *testutil.Store, clerkID, email string) user.User {
	return store.SeedUser(user.User{ClerkID: clerkID, Email: email, Username: clerkID})
}

func seedApprover(store *testutil.Store, clerkID string) user.User {
	return store.SeedUser(user.User{ClerkID: clerkID, Email: clerkID + "@careerhub.io", Username: clerkID, Role: user.RoleApprover})
}

func day(d, hour int) time.Time {
	return time.Date(2025, time.January, d, hour, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
