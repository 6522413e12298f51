// Package testutil provides an in-memory implementation of the repository
// interfaces with transaction rollback and failure injection, so services can
// be tested without PostgreSQL.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/types/assessment"
	"careerHubAPI/internal/types/leaderboard"
	"careerHubAPI/internal/types/notification"
	"careerHubAPI/internal/types/streak"
	"careerHubAPI/internal/types/user"
	"careerHubAPI/internal/types/workshop"
)

type streakKey struct {
	userID       uuid.UUID
	activityType string
}

type device struct {
	userID   uuid.UUID
	platform string
}

type state struct {
	users         map[uuid.UUID]user.User
	streaks       map[streakKey]streak.Record
	logs          []streak.ActivityLogEntry
	participants  []leaderboard.Participant
	assessments   []assessment.Assessment
	workshops     map[uuid.UUID]workshop.Workshop
	notifications []notification.Notification
	devices       map[string]device
}

func newState() *state {
	return &state{
		users:     map[uuid.UUID]user.User{},
		streaks:   map[streakKey]streak.Record{},
		workshops: map[uuid.UUID]workshop.Workshop{},
		devices:   map[string]device{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.streaks {
		c.streaks[k] = v
	}
	for k, v := range s.workshops {
		c.workshops[k] = v
	}
	for k, v := range s.devices {
		c.devices[k] = v
	}
	c.logs = append(c.logs, s.logs...)
	c.participants = append(c.participants, s.participants...)
	c.assessments = append(c.assessments, s.assessments...)
	for _, n := range s.notifications {
		n.Data = copyData(n.Data)
		c.notifications = append(c.notifications, n)
	}
	return c
}

func copyData(d map[string]any) map[string]any {
	if d == nil {
		return nil
	}
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Store is the shared in-memory database. Its repository views are exposed
// as fields.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   *state
	fail map[string]error

	// FailCommit makes the next InTx calls fail after fn succeeds.
	FailCommit error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int

	Users         *Users
	Streaks       *Streaks
	Leaderboard   *Leaderboard
	Assessments   *Assessments
	Workshops     *Workshops
	Notifications *Notifications
}

var _ repository.TxRunner = (*Store)(nil)

func NewStore() *Store {
	s := &Store{st: newState(), fail: map[string]error{}}
	s.Users = &Users{s}
	s.Streaks = &Streaks{s}
	s.Leaderboard = &Leaderboard{s}
	s.Assessments = &Assessments{s}
	s.Workshops = &Workshops{s}
	s.Notifications = &Notifications{s}
	return s
}

// FailOn makes every call to op return err until cleared with a nil err.
// Ops are named "<repo>.<Method>", e.g. "streaks.Update".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// lock acquires the state lock and returns the injected failure for op.
// Callers must defer s.mu.Unlock.
func (s *Store) lock(op string) error {
	s.mu.Lock()
	return s.fail[op]
}

// InTx serialises transactions and restores the pre-transaction state when
// fn or the commit fails.
func (s *Store) InTx(ctx context.Context, fn func(q repository.DBTX) error) error {
	if fn == nil {
		return nil
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.BeginCalls++
	snapshot := s.st.clone()
	failCommit := s.FailCommit
	s.mu.Unlock()

	err := fn(nil)
	if err == nil && failCommit != nil {
		err = failCommit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.st = snapshot
		s.RollbackCalls++
		return err
	}
	s.CommitCalls++
	return nil
}

// Counts returns the transaction counters.
func (s *Store) Counts() (begins, commits, rollbacks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.BeginCalls, s.CommitCalls, s.RollbackCalls
}

// SeedUser inserts u directly, bypassing failure injection.
func (s *Store) SeedUser(u user.User) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = user.RoleMember
	}
	s.st.users[u.ID] = u
	return u
}

// LogEntries returns a copy of the activity log.
func (s *Store) LogEntries() []streak.ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]streak.ActivityLogEntry(nil), s.st.logs...)
}

// AllNotifications returns a copy of every stored notification.
func (s *Store) AllNotifications() []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Notification(nil), s.st.notifications...)
}

// AllParticipants returns every participant row, active or not.
func (s *Store) AllParticipants() []leaderboard.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]leaderboard.Participant(nil), s.st.participants...)
}
