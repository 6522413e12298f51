package testutil

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/types/assessment"
	"careerHubAPI/internal/types/leaderboard"
	"careerHubAPI/internal/types/notification"
	"careerHubAPI/internal/types/streak"
	"careerHubAPI/internal/types/user"
	"careerHubAPI/internal/types/workshop"
)

var (
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.StreakRepository       = (*Streaks)(nil)
	_ repository.LeaderboardRepository  = (*Leaderboard)(nil)
	_ repository.AssessmentRepository   = (*Assessments)(nil)
	_ repository.WorkshopRepository     = (*Workshops)(nil)
	_ repository.NotificationRepository = (*Notifications)(nil)
)

type Users struct{ s *Store }

func (r *Users) Create(ctx context.Context, q repository.DBTX, u *user.User) (*user.User, error) {
	failErr := r.s.lock("users.Create")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	for _, existing := range r.s.st.users {
		if existing.ClerkID == u.ClerkID {
			out := existing
			return &out, nil
		}
	}
	r.s.st.users[u.ID] = *u
	out := *u
	return &out, nil
}

func (r *Users) GetByClerkID(ctx context.Context, q repository.DBTX, clerkID string) (*user.User, error) {
	failErr := r.s.lock("users.GetByClerkID")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	for _, u := range r.s.st.users {
		if u.ClerkID == clerkID {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) GetByID(ctx context.Context, q repository.DBTX, id uuid.UUID) (*user.User, error) {
	failErr := r.s.lock("users.GetByID")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	u, ok := r.s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) UpdateProfile(ctx context.Context, q repository.DBTX, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	failErr := r.s.lock("users.UpdateProfile")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	for id, u := range r.s.st.users {
		if u.ClerkID != clerkID {
			continue
		}
		if req.Email != nil {
			u.Email = *req.Email
		}
		if req.Username != nil {
			u.Username = *req.Username
		}
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.ImageURL != nil {
			img := *req.ImageURL
			u.ImageURL = &img
		}
		u.UpdatedAt = time.Now().UTC()
		r.s.st.users[id] = u
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *Users) DeleteByClerkID(ctx context.Context, q repository.DBTX, clerkID string) error {
	failErr := r.s.lock("users.DeleteByClerkID")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	for id, u := range r.s.st.users {
		if u.ClerkID == clerkID {
			delete(r.s.st.users, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

type Streaks struct{ s *Store }

func (r *Streaks) EnsureAndLock(ctx context.Context, q repository.DBTX, userID uuid.UUID, activityType string) (*streak.Record, error) {
	failErr := r.s.lock("streaks.EnsureAndLock")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	key := streakKey{userID, activityType}
	rec, ok := r.s.st.streaks[key]
	if !ok {
		now := time.Now().UTC()
		rec = streak.Record{UserID: userID, ActivityType: activityType, CreatedAt: now, UpdatedAt: now}
		r.s.st.streaks[key] = rec
	}
	return &rec, nil
}

func (r *Streaks) InsertLog(ctx context.Context, q repository.DBTX, e *streak.ActivityLogEntry) (bool, error) {
	failErr := r.s.lock("streaks.InsertLog")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return false, failErr
	}

	for _, existing := range r.s.st.logs {
		if existing.UserID == e.UserID && existing.ActivityType == e.ActivityType && existing.ActivityDay.Equal(e.ActivityDay) {
			return false, nil
		}
	}
	r.s.st.logs = append(r.s.st.logs, *e)
	return true, nil
}

func (r *Streaks) Update(ctx context.Context, q repository.DBTX, rec *streak.Record) error {
	failErr := r.s.lock("streaks.Update")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	key := streakKey{rec.UserID, rec.ActivityType}
	if _, ok := r.s.st.streaks[key]; !ok {
		return repository.ErrNotFound
	}
	r.s.st.streaks[key] = *rec
	return nil
}

func (r *Streaks) ListByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]*streak.Record, error) {
	failErr := r.s.lock("streaks.ListByUser")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	out := []*streak.Record{}
	for k, rec := range r.s.st.streaks {
		if k.userID == userID && rec.LastActivityDate != nil {
			rec := rec
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivityType < out[j].ActivityType })
	return out, nil
}

func (r *Streaks) ActiveDays(ctx context.Context, q repository.DBTX, userID uuid.UUID, activityType string, until time.Time) ([]time.Time, error) {
	failErr := r.s.lock("streaks.ActiveDays")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	seen := map[time.Time]bool{}
	days := []time.Time{}
	for _, e := range r.s.st.logs {
		if e.UserID != userID || (activityType != "" && e.ActivityType != activityType) || e.ActivityDay.After(until) {
			continue
		}
		if !seen[e.ActivityDay] {
			seen[e.ActivityDay] = true
			days = append(days, e.ActivityDay)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

func (r *Streaks) ListLog(ctx context.Context, q repository.DBTX, userID uuid.UUID, activityType string, limit int) ([]*streak.ActivityLogEntry, error) {
	failErr := r.s.lock("streaks.ListLog")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	out := []*streak.ActivityLogEntry{}
	for _, e := range r.s.st.logs {
		if e.UserID == userID && (activityType == "" || e.ActivityType == activityType) {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivityDate.After(out[j].ActivityDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Streaks) Summary(ctx context.Context, q repository.DBTX, userID uuid.UUID, today time.Time) (*repository.LogSummary, error) {
	failErr := r.s.lock("streaks.Summary")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	sum := &repository.LogSummary{}
	days := map[time.Time]bool{}
	for _, e := range r.s.st.logs {
		if e.UserID != userID {
			continue
		}
		sum.TotalActivities++
		days[e.ActivityDay] = true
		if e.ActivityDay.Equal(today) {
			sum.TodayLogged = true
		}
	}
	sum.ActiveDays = len(days)
	return sum, nil
}

type Leaderboard struct{ s *Store }

func (r *Leaderboard) GetActive(ctx context.Context, q repository.DBTX, userID uuid.UUID) (*leaderboard.Participant, error) {
	failErr := r.s.lock("leaderboard.GetActive")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	for _, p := range r.s.st.participants {
		if p.UserID == userID && p.IsActive {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Leaderboard) Insert(ctx context.Context, q repository.DBTX, p *leaderboard.Participant) (bool, error) {
	failErr := r.s.lock("leaderboard.Insert")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return false, failErr
	}

	for _, existing := range r.s.st.participants {
		if existing.UserID == p.UserID && existing.IsActive {
			return false, nil
		}
	}
	row := *p
	row.IsActive = true
	r.s.st.participants = append(r.s.st.participants, row)
	return true, nil
}

func (r *Leaderboard) Deactivate(ctx context.Context, q repository.DBTX, userID uuid.UUID) (bool, error) {
	failErr := r.s.lock("leaderboard.Deactivate")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return false, failErr
	}

	changed := false
	for i, p := range r.s.st.participants {
		if p.UserID == userID && p.IsActive {
			r.s.st.participants[i].IsActive = false
			changed = true
		}
	}
	return changed, nil
}

// latestAssessment must be called with the state lock held.
func (r *Leaderboard) latestAssessment(userID uuid.UUID) *assessment.Assessment {
	var latest *assessment.Assessment
	for i := range r.s.st.assessments {
		a := &r.s.st.assessments[i]
		if a.UserID == userID && newer(a, latest) {
			latest = a
		}
	}
	return latest
}

func newer(a, than *assessment.Assessment) bool {
	if than == nil {
		return true
	}
	if !a.CreatedAt.Equal(than.CreatedAt) {
		return a.CreatedAt.After(than.CreatedAt)
	}
	return strings.Compare(a.ID.String(), than.ID.String()) > 0
}

func (r *Leaderboard) ListCandidates(ctx context.Context, q repository.DBTX) ([]leaderboard.Candidate, error) {
	failErr := r.s.lock("leaderboard.ListCandidates")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	out := []leaderboard.Candidate{}
	for _, p := range r.s.st.participants {
		if !p.IsActive {
			continue
		}
		u := r.s.st.users[p.UserID]
		c := leaderboard.Candidate{
			ParticipantID: p.ID,
			UserID:        p.UserID,
			Username:      u.Username,
			ImageURL:      u.ImageURL,
			Email:         u.Email,
			JoinedAt:      p.JoinedAt,
			IsActive:      p.IsActive,
			AssessmentID:  p.AssessmentID,
		}
		if latest := r.latestAssessment(p.UserID); latest != nil {
			id, score := latest.ID, latest.TotalScore
			c.LatestAssessmentID = &id
			c.LatestScore = &score
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Leaderboard) RepointToLatest(ctx context.Context, q repository.DBTX) (int64, error) {
	failErr := r.s.lock("leaderboard.RepointToLatest")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return 0, failErr
	}

	var n int64
	for i, p := range r.s.st.participants {
		if !p.IsActive {
			continue
		}
		latest := r.latestAssessment(p.UserID)
		if latest == nil || (p.AssessmentID != nil && *p.AssessmentID == latest.ID) {
			continue
		}
		id := latest.ID
		r.s.st.participants[i].AssessmentID = &id
		n++
	}
	return n, nil
}

type Assessments struct{ s *Store }

func (r *Assessments) Insert(ctx context.Context, q repository.DBTX, a *assessment.Assessment) error {
	failErr := r.s.lock("assessments.Insert")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	r.s.st.assessments = append(r.s.st.assessments, *a)
	return nil
}

func (r *Assessments) Latest(ctx context.Context, q repository.DBTX, userID uuid.UUID) (*assessment.Assessment, error) {
	failErr := r.s.lock("assessments.Latest")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	latest := (&Leaderboard{r.s}).latestAssessment(userID)
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (r *Assessments) ListByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID, limit int) ([]*assessment.Assessment, error) {
	failErr := r.s.lock("assessments.ListByUser")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	out := []*assessment.Assessment{}
	for _, a := range r.s.st.assessments {
		if a.UserID == userID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type Workshops struct{ s *Store }

func (r *Workshops) Insert(ctx context.Context, q repository.DBTX, w *workshop.Workshop) error {
	failErr := r.s.lock("workshops.Insert")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	r.s.st.workshops[w.ID] = *w
	return nil
}

func (r *Workshops) Get(ctx context.Context, q repository.DBTX, id uuid.UUID) (*workshop.Workshop, error) {
	failErr := r.s.lock("workshops.Get")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	w, ok := r.s.st.workshops[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *Workshops) UpdateState(ctx context.Context, q repository.DBTX, w *workshop.Workshop, expected workshop.Status) (bool, error) {
	failErr := r.s.lock("workshops.UpdateState")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return false, failErr
	}

	current, ok := r.s.st.workshops[w.ID]
	if !ok || current.Status != expected {
		return false, nil
	}
	current.Status = w.Status
	current.ApprovedBy = w.ApprovedBy
	current.ApprovedAt = w.ApprovedAt
	current.RejectionReason = w.RejectionReason
	current.UpdatedAt = w.UpdatedAt
	r.s.st.workshops[w.ID] = current
	return true, nil
}

func (r *Workshops) ListByStatus(ctx context.Context, q repository.DBTX, status workshop.Status, limit int) ([]*workshop.Workshop, error) {
	failErr := r.s.lock("workshops.ListByStatus")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	out := []*workshop.Workshop{}
	for _, w := range r.s.st.workshops {
		if w.Status == status {
			w := w
			out = append(out, &w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type Notifications struct{ s *Store }

func (r *Notifications) Insert(ctx context.Context, q repository.DBTX, n *notification.Notification) error {
	failErr := r.s.lock("notifications.Insert")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	row := *n
	row.Data = copyData(n.Data)
	r.s.st.notifications = append(r.s.st.notifications, row)
	return nil
}

func (r *Notifications) List(ctx context.Context, q repository.DBTX, userID uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	failErr := r.s.lock("notifications.List")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	all := []*notification.Notification{}
	for _, n := range r.s.st.notifications {
		if n.UserID == userID {
			n := n
			all = append(all, &n)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []*notification.Notification{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *Notifications) Counts(ctx context.Context, q repository.DBTX, userID uuid.UUID) (int, int, error) {
	failErr := r.s.lock("notifications.Counts")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return 0, 0, failErr
	}

	unread, total := 0, 0
	for _, n := range r.s.st.notifications {
		if n.UserID != userID {
			continue
		}
		total++
		if !n.IsRead {
			unread++
		}
	}
	return unread, total, nil
}

func (r *Notifications) MarkRead(ctx context.Context, q repository.DBTX, userID, id uuid.UUID) (bool, error) {
	failErr := r.s.lock("notifications.MarkRead")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return false, failErr
	}

	for i, n := range r.s.st.notifications {
		if n.ID == id && n.UserID == userID {
			r.s.st.notifications[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r *Notifications) MarkAllRead(ctx context.Context, q repository.DBTX, userID uuid.UUID) (int64, error) {
	failErr := r.s.lock("notifications.MarkAllRead")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return 0, failErr
	}

	var n int64
	for i, row := range r.s.st.notifications {
		if row.UserID == userID && !row.IsRead {
			r.s.st.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *Notifications) MarkSent(ctx context.Context, q repository.DBTX, id uuid.UUID, at time.Time) error {
	failErr := r.s.lock("notifications.MarkSent")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	for i, n := range r.s.st.notifications {
		if n.ID == id {
			sent := at
			r.s.st.notifications[i].SentAt = &sent
		}
	}
	return nil
}

func (r *Notifications) UpsertDevice(ctx context.Context, q repository.DBTX, userID uuid.UUID, d notification.DeviceToken) error {
	failErr := r.s.lock("notifications.UpsertDevice")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	r.s.st.devices[d.Token] = device{userID: userID, platform: d.Platform}
	return nil
}

func (r *Notifications) DeviceTokens(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]notification.DeviceToken, error) {
	failErr := r.s.lock("notifications.DeviceTokens")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	out := []notification.DeviceToken{}
	for token, d := range r.s.st.devices {
		if d.userID == userID {
			out = append(out, notification.DeviceToken{Token: token, Platform: d.platform})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

func (r *Notifications) DeleteDevices(ctx context.Context, q repository.DBTX, tokens []string) error {
	failErr := r.s.lock("notifications.DeleteDevices")
	defer r.s.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	for _, t := range tokens {
		delete(r.s.st.devices, t)
	}
	return nil
}
