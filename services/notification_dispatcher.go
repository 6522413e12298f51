package services

import (
	"context"
	"sync"
	"time"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/metrics"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/types/notification"
)

// PushNotificationProvider delivers to device tokens and returns the tokens
// the provider no longer recognises.
type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) ([]string, error)
}

// NotificationDispatcher sends stored notifications to devices on a pool of
// workers.
type NotificationDispatcher struct {
	db            repository.DBTX
	notifications repository.NotificationRepository
	log           *logger.Logger
	metrics       *metrics.Metrics

	mu           sync.RWMutex
	pushProvider PushNotificationProvider

	workers      int
	queueTimeout time.Duration
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

type DispatchJob struct {
	Notification *notification.Notification
}

func NewNotificationDispatcher(db repository.DBTX, notifications repository.NotificationRepository, log *logger.Logger, workers, queueSize int) *NotificationDispatcher {
	if workers <= 0 {
		workers = 5
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	d := &NotificationDispatcher{
		db:            db,
		notifications: notifications,
		log:           log.With("service", "notification_dispatcher"),
		workers:       workers,
		queueTimeout:  5 * time.Second,
		jobQueue:      make(chan *DispatchJob, queueSize),
		stopChan:      make(chan struct{}),
	}
	d.startWorkers()
	return d
}

// SetPushProvider installs the push backend, usually FCM. Without one,
// notifications stay in-app only.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushProvider = provider
}

func (d *NotificationDispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

func (d *NotificationDispatcher) provider() PushNotificationProvider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pushProvider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			d.drain()
			return
		}
	}
}

// drain finishes whatever is already queued when the dispatcher stops.
func (d *NotificationDispatcher) drain() {
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		default:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification
	provider := d.provider()

	if provider != nil {
		tokens, err := d.notifications.DeviceTokens(ctx, d.db, notif.UserID)
		if err != nil {
			d.log.Error("failed to load device tokens", "user_id", notif.UserID, "error", err)
			d.metrics.NotificationDispatched("failed")
			return
		}

		if len(tokens) > 0 {
			stale, err := provider.SendPush(ctx, tokens, notif.Title, notif.Message, d.pushData(notif))
			if len(stale) > 0 {
				if delErr := d.notifications.DeleteDevices(ctx, d.db, stale); delErr != nil {
					d.log.Warn("failed to delete stale device tokens", "user_id", notif.UserID, "count", len(stale), "error", delErr)
				}
			}
			if err != nil {
				d.log.Warn("push failed", "user_id", notif.UserID, "notification_id", notif.ID, "error", err)
				d.metrics.NotificationDispatched("failed")
				return
			}
		}
	}

	if err := d.notifications.MarkSent(ctx, d.db, notif.ID, utcNow()); err != nil {
		d.log.Error("failed to mark notification as sent", "notification_id", notif.ID, "error", err)
		d.metrics.NotificationDispatched("failed")
		return
	}
	d.metrics.NotificationDispatched("sent")
}

func (d *NotificationDispatcher) pushData(n *notification.Notification) map[string]any {
	data := make(map[string]any, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = v
	}
	data["notification_id"] = n.ID.String()
	data["type"] = string(n.Type)
	return data
}

// DispatchNotification queues notif. It gives up after the queue timeout or
// when ctx ends and reports whether the job was queued.
func (d *NotificationDispatcher) DispatchNotification(ctx context.Context, notif *notification.Notification) bool {
	job := &DispatchJob{Notification: notif}

	select {
	case <-d.stopChan:
		d.log.Warn("dispatcher stopped, notification not queued", "notification_id", notif.ID)
		d.metrics.NotificationDispatched("dropped")
		return false
	default:
	}

	timer := time.NewTimer(d.queueTimeout)
	defer timer.Stop()

	select {
	case d.jobQueue <- job:
		return true
	case <-ctx.Done():
		d.log.Warn("notification not queued", "notification_id", notif.ID, "error", ctx.Err())
	case <-timer.C:
		d.log.Warn("failed to queue notification: queue full", "notification_id", notif.ID)
	}
	d.metrics.NotificationDispatched("dropped")
	return false
}

// Stop lets the workers finish queued jobs and waits for them.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.log.Info("stopping notification dispatcher")
		close(d.stopChan)
		d.wg.Wait()
		d.log.Info("notification dispatcher stopped")
	})
}
