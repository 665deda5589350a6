package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"luminoso-backend/internal/metrics"
	"luminoso-backend/internal/models"
)

type Store interface {
	ClaimDueNotifications(ctx context.Context, limit int, lease time.Duration) ([]models.Notification, error)
	MarkNotificationSent(ctx context.Context, id uuid.UUID) error
	RescheduleNotification(ctx context.Context, id uuid.UUID, lastError string, next time.Time) error
	MarkNotificationFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

type Deliverer interface {
	Deliver(ctx context.Context, n models.Notification) error
}

type Config struct {
	Schedule    string
	BatchSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// Lease hides a claimed row from other dispatchers while it is in flight.
	Lease time.Duration
}

// Dispatcher drains the notification outbox on a cron schedule and on
// demand. Runs never overlap within a process.
type Dispatcher struct {
	store     Store
	deliverer Deliverer
	cfg       Config
	cron      *cron.Cron
	kick      chan struct{}
	running   sync.Mutex
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewDispatcher(store Store, deliverer Deliverer, cfg Config, log logrus.FieldLogger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 5 * time.Second
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = cfg.BaseBackoff
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 2 * time.Minute
	}

	cronLog := cron.PrintfLogger(log)
	return &Dispatcher{
		store:     store,
		deliverer: deliverer,
		cfg:       cfg,
		cron:      cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		kick:      make(chan struct{}, 1),
		log:       log,
		now:       time.Now,
	}
}

// Backoff returns the wait before retry number attempt: base doubled per
// earlier attempt, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	wait := base
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= max {
			return max
		}
	}
	if wait > max {
		return max
	}
	return wait
}

// Start schedules runs until ctx is cancelled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) error {
	if _, err := d.cron.AddFunc(d.cfg.Schedule, func() { d.runLogged(ctx) }); err != nil {
		return fmt.Errorf("invalid outbox schedule %q: %w", d.cfg.Schedule, err)
	}
	d.cron.Start()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.kick:
				d.runLogged(ctx)
			}
		}
	}()

	d.log.WithField("schedule", d.cfg.Schedule).Info("outbox dispatcher started")
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (d *Dispatcher) Stop() {
	<-d.cron.Stop().Done()
}

// Kick requests a run soon. Kicks coalesce while one is pending.
func (d *Dispatcher) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) runLogged(ctx context.Context) {
	if _, err := d.RunOnce(ctx); err != nil {
		d.log.WithError(err).Error("outbox run failed")
	}
}

// RunOnce delivers one batch of due notifications and returns how many it
// handled. It returns immediately when another run is in progress.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	if !d.running.TryLock() {
		return 0, nil
	}
	defer d.running.Unlock()

	claimed, err := d.store.ClaimDueNotifications(ctx, d.cfg.BatchSize, d.cfg.Lease)
	if err != nil {
		return 0, err
	}

	for _, n := range claimed {
		d.handle(ctx, n)
	}
	return len(claimed), nil
}

func (d *Dispatcher) handle(ctx context.Context, n models.Notification) {
	entry := d.log.WithFields(logrus.Fields{
		"outbox_id": n.ID,
		"order_id":  n.OrderID,
		"kind":      n.Kind,
		"attempt":   n.Attempts,
	})

	deliveryErr := d.deliverer.Deliver(ctx, n)
	if deliveryErr == nil {
		if err := d.store.MarkNotificationSent(ctx, n.ID); err != nil {
			entry.WithError(err).Error("failed to mark notification sent")
			return
		}
		metrics.NotificationDelivered(string(n.Kind), "sent")
		entry.Info("notification delivered")
		return
	}

	if n.Attempts >= d.cfg.MaxAttempts {
		if err := d.store.MarkNotificationFailed(ctx, n.ID, deliveryErr.Error()); err != nil {
			entry.WithError(err).Error("failed to mark notification failed")
			return
		}
		metrics.NotificationDelivered(string(n.Kind), "failed")
		entry.WithError(deliveryErr).Error("notification gave up after max attempts")
		return
	}

	next := d.now().Add(Backoff(n.Attempts, d.cfg.BaseBackoff, d.cfg.MaxBackoff))
	if err := d.store.RescheduleNotification(ctx, n.ID, deliveryErr.Error(), next); err != nil {
		entry.WithError(err).Error("failed to reschedule notification")
		return
	}
	metrics.NotificationDelivered(string(n.Kind), "retry")
	entry.WithError(deliveryErr).WithField("next_attempt_at", next).Warn("notification delivery failed, will retry")
}
