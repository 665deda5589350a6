package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/worker"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) ClaimDueNotifications(ctx context.Context, limit int, lease time.Duration) ([]models.Notification, error) {
	args := m.Called(ctx, limit, lease)
	ns, _ := args.Get(0).([]models.Notification)
	return ns, args.Error(1)
}

func (m *mockStore) MarkNotificationSent(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) RescheduleNotification(ctx context.Context, id uuid.UUID, lastError string, next time.Time) error {
	return m.Called(ctx, id, lastError, next).Error(0)
}

func (m *mockStore) MarkNotificationFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return m.Called(ctx, id, lastError).Error(0)
}

type mockDeliverer struct{ mock.Mock }

func (m *mockDeliverer) Deliver(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func testConfig() worker.Config {
	return worker.Config{
		Schedule:    "@every 1h",
		BatchSize:   5,
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		MaxBackoff:  time.Minute,
		Lease:       time.Minute,
	}
}

func TestBackoff(t *testing.T) {
	base, max := 5*time.Second, time.Minute
	cases := map[int]time.Duration{
		0: 5 * time.Second,
		1: 5 * time.Second,
		2: 10 * time.Second,
		3: 20 * time.Second,
		4: 40 * time.Second,
		5: time.Minute,
		9: time.Minute,
	}
	for attempt, want := range cases {
		assert.Equal(t, want, worker.Backoff(attempt, base, max), "attempt %d", attempt)
	}
}

func TestRunOnce_MarksOutcomes(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store, deliverer := &mockStore{}, &mockDeliverer{}

	ok := models.Notification{ID: uuid.New(), Kind: models.NotificationEmail, Attempts: 1}
	retry := models.Notification{ID: uuid.New(), Kind: models.NotificationPush, Attempts: 2}
	exhausted := models.Notification{ID: uuid.New(), Kind: models.NotificationEmail, Attempts: 3}

	store.On("ClaimDueNotifications", mock.Anything, 5, time.Minute).
		Return([]models.Notification{ok, retry, exhausted}, nil).Once()
	deliverer.On("Deliver", mock.Anything, ok).Return(nil).Once()
	deliverer.On("Deliver", mock.Anything, retry).Return(errors.New("fcm 503")).Once()
	deliverer.On("Deliver", mock.Anything, exhausted).Return(errors.New("resend 500")).Once()

	store.On("MarkNotificationSent", mock.Anything, ok.ID).Return(nil).Once()
	store.On("RescheduleNotification", mock.Anything, retry.ID, "fcm 503", mock.MatchedBy(func(next time.Time) bool {
		wait := time.Until(next)
		return wait > time.Second && wait <= 2*time.Second
	})).Return(nil).Once()
	store.On("MarkNotificationFailed", mock.Anything, exhausted.ID, "resend 500").Return(nil).Once()

	d := worker.NewDispatcher(store, deliverer, testConfig(), log)
	n, err := d.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	store.AssertExpectations(t)
	deliverer.AssertExpectations(t)
}

func TestRunOnce_ClaimError(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store := &mockStore{}
	store.On("ClaimDueNotifications", mock.Anything, 5, time.Minute).Return(nil, errors.New("db down")).Once()

	d := worker.NewDispatcher(store, &mockDeliverer{}, testConfig(), log)
	_, err := d.RunOnce(context.Background())

	assert.EqualError(t, err, "db down")
}

func TestKick_TriggersRun(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store := &mockStore{}
	ran := make(chan struct{}, 4)
	store.On("ClaimDueNotifications", mock.Anything, 5, time.Minute).
		Run(func(mock.Arguments) { ran <- struct{}{} }).
		Return([]models.Notification{}, nil)

	d := worker.NewDispatcher(store, &mockDeliverer{}, testConfig(), log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))
	defer d.Stop()

	d.Kick()
	d.Kick()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("kick did not trigger a run")
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	cfg := testConfig()
	cfg.Schedule = "not a schedule"

	d := worker.NewDispatcher(&mockStore{}, &mockDeliverer{}, cfg, log)
	assert.Error(t, d.Start(context.Background()))
}
