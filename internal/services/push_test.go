package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/push"
	"luminoso-backend/internal/services"
	"luminoso-backend/internal/supabase"
)

var browserToken = "fcm:" + strings.Repeat("AbC123_-", 20)

func newPushService(t *testing.T) (*services.PushService, *mockTokenStore, *mockPublisher) {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	tokens, events := &mockTokenStore{}, &mockPublisher{}
	t.Cleanup(func() {
		tokens.AssertExpectations(t)
		events.AssertExpectations(t)
	})
	return services.NewPushService(tokens, events, log), tokens, events
}

func TestRegister_GrantedTwiceLeavesOneActiveToken(t *testing.T) {
	svc, tokens, events := newPushService(t)
	record := &models.FCMToken{ID: uuid.New(), Token: browserToken, IsActive: true}

	tokens.On("UpsertAdminToken", mock.Anything, browserToken).Return(record, nil).Twice()
	events.On("PublishChange", supabase.TableFCMTokens, supabase.EventUpdate, record.ID, mock.Anything).Twice()

	state, err := svc.Register(context.Background(), browserToken, "requesting", "granted")
	require.NoError(t, err)
	assert.Equal(t, push.StateGranted, state)

	state, err = svc.Register(context.Background(), browserToken, "granted", "granted")
	require.NoError(t, err)
	assert.Equal(t, push.StateGranted, state)
}

func TestRegister_RejectsFabricatedToken(t *testing.T) {
	svc, _, _ := newPushService(t)

	state, err := svc.Register(context.Background(), "forced-token-123", "requesting", "granted")

	assert.ErrorIs(t, err, push.ErrInvalidToken)
	assert.Equal(t, push.StateRequesting, state)
}

func TestRegister_DeniedDeactivatesToken(t *testing.T) {
	svc, tokens, _ := newPushService(t)

	tokens.On("DeactivateToken", mock.Anything, browserToken).Return(true, nil).Once()

	state, err := svc.Register(context.Background(), browserToken, "granted", "denied")
	require.NoError(t, err)
	assert.Equal(t, push.StateDenied, state)
}

func TestRegister_UnsupportedStoresNothing(t *testing.T) {
	svc, _, _ := newPushService(t)

	state, err := svc.Register(context.Background(), "", "", "unsupported")
	require.NoError(t, err)
	assert.Equal(t, push.StateUnsupported, state)
}

func TestRegister_IllegalTransitionTouchesNothing(t *testing.T) {
	svc, _, _ := newPushService(t)

	state, err := svc.Register(context.Background(), browserToken, "granted", "requesting")
	assert.ErrorIs(t, err, push.ErrInvalidTransition)
	assert.Equal(t, push.StateGranted, state)
}

func TestRegister_SecondBrowserCanPromptWhileFirstIsGranted(t *testing.T) {
	svc, tokens, events := newPushService(t)
	record := &models.FCMToken{ID: uuid.New()}
	tokens.On("UpsertAdminToken", mock.Anything, browserToken).Return(record, nil).Once()
	events.On("PublishChange", mock.Anything, mock.Anything, record.ID, mock.Anything).Once()

	_, err := svc.Register(context.Background(), browserToken, "requesting", "granted")
	require.NoError(t, err)

	state, err := svc.Register(context.Background(), "", "default", "requesting")
	require.NoError(t, err)
	assert.Equal(t, push.StateRequesting, state)

	state, err = svc.Register(context.Background(), "", "", "requesting")
	require.NoError(t, err)
	assert.Equal(t, push.StateRequesting, state)
}

func TestRegister_UnknownPermission(t *testing.T) {
	svc, _, _ := newPushService(t)

	_, err := svc.Register(context.Background(), browserToken, "", "forced")
	assert.ErrorIs(t, err, services.ErrInvalidPermission)

	_, err = svc.Register(context.Background(), browserToken, "forced", "granted")
	assert.ErrorIs(t, err, services.ErrInvalidPermission)
}

func TestRegister_StoreErrorKeepsPreviousState(t *testing.T) {
	svc, tokens, _ := newPushService(t)
	tokens.On("UpsertAdminToken", mock.Anything, browserToken).Return(nil, errors.New("db down")).Once()

	state, err := svc.Register(context.Background(), browserToken, "requesting", "granted")
	assert.EqualError(t, err, "db down")
	assert.Equal(t, push.StateRequesting, state)
}

func TestRegister_ConcurrentBrowsers(t *testing.T) {
	svc, tokens, events := newPushService(t)
	record := &models.FCMToken{ID: uuid.New()}
	tokens.On("UpsertAdminToken", mock.Anything, browserToken).Return(record, nil)
	tokens.On("DeactivateToken", mock.Anything, browserToken).Return(true, nil)
	events.On("PublishChange", mock.Anything, mock.Anything, record.ID, mock.Anything)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), browserToken, "requesting", "granted")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), browserToken, "granted", "denied")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestUnregister_DeactivatesToken(t *testing.T) {
	svc, tokens, _ := newPushService(t)
	tokens.On("DeactivateToken", mock.Anything, browserToken).Return(true, nil).Once()

	require.NoError(t, svc.Unregister(context.Background(), browserToken))
}

func TestStatus_DerivedFromStoredTokens(t *testing.T) {
	svc, tokens, _ := newPushService(t)
	registered := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tokens.On("LatestActiveAdminToken", mock.Anything).Return(nil, supabase.ErrNotFound).Once()
	tokens.On("LatestActiveAdminToken", mock.Anything).Return(&models.FCMToken{UpdatedAt: registered}, nil).Once()

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default", status.State)
	assert.False(t, status.Active)
	assert.Nil(t, status.RegisteredAt)

	status, err = svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "granted", status.State)
	assert.True(t, status.Active)
	assert.Equal(t, registered, *status.RegisteredAt)
}
