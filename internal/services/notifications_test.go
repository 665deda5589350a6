package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"luminoso-backend/internal/email"
	"luminoso-backend/internal/fcm"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/services"
)

type notificationFixture struct {
	svc    *services.NotificationService
	mailer *mockMailer
	lister *mockTokenLister
	tokens *mockTokenStore
	sender *mockPushSender
}

func newNotificationService(t *testing.T) notificationFixture {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	f := notificationFixture{
		mailer: &mockMailer{},
		lister: &mockTokenLister{},
		tokens: &mockTokenStore{},
		sender: &mockPushSender{},
	}
	f.svc = services.NewNotificationService(f.mailer, f.lister, f.tokens, f.sender, services.NotificationConfig{
		From:     "Rascunho Luminoso <onboarding@resend.dev>",
		To:       "shop@example.com",
		PushIcon: "/logo.png",
	}, log)
	t.Cleanup(func() {
		f.mailer.AssertExpectations(t)
		f.lister.AssertExpectations(t)
		f.tokens.AssertExpectations(t)
		f.sender.AssertExpectations(t)
	})
	return f
}

func orderNotification() models.OrderNotification {
	return models.OrderNotification{
		OrderID: uuid.NewString(), Service: "Encadernações", Name: "Rui",
		Email: "rui@example.com", Phone: "9", Description: "Capa dura",
	}
}

func TestSendOrderEmail(t *testing.T) {
	f := newNotificationService(t)

	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.Subject == "🎨 Novo Pedido: Encadernações - Rui" && m.To[0] == "shop@example.com"
	})).Return("email-1", nil).Once()

	id, err := f.svc.SendOrderEmail(context.Background(), orderNotification())
	require.NoError(t, err)
	assert.Equal(t, "email-1", id)
}

func TestPushMessage_FixedPayload(t *testing.T) {
	f := newNotificationService(t)
	n := orderNotification()

	msg := f.svc.PushMessage(n)

	assert.Equal(t, "Novo pedido recebido", msg.Notification.Title)
	assert.Equal(t, "Você recebeu um novo pedido no site da Rascunho Luminoso.", msg.Notification.Body)
	assert.Equal(t, "/logo.png", msg.Notification.Icon)
	assert.Equal(t, "/logo.png", msg.Notification.Badge)
	assert.Equal(t, "new-order", msg.Notification.Tag)
	assert.True(t, msg.Notification.RequireInteraction)
	assert.Equal(t, "/admin", msg.Notification.ClickAction)
	assert.Equal(t, n.OrderID, msg.Data["orderId"])
	assert.Equal(t, "Rui", msg.Data["customerName"])
	assert.Equal(t, "/admin", msg.Data["url"])
	assert.NotEmpty(t, msg.Data["timestamp"])
}

func TestSendPush_FanOutAndDeactivateStale(t *testing.T) {
	f := newNotificationService(t)

	f.lister.On("ActiveAdminTokens", mock.Anything).Return([]string{"good", "stale", "flaky"}, nil).Once()
	f.sender.On("Send", mock.Anything, "good", mock.Anything).Return("m-1", nil).Once()
	f.sender.On("Send", mock.Anything, "stale", mock.Anything).
		Return("", fmt.Errorf("%w: NotRegistered", fcm.ErrUnregistered)).Once()
	f.sender.On("Send", mock.Anything, "flaky", mock.Anything).Return("", errors.New("timeout")).Once()
	f.tokens.On("DeactivateToken", mock.Anything, "stale").Return(true, nil).Once()

	result, err := f.svc.SendPush(context.Background(), orderNotification())

	require.NoError(t, err)
	assert.Equal(t, services.PushResult{Sent: 1, Failed: 2}, result)
}

func TestSendPush_NoTokens(t *testing.T) {
	f := newNotificationService(t)
	f.lister.On("ActiveAdminTokens", mock.Anything).Return([]string{}, nil).Once()

	result, err := f.svc.SendPush(context.Background(), orderNotification())
	require.NoError(t, err)
	assert.Zero(t, result.Sent)
}

func TestDeliver_InjectsOrderID(t *testing.T) {
	f := newNotificationService(t)
	orderID := uuid.New()
	payload, _ := json.Marshal(models.OrderNotification{Service: "Flyers", Name: "Ana"})

	f.lister.On("ActiveAdminTokens", mock.Anything).Return([]string{"t"}, nil).Once()
	f.sender.On("Send", mock.Anything, "t", mock.MatchedBy(func(m fcm.Message) bool {
		return m.Data["orderId"] == orderID.String()
	})).Return("m", nil).Once()

	err := f.svc.Deliver(context.Background(), models.Notification{
		OrderID: orderID, Kind: models.NotificationPush, Payload: payload,
	})
	assert.NoError(t, err)
}

func TestDeliver_AllPushFailuresAskForRetry(t *testing.T) {
	f := newNotificationService(t)
	payload, _ := json.Marshal(orderNotification())

	f.lister.On("ActiveAdminTokens", mock.Anything).Return([]string{"t"}, nil).Once()
	f.sender.On("Send", mock.Anything, "t", mock.Anything).Return("", errors.New("503")).Once()

	err := f.svc.Deliver(context.Background(), models.Notification{
		OrderID: uuid.New(), Kind: models.NotificationPush, Payload: payload,
	})
	assert.Error(t, err)
}

func TestDeliver_EmailErrorPropagates(t *testing.T) {
	f := newNotificationService(t)
	payload, _ := json.Marshal(orderNotification())

	f.mailer.On("Send", mock.Anything, mock.Anything).Return("", email.ErrMissingAPIKey).Once()

	err := f.svc.Deliver(context.Background(), models.Notification{
		OrderID: uuid.New(), Kind: models.NotificationEmail, Payload: payload,
	})
	assert.ErrorIs(t, err, email.ErrMissingAPIKey)
}

func TestDeliver_UnknownKind(t *testing.T) {
	f := newNotificationService(t)

	err := f.svc.Deliver(context.Background(), models.Notification{Kind: "sms", Payload: []byte(`{}`)})
	assert.Error(t, err)
}

func TestSendPush_MissingServerKeyFailsCall(t *testing.T) {
	f := newNotificationService(t)
	f.lister.On("ActiveAdminTokens", mock.Anything).Return([]string{"a", "b"}, nil).Once()
	f.sender.On("Send", mock.Anything, "a", mock.Anything).Return("", fcm.ErrMissingServerKey).Once()

	_, err := f.svc.SendPush(context.Background(), orderNotification())
	assert.ErrorIs(t, err, fcm.ErrMissingServerKey)
}

func TestSendPush_MissingServerKeyWithoutTokens(t *testing.T) {
	f := newNotificationService(t)
	f.sender.missingKey = true

	result, err := f.svc.SendPush(context.Background(), orderNotification())
	assert.ErrorIs(t, err, fcm.ErrMissingServerKey)
	assert.Zero(t, result)
	// The key is checked before any token lookup.
	f.lister.AssertNotCalled(t, "ActiveAdminTokens", mock.Anything)
}
