package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"luminoso-backend/internal/email"
	"luminoso-backend/internal/fcm"
	"luminoso-backend/internal/models"
)

const (
	pushTitle = "Novo pedido recebido"
	pushBody  = "Você recebeu um novo pedido no site da Rascunho Luminoso."
	pushTag   = "new-order"
	adminPath = "/admin"
)

type NotificationConfig struct {
	From     string
	To       string
	PushIcon string
}

type PushResult struct {
	Sent   int
	Failed int
}

// NotificationService sends the new order email and push notifications.
type NotificationService struct {
	mailer email.Sender
	lister TokenLister
	tokens TokenStore
	sender PushSender
	cfg    NotificationConfig
	log    logrus.FieldLogger
	now    clock
}

func NewNotificationService(mailer email.Sender, lister TokenLister, tokens TokenStore, sender PushSender, cfg NotificationConfig, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{
		mailer: mailer,
		lister: lister,
		tokens: tokens,
		sender: sender,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

func (s *NotificationService) SendOrderEmail(ctx context.Context, n models.OrderNotification) (string, error) {
	msg, err := email.NewOrderMessage(s.cfg.From, s.cfg.To, n)
	if err != nil {
		return "", err
	}

	id, err := s.mailer.Send(ctx, msg)
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": n.OrderID,
		"email_id": id,
	}).Info("order email sent")

	return id, nil
}

// PushMessage is the notification shown to the admin for a new order.
func (s *NotificationService) PushMessage(n models.OrderNotification) fcm.Message {
	return fcm.Message{
		Notification: fcm.Notification{
			Title:              pushTitle,
			Body:               pushBody,
			Icon:               s.cfg.PushIcon,
			Badge:              s.cfg.PushIcon,
			Tag:                pushTag,
			RequireInteraction: true,
			ClickAction:        adminPath,
		},
		Data: map[string]string{
			"orderId":      n.OrderID,
			"service":      n.Service,
			"customerName": n.Name,
			"timestamp":    s.now().UTC().Format(time.RFC3339),
			"url":          adminPath,
		},
	}
}

// SendPush notifies every active admin token. Tokens the provider no longer
// knows are deactivated. Per-token failures are counted, not returned.
func (s *NotificationService) SendPush(ctx context.Context, n models.OrderNotification) (PushResult, error) {
	var result PushResult

	if !s.sender.Configured() {
		return result, fcm.ErrMissingServerKey
	}

	tokens, err := s.lister.ActiveAdminTokens(ctx)
	if err != nil {
		return result, err
	}
	if len(tokens) == 0 {
		s.log.WithField("order_id", n.OrderID).Info("no active admin push tokens")
		return result, nil
	}

	msg := s.PushMessage(n)
	for _, token := range tokens {
		_, err := s.sender.Send(ctx, token, msg)
		if err == nil {
			result.Sent++
			continue
		}

		if errors.Is(err, fcm.ErrMissingServerKey) {
			return result, err
		}

		result.Failed++
		entry := s.log.WithError(err).WithField("order_id", n.OrderID)
		if errors.Is(err, fcm.ErrUnregistered) {
			if _, derr := s.tokens.DeactivateToken(ctx, token); derr != nil {
				entry.WithField("deactivate_error", derr).Warn("failed to deactivate stale push token")
			} else {
				entry.Info("stale push token deactivated")
			}
			continue
		}
		entry.Warn("push notification failed")
	}

	return result, nil
}

// Deliver sends one outbox notification. An error asks for a retry.
func (s *NotificationService) Deliver(ctx context.Context, n models.Notification) error {
	var payload models.OrderNotification
	if err := json.Unmarshal(n.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode notification payload: %w", err)
	}
	payload.OrderID = n.OrderID.String()

	switch n.Kind {
	case models.NotificationEmail:
		_, err := s.SendOrderEmail(ctx, payload)
		return err
	case models.NotificationPush:
		result, err := s.SendPush(ctx, payload)
		if err != nil {
			return err
		}
		if result.Sent == 0 && result.Failed > 0 {
			return fmt.Errorf("push failed for all %d tokens", result.Failed)
		}
		return nil
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
}
