package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/push"
	"luminoso-backend/internal/supabase"
)

// PushService keeps the admin push registration in step with the permission
// each admin browser reports. A single admin token is active at a time, and
// the stored token set is the only server-side state.
type PushService struct {
	tokens TokenStore
	events Publisher
	// mu serialises registration writes within the process.
	mu  sync.Mutex
	log logrus.FieldLogger
}

func NewPushService(tokens TokenStore, events Publisher, log logrus.FieldLogger) *PushService {
	return &PushService{
		tokens: tokens,
		events: events,
		log:    log,
	}
}

// Register applies a permission change reported by one browser, from the
// permission it had before (default when empty) to the one it has now.
// Granted stores the token, denied or default drop it, and the other states
// store nothing. On error the previous state is returned.
func (s *PushService) Register(ctx context.Context, token, previous, permission string) (push.State, error) {
	next, err := push.ParseState(permission)
	if err != nil {
		return push.StateDefault, fmt.Errorf("%w: %v", ErrInvalidPermission, err)
	}

	from := push.StateDefault
	if previous != "" {
		if from, err = push.ParseState(previous); err != nil {
			return push.StateDefault, fmt.Errorf("%w: %v", ErrInvalidPermission, err)
		}
	}

	if _, err := push.Transition(from, next); err != nil {
		return from, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch next {
	case push.StateGranted:
		if _, err := s.EnsureRegistered(ctx, token); err != nil {
			return from, err
		}
	case push.StateDenied, push.StateDefault:
		if token != "" {
			if _, err := s.deactivate(ctx, token); err != nil {
				return from, err
			}
		}
	}

	return next, nil
}

// EnsureRegistered makes token the one active admin token. Calling it again
// with the same token changes nothing.
func (s *PushService) EnsureRegistered(ctx context.Context, token string) (*models.FCMToken, error) {
	if !push.ValidToken(token) {
		return nil, push.ErrInvalidToken
	}

	record, err := s.tokens.UpsertAdminToken(ctx, token)
	if err != nil {
		return nil, err
	}

	s.events.PublishChange(supabase.TableFCMTokens, supabase.EventUpdate, record.ID, nil)
	s.log.WithField("token_id", record.ID).Info("admin push token registered")

	return record, nil
}

// Unregister deactivates token, used on opt-out and logout.
func (s *PushService) Unregister(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.deactivate(ctx, token)
	return err
}

func (s *PushService) deactivate(ctx context.Context, token string) (bool, error) {
	deactivated, err := s.tokens.DeactivateToken(ctx, token)
	if err != nil {
		return false, err
	}
	if deactivated {
		s.log.Info("admin push token deactivated")
	}
	return deactivated, nil
}

// Status reports the stored admin registration.
func (s *PushService) Status(ctx context.Context) (models.PushStatusResponse, error) {
	resp := models.PushStatusResponse{State: string(push.StateDefault)}

	record, err := s.tokens.LatestActiveAdminToken(ctx)
	if errors.Is(err, supabase.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return resp, err
	}

	resp.State = string(push.StateGranted)
	resp.Active = true
	registeredAt := record.UpdatedAt
	resp.RegisteredAt = &registeredAt
	return resp, nil
}
