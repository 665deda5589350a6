package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"luminoso-backend/internal/fcm"
	"luminoso-backend/internal/models"
)

// The interfaces below are satisfied by the supabase package clients.

type GalleryStore interface {
	ListGalleryItems(ctx context.Context, category string) ([]models.GalleryItem, error)
	GetGalleryItem(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error)
	CreateGalleryItem(ctx context.Context, item *models.GalleryItem) error
	DeleteGalleryItem(ctx context.Context, id uuid.UUID) (bool, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order, notifications []models.Notification) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (bool, error)
}

type TokenStore interface {
	UpsertAdminToken(ctx context.Context, token string) (*models.FCMToken, error)
	DeactivateToken(ctx context.Context, token string) (bool, error)
	LatestActiveAdminToken(ctx context.Context) (*models.FCMToken, error)
}

// TokenLister returns the tokens push notifications fan out to.
type TokenLister interface {
	ActiveAdminTokens(ctx context.Context) ([]string, error)
}

// ObjectStore is a storage bucket.
type ObjectStore interface {
	Upload(storagePath, contentType string, data io.Reader) (string, error)
	Remove(storagePaths ...string) error
	Download(storagePath string) ([]byte, error)
}

type Publisher interface {
	PublishChange(table, eventType string, id uuid.UUID, payload map[string]interface{})
}

type PushSender interface {
	Configured() bool
	Send(ctx context.Context, token string, msg fcm.Message) (string, error)
}

// Kicker asks the outbox dispatcher for an immediate run.
type Kicker interface {
	Kick()
}

type clock func() time.Time
