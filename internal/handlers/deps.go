package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/push"
	"luminoso-backend/internal/services"
	"luminoso-backend/internal/supabase"
)

// Interfaces below are implemented by the services package.

type GalleryManager interface {
	List(ctx context.Context, category string) ([]models.GalleryItem, error)
	ListFresh(ctx context.Context, category string) ([]models.GalleryItem, error)
	Upload(ctx context.Context, in services.GalleryUpload) (*models.GalleryItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrderManager interface {
	Submit(ctx context.Context, req models.CreateOrderRequest, files []services.OrderAttachment) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, status string) ([]models.Order, error)
	Advance(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DownloadFile(ctx context.Context, id uuid.UUID, index int) (models.OrderFile, []byte, error)
}

type PushManager interface {
	Register(ctx context.Context, token, previous, permission string) (push.State, error)
	Unregister(ctx context.Context, token string) error
	Status(ctx context.Context) (models.PushStatusResponse, error)
}

type Authenticator interface {
	Login(username, password string) (string, time.Time, error)
}

type Notifier interface {
	SendOrderEmail(ctx context.Context, n models.OrderNotification) (string, error)
	SendPush(ctx context.Context, n models.OrderNotification) (services.PushResult, error)
}

type ChangeFeed interface {
	Subscribe() (<-chan supabase.ChangeEvent, func())
}
