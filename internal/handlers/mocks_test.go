package handlers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/push"
	"luminoso-backend/internal/services"
	"luminoso-backend/internal/supabase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockGallery struct{ mock.Mock }

func (m *mockGallery) List(ctx context.Context, category string) ([]models.GalleryItem, error) {
	args := m.Called(ctx, category)
	items, _ := args.Get(0).([]models.GalleryItem)
	return items, args.Error(1)
}

func (m *mockGallery) ListFresh(ctx context.Context, category string) ([]models.GalleryItem, error) {
	args := m.Called(ctx, category)
	items, _ := args.Get(0).([]models.GalleryItem)
	return items, args.Error(1)
}

func (m *mockGallery) Upload(ctx context.Context, in services.GalleryUpload) (*models.GalleryItem, error) {
	args := m.Called(ctx, in)
	item, _ := args.Get(0).(*models.GalleryItem)
	return item, args.Error(1)
}

func (m *mockGallery) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) Submit(ctx context.Context, req models.CreateOrderRequest, files []services.OrderAttachment) (*models.Order, error) {
	args := m.Called(ctx, req, files)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) List(ctx context.Context, status string) ([]models.Order, error) {
	args := m.Called(ctx, status)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Advance(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	args := m.Called(ctx, id, status)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrders) DownloadFile(ctx context.Context, id uuid.UUID, index int) (models.OrderFile, []byte, error) {
	args := m.Called(ctx, id, index)
	data, _ := args.Get(1).([]byte)
	return args.Get(0).(models.OrderFile), data, args.Error(2)
}

type mockPush struct{ mock.Mock }

func (m *mockPush) Register(ctx context.Context, token, previous, permission string) (push.State, error) {
	args := m.Called(ctx, token, previous, permission)
	return args.Get(0).(push.State), args.Error(1)
}

func (m *mockPush) Unregister(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockPush) Status(ctx context.Context) (models.PushStatusResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.PushStatusResponse), args.Error(1)
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Login(username, password string) (string, time.Time, error) {
	args := m.Called(username, password)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendOrderEmail(ctx context.Context, n models.OrderNotification) (string, error) {
	args := m.Called(ctx, n)
	return args.String(0), args.Error(1)
}

func (m *mockNotifier) SendPush(ctx context.Context, n models.OrderNotification) (services.PushResult, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(services.PushResult), args.Error(1)
}

type fakeFeed struct {
	events chan supabase.ChangeEvent
	closed chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		events: make(chan supabase.ChangeEvent, 4),
		closed: make(chan struct{}),
	}
}

func (f *fakeFeed) Subscribe() (<-chan supabase.ChangeEvent, func()) {
	return f.events, func() { close(f.closed) }
}
