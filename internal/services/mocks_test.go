package services_test

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"luminoso-backend/internal/email"
	"luminoso-backend/internal/fcm"
	"luminoso-backend/internal/models"
)

type mockGalleryStore struct{ mock.Mock }

func (m *mockGalleryStore) ListGalleryItems(ctx context.Context, category string) ([]models.GalleryItem, error) {
	args := m.Called(ctx, category)
	items, _ := args.Get(0).([]models.GalleryItem)
	return items, args.Error(1)
}

func (m *mockGalleryStore) GetGalleryItem(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.GalleryItem)
	return item, args.Error(1)
}

func (m *mockGalleryStore) CreateGalleryItem(ctx context.Context, item *models.GalleryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockGalleryStore) DeleteGalleryItem(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockOrderStore struct{ mock.Mock }

func (m *mockOrderStore) CreateOrder(ctx context.Context, order *models.Order, notifications []models.Notification) error {
	return m.Called(ctx, order, notifications).Error(0)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderStore) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	args := m.Called(ctx, status)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderStore) DeleteOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) UpsertAdminToken(ctx context.Context, token string) (*models.FCMToken, error) {
	args := m.Called(ctx, token)
	record, _ := args.Get(0).(*models.FCMToken)
	return record, args.Error(1)
}

func (m *mockTokenStore) DeactivateToken(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenStore) LatestActiveAdminToken(ctx context.Context) (*models.FCMToken, error) {
	args := m.Called(ctx)
	record, _ := args.Get(0).(*models.FCMToken)
	return record, args.Error(1)
}

type mockTokenLister struct{ mock.Mock }

func (m *mockTokenLister) ActiveAdminTokens(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	tokens, _ := args.Get(0).([]string)
	return tokens, args.Error(1)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Upload(storagePath, contentType string, data io.Reader) (string, error) {
	args := m.Called(storagePath, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) Remove(storagePaths ...string) error {
	return m.Called(storagePaths).Error(0)
}

func (m *mockObjectStore) Download(storagePath string) ([]byte, error) {
	args := m.Called(storagePath)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishChange(table, eventType string, id uuid.UUID, payload map[string]interface{}) {
	m.Called(table, eventType, id, payload)
}

type mockPushSender struct {
	mock.Mock
	missingKey bool
}

func (m *mockPushSender) Configured() bool { return !m.missingKey }

func (m *mockPushSender) Send(ctx context.Context, token string, msg fcm.Message) (string, error) {
	args := m.Called(ctx, token, msg)
	return args.String(0), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg email.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type countingKicker struct{ kicks int }

func (k *countingKicker) Kick() { k.kicks++ }
