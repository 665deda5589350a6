package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"luminoso-backend/internal/metrics"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/supabase"
	"luminoso-backend/internal/validator"
)

const (
	MaxOrderFiles    = 10
	MaxOrderFileSize = 20 << 20
)

// OrderAttachment is one file part of the order form.
type OrderAttachment struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type OrderService struct {
	store    OrderStore
	objects  ObjectStore
	events   Publisher
	kicker   Kicker
	validate *validator.Validator
	log      logrus.FieldLogger
	now      clock
}

func NewOrderService(store OrderStore, objects ObjectStore, events Publisher, kicker Kicker, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		store:    store,
		objects:  objects,
		events:   events,
		kicker:   kicker,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

func (s *OrderService) validateSubmission(req *models.CreateOrderRequest, files []OrderAttachment) error {
	req.Service = strings.TrimSpace(req.Service)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Description = strings.TrimSpace(req.Description)

	err := s.validate.Struct(*req)

	var verr *validator.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return err
	}
	if verr == nil {
		verr = &validator.ValidationError{Fields: map[string]string{}}
	}

	if len(files) > MaxOrderFiles {
		verr.Fields["files"] = fmt.Sprintf("at most %d files are accepted", MaxOrderFiles)
	}
	for _, f := range files {
		if f.Size > MaxOrderFileSize {
			verr.Fields["files"] = fmt.Sprintf("%s is larger than %d MiB", f.Name, MaxOrderFileSize>>20)
			break
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Submit validates the form before touching storage, uploads the
// attachments and stores the order together with its email and push
// deliveries. Uploaded files are removed again if the order is not stored.
func (s *OrderService) Submit(ctx context.Context, req models.CreateOrderRequest, files []OrderAttachment) (*models.Order, error) {
	if err := s.validateSubmission(&req, files); err != nil {
		return nil, err
	}

	uploaded := make([]string, 0, len(files))
	cleanup := func() {
		if len(uploaded) == 0 {
			return
		}
		if err := s.objects.Remove(uploaded...); err != nil {
			s.log.WithError(err).WithField("paths", uploaded).Warn("failed to remove order attachments")
		}
	}

	orderFiles := make(models.OrderFiles, 0, len(files))
	for _, f := range files {
		file, err := s.uploadAttachment(f)
		if err != nil {
			cleanup()
			return nil, err
		}
		uploaded = append(uploaded, file.Path)
		orderFiles = append(orderFiles, file)
	}

	order := &models.Order{
		Service:     req.Service,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Description: req.Description,
		Files:       orderFiles,
	}

	payload, err := json.Marshal(models.OrderNotification{
		Service:     order.Service,
		Name:        order.Name,
		Email:       order.Email,
		Phone:       order.Phone,
		Description: order.Description,
		Files:       orderFiles,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to encode notification: %w", err)
	}

	notifications := []models.Notification{
		{Kind: models.NotificationEmail, Payload: payload},
		{Kind: models.NotificationPush, Payload: payload},
	}

	if err := s.store.CreateOrder(ctx, order, notifications); err != nil {
		cleanup()
		return nil, err
	}

	s.events.PublishChange(supabase.TableOrders, supabase.EventInsert, order.ID, nil)
	metrics.OrderSubmitted()
	if s.kicker != nil {
		s.kicker.Kick()
	}

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"service":  order.Service,
		"files":    len(orderFiles),
	}).Info("order submitted")

	return order, nil
}

func (s *OrderService) uploadAttachment(f OrderAttachment) (models.OrderFile, error) {
	rc, err := f.Open()
	if err != nil {
		return models.OrderFile{}, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxOrderFileSize+1))
	if err != nil {
		return models.OrderFile{}, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if len(data) > MaxOrderFileSize {
		return models.OrderFile{}, &validator.ValidationError{Fields: map[string]string{
			"files": fmt.Sprintf("%s is larger than %d MiB", f.Name, MaxOrderFileSize>>20),
		}}
	}

	storagePath := supabase.ObjectName(f.Name, s.now())
	publicURL, err := s.objects.Upload(storagePath, mimetype.Detect(data).String(), bytes.NewReader(data))
	if err != nil {
		return models.OrderFile{}, err
	}

	return models.OrderFile{Name: f.Name, URL: publicURL, Path: storagePath}, nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, supabase.ErrNotFound) {
		return nil, ErrNotFound
	}
	return order, err
}

// List returns orders newest first, optionally only those in one status.
func (s *OrderService) List(ctx context.Context, status string) ([]models.Order, error) {
	var filter models.OrderStatus
	if status != "" {
		st, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		filter = st
	}
	return s.store.ListOrders(ctx, filter)
}

// Advance moves the order one step along new, read, in_progress, done.
func (s *OrderService) Advance(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := order.Status.Next()
	if !ok {
		return nil, fmt.Errorf("%w: %s is final", ErrInvalidTransition, order.Status)
	}
	return s.transition(ctx, order, next)
}

// SetStatus applies a forward move or a cancellation.
func (s *OrderService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	target, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}
	return s.transition(ctx, order, target)
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, to models.OrderStatus) (*models.Order, error) {
	from := order.Status
	applied, err := s.store.UpdateOrderStatus(ctx, order.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Changed or deleted concurrently.
		return nil, fmt.Errorf("%w: order is no longer %s", ErrInvalidTransition, from)
	}

	order.Status = to
	order.UpdatedAt = s.now()
	s.events.PublishChange(supabase.TableOrders, supabase.EventUpdate, order.ID,
		supabase.OrderStatusPayload(string(from), string(to)))

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     from,
		"to":       to,
	}).Info("order status updated")

	return order, nil
}

// Delete removes a finished order and, best-effort, its attachments.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusDone {
		return ErrOrderNotDeletable
	}

	deleted, err := s.store.DeleteOrder(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrOrderNotDeletable
	}

	paths := make([]string, 0, len(order.Files))
	for _, f := range order.Files {
		if f.Path != "" {
			paths = append(paths, f.Path)
		}
	}
	if len(paths) > 0 {
		if err := s.objects.Remove(paths...); err != nil {
			s.log.WithError(err).WithField("order_id", id).Warn("failed to remove order attachments")
		}
	}

	s.events.PublishChange(supabase.TableOrders, supabase.EventDelete, id, nil)
	s.log.WithField("order_id", id).Info("order deleted")

	return nil
}

// DownloadFile returns the attachment at index.
func (s *OrderService) DownloadFile(ctx context.Context, id uuid.UUID, index int) (models.OrderFile, []byte, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return models.OrderFile{}, nil, err
	}
	if index < 0 || index >= len(order.Files) {
		return models.OrderFile{}, nil, ErrNotFound
	}

	file := order.Files[index]
	if file.Path == "" {
		return models.OrderFile{}, nil, ErrNotFound
	}

	data, err := s.objects.Download(file.Path)
	if err != nil {
		return models.OrderFile{}, nil, err
	}
	return file, data, nil
}
