package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"luminoso-backend/internal/metrics"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/supabase"
	"luminoso-backend/internal/validator"
)

const galleryCacheTTL = 5 * time.Minute

type GalleryUpload struct {
	models.CreateGalleryItemRequest
	FileName string
	Data     io.Reader
}

type GalleryService struct {
	store    GalleryStore
	objects  ObjectStore
	events   Publisher
	validate *validator.Validator
	cache    *cache.Cache
	log      logrus.FieldLogger
	now      clock
}

func NewGalleryService(store GalleryStore, objects ObjectStore, events Publisher, log logrus.FieldLogger) *GalleryService {
	return &GalleryService{
		store:    store,
		objects:  objects,
		events:   events,
		validate: validator.New(),
		cache:    cache.New(galleryCacheTTL, 2*galleryCacheTTL),
		log:      log,
		now:      time.Now,
	}
}

func galleryCacheKey(category string) string {
	return "gallery:" + category
}

// List serves the public gallery, newest first, from cache when possible.
func (s *GalleryService) List(ctx context.Context, category string) ([]models.GalleryItem, error) {
	key := galleryCacheKey(category)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.GalleryItem), nil
	}

	items, err := s.store.ListGalleryItems(ctx, category)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, items, cache.DefaultExpiration)
	return items, nil
}

// ListFresh bypasses the cache for the admin panel.
func (s *GalleryService) ListFresh(ctx context.Context, category string) ([]models.GalleryItem, error) {
	return s.store.ListGalleryItems(ctx, category)
}

// Upload stores the image and records it. When the row cannot be inserted the
// uploaded object is removed again.
func (s *GalleryService) Upload(ctx context.Context, in GalleryUpload) (*models.GalleryItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)

	if err := s.validate.Struct(in.CreateGalleryItemRequest); err != nil {
		return nil, err
	}
	if in.Data == nil {
		return nil, &validator.ValidationError{Fields: map[string]string{"image": "is required"}}
	}

	data, err := io.ReadAll(in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrInvalidImage, mtype.String())
	}

	fileName := in.FileName
	if path.Ext(fileName) == "" {
		fileName += mtype.Extension()
	}
	storagePath := supabase.ObjectName(fileName, s.now())

	publicURL, err := s.objects.Upload(storagePath, mtype.String(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	category := in.Category
	if category == "" {
		category = models.DefaultGalleryCategory
	}

	item := &models.GalleryItem{
		Title:       in.Title,
		Description: sql.NullString{String: in.Description, Valid: in.Description != ""},
		ImageURL:    publicURL,
		StoragePath: storagePath,
		Category:    sql.NullString{String: category, Valid: true},
	}

	if err := s.store.CreateGalleryItem(ctx, item); err != nil {
		if rmErr := s.objects.Remove(storagePath); rmErr != nil {
			s.log.WithError(rmErr).WithField("storage_path", storagePath).Warn("failed to remove orphaned gallery image")
		}
		return nil, err
	}

	s.cache.Flush()
	s.events.PublishChange(supabase.TableGalleryItems, supabase.EventInsert, item.ID,
		supabase.GalleryItemPayload(item.Title, item.ImageURL))
	metrics.GalleryUploaded()

	s.log.WithFields(logrus.Fields{
		"item_id":      item.ID,
		"storage_path": storagePath,
	}).Info("gallery item uploaded")

	return item, nil
}

// Delete removes the row, then the stored image. Deleting an item that is
// already gone succeeds.
func (s *GalleryService) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.store.GetGalleryItem(ctx, id)
	if errors.Is(err, supabase.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteGalleryItem(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}

	if err := s.objects.Remove(item.StoragePath); err != nil {
		s.log.WithError(err).WithField("item_id", id).Warn("failed to remove gallery image from storage")
	}

	s.cache.Flush()
	s.events.PublishChange(supabase.TableGalleryItems, supabase.EventDelete, id, nil)
	s.log.WithField("item_id", id).Info("gallery item deleted")

	return nil
}
