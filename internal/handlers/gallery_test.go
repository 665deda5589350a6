package handlers_test

import (
	"bytes"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"luminoso-backend/internal/handlers"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/services"
	"luminoso-backend/internal/validator"
)

func newGalleryRouter(g *mockGallery) *gin.Engine {
	h := handlers.NewGalleryHandler(g)
	router := gin.New()
	router.GET("/gallery", h.ListPublic)
	router.GET("/admin/gallery", h.ListAdmin)
	router.POST("/admin/gallery", h.Upload)
	router.DELETE("/admin/gallery/:id", h.Delete)
	return router
}

func multipartBody(t *testing.T, fields map[string]string, fileField string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, data := range files {
		part, err := w.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestGalleryListPublic(t *testing.T) {
	g := new(mockGallery)
	g.On("List", mock.Anything, "Flyers").Return([]models.GalleryItem{{
		ID:        uuid.New(),
		Title:     "Flyer",
		ImageURL:  "https://x/public/a.png",
		Category:  sql.NullString{String: "Flyers", Valid: true},
		CreatedAt: time.Now(),
	}}, nil)

	w := httptest.NewRecorder()
	newGalleryRouter(g).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gallery?category=Flyers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Flyer"`)
	assert.NotContains(t, w.Body.String(), "storage_path")
	g.AssertExpectations(t)
}

func TestGalleryListAdminBypassesCache(t *testing.T) {
	g := new(mockGallery)
	g.On("ListFresh", mock.Anything, "").Return([]models.GalleryItem{}, nil)

	w := httptest.NewRecorder()
	newGalleryRouter(g).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/gallery", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
	g.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGalleryUpload(t *testing.T) {
	g := new(mockGallery)
	id := uuid.New()
	g.On("Upload", mock.Anything, mock.MatchedBy(func(in services.GalleryUpload) bool {
		return in.Title == "Logo" && in.FileName == "logo.png" && in.Data != nil
	})).Return(&models.GalleryItem{ID: id, Title: "Logo", ImageURL: "https://x/public/1-logo.png"}, nil)

	body, contentType := multipartBody(t,
		map[string]string{"title": "Logo", "category": "Identidade Visual"},
		"image", map[string][]byte{"logo.png": []byte("\x89PNG\r\n\x1a\n")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/gallery", body)
	req.Header.Set("Content-Type", contentType)
	newGalleryRouter(g).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
	g.AssertExpectations(t)
}

func TestGalleryUploadValidationError(t *testing.T) {
	g := new(mockGallery)
	g.On("Upload", mock.Anything, mock.Anything).Return(nil, &validator.ValidationError{
		Fields: map[string]string{"title": "is required", "image": "is required"},
	})

	body, contentType := multipartBody(t, map[string]string{}, "image", nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/gallery", body)
	req.Header.Set("Content-Type", contentType)
	newGalleryRouter(g).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"image":"is required"`)
}

func TestGalleryDelete(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"deleted", "/admin/gallery/" + uuid.NewString(), nil, http.StatusNoContent},
		{"store failure", "/admin/gallery/" + uuid.NewString(), assert.AnError, http.StatusInternalServerError},
		{"bad id", "/admin/gallery/not-a-uuid", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := new(mockGallery)
			g.On("Delete", mock.Anything, mock.Anything).Return(tt.err)

			w := httptest.NewRecorder()
			newGalleryRouter(g).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
