package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"luminoso-backend/internal/handlers"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/push"
	"luminoso-backend/internal/services"
)

func newPushRouter(p *mockPush) *gin.Engine {
	h := handlers.NewPushHandler(p)
	router := gin.New()
	router.POST("/push/register", h.Register)
	router.POST("/push/unregister", h.Unregister)
	router.GET("/push/status", h.Status)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestPushRegister(t *testing.T) {
	token := strings.Repeat("a", 40)

	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"granted", `{"token":"` + token + `","permission":"granted"}`, nil, http.StatusOK},
		{"bad permission", `{"token":"x","permission":"maybe"}`, services.ErrInvalidPermission, http.StatusBadRequest},
		{"bad token", `{"token":"x","permission":"granted"}`, push.ErrInvalidToken, http.StatusBadRequest},
		{"illegal move", `{"previous":"granted","permission":"requesting"}`, push.ErrInvalidTransition, http.StatusConflict},
		{"missing permission", `{"token":"x"}`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := new(mockPush)
			p.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(push.StateGranted, tt.err)
			p.On("Status", mock.Anything).Return(models.PushStatusResponse{State: "granted", Active: true}, nil)

			w := postJSON(newPushRouter(p), "/push/register", tt.body)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"state":"granted","active":true}`, w.Body.String())
			}
		})
	}
}

func TestPushRegister_ReportsBrowserPermission(t *testing.T) {
	p := new(mockPush)
	p.On("Register", mock.Anything, "tok", "granted", "denied").Return(push.StateDenied, nil).Once()
	p.On("Status", mock.Anything).Return(models.PushStatusResponse{State: "default"}, nil)

	w := postJSON(newPushRouter(p), "/push/register", `{"token":"tok","previous":"granted","permission":"denied"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"denied","active":false}`, w.Body.String())
	p.AssertExpectations(t)
}

func TestPushUnregister(t *testing.T) {
	p := new(mockPush)
	p.On("Unregister", mock.Anything, "tok").Return(nil)
	p.On("Status", mock.Anything).Return(models.PushStatusResponse{State: "default"}, nil)

	w := postJSON(newPushRouter(p), "/push/unregister", `{"token":"tok"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"default","active":false}`, w.Body.String())
	p.AssertExpectations(t)
}

func TestPushStatus_Error(t *testing.T) {
	p := new(mockPush)
	p.On("Status", mock.Anything).Return(models.PushStatusResponse{}, assert.AnError)

	w := httptest.NewRecorder()
	newPushRouter(p).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/push/status", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
