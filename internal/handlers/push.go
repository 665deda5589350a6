package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"luminoso-backend/internal/models"
)

type PushHandler struct {
	push PushManager
}

func NewPushHandler(push PushManager) *PushHandler {
	return &PushHandler{push: push}
}

// Register godoc
// @Summary     Report the browser's push permission
// @Description previous is the permission this browser reported before (default when empty).
// @Description granted stores the token as the single active admin token (idempotent),
// @Description denied or default deactivate the given token, unsupported stores nothing.
// @Tags        push
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.PushRegisterRequest true "Token and permission"
// @Success     200 {object} models.PushStatusResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/admin/push/register [post]
func (h *PushHandler) Register(c *gin.Context) {
	var req models.PushRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	state, err := h.push.Register(c.Request.Context(), req.Token, req.Previous, req.Permission)
	if err != nil {
		respondError(c, err)
		return
	}

	status, err := h.push.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	// The browser's own permission, not the stored registration.
	status.State = string(state)
	c.JSON(http.StatusOK, status)
}

// Unregister godoc
// @Summary     Opt out of push notifications
// @Tags        push
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.PushUnregisterRequest true "Token to deactivate"
// @Success     200 {object} models.PushStatusResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/admin/push/unregister [post]
func (h *PushHandler) Unregister(c *gin.Context) {
	var req models.PushUnregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.push.Unregister(c.Request.Context(), req.Token); err != nil {
		respondError(c, err)
		return
	}

	h.status(c)
}

// Status godoc
// @Summary     Push registration status
// @Tags        push
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.PushStatusResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/admin/push/status [get]
func (h *PushHandler) Status(c *gin.Context) {
	h.status(c)
}

func (h *PushHandler) status(c *gin.Context) {
	status, err := h.push.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
