package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"luminoso-backend/internal/email"
	"luminoso-backend/internal/fcm"
	"luminoso-backend/internal/models"
)

// FunctionsHandler serves the notification functions called by the site
// and by operators. Requests are authorised by middleware.FunctionsAuth.
type FunctionsHandler struct {
	notifier Notifier
}

func NewFunctionsHandler(notifier Notifier) *FunctionsHandler {
	return &FunctionsHandler{notifier: notifier}
}

// SendOrderEmail godoc
// @Summary     Send the new order email
// @Tags        functions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.OrderNotification true "Order"
// @Success     200 {object} models.SendEmailResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     405 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /functions/v1/send-order-email [post]
func (h *FunctionsHandler) SendOrderEmail(c *gin.Context) {
	var req models.OrderNotification
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	id, err := h.notifier.SendOrderEmail(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		msg := "failed to send email"
		if errors.Is(err, email.ErrMissingAPIKey) {
			msg = "email provider is not configured"
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msg, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.SendEmailResponse{
		Success: true,
		EmailID: id,
		Message: "Email enviado com sucesso!",
	})
}

// SendPushNotification godoc
// @Summary     Send the new order push notification
// @Description Notifies every active admin token. Tokens the provider reports as gone are deactivated.
// @Tags        functions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.OrderNotification true "Order"
// @Success     200 {object} models.SendPushResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     405 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /functions/v1/send-push-notification [post]
func (h *FunctionsHandler) SendPushNotification(c *gin.Context) {
	var req models.OrderNotification
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	result, err := h.notifier.SendPush(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		msg := "failed to fetch admin tokens"
		if errors.Is(err, fcm.ErrMissingServerKey) {
			msg = "push provider is not configured"
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msg, Message: err.Error()})
		return
	}

	message := fmt.Sprintf("Notificações enviadas para %d administradores", result.Sent)
	if result.Sent+result.Failed == 0 {
		message = "Nenhum administrador com notificações ativas"
	}

	c.JSON(http.StatusOK, models.SendPushResponse{
		Success:     true,
		Message:     message,
		SentCount:   result.Sent,
		FailedCount: result.Failed,
		Timestamp:   time.Now().UTC(),
	})
}
