package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/services"
)

type OrdersHandler struct {
	orders OrderManager
}

func NewOrdersHandler(orders OrderManager) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// CreateOrder godoc
// @Summary     Submit an order
// @Description Public order form. Required fields are checked before any file is stored.
// @Description The shop is notified by email and push in the background.
// @Tags        public
// @Accept      multipart/form-data
// @Produce     json
// @Param       service formData string true "Service from the catalogue"
// @Param       name formData string true "Customer name"
// @Param       email formData string true "Customer email"
// @Param       phone formData string true "Customer phone / WhatsApp"
// @Param       description formData string true "What the customer needs"
// @Param       files formData file false "Attachments (up to 10, 20 MiB each)"
// @Success     201 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/orders [post]
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid order form",
			Message: err.Error(),
		})
		return
	}

	var attachments []services.OrderAttachment
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["files"] {
			fh := fh
			attachments = append(attachments, services.OrderAttachment{
				Name: fh.Filename,
				Size: fh.Size,
				Open: func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
	}

	order, err := h.orders.Submit(c.Request.Context(), req, attachments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewOrderResponse(*order))
}

// ListOrders godoc
// @Summary     List orders
// @Description Lists orders newest first, optionally filtered by status.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       status query string false "new, read, in_progress, done or cancelled"
// @Success     200 {object} models.OrderListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/admin/orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.OrderListResponse{Orders: make([]models.OrderResponse, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, models.NewOrderResponse(o))
	}
	c.JSON(http.StatusOK, resp)
}

// GetOrder godoc
// @Summary     Get an order
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/admin/orders/{id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(*order))
}

// AdvanceOrder godoc
// @Summary     Advance an order
// @Description Moves the order to the next status: new, read, in_progress, done.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /api/v1/admin/orders/{id}/advance [post]
func (h *OrdersHandler) AdvanceOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Advance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(*order))
}

// UpdateOrderStatus godoc
// @Summary     Set an order's status
// @Description Only forward moves, or cancelling an unfinished order, are accepted.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID (UUID)"
// @Param       request body models.UpdateOrderStatusRequest true "Target status"
// @Success     200 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /api/v1/admin/orders/{id}/status [patch]
func (h *OrdersHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	order, err := h.orders.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(*order))
}

// DeleteOrder godoc
// @Summary     Delete a finished order
// @Description Deletes an order in status done together with its attachments.
// @Tags        orders
// @Security    Bearer
// @Param       id path string true "Order ID (UUID)"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /api/v1/admin/orders/{id} [delete]
func (h *OrdersHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadFile godoc
// @Summary     Download an order attachment
// @Tags        orders
// @Produce     octet-stream
// @Security    Bearer
// @Param       id path string true "Order ID (UUID)"
// @Param       index path int true "Attachment position"
// @Success     200 {file} binary
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/admin/orders/{id}/files/{index} [get]
func (h *OrdersHandler) DownloadFile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid index"})
		return
	}

	file, data, err := h.orders.DownloadFile(c.Request.Context(), id, index)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
