package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"luminoso-backend/internal/models"
)

// Services godoc
// @Summary     Service catalogue
// @Description Lists the services offered in the order form.
// @Tags        public
// @Produce     json
// @Success     200 {object} models.ServicesResponse
// @Router      /api/v1/services [get]
func Services(c *gin.Context) {
	c.JSON(http.StatusOK, models.ServicesResponse{Services: models.Services})
}
