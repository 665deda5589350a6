package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"luminoso-backend/internal/models"
	"luminoso-backend/internal/services"
)

const maxImageSize = 20 << 20

type GalleryHandler struct {
	gallery GalleryManager
}

func NewGalleryHandler(gallery GalleryManager) *GalleryHandler {
	return &GalleryHandler{gallery: gallery}
}

func galleryList(items []models.GalleryItem) models.GalleryListResponse {
	resp := models.GalleryListResponse{Items: make([]models.GalleryItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, models.NewGalleryItemResponse(item))
	}
	return resp
}

// ListPublic godoc
// @Summary     Public gallery
// @Description Lists gallery items newest first, optionally for one category.
// @Tags        public
// @Produce     json
// @Param       category query string false "Category filter"
// @Success     200 {object} models.GalleryListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/gallery [get]
func (h *GalleryHandler) ListPublic(c *gin.Context) {
	items, err := h.gallery.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, galleryList(items))
}

// ListAdmin godoc
// @Summary     Gallery for the admin panel
// @Description Same listing as the public gallery without caching.
// @Tags        gallery
// @Produce     json
// @Security    Bearer
// @Param       category query string false "Category filter"
// @Success     200 {object} models.GalleryListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/admin/gallery [get]
func (h *GalleryHandler) ListAdmin(c *gin.Context) {
	items, err := h.gallery.ListFresh(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, galleryList(items))
}

// Upload godoc
// @Summary     Upload a gallery image
// @Description Stores the image in the gallery bucket and records it with its public URL.
// @Tags        gallery
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       image formData file true "Image file"
// @Param       title formData string true "Title"
// @Param       description formData string false "Description"
// @Param       category formData string false "Category (defaults to Trabalhos Realizados)"
// @Success     201 {object} models.GalleryItemResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/admin/gallery [post]
func (h *GalleryHandler) Upload(c *gin.Context) {
	var req models.CreateGalleryItemRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	in := services.GalleryUpload{CreateGalleryItemRequest: req}

	fh, err := c.FormFile("image")
	if err == nil {
		if fh.Size > maxImageSize {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:  "validation failed",
				Fields: map[string]string{"image": "must be at most 20 MiB"},
			})
			return
		}

		file, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()

		in.FileName = fh.Filename
		in.Data = file
	}

	item, err := h.gallery.Upload(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewGalleryItemResponse(*item))
}

// Delete godoc
// @Summary     Delete a gallery item
// @Description Deletes the row and then the stored image. Deleting a missing item succeeds.
// @Tags        gallery
// @Security    Bearer
// @Param       id path string true "Gallery item ID (UUID)"
// @Success     204
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/admin/gallery/{id} [delete]
func (h *GalleryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.gallery.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
