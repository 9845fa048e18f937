package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"erp_pricing_backend/internal/media/service"
	"erp_pricing_backend/internal/media/transport"
	"erp_pricing_backend/platform/httpkit"
	"erp_pricing_backend/platform/validator"
)

// Handler handles HTTP requests for product imagery.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new media handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ImportImages stores a batch of base64 images.
// POST /api/v1/media/images/import
func (h *Handler) ImportImages(c *gin.Context) {
	var req transport.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Import(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListImages lists images of one kind.
// GET /api/v1/media/images?kind=
func (h *Handler) ListImages(c *gin.Context) {
	var req transport.ListImagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req.Kind)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetImage serves an image, optionally resized.
// GET /api/v1/media/images/:kind/:name?size=thumb|medium|original
func (h *Handler) GetImage(c *gin.Context) {
	var req transport.GetImageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	img, err := h.svc.Get(c.Request.Context(), c.Param("name"), c.Param("kind"), req.Size)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// ExtractProductImage copies a product's ERP image into the image store.
// POST /api/v1/media/products/:id/extract
func (h *Handler) ExtractProductImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid product id", nil)
		return
	}

	var req transport.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ExtractFromProduct(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
