package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"erp_pricing_backend/internal/quotes/service"
	"erp_pricing_backend/internal/quotes/transport"
	"erp_pricing_backend/platform/httpkit"
	"erp_pricing_backend/platform/validator"
)

// Handler handles HTTP requests for quotations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid quotation id"
)

// New creates a new quotes handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers quotation routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.PUT("/:id/lines", h.ReplaceLines)
	rg.GET("/:id/totals", h.Totals)
}

// Create creates a quotation with its lines.
// POST /api/v1/quotations
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ReplaceLines replaces every line of a quotation.
// PUT /api/v1/quotations/:id/lines
func (h *Handler) ReplaceLines(c *gin.Context) {
	id, ok := parseQuotationID(c)
	if !ok {
		return
	}

	var req transport.ReplaceLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ReplaceLines(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Totals returns the ERP-computed totals of a quotation.
// GET /api/v1/quotations/:id/totals
func (h *Handler) Totals(c *gin.Context) {
	id, ok := parseQuotationID(c)
	if !ok {
		return
	}

	result, err := h.svc.Totals(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseQuotationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return 0, false
	}
	return id, true
}
