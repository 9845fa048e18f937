package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"erp_pricing_backend/internal/pricing/service"
	"erp_pricing_backend/internal/pricing/transport"
	"erp_pricing_backend/platform/httpkit"
	"erp_pricing_backend/platform/validator"
)

// Handler handles HTTP requests for price resolution.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid product id"
)

// New creates a new pricing handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ResolvePrice resolves one product's price.
// GET /api/v1/pricing/products/:id?pricelistId=
func (h *Handler) ResolvePrice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.ResolvePriceQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Resolve(c.Request.Context(), id, req.PricelistID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(result))
}

// ResolvePrices resolves several products for one pricelist.
// POST /api/v1/pricing/resolve
func (h *Handler) ResolvePrices(c *gin.Context) {
	var req transport.ResolvePricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	results, err := h.svc.ResolveMany(c.Request.Context(), req.ProductIDs, req.PricelistID)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.ResolvedPriceResponse, len(results))
	for i, result := range results {
		items[i] = toResponse(result)
	}
	httpkit.OK(c, transport.ResolvedPriceListResponse{Items: items})
}

func toResponse(r service.ResolvedPrice) transport.ResolvedPriceResponse {
	return transport.ResolvedPriceResponse{
		ProductID:   r.ProductID,
		PricelistID: r.TierID,
		Price:       r.Price.InexactFloat64(),
		Trace: transport.PriceTraceResponse{
			BaseSource:      r.Trace.BaseSource,
			BasePrice:       r.Trace.BasePrice.Round(4).InexactFloat64(),
			ListPrice:       r.Trace.ListPrice.InexactFloat64(),
			StandardPrice:   optionalFloat(r.Trace.StandardPrice),
			DirectFromCost:  optionalFloat(r.Trace.DirectFromCost),
			TierID:          r.Trace.TierID,
			RuleApplied:     r.Trace.RuleApplied,
			AppliedField:    r.Trace.AppliedField,
			RuleID:          r.Trace.RuleID,
			ComputePrice:    r.Trace.ComputePrice,
			DiscountPercent: optionalFloat(r.Trace.DiscountPercent),
		},
	}
}

func optionalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.Round(4).InexactFloat64()
	return &v
}
