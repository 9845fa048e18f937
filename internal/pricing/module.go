// Package pricing provides the price resolution bounded context module.
package pricing

import (
	apphttp "erp_pricing_backend/internal/http"
	"erp_pricing_backend/internal/pricing/handler"
	"erp_pricing_backend/internal/pricing/service"
	"erp_pricing_backend/platform/config"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/validator"
)

// Module is the pricing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the pricing module.
func NewModule(catalog service.CatalogReader, cfg config.PricingConfig, val *validator.Validator, log *logger.Logger) *Module {
	engine := service.NewEngine(cfg.GetCostMarginDivisor(), cfg.GetTierDefaults())
	svc := service.New(catalog, engine, cfg.GetPricingWorkers(), log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pricing"
}

// Service returns the service layer for cross-module adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts pricing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/pricing/products/:id", m.handler.ResolvePrice)
	ctx.Protected.POST("/pricing/resolve", m.handler.ResolvePrices)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
