// Package quotes provides the quotation assembly module.
package quotes

import (
	apphttp "erp_pricing_backend/internal/http"
	"erp_pricing_backend/internal/quotes/handler"
	"erp_pricing_backend/internal/quotes/repository"
	"erp_pricing_backend/internal/quotes/service"
	"erp_pricing_backend/platform/config"
	"erp_pricing_backend/platform/erp"
	"erp_pricing_backend/platform/lock"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/validator"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(caller erp.Caller, catalog service.CatalogReader, locker lock.Locker, cfg config.QuotesConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewERP(caller)
	svc := service.New(repo, catalog, locker, service.OptionsFromConfig(cfg), log)
	h := handler.New(svc, val)

	log.Info("quotes module ready", "lineReplaceMode", cfg.GetLineReplaceMode())
	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotations := ctx.Protected.Group("/quotations")
	m.handler.RegisterRoutes(quotations)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
