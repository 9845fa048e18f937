// Package catalog provides the catalog bounded context module.
package catalog

import (
	"erp_pricing_backend/internal/catalog/handler"
	"erp_pricing_backend/internal/catalog/repository"
	"erp_pricing_backend/internal/catalog/service"
	apphttp "erp_pricing_backend/internal/http"
	"erp_pricing_backend/platform/config"
	"erp_pricing_backend/platform/erp"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module. A nil redis client
// disables the product cache.
func NewModule(caller erp.Caller, redisClient redis.UniversalClient, cfg config.CacheConfig, val *validator.Validator, log *logger.Logger) *Module {
	var repo repository.Repository = repository.NewERP(caller)
	if redisClient != nil {
		repo = repository.NewCached(repo, redisClient, cfg.GetCatalogCacheTTL(), log)
		log.Info("catalog product cache enabled", "ttl", cfg.GetCatalogCacheTTL())
	}

	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/catalog/products", m.handler.ListProducts)
	ctx.Protected.GET("/catalog/products/:id", m.handler.GetProduct)
	ctx.Protected.GET("/catalog/products/:id/pricing-rules", m.handler.ListPricingRules)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
