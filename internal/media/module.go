// Package media provides the product imagery module backed by the relational store.
package media

import (
	"erp_pricing_backend/internal/adapters/storage"
	apphttp "erp_pricing_backend/internal/http"
	"erp_pricing_backend/internal/media/handler"
	"erp_pricing_backend/internal/media/repository"
	"erp_pricing_backend/internal/media/service"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the media module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the media module. objects may be nil, which disables the
// variant cache.
func NewModule(pool *pgxpool.Pool, products service.ProductImageReader, objects storage.StorageService, bucket string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, products, log)
	if objects != nil {
		svc.SetVariantCache(objects, bucket)
	}

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "media"
}

// Service returns the media service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts media routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/media/images/import", m.handler.ImportImages)
	ctx.Protected.GET("/media/images", m.handler.ListImages)
	ctx.Protected.GET("/media/images/:kind/:name", m.handler.GetImage)
	ctx.Protected.POST("/media/products/:id/extract", m.handler.ExtractProductImage)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
