package service

import (
	"context"
	"strings"

	"erp_pricing_backend/internal/catalog/repository"
	"erp_pricing_backend/internal/catalog/transport"
	"erp_pricing_backend/platform/logger"
)

// Service provides read-only catalog browsing over the ERP.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListProducts retrieves saleable products with search and pagination.
func (s *Service) ListProducts(ctx context.Context, req transport.ListProductsRequest) (transport.ProductListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := s.repo.ListProducts(ctx, repository.ListProductsParams{
		Search:   strings.TrimSpace(req.Search),
		Category: strings.TrimSpace(req.Category),
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	})
	if err != nil {
		return transport.ProductListResponse{}, err
	}

	responses := make([]transport.ProductResponse, len(items))
	for i, item := range items {
		responses[i] = toProductResponse(item)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return transport.ProductListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetProduct retrieves a product by ERP id.
func (s *Service) GetProduct(ctx context.Context, id int64) (transport.ProductResponse, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return transport.ProductResponse{}, err
	}
	return toProductResponse(product), nil
}

// ListPricingRules returns the raw pricelist items that apply to a product.
func (s *Service) ListPricingRules(ctx context.Context, productID, pricelistID int64) (transport.PricingRuleListResponse, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return transport.PricingRuleListResponse{}, err
	}

	rules, err := s.repo.FindPricingRules(ctx, pricelistID, product.ID, product.TemplateID)
	if err != nil {
		return transport.PricingRuleListResponse{}, err
	}

	items := make([]transport.PricingRuleResponse, len(rules))
	for i, rule := range rules {
		items[i] = transport.PricingRuleResponse{
			ID:            rule.ID,
			PricelistID:   rule.PricelistID,
			ProductID:     rule.ProductID,
			TemplateID:    rule.TemplateID,
			FixedPrice:    rule.FixedPrice,
			PercentPrice:  rule.PercentPrice,
			PriceDiscount: rule.PriceDiscount,
			ComputePrice:  rule.ComputePrice,
		}
	}

	return transport.PricingRuleListResponse{
		ProductID:   product.ID,
		PricelistID: pricelistID,
		Items:       items,
	}, nil
}

func toProductResponse(p repository.Product) transport.ProductResponse {
	return transport.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		DefaultCode:   p.DefaultCode,
		ListPrice:     p.ListPrice,
		StandardPrice: p.StandardPrice,
		TemplateID:    p.TemplateID,
		UomID:         p.UomID,
		CategoryName:  p.CategoryName,
	}
}
