package service

import (
	"context"
	"sort"

	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// CatalogReader is the narrow view of the catalog the pricing service needs.
// Implemented by an adapter in internal/adapters over the catalog repository.
type CatalogReader interface {
	FindProduct(ctx context.Context, id int64) (Product, error)
	FindProducts(ctx context.Context, ids []int64) ([]Product, error)
	FindPricingRules(ctx context.Context, pricelistID, productID int64, templateID *int64) ([]Rule, error)
}

// Service resolves prices against live catalog data.
type Service struct {
	catalog CatalogReader
	engine  *Engine
	workers int
	log     *logger.Logger
}

// New creates a new pricing service. workers bounds the rule lookups
// ResolveMany runs at once.
func New(catalog CatalogReader, engine *Engine, workers int, log *logger.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{catalog: catalog, engine: engine, workers: workers, log: log}
}

// Resolve fetches a product and its rules for tierID and resolves its price.
func (s *Service) Resolve(ctx context.Context, productID, tierID int64) (ResolvedPrice, error) {
	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		return ResolvedPrice{}, err
	}
	return s.ResolveProduct(ctx, product, tierID)
}

// ResolveProduct resolves the price of an already loaded product.
func (s *Service) ResolveProduct(ctx context.Context, product Product, tierID int64) (ResolvedPrice, error) {
	rules, err := s.catalog.FindPricingRules(ctx, tierID, product.ID, product.TemplateID)
	if err != nil {
		return ResolvedPrice{}, err
	}
	return s.engine.Resolve(product, tierID, rules)
}

// ResolveMany resolves several products for one tier. Products are loaded in
// one call and rule lookups run in parallel. Results follow the input order,
// duplicates included. Any unknown id fails the whole call with NotFound.
func (s *Service) ResolveMany(ctx context.Context, productIDs []int64, tierID int64) ([]ResolvedPrice, error) {
	if len(productIDs) == 0 {
		return nil, apperr.Validation("at least one product id is required")
	}

	unique := make([]int64, 0, len(productIDs))
	seen := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	products, err := s.catalog.FindProducts(ctx, unique)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var missing []int64
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, apperr.NotFound("products not found").WithDetails(map[string]any{"productIds": missing})
	}

	resolved := make([]ResolvedPrice, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range unique {
		i, product := i, byID[id]
		g.Go(func() error {
			result, err := s.ResolveProduct(gctx, product, tierID)
			if err != nil {
				return err
			}
			resolved[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(unique))
	for i, id := range unique {
		index[id] = i
	}
	results := make([]ResolvedPrice, len(productIDs))
	for i, id := range productIDs {
		results[i] = resolved[index[id]]
	}

	s.log.Debug("prices resolved", "count", len(results), "tierId", tierID)
	return results, nil
}
