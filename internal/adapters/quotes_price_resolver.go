package adapters

import (
	"context"

	pricingsvc "erp_pricing_backend/internal/pricing/service"
	quotesvc "erp_pricing_backend/internal/quotes/service"
)

// PriceResolverAdapter lets quotation assembly price lines that arrive
// without a unit price. The quotation's pricelist is used as the tier.
type PriceResolverAdapter struct {
	pricing *pricingsvc.Service
}

// NewPriceResolverAdapter creates a new price resolver adapter.
func NewPriceResolverAdapter(pricing *pricingsvc.Service) *PriceResolverAdapter {
	return &PriceResolverAdapter{pricing: pricing}
}

// ResolveUnitPrices resolves every product for the pricelist and returns the
// rounded unit prices keyed by product id.
func (a *PriceResolverAdapter) ResolveUnitPrices(ctx context.Context, productIDs []int64, pricelistID int64) (map[int64]float64, error) {
	resolved, err := a.pricing.ResolveMany(ctx, productIDs, pricelistID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]float64, len(resolved))
	for _, r := range resolved {
		out[r.ProductID] = r.Price.InexactFloat64()
	}
	return out, nil
}

var _ quotesvc.PriceResolver = (*PriceResolverAdapter)(nil)
