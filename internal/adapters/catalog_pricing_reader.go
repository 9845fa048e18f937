package adapters

import (
	"context"

	catrepo "erp_pricing_backend/internal/catalog/repository"
	pricingsvc "erp_pricing_backend/internal/pricing/service"
)

// CatalogPricingReader adapts the catalog repository for the pricing domain,
// satisfying pricingsvc.CatalogReader.
type CatalogPricingReader struct {
	repo catrepo.Repository
}

// NewCatalogPricingReader creates a new catalog reader adapter.
func NewCatalogPricingReader(repo catrepo.Repository) *CatalogPricingReader {
	return &CatalogPricingReader{repo: repo}
}

// FindProduct returns the pricing view of one product.
func (a *CatalogPricingReader) FindProduct(ctx context.Context, id int64) (pricingsvc.Product, error) {
	p, err := a.repo.FindProduct(ctx, id)
	if err != nil {
		return pricingsvc.Product{}, err
	}
	return toPricingProduct(p), nil
}

// FindProducts returns the pricing view of the products found. Unknown ids
// are omitted.
func (a *CatalogPricingReader) FindProducts(ctx context.Context, ids []int64) ([]pricingsvc.Product, error) {
	products, err := a.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]pricingsvc.Product, len(products))
	for i, p := range products {
		out[i] = toPricingProduct(p)
	}
	return out, nil
}

// FindPricingRules returns the rules of a pricelist bound to the product or
// its template, in ERP order.
func (a *CatalogPricingReader) FindPricingRules(ctx context.Context, pricelistID, productID int64, templateID *int64) ([]pricingsvc.Rule, error) {
	rules, err := a.repo.FindPricingRules(ctx, pricelistID, productID, templateID)
	if err != nil {
		return nil, err
	}
	out := make([]pricingsvc.Rule, len(rules))
	for i, r := range rules {
		out[i] = pricingsvc.Rule{
			ID:            r.ID,
			FixedPrice:    r.FixedPrice,
			PercentPrice:  r.PercentPrice,
			PriceDiscount: r.PriceDiscount,
			ComputePrice:  r.ComputePrice,
		}
	}
	return out, nil
}

func toPricingProduct(p catrepo.Product) pricingsvc.Product {
	return pricingsvc.Product{
		ID:            p.ID,
		Name:          p.Name,
		ListPrice:     p.ListPrice,
		StandardPrice: p.StandardPrice,
		TemplateID:    p.TemplateID,
		UomID:         p.UomID,
	}
}

var _ pricingsvc.CatalogReader = (*CatalogPricingReader)(nil)
