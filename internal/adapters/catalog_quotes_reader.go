package adapters

import (
	"context"

	catrepo "erp_pricing_backend/internal/catalog/repository"
	quotesvc "erp_pricing_backend/internal/quotes/service"
)

// CatalogQuotesReader adapts the catalog repository for quotation assembly,
// satisfying quotesvc.CatalogReader.
type CatalogQuotesReader struct {
	repo catrepo.Repository
}

// NewCatalogQuotesReader creates a new catalog reader adapter for quotes.
func NewCatalogQuotesReader(repo catrepo.Repository) *CatalogQuotesReader {
	return &CatalogQuotesReader{repo: repo}
}

// FindProducts returns the quotation view of the products found.
func (a *CatalogQuotesReader) FindProducts(ctx context.Context, ids []int64) ([]quotesvc.Product, error) {
	products, err := a.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]quotesvc.Product, len(products))
	for i, p := range products {
		out[i] = quotesvc.Product{ID: p.ID, Name: p.Name, UomID: p.UomID}
	}
	return out, nil
}

// PartnerExists returns NotFound when the partner is unknown.
func (a *CatalogQuotesReader) PartnerExists(ctx context.Context, id int64) error {
	_, err := a.repo.FindPartner(ctx, id)
	return err
}

// FindTaxID returns the id of the first matching tax, or nil.
func (a *CatalogQuotesReader) FindTaxID(ctx context.Context, rate float64, usage string) (*int64, error) {
	tax, err := a.repo.FindTax(ctx, rate, usage)
	if err != nil || tax == nil {
		return nil, err
	}
	id := tax.ID
	return &id, nil
}

var _ quotesvc.CatalogReader = (*CatalogQuotesReader)(nil)
