package adapters

import (
	"context"
	"testing"

	catrepo "erp_pricing_backend/internal/catalog/repository"
	"erp_pricing_backend/platform/apperr"
)

type fakeCatalogRepo struct {
	catrepo.Repository
	products map[int64]catrepo.Product
	rules    []catrepo.PricingRule
	tax      *catrepo.TaxRef
}

func (f *fakeCatalogRepo) FindProduct(_ context.Context, id int64) (catrepo.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catrepo.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

func (f *fakeCatalogRepo) FindProducts(_ context.Context, ids []int64) ([]catrepo.Product, error) {
	out := make([]catrepo.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) FindPricingRules(context.Context, int64, int64, *int64) ([]catrepo.PricingRule, error) {
	return f.rules, nil
}

func (f *fakeCatalogRepo) FindTax(context.Context, float64, string) (*catrepo.TaxRef, error) {
	return f.tax, nil
}

func (f *fakeCatalogRepo) FindPartner(_ context.Context, id int64) (catrepo.Partner, error) {
	if id != 5 {
		return catrepo.Partner{}, apperr.NotFound("partner not found")
	}
	return catrepo.Partner{ID: 5, Name: "Acme"}, nil
}

func TestCatalogPricingReaderMapsRules(t *testing.T) {
	fixed := 80.0
	repo := &fakeCatalogRepo{rules: []catrepo.PricingRule{{ID: 3, PricelistID: 2, FixedPrice: &fixed, ComputePrice: "fixed"}}}
	reader := NewCatalogPricingReader(repo)

	rules, err := reader.FindPricingRules(context.Background(), 2, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != 3 || rules[0].FixedPrice == nil || *rules[0].FixedPrice != 80 {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}

func TestCatalogPricingReaderKeepsNotFound(t *testing.T) {
	reader := NewCatalogPricingReader(&fakeCatalogRepo{products: map[int64]catrepo.Product{}})

	if _, err := reader.FindProduct(context.Background(), 1); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogQuotesReaderTaxAndPartner(t *testing.T) {
	repo := &fakeCatalogRepo{}
	reader := NewCatalogQuotesReader(repo)

	id, err := reader.FindTaxID(context.Background(), 16, "sale")
	if err != nil || id != nil {
		t.Fatalf("expected no tax, got %v (%v)", id, err)
	}

	repo.tax = &catrepo.TaxRef{ID: 9, Name: "IVA 16%", Amount: 16}
	id, err = reader.FindTaxID(context.Background(), 16, "sale")
	if err != nil || id == nil || *id != 9 {
		t.Fatalf("expected tax 9, got %v (%v)", id, err)
	}

	if err := reader.PartnerExists(context.Background(), 5); err != nil {
		t.Fatalf("expected partner 5 to exist: %v", err)
	}
	if err := reader.PartnerExists(context.Background(), 6); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
