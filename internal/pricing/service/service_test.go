package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/logger"
)

type fakeCatalog struct {
	products    map[int64]Product
	rules       map[int64][]Rule
	ruleErr     error
	findMany    int
	ruleCalls   atomic.Int32
	mu          sync.Mutex
	ruleTargets []int64
}

func (f *fakeCatalog) FindProduct(_ context.Context, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

func (f *fakeCatalog) FindProducts(_ context.Context, ids []int64) ([]Product, error) {
	f.findMany++
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindPricingRules(_ context.Context, _ int64, productID int64, _ *int64) ([]Rule, error) {
	f.ruleCalls.Add(1)
	f.mu.Lock()
	f.ruleTargets = append(f.ruleTargets, productID)
	f.mu.Unlock()
	if f.ruleErr != nil {
		return nil, f.ruleErr
	}
	return f.rules[productID], nil
}

func newTestService(catalog *fakeCatalog) *Service {
	return New(catalog, newTestEngine(), 4, logger.Discard())
}

func TestServiceResolveMissingProductIsNotFound(t *testing.T) {
	svc := newTestService(&fakeCatalog{products: map[int64]Product{}})

	_, err := svc.Resolve(context.Background(), 5, 2)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceResolveAppliesRule(t *testing.T) {
	catalog := &fakeCatalog{
		products: map[int64]Product{5: {ID: 5, ListPrice: 200}},
		rules:    map[int64][]Rule{5: {{ID: 1, PercentPrice: ptr(10)}}},
	}

	result, err := newTestService(catalog).Resolve(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPrice(t, result.Price, "180.00")
}

func TestServiceResolveManyKeepsInputOrder(t *testing.T) {
	catalog := &fakeCatalog{
		products: map[int64]Product{
			1: {ID: 1, ListPrice: 10},
			2: {ID: 2, ListPrice: 20},
			3: {ID: 3, ListPrice: 30},
		},
	}
	svc := newTestService(catalog)

	results, err := svc.ResolveMany(context.Background(), []int64{3, 1, 2, 1}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int64{3, 1, 2, 1}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, id := range want {
		if results[i].ProductID != id {
			t.Fatalf("position %d: expected product %d, got %d", i, id, results[i].ProductID)
		}
	}
	if catalog.findMany != 1 {
		t.Fatalf("expected one product fetch, got %d", catalog.findMany)
	}
	if got := catalog.ruleCalls.Load(); got != 3 {
		t.Fatalf("expected 3 rule lookups for 3 distinct products, got %d", got)
	}
}

func TestServiceResolveManyReportsMissingIDs(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]Product{1: {ID: 1, ListPrice: 10}}}

	_, err := newTestService(catalog).ResolveMany(context.Background(), []int64{1, 9, 7}, 1)
	domainErr, ok := apperr.As(err)
	if !ok || domainErr.Kind != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	details, _ := domainErr.Details.(map[string]any)
	missing, _ := details["productIds"].([]int64)
	if len(missing) != 2 || missing[0] != 7 || missing[1] != 9 {
		t.Fatalf("expected missing [7 9], got %v", details["productIds"])
	}
	if catalog.ruleCalls.Load() != 0 {
		t.Fatal("no rule lookups should run when products are missing")
	}
}

func TestServiceResolveManyRejectsEmptyInput(t *testing.T) {
	_, err := newTestService(&fakeCatalog{}).ResolveMany(context.Background(), nil, 1)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceResolveManyPropagatesUpstreamFailure(t *testing.T) {
	upstream := apperr.Upstream("erp call failed", errors.New("connection reset"))
	catalog := &fakeCatalog{
		products: map[int64]Product{1: {ID: 1, ListPrice: 10}, 2: {ID: 2, ListPrice: 20}},
		ruleErr:  upstream,
	}

	_, err := newTestService(catalog).ResolveMany(context.Background(), []int64{1, 2}, 1)
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
