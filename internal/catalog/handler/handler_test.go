package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"erp_pricing_backend/internal/catalog/repository"
	"erp_pricing_backend/internal/catalog/service"
	"erp_pricing_backend/internal/catalog/transport"
	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubRepo struct {
	listParams repository.ListProductsParams
}

func (s *stubRepo) FindProduct(_ context.Context, id int64) (repository.Product, error) {
	if id != 42 {
		return repository.Product{}, apperr.NotFound("product not found")
	}
	return repository.Product{ID: 42, Name: "Roller blind", ListPrice: 120.5}, nil
}

func (s *stubRepo) FindProducts(context.Context, []int64) ([]repository.Product, error) {
	return nil, nil
}

func (s *stubRepo) FindPricingRules(context.Context, int64, int64, *int64) ([]repository.PricingRule, error) {
	return []repository.PricingRule{{ID: 1, PricelistID: 2, ComputePrice: "percentage"}}, nil
}

func (s *stubRepo) FindTax(context.Context, float64, string) (*repository.TaxRef, error) {
	return nil, nil
}

func (s *stubRepo) FindPartner(context.Context, int64) (repository.Partner, error) {
	return repository.Partner{}, nil
}

func (s *stubRepo) ListProducts(_ context.Context, params repository.ListProductsParams) ([]repository.Product, int, error) {
	s.listParams = params
	return []repository.Product{{ID: 42, Name: "Roller blind"}}, 41, nil
}

func (s *stubRepo) ReadProductImage(context.Context, int64) (string, error) {
	return "", nil
}

func newTestRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(service.New(repo, logger.Discard()), validator.New())

	engine := gin.New()
	engine.GET("/catalog/products", h.ListProducts)
	engine.GET("/catalog/products/:id", h.GetProduct)
	engine.GET("/catalog/products/:id/pricing-rules", h.ListPricingRules)
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestListProductsPassesQuery(t *testing.T) {
	repo := &stubRepo{}
	rec := get(newTestRouter(repo), "/catalog/products?search=blind&page=3&pageSize=10")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body transport.ProductListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if repo.listParams.Search != "blind" || repo.listParams.Offset != 20 || repo.listParams.Limit != 10 {
		t.Fatalf("unexpected list params: %+v", repo.listParams)
	}
	if body.TotalPages != 5 || body.Page != 3 || len(body.Items) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestListProductsRejectsOversizedPage(t *testing.T) {
	rec := get(newTestRouter(&stubRepo{}), "/catalog/products?pageSize=101")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetProduct(t *testing.T) {
	engine := newTestRouter(&stubRepo{})

	if rec := get(engine, "/catalog/products/42"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := get(engine, "/catalog/products/7"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := get(engine, "/catalog/products/abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListPricingRulesRequiresPricelist(t *testing.T) {
	engine := newTestRouter(&stubRepo{})

	if rec := get(engine, "/catalog/products/42/pricing-rules"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without pricelistId, got %d", rec.Code)
	}

	rec := get(engine, "/catalog/products/42/pricing-rules?pricelistId=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body transport.PricingRuleListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.PricelistID != 2 || len(body.Items) != 1 || body.Items[0].ComputePrice != "percentage" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
