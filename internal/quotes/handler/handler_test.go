package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"erp_pricing_backend/internal/quotes/repository"
	"erp_pricing_backend/internal/quotes/service"
	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/lock"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubOrders struct {
	lines int
}

func (s *stubOrders) CreateOrder(context.Context, repository.OrderHeader) (int64, error) {
	return 500, nil
}

func (s *stubOrders) CreateOrderLine(context.Context, int64, repository.OrderLine) (int64, error) {
	s.lines++
	return int64(600 + s.lines), nil
}

func (s *stubOrders) ListOrderLineIDs(context.Context, int64) ([]int64, error) { return nil, nil }
func (s *stubOrders) DeleteOrderLine(context.Context, int64) (bool, error)   { return true, nil }

func (s *stubOrders) ReadOrderTotals(context.Context, int64) (repository.Totals, error) {
	return repository.Totals{Subtotal: 100, Tax: 16, Total: 116}, nil
}

func (s *stubOrders) GetOrder(_ context.Context, id int64) (repository.Order, error) {
	if id != 500 {
		return repository.Order{}, apperr.NotFound("quotation not found")
	}
	return repository.Order{ID: 500, PricelistID: 1, State: repository.StateDraft}, nil
}

type stubCatalog struct{}

func (stubCatalog) FindProducts(_ context.Context, ids []int64) ([]service.Product, error) {
	out := make([]service.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, service.Product{ID: id, Name: "Product"})
	}
	return out, nil
}

func (stubCatalog) PartnerExists(context.Context, int64) error { return nil }

func (stubCatalog) FindTaxID(context.Context, float64, string) (*int64, error) { return nil, nil }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(&stubOrders{}, stubCatalog{}, lock.NewLocalLocker(), service.Options{}, logger.Discard())
	h := New(svc, validator.New())

	engine := gin.New()
	h.RegisterRoutes(engine.Group("/quotations"))
	return engine
}

func do(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCreateReturnsCreated(t *testing.T) {
	rec := do(newTestRouter(), http.MethodPost, "/quotations", `{
		"partnerId": 5,
		"pricelistId": 1,
		"lines": [
			{"kind": "note", "description": "Bedroom"},
			{"kind": "product", "productId": 10, "quantity": 1, "unitPrice": 100}
		]
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"total":116`) {
		t.Fatalf("expected totals in body, got %s", rec.Body.String())
	}
}

func TestCreateRejectsUnknownLineKind(t *testing.T) {
	rec := do(newTestRouter(), http.MethodPost, "/quotations", `{
		"partnerId": 5,
		"pricelistId": 1,
		"lines": [{"kind": "section", "description": "x"}]
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReplaceLinesUnknownQuotationIs404(t *testing.T) {
	rec := do(newTestRouter(), http.MethodPut, "/quotations/77/lines", `{"lines": []}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTotalsRejectsBadID(t *testing.T) {
	rec := do(newTestRouter(), http.MethodGet, "/quotations/abc/totals", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
