package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"erp_pricing_backend/internal/media/repository"
	"erp_pricing_backend/internal/media/service"
	"erp_pricing_backend/internal/media/transport"
	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubStore struct {
	rows []repository.Image
}

func (s *stubStore) Import(_ context.Context, kind string, images []repository.NewImage) (int, error) {
	for _, img := range images {
		s.rows = append(s.rows, repository.Image{ID: int64(len(s.rows) + 1), Name: img.Name, Kind: kind, Data: img.Data})
	}
	return len(images), nil
}

func (s *stubStore) List(_ context.Context, kind string) ([]repository.ImageSummary, error) {
	out := make([]repository.ImageSummary, 0)
	for _, row := range s.rows {
		if row.Kind == kind {
			out = append(out, repository.ImageSummary{ID: row.ID, Name: row.Name, Kind: row.Kind})
		}
	}
	return out, nil
}

func (s *stubStore) Get(_ context.Context, name, kind string) (repository.Image, error) {
	for _, row := range s.rows {
		if row.Name == name && row.Kind == kind {
			return row, nil
		}
	}
	return repository.Image{}, apperr.NotFound("image not found")
}

type stubProducts struct{}

func (stubProducts) ReadProductImage(_ context.Context, id int64) (string, error) {
	if id != 42 {
		return "", apperr.NotFound("product has no image")
	}
	return base64.StdEncoding.EncodeToString([]byte("product image")), nil
}

func newTestRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(service.New(store, stubProducts{}, logger.Discard()), validator.New())

	router := gin.New()
	router.POST("/media/images/import", h.ImportImages)
	router.GET("/media/images", h.ListImages)
	router.GET("/media/images/:kind/:name", h.GetImage)
	router.POST("/media/products/:id/extract", h.ExtractProductImage)
	return router
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestImportThenListImages(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(store)
	payload := base64.StdEncoding.EncodeToString([]byte("blind"))

	rec := do(router, http.MethodPost, "/media/images/import",
		`{"kind": "catalog", "items": [{"name": " front ", "image": "data:image/png;base64,`+payload+`"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/media/images?kind=catalog", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body transport.ImageListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || body.Items[0].Name != "front" {
		t.Fatalf("unexpected list: %+v", body)
	}
}

func TestImportRejectsBadPayloads(t *testing.T) {
	router := newTestRouter(&stubStore{})

	tests := []string{
		`{"kind": "catalog", "items": []}`,
		`{"kind": "   ", "items": [{"name": "a", "image": "YQ=="}]}`,
		`{"kind": "catalog", "items": [{"name": "a", "image": "%%%"}]}`,
		`not json`,
	}
	for _, body := range tests {
		if rec := do(router, http.MethodPost, "/media/images/import", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestListImagesRequiresKind(t *testing.T) {
	if rec := do(newTestRouter(&stubStore{}), http.MethodGet, "/media/images", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetImageServesOriginal(t *testing.T) {
	store := &stubStore{rows: []repository.Image{
		{ID: 1, Name: "front", Kind: "catalog", Data: base64.StdEncoding.EncodeToString([]byte("plain bytes"))},
	}}
	router := newTestRouter(store)

	rec := do(router, http.MethodGet, "/media/images/catalog/front", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "plain bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Fatal("expected cache header")
	}

	if rec := do(router, http.MethodGet, "/media/images/catalog/front?size=huge", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown size, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/media/images/catalog/back", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestExtractProductImage(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(store)

	if rec := do(router, http.MethodPost, "/media/products/abc/extract", `{"kind": "catalog"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
	if rec := do(router, http.MethodPost, "/media/products/7/extract", `{"kind": "catalog"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for product without image, got %d", rec.Code)
	}

	rec := do(router, http.MethodPost, "/media/products/42/extract", `{"kind": "catalog"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body transport.ExtractResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Name != "42" || len(store.rows) != 1 {
		t.Fatalf("unexpected extract result %+v with %d rows", body, len(store.rows))
	}
}
