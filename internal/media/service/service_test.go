package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"erp_pricing_backend/internal/adapters/storage"
	"erp_pricing_backend/internal/media/repository"
	"erp_pricing_backend/internal/media/transport"
	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/logger"
)

type memoryStore struct {
	rows      []repository.Image
	importErr error
}

func (m *memoryStore) Import(_ context.Context, kind string, images []repository.NewImage) (int, error) {
	if m.importErr != nil {
		return 0, m.importErr
	}
	for _, img := range images {
		m.rows = append(m.rows, repository.Image{
			ID:        int64(len(m.rows) + 1),
			Name:      img.Name,
			Kind:      kind,
			Data:      img.Data,
			CreatedAt: time.Now(),
		})
	}
	return len(images), nil
}

func (m *memoryStore) List(_ context.Context, kind string) ([]repository.ImageSummary, error) {
	out := make([]repository.ImageSummary, 0)
	for _, row := range m.rows {
		if row.Kind == kind {
			out = append(out, repository.ImageSummary{ID: row.ID, Name: row.Name, Kind: row.Kind, CreatedAt: row.CreatedAt})
		}
	}
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, name, kind string) (repository.Image, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].Name == name && m.rows[i].Kind == kind {
			return m.rows[i], nil
		}
	}
	return repository.Image{}, apperr.NotFound("image not found")
}

type memoryObjects struct {
	objects map[string][]byte
	gets    int
}

func (m *memoryObjects) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.gets++
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryObjects) PutObject(_ context.Context, bucket, key, _ string, data []byte) error {
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memoryObjects) DeleteObject(_ context.Context, bucket, key string) error {
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memoryObjects) EnsureBucketExists(context.Context, string) error { return nil }
func (m *memoryObjects) ValidateContentType(string) error                { return nil }
func (m *memoryObjects) ValidateFileSize(int64) error                    { return nil }

type fakeProducts struct {
	images map[int64]string
}

func (f fakeProducts) ReadProductImage(_ context.Context, id int64) (string, error) {
	img, ok := f.images[id]
	if !ok {
		return "", apperr.NotFound("product not found")
	}
	return img, nil
}

func TestImportTrimsNamesAndStripsDataURI(t *testing.T) {
	store := &memoryStore{}
	svc := New(store, fakeProducts{}, logger.Discard())
	payload := base64.StdEncoding.EncodeToString(encodePNG(t, 4, 4))

	result, err := svc.Import(context.Background(), transport.ImportRequest{
		Kind: " sheer ",
		Items: []transport.ImportItem{
			{Name: "  Linen white ", Image: "data:image/png;base64," + payload},
			{Name: "Linen grey", Image: payload},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 2 || result.Kind != "sheer" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if store.rows[0].Name != "Linen white" || store.rows[0].Data != payload {
		t.Fatalf("unexpected stored row: %+v", store.rows[0].Name)
	}
}

func TestImportRejectsInvalidBase64BeforeWriting(t *testing.T) {
	store := &memoryStore{}
	svc := New(store, fakeProducts{}, logger.Discard())

	_, err := svc.Import(context.Background(), transport.ImportRequest{
		Kind:  "sheer",
		Items: []transport.ImportItem{{Name: "a", Image: "%%%"}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatal("nothing should be written")
	}
}

func TestImportStoreFailureIsInternal(t *testing.T) {
	svc := New(&memoryStore{importErr: errors.New("connection refused")}, fakeProducts{}, logger.Discard())

	_, err := svc.Import(context.Background(), transport.ImportRequest{
		Kind:  "sheer",
		Items: []transport.ImportItem{{Name: "a", Image: "aGk="}},
	})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestGetCachesVariants(t *testing.T) {
	store := &memoryStore{}
	objects := &memoryObjects{objects: map[string][]byte{}}
	svc := New(store, fakeProducts{}, logger.Discard())
	svc.SetVariantCache(objects, "variants")

	payload := base64.StdEncoding.EncodeToString(encodePNG(t, 900, 900))
	if _, err := store.Import(context.Background(), "blackout", []repository.NewImage{{Name: "night", Data: payload}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	first, err := svc.Get(context.Background(), "night", "blackout", SizeThumb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ContentType != "image/jpeg" {
		t.Fatalf("expected jpeg, got %s", first.ContentType)
	}
	if _, ok := objects.objects["variants/product_image_1_thumb.jpg"]; !ok {
		t.Fatal("expected variant to be cached")
	}

	objects.objects["variants/product_image_1_thumb.jpg"] = []byte("cached")
	second, err := svc.Get(context.Background(), "night", "blackout", SizeThumb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(second.Data) != "cached" {
		t.Fatal("expected cached variant to be served")
	}
}

func TestGetOriginalDetectsContentType(t *testing.T) {
	store := &memoryStore{}
	svc := New(store, fakeProducts{}, logger.Discard())
	payload := base64.StdEncoding.EncodeToString(encodePNG(t, 4, 4))
	_, _ = store.Import(context.Background(), "sheer", []repository.NewImage{{Name: "a", Data: payload}})

	img, err := svc.Get(context.Background(), "a", "sheer", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %s", img.ContentType)
	}
}

func TestGetMissingImageIsNotFound(t *testing.T) {
	svc := New(&memoryStore{}, fakeProducts{}, logger.Discard())

	if _, err := svc.Get(context.Background(), "nope", "sheer", SizeThumb); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExtractFromProductDefaultsNameToID(t *testing.T) {
	store := &memoryStore{}
	svc := New(store, fakeProducts{images: map[int64]string{42: "aGk="}}, logger.Discard())

	result, err := svc.ExtractFromProduct(context.Background(), 42, transport.ExtractRequest{Kind: "catalog"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "42" || len(store.rows) != 1 || store.rows[0].Kind != "catalog" {
		t.Fatalf("unexpected extract result: %+v", result)
	}

	if _, err := svc.ExtractFromProduct(context.Background(), 7, transport.ExtractRequest{Kind: "catalog"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}
