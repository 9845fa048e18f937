package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"erp_pricing_backend/internal/adapters/storage"
	"erp_pricing_backend/internal/media/repository"
	"erp_pricing_backend/internal/media/transport"
	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/sanitize"
)

// ImageStore is the relational image table.
type ImageStore interface {
	Import(ctx context.Context, kind string, images []repository.NewImage) (int, error)
	List(ctx context.Context, kind string) ([]repository.ImageSummary, error)
	Get(ctx context.Context, name, kind string) (repository.Image, error)
}

// ProductImageReader reads a product's image from the ERP as base64.
type ProductImageReader interface {
	ReadProductImage(ctx context.Context, productID int64) (string, error)
}

// Image is a decoded image ready to serve.
type Image struct {
	Data        []byte
	ContentType string
}

type Service struct {
	store    ImageStore
	products ProductImageReader
	objects  storage.StorageService
	bucket   string
	log      *logger.Logger
}

func New(store ImageStore, products ProductImageReader, log *logger.Logger) *Service {
	return &Service{store: store, products: products, log: log}
}

// SetVariantCache enables caching resized variants in object storage.
func (s *Service) SetVariantCache(objects storage.StorageService, bucket string) {
	s.objects = objects
	s.bucket = bucket
}

// Import stores a batch of base64 images under one kind. Names are trimmed
// and every payload must decode before anything is written.
func (s *Service) Import(ctx context.Context, req transport.ImportRequest) (*transport.ImportResponse, error) {
	kind := strings.TrimSpace(req.Kind)
	images := make([]repository.NewImage, 0, len(req.Items))
	for i, item := range req.Items {
		payload := stripDataURI(item.Image)
		if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
			return nil, apperr.Validation("image is not valid base64").WithDetails(map[string]any{"item": i})
		}
		name := sanitize.Name(item.Name)
		if name == "" {
			return nil, apperr.Validation("image name is required").WithDetails(map[string]any{"item": i})
		}
		images = append(images, repository.NewImage{Name: name, Data: payload})
	}

	count, err := s.store.Import(ctx, kind, images)
	if err != nil {
		s.log.DatabaseError("import images", err)
		return nil, apperr.Wrap(apperr.KindInternal, "import images", err)
	}

	s.log.Info("images imported", "kind", kind, "count", count)
	return &transport.ImportResponse{Kind: kind, Imported: count}, nil
}

// List returns the images stored under a kind.
func (s *Service) List(ctx context.Context, kind string) (*transport.ImageListResponse, error) {
	items, err := s.store.List(ctx, strings.TrimSpace(kind))
	if err != nil {
		s.log.DatabaseError("list images", err)
		return nil, apperr.Wrap(apperr.KindInternal, "list images", err)
	}

	out := make([]transport.ImageResponse, len(items))
	for i, item := range items {
		out[i] = transport.ImageResponse{ID: item.ID, Name: item.Name, Kind: item.Kind, CreatedAt: item.CreatedAt}
	}
	return &transport.ImageListResponse{Items: out, Total: len(out)}, nil
}

// Get returns an image by name and kind, either as stored or as a resized
// JPEG variant. Variants are served from object storage when cached there.
func (s *Service) Get(ctx context.Context, name, kind, size string) (*Image, error) {
	if size == "" {
		size = SizeOriginal
	}
	if !IsKnownSize(size) {
		return nil, apperr.Validation("unknown image size").WithDetails(map[string]any{"size": size})
	}

	stored, err := s.store.Get(ctx, name, kind)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		s.log.DatabaseError("get image", err)
		return nil, apperr.Wrap(apperr.KindInternal, "get image", err)
	}

	raw, err := base64.StdEncoding.DecodeString(stored.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "decode stored image", err)
	}

	if size == SizeOriginal {
		return &Image{Data: raw, ContentType: http.DetectContentType(raw)}, nil
	}

	key := variantKey(stored.ID, size)
	if cached, ok := s.readVariant(ctx, key); ok {
		return &Image{Data: cached, ContentType: contentTypeJPEG}, nil
	}

	optimized, err := OptimizeImage(raw, size)
	if err != nil {
		return nil, apperr.Validation("stored image cannot be decoded").WithDetails(map[string]any{"name": name, "kind": kind})
	}
	s.writeVariant(ctx, key, optimized)

	return &Image{Data: optimized, ContentType: contentTypeJPEG}, nil
}

// ExtractFromProduct copies a product's ERP image into the image table.
// The stored name defaults to the product id.
func (s *Service) ExtractFromProduct(ctx context.Context, productID int64, req transport.ExtractRequest) (*transport.ExtractResponse, error) {
	data, err := s.products.ReadProductImage(ctx, productID)
	if err != nil {
		return nil, err
	}

	name := sanitize.Name(req.Name)
	if name == "" {
		name = strconv.FormatInt(productID, 10)
	}
	kind := strings.TrimSpace(req.Kind)

	if _, err := s.store.Import(ctx, kind, []repository.NewImage{{Name: name, Data: data}}); err != nil {
		s.log.DatabaseError("extract product image", err)
		return nil, apperr.Wrap(apperr.KindInternal, "store product image", err)
	}

	s.log.Info("product image extracted", "productId", productID, "kind", kind, "name", name)
	return &transport.ExtractResponse{ProductID: productID, Name: name, Kind: kind}, nil
}

const contentTypeJPEG = "image/jpeg"

func (s *Service) readVariant(ctx context.Context, key string) ([]byte, bool) {
	if s.objects == nil {
		return nil, false
	}
	data, err := s.objects.GetObject(ctx, s.bucket, key)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Warn("variant cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (s *Service) writeVariant(ctx context.Context, key string, data []byte) {
	if s.objects == nil {
		return
	}
	if err := s.objects.PutObject(ctx, s.bucket, key, contentTypeJPEG, data); err != nil {
		s.log.Warn("variant cache write failed", "key", key, "error", err)
	}
}

func variantKey(imageID int64, size string) string {
	return fmt.Sprintf("product_image_%d_%s.jpg", imageID, size)
}

// stripDataURI drops a "data:image/...;base64," prefix if present.
func stripDataURI(payload string) string {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			return payload[idx+1:]
		}
	}
	return payload
}
