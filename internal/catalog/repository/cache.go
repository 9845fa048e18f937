package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"erp_pricing_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const productCachePrefix = "catalog:product:"

// CachedRepository caches product reads in Redis. Pricing rules, taxes and
// partners always go to the ERP. Cache errors are logged and the read falls
// through to the wrapped repository.
type CachedRepository struct {
	Repository
	client redis.UniversalClient
	ttl    time.Duration
	log    *logger.Logger
}

// NewCached wraps inner with a Redis product cache.
func NewCached(inner Repository, client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRepository{Repository: inner, client: client, ttl: ttl, log: log}
}

// Compile-time check that CachedRepository implements Repository.
var _ Repository = (*CachedRepository)(nil)

// FindProduct serves a product from cache when present.
func (r *CachedRepository) FindProduct(ctx context.Context, id int64) (Product, error) {
	products, err := r.FindProducts(ctx, []int64{id})
	if err != nil {
		return Product{}, err
	}
	if len(products) == 0 {
		// Delegate so the caller gets the inner repository's NotFound error.
		return r.Repository.FindProduct(ctx, id)
	}
	return products[0], nil
}

// FindProducts serves cached products and fetches the rest in one call.
func (r *CachedRepository) FindProducts(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	found := make([]Product, 0, len(ids))
	misses := ids

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		r.log.Warn("product cache read failed", "error", err)
	} else {
		misses = make([]int64, 0, len(ids))
		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				misses = append(misses, ids[i])
				continue
			}
			var product Product
			if err := json.Unmarshal([]byte(raw), &product); err != nil {
				misses = append(misses, ids[i])
				continue
			}
			found = append(found, product)
		}
	}

	if len(misses) == 0 {
		return found, nil
	}

	fetched, err := r.Repository.FindProducts(ctx, misses)
	if err != nil {
		return nil, err
	}
	r.store(ctx, fetched)

	return append(found, fetched...), nil
}

func (r *CachedRepository) store(ctx context.Context, products []Product) {
	if len(products) == 0 {
		return
	}

	pipe := r.client.Pipeline()
	for _, product := range products {
		payload, err := json.Marshal(product)
		if err != nil {
			continue
		}
		pipe.Set(ctx, productKey(product.ID), payload, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn("product cache write failed", "error", err)
	}
}

func productKey(id int64) string {
	return productCachePrefix + strconv.FormatInt(id, 10)
}
