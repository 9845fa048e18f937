package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erp_pricing_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const errRepoNotConfigured = "image repository not configured"

// Image is one stored image; Data holds the base64 payload.
type Image struct {
	ID        int64
	Name      string
	Kind      string
	Data      string
	CreatedAt time.Time
}

// ImageSummary is an image row without its payload.
type ImageSummary struct {
	ID        int64
	Name      string
	Kind      string
	CreatedAt time.Time
}

// NewImage is an image to insert.
type NewImage struct {
	Name string
	Data string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Import inserts every image under kind in one transaction and returns the
// number of rows written.
func (r *Repository) Import(ctx context.Context, kind string, images []NewImage) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New(errRepoNotConfigured)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, img := range images {
		batch.Queue(`INSERT INTO product_images (name, kind, image) VALUES ($1, $2, $3)`, img.Name, kind, img.Data)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range images {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("insert image %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close import batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(images), nil
}

// List returns image summaries for a kind ordered by name.
func (r *Repository) List(ctx context.Context, kind string) ([]ImageSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, kind, created_at
		FROM product_images
		WHERE kind = $1
		ORDER BY name, id`, kind)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	items := make([]ImageSummary, 0)
	for rows.Next() {
		var item ImageSummary
		if err := rows.Scan(&item.ID, &item.Name, &item.Kind, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get returns the newest image stored under name and kind.
func (r *Repository) Get(ctx context.Context, name, kind string) (Image, error) {
	if r == nil || r.pool == nil {
		return Image{}, errors.New(errRepoNotConfigured)
	}

	var img Image
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, kind, image, created_at
		FROM product_images
		WHERE name = $1 AND kind = $2
		ORDER BY id DESC
		LIMIT 1`, name, kind).Scan(&img.ID, &img.Name, &img.Kind, &img.Data, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Image{}, apperr.NotFound("image not found").WithDetails(map[string]any{"name": name, "kind": kind})
	}
	if err != nil {
		return Image{}, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}
