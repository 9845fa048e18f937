// Package storage provides a domain-agnostic interface for S3-compatible object storage.
// The media module uses it to cache resized image variants.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// StorageService defines the interface for object storage operations.
type StorageService interface {
	// GetObject reads a whole object. Missing keys return ErrObjectNotFound.
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	// PutObject stores data under a fixed key, replacing any previous object.
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte) error

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, bucket, key string) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// ValidateContentType checks if the content type is allowed.
	ValidateContentType(contentType string) error

	// ValidateFileSize checks if the file size is within limits.
	ValidateFileSize(sizeBytes int64) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
