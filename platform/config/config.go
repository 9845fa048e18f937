// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// ERPConfig provides the remote ERP endpoint and service account.
type ERPConfig interface {
	GetERPURL() string
	GetERPDatabase() string
	GetERPUsername() string
	GetERPPassword() string
	GetERPTimeout() time.Duration
}

// DatabaseConfig provides the image store connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	IsDatabaseEnabled() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides the Redis connection used for caching and locking.
type RedisConfig interface {
	GetRedisURL() string
	IsRedisEnabled() bool
}

// CacheConfig provides catalog cache settings.
type CacheConfig interface {
	GetCatalogCacheTTL() time.Duration
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketImageVariants() string
	IsMinIOEnabled() bool
}

// PricingConfig provides the price resolution parameters.
type PricingConfig interface {
	GetCostMarginDivisor() float64
	GetTierDefaults() map[int64]float64
	GetPricingWorkers() int
}

// QuotesConfig provides quotation assembly settings.
type QuotesConfig interface {
	GetSalesTaxRate() float64
	GetSalesTaxUsage() string
	GetLineReplaceMode() string
	GetQuoteLockTTL() time.Duration
}

// Line replacement strategies for the quotation synchronizer.
const (
	LineReplaceLegacy = "legacy"
	LineReplaceAtomic = "atomic"
)

// DefaultTierDefaults are the built-in tier discount percentages.
func DefaultTierDefaults() map[int64]float64 {
	return map[int64]float64{1: 0, 2: 7, 4: 19}
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	ERPURL                   string
	ERPDatabase              string
	ERPUsername              string
	ERPPassword              string
	ERPTimeout               time.Duration
	JWTAccessSecret          string
	AccessTokenTTL           time.Duration
	DatabaseURL              string
	RedisURL                 string
	CatalogCacheTTL          time.Duration
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinIOMaxFileSize         int64
	MinioBucketImageVariants string
	CostMarginDivisor        float64
	TierDefaults             map[int64]float64
	PricingWorkers           int
	SalesTaxRate             float64
	SalesTaxUsage            string
	LineReplaceMode          string
	QuoteLockTTL             time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// ERPConfig implementation
func (c *Config) GetERPURL() string            { return c.ERPURL }
func (c *Config) GetERPDatabase() string       { return c.ERPDatabase }
func (c *Config) GetERPUsername() string       { return c.ERPUsername }
func (c *Config) GetERPPassword() string       { return c.ERPPassword }
func (c *Config) GetERPTimeout() time.Duration { return c.ERPTimeout }

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) IsDatabaseEnabled() bool { return c.DatabaseURL != "" }

// AuthServiceConfig implementation
func (c *Config) GetJWTAccessSecret() string       { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string  { return c.RedisURL }
func (c *Config) IsRedisEnabled() bool { return c.RedisURL != "" }

// CacheConfig implementation
func (c *Config) GetCatalogCacheTTL() time.Duration { return c.CatalogCacheTTL }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketImageVariants() string {
	return c.MinioBucketImageVariants
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// PricingConfig implementation
func (c *Config) GetCostMarginDivisor() float64      { return c.CostMarginDivisor }
func (c *Config) GetTierDefaults() map[int64]float64 { return c.TierDefaults }
func (c *Config) GetPricingWorkers() int             { return c.PricingWorkers }

// QuotesConfig implementation
func (c *Config) GetSalesTaxRate() float64       { return c.SalesTaxRate }
func (c *Config) GetSalesTaxUsage() string       { return c.SalesTaxUsage }
func (c *Config) GetLineReplaceMode() string     { return c.LineReplaceMode }
func (c *Config) GetQuoteLockTTL() time.Duration { return c.QuoteLockTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8035"),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		ERPURL:                   strings.TrimRight(getEnv("ERP_URL", ""), "/"),
		ERPDatabase:              getEnv("ERP_DB", ""),
		ERPUsername:              getEnv("ERP_USER", ""),
		ERPPassword:              getEnv("ERP_PASSWORD", ""),
		ERPTimeout:               mustDuration(getEnv("ERP_TIMEOUT", "30s")),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:           mustDuration(getEnv("JWT_ACCESS_TTL", "8h")),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisURL:                 getEnv("REDIS_URL", ""),
		CatalogCacheTTL:          mustDuration(getEnv("CATALOG_CACHE_TTL", "5m")),
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:         mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketImageVariants: getEnv("MINIO_BUCKET_IMAGE_VARIANTS", "image-variants"),
		CostMarginDivisor:        mustFloat(getEnv("PRICING_COST_MARGIN_DIVISOR", "0.65")),
		TierDefaults:             DefaultTierDefaults(),
		PricingWorkers:           int(mustInt64(getEnv("PRICING_WORKERS", "8"))),
		SalesTaxRate:             mustFloat(getEnv("QUOTE_SALES_TAX_RATE", "16")),
		SalesTaxUsage:            getEnv("QUOTE_SALES_TAX_USAGE", "sale"),
		LineReplaceMode:          strings.ToLower(getEnv("QUOTE_LINE_REPLACE_MODE", LineReplaceLegacy)),
		QuoteLockTTL:             mustDuration(getEnv("QUOTE_LOCK_TTL", "2m")),
	}

	if path := getEnv("PRICING_TIERS_FILE", ""); path != "" {
		tiers, err := LoadTierDefaults(path)
		if err != nil {
			return nil, err
		}
		cfg.TierDefaults = tiers
	}

	if cfg.ERPURL == "" || cfg.ERPDatabase == "" {
		return nil, fmt.Errorf("ERP_URL and ERP_DB are required")
	}
	if cfg.ERPUsername == "" || cfg.ERPPassword == "" {
		return nil, fmt.Errorf("ERP_USER and ERP_PASSWORD are required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CostMarginDivisor <= 0 {
		return nil, fmt.Errorf("PRICING_COST_MARGIN_DIVISOR must be greater than 0")
	}
	if cfg.PricingWorkers < 1 {
		cfg.PricingWorkers = 1
	}
	if cfg.LineReplaceMode != LineReplaceLegacy && cfg.LineReplaceMode != LineReplaceAtomic {
		return nil, fmt.Errorf("QUOTE_LINE_REPLACE_MODE must be %q or %q", LineReplaceLegacy, LineReplaceAtomic)
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

type tierFile struct {
	Tiers map[int64]float64 `yaml:"tiers"`
}

// LoadTierDefaults reads tier discount percentages from a YAML file of the form
//
//	tiers:
//	  1: 0
//	  2: 7
func LoadTierDefaults(path string) (map[int64]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing tiers file: %w", err)
	}

	var parsed tierFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse pricing tiers file: %w", err)
	}
	if len(parsed.Tiers) == 0 {
		return nil, fmt.Errorf("pricing tiers file %s defines no tiers", path)
	}
	for tier, pct := range parsed.Tiers {
		if pct < 0 || pct > 100 {
			return nil, fmt.Errorf("tier %d discount %.2f is outside 0..100", tier, pct)
		}
	}
	return parsed.Tiers, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
