package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"erp_pricing_backend/internal/adapters"
	"erp_pricing_backend/internal/adapters/storage"
	"erp_pricing_backend/internal/auth"
	"erp_pricing_backend/internal/catalog"
	apphttp "erp_pricing_backend/internal/http"
	"erp_pricing_backend/internal/http/router"
	"erp_pricing_backend/internal/media"
	"erp_pricing_backend/internal/pricing"
	"erp_pricing_backend/internal/quotes"
	"erp_pricing_backend/platform/cache"
	"erp_pricing_backend/platform/config"
	"erp_pricing_backend/platform/db"
	"erp_pricing_backend/platform/erp"
	"erp_pricing_backend/platform/lock"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	erpClient, err := erp.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize erp client", "error", err)
		panic("failed to initialize erp client: " + err.Error())
	}
	defer func() { _ = erpClient.Close() }()

	if err := withRetry(ctx, log, "erp connection", 5, 2*time.Second, func() error {
		return erpClient.Ping(ctx)
	}); err != nil {
		log.Error("failed to reach erp", "error", err)
		panic("failed to reach erp: " + err.Error())
	}
	log.Info("erp connection established", "url", cfg.GetERPURL(), "db", cfg.GetERPDatabase())

	health := map[string]apphttp.HealthChecker{"erp": erpClient}

	redisClient, locker := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	pool := initDatabase(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
		health["database"] = db.NewPoolAdapter(pool)
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	var catalogCache redis.UniversalClient
	if redisClient != nil {
		catalogCache = redisClient
	}
	catalogModule := catalog.NewModule(erpClient, catalogCache, cfg, val, log)
	authModule := auth.NewModule(erpClient, cfg, val, log)

	pricingReader := adapters.NewCatalogPricingReader(catalogModule.Repository())
	pricingModule := pricing.NewModule(pricingReader, cfg, val, log)

	quotesReader := adapters.NewCatalogQuotesReader(catalogModule.Repository())
	quotesModule := quotes.NewModule(erpClient, quotesReader, locker, cfg, val, log)
	quotesModule.Service().SetPriceResolver(adapters.NewPriceResolverAdapter(pricingModule.Service()))

	modules := []apphttp.Module{
		authModule,
		catalogModule,
		pricingModule,
		quotesModule,
	}

	if pool != nil {
		var variantStore storage.StorageService
		if minioSvc := initStorage(ctx, cfg, log); minioSvc != nil {
			variantStore = minioSvc
		}
		mediaModule := media.NewModule(pool, catalogModule.Repository(), variantStore, cfg.GetMinioBucketImageVariants(), val, log)
		modules = append(modules, mediaModule)
	} else {
		log.Warn("DATABASE_URL not configured; media routes disabled")
	}

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  health,
		Modules: modules,
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRedis connects to Redis when configured. Without Redis the catalog is
// not cached and quotation locks are held in process memory.
func initRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Client, lock.Locker) {
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_URL not configured; catalog cache disabled and quotation locks are process-local")
		return nil, lock.NewLocalLocker()
	}

	var client *redis.Client
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		c, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	log.Info("redis connection established")

	return client, lock.NewRedisLocker(client, "erp-pricing:lock:")
}

// initDatabase opens the image store and applies migrations. It returns nil
// when no database is configured.
func initDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) *pgxpool.Pool {
	if !cfg.IsDatabaseEnabled() {
		return nil
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, log)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	return pool
}

// initStorage connects to MinIO for image variant caching. It returns nil
// when MinIO is not configured.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) *storage.MinIOService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; image variants are not cached")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketImageVariants()
	if err := withRetry(ctx, log, "ensure image-variants bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrMsg + ": " + err.Error())
	}
	log.Info("storage service initialized", "imageVariantsBucket", bucket)

	return storageSvc
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
