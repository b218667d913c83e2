package main

import (
	"context"
	"fmt"
	"time"

	"github.com/itembuilder/backend/config"
	"github.com/itembuilder/backend/internal/domain"
	"github.com/itembuilder/backend/internal/infrastructure/barcode"
	"github.com/itembuilder/backend/internal/infrastructure/cache"
	"github.com/itembuilder/backend/internal/infrastructure/classifier"
	"github.com/itembuilder/backend/internal/infrastructure/metrics"
	"github.com/itembuilder/backend/internal/usecase"
	"go.uber.org/zap"
)

// closer releases resources held by the wired service
type closer func()

// buildEnrichmentService wires infrastructure into the enrichment service
func buildEnrichmentService(
	ctx context.Context,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*usecase.EnrichmentService, closer, error) {
	client := barcode.NewClient(barcode.ClientConfig{
		APIKey:            cfg.Barcode.APIKey,
		BaseURL:           cfg.Barcode.BaseURL,
		Timeout:           cfg.Barcode.Timeout,
		RequestsPerSecond: cfg.Barcode.RequestsPerSecond,
		Burst:             cfg.Barcode.Burst,
	}, logger.Named("barcode"))

	if client.Enabled() {
		logger.Info("barcode lookup configured",
			zap.String("base_url", cfg.Barcode.BaseURL),
			zap.Float64("requests_per_second", cfg.Barcode.RequestsPerSecond),
		)
	} else {
		logger.Warn("barcode lookup disabled (set ITEMBUILDER_BARCODE_API_KEY); items resolve from the supplier table only")
	}

	lookupCache, closeCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("lookup cache", zap.String("type", cfg.Cache.Type), zap.Duration("ttl", cfg.Cache.TTL))

	categoryClassifier, err := buildClassifier(cfg.Classifier.ModelPath, logger)
	if err != nil {
		closeCache()
		return nil, nil, err
	}

	resolver := usecase.NewProductResolver(
		client,
		lookupCache,
		usecase.ProductResolverConfig{
			LookupTimeout: cfg.Barcode.Timeout,
			CacheTTL:      cfg.Cache.TTL,
		},
		m,
		logger.Named("resolver"),
	)

	adapter := usecase.NewClassifierAdapter(categoryClassifier, m, logger.Named("classifier"))

	service := usecase.NewEnrichmentService(
		resolver,
		adapter,
		usecase.EnrichmentServiceConfig{
			Storefront: cfg.Enrichment.Storefront,
			Workers:    cfg.Enrichment.Workers,
		},
		m,
		logger.Named("enrichment"),
	)

	return service, closeCache, nil
}

// buildCache returns the lookup cache for the configured type; "none" yields a nil cache
func buildCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, closer, error) {
	switch cfg.Type {
	case "memory":
		memoryCache := cache.NewMemoryCache()
		return memoryCache, func() { _ = memoryCache.Close() }, nil
	case "redis":
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(pingCtx); err != nil {
			_ = redisCache.Close()
			return nil, nil, fmt.Errorf("redis cache unreachable: %w", err)
		}
		return redisCache, func() { _ = redisCache.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

// buildClassifier loads the category model; a nil result means no classifier is configured
func buildClassifier(path string, logger *zap.Logger) (domain.Classifier, error) {
	model, err := classifier.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier model: %w", err)
	}
	if model == nil {
		logger.Info("no classifier model configured; categories come from the mapping table only")
		return nil, nil
	}

	logger.Info("classifier model loaded", zap.String("path", path), zap.Strings("classes", model.Classes()))
	return model, nil
}
