package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/itembuilder/backend/internal/domain"
	"github.com/itembuilder/backend/internal/infrastructure/barcode"
	"github.com/itembuilder/backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// ProductResolverConfig holds configuration for the product resolver
type ProductResolverConfig struct {
	LookupTimeout time.Duration
	CacheTTL      time.Duration
}

// ProductResolver turns a UPC into a resolved item: barcode lookup first, supplier table second
type ProductResolver struct {
	client        domain.BarcodeClient
	cache         domain.CacheRepository
	lookupTimeout time.Duration
	cacheTTL      time.Duration
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewProductResolver creates a resolver. cache and m may be nil.
func NewProductResolver(
	client domain.BarcodeClient,
	cache domain.CacheRepository,
	config ProductResolverConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ProductResolver {
	lookupTimeout := config.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = 10 * time.Second
	}

	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProductResolver{
		client:        client,
		cache:         cache,
		lookupTimeout: lookupTimeout,
		cacheTTL:      cacheTTL,
		metrics:       m,
		logger:        logger,
	}
}

// Resolve looks up upc and falls back to the supplier table on any lookup failure.
// It never fails: a UPC unknown to both sources resolves to an item with empty fields.
func (r *ProductResolver) Resolve(ctx context.Context, upc string, supplier domain.SupplierTable) domain.ResolvedItem {
	product, err := r.lookup(ctx, upc)
	if err == nil {
		r.metrics.LookupSucceeded()
		return barcode.MapToResolvedItem(upc, product)
	}

	reason := domain.LookupReason(err)
	r.metrics.LookupFailed(reason)
	r.logger.Debug("lookup failed, using supplier table",
		zap.String("upc", upc),
		zap.String("reason", string(reason)),
		zap.Error(err),
	)

	item, err := FromSupplier(upc, supplier)
	r.metrics.SupplierFallback(err == nil)
	if err != nil {
		r.logger.Warn("no product data for upc",
			zap.String("upc", upc),
			zap.String("lookup_reason", string(reason)),
		)
	}
	return item
}

// lookup consults the cache, then the barcode client with a bounded timeout
func (r *ProductResolver) lookup(ctx context.Context, upc string) (*domain.BarcodeProduct, error) {
	if r.client == nil {
		return nil, domain.NewLookupError(upc, domain.LookupDisabled, nil)
	}

	key := cacheKey(upc)
	if cached, ok := r.getFromCache(ctx, key); ok {
		return cached, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	product, err := r.client.LookupProduct(lookupCtx, upc)
	if err != nil {
		var lookupErr *domain.LookupError
		if !errors.As(err, &lookupErr) {
			err = domain.NewLookupError(upc, domain.LookupTransport, err)
		}
		return nil, err
	}
	if product == nil {
		return nil, domain.NewLookupError(upc, domain.LookupEmpty, nil)
	}

	r.setInCache(ctx, key, product)
	return product, nil
}

// cacheKey creates the cache key for a UPC lookup.
// Format: "barcode:{upc}"
func cacheKey(upc string) string {
	return "barcode:" + upc
}

func (r *ProductResolver) getFromCache(ctx context.Context, key string) (*domain.BarcodeProduct, bool) {
	if r.cache == nil {
		return nil, false
	}

	data, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var product domain.BarcodeProduct
	if err := json.Unmarshal(data, &product); err != nil {
		r.logger.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.cache.Delete(ctx, key)
		return nil, false
	}
	return &product, true
}

func (r *ProductResolver) setInCache(ctx context.Context, key string, product *domain.BarcodeProduct) {
	if r.cache == nil {
		return
	}

	data, err := json.Marshal(product)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		// Caching is best effort
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// FromSupplier builds a resolved item from the supplier table.
// Only one image is available from a supplier record; the other slots stay empty.
// A missing record yields an all-empty item and ErrSupplierRecordMissing.
func FromSupplier(upc string, supplier domain.SupplierTable) (domain.ResolvedItem, error) {
	record, ok := supplier[upc]
	if !ok {
		return domain.ResolvedItem{UPC: upc, Source: domain.SourceNone}, domain.ErrSupplierRecordMissing
	}

	return domain.ResolvedItem{
		UPC:            upc,
		Title:          barcode.TruncateTitle(record.ItemName),
		Brand:          record.Brand,
		VendorCategory: record.Category,
		MSRP:           record.MSRP,
		Images:         [domain.ImageSlots]string{record.Image1},
		Source:         domain.SourceSupplier,
	}, nil
}
