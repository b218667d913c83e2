package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// BarcodeClient defines the lookup capability.
// It returns the first product for a UPC or a *LookupError.
type BarcodeClient interface {
	LookupProduct(ctx context.Context, upc string) (*BarcodeProduct, error)
}

// Classifier predicts a category label from item text.
// An empty label means no prediction.
type Classifier interface {
	Predict(ctx context.Context, text string) (string, error)
}
