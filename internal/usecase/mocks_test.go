package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/itembuilder/backend/internal/domain"
)

// MockBarcodeClient is a mock implementation of domain.BarcodeClient
type MockBarcodeClient struct {
	mu       sync.Mutex
	products map[string]*domain.BarcodeProduct
	errs     map[string]error
	delay    func(upc string) time.Duration
	calls    map[string]int
}

func NewMockBarcodeClient() *MockBarcodeClient {
	return &MockBarcodeClient{
		products: make(map[string]*domain.BarcodeProduct),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (m *MockBarcodeClient) LookupProduct(ctx context.Context, upc string) (*domain.BarcodeProduct, error) {
	m.mu.Lock()
	m.calls[upc]++
	product, hasProduct := m.products[upc]
	err := m.errs[upc]
	delay := m.delay
	m.mu.Unlock()

	if delay != nil {
		select {
		case <-time.After(delay(upc)):
		case <-ctx.Done():
			return nil, domain.NewLookupError(upc, domain.LookupTransport, ctx.Err())
		}
	}

	if err != nil {
		return nil, err
	}
	if !hasProduct {
		return nil, domain.NewLookupError(upc, domain.LookupEmpty, nil)
	}
	copied := *product
	return &copied, nil
}

func (m *MockBarcodeClient) Calls(upc string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[upc]
}

// MockClassifier is a mock implementation of domain.Classifier
type MockClassifier struct {
	mu     sync.Mutex
	label  string
	err    error
	panics bool
	inputs []string
}

func (m *MockClassifier) Predict(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, text)
	m.mu.Unlock()

	if m.panics {
		panic("model exploded")
	}
	if m.err != nil {
		return "", m.err
	}
	return m.label, nil
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	setError error
	deleted  []string
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}
