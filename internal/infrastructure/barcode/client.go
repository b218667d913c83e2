package barcode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/itembuilder/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a lookup response is read
const maxBodyBytes = 4 << 20

// ClientConfig holds settings for the barcode lookup client
type ClientConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client handles communication with the Barcode Lookup API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new barcode lookup client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:      logger,
	}
}

// Enabled reports whether lookups will be attempted at all
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.baseURL != ""
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ItemBuilder/1.0")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// LookupProduct fetches the first product the API knows for a UPC.
// It makes a single attempt; every failure is returned as a *domain.LookupError.
func (c *Client) LookupProduct(ctx context.Context, upc string) (*domain.BarcodeProduct, error) {
	if !c.Enabled() {
		return nil, domain.NewLookupError(upc, domain.LookupDisabled, nil)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, domain.NewLookupError(upc, domain.LookupTransport, fmt.Errorf("rate limiter: %w", err))
	}

	params := url.Values{}
	params.Add("barcode", upc)
	params.Add("formatted", "y")
	params.Add("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/products?%s", c.baseURL, params.Encode())

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, domain.NewLookupError(upc, domain.LookupTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewLookupError(upc, domain.LookupTransport, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewLookupError(upc, domain.LookupEmpty, nil)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("lookup returned non-success status",
			zap.String("upc", upc),
			zap.Int("status", resp.StatusCode),
		)
		return nil, domain.NewLookupError(upc, domain.LookupStatus, fmt.Errorf("status %d", resp.StatusCode))
	}

	var lookupResp domain.BarcodeLookupResponse
	if err := json.Unmarshal(body, &lookupResp); err != nil {
		return nil, domain.NewLookupError(upc, domain.LookupDecode, err)
	}

	if len(lookupResp.Products) == 0 {
		return nil, domain.NewLookupError(upc, domain.LookupEmpty, nil)
	}

	c.logger.Debug("lookup succeeded",
		zap.String("upc", upc),
		zap.Int("products", len(lookupResp.Products)),
	)
	return &lookupResp.Products[0], nil
}
