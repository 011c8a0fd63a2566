package apple

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"pickupwatch/pkg/logger"
)

const (
	DefaultBaseURL   = "https://www.apple.com/shop/retail/pickup-message"
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"
)

var ErrMalformedResponse = errors.New("malformed pickup response")

// HTTPStatusError is returned when the endpoint answers with anything but 200.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("pickup endpoint returned status %d", e.StatusCode)
}

// Checker queries the pickup-message endpoint for one selection.
type Checker struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	now        func() time.Time
}

type Option func(*Checker)

func WithBaseURL(u string) Option {
	return func(c *Checker) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "?")
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each request. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.timeout = d
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		c.userAgent = ua
	}
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		client := *c.httpClient
		client.Timeout = c.timeout
		c.httpClient = &client
	}
	return c
}

// PickupURL builds the query. The codes are already encoded and go in as-is.
func (c *Checker) PickupURL(codes Codes, zip string) string {
	return fmt.Sprintf("%s?parts.0=%s&location=%s&little=true&cppart=%s",
		c.baseURL, codes.Part, url.QueryEscape(zip), codes.Carrier)
}

// Check resolves sel, fetches the pickup message and filters the stores.
// Lookup failures return before any request is sent.
func (c *Checker) Check(ctx context.Context, sel Selection) (*CheckResult, error) {
	codes, err := sel.Resolve()
	if err != nil {
		return nil, err
	}

	pickupURL := c.PickupURL(codes, sel.Zip)
	log := logger.FromContext(ctx)
	log.Debug("Requesting pickup message",
		zap.String("url", pickupURL),
		zap.String("part", codes.Part),
		zap.String("carrier", codes.Carrier))

	resp, err := c.fetch(ctx, pickupURL)
	if err != nil {
		return nil, err
	}

	stores := resp.Body.Stores
	result := &CheckResult{
		URL:        pickupURL,
		Codes:      codes,
		CheckedAt:  c.now(),
		StoresSeen: len(stores),
		Available:  FilterAvailable(stores),
	}

	log.Info("Pickup status",
		zap.String("part", codes.Part),
		zap.String("zip", sel.Zip),
		zap.Int("stores", result.StoresSeen),
		zap.Int("available", len(result.Available)))
	return result, nil
}

func (c *Checker) fetch(ctx context.Context, pickupURL string) (*PickupResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pickupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, URL: pickupURL}
	}

	// Setting Accept-Encoding ourselves disables transparent decompression.
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	var pickup PickupResponse
	if err := json.NewDecoder(reader).Decode(&pickup); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if pickup.Body == nil {
		return nil, fmt.Errorf("%w: missing body", ErrMalformedResponse)
	}
	return &pickup, nil
}

// IsStoreAvailable is true when any part shows pickupDisplay "available" or
// a store quote mentioning "today".
func IsStoreAvailable(store Store) bool {
	for _, part := range store.PartsAvailability {
		if part.PickupDisplay == "available" || strings.Contains(part.StorePickupQuote, "today") {
			return true
		}
	}
	return false
}

// FilterAvailable keeps the stores passing IsStoreAvailable, in input order.
func FilterAvailable(stores []Store) []StoreAvailability {
	var available []StoreAvailability
	for _, store := range stores {
		if !IsStoreAvailable(store) {
			continue
		}
		available = append(available, StoreAvailability{
			StoreName:         store.StoreName,
			StoreNumber:       store.StoreNumber,
			ReservationURL:    store.ReservationURL,
			PartsAvailability: store.PartsAvailability,
		})
	}
	return available
}
