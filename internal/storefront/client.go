// Package storefront is a client for the storefront REST API: catalog
// search and the signed-in customer's cart.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nadzzz/voicecart/internal/config"
	"github.com/nadzzz/voicecart/internal/message"
	"github.com/nadzzz/voicecart/internal/metrics"
)

var (
	// ErrUnauthorized matches 401 responses; the token is missing or expired.
	ErrUnauthorized = errors.New("storefront: unauthorized")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("storefront: unavailable")
)

// APIError is a non-2xx response from the storefront.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront: status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client talks to the storefront API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   Cache
	ttl     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables product lookup caching.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.ttl = ttl
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(cl *Client) { cl.http = h }
}

// New creates a storefront client from config.
func New(cfg config.StorefrontConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	c := &Client{
		baseURL: apiBaseURL(cfg.BaseURL),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		cache:   NopCache{},
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "storefront",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors say nothing about the storefront's health.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiBaseURL appends the /api prefix when the configured URL lacks it.
func apiBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		u = "http://localhost:5000"
	}
	if strings.HasSuffix(u, "/api") {
		return u
	}
	return u + "/api"
}

// SearchProducts returns catalog products matching query.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]message.Product, error) {
	key := "products:" + strings.ToLower(strings.TrimSpace(query))
	if raw, ok := c.cache.Get(ctx, key); ok {
		var products []message.Product
		if err := json.Unmarshal(raw, &products); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return products, nil
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	var resp struct {
		Success  bool              `json:"success"`
		Products []message.Product `json:"products"`
	}
	path := "/products?" + url.Values{"search": {query}}.Encode()
	if err := c.do(ctx, "search", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(resp.Products); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			slog.Debug("product cache write failed", "error", err)
		}
	}
	return resp.Products, nil
}

// GetCart returns the current cart.
func (c *Client) GetCart(ctx context.Context) (*message.Cart, error) {
	var resp cartResponse
	if err := c.do(ctx, "get_cart", http.MethodGet, "/cart", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

// AddToCart adds quantity units of a product to the cart.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*message.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}
	body := map[string]any{"productId": productID, "quantity": quantity}
	var resp cartResponse
	if err := c.do(ctx, "add_to_cart", http.MethodPost, "/cart", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

// UpdateItem sets the quantity of a cart line.
func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) (*message.Cart, error) {
	var resp cartResponse
	body := map[string]any{"quantity": quantity}
	if err := c.do(ctx, "update_item", http.MethodPut, "/cart/"+url.PathEscape(itemID), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

// RemoveItem deletes a cart line.
func (c *Client) RemoveItem(ctx context.Context, itemID string) (*message.Cart, error) {
	var resp cartResponse
	if err := c.do(ctx, "remove_item", http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) (*message.Cart, error) {
	var resp cartResponse
	if err := c.do(ctx, "clear_cart", http.MethodDelete, "/cart", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

type cartResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Cart    message.Cart `json:"cart"`
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	metrics.StorefrontDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.StorefrontRequests.WithLabelValues(op, "unavailable").Inc()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		metrics.StorefrontRequests.WithLabelValues(op, "error").Inc()
		return err
	}
	metrics.StorefrontRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storefront request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorMessage extracts {"message": "..."} from an error body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(raw))
}
