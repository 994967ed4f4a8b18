// Package client is a Go client for the bizdesk REST API.
//
// GET responses are cached by path. Every mutation drops the cached
// collection and item entries of the entity it touched, plus those of
// entities whose server-side aggregates it changes, so the next read
// always goes back to the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"bizdesk-service/internal/model"
	"bizdesk-service/internal/schema"
)

// DefaultCacheSize bounds the number of cached GET responses.
const DefaultCacheSize = 256

// Entity path segments.
const (
	entityProducts        = "products"
	entityContacts        = "contacts"
	entityOrders          = "orders"
	entityDeliveries      = "deliveries"
	entityVatRates        = "vat-rates"
	entityVatTransactions = "vat-transactions"
	entityVatReport       = "vat-report"
)

// dependents lists the entities whose cached reads go stale when the key
// entity changes. Orders feed contact aggregates and cascade into VAT
// transactions; received deliveries book product stock.
var dependents = map[string][]string{
	entityOrders:          {entityContacts, entityVatTransactions, entityVatReport},
	entityDeliveries:      {entityProducts},
	entityVatTransactions: {entityVatReport},
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int                 `json:"-"`
	Message    string              `json:"message"`
	Fields     []schema.FieldError `json:"errors,omitempty"`
	Rows       []schema.RowError   `json:"rows,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bizdesk: %d %s", e.StatusCode, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client talks to one bizdesk server. It is safe for concurrent use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	cache *lru.Cache[string, []byte]

	// gens counts invalidations per entity; "" counts full purges. A GET
	// only caches its response when no invalidation ran while it was in
	// flight.
	mu   sync.Mutex
	gens map[string]uint64

	Products        Resource[model.Product]
	Contacts        Resource[model.Contact]
	Orders          Resource[model.Order]
	Deliveries      Resource[model.Delivery]
	VatRates        Resource[model.VatRate]
	VatTransactions Resource[model.VatTransaction]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. A cookie jar is
// attached when hc has none, since the session lives in a cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithCacheSize sets the number of cached GET responses. Non-positive
// sizes are ignored.
func WithCacheSize(n int) Option {
	return func(c *Client) {
		if cache, err := lru.New[string, []byte](n); err == nil {
			c.cache = cache
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cache, err := lru.New[string, []byte](DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		gens:       map[string]uint64{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.HTTPClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.HTTPClient.Jar = jar
	}

	c.Products = Resource[model.Product]{c: c, entity: entityProducts}
	c.Contacts = Resource[model.Contact]{c: c, entity: entityContacts}
	c.Orders = Resource[model.Order]{c: c, entity: entityOrders}
	c.Deliveries = Resource[model.Delivery]{c: c, entity: entityDeliveries}
	c.VatRates = Resource[model.VatRate]{c: c, entity: entityVatRates}
	c.VatTransactions = Resource[model.VatTransaction]{c: c, entity: entityVatTransactions}
	return c, nil
}

// Cached reports whether a response for path is currently cached.
func (c *Client) Cached(path string) bool {
	return c.cache.Contains(path)
}

// Purge drops every cached response.
func (c *Client) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[""]++
	c.cache.Purge()
}

// generation must be called with mu held.
func (c *Client) generation(entity string) uint64 {
	return c.gens[""] + c.gens[entity]
}

// invalidate drops cached reads of entity and its dependents.
func (c *Client) invalidate(entity string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefixes := []string{"/api/" + entity}
	c.gens[entity]++
	for _, dep := range dependents[entity] {
		prefixes = append(prefixes, "/api/"+dep)
		c.gens[dep]++
	}
	for _, key := range c.cache.Keys() {
		for _, p := range prefixes {
			if underPrefix(key, p) {
				c.cache.Remove(key)
				break
			}
		}
	}
}

func underPrefix(key, prefix string) bool {
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	rest := key[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}

// entityOf returns the entity segment of an /api path.
func entityOf(path string) string {
	rest := strings.TrimPrefix(path, "/api/")
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		return rest[:i]
	}
	return rest
}

// get serves path from the cache or fetches and caches it.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if body, ok := c.cache.Get(path); ok {
		return json.Unmarshal(body, out)
	}
	entity := entityOf(path)
	c.mu.Lock()
	gen := c.generation(entity)
	c.mu.Unlock()

	body, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.generation(entity) == gen {
		c.cache.Add(path, body)
	}
	c.mu.Unlock()
	return json.Unmarshal(body, out)
}

// mutate sends a write and invalidates entity, also when the write fails.
func (c *Client) mutate(ctx context.Context, entity, method, path string, in, out any) error {
	body, err := c.send(ctx, method, path, in)
	c.invalidate(entity)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) send(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.ToLower(http.StatusText(resp.StatusCode))
		}
		return nil, apiErr
	}
	return body, nil
}
