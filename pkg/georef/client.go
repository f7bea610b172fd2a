// Package georef is a client for Argentina's public Georef API: provinces,
// localities and address normalization, with response caching, in-flight
// request deduplication, rate limiting, retries and a bundled fallback
// dataset.
package georef

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"

	"github.com/carroceria-sur/taller/internal/resilience"
)

// DefaultBaseURL is the public Georef API.
const DefaultBaseURL = "https://apis.datos.gob.ar/georef/api"

// Client performs Georef lookups. Implementations are safe for concurrent
// use.
type Client interface {
	// Provinces lists provinces whose name matches name (empty for all).
	Provinces(ctx context.Context, name string, max int) ([]Province, error)
	// Localities lists localities of a province, optionally filtered by name.
	Localities(ctx context.Context, provinceID, name string, max int) ([]Locality, error)
	// AllLocalities lists every locality of a province.
	AllLocalities(ctx context.Context, provinceID string) ([]Locality, error)
	// NormalizeAddress resolves free-text addresses to official ones.
	NormalizeAddress(ctx context.Context, q AddressQuery) ([]Address, error)
	// SearchLocalities is the free-text autocomplete over localities.
	SearchLocalities(ctx context.Context, text, provinceID string, max int) ([]Locality, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithRateLimit overrides the sliding-window limits.
func WithRateLimit(cfg resilience.WindowConfig) Option {
	return func(c *httpClient) {
		c.window = cfg
	}
}

// WithTTLs overrides the cache lifetimes.
func WithTTLs(t TTLs) Option {
	return func(c *httpClient) {
		c.ttls = t
	}
}

// WithCacheSize bounds the cache to n entries with LRU eviction. Zero keeps
// it unbounded.
func WithCacheSize(n int) Option {
	return func(c *httpClient) {
		c.cacheSize = n
	}
}

// WithFallback replaces the bundled dataset.
func WithFallback(fb *Fallback) Option {
	return func(c *httpClient) {
		if fb != nil {
			c.fallback = fb
		}
	}
}

// WithFallbackPolicy sets the fallback policy of one operation.
func WithFallbackPolicy(op Operation, p FallbackPolicy) Option {
	return func(c *httpClient) {
		c.policies[op] = p
	}
}

// WithLimits overrides the default result caps. Zero fields keep their
// defaults.
func WithLimits(l Limits) Option {
	return func(c *httpClient) {
		c.limits = l.OrDefaults()
	}
}

// WithMetrics records client metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(c *httpClient) {
		c.metrics = m
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client

	retry   resilience.RetryConfig
	window  resilience.WindowConfig
	limiter *resilience.WindowLimiter

	ttls      TTLs
	cacheSize int
	cache     *responseCache
	flights   singleflight.Group

	fallback *Fallback
	policies map[Operation]FallbackPolicy
	limits   Limits
	metrics  *Metrics
}

// NewClient creates a Georef client. Each client owns its cache, pending
// request ledger and rate limiter.
func NewClient(opts ...Option) (Client, error) {
	return newHTTPClient(opts...)
}

func newHTTPClient(opts ...Option) (*httpClient, error) {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		retry:    resilience.DefaultRetryConfig(),
		window:   resilience.DefaultWindowConfig(),
		ttls:     DefaultTTLs(),
		policies: DefaultFallbackPolicies(),
		limits:   DefaultLimits(),
	}
	for _, o := range opts {
		o(c)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, eris.Errorf("georef: invalid base url %q", c.baseURL)
	}
	if c.fallback == nil {
		c.fallback = DefaultFallback()
	}

	c.cache, err = newResponseCache(c.ttls.Default, c.cacheSize)
	if err != nil {
		return nil, err
	}
	c.limiter = resilience.NewWindowLimiter(c.window)
	return c, nil
}
