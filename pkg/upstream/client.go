// Package upstream provides the HTTP transport shared by the third-party
// player-data clients: rate limiting, retries with backoff, an optional
// response cache and per-provider metrics.
package upstream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the provider answers 404.
var ErrNotFound = eris.New("upstream: not found")

// StatusError carries a non-2xx response that was not retried away.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Code, e.Body)
}

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgrep_upstream_requests_total",
		Help: "Upstream API requests by provider and outcome",
	}, []string{"provider", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pgrep_upstream_request_duration_seconds",
		Help:    "Duration of upstream API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgrep_upstream_cache_hits_total",
		Help: "Upstream responses served from cache",
	}, []string{"provider"})
)

// Cache stores raw response bodies keyed by request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithCache enables response caching.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithRetry overrides the attempt count and initial backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		c.backoff = backoff
	}
}

// Client performs JSON GET/POST calls against one provider.
type Client struct {
	provider    string
	http        *http.Client
	limiter     *rate.Limiter
	cache       Cache
	headers     http.Header
	maxAttempts int
	backoff     time.Duration
}

// New creates a client for the named provider.
func New(provider string, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers:     http.Header{},
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
	c.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in metrics and errors.
func (c *Client) Provider() string {
	return c.provider
}

// GetJSON fetches rawURL and decodes the body into out. A positive ttl
// enables the response cache for this call.
func (c *Client) GetJSON(ctx context.Context, rawURL string, ttl time.Duration, out any) error {
	key := c.cacheKey(rawURL)
	if c.cache != nil && ttl > 0 {
		if body, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			if err := json.Unmarshal(body, out); err == nil {
				cacheHits.WithLabelValues(c.provider).Inc()
				return nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrapf(err, "%s: build request", c.provider)
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "%s: decode response", c.provider)
	}

	if c.cache != nil && ttl > 0 {
		_ = c.cache.Set(ctx, key, body, ttl)
	}
	return nil
}

// PostForm sends a form-encoded body and returns the raw response body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build request", c.provider)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(form)), nil
	}
	req.Body, _ = req.GetBody()
	req.ContentLength = int64(len(form))
	return c.do(ctx, req)
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	for k, vals := range c.headers {
		if req.Header.Get(k) == "" {
			req.Header[k] = vals
		}
	}

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	}()

	backoff := c.backoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				requestsTotal.WithLabelValues(c.provider, "canceled").Inc()
				return nil, eris.Wrapf(err, "%s: rate limiter", c.provider)
			}
		}

		retryReq := req.Clone(ctx)
		if req.GetBody != nil {
			retryReq.Body, _ = req.GetBody()
		}

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = eris.Wrapf(err, "%s: request", c.provider)
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = eris.Wrapf(readErr, "%s: read body", c.provider)
			case resp.StatusCode == http.StatusNotFound:
				requestsTotal.WithLabelValues(c.provider, "not_found").Inc()
				return nil, ErrNotFound
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				requestsTotal.WithLabelValues(c.provider, "ok").Inc()
				return body, nil
			default:
				lastErr = &StatusError{Provider: c.provider, Code: resp.StatusCode, Body: truncate(string(body), 200)}
				if !retryableStatusCode(resp.StatusCode) {
					requestsTotal.WithLabelValues(c.provider, "error").Inc()
					return nil, lastErr
				}
			}
		}

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				requestsTotal.WithLabelValues(c.provider, "canceled").Inc()
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	requestsTotal.WithLabelValues(c.provider, "error").Inc()
	return nil, lastErr
}

// cacheKey hashes the URL so API keys in query strings never reach the cache.
func (c *Client) cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return "pgrep:upstream:" + c.provider + ":" + hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
