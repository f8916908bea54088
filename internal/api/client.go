// Package api is the HTTP client for the books analytics API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/j-veylop/bookdash-tui/internal/logger"
	"github.com/j-veylop/bookdash-tui/internal/models"
)

// Endpoint paths.
const (
	EndpointBooks        = "/books"
	EndpointAvailability = "/analytics/availability"
	EndpointPriceStats   = "/analytics/price-stats"
	EndpointPriceBuckets = "/analytics/price-buckets"
	EndpointTitleWords   = "/analytics/title-words"
)

// Cache defaults for book listing pages.
const (
	DefaultCacheSize = 128
	DefaultCacheTTL  = 30 * time.Second
	DefaultTimeout   = 10 * time.Second
)

// Client talks to the analytics API. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   *expirable.LRU[string, *models.BooksPage]
	metrics *Metrics
	pages   singleflight.Group
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache sizes the book page cache. A size of zero disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, *models.BooksPage](size, nil, ttl)
	}
}

// WithMetrics records request metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host required", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		cache:   expirable.NewLRU[string, *models.BooksPage](DefaultCacheSize, nil, DefaultCacheTTL),
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Metrics returns the metrics sink, which may be nil.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// ListBooks fetches one page of books. Pages are served from the cache while
// fresh, and concurrent requests for the same page share one round trip
// under the first caller's context.
func (c *Client) ListBooks(ctx context.Context, params url.Values) (*models.BooksPage, error) {
	key := params.Encode()
	if c.cache != nil {
		if page, ok := c.cache.Get(key); ok {
			c.metrics.IncCacheHit()
			return page, nil
		}
	}

	v, err, _ := c.pages.Do(key, func() (any, error) {
		var page models.BooksPage
		if err := c.get(ctx, EndpointBooks, params, &page); err != nil {
			return nil, err
		}
		if page.Items == nil {
			page.Items = []models.Book{}
		}
		if c.cache != nil {
			c.cache.Add(key, &page)
		}
		return &page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.BooksPage), nil
}

// Availability fetches the availability breakdown.
func (c *Client) Availability(ctx context.Context) (*models.AvailabilityReport, error) {
	var report models.AvailabilityReport
	if err := c.get(ctx, EndpointAvailability, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// PriceStats fetches the price summary.
func (c *Client) PriceStats(ctx context.Context) (*models.PriceStats, error) {
	var stats models.PriceStats
	if err := c.get(ctx, EndpointPriceStats, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PriceBuckets fetches the price histogram for the given bucket width.
func (c *Client) PriceBuckets(ctx context.Context, bucketSize float64) ([]models.PriceBucket, error) {
	q := url.Values{}
	q.Set("bucket_size", strconv.FormatFloat(bucketSize, 'f', -1, 64))

	var resp models.PriceBuckets
	if err := c.get(ctx, EndpointPriceBuckets, q, &resp); err != nil {
		return nil, err
	}
	return resp.Buckets, nil
}

// TitleWords fetches the topN most frequent title words.
func (c *Client) TitleWords(ctx context.Context, topN int) ([]models.WordCount, error) {
	q := url.Values{}
	q.Set("top_n", strconv.Itoa(topN))

	var resp models.TitleWords
	if err := c.get(ctx, EndpointTitleWords, q, &resp); err != nil {
		return nil, err
	}
	return resp.Top, nil
}

// Purge drops every cached page.
func (c *Client) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// CachedPages returns the number of cached book pages.
func (c *Client) CachedPages() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL.JoinPath(endpoint)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		c.metrics.ObserveRequest(endpoint, outcome, time.Since(start))
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = OutcomeError
		if errors.Is(err, context.Canceled) {
			outcome = OutcomeCancelled
		}
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "endpoint", endpoint, "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = OutcomeError
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = OutcomeStatus
		return &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		outcome = OutcomeDecode
		return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}

	logger.Debug("api request", "endpoint", endpoint, "query", u.RawQuery, "duration", time.Since(start))
	return nil
}
