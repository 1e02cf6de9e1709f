// Package rates fetches exchange-rate tables from the remote rate provider.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"launchrates/internal/cache"
	"launchrates/internal/core"
)

// DefaultBaseURL is the public provider endpoint prefix.
const DefaultBaseURL = "https://api.exchangerate-api.com/v4"

const maxBodyBytes = 1 << 20

// Fetcher returns the rate table for a base currency.
type Fetcher interface {
	Fetch(ctx context.Context, base string) (core.RateTable, error)
}

// Publisher is notified after every successful remote fetch.
type Publisher interface {
	PublishRatesFetched(ctx context.Context, table core.RateTable, fetchedAt time.Time) error
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Cache keeps tables for a short time. Nil disables caching.
	Cache     cache.Cache[core.RateTable]
	Publisher Publisher
}

// Stats counts remote calls for the metrics endpoint.
type Stats struct {
	Requests int64
	Failures int64
}

// Client talks to the provider over HTTP. Concurrent requests for the same
// base share a single remote call; nothing is kept once it returns unless a
// cache is configured. There are no retries.
type Client struct {
	baseURL   string
	http      *http.Client
	cache     cache.Cache[core.RateTable]
	publisher Publisher
	group     singleflight.Group

	requests atomic.Int64
	failures atomic.Int64
}

var _ Fetcher = (*Client)(nil)

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:   baseURL,
		http:      hc,
		cache:     opts.Cache,
		publisher: opts.Publisher,
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Fetch returns the latest table for base. Transport, status and decoding
// failures wrap core.ErrRemoteFetch. The returned table is shared with other
// callers and must not be modified.
func (c *Client) Fetch(ctx context.Context, base string) (core.RateTable, error) {
	base, err := core.NormalizeCurrency(base)
	if err != nil {
		return core.RateTable{}, err
	}

	if c.cache != nil {
		if t, ok := c.cache.Get(base); ok {
			return t, nil
		}
	}

	// The remote call is shared with concurrent callers and bounded only by
	// the client timeout. A cancelled caller stops waiting for it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(base, func() (interface{}, error) {
		return c.fetchRemote(fetchCtx, base)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return core.RateTable{}, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "Rate fetch shared with concurrent caller", "base", base)
		}
		return res.Val.(core.RateTable), nil
	case <-ctx.Done():
		return core.RateTable{}, fmt.Errorf("%w: %w", core.ErrRemoteFetch, ctx.Err())
	}
}

func (c *Client) fetchRemote(ctx context.Context, base string) (core.RateTable, error) {
	c.requests.Add(1)
	start := time.Now()

	table, err := c.get(ctx, base)
	if err != nil {
		c.failures.Add(1)
		slog.WarnContext(ctx, "Rate fetch failed",
			"base", base,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return core.RateTable{}, err
	}

	slog.InfoContext(ctx, "Rates fetched",
		"base", base,
		"currencies", len(table.Rates),
		"duration_ms", time.Since(start).Milliseconds())

	if c.cache != nil {
		c.cache.Set(base, table)
	}
	if c.publisher != nil {
		if err := c.publisher.PublishRatesFetched(ctx, table, time.Now().UTC()); err != nil {
			slog.WarnContext(ctx, "Failed to publish rates fetched event", "base", base, "error", err)
		}
	}
	return table, nil
}

func (c *Client) get(ctx context.Context, base string) (core.RateTable, error) {
	url := fmt.Sprintf("%s/latest/%s", c.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("%w: build request: %v", core.ErrRemoteFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("%w: %v", core.ErrRemoteFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return core.RateTable{}, fmt.Errorf("%w: read body: %v", core.ErrRemoteFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.RateTable{}, fmt.Errorf("%w: status %d: %s", core.ErrRemoteFetch, resp.StatusCode, truncate(string(body), 200))
	}

	var payload latestResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.RateTable{}, fmt.Errorf("%w: decode: %v", core.ErrRemoteFetch, err)
	}
	if payload.Rates == nil {
		return core.RateTable{}, fmt.Errorf("%w: response has no rates", core.ErrRemoteFetch)
	}

	table := core.RateTable{Base: base, Rates: payload.Rates}
	if payload.Base != "" && !strings.EqualFold(payload.Base, base) {
		slog.WarnContext(ctx, "Provider returned a different base", "requested", base, "returned", payload.Base)
	}
	return table, nil
}

// Stats reports remote call counters.
func (c *Client) Stats() Stats {
	return Stats{Requests: c.requests.Load(), Failures: c.failures.Load()}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
