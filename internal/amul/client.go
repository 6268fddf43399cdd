// Package amul implements the shop.amul.com client: the per-request
// signature, the multi-step session bootstrap, and the batched product
// fetcher with per-item fallback.
package amul

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rkhanna/amulwatch/internal/config"
	"github.com/rkhanna/amulwatch/internal/metrics"
	"github.com/rkhanna/amulwatch/internal/retry"
)

// ErrProtocol marks a site-format contract violation, e.g. a
// session-info body without the expected prefix. Still retried, since
// format glitches can be transient CDN artifacts.
var ErrProtocol = errors.New("unexpected site response format")

// ErrFetchExhausted is returned when both the combined fetch and every
// per-item fallback request failed.
var ErrFetchExhausted = errors.New("product fetch exhausted all fallbacks")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code  int
	Stage string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Stage, e.Code)
}

// RegionResolver resolves a postal code to a substore code from local
// rules. ok=false means the server-side (raw pincode) path is needed.
type RegionResolver interface {
	Resolve(pin string) (code string, ok bool)
}

// Client talks to the shop API. One Client builds any number of
// ephemeral Sessions; the Client itself holds no per-run state.
type Client struct {
	baseURL     string
	browsePath  string
	sessionPath string
	prefsPath   string
	catalogPath string
	storeID     string
	pincode     string

	httpTimeout time.Duration
	resolver    RegionResolver
	limiter     *Limiter
	policy      retry.Policy
	log         *slog.Logger

	nowFunc  func() time.Time
	randFunc func(n int64) int64
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithLimiter injects an outbound request limiter. When set, every
// request goes through Wait() first.
func WithLimiter(l *Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = f
	}
}

// WithRandFunc overrides the randomness source for testing.
func WithRandFunc(f func(n int64) int64) Option {
	return func(c *Client) {
		c.randFunc = f
	}
}

// NewClient creates a shop API client from the site and region
// configuration.
func NewClient(site config.SiteConfig, region config.RegionConfig, resolver RegionResolver, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(site.BaseURL, "/"),
		browsePath:  site.BrowsePath,
		sessionPath: site.SessionPath,
		prefsPath:   site.PrefsPath,
		catalogPath: site.CatalogPath,
		storeID:     site.StoreID,
		pincode:     region.Pincode,
		httpTimeout: site.Timeout,
		resolver:    resolver,
		policy:      retry.DefaultPolicy(),
		log:         slog.Default(),
		nowFunc:     time.Now,
		randFunc:    rand.Int63n,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest issues one signed, rate-limited request within a session
// and returns the response body on 2xx. The signature is recomputed
// for every call because it embeds the current time.
func (c *Client) doRequest(
	ctx context.Context,
	sess *Session,
	method, path string,
	query url.Values,
	body io.Reader,
	stage string,
) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		metrics.DailyBudgetUsage.Set(float64(c.limiter.DailyCount()))
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", stage, err)
	}

	applyBrowserHeaders(req, c.randFunc)
	req.Header.Set("tid", c.signature(sess.seed))
	req.Header.Set("base_url", c.baseURL+c.browsePath)
	req.Header.Set("Referer", c.baseURL+c.browsePath)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	metrics.SiteRequestsTotal.WithLabelValues(stage).Inc()

	resp, err := sess.httpClient.Do(req)
	if err != nil {
		metrics.SiteRequestFailuresTotal.WithLabelValues(stage).Inc()
		return nil, fmt.Errorf("executing %s request: %w", stage, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SiteRequestFailuresTotal.WithLabelValues(stage).Inc()
		return nil, fmt.Errorf("reading %s response: %w", stage, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.SiteRequestFailuresTotal.WithLabelValues(stage).Inc()
		return nil, &StatusError{Code: resp.StatusCode, Stage: stage}
	}

	return data, nil
}
