// Package omdb provides a client for the OMDb movie metadata API with rate
// limiting, a daily call budget, and retry on transient failures.
package omdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/resilience"
)

// Outcome classifies the result of a lookup.
type Outcome int

const (
	// OutcomeMatch means the service returned metadata for the title.
	OutcomeMatch Outcome = iota
	// OutcomeNotFound means the service definitively knows no such movie.
	OutcomeNotFound
	// OutcomeError means all attempts failed; the title may still exist.
	OutcomeError
	// OutcomeBudgetExhausted means the daily call ceiling was reached before
	// any network attempt. Callers should treat this as a soft stop.
	OutcomeBudgetExhausted
)

// Result is the outcome of a single lookup. Metadata is set only for
// OutcomeMatch.
type Result struct {
	Outcome  Outcome
	Metadata *model.MovieMetadata
}

// Usage reports call-budget consumption for the current process lifetime.
type Usage struct {
	CallsMade      int
	CallsRemaining int
	DailyLimit     int
}

// Client defines the OMDb lookup operations.
type Client interface {
	// Lookup resolves a title (and optional release year, 0 = unknown) to
	// metadata. Transient failures are retried; a returned OutcomeError
	// carries the last attempt's error alongside.
	Lookup(ctx context.Context, title string, year int) (*Result, error)

	// Usage returns call-budget statistics.
	Usage() Usage
}

// Option configures the OMDb client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithDailyLimit sets the daily call ceiling (0 disables the ceiling).
func WithDailyLimit(n int) Option {
	return func(c *httpClient) {
		c.dailyLimit = n
	}
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetry overrides the retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.timeout = d
	}
}

type httpClient struct {
	apiKey     string
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	timeout    time.Duration
	dailyLimit int
	callsMade  int
}

// NewClient creates an OMDb client. The client is not safe for concurrent
// use: the call counter is owned by the sequential enrichment loop.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		baseURL:    "http://www.omdbapi.com/",
		http:       &http.Client{},
		limiter:    rate.NewLimiter(5, 1),
		retry:      resilience.DefaultRetryConfig(),
		timeout:    10 * time.Second,
		dailyLimit: 1000,
	}
	c.retry.OnRetry = resilience.RetryLogger("omdb", "lookup")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Usage() Usage {
	remaining := 0
	if c.dailyLimit > 0 {
		remaining = c.dailyLimit - c.callsMade
		if remaining < 0 {
			remaining = 0
		}
	}
	return Usage{
		CallsMade:      c.callsMade,
		CallsRemaining: remaining,
		DailyLimit:     c.dailyLimit,
	}
}

func (c *httpClient) Lookup(ctx context.Context, title string, year int) (*Result, error) {
	// Checked before any attempt: at the ceiling the lookup returns
	// immediately with no network activity.
	if c.dailyLimit > 0 && c.callsMade >= c.dailyLimit {
		zap.L().Warn("omdb daily call budget exhausted",
			zap.Int("limit", c.dailyLimit),
			zap.String("title", title),
		)
		return &Result{Outcome: OutcomeBudgetExhausted}, nil
	}

	raw, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*payload, error) {
		return c.attempt(ctx, title, year)
	})
	if err != nil {
		zap.L().Warn("omdb lookup failed after retries",
			zap.String("title", title),
			zap.Error(err),
		)
		return &Result{Outcome: OutcomeError}, err
	}

	// A well-formed "False" response is a definitive miss, never retried.
	if raw.NotFound() {
		zap.L().Debug("omdb title not found", zap.String("title", title))
		return &Result{Outcome: OutcomeNotFound}, nil
	}

	return &Result{Outcome: OutcomeMatch, Metadata: raw.toMetadata()}, nil
}

// attempt issues one rate-limited network request with the per-attempt
// timeout. Transient failures come back wrapped so the retry layer sleeps
// and tries again; anything else is terminal.
func (c *httpClient) attempt(ctx context.Context, title string, year int) (*payload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "omdb: rate limiter")
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	params.Set("type", "movie")
	params.Set("plot", "short")
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "omdb: create request")
	}
	req.Header.Set("Accept", "application/json")

	c.callsMade++

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "omdb: request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "omdb: read response body")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("omdb: status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode,
		)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("omdb: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var raw payload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "omdb: unmarshal response")
	}

	return &raw, nil
}
