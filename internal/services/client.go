// Rate-limited HTTP client shared by all platform adapters.
package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackx/internal/shared"
	"golang.org/x/time/rate"
)

// BackoffPolicy controls retry behavior for rate-limited upstream responses.
type BackoffPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxRetries   int
}

// DefaultBackoff returns the backoff policy used when a platform has no
// specific configuration.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
		MaxRetries:   3,
	}
}

// NewConfiguredClient builds a [RateLimitedClient] from a platform's
// configured rate limits. Unset fields fall back to fallbackInterval and
// [DefaultBackoff], so a zero [shared.RateLimitConfig] yields the platform's
// built-in defaults.
func NewConfiguredClient(limits shared.RateLimitConfig, fallbackInterval time.Duration, logger *log.Logger) *RateLimitedClient {
	interval := fallbackInterval
	if limits.MinIntervalMS > 0 {
		interval = time.Duration(limits.MinIntervalMS) * time.Millisecond
	}

	backoff := DefaultBackoff()
	if limits.MaxRetries > 0 {
		backoff.MaxRetries = limits.MaxRetries
	}
	if limits.InitialBackoffMS > 0 {
		backoff.InitialDelay = time.Duration(limits.InitialBackoffMS) * time.Millisecond
	}
	if limits.MaxBackoffMS > 0 {
		backoff.MaxDelay = time.Duration(limits.MaxBackoffMS) * time.Millisecond
	}

	return NewRateLimitedClient(interval, backoff, logger)
}

// RateLimitedClient wraps an [http.Client] with two behaviors: requests are
// spaced at least minInterval apart, and 503/429 responses are retried with
// exponential backoff up to MaxRetries. Any other non-2xx status fails
// immediately without retry.
//
// The limiter state is owned exclusively by one adapter; concurrent use by a
// single adapter is safe, but adapters never share clients.
type RateLimitedClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    BackoffPolicy
	logger     *log.Logger
}

// NewRateLimitedClient creates a client enforcing the given minimum interval
// between requests. A zero or negative interval disables spacing.
func NewRateLimitedClient(minInterval time.Duration, backoff BackoffPolicy, logger *log.Logger) *RateLimitedClient {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	if backoff.Multiplier < 1 {
		backoff = DefaultBackoff()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &RateLimitedClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		backoff:    backoff,
		logger:     logger,
	}
}

// Do executes the request, waiting out the minimum interval first and retrying
// rate-limited responses. The caller receives either a 2xx response (body open)
// or a terminal error.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	delay := c.backoff.InitialDelay

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			if attempt >= c.backoff.MaxRetries {
				return nil, fmt.Errorf("%w: status %d after %d retries", shared.ErrRateLimited, resp.StatusCode, attempt)
			}

			c.logger.Debug("rate limited, backing off",
				"status", resp.StatusCode, "attempt", attempt+1, "delay", delay)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * c.backoff.Multiplier)
			if delay > c.backoff.MaxDelay {
				delay = c.backoff.MaxDelay
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
		}

		return resp, nil
	}
}
