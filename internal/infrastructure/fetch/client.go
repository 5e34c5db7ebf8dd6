package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Config holds the politeness and retry settings of the page fetcher
type Config struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Client fetches rendered listing pages over HTTP
type Client struct {
	http        *resty.Client
	rateLimiter *rate.Limiter
	maxRetries  int
	backoff     time.Duration
	logger      *slog.Logger
}

// NewClient creates a new page fetcher
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 0.5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	client.SetHeader("Accept", "text/html,application/xhtml+xml")

	return &Client{
		http:        client,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.RetryBackoff,
		logger:      logger.With("component", "fetch"),
	}
}

// FetchPage implements domain.PageFetcher. Transient failures and 5xx/429
// responses are retried; other 4xx responses fail immediately.
func (c *Client) FetchPage(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.http.R().SetContext(ctx).Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("request error", "url", url, "attempt", attempt, "error", err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
			if !c.wait(ctx, attempt) {
				return nil, ctx.Err()
			}
			continue
		}

		status := resp.StatusCode()
		if status == http.StatusOK {
			c.logger.Debug("page fetched", "url", url, "bytes", len(resp.Body()), "duration", resp.Time())
			return resp.Body(), nil
		}

		lastErr = fmt.Errorf("%w: status %d", domain.ErrFetchFailed, status)
		if status < 500 && status != http.StatusTooManyRequests {
			return nil, lastErr
		}
		c.logger.Warn("retryable status", "url", url, "attempt", attempt, "status", status)
		if !c.wait(ctx, attempt) {
			return nil, ctx.Err()
		}
	}

	c.logger.Error("all retries failed", "url", url, "error", lastErr)
	return nil, lastErr
}

// wait sleeps a linear backoff, returning false when the context ends first
func (c *Client) wait(ctx context.Context, attempt int) bool {
	timer := time.NewTimer(time.Duration(attempt) * c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
