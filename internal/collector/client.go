package collector

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/newthinker/sentinel/internal/core"
)

const (
	defaultRatePerSec = 1
	defaultBurst      = 1
	defaultMaxRetries = 3
	baseRetryWait     = 500 * time.Millisecond
)

// Client is a rate-limited HTTP getter that retries transport errors, 429
// and 5xx responses with exponential backoff.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryWait  time.Duration
	logger     *zap.Logger
}

// NewClient builds a Client from cfg, filling unset limits with defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = defaultRatePerSec
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	return &Client{
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(perSec), burst),
		maxRetries: retries,
		retryWait:  baseRetryWait,
		logger:     logger,
	}
}

// Get fetches url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, core.WrapError(core.ErrCollectorFailed, err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == c.maxRetries || ctx.Err() != nil {
				return nil, core.Errorf(core.ErrCollectorFailed, "request failed after %d retries: %w", c.maxRetries, err)
			}
			c.logger.Warn("request failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == c.maxRetries {
				return nil, core.Errorf(core.ErrCollectorFailed, "status %d after %d retries", resp.StatusCode, c.maxRetries)
			}
			c.logger.Warn("retryable status", zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1))
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, core.Errorf(core.ErrCollectorFailed, "client error %d: %s", resp.StatusCode, body)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, core.Errorf(core.ErrCollectorFailed, "reading body: %w", err)
		}
		return body, nil
	}
	return nil, core.Errorf(core.ErrCollectorFailed, "exhausted %d retries", c.maxRetries)
}

func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
