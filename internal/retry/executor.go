// Package retry runs outbound HTTP requests with bounded retries,
// full-jitter exponential backoff and per-attempt timeouts.
package retry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"slices"
	"time"

	"google.golang.org/api/googleapi"

	"taskbridge/internal/metrics"
)

// Config defines retry behavior for one logical request.
type Config struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	PerAttemptTimeout time.Duration
	RetryableStatuses []int
}

// DefaultConfig is the process-wide default policy.
var DefaultConfig = Config{
	MaxRetries:        3,
	BaseDelay:         1000 * time.Millisecond,
	MaxDelay:          4000 * time.Millisecond,
	PerAttemptTimeout: 1500 * time.Millisecond,
	RetryableStatuses: []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	},
}

// Retryable reports whether status is in the retryable set.
func (c Config) Retryable(status int) bool {
	return slices.Contains(c.RetryableStatuses, status)
}

// AttemptFunc performs one physical attempt under the attempt context.
type AttemptFunc func(ctx context.Context) (*http.Response, error)

// Executor issues logical requests as a bounded sequence of attempts.
// It never interprets error bodies; the final response is returned as-is.
type Executor struct {
	cfg    Config
	logger *slog.Logger

	rand  func() float64
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Executor with cfg as its default policy.
func New(cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		cfg:    cfg,
		logger: logger,
		rand:   rand.Float64,
		sleep:  sleepContext,
	}
}

// Config returns the executor's default policy.
func (e *Executor) Config() Config {
	return e.cfg
}

// Do runs fn under the default policy.
func (e *Executor) Do(ctx context.Context, fn AttemptFunc) (*http.Response, error) {
	return e.DoWithConfig(ctx, e.cfg, fn)
}

// DoWithConfig runs fn under cfg.
//
// A response with a non-retryable status is returned immediately. A
// retryable status on the last attempt is returned without an error.
// Network failures and attempt timeouts are retried; on the last attempt the
// error is returned. Cancellation of ctx is never retried.
//
// The returned response body is fully buffered and safe to read after the
// attempt context has ended.
func (e *Executor) DoWithConfig(ctx context.Context, cfg Config, fn AttemptFunc) (*http.Response, error) {
	start := time.Now()
	defer func() {
		metrics.HTTPRequestDuration.Observe(time.Since(start).Seconds())
	}()

	for attempt := 0; ; attempt++ {
		resp, err := e.attempt(ctx, cfg, fn)

		if err != nil {
			if ctx.Err() != nil {
				metrics.HTTPAttempts.WithLabelValues("cancelled").Inc()
				return nil, fmt.Errorf("request cancelled: %w", errors.Join(ctx.Err(), err))
			}
			outcome := "network_error"
			if errors.Is(err, context.DeadlineExceeded) {
				outcome = "timeout"
			}
			metrics.HTTPAttempts.WithLabelValues(outcome).Inc()
			if attempt >= cfg.MaxRetries {
				return nil, fmt.Errorf("failed after %d attempts: %w", attempt+1, err)
			}
		} else {
			if !cfg.Retryable(resp.StatusCode) {
				metrics.HTTPAttempts.WithLabelValues(statusOutcome(resp.StatusCode)).Inc()
				return resp, nil
			}
			metrics.HTTPAttempts.WithLabelValues("retryable_status").Inc()
			if attempt >= cfg.MaxRetries {
				return resp, nil
			}
		}

		delay := calculateBackoff(attempt, cfg, e.rand())
		e.logRetry(ctx, attempt, delay, resp, err)
		metrics.HTTPRetries.Inc()

		if err := e.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("request cancelled: %w", err)
		}
	}
}

// attempt runs fn under its own timeout and buffers the body so the timeout
// covers the whole exchange.
func (e *Executor) attempt(ctx context.Context, cfg Config, fn AttemptFunc) (*http.Response, error) {
	if cfg.PerAttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.PerAttemptTimeout)
		defer cancel()
	}

	resp, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	googleapi.CloseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (e *Executor) logRetry(ctx context.Context, attempt int, delay time.Duration, resp *http.Response, err error) {
	attrs := []any{
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
	}
	if resp != nil {
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
		if resp.Request != nil {
			attrs = append(attrs, slog.String("method", resp.Request.Method), slog.String("path", resp.Request.URL.Path))
		}
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	e.logger.DebugContext(ctx, "retrying request", attrs...)
}

// calculateBackoff draws the full-jitter delay before the retry that follows
// attempt: uniform over [0, min(MaxDelay, BaseDelay*2^attempt)]. r is a
// uniform draw from [0, 1).
func calculateBackoff(attempt int, cfg Config, r float64) time.Duration {
	if cfg.BaseDelay <= 0 {
		return 0
	}
	ceiling := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if ceiling > float64(cfg.MaxDelay) {
		ceiling = float64(cfg.MaxDelay)
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(r * ceiling)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func statusOutcome(status int) string {
	if status >= 200 && status < 300 {
		return "success"
	}
	return "status"
}
