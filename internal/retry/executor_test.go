package retry

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(cfg Config) (*Executor, *[]time.Duration) {
	var delays []time.Duration
	e := New(cfg, nil)
	e.rand = func() float64 { return 0.5 }
	e.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return e, &delays
}

func statusFunc(calls *int, status int) AttemptFunc {
	return func(ctx context.Context) (*http.Response, error) {
		*calls++
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(`{"attempt":true}`)),
		}, nil
	}
}

func TestDo_RetryableStatusExhaustsAttempts(t *testing.T) {
	for _, r := range []int{0, 1, 3, 5} {
		cfg := DefaultConfig
		cfg.MaxRetries = r
		e, delays := newTestExecutor(cfg)

		calls := 0
		resp, err := e.Do(context.Background(), statusFunc(&calls, http.StatusServiceUnavailable))

		require.NoError(t, err, "maxRetries=%d", r)
		assert.Equal(t, r+1, calls, "maxRetries=%d", r)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Len(t, *delays, r, "no sleep after the last attempt")
	}
}

func TestDo_NonRetryableStatusSingleAttempt(t *testing.T) {
	for _, status := range []int{200, 201, 204, 400, 401, 403, 404, 409, 412, 422, 501} {
		e, delays := newTestExecutor(DefaultConfig)

		calls := 0
		resp, err := e.Do(context.Background(), statusFunc(&calls, status))

		require.NoError(t, err)
		assert.Equal(t, 1, calls, "status=%d", status)
		assert.Equal(t, status, resp.StatusCode)
		assert.Empty(t, *delays)
	}
}

func TestDo_RecoversAfterRetryableStatus(t *testing.T) {
	e, _ := newTestExecutor(DefaultConfig)

	calls := 0
	fn := func(ctx context.Context) (*http.Response, error) {
		calls++
		status := http.StatusTooManyRequests
		if calls == 3 {
			status = http.StatusOK
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader("ok"))}, nil
	}

	resp, err := e.Do(context.Background(), fn)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_NetworkErrorRetried(t *testing.T) {
	e, delays := newTestExecutor(DefaultConfig)

	calls := 0
	netErr := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	fn := func(ctx context.Context) (*http.Response, error) {
		calls++
		return nil, netErr
	}

	resp, err := e.Do(context.Background(), fn)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, netErr)
	assert.Equal(t, DefaultConfig.MaxRetries+1, calls)
	assert.Len(t, *delays, DefaultConfig.MaxRetries)
}

func TestDo_CallerCancellationNotRetried(t *testing.T) {
	e, delays := newTestExecutor(DefaultConfig)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	fn := func(ctx context.Context) (*http.Response, error) {
		calls++
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := e.Do(ctx, fn)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestDo_AttemptTimeoutRetried(t *testing.T) {
	cfg := DefaultConfig
	cfg.PerAttemptTimeout = 20 * time.Millisecond
	e, _ := newTestExecutor(cfg)

	calls := 0
	fn := func(ctx context.Context) (*http.Response, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}

	resp, err := e.Do(context.Background(), fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_TimeoutCoversBodyRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig
	cfg.MaxRetries = 0
	cfg.PerAttemptTimeout = 50 * time.Millisecond
	e, _ := newTestExecutor(cfg)

	start := time.Now()
	_, err := e.Do(context.Background(), func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		if err != nil {
			return nil, err
		}
		return srv.Client().Do(req)
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDo_BodyReadableAfterReturn(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"id":"L1"}`)
	}))
	defer srv.Close()

	e, _ := newTestExecutor(DefaultConfig)
	resp, err := e.Do(context.Background(), func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		if err != nil {
			return nil, err
		}
		return srv.Client().Do(req)
	})
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"L1"}`, string(body))
	assert.Equal(t, int32(2), hits.Load())
}

func TestDo_SleepCancelled(t *testing.T) {
	cfg := DefaultConfig
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = time.Hour
	e := New(cfg, nil)
	e.rand = func() float64 { return 0.99 }

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := e.Do(ctx, statusFunc(&calls, http.StatusInternalServerError))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroBaseDelayNeverSleeps(t *testing.T) {
	cfg := DefaultConfig
	cfg.BaseDelay = 0
	e, delays := newTestExecutor(cfg)

	calls := 0
	_, err := e.Do(context.Background(), statusFunc(&calls, http.StatusBadGateway))
	require.NoError(t, err)

	for _, d := range *delays {
		assert.Zero(t, d)
	}
}

func TestDoWithConfig_OverridesDefault(t *testing.T) {
	e, _ := newTestExecutor(DefaultConfig)

	cfg := DefaultConfig
	cfg.MaxRetries = 1
	cfg.RetryableStatuses = []int{http.StatusNotFound}

	calls := 0
	resp, err := e.DoWithConfig(context.Background(), cfg, statusFunc(&calls, http.StatusNotFound))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		r       float64
		want    time.Duration
	}{
		{0, 0.5, 500 * time.Millisecond},
		{1, 0.5, 1000 * time.Millisecond},
		{2, 0.5, 2000 * time.Millisecond},
		{3, 0.5, 2000 * time.Millisecond}, // capped at 4s
		{10, 0.25, 1000 * time.Millisecond},
		{0, 0, 0},
	}

	for _, tt := range tests {
		got := calculateBackoff(tt.attempt, DefaultConfig, tt.r)
		assert.Equal(t, tt.want, got, "attempt=%d r=%v", tt.attempt, tt.r)
	}
}

func TestCalculateBackoff_Bounds(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 3 * time.Second}

	for attempt := 0; attempt < 12; attempt++ {
		ceiling := min(cfg.MaxDelay, cfg.BaseDelay*time.Duration(1<<attempt))
		for i := 0; i < 200; i++ {
			d := calculateBackoff(attempt, cfg, rand.Float64())
			if d < 0 || d > ceiling {
				t.Fatalf("attempt %d: delay %v outside [0, %v]", attempt, d, ceiling)
			}
		}
	}
}

func TestCalculateBackoff_Jitter(t *testing.T) {
	seen := make(map[time.Duration]bool)
	for i := 0; i < 20; i++ {
		seen[calculateBackoff(2, DefaultConfig, rand.Float64())] = true
	}
	assert.Greater(t, len(seen), 1, "expected jittered delays to differ")
}

func TestConfigRetryable(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503, 504} {
		assert.True(t, DefaultConfig.Retryable(status), "status=%d", status)
	}
	for _, status := range []int{200, 400, 404, 409, 501} {
		assert.False(t, DefaultConfig.Retryable(status), "status=%d", status)
	}
}
