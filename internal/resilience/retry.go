package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig bounds the attempts made for one upstream call.
type RetryConfig struct {
	// Attempts is the total number of tries. 1 disables retries.
	Attempts int

	// Backoff is the delay before the first retry; it doubles per attempt
	// up to MaxBackoff, with up to 50% added jitter.
	Backoff    time.Duration
	MaxBackoff time.Duration

	// Name labels retry log lines.
	Name string
}

// NoRetry makes a single attempt.
func NoRetry(name string) RetryConfig {
	return RetryConfig{Attempts: 1, Name: name}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 1
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	return c
}

// DoVal runs fn until it succeeds, returns a non-transient error, the
// attempts run out, or ctx is done. The last error is returned.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	for attempt := range cfg.Attempts {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) || attempt == cfg.Attempts-1 {
			break
		}

		zap.L().Warn("resilience: retrying",
			zap.String("call", cfg.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if !sleep(ctx, backoff(attempt, cfg)) {
			break
		}
	}
	return zero, lastErr
}

func backoff(attempt int, cfg RetryConfig) time.Duration {
	d := time.Duration(float64(cfg.Backoff) * math.Pow(2, float64(attempt)))
	if d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}
	return d
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
