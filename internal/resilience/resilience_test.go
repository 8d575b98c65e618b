package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{Attempts: attempts, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Name: "test"}
}

func TestStatusError(t *testing.T) {
	assert.True(t, IsTransient(StatusError(http.StatusServiceUnavailable, "http://x")))
	assert.True(t, IsTransient(StatusError(http.StatusTooManyRequests, "http://x")))
	assert.False(t, IsTransient(StatusError(http.StatusNotFound, "http://x")))

	var te *TransientError
	require.ErrorAs(t, StatusError(http.StatusBadGateway, "http://x"), &te)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errBoom))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(NewTransientError(errBoom, 0)))
}

func TestDoVal_SingleAttemptByDefault(t *testing.T) {
	var calls int
	_, err := DoVal(context.Background(), NoRetry("test"), func(context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errBoom, 503)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_RetriesTransient(t *testing.T) {
	var calls int
	v, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errBoom, 503)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestDoVal_StopsOnPermanent(t *testing.T) {
	var calls int
	_, err := DoVal(context.Background(), fastRetry(5), func(context.Context) (int, error) {
		calls++
		return 0, errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestDoVal_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := DoVal(ctx, fastRetry(5), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errBoom, 503)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := NewBreaker(BreakerConfig{Name: "tiles", Threshold: 2, Cooldown: time.Minute})
	b.now = func() time.Time { return now }

	fail := func(context.Context) (int, error) { return 0, NewTransientError(errBoom, 502) }
	for range 2 {
		_, _ = Call(context.Background(), b, fail)
	}
	assert.Equal(t, Open, b.State())

	called := false
	_, err := Call(context.Background(), b, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	assert.Equal(t, HalfOpen, b.State())

	v, err := Call(context.Background(), b, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := NewBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	fail := func(context.Context) (int, error) { return 0, NewTransientError(errBoom, 503) }
	_, _ = Call(context.Background(), b, fail)
	require.Equal(t, Open, b.State())

	now = now.Add(time.Second)
	_, _ = Call(context.Background(), b, fail)
	assert.Equal(t, Open, b.State())
}

func TestBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker(BreakerConfig{Threshold: 1})
	for range 3 {
		_, _ = Call(context.Background(), b, func(context.Context) (int, error) { return 0, errBoom })
	}
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, "closed", b.State().String())
}
