package ai

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"agridocs/internal/config"
)

// retrier runs completion calls with bounded exponential backoff.
// Sleeping goes through an injected function so tests use a fake
// clock.
type retrier struct {
	maxRetries int
	base       time.Duration
	cap        time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	jitter     func(d time.Duration) time.Duration
}

func newRetrier(cfg config.AIConfig) *retrier {
	return &retrier{
		maxRetries: cfg.MaxRetries,
		base:       cfg.BackoffBase,
		cap:        cfg.BackoffCap,
		sleep:      sleepCtx,
		jitter:     fullJitter,
	}
}

// retryable reports whether an error is worth retrying: rate limits
// and server-side failures. Client-side errors (bad request, auth)
// fail immediately.
func retryable(err error) bool {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	return strings.Contains(err.Error(), "(status 5")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fullJitter picks a uniform duration in [d/2, d].
func fullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// do runs fn up to maxRetries+1 times, waiting per backoff between
// attempts.
func (r *retrier) do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt >= r.maxRetries {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := r.backoff(attempt, lastErr)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// backoff computes the wait before retry attempt+1: base doubled per
// attempt, replaced by the provider's Retry-After when one was sent
// and is longer, capped either way, then jittered. A 429 without the
// header keeps the doubling schedule.
func (r *retrier) backoff(attempt int, err error) time.Duration {
	wait := r.base << attempt

	var rle *RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > 0 && rle.RetryAfter > wait {
		wait = rle.RetryAfter
	}
	if wait > r.cap {
		wait = r.cap
	}
	return r.jitter(wait)
}
