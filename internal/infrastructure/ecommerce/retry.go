package ecommerce

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Backoff tuning for retryable platform failures.
const (
	retryBaseDelay     = 750 * time.Millisecond
	retryMaxDelay      = 5 * time.Second
	retryMaxRetryAfter = 15 * time.Second
)

// isRetryableStatus reports whether a response status warrants another attempt.
// Client errors other than timeout and rate limiting are permanent.
func isRetryableStatus(status int) bool {
	switch {
	case status == http.StatusRequestTimeout:
		return true
	case status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

// retryDelay computes the wait before the given attempt (1-based). The
// upstream Retry-After hint wins over exponential backoff when present,
// capped so a misbehaving store cannot stall checkout indefinitely.
func retryDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter > retryMaxRetryAfter {
			return retryMaxRetryAfter
		}
		return retryAfter
	}

	delay := retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= retryMaxDelay {
			delay = retryMaxDelay
			break
		}
	}
	// Additive jitter up to 25% to spread concurrent retries
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

// parseRetryAfter extracts the Retry-After delay from a response, either as
// delta-seconds or an HTTP date. Returns 0 when absent or unparseable.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// sleepContext waits for the given duration or until the context is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
