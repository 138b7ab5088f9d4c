package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// GitHubRateLimit is the authenticated rate limit (5000/hour).
	GitHubRateLimit = 5000

	// ProactiveRate is the proactive throttle rate (~1.2 req/sec = 4320/hr).
	ProactiveRate = 1.2

	// RetryFloor is the minimum wait before retrying a rate-limited request.
	// It guards against a missing, zero or backwards reset header.
	RetryFloor = 10 * time.Second

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "x-ratelimit-remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "x-ratelimit-reset"
)

// RateLimiter combines proactive throttling with reactive state derived from
// response headers. One RateLimiter is shared by every fetch in a run: the
// rate limit is account-wide, not per connection, so parallel workers must
// consult the same clock.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
	bucket    *rate.Limiter
}

// NewRateLimiter creates a rate limiter with proactive throttling enabled.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithRate(ProactiveRate)
}

// NewRateLimiterWithRate creates a rate limiter with a custom proactive
// request rate in requests per second.
func NewRateLimiterWithRate(perSecond float64) *RateLimiter {
	return &RateLimiter{
		remaining: GitHubRateLimit,
		bucket:    rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Wait blocks until the proactive throttle admits the next request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.bucket.Wait(ctx)
}

// UpdateFromResponse records rate limit state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := resp.Header.Get(HeaderRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			r.remaining = val
		}
	}
	if reset := resp.Header.Get(HeaderRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			r.resetTime = time.Unix(val, 0)
		}
	}
}

// Exhausted reports whether the response is a rate-limit rejection: a 403
// whose remaining-requests header reads zero.
func Exhausted(resp *http.Response) bool {
	return resp != nil &&
		resp.StatusCode == http.StatusForbidden &&
		resp.Header.Get(HeaderRateRemaining) == "0"
}

// RetryDelay computes how long to wait before retrying a rate-limited
// request: the server's stated reset time relative to now, never less than
// RetryFloor. A missing or unparsable reset header forces the floor.
func RetryDelay(resp *http.Response, now time.Time) time.Duration {
	delay := RetryFloor

	if reset := resp.Header.Get(HeaderRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			if until := time.Unix(val, 0).Sub(now); until > delay {
				delay = until
			}
		}
	}
	return delay
}

// Remaining returns the last observed remaining-request count.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// ResetTime returns the last observed reset time.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}
