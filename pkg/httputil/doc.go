// Package httputil provides retry helpers for registry HTTP clients.
//
// # Retry
//
// [Retry] re-runs an operation while it fails with a [RetryableError]:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// The delay doubles after each failed attempt. When the retryable error
// carries an [errors.RateLimitedError] with a RetryAfter hint, that hint is
// used instead (capped at [MaxRetryAfter]).
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return fetch(ctx, url)
//	})
//
// # Defaults
//
// [RetryWithBackoff] uses 3 attempts with a 1 second initial delay.
//
// [errors.RateLimitedError]: github.com/matzehuels/releasetower/pkg/errors.RateLimitedError
package httputil
