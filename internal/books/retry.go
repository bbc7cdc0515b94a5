package books

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"
)

// RetryStrategy defines exponential backoff retry logic for API calls
type RetryStrategy struct {
	MaxAttempts int           // Default: 3
	BaseBackoff time.Duration // Default: 1 second
	MaxBackoff  time.Duration // Default: 8 seconds
	Jitter      bool          // Enable jitter (default: true)
}

// NewRetryStrategy creates a new RetryStrategy with defaults
func NewRetryStrategy(maxAttempts int) *RetryStrategy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryStrategy{
		MaxAttempts: maxAttempts,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  8 * time.Second,
		Jitter:      true,
	}
}

// CalculateBackoff returns duration until next retry attempt.
// Exponential: 1s, 2s, 4s, 8s...
func (s *RetryStrategy) CalculateBackoff(attemptNumber int) time.Duration {
	if attemptNumber <= 0 {
		return s.BaseBackoff
	}

	multiplier := math.Pow(2, float64(attemptNumber-1))
	backoff := time.Duration(multiplier) * s.BaseBackoff

	if backoff > s.MaxBackoff {
		backoff = s.MaxBackoff
	}

	if s.Jitter {
		// ±10% of backoff
		jitterRange := backoff / 10
		if jitterRange > 0 {
			jitter := time.Duration(rand.Int63n(int64(jitterRange*2))) - jitterRange
			backoff = backoff + jitter
			if backoff < s.BaseBackoff {
				backoff = s.BaseBackoff
			}
		}
	}

	return backoff
}

// IsTemporaryError determines if a transport error is retryable
func (s *RetryStrategy) IsTemporaryError(err error) bool {
	if err == nil {
		return false
	}

	// the caller's own context ending is never retried
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "reset by peer") {
		return true
	}

	return false
}

// IsRetryableStatusCode determines if HTTP status warrants retry
func (s *RetryStrategy) IsRetryableStatusCode(statusCode int) bool {
	// Permanent errors: 4xx except 429
	if statusCode >= 400 && statusCode < 500 {
		return statusCode == http.StatusTooManyRequests
	}

	return statusCode >= 500 && statusCode < 600
}

// wait sleeps for the backoff of the given attempt or until ctx is done
func (s *RetryStrategy) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(s.CalculateBackoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
