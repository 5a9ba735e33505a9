// Package reliability holds small retry helpers for calls to hosted services.
package reliability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryableStatus reports whether an HTTP status from an upstream API is worth
// retrying.
func RetryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Backoff doubles base per attempt and caps the result.
func Backoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}

// StatusError carries an upstream HTTP status so Do can classify it.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Code)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

// Policy bounds Do.
type Policy struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
}

var DefaultPolicy = Policy{Attempts: 3, Base: 200 * time.Millisecond, Cap: 2 * time.Second}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run
// out. Only *StatusError values with a retryable code are retried.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		var se *StatusError
		if !errors.As(err, &se) || !RetryableStatus(se.Code) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(Backoff(attempt, p.Base, p.Cap))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
