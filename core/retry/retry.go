package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry loop with exponential backoff.
// The zero value is not useful; construct with DefaultPolicy or fill
// every field explicitly.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the sleep before the second attempt.
	Delay time.Duration

	// Backoff multiplies the delay after every failed attempt.
	Backoff float64

	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

// DefaultPolicy mirrors the scraper defaults: three attempts, two
// seconds initial delay, doubling between attempts.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Backoff:     2,
	}
}

// Do runs op until it succeeds, the error is classified as permanent,
// the attempt budget is exhausted, or ctx is cancelled. The last error
// is returned unwrapped so callers can inspect its kind.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.Delay
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = op(ctx); err == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		if attempt == attempts {
			break
		}

		if waitErr := sleep(ctx, delay); waitErr != nil {
			return waitErr
		}

		if p.Backoff > 0 {
			delay = time.Duration(float64(delay) * p.Backoff)
		}
	}

	return err
}

// sleep blocks for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
