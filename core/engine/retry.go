package engine

import (
	"context"
	"time"
)

// RetryPolicy bounds the retry behavior for transient store failures:
// exponential backoff starting at Backoff, at most Attempts tries. Only
// TransientErrors are retried; anything else fails immediately.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry matches the original jobs' behavior: three tries with a
// growing pause between them.
var DefaultRetry = RetryPolicy{Attempts: 3, Backoff: 500 * time.Millisecond}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultRetry.Attempts
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultRetry.Backoff
	}
	return p
}

// Do runs fn until it succeeds, fails permanently, exhausts attempts, or the
// context is canceled. It returns the number of attempts made and the last
// error.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) (int, error) {
	p = p.normalized()

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return attempt - 1, err
		}
		if err = fn(); err == nil {
			return attempt, nil
		}
		if !IsTransient(err) {
			return attempt, err
		}
		if attempt < p.Attempts {
			backoff := p.Backoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return attempt, ctx.Err()
			}
		}
	}
	return p.Attempts, err
}
