// Package retry provides the bounded-retry-with-backoff policy shared by
// every transient-failure site. There is no unbounded retry anywhere in
// this module.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultInitialInterval = 500 * time.Millisecond

// Do runs op, retrying transient failures up to maxRetries additional times
// with exponential backoff. Errors wrapped with Permanent stop immediately.
func Do(ctx context.Context, maxRetries uint64, op func() error) error {
	return DoWithInterval(ctx, maxRetries, defaultInitialInterval, op)
}

// DoWithInterval is Do with a custom initial backoff interval.
func DoWithInterval(ctx context.Context, maxRetries uint64, initial time.Duration, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initial

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx))
}

// Permanent marks err as non-retryable so Do surfaces it without further
// attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
