// Package retry provides the shared retry policy used by the session
// bootstrapper and the product fetcher: exponential backoff with
// jitter, a capped interval, and a fixed attempt budget.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes one retry budget. The zero value is not usable;
// construct via DefaultPolicy or from config.
type Policy struct {
	MaxAttempts  uint
	BaseInterval time.Duration
	MaxInterval  time.Duration

	// Notify, when set, is invoked before each backoff sleep with the
	// error that triggered the retry and the chosen delay.
	Notify func(err error, next time.Duration)
}

// DefaultPolicy matches the site's observed tolerance: four attempts,
// doubling from two seconds, capped at thirty.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  4,
		BaseInterval: 2 * time.Second,
		MaxInterval:  30 * time.Second,
	}
}

// Do runs op under the policy, returning the first successful value or
// the last error once the attempt budget is exhausted. Errors wrapped
// with Permanent stop retrying immediately.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseInterval
	bo.MaxInterval = p.MaxInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.5 // bounded jitter

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(p.MaxAttempts),
	}
	if p.Notify != nil {
		opts = append(opts, backoff.WithNotify(backoff.Notify(p.Notify)))
	}

	return backoff.Retry(ctx, backoff.Operation[T](op), opts...)
}

// Permanent marks err as non-retryable; Do returns it without
// consuming further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
