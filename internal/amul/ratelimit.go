package amul

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyBudgetExhausted is returned when the rolling daily request
// budget has been spent.
var ErrDailyBudgetExhausted = errors.New("daily request budget exhausted")

// Limiter keeps outbound traffic polite: a token bucket caps the
// per-second rate and a rolling 24-hour window caps total requests.
// A single run is sequential, but the limiter also protects tight
// retry loops from hammering the site.
type Limiter struct {
	bucket   *rate.Limiter
	maxDaily int64

	mu      sync.Mutex
	daily   int64
	resetAt time.Time
	nowFunc func() time.Time
}

// LimiterOption configures the Limiter.
type LimiterOption func(*Limiter)

// WithLimiterNowFunc overrides the time function for testing.
func WithLimiterNowFunc(f func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.nowFunc = f
	}
}

// NewLimiter creates a limiter with the given per-second rate, burst
// size, and daily budget. The daily window resets 24 hours after the
// first request in each window.
func NewLimiter(perSecond float64, burst int, maxDaily int64, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resetAt = l.nowFunc().Add(24 * time.Hour)
	return l
}

// Wait blocks until the limiter allows the next request, or the
// context is canceled. Returns ErrDailyBudgetExhausted when the daily
// budget has been spent.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := l.nowFunc()
	if now.After(l.resetAt) {
		l.daily = 0
		l.resetAt = now.Add(24 * time.Hour)
	}
	if l.daily >= l.maxDaily {
		used := l.daily
		l.mu.Unlock()
		return fmt.Errorf("%w (%d/%d)", ErrDailyBudgetExhausted, used, l.maxDaily)
	}
	l.daily++
	l.mu.Unlock()

	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// DailyCount returns the requests consumed in the current window.
func (l *Limiter) DailyCount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.daily
}
