package amul_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkhanna/amulwatch/internal/amul"
)

func TestLimiter_DailyBudget(t *testing.T) {
	t.Parallel()

	l := amul.NewLimiter(1000, 1000, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.Equal(t, int64(3), l.DailyCount())

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, amul.ErrDailyBudgetExhausted)
}

func TestLimiter_WindowReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	l := amul.NewLimiter(1000, 1000, 1, amul.WithLimiterNowFunc(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	require.ErrorIs(t, l.Wait(ctx), amul.ErrDailyBudgetExhausted)

	// A day later the budget is fresh.
	now = now.Add(25 * time.Hour)
	require.NoError(t, l.Wait(ctx))
	assert.Equal(t, int64(1), l.DailyCount())
}

func TestLimiter_ContextCanceled(t *testing.T) {
	t.Parallel()

	// Zero-burst bucket never admits, so Wait must fall through to the
	// context error.
	l := amul.NewLimiter(0.001, 1, 10)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Wait(ctx)) // consumes the single burst token

	cancel()
	err := l.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
