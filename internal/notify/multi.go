package notify

import (
	"context"
	"log/slog"

	"github.com/rkhanna/amulwatch/internal/metrics"
)

// Multi fans an alert out to every configured channel. A channel
// failure is logged and counted but never escalated: one channel going
// down must not silence the others, nor fail the run.
type Multi struct {
	channels []Notifier
	log      *slog.Logger
}

// NewMulti creates a fan-out over the given channels.
func NewMulti(log *slog.Logger, channels ...Notifier) *Multi {
	if log == nil {
		log = slog.Default()
	}
	return &Multi{channels: channels, log: log}
}

// Len returns the number of configured channels.
func (m *Multi) Len() int { return len(m.channels) }

// Dispatch delivers the alert to all channels, returning the number
// that succeeded.
func (m *Multi) Dispatch(ctx context.Context, alert Alert) int {
	delivered := 0
	for _, ch := range m.channels {
		if err := ch.Send(ctx, alert); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues(ch.Name()).Inc()
			m.log.Error("notification failed", "channel", ch.Name(), "error", err)
			continue
		}
		m.log.Info("notification sent", "channel", ch.Name())
		delivered++
	}
	return delivered
}
