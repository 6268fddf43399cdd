package notify

import "context"

// NoopNotifier implements Notifier without sending anything. Wired as
// the only channel when no real channel is configured, so alert flow
// stays identical either way.
type NoopNotifier struct{}

// NewNoopNotifier creates a no-op channel.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Name implements Notifier.
func (n *NoopNotifier) Name() string { return "noop" }

// Send implements Notifier. It discards the alert and reports success.
func (n *NoopNotifier) Send(_ context.Context, _ Alert) error {
	return nil
}
