// Package notify defines the notification interface and channel
// implementations for alert delivery.
package notify

import "context"

// Alert is the rendered notification content. Subject may be empty;
// channels that have no subject line ignore it.
type Alert struct {
	Subject string
	Body    string
}

// Notifier is one delivery channel. Channels are independently
// optional: an unconfigured channel simply never gets constructed.
type Notifier interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}
