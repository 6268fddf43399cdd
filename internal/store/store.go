// Package store persists the tracked-item state between runs.
package store

import (
	"context"

	domain "github.com/rkhanna/amulwatch/pkg/types"
)

// Store is the durable mapping from tracked aliases to their last-seen
// snapshots plus the append-only alert history.
type Store interface {
	// Load returns the persisted state. A missing or unreadable state
	// document yields an empty state, never an error: the first run
	// and a corrupted file look the same to the engine.
	Load(ctx context.Context) (*domain.State, error)

	// Save atomically replaces the persisted state. A reader never
	// observes a partially written document.
	Save(ctx context.Context, st *domain.State) error
}
