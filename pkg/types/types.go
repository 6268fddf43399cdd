// Package domain defines the core business types for amulwatch.
package domain

import (
	"strings"
	"time"
)

// AlertMode selects the change-detection policy for a run.
type AlertMode string

// Alert mode constants.
const (
	// ModeFullDiff alerts on any tracked field change: availability
	// flips in either direction, inventory deltas, and price moves.
	ModeFullDiff AlertMode = "full-diff"
	// ModeAvailabilityOnly alerts only on an unavailable-to-available
	// transition.
	ModeAvailabilityOnly AlertMode = "availability-only"
)

// Valid reports whether m is a recognized alert mode.
func (m AlertMode) Valid() bool {
	return m == ModeFullDiff || m == ModeAvailabilityOnly
}

// NormalizeAlias canonicalizes a tracked-item key: trimmed and
// case-insensitive. All map lookups across the system go through this.
func NormalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// Snapshot records the last-observed values for one tracked item.
// Fields are tri-state: a nil pointer means the catalog did not report
// the field at all, which is distinct from a zero value.
type Snapshot struct {
	Name      string    `json:"name,omitempty"`
	Available *bool     `json:"available,omitempty"`
	Inventory *int      `json:"inventory,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	CheckedAt time.Time `json:"checked_at"`

	// LastAlertAt is set when an alert fires for this item and drives
	// the optional re-alert cooldown.
	LastAlertAt *time.Time `json:"last_alert_at,omitempty"`
}

// IsAvailable resolves the availability flag, treating absence as
// unavailable.
func (s *Snapshot) IsAvailable() bool {
	return s != nil && s.Available != nil && *s.Available
}

// HistoryEntry is an immutable record of one alert-triggering event.
// Entries are append-only and never reordered.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Alias     string    `json:"alias"`
	Name      string    `json:"name,omitempty"`
	Changes   []string  `json:"changes"`
	Snapshot  Snapshot  `json:"snapshot"`
	Substore  string    `json:"substore,omitempty"`
}

// State is the durable document persisted between runs: one snapshot
// per tracked alias plus the append-only alert history.
type State struct {
	Tracked map[string]Snapshot `json:"tracked"`
	History []HistoryEntry      `json:"history"`
}

// NewState returns an empty state with initialized collections.
func NewState() *State {
	return &State{Tracked: map[string]Snapshot{}}
}

// Snapshot returns the stored snapshot for alias, or nil if the item
// has never been observed.
func (st *State) Snapshot(alias string) *Snapshot {
	if st == nil || st.Tracked == nil {
		return nil
	}
	snap, ok := st.Tracked[NormalizeAlias(alias)]
	if !ok {
		return nil
	}
	return &snap
}

// SetSnapshot overwrites the stored snapshot for alias.
func (st *State) SetSnapshot(alias string, snap Snapshot) {
	if st.Tracked == nil {
		st.Tracked = map[string]Snapshot{}
	}
	st.Tracked[NormalizeAlias(alias)] = snap
}

// AppendHistory appends an entry, preserving insertion order.
func (st *State) AppendHistory(entry HistoryEntry) {
	st.History = append(st.History, entry)
}
