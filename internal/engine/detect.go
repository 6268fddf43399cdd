// Package engine drives a poll cycle: session bootstrap, catalog
// fetch, change detection against stored snapshots, state persistence,
// and alert dispatch.
package engine

import (
	"fmt"
	"time"

	"github.com/rkhanna/amulwatch/internal/amul"
	domain "github.com/rkhanna/amulwatch/pkg/types"
)

// ForcedChangeNote is the sentinel description attached to alerts
// triggered by the force flag rather than a detected change.
const ForcedChangeNote = "forced alert (manual trigger)"

// Decider applies the configured alert policy to one item.
type Decider struct {
	Mode domain.AlertMode

	// Re-alert settings apply in availability-only mode: an item that
	// stays available past the cooldown fires again.
	ReAlertsEnabled  bool
	ReAlertsCooldown time.Duration
}

// Decide compares the previous snapshot against the current record and
// returns whether to alert plus the ordered change descriptions.
// prev == nil means the item has never been observed.
func (d Decider) Decide(prev *domain.Snapshot, cur amul.ProductRecord, force bool, now time.Time) (bool, []string) {
	var changes []string
	alert := false

	switch d.Mode {
	case domain.ModeFullDiff:
		changes = fullDiff(prev, cur)
		alert = len(changes) > 0
	default: // availability-only
		alert, changes = d.availabilityOnly(prev, cur, now)
	}

	if force {
		changes = append(changes, ForcedChangeNote)
		alert = true
	}
	return alert, changes
}

// fullDiff compares availability, inventory, and price independently.
// First observation of an item emits a "set to" notice for every field
// the catalog reported.
func fullDiff(prev *domain.Snapshot, cur amul.ProductRecord) []string {
	var changes []string

	if avail := cur.InStock(); avail != nil {
		switch {
		case prev == nil || prev.Available == nil:
			changes = append(changes, fmt.Sprintf("availability set to %v", *avail))
		case *prev.Available != *avail:
			if *avail {
				changes = append(changes, "back in stock")
			} else {
				changes = append(changes, "went out of stock")
			}
		}
	}

	if inv := cur.Inventory; inv != nil {
		switch {
		case prev == nil || prev.Inventory == nil:
			changes = append(changes, fmt.Sprintf("inventory set to %d", *inv))
		case *prev.Inventory != *inv:
			changes = append(changes, fmt.Sprintf("inventory changed by %+d (%d → %d)", *inv-*prev.Inventory, *prev.Inventory, *inv))
		}
	}

	if price := cur.EffectivePrice(); price != nil {
		switch {
		case prev == nil || prev.Price == nil:
			changes = append(changes, fmt.Sprintf("price set to %s", formatPrice(*price)))
		case *prev.Price != *price:
			if *price < *prev.Price {
				changes = append(changes, fmt.Sprintf("price dropped %s → %s", formatPrice(*prev.Price), formatPrice(*price)))
			} else {
				changes = append(changes, fmt.Sprintf("price increased %s → %s", formatPrice(*prev.Price), formatPrice(*price)))
			}
		}
	}

	return changes
}

// availabilityOnly alerts on the unavailable-to-available transition,
// plus the optional cooldown-gated re-alert while still available.
func (d Decider) availabilityOnly(prev *domain.Snapshot, cur amul.ProductRecord, now time.Time) (bool, []string) {
	avail := cur.InStock()
	if avail == nil || !*avail {
		return false, nil
	}

	if !prev.IsAvailable() {
		return true, []string{"back in stock"}
	}

	if d.ReAlertsEnabled && prev.LastAlertAt != nil && now.Sub(*prev.LastAlertAt) > d.ReAlertsCooldown {
		return true, []string{"still available (re-alert)"}
	}
	return false, nil
}

// SnapshotOf builds the snapshot to persist for a record, resolving
// the availability and price fallbacks once at observation time.
func SnapshotOf(rec amul.ProductRecord, now time.Time) domain.Snapshot {
	return domain.Snapshot{
		Name:      rec.DisplayName(),
		Available: rec.InStock(),
		Inventory: rec.Inventory,
		Price:     rec.EffectivePrice(),
		CheckedAt: now,
	}
}

func formatPrice(p float64) string {
	return fmt.Sprintf("₹%.2f", p)
}
