package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rkhanna/amulwatch/internal/amul"
	"github.com/rkhanna/amulwatch/internal/engine"
	domain "github.com/rkhanna/amulwatch/pkg/types"
)

func flexPtr(b bool) *amul.FlexBool {
	v := amul.FlexBool(b)
	return &v
}

func boolPtr(b bool) *bool       { return &b }
func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

var detectNow = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func TestDecide_FullDiff(t *testing.T) {
	t.Parallel()

	d := engine.Decider{Mode: domain.ModeFullDiff}

	tests := []struct {
		name        string
		prev        *domain.Snapshot
		cur         amul.ProductRecord
		wantAlert   bool
		wantChanges []string
	}{
		{
			name:      "first observation reports every field",
			prev:      nil,
			cur:       amul.ProductRecord{Available: flexPtr(true), Inventory: intPtr(12), Price: floatPtr(2400)},
			wantAlert: true,
			wantChanges: []string{
				"availability set to true",
				"inventory set to 12",
				"price set to ₹2400.00",
			},
		},
		{
			name:        "back in stock",
			prev:        &domain.Snapshot{Available: boolPtr(false)},
			cur:         amul.ProductRecord{Available: flexPtr(true)},
			wantAlert:   true,
			wantChanges: []string{"back in stock"},
		},
		{
			name:        "went out of stock",
			prev:        &domain.Snapshot{Available: boolPtr(true)},
			cur:         amul.ProductRecord{Available: flexPtr(false)},
			wantAlert:   true,
			wantChanges: []string{"went out of stock"},
		},
		{
			name:        "inventory delta",
			prev:        &domain.Snapshot{Available: boolPtr(true), Inventory: intPtr(12)},
			cur:         amul.ProductRecord{Available: flexPtr(true), Inventory: intPtr(5)},
			wantAlert:   true,
			wantChanges: []string{"inventory changed by -7 (12 → 5)"},
		},
		{
			name:        "our_price beats list price in comparison",
			prev:        &domain.Snapshot{Available: boolPtr(true), Price: floatPtr(2400)},
			cur:         amul.ProductRecord{Available: flexPtr(true), OurPrice: floatPtr(2099), Price: floatPtr(2400)},
			wantAlert:   true,
			wantChanges: []string{"price dropped ₹2400.00 → ₹2099.00"},
		},
		{
			name:        "price increase",
			prev:        &domain.Snapshot{Available: boolPtr(true), Price: floatPtr(2099)},
			cur:         amul.ProductRecord{Available: flexPtr(true), Price: floatPtr(2400)},
			wantAlert:   true,
			wantChanges: []string{"price increased ₹2099.00 → ₹2400.00"},
		},
		{
			name:      "no change no alert",
			prev:      &domain.Snapshot{Available: boolPtr(true), Inventory: intPtr(12), Price: floatPtr(2400)},
			cur:       amul.ProductRecord{Available: flexPtr(true), Inventory: intPtr(12), Price: floatPtr(2400)},
			wantAlert: false,
		},
		{
			name:      "field the catalog stopped reporting is not a change",
			prev:      &domain.Snapshot{Available: boolPtr(true), Inventory: intPtr(12)},
			cur:       amul.ProductRecord{Available: flexPtr(true)},
			wantAlert: false,
		},
		{
			name:        "inventory implies availability when flag absent",
			prev:        &domain.Snapshot{Available: boolPtr(false)},
			cur:         amul.ProductRecord{Inventory: intPtr(3)},
			wantAlert:   true,
			wantChanges: []string{"back in stock", "inventory set to 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			alert, changes := d.Decide(tt.prev, tt.cur, false, detectNow)
			assert.Equal(t, tt.wantAlert, alert)
			assert.Equal(t, tt.wantChanges, changes)
		})
	}
}

func TestDecide_AvailabilityOnly(t *testing.T) {
	t.Parallel()

	d := engine.Decider{Mode: domain.ModeAvailabilityOnly}

	tests := []struct {
		name      string
		prev      *domain.Snapshot
		cur       amul.ProductRecord
		wantAlert bool
	}{
		{name: "never seen and available", prev: nil, cur: amul.ProductRecord{Available: flexPtr(true)}, wantAlert: true},
		{name: "was unavailable now available", prev: &domain.Snapshot{Available: boolPtr(false)}, cur: amul.ProductRecord{Available: flexPtr(true)}, wantAlert: true},
		{name: "availability unknown now available", prev: &domain.Snapshot{}, cur: amul.ProductRecord{Available: flexPtr(true)}, wantAlert: true},
		{name: "still available", prev: &domain.Snapshot{Available: boolPtr(true)}, cur: amul.ProductRecord{Available: flexPtr(true)}, wantAlert: false},
		{name: "went out of stock is silent", prev: &domain.Snapshot{Available: boolPtr(true)}, cur: amul.ProductRecord{Available: flexPtr(false)}, wantAlert: false},
		{name: "price moves are silent", prev: &domain.Snapshot{Available: boolPtr(true), Price: floatPtr(2400)}, cur: amul.ProductRecord{Available: flexPtr(true), Price: floatPtr(1999)}, wantAlert: false},
		{name: "availability unknown is not available", prev: nil, cur: amul.ProductRecord{}, wantAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			alert, changes := d.Decide(tt.prev, tt.cur, false, detectNow)
			assert.Equal(t, tt.wantAlert, alert)
			if tt.wantAlert {
				assert.Equal(t, []string{"back in stock"}, changes)
			}
		})
	}
}

func TestDecide_ReAlertCooldown(t *testing.T) {
	t.Parallel()

	d := engine.Decider{
		Mode:             domain.ModeAvailabilityOnly,
		ReAlertsEnabled:  true,
		ReAlertsCooldown: 12 * time.Hour,
	}

	lastAlert := detectNow.Add(-13 * time.Hour)
	recent := detectNow.Add(-1 * time.Hour)
	cur := amul.ProductRecord{Available: flexPtr(true)}

	t.Run("cooldown elapsed", func(t *testing.T) {
		t.Parallel()
		prev := &domain.Snapshot{Available: boolPtr(true), LastAlertAt: &lastAlert}
		alert, changes := d.Decide(prev, cur, false, detectNow)
		assert.True(t, alert)
		assert.Equal(t, []string{"still available (re-alert)"}, changes)
	})

	t.Run("inside cooldown", func(t *testing.T) {
		t.Parallel()
		prev := &domain.Snapshot{Available: boolPtr(true), LastAlertAt: &recent}
		alert, _ := d.Decide(prev, cur, false, detectNow)
		assert.False(t, alert)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		off := engine.Decider{Mode: domain.ModeAvailabilityOnly, ReAlertsCooldown: 12 * time.Hour}
		prev := &domain.Snapshot{Available: boolPtr(true), LastAlertAt: &lastAlert}
		alert, _ := off.Decide(prev, cur, false, detectNow)
		assert.False(t, alert)
	})
}

func TestDecide_Force(t *testing.T) {
	t.Parallel()

	t.Run("forces an alert with no change", func(t *testing.T) {
		t.Parallel()
		d := engine.Decider{Mode: domain.ModeAvailabilityOnly}
		prev := &domain.Snapshot{Available: boolPtr(true)}
		alert, changes := d.Decide(prev, amul.ProductRecord{Available: flexPtr(true)}, true, detectNow)
		assert.True(t, alert)
		assert.Equal(t, []string{engine.ForcedChangeNote}, changes)
	})

	t.Run("note appended after real changes", func(t *testing.T) {
		t.Parallel()
		d := engine.Decider{Mode: domain.ModeFullDiff}
		prev := &domain.Snapshot{Available: boolPtr(false)}
		alert, changes := d.Decide(prev, amul.ProductRecord{Available: flexPtr(true)}, true, detectNow)
		assert.True(t, alert)
		assert.Equal(t, []string{"back in stock", engine.ForcedChangeNote}, changes)
	})
}

func TestSnapshotOf(t *testing.T) {
	t.Parallel()

	rec := amul.ProductRecord{
		Alias:     "whey-1kg",
		Name:      "Whey 1kg",
		Available: flexPtr(true),
		Inventory: intPtr(9),
		OurPrice:  floatPtr(2099),
		Price:     floatPtr(2400),
	}

	snap := engine.SnapshotOf(rec, detectNow)
	assert.Equal(t, "Whey 1kg", snap.Name)
	assert.True(t, *snap.Available)
	assert.Equal(t, 9, *snap.Inventory)
	assert.Equal(t, 2099.0, *snap.Price)
	assert.Equal(t, detectNow, snap.CheckedAt)
	assert.Nil(t, snap.LastAlertAt)
}
