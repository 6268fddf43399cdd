package region_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rkhanna/amulwatch/internal/config"
	"github.com/rkhanna/amulwatch/internal/region"
)

func TestResolver_RulePrecedence(t *testing.T) {
	t.Parallel()

	cfg := config.RegionConfig{
		Rules: config.RegionRules{
			Exact: map[string]string{"110001": "delhi-central"},
			Prefixes: []config.PrefixRule{
				{Prefix: "11", Substore: "delhi"},
				{Prefix: "1100", Substore: "delhi-ncr"},
				{Prefix: "38", Substore: "gujarat"},
				{Prefix: "38", Substore: "gujarat-dup"},
			},
			Ranges: []config.RangeRule{
				{From: "560001", To: "560100", Substore: "bengaluru"},
			},
		},
	}
	r := region.New(cfg)

	tests := []struct {
		name   string
		pin    string
		want   string
		wantOK bool
	}{
		{name: "exact beats prefix", pin: "110001", want: "delhi-central", wantOK: true},
		{name: "longest prefix wins", pin: "110099", want: "delhi-ncr", wantOK: true},
		{name: "shorter prefix still matches", pin: "112233", want: "delhi", wantOK: true},
		{name: "equal-length tie goes to first registered", pin: "380001", want: "gujarat", wantOK: true},
		{name: "range lower bound inclusive", pin: "560001", want: "bengaluru", wantOK: true},
		{name: "range upper bound inclusive", pin: "560100", want: "bengaluru", wantOK: true},
		{name: "outside range", pin: "560101", wantOK: false},
		{name: "whitespace trimmed", pin: " 110001 ", want: "delhi-central", wantOK: true},
		{name: "no rule matches", pin: "999999", wantOK: false},
		{name: "empty pincode", pin: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := r.Resolve(tt.pin)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_OverrideAndDefault(t *testing.T) {
	t.Parallel()

	rules := config.RegionRules{
		Exact: map[string]string{"110001": "delhi-central"},
	}

	t.Run("rules beat override", func(t *testing.T) {
		t.Parallel()
		r := region.New(config.RegionConfig{Rules: rules, Override: "forced"})
		got, ok := r.Resolve("110001")
		assert.True(t, ok)
		assert.Equal(t, "delhi-central", got)
	})

	t.Run("override beats default", func(t *testing.T) {
		t.Parallel()
		r := region.New(config.RegionConfig{Rules: rules, Override: "forced", Default: "fallback"})
		got, ok := r.Resolve("999999")
		assert.True(t, ok)
		assert.Equal(t, "forced", got)
	})

	t.Run("default when nothing else", func(t *testing.T) {
		t.Parallel()
		r := region.New(config.RegionConfig{Rules: rules, Default: "fallback"})
		got, ok := r.Resolve("999999")
		assert.True(t, ok)
		assert.Equal(t, "fallback", got)
	})

	t.Run("empty chain defers to server", func(t *testing.T) {
		t.Parallel()
		r := region.New(config.RegionConfig{})
		_, ok := r.Resolve("999999")
		assert.False(t, ok)
	})
}
