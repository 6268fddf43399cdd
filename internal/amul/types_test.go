package amul_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkhanna/amulwatch/internal/amul"
)

func TestFlexBool_Unmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    bool
		wantErr bool
	}{
		{name: "bool true", in: `true`, want: true},
		{name: "bool false", in: `false`, want: false},
		{name: "number one", in: `1`, want: true},
		{name: "number zero", in: `0`, want: false},
		{name: "number other", in: `7`, want: true},
		{name: "quoted number", in: `"1"`, want: true},
		{name: "quoted zero", in: `"0"`, want: false},
		{name: "null", in: `null`, want: false},
		{name: "garbage", in: `"maybe"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var b amul.FlexBool
			err := json.Unmarshal([]byte(tt.in), &b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, bool(b))
		})
	}
}

func TestProductRecord_InStock(t *testing.T) {
	t.Parallel()

	flag := amul.FlexBool(false)
	inv := 5
	zero := 0

	tests := []struct {
		name string
		rec  amul.ProductRecord
		want *bool
	}{
		{name: "explicit flag wins over inventory", rec: amul.ProductRecord{Available: &flag, Inventory: &inv}, want: boolPtr(false)},
		{name: "positive inventory", rec: amul.ProductRecord{Inventory: &inv}, want: boolPtr(true)},
		{name: "zero inventory", rec: amul.ProductRecord{Inventory: &zero}, want: boolPtr(false)},
		{name: "nothing reported", rec: amul.ProductRecord{}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.rec.InStock()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestProductRecord_EffectivePrice(t *testing.T) {
	t.Parallel()

	our := 2099.0
	list := 2400.0

	rec := amul.ProductRecord{OurPrice: &our, Price: &list}
	require.NotNil(t, rec.EffectivePrice())
	assert.Equal(t, our, *rec.EffectivePrice())

	rec = amul.ProductRecord{Price: &list}
	require.NotNil(t, rec.EffectivePrice())
	assert.Equal(t, list, *rec.EffectivePrice())

	rec = amul.ProductRecord{}
	assert.Nil(t, rec.EffectivePrice())
}

func TestProductRecord_DisplayName(t *testing.T) {
	t.Parallel()

	rec := amul.ProductRecord{Alias: "whey-1kg", Name: "Whey 1kg"}
	assert.Equal(t, "Whey 1kg", rec.DisplayName())

	rec.Name = ""
	assert.Equal(t, "whey-1kg", rec.DisplayName())
}

func boolPtr(b bool) *bool { return &b }
