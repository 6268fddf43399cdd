package amul

import (
	"bytes"
	"fmt"
	"strconv"
)

// FlexBool unmarshals the site's availability flag, which has appeared
// as a bool, a 0/1 number, and a quoted number across site revisions.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	switch s {
	case "true":
		*b = true
		return nil
	case "false", "null":
		*b = false
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("availability flag %q: %w", s, err)
	}
	*b = n != 0
	return nil
}

// ProductRecord is one catalog entry as returned by the shop API.
// Pointer fields are tri-state: nil means the API omitted the field.
type ProductRecord struct {
	Alias     string    `json:"alias"`
	Name      string    `json:"name"`
	Available *FlexBool `json:"available,omitempty"`
	Inventory *int      `json:"inventory_quantity,omitempty"`
	OurPrice  *float64  `json:"our_price,omitempty"`
	Price     *float64  `json:"price,omitempty"`
}

// InStock resolves availability: the explicit flag when present, else
// a positive inventory quantity, else unknown (nil).
func (r *ProductRecord) InStock() *bool {
	if r.Available != nil {
		v := bool(*r.Available)
		return &v
	}
	if r.Inventory != nil {
		v := *r.Inventory > 0
		return &v
	}
	return nil
}

// EffectivePrice returns our_price when the API reports it, falling
// back to the list price.
func (r *ProductRecord) EffectivePrice() *float64 {
	if r.OurPrice != nil {
		return r.OurPrice
	}
	return r.Price
}

// DisplayName returns the catalog name, falling back to the alias.
func (r *ProductRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Alias
}
