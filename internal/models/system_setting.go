package models

import (
	"time"
)

// Setting keys holding tier price tables
const (
	SettingPriceTablePrivate = "price_table_private"
	SettingPriceTableLuxury  = "price_table_luxury"
)

// SystemSetting represents a system-wide configuration setting
type SystemSetting struct {
	ID           string    `json:"id" db:"id"`
	SettingKey   string    `json:"setting_key" db:"setting_key"`
	SettingValue string    `json:"setting_value" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PriceBreakpoint prices a vehicle for up to MaxTravelers passengers
type PriceBreakpoint struct {
	MaxTravelers int     `json:"max_travelers"`
	Price        float64 `json:"price"`
}

// TierPriceTable is the per-vehicle price list of a private or luxury product
type TierPriceTable struct {
	Kind        ProductKind       `json:"kind"`
	Currency    string            `json:"currency"`
	Breakpoints []PriceBreakpoint `json:"breakpoints"`
}

// PriceFor returns the price of the smallest breakpoint fitting the party
func (t *TierPriceTable) PriceFor(travelers int) (float64, bool) {
	best := -1
	for i, bp := range t.Breakpoints {
		if bp.MaxTravelers < travelers {
			continue
		}
		if best < 0 || bp.MaxTravelers < t.Breakpoints[best].MaxTravelers {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return t.Breakpoints[best].Price, true
}
