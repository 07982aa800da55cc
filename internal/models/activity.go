package models

import "time"

// Activity is a cached copy of a remote Bokun activity. The document is
// replaced wholesale on catalog sync and never patched.
type Activity struct {
	ID         int64     `json:"id" db:"id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	Title      string    `json:"title" db:"title"`
	VendorID   *int64    `json:"vendor_id,omitempty" db:"vendor_id"`
	Document   JSONB     `json:"document" db:"document"`
	SyncedAt   time.Time `json:"synced_at" db:"synced_at"`
}

// CrossSaleItem is an add-on activity offered next to transfers
type CrossSaleItem struct {
	ID       int64     `json:"id" db:"id"`
	Document JSONB     `json:"document" db:"document"`
	SyncedAt time.Time `json:"synced_at" db:"synced_at"`
}

// CatalogDocument is the subset of an activity payload used for resolution
type CatalogDocument struct {
	ID                int64             `json:"id"`
	Title             string            `json:"title"`
	PricingCategories []PricingCategory `json:"pricingCategories"`
	BookableExtras    []BookableExtra   `json:"bookableExtras"`
}

// PricingCategory as published in the activity payload
type PricingCategory struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	TicketCategory  string `json:"ticketCategory"`
	DefaultCategory bool   `json:"defaultCategory"`
}

// BookableExtra as published in the activity payload
type BookableExtra struct {
	ID         int64           `json:"id"`
	ExternalID string          `json:"externalId"`
	Title      string          `json:"title"`
	Questions  []ExtraQuestion `json:"questions"`
}

// ExtraQuestion is a question attached to an extra
type ExtraQuestion struct {
	ID int64 `json:"id"`
}

// PricingCategoryAssignment is derived from an activity's category list
type PricingCategoryAssignment struct {
	Default int64 `json:"default"`
	Child   int64 `json:"child"`
	Teen    int64 `json:"teen"`
}

// ExtraName is a semantic extra name independent of any activity
type ExtraName string

const (
	ExtraFlightDelayGuarantee ExtraName = "flight_delay_guarantee"
	ExtraBaggage              ExtraName = "extra_baggage"
	ExtraOddSizeBaggage       ExtraName = "odd_size_baggage"
	ExtraChildSeatInfant      ExtraName = "child_seat_infant"
	ExtraChildSeatChild       ExtraName = "child_seat_child"
)

// ResolvedExtra carries the remote ids of a matched extra
type ResolvedExtra struct {
	ID          int64   `json:"id"`
	QuestionIDs []int64 `json:"question_ids,omitempty"`
}

// ExtraAssignment maps semantic names to resolved extras; missing keys are unavailable
type ExtraAssignment map[ExtraName]ResolvedExtra

// CategoryPrices are the adult/child reference prices of a slot
type CategoryPrices struct {
	Adult int `json:"adult"`
	Child int `json:"child"`
}

// TimeSlot is one bookable departure
type TimeSlot struct {
	ID             int64          `json:"id"`
	Start          time.Time      `json:"start"`
	Date           string         `json:"date"`
	Time           string         `json:"time"`
	StartTime      string         `json:"start_time"` // as sent by Bokun
	Available      int            `json:"available"`
	CategoryPrices CategoryPrices `json:"category_prices"`
	ExtraPrices    map[int64]int  `json:"extra_prices"`
}

// AvailabilityRecord is the raw availability entry returned by Bokun
type AvailabilityRecord struct {
	Date              int64              `json:"date"`
	StartTime         string             `json:"startTime"`
	StartTimeID       int64              `json:"startTimeId"`
	SoldOut           bool               `json:"soldOut"`
	Unavailable       bool               `json:"unavailable"`
	AvailabilityCount int                `json:"availabilityCount"`
	PricesByCategory  map[string]float64 `json:"pricesByCategory"`
	ExtraPrices       map[string]float64 `json:"extraPrices"`
}
