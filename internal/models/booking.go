package models

import "time"

// ExtraSelection requests an extra for every passenger of a group
type ExtraSelection struct {
	Name   ExtraName `json:"name" binding:"required"`
	Units  int       `json:"units"`
	Answer string    `json:"answer,omitempty"` // e.g. flight number for the delay guarantee
}

// BookingRequest describes a one-way or round-trip transfer booking
type BookingRequest struct {
	SessionID       string     `json:"-"` // from the cart token, never the body
	ProductID       int64      `json:"product_id" binding:"required"`
	Direction       Direction  `json:"direction" binding:"required"`
	HotelConnection bool       `json:"hotel_connection"`
	RoundTrip       bool       `json:"round_trip"`
	Departure       time.Time  `json:"departure" binding:"required"`
	ReturnDeparture *time.Time `json:"return_departure,omitempty"`
	StrictTime      bool       `json:"strict_time"`

	Adults    int `json:"adults"`
	Children  int `json:"children"`
	Teenagers int `json:"teenagers"`

	AdultExtras []ExtraSelection `json:"adult_extras,omitempty"`
	ChildExtras []ExtraSelection `json:"child_extras,omitempty"`
	TeenExtras  []ExtraSelection `json:"teen_extras,omitempty"`

	// Places are either Bokun place ids or, with CustomLocations, free text
	// optionally naming a known place id whose title is sent instead.
	PickupPlaceID   *int64 `json:"pickup_place_id,omitempty"`
	DropoffPlaceID  *int64 `json:"dropoff_place_id,omitempty"`
	CustomLocations bool   `json:"custom_locations"`
	PickupText      string `json:"pickup_text,omitempty"`
	DropoffText     string `json:"dropoff_text,omitempty"`
}

// Travelers is the total passenger count
func (r BookingRequest) Travelers() int {
	return r.Adults + r.Children + r.Teenagers
}

// LegResult records the identifiers used for one leg
type LegResult struct {
	Direction   Direction `json:"direction"`
	ActivityID  int64     `json:"activity_id"`
	StartTimeID int64     `json:"start_time_id"`
	Date        string    `json:"date"`
}

// BookingResult is returned once the legs are in the cart
type BookingResult struct {
	SessionID string     `json:"session_id"`
	Outbound  LegResult  `json:"outbound"`
	Inbound   *LegResult `json:"inbound,omitempty"`
	Cart      *CartState `json:"cart"`
}

// Quote is an indicative price for a product and party size
type Quote struct {
	ProductID int64       `json:"product_id"`
	Kind      ProductKind `json:"kind"`
	Travelers int         `json:"travelers"`
	Amount    float64     `json:"amount"`
	Currency  string      `json:"currency"`
	Source    string      `json:"source"` // price_table or availability
}
