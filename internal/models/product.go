package models

import "time"

// ProductKind is the service class of a transport product
type ProductKind string

const (
	ProductKindEconomy ProductKind = "ECO"
	ProductKindPremium ProductKind = "PRE"
	ProductKindPrivate ProductKind = "PRI"
	ProductKindLuxury  ProductKind = "LUX"
)

// SingleSeatBooking reports whether the product is sold per seat rather than per vehicle
func (k ProductKind) SingleSeatBooking() bool {
	return k == ProductKindEconomy || k == ProductKindPremium
}

// Direction of travel relative to the airport
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// Opposite returns the return-leg direction
func (d Direction) Opposite() Direction {
	if d == DirectionInbound {
		return DirectionOutbound
	}
	return DirectionInbound
}

// Valid checks the direction is one of the known values
func (d Direction) Valid() bool {
	return d == DirectionOutbound || d == DirectionInbound
}

// VariantKey identifies one activity variant of a product
type VariantKey struct {
	Direction       Direction `json:"direction"`
	HotelConnection bool      `json:"hotel_connection"`
	RoundTrip       bool      `json:"round_trip"`
}

// BookableProduct is the local description of a transport offering
type BookableProduct struct {
	ID                  int64                `json:"id" db:"id"`
	Title               string               `json:"title" db:"title"`
	Kind                ProductKind          `json:"kind" db:"kind"`
	FreeHotelConnection bool                 `json:"free_hotel_connection" db:"free_hotel_connection"`
	MinPeople           int                  `json:"min_people" db:"min_people"`
	MaxPeople           int                  `json:"max_people" db:"max_people"`
	Ordering            int                  `json:"ordering" db:"ordering"`
	Variants            map[VariantKey]int64 `json:"-" db:"-"`
	CreatedAt           time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at" db:"updated_at"`
}

// ProductVariant is one row of the product_variants table
type ProductVariant struct {
	ProductID       int64     `db:"product_id"`
	Direction       Direction `db:"direction"`
	HotelConnection bool      `db:"hotel_connection"`
	RoundTrip       bool      `db:"round_trip"`
	ActivityID      int64     `db:"activity_id"`
}

// Key returns the variant lookup key
func (v ProductVariant) Key() VariantKey {
	return VariantKey{Direction: v.Direction, HotelConnection: v.HotelConnection, RoundTrip: v.RoundTrip}
}

// PlaceType classifies pickup and dropoff places
type PlaceType string

const (
	PlaceTypeHotel    PlaceType = "hotel"
	PlaceTypeTerminal PlaceType = "terminal"
	PlaceTypeAirport  PlaceType = "airport"
	PlaceTypeOther    PlaceType = "other"
)

// Place is a pickup or dropoff location known to the vendor
type Place struct {
	ID       int64     `json:"id" db:"id"`
	VendorID int64     `json:"vendor_id" db:"vendor_id"`
	Title    string    `json:"title" db:"title"`
	Type     PlaceType `json:"type" db:"type"`
	Location JSONB     `json:"location,omitempty" db:"location"`
	Ordering int       `json:"ordering" db:"ordering"`
}
