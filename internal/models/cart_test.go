package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCart = `{
	"sessionId": "abc-123",
	"activityBookings": [
		{"id": 501, "activity": {"id": 9001}, "totalPrice": 5990},
		{"id": 502, "activity": {"id": 9002}, "totalPrice": 4990}
	],
	"customerInvoice": {"currency": "ISK", "totalAsMoney": {"amount": 10980}},
	"promoCode": {"code": "SUMMER"}
}`

func TestParseCartState(t *testing.T) {
	state, err := ParseCartState([]byte(sampleCart))
	require.NoError(t, err)

	assert.Equal(t, "abc-123", state.SessionID)
	assert.Equal(t, "ISK", state.Currency)
	assert.Equal(t, 10980.0, state.TotalAmount)
	assert.Equal(t, "SUMMER", state.PromoCode)
	require.Len(t, state.Bookings, 2)
	assert.Equal(t, CartLineItem{BookingID: 501, ActivityID: 9001, TotalPrice: 5990}, state.Bookings[0])
	assert.True(t, state.HasBooking(502))
	assert.False(t, state.HasBooking(503))
	assert.JSONEq(t, sampleCart, string(state.Raw))
}

func TestParseCartState_EmptyCart(t *testing.T) {
	state, err := ParseCartState([]byte(`{"sessionId": "s1"}`))
	require.NoError(t, err)

	assert.Empty(t, state.Bookings)
	assert.Empty(t, state.PromoCode)
	assert.Zero(t, state.TotalAmount)
}

func TestParseReservationState(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		hasBooking bool
	}{
		{"reserved", `{"bookingId": 77, "status": "RESERVED", "totalPrice": 100, "currency": "EUR"}`, true},
		{"pending payload", `{"status": "PENDING"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := ParseReservationState([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.hasBooking, state.HasBookingID())
		})
	}
}

func TestTierPriceTable_PriceFor(t *testing.T) {
	table := &TierPriceTable{
		Kind:     ProductKindPrivate,
		Currency: "ISK",
		Breakpoints: []PriceBreakpoint{
			{MaxTravelers: 8, Price: 45000},
			{MaxTravelers: 3, Price: 25000},
			{MaxTravelers: 5, Price: 32000},
		},
	}

	tests := []struct {
		travelers int
		price     float64
		ok        bool
	}{
		{1, 25000, true},
		{3, 25000, true},
		{4, 32000, true},
		{8, 45000, true},
		{9, 0, false},
	}

	for _, tt := range tests {
		price, ok := table.PriceFor(tt.travelers)
		assert.Equal(t, tt.ok, ok, "travelers=%d", tt.travelers)
		assert.Equal(t, tt.price, price, "travelers=%d", tt.travelers)
	}
}

func TestToJSONB(t *testing.T) {
	assert.Nil(t, ToJSONB(nil))
	assert.Equal(t, JSONB{"a": float64(1)}, ToJSONB([]byte(`{"a": 1}`)))
	assert.Equal(t, JSONB{"value": []interface{}{float64(1), float64(2)}}, ToJSONB([]int{1, 2}))
	assert.Equal(t, JSONB{"raw": "<html>"}, ToJSONB([]byte("<html>")))
}
