package models

import (
	"encoding/json"
	"fmt"
)

// CartStatus is the derived lifecycle state of a cart session
type CartStatus string

const (
	CartStatusEmpty      CartStatus = "empty"
	CartStatusItemsAdded CartStatus = "items_added"
	CartStatusReserved   CartStatus = "reserved"
	CartStatusConfirmed  CartStatus = "confirmed"
)

// CartLineItem is one activity booking inside the remote cart
type CartLineItem struct {
	BookingID  int64   `json:"booking_id"`
	ActivityID int64   `json:"activity_id"`
	TotalPrice float64 `json:"total_price"`
}

// CartState is the last remote cart snapshot. It is replaced wholesale
// after every call and never patched locally.
type CartState struct {
	SessionID   string          `json:"session_id"`
	Bookings    []CartLineItem  `json:"bookings"`
	Currency    string          `json:"currency"`
	TotalAmount float64         `json:"total_amount"`
	PromoCode   string          `json:"promo_code,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

type cartDocument struct {
	SessionID        string `json:"sessionId"`
	ActivityBookings []struct {
		ID       int64 `json:"id"`
		Activity struct {
			ID int64 `json:"id"`
		} `json:"activity"`
		TotalPrice float64 `json:"totalPrice"`
	} `json:"activityBookings"`
	CustomerInvoice *struct {
		Currency     string `json:"currency"`
		TotalAsMoney struct {
			Amount float64 `json:"amount"`
		} `json:"totalAsMoney"`
	} `json:"customerInvoice"`
	PromoCode *struct {
		Code string `json:"code"`
	} `json:"promoCode"`
}

// ParseCartState reads a remote shopping cart document
func ParseCartState(raw []byte) (*CartState, error) {
	var doc cartDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse cart document: %w", err)
	}

	state := &CartState{
		SessionID: doc.SessionID,
		Bookings:  make([]CartLineItem, 0, len(doc.ActivityBookings)),
		Raw:       append(json.RawMessage(nil), raw...),
	}

	for _, b := range doc.ActivityBookings {
		state.Bookings = append(state.Bookings, CartLineItem{
			BookingID:  b.ID,
			ActivityID: b.Activity.ID,
			TotalPrice: b.TotalPrice,
		})
	}

	if doc.CustomerInvoice != nil {
		state.Currency = doc.CustomerInvoice.Currency
		state.TotalAmount = doc.CustomerInvoice.TotalAsMoney.Amount
	}

	if doc.PromoCode != nil {
		state.PromoCode = doc.PromoCode.Code
	}

	return state, nil
}

// HasBooking reports whether the cart holds the given line item
func (c *CartState) HasBooking(bookingID int64) bool {
	for _, b := range c.Bookings {
		if b.BookingID == bookingID {
			return true
		}
	}
	return false
}

// ReservationState is the result of the last reserve or confirm call
type ReservationState struct {
	BookingID        *int64          `json:"booking_id,omitempty"`
	ConfirmationCode string          `json:"confirmation_code,omitempty"`
	Status           string          `json:"status,omitempty"`
	TotalAmount      float64         `json:"total_amount"`
	Currency         string          `json:"currency,omitempty"`
	Raw              json.RawMessage `json:"-"`
}

// HasBookingID is the reserve success signal
func (r *ReservationState) HasBookingID() bool {
	return r != nil && r.BookingID != nil
}

type reservationDocument struct {
	BookingID        *int64  `json:"bookingId"`
	ConfirmationCode string  `json:"confirmationCode"`
	Status           string  `json:"status"`
	TotalPrice       float64 `json:"totalPrice"`
	Currency         string  `json:"currency"`
}

// ParseReservationState reads a reserve or confirm response. Responses
// without a bookingId are kept as-is; their absence is the failure signal.
func ParseReservationState(raw []byte) (*ReservationState, error) {
	var doc reservationDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse reservation document: %w", err)
	}

	return &ReservationState{
		BookingID:        doc.BookingID,
		ConfirmationCode: doc.ConfirmationCode,
		Status:           doc.Status,
		TotalAmount:      doc.TotalPrice,
		Currency:         doc.Currency,
		Raw:              append(json.RawMessage(nil), raw...),
	}, nil
}

// ============================================================================
// Remote request bodies
// ============================================================================

// ExtraAnswer answers a question attached to an extra
type ExtraAnswer struct {
	QuestionID int64    `json:"questionId"`
	Values     []string `json:"values"`
}

// ExtraBooking books units of an extra for one passenger
type ExtraBooking struct {
	ExtraID   int64         `json:"extraId"`
	UnitCount int           `json:"unitCount"`
	Answers   []ExtraAnswer `json:"answers"`
}

// PricingCategoryBooking is one passenger line of an activity booking
type PricingCategoryBooking struct {
	PricingCategoryID int64          `json:"pricingCategoryId"`
	Extras            []ExtraBooking `json:"extras"`
}

// AddActivityRequest is the body of the add-activity cart call
type AddActivityRequest struct {
	ActivityID              int64                    `json:"activityId"`
	StartTimeID             int64                    `json:"startTimeId"`
	Date                    string                   `json:"date"`
	Pickup                  bool                     `json:"pickup"`
	PickupPlaceID           *int64                   `json:"pickupPlaceId,omitempty"`
	PickupPlaceDescription  string                   `json:"pickupPlaceDescription,omitempty"`
	DropoffPlaceID          *int64                   `json:"dropoffPlaceId,omitempty"`
	DropoffPlaceDescription string                   `json:"dropoffPlaceDescription,omitempty"`
	PricingCategoryBookings []PricingCategoryBooking `json:"pricingCategoryBookings"`
}

// PassengerAnswer answers a main-contact question on reservation
type PassengerAnswer struct {
	Type   string `json:"type"`
	Answer string `json:"answer"`
}

// BookingField is a name/value field attached to a booking
type BookingField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ReserveRequest carries everything sent on reservation
type ReserveRequest struct {
	Answers            []PassengerAnswer `json:"answers,omitempty"`
	BookingFields      []BookingField    `json:"booking_fields,omitempty"`
	DiscountAmount     *float64          `json:"discount_amount,omitempty"`
	DiscountPercentage *float64          `json:"discount_percentage,omitempty"`
}

// CardDetails is the card used for the charge call. Never logged.
type CardDetails struct {
	Name            string `json:"name" binding:"required"`
	CardNumber      string `json:"cardNumber" binding:"required"`
	CVC             string `json:"cvc" binding:"required"`
	ExpMonth        string `json:"expMonth" binding:"required"`
	ExpYear         string `json:"expYear" binding:"required"`
	AddressLine1    string `json:"addressLine1,omitempty"`
	AddressLine2    string `json:"addressLine2,omitempty"`
	AddressCity     string `json:"addressCity,omitempty"`
	AddressPostCode string `json:"addressPostCode,omitempty"`
	AddressCountry  string `json:"addressCountry,omitempty"`
}

// ConfirmRequest carries the confirmation options
type ConfirmRequest struct {
	BookingFields      []BookingField `json:"booking_fields,omitempty"`
	MarkPaid           bool           `json:"mark_paid"`
	ReferenceID        string         `json:"reference_id,omitempty"`
	PaymentReferenceID string         `json:"payment_reference_id,omitempty"`
	NotifyCustomer     bool           `json:"notify_customer"`
}

// ChargeResult is the outcome of a card charge against a reserved booking
type ChargeResult struct {
	BookingID int64           `json:"booking_id"`
	Amount    float64         `json:"amount"`
	Currency  string          `json:"currency"`
	Raw       json.RawMessage `json:"-"`
}
