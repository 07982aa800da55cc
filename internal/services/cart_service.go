package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
)

// remote message returned when a payment reference was already consumed
const transactionInactiveMessage = "Transaction is Inactive"

// CartService drives one remote cart session. All calls on a session are
// serialised; nothing is retried except cart fetches.
type CartService struct {
	mu     sync.Mutex
	client BokunAPI
	audit  AuditSink
	logger *logrus.Logger

	sessionID   string
	cart        *models.CartState
	reservation *models.ReservationState
	confirmed   bool

	lastUsed atomic.Int64
}

// OpenCart fetches the remote cart for sessionID, generating a session id
// when none is given.
func OpenCart(ctx context.Context, client BokunAPI, sessionID string, audit AuditSink, logger *logrus.Logger) (*CartService, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &CartService{
		client:    client,
		audit:     audit,
		logger:    logger,
		sessionID: sessionID,
	}
	s.touch()

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// SessionID returns the remote session id
func (s *CartService) SessionID() string {
	return s.sessionID
}

// LastUsed returns when the session last handled a call
func (s *CartService) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *CartService) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// Cart returns a copy of the last cart snapshot
func (s *CartService) Cart() *models.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyCart(s.cart)
}

// Reservation returns a copy of the last reservation state, or nil
func (s *CartService) Reservation() *models.ReservationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reservation == nil {
		return nil
	}
	r := *s.reservation
	return &r
}

// Status derives the lifecycle state
func (s *CartService) Status() models.CartStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status()
}

func (s *CartService) status() models.CartStatus {
	switch {
	case s.confirmed:
		return models.CartStatusConfirmed
	case s.reservation.HasBookingID():
		return models.CartStatusReserved
	case s.cart != nil && len(s.cart.Bookings) > 0:
		return models.CartStatusItemsAdded
	default:
		return models.CartStatusEmpty
	}
}

// ============================================================================
// CART CONTENT
// ============================================================================

// AddActivity adds one activity booking and replaces the cart with the server's copy
func (s *CartService) AddActivity(ctx context.Context, req models.AddActivityRequest) (*models.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationAddActivity); err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, models.OperationAddActivity, http.MethodPost, bokun.CartActivityPath(s.sessionID), req, nil)
	if err != nil {
		var apiErr *bokun.APIError
		if errors.As(err, &apiErr) {
			return nil, &CartWorkflowError{
				Op:      string(models.OperationAddActivity),
				Message: fmt.Sprintf("failed to add activity to cart. Reason: %s", apiErr.Message),
				Err:     apiErr,
			}
		}
		return nil, fmt.Errorf("failed to add activity to cart: %w", err)
	}

	// A bare message without fields is still a rejection
	if message, ok := rejectionMessage(resp.Body); ok {
		return nil, &CartWorkflowError{
			Op:      string(models.OperationAddActivity),
			Message: fmt.Sprintf("failed to add activity to cart. Reason: %s", message),
		}
	}

	// The session id is taken as returned so callers can tell a usable cart
	state, err := models.ParseCartState(resp.Body)
	if err != nil {
		return nil, err
	}
	s.installCart(state)

	return copyCart(state), nil
}

// RemoveActivity removes a line item from the cart
func (s *CartService) RemoveActivity(ctx context.Context, bookingID int64) (*models.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationRemoveActivity); err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, models.OperationRemoveActivity, http.MethodGet, bokun.RemoveActivityPath(s.sessionID, bookingID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to remove booking %d from cart: %w", bookingID, err)
	}

	return s.replaceCart(resp)
}

// AddOrUpdateExtra sets the unit count of an extra on a line item
func (s *CartService) AddOrUpdateExtra(ctx context.Context, bookingID, extraID int64, units int) (*models.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationAddOrUpdateExtra); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"extraId":   extraID,
		"unitCount": units,
	}

	resp, err := s.call(ctx, models.OperationAddOrUpdateExtra, http.MethodPost, bokun.AddOrUpdateExtraPath(s.sessionID, bookingID), body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update extra %d on booking %d: %w", extraID, bookingID, err)
	}

	return s.replaceCart(resp)
}

// RemoveExtra removes an extra from a line item
func (s *CartService) RemoveExtra(ctx context.Context, bookingID, extraID int64) (*models.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationRemoveExtra); err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, models.OperationRemoveExtra, http.MethodGet, bokun.RemoveExtraPath(s.sessionID, bookingID, extraID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to remove extra %d from booking %d: %w", extraID, bookingID, err)
	}

	return s.replaceCart(resp)
}

// ============================================================================
// PROMO CODES
// ============================================================================

// ApplyPromoCode applies code unless it is already the cart's promo code
func (s *CartService) ApplyPromoCode(ctx context.Context, code string) (*models.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationApplyPromoCode); err != nil {
		return nil, err
	}

	if code == "" {
		return nil, &CartWorkflowError{Op: string(models.OperationApplyPromoCode), Message: "promo code is required"}
	}

	if s.cart != nil && s.cart.PromoCode == code {
		return copyCart(s.cart), nil
	}

	query, err := bokun.EncodeQuery(bokun.PromoCodeQuery{PromoCode: code})
	if err != nil {
		return nil, err
	}

	if _, err := s.call(ctx, models.OperationApplyPromoCode, http.MethodPost, bokun.ApplyPromoCodePath(s.sessionID), nil, query); err != nil {
		return nil, fmt.Errorf("failed to apply promo code: %w", err)
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	return copyCart(s.cart), nil
}

// RemovePromoCode clears the promo code unless none is applied
func (s *CartService) RemovePromoCode(ctx context.Context) (*models.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationRemovePromoCode); err != nil {
		return nil, err
	}

	if s.cart == nil || s.cart.PromoCode == "" {
		return copyCart(s.cart), nil
	}

	if _, err := s.call(ctx, models.OperationRemovePromoCode, http.MethodPost, bokun.RemovePromoCodePath(s.sessionID), nil, nil); err != nil {
		return nil, fmt.Errorf("failed to remove promo code: %w", err)
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	return copyCart(s.cart), nil
}

// Refresh re-fetches the cart
func (s *CartService) Refresh(ctx context.Context) (*models.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return copyCart(s.cart), nil
}

func (s *CartService) refresh(ctx context.Context) error {
	s.touch()

	resp, err := s.client.Get(ctx, bokun.CartPath(s.sessionID), nil)
	if err != nil {
		return fmt.Errorf("failed to fetch cart %s: %w", s.sessionID, err)
	}

	state, err := models.ParseCartState(resp.Body)
	if err != nil {
		return err
	}
	if state.SessionID == "" {
		state.SessionID = s.sessionID
	}

	s.cart = state
	return nil
}

// ============================================================================
// RESERVE / CHARGE / CONFIRM
// ============================================================================

// Reserve reserves the cart. The reservation state is overwritten by every
// attempt; a missing booking id in the result means the reservation did not happen.
func (s *CartService) Reserve(ctx context.Context, req models.ReserveRequest) (*models.ReservationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationReserve); err != nil {
		return nil, err
	}

	// 1. Build reservation body
	body := map[string]interface{}{}
	if len(req.BookingFields) > 0 {
		body["bookingFields"] = req.BookingFields
	}
	if len(req.Answers) > 0 {
		body["answers"] = map[string]interface{}{"answers": req.Answers}
	}
	if req.DiscountAmount != nil {
		body["discountAmount"] = *req.DiscountAmount
	}
	if req.DiscountPercentage != nil {
		body["discountPercentage"] = *req.DiscountPercentage
	}

	// 2. Send once
	resp, err := s.call(ctx, models.OperationReserve, http.MethodPost, bokun.ReservePath(s.sessionID), body, nil)
	if err != nil {
		s.reservation = failedReservation(err)
		return nil, fmt.Errorf("failed to reserve cart %s: %w", s.sessionID, err)
	}

	// 3. Overwrite reservation state with whatever came back
	reservation, err := models.ParseReservationState(resp.Body)
	if err != nil {
		s.reservation = nil
		return nil, err
	}
	s.reservation = reservation

	if !reservation.HasBookingID() {
		s.logger.WithFields(logrus.Fields{
			"session_id": s.sessionID,
			"status":     reservation.Status,
		}).Warn("Reservation response carried no booking id")
	}

	r := *reservation
	return &r, nil
}

// ChargeCard charges the reserved booking without confirming it. amount
// defaults to the cart total.
func (s *CartService) ChargeCard(ctx context.Context, card models.CardDetails, amount *float64) (*models.ChargeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationChargeCard); err != nil {
		return nil, err
	}

	if !s.reservation.HasBookingID() {
		return nil, &CartWorkflowError{
			Op:      string(models.OperationChargeCard),
			Message: "cannot charge a booking that has not been reserved (bookingId missing)",
			Err:     ErrNotReserved,
		}
	}
	bookingID := *s.reservation.BookingID

	total := s.cart.TotalAmount
	if amount != nil {
		total = *amount
	}

	body := map[string]interface{}{
		"confirmBookingOnSuccess": false,
		"amount":                  total,
		"currency":                s.cart.Currency,
		"card":                    card,
	}

	resp, err := s.callRedacted(ctx, models.OperationChargeCard, http.MethodPost, bokun.ChargePath(bookingID), body, redactCard(body, card), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to charge booking %d: %w", bookingID, err)
	}

	return &models.ChargeResult{
		BookingID: bookingID,
		Amount:    total,
		Currency:  s.cart.Currency,
		Raw:       resp.Body,
	}, nil
}

// Confirm confirms the reserved booking. No call is made without a booking id.
func (s *CartService) Confirm(ctx context.Context, req models.ConfirmRequest) (*models.ReservationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureMutable(models.OperationConfirm); err != nil {
		return nil, err
	}

	// 1. Booking id is required before anything goes out
	if !s.reservation.HasBookingID() {
		return nil, &CartWorkflowError{
			Op:      string(models.OperationConfirm),
			Message: "cannot confirm a booking that has not been reserved (bookingId missing)",
			Err:     ErrNotReserved,
		}
	}
	bookingID := *s.reservation.BookingID

	// 2. Build confirmation body
	body := map[string]interface{}{
		"externalBookingReference": nullable(req.ReferenceID),
	}
	if len(req.BookingFields) > 0 {
		body["bookingFields"] = req.BookingFields
	}
	if req.MarkPaid {
		paymentRef := req.PaymentReferenceID
		if paymentRef == "" {
			paymentRef = uuid.NewString()
		}
		body["payment"] = map[string]interface{}{
			"amount":             s.cart.TotalAmount,
			"currency":           s.cart.Currency,
			"paymentType":        "WEB_PAYMENT",
			"confirmed":          true,
			"paymentReferenceId": paymentRef,
		}
		body["bookingPaidType"] = "PAID_IN_FULL"
	}

	query, err := bokun.EncodeQuery(bokun.ConfirmQuery{SendCustomerNotification: req.NotifyCustomer})
	if err != nil {
		return nil, err
	}

	// 3. Send once and translate the consumed-payment error
	resp, err := s.call(ctx, models.OperationConfirm, http.MethodPost, bokun.ConfirmPath(bookingID), body, query)
	if err != nil {
		var apiErr *bokun.APIError
		if errors.As(err, &apiErr) && apiErr.Message == transactionInactiveMessage {
			return nil, &CartWorkflowError{
				Op:      string(models.OperationConfirm),
				Message: ErrPaymentIDAlreadyUsed.Error(),
				Err:     ErrPaymentIDAlreadyUsed,
			}
		}
		return nil, err
	}

	// 4. Record the confirmed state
	reservation, err := models.ParseReservationState(resp.Body)
	if err != nil {
		return nil, err
	}
	if reservation.BookingID == nil {
		reservation.BookingID = &bookingID
	}
	s.reservation = reservation
	s.confirmed = true

	s.logger.WithFields(logrus.Fields{
		"session_id": s.sessionID,
		"booking_id": bookingID,
		"mark_paid":  req.MarkPaid,
	}).Info("Booking confirmed")

	r := *reservation
	return &r, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *CartService) ensureMutable(op models.CartOperation) error {
	s.touch()
	if s.confirmed {
		return &CartWorkflowError{Op: string(op), Message: ErrCartConfirmed.Error(), Err: ErrCartConfirmed}
	}
	return nil
}

// replaceCart swaps in the server's cart. A changed cart invalidates any
// earlier reservation.
func (s *CartService) replaceCart(resp *bokun.Response) (*models.CartState, error) {
	state, err := models.ParseCartState(resp.Body)
	if err != nil {
		return nil, err
	}
	if state.SessionID == "" {
		state.SessionID = s.sessionID
	}
	s.installCart(state)

	return copyCart(state), nil
}

func (s *CartService) installCart(state *models.CartState) {
	s.cart = state
	s.reservation = nil
}

// rejectionMessage reports a top-level "message" in an object body
func rejectionMessage(body []byte) (string, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}
	raw, ok := doc["message"]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var message string
	if err := json.Unmarshal(raw, &message); err == nil {
		return message, true
	}
	return string(raw), true
}

func (s *CartService) call(ctx context.Context, op models.CartOperation, method, path string, body interface{}, query url.Values) (*bokun.Response, error) {
	return s.callRedacted(ctx, op, method, path, body, body, query)
}

// callRedacted sends body but records logged in the audit trail
func (s *CartService) callRedacted(ctx context.Context, op models.CartOperation, method, path string, body, logged interface{}, query url.Values) (*bokun.Response, error) {
	start := time.Now()

	var resp *bokun.Response
	var err error
	if method == http.MethodGet {
		resp, err = s.client.GetOnce(ctx, path, query)
	} else {
		resp, err = s.client.Post(ctx, path, body, query)
	}

	s.record(ctx, op, method, path, logged, resp, err, start)

	return resp, err
}

// record emits a request log. Audit failures never fail the booking call.
func (s *CartService) record(ctx context.Context, op models.CartOperation, method, path string, body interface{}, resp *bokun.Response, callErr error, start time.Time) {
	if s.audit == nil {
		return
	}

	info := ClientInfoFromContext(ctx)
	entry := models.NewRequestLog(s.sessionID, op, method, path).
		SetOutgoingBody(body).
		SetError(callErr).
		SetClient(info.IP, info.Device).
		SetDuration(start)

	if resp != nil {
		entry.SetRemoteResponse(resp.Body)
	}

	var apiErr *bokun.APIError
	if errors.As(callErr, &apiErr) {
		entry.RemoteResponse = models.JSONB{
			"message": apiErr.Message,
			"fields":  models.ToJSONB(apiErr.Fields),
		}
	}

	if err := s.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WithFields(logrus.Fields{
			"session_id": s.sessionID,
			"operation":  op,
			"error":      err,
		}).Error("Failed to record cart request log")
	}
}

// failedReservation keeps the remote error payload as the reservation state
func failedReservation(err error) *models.ReservationState {
	var apiErr *bokun.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	return &models.ReservationState{Status: "ERROR", Raw: apiErr.Fields}
}

func redactCard(body map[string]interface{}, card models.CardDetails) map[string]interface{} {
	redacted := make(map[string]interface{}, len(body))
	for k, v := range body {
		redacted[k] = v
	}

	last4 := card.CardNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	redacted["card"] = map[string]interface{}{
		"name":  card.Name,
		"last4": last4,
	}
	return redacted
}

func copyCart(c *models.CartState) *models.CartState {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Bookings = append([]models.CartLineItem(nil), c.Bookings...)
	return &cp
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
