package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/middleware"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/smarttransit/transfer-booking-backend/internal/services"
)

// CartSessions hands out the cart of a session
type CartSessions interface {
	Open(ctx context.Context, sessionID string) (*services.CartService, error)
	Remove(sessionID string)
}

// RequestLogReader lists the outgoing calls of a session
type RequestLogReader interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.RequestLog, error)
}

// CartHandler handles cart endpoints. Every route runs behind CartSessionMiddleware.
type CartHandler struct {
	carts  CartSessions
	logs   RequestLogReader
	logger *logrus.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts CartSessions, logs RequestLogReader, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logs:   logs,
		logger: logger,
	}
}

// CartResponse is the cart view returned by every cart route
type CartResponse struct {
	Status      models.CartStatus        `json:"status"`
	Cart        *models.CartState        `json:"cart"`
	Reservation *models.ReservationState `json:"reservation,omitempty"`
}

type upsertExtraRequest struct {
	ExtraID int64 `json:"extra_id" binding:"required"`
	Units   int   `json:"units" binding:"required,min=1"`
}

type promoCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type chargeRequest struct {
	Card   models.CardDetails `json:"card" binding:"required"`
	Amount *float64           `json:"amount,omitempty"`
}

// openCart resolves the session of the cart token to its cart
func (h *CartHandler) openCart(c *gin.Context) (*services.CartService, bool) {
	sessionID, ok := middleware.GetCartSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Cart session not found. Cart token middleware may not be applied.",
			"code":    "MISSING_CART_SESSION",
		})
		return nil, false
	}

	cart, err := h.carts.Open(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	return cart, true
}

func (h *CartHandler) respondCart(c *gin.Context, cart *services.CartService) {
	c.JSON(http.StatusOK, CartResponse{
		Status:      cart.Status(),
		Cart:        cart.Cart(),
		Reservation: cart.Reservation(),
	})
}

// ============================================================================
// CART CONTENT
// ============================================================================

// GetCart handles GET /api/v1/cart and re-reads the remote cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	if _, err := cart.Refresh(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondCart(c, cart)
}

// RemoveActivity handles DELETE /api/v1/cart/activities/:booking_id
func (h *CartHandler) RemoveActivity(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "booking_id")
	if !ok {
		return
	}
	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	if _, err := cart.RemoveActivity(c.Request.Context(), bookingID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondCart(c, cart)
}

// UpsertExtra handles PUT /api/v1/cart/activities/:booking_id/extras
func (h *CartHandler) UpsertExtra(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "booking_id")
	if !ok {
		return
	}

	var req upsertExtraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid request: " + err.Error(),
		})
		return
	}

	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	if _, err := cart.AddOrUpdateExtra(c.Request.Context(), bookingID, req.ExtraID, req.Units); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondCart(c, cart)
}

// RemoveExtra handles DELETE /api/v1/cart/activities/:booking_id/extras/:extra_id
func (h *CartHandler) RemoveExtra(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "booking_id")
	if !ok {
		return
	}
	extraID, ok := parseIDParam(c, "extra_id")
	if !ok {
		return
	}
	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	if _, err := cart.RemoveExtra(c.Request.Context(), bookingID, extraID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondCart(c, cart)
}

// ApplyPromoCode handles PUT /api/v1/cart/promo-code
func (h *CartHandler) ApplyPromoCode(c *gin.Context) {
	var req promoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid request: " + err.Error(),
		})
		return
	}

	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	if _, err := cart.ApplyPromoCode(c.Request.Context(), req.Code); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondCart(c, cart)
}

// RemovePromoCode handles DELETE /api/v1/cart/promo-code
func (h *CartHandler) RemovePromoCode(c *gin.Context) {
	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	if _, err := cart.RemovePromoCode(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondCart(c, cart)
}

// ============================================================================
// CHECKOUT
// ============================================================================

// Reserve handles POST /api/v1/cart/reserve
func (h *CartHandler) Reserve(c *gin.Context) {
	var req models.ReserveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid request: " + err.Error(),
		})
		return
	}

	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	if _, err := cart.Reserve(c.Request.Context(), req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondCart(c, cart)
}

// ChargeCard handles POST /api/v1/cart/charge. The booking stays unconfirmed.
func (h *CartHandler) ChargeCard(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid request: " + err.Error(),
		})
		return
	}

	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	result, err := cart.ChargeCard(c.Request.Context(), req.Card, req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Confirm handles POST /api/v1/cart/confirm and releases the session
func (h *CartHandler) Confirm(c *gin.Context) {
	var req models.ConfirmRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid request: " + err.Error(),
		})
		return
	}

	cart, ok := h.openCart(c)
	if !ok {
		return
	}

	reservation, err := cart.Confirm(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.carts.Remove(cart.SessionID())

	h.logger.WithFields(logrus.Fields{
		"session_id":        cart.SessionID(),
		"confirmation_code": reservation.ConfirmationCode,
	}).Info("Booking confirmed")

	c.JSON(http.StatusOK, CartResponse{
		Status:      models.CartStatusConfirmed,
		Cart:        cart.Cart(),
		Reservation: reservation,
	})
}

// ListRequests handles GET /api/v1/cart/requests
func (h *CartHandler) ListRequests(c *gin.Context) {
	sessionID, ok := middleware.GetCartSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Cart session not found",
			"code":    "MISSING_CART_SESSION",
		})
		return
	}

	logs, err := h.logs.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"requests":   logs,
		"count":      len(logs),
	})
}

// bindOptionalJSON accepts an empty body as the zero request
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(obj)
}
