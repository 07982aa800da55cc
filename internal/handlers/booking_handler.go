package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/middleware"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/smarttransit/transfer-booking-backend/pkg/jwt"
)

// TransferBooker puts transfers into a remote cart
type TransferBooker interface {
	Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
}

// BookingHandler handles transfer booking requests
type BookingHandler struct {
	booker     TransferBooker
	jwtService *jwt.Service
	logger     *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(booker TransferBooker, jwtService *jwt.Service, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		booker:     booker,
		jwtService: jwtService,
		logger:     logger,
	}
}

// ============================================================================
// BOOK TRANSFER - POST /api/v1/bookings
// ============================================================================

// CreateBooking adds a one-way or round-trip transfer to the caller's cart.
// Without a cart token a new session is started and a token for it returned.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid request: " + err.Error(),
		})
		return
	}

	if sessionID, ok := middleware.GetCartSessionID(c); ok {
		req.SessionID = sessionID
	}

	result, err := h.booker.Book(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := h.jwtService.GenerateCartToken(result.SessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	expiresAt, err := h.jwtService.GetTokenExpiry(token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"session_id": result.SessionID,
		"product_id": req.ProductID,
		"round_trip": req.RoundTrip,
	}).Info("Transfer added to cart")

	c.JSON(http.StatusCreated, gin.H{
		"session_token": token,
		"expires_at":    expiresAt,
		"result":        result,
	})
}
