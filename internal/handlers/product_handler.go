package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/smarttransit/transfer-booking-backend/internal/services"
)

// TransferPlanner lists departures and prices parties
type TransferPlanner interface {
	Departures(ctx context.Context, productID int64, direction models.Direction, hotelConnection, roundTrip bool, date time.Time) ([]models.TimeSlot, error)
	Quote(ctx context.Context, productID int64, travelers int, date time.Time) (*models.Quote, error)
}

// ProductHandler handles catalog, availability and quote endpoints
type ProductHandler struct {
	catalog  services.CatalogStore
	planner  TransferPlanner
	location *time.Location
	logger   *logrus.Logger
}

// NewProductHandler creates a new ProductHandler. Dates are read in location.
func NewProductHandler(catalog services.CatalogStore, planner TransferPlanner, location *time.Location, logger *logrus.Logger) *ProductHandler {
	if location == nil {
		location = time.UTC
	}
	return &ProductHandler{
		catalog:  catalog,
		planner:  planner,
		location: location,
		logger:   logger,
	}
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetAvailability handles GET /api/v1/products/:id/availability
func (h *ProductHandler) GetAvailability(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	date, ok := h.parseDate(c)
	if !ok {
		return
	}

	direction := models.Direction(c.DefaultQuery("direction", string(models.DirectionOutbound)))
	hotelConnection := c.Query("hotel_connection") == "true"
	roundTrip := c.Query("round_trip") == "true"

	slots, err := h.planner.Departures(c.Request.Context(), productID, direction, hotelConnection, roundTrip, date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"date":       date.Format(services.DateLayout),
		"direction":  direction,
		"slots":      slots,
	})
}

// GetQuote handles GET /api/v1/products/:id/quote
func (h *ProductHandler) GetQuote(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	travelers, err := strconv.Atoi(c.DefaultQuery("travelers", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "travelers must be a number",
		})
		return
	}

	date, ok := h.parseDate(c)
	if !ok {
		return
	}

	quote, err := h.planner.Quote(c.Request.Context(), productID, travelers, date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// parseDate reads ?date=YYYY-MM-DD, defaulting to today
func (h *ProductHandler) parseDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		now := time.Now().In(h.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location), true
	}

	date, err := time.ParseInLocation(services.DateLayout, raw, h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "date must be formatted as YYYY-MM-DD",
		})
		return time.Time{}, false
	}
	return date, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid " + name,
		})
		return 0, false
	}
	return id, true
}
