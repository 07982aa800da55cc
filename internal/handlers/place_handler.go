package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// PlaceDirectory lists the pickup and dropoff places of a vendor
type PlaceDirectory interface {
	ListPlaces(ctx context.Context, vendorID int64) ([]models.Place, error)
}

// PlaceHandler handles place listing
type PlaceHandler struct {
	places   PlaceDirectory
	vendorID int64
	logger   *logrus.Logger
}

// NewPlaceHandler creates a new PlaceHandler
func NewPlaceHandler(places PlaceDirectory, vendorID int64, logger *logrus.Logger) *PlaceHandler {
	return &PlaceHandler{
		places:   places,
		vendorID: vendorID,
		logger:   logger,
	}
}

// ListPlaces handles GET /api/v1/places
func (h *PlaceHandler) ListPlaces(c *gin.Context) {
	places, err := h.places.ListPlaces(c.Request.Context(), h.vendorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"places": places,
		"count":  len(places),
	})
}
