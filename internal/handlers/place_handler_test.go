package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

type fakePlaces struct {
	vendorID int64
	places   []models.Place
	err      error
}

func (f *fakePlaces) ListPlaces(ctx context.Context, vendorID int64) ([]models.Place, error) {
	f.vendorID = vendorID
	return f.places, f.err
}

func TestPlaceHandler_ListPlaces(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		places := &fakePlaces{places: []models.Place{
			{ID: 2, Title: "BSI Bus Terminal", Type: models.PlaceTypeTerminal},
			{ID: 1, Title: "Hotel Borg", Type: models.PlaceTypeHotel},
		}}
		router := setupTestRouter()
		router.GET("/places", NewPlaceHandler(places, 12, testLogger()).ListPlaces)

		status, body := doJSON(t, router, "GET", "/places", nil, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.EqualValues(t, 2, body["count"])
		assert.Equal(t, int64(12), places.vendorID)
	})

	t.Run("Database Error", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/places", NewPlaceHandler(&fakePlaces{err: errors.New("connection reset")}, 12, testLogger()).ListPlaces)

		status, _ := doJSON(t, router, "GET", "/places", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, status)
	})
}
