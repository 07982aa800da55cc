package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smarttransit/transfer-booking-backend/internal/services"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
		code   string
	}{
		{"validation", &services.ValidationError{Message: "at least one traveler is required"}, http.StatusBadRequest, "validation_error", "VALIDATION_FAILED"},
		{"invalid start time", &services.ResolutionError{Kind: services.ResolutionInvalidStartTime, Message: "no slot"}, http.StatusUnprocessableEntity, "invalid_start_time", "INVALID_START_TIME"},
		{"extra unavailable", &services.ResolutionError{Kind: services.ResolutionExtraUnavailable, Message: "no FLD"}, http.StatusUnprocessableEntity, "extra_unavailable", "EXTRA_UNAVAILABLE"},
		{"product not found", &services.ResolutionError{Kind: services.ResolutionProductNotFound, Message: "product 9 not found"}, http.StatusNotFound, "product_not_found", "PRODUCT_NOT_FOUND"},
		{"catalog config", &services.ResolutionError{Kind: services.ResolutionConfig, Message: "missing variant"}, http.StatusInternalServerError, "config", "CONFIG"},
		{"wrapped resolution", fmt.Errorf("leg failed: %w", &services.ResolutionError{Kind: services.ResolutionMissingCategory}), http.StatusInternalServerError, "missing_category", "MISSING_CATEGORY"},
		{"cart workflow", &services.CartWorkflowError{Op: "confirm", Err: services.ErrNotReserved}, http.StatusConflict, "cart_workflow_error", "CART_NOT_RESERVED"},
		{"rejected add", &services.CartWorkflowError{Op: "add_activity", Message: "failed to add activity to cart. Reason: Sold out"}, http.StatusConflict, "cart_workflow_error", "CART_REJECTED"},
		{"payment id used", &services.CartWorkflowError{Op: "confirm", Err: services.ErrPaymentIDAlreadyUsed}, http.StatusConflict, "cart_workflow_error", "PAYMENT_ID_ALREADY_USED"},
		{"remote api", fmt.Errorf("failed to reserve: %w", &bokun.APIError{Message: "Sold out"}), http.StatusBadGateway, "remote_error", "REMOTE_REJECTED"},
		{"transport", &bokun.TransportError{Method: "POST", URL: "x", Err: errors.New("timeout")}, http.StatusGatewayTimeout, "remote_unavailable", "REMOTE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error", "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/fail", func(c *gin.Context) {
				respondError(c, testLogger(), tt.err)
			})

			status, body := doJSON(t, router, "GET", "/fail", nil, nil)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, body["error"])
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestRespondError_RemoteMessageIsForwarded(t *testing.T) {
	router := setupTestRouter()
	router.GET("/fail", func(c *gin.Context) {
		respondError(c, testLogger(), &bokun.APIError{Message: "Sold out", Fields: []byte(`{"date": "2024-05-01"}`)})
	})

	_, body := doJSON(t, router, "GET", "/fail", nil, nil)
	assert.Equal(t, "Sold out", body["message"])
	assert.Equal(t, map[string]interface{}{"date": "2024-05-01"}, body["fields"])
}
