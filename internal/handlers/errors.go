package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/services"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
)

// respondError maps service and Bokun errors to HTTP responses
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		validationErr *services.ValidationError
		resolutionErr *services.ResolutionError
		workflowErr   *services.CartWorkflowError
		apiErr        *bokun.APIError
		transportErr  *bokun.TransportError
	)

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": validationErr.Message,
			"code":    "VALIDATION_FAILED",
		})

	case errors.As(err, &resolutionErr):
		status := http.StatusInternalServerError
		switch resolutionErr.Kind {
		case services.ResolutionInvalidStartTime, services.ResolutionExtraUnavailable:
			status = http.StatusUnprocessableEntity
		case services.ResolutionProductNotFound:
			status = http.StatusNotFound
		default:
			entry.Error("Catalog resolution failed")
		}
		c.JSON(status, gin.H{
			"error":   string(resolutionErr.Kind),
			"message": resolutionErr.Message,
			"code":    strings.ToUpper(string(resolutionErr.Kind)),
		})

	case errors.As(err, &workflowErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "cart_workflow_error",
			"message": workflowErr.Error(),
			"code":    workflowCode(workflowErr),
		})

	case errors.As(err, &apiErr):
		entry.Warn("Bokun rejected request")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "remote_error",
			"message": apiErr.Message,
			"fields":  apiErr.Fields,
			"code":    "REMOTE_REJECTED",
		})

	case errors.As(err, &transportErr):
		entry.Error("Bokun unreachable")
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":   "remote_unavailable",
			"message": "Booking service is temporarily unavailable",
			"code":    "REMOTE_UNAVAILABLE",
		})

	default:
		entry.Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
			"code":    "INTERNAL_ERROR",
		})
	}
}

func workflowCode(err *services.CartWorkflowError) string {
	switch {
	case errors.Is(err, services.ErrNotReserved):
		return "CART_NOT_RESERVED"
	case errors.Is(err, services.ErrCartConfirmed):
		return "CART_CONFIRMED"
	case errors.Is(err, services.ErrPaymentIDAlreadyUsed):
		return "PAYMENT_ID_ALREADY_USED"
	default:
		return "CART_REJECTED"
	}
}
