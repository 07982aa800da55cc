package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/pkg/jwt"
)

// CartTokenHeader carries the signed cart session token
const CartTokenHeader = "X-Cart-Token"

// CartSessionKey is the key used to store the cart session id in Gin context
const CartSessionKey = "cart_session_id"

// CartSessionMiddleware requires a valid cart token and exposes its session id
func CartSessionMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(CartTokenHeader))
		if token == "" {
			logger.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Debug("Cart token missing")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": CartTokenHeader + " header is required",
				"code":    "MISSING_CART_TOKEN",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateCartToken(token)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("Cart token rejected")

			if jwt.IsExpired(err) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "token_expired",
					"message": "Cart session has expired. Start a new booking.",
					"code":    "CART_TOKEN_EXPIRED",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid_token",
					"message": "Invalid cart token",
					"code":    "INVALID_CART_TOKEN",
				})
			}
			c.Abort()
			return
		}

		c.Set(CartSessionKey, claims.SessionID)
		c.Next()
	}
}

// OptionalCartSession picks up the session of a valid cart token when one is
// sent and lets the request through either way.
func OptionalCartSession(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := strings.TrimSpace(c.GetHeader(CartTokenHeader)); token != "" {
			if claims, err := jwtService.ValidateCartToken(token); err == nil {
				c.Set(CartSessionKey, claims.SessionID)
			}
		}
		c.Next()
	}
}

// GetCartSessionID retrieves the cart session id from Gin context
func GetCartSessionID(c *gin.Context) (string, bool) {
	value, exists := c.Get(CartSessionKey)
	if !exists {
		return "", false
	}

	sessionID, ok := value.(string)
	if !ok || sessionID == "" {
		return "", false
	}

	return sessionID, true
}
