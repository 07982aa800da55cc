package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/smarttransit/transfer-booking-backend/internal/services"
	"github.com/smarttransit/transfer-booking-backend/internal/utils"
)

// ClientInfo attaches the caller's address and device to the request context
// so cart request logs can name who triggered them.
func ClientInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := services.ClientInfo{
			IP:     utils.GetRealIP(c),
			Device: utils.ParseUserAgent(c.Request.UserAgent()).Summary(),
		}
		c.Request = c.Request.WithContext(services.WithClientInfo(c.Request.Context(), info))
		c.Next()
	}
}
