package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
	headerUserRole  = "X-User-Role"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email, X-User-Role).
// The gateway in front of the API validates credentials; the API trusts these
// headers unconditionally, so only use it behind proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		setUser(c, userID, c.GetHeader(headerUserEmail), c.GetHeader(headerUserRole))
		c.Next()
	}
}

// OptionalGatewayAuth is like GatewayAuth but doesn't fail if headers are missing
func OptionalGatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader(headerUserID); userID != "" {
			setUser(c, userID, c.GetHeader(headerUserEmail), c.GetHeader(headerUserRole))
		}
		c.Next()
	}
}
