package middleware

import (
	"github.com/Conceptual-Machines/composer-api/internal/models"
	"github.com/gin-gonic/gin"
)

// AnonymousUser is the caller attached when AUTH_MODE=none
const AnonymousUser = "anonymous"

// NoAuth is a pass-through middleware for AUTH_MODE=none. Self-hosted
// installs have a single operator, so the anonymous user may also retrain.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		setUser(c, AnonymousUser, "", models.RoleAdmin)
		c.Next()
	}
}
