package middleware

import (
	"net/http"

	"github.com/Conceptual-Machines/composer-api/internal/models"
	"github.com/gin-gonic/gin"
)

// TrainerRequired ensures the caller's role may retrain the models
func TrainerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !models.CanTrain(GetUserRole(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Trainer access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
