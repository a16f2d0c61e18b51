package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/composer-api/internal/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck returns the health status of the API and its database
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	status := http.StatusOK
	if h.db != nil {
		dbStatus = "connected"
		if err := database.Ping(h.db); err != nil {
			dbStatus = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"database": gin.H{
			"status": dbStatus,
		},
	})
}
