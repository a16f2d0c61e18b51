package handlers

import (
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/composer-api/internal/agents/structure"
	"github.com/gin-gonic/gin"
)

// GetPlan returns the section plan for ?measures=&form=
func GetPlan(c *gin.Context) {
	measures := defaultPlanMeasures
	if raw := c.Query("measures"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "measures must be a positive integer"})
			return
		}
		measures = n
	}

	form := structure.ParseForm(c.Query("form"))
	plan := structure.Plan(measures, form)
	c.JSON(http.StatusOK, gin.H{
		"form":           form,
		"measures":       measures,
		"total_measures": structure.TotalMeasures(plan),
		"sections":       plan,
		"parents":        structure.Parents(plan),
	})
}
