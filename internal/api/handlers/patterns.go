package handlers

import (
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/gin-gonic/gin"
)

type PatternsHandler struct {
	orchestrator *coordination.Orchestrator
}

func NewPatternsHandler(orchestrator *coordination.Orchestrator) *PatternsHandler {
	return &PatternsHandler{orchestrator: orchestrator}
}

// Get returns the pattern store the models were trained from. With ?top=N
// only the N most common entries of each histogram are returned.
func (h *PatternsHandler) Get(c *gin.Context) {
	store := h.orchestrator.Patterns()
	if store == nil {
		store = patterns.NewStore()
	}

	raw := c.Query("top")
	if raw == "" {
		c.JSON(http.StatusOK, store)
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a positive integer"})
		return
	}

	top := make(map[string][]patterns.Entry, len(patterns.HistogramCategories))
	for _, category := range patterns.HistogramCategories {
		top[category] = store.TopN(category, n)
	}
	c.JSON(http.StatusOK, gin.H{
		"top":     top,
		"motifs":  len(store.Motifs),
		"phrases": len(store.PhraseStructures),
	})
}
