package handlers

import (
	"math/rand/v2"
	"net/http"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/gin-gonic/gin"
)

type ProgressionHandler struct {
	orchestrator *coordination.Orchestrator
}

func NewProgressionHandler(orchestrator *coordination.Orchestrator) *ProgressionHandler {
	return &ProgressionHandler{orchestrator: orchestrator}
}

// ProgressionRequest is the body of POST /api/v1/progressions
type ProgressionRequest struct {
	Length      int      `json:"length"`
	SectionType string   `json:"section_type"` // "exposition", "development", ...
	Tension     *float64 `json:"tension,omitempty"`
	Seed        *uint64  `json:"seed,omitempty"`
}

func (h *ProgressionHandler) Generate(c *gin.Context) {
	var req ProgressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Length == 0 {
		req.Length = defaultProgressionLen
	}
	if req.Length < 0 || req.Length > maxProgressionLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "length must be between 1 and 256"})
		return
	}
	tension := defaultTension
	if req.Tension != nil {
		tension = *req.Tension
	}
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	symbols, chords := h.orchestrator.Progression(req.Length, req.SectionType, tension, seed)
	names := make([][]string, len(chords))
	for i, chord := range chords {
		names[i] = make([]string, len(chord.Pitches))
		for j, p := range chord.Pitches {
			names[i][j] = p.Name()
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"progression": symbols,
		"voicings":    names,
		"key":         h.orchestrator.Config().Key.String(),
		"seed":        seed,
	})
}
