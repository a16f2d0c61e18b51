package handlers

import (
	"math/rand/v2"
	"net/http"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/agents/motif"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/gin-gonic/gin"
)

// DevelopRequest is the body of POST /api/v1/motifs/develop. An empty
// technique picks one uniformly at random. Intervals are semitones within
// the MIDI span, at most 64 of them.
type DevelopRequest struct {
	Intervals []int            `json:"intervals" binding:"required,min=1,max=64,dive,min=-127,max=127"`
	Rhythm    []music.Duration `json:"rhythm"`
	Contour   string           `json:"contour"`
	Technique string           `json:"technique"`
	Seed      *uint64          `json:"seed,omitempty"`
}

type DevelopResponse struct {
	Original  motif.Cell      `json:"original"`
	Developed motif.Cell      `json:"developed"`
	Technique motif.Technique `json:"technique"`
	Notes     []music.Note    `json:"notes"`
}

// DevelopMotif applies one development technique to a cell and realizes
// the result from middle C
func DevelopMotif(c *gin.Context) {
	var req DevelopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rhythm := make([]music.Duration, len(req.Intervals))
	for i := range rhythm {
		if i < len(req.Rhythm) && req.Rhythm[i].IsPositive() {
			rhythm[i] = req.Rhythm[i]
		} else {
			rhythm[i] = music.Eighth
		}
	}
	contour := motif.Contour(req.Contour)
	if contour == "" {
		contour = motif.ContourMixed
	}
	cell := motif.Cell{Name: "request", Intervals: req.Intervals, Rhythm: rhythm, Contour: contour, Importance: 1}

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	transformer := motif.NewTransformer(coordination.NewRand(seed))

	var (
		developed motif.Cell
		technique motif.Technique
	)
	if req.Technique == "" {
		developed, technique = transformer.DevelopRandom(cell)
	} else {
		t, err := motif.ParseTechnique(req.Technique)
		if err != nil {
			respondError(c, "Unknown technique", err)
			return
		}
		if developed, err = transformer.Develop(cell, t); err != nil {
			respondError(c, "Failed to develop motif", err)
			return
		}
		technique = t
	}

	c.JSON(http.StatusOK, DevelopResponse{
		Original:  cell,
		Developed: developed,
		Technique: technique,
		Notes:     motif.Realize(developed, musical.New(music.CMajor)),
	})
}
