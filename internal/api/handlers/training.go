package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/composer-api/internal/api/middleware"
	"github.com/Conceptual-Machines/composer-api/internal/corpus"
	"github.com/Conceptual-Machines/composer-api/internal/metrics"
	"github.com/Conceptual-Machines/composer-api/internal/models"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/Conceptual-Machines/composer-api/internal/services"
	"github.com/gin-gonic/gin"
)

type TrainingHandler struct {
	service  *services.TrainingService
	recorder *metrics.Recorder
}

func NewTrainingHandler(service *services.TrainingService, recorder *metrics.Recorder) *TrainingHandler {
	return &TrainingHandler{service: service, recorder: recorder}
}

// Train retrains the models from an uploaded pattern file (style profile)
func (h *TrainingHandler) Train(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxTrainingUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "pattern file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store, err := patterns.Decode(body, "upload")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pattern file", "details": err.Error()})
		return
	}

	start := time.Now()
	run, err := h.service.TrainFromStore(c.Request.Context(), store, models.TrainingSourceUpload, middleware.GetUserID(c))
	h.recorder.RecordTraining(c.Request.Context(), models.TrainingSourceUpload, store.Count(), time.Since(start), err == nil)
	if err != nil {
		respondError(c, "Failed to train", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

// CorpusRequest is the body of POST /api/v1/training/corpus
type CorpusRequest struct {
	Period string `json:"period"` // "early", "middle" (default) or "late"
}

// TrainCorpus downloads a period of the corpus and retrains on it
func (h *TrainingHandler) TrainCorpus(c *gin.Context) {
	var req CorpusRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	period := corpus.Period(req.Period)
	switch period {
	case "":
		period = corpus.PeriodMiddle
	case corpus.PeriodEarly, corpus.PeriodMiddle, corpus.PeriodLate:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be early, middle or late"})
		return
	}

	start := time.Now()
	run, err := h.service.TrainFromCorpus(c.Request.Context(), period, middleware.GetUserID(c))
	patternCount := 0
	if run != nil {
		patternCount = run.IntervalPatterns + run.RhythmPatterns + run.ChordRows + run.Motifs
	}
	h.recorder.RecordTraining(c.Request.Context(), models.TrainingSourceCorpus, patternCount, time.Since(start), err == nil)
	if err != nil {
		respondError(c, "Failed to train from corpus", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "period": period})
}

// Runs lists recent training runs
func (h *TrainingHandler) Runs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.service.Runs(limit)
	if err != nil {
		respondError(c, "Failed to list training runs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
