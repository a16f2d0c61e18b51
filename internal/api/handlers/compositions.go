package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Conceptual-Machines/composer-api/internal/api/middleware"
	"github.com/Conceptual-Machines/composer-api/internal/metrics"
	"github.com/Conceptual-Machines/composer-api/internal/models"
	"github.com/Conceptual-Machines/composer-api/internal/score"
	"github.com/Conceptual-Machines/composer-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CompositionHandler struct {
	service  *services.CompositionService
	recorder *metrics.Recorder
}

func NewCompositionHandler(service *services.CompositionService, recorder *metrics.Recorder) *CompositionHandler {
	return &CompositionHandler{service: service, recorder: recorder}
}

// Create composes a new piece. JSON responses carry the record and the
// score; midi and musicxml respond with the file itself.
func (h *CompositionHandler) Create(c *gin.Context) {
	var req models.CompositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := h.service.Compose(c.Request.Context(), req, middleware.GetUserID(c))
	h.recorder.RecordComposition(c.Request.Context(), req.Form, req.Measures, time.Since(start), err == nil)
	if err != nil {
		respondError(c, "Failed to compose", err)
		return
	}

	format := score.ParseFormat(req.Format)
	if result.Record != nil {
		c.Header("Location", "/api/v1/compositions/"+result.Record.ID)
	}
	if format != score.FormatJSON {
		h.sendFile(c, http.StatusCreated, result.Score, format)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"composition": result.Record,
		"score":       result.Score,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

// List returns stored compositions, newest first. Callers only see their
// own pieces unless the API runs without auth.
func (h *CompositionHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset, _ := strconv.Atoi(c.Query("offset"))
	offset = max(offset, 0)

	opts := models.ListOptions{
		UserID: ownerFilter(c),
		Form:   c.Query("form"),
		Limit:  limit,
		Offset: offset,
	}
	records, total, err := h.service.List(opts)
	if err != nil {
		respondError(c, "Failed to list compositions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"compositions": records,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// Get returns one stored composition; ?format=midi|musicxml downloads the file
func (h *CompositionHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondError(c, "Failed to get composition", err)
		return
	}
	if owner := ownerFilter(c); owner != "" && record.UserID != owner {
		c.JSON(http.StatusNotFound, gin.H{"error": "composition not found"})
		return
	}

	sc, err := h.service.LoadScore(record)
	if err != nil {
		respondError(c, "Failed to decode stored score", err)
		return
	}

	if format := score.ParseFormat(c.Query("format")); format != score.FormatJSON {
		h.sendFile(c, http.StatusOK, sc, format)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"composition": record,
		"score":       sc,
	})
}

func (h *CompositionHandler) sendFile(c *gin.Context, status int, sc *score.Score, format score.Format) {
	var buf bytes.Buffer
	if err := score.Write(sc, format, &buf); err != nil {
		respondError(c, "Failed to export score", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, fileName(sc.Metadata.Title), format.Extension()))
	c.Data(status, format.ContentType(), buf.Bytes())
}

// ownerFilter restricts listings to the caller; the anonymous user of
// AUTH_MODE=none sees everything
func ownerFilter(c *gin.Context) string {
	userID := middleware.GetUserID(c)
	if userID == middleware.AnonymousUser {
		return ""
	}
	return userID
}

// fileName turns "Composition in Sonata Form" into "composition_in_sonata_form"
func fileName(title string) string {
	name := strings.ToLower(strings.Join(strings.Fields(title), "_"))
	if name == "" {
		return "composition"
	}
	return name
}
