package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/composer-api/internal/agents/markov"
	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	startTime    time.Time
	version      string
	orchestrator *coordination.Orchestrator
}

func NewMetricsHandler(version string, orchestrator *coordination.Orchestrator) *MetricsHandler {
	return &MetricsHandler{
		startTime:    time.Now(),
		version:      version,
		orchestrator: orchestrator,
	}
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
)

// formatUptime formats the uptime duration with seconds rounded to 2 decimal places
func formatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % secondsPerMinute
	seconds := d.Seconds() - float64(hours*secondsPerHour) - float64(minutes*secondsPerMinute)

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%.2fs", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%.2fs", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", seconds)
}

type MetricsResponse struct {
	Status    string        `json:"status"`
	Uptime    string        `json:"uptime"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version"`
	StartTime string        `json:"start_time"`
	System    SystemMetrics `json:"system"`
	Model     ModelMetrics  `json:"model"`
}

type SystemMetrics struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAllocMB   uint64 `json:"mem_alloc_mb"`
	MemTotalMB   uint64 `json:"mem_total_mb"`
	NumGC        uint32 `json:"num_gc"`
}

// ModelMetrics describes the currently trained composition models
type ModelMetrics struct {
	Markov           markov.Stats `json:"markov"`
	TrainedAt        string       `json:"trained_at"`
	PatternEntries   int          `json:"pattern_entries"`
	DefaultsOnly     bool         `json:"defaults_only"`
	HomeKey          string       `json:"home_key"`
	MotifProbability float64      `json:"motif_probability"`
}

const (
	bytesToMB = 1024 * 1024
)

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	metrics := MetricsResponse{
		Status:    "healthy",
		Uptime:    formatUptime(uptime),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		StartTime: h.startTime.UTC().Format(time.RFC3339),
		System: SystemMetrics{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAllocMB:   m.Alloc / bytesToMB,
			MemTotalMB:   m.TotalAlloc / bytesToMB,
			NumGC:        m.NumGC,
		},
		Model: h.modelMetrics(),
	}

	c.JSON(http.StatusOK, metrics)
}

func (h *MetricsHandler) modelMetrics() ModelMetrics {
	cfg := h.orchestrator.Config()
	mm := ModelMetrics{
		Markov:           h.orchestrator.ModelStats(),
		TrainedAt:        h.orchestrator.TrainedAt().UTC().Format(time.RFC3339),
		DefaultsOnly:     true,
		HomeKey:          cfg.Key.String(),
		MotifProbability: cfg.MotifProbability,
	}
	if store := h.orchestrator.Patterns(); store != nil {
		mm.PatternEntries = store.Count()
		mm.DefaultsOnly = false
	}
	return mm
}
