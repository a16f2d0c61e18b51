// Package app wires configuration, storage, models and the HTTP API into a
// running service. Both the server binary and the CLI's serve command use it.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/composer-api/internal/api"
	"github.com/Conceptual-Machines/composer-api/internal/config"
	"github.com/Conceptual-Machines/composer-api/internal/database"
	"github.com/Conceptual-Machines/composer-api/internal/metrics"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/Conceptual-Machines/composer-api/pkg/embedded"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

const (
	sentryFlushTimeout = 2 * time.Second
	releasePrefix      = "composer-api@"
)

// InitSentry configures error tracking when a DSN is set. The returned
// function flushes pending events and is safe to call either way.
func InitSentry(cfg *config.Config, version string) func() {
	if cfg.SentryDSN == "" {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
		return func() {}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          releasePrefix + version,
		EnableTracing:    true,
		TracesSampleRate: 1.0, // 100% sampling for now, adjust based on volume
		Debug:            !cfg.IsProduction(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = FilterSensitiveHeaders(event.Request.Headers)
			}
			return event
		},
	})
	if err != nil {
		log.Printf("Failed to initialize Sentry: %v", err)
		return func() {}
	}
	log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, version)
	return func() { sentry.Flush(sentryFlushTimeout) }
}

// FilterSensitiveHeaders redacts credentials before events leave the process
func FilterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

// LoadPatterns reads the trained pattern file, falling back to the embedded
// sample profile when none has been written yet
func LoadPatterns(path string) (*patterns.Store, error) {
	if path != "" {
		store, err := patterns.Load(path)
		if err == nil {
			log.Printf("📚 Loaded %d pattern entries from %s", store.Count(), path)
			return store, nil
		}
		if !patterns.IsNotFound(err) {
			return nil, err
		}
		log.Printf("📚 No pattern file at %s, using the built-in sample profile", path)
	}
	return patterns.Decode(embedded.SamplePatternsJSON, "embedded")
}

// NewOrchestrator builds the composition engine and trains it on the
// configured patterns
func NewOrchestrator(cfg *config.Config) (*coordination.Orchestrator, error) {
	orchestrator := coordination.NewOrchestrator(cfg.Engine())
	store, err := LoadPatterns(cfg.PatternsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	orchestrator.Train(store)
	return orchestrator, nil
}

// Run serves the API until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config, version string) error {
	flush := InitSentry(cfg, version)
	defer flush()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}
	if err := database.Migrate(db); err != nil {
		sentry.CaptureException(err)
		return err
	}

	orchestrator, err := NewOrchestrator(cfg)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	cloudWatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		return err
	}
	recorder := metrics.NewRecorder(metrics.NewSentryMetrics(), cloudWatch)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(db, cfg, orchestrator, recorder, version)

	if err := api.Serve(ctx, ":"+cfg.Port, router); err != nil {
		sentry.CaptureException(err)
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
