package logger

import (
	"context"
	"fmt"
	"log"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	fields := Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}

	if userID, exists := c.Get("user_id"); exists {
		fields["user_id"] = userID
	}

	return fields
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	log.Printf("[INFO] %s %v", msg, formatFields(fields))
	breadcrumb("info", sentry.LevelInfo, msg, fields)
}

// Error logs an error message with structured fields and sends to Sentry
func Error(msg string, err error, fields Fields) {
	log.Printf("[ERROR] %s: %v %v", msg, err, formatFields(fields))

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			applyFields(scope, fields)
			hub.CaptureException(err)
		})
	}
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	log.Printf("[WARN] %s %v", msg, formatFields(fields))
	breadcrumb("warning", sentry.LevelWarning, msg, fields)
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	log.Printf("[DEBUG] %s %v", msg, formatFields(fields))
	breadcrumb("debug", sentry.LevelDebug, msg, fields)
}

// LogComposition logs a finished composition and records it as a Sentry span
func LogComposition(ctx context.Context, form string, measures int, duration time.Duration, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["form"] = form
	fields["measures"] = measures
	fields["duration_ms"] = duration.Milliseconds()

	Info("Composition completed", fields)

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		span := sentry.StartSpan(ctx, "composer.compose")
		span.Description = form
		span.SetData("measures", measures)
		span.Finish()
	}
}

// LogTraining logs a retraining run and records it as a Sentry span
func LogTraining(ctx context.Context, source string, entries int, duration time.Duration, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["source"] = source
	fields["entries"] = entries
	fields["duration_ms"] = duration.Milliseconds()

	Info("Models retrained", fields)

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		span := sentry.StartSpan(ctx, "composer.train")
		span.Description = source
		span.SetData("entries", entries)
		span.Finish()
	}
}

func breadcrumb(kind string, level sentry.Level, msg string, fields Fields) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     kind,
			Category: "log",
			Message:  msg,
			Data:     convertFieldsToMap(fields),
			Level:    level,
		})
	}
}

// applyFields copies fields onto a scope, tagging the ones worth filtering by
func applyFields(scope *sentry.Scope, fields Fields) {
	for key, value := range fields {
		scope.SetContext(key, map[string]interface{}{
			"value": value,
		})
	}
	for _, tag := range []string{"request_id", "form", "source"} {
		if v, ok := fields[tag].(string); ok {
			scope.SetTag(tag, v)
		}
	}
}

// formatFields renders fields as {k=v, ...} in key order
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		pairs = append(pairs, k+"="+formatValue(fields[k]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

func formatValue(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 2, 64)
	}
	return fmt.Sprint(v)
}

func convertFieldsToMap(fields Fields) map[string]interface{} {
	return maps.Clone(map[string]interface{}(fields))
}
