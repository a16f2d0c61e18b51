package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
)

// requests below this status count as successful
const successStatusCodeThreshold = http.StatusBadRequest

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{enabled: true}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", strconv.Itoa(statusCode))
	span.SetTag("success", strconv.FormatBool(statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	span.Status = spanStatus(statusCode < successStatusCodeThreshold)
	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordCompositionDuration records how long one composition took
func (m *SentryMetrics) RecordCompositionDuration(ctx context.Context, form string, measures int, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "composition.request")
	defer span.Finish()

	span.SetTag("form", form)
	span.SetTag("success", strconv.FormatBool(success))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("measures", measures)
	span.SetData("success", success)

	span.Status = spanStatus(success)
	span.Description = fmt.Sprintf("Composition: %s (%d measures)", form, measures)
}

// RecordTraining records a model retraining
func (m *SentryMetrics) RecordTraining(ctx context.Context, source string, patterns int, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	// Attach to the request transaction too, so retrains are searchable there
	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("training.source", source)
		transaction.SetData("training.patterns", patterns)
	}

	span := sentry.StartSpan(ctx, "training.run")
	defer span.Finish()

	span.SetTag("source", source)
	span.SetData("patterns", patterns)
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = spanStatus(success)
	span.Description = fmt.Sprintf("Training: %s", source)
}

func spanStatus(success bool) sentry.SpanStatus {
	if success {
		return sentry.SpanStatusOK
	}
	return sentry.SpanStatusInternalError
}
