package metrics

import (
	"context"
	"time"
)

// Recorder sends each measurement to Sentry and, in production, CloudWatch.
// A nil Recorder or nil client records nothing.
type Recorder struct {
	Sentry     *SentryMetrics
	CloudWatch *Client
}

func NewRecorder(sentryMetrics *SentryMetrics, cloudWatch *Client) *Recorder {
	return &Recorder{Sentry: sentryMetrics, CloudWatch: cloudWatch}
}

func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	if r.Sentry != nil {
		r.Sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
	r.CloudWatch.RecordAPIRequest(endpoint, statusCode, duration)
}

func (r *Recorder) RecordComposition(ctx context.Context, form string, measures int, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	if r.Sentry != nil {
		r.Sentry.RecordCompositionDuration(ctx, form, measures, duration, success)
	}
	r.CloudWatch.RecordCompositionDuration(form, measures, duration, success)
}

func (r *Recorder) RecordTraining(ctx context.Context, source string, patterns int, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	if r.Sentry != nil {
		r.Sentry.RecordTraining(ctx, source, patterns, duration, success)
	}
	r.CloudWatch.RecordTraining(source, patterns, duration, success)
}
