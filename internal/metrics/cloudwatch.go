package metrics

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace             = "Composer/API"
	httpStatusServerError = 500
	putTimeout            = 5 * time.Second
)

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a CloudWatch client. Outside production, or when no AWS
// config is available, the client is returned disabled.
func NewClient(ctx context.Context, environment string) (*Client, error) {
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{environment: environment}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{environment: environment}, nil
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return &Client{
		client:      cloudwatch.NewFromConfig(cfg),
		enabled:     true,
		environment: environment,
	}, nil
}

// Enabled reports whether metrics are actually sent
func (m *Client) Enabled() bool {
	return m != nil && m.enabled
}

// RecordAPIRequest counts a request (or error) and its latency per endpoint
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.Enabled() {
		return
	}
	name := "APIRequests"
	if statusCode >= httpStatusServerError {
		name = "APIErrors"
	}
	dims := m.dimensions("Endpoint", endpoint)
	m.send(
		datum(name, 1, types.StandardUnitCount, dims),
		datum("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
	)
}

// RecordCompositionDuration records a composition count, latency and length per form
func (m *Client) RecordCompositionDuration(form string, measures int, duration time.Duration, success bool) {
	if !m.Enabled() {
		return
	}
	dims := m.dimensions("Form", form, "Success", strconv.FormatBool(success))
	data := []types.MetricDatum{
		datum("Compositions", 1, types.StandardUnitCount, dims),
		datum("CompositionDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
	}
	if success {
		data = append(data, datum("CompositionMeasures", float64(measures), types.StandardUnitCount, dims))
	}
	m.send(data...)
}

// RecordTraining records a retraining run
func (m *Client) RecordTraining(source string, patterns int, duration time.Duration, success bool) {
	if !m.Enabled() {
		return
	}
	dims := m.dimensions("Source", source, "Success", strconv.FormatBool(success))
	m.send(
		datum("TrainingRuns", 1, types.StandardUnitCount, dims),
		datum("TrainingPatterns", float64(patterns), types.StandardUnitCount, dims),
		datum("TrainingDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
	)
}

// dimensions builds name/value pairs plus the environment dimension
func (m *Client) dimensions(pairs ...string) []types.Dimension {
	dims := make([]types.Dimension, 0, len(pairs)/2+1)
	for i := 0; i+1 < len(pairs); i += 2 {
		dims = append(dims, types.Dimension{
			Name:  aws.String(pairs[i]),
			Value: aws.String(pairs[i+1]),
		})
	}
	return append(dims, types.Dimension{
		Name:  aws.String("Environment"),
		Value: aws.String(m.environment),
	})
}

func datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dims,
	}
}

// send publishes the data in one PutMetricData call off the request path
func (m *Client) send(data ...types.MetricDatum) {
	if m.client == nil || len(data) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(namespace),
			MetricData: data,
		})
		if err != nil {
			log.Printf("Failed to record %s metrics: %v", aws.ToString(data[0].MetricName), err)
		}
	}()
}
