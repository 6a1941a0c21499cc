package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "mobipent-client"

// ComprehensiveTool is the tool attribute recorded for the comprehensive scan
const ComprehensiveTool = "comprehensive"

// UploadMetrics records the outcome and latency of every upload
type UploadMetrics struct {
	uploads  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewUploadMetrics creates the instruments on the global meter provider
func NewUploadMetrics() (*UploadMetrics, error) {
	return NewUploadMetricsWithMeter(otel.Meter(meterName))
}

// NewUploadMetricsWithMeter creates the instruments on meter
func NewUploadMetricsWithMeter(meter metric.Meter) (*UploadMetrics, error) {
	uploads, err := meter.Int64Counter("mobipent.uploads",
		metric.WithDescription("Uploads sent to the analysis backend"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("mobipent.upload.duration",
		metric.WithDescription("Upload round-trip time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &UploadMetrics{uploads: uploads, duration: duration}, nil
}

// Record adds one upload
func (m *UploadMetrics) Record(ctx context.Context, tool, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	)
	m.uploads.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
