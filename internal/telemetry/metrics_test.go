package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestUploadMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := NewUploadMetricsWithMeter(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.Record(ctx, "Static Analysis", "succeeded", 150*time.Millisecond)
	m.Record(ctx, ComprehensiveTool, "failed", time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]metricdata.Metrics{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		names[metric.Name] = metric
	}
	require.Contains(t, names, "mobipent.uploads")
	require.Contains(t, names, "mobipent.upload.duration")

	sum, ok := names["mobipent.uploads"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	tools := map[string]bool{}
	for _, dp := range sum.DataPoints {
		total += dp.Value
		tool, _ := dp.Attributes.Value("tool")
		tools[tool.AsString()] = true
	}
	assert.Equal(t, int64(2), total)
	assert.True(t, tools[ComprehensiveTool])
	assert.True(t, tools["Static Analysis"])
}

func TestNilUploadMetricsIsNoop(t *testing.T) {
	var m *UploadMetrics
	assert.NotPanics(t, func() { m.Record(context.Background(), "x", "succeeded", time.Second) })
}

func TestInitializeDisabled(t *testing.T) {
	p, err := Initialize(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, p.Shutdown(context.Background()))
}
