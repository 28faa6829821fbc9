package parking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"parking-system/internal/config"
)

type testTelemetry struct {
	provider *TelemetryProvider
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
}

func newTestTelemetry(t *testing.T) *testTelemetry {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	provider := NewTelemetryProviderFrom(tp, mp, "parking-test")
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	return &testTelemetry{provider: provider, spans: spans, reader: reader}
}

func (tt *testTelemetry) spanNames() []string {
	var names []string
	for _, span := range tt.spans.Ended() {
		names = append(names, span.Name())
	}
	return names
}

func (tt *testTelemetry) collect(t *testing.T) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, tt.reader.Collect(context.Background(), &rm))

	metrics := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			metrics[m.Name] = m
		}
	}
	return metrics
}

func sumInt64(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is %T", m.Name, m.Data)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func gaugeInt64(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "metric %s is %T", m.Name, m.Data)
	require.Len(t, gauge.DataPoints, 1)
	return gauge.DataPoints[0].Value
}

func TestNewTelemetryProvider_None(t *testing.T) {
	cfg := config.Defaults().Telemetry
	cfg.Exporter = "none"

	tp, err := NewTelemetryProvider(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, tp.Tracer())
	require.NotNil(t, tp.Meter())

	_, span := tp.Tracer().Start(context.Background(), "probe")
	require.True(t, span.SpanContext().IsValid(), "spans carry ids without an exporter")
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTelemetryProvider_Stdout(t *testing.T) {
	cfg := config.Defaults().Telemetry
	cfg.Exporter = "stdout"

	tp, err := NewTelemetryProvider(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTelemetryProvider_UnknownExporter(t *testing.T) {
	cfg := config.Defaults().Telemetry
	cfg.Exporter = "zipkin"

	_, err := NewTelemetryProvider(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported exporter type")
}
