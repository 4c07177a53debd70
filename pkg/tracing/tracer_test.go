package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/agentstation/netbox-connector/pkg/logging"
)

func TestSampleRatio(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{"", DefaultTraceSampleRatio},
		{"0.5", 0.5},
		{"1", 1},
		{"0", 0},
		{"abc", DefaultTraceSampleRatio},
		{"1.5", DefaultTraceSampleRatio},
		{"-0.1", DefaultTraceSampleRatio},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(EnvTraceSampleRatio, tt.value)
			assert.Equal(t, tt.want, SampleRatio(logging.NewNopLogger()))
		})
	}
}

func TestInitTracer(t *testing.T) {
	tp, err := InitTracer("netbox-connector", "test", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.Same(t, tp, otel.GetTracerProvider())

	ctx, span := otel.Tracer("test").Start(context.Background(), "root")
	defer span.End()
	assert.True(t, span.SpanContext().IsSampled())

	header := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
	assert.Contains(t, header.Get("traceparent"), span.SpanContext().TraceID().String())
}
