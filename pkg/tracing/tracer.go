// Package tracing sets up OpenTelemetry for the connector. Spans are only
// used for trace_id/span_id generation and W3C Trace Context propagation on
// outgoing requests and emitted CloudEvents; no exporter is configured.
package tracing

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const (
	// EnvTraceSampleRatio is the environment variable for the trace sampling ratio
	EnvTraceSampleRatio = "TRACE_SAMPLE_RATIO"

	// DefaultTraceSampleRatio samples 10% of root spans
	DefaultTraceSampleRatio = 0.1
)

// SampleRatio reads TRACE_SAMPLE_RATIO. Missing, unparsable or out of range
// values fall back to DefaultTraceSampleRatio.
func SampleRatio(log *zerolog.Logger) float64 {
	text := os.Getenv(EnvTraceSampleRatio)
	if text == "" {
		return DefaultTraceSampleRatio
	}

	ratio, err := strconv.ParseFloat(text, 64)
	if err != nil {
		log.Warn().Err(err).Str("value", text).Msgf("invalid %s, using default", EnvTraceSampleRatio)
		return DefaultTraceSampleRatio
	}
	if ratio < 0 || ratio > 1 {
		log.Warn().Float64("value", ratio).Msgf("%s must be between 0.0 and 1.0, using default", EnvTraceSampleRatio)
		return DefaultTraceSampleRatio
	}
	return ratio
}

// InitTracer installs a global TracerProvider and the W3C Trace Context
// propagator. Root spans are sampled at sampleRatio; child spans follow their
// parent's decision.
func InitTracer(serviceName, serviceVersion string, sampleRatio float64) (*sdktrace.TracerProvider, error) {
	// Not merged with resource.Default() to avoid schema URL conflicts.
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}
