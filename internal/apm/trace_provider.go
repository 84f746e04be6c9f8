// Package apm configures OpenTelemetry tracing for the service.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fd1az/pool-service/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

type Exporter string

const (
	OTLPGRPCExporter Exporter = "otlp-grpc"
	OTLPHTTPExporter Exporter = "otlp-http"
	ZipkinExporter   Exporter = "zipkin"
	ConsoleExporter  Exporter = "console"
	NoneExporter     Exporter = "none"
)

type TraceProvider interface {
	Stop() error
}

type noopProvider struct{}

func (noopProvider) Stop() error { return nil }

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type TracerOptions struct {
	ServiceName string
	Exporter    Exporter
	Endpoint    string
	Headers     string // key=value
}

func newExporter(ctx context.Context, opts TracerOptions) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case ConsoleExporter:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ZipkinExporter:
		return zipkin.New(opts.Endpoint)
	case OTLPHTTPExporter:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(opts.Endpoint),
			otlptracehttp.WithHeaders(parseHeaders(opts.Headers)),
		)
	case OTLPGRPCExporter:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(opts.Endpoint),
			otlptracegrpc.WithHeaders(parseHeaders(opts.Headers)),
		)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", opts.Exporter)
	}
}

func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && key != "" {
			headers[key] = value
		}
	}
	return headers
}

// NewTraceProvider installs a global tracer provider. Exporter setup failures
// are logged and fall back to a no-op provider so the API keeps serving.
func NewTraceProvider(log logger.LoggerInterface, opts TracerOptions) TraceProvider {
	ctx := context.Background()

	if opts.Exporter == NoneExporter || opts.Exporter == "" {
		return noopProvider{}
	}

	exp, err := newExporter(ctx, opts)
	if err != nil {
		log.Error(ctx, "Error initializing trace exporter, tracing disabled",
			"exporter", opts.Exporter, "error", err)
		return noopProvider{}
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			attribute.String("otel.exporter", string(opts.Exporter)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "Tracing enabled", "exporter", opts.Exporter, "endpoint", opts.Endpoint)

	return &traceProvider{tp}
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}
