package tracing

import (
	"context"
	"io"
	"log"
	"sync"

	"paywall-bench/core/constants"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	stdout "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

type TracingProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

var (
	globalProvider *TracingProvider
	once           sync.Once
)

// NewProvider installs the process wide tracer provider on first use. Spans go
// to Jaeger when an endpoint is given, otherwise to out (stdout when nil).
func NewProvider(jaegerEndpoint string, out io.Writer) *TracingProvider {
	once.Do(func() {
		var exporter sdktrace.SpanExporter
		var err error
		if jaegerEndpoint == "" {
			opts := []stdout.Option{stdout.WithPrettyPrint()}
			if out != nil {
				opts = append(opts, stdout.WithWriter(out))
			}
			exporter, err = stdout.New(opts...)
		} else {
			exporter, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		}
		if err != nil {
			log.Fatal(err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(
				resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String(constants.APP_NAME),
				)),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		globalProvider = &TracingProvider{
			provider: tp,
			tracer:   tp.Tracer(constants.APP_NAME),
		}
	})

	return globalProvider
}

func (tp *TracingProvider) GetTracer() trace.Tracer {
	return tp.tracer
}

func (tp *TracingProvider) ShutDownTracer() {
	if err := tp.provider.Shutdown(context.Background()); err != nil {
		log.Printf("Error shutting down tracer provider: %v", err)
	}
}
