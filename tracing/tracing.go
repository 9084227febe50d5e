// Package tracing wraps OpenTelemetry so the scheduler core only deals with StartSpan/EndSpan.
// Until Init is called spans go to the global no-op provider.
package tracing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cpusched"

var (
	providerOnce sync.Once
	providerErr  error
	provider     *sdktrace.TracerProvider
	// output is the trace file opened by Init, closed by Shutdown
	output *os.File
)

// Init installs a stdout exporter, writing to outputFile when set. The first call wins.
func Init(serviceName, serviceVersion, outputFile string) error {
	var w io.Writer = os.Stdout
	var f *os.File
	if outputFile != "" {
		var err error
		if f, err = os.Create(outputFile); err != nil {
			return err
		}
		w = f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		closeFile(f)
		return err
	}
	installed, err := install(serviceName, serviceVersion, exporter)
	if !installed {
		closeFile(f)
		return err
	}
	output = f
	return err
}

// InitWithExporter registers exporter behind the global tracer provider
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	_, err := install(serviceName, serviceVersion, exporter)
	return err
}

// install reports whether this call installed the provider
func install(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (installed bool, err error) {
	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			providerErr = err
			return
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
		installed = true
	})
	return installed, providerErr
}

// Shutdown flushes and stops the installed provider, if any, then closes the trace file
func Shutdown(ctx context.Context) error {
	var err error
	if provider != nil {
		err = provider.Shutdown(ctx)
	}
	if output != nil {
		err = errors.Join(err, output.Close())
		output = nil
	}
	return err
}

func closeFile(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}

// Span wraps an OpenTelemetry span
type Span struct {
	span trace.Span
}

// StartSpan starts a child span; kind is one of SERVER, CLIENT, PRODUCER, CONSUMER, INTERNAL
func StartSpan(ctx context.Context, name, kind string) (context.Context, *Span) {
	var spanKind trace.SpanKind
	switch kind {
	case "SERVER":
		spanKind = trace.SpanKindServer
	case "CLIENT":
		spanKind = trace.SpanKindClient
	case "PRODUCER":
		spanKind = trace.SpanKindProducer
	case "CONSUMER":
		spanKind = trace.SpanKindConsumer
	default:
		spanKind = trace.SpanKindInternal
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithSpanKind(spanKind))
	return ctx, &Span{span: span}
}

// WithAttributes attaches all provided attributes to the span.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		otelAttrs = append(otelAttrs, attribute.String(k, v))
	}
	s.span.SetAttributes(otelAttrs...)
	return s
}

// EndSpan records err (or OK) and ends the span
func EndSpan(s *Span, err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
