package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/lending-library-go/library"
)

const attrOutcome = "outcome"

// TracingCollector implements library.TracingCollector with an OpenTelemetry tracer.
// Every unit of work becomes one span, started as a child of the span found in the caller's context.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a new OpenTelemetry tracing collector.
// The tracer should be created from your OpenTelemetry TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts an internal span carrying attrs as string attributes.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, library.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(toAttributes(attrs)...),
	)

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds the final attributes, sets the status and ends the span.
// Span contexts not created by this collector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx library.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(toAttributes(attrs)...)
	otelSpanCtx.setSpanStatus(status, attrs[attrOutcome])
	otelSpanCtx.span.End()
}

var _ library.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext implements library.SpanContext by wrapping an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps the status string to an OpenTelemetry status code.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status, "")
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// Span returns the wrapped OpenTelemetry span.
func (s *OTelSpanContext) Span() trace.Span {
	return s.span
}

// setSpanStatus maps status strings to OpenTelemetry span status codes.
// A failed unit of work is described by its outcome when one is known.
func (s *OTelSpanContext) setSpanStatus(status, outcome string) {
	switch status {
	case "ok", "success":
		s.span.SetStatus(codes.Ok, "")
	case "error":
		description := "operation failed"
		if outcome != "" {
			description = outcome
		}

		s.span.SetStatus(codes.Error, description)
	case "canceled", "cancelled":
		s.span.SetStatus(codes.Error, "operation canceled")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

var _ library.SpanContext = (*OTelSpanContext)(nil)

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}
