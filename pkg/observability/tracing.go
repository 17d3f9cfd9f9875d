// Package observability traces keepice manager operations with OpenTelemetry
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of keepice spans
const TracerName = "github.com/ajitpratap0/keepice"

// Span wraps a trace span and batches its attributes until End
type Span struct {
	span       trace.Span
	attributes []attribute.KeyValue
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// RecordError marks the span as failed, or as ok when err is nil
func (s *Span) RecordError(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		return
	}
	s.span.SetStatus(codes.Ok, "")
}

// End sets the batched attributes and ends the span
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// OperationTracer starts spans for the operations run through one connector
type OperationTracer struct {
	connectorType string
	catalogName   string
	tracer        trace.Tracer
}

// NewOperationTracer creates a tracer for a connector. A nil provider uses
// the global one.
func NewOperationTracer(connectorType, catalogName string, provider trace.TracerProvider) *OperationTracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &OperationTracer{
		connectorType: connectorType,
		catalogName:   catalogName,
		tracer:        provider.Tracer(TracerName),
	}
}

// StartSpan starts a span named keepice.<operation>
func (ot *OperationTracer) StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	ctx, span := ot.tracer.Start(ctx, "keepice."+operation)
	s := &Span{span: span}
	s.SetAttribute("connector.type", ot.connectorType)
	s.SetAttribute("connector.catalog", ot.catalogName)
	s.SetAttribute("keepice.operation", operation)
	return ctx, s
}

// Trace runs fn inside a span for operation and records its outcome
func (ot *OperationTracer) Trace(ctx context.Context, operation string, fn func(ctx context.Context, span *Span) error) error {
	ctx, span := ot.StartSpan(ctx, operation)
	defer span.End()

	err := fn(ctx, span)
	span.RecordError(err)
	return err
}
