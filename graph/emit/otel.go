package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each Event into a zero-duration OpenTelemetry span,
// so a trace backend (Jaeger, Tempo, ...) can render a workflow run as a
// timeline without the engine knowing anything about tracing.
//
// Use this in production where the runner's tick loop and the job queue
// worker both want their activity correlated with the rest of a service's
// traces.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter wraps tracer (e.g. otel.Tracer("agentflow")).
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit starts and immediately ends a span named after event.Msg, with
// workflow/node identifiers and event.Meta attached as attributes.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("workflow_id", event.WorkflowID),
	}
	if event.NodeID != "" {
		attrs = append(attrs, attribute.String("node_id", event.NodeID))
	}
	for k, v := range event.Meta {
		attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", v)))
	}
	span.SetAttributes(attrs...)

	if errVal, ok := event.Meta["error"]; ok {
		span.SetStatus(codes.Error, fmt.Sprintf("%v", errVal))
	}
}

// Flush is a no-op: the configured TracerProvider owns batching/export.
func (o *OTelEmitter) Flush(context.Context) error { return nil }
