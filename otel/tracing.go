// Package otel provides OpenTelemetry integration for engine events.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vflow-labs/vflow/engine"
)

// TracingHandler translates engine events into OpenTelemetry spans. It
// maintains maps of active invocation and node spans, creating and
// ending them based on event kind. It implements engine.EventPublisher,
// so it can be installed on an executor directly or fanned out behind a
// bus.
type TracingHandler struct {
	tracer trace.Tracer

	mu        sync.RWMutex
	invSpans  map[string]trace.Span       // invocationID -> span
	invCtxs   map[string]context.Context  // invocationID -> context (for child spans)
	nodeSpans map[string]trace.Span       // invocationID:nodeID -> span
}

// NewTracingHandler creates a new TracingHandler that uses the given
// tracer to create spans from engine events.
func NewTracingHandler(tracer trace.Tracer) *TracingHandler {
	return &TracingHandler{
		tracer:    tracer,
		invSpans:  make(map[string]trace.Span),
		invCtxs:   make(map[string]context.Context),
		nodeSpans: make(map[string]trace.Span),
	}
}

// Publish processes an engine event and creates or ends spans accordingly.
func (h *TracingHandler) Publish(e engine.Event) {
	switch e.Kind {
	case engine.EventInvocationStarted:
		h.handleInvocationStarted(e)
	case engine.EventNodeStarted:
		h.handleNodeStarted(e)
	case engine.EventNodeFinished:
		h.handleNodeFinished(e)
	case engine.EventNodeFailed:
		h.handleNodeFailed(e)
	case engine.EventLog, engine.EventNotification:
		h.handleAnnotation(e)
	case engine.EventInvocationFinished:
		h.handleInvocationFinished(e)
	}
}

// handleInvocationStarted creates a root span for the invocation.
func (h *TracingHandler) handleInvocationStarted(e engine.Event) {
	spanName := "invocation:" + e.ScriptID

	ctx, span := h.tracer.Start(context.Background(), spanName,
		trace.WithAttributes(
			attribute.String("vflow.invocation_id", e.InvocationID),
			attribute.String("vflow.script_id", e.ScriptID),
			attribute.String("vflow.event_node", e.NodeID),
			attribute.String("vflow.event_type", e.NodeType),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.invSpans[e.InvocationID] = span
	h.invCtxs[e.InvocationID] = ctx
	h.mu.Unlock()
}

// handleNodeStarted creates a child span under the invocation span.
func (h *TracingHandler) handleNodeStarted(e engine.Event) {
	h.mu.RLock()
	parentCtx, ok := h.invCtxs[e.InvocationID]
	h.mu.RUnlock()

	if !ok {
		parentCtx = context.Background()
	}

	_, span := h.tracer.Start(parentCtx, "node:"+e.NodeID,
		trace.WithAttributes(
			attribute.String("vflow.invocation_id", e.InvocationID),
			attribute.String("vflow.node_id", e.NodeID),
			attribute.String("vflow.node_type", e.NodeType),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.nodeSpans[e.InvocationID+":"+e.NodeID] = span
	h.mu.Unlock()
}

// handleNodeFinished ends the node span with success status.
func (h *TracingHandler) handleNodeFinished(e engine.Event) {
	key := e.InvocationID + ":" + e.NodeID

	h.mu.Lock()
	span, ok := h.nodeSpans[key]
	if ok {
		delete(h.nodeSpans, key)
	}
	h.mu.Unlock()

	if ok {
		if e.Value != "" {
			span.SetAttributes(attribute.String("vflow.value", e.Value))
		}
		span.SetAttributes(attribute.String("vflow.duration", e.Duration.String()))
		span.SetStatus(codes.Ok, "")
		span.End(trace.WithTimestamp(e.Time))
	}
}

// handleNodeFailed ends the node span with error status.
func (h *TracingHandler) handleNodeFailed(e engine.Event) {
	key := e.InvocationID + ":" + e.NodeID

	h.mu.Lock()
	span, ok := h.nodeSpans[key]
	if ok {
		delete(h.nodeSpans, key)
	}
	h.mu.Unlock()

	if ok {
		errMsg := e.Error
		if errMsg == "" {
			errMsg = "unknown error"
		}
		span.SetStatus(codes.Error, errMsg)
		span.RecordError(spanError(errMsg), trace.WithTimestamp(e.Time))
		span.End(trace.WithTimestamp(e.Time))
	}
}

// handleAnnotation attaches log and notification events to the active
// node span, falling back to the invocation span.
func (h *TracingHandler) handleAnnotation(e engine.Event) {
	h.mu.RLock()
	span, ok := h.nodeSpans[e.InvocationID+":"+e.NodeID]
	if !ok {
		span, ok = h.invSpans[e.InvocationID]
	}
	h.mu.RUnlock()

	if !ok {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("vflow.message", e.Message),
	}
	if e.Level != "" {
		attrs = append(attrs, attribute.String("vflow.level", e.Level))
	}
	span.AddEvent(string(e.Kind), trace.WithTimestamp(e.Time), trace.WithAttributes(attrs...))
}

// handleInvocationFinished ends the root invocation span.
func (h *TracingHandler) handleInvocationFinished(e engine.Event) {
	h.mu.Lock()
	span, ok := h.invSpans[e.InvocationID]
	if ok {
		delete(h.invSpans, e.InvocationID)
		delete(h.invCtxs, e.InvocationID)
	}
	h.mu.Unlock()

	if ok {
		span.SetAttributes(attribute.String("vflow.duration", e.Duration.String()))
		if e.Error != "" {
			span.SetStatus(codes.Error, e.Error)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End(trace.WithTimestamp(e.Time))
	}
}

// ActiveSpanContext returns the SpanContext for the active node span
// identified by invocationID and nodeID. Returns an empty SpanContext
// if not found.
func (h *TracingHandler) ActiveSpanContext(invocationID, nodeID string) trace.SpanContext {
	h.mu.RLock()
	span, ok := h.nodeSpans[invocationID+":"+nodeID]
	h.mu.RUnlock()

	if !ok {
		return trace.SpanContext{}
	}
	return span.SpanContext()
}

// ActiveInvocationSpanContext returns the SpanContext for the active
// invocation span. Returns an empty SpanContext if not found.
func (h *TracingHandler) ActiveInvocationSpanContext(invocationID string) trace.SpanContext {
	h.mu.RLock()
	span, ok := h.invSpans[invocationID]
	h.mu.RUnlock()

	if !ok {
		return trace.SpanContext{}
	}
	return span.SpanContext()
}

// spanError is a simple error type for recording span errors.
type spanError string

func (e spanError) Error() string { return string(e) }

var _ engine.EventPublisher = (*TracingHandler)(nil)
