package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "termp"

// SpanContext pairs a span with the context that carries it.
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child span of the current trace. The run, repository,
// provider and component from the context's LogFields become span attributes,
// so traces and logs can be joined on the same keys.
//
//	sc := logger.StartSpan(ctx, "tags.fanout")
//	defer sc.End()
//	ctx = sc.Context()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *SpanContext {
	return start(ctx, name, opts)
}

// StartSpanFromTraceID continues a trace begun in another process. The server
// stores the trace ID on the queued task and the worker resumes it here. An empty
// or malformed ID starts a new root span.
func StartSpanFromTraceID(ctx context.Context, traceIDHex string, name string, opts ...trace.SpanStartOption) *SpanContext {
	traceID, err := trace.TraceIDFromHex(traceIDHex)
	if err != nil {
		return start(ctx, name, opts)
	}

	remote := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
	return start(ctx, name, append(opts, trace.WithLinks(trace.Link{SpanContext: remote})))
}

func start(ctx context.Context, name string, opts []trace.SpanStartOption) *SpanContext {
	if attrs := fieldAttributes(GetLogFields(ctx)); len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &SpanContext{ctx: ctx, span: span}
}

func fieldAttributes(f LogFields) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if f.RunID != nil {
		attrs = append(attrs, attribute.Int64("termp.run_id", *f.RunID))
	}
	if f.Repo != nil {
		attrs = append(attrs, attribute.String("termp.repo", *f.Repo))
	}
	if f.Provider != nil {
		attrs = append(attrs, attribute.String("termp.provider", *f.Provider))
	}
	if f.Component != "" {
		attrs = append(attrs, attribute.String("termp.component", f.Component))
	}
	return attrs
}

func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

// End completes the span. Safe to call multiple times.
func (sc *SpanContext) End() {
	if sc.span != nil {
		sc.span.End()
	}
}

// RecordError records err on the span and marks it failed. A nil err is ignored.
func (sc *SpanContext) RecordError(err error) {
	if sc.span != nil && err != nil {
		sc.span.RecordError(err)
		sc.span.SetStatus(codes.Error, err.Error())
	}
}

// TraceID returns the hex trace ID, or "" when tracing is disabled.
func (sc *SpanContext) TraceID() string {
	if sc.span == nil || !sc.span.SpanContext().IsValid() {
		return ""
	}
	return sc.span.SpanContext().TraceID().String()
}
