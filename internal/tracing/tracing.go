// Package tracing provides OpenTelemetry distributed tracing for SearchME.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the SearchME tracer.
const TracerName = "github.com/AE-MS/AE-SearchME"

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer(TracerName)
}

// GetTracer returns the SearchME tracer.
func GetTracer() trace.Tracer {
	return tracer
}

// SetTracer sets a custom tracer (useful for testing).
func SetTracer(t trace.Tracer) {
	tracer = t
}

// Span attributes for SearchME operations.
var (
	AttrInvokeName  = attribute.Key("searchme.invoke.name")
	AttrActivityID  = attribute.Key("searchme.activity.id")
	AttrQuery       = attribute.Key("searchme.search.query")
	AttrResultCount = attribute.Key("searchme.search.results")
	AttrTrigger     = attribute.Key("searchme.dialog.trigger")
	AttrPhase       = attribute.Key("searchme.dialog.phase")
	AttrDialogKind  = attribute.Key("searchme.dialog.kind")
)

// StartInvokeSpan starts a span for handling a Teams invoke activity.
func StartInvokeSpan(ctx context.Context, name, activityID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "teams.invoke",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			AttrInvokeName.String(name),
			AttrActivityID.String(activityID),
		),
	)
}

// StartRegistrySpan starts a span for the outbound registry search call.
func StartRegistrySpan(ctx context.Context, query, url string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "registry.search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrQuery.String(query),
			attribute.String("http.method", "GET"),
			attribute.String("http.url", url),
		),
	)
}

// StartDispatchSpan starts a span for a dialog dispatch.
func StartDispatchSpan(ctx context.Context, trigger, phase string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dialog.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrTrigger.String(trigger),
			AttrPhase.String(phase),
		),
	)
}

// RecordError records an error on the span.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK marks the span as successful.
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Propagator returns the context propagator for distributed tracing.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// InjectHTTPHeaders injects the trace context of ctx into outbound headers.
func InjectHTTPHeaders(ctx context.Context, carrier propagation.HeaderCarrier) {
	Propagator().Inject(ctx, carrier)
}

// ExtractHTTPHeaders extracts a remote trace context from inbound headers.
func ExtractHTTPHeaders(ctx context.Context, carrier propagation.HeaderCarrier) context.Context {
	return Propagator().Extract(ctx, carrier)
}
