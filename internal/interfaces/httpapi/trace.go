package httpapi

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cricket-battle/httpapi")

// startSpan opens a child span named after the handler operation. Requests
// that RequestTracing filtered out carry no parent and get no span.
func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName(op))
}

func spanName(op string) string {
	return "httpapi." + op
}
