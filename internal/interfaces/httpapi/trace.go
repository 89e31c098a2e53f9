package httpapi

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("prode/internal/interfaces/httpapi")

// startHandlerSpan opens "httpapi.Handler.<op>" under the request span.
// Untraced requests (health probes, the event stream) get no span at all.
func startHandlerSpan(r *http.Request, op string) (context.Context, trace.Span) {
	ctx := r.Context()
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return apiTracer.Start(ctx, "httpapi.Handler."+op,
		trace.WithAttributes(attribute.String("http.route", r.Pattern)),
	)
}
