package httpapi

import (
	"context"
	"strings"

	"github.com/riskibarqy/matchday/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// handlerSpanPrefix marks the only spans this package opens; helpers and
// middleware pass through.
const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer = otel.Tracer("matchday/internal/interfaces/httpapi")
	// callers always End the returned span, so pass-through returns a no-op.
	noopSpan = trace.SpanFromContext(context.Background())
)

// startSpan opens a child span for handlers of a traced request. Untraced
// requests (health probes) never grow standalone root spans.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() || !strings.HasPrefix(name, handlerSpanPrefix) {
		return ctx, noopSpan
	}

	ctx, span := apiTracer.Start(ctx, name)
	if p, ok := principalFromContext(ctx); ok {
		span.SetAttributes(
			attribute.String("tenant.id", p.TenantID),
			attribute.String("user.id", p.UserID),
		)
	}
	return ctx, span
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	return p, ok
}
