package httpapi

import (
	"context"
	"testing"

	"github.com/riskibarqy/matchday/internal/domain/user"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestStartSpan_SkipsUntracedRequestsAndHelpers(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	if _, span := startSpan(context.Background(), "httpapi.Handler.BalanceTeams"); span.SpanContext().IsValid() {
		t.Fatalf("expected no span without a traced parent")
	}

	ctx, root := provider.Tracer("test").Start(context.Background(), "GET /v1/fixtures")
	defer root.End()

	helperCtx, helper := startSpan(ctx, "httpapi.writeError")
	helper.End()
	if helperCtx != ctx {
		t.Fatalf("helper spans must not derive a new context")
	}
	if !root.IsRecording() {
		t.Fatalf("ending a helper span must not end the request span")
	}
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	t.Parallel()

	if _, ok := principalFromContext(context.Background()); ok {
		t.Fatalf("expected no principal on empty context")
	}
	ctx := withPrincipal(context.Background(), user.Principal{UserID: "u-1", TenantID: "club-1", Roles: []string{"admin"}})
	p, ok := principalFromContext(ctx)
	if !ok || p.TenantID != "club-1" || !p.HasRole("ADMIN") {
		t.Fatalf("unexpected principal: %+v ok=%v", p, ok)
	}
}
