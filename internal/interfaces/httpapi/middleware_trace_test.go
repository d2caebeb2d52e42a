package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestShouldTraceRequest(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"/healthz":                 false,
		"/readyz":                  false,
		" /HEALTH ":                false,
		"/v1/fixtures":             true,
		"/v1/fixtures/fx-1/events": true,
		"/":                        true,
	}
	for path, want := range cases {
		if got := shouldTraceRequest(path); got != want {
			t.Fatalf("shouldTraceRequest(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestRequestTracing_NamesSpansByPathAndSkipsProbes(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequestTracing(mux, otelhttp.WithTracerProvider(provider))

	for _, path := range []string{"/healthz", "/v1/fixtures/fx-42"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, rec.Code)
		}
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected exactly one traced request, got %d", len(spans))
	}
	if got := spans[0].Name(); got != "GET /v1/fixtures/fx-42" {
		t.Fatalf("unexpected span name %q", got)
	}
}
