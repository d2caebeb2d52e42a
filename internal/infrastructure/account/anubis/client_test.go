package anubis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/platform/resilience"
	"github.com/riskibarqy/matchday/internal/usecase"
)

func newTestClient(srv *httptest.Server, cfg Config) *Client {
	cfg.BaseURL = srv.URL
	cfg.IntrospectPath = "/v1/auth/introspect"
	return NewClient(srv.Client(), cfg, logging.NewNop())
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := jsoniter.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestClientVerifyAccessToken_SendsAdminKeyAndParsesTenant(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/auth/introspect" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-admin-key"); got != "admin-secret" {
			t.Fatalf("unexpected x-admin-key: %s", got)
		}

		var req map[string]string
		if err := jsoniter.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if req["token"] != "token-abc" {
			t.Fatalf("unexpected token value: %s", req["token"])
		}

		writeJSON(t, w, map[string]any{
			"active":    true,
			"user_id":   "user-123",
			"tenant_id": "club-7",
			"roles":     []string{"admin"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{AdminKey: "admin-secret", CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false}})

	principal, err := client.VerifyAccessToken(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}
	if principal.UserID != "user-123" || principal.TenantID != "club-7" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if !principal.HasRole("ADMIN") {
		t.Fatalf("expected admin role, got %v", principal.Roles)
	}
}

func TestClientVerifyAccessToken_InactiveToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"active": false})
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{})
	if _, err := client.VerifyAccessToken(context.Background(), "invalid-token"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientVerifyAccessToken_MissingTenantUsesDefault(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"active": true, "user_id": "u1"})
	}))
	defer srv.Close()

	withDefault := newTestClient(srv, Config{DefaultTenantID: "solo-club"})
	principal, err := withDefault.VerifyAccessToken(context.Background(), "tok")
	if err != nil || principal.TenantID != "solo-club" {
		t.Fatalf("expected default tenant, got %+v %v", principal, err)
	}

	strict := newTestClient(srv, Config{})
	if _, err := strict.VerifyAccessToken(context.Background(), "tok"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without tenant, got %v", err)
	}
}

func TestClientVerifyAccessToken_ForbiddenMappedToDependencyUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{AdminKey: "wrong-key"})
	if _, err := client.VerifyAccessToken(context.Background(), "token-abc"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestClientVerifyAccessToken_UsesPrincipalCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, map[string]any{"active": true, "user_id": "user-cache", "tenant_id": "t1"})
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{CacheTTL: time.Minute, CacheMaxEntries: 10})
	for range 2 {
		principal, err := client.VerifyAccessToken(context.Background(), "cached-token")
		if err != nil {
			t.Fatalf("verify token failed: %v", err)
		}
		if principal.UserID != "user-cache" {
			t.Fatalf("unexpected user id: %s", principal.UserID)
		}
	}

	if calls.Load() != 1 {
		t.Fatalf("expected one introspection call with cache, got %d", calls.Load())
	}
}

func TestClientVerifyAccessToken_CircuitOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{CircuitBreaker: resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	}})

	for range 3 {
		if _, err := client.VerifyAccessToken(context.Background(), "tok"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected breaker to stop the third call, got %d calls", calls.Load())
	}
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	cases := map[[2]string]string{
		{"https://auth.example.com/", "v1/introspect"}:           "https://auth.example.com/v1/introspect",
		{"https://auth.example.com", ""}:                         "https://auth.example.com",
		{"https://auth.example.com", "https://other.example/x"}: "https://other.example/x",
	}
	for in, want := range cases {
		if got := buildURL(in[0], in[1]); got != want {
			t.Fatalf("buildURL(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
