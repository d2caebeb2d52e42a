package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/matchday/internal/config"
	"github.com/riskibarqy/matchday/internal/domain/balancing"
)

func wiredConfig() config.Config {
	return config.Config{
		AppEnv:          config.EnvProd,
		ServiceName:     "matchday-api",
		ServiceVersion:  "1.4.0",
		StoreBackend:    config.StoreBackendPostgres,
		NotifierBackend: config.NotifierBackendRedis,
		DefaultMethod:   balancing.MethodPerformance,
		Balance:         balancing.Config{Normalizer: balancing.NormalizerPercentile},
	}
}

func TestProfileTags_CarryDeploymentFacets(t *testing.T) {
	t.Parallel()

	tags := profileTags(wiredConfig())
	want := map[string]string{
		"env":                config.EnvProd,
		"service":            "matchday-api",
		"version":            "1.4.0",
		"store_backend":      config.StoreBackendPostgres,
		"notifier_backend":   config.NotifierBackendRedis,
		"balance_method":     string(balancing.MethodPerformance),
		"balance_normalizer": string(balancing.NormalizerPercentile),
	}
	if len(tags) != len(want) {
		t.Fatalf("unexpected tags %v", tags)
	}
	for k, v := range want {
		if tags[k] != v {
			t.Fatalf("tag %s = %q, want %q", k, tags[k], v)
		}
	}
}

func TestTraceAttributes_SkipUnsetFacets(t *testing.T) {
	t.Parallel()

	cfg := wiredConfig()
	cfg.NotifierBackend = ""
	attrs := traceAttributes(cfg)
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %v", attrs)
	}
	for _, kv := range attrs {
		if kv.Key == "matchday.notifier_backend" {
			t.Fatalf("empty facet must be skipped")
		}
	}
	if attrs[0].Key != "matchday.store_backend" || attrs[0].Value.AsString() != config.StoreBackendPostgres {
		t.Fatalf("unexpected first attribute %v", attrs[0])
	}
}

func TestPprofMux_ServesIndex(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newPprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from pprof index, got %d", rec.Code)
	}
}
