package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAPI_ServesDocumentWithETag(t *testing.T) {
	t.Parallel()

	h := &Handler{}
	rec := httptest.NewRecorder()
	h.OpenAPI(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/v1/fixtures/{fixtureID}/balance") {
		t.Fatalf("expected balance route in document")
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.OpenAPI(rec, req)
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Fatalf("expected 304 with empty body, got %d (%d bytes)", rec.Code, rec.Body.Len())
	}
}

func TestSwaggerUI_PointsAtDocument(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	(&Handler{}).SwaggerUI(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if !strings.Contains(rec.Body.String(), "url: '/openapi.yaml'") {
		t.Fatalf("unexpected swagger page: %s", rec.Body.String())
	}
}
