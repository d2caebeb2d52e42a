package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/matchday/internal/domain/balancing"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/user"
	"github.com/riskibarqy/matchday/internal/infrastructure/notification"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday/internal/platform/eventbus"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const (
	testTenant  = "club-1"
	adminToken  = "admin-token"
	memberToken = "member-token"
	otherToken  = "other-club-token"
)

type fakeVerifier map[string]user.Principal

func (f fakeVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	p, ok := f[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return p, nil
}

type apiResponse struct {
	APIVersion string           `json:"apiVersion"`
	Data       json.RawMessage  `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := logging.NewNop()
	bus := eventbus.NewBus()
	svc := usecase.NewMatchService(usecase.MatchServiceDeps{
		Store:    memory.NewMatchStore(time.Second),
		Players:  memory.NewPlayerRepository(memory.SeedPlayers(testTenant)),
		Engine:   balancing.NewEngine(balancing.Config{Iterations: 200, Restarts: 2, Workers: 2}),
		Notifier: notification.NewLogSink(logger),
		Events:   bus,
		Logger:   logger,
	}, usecase.MatchServiceConfig{
		PoolPolicy: match.PoolPolicy{Slack: 2, AllowUneven: true},
	})

	verifier := fakeVerifier{
		adminToken:  {UserID: "u-admin", TenantID: testTenant, Roles: []string{"admin"}},
		memberToken: {UserID: "u-member", TenantID: testTenant},
		otherToken:  {UserID: "u-other", TenantID: "club-2", Roles: []string{"admin"}},
	}
	handler := NewHandler(svc, bus, HandlerConfig{AdminRole: "admin", AllowedOrigins: []string{"https://club.example.com"}}, logger)
	srv := httptest.NewServer(NewRouter(handler, verifier, logger, RouterConfig{
		CORSAllowedOrigins: []string{"https://club.example.com"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := sonic.Marshal(v)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var out T
	if err := sonic.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", string(resp.Data), err)
	}
	return out
}

func createFixture(t *testing.T, srv *httptest.Server, players int) fixtureDTO {
	t.Helper()

	status, resp := call(t, srv, http.MethodPost, "/v1/fixtures", adminToken, map[string]any{
		"scheduled_at": "2026-05-06T19:00:00Z",
		"team_size":    5,
		"team_a_label": "Bibs",
		"team_b_label": "Shirts",
	})
	if status != http.StatusCreated {
		t.Fatalf("create fixture status=%d error=%+v", status, resp.Error)
	}
	f := decodeData[fixtureDTO](t, resp)

	for i := range players {
		status, resp = call(t, srv, http.MethodPost, "/v1/fixtures/"+f.ID+"/pool", adminToken, map[string]any{
			"expected_version": f.Version,
			"player_id":        fmt.Sprintf("pl-%02d", i+1),
		})
		if status != http.StatusCreated {
			t.Fatalf("add player %d status=%d error=%+v", i, status, resp.Error)
		}
		f = decodeData[fixtureDTO](t, resp)
	}
	return f
}

func TestRouter_HealthzNeedsNoToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	status, resp := call(t, srv, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK || resp.APIVersion != "2.0" {
		t.Fatalf("unexpected healthz status=%d body=%+v", status, resp)
	}
}

func TestRouter_RejectsMissingAndUnknownTokens(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	for _, token := range []string{"", "bogus"} {
		status, resp := call(t, srv, http.MethodGet, "/v1/fixtures", token, nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", token, status)
		}
		if resp.Error == nil || resp.Error.Status != "UNAUTHENTICATED" {
			t.Fatalf("token %q: unexpected error body %+v", token, resp.Error)
		}
	}
}

func TestRouter_MutationsRequireAdminRole(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	status, resp := call(t, srv, http.MethodPost, "/v1/fixtures", memberToken, map[string]any{
		"scheduled_at": "2026-05-06T19:00:00Z",
		"team_size":    5,
	})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	if resp.Error == nil || resp.Error.Status != "PERMISSION_DENIED" {
		t.Fatalf("unexpected error body %+v", resp.Error)
	}
}

func TestRouter_BalanceAndPublishFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := createFixture(t, srv, 10)

	status, resp := call(t, srv, http.MethodPost, "/v1/fixtures/"+f.ID+"/balance", adminToken, map[string]any{
		"expected_version": f.Version,
		"method":           "ability",
		"seed":             7,
	})
	if status != http.StatusOK {
		t.Fatalf("balance status=%d error=%+v", status, resp.Error)
	}
	outcome := decodeData[balanceOutcomeDTO](t, resp)
	if len(outcome.Result.TeamA) != 5 || len(outcome.Result.TeamB) != 5 {
		t.Fatalf("expected 5v5, got %dv%d", len(outcome.Result.TeamA), len(outcome.Result.TeamB))
	}
	if outcome.Fixture.State != string(match.StateTeamsBalanced) {
		t.Fatalf("expected teams_balanced, got %s", outcome.Fixture.State)
	}
	if outcome.RunID == "" || len(outcome.Slots) != 10 {
		t.Fatalf("unexpected outcome run=%q slots=%d", outcome.RunID, len(outcome.Slots))
	}

	status, resp = call(t, srv, http.MethodGet, "/v1/fixtures/"+f.ID, memberToken, nil)
	if status != http.StatusOK {
		t.Fatalf("member get status=%d", status)
	}
	detail := decodeData[fixtureDetailDTO](t, resp)
	if detail.TeamsVisible || len(detail.Slots) != 0 {
		t.Fatalf("member must not see unpublished teams: %+v", detail)
	}

	status, resp = call(t, srv, http.MethodGet, "/v1/fixtures/"+f.ID, adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("admin get status=%d", status)
	}
	if detail = decodeData[fixtureDetailDTO](t, resp); !detail.TeamsVisible || len(detail.Slots) != 10 {
		t.Fatalf("admin should see draft teams: visible=%v slots=%d", detail.TeamsVisible, len(detail.Slots))
	}

	status, resp = call(t, srv, http.MethodPost, "/v1/fixtures/"+f.ID+"/publish", adminToken, map[string]any{
		"expected_version": outcome.Fixture.Version,
	})
	if status != http.StatusOK {
		t.Fatalf("publish status=%d error=%+v", status, resp.Error)
	}
	published := decodeData[fixtureDTO](t, resp)
	if published.State != string(match.StateTeamsPublished) || published.TeamsPublishedAt == nil {
		t.Fatalf("unexpected published fixture %+v", published)
	}

	status, resp = call(t, srv, http.MethodGet, "/v1/fixtures/"+f.ID, memberToken, nil)
	if status != http.StatusOK {
		t.Fatalf("member get after publish status=%d", status)
	}
	if detail = decodeData[fixtureDetailDTO](t, resp); !detail.TeamsVisible || len(detail.Slots) != 10 {
		t.Fatalf("member should see published teams: visible=%v slots=%d", detail.TeamsVisible, len(detail.Slots))
	}

	status, resp = call(t, srv, http.MethodGet, "/v1/fixtures/"+f.ID+"/balance-runs", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("balance runs status=%d", status)
	}
	if runs := decodeData[[]balanceRunDTO](t, resp); len(runs) != 1 || runs[0].ID != outcome.RunID {
		t.Fatalf("unexpected balance runs %+v", runs)
	}
}

func TestRouter_MapsDomainErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := createFixture(t, srv, 2)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "stale version",
			method:     http.MethodPost,
			path:       "/v1/fixtures/" + f.ID + "/lock",
			body:       map[string]any{"expected_version": f.Version - 1},
			wantStatus: http.StatusConflict,
			wantCode:   "ABORTED",
		},
		{
			name:       "duplicate pool entry",
			method:     http.MethodPost,
			path:       "/v1/fixtures/" + f.ID + "/pool",
			body:       map[string]any{"expected_version": f.Version, "player_id": "pl-01"},
			wantStatus: http.StatusConflict,
			wantCode:   "ALREADY_EXISTS",
		},
		{
			name:       "invalid state",
			method:     http.MethodPost,
			path:       "/v1/fixtures/" + f.ID + "/publish",
			body:       map[string]any{"expected_version": f.Version},
			wantStatus: http.StatusConflict,
			wantCode:   "FAILED_PRECONDITION",
		},
		{
			name:       "pool too small",
			method:     http.MethodPost,
			path:       "/v1/fixtures/" + f.ID + "/balance",
			body:       map[string]any{"expected_version": f.Version},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FAILED_PRECONDITION",
		},
		{
			name:       "unknown json field",
			method:     http.MethodPost,
			path:       "/v1/fixtures/" + f.ID + "/lock",
			body:       `{"expected_version": 3, "force": true}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name:       "missing version on delete",
			method:     http.MethodDelete,
			path:       "/v1/fixtures/" + f.ID + "/pool/pl-01",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name:       "unknown fixture",
			method:     http.MethodGet,
			path:       "/v1/fixtures/missing",
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := call(t, srv, tt.method, tt.path, adminToken, tt.body)
			if status != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (%+v)", tt.wantStatus, status, resp.Error)
			}
			if resp.Error == nil || resp.Error.Status != tt.wantCode {
				t.Fatalf("expected %s, got %+v", tt.wantCode, resp.Error)
			}
		})
	}
}

func TestRouter_RemovePoolEntryWithQueryVersion(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := createFixture(t, srv, 3)

	path := fmt.Sprintf("/v1/fixtures/%s/pool/pl-02?expected_version=%d", f.ID, f.Version)
	status, resp := call(t, srv, http.MethodDelete, path, adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("delete status=%d error=%+v", status, resp.Error)
	}
	if got := decodeData[fixtureDTO](t, resp); got.Version != f.Version+1 {
		t.Fatalf("expected version %d, got %d", f.Version+1, got.Version)
	}

	status, resp = call(t, srv, http.MethodGet, "/v1/fixtures/"+f.ID, adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get status=%d", status)
	}
	detail := decodeData[fixtureDetailDTO](t, resp)
	if len(detail.Pool) != 2 {
		t.Fatalf("expected 2 pool entries, got %d", len(detail.Pool))
	}
	for _, e := range detail.Pool {
		if e.PlayerID == "pl-02" {
			t.Fatalf("pl-02 should have been removed")
		}
	}
}

func TestRouter_FixturesAreTenantScoped(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := createFixture(t, srv, 0)

	status, _ := call(t, srv, http.MethodGet, "/v1/fixtures/"+f.ID, otherToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 across tenants, got %d", status)
	}

	status, resp := call(t, srv, http.MethodGet, "/v1/fixtures", otherToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list status=%d", status)
	}
	if items := decodeData[[]fixtureDTO](t, resp); len(items) != 0 {
		t.Fatalf("expected no fixtures for other tenant, got %d", len(items))
	}
}

func TestRouter_ListsTeamTemplates(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	status, resp := call(t, srv, http.MethodGet, "/v1/team-templates", memberToken, nil)
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	items := decodeData[[]teamTemplateDTO](t, resp)
	if len(items) == 0 {
		t.Fatalf("expected team templates")
	}
	for _, tpl := range items {
		if tpl.Defenders+tpl.Midfielders+tpl.Attackers != tpl.TeamSize {
			t.Fatalf("template %+v does not add up", tpl)
		}
	}
}

func TestWatchFixture_StreamsChanges(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := createFixture(t, srv, 4)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/fixtures/" + f.ID + "/events?access_token=" + memberToken
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"https://club.example.com"}})
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	status, body := call(t, srv, http.MethodPost, "/v1/fixtures/"+f.ID+"/lock", adminToken, map[string]any{
		"expected_version": f.Version,
	})
	if status != http.StatusOK {
		t.Fatalf("lock status=%d error=%+v", status, body.Error)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read change: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("expected text message, got %d", msgType)
	}

	var change usecase.FixtureChange
	if err := sonic.Unmarshal(payload, &change); err != nil {
		t.Fatalf("decode change: %v", err)
	}
	if change.FixtureID != f.ID || change.Kind != "pool_locked" || change.Version != f.Version+1 {
		t.Fatalf("unexpected change %+v", change)
	}
	if change.State != match.StatePoolLocked {
		t.Fatalf("expected pool_locked state, got %s", change.State)
	}

	var frame map[string]any
	if err := sonic.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode raw frame: %v", err)
	}
	for key := range frame {
		switch key {
		case "fixture_id", "version", "state", "kind":
		default:
			t.Fatalf("member frame must not carry %q", key)
		}
	}
}

func TestWatchFixture_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := createFixture(t, srv, 0)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/fixtures/" + f.ID + "/events?access_token=" + memberToken
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"https://evil.example.com"}})
	if err == nil {
		t.Fatalf("expected dial to fail for foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake response, got %+v", resp)
	}
}
