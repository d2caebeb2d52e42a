package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	domain "github.com/riskibarqy/matchday/internal/domain/notification"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/platform/resilience"
)

type fakeRedis struct {
	published map[string][]string
	lists     map[string][]string
	trimmed   map[string][2]int64
	failWith  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		published: map[string][]string{},
		lists:     map[string][]string{},
		trimmed:   map[string][2]int64{},
	}
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.failWith != nil {
		return redis.NewIntResult(0, f.failWith)
	}
	f.published[channel] = append(f.published[channel], message.(string))
	return redis.NewIntResult(1, nil)
}

func (f *fakeRedis) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		f.lists[key] = append([]string{v.(string)}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LTrim(_ context.Context, key string, start, stop int64) *redis.StatusCmd {
	f.trimmed[key] = [2]int64{start, stop}
	return redis.NewStatusResult("OK", nil)
}

func TestRedisSink_PublishesAndKeepsHistory(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	sink := NewRedisSink(client, RedisSinkConfig{ChannelPrefix: "matchday:", HistorySize: 20}, logging.NewNop())
	sink.now = func() time.Time { return time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC) }

	if err := sink.PostSystemMessage(context.Background(), "club-1", "Teams are out"); err != nil {
		t.Fatalf("post message: %v", err)
	}

	channel := "matchday:tenant:club-1:messages"
	if len(client.published[channel]) != 1 {
		t.Fatalf("expected one publish on %s, got %v", channel, client.published)
	}
	var msg domain.Message
	if err := sonic.UnmarshalString(client.published[channel][0], &msg); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if msg.TenantID != "club-1" || msg.Content != "Teams are out" || !msg.SentAt.Equal(sink.now()) {
		t.Fatalf("unexpected payload: %+v", msg)
	}
	if len(client.lists[channel+":history"]) != 1 {
		t.Fatalf("expected history entry, got %v", client.lists)
	}
	if got := client.trimmed[channel+":history"]; got != [2]int64{0, 19} {
		t.Fatalf("unexpected trim range: %v", got)
	}
}

func TestRedisSink_PropagatesPublishError(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	client.failWith = errors.New("connection refused")
	sink := NewRedisSink(client, RedisSinkConfig{}, logging.NewNop())

	err := sink.PostSystemMessage(context.Background(), "club-1", "hello")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected publish error, got %v", err)
	}
	if len(client.lists) != 0 {
		t.Fatalf("history must not be written after failed publish")
	}
}

func TestRedisSink_RejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	sink := NewRedisSink(newFakeRedis(), RedisSinkConfig{}, logging.NewNop())
	if err := sink.PostSystemMessage(context.Background(), "", "hello"); err == nil {
		t.Fatalf("expected validation error for empty tenant")
	}
	if err := sink.PostSystemMessage(context.Background(), "club", "  "); err == nil {
		t.Fatalf("expected validation error for empty content")
	}
}

func TestQStashSink_PublishesToTarget(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotPath, gotAuth, gotDedup string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink := NewQStashSink(QStashSinkConfig{
		BaseURL:   srv.URL,
		Token:     "qstash-token",
		TargetURL: "https://chat.example.com/hooks/system",
		Retries:   3,
	}, logging.NewNop())

	if err := sink.PostSystemMessage(context.Background(), "club-1", "Teams are out"); err != nil {
		t.Fatalf("post message: %v", err)
	}
	if !strings.HasPrefix(gotPath, "/v2/publish/") || !strings.HasSuffix(gotPath, "chat.example.com/hooks/system") {
		t.Fatalf("unexpected publish path: %s", gotPath)
	}
	if gotAuth != "Bearer qstash-token" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if !strings.HasPrefix(gotDedup, "sysmsg-") {
		t.Fatalf("unexpected deduplication id: %s", gotDedup)
	}

	var msg domain.Message
	if err := sonic.Unmarshal(gotBody, &msg); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg.TenantID != "club-1" || msg.Content != "Teams are out" {
		t.Fatalf("unexpected body: %+v", msg)
	}
}

func TestQStashSink_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink := NewQStashSink(QStashSinkConfig{
		BaseURL:   srv.URL,
		TargetURL: "https://chat.example.com/hooks/system",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
		},
	}, logging.NewNop())

	if err := sink.PostSystemMessage(context.Background(), "club-1", "a"); !isQStashCircuitFailure(err) {
		t.Fatalf("expected transient failure, got %v", err)
	}
	if err := sink.PostSystemMessage(context.Background(), "club-1", "b"); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single upstream call, got %d", calls.Load())
	}
}

func TestQStashSink_RejectsInvalidTarget(t *testing.T) {
	t.Parallel()

	sink := NewQStashSink(QStashSinkConfig{BaseURL: "https://qstash.example.com", TargetURL: "ftp://chat"}, logging.NewNop())
	err := sink.PostSystemMessage(context.Background(), "club-1", "hello")
	if err == nil || !strings.Contains(err.Error(), "QSTASH_TARGET_URL") {
		t.Fatalf("expected invalid target error, got %v", err)
	}
}

func TestBuildQStashCurlPreview_MasksSecrets(t *testing.T) {
	t.Parallel()

	preview := buildQStashCurlPreview("https://qstash/v2/publish/https://chat", 2, "sysmsg-1", `{"content":"it's on"}`, true)
	for _, want := range []string{"Bearer ***", "Upstash-Retries: 2", "X-Internal-Token: ***", `it'"'"'s on`} {
		if !strings.Contains(preview, want) {
			t.Fatalf("preview %q missing %q", preview, want)
		}
	}
}

func TestLogSink_WritesMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewLogSink(logging.NewJSONWriter(logging.LevelInfo, &buf))

	if err := sink.PostSystemMessage(context.Background(), "club-9", "Kick-off moved"); err != nil {
		t.Fatalf("post message: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"tenant_id":"club-9"`) || !strings.Contains(out, "Kick-off moved") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
