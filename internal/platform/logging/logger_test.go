package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLogger_WritesNamedErrorAndComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONWriter(LevelInfo, &buf).Named("match_service")
	logger.Warn("swap rejected", "fixture_id", "fx-1", "error", errors.New("version conflict"))

	line := buf.String()
	for _, want := range []string{`"component":"match_service"`, `"fixture_id":"fx-1"`, `"error":"version conflict"`, `"msg":"swap rejected"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in log line: %s", want, line)
		}
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONWriter(LevelWarn, &buf)
	logger.Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%s want=%s", in, got, want)
		}
	}
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected non-nil child logger")
	}
}

func TestLogger_AcceptsZapFieldsAndDurations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONWriter(LevelInfo, &buf)
	logger.Info("balance finished", zap.Int("iterations", 400), "elapsed", 1500*time.Millisecond, "dangling")

	line := buf.String()
	for _, want := range []string{`"iterations":400`, `"elapsed":"1.5s"`, `"dangling":null`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in log line: %s", want, line)
		}
	}
}
