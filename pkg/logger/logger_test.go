package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	l, err := New(Config{Encoding: "console"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) || !l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("empty level should mean info")
	}

	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(Config{Level: "info", Encoding: "xml"}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestNewStampsService(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Service: "popupforge", Environment: "test", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("queue built", zap.Int("size", 2))
	l.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry["service"] != "popupforge" || entry["env"] != "test" {
		t.Errorf("entry = %v", entry)
	}
	if entry["msg"] != "queue built" || entry["timestamp"] == nil {
		t.Errorf("entry = %v", entry)
	}
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	WithRequestID(ctx, base).Info("hello")
	WithRequestID(ContextWithViewerID(ctx, "alice"), base).Info("viewer")
	WithRequestID(context.Background(), base).Info("plain")

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-1" {
		t.Errorf("request_id = %v, want req-1", got)
	}
	if got := entries[1].ContextMap()["viewer_id"]; got != "alice" {
		t.Errorf("viewer_id = %v, want alice", got)
	}
	if len(entries[2].ContextMap()) != 0 {
		t.Errorf("plain entry carries %v", entries[2].ContextMap())
	}
	if RequestID(ctx) != "req-1" {
		t.Errorf("RequestID = %q", RequestID(ctx))
	}
}
