package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/internal/serverconfig"
)

func TestOpenAuditSinkWritesLogAndFile(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	sink, closeFn, err := openAuditSink(serverconfig.AuditConfig{Enabled: true, File: path}, zap.New(core))
	if err != nil {
		t.Fatalf("openAuditSink: %v", err)
	}
	sink.Emit(context.Background(), recipeAuth.AuditEvent{Type: "login_failure", UserID: "u-1", Reason: "invalid_credentials"})
	closeFn()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	if !strings.Contains(string(data), `"event_type":"login_failure"`) {
		t.Fatalf("audit file = %s", data)
	}
	if got := logs.FilterMessage("login_failure").Len(); got != 1 {
		t.Fatalf("logged audit entries = %d, want 1", got)
	}
}

func TestOpenAuditSinkWithoutFile(t *testing.T) {
	sink, closeFn, err := openAuditSink(serverconfig.AuditConfig{Enabled: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("openAuditSink: %v", err)
	}
	defer closeFn()
	if multi, ok := sink.(recipeAuth.MultiAuditSink); !ok || len(multi) != 1 {
		t.Fatalf("sink = %#v, want a single zap sink", sink)
	}
}

func TestOpenAuditSinkBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "audit.jsonl")
	if _, _, err := openAuditSink(serverconfig.AuditConfig{Enabled: true, File: path}, zap.NewNop()); err == nil {
		t.Fatal("expected an error for an unwritable audit path")
	}
}
