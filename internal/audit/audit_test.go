package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{Type: "ignored"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher should report zero drops")
	}
}

func TestDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{Type: "e1"})
	d.Emit(context.Background(), Event{Type: "e2"})

	start := time.Now()
	d.Emit(context.Background(), Event{Type: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestBlockingEmitWaitsForSpace(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{Type: "e1"})
	d.Emit(context.Background(), Event{Type: "e2"})

	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), Event{Type: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestCloseFlushesAndIsIdempotent(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{Type: "login_success"})
	}
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{Type: "after_close"})

	if got := sink.count.Load(); got != 5 {
		t.Fatalf("expected 5 delivered events, got %d", got)
	}
}

func TestJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{
		Timestamp: time.Now().UTC(),
		Type:      "login_success",
		UserID:    "u1",
		IP:        "127.0.0.1",
		Success:   true,
	})
	sink.Emit(context.Background(), Event{Type: "login_failure", Reason: "invalid_credentials"})

	out := buf.String()
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected two lines, got %q", out)
	}
	if !strings.Contains(out, `"user_id":"u1"`) || !strings.Contains(out, `"reason":"invalid_credentials"`) {
		t.Fatalf("unexpected JSON output: %s", out)
	}
}

func TestZapSinkLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), Event{Type: "login_success", UserID: "u1", Success: true})
	sink.Emit(context.Background(), Event{Type: "login_failure", Reason: "account_locked", Metadata: map[string]string{"attempts": "5"}})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[1].Level != zap.WarnLevel {
		t.Fatalf("unexpected levels: %v %v", entries[0].Level, entries[1].Level)
	}
	fields := entries[1].ContextMap()
	if fields["reason"] != "account_locked" || fields["meta.attempts"] != "5" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

type panicSink struct {
	calls atomic.Int64
}

func (s *panicSink) Emit(_ context.Context, event Event) {
	s.calls.Add(1)
	if event.Type == "boom" {
		panic("sink failure")
	}
}

func TestSinkPanicDoesNotStopRelay(t *testing.T) {
	sink := &panicSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	d.Emit(context.Background(), Event{Type: "boom"})
	d.Emit(context.Background(), Event{Type: "login_success"})
	d.Emit(context.Background(), Event{Type: "boom"})
	d.Emit(context.Background(), Event{Type: "logout"})
	d.Close()

	if got := sink.calls.Load(); got != 4 {
		t.Fatalf("expected sink to see 4 events, got %d", got)
	}
	stats := d.Stats()
	if stats.Delivered != 2 || stats.SinkPanics != 2 || stats.Dropped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestBlockingEmitGivesUpOnCancelledContext(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{Type: "e1"})
	d.Emit(context.Background(), Event{Type: "e2"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{Type: "e3"})

	if d.Dropped() != 1 {
		t.Fatalf("expected cancelled emit to count as dropped, got %d", d.Dropped())
	}
}

func TestMultiSinkAndFailuresOnly(t *testing.T) {
	all := &countingSink{}
	failures := &countingSink{}
	sink := MultiSink{all, nil, FailuresOnly(failures)}

	sink.Emit(context.Background(), Event{Type: "login_success", Success: true})
	sink.Emit(context.Background(), Event{Type: "login_failure"})
	sink.Emit(context.Background(), Event{Type: "permission_denied"})

	if all.count.Load() != 3 {
		t.Fatalf("expected 3 events on the first sink, got %d", all.count.Load())
	}
	if failures.count.Load() != 2 {
		t.Fatalf("expected 2 failure events, got %d", failures.count.Load())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

var errWrite = errors.New("disk full")

func TestJSONWriterSinkCountsFailures(t *testing.T) {
	sink := NewJSONWriterSink(failingWriter{})
	sink.Emit(context.Background(), Event{Type: "login_failure"})
	sink.Emit(context.Background(), Event{Type: "login_failure"})
	if sink.Failed() != 2 {
		t.Fatalf("expected 2 failed writes, got %d", sink.Failed())
	}
}
