package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is one audit record. Reason carries a stable error code on failures.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	TenantID  string            `json:"tenant_id,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

// Emit discards event.
func (NoOpSink) Emit(context.Context, Event) {}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// MultiSink fans each event out to every sink in order. Nil entries are
// skipped.
type MultiSink []Sink

// Emit forwards event to every non-nil sink in order.
func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}

// FailuresOnly forwards only unsuccessful events to next.
func FailuresOnly(next Sink) Sink {
	return SinkFunc(func(ctx context.Context, event Event) {
		if !event.Success {
			next.Emit(ctx, event)
		}
	})
}

// ChannelSink hands events to a consumer goroutine. Emit waits for room
// until ctx ends.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a sink backed by a channel of size buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

// Emit queues event, waiting until ctx ends when the buffer is full.
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the queue.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line. Encoding failures are
// counted, never returned.
type JSONWriterSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	failed uint64
}

// NewJSONWriterSink writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		w = io.Discard
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

// Emit encodes event. Write failures are counted, not returned.
func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(event); err != nil {
		s.failed++
	}
}

// Failed returns how many events could not be written.
func (s *JSONWriterSink) Failed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// ZapSink logs successes at Info and failures at Warn, using the event type
// as the message.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink logs events on logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Emit logs event at Info, or Warn when it records a failure.
func (s *ZapSink) Emit(_ context.Context, event Event) {
	level := zap.InfoLevel
	if !event.Success {
		level = zap.WarnLevel
	}
	if ce := s.logger.Check(level, event.Type); ce != nil {
		ce.Write(event.fields()...)
	}
}

func (e Event) fields() []zap.Field {
	fields := []zap.Field{
		zap.Time("timestamp", e.Timestamp),
		zap.Bool("success", e.Success),
	}
	optional := [...]struct{ key, value string }{
		{"user_id", e.UserID},
		{"tenant_id", e.TenantID},
		{"actor_id", e.ActorID},
		{"ip", e.IP},
		{"reason", e.Reason},
	}
	for _, f := range optional {
		if f.value != "" {
			fields = append(fields, zap.String(f.key, f.value))
		}
	}
	for k, v := range e.Metadata {
		fields = append(fields, zap.String("meta."+k, v))
	}
	return fields
}
