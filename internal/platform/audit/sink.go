package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Sink receives emitted audit entries. Implementations own their delivery
// guarantees; the Logger treats every sink as best-effort.
type Sink interface {
	Deliver(ctx context.Context, entry Entry) error
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(ctx context.Context, entry Entry) error

func (f SinkFunc) Deliver(ctx context.Context, entry Entry) error {
	return f(ctx, entry)
}

// LogSink writes audit entries as structured zerolog events. It is the
// default backend in development and the fallback when no database is
// configured.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink writing to the given logger.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, entry Entry) error {
	evt := s.log.Info().
		Str("type", "portal_audit").
		Str("log_id", entry.LogID).
		Time("timestamp", entry.Timestamp).
		Str("action", entry.Action).
		Str("actor_id", entry.ActorID).
		Str("actor_name", entry.ActorName).
		Str("resource", entry.Resource)

	if entry.TargetTenantID != nil {
		evt = evt.Str("target_tenant_id", *entry.TargetTenantID)
	} else {
		evt = evt.Bool("no_target", true)
	}
	if entry.OrderID != "" {
		evt = evt.Str("order_id", entry.OrderID)
	}
	if entry.Reason != "" {
		evt = evt.Str("reason", string(entry.Reason))
	}
	if len(entry.Details) > 0 {
		evt = evt.Interface("details", entry.Details)
	}

	evt.Msg("audit")
	return nil
}

// MemorySink buffers delivered entries in memory. Tests and the seed command
// use it to observe the trail without a database.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Deliver(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of everything delivered so far.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Entry, len(s.entries))
	copy(cp, s.entries)
	return cp
}
