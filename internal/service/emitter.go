package service

import (
	"context"
	"sync"

	"cvetl/internal/etl"
	"cvetl/internal/metrics"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples the service from what observes runs
// ─────────────────────────────────────────────────────────────

// Events emitted by ETLService.
const (
	EventRunStarted   = "etl:run-started"   // data: pipeline name
	EventRunCompleted = "etl:run-completed" // data: *etl.SyncResult
)

// EventEmitter receives run lifecycle events. Implementations must be
// safe for concurrent use, since RunAll runs pipelines in parallel.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MultiEmitter fans an event out to several emitters.
type MultiEmitter []EventEmitter

func (m MultiEmitter) Emit(ctx context.Context, event string, data any) {
	for _, e := range m {
		e.Emit(ctx, event, data)
	}
}

// MetricsEmitter feeds completed runs into prometheus collectors.
type MetricsEmitter struct {
	Metrics *metrics.Metrics
}

func (m MetricsEmitter) Emit(_ context.Context, event string, data any) {
	if event != EventRunCompleted {
		return
	}
	if r, ok := data.(*etl.SyncResult); ok {
		m.Metrics.Observe(r)
	}
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events with the given name.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
