package service

import (
	"context"
	"sync"
)

// Events pushed to the frontend.
const (
	EventDocumentLoaded = "document:loaded"
	EventDocumentNotice = "document:notice"
	EventPageUpdated    = "page:updated"
	EventPagesChanged   = "pages:changed"
	EventPageFocus      = "page:focus"
	EventUnsplittable   = "reflow:unsplittable"
	EventExportFailed   = "export:failed"
	EventBackupDone     = "backup:completed"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from wailsRuntime
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for emitting events to the frontend.
// The App struct implements this by delegating to wailsRuntime.EventsEmit.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
// Emissions may come from the queue goroutine, so access is locked.
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

// Named returns the recorded emissions of one event, oldest first.
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

// Reset forgets everything recorded so far.
func (m *MockEmitter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = nil
}
