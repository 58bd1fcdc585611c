package log

import (
	"sync"
	"testing"
	"time"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (nil skipped)", m.Len())
	}

	m.Log(Event{Timestamp: time.Now(), SessionID: "one"})
	m.Log(Event{Timestamp: time.Now(), SessionID: "two"})

	if a.count() != 2 || b.count() != 2 {
		t.Errorf("counts = %d/%d, want 2/2", a.count(), b.count())
	}
	if a.events[1].SessionID != "two" {
		t.Errorf("order not preserved: %q", a.events[1].SessionID)
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	m := NewMultiLogger()
	m.Log(Event{})
}
