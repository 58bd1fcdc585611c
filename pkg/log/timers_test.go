package log

import (
	"testing"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/sched/schedtest"
)

func TestTimerObserverRecordsLifecycle(t *testing.T) {
	rec := &recordingLogger{}
	clock := schedtest.NewFakeClock()
	timers := sched.NewTimers(clock, schedtest.Inline{})
	timers.SetObserver(TimerObserver(rec, "sess", clock.Now))

	timers.Arm("settle", 2*time.Second, func() {})
	clock.Advance(2 * time.Second)

	if rec.count() != 2 {
		t.Fatalf("got %d events, want 2", rec.count())
	}
	armed, fired := rec.events[0], rec.events[1]
	if armed.Timer == nil || armed.Timer.Action != "ARMED" || armed.Timer.Delay != 2*time.Second {
		t.Errorf("armed event = %+v", armed.Timer)
	}
	if fired.Timer == nil || fired.Timer.Action != "FIRED" || fired.Timer.Name != "settle" {
		t.Errorf("fired event = %+v", fired.Timer)
	}
	if fired.Layer != LayerCore || fired.Category != CategoryTimer || fired.SessionID != "sess" {
		t.Errorf("fired event envelope = %+v", fired)
	}
	if !fired.Timestamp.Equal(clock.Now()) {
		t.Errorf("Timestamp = %v, want %v", fired.Timestamp, clock.Now())
	}
}
