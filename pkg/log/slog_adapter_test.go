package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/wire"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	entry := logJSON(t, Event{
		Timestamp: time.Now(),
		SessionID: "conn-123",
		Direction: DirectionIn,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Frame:     &FrameEvent{Size: 256, Data: []byte{0x01, 0x02}},
	})

	if entry["session"] != "conn-123" {
		t.Errorf("session: got %v", entry["session"])
	}
	if entry["direction"] != "IN" {
		t.Errorf("direction: got %v", entry["direction"])
	}
	if entry["frame_size"] != float64(256) {
		t.Errorf("frame_size: got %v", entry["frame_size"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v", entry["level"])
	}
}

func TestSlogAdapterLogsIntent(t *testing.T) {
	kind := wire.IntentCaptureToggle
	tv := 3
	entry := logJSON(t, Event{
		Layer:    LayerWire,
		Category: CategoryMessage,
		Message:  &MessageEvent{Type: wire.MessageTypeIntent, MessageID: 9, Kind: &kind, TimerValue: &tv},
	})

	if entry["msg_type"] != "INTENT" {
		t.Errorf("msg_type: got %v", entry["msg_type"])
	}
	if entry["kind"] != "CaptureToggle" {
		t.Errorf("kind: got %v", entry["kind"])
	}
	if entry["timer_value"] != float64(3) {
		t.Errorf("timer_value: got %v", entry["timer_value"])
	}
}

func TestSlogAdapterCoreEventsOmitDirection(t *testing.T) {
	entry := logJSON(t, Event{
		Layer:      LayerCore,
		Category:   CategoryState,
		Transition: &TransitionEvent{Trigger: "picture-taken", OldState: "COUNTING_DOWN", NewState: "READY"},
	})

	if _, ok := entry["direction"]; ok {
		t.Error("core event should not carry direction")
	}
	if entry["trigger"] != "picture-taken" {
		t.Errorf("trigger: got %v", entry["trigger"])
	}
	if entry["new_state"] != "READY" {
		t.Errorf("new_state: got %v", entry["new_state"])
	}
}
