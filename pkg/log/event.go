package log

import (
	"time"

	"github.com/shutter-remote/shutter-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the process session or link connection (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow. Ignored for core events.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is the watch or the companion.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame      *FrameEvent      `cbor:"10,keyasint,omitempty"` // Transport layer
	Message    *MessageEvent    `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	Transition *TransitionEvent `cbor:"12,keyasint,omitempty"` // Capture machine or link state
	ControlMsg *ControlMsgEvent `cbor:"13,keyasint,omitempty"` // Ping/pong/close
	Error      *ErrorEventData  `cbor:"14,keyasint,omitempty"` // Errors at any layer
	Timer      *TimerEvent      `cbor:"15,keyasint,omitempty"` // Timer activity
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerCore is the capture state machine and its timers.
	LayerCore Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerCore:
		return "CORE"
	default:
		return "UNKNOWN"
	}
}

// ParseLayer converts a layer name to a Layer.
func ParseLayer(s string) (Layer, bool) {
	switch s {
	case "TRANSPORT", "transport":
		return LayerTransport, true
	case "WIRE", "wire":
		return LayerWire, true
	case "CORE", "core":
		return LayerCore, true
	default:
		return 0, false
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates an intent, ack or notification.
	CategoryMessage Category = 0
	// CategoryControl indicates a control message (ping/pong/close).
	CategoryControl Category = 1
	// CategoryState indicates a state transition.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
	// CategoryTimer indicates timer activity.
	CategoryTimer Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryTimer:
		return "TIMER"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory converts a category name to a Category.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "MESSAGE", "message":
		return CategoryMessage, true
	case "CONTROL", "control":
		return CategoryControl, true
	case "STATE", "state":
		return CategoryState, true
	case "ERROR", "error":
		return CategoryError, true
	case "TIMER", "timer":
		return CategoryTimer, true
	default:
		return 0, false
	}
}

// Role indicates which side of the link logged the event.
type Role uint8

const (
	// RoleDevice is the watch.
	RoleDevice Role = 0
	// RoleCompanion is the companion device.
	RoleCompanion Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "DEVICE"
	case RoleCompanion:
		return "COMPANION"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded wire message.
type MessageEvent struct {
	// Type distinguishes intent/ack/notification.
	Type wire.MessageType `cbor:"1,keyasint"`

	// MessageID correlates intents and acks (0 for notifications).
	MessageID uint32 `cbor:"2,keyasint"`

	// For intents: the intent kind.
	Kind *wire.IntentKind `cbor:"3,keyasint,omitempty"`

	// For intents: the timer value payload.
	TimerValue *int `cbor:"4,keyasint,omitempty"`

	// For acks: the status.
	Status *wire.AckStatus `cbor:"5,keyasint,omitempty"`

	// For notifications: the event.
	Event *wire.NotificationEvent `cbor:"6,keyasint,omitempty"`

	// RoundTrip is the time from intent send to ack receipt (ack only).
	// Stored as nanoseconds.
	RoundTrip *time.Duration `cbor:"7,keyasint,omitempty"`
}

// TransitionEvent captures a capture state machine transition.
type TransitionEvent struct {
	// Trigger is the event that caused the transition (e.g. "select", "tick").
	Trigger string `cbor:"1,keyasint"`

	// OldState is the previous state.
	OldState string `cbor:"2,keyasint"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// TimerValue at the time of the transition.
	TimerValue int `cbor:"4,keyasint"`

	// Outcome reports how the machine handled the trigger.
	Outcome string `cbor:"5,keyasint,omitempty"`
}

// TimerEvent captures arm/cancel/fire activity of a named timer.
type TimerEvent struct {
	// Name is the timer name ("countdown", "fallback", "settle", "ack-timeout").
	Name string `cbor:"1,keyasint"`

	// Action is what happened ("ARMED", "CANCELLED", "FIRED", "STALE").
	Action string `cbor:"2,keyasint"`

	// Handle is the slot/generation of the timer handle.
	Handle string `cbor:"3,keyasint,omitempty"`

	// Delay is the armed delay (armed only). Stored as nanoseconds.
	Delay time.Duration `cbor:"4,keyasint,omitempty"`
}

// ControlMsgEvent captures link-level control messages.
type ControlMsgEvent struct {
	// Type of control message.
	Type wire.ControlType `cbor:"1,keyasint"`

	// Sequence number of ping/pong.
	Sequence uint32 `cbor:"2,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
