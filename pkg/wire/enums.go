package wire

// MessageType identifies the kind of a wire message (key 1).
type MessageType uint8

const (
	MessageTypeUnknown      MessageType = 0
	MessageTypeIntent       MessageType = 1
	MessageTypeAck          MessageType = 2
	MessageTypeNotification MessageType = 3
	MessageTypeControl      MessageType = 4
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageTypeIntent:
		return "INTENT"
	case MessageTypeAck:
		return "ACK"
	case MessageTypeNotification:
		return "NOTIFICATION"
	case MessageTypeControl:
		return "CONTROL"
	default:
		return "UNKNOWN"
	}
}

// IntentKind is the kind of an outbound intent.
type IntentKind uint8

const (
	// IntentStatusCheck tells the companion the user is on the setup screen.
	IntentStatusCheck IntentKind = 1

	// IntentCaptureToggle starts or cancels a capture.
	IntentCaptureToggle IntentKind = 2
)

// String returns the intent kind name.
func (k IntentKind) String() string {
	switch k {
	case IntentStatusCheck:
		return "StatusCheck"
	case IntentCaptureToggle:
		return "CaptureToggle"
	default:
		return "Unknown"
	}
}

// IsValid returns true if k is a known intent kind.
func (k IntentKind) IsValid() bool {
	return k == IntentStatusCheck || k == IntentCaptureToggle
}

// AckStatus is the result carried by an acknowledgment.
type AckStatus uint8

const (
	// AckOK indicates the intent was delivered to the companion application.
	AckOK AckStatus = 0

	// AckRejected indicates the companion could not parse or accept the intent.
	AckRejected AckStatus = 1

	// AckBusy indicates the companion could not handle the intent right now.
	AckBusy AckStatus = 2
)

// String returns the status name.
func (s AckStatus) String() string {
	switch s {
	case AckOK:
		return "OK"
	case AckRejected:
		return "REJECTED"
	case AckBusy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates delivery.
func (s AckStatus) IsSuccess() bool {
	return s == AckOK
}

// NotificationEvent is the event carried by an inbound notification.
type NotificationEvent uint8

const (
	// EventPictureTaken reports that the companion performed the shutter action.
	EventPictureTaken NotificationEvent = 1
)

// String returns the event name.
func (e NotificationEvent) String() string {
	switch e {
	case EventPictureTaken:
		return "PictureTaken"
	default:
		return "Unknown"
	}
}

// ControlType is the type of a link control message.
type ControlType uint8

const (
	// ControlPing is sent to check link liveness.
	ControlPing ControlType = 1

	// ControlPong is the response to a ping.
	ControlPong ControlType = 2

	// ControlClose announces a graceful link close.
	ControlClose ControlType = 3
)

// String returns the control type name.
func (t ControlType) String() string {
	switch t {
	case ControlPing:
		return "ping"
	case ControlPong:
		return "pong"
	case ControlClose:
		return "close"
	default:
		return "unknown"
	}
}
