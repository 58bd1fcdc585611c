package wire

import (
	"errors"
	"fmt"
)

// CBOR map keys shared by all messages.
const (
	KeyType = 1
)

// Timer value bounds carried in intents.
const (
	MinTimerValue = 0
	MaxTimerValue = 30
)

// Validation errors.
var (
	ErrInvalidMessageID = errors.New("messageId 0 is reserved")
	ErrInvalidKind      = errors.New("invalid intent kind")
	ErrInvalidPayload   = errors.New("timer value out of range")
	ErrWrongType        = errors.New("unexpected message type")
)

// Intent is an outbound message from the watch to the companion.
//
// CBOR encoding:
//
//	{
//	  1: 1,            // type = intent
//	  2: messageId,    // uint32, never 0
//	  3: kind,         // uint8: 1=StatusCheck, 2=CaptureToggle
//	  4: timerValue    // int: 0..30
//	}
type Intent struct {
	Type       MessageType `cbor:"1,keyasint"`
	MessageID  uint32      `cbor:"2,keyasint"`
	Kind       IntentKind  `cbor:"3,keyasint"`
	TimerValue int         `cbor:"4,keyasint"`
}

// Validate checks if the intent is well formed.
func (i *Intent) Validate() error {
	if i.MessageID == 0 {
		return ErrInvalidMessageID
	}
	if !i.Kind.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, i.Kind)
	}
	if i.TimerValue < MinTimerValue || i.TimerValue > MaxTimerValue {
		return fmt.Errorf("%w: %d", ErrInvalidPayload, i.TimerValue)
	}
	return nil
}

// Ack acknowledges delivery of one intent.
//
// CBOR encoding:
//
//	{
//	  1: 2,          // type = ack
//	  2: messageId,  // uint32: matches the intent
//	  3: status      // uint8: 0=OK
//	}
type Ack struct {
	Type      MessageType `cbor:"1,keyasint"`
	MessageID uint32      `cbor:"2,keyasint"`
	Status    AckStatus   `cbor:"3,keyasint"`
}

// Notification is an inbound event from the companion. It carries no payload
// beyond the event itself.
//
// CBOR encoding:
//
//	{
//	  1: 3,      // type = notification
//	  2: event   // uint8: 1=PictureTaken
//	}
type Notification struct {
	Type  MessageType       `cbor:"1,keyasint"`
	Event NotificationEvent `cbor:"2,keyasint"`
}

// ControlMessage is a link-level control message.
//
// CBOR encoding:
//
//	{
//	  1: 4,          // type = control
//	  2: controlType,
//	  3: sequence    // omitted for close
//	}
type ControlMessage struct {
	Type     MessageType `cbor:"1,keyasint"`
	Control  ControlType `cbor:"2,keyasint"`
	Sequence uint32      `cbor:"3,keyasint,omitempty"`
}

// NewIntent builds an intent message.
func NewIntent(msgID uint32, kind IntentKind, timerValue int) *Intent {
	return &Intent{
		Type:       MessageTypeIntent,
		MessageID:  msgID,
		Kind:       kind,
		TimerValue: timerValue,
	}
}

// NewAck builds an acknowledgment for msgID.
func NewAck(msgID uint32, status AckStatus) *Ack {
	return &Ack{Type: MessageTypeAck, MessageID: msgID, Status: status}
}

// NewPictureTaken builds a PictureTaken notification.
func NewPictureTaken() *Notification {
	return &Notification{Type: MessageTypeNotification, Event: EventPictureTaken}
}

// NewControl builds a control message.
func NewControl(ct ControlType, seq uint32) *ControlMessage {
	return &ControlMessage{Type: MessageTypeControl, Control: ct, Sequence: seq}
}
