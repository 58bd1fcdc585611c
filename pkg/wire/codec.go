package wire

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for wire messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for wire messages.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient for forward compatibility: unknown keys are ignored.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// PeekMessageType reads key 1 of a message without decoding the rest.
func PeekMessageType(data []byte) (MessageType, error) {
	var peek struct {
		Type MessageType `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return MessageTypeUnknown, fmt.Errorf("failed to peek message: %w", err)
	}
	switch peek.Type {
	case MessageTypeIntent, MessageTypeAck, MessageTypeNotification, MessageTypeControl:
		return peek.Type, nil
	default:
		return MessageTypeUnknown, nil
	}
}

// EncodeIntent encodes an intent to CBOR bytes.
func EncodeIntent(intent *Intent) ([]byte, error) {
	intent.Type = MessageTypeIntent
	if err := intent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid intent: %w", err)
	}
	return Marshal(intent)
}

// DecodeIntent decodes CBOR bytes into an intent.
func DecodeIntent(data []byte) (*Intent, error) {
	var intent Intent
	if err := Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode intent: %w", err)
	}
	if intent.Type != MessageTypeIntent {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, intent.Type)
	}
	if err := intent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid intent: %w", err)
	}
	return &intent, nil
}

// EncodeAck encodes an acknowledgment to CBOR bytes.
func EncodeAck(ack *Ack) ([]byte, error) {
	ack.Type = MessageTypeAck
	return Marshal(ack)
}

// DecodeAck decodes CBOR bytes into an acknowledgment.
func DecodeAck(data []byte) (*Ack, error) {
	var ack Ack
	if err := Unmarshal(data, &ack); err != nil {
		return nil, fmt.Errorf("failed to decode ack: %w", err)
	}
	if ack.Type != MessageTypeAck {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, ack.Type)
	}
	return &ack, nil
}

// EncodeNotification encodes a notification to CBOR bytes.
func EncodeNotification(n *Notification) ([]byte, error) {
	n.Type = MessageTypeNotification
	return Marshal(n)
}

// DecodeNotification decodes CBOR bytes into a notification.
func DecodeNotification(data []byte) (*Notification, error) {
	var n Notification
	if err := Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if n.Type != MessageTypeNotification {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, n.Type)
	}
	return &n, nil
}

// EncodeControlMessage encodes a control message (ping/pong/close) to CBOR bytes.
func EncodeControlMessage(msg *ControlMessage) ([]byte, error) {
	msg.Type = MessageTypeControl
	return Marshal(msg)
}

// DecodeControlMessage decodes CBOR bytes into a control message.
func DecodeControlMessage(data []byte) (*ControlMessage, error) {
	var msg ControlMessage
	if err := Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode control message: %w", err)
	}
	if msg.Type != MessageTypeControl {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, msg.Type)
	}
	return &msg, nil
}
