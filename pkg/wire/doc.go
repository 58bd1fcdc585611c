// Package wire defines the CBOR wire format exchanged between the watch and
// the companion device.
//
// Messages use CBOR (RFC 8949) maps with integer keys. Key 1 of every message
// is the message type, so a frame can be classified with PeekMessageType
// before it is fully decoded.
//
// # Message Types
//
//   - Intent: watch to companion (StatusCheck, CaptureToggle)
//   - Ack: companion to watch, transport-level acknowledgment of one intent
//   - Notification: companion to watch (PictureTaken)
//   - Control: either direction, link keep-alive (ping/pong/close)
//
// # Toggle Semantics
//
// CaptureToggle both starts and cancels a capture. The payload is always the
// configured timer value; which of the two the watch means is decided by its
// local state, never by message content.
package wire
