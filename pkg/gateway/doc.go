// Package gateway is the device's message gateway to the companion.
//
// Outbound, SendIntent encodes an intent, hands it to the current link and
// starts an acknowledgment watch. If no Ack arrives within the window, or the
// link refuses the frame, the caller's timeout callback runs exactly once on
// the loop. There is no automatic retry.
//
// Inbound, frames are delivered from the transport goroutine with Deliver and
// handled on the loop. Acks settle pending intents; a PictureTaken
// notification is dispatched to the single registered handler.
package gateway
