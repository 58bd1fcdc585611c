// Package transport carries messages between the device and its companion.
//
// The transport layer handles:
//   - Length-prefixed message framing
//   - Keep-alive ping/pong for link liveness
//   - Connection lifecycle and protocol logging
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// The link itself is unencrypted; pairing and link security belong to the
// host platform.
//
// # Writes
//
// Each connection writes from its own goroutine. Send only queues, so a
// peer that stops reading never stalls the caller: Send fails with
// ErrSendQueueFull once the queue is full, and a write that misses
// WriteTimeout closes the connection.
//
// # Keep-Alive
//
// The dialing side pings the peer; both sides answer pings:
//   - Ping interval: 10 seconds
//   - Pong timeout: 3 seconds
//   - Max missed pongs: 3
//   - Maximum detection delay: 33 seconds
package transport
