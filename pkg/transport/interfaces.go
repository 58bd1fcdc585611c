package transport

import (
	"context"
	"net"
)

// Connection is one framed link to the peer.
// Implemented by Conn.
type Connection interface {
	// ID returns the unique connection identifier.
	ID() string

	// RemoteAddr returns the peer address.
	RemoteAddr() net.Addr

	// Send queues one frame without waiting for the write.
	Send(data []byte) error

	// Close announces the close and shuts the connection down.
	Close() error

	// Done is closed once the connection has shut down.
	Done() <-chan struct{}
}

// LinkServer accepts links from devices.
// Implemented by Server.
type LinkServer interface {
	// Start begins accepting connections.
	Start(ctx context.Context) error

	// Stop closes the listener and all connections.
	Stop() error

	// Addr returns the server's listen address.
	Addr() net.Addr

	// ConnectionCount returns the number of active connections.
	ConnectionCount() int
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads a length-prefixed frame.
	ReadFrame() ([]byte, error)

	// WriteFrame writes a length-prefixed frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ Connection      = (*Conn)(nil)
	_ LinkServer      = (*Server)(nil)
	_ FrameReadWriter = (*Framer)(nil)
)
