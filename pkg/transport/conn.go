package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

// Connection errors.
var (
	// ErrConnClosed is returned by Send after the connection closed.
	ErrConnClosed = errors.New("connection closed")

	// ErrPeerClosed is the close reason when the peer hung up.
	ErrPeerClosed = errors.New("closed by peer")

	// ErrKeepAliveTimeout is the close reason when pings went unanswered.
	ErrKeepAliveTimeout = errors.New("keep-alive timeout")

	// ErrSendQueueFull is returned by Send while the writer is backed up.
	ErrSendQueueFull = errors.New("send queue full")
)

// Write defaults.
const (
	// DefaultSendQueueSize bounds frames waiting for the writer.
	DefaultSendQueueSize = 16

	// DefaultWriteTimeout bounds one frame write. A peer that stops reading
	// loses the connection after this long.
	DefaultWriteTimeout = 5 * time.Second

	// closeFlushTimeout bounds how long Close waits for the close frame.
	closeFlushTimeout = time.Second
)

// Connection states, as they appear in protocol log transitions.
const (
	stateConnected    = "CONNECTED"
	stateDisconnected = "DISCONNECTED"
)

// ConnConfig configures a Conn.
type ConnConfig struct {
	// MaxMessageSize is the maximum frame payload (default: 64 KiB).
	MaxMessageSize uint32

	// SendQueueSize bounds frames queued by Send (default: 16).
	SendQueueSize int

	// WriteTimeout bounds one frame write (default: 5s). A write that misses
	// it closes the connection.
	WriteTimeout time.Duration

	// SessionID tags protocol events (default: the connection ID).
	SessionID string

	// KeepAlive enables pinging the peer. Nil disables it; pings from the
	// peer are always answered.
	KeepAlive *KeepAliveConfig

	// Logger receives transport events (optional).
	Logger log.Logger

	// Role is recorded as the local role in protocol events.
	Role log.Role

	// OnMessage is called on the read goroutine for every non-control frame.
	OnMessage func(c *Conn, data []byte)

	// OnPong is called on the keep-alive goroutine for each answered ping.
	OnPong func(c *Conn, latency time.Duration)

	// OnClose is called exactly once with the close reason. The reason is
	// nil when Close was called locally.
	OnClose func(c *Conn, reason error)
}

// outFrame is one queued frame. Control frames are logged once written.
type outFrame struct {
	data    []byte
	control *wire.ControlMessage
}

// Conn is a framed link to the peer. Control messages (ping/pong/close) are
// consumed by the connection itself.
//
// Frames are written by a dedicated goroutine, so Send never blocks on a
// slow peer.
type Conn struct {
	id     string
	nc     net.Conn
	framer *Framer
	config ConnConfig
	ka     *KeepAlive
	out    chan outFrame

	closing   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// NewConn wraps an established network connection. Call Start or Serve to
// begin reading.
func NewConn(nc net.Conn, config ConnConfig) *Conn {
	config.MaxMessageSize = sizeOrDefault(config.MaxMessageSize)
	if config.SendQueueSize <= 0 {
		config.SendQueueSize = DefaultSendQueueSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}

	c := &Conn{
		id:     uuid.New().String(),
		nc:     nc,
		framer: NewFramer(nc, config.MaxMessageSize),
		config: config,
		out:    make(chan outFrame, config.SendQueueSize),
		done:   make(chan struct{}),
	}
	if c.config.SessionID == "" {
		c.config.SessionID = c.id
	}
	if config.Logger != nil {
		c.framer.setTap(frameTap{logger: config.Logger, base: c.event(0, 0)})
	}
	if config.KeepAlive != nil {
		c.ka = NewKeepAlive(*config.KeepAlive, c.sendPing, func() {
			c.shutdown(ErrKeepAliveTimeout)
		})
		if config.OnPong != nil {
			c.ka.OnPong(func(_ uint32, latency time.Duration) {
				config.OnPong(c, latency)
			})
		}
	}
	go c.writeLoop()
	return c
}

// Dial connects to the peer at addr. The returned connection is not reading
// yet; call Start once its handlers are wired.
func Dial(ctx context.Context, addr string, config ConnConfig) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := NewConn(nc, config)
	c.logState("dial", stateDisconnected, stateConnected)
	return c, nil
}

// ID returns the unique connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// SessionID returns the session protocol events are tagged with.
func (c *Conn) SessionID() string {
	return c.config.SessionID
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// LocalAddr returns the local address.
func (c *Conn) LocalAddr() net.Addr {
	return c.nc.LocalAddr()
}

// KeepAliveStats returns keep-alive statistics. The zero value is returned
// when keep-alive is disabled.
func (c *Conn) KeepAliveStats() KeepAliveStats {
	if c.ka == nil {
		return KeepAliveStats{}
	}
	return c.ka.Stats()
}

// Done is closed once the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the close reason once Done is closed.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.closeErr
	default:
		return nil
	}
}

// Start runs Serve on a new goroutine.
func (c *Conn) Start(ctx context.Context) {
	go c.Serve(ctx)
}

// Serve reads frames until the connection closes and returns the close
// reason. Cancelling ctx closes the connection.
func (c *Conn) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			c.shutdown(ctx.Err())
		case <-c.done:
		}
	}()

	if c.ka != nil {
		c.ka.Start(ctx)
	}
	c.readLoop()
	<-c.done
	return c.closeErr
}

// Send queues one frame and returns without waiting for the write. It fails
// once the connection is closed or while the queue is full; a queued frame
// that cannot be written within WriteTimeout closes the connection.
func (c *Conn) Send(data []byte) error {
	if err := checkSize(uint64(len(data)), c.config.MaxMessageSize); err != nil {
		return err
	}
	return c.enqueue(outFrame{data: data})
}

// Close announces the close to the peer and shuts the connection down.
func (c *Conn) Close() error {
	if c.closed.Load() {
		return nil
	}
	c.closing.Store(true)
	if err := c.sendControl(wire.ControlClose, 0); err == nil {
		t := time.NewTimer(closeFlushTimeout)
		defer t.Stop()
		select {
		case <-c.done:
		case <-t.C:
		}
	}
	c.shutdown(nil)
	return nil
}

func (c *Conn) enqueue(f outFrame) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	select {
	case c.out <- f:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// writeLoop drains the send queue until the connection closes.
func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.out:
			_ = c.nc.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.framer.WriteFrame(f.data); err != nil {
				c.shutdown(err)
				return
			}
			if f.control == nil {
				continue
			}
			c.logControl(f.control.Control, f.control.Sequence, log.DirectionOut)
			if f.control.Control == wire.ControlClose {
				c.shutdown(nil)
				return
			}
		}
	}
}

func (c *Conn) shutdown(reason error) {
	c.closeOnce.Do(func() {
		// Whatever ends a connection after Close is part of closing it.
		if c.closing.Load() {
			reason = nil
		}
		c.closeErr = reason
		c.closed.Store(true)
		if c.ka != nil {
			c.ka.Stop()
		}
		_ = c.nc.Close()
		close(c.done)

		trigger := "close"
		if reason != nil {
			trigger = reason.Error()
			c.logError(reason)
		}
		c.logState(trigger, stateConnected, stateDisconnected)

		if c.config.OnClose != nil {
			c.config.OnClose(c, reason)
		}
	})
}

func (c *Conn) readLoop() {
	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrPeerClosed
			}
			c.shutdown(err)
			return
		}

		// Control messages share key 1 with every other message, so peek
		// rather than trial-decode.
		if typ, err := wire.PeekMessageType(data); err == nil && typ == wire.MessageTypeControl {
			if msg, err := wire.DecodeControlMessage(data); err == nil {
				if c.handleControl(msg) {
					return
				}
				continue
			}
		}

		if c.config.OnMessage != nil {
			c.config.OnMessage(c, data)
		}
	}
}

// handleControl processes one control message and reports whether the
// connection closed.
func (c *Conn) handleControl(msg *wire.ControlMessage) bool {
	c.logControl(msg.Control, msg.Sequence, log.DirectionIn)

	switch msg.Control {
	case wire.ControlPing:
		_ = c.sendControl(wire.ControlPong, msg.Sequence)

	case wire.ControlPong:
		if c.ka != nil {
			c.ka.PongReceived(msg.Sequence)
		}

	case wire.ControlClose:
		c.shutdown(ErrPeerClosed)
		return true
	}
	return false
}

func (c *Conn) sendPing(seq uint32) error {
	return c.sendControl(wire.ControlPing, seq)
}

func (c *Conn) sendControl(ct wire.ControlType, seq uint32) error {
	msg := wire.NewControl(ct, seq)
	data, err := wire.EncodeControlMessage(msg)
	if err != nil {
		return err
	}
	return c.enqueue(outFrame{data: data, control: msg})
}

func (c *Conn) event(category log.Category, direction log.Direction) log.Event {
	return log.Event{
		Timestamp:  time.Now(),
		SessionID:  c.config.SessionID,
		Direction:  direction,
		Layer:      log.LayerTransport,
		Category:   category,
		LocalRole:  c.config.Role,
		RemoteAddr: c.nc.RemoteAddr().String(),
	}
}

func (c *Conn) logControl(ct wire.ControlType, seq uint32, direction log.Direction) {
	if c.config.Logger == nil {
		return
	}
	e := c.event(log.CategoryControl, direction)
	e.ControlMsg = &log.ControlMsgEvent{Type: ct, Sequence: seq}
	c.config.Logger.Log(e)
}

func (c *Conn) logState(trigger, oldState, newState string) {
	if c.config.Logger == nil {
		return
	}
	e := c.event(log.CategoryState, log.DirectionIn)
	e.Transition = &log.TransitionEvent{
		Trigger:  trigger,
		OldState: oldState,
		NewState: newState,
	}
	c.config.Logger.Log(e)
}

func (c *Conn) logError(err error) {
	if c.config.Logger == nil {
		return
	}
	e := c.event(log.CategoryError, log.DirectionIn)
	e.Error = &log.ErrorEventData{
		Layer:   log.LayerTransport,
		Message: err.Error(),
		Context: "connection closed",
	}
	c.config.Logger.Log(e)
}
