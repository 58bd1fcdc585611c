package transport_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/transport"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

const waitFor = 2 * time.Second

type inbox struct {
	mu     sync.Mutex
	frames [][]byte
	ch     chan []byte
}

func newInbox() *inbox {
	return &inbox{ch: make(chan []byte, 16)}
}

func (b *inbox) add(_ *transport.Conn, data []byte) {
	b.mu.Lock()
	b.frames = append(b.frames, data)
	b.mu.Unlock()
	b.ch <- data
}

func (b *inbox) next(t *testing.T) []byte {
	t.Helper()
	select {
	case data := <-b.ch:
		return data
	case <-time.After(waitFor):
		t.Fatal("no frame received")
		return nil
	}
}

type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) transitions() []*log.TransitionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*log.TransitionEvent
	for _, e := range r.events {
		if e.Transition != nil {
			out = append(out, e.Transition)
		}
	}
	return out
}

type companion struct {
	server      *transport.Server
	inbox       *inbox
	connected   chan *transport.Conn
	disconnects chan error
}

func startCompanion(t *testing.T, logger log.Logger) *companion {
	t.Helper()
	c := &companion{
		inbox:       newInbox(),
		connected:   make(chan *transport.Conn, 4),
		disconnects: make(chan error, 4),
	}
	c.server = transport.NewServer(transport.ServerConfig{
		Address:      "127.0.0.1:0",
		Logger:       logger,
		OnConnect:    func(conn *transport.Conn) { c.connected <- conn },
		OnDisconnect: func(_ *transport.Conn, reason error) { c.disconnects <- reason },
		OnMessage:    c.inbox.add,
	})
	require.NoError(t, c.server.Start(context.Background()))
	t.Cleanup(func() { c.server.Stop() })
	return c
}

func (c *companion) accept(t *testing.T) *transport.Conn {
	t.Helper()
	select {
	case conn := <-c.connected:
		return conn
	case <-time.After(waitFor):
		t.Fatal("no connection accepted")
		return nil
	}
}

func dial(t *testing.T, addr string, cfg transport.ConnConfig) *transport.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	conn, err := transport.Dial(ctx, addr, cfg)
	require.NoError(t, err)
	conn.Start(context.Background())
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitDone(t *testing.T, conn *transport.Conn) {
	t.Helper()
	select {
	case <-conn.Done():
	case <-time.After(waitFor):
		t.Fatal("connection did not close")
	}
}

func TestLinkCarriesMessagesBothWays(t *testing.T) {
	comp := startCompanion(t, nil)
	device := newInbox()
	conn := dial(t, comp.server.Addr().String(), transport.ConnConfig{OnMessage: device.add})
	peer := comp.accept(t)

	intent, err := wire.EncodeIntent(wire.NewIntent(7, wire.IntentCaptureToggle, 3))
	require.NoError(t, err)
	require.NoError(t, conn.Send(intent))

	got, err := wire.DecodeIntent(comp.inbox.next(t))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got.MessageID)
	assert.Equal(t, 3, got.TimerValue)

	ack, err := wire.EncodeAck(wire.NewAck(7, wire.AckOK))
	require.NoError(t, err)
	require.NoError(t, peer.Send(ack))

	gotAck, err := wire.DecodeAck(device.next(t))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), gotAck.MessageID)

	assert.Equal(t, 1, comp.server.ConnectionCount())
	assert.NotEqual(t, conn.ID(), peer.ID())
}

func TestPingsAreAnsweredAndNotDelivered(t *testing.T) {
	comp := startCompanion(t, nil)
	conn := dial(t, comp.server.Addr().String(), transport.ConnConfig{
		KeepAlive: &transport.KeepAliveConfig{
			PingInterval:   20 * time.Millisecond,
			PongTimeout:    10 * time.Millisecond,
			MaxMissedPongs: 2,
		},
	})
	comp.accept(t)

	require.Eventually(t, func() bool {
		return !conn.KeepAliveStats().LastPongTime.IsZero()
	}, waitFor, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	select {
	case <-conn.Done():
		t.Fatalf("connection closed: %v", conn.Err())
	default:
	}

	comp.inbox.mu.Lock()
	defer comp.inbox.mu.Unlock()
	assert.Empty(t, comp.inbox.frames, "control messages never reach OnMessage")
}

func TestUnansweredPingsCloseTheLink(t *testing.T) {
	// A peer that reads but never answers.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		defer nc.Close()
		buf := make([]byte, 256)
		for {
			if _, err := nc.Read(buf); err != nil {
				return
			}
		}
	}()

	closed := make(chan error, 1)
	conn := dial(t, ln.Addr().String(), transport.ConnConfig{
		KeepAlive: &transport.KeepAliveConfig{
			PingInterval:   10 * time.Millisecond,
			PongTimeout:    5 * time.Millisecond,
			MaxMissedPongs: 2,
		},
		OnClose: func(_ *transport.Conn, reason error) { closed <- reason },
	})

	waitDone(t, conn)
	assert.ErrorIs(t, conn.Err(), transport.ErrKeepAliveTimeout)
	assert.ErrorIs(t, <-closed, transport.ErrKeepAliveTimeout)
	assert.ErrorIs(t, conn.Send([]byte{0x01}), transport.ErrConnClosed)
}

func TestLocalCloseNotifiesPeer(t *testing.T) {
	comp := startCompanion(t, nil)
	closed := make(chan error, 1)
	conn := dial(t, comp.server.Addr().String(), transport.ConnConfig{
		OnClose: func(_ *transport.Conn, reason error) { closed <- reason },
	})
	comp.accept(t)

	require.NoError(t, conn.Close())
	assert.NoError(t, <-closed, "local close has no reason")
	assert.NoError(t, conn.Close(), "second close is a no-op")

	select {
	case reason := <-comp.disconnects:
		assert.ErrorIs(t, reason, transport.ErrPeerClosed)
	case <-time.After(waitFor):
		t.Fatal("companion not notified")
	}
	require.Eventually(t, func() bool { return comp.server.ConnectionCount() == 0 }, waitFor, 5*time.Millisecond)
}

func TestServerStopClosesLinks(t *testing.T) {
	comp := startCompanion(t, nil)
	conn := dial(t, comp.server.Addr().String(), transport.ConnConfig{})
	comp.accept(t)

	require.NoError(t, comp.server.Stop())
	waitDone(t, conn)
	assert.ErrorIs(t, conn.Err(), transport.ErrPeerClosed)
	assert.Equal(t, 0, comp.server.ConnectionCount())
	assert.NoError(t, comp.server.Stop())
}

func TestServerStartTwice(t *testing.T) {
	comp := startCompanion(t, nil)
	assert.ErrorIs(t, comp.server.Start(context.Background()), transport.ErrServerRunning)
}

func TestContextCancelClosesConn(t *testing.T) {
	comp := startCompanion(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	conn, err := transport.Dial(ctx, comp.server.Addr().String(), transport.ConnConfig{})
	require.NoError(t, err)

	serveCtx, stop := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- conn.Serve(serveCtx) }()
	comp.accept(t)

	stop()
	select {
	case err := <-result:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(waitFor):
		t.Fatal("Serve did not return")
	}
}

func TestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, err = transport.Dial(ctx, addr, transport.ConnConfig{})
	assert.Error(t, err)
}

func TestLinkStateIsLogged(t *testing.T) {
	rec := &recorder{}
	comp := startCompanion(t, rec)
	conn := dial(t, comp.server.Addr().String(), transport.ConnConfig{})
	comp.accept(t)

	conn.Close()
	<-comp.disconnects

	var triggers []string
	for _, tr := range rec.transitions() {
		triggers = append(triggers, tr.Trigger+":"+tr.NewState)
	}
	assert.Equal(t, []string{"accept:CONNECTED", transport.ErrPeerClosed.Error() + ":DISCONNECTED"}, triggers)
}
