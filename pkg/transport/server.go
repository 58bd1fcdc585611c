package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/shutter-remote/shutter-go/pkg/log"
)

// DefaultPort is the companion's default link port.
const DefaultPort = 47800

// ErrServerRunning is returned when Start is called twice.
var ErrServerRunning = errors.New("server already running")

// ServerConfig configures a link server.
type ServerConfig struct {
	// Address to listen on (e.g. ":47800" or "127.0.0.1:0").
	Address string

	// MaxMessageSize is the maximum message size (default: 64 KiB).
	MaxMessageSize uint32

	// KeepAlive enables pinging accepted connections. Nil leaves liveness
	// to the dialing side.
	KeepAlive *KeepAliveConfig

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnConnect is called before the connection starts reading.
	OnConnect func(conn *Conn)

	// OnDisconnect is called once per connection with its close reason.
	OnDisconnect func(conn *Conn, reason error)

	// OnMessage is called for every non-control frame.
	OnMessage func(conn *Conn, msg []byte)

	// OnError is called for accept errors.
	OnError func(err error)
}

// Server accepts device links on a TCP listener.
type Server struct {
	config   ServerConfig
	listener net.Listener

	conns   map[*Conn]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a link server.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Server{
		config: config,
		conns:  make(map[*Conn]struct{}),
	}
}

// Start opens the listener and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every open connection, then waits for their
// goroutines.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	err := s.listener.Close()

	s.connsMu.RLock()
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.RUnlock()
	for _, c := range conns {
		c.Close()
	}
	s.cancel()

	s.wg.Wait()
	return err
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(fmt.Errorf("accept error: %w", err))
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(nc)
	}
}

func (s *Server) handleConnection(nc net.Conn) {
	defer s.wg.Done()

	conn := NewConn(nc, ConnConfig{
		MaxMessageSize: s.config.MaxMessageSize,
		KeepAlive:      s.config.KeepAlive,
		Logger:         s.config.Logger,
		Role:           log.RoleCompanion,
		OnMessage:      s.config.OnMessage,
		OnClose: func(c *Conn, reason error) {
			s.connsMu.Lock()
			delete(s.conns, c)
			s.connsMu.Unlock()
			if s.config.OnDisconnect != nil {
				s.config.OnDisconnect(c, reason)
			}
		},
	})
	conn.logState("accept", stateDisconnected, stateConnected)

	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(conn)
	}
	conn.Serve(s.ctx)
}
