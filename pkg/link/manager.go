package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/gateway"
	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/transport"
)

// DefaultDialTimeout bounds one resolve-and-dial attempt.
const DefaultDialTimeout = 10 * time.Second

// Link errors.
var (
	ErrNoAddress = errors.New("no companion address")
	ErrNoGateway = errors.New("link: gateway is required")
	ErrNoResolve = errors.New("link: resolver is required")
	ErrRunning   = errors.New("link: already running")
)

// State represents the link state.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates the first connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateReconnecting indicates the link was lost and is being re-established.
	StateReconnecting

	// StateClosed indicates the manager has stopped.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Resolver finds the companion's link address.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticAddr resolves to a fixed host:port.
type StaticAddr string

// Resolve returns the address.
func (a StaticAddr) Resolve(context.Context) (string, error) {
	if a == "" {
		return "", ErrNoAddress
	}
	return string(a), nil
}

// Gateway is the side of the message gateway the link drives.
// Implemented by *gateway.Gateway.
type Gateway interface {
	SetSender(s gateway.Sender)
	Deliver(data []byte) bool
}

// Config configures a Manager.
type Config struct {
	// Resolver finds the companion. Required.
	Resolver Resolver

	// Gateway receives the live connection and inbound frames. Required.
	Gateway Gateway

	// KeepAlive configures link pings. Nil uses transport defaults.
	KeepAlive *transport.KeepAliveConfig

	// Backoff configures redial delays.
	Backoff BackoffConfig

	// DialTimeout defaults to DefaultDialTimeout.
	DialTimeout time.Duration

	// Logger is the operational logger. Nil discards.
	Logger *slog.Logger

	// ProtocolLogger receives transport events. Nil disables capture.
	ProtocolLogger log.Logger

	// SessionID tags transport events, so frames line up with the rest of
	// the device's capture. Empty uses each connection's ID.
	SessionID string
}

// Manager keeps the device linked to its companion. While no connection is
// attached the gateway has no sender, so intents fail at once and surface
// as timeout alerts.
type Manager struct {
	config  Config
	logger  *slog.Logger
	backoff *Backoff

	mu            sync.RWMutex
	state         State
	running       bool
	onStateChange func(oldState, newState State)
}

// New creates a link manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Resolver == nil {
		return nil, ErrNoResolve
	}
	if cfg.Gateway == nil {
		return nil, ErrNoGateway
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.KeepAlive == nil {
		ka := transport.DefaultKeepAliveConfig()
		cfg.KeepAlive = &ka
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		config:  cfg,
		logger:  logger,
		backoff: NewBackoff(cfg.Backoff),
		state:   StateDisconnected,
	}, nil
}

// State returns the current link state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected returns true if a connection is attached.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Attempts returns the number of failed attempts since the last connect.
func (m *Manager) Attempts() int {
	return m.backoff.Attempts()
}

// OnStateChange sets a callback for state changes. It runs on the
// manager's goroutine.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// Run connects and keeps reconnecting until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrRunning
	}
	m.running = true
	m.mu.Unlock()

	defer m.setState(StateClosed)

	next := StateConnecting
	for {
		m.setState(next)
		next = StateReconnecting

		conn, err := m.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			delay := m.backoff.Next()
			m.logger.Warn("companion link failed", "error", err, "attempt", m.backoff.Attempts(), "retryIn", delay)
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}

		m.backoff.Reset()
		m.attach(conn)
		m.logger.Info("companion linked", "addr", conn.RemoteAddr(), "conn", conn.ID())
		conn.Start(ctx)

		select {
		case <-ctx.Done():
			m.detach()
			conn.Close()
			return nil
		case <-conn.Done():
		}
		m.detach()
		stats := conn.KeepAliveStats()
		m.logger.Warn("companion link lost",
			"reason", conn.Err(),
			"missedPongs", stats.MissedPongs,
			"lastLatency", stats.LastLatency,
		)

		if !sleep(ctx, m.backoff.Next()) {
			return nil
		}
	}
}

func (m *Manager) connect(ctx context.Context) (*transport.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, m.config.DialTimeout)
	defer cancel()

	addr, err := m.config.Resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve companion: %w", err)
	}
	return transport.Dial(ctx, addr, transport.ConnConfig{
		KeepAlive: m.config.KeepAlive,
		Logger:    m.config.ProtocolLogger,
		Role:      log.RoleDevice,
		SessionID: m.config.SessionID,
		OnMessage: func(_ *transport.Conn, data []byte) {
			if !m.config.Gateway.Deliver(data) {
				m.logger.Debug("frame dropped, loop stopped")
			}
		},
		OnPong: func(_ *transport.Conn, latency time.Duration) {
			m.logger.Debug("companion pong", "latency", latency)
		},
	})
}

func (m *Manager) attach(conn *transport.Conn) {
	m.config.Gateway.SetSender(conn)
	m.setState(StateConnected)
}

func (m *Manager) detach() {
	m.config.Gateway.SetSender(nil)
	m.setState(StateReconnecting)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	old := m.state
	if old == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	fn := m.onStateChange
	m.mu.Unlock()

	m.logger.Debug("link state changed", "from", old, "to", s)
	if fn != nil {
		fn(old, s)
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
