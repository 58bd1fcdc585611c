package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/discovery"
	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/transport"
)

// Service errors.
var (
	ErrAlreadyStarted = errors.New("service already started")
	ErrNotStarted     = errors.New("service not started")
)

// Advertiser publishes the companion on the network.
// Implemented by *discovery.MDNSAdvertiser.
type Advertiser interface {
	Advertise(info discovery.CompanionInfo) error
	Stop()
}

// ServiceConfig configures a companion Service.
type ServiceConfig struct {
	// ListenAddr accepts device links. Defaults to transport.DefaultPort on
	// all interfaces.
	ListenAddr string

	// ShutterSlack is passed to the simulator.
	ShutterSlack time.Duration

	// Advertiser publishes the listener. Nil disables advertising.
	Advertiser Advertiser

	// InstanceName is the advertised instance name.
	InstanceName string

	// Logger is the operational logger. Nil discards.
	Logger *slog.Logger

	// ProtocolLogger receives transport and message events (optional).
	ProtocolLogger log.Logger
}

// Service runs the simulator behind a link server.
type Service struct {
	config ServiceConfig
	sim    *Simulator
	server *transport.Server
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewService creates a companion service.
func NewService(config ServiceConfig) *Service {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.InstanceName == "" {
		config.InstanceName = discovery.DefaultInstanceName
	}

	s := &Service{
		config: config,
		logger: config.Logger,
		sim: New(Config{
			ShutterSlack:   config.ShutterSlack,
			Logger:         config.Logger,
			ProtocolLogger: config.ProtocolLogger,
		}),
	}
	s.server = transport.NewServer(transport.ServerConfig{
		Address:      config.ListenAddr,
		Logger:       config.ProtocolLogger,
		OnConnect:    func(c *transport.Conn) { s.sim.Attach(c) },
		OnDisconnect: s.onDisconnect,
		OnMessage:    func(c *transport.Conn, data []byte) { s.sim.HandleMessage(c, data) },
		OnError: func(err error) {
			s.logger.Warn("link server error", "error", err)
		},
	})
	return s
}

// Simulator returns the simulator behind the service.
func (s *Service) Simulator() *Simulator {
	return s.sim
}

// Addr returns the link listener address, or nil before Start.
func (s *Service) Addr() net.Addr {
	return s.server.Addr()
}

// Start opens the link listener and advertises it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if err := s.server.Start(ctx); err != nil {
		return fmt.Errorf("start link server: %w", err)
	}

	if s.config.Advertiser != nil {
		port := s.server.Addr().(*net.TCPAddr).Port
		err := s.config.Advertiser.Advertise(discovery.CompanionInfo{
			InstanceName: s.config.InstanceName,
			Port:         uint16(port),
		})
		if err != nil {
			_ = s.server.Stop()
			return fmt.Errorf("advertise: %w", err)
		}
		s.logger.Info("advertising companion", "instance", s.config.InstanceName, "port", port)
	}

	s.started = true
	s.logger.Info("companion listening", "addr", s.server.Addr())
	return nil
}

// Stop withdraws the advertisement and closes every link.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	s.started = false

	if s.config.Advertiser != nil {
		s.config.Advertiser.Stop()
	}
	err := s.server.Stop()
	s.sim.Close()
	return err
}

func (s *Service) onDisconnect(c *transport.Conn, reason error) {
	s.sim.Detach(c)
	if reason != nil {
		s.logger.Info("link closed", "link", c.ID(), "reason", reason)
	}
}
