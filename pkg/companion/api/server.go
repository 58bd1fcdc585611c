package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shutter-remote/shutter-go/pkg/companion"
	"github.com/shutter-remote/shutter-go/pkg/version"
)

// Controller is the simulator surface the API drives.
// Implemented by *companion.Simulator.
type Controller interface {
	Status() companion.Status
	TriggerPictureTaken() (int, error)
	SetDropAcks(drop bool)
}

// Config configures the API server.
type Config struct {
	// Address to listen on (e.g. "127.0.0.1:8080").
	Address string

	// Controller is required.
	Controller Controller

	// Logger is the operational logger. Nil discards.
	Logger *slog.Logger
}

// Server serves the control API.
type Server struct {
	config Config
	engine *gin.Engine
	http   *http.Server
	logger *slog.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		config: cfg,
		engine: gin.New(),
		logger: cfg.Logger,
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()

	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/picture-taken", s.handlePictureTaken)
	api.POST("/ack-mode", s.handleAckMode)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("control API listening", "addr", ln.Addr())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control API: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and serves until
// Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ln)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  version.Build,
		Protocol: version.Current,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.config.Controller.Status()
	resp := StatusResponse{
		Devices:       st.Devices,
		SetupScreen:   st.SetupScreen,
		DropAcks:      st.DropAcks,
		Intents:       st.Intents,
		Acks:          st.Acks,
		PicturesTaken: st.PicturesTaken,
	}
	if st.ShotPending {
		resp.Pending = &PendingShot{TimerValue: st.TimerValue, Due: st.ShotDue}
	}
	if !st.LastIntent.IsZero() {
		last := st.LastIntent
		resp.LastIntent = &last
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePictureTaken(c *gin.Context) {
	n, err := s.config.Controller.TriggerPictureTaken()
	if errors.Is(err, companion.ErrNoDevice) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "no_device",
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "send_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusAccepted, PictureTakenResponse{Delivered: n})
}

func (s *Server) handleAckMode(c *gin.Context) {
	var req AckModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	s.config.Controller.SetDropAcks(*req.Drop)
	c.JSON(http.StatusOK, AckModeResponse{Drop: *req.Drop})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
