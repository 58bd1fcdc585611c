// Command shutter-companion is a reference companion for shutter devices.
//
// It accepts device links, acknowledges every intent and takes a simulated
// picture when a capture's timer runs out. An HTTP control API allows
// injecting notifications and dropping acknowledgments.
//
// Usage:
//
//	shutter-companion [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-listen string        Link listen address (default ":47800")
//	-http string          Control API address, empty to disable (default "127.0.0.1:8080")
//	-slack duration       Delay added to each timer before the picture (default 300ms)
//	-name string          mDNS instance name
//	-advertise            Advertise over mDNS (default true)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol events to this .shlog file
//
// Examples:
//
//	# Run on this machine without mDNS
//	shutter-companion -advertise=false -listen 127.0.0.1:47800
//
//	# Make the next intents time out on the device
//	curl -X POST -d '{"drop":true}' http://127.0.0.1:8080/api/ack-mode
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shutter-remote/shutter-go/pkg/companion"
	"github.com/shutter-remote/shutter-go/pkg/companion/api"
	"github.com/shutter-remote/shutter-go/pkg/config"
	"github.com/shutter-remote/shutter-go/pkg/discovery"
	shlog "github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/version"
)

// Flags holds the command line. Flags that were set override the
// configuration file.
type Flags struct {
	ConfigFile  string
	Listen      string
	HTTP        string
	Slack       time.Duration
	Name        string
	Advertise   bool
	LogLevel    string
	ProtocolLog string
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.Listen, "listen", "", "Link listen address")
	flag.StringVar(&flags.HTTP, "http", config.DefaultHTTPAddr, "Control API address, empty to disable")
	flag.DurationVar(&flags.Slack, "slack", config.DefaultShutterSlack, "Delay added to each timer before the picture")
	flag.StringVar(&flags.Name, "name", "", "mDNS instance name")
	flag.BoolVar(&flags.Advertise, "advertise", true, "Advertise over mDNS")
	flag.StringVar(&flags.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Write protocol events to this .shlog file")
}

func main() {
	flag.Parse()

	cfg, err := config.LoadCompanion(flags.ConfigFile)
	if err != nil {
		fatal("Failed to load configuration", err)
	}
	applyFlags(&cfg, setFlags())
	if err := cfg.Validate(); err != nil {
		fatal("Invalid configuration", err)
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	logger.Info("shutter companion starting", "version", version.Build, "protocol", version.Current)

	var plog shlog.Logger
	if cfg.Log.Protocol != "" {
		fl, err := shlog.NewFileLogger(cfg.Log.Protocol)
		if err != nil {
			fatal("Failed to create protocol logger", err)
		}
		defer func() {
			fl.Close()
			logger.Info("protocol log closed", "path", cfg.Log.Protocol, "events", fl.Written())
		}()
		// Only set logger when non-nil to avoid typed-nil interface issue.
		plog = fl
		logger.Info("protocol logging", "path", cfg.Log.Protocol)
	}

	svcConfig := companion.ServiceConfig{
		ListenAddr:     cfg.ListenAddr,
		ShutterSlack:   cfg.ShutterSlack,
		InstanceName:   cfg.InstanceName,
		Logger:         logger,
		ProtocolLogger: plog,
	}
	if cfg.Advertise {
		svcConfig.Advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	}
	svc := companion.NewService(svcConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		fatal("Failed to start companion", err)
	}

	var httpServer *api.Server
	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		httpServer = api.NewServer(api.Config{
			Address:    cfg.HTTPAddr,
			Controller: svc.Simulator(),
			Logger:     logger,
		})
		go func() {
			if err := httpServer.ListenAndServe(); err != nil {
				logger.Error("control API stopped", "error", err)
				cancel()
			}
		}()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	if httpServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("control API shutdown", "error", err)
		}
		stop()
	}
	if err := svc.Stop(); err != nil && !errors.Is(err, companion.ErrNotStarted) {
		logger.Warn("stopping companion", "error", err)
	}
}

// setFlags returns the names of the flags given on the command line.
func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func applyFlags(cfg *config.CompanionConfig, set map[string]bool) {
	if set["listen"] {
		cfg.ListenAddr = flags.Listen
	}
	if set["http"] {
		cfg.HTTPAddr = flags.HTTP
	}
	if set["slack"] {
		cfg.ShutterSlack = flags.Slack
	}
	if set["name"] {
		cfg.InstanceName = flags.Name
	}
	if set["advertise"] {
		cfg.Advertise = flags.Advertise
	}
	if set["log-level"] {
		cfg.Log.Level = flags.LogLevel
	}
	if set["protocol-log"] {
		cfg.Log.Protocol = flags.ProtocolLog
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
