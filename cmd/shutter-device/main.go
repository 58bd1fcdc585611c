// Command shutter-device runs the wrist-side camera remote against a
// companion.
//
// The device draws its screen as text lines and reads button presses from an
// interactive console (up, down, select). It links to the companion over TCP,
// either at a fixed address or found via mDNS.
//
// Usage:
//
//	shutter-device [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-companion string     Companion address host:port
//	-discover             Find the companion via mDNS
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol events to this .shlog file
//	-lang string          Banner language: en, de, es, pt (default: system locale)
//	-interactive          Read button presses from the terminal (default true)
//	-version              Print the version and exit
//
// Examples:
//
//	# Link to a companion on this machine
//	shutter-device -companion 127.0.0.1:47800
//
//	# Find the companion on the local network and capture a protocol log
//	shutter-device -discover -protocol-log session.shlog -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/shutter-remote/shutter-go/cmd/shutter-device/interactive"
	"github.com/shutter-remote/shutter-go/pkg/capture"
	"github.com/shutter-remote/shutter-go/pkg/config"
	"github.com/shutter-remote/shutter-go/pkg/discovery"
	"github.com/shutter-remote/shutter-go/pkg/gateway"
	"github.com/shutter-remote/shutter-go/pkg/i18n"
	"github.com/shutter-remote/shutter-go/pkg/link"
	shlog "github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/version"
)

// Flags holds the command line. Flags that were set override the
// configuration file.
type Flags struct {
	ConfigFile  string
	Companion   string
	Discover    bool
	LogLevel    string
	ProtocolLog string
	Lang        string
	Interactive bool
	Version     bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.Companion, "companion", "", "Companion address host:port")
	flag.BoolVar(&flags.Discover, "discover", false, "Find the companion via mDNS")
	flag.StringVar(&flags.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Write protocol events to this .shlog file")
	flag.StringVar(&flags.Lang, "lang", "", "Banner language: en, de, es, pt (default: system locale)")
	flag.BoolVar(&flags.Interactive, "interactive", true, "Read button presses from the terminal")
	flag.BoolVar(&flags.Version, "version", false, "Print the version and exit")
}

func main() {
	flag.Parse()
	if flags.Version {
		fmt.Printf("shutter-device %s (protocol %s)\n", version.Build, version.Current)
		return
	}

	cfg, err := config.LoadDevice(flags.ConfigFile)
	if err != nil {
		fatal("Failed to load configuration", err)
	}
	applyFlags(&cfg, setFlags())
	if err := cfg.Validate(); err != nil {
		fatal("Invalid configuration", err)
	}
	level, _ := config.ParseLevel(cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := &device{companion: cfg.CompanionAddr}
	if cfg.Discovery.Enabled {
		dev.companion = "mDNS " + discovery.ServiceType
	}

	catalog := i18n.New(i18n.Detect(cfg.Language))
	var out io.Writer = os.Stdout
	var console *interactive.Console
	if flags.Interactive {
		console, err = interactive.New(dev)
		if err != nil {
			fatal("Failed to create console", err)
		}
		// Route logs and the screen through readline so they do not
		// interfere with input.
		out = console.Stdout()
	}
	renderer := interactive.NewRenderer(out, catalog)

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	logger.Info("shutter device starting",
		"version", version.Build,
		"protocol", version.Current,
		"language", catalog.Lang(),
		"companion", dev.companion,
	)

	plog, closeLog, err := protocolLogger(cfg.Log.Protocol, logger, level)
	if err != nil {
		fatal("Failed to create protocol logger", err)
	}
	defer closeLog()

	sessionID := uuid.New().String()
	loop := sched.NewLoop(sched.DefaultQueueSize, logger)
	timers := sched.NewTimers(sched.SystemClock, loop)
	if plog != nil {
		timers.SetObserver(shlog.TimerObserver(plog, sessionID, nil))
	}

	gw, err := gateway.New(gateway.Config{
		Timers:         timers,
		Executor:       loop,
		AckTimeout:     cfg.AckTimeout,
		Logger:         logger,
		ProtocolLogger: plog,
		SessionID:      sessionID,
	})
	if err != nil {
		fatal("Failed to create gateway", err)
	}

	machine, err := capture.NewMachine(capture.Config{
		Presenter:      renderer,
		Alerter:        renderer,
		Gateway:        gw,
		Timers:         timers,
		Logger:         logger,
		ProtocolLogger: plog,
		SessionID:      sessionID,
	})
	if err != nil {
		fatal("Failed to create capture machine", err)
	}

	keepAlive := cfg.KeepAlive()
	mgr, err := link.New(link.Config{
		Resolver:       newResolver(cfg, logger),
		Gateway:        gw,
		KeepAlive:      &keepAlive,
		Backoff:        cfg.LinkBackoff(),
		Logger:         logger,
		ProtocolLogger: plog,
		SessionID:      sessionID,
	})
	if err != nil {
		fatal("Failed to create link manager", err)
	}
	mgr.OnStateChange(func(oldState, newState link.State) {
		logger.Info("companion link", "from", oldState, "to", newState)
	})

	dev.loop = loop
	dev.machine = machine
	dev.gateway = gw
	dev.link = mgr
	dev.logger = logger

	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("device loop stopped", "error", err)
		}
	}()
	loop.Post(machine.Start)
	go mgr.Run(ctx)

	if console != nil {
		go console.Run(ctx, cancel)
	}

	// Wait for shutdown signal or context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig)
	case <-ctx.Done():
		// Cancelled by the console's quit command.
	}

	logger.Info("shutting down")
	cancel()
	<-loop.Done()
}

// setFlags returns the names of the flags given on the command line.
func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func applyFlags(cfg *config.DeviceConfig, set map[string]bool) {
	if set["companion"] {
		cfg.CompanionAddr = flags.Companion
	}
	if set["discover"] {
		cfg.Discovery.Enabled = flags.Discover
	}
	if set["log-level"] {
		cfg.Log.Level = flags.LogLevel
	}
	if set["protocol-log"] {
		cfg.Log.Protocol = flags.ProtocolLog
	}
	if set["lang"] {
		cfg.Language = flags.Lang
	}
}

func newResolver(cfg config.DeviceConfig, logger *slog.Logger) link.Resolver {
	if !cfg.Discovery.Enabled {
		return link.StaticAddr(cfg.CompanionAddr)
	}
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{
		Timeout:   cfg.Discovery.Timeout,
		Interface: cfg.Discovery.Interface,
		Logger:    logger,
	})
	return discovery.NewResolver(browser, logger)
}

// protocolLogger builds the protocol event sink: the capture file if one is
// configured, plus the operational log at debug level. It returns nil when
// neither applies.
func protocolLogger(path string, logger *slog.Logger, level slog.Level) (shlog.Logger, func(), error) {
	var sinks []shlog.Logger
	closeFn := func() {}

	if path != "" {
		fl, err := shlog.NewFileLogger(path)
		if err != nil {
			return nil, closeFn, err
		}
		logger.Info("protocol logging", "path", path)
		sinks = append(sinks, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				logger.Warn("closing protocol log", "error", err)
			}
			logger.Info("protocol log closed", "path", path, "events", fl.Written())
		}
	}
	if level <= slog.LevelDebug {
		sinks = append(sinks, shlog.NewSlogAdapter(logger))
	}

	switch len(sinks) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return sinks[0], closeFn, nil
	default:
		return shlog.NewMultiLogger(sinks...), closeFn, nil
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
