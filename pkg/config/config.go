package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shutter-remote/shutter-go/pkg/discovery"
	"github.com/shutter-remote/shutter-go/pkg/gateway"
	"github.com/shutter-remote/shutter-go/pkg/i18n"
	"github.com/shutter-remote/shutter-go/pkg/link"
	"github.com/shutter-remote/shutter-go/pkg/transport"
)

// Environment overrides.
const (
	EnvCompanionAddr = "SHUTTER_COMPANION_ADDR"
	EnvLogLevel      = "SHUTTER_LOG_LEVEL"
	EnvLanguage      = "SHUTTER_LANG"
)

// DefaultShutterSlack is added by the companion to the requested timer value
// before it reports PictureTaken.
const DefaultShutterSlack = 300 * time.Millisecond

// DefaultHTTPAddr is the companion's control API address.
const DefaultHTTPAddr = "127.0.0.1:8080"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DiscoveryConfig controls mDNS lookup of the companion.
type DiscoveryConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Timeout   time.Duration `yaml:"timeout"`
	Interface string        `yaml:"interface"`
}

// BackoffConfig bounds the reconnect delay.
type BackoffConfig struct {
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
}

// LogConfig selects the operational log level and the protocol capture file.
type LogConfig struct {
	Level    string `yaml:"level"`
	Protocol string `yaml:"protocol"`
}

// DeviceConfig configures the shutter device.
type DeviceConfig struct {
	// CompanionAddr is host:port of the companion. Ignored when discovery is
	// enabled.
	CompanionAddr string `yaml:"companion_addr"`

	Discovery DiscoveryConfig `yaml:"discovery"`

	// AckTimeout is how long an intent may stay unacknowledged.
	AckTimeout time.Duration `yaml:"ack_timeout"`

	Log LogConfig `yaml:"log"`

	// Language for banners (en, de, es, pt). Empty detects from the system
	// locale.
	Language string `yaml:"language"`

	// KeepAliveInterval is the ping interval on the companion link.
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`

	Backoff BackoffConfig `yaml:"backoff"`
}

// CompanionConfig configures the companion simulator.
type CompanionConfig struct {
	// ListenAddr accepts device links.
	ListenAddr string `yaml:"listen_addr"`

	// HTTPAddr serves the control API. Empty disables it.
	HTTPAddr string `yaml:"http_addr"`

	// ShutterSlack is added to the timer value before PictureTaken is sent.
	ShutterSlack time.Duration `yaml:"shutter_slack"`

	// Advertise enables the mDNS advertisement.
	Advertise bool `yaml:"advertise"`

	// InstanceName is the mDNS instance name.
	InstanceName string `yaml:"instance_name"`

	Log LogConfig `yaml:"log"`
}

// DefaultDevice returns the device defaults.
func DefaultDevice() DeviceConfig {
	return DeviceConfig{
		CompanionAddr: fmt.Sprintf("127.0.0.1:%d", transport.DefaultPort),
		Discovery: DiscoveryConfig{
			Enabled: false,
			Timeout: discovery.DefaultBrowseTimeout,
		},
		AckTimeout:        gateway.DefaultAckTimeout,
		Log:               LogConfig{Level: "info"},
		KeepAliveInterval: transport.DefaultPingInterval,
		Backoff: BackoffConfig{
			Initial: link.DefaultInitialBackoff,
			Max:     link.DefaultMaxBackoff,
		},
	}
}

// DefaultCompanion returns the companion defaults.
func DefaultCompanion() CompanionConfig {
	return CompanionConfig{
		ListenAddr:   fmt.Sprintf(":%d", transport.DefaultPort),
		HTTPAddr:     DefaultHTTPAddr,
		ShutterSlack: DefaultShutterSlack,
		Advertise:    true,
		InstanceName: discovery.DefaultInstanceName,
		Log:          LogConfig{Level: "info"},
	}
}

// LoadDevice reads path (if not empty) over the defaults and applies the
// environment overrides. The result is not validated.
func LoadDevice(path string) (DeviceConfig, error) {
	cfg := DefaultDevice()
	if err := loadFile(path, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadCompanion reads path (if not empty) over the defaults and applies the
// environment overrides. The result is not validated.
func LoadCompanion(path string) (CompanionConfig, error) {
	cfg := DefaultCompanion()
	if err := loadFile(path, &cfg); err != nil {
		return cfg, err
	}
	cfg.Log.Level = getEnvOrDefault(EnvLogLevel, cfg.Log.Level)
	return cfg, nil
}

func loadFile(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *DeviceConfig) applyEnv() {
	c.CompanionAddr = getEnvOrDefault(EnvCompanionAddr, c.CompanionAddr)
	c.Log.Level = getEnvOrDefault(EnvLogLevel, c.Log.Level)
	c.Language = getEnvOrDefault(EnvLanguage, c.Language)
}

// Validate checks the device configuration.
func (c *DeviceConfig) Validate() error {
	if !c.Discovery.Enabled && c.CompanionAddr == "" {
		return fmt.Errorf("%w: companion address required when discovery is off", ErrInvalidConfig)
	}
	if c.Discovery.Enabled && c.Discovery.Timeout <= 0 {
		return fmt.Errorf("%w: discovery timeout must be positive", ErrInvalidConfig)
	}
	if c.AckTimeout <= 0 {
		return fmt.Errorf("%w: ack timeout must be positive", ErrInvalidConfig)
	}
	if c.KeepAliveInterval <= 0 {
		return fmt.Errorf("%w: keep-alive interval must be positive", ErrInvalidConfig)
	}
	if c.Backoff.Initial <= 0 || c.Backoff.Max < c.Backoff.Initial {
		return fmt.Errorf("%w: backoff bounds %v..%v", ErrInvalidConfig, c.Backoff.Initial, c.Backoff.Max)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Language != "" && i18n.Normalize(c.Language) == "" {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidConfig, c.Language)
	}
	return nil
}

// Validate checks the companion configuration.
func (c *CompanionConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen address required", ErrInvalidConfig)
	}
	if c.ShutterSlack < 0 {
		return fmt.Errorf("%w: shutter slack must not be negative", ErrInvalidConfig)
	}
	if c.Advertise {
		if err := discovery.ValidateInstanceName(c.InstanceName); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// KeepAlive returns the link keep-alive settings.
func (c *DeviceConfig) KeepAlive() transport.KeepAliveConfig {
	ka := transport.DefaultKeepAliveConfig()
	ka.PingInterval = c.KeepAliveInterval
	return ka
}

// LinkBackoff returns the reconnect backoff settings.
func (c *DeviceConfig) LinkBackoff() link.BackoffConfig {
	return link.BackoffConfig{
		Initial: c.Backoff.Initial,
		Max:     c.Backoff.Max,
	}
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, s)
	}
	return level, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
