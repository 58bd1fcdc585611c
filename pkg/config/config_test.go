package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutter-remote/shutter-go/pkg/discovery"
	"github.com/shutter-remote/shutter-go/pkg/transport"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvCompanionAddr, EnvLogLevel, EnvLanguage} {
		t.Setenv(key, "")
	}
}

func TestDefaultsAreValid(t *testing.T) {
	dev := DefaultDevice()
	require.NoError(t, dev.Validate())
	assert.Equal(t, 5*time.Second, dev.AckTimeout)
	assert.Equal(t, "127.0.0.1:47800", dev.CompanionAddr)
	assert.False(t, dev.Discovery.Enabled)

	comp := DefaultCompanion()
	require.NoError(t, comp.Validate())
	assert.Equal(t, ":47800", comp.ListenAddr)
	assert.Equal(t, discovery.DefaultInstanceName, comp.InstanceName)
}

func TestLoadDeviceWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadDevice("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDevice(), cfg)
}

func TestLoadDeviceMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
companion_addr: 10.0.0.7:9000
ack_timeout: 2s
discovery:
  enabled: true
  timeout: 1500ms
log:
  level: debug
  protocol: /tmp/capture.shlog
language: de
backoff:
  max: 10s
`)

	cfg, err := LoadDevice(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "10.0.0.7:9000", cfg.CompanionAddr)
	assert.Equal(t, 2*time.Second, cfg.AckTimeout)
	assert.True(t, cfg.Discovery.Enabled)
	assert.Equal(t, 1500*time.Millisecond, cfg.Discovery.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/capture.shlog", cfg.Log.Protocol)
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, 10*time.Second, cfg.Backoff.Max)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultDevice().Backoff.Initial, cfg.Backoff.Initial)
	assert.Equal(t, transport.DefaultPingInterval, cfg.KeepAliveInterval)
}

func TestLoadDeviceEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "companion_addr: 10.0.0.7:9000\nlanguage: es\n")
	t.Setenv(EnvCompanionAddr, "192.168.1.2:47800")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLanguage, "pt")

	cfg, err := LoadDevice(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.2:47800", cfg.CompanionAddr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "pt", cfg.Language)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := LoadDevice(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadCompanion(writeFile(t, "listen_addr: [unterminated"))
	assert.Error(t, err)
}

func TestLoadCompanion(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
listen_addr: 127.0.0.1:0
http_addr: ""
shutter_slack: 0s
advertise: false
`)
	cfg, err := LoadCompanion(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:0", cfg.ListenAddr)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Zero(t, cfg.ShutterSlack)
	assert.False(t, cfg.Advertise)
}

func TestDeviceValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *DeviceConfig)
	}{
		{"no address without discovery", func(c *DeviceConfig) { c.CompanionAddr = "" }},
		{"zero browse timeout", func(c *DeviceConfig) { c.Discovery = DiscoveryConfig{Enabled: true} }},
		{"zero ack timeout", func(c *DeviceConfig) { c.AckTimeout = 0 }},
		{"zero keep-alive", func(c *DeviceConfig) { c.KeepAliveInterval = 0 }},
		{"inverted backoff", func(c *DeviceConfig) { c.Backoff.Max = c.Backoff.Initial / 2 }},
		{"bad level", func(c *DeviceConfig) { c.Log.Level = "chatty" }},
		{"bad language", func(c *DeviceConfig) { c.Language = "fr" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDevice()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("discovery without address", func(t *testing.T) {
		cfg := DefaultDevice()
		cfg.CompanionAddr = ""
		cfg.Discovery.Enabled = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestCompanionValidate(t *testing.T) {
	cfg := DefaultCompanion()
	cfg.InstanceName = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, cfg.Validate(), discovery.ErrInstanceNameInvalid)

	cfg.Advertise = false
	assert.NoError(t, cfg.Validate())

	cfg.ShutterSlack = -time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDerivedSettings(t *testing.T) {
	cfg := DefaultDevice()
	cfg.KeepAliveInterval = 2 * time.Second
	ka := cfg.KeepAlive()
	assert.Equal(t, 2*time.Second, ka.PingInterval)
	assert.Equal(t, transport.DefaultPongTimeout, ka.PongTimeout)

	b := cfg.LinkBackoff()
	assert.Equal(t, cfg.Backoff.Initial, b.Initial)
	assert.Equal(t, cfg.Backoff.Max, b.Max)
}

func TestSampleConfigs(t *testing.T) {
	t.Setenv(EnvCompanionAddr, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLanguage, "")

	device, err := LoadDevice(filepath.Join("..", "..", "configs", "device.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDevice(), device)
	assert.NoError(t, device.Validate())

	companion, err := LoadCompanion(filepath.Join("..", "..", "configs", "companion.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCompanion(), companion)
	assert.NoError(t, companion.Validate())
}
