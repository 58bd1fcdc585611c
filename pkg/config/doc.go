// Package config loads device and companion settings.
//
// Settings are resolved in order: built-in defaults, then a YAML file, then
// the SHUTTER_* environment variables. Command flags are applied by the
// binaries on top. The countdown tick and the fallback window are fixed and
// not configurable.
//
// Example device file:
//
//	companion_addr: 192.168.1.20:47800
//	ack_timeout: 5s
//	discovery:
//	  enabled: true
//	  timeout: 5s
//	log:
//	  level: info
//	  protocol: shutter.shlog
//	language: de
package config
