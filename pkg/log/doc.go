// Package log provides structured protocol capture for the shutter remote.
//
// This package defines the Logger interface and Event types for recording
// what happened at each layer of the device: raw frames on the link, decoded
// wire messages, capture state transitions and timer activity. It is separate
// from operational logging (slog). Protocol capture is a machine-readable
// trace used to reconstruct a session after the fact.
//
// # Basic Usage
//
//	// Development: print events via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Field capture: append to a CBOR file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/tmp/shutter.shlog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(adapter, fileLogger)
//
// # Event Types
//
//   - Transport: raw frame bytes (FrameEvent)
//   - Wire: decoded intents, acks, notifications (MessageEvent)
//   - Core: state machine transitions (TransitionEvent) and timer
//     activity (TimerEvent)
//
// Control messages (ping/pong/close) and errors have dedicated payloads.
//
// # File Format
//
// Capture files are a concatenated stream of CBOR-encoded events with the
// .shlog extension. The shutter-log tool views and summarizes them.
package log
