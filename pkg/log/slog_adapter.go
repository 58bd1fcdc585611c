package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Layer != LayerCore {
		attrs = append(attrs, slog.String("direction", event.Direction.String()))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		m := event.Message
		attrs = append(attrs,
			slog.String("msg_type", m.Type.String()),
			slog.Uint64("msg_id", uint64(m.MessageID)),
		)
		if m.Kind != nil {
			attrs = append(attrs, slog.String("kind", m.Kind.String()))
		}
		if m.TimerValue != nil {
			attrs = append(attrs, slog.Int("timer_value", *m.TimerValue))
		}
		if m.Status != nil {
			attrs = append(attrs, slog.String("status", m.Status.String()))
		}
		if m.Event != nil {
			attrs = append(attrs, slog.String("event", m.Event.String()))
		}
		if m.RoundTrip != nil {
			attrs = append(attrs, slog.Duration("round_trip", *m.RoundTrip))
		}
	case event.Transition != nil:
		attrs = append(attrs,
			slog.String("trigger", event.Transition.Trigger),
			slog.String("old_state", event.Transition.OldState),
			slog.String("new_state", event.Transition.NewState),
			slog.Int("timer_value", event.Transition.TimerValue),
		)
		if event.Transition.Outcome != "" {
			attrs = append(attrs, slog.String("outcome", event.Transition.Outcome))
		}
	case event.Timer != nil:
		attrs = append(attrs,
			slog.String("timer", event.Timer.Name),
			slog.String("action", event.Timer.Action),
			slog.String("handle", event.Timer.Handle),
		)
		if event.Timer.Delay > 0 {
			attrs = append(attrs, slog.Duration("delay", event.Timer.Delay))
		}
	case event.ControlMsg != nil:
		attrs = append(attrs,
			slog.String("ctrl_type", event.ControlMsg.Type.String()),
			slog.Uint64("seq", uint64(event.ControlMsg.Sequence)),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
