// Package commands implements the shutter-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

// RunView writes every event matching opts in human-readable form.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

// formatEvent writes a header line followed by type-specific details.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session] ROLE DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)

	dir := event.Direction.String()
	if event.Layer == log.LayerCore {
		dir = "-"
	}
	layerStr := event.Layer.String()
	if event.Category == log.CategoryControl {
		layerStr = "CTRL"
	}

	fmt.Fprintf(w, "%s [%s] %-9s %-3s %s %s\n",
		ts, session, event.LocalRole.String(), dir, layerStr, typeLabel(event))

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.Transition != nil:
		formatTransitionDetails(w, event.Transition)
	case event.ControlMsg != nil:
		if event.ControlMsg.Sequence != 0 {
			fmt.Fprintf(w, "  Sequence: %d\n", event.ControlMsg.Sequence)
		}
	case event.Timer != nil:
		formatTimerDetails(w, event.Timer)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}
	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", event.RemoteAddr)
	}

	fmt.Fprintln(w)
}

func typeLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Message != nil:
		return event.Message.Type.String()
	case event.Transition != nil:
		return "Transition"
	case event.ControlMsg != nil:
		return event.ControlMsg.Type.String()
	case event.Timer != nil:
		return "Timer"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	if msg.Type != wire.MessageTypeNotification {
		fmt.Fprintf(w, "  MessageID: %d\n", msg.MessageID)
	}
	if msg.Kind != nil {
		fmt.Fprintf(w, "  Intent: %s\n", msg.Kind.String())
	}
	if msg.TimerValue != nil {
		fmt.Fprintf(w, "  TimerValue: %d\n", *msg.TimerValue)
	}
	if msg.Status != nil {
		fmt.Fprintf(w, "  Status: %s (%d)\n", msg.Status.String(), *msg.Status)
	}
	if msg.RoundTrip != nil {
		fmt.Fprintf(w, "  RoundTrip: %s\n", formatDuration(*msg.RoundTrip))
	}
	if msg.Event != nil {
		fmt.Fprintf(w, "  Event: %s\n", msg.Event.String())
	}
}

func formatTransitionDetails(w io.Writer, tr *log.TransitionEvent) {
	if tr.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", tr.OldState, tr.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", tr.NewState)
	}
	if tr.Trigger != "" {
		fmt.Fprintf(w, "  Trigger: %s\n", tr.Trigger)
	}
	if tr.Outcome != "" {
		fmt.Fprintf(w, "  Outcome: %s\n", tr.Outcome)
	}
	fmt.Fprintf(w, "  TimerValue: %d\n", tr.TimerValue)
}

func formatTimerDetails(w io.Writer, te *log.TimerEvent) {
	fmt.Fprintf(w, "  %s %s", te.Name, te.Action)
	if te.Delay > 0 {
		fmt.Fprintf(w, " after %s", formatDuration(te.Delay))
	}
	fmt.Fprintln(w)
	if te.Handle != "" {
		fmt.Fprintf(w, "  Handle: %s\n", te.Handle)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
