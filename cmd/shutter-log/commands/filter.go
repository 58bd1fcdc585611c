package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/log"
)

// FilterOptions holds the filter flags shared by all commands. Empty fields
// match every event.
type FilterOptions struct {
	Session   string
	Layer     string
	Category  string
	Direction string
	Role      string
	TimeStart string
	TimeEnd   string
}

// Build converts the flag values into a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{SessionID: o.Session}

	if o.Layer != "" {
		l, ok := log.ParseLayer(strings.ToLower(o.Layer))
		if !ok {
			return log.Filter{}, fmt.Errorf("invalid layer: %s (must be transport, wire, or core)", o.Layer)
		}
		filter.Layer = &l
	}
	if o.Category != "" {
		c, ok := log.ParseCategory(strings.ToLower(o.Category))
		if !ok {
			return log.Filter{}, fmt.Errorf("invalid category: %s (must be message, control, state, error, or timer)", o.Category)
		}
		filter.Category = &c
	}
	if o.Direction != "" {
		d, err := parseDirection(o.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if o.Role != "" {
		r, err := parseRole(o.Role)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Role = &r
	}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	return filter, nil
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

func parseRole(s string) (log.Role, error) {
	switch strings.ToLower(s) {
	case "device":
		return log.RoleDevice, nil
	case "companion":
		return log.RoleCompanion, nil
	default:
		return 0, fmt.Errorf("invalid role: %s (must be device or companion)", s)
	}
}

// RunFilter copies the events matching opts from path into output.
func RunFilter(path, output string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Close()
			return fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}
	if err := logger.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}
