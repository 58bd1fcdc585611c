package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/gateway"
	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	Role      log.Role
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int

	Intents       int
	Acks          map[wire.AckStatus]int
	AckTimeouts   int // includes send failures
	PicturesTaken int
	RoundTrips    []time.Duration
}

// AvgRoundTrip returns the mean intent round trip, or zero without acks.
func (s *SessionStats) AvgRoundTrip() time.Duration {
	if len(s.RoundTrips) == 0 {
		return 0
	}
	var total time.Duration
	for _, rt := range s.RoundTrips {
		total += rt
	}
	return total / time.Duration(len(s.RoundTrips))
}

// RunStats analyzes the events matching opts and prints statistics.
func RunStats(path string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	if event.Layer != log.LayerCore {
		s.EventsByDirection[event.Direction]++
	}

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	sess, ok := s.Sessions[event.SessionID]
	if !ok {
		sess = &SessionStats{
			Role:      event.LocalRole,
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
			Acks:      make(map[wire.AckStatus]int),
		}
		s.Sessions[event.SessionID] = sess
	}
	sess.Events++
	if event.Timestamp.After(sess.LastSeen) {
		sess.LastSeen = event.Timestamp
	}

	// Transport frames repeat wire messages; count the decoded ones only.
	if msg := event.Message; msg != nil && event.Layer == log.LayerWire {
		switch msg.Type {
		case wire.MessageTypeIntent:
			sess.Intents++
		case wire.MessageTypeAck:
			if msg.Status != nil {
				sess.Acks[*msg.Status]++
			}
			if msg.RoundTrip != nil {
				sess.RoundTrips = append(sess.RoundTrips, *msg.RoundTrip)
			}
		case wire.MessageTypeNotification:
			if msg.Event != nil && *msg.Event == wire.EventPictureTaken {
				sess.PicturesTaken++
			}
		}
	}
	if t := event.Timer; t != nil && t.Name == gateway.TimerAckTimeout && t.Action == sched.ActionFired.String() {
		sess.AckTimeouts++
	}

	if event.Error != nil {
		s.Errors++
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Shutter Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerCore} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryTimer, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessionInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessionInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessionInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s, %d events, duration %s\n",
				shortenSessionID(s.id), s.stats.Role, s.stats.Events, duration)
			if s.stats.Intents > 0 {
				fmt.Fprintf(w, "           Intents: %d\n", s.stats.Intents)
			}
			for _, status := range []wire.AckStatus{wire.AckOK, wire.AckRejected, wire.AckBusy} {
				if n := s.stats.Acks[status]; n > 0 {
					fmt.Fprintf(w, "           Acks %s: %d\n", status, n)
				}
			}
			if s.stats.AckTimeouts > 0 {
				fmt.Fprintf(w, "           Ack timeouts: %d\n", s.stats.AckTimeouts)
			}
			if n := len(s.stats.RoundTrips); n > 0 {
				fmt.Fprintf(w, "           Round trip: avg %s over %d\n", formatDuration(s.stats.AvgRoundTrip()), n)
			}
			if s.stats.PicturesTaken > 0 {
				fmt.Fprintf(w, "           Pictures taken: %d\n", s.stats.PicturesTaken)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
