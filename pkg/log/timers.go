package log

import (
	"time"

	"github.com/shutter-remote/shutter-go/pkg/sched"
)

// TimerObserver returns a sched.Observer that records timer activity as core
// events. now supplies timestamps; nil uses time.Now.
func TimerObserver(l Logger, sessionID string, now func() time.Time) sched.Observer {
	if now == nil {
		now = time.Now
	}
	return func(n sched.Note) {
		l.Log(Event{
			Timestamp: now(),
			SessionID: sessionID,
			Layer:     LayerCore,
			Category:  CategoryTimer,
			Timer: &TimerEvent{
				Name:   n.Name,
				Action: n.Action.String(),
				Handle: n.Handle.String(),
				Delay:  n.Delay,
			},
		})
	}
}
