package main

import (
	"errors"
	"log/slog"

	"github.com/shutter-remote/shutter-go/cmd/shutter-device/interactive"
	"github.com/shutter-remote/shutter-go/pkg/capture"
	"github.com/shutter-remote/shutter-go/pkg/gateway"
	"github.com/shutter-remote/shutter-go/pkg/link"
	"github.com/shutter-remote/shutter-go/pkg/sched"
)

var errLoopStopped = errors.New("device loop stopped")

// device routes console input onto the loop that owns the capture machine.
// It implements interactive.Controls.
type device struct {
	loop      *sched.Loop
	machine   *capture.Machine
	gateway   *gateway.Gateway
	link      *link.Manager
	companion string
	logger    *slog.Logger
}

func (d *device) Press(b interactive.Button) error {
	ok := d.loop.Post(func() {
		var outcome capture.Outcome
		switch b {
		case interactive.ButtonUp:
			outcome = d.machine.PressUp()
		case interactive.ButtonDown:
			outcome = d.machine.PressDown()
		case interactive.ButtonSelect:
			outcome = d.machine.PressSelect()
		}
		d.logger.Debug("button", "button", b, "outcome", outcome, "state", d.machine.State())
	})
	if !ok {
		return errLoopStopped
	}
	return nil
}

func (d *device) Status() (interactive.Status, error) {
	st := interactive.Status{
		Link:      d.link.State().String(),
		Linked:    d.link.IsConnected() && d.gateway.Connected(),
		Companion: d.companion,
	}
	err := d.loop.Do(func() {
		st.View = d.machine.View()
		st.Settling = d.machine.Settling()
		st.Waiting = d.machine.Waiting()
		st.PendingIntents = d.gateway.Pending()
	})
	return st, err
}
