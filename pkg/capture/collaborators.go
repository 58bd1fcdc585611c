package capture

import "github.com/shutter-remote/shutter-go/pkg/wire"

// Presenter draws views. It is a pure sink and must not call back into the
// machine.
type Presenter interface {
	Render(view View)
}

// Alerter shows the non-fatal "could not reach companion" alert.
type Alerter interface {
	ShowAlert()
}

// Haptics is optionally implemented by a Presenter that can vibrate.
type Haptics interface {
	DoublePulse()
}

// Gateway sends intents to the companion and delivers PictureTaken.
type Gateway interface {
	// SendIntent dispatches one intent. onTimeout runs on the loop, at most
	// once, if no acknowledgment arrives within the gateway's window.
	SendIntent(kind wire.IntentKind, timerValue int, onTimeout func()) uint32

	// SetPictureTakenHandler registers the single inbound handler.
	SetPictureTakenHandler(fn func()) error
}
