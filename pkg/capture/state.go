package capture

import "github.com/shutter-remote/shutter-go/pkg/wire"

// Timer value bounds.
const (
	MinTimerValue = wire.MinTimerValue
	MaxTimerValue = wire.MaxTimerValue
)

// DefaultTimerValue is the timer value at start-up.
const DefaultTimerValue = 0

// State is the capture state.
type State uint8

const (
	// StateIdle shows the start screen.
	StateIdle State = iota

	// StateReady accepts timer adjustments and capture requests.
	StateReady

	// StateCountingDown has an armed capture.
	StateCountingDown

	// StateCancelling waits for the next tick to show the cancellation.
	StateCancelling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StateCountingDown:
		return "COUNTING_DOWN"
	case StateCancelling:
		return "CANCELLING"
	default:
		return "UNKNOWN"
	}
}

// Outcome reports how the machine handled an event.
type Outcome uint8

const (
	// OutcomeApplied means the event changed the machine.
	OutcomeApplied Outcome = iota

	// OutcomeClamped means an adjustment hit a bound and was absorbed.
	OutcomeClamped

	// OutcomeIgnored means the event has no meaning in the current state.
	OutcomeIgnored

	// OutcomeDropped means an inbound notification was spurious or a duplicate.
	OutcomeDropped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "APPLIED"
	case OutcomeClamped:
		return "CLAMPED"
	case OutcomeIgnored:
		return "IGNORED"
	case OutcomeDropped:
		return "DROPPED"
	default:
		return "UNKNOWN"
	}
}

// Banner selects the text shown next to the number.
type Banner uint8

const (
	// BannerStart is the start screen instruction text.
	BannerStart Banner = iota

	// BannerNone shows only the timer value.
	BannerNone

	// BannerCountdown is "Taking picture in...".
	BannerCountdown

	// BannerCancelled is "Timer cancelled.".
	BannerCancelled

	// BannerPictureTaken is "Picture Taken".
	BannerPictureTaken
)

// String returns the banner name.
func (b Banner) String() string {
	switch b {
	case BannerStart:
		return "START"
	case BannerNone:
		return "NONE"
	case BannerCountdown:
		return "COUNTDOWN"
	case BannerCancelled:
		return "CANCELLED"
	case BannerPictureTaken:
		return "PICTURE_TAKEN"
	default:
		return "UNKNOWN"
	}
}

// View is what the presenter draws after every transition.
type View struct {
	State      State
	TimerValue int

	// Remaining is the countdown value on display; valid when HasRemaining.
	Remaining    int
	HasRemaining bool

	Banner Banner
}

// Display returns the number shown on screen.
func (v View) Display() int {
	if v.HasRemaining {
		return v.Remaining
	}
	return v.TimerValue
}

func clampTimerValue(v int) (int, bool) {
	switch {
	case v < MinTimerValue:
		return MinTimerValue, true
	case v > MaxTimerValue:
		return MaxTimerValue, true
	default:
		return v, false
	}
}
