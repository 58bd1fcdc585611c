package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/countdown"
	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

// Fixed windows.
const (
	// FallbackWindow is how long the machine waits for PictureTaken after the
	// countdown reaches zero.
	FallbackWindow = 5 * time.Second

	// SettleWindow is how long "cancelled" or "Picture Taken" stays on screen.
	SettleWindow = 2 * time.Second
)

// Timer names used for the machine's handles.
const (
	TimerFallback = "fallback"
	TimerSettle   = "settle"
)

// Configuration errors.
var (
	ErrNoPresenter = errors.New("capture: presenter is required")
	ErrNoGateway   = errors.New("capture: gateway is required")
	ErrNoTimers    = errors.New("capture: timers are required")
)

// Config holds the machine's collaborators.
type Config struct {
	Presenter Presenter
	Alerter   Alerter
	Gateway   Gateway

	// Timers must fire on the loop the machine is driven from.
	Timers *sched.Timers

	// InitialTimerValue is clamped into range. Defaults to DefaultTimerValue.
	InitialTimerValue int

	// Logger is the operational logger. Nil discards.
	Logger *slog.Logger

	// ProtocolLogger receives transition events. Nil disables capture.
	ProtocolLogger log.Logger

	// SessionID tags protocol events.
	SessionID string
}

// Machine is the capture state machine.
type Machine struct {
	presenter Presenter
	alerter   Alerter
	haptics   Haptics
	gateway   Gateway
	timers    *sched.Timers
	countdown *countdown.Scheduler

	logger    *slog.Logger
	plog      log.Logger
	sessionID string

	state      State
	timerValue int
	remaining  int
	showRemain bool
	banner     Banner

	fallback sched.Handle
	settle   sched.Handle
}

// NewMachine creates a machine in StateIdle and registers it as the gateway's
// PictureTaken handler.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Presenter == nil {
		return nil, ErrNoPresenter
	}
	if cfg.Gateway == nil {
		return nil, ErrNoGateway
	}
	if cfg.Timers == nil {
		return nil, ErrNoTimers
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tv, _ := clampTimerValue(cfg.InitialTimerValue)

	m := &Machine{
		presenter:  cfg.Presenter,
		alerter:    cfg.Alerter,
		gateway:    cfg.Gateway,
		timers:     cfg.Timers,
		countdown:  countdown.New(cfg.Timers),
		logger:     logger,
		plog:       log.OrNoop(cfg.ProtocolLogger),
		sessionID:  cfg.SessionID,
		state:      StateIdle,
		timerValue: tv,
		banner:     BannerStart,
	}
	if h, ok := cfg.Presenter.(Haptics); ok {
		m.haptics = h
	}

	if err := cfg.Gateway.SetPictureTakenHandler(func() { m.PictureTaken() }); err != nil {
		return nil, fmt.Errorf("register picture taken handler: %w", err)
	}
	return m, nil
}

// Start draws the initial view.
func (m *Machine) Start() {
	m.render()
}

// State returns the current capture state.
func (m *Machine) State() State {
	return m.state
}

// TimerValue returns the configured countdown length in seconds.
func (m *Machine) TimerValue() int {
	return m.timerValue
}

// View returns the current view.
func (m *Machine) View() View {
	return View{
		State:        m.state,
		TimerValue:   m.timerValue,
		Remaining:    m.remaining,
		HasRemaining: m.showRemain,
		Banner:       m.banner,
	}
}

// Settling reports whether a settle window is running.
func (m *Machine) Settling() bool {
	return m.timers.Live(m.settle)
}

// Waiting reports whether the countdown reached zero and the fallback window
// is running.
func (m *Machine) Waiting() bool {
	return m.timers.Live(m.fallback)
}

// PressUp handles the up button.
func (m *Machine) PressUp() Outcome {
	return m.adjust("up", 1)
}

// PressDown handles the down button.
func (m *Machine) PressDown() Outcome {
	return m.adjust("down", -1)
}

// PressSelect handles the select button.
func (m *Machine) PressSelect() Outcome {
	const trigger = "select"

	if m.state == StateIdle {
		return m.confirmStart(trigger)
	}
	if m.Settling() {
		return m.ignored(trigger)
	}

	switch m.state {
	case StateReady:
		m.startCountdown()
		return m.transitioned(trigger, StateReady, OutcomeApplied)

	case StateCountingDown:
		m.state = StateCancelling
		m.sendToggle()
		if m.countdown.Active() {
			// The banner follows at the next tick boundary.
			m.render()
			return m.transitioned(trigger, StateCountingDown, OutcomeApplied)
		}
		// Waiting phase: no tick will come, show the cancellation now.
		m.timers.Cancel(m.fallback)
		m.fallback = sched.Handle{}
		m.showCancelled()
		return m.transitioned(trigger, StateCountingDown, OutcomeApplied)

	case StateCancelling:
		return m.ignored(trigger)
	}
	return m.ignored(trigger)
}

// PictureTaken handles the companion's completion notification.
func (m *Machine) PictureTaken() Outcome {
	const trigger = "picture-taken"

	if m.Settling() {
		m.logger.Debug("duplicate PictureTaken dropped", "state", m.state)
		return m.transitioned(trigger, m.state, OutcomeDropped)
	}

	switch m.state {
	case StateCountingDown:
		m.countdown.Cancel()
		m.timers.Cancel(m.fallback)
		m.fallback = sched.Handle{}

		m.banner = BannerPictureTaken
		// An early PictureTaken still ends on 0.
		m.remaining = 0
		m.showRemain = true
		if m.haptics != nil {
			m.haptics.DoublePulse()
		}
		m.render()
		m.armSettle()
		return m.transitioned(trigger, StateCountingDown, OutcomeApplied)

	case StateIdle, StateReady, StateCancelling:
		m.logger.Warn("PictureTaken received while not counting down", "state", m.state)
		return m.transitioned(trigger, m.state, OutcomeDropped)
	}
	return OutcomeDropped
}

func (m *Machine) adjust(trigger string, delta int) Outcome {
	if m.state == StateIdle {
		return m.confirmStart(trigger)
	}
	if m.state != StateReady || m.Settling() {
		return m.ignored(trigger)
	}

	tv, clamped := clampTimerValue(m.timerValue + delta)
	if clamped {
		m.logger.Debug("timer value at bound", "value", m.timerValue)
		return m.transitioned(trigger, StateReady, OutcomeClamped)
	}
	m.timerValue = tv
	m.render()
	return m.transitioned(trigger, StateReady, OutcomeApplied)
}

func (m *Machine) confirmStart(trigger string) Outcome {
	m.state = StateReady
	m.banner = BannerNone
	m.render()
	m.gateway.SendIntent(wire.IntentStatusCheck, m.timerValue, m.onMessageTimeout)
	return m.transitioned(trigger, StateIdle, OutcomeApplied)
}

func (m *Machine) startCountdown() {
	m.state = StateCountingDown
	m.banner = BannerCountdown
	m.countdown.Start(m.timerValue+1, countdown.Hooks{
		Continue: m.onTickContinue,
		Tick:     m.onTick,
		Zero:     m.onZero,
	})
	m.sendToggle()
}

func (m *Machine) sendToggle() {
	m.gateway.SendIntent(wire.IntentCaptureToggle, m.timerValue, m.onMessageTimeout)
}

func (m *Machine) onTickContinue(int) bool {
	if m.state != StateCancelling {
		return true
	}
	m.showCancelled()
	m.transitioned("tick", StateCancelling, OutcomeApplied)
	return false
}

func (m *Machine) onTick(remaining int) {
	m.remaining = remaining
	m.showRemain = true
	m.render()
	m.logger.Debug("countdown tick", "remaining", remaining)
}

func (m *Machine) onZero() {
	m.fallback = m.timers.Arm(TimerFallback, FallbackWindow, m.onFallback)
	m.logger.Debug("countdown reached zero, waiting for PictureTaken")
}

func (m *Machine) onFallback() {
	m.fallback = sched.Handle{}
	m.logger.Info("no PictureTaken within fallback window")
	m.toReady("fallback")
}

func (m *Machine) showCancelled() {
	m.banner = BannerCancelled
	m.render()
	m.armSettle()
}

func (m *Machine) armSettle() {
	m.settle = m.timers.Arm(TimerSettle, SettleWindow, m.onSettle)
}

func (m *Machine) onSettle() {
	m.settle = sched.Handle{}
	m.toReady("settle")
}

func (m *Machine) toReady(trigger string) {
	old := m.state
	m.state = StateReady
	m.banner = BannerNone
	m.showRemain = false
	m.remaining = 0
	m.render()
	m.transitioned(trigger, old, OutcomeApplied)
}

func (m *Machine) onMessageTimeout() {
	m.logger.Warn("message to companion timed out", "state", m.state)
	if m.alerter != nil {
		m.alerter.ShowAlert()
	}
}

func (m *Machine) render() {
	m.presenter.Render(m.View())
}

func (m *Machine) ignored(trigger string) Outcome {
	m.logger.Debug("event ignored", "trigger", trigger, "state", m.state)
	return OutcomeIgnored
}

func (m *Machine) transitioned(trigger string, old State, outcome Outcome) Outcome {
	if outcome == OutcomeApplied && old != m.state {
		m.logger.Info("capture state changed", "trigger", trigger, "from", old, "to", m.state)
	}
	m.plog.Log(log.Event{
		Timestamp: m.timers.Clock().Now(),
		SessionID: m.sessionID,
		Layer:     log.LayerCore,
		Category:  log.CategoryState,
		Transition: &log.TransitionEvent{
			Trigger:    trigger,
			OldState:   old.String(),
			NewState:   m.state.String(),
			TimerValue: m.timerValue,
			Outcome:    outcome.String(),
		},
	})
	return outcome
}
