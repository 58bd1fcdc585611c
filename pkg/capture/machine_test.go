package capture_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shutter-remote/shutter-go/pkg/capture"
	"github.com/shutter-remote/shutter-go/pkg/capture/mocks"
	"github.com/shutter-remote/shutter-go/pkg/countdown"
	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/sched/schedtest"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

type sentIntent struct {
	kind       wire.IntentKind
	timerValue int
	onTimeout  func()
}

type harness struct {
	t      *testing.T
	clock  *schedtest.FakeClock
	queue  *schedtest.Queue
	timers *sched.Timers
	m      *capture.Machine

	alerter *mocks.MockAlerter

	views        []capture.View
	sent         []sentIntent
	pictureTaken func()
	notes        []sched.Note
	pulses       int
}

type hapticPresenter struct {
	*mocks.MockPresenter
	h *harness
}

func (p hapticPresenter) DoublePulse() { p.h.pulses++ }

type options struct {
	queued     bool
	timerValue int
}

func newHarness(t *testing.T, opts options) *harness {
	t.Helper()
	h := &harness{t: t, clock: schedtest.NewFakeClock()}

	var exec sched.Executor = schedtest.Inline{}
	if opts.queued {
		h.queue = &schedtest.Queue{}
		exec = h.queue
	}
	h.timers = sched.NewTimers(h.clock, exec)
	h.timers.SetObserver(func(n sched.Note) { h.notes = append(h.notes, n) })

	presenter := mocks.NewMockPresenter(t)
	presenter.EXPECT().Render(mock.Anything).Run(func(v capture.View) {
		h.views = append(h.views, v)
	}).Maybe()

	gateway := mocks.NewMockGateway(t)
	gateway.EXPECT().SendIntent(mock.Anything, mock.Anything, mock.Anything).
		Run(func(kind wire.IntentKind, tv int, onTimeout func()) {
			h.sent = append(h.sent, sentIntent{kind, tv, onTimeout})
		}).Return(uint32(1)).Maybe()
	gateway.EXPECT().SetPictureTakenHandler(mock.Anything).Run(func(fn func()) {
		h.pictureTaken = fn
	}).Return(nil)

	h.alerter = mocks.NewMockAlerter(t)

	m, err := capture.NewMachine(capture.Config{
		Presenter:         hapticPresenter{MockPresenter: presenter, h: h},
		Alerter:           h.alerter,
		Gateway:           gateway,
		Timers:            h.timers,
		InitialTimerValue: opts.timerValue,
	})
	require.NoError(t, err)
	h.m = m
	return h
}

// advance moves time forward one tick interval at a time so queued
// callbacks can re-arm between steps.
func (h *harness) advance(d time.Duration) {
	for d > 0 {
		step := countdown.TickInterval
		if d < step {
			step = d
		}
		h.clock.Advance(step)
		if h.queue != nil {
			h.queue.Drain()
		}
		d -= step
	}
}

func (h *harness) toReady() {
	h.t.Helper()
	require.Equal(h.t, capture.OutcomeApplied, h.m.PressSelect())
	require.Equal(h.t, capture.StateReady, h.m.State())
	h.views = nil
	h.sent = nil
}

func (h *harness) displayed() []int {
	var out []int
	for _, v := range h.views {
		if v.HasRemaining {
			out = append(out, v.Remaining)
		}
	}
	return out
}

func (h *harness) lastView() capture.View {
	h.t.Helper()
	require.NotEmpty(h.t, h.views)
	return h.views[len(h.views)-1]
}

func (h *harness) readyRenders() int {
	n := 0
	for _, v := range h.views {
		if v.State == capture.StateReady {
			n++
		}
	}
	return n
}

func (h *harness) lastNote(name string) sched.Note {
	h.t.Helper()
	for i := len(h.notes) - 1; i >= 0; i-- {
		if h.notes[i].Name == name {
			return h.notes[i]
		}
	}
	h.t.Fatalf("no note for timer %q", name)
	return sched.Note{}
}

func TestStartScreenAnyButtonConfirms(t *testing.T) {
	presses := map[string]func(*capture.Machine) capture.Outcome{
		"up":     (*capture.Machine).PressUp,
		"down":   (*capture.Machine).PressDown,
		"select": (*capture.Machine).PressSelect,
	}

	for name, press := range presses {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, options{timerValue: 4})
			h.m.Start()
			assert.Equal(t, capture.BannerStart, h.lastView().Banner)

			assert.Equal(t, capture.OutcomeApplied, press(h.m))
			assert.Equal(t, capture.StateReady, h.m.State())
			assert.Equal(t, 4, h.m.TimerValue(), "confirming start does not adjust")

			require.Len(t, h.sent, 1)
			assert.Equal(t, wire.IntentStatusCheck, h.sent[0].kind)
			assert.Equal(t, 4, h.sent[0].timerValue)
			assert.Equal(t, capture.BannerNone, h.lastView().Banner)
		})
	}
}

func TestClampingUnderArbitrarySequences(t *testing.T) {
	h := newHarness(t, options{})
	h.toReady()

	rng := rand.New(rand.NewSource(7))
	model := 0
	for i := 0; i < 2000; i++ {
		var got capture.Outcome
		if rng.Intn(2) == 0 {
			got = h.m.PressUp()
			if model < capture.MaxTimerValue {
				model++
				assert.Equal(t, capture.OutcomeApplied, got)
			} else {
				assert.Equal(t, capture.OutcomeClamped, got)
			}
		} else {
			got = h.m.PressDown()
			if model > capture.MinTimerValue {
				model--
				assert.Equal(t, capture.OutcomeApplied, got)
			} else {
				assert.Equal(t, capture.OutcomeClamped, got)
			}
		}
		require.Equal(t, model, h.m.TimerValue())
		require.GreaterOrEqual(t, h.m.TimerValue(), capture.MinTimerValue)
		require.LessOrEqual(t, h.m.TimerValue(), capture.MaxTimerValue)
	}
	assert.Empty(t, h.sent, "adjustments never send intents")
}

func TestInitialTimerValueIsClamped(t *testing.T) {
	h := newHarness(t, options{timerValue: 99})
	assert.Equal(t, capture.MaxTimerValue, h.m.TimerValue())
}

func TestCountdownDisplaysSequence(t *testing.T) {
	h := newHarness(t, options{timerValue: 3})
	h.toReady()

	assert.Equal(t, capture.OutcomeApplied, h.m.PressSelect())
	assert.Equal(t, capture.StateCountingDown, h.m.State())
	assert.Equal(t, capture.BannerCountdown, h.lastView().Banner)

	require.Len(t, h.sent, 1)
	assert.Equal(t, wire.IntentCaptureToggle, h.sent[0].kind)
	assert.Equal(t, 3, h.sent[0].timerValue)

	h.advance(3 * countdown.TickInterval)
	assert.Equal(t, []int{3, 2, 1, 0}, h.displayed())
	assert.False(t, h.m.Waiting())

	h.advance(countdown.TickInterval)
	assert.True(t, h.m.Waiting(), "fallback armed one tick after 0 is shown")
	assert.Equal(t, capture.StateCountingDown, h.m.State())
}

func TestTimerValueZeroShowsZeroThenWaits(t *testing.T) {
	h := newHarness(t, options{})
	h.toReady()

	h.m.PressSelect()
	assert.Equal(t, []int{0}, h.displayed())

	h.advance(countdown.TickInterval)
	assert.True(t, h.m.Waiting())
}

func TestInputsIgnoredWhileCountingDown(t *testing.T) {
	h := newHarness(t, options{timerValue: 5})
	h.toReady()
	h.m.PressSelect()

	assert.Equal(t, capture.OutcomeIgnored, h.m.PressUp())
	assert.Equal(t, capture.OutcomeIgnored, h.m.PressDown())
	assert.Equal(t, 5, h.m.TimerValue())
}

func TestFallbackReturnsToReadyExactlyOnce(t *testing.T) {
	h := newHarness(t, options{timerValue: 2})
	h.toReady()
	h.m.PressSelect()

	h.advance(3 * countdown.TickInterval)
	require.True(t, h.m.Waiting())
	assert.Equal(t, 0, h.readyRenders())

	h.advance(capture.FallbackWindow - time.Millisecond)
	assert.Equal(t, capture.StateCountingDown, h.m.State())

	h.advance(time.Millisecond)
	assert.Equal(t, capture.StateReady, h.m.State())
	assert.Equal(t, 1, h.readyRenders())
	assert.False(t, h.lastView().HasRemaining)
	assert.Equal(t, 2, h.lastView().Display(), "ready screen shows the timer value")

	h.advance(time.Minute)
	assert.Equal(t, 1, h.readyRenders())
	assert.Equal(t, 0, h.timers.Pending())
}

func TestPictureTakenBeforeFallbackSuppressesFallback(t *testing.T) {
	h := newHarness(t, options{queued: true, timerValue: 1})
	h.toReady()
	h.m.PressSelect()

	h.advance(2 * countdown.TickInterval)
	require.True(t, h.m.Waiting())

	// PictureTaken reaches the loop first; the fallback callback is queued
	// behind it when its delay expires.
	h.queue.Post(func() { h.pictureTaken() })
	h.clock.Advance(capture.FallbackWindow)
	require.Equal(t, 2, h.queue.Len())
	h.queue.Drain()

	assert.Equal(t, sched.ActionStale, h.lastNote(capture.TimerFallback).Action)
	assert.Equal(t, capture.BannerPictureTaken, h.lastView().Banner)
	assert.Equal(t, 0, h.readyRenders(), "fallback did not return to ready")
	assert.Equal(t, 1, h.pulses)

	h.advance(capture.SettleWindow)
	assert.Equal(t, capture.StateReady, h.m.State())
	assert.Equal(t, 1, h.readyRenders())

	h.advance(time.Minute)
	assert.Equal(t, 1, h.readyRenders())
}

func TestFallbackBeforePictureTakenDropsNotification(t *testing.T) {
	h := newHarness(t, options{queued: true, timerValue: 1})
	h.toReady()
	h.m.PressSelect()
	h.advance(2 * countdown.TickInterval)

	h.clock.Advance(capture.FallbackWindow)
	h.queue.Post(func() {
		assert.Equal(t, capture.OutcomeDropped, h.m.PictureTaken())
	})
	h.queue.Drain()

	assert.Equal(t, capture.StateReady, h.m.State())
	assert.Equal(t, 1, h.readyRenders())
	assert.Equal(t, 0, h.pulses)
}

func TestEarlyPictureTakenShowsZeroAndStopsCountdown(t *testing.T) {
	h := newHarness(t, options{timerValue: 5})
	h.toReady()
	h.m.PressSelect()
	h.advance(countdown.TickInterval)
	require.Equal(t, []int{5, 4}, h.displayed())

	assert.Equal(t, capture.OutcomeApplied, h.m.PictureTaken())
	v := h.lastView()
	assert.Equal(t, capture.BannerPictureTaken, v.Banner)
	assert.Equal(t, 0, v.Display())
	assert.Equal(t, 1, h.pulses)

	rendered := len(h.views)
	h.advance(capture.SettleWindow - time.Millisecond)
	assert.Equal(t, rendered, len(h.views), "no ticks after PictureTaken")
	assert.Equal(t, capture.StateCountingDown, h.m.State())

	h.advance(time.Millisecond)
	assert.Equal(t, capture.StateReady, h.m.State())
	assert.Equal(t, 0, h.timers.Pending())
}

func TestCancelShowsCancelledAtNextTick(t *testing.T) {
	h := newHarness(t, options{timerValue: 5})
	h.toReady()
	h.m.PressSelect()
	h.advance(countdown.TickInterval)

	assert.Equal(t, capture.OutcomeApplied, h.m.PressSelect())
	assert.Equal(t, capture.StateCancelling, h.m.State())
	require.Len(t, h.sent, 2, "second toggle sent")
	assert.Equal(t, wire.IntentCaptureToggle, h.sent[1].kind)
	assert.NotEqual(t, capture.BannerCancelled, h.lastView().Banner, "one-tick latency")

	h.advance(countdown.TickInterval)
	v := h.lastView()
	assert.Equal(t, capture.BannerCancelled, v.Banner)
	assert.Equal(t, 4, v.Display(), "cancelling tick does not decrement")

	assert.Equal(t, capture.OutcomeIgnored, h.m.PressSelect(), "select ignored while settling")

	h.advance(capture.SettleWindow)
	assert.Equal(t, capture.StateReady, h.m.State())
	assert.Equal(t, 1, h.readyRenders())

	h.advance(time.Minute)
	assert.Equal(t, 1, h.readyRenders())
	assert.Equal(t, 0, h.timers.Pending())
}

func TestCancelRendersCancellingState(t *testing.T) {
	h := newHarness(t, options{timerValue: 3})
	h.toReady()
	h.m.PressSelect()
	h.advance(countdown.TickInterval)
	rendered := len(h.views)

	h.m.PressSelect()
	require.Len(t, h.views, rendered+1, "cancel draws at once")
	v := h.lastView()
	assert.Equal(t, capture.StateCancelling, v.State)
	assert.Equal(t, capture.BannerCountdown, v.Banner)
	assert.Equal(t, 2, v.Display(), "remaining unchanged until the tick")
}

func TestCancelOnLastTickStillShowsCancelled(t *testing.T) {
	h := newHarness(t, options{timerValue: 1})
	h.toReady()
	h.m.PressSelect()
	h.advance(countdown.TickInterval)
	require.Equal(t, []int{1, 0}, h.displayed())

	h.m.PressSelect()
	h.advance(countdown.TickInterval)

	assert.Equal(t, capture.BannerCancelled, h.lastView().Banner)
	assert.False(t, h.m.Waiting(), "no fallback after a cancel")
}

func TestCancelWhileWaitingShowsCancelledImmediately(t *testing.T) {
	h := newHarness(t, options{timerValue: 1})
	h.toReady()
	h.m.PressSelect()
	h.advance(2 * countdown.TickInterval)
	require.True(t, h.m.Waiting())

	assert.Equal(t, capture.OutcomeApplied, h.m.PressSelect())
	assert.Equal(t, capture.BannerCancelled, h.lastView().Banner)
	assert.False(t, h.m.Waiting())
	assert.True(t, h.m.Settling())

	h.advance(capture.FallbackWindow)
	assert.Equal(t, capture.StateReady, h.m.State())
	assert.Equal(t, 1, h.readyRenders())
}

func TestPictureTakenWhileCancellingDropped(t *testing.T) {
	h := newHarness(t, options{timerValue: 5})
	h.toReady()
	h.m.PressSelect()
	h.m.PressSelect()

	assert.Equal(t, capture.OutcomeDropped, h.m.PictureTaken())
	assert.Equal(t, capture.StateCancelling, h.m.State())
	assert.Equal(t, 0, h.pulses)
}

func TestDuplicatePictureTakenDropped(t *testing.T) {
	h := newHarness(t, options{timerValue: 2})
	h.toReady()

	rendered := len(h.views)
	assert.Equal(t, capture.OutcomeDropped, h.m.PictureTaken(), "PictureTaken in Ready")
	assert.Equal(t, capture.StateReady, h.m.State())
	assert.Equal(t, rendered, len(h.views))

	h.m.PressSelect()
	assert.Equal(t, capture.OutcomeApplied, h.m.PictureTaken())
	assert.Equal(t, capture.OutcomeDropped, h.m.PictureTaken(), "duplicate while settling")
	assert.Equal(t, 1, h.pulses)

	h.advance(capture.SettleWindow)
	assert.Equal(t, capture.OutcomeDropped, h.m.PictureTaken(), "duplicate after settle")
	assert.Equal(t, 1, h.readyRenders())
}

func TestPictureTakenWhileIdleDropped(t *testing.T) {
	h := newHarness(t, options{})
	assert.Equal(t, capture.OutcomeDropped, h.m.PictureTaken())
	assert.Equal(t, capture.StateIdle, h.m.State())
}

func TestMessageTimeoutAlertsOnceStateUnchanged(t *testing.T) {
	h := newHarness(t, options{timerValue: 3})
	h.m.PressSelect()
	require.Len(t, h.sent, 1)
	statusCheck := h.sent[0]
	require.Equal(t, wire.IntentStatusCheck, statusCheck.kind)

	h.alerter.EXPECT().ShowAlert().Return().Once()
	views := len(h.views)
	statusCheck.onTimeout()

	assert.Equal(t, capture.StateReady, h.m.State())
	assert.Equal(t, 3, h.m.TimerValue())
	assert.Equal(t, views, len(h.views), "timeout does not redraw")
}

func TestMessageTimeoutDuringCountdownKeepsCounting(t *testing.T) {
	h := newHarness(t, options{timerValue: 3})
	h.toReady()
	h.m.PressSelect()
	require.Len(t, h.sent, 1)

	h.alerter.EXPECT().ShowAlert().Return().Once()
	h.sent[0].onTimeout()
	assert.Equal(t, capture.StateCountingDown, h.m.State())

	h.advance(3 * countdown.TickInterval)
	assert.Equal(t, []int{3, 2, 1, 0}, h.displayed())
}

func TestNewMachineValidation(t *testing.T) {
	clock := schedtest.NewFakeClock()
	timers := sched.NewTimers(clock, schedtest.Inline{})
	presenter := mocks.NewMockPresenter(t)

	_, err := capture.NewMachine(capture.Config{Gateway: mocks.NewMockGateway(t), Timers: timers})
	assert.ErrorIs(t, err, capture.ErrNoPresenter)

	_, err = capture.NewMachine(capture.Config{Presenter: presenter, Timers: timers})
	assert.ErrorIs(t, err, capture.ErrNoGateway)

	_, err = capture.NewMachine(capture.Config{Presenter: presenter, Gateway: mocks.NewMockGateway(t)})
	assert.ErrorIs(t, err, capture.ErrNoTimers)

	registerErr := errors.New("handler already registered")
	gateway := mocks.NewMockGateway(t)
	gateway.EXPECT().SetPictureTakenHandler(mock.Anything).Return(registerErr)
	_, err = capture.NewMachine(capture.Config{Presenter: presenter, Gateway: gateway, Timers: timers})
	assert.ErrorIs(t, err, registerErr)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "COUNTING_DOWN", capture.StateCountingDown.String())
	assert.Equal(t, "UNKNOWN", capture.State(42).String())
	assert.Equal(t, "CLAMPED", capture.OutcomeClamped.String())
	assert.Equal(t, "PICTURE_TAKEN", capture.BannerPictureTaken.String())
}
