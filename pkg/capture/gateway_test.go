package capture_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutter-remote/shutter-go/pkg/capture"
	"github.com/shutter-remote/shutter-go/pkg/countdown"
	"github.com/shutter-remote/shutter-go/pkg/gateway"
	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/sched/schedtest"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

type screen struct {
	views  []capture.View
	alerts int
}

func (s *screen) Render(v capture.View) { s.views = append(s.views, v) }
func (s *screen) ShowAlert()            { s.alerts++ }

type companionStub struct {
	frames [][]byte
}

func (c *companionStub) Send(data []byte) error {
	c.frames = append(c.frames, data)
	return nil
}

func (c *companionStub) lastIntent(t *testing.T) *wire.Intent {
	t.Helper()
	require.NotEmpty(t, c.frames)
	intent, err := wire.DecodeIntent(c.frames[len(c.frames)-1])
	require.NoError(t, err)
	return intent
}

func newWiredMachine(t *testing.T) (*capture.Machine, *gateway.Gateway, *screen, *companionStub, *schedtest.FakeClock) {
	t.Helper()
	clock := schedtest.NewFakeClock()
	timers := sched.NewTimers(clock, schedtest.Inline{})

	gw, err := gateway.New(gateway.Config{Timers: timers, Executor: schedtest.Inline{}})
	require.NoError(t, err)
	stub := &companionStub{}
	gw.SetSender(stub)

	scr := &screen{}
	m, err := capture.NewMachine(capture.Config{
		Presenter:         scr,
		Alerter:           scr,
		Gateway:           gw,
		Timers:            timers,
		InitialTimerValue: 2,
	})
	require.NoError(t, err)
	return m, gw, scr, stub, clock
}

func TestTimeoutInReadyAlertsExactlyOnce(t *testing.T) {
	m, _, scr, stub, clock := newWiredMachine(t)

	m.PressSelect()
	require.Equal(t, capture.StateReady, m.State())
	assert.Equal(t, wire.IntentStatusCheck, stub.lastIntent(t).Kind)

	clock.Advance(gateway.DefaultAckTimeout)
	assert.Equal(t, 1, scr.alerts)
	assert.Equal(t, capture.StateReady, m.State())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, scr.alerts)
}

func TestSecondMachineCannotRegister(t *testing.T) {
	_, gw, _, _, _ := newWiredMachine(t)

	_, err := capture.NewMachine(capture.Config{
		Presenter: &screen{},
		Gateway:   gw,
		Timers:    sched.NewTimers(schedtest.NewFakeClock(), schedtest.Inline{}),
	})
	assert.ErrorIs(t, err, gateway.ErrHandlerRegistered)
}

func TestInboundPictureTakenEndsCapture(t *testing.T) {
	m, gw, scr, stub, clock := newWiredMachine(t)

	m.PressSelect()
	ack(t, gw, stub.lastIntent(t).MessageID)
	m.PressSelect()
	toggle := stub.lastIntent(t)
	assert.Equal(t, wire.IntentCaptureToggle, toggle.Kind)
	assert.Equal(t, 2, toggle.TimerValue)
	ack(t, gw, toggle.MessageID)

	clock.Advance(3 * countdown.TickInterval)
	require.True(t, m.Waiting())

	frame, err := wire.EncodeNotification(wire.NewPictureTaken())
	require.NoError(t, err)
	gw.HandleFrame(frame)
	gw.HandleFrame(frame)

	assert.Equal(t, capture.BannerPictureTaken, scr.views[len(scr.views)-1].Banner)
	clock.Advance(capture.SettleWindow)
	assert.Equal(t, capture.StateReady, m.State())

	clock.Advance(time.Minute)
	assert.Equal(t, 0, scr.alerts, "acknowledged intents never alert")
}

func ack(t *testing.T, gw *gateway.Gateway, id uint32) {
	t.Helper()
	data, err := wire.EncodeAck(wire.NewAck(id, wire.AckOK))
	require.NoError(t, err)
	gw.HandleFrame(data)
}
