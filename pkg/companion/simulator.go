package companion

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

// ErrNoDevice is returned when a notification has no link to go to.
var ErrNoDevice = errors.New("no device connected")

// TimerPicture names the pending-shot timer in protocol logs.
const TimerPicture = "picture"

// Link is a device connection the simulator answers on.
// Implemented by *transport.Conn.
type Link interface {
	ID() string
	Send(data []byte) error
}

// Config configures a Simulator.
type Config struct {
	// ShutterSlack is added to the requested timer value before
	// PictureTaken is sent.
	ShutterSlack time.Duration

	// Clock defaults to sched.SystemClock.
	Clock sched.Clock

	// Logger is the operational logger. Nil discards.
	Logger *slog.Logger

	// ProtocolLogger receives message and timer events. Nil disables capture.
	ProtocolLogger log.Logger
}

// Status is a snapshot of the simulator.
type Status struct {
	Devices     int
	SetupScreen bool
	DropAcks    bool

	ShotPending bool
	ShotDue     time.Time
	TimerValue  int

	Intents       uint64
	Acks          uint64
	PicturesTaken uint64
	LastIntent    time.Time
}

type pendingShot struct {
	link       Link
	timer      sched.Timer
	gen        uint64
	timerValue int
	due        time.Time
}

// Simulator plays the phone side of the link: it acknowledges intents and
// takes a picture when a capture toggle's timer runs out.
type Simulator struct {
	clock  sched.Clock
	slack  time.Duration
	logger *slog.Logger
	plog   log.Logger

	mu          sync.Mutex
	links       map[string]Link
	shot        *pendingShot
	gen         uint64
	setupScreen bool
	dropAcks    bool

	intents  uint64
	acks     uint64
	pictures uint64
	last     time.Time
}

// New creates a Simulator.
func New(cfg Config) *Simulator {
	if cfg.Clock == nil {
		cfg.Clock = sched.SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Simulator{
		clock:  cfg.Clock,
		slack:  cfg.ShutterSlack,
		logger: cfg.Logger,
		plog:   log.OrNoop(cfg.ProtocolLogger),
		links:  make(map[string]Link),
	}
}

// Attach registers a device link.
func (s *Simulator) Attach(link Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link.ID()] = link
	s.logger.Info("device connected", "link", link.ID(), "devices", len(s.links))
}

// Detach forgets a device link. A shot requested over that link is dropped.
func (s *Simulator) Detach(link Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, link.ID())
	if s.shot != nil && s.shot.link.ID() == link.ID() {
		s.cancelShotLocked("link lost")
	}
	s.logger.Info("device disconnected", "link", link.ID(), "devices", len(s.links))
}

// SetDropAcks makes the simulator ignore intents without acknowledging them.
func (s *Simulator) SetDropAcks(drop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropAcks = drop
	s.logger.Info("ack mode changed", "drop", drop)
}

// Status returns a snapshot.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Devices:       len(s.links),
		SetupScreen:   s.setupScreen,
		DropAcks:      s.dropAcks,
		Intents:       s.intents,
		Acks:          s.acks,
		PicturesTaken: s.pictures,
		LastIntent:    s.last,
	}
	if s.shot != nil {
		st.ShotPending = true
		st.ShotDue = s.shot.due
		st.TimerValue = s.shot.timerValue
	}
	return st
}

// HandleMessage processes one frame from a device.
func (s *Simulator) HandleMessage(link Link, data []byte) {
	typ, err := wire.PeekMessageType(data)
	if err != nil {
		s.logger.Warn("undecodable frame from device", "link", link.ID(), "error", err)
		s.logError(link.ID(), err.Error())
		return
	}
	if typ != wire.MessageTypeIntent {
		s.logger.Debug("ignoring unexpected message type", "type", typ)
		return
	}

	intent, err := wire.DecodeIntent(data)
	if err != nil {
		s.logger.Warn("invalid intent", "link", link.ID(), "error", err)
		s.logError(link.ID(), err.Error())
		s.rejectMalformed(link, data)
		return
	}
	s.logIntent(link.ID(), intent)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.intents++
	s.last = s.clock.Now()
	if s.dropAcks {
		s.logger.Debug("dropping intent", "msgId", intent.MessageID, "kind", intent.Kind)
		return
	}

	switch intent.Kind {
	case wire.IntentStatusCheck:
		s.setupScreen = true
		s.logger.Info("device on setup screen")

	case wire.IntentCaptureToggle:
		s.setupScreen = false
		if s.shot != nil {
			s.cancelShotLocked("toggle")
		} else {
			s.armShotLocked(link, intent.TimerValue)
		}
	}
	s.ackLocked(link, intent.MessageID, wire.AckOK)
}

// TriggerPictureTaken sends PictureTaken to every connected device and
// returns how many links it went out on.
func (s *Simulator) TriggerPictureTaken() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.links) == 0 {
		return 0, ErrNoDevice
	}
	sent := 0
	for _, link := range s.links {
		if s.sendPictureTakenLocked(link) == nil {
			sent++
		}
	}
	return sent, nil
}

// Close drops any pending shot.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shot != nil {
		s.cancelShotLocked("shutdown")
	}
}

func (s *Simulator) armShotLocked(link Link, timerValue int) {
	s.gen++
	gen := s.gen
	delay := time.Duration(timerValue)*time.Second + s.slack

	s.shot = &pendingShot{
		link:       link,
		gen:        gen,
		timerValue: timerValue,
		due:        s.clock.Now().Add(delay),
	}
	s.shot.timer = s.clock.AfterFunc(delay, func() { s.takePicture(gen) })
	s.logTimer(link.ID(), sched.ActionArmed, gen, delay)
	s.logger.Info("capture armed", "timerValue", timerValue, "delay", delay)
}

func (s *Simulator) cancelShotLocked(reason string) {
	shot := s.shot
	s.shot = nil
	shot.timer.Stop()
	s.logTimer(shot.link.ID(), sched.ActionCancelled, shot.gen, 0)
	s.logger.Info("capture cancelled", "reason", reason)
}

func (s *Simulator) takePicture(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shot == nil || s.shot.gen != gen {
		return
	}
	shot := s.shot
	s.shot = nil
	s.logTimer(shot.link.ID(), sched.ActionFired, gen, 0)
	if err := s.sendPictureTakenLocked(shot.link); err != nil {
		s.logger.Warn("could not report picture", "link", shot.link.ID(), "error", err)
		return
	}
	s.logger.Info("picture taken", "timerValue", shot.timerValue)
}

func (s *Simulator) sendPictureTakenLocked(link Link) error {
	n := wire.NewPictureTaken()
	data, err := wire.EncodeNotification(n)
	if err != nil {
		return err
	}
	if err := link.Send(data); err != nil {
		return err
	}
	s.pictures++
	s.logNotification(link.ID(), n)
	return nil
}

func (s *Simulator) ackLocked(link Link, msgID uint32, status wire.AckStatus) {
	ack := wire.NewAck(msgID, status)
	data, err := wire.EncodeAck(ack)
	if err != nil {
		return
	}
	if err := link.Send(data); err != nil {
		s.logger.Warn("could not send ack", "msgId", msgID, "error", err)
		return
	}
	s.acks++
	s.logAck(link.ID(), ack)
}

// rejectMalformed answers an intent that failed validation when it still
// carries a message id to correlate with.
func (s *Simulator) rejectMalformed(link Link, data []byte) {
	var raw wire.Intent
	if err := wire.Unmarshal(data, &raw); err != nil || raw.MessageID == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackLocked(link, raw.MessageID, wire.AckRejected)
}
