package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

// DefaultAckTimeout is how long an intent may stay unacknowledged.
const DefaultAckTimeout = 5 * time.Second

// TimerAckTimeout is the name acknowledgment watches are armed under.
const TimerAckTimeout = "ack-timeout"

// Gateway errors.
var (
	ErrHandlerRegistered = errors.New("picture taken handler already registered")
	ErrNotConnected      = errors.New("no companion link")
	ErrNoTimers          = errors.New("gateway: timers are required")
	ErrNoExecutor        = errors.New("gateway: executor is required")
)

// Sender writes one encoded frame to the companion.
type Sender interface {
	Send(data []byte) error
}

// Config configures a Gateway.
type Config struct {
	// Timers arms acknowledgment watches. Required.
	Timers *sched.Timers

	// Executor runs delivered frames. Required; normally the device loop.
	Executor sched.Executor

	// AckTimeout defaults to DefaultAckTimeout.
	AckTimeout time.Duration

	// Logger is the operational logger. Nil discards.
	Logger *slog.Logger

	// ProtocolLogger receives wire message events. Nil disables capture.
	ProtocolLogger log.Logger

	// SessionID tags protocol events.
	SessionID string
}

type pendingIntent struct {
	kind      wire.IntentKind
	handle    sched.Handle
	onTimeout func()
	sentAt    time.Time
}

// Gateway tracks outbound intents and dispatches inbound notifications.
//
// SetSender and Deliver may be called from any goroutine. Every other method
// must run on the loop behind Config.Executor.
type Gateway struct {
	timers     *sched.Timers
	exec       sched.Executor
	ackTimeout time.Duration

	logger    *slog.Logger
	plog      log.Logger
	sessionID string

	senderMu sync.RWMutex
	sender   Sender

	nextID         uint32
	pending        map[uint32]*pendingIntent
	onPictureTaken func()
}

// New creates a gateway with no link attached.
func New(cfg Config) (*Gateway, error) {
	if cfg.Timers == nil {
		return nil, ErrNoTimers
	}
	if cfg.Executor == nil {
		return nil, ErrNoExecutor
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gateway{
		timers:     cfg.Timers,
		exec:       cfg.Executor,
		ackTimeout: cfg.AckTimeout,
		logger:     logger,
		plog:       log.OrNoop(cfg.ProtocolLogger),
		sessionID:  cfg.SessionID,
		pending:    make(map[uint32]*pendingIntent),
	}, nil
}

// SetSender attaches the current link. Pass nil when the link drops.
func (g *Gateway) SetSender(s Sender) {
	g.senderMu.Lock()
	defer g.senderMu.Unlock()
	g.sender = s
}

// Connected reports whether a link is attached.
func (g *Gateway) Connected() bool {
	g.senderMu.RLock()
	defer g.senderMu.RUnlock()
	return g.sender != nil
}

// AckTimeout returns the acknowledgment window.
func (g *Gateway) AckTimeout() time.Duration {
	return g.ackTimeout
}

// SetPictureTakenHandler registers the handler for inbound PictureTaken.
// Only one handler may be registered; pass nil to remove it.
func (g *Gateway) SetPictureTakenHandler(fn func()) error {
	if fn == nil {
		g.onPictureTaken = nil
		return nil
	}
	if g.onPictureTaken != nil {
		return ErrHandlerRegistered
	}
	g.onPictureTaken = fn
	return nil
}

// SendIntent sends one intent and watches for its acknowledgment.
// onTimeout runs on the loop at most once, never before SendIntent returns.
// The returned message ID correlates the intent with its Ack.
func (g *Gateway) SendIntent(kind wire.IntentKind, timerValue int, onTimeout func()) uint32 {
	id := g.nextMessageID()
	p := &pendingIntent{
		kind:      kind,
		onTimeout: onTimeout,
		sentAt:    g.timers.Clock().Now(),
	}
	g.pending[id] = p

	intent := wire.NewIntent(id, kind, timerValue)
	data, err := wire.EncodeIntent(intent)
	if err == nil {
		err = g.send(data)
	}
	if err != nil {
		// Report asynchronously so the caller finishes its transition first.
		g.logger.Error("intent not sent", "msgId", id, "kind", kind, "error", err)
		g.logError(fmt.Sprintf("send %s: %v", kind, err))
		p.handle = g.timers.Arm(TimerAckTimeout, 0, func() { g.expire(id) })
		return id
	}

	g.logIntent(intent)
	p.handle = g.timers.Arm(TimerAckTimeout, g.ackTimeout, func() { g.expire(id) })
	g.logger.Debug("intent sent", "msgId", id, "kind", kind, "timerValue", timerValue)
	return id
}

// Pending returns the number of intents awaiting acknowledgment.
func (g *Gateway) Pending() int {
	return len(g.pending)
}

// Deliver hands an inbound frame to the loop. It may be called from any
// goroutine and returns false if the loop is stopped.
func (g *Gateway) Deliver(data []byte) bool {
	frame := make([]byte, len(data))
	copy(frame, data)
	return g.exec.Post(func() { g.HandleFrame(frame) })
}

// HandleFrame processes one inbound frame on the loop.
func (g *Gateway) HandleFrame(data []byte) {
	typ, err := wire.PeekMessageType(data)
	if err != nil {
		g.logger.Warn("undecodable frame from companion", "error", err)
		g.logError(err.Error())
		return
	}

	switch typ {
	case wire.MessageTypeAck:
		ack, err := wire.DecodeAck(data)
		if err != nil {
			g.logger.Warn("invalid ack", "error", err)
			g.logError(err.Error())
			return
		}
		g.handleAck(ack)

	case wire.MessageTypeNotification:
		n, err := wire.DecodeNotification(data)
		if err != nil {
			g.logger.Warn("invalid notification", "error", err)
			g.logError(err.Error())
			return
		}
		g.handleNotification(n)

	default:
		g.logger.Debug("ignoring unexpected message type", "type", typ)
	}
}

func (g *Gateway) handleAck(ack *wire.Ack) {
	p, ok := g.pending[ack.MessageID]
	if !ok {
		// Late ack after its window expired, or a duplicate.
		g.logger.Debug("ack for unknown intent", "msgId", ack.MessageID)
		return
	}
	delete(g.pending, ack.MessageID)
	g.timers.Cancel(p.handle)

	rtt := g.timers.Clock().Now().Sub(p.sentAt)
	g.logAck(ack, rtt)

	if !ack.Status.IsSuccess() {
		g.logger.Warn("intent rejected by companion", "msgId", ack.MessageID, "kind", p.kind, "status", ack.Status)
		if p.onTimeout != nil {
			p.onTimeout()
		}
		return
	}
	g.logger.Debug("intent acknowledged", "msgId", ack.MessageID, "kind", p.kind, "rtt", rtt)
}

func (g *Gateway) handleNotification(n *wire.Notification) {
	g.logNotification(n)

	if n.Event != wire.EventPictureTaken {
		g.logger.Debug("ignoring unknown notification", "event", n.Event)
		return
	}
	if g.onPictureTaken == nil {
		g.logger.Warn("PictureTaken received with no handler registered")
		return
	}
	g.onPictureTaken()
}

func (g *Gateway) expire(id uint32) {
	p, ok := g.pending[id]
	if !ok {
		return
	}
	delete(g.pending, id)
	g.logger.Warn("no acknowledgment from companion", "msgId", id, "kind", p.kind, "window", g.ackTimeout)
	if p.onTimeout != nil {
		p.onTimeout()
	}
}

func (g *Gateway) send(data []byte) error {
	g.senderMu.RLock()
	s := g.sender
	g.senderMu.RUnlock()

	if s == nil {
		return ErrNotConnected
	}
	return s.Send(data)
}

// nextMessageID returns the next ID, skipping the reserved 0.
func (g *Gateway) nextMessageID() uint32 {
	g.nextID++
	if g.nextID == 0 {
		g.nextID = 1
	}
	return g.nextID
}

func (g *Gateway) logIntent(intent *wire.Intent) {
	kind := intent.Kind
	tv := intent.TimerValue
	g.plog.Log(log.Event{
		Timestamp: g.timers.Clock().Now(),
		SessionID: g.sessionID,
		Direction: log.DirectionOut,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:       wire.MessageTypeIntent,
			MessageID:  intent.MessageID,
			Kind:       &kind,
			TimerValue: &tv,
		},
	})
}

func (g *Gateway) logAck(ack *wire.Ack, rtt time.Duration) {
	status := ack.Status
	g.plog.Log(log.Event{
		Timestamp: g.timers.Clock().Now(),
		SessionID: g.sessionID,
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:      wire.MessageTypeAck,
			MessageID: ack.MessageID,
			Status:    &status,
			RoundTrip: &rtt,
		},
	})
}

func (g *Gateway) logNotification(n *wire.Notification) {
	event := n.Event
	g.plog.Log(log.Event{
		Timestamp: g.timers.Clock().Now(),
		SessionID: g.sessionID,
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:  wire.MessageTypeNotification,
			Event: &event,
		},
	})
}

func (g *Gateway) logError(msg string) {
	g.plog.Log(log.Event{
		Timestamp: g.timers.Clock().Now(),
		SessionID: g.sessionID,
		Layer:     log.LayerWire,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: msg,
			Context: "gateway",
		},
	})
}
