package companion

import (
	"strconv"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/log"
	"github.com/shutter-remote/shutter-go/pkg/sched"
	"github.com/shutter-remote/shutter-go/pkg/wire"
)

func (s *Simulator) event(sessionID string, direction log.Direction, layer log.Layer, category log.Category) log.Event {
	return log.Event{
		Timestamp: s.clock.Now(),
		SessionID: sessionID,
		Direction: direction,
		Layer:     layer,
		Category:  category,
		LocalRole: log.RoleCompanion,
	}
}

func (s *Simulator) logIntent(sessionID string, intent *wire.Intent) {
	kind := intent.Kind
	tv := intent.TimerValue
	e := s.event(sessionID, log.DirectionIn, log.LayerWire, log.CategoryMessage)
	e.Message = &log.MessageEvent{
		Type:       wire.MessageTypeIntent,
		MessageID:  intent.MessageID,
		Kind:       &kind,
		TimerValue: &tv,
	}
	s.plog.Log(e)
}

func (s *Simulator) logAck(sessionID string, ack *wire.Ack) {
	status := ack.Status
	e := s.event(sessionID, log.DirectionOut, log.LayerWire, log.CategoryMessage)
	e.Message = &log.MessageEvent{
		Type:      wire.MessageTypeAck,
		MessageID: ack.MessageID,
		Status:    &status,
	}
	s.plog.Log(e)
}

func (s *Simulator) logNotification(sessionID string, n *wire.Notification) {
	event := n.Event
	e := s.event(sessionID, log.DirectionOut, log.LayerWire, log.CategoryMessage)
	e.Message = &log.MessageEvent{
		Type:  wire.MessageTypeNotification,
		Event: &event,
	}
	s.plog.Log(e)
}

func (s *Simulator) logTimer(sessionID string, action sched.Action, gen uint64, delay time.Duration) {
	e := s.event(sessionID, log.DirectionOut, log.LayerCore, log.CategoryTimer)
	e.Timer = &log.TimerEvent{
		Name:   TimerPicture,
		Action: action.String(),
		Handle: strconv.FormatUint(gen, 10),
		Delay:  delay,
	}
	s.plog.Log(e)
}

func (s *Simulator) logError(sessionID, msg string) {
	e := s.event(sessionID, log.DirectionIn, log.LayerWire, log.CategoryError)
	e.Error = &log.ErrorEventData{
		Layer:   log.LayerWire,
		Message: msg,
		Context: "companion",
	}
	s.plog.Log(e)
}
