package sched

import (
	"fmt"
	"time"
)

// Handle identifies one arming of a timer slot.
// The zero Handle is never live.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// String returns "slot/generation" for logging.
func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%d/%d", h.slot, h.gen)
}

// Slot returns the arena slot index.
func (h Handle) Slot() uint32 { return h.slot }

// Generation returns the slot generation captured when the handle was armed.
func (h Handle) Generation() uint32 { return h.gen }

// Action describes what happened to a timer handle.
type Action uint8

const (
	// ActionArmed indicates a handle was armed.
	ActionArmed Action = iota

	// ActionCancelled indicates a live handle was cancelled.
	ActionCancelled

	// ActionFired indicates a live handle fired and its function ran.
	ActionFired

	// ActionStale indicates a superseded callback reached the loop and was dropped.
	ActionStale
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionArmed:
		return "ARMED"
	case ActionCancelled:
		return "CANCELLED"
	case ActionFired:
		return "FIRED"
	case ActionStale:
		return "STALE"
	default:
		return "UNKNOWN"
	}
}

// Note describes a handle lifecycle step, delivered to the Observer.
type Note struct {
	Name   string
	Handle Handle
	Action Action
	Delay  time.Duration
}

// Observer receives handle lifecycle notes. It runs on the loop.
type Observer func(Note)

type slot struct {
	gen   uint32
	live  bool
	name  string
	delay time.Duration
	timer Timer
	fn    func()
}

// Timers is an arena of generation-indexed one-shot timers.
//
// Timers is not safe for concurrent use. Arm, Cancel and Live must be called
// from the execution context passed to NewTimers; fired callbacks are posted
// there as well.
type Timers struct {
	clock Clock
	exec  Executor

	slots []slot
	free  []uint32

	observer Observer
}

// NewTimers creates a timer arena that fires callbacks on exec.
func NewTimers(clock Clock, exec Executor) *Timers {
	if clock == nil {
		clock = SystemClock
	}
	return &Timers{
		clock: clock,
		exec:  exec,
	}
}

// SetObserver installs a lifecycle observer. Pass nil to remove it.
func (t *Timers) SetObserver(fn Observer) {
	t.observer = fn
}

// Clock returns the clock backing this arena.
func (t *Timers) Clock() Clock {
	return t.clock
}

// Arm schedules fn to run on the execution context after d.
// The returned handle stays live until it fires or is cancelled.
func (t *Timers) Arm(name string, d time.Duration, fn func()) Handle {
	idx := t.alloc()
	s := &t.slots[idx]
	s.live = true
	s.name = name
	s.delay = d
	s.fn = fn

	h := Handle{slot: idx, gen: s.gen}
	s.timer = t.clock.AfterFunc(d, func() {
		t.exec.Post(func() { t.fire(h, name) })
	})

	t.notify(Note{Name: name, Handle: h, Action: ActionArmed, Delay: d})
	return h
}

// Cancel invalidates h. It returns true if h was live.
// A callback for h that is already queued will find h dead and do nothing.
func (t *Timers) Cancel(h Handle) bool {
	if !t.Live(h) {
		return false
	}
	s := &t.slots[h.slot]
	if s.timer != nil {
		s.timer.Stop()
	}
	name := s.name
	t.release(h.slot)

	t.notify(Note{Name: name, Handle: h, Action: ActionCancelled})
	return true
}

// Live reports whether h is armed and has neither fired nor been cancelled.
func (t *Timers) Live(h Handle) bool {
	if h.IsZero() || int(h.slot) >= len(t.slots) {
		return false
	}
	s := &t.slots[h.slot]
	return s.live && s.gen == h.gen
}

// Pending returns the number of live handles.
func (t *Timers) Pending() int {
	return len(t.slots) - len(t.free)
}

// fire runs on the execution context.
func (t *Timers) fire(h Handle, name string) {
	if !t.Live(h) {
		t.notify(Note{Name: name, Handle: h, Action: ActionStale})
		return
	}
	s := &t.slots[h.slot]
	fn := s.fn
	t.release(h.slot)

	t.notify(Note{Name: name, Handle: h, Action: ActionFired})
	if fn != nil {
		fn()
	}
}

func (t *Timers) alloc() uint32 {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		return idx
	}
	t.slots = append(t.slots, slot{gen: 1})
	return uint32(len(t.slots) - 1)
}

// release retires the slot; advancing the generation kills every handle to it.
func (t *Timers) release(idx uint32) {
	s := &t.slots[idx]
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.fn = nil
	s.timer = nil
	t.free = append(t.free, idx)
}

func (t *Timers) notify(n Note) {
	if t.observer != nil {
		t.observer(n)
	}
}
