package countdown

import (
	"time"

	"github.com/shutter-remote/shutter-go/pkg/sched"
)

// TickInterval is the fixed cadence of countdown steps.
const TickInterval = time.Second

// TimerName is the name countdown handles are armed under.
const TimerName = "countdown"

// Hooks are the callbacks a run reports through. All run on the loop.
type Hooks struct {
	// Continue is asked at the start of every step. Returning false ends the
	// run silently; the owner handles whatever it was waiting for.
	// Nil means always continue.
	Continue func(remaining int) bool

	// Tick reports the remaining value after each decrement.
	Tick func(remaining int)

	// Zero is called once when a step finds nothing remaining.
	Zero func()
}

// Scheduler owns at most one countdown run.
//
// Scheduler is not safe for concurrent use; call it from the loop that
// backs its sched.Timers.
type Scheduler struct {
	timers *sched.Timers

	handle    sched.Handle
	run       uint64
	active    bool
	remaining int
	hooks     Hooks
}

// New creates a scheduler arming its ticks on timers.
func New(timers *sched.Timers) *Scheduler {
	return &Scheduler{timers: timers}
}

// Start begins a run seeded with seed, replacing any active run.
// The first step happens before Start returns.
func (s *Scheduler) Start(seed int, hooks Hooks) {
	s.Cancel()
	s.run++
	s.active = true
	s.remaining = seed
	s.hooks = hooks
	s.step(s.run)
}

// Cancel invalidates the active run. It returns true if a run was active.
func (s *Scheduler) Cancel() bool {
	if !s.active {
		return false
	}
	s.timers.Cancel(s.handle)
	s.clear()
	return true
}

// Active reports whether a run is in progress.
func (s *Scheduler) Active() bool {
	return s.active
}

// Remaining returns the last remaining value of the current or most recent run.
func (s *Scheduler) Remaining() int {
	return s.remaining
}

// Handle returns the handle of the pending tick, or the zero Handle.
func (s *Scheduler) Handle() sched.Handle {
	return s.handle
}

func (s *Scheduler) step(run uint64) {
	s.handle = sched.Handle{}

	if s.hooks.Continue != nil && !s.hooks.Continue(s.remaining) {
		if s.run == run {
			s.clear()
		}
		return
	}
	if s.run != run {
		return
	}

	if s.remaining <= 0 {
		zero := s.hooks.Zero
		s.clear()
		if zero != nil {
			zero()
		}
		return
	}

	s.remaining--
	if s.hooks.Tick != nil {
		s.hooks.Tick(s.remaining)
	}
	// The tick hook may have cancelled or restarted the run.
	if s.run != run || !s.active {
		return
	}
	s.handle = s.timers.Arm(TimerName, TickInterval, func() { s.step(run) })
}

func (s *Scheduler) clear() {
	s.run++
	s.active = false
	s.handle = sched.Handle{}
	s.hooks = Hooks{}
}
