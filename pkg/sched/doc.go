// Package sched provides the single execution context and the timer handles
// used by the shutter core.
//
// # Execution Model
//
// All state-machine logic runs on one logical thread. A Loop drains a FIFO
// queue of functions on a single goroutine; producers on other goroutines
// (button console, network read loop, Go timers) Post work onto it. No two
// handlers ever run concurrently, so the core needs no locks.
//
// # Timer Handles
//
// Timers hands out generation-indexed Handles. Each handle names a slot in an
// arena together with the slot's generation at arm time:
//
//	h := timers.Arm("fallback", 5*time.Second, onFallback)
//	...
//	timers.Cancel(h) // slot generation advances, h is dead
//
// When the underlying Go timer fires, its callback is posted to the loop and
// the generation is checked there, at the moment the callback runs. A
// callback whose handle was cancelled after it was already queued is
// therefore a no-op by construction:
//
//   - Cancel on a live handle stops the timer and retires the slot
//   - Cancel on a dead handle returns false and does nothing
//   - A fired handle is retired before its function runs
//
// # Testing
//
// Clock and Executor are interfaces. Package schedtest provides a manually
// advanced FakeClock plus inline and queued executors for deterministic
// tests.
package sched
