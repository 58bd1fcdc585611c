// Package countdown implements the one-second self-rescheduling countdown
// used while a capture is armed.
//
// A run is seeded with a start value and steps once immediately, then once per
// TickInterval. Each step asks the owner whether to continue, decrements, and
// reports the new remaining value. When a step finds nothing remaining the run
// ends and the zero hook is called.
//
// Each re-arm goes through a sched.Timers handle, so a cancelled or superseded
// run can never execute a step: its queued callback is dropped by the
// generation check. Cadence is best effort; there is no drift correction.
package countdown
