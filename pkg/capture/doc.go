// Package capture implements the capture state machine of the shutter remote.
//
// The machine owns the timer value (0 to 30 seconds) and the capture state,
// and coordinates the local countdown with a companion that performs the
// shutter action and may or may not report completion.
//
// # States
//
//   - Idle: start screen; any button confirms start
//   - Ready: the timer value can be adjusted; select arms a capture
//   - CountingDown: the countdown is running, or has reached zero and the
//     machine is waiting for PictureTaken (fallback window armed)
//   - Cancelling: select was pressed during the countdown; the next tick
//     shows "cancelled"
//
// # Timers
//
// Three one-shot timers are owned by the machine, each as a sched.Handle:
//
//   - countdown: 1 s ticks, seeded with TimerValue+1 (countdown.Scheduler)
//   - fallback: 5 s, armed when the countdown reaches zero; returns to
//     Ready if PictureTaken never arrives
//   - settle: 2 s, armed after "cancelled" or "Picture Taken" is shown
//
// Whichever of PictureTaken and the fallback runs first cancels the other's
// handle; the loser's callback is dropped by the generation check.
//
// # Threading
//
// Machine is not safe for concurrent use. Every method and every callback
// must run on the single sched.Loop that backs Config.Timers.
package capture
