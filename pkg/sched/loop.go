package sched

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the default capacity of the loop queue.
const DefaultQueueSize = 256

// Loop errors.
var (
	ErrLoopRunning = errors.New("loop already running")
	ErrLoopStopped = errors.New("loop stopped")
)

// Loop serializes work onto a single goroutine.
//
// Post may be called from any goroutine, including from a function running
// on the loop. Functions run in the order they were posted.
type Loop struct {
	queue   chan func()
	stopCh  chan struct{}
	stopped sync.Once
	running atomic.Bool

	logger *slog.Logger
}

// NewLoop creates a loop with the given queue capacity.
// A size of zero uses DefaultQueueSize.
func NewLoop(size int, logger *slog.Logger) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		queue:  make(chan func(), size),
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

// Post enqueues fn for execution on the loop.
// It blocks while the queue is full and returns false once the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.stopCh:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.stopCh:
		return false
	}
}

// Do runs fn on the loop and waits for it to complete.
// Calling Do from a function already running on the loop deadlocks.
func (l *Loop) Do(fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-done:
		return nil
	case <-l.stopCh:
		return ErrLoopStopped
	}
}

// Run processes queued functions until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	l.logger.Debug("loop started")
	defer l.logger.Debug("loop stopped")

	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.stopCh:
			return nil
		case fn := <-l.queue:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop handler panicked", "panic", r)
		}
	}()
	fn()
}

// Stop stops the loop. Queued functions that have not started are dropped.
// It is safe to call Stop multiple times.
func (l *Loop) Stop() {
	l.stopped.Do(func() {
		close(l.stopCh)
	})
}

// Done returns a channel closed when the loop is stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.stopCh
}

// Compile-time interface satisfaction check.
var _ Executor = (*Loop)(nil)
