package taskqueue

import (
	"fmt"
	"sync/atomic"
	"time"
)

// slot is a single-task-at-a-time execution unit backed by its own goroutine.
// At any instant a slot is either idle or occupied by exactly one task; it
// never holds a second task internally (the channel capacity of 1 only
// decouples hand-off from pickup, admission is gated by the busy flag).

type slot[T Task] struct {
	busy  atomic.Bool
	tasks chan T

	// onDone reports a finished task back to the owning queue, onPanic reports
	// a recovered panic. Both are set at construction and never change; they
	// are how task completion crosses from the slot goroutine back into the
	// queue's bookkeeping.
	onDone  func(took time.Duration)
	onPanic func(err error)
}

func newSlot[T Task](onDone func(time.Duration), onPanic func(error)) *slot[T] {
	return &slot[T]{
		tasks:   make(chan T, 1),
		onDone:  onDone,
		onPanic: onPanic,
	}
}

// available reports whether the slot can accept a task. Non-blocking.
func (s *slot[T]) available() bool { return !s.busy.Load() }

// tryAssign hands t to the slot if it is idle, reporting whether the hand-off
// happened. The accept-or-reject decision is a single compare-and-swap, so two
// concurrent callers can never both succeed for the same idle period.
func (s *slot[T]) tryAssign(t T) bool {
	if !s.busy.CompareAndSwap(false, true) {
		return false
	}
	s.tasks <- t
	return true
}

// loop receives and executes tasks until the tasks channel is closed. A task
// already handed off is always run to completion before the goroutine exits.
func (s *slot[T]) loop() {
	for t := range s.tasks {
		s.execute(t)
	}
}

func (s *slot[T]) execute(t T) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.onPanic(fmt.Errorf("%w: %v", ErrTaskPanicked, r))
		}
		// Become idle before reporting completion, so the scheduler pass the
		// report triggers can already reuse this slot.
		s.busy.Store(false)
		s.onDone(time.Since(start))
	}()

	t.Run()
}
