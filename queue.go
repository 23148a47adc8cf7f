package taskqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/ygrebnov/taskqueue/metrics"
)

// Queue holds pending tasks of type T and executes them in parallel on a fixed
// number of worker slots, each backed by its own goroutine. A dedicated
// scheduler goroutine, started at construction, assigns pending tasks to idle
// slots in FIFO order and signals waiters once the queue drains.
//
// All methods are safe for concurrent use. The zero value is not usable;
// construct via New (or NewFuncQueue) and release resources with Close.
type Queue[T Task] struct {
	// noCopy prevents accidental copying: worker slots report back into this
	// exact instance, so its identity must stay stable for its lifetime.
	//go:nocopy
	nc noCopy

	cfg config

	// mu guards the pending store together with its cached emptiness flag;
	// hasPending is atomic only so Empty stays a lock-free fast read.
	mu         sync.Mutex
	pending    *queue.Queue
	hasPending atomic.Bool

	// running counts tasks currently inside a worker slot. Incremented by the
	// scheduler on successful hand-off, decremented by the slot on completion.
	running atomic.Int32

	// active is true from construction until Close.
	active atomic.Bool

	// waitMu pairs with done; the drain broadcast and the Wait predicate
	// check both happen under waitMu, which is what rules out lost wake-ups.
	waitMu sync.Mutex
	done   *sync.Cond

	slots []*slot[T]

	// wakeCh nudges the scheduler (coalesced, capacity 1); stopCh terminates it.
	wakeCh chan struct{}
	stopCh chan struct{}

	schedWG sync.WaitGroup
	slotWG  sync.WaitGroup

	errs      chan error
	closeOnce sync.Once

	mSubmitted metrics.Counter
	mCompleted metrics.Counter
	mRemoved   metrics.Counter
	mPanicked  metrics.Counter
	mInflight  metrics.UpDownCounter
	mDuration  metrics.Histogram
}

// noCopy is a vet-recognized marker to discourage copying types with this field
// embedded. It works with the "-copylocks" analyzer via the presence of
// Lock/Unlock methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a Queue for tasks of type T using functional options and starts
// its scheduler immediately. The worker slot count is fixed at construction;
// without WithConcurrency it defaults to the host concurrency hint.
func New[T Task](opts ...Option) (*Queue[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	q := &Queue[T]{
		cfg:     cfg,
		pending: queue.New(),
		wakeCh:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		errs:    make(chan error, cfg.ErrorsBufferSize),
	}
	q.done = sync.NewCond(&q.waitMu)
	q.active.Store(true)

	q.mSubmitted = cfg.Metrics.Counter("tasks_submitted",
		metrics.WithDescription("tasks accepted by Enqueue"))
	q.mCompleted = cfg.Metrics.Counter("tasks_completed",
		metrics.WithDescription("tasks whose execution finished"))
	q.mRemoved = cfg.Metrics.Counter("tasks_removed",
		metrics.WithDescription("pending tasks discarded by TryRemove or Clear"))
	q.mPanicked = cfg.Metrics.Counter("tasks_panicked",
		metrics.WithDescription("tasks whose execution panicked"))
	q.mInflight = cfg.Metrics.UpDownCounter("tasks_inflight",
		metrics.WithDescription("tasks currently inside a worker slot"))
	q.mDuration = cfg.Metrics.Histogram("task_duration_seconds",
		metrics.WithUnit("seconds"))

	q.slots = make([]*slot[T], cfg.Concurrency)
	for i := range q.slots {
		q.slots[i] = newSlot[T](q.taskDone, q.taskPanicked)
		q.slotWG.Add(1)
		go func(s *slot[T]) {
			defer q.slotWG.Done()
			s.loop()
		}(q.slots[i])
	}

	q.schedWG.Add(1)
	go func() {
		defer q.schedWG.Done()
		newScheduler(q).run()
	}()

	cfg.Logger.Debug("task queue started", zap.Uint("concurrency", cfg.Concurrency))
	return q, nil
}

// NewFuncQueue creates a Queue executing plain functions. It is the common
// case; use New directly for custom (e.g. comparable) task types.
func NewFuncQueue(opts ...Option) (*Queue[Func], error) {
	return New[Func](opts...)
}

// Enqueue appends t to the pending store. It never blocks beyond the store
// lock and the store itself is unbounded; the only error is ErrQueueClosed.
func (q *Queue[T]) Enqueue(t T) error {
	q.mu.Lock()
	if !q.active.Load() {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending.Add(t)
	q.hasPending.Store(true)
	q.mu.Unlock()

	q.mSubmitted.Add(1)
	q.wake()
	return nil
}

// EnqueueAll appends the given tasks in order, under a single lock acquisition.
// Their relative FIFO order is preserved.
func (q *Queue[T]) EnqueueAll(ts ...T) error {
	if len(ts) == 0 {
		return nil
	}
	q.mu.Lock()
	if !q.active.Load() {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	for _, t := range ts {
		q.pending.Add(t)
	}
	q.hasPending.Store(true)
	q.mu.Unlock()

	q.mSubmitted.Add(int64(len(ts)))
	q.wake()
	return nil
}

// TryRemove removes the first pending entry equal to t, reporting whether a
// removal occurred. Only tasks not yet handed to a slot are affected; a task
// already running (or finished) is not found and the call returns false.
//
// It is a package-level function rather than a method so that the equality
// requirement is part of the instantiation: only comparable task types can
// use it, a Func-backed queue cannot.
func TryRemove[T ComparableTask](q *Queue[T], t T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	// The ring supports front removal only, so rotate once through it,
	// dropping the first match. Relative order of the rest is preserved.
	removed := false
	for n := q.pending.Length(); n > 0; n-- {
		head := q.pending.Remove().(T)
		if !removed && head == t {
			removed = true
			continue
		}
		q.pending.Add(head)
	}
	if q.pending.Length() == 0 {
		q.hasPending.Store(false)
	}
	if removed {
		q.mRemoved.Add(1)
		// the removal may have completed the queue; let the scheduler notice
		q.wake()
	}
	return removed
}

// Clear atomically discards all pending tasks. Tasks already inside a worker
// slot are unaffected.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	n := q.pending.Length()
	q.pending = queue.New()
	q.hasPending.Store(false)
	q.mu.Unlock()

	if n > 0 {
		q.mRemoved.Add(int64(n))
		// discarding may have completed the queue; let the scheduler notice
		q.wake()
	}
}

// Waiting returns the number of tasks not yet handed to a worker slot.
func (q *Queue[T]) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Length()
}

// UnsafeWaiting returns the pending count without taking the store lock.
// The value may be stale; diagnostics only.
func (q *Queue[T]) UnsafeWaiting() int {
	return q.pending.Length()
}

// Running returns the number of tasks currently executing in a worker slot.
func (q *Queue[T]) Running() int {
	return int(q.running.Load())
}

// Empty reports whether the pending store is empty. Lock-free fast read of the
// cached flag.
func (q *Queue[T]) Empty() bool {
	return !q.hasPending.Load()
}

// Busy reports whether every worker slot is occupied.
func (q *Queue[T]) Busy() bool {
	return int(q.running.Load()) >= len(q.slots)
}

// Complete reports whether no task is pending and none is running. This is the
// condition Wait blocks on.
func (q *Queue[T]) Complete() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completeLocked()
}

func (q *Queue[T]) completeLocked() bool {
	return q.pending.Length() == 0 && q.running.Load() == 0
}

// Concurrency returns the fixed worker slot count.
func (q *Queue[T]) Concurrency() int {
	return len(q.slots)
}

// Wait blocks the calling goroutine until Complete holds. If the queue is
// already complete it returns immediately. The predicate check and the wait
// registration happen under the same lock the scheduler broadcasts under, so
// a wake-up signaled in between cannot be lost.
func (q *Queue[T]) Wait() {
	q.waitMu.Lock()
	defer q.waitMu.Unlock()
	for !q.Complete() {
		q.done.Wait()
	}
}

// WaitContext is Wait bounded by ctx. It returns nil once Complete holds, or
// the context error if ctx is done first; the queue keeps executing either way.
func (q *Queue[T]) WaitContext(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		// Broadcast under waitMu so a waiter between predicate check and
		// cond registration cannot miss the cancellation.
		q.waitMu.Lock()
		defer q.waitMu.Unlock()
		q.done.Broadcast()
	})
	defer stop()

	q.waitMu.Lock()
	defer q.waitMu.Unlock()
	for !q.Complete() {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.done.Wait()
	}
	return nil
}

// Errors returns the channel delivering recovered task panics, each wrapped in
// ErrTaskPanicked. Delivery is best-effort: when the buffer is saturated new
// reports are dropped (they are still logged and counted). The channel is
// closed by Close after all slots have stopped.
func (q *Queue[T]) Errors() <-chan error {
	return q.errs
}

// Close shuts the queue down: pending tasks are discarded, the scheduler is
// stopped and joined, and every slot finishes the task it already started
// before its goroutine exits. Waiters still blocked in Wait are released.
// Idempotent and safe for concurrent use.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.active.Store(false)
		q.pending = queue.New()
		q.hasPending.Store(false)
		q.mu.Unlock()

		close(q.stopCh)
		q.schedWG.Wait()

		for _, s := range q.slots {
			close(s.tasks)
		}
		q.slotWG.Wait()
		close(q.errs)

		// The store is empty and all in-flight tasks have reported in, so the
		// queue is complete; release anyone still parked in Wait.
		q.waitMu.Lock()
		q.done.Broadcast()
		q.waitMu.Unlock()

		q.cfg.Logger.Debug("task queue closed")
	})
}

// wake nudges the scheduler. Non-blocking; a wake already pending is enough.
func (q *Queue[T]) wake() {
	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
}

// taskDone is invoked by a slot after each task execution, exactly once per
// hand-off, panicking or not.
func (q *Queue[T]) taskDone(took time.Duration) {
	q.running.Add(-1)
	q.mCompleted.Add(1)
	q.mInflight.Add(-1)
	q.mDuration.Record(took.Seconds())
	q.wake()
}

// taskPanicked reports a recovered task panic.
func (q *Queue[T]) taskPanicked(err error) {
	q.mPanicked.Add(1)
	q.cfg.Logger.Error("task panicked", zap.Error(err))
	select {
	case q.errs <- err:
	default:
		// saturated; drop
	}
}
