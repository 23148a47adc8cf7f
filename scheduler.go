package taskqueue

// scheduler matches pending tasks to idle worker slots and signals drain to
// Wait callers. It runs in a single dedicated goroutine owned by the Queue;
// the Queue's Close stops and joins it, so termination is deterministic.
//
// The loop is event-driven rather than a spin poll: Enqueue and every slot
// completion deliver a wake through a coalescing capacity-1 channel, keeping
// assignment latency at one wake-up while the loop sleeps when there is
// nothing to do.

type scheduler[T Task] struct {
	q *Queue[T]
}

func newScheduler[T Task](q *Queue[T]) *scheduler[T] {
	return &scheduler[T]{q: q}
}

// run executes the scheduling loop until the queue's stop channel is closed.
func (s *scheduler[T]) run() {
	q := s.q
	for {
		select {
		case <-q.stopCh:
			return
		case <-q.wakeCh:
		}

		if !q.Empty() && !q.Busy() {
			q.assignPending()
		}
		if q.running.Load() == 0 && q.Complete() {
			q.waitMu.Lock()
			q.done.Broadcast()
			q.waitMu.Unlock()
		}
	}
}

// assignPending walks the slots in creation order and hands pending tasks to
// idle ones, at most one hand-off attempt per slot per pass. The front task is
// popped only after a successful hand-off, so a rejected hand-off retries the
// same task against the next idle slot. The scan stops early once the store
// drains or the pool saturates.
func (q *Queue[T]) assignPending() {
	for _, s := range q.slots {
		if !s.available() {
			continue
		}

		q.mu.Lock()
		if q.pending.Length() == 0 {
			q.hasPending.Store(false)
			q.mu.Unlock()
			return
		}
		t := q.pending.Peek().(T)
		if s.tryAssign(t) {
			q.pending.Remove()
			q.running.Add(1)
			q.mInflight.Add(1)
			if q.pending.Length() == 0 {
				q.hasPending.Store(false)
				q.mu.Unlock()
				return
			}
			if q.Busy() {
				q.mu.Unlock()
				return
			}
		}
		q.mu.Unlock()
	}
}
