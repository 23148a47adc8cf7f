package taskqueue

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// testJob is a comparable task representation: equality over its fields is
// what TryRemove matches on.
type testJob struct {
	id      int
	started chan struct{}
	gate    chan struct{}
	runs    *int32
	seq     *[]int
}

func (j testJob) Run() {
	if j.started != nil {
		close(j.started)
	}
	if j.gate != nil {
		<-j.gate
	}
	if j.runs != nil {
		atomic.AddInt32(j.runs, 1)
	}
	if j.seq != nil {
		// single-slot queues execute sequentially, so plain append is fine
		*j.seq = append(*j.seq, j.id)
	}
}

func TestTryRemove_PendingTaskOnly(t *testing.T) {
	q, err := New[testJob](WithConcurrency(1))
	require.NoError(t, err)
	defer q.Close()

	var aRuns, bRuns int32
	started := make(chan struct{})
	gate := make(chan struct{})
	a := testJob{id: 1, started: started, gate: gate, runs: &aRuns}
	b := testJob{id: 2, runs: &bRuns}

	require.NoError(t, q.Enqueue(a))
	require.NoError(t, q.Enqueue(b))

	<-started // a is inside the slot, b is still pending

	require.False(t, TryRemove(q, a), "a running task cannot be removed")
	require.True(t, TryRemove(q, b))
	require.False(t, TryRemove(q, b), "b is already gone")

	close(gate)
	q.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&aRuns))
	require.Zero(t, atomic.LoadInt32(&bRuns), "removed task must never run")
	require.False(t, TryRemove(q, a), "a completed task cannot be removed")
}

func TestTryRemove_DropsExactlyOneMatch(t *testing.T) {
	q, err := New[testJob](WithConcurrency(1))
	require.NoError(t, err)
	defer q.Close()

	var blockerRuns, dupRuns int32
	started := make(chan struct{})
	gate := make(chan struct{})
	blocker := testJob{id: 1, started: started, gate: gate, runs: &blockerRuns}
	dup := testJob{id: 2, runs: &dupRuns}

	require.NoError(t, q.Enqueue(blocker))
	<-started

	require.NoError(t, q.Enqueue(dup))
	require.NoError(t, q.Enqueue(dup))
	require.Equal(t, 2, q.Waiting())

	require.True(t, TryRemove(q, dup))
	require.Equal(t, 1, q.Waiting(), "only the first matching entry is removed")

	close(gate)
	q.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&dupRuns))
}

func TestTryRemove_PreservesOrderOfRest(t *testing.T) {
	q, err := New[testJob](WithConcurrency(1))
	require.NoError(t, err)
	defer q.Close()

	started := make(chan struct{})
	gate := make(chan struct{})
	require.NoError(t, q.Enqueue(testJob{id: 0, started: started, gate: gate}))
	<-started

	var seq []int
	jobs := make([]testJob, 5)
	for i := range jobs {
		jobs[i] = testJob{id: i + 1, seq: &seq}
		require.NoError(t, q.Enqueue(jobs[i]))
	}

	require.True(t, TryRemove(q, jobs[2]))
	require.Equal(t, 4, q.Waiting())

	close(gate)
	q.Wait()

	require.Equal(t, []int{1, 2, 4, 5}, seq)
}
