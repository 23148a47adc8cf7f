package tests

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/taskqueue"
)

type testCase struct {
	name        string
	concurrency uint
	nTasks      int
	taskSleep   time.Duration
	clearAfter  int // enqueue this many, then Clear, then enqueue the rest
}

func testFn(tc testCase) func(*testing.T) {
	return func(t *testing.T) {
		q, err := taskqueue.NewFuncQueue(taskqueue.WithConcurrency(tc.concurrency))
		require.NoError(t, err)
		defer q.Close()

		var ran atomic.Int32
		task := taskqueue.Func(func() {
			if tc.taskSleep > 0 {
				time.Sleep(tc.taskSleep)
			}
			ran.Add(1)
		})

		expected := tc.nTasks
		if tc.clearAfter > 0 {
			for range tc.clearAfter {
				require.NoError(t, q.Enqueue(task))
			}
			q.Clear()
			// tasks from the first batch that were handed to a slot before
			// Clear (possibly all of them) still run; the rest are discarded
			expected = tc.nTasks - tc.clearAfter
		}
		for range tc.nTasks - tc.clearAfter {
			require.NoError(t, q.Enqueue(task))
		}

		q.Wait()

		require.Zero(t, q.Waiting())
		require.Zero(t, q.Running())
		require.True(t, q.Complete())
		require.GreaterOrEqual(t, ran.Load(), int32(expected))
		require.LessOrEqual(t, ran.Load(), int32(tc.nTasks))
	}
}

func TestQueueFunctional(t *testing.T) {
	tests := []testCase{
		{name: "single_slot_sequential", concurrency: 1, nTasks: 20},
		{name: "pool4_small_tasks", concurrency: 4, nTasks: 200},
		{name: "pool2_sleeping_tasks", concurrency: 2, nTasks: 10, taskSleep: 5 * time.Millisecond},
		{name: "pool8_more_slots_than_tasks", concurrency: 8, nTasks: 3},
		{name: "pool2_clear_midway", concurrency: 2, nTasks: 30, clearAfter: 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, testFn(tc))
	}
}

func TestQueueRepeatedDrains(t *testing.T) {
	q, err := taskqueue.NewFuncQueue(taskqueue.WithConcurrency(2))
	require.NoError(t, err)
	defer q.Close()

	var ran atomic.Int32
	for round := 1; round <= 5; round++ {
		for range 10 {
			require.NoError(t, q.Enqueue(taskqueue.Func(func() { ran.Add(1) })))
		}
		q.Wait()
		require.Equal(t, int32(round*10), ran.Load())
		require.True(t, q.Complete())
	}
}
