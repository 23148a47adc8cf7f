package taskqueue

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlot_TryAssignIsOneShot(t *testing.T) {
	// No loop goroutine: the slot stays occupied after the first hand-off.
	s := newSlot[Func](func(time.Duration) {}, func(error) {})

	require.True(t, s.available())
	require.True(t, s.tryAssign(Func(func() {})))
	require.False(t, s.available())
	require.False(t, s.tryAssign(Func(func() {})), "occupied slot must reject without side effect")
}

func TestSlot_ExecutesAndReports(t *testing.T) {
	done := make(chan time.Duration, 1)
	s := newSlot[Func](func(d time.Duration) { done <- d }, func(error) {})
	go s.loop()
	defer close(s.tasks)

	var ran atomic.Bool
	require.True(t, s.tryAssign(Func(func() { ran.Store(true) })))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion report")
	}
	require.True(t, ran.Load())
	require.True(t, s.available(), "slot returns to idle before reporting completion")
}

func TestSlot_RecoversPanic(t *testing.T) {
	done := make(chan struct{}, 1)
	errs := make(chan error, 1)
	s := newSlot[Func](
		func(time.Duration) { done <- struct{}{} },
		func(err error) { errs <- err },
	)
	go s.loop()
	defer close(s.tasks)

	require.True(t, s.tryAssign(Func(func() { panic("kaput") })))

	select {
	case err := <-errs:
		require.ErrorIs(t, err, ErrTaskPanicked)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for panic report")
	}

	select {
	case <-done:
		// completion is still reported after a panic
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion report")
	}
	require.True(t, s.available())
}
