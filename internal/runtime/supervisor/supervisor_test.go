package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStopWaitsForGoroutines(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var stopped atomic.Bool
	s.Go0("loop", func(ctx context.Context) {
		<-ctx.Done()
		stopped.Store(true)
	})
	require.NoError(t, s.Stop(waitCtx(t)))
	assert.True(t, stopped.Load())

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "loop", snap[0].Name)
	assert.Zero(t, snap[0].Active)
	assert.Equal(t, 1, snap[0].Started)
}

func TestPanicIsRecoveredAndRecorded(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithCancelOnError(true))
	s.Go0("boom", func(context.Context) { panic("kaboom") })

	<-s.Context().Done()
	err := s.Wait(waitCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, 1, s.Snapshot()[0].Panics)
}

func TestCanceledIsCleanExit(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	s.Go("watch", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, s.Stop(waitCtx(t)))
}

func TestFirstErrorWins(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	first := errors.New("first")
	s.Go("a", func(context.Context) error { return first })
	require.ErrorIs(t, s.Wait(waitCtx(t)), first)

	s.Go("b", func(context.Context) error { return errors.New("second") })
	assert.ErrorIs(t, s.Wait(waitCtx(t)), first)
}

func TestGoRestartRetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var runs atomic.Int32
	s.GoRestart("flaky", func(context.Context) error {
		n := runs.Add(1)
		if n == 1 {
			panic("first run")
		}
		if n == 2 {
			return errors.New("second run")
		}
		return nil
	}, WithRestartBackoff(time.Millisecond, 2*time.Millisecond))

	require.NoError(t, s.Wait(waitCtx(t)))
	assert.Equal(t, int32(3), runs.Load())

	var flaky Stats
	for _, st := range s.Snapshot() {
		if st.Name == "flaky" {
			flaky = st
		}
	}
	assert.Equal(t, 3, flaky.Started)
	assert.Equal(t, 2, flaky.Restarts)
	assert.Equal(t, 1, flaky.Panics)
}

func TestGoRestartGivesUp(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var runs atomic.Int32
	s.GoRestart("dead", func(context.Context) error {
		runs.Add(1)
		return errors.New("nope")
	}, WithRestartBackoff(time.Millisecond, time.Millisecond), WithMaxRestarts(2))

	err := s.Wait(waitCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Equal(t, int32(3), runs.Load())
}
