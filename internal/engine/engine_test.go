package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simon/internal/engine"
	"github.com/roach88/simon/internal/observable"
	"github.com/roach88/simon/internal/testutil"
)

// syncSink is a goroutine-safe sink for tests that run the real event loop.
type syncSink struct {
	mu        sync.Mutex
	activated []engine.SignalID
}

func (s *syncSink) Activate(id engine.SignalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activated = append(s.activated, id)
}
func (s *syncSink) Deactivate(engine.SignalID) {}
func (s *syncSink) MarkOK(engine.SignalID)     {}
func (s *syncSink) MarkFail(engine.SignalID)   {}
func (s *syncSink) ClearMark(engine.SignalID)  {}

func (s *syncSink) Activated() []engine.SignalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.SignalID(nil), s.activated...)
}

func startEngine(t *testing.T, e *engine.Engine) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestEngine_New(t *testing.T) {
	e, err := engine.New(nil, 4, engine.WithSessionGenerator(testutil.NewFixedSessionGenerator("s-1")))
	require.NoError(t, err)

	assert.Equal(t, "s-1", e.SessionID())
	assert.Equal(t, 4, e.Signals())
	assert.Equal(t, engine.StatusIdle, e.Status().Get())
	assert.Equal(t, 0, e.Score().Get())
	assert.Equal(t, 0, e.QueueLen())
}

func TestEngine_CellsAreReadOnly(t *testing.T) {
	e, err := engine.New(nil, 4)
	require.NoError(t, err)

	_, scoreSettable := any(e.Score()).(*observable.Value[int])
	_, statusSettable := any(e.Status()).(*observable.Value[engine.Status])
	assert.False(t, scoreSettable)
	assert.False(t, statusSettable)
}

func TestEngine_Run_CancelledContextWinsOverQueuedEvents(t *testing.T) {
	e, err := engine.New(nil, 4, engine.WithEngineRandom(testutil.NewFixedRandom(1)))
	require.NoError(t, err)
	require.NoError(t, e.StartGame())
	require.NoError(t, e.StartGame())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, e.Run(ctx), context.Canceled)
	assert.Equal(t, engine.StatusIdle, e.Status().Get(), "no queued event was applied")
	assert.Equal(t, 2, e.QueueLen())
}

func TestEngine_NewRejectsZeroSignals(t *testing.T) {
	_, err := engine.New(nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CONFIG")
}

func TestEngine_DefaultSessionIDIsUUIDv7(t *testing.T) {
	e, err := engine.New(nil, 4)
	require.NoError(t, err)

	id := e.SessionID()
	require.Len(t, id, 36)
	assert.Equal(t, byte('7'), id[14], "version nibble")
}

func TestEngine_CommandsQueueUntilRun(t *testing.T) {
	e, err := engine.New(nil, 4)
	require.NoError(t, err)

	require.NoError(t, e.StartGame())
	require.NoError(t, e.SubmitInput(1))
	assert.Equal(t, 2, e.QueueLen())
	assert.Equal(t, engine.StatusIdle, e.Status().Get(), "nothing runs before Run")
}

func TestEngine_SubmitInputValidatesImmediately(t *testing.T) {
	e, err := engine.New(nil, 4)
	require.NoError(t, err)

	err = e.SubmitInput(4)
	require.Error(t, err)
	assert.True(t, engine.IsInvalidSignalError(err))
	assert.Equal(t, 0, e.QueueLen())
}

func TestEngine_PlaysARoundOnRealTime(t *testing.T) {
	sink := &syncSink{}
	e, err := engine.New(sink, 4,
		engine.WithEngineRandom(testutil.NewFixedRandom(2, 1)),
		engine.WithSessionGenerator(testutil.NewFixedSessionGenerator("real-time")),
	)
	require.NoError(t, err)

	_, done := startEngine(t, e)

	require.NoError(t, e.StartGame())
	require.Eventually(t, func() bool {
		return e.Status().Get() == engine.StatusAwaitingInput
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []engine.SignalID{2}, sink.Activated())

	require.NoError(t, e.SubmitInput(2))
	require.Eventually(t, func() bool {
		return e.Score().Get() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, engine.StatusPlaying, e.Status().Get())
	assert.Greater(t, e.Now(), engine.RevealInterval)

	e.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return after stop")
	}

	err = e.StartGame()
	assert.True(t, engine.IsStoppedError(err))
	err = e.SubmitInput(0)
	assert.True(t, engine.IsStoppedError(err))
}

func TestEngine_Run_StopsOnContext(t *testing.T) {
	e, err := engine.New(nil, 4)
	require.NoError(t, err)

	cancel, done := startEngine(t, e)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}

	assert.True(t, engine.IsStoppedError(e.StartGame()))
}

func TestEngine_InputBeforePlaybackEndsIsIgnored(t *testing.T) {
	e, err := engine.New(nil, 4, engine.WithEngineRandom(testutil.NewFixedRandom(3)))
	require.NoError(t, err)

	_, _ = startEngine(t, e)

	require.NoError(t, e.StartGame())
	require.NoError(t, e.SubmitInput(3))

	require.Eventually(t, func() bool {
		return e.QueueLen() == 0 && e.Status().Get() == engine.StatusPlaying
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, e.Score().Get())
}
