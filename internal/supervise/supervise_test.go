package supervise

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

func TestSanitizeError_Nil(t *testing.T) {
	assert.NoError(t, SanitizeError(context.Background(), nil))
}

func TestSanitizeError_PassesOrdinaryErrors(t *testing.T) {
	boom := errors.New("boom")
	assert.Same(t, boom, SanitizeError(context.Background(), boom))
}

func TestSanitizeError_ContextDoneReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SanitizeError(ctx, errors.New("anything"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeError_StripsStrayCancellation(t *testing.T) {
	inner := errors.Join(suture.ErrDoNotRestart, context.Canceled)

	err := SanitizeError(context.Background(), inner)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, suture.ErrDoNotRestart)
	assert.NotErrorIs(t, err, suture.ErrTerminateSupervisorTree)
	assert.Contains(t, err.Error(), context.Canceled.Error())
}

func TestDone(t *testing.T) {
	assert.ErrorIs(t, Done(nil), suture.ErrTerminateSupervisorTree)

	quit := errors.New("quit")
	err := Done(quit)
	assert.ErrorIs(t, err, suture.ErrTerminateSupervisorTree)
	assert.ErrorIs(t, err, quit)
}

func TestFunc(t *testing.T) {
	called := false
	svc := Func("reader", func(context.Context) error {
		called = true
		return nil
	})

	assert.Equal(t, "reader", svc.String())
	require.NoError(t, svc.Serve(context.Background()))
	assert.True(t, called)
}

func TestSupervisor_DoneStopsTree(t *testing.T) {
	sup := New("test")

	var runs atomic.Int32
	Add(sup, Func("once", func(context.Context) error {
		runs.Add(1)
		return Done(nil)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sup.Serve(ctx)
	assert.ErrorIs(t, err, suture.ErrTerminateSupervisorTree)
	assert.Equal(t, int32(1), runs.Load())
}

func TestEventHook_HandlesEveryKind(t *testing.T) {
	hook := EventHook()
	assert.NotPanics(t, func() {
		hook(suture.EventStopTimeout{SupervisorName: "s", ServiceName: "a"})
		hook(suture.EventServicePanic{SupervisorName: "s", ServiceName: "a", PanicMsg: "p"})
		hook(suture.EventServiceTerminate{SupervisorName: "s", ServiceName: "a", Err: errors.New("x")})
		hook(suture.EventBackoff{SupervisorName: "s"})
		hook(suture.EventResume{SupervisorName: "s"})
	})
}
