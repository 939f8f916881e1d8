// Package supervise runs the long-lived parts of an interactive session
// (engine loop, input reader, journal writer) under a suture supervisor.
package supervise

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
)

// New returns a supervisor that logs its events through slog.
func New(name string) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook: EventHook(),
		Timeout:   2 * time.Second,
	})
}

// EventHook logs supervisor events.
func EventHook() suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventStopTimeout:
			slog.Warn("service did not stop in time", "supervisor", e.SupervisorName, "service", e.ServiceName)
		case suture.EventServicePanic:
			slog.Error("service panicked",
				"supervisor", e.SupervisorName,
				"service", e.ServiceName,
				"panic", e.PanicMsg,
				"stack", e.Stacktrace,
			)
		case suture.EventServiceTerminate:
			slog.Error("service failed", "supervisor", e.SupervisorName, "service", e.ServiceName, "error", e.Err)
		case suture.EventBackoff:
			slog.Debug("supervisor backing off", "supervisor", e.SupervisorName)
		case suture.EventResume:
			slog.Debug("supervisor resumed", "supervisor", e.SupervisorName)
		default:
			b, _ := json.Marshal(e)
			slog.Warn("unknown supervisor event", "type", int(e.Type()), "event", string(b))
		}
	}
}

// Service is a suture.Service with a name for the logs.
type Service interface {
	String() string
	suture.Service
}

// Add registers service so that its errors pass through SanitizeError.
func Add(super *suture.Supervisor, service Service) suture.ServiceToken {
	return super.Add(sanitizeService{Service: service})
}

type sanitizeService struct {
	Service
}

func (s sanitizeService) Serve(ctx context.Context) error {
	return SanitizeError(ctx, s.Service.Serve(ctx))
}

// SanitizeError reports a context error only when the service's own
// context is done. Any other cancellation is flattened to a plain error with
// the same text, keeping the suture control errors it carried.
func SanitizeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var errs []error
	if errors.Is(err, suture.ErrDoNotRestart) {
		errs = append(errs, suture.ErrDoNotRestart)
	}
	if errors.Is(err, suture.ErrTerminateSupervisorTree) {
		errs = append(errs, suture.ErrTerminateSupervisorTree)
	}
	errs = append(errs, errors.New(err.Error()))

	return errors.Join(errs...)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// Func names fn as a Service.
func Func(name string, fn func(ctx context.Context) error) ServiceFunc {
	return ServiceFunc{name: name, fn: fn}
}

func (s ServiceFunc) String() string {
	return s.name
}

func (s ServiceFunc) Serve(ctx context.Context) error {
	return s.fn(ctx)
}

// Done wraps a terminal error so the supervisor stops the whole tree
// instead of restarting the service. A nil err still stops the tree.
func Done(err error) error {
	if err == nil {
		return suture.ErrTerminateSupervisorTree
	}
	return errors.Join(suture.ErrTerminateSupervisorTree, err)
}
