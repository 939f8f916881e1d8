package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/simon/internal/observable"
)

// Engine is the single-writer event loop that owns a Game.
//
// Thread-safety model:
//   - StartGame(), SubmitInput(), Stop(): safe from any goroutine
//   - Score(), Status(): safe from any goroutine; subscribers run on the
//     Run goroutine
//   - Run(): must be called from exactly one goroutine
//
// Timers scheduled by the Game do not call back into it directly. When one
// comes due its callback is enqueued as an EventTypeTimer event, so the
// Game is only ever touched from Run.
type Engine struct {
	game      *Game
	queue     *eventQueue
	sched     *loopScheduler
	random    RandomSource
	sessionID string
	sessions  SessionGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithEngineRandom sets the random source handed to the owned Game.
func WithEngineRandom(r RandomSource) Option {
	return func(e *Engine) {
		e.random = r
	}
}

// WithSessionGenerator sets the generator for the engine's session id.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) {
		e.sessions = g
	}
}

// New creates an Engine around a fresh Game with signals buttons.
func New(sink Sink, signals int, opts ...Option) (*Engine, error) {
	e := &Engine{
		queue:    newEventQueue(),
		random:   DefaultRandom(),
		sessions: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.sched = &loopScheduler{queue: e.queue, start: time.Now()}

	game, err := NewGame(sink, signals, WithRandom(e.random), WithScheduler(e.sched))
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	e.game = game
	e.sessionID = e.sessions.Generate()

	return e, nil
}

// StartGame enqueues a StartGame command.
// Returns an ENGINE_STOPPED error if the engine has been stopped.
func (e *Engine) StartGame() error {
	if !e.queue.Enqueue(Event{Type: EventTypeStart}) {
		return NewStoppedError()
	}
	return nil
}

// SubmitInput enqueues a SubmitInput command.
//
// The index is validated here, before enqueueing, so callers learn about an
// out-of-range index synchronously. Whether the input is accepted depends on
// the status at the time Run processes it.
func (e *Engine) SubmitInput(signal int) error {
	if signal < 0 || signal >= e.game.Signals() {
		return NewInvalidSignalError(signal, e.game.Signals())
	}
	if !e.queue.Enqueue(Event{Type: EventTypeInput, Signal: signal}) {
		return NewStoppedError()
	}
	return nil
}

// Run starts the single-writer event loop.
// Blocks until context is cancelled or Stop() is called. Cancellation is
// checked before every event, so a busy queue does not delay it.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// ERROR HANDLING: a failing event is logged and processing continues. A
// panic in one event does not take the loop down.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "session", e.sessionID, "signals", e.game.Signals())

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("engine stopping: context cancelled", "session", e.sessionID)
			e.queue.Close()
			return err
		}

		event, ok := e.queue.TryDequeue()
		if ok {
			if err := e.processEvent(event); err != nil {
				logEventError(event, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled", "session", e.sessionID)
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue, so this also fires
			// on Stop
			if e.queue.Closed() && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed", "session", e.sessionID)
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Closes the event queue, which will cause Run() to return once drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

// processEvent applies one event to the game.
// CRITICAL: Called only from Run() goroutine.
func (e *Engine) processEvent(event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch event.Type {
	case EventTypeStart:
		e.game.StartGame()
		return nil

	case EventTypeInput:
		outcome, err := e.game.SubmitInput(event.Signal)
		if err != nil {
			return fmt.Errorf("submit input %d: %w", event.Signal, err)
		}
		slog.Debug("input processed", "signal", event.Signal, "outcome", outcome)
		return nil

	case EventTypeTimer:
		if event.Fire == nil {
			return fmt.Errorf("timer event missing callback")
		}
		event.Fire()
		return nil

	default:
		return fmt.Errorf("unknown event type: %d", event.Type)
	}
}

func logEventError(event Event, err error) {
	slog.Error("event processing failed",
		"type", event.Type.String(),
		"signal", event.Signal,
		"error", err,
	)
}

// Score is the read-only score cell of the owned game.
func (e *Engine) Score() observable.View[int] {
	return e.game.Score()
}

// Status is the read-only status cell of the owned game.
func (e *Engine) Status() observable.View[Status] {
	return e.game.Status()
}

// SessionID identifies this engine instance.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Signals returns the number of signals.
func (e *Engine) Signals() int {
	return e.game.Signals()
}

// QueueLen returns the number of events waiting for Run.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Now returns the time elapsed since the engine was created.
func (e *Engine) Now() time.Duration {
	return e.sched.Now()
}

// loopScheduler is the Engine's Scheduler. Due callbacks are enqueued,
// never run on the timer goroutine.
type loopScheduler struct {
	queue *eventQueue
	start time.Time
}

func (s *loopScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() {
		if !s.queue.Enqueue(Event{Type: EventTypeTimer, Fire: fn}) {
			slog.Debug("timer dropped: engine stopped")
		}
	})
}

func (s *loopScheduler) Now() time.Duration {
	return time.Since(s.start)
}
