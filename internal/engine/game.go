package engine

import (
	"log/slog"
	"slices"

	"github.com/roach88/simon/internal/observable"
)

// Game is the Simon state machine.
//
// Game is NOT safe for concurrent use. Every command and every scheduler
// callback must run on the same goroutine; Engine provides that guarantee
// for production use.
//
// INVARIANTS:
//   - len(playerInput) <= len(sequence)
//   - every sequence element is in [0, signals)
//   - input has effect only while status is StatusAwaitingInput
//   - replayCursor is 0 whenever no playback pass is running
type Game struct {
	sink    Sink
	signals int
	random  RandomSource
	sched   Scheduler

	sequence     []SignalID
	playerInput  []SignalID
	replayCursor int

	// playback is the pending playback step; generation invalidates steps
	// whose timer fired after a restart but before Stop could catch them.
	playback   Timer
	generation uint64

	score  *observable.Value[int]
	status *observable.Value[Status]
}

// GameOption configures a Game.
type GameOption func(*Game)

// WithRandom sets the source used to draw new sequence elements.
func WithRandom(r RandomSource) GameOption {
	return func(g *Game) {
		g.random = r
	}
}

// WithScheduler sets the scheduler that drives playback and feedback decay.
// Required unless the Game is owned by an Engine.
func WithScheduler(s Scheduler) GameOption {
	return func(g *Game) {
		g.sched = s
	}
}

// NewGame creates an idle game over signals buttons.
//
// A nil sink is replaced by NopSink. Without WithRandom the game draws from
// DefaultRandom.
func NewGame(sink Sink, signals int, opts ...GameOption) (*Game, error) {
	if signals < 1 {
		return nil, NewInvalidConfigError("a game needs at least one signal")
	}
	if sink == nil {
		sink = NopSink{}
	}

	g := &Game{
		sink:    sink,
		signals: signals,
		random:  DefaultRandom(),
		score:   observable.New(0),
		status:  observable.New(StatusIdle),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.sched == nil {
		return nil, NewInvalidConfigError("a game needs a scheduler")
	}
	return g, nil
}

// StartGame resets the game and begins the first round.
//
// Safe to call in any status. A playback pass still in flight is abandoned;
// pending pulse and marker decays are left to fire.
func (g *Game) StartGame() {
	g.cancelPlayback()

	g.sequence = g.sequence[:0]
	g.playerInput = g.playerInput[:0]
	g.replayCursor = 0

	g.score.Set(0)
	g.addToSequence()

	slog.Info("game started", "signals", g.signals)

	g.status.Set(StatusPlaying)
	g.beginPlayback()
}

// SubmitInput feeds one player activation into the game.
//
// An index outside [0, signals) is rejected with an INVALID_SIGNAL error and
// never touches state. Outside StatusAwaitingInput the input is dropped and
// OutcomeIgnored is returned with a nil error.
func (g *Game) SubmitInput(signal int) (Outcome, error) {
	if signal < 0 || signal >= g.signals {
		slog.Warn("input rejected", "signal", signal, "signals", g.signals)
		return OutcomeIgnored, NewInvalidSignalError(signal, g.signals)
	}

	if g.status.Get() != StatusAwaitingInput {
		slog.Debug("input ignored", "signal", signal, "status", g.status.Get())
		return OutcomeIgnored, nil
	}

	id := SignalID(signal)
	g.pulse(id)
	g.playerInput = append(g.playerInput, id)

	for k, got := range g.playerInput {
		if got != g.sequence[k] {
			return g.mismatch(id, k), nil
		}
	}

	g.sink.MarkOK(id)
	g.sched.AfterFunc(PulseDuration, func() { g.sink.ClearMark(id) })

	if len(g.playerInput) < len(g.sequence) {
		slog.Debug("input matched",
			"signal", signal,
			"position", len(g.playerInput)-1,
			"remaining", len(g.sequence)-len(g.playerInput),
		)
		return OutcomeMatch, nil
	}

	g.score.Set(g.score.Get() + 1)
	g.playerInput = g.playerInput[:0]
	g.addToSequence()

	slog.Info("round complete",
		"score", g.score.Get(),
		"length", len(g.sequence),
	)

	g.status.Set(StatusPlaying)
	g.beginPlayback()
	return OutcomeRoundComplete, nil
}

// mismatch ends the game at position k.
func (g *Game) mismatch(id SignalID, k int) Outcome {
	g.sink.MarkFail(id)
	g.sched.AfterFunc(PulseDuration, func() { g.sink.ClearMark(id) })

	slog.Info("input mismatched",
		"signal", int(id),
		"expected", int(g.sequence[k]),
		"position", k,
		"score", g.score.Get(),
	)

	g.playerInput = g.playerInput[:0]
	g.status.Set(StatusIdle)
	return OutcomeMismatch
}

// pulse lights a signal for PulseDuration.
func (g *Game) pulse(id SignalID) {
	g.sink.Activate(id)
	g.sched.AfterFunc(PulseDuration, func() { g.sink.Deactivate(id) })
}

func (g *Game) addToSequence() {
	g.sequence = append(g.sequence, SignalID(g.random.IntN(g.signals)))
}

// beginPlayback starts a new pass from replayCursor after the pre-roll.
func (g *Game) beginPlayback() {
	g.generation++
	g.schedulePlaybackStep(g.generation)
}

func (g *Game) schedulePlaybackStep(gen uint64) {
	g.playback = g.sched.AfterFunc(RevealInterval, func() { g.playbackStep(gen) })
}

// playbackStep reveals the element under the cursor, or finishes the pass
// once every element has been shown.
func (g *Game) playbackStep(gen uint64) {
	if gen != g.generation {
		slog.Debug("stale playback step dropped", "generation", gen, "current", g.generation)
		return
	}

	if g.replayCursor < len(g.sequence) {
		g.pulse(g.sequence[g.replayCursor])
		g.replayCursor++
		g.schedulePlaybackStep(gen)
		return
	}

	g.replayCursor = 0
	g.playback = nil
	slog.Debug("playback complete", "length", len(g.sequence))
	g.status.Set(StatusAwaitingInput)
}

func (g *Game) cancelPlayback() {
	if g.playback != nil {
		g.playback.Stop()
		g.playback = nil
	}
	g.generation++
}

// Score is the read-only score cell.
func (g *Game) Score() observable.View[int] {
	return g.score.ReadOnly()
}

// Status is the read-only status cell.
func (g *Game) Status() observable.View[Status] {
	return g.status.ReadOnly()
}

// Sequence returns a copy of the current sequence.
func (g *Game) Sequence() []SignalID {
	return slices.Clone(g.sequence)
}

// PlayerInput returns a copy of the player's input for the current round.
func (g *Game) PlayerInput() []SignalID {
	return slices.Clone(g.playerInput)
}

// ReplayCursor returns the index of the next element to reveal.
func (g *Game) ReplayCursor() int {
	return g.replayCursor
}

// Signals returns the number of signals the game was built with.
func (g *Game) Signals() int {
	return g.signals
}
