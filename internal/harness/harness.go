package harness

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/simon/internal/engine"
	"github.com/roach88/simon/internal/journal"
	"github.com/roach88/simon/internal/testutil"
)

// Harness is the test execution context for one scenario.
// It runs a Game on a virtual clock with scripted draws.
type Harness struct {
	game     *engine.Game
	sched    *testutil.ManualScheduler
	random   *testutil.FixedRandom
	recorder *journal.Recorder
}

// New builds a fresh game for scenario. The recorder is attached before
// anything runs, so the journal starts with the first reset.
func New(scenario *Scenario) (*Harness, error) {
	sched := testutil.NewManualScheduler()
	random := testutil.NewFixedRandom(scenario.Draws...)
	rec := journal.NewRecorder(nil, sched.Now)

	game, err := engine.NewGame(rec, scenario.Signals,
		engine.WithScheduler(sched),
		engine.WithRandom(random),
	)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	rec.Attach(game.Score(), game.Status())

	return &Harness{game: game, sched: sched, random: random, recorder: rec}, nil
}

// Run executes a scenario and returns the result.
//
// An error return means the scenario could not be executed at all (for
// example, it ran out of scripted draws). Expectation and assertion
// failures are reported in Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.execute(i, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Do, err)
		}
		result.Steps = append(result.Steps, sr)

		for _, msg := range h.check(step, sr) {
			result.AddError(fmt.Sprintf("steps[%d] (%s): %s", i, step.Do, msg))
		}
	}

	result.Entries = h.recorder.Entries()
	result.Journal = journal.Format(result.Entries)
	result.Digest = journal.Digest(result.Entries)
	result.Summary = journal.Summarize(result.Entries)

	for _, msg := range EvaluateAssertions(result.Entries, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// execute runs one step. A panic from the scripted random source is
// turned into an error.
func (h *Harness) execute(index int, step Step) (sr StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	sr = StepResult{Index: index, Do: step.Do}

	switch step.Do {
	case StepStart:
		h.game.StartGame()

	case StepPress:
		outcome, perr := h.game.SubmitInput(*step.Signal)
		sr.Outcome = outcome.String()
		if perr != nil {
			var re *engine.RuntimeError
			if errors.As(perr, &re) {
				sr.Error = string(re.Code)
			} else {
				sr.Error = perr.Error()
			}
		}

	case StepAdvance:
		h.sched.Advance(time.Duration(step.MS) * time.Millisecond)

	case StepSettle:
		if _, serr := h.sched.Settle(0); serr != nil {
			return sr, serr
		}

	default:
		return sr, fmt.Errorf("unknown action %q", step.Do)
	}

	sr.AtMS = h.sched.Now().Milliseconds()
	return sr, nil
}

// check compares the game against a step's expect clause. A press without
// one still fails on an error it did not expect.
func (h *Harness) check(step Step, sr StepResult) []string {
	var errs []string
	exp := step.Expect
	if exp == nil {
		exp = &Expect{}
	}

	if exp.Status != "" {
		if got := h.game.Status().Get().String(); got != exp.Status {
			errs = append(errs, fmt.Sprintf("status = %s, want %s", got, exp.Status))
		}
	}
	if exp.Score != nil {
		if got := h.game.Score().Get(); got != *exp.Score {
			errs = append(errs, fmt.Sprintf("score = %d, want %d", got, *exp.Score))
		}
	}
	if exp.Sequence != nil {
		if got := ints(h.game.Sequence()); !slices.Equal(got, *exp.Sequence) {
			errs = append(errs, fmt.Sprintf("sequence = %v, want %v", got, *exp.Sequence))
		}
	}
	if exp.Input != nil {
		if got := ints(h.game.PlayerInput()); !slices.Equal(got, *exp.Input) {
			errs = append(errs, fmt.Sprintf("input = %v, want %v", got, *exp.Input))
		}
	}
	if exp.Cursor != nil {
		if got := h.game.ReplayCursor(); got != *exp.Cursor {
			errs = append(errs, fmt.Sprintf("cursor = %d, want %d", got, *exp.Cursor))
		}
	}
	if exp.At != nil {
		if int64(*exp.At) != sr.AtMS {
			errs = append(errs, fmt.Sprintf("at = %dms, want %dms", sr.AtMS, *exp.At))
		}
	}
	if exp.Outcome != "" && sr.Outcome != exp.Outcome {
		errs = append(errs, fmt.Sprintf("outcome = %s, want %s", sr.Outcome, exp.Outcome))
	}
	if step.Do == StepPress && sr.Error != exp.Error {
		switch {
		case exp.Error == "":
			errs = append(errs, fmt.Sprintf("unexpected error %s", sr.Error))
		case sr.Error == "":
			errs = append(errs, fmt.Sprintf("expected error %s, got none", exp.Error))
		default:
			errs = append(errs, fmt.Sprintf("error = %s, want %s", sr.Error, exp.Error))
		}
	}

	return errs
}

// ints converts signal ids for comparison with YAML values. Never nil, so
// an empty expectation matches an empty sequence.
func ints(ids []engine.SignalID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
