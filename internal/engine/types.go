package engine

import (
	"fmt"
	"time"
)

const (
	// RevealInterval is the delay before each reveal step during playback,
	// including the pre-roll before the first element and the pause after
	// the last one.
	RevealInterval = 800 * time.Millisecond

	// PulseDuration is how long a highlight or correctness marker stays on.
	PulseDuration = 300 * time.Millisecond
)

// SignalID addresses one of the N signals (buttons), 0..N-1.
type SignalID int

// Status is the lifecycle state of a game.
type Status int

const (
	// StatusIdle is the initial state, and the state after a mismatch.
	StatusIdle Status = iota
	// StatusPlaying means the sequence is being replayed; input is ignored.
	StatusPlaying
	// StatusAwaitingInput is the only state in which input has effect.
	StatusAwaitingInput
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusAwaitingInput:
		return "awaiting_input"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus converts a status name back to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "idle":
		return StatusIdle, nil
	case "playing":
		return StatusPlaying, nil
	case "awaiting_input":
		return StatusAwaitingInput, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// Outcome reports what a SubmitInput call did.
type Outcome int

const (
	// OutcomeIgnored means the input was dropped (wrong status or invalid index).
	OutcomeIgnored Outcome = iota
	// OutcomeMatch means the input matched and the round continues.
	OutcomeMatch
	// OutcomeRoundComplete means the input completed the sequence.
	OutcomeRoundComplete
	// OutcomeMismatch means the input was wrong and the game is over.
	OutcomeMismatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeMatch:
		return "match"
	case OutcomeRoundComplete:
		return "round_complete"
	case OutcomeMismatch:
		return "mismatch"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
