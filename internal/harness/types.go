package harness

import "github.com/roach88/simon/internal/journal"

// StepResult records what a step did.
type StepResult struct {
	Index   int    `json:"index"`
	Do      string `json:"do"`
	AtMS    int64  `json:"at_ms"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success: every expect clause and every
	// assertion held.
	Pass bool `json:"pass"`

	// Entries is the full journal in seq order.
	Entries []journal.Entry `json:"-"`

	// Journal is Entries rendered one per line.
	Journal string `json:"journal"`

	// Digest identifies the journal; see journal.Digest.
	Digest string `json:"digest"`

	// Steps records each step's outcome.
	Steps []StepResult `json:"steps"`

	// Summary condenses the journal.
	Summary journal.Summary `json:"summary"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
