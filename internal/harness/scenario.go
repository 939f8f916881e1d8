package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/simon/internal/engine"
)

// DefaultSignals is the board size used when a scenario does not set one.
const DefaultSignals = 4

// Scenario defines one scripted game.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Signals is the number of buttons. Defaults to DefaultSignals.
	Signals int `yaml:"signals,omitempty"`

	// Draws are the random values the game will receive, in order.
	// Running out of draws fails the scenario.
	Draws []int `yaml:"draws"`

	// Steps drive the game.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final journal.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step actions.
const (
	StepStart   = "start"
	StepPress   = "press"
	StepAdvance = "advance"
	StepSettle  = "settle"
)

// Step is one command or clock movement.
type Step struct {
	// Do is one of start, press, advance, settle.
	Do string `yaml:"do"`

	// Signal is the pressed index (press only).
	Signal *int `yaml:"signal,omitempty"`

	// MS is how far to move the clock (advance only).
	MS int `yaml:"ms,omitempty"`

	// Expect is checked after the step runs. Only set fields are compared.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the observable state after a step.
type Expect struct {
	Status   string `yaml:"status,omitempty"`
	Score    *int   `yaml:"score,omitempty"`
	Sequence *[]int `yaml:"sequence,omitempty"`
	Input    *[]int `yaml:"input,omitempty"`
	Cursor   *int   `yaml:"cursor,omitempty"`

	// Outcome and Error apply to press steps. Error is a runtime error
	// code such as INVALID_SIGNAL.
	Outcome string `yaml:"outcome,omitempty"`
	Error   string `yaml:"error,omitempty"`

	// At is the expected virtual time in milliseconds.
	At *int `yaml:"at,omitempty"`
}

// Assertion validates the journal.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an entry matching Entry exists (optionally at At ms)
	// - "trace_absent": no entry matches Entry
	// - "trace_order": Entries appear in this order (gaps allowed)
	// - "trace_count": Entry matches exactly Count entries
	Type string `yaml:"type"`

	// Entry is "<kind> <arg>", e.g. "activate 2" or "status idle".
	// A bare kind matches any argument.
	Entry string `yaml:"entry,omitempty"`

	// At restricts trace_contains to a virtual time in milliseconds.
	At *int `yaml:"at,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Entries is the expected order (trace_order).
	Entries []string `yaml:"entries,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceAbsent   = "trace_absent"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Signals == 0 {
		scenario.Signals = DefaultSignals
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the YAML files under dir whose base name matches
// filter (a filepath.Match glob; empty matches everything), sorted.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Signals < 1 {
		return fmt.Errorf("signals must be at least 1")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, d := range s.Draws {
		if d < 0 || d >= s.Signals {
			return fmt.Errorf("draws[%d]: %d is outside [0, %d)", i, d, s.Signals)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Do {
	case StepStart, StepSettle:
	case StepPress:
		if st.Signal == nil {
			return fmt.Errorf("steps[%d]: signal is required for press", index)
		}
	case StepAdvance:
		if st.MS <= 0 {
			return fmt.Errorf("steps[%d]: ms must be positive for advance", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: do is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, st.Do)
	}

	if st.Expect == nil {
		return nil
	}

	if st.Expect.Status != "" {
		if _, err := engine.ParseStatus(st.Expect.Status); err != nil {
			return fmt.Errorf("steps[%d].expect: %w", index, err)
		}
	}
	if (st.Expect.Outcome != "" || st.Expect.Error != "") && st.Do != StepPress {
		return fmt.Errorf("steps[%d].expect: outcome and error apply to press steps only", index)
	}
	if st.Expect.Outcome != "" && !validOutcome(st.Expect.Outcome) {
		return fmt.Errorf("steps[%d].expect: unknown outcome %q", index, st.Expect.Outcome)
	}

	return nil
}

func validOutcome(s string) bool {
	for _, o := range []engine.Outcome{
		engine.OutcomeIgnored, engine.OutcomeMatch,
		engine.OutcomeRoundComplete, engine.OutcomeMismatch,
	} {
		if o.String() == s {
			return true
		}
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains, AssertTraceAbsent:
		if a.Entry == "" {
			return fmt.Errorf("assertions[%d]: entry is required for %s", index, a.Type)
		}
	case AssertTraceOrder:
		if len(a.Entries) == 0 {
			return fmt.Errorf("assertions[%d]: entries list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Entry == "" {
			return fmt.Errorf("assertions[%d]: entry is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
