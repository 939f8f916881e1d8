package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/simon/internal/journal"
)

// AssertionError is returned when an assertion fails.
// It includes the journal to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Entries  []journal.Entry // Full journal for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Entries) > 0 {
		fmt.Fprintf(&buf, "\nJournal:\n")
		for _, entry := range e.Entries {
			fmt.Fprintf(&buf, "  %s\n", entry)
		}
	}

	return buf.String()
}

// pattern is a parsed "<kind> [arg]" entry matcher.
type pattern struct {
	kind journal.Kind
	arg  string // empty matches any argument
}

func parsePattern(s string) pattern {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return pattern{}
	case 1:
		return pattern{kind: journal.Kind(fields[0])}
	default:
		return pattern{kind: journal.Kind(fields[0]), arg: strings.Join(fields[1:], " ")}
	}
}

func (p pattern) matches(e journal.Entry) bool {
	if e.Kind != p.kind {
		return false
	}
	return p.arg == "" || e.Arg() == p.arg
}

// EvaluateAssertions runs every assertion against the journal and returns
// the failure messages.
func EvaluateAssertions(entries []journal.Entry, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(entries, a)
		case AssertTraceAbsent:
			err = assertTraceAbsent(entries, a)
		case AssertTraceOrder:
			err = assertTraceOrder(entries, a)
		case AssertTraceCount:
			err = assertTraceCount(entries, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceContains checks that some entry matches, at the given time if
// one is set.
func assertTraceContains(entries []journal.Entry, a Assertion) error {
	p := parsePattern(a.Entry)
	for _, e := range entries {
		if !p.matches(e) {
			continue
		}
		if a.At == nil || e.At.Milliseconds() == int64(*a.At) {
			return nil
		}
	}

	expected := fmt.Sprintf("entry %q", a.Entry)
	if a.At != nil {
		expected += fmt.Sprintf(" at %dms", *a.At)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in journal",
		Entries:  entries,
	}
}

// assertTraceAbsent checks that no entry matches.
func assertTraceAbsent(entries []journal.Entry, a Assertion) error {
	p := parsePattern(a.Entry)
	for _, e := range entries {
		if p.matches(e) {
			return &AssertionError{
				Type:     AssertTraceAbsent,
				Expected: fmt.Sprintf("no entry %q", a.Entry),
				Actual:   fmt.Sprintf("found %s", e),
				Entries:  entries,
			}
		}
	}
	return nil
}

// assertTraceOrder checks that the entries appear in the given order.
// Entries don't need to be consecutive (intervening entries are allowed).
func assertTraceOrder(entries []journal.Entry, a Assertion) error {
	next := 0
	for _, e := range entries {
		if next == len(a.Entries) {
			break
		}
		if parsePattern(a.Entries[next]).matches(e) {
			next++
		}
	}

	if next < len(a.Entries) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("entries in order: %v", a.Entries),
			Actual:   fmt.Sprintf("no %q after %v", a.Entries[next], a.Entries[:next]),
			Entries:  entries,
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count entries match.
func assertTraceCount(entries []journal.Entry, a Assertion) error {
	p := parsePattern(a.Entry)
	count := 0
	for _, e := range entries {
		if p.matches(e) {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %q", a.Count, a.Entry),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Entries:  entries,
		}
	}
	return nil
}
