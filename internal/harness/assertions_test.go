package harness

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simon/internal/journal"
)

func sampleEntries() []journal.Entry {
	ms := time.Millisecond
	return []journal.Entry{
		{Seq: 1, At: 0, Kind: journal.KindScore, Signal: -1, Value: "0"},
		{Seq: 2, At: 0, Kind: journal.KindStatus, Signal: -1, Value: "playing"},
		{Seq: 3, At: 800 * ms, Kind: journal.KindActivate, Signal: 2},
		{Seq: 4, At: 1100 * ms, Kind: journal.KindDeactivate, Signal: 2},
		{Seq: 5, At: 1600 * ms, Kind: journal.KindStatus, Signal: -1, Value: "awaiting_input"},
		{Seq: 6, At: 1600 * ms, Kind: journal.KindActivate, Signal: 1},
		{Seq: 7, At: 1600 * ms, Kind: journal.KindMarkFail, Signal: 1},
		{Seq: 8, At: 1600 * ms, Kind: journal.KindStatus, Signal: -1, Value: "idle"},
	}
}

func intPtr(n int) *int { return &n }

func TestEvaluateAssertions_Pass(t *testing.T) {
	msgs := EvaluateAssertions(sampleEntries(), []Assertion{
		{Type: AssertTraceContains, Entry: "activate 2"},
		{Type: AssertTraceContains, Entry: "status awaiting_input", At: intPtr(1600)},
		{Type: AssertTraceContains, Entry: "mark_fail"},
		{Type: AssertTraceAbsent, Entry: "mark_ok"},
		{Type: AssertTraceAbsent, Entry: "activate 3"},
		{Type: AssertTraceOrder, Entries: []string{"status playing", "activate 2", "mark_fail 1", "status idle"}},
		{Type: AssertTraceCount, Entry: "activate", Count: 2},
		{Type: AssertTraceCount, Entry: "status", Count: 3},
		{Type: AssertTraceCount, Entry: "clear_mark", Count: 0},
	})
	assert.Empty(t, msgs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "contains missing",
			assertion: Assertion{Type: AssertTraceContains, Entry: "mark_ok 2"},
			want:      `Expected: entry "mark_ok 2"`,
		},
		{
			name:      "contains wrong time",
			assertion: Assertion{Type: AssertTraceContains, Entry: "activate 2", At: intPtr(900)},
			want:      "at 900ms",
		},
		{
			name:      "absent present",
			assertion: Assertion{Type: AssertTraceAbsent, Entry: "mark_fail"},
			want:      "found 1600 #7 mark_fail 1",
		},
		{
			name:      "order reversed",
			assertion: Assertion{Type: AssertTraceOrder, Entries: []string{"status idle", "activate 2"}},
			want:      `no "activate 2" after [status idle]`,
		},
		{
			name:      "count wrong",
			assertion: Assertion{Type: AssertTraceCount, Entry: "activate", Count: 1},
			want:      "2 occurrences",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "trace_magic"},
			want:      `unknown assertion type "trace_magic"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := EvaluateAssertions(sampleEntries(), []Assertion{tt.assertion})
			require.Len(t, msgs, 1)
			assert.Contains(t, msgs[0], "assertions[0]: ")
			assert.Contains(t, msgs[0], tt.want)
		})
	}
}

func TestAssertionError_IncludesJournal(t *testing.T) {
	err := assertTraceAbsent(sampleEntries(), Assertion{Type: AssertTraceAbsent, Entry: "activate 2"})
	require.Error(t, err)

	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, AssertTraceAbsent, ae.Type)
	assert.Len(t, ae.Entries, 8)
	assert.Contains(t, err.Error(), "Journal:")
	assert.Contains(t, err.Error(), "  800 #3 activate 2\n")
}

func TestParsePattern(t *testing.T) {
	assert.Equal(t, pattern{}, parsePattern("  "))
	assert.Equal(t, pattern{kind: journal.KindScore}, parsePattern("score"))
	assert.Equal(t, pattern{kind: journal.KindStatus, arg: "awaiting_input"}, parsePattern("status  awaiting_input"))

	e := journal.Entry{Kind: journal.KindActivate, Signal: 3}
	assert.True(t, parsePattern("activate").matches(e))
	assert.True(t, parsePattern("activate 3").matches(e))
	assert.False(t, parsePattern("activate 2").matches(e))
	assert.False(t, parsePattern("deactivate 3").matches(e))
}
