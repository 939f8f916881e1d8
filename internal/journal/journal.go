// Package journal records everything a game emits as an ordered list of
// entries.
//
// A Recorder sits between an engine and its real Sink and also subscribes
// to the score and status cells. Every output becomes an Entry stamped with
// a logical sequence number and the scheduler time it happened at. The
// rendered journal is what golden tests compare and what the store persists.
package journal

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/roach88/simon/internal/engine"
	"github.com/roach88/simon/internal/observable"
)

// Kind names an entry type.
type Kind string

const (
	KindActivate   Kind = "activate"
	KindDeactivate Kind = "deactivate"
	KindMarkOK     Kind = "mark_ok"
	KindMarkFail   Kind = "mark_fail"
	KindClearMark  Kind = "clear_mark"
	KindScore      Kind = "score"
	KindStatus     Kind = "status"
)

// IsSignal reports whether entries of this kind address a signal.
func (k Kind) IsSignal() bool {
	switch k {
	case KindActivate, KindDeactivate, KindMarkOK, KindMarkFail, KindClearMark:
		return true
	default:
		return false
	}
}

// Entry is one recorded engine output.
//
// Signal is set for sink kinds and is -1 otherwise; Value is set for score
// and status entries.
type Entry struct {
	Seq    int64
	At     time.Duration
	Kind   Kind
	Signal int
	Value  string
}

// Arg returns the entry's argument as rendered in a journal line.
func (e Entry) Arg() string {
	if e.Kind.IsSignal() {
		return strconv.Itoa(e.Signal)
	}
	return e.Value
}

// String renders the entry as "<ms> #<seq> <kind> <arg>".
func (e Entry) String() string {
	return fmt.Sprintf("%d #%d %s %s", e.At.Milliseconds(), e.Seq, e.Kind, e.Arg())
}

// Format renders entries one per line, newline terminated.
func Format(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Recorder is an engine.Sink decorator that journals every call before
// forwarding it.
//
// Thread-safety: recording happens on the engine's goroutine; Entries may be
// read from any goroutine.
type Recorder struct {
	inner engine.Sink
	now   func() time.Duration
	clock *engine.Clock

	mu      sync.Mutex
	entries []Entry
	hooks   []func(Entry)
	subs    []observable.Subscription
}

// NewRecorder creates a recorder forwarding to inner (nil for none) and
// stamping entries with now.
func NewRecorder(inner engine.Sink, now func() time.Duration) *Recorder {
	if inner == nil {
		inner = engine.NopSink{}
	}
	return &Recorder{
		inner: inner,
		now:   now,
		clock: engine.NewClock(),
	}
}

// Attach subscribes the recorder to a game's score and status cells.
// Attach before StartGame so the first reset is captured.
func (r *Recorder) Attach(score observable.Readable[int], status observable.Readable[engine.Status]) {
	s1 := score.Subscribe(func(v int) {
		r.record(KindScore, -1, strconv.Itoa(v))
	})
	s2 := status.Subscribe(func(v engine.Status) {
		r.record(KindStatus, -1, v.String())
	})

	r.mu.Lock()
	r.subs = append(r.subs, s1, s2)
	r.mu.Unlock()
}

// Detach removes the recorder's score and status subscriptions.
func (r *Recorder) Detach() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

// OnEntry registers fn to be called with every new entry, in order, on the
// recording goroutine.
func (r *Recorder) OnEntry(fn func(Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Recorder) Activate(id engine.SignalID) {
	r.record(KindActivate, int(id), "")
	r.inner.Activate(id)
}

func (r *Recorder) Deactivate(id engine.SignalID) {
	r.record(KindDeactivate, int(id), "")
	r.inner.Deactivate(id)
}

func (r *Recorder) MarkOK(id engine.SignalID) {
	r.record(KindMarkOK, int(id), "")
	r.inner.MarkOK(id)
}

func (r *Recorder) MarkFail(id engine.SignalID) {
	r.record(KindMarkFail, int(id), "")
	r.inner.MarkFail(id)
}

func (r *Recorder) ClearMark(id engine.SignalID) {
	r.record(KindClearMark, int(id), "")
	r.inner.ClearMark(id)
}

func (r *Recorder) record(kind Kind, signal int, value string) {
	e := Entry{
		Seq:    r.clock.Next(),
		At:     r.now(),
		Kind:   kind,
		Signal: signal,
		Value:  value,
	}

	r.mu.Lock()
	r.entries = append(r.entries, e)
	hooks := r.hooks
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(e)
	}
}
