package engine

import "sync/atomic"

// Clock is a monotonic logical clock.
//
// Journal entries are stamped with a strictly increasing seq from this
// clock, so two entries emitted at the same scheduler time still have a
// total order. Wall-clock time is never used for ordering.
//
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
// Used to continue numbering a session that was read back from the store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value. The first call
// returns 1.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
