package testutil

import (
	"fmt"
	"sync"
)

// FixedRandom is an engine.RandomSource that returns scripted draws.
//
// It panics when the script runs out or a draw does not fit [0, n): a test
// that draws more than it planned for is a broken test, not a flaky one.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedRandom struct {
	mu    sync.Mutex
	draws []int
	next  int
}

// NewFixedRandom creates a source that yields draws in order.
func NewFixedRandom(draws ...int) *FixedRandom {
	return &FixedRandom{draws: append([]int(nil), draws...)}
}

// IntN returns the next scripted draw.
// Implements engine.RandomSource.
func (r *FixedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= len(r.draws) {
		panic(fmt.Sprintf("testutil: FixedRandom exhausted after %d draws", len(r.draws)))
	}
	d := r.draws[r.next]
	if d < 0 || d >= n {
		panic(fmt.Sprintf("testutil: scripted draw %d (#%d) outside [0, %d)", d, r.next, n))
	}
	r.next++
	return d
}

// Used returns how many draws have been consumed.
func (r *FixedRandom) Used() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Remaining returns how many scripted draws are left.
func (r *FixedRandom) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.draws) - r.next
}
