package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/roach88/simon/internal/engine"
)

// DefaultSettleLimit bounds how many timers Settle fires before giving up.
const DefaultSettleLimit = 10000

// ManualScheduler is an engine.Scheduler on a virtual clock.
//
// Time only moves when the test calls Advance or Settle. Timers due at the
// same instant fire in the order they were scheduled, which makes journals
// byte-for-byte reproducible.
//
// Callbacks run on the goroutine calling Advance/Settle, outside the
// internal lock, so a callback may schedule further timers.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID uint64
	timers []*manualTimer
}

type manualTimer struct {
	s   *ManualScheduler
	id  uint64
	at  time.Duration
	fn  func()
	off bool
}

// NewManualScheduler creates a scheduler at virtual time 0.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc schedules fn at Now()+d.
// Implements engine.Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) engine.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t := &manualTimer{s: s, id: s.nextID, at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of timers that have not fired or been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// NextAt returns the due time of the earliest pending timer.
func (s *ManualScheduler) NextAt() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.earliest()
	if t == nil {
		return 0, false
	}
	return t.at, true
}

// Advance moves virtual time forward by d, firing every timer that comes
// due on the way, including timers scheduled by those callbacks.
func (s *ManualScheduler) Advance(d time.Duration) {
	if d < 0 {
		panic(fmt.Sprintf("testutil: negative advance %v", d))
	}

	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for s.fireNext(target) {
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// Settle fires pending timers in due order until none remain, moving the
// clock to each one. Returns the number fired, or an error once limit
// timers have fired and more are still pending.
func (s *ManualScheduler) Settle(limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultSettleLimit
	}

	fired := 0
	for {
		at, ok := s.NextAt()
		if !ok {
			return fired, nil
		}
		if fired >= limit {
			return fired, fmt.Errorf("scheduler did not settle after %d timers (next at %v)", fired, at)
		}
		s.fireNext(at)
		fired++
	}
}

// fireNext fires the earliest timer due at or before target.
// Returns false when nothing is due.
func (s *ManualScheduler) fireNext(target time.Duration) bool {
	s.mu.Lock()
	t := s.earliest()
	if t == nil || t.at > target {
		s.mu.Unlock()
		return false
	}
	s.removeLocked(t)
	s.now = t.at
	s.mu.Unlock()

	t.fn()
	return true
}

// earliest returns the pending timer with the lowest (at, id).
// Caller must hold s.mu.
func (s *ManualScheduler) earliest() *manualTimer {
	var best *manualTimer
	for _, t := range s.timers {
		if best == nil || t.at < best.at || (t.at == best.at && t.id < best.id) {
			best = t
		}
	}
	return best
}

// Caller must hold s.mu.
func (s *ManualScheduler) removeLocked(t *manualTimer) bool {
	for i, p := range s.timers {
		if p == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			t.off = true
			return true
		}
	}
	return false
}

// Stop cancels the timer. Implements engine.Timer.
func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.off {
		return false
	}
	return t.s.removeLocked(t)
}
