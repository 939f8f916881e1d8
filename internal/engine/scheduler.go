package engine

import "time"

// Scheduler runs callbacks after a delay on the game's goroutine.
//
// Implementations must never run a callback concurrently with another
// callback or with a game command. Engine satisfies this by routing due
// timers through its event queue; testutil.ManualScheduler does it by
// firing timers only from Advance.
type Scheduler interface {
	// AfterFunc schedules fn to run once, d from now.
	AfterFunc(d time.Duration, fn func()) Timer

	// Now returns the time elapsed on this scheduler's clock.
	Now() time.Duration
}

// Timer is a pending callback.
type Timer interface {
	// Stop prevents the callback from running. Returns false if it already
	// ran or was already stopped.
	Stop() bool
}
