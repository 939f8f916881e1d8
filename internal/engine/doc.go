// Package engine implements the Simon game engine.
//
// The engine owns a growing sequence of signal ids, replays it to a Sink
// with fixed timing, and validates the player's input against it one
// element at a time. Score and status are exposed as observable cells; the
// engine never knows who is listening.
//
// ARCHITECTURE:
//
// Game is the state machine. It is not safe for concurrent use: every
// command and every timer callback must run on one goroutine. Timers come
// from a Scheduler, so tests drive Game on a virtual clock and production
// drives it through Engine.
//
// Engine is the single-writer event loop around a Game:
//  1. StartGame / SubmitInput enqueue command events (any goroutine)
//  2. Scheduler timers enqueue timer events when they come due
//  3. Run() dequeues events one at a time and applies them to the Game
//
// Each event runs to completion before the next one starts. There is no
// preemption and no shared-memory access to game state outside Run.
//
// TIMING:
//
// Playback waits RevealInterval (800ms), reveals one element, schedules its
// release PulseDuration (300ms) later, and waits RevealInterval again. After
// the last element one more interval elapses before input is accepted.
// Release timers may still be pending when the next element lights up; that
// overlap is expected.
package engine
