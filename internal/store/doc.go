// Package store provides SQLite-backed storage for play journals.
//
// A session row describes one engine instance (board, signal count, seed);
// its entries are the journal the engine produced, keyed by the logical
// seq the journal recorder assigned.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Entries are deleted with their session
//
// Writes are idempotent: re-writing an entry with an existing (session, seq)
// is a no-op, so a journal can be flushed more than once.
package store
