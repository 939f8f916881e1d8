package engine

import "github.com/google/uuid"

// SessionGenerator generates identifiers for play sessions.
// Implemented by UUIDv7Generator (production) and
// testutil.FixedSessionGenerator (tests).
type SessionGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids, so a plain
// ORDER BY id lists sessions in the order they were played.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
