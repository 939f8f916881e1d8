package engine

import "math/rand/v2"

// RandomSource draws the next sequence element.
//
// IntN returns a uniformly distributed integer in [0, n). Tests inject a
// scripted source (testutil.FixedRandom); production uses DefaultRandom.
type RandomSource interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultRandom returns the process-wide, automatically seeded generator.
func DefaultRandom() RandomSource {
	return globalRandom{}
}

// NewSeededRandom returns a PCG generator for reproducible local play.
// Not safe for concurrent use, which is fine inside a single Game.
func NewSeededRandom(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
