package deck

import "math/rand/v2"

// NewRNG returns a PCG-backed generator. A nil seed yields a randomly seeded
// generator; a non-nil seed makes every Build call sequence reproducible.
func NewRNG(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
}
