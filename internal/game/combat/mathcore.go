package combat

import "math/rand/v2"

// MathCore is the single source of randomness for combat resolution.
// Tests inject deterministic implementations; production uses a seeded
// PCG generator so per-session replay stays reproducible.
type MathCore interface {
	// CheckChance rolls against p in [0, 1].
	CheckChance(p float64) bool

	// RandomRange returns a uniform value in [lo, hi].
	RandomRange(lo, hi float64) float64
}

type randCore struct {
	rng *rand.Rand
}

// NewMathCore returns the production MathCore seeded with the given
// pair. Sessions seed with their session id hash to keep tick replays
// deterministic.
func NewMathCore(seed1, seed2 uint64) MathCore {
	return &randCore{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (c *randCore) CheckChance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return c.rng.Float64() < p
}

func (c *randCore) RandomRange(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Float64()*(hi-lo)
}
