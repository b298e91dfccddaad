package regime

import "github.com/valyala/fastrand"

// zero is a fixed point of xorshift, fastrand would replace it with a
// random state.
const zeroSeedSubstitute uint32 = 0x9e3779b9

// Rng is the explicit random source of one clustering attempt.
type Rng struct {
	r fastrand.RNG
}

func NewRng(seed uint32) *Rng {
	r := &Rng{}
	r.Seed(seed)
	return r
}

// Seed scrambles seed before handing it to xorshift, whose first outputs
// for nearby states are nearly equal.
func (r *Rng) Seed(seed uint32) {
	state := mix32(seed)
	if state == 0 {
		state = zeroSeedSubstitute
	}
	r.r.Seed(state)
}

// Intn returns a value in [0, n). n must be positive.
func (r *Rng) Intn(n int) int {
	return int(r.r.Uint32n(uint32(n)))
}

// mix32 is a golden-ratio step followed by the murmur3 finalizer. It is a
// bijection on uint32.
func mix32(x uint32) uint32 {
	x += 0x9e3779b9
	x ^= x >> 16
	x *= 0x85ebca6b
	x ^= x >> 13
	x *= 0xc2b2ae35
	x ^= x >> 16
	return x
}
