// Package rng is the only source of randomness in the simulation. The
// generator is mulberry32: one 32-bit word of state, carried inside the
// snapshot so that saves and replays reproduce every roll.
package rng

// State is the full generator state. The zero value is never produced by Seed.
type State uint32

func Seed(n uint32) State {
	if n == 0 {
		n = 1
	}
	return State(n)
}

// Next returns the next 32-bit output and the advanced state.
func Next(s State) (uint32, State) {
	a := uint32(s) + 0x6d2b79f5
	t := a
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14), State(a)
}

// Float01 returns a value in [0, 1).
func Float01(s State) (float64, State) {
	v, next := Next(s)
	return float64(v) / 4294967296.0, next
}

// Intn returns a value in [0, n). n <= 0 yields 0 without advancing.
func Intn(s State, n int) (int, State) {
	if n <= 0 {
		return 0, s
	}
	v, next := Next(s)
	return int(uint64(v) % uint64(n)), next
}

// HashString is FNV-1a over the bytes of s.
func HashString(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func mix32(z uint32) uint32 {
	z ^= z >> 16
	z *= 0x7feb352d
	z ^= z >> 15
	z *= 0x846ca68b
	z ^= z >> 16
	return z
}

// VoyageSeed derives the encounter seed of one voyage from the world seed, the
// route and the voyage's sequential index.
func VoyageSeed(worldSeed uint32, routeID string, index uint64) State {
	v := mix32(worldSeed ^ 0x9e3779b9)
	v = mix32(v ^ HashString(routeID))
	v = mix32(v ^ uint32(index) ^ mix32(uint32(index>>32)+0x85ebca6b))
	return Seed(v)
}
