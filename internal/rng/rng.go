// Package rng defines the random source used by every randomized decision
// in the rain engine, so callers can inject a seeded generator or a scripted
// sequence.
package rng

import (
	"math/rand"
	"time"
)

// Source is the subset of *rand.Rand the engine draws from.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// New returns a generator seeded with seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Reseed reseeds r from the wall clock mixed with its own next output.
func Reseed(r *rand.Rand) {
	r.Seed(time.Now().UnixNano() ^ r.Int63())
}

// Uniform returns a float64 in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// IntRange returns an int in [lo, hi], inclusive on both ends.
func IntRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Chance reports whether a draw falls below p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Shuffle permutes n elements in place with Fisher-Yates.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		swap(i, j)
	}
}

// Scripted replays fixed values. Once a script runs out it repeats its last
// value; an empty script yields zero.
type Scripted struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

// Float64 returns the next scripted float.
func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[min(s.fi, len(s.Floats)-1)]
	s.fi++
	return v
}

// Intn returns the next scripted int reduced modulo n.
func (s *Scripted) Intn(n int) int {
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	v := s.Ints[min(s.ii, len(s.Ints)-1)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}
