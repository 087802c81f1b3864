package stream

import (
	"livemtrx/internal/glyph"
	"livemtrx/internal/rng"
)

// Params bounds the random parameters of a freshly spawned stream and the
// per-frame probabilities of its lifecycle events.
type Params struct {
	MinLength int
	MaxLength int
	MinSpeed  float64
	MaxSpeed  float64

	// Margin is how many rows below the screen the tail must pass before the
	// stream is recycled.
	Margin int

	// Reactivate is the per-frame chance, scaled by density, that an
	// inactive stream comes back.
	Reactivate float64

	// MutateHead and MutateAny are the per-frame chances of replacing one
	// glyph in the head half of the trail and anywhere in the trail.
	MutateHead float64
	MutateAny  float64
}

// DefaultParams is the stock tuning.
var DefaultParams = Params{
	MinLength:  10,
	MaxLength:  42,
	MinSpeed:   4,
	MaxSpeed:   12,
	Margin:     2,
	Reactivate: 0.02,
	MutateHead: 0.06,
	MutateAny:  0.015,
}

// Spawner creates and recycles streams. It holds no per-stream state.
type Spawner struct {
	params Params
	glyphs glyph.Source
	random rng.Source
}

// NewSpawner wires a Spawner to its glyph and random sources.
func NewSpawner(params Params, glyphs glyph.Source, random rng.Source) *Spawner {
	return &Spawner{params: params, glyphs: glyphs, random: random}
}

// Glyphs is the source new register entries are drawn from.
func (sp *Spawner) Glyphs() glyph.Source { return sp.glyphs }

// Spawn creates the stream for column x. It starts above the screen by up to
// twice its length so columns enter at staggered times, and is active with
// probability density.
func (sp *Spawner) Spawn(x int, density float64) *Stream {
	s := &Stream{X: x}
	sp.Respawn(s)
	s.Active = rng.Chance(sp.random, density)
	return s
}

// Respawn redraws s in place with fresh parameters and activates it.
func (sp *Spawner) Respawn(s *Stream) {
	length := rng.IntRange(sp.random, sp.params.MinLength, sp.params.MaxLength)
	y := rng.Uniform(sp.random, -float64(length)*2, 0)
	speed := rng.Uniform(sp.random, sp.params.MinSpeed, sp.params.MaxSpeed)
	s.reset(length, y, speed, sp.glyphs)
}

// Populate spawns one stream per column.
func (sp *Spawner) Populate(width int, density float64) []*Stream {
	streams := make([]*Stream, width)
	for x := range streams {
		streams[x] = sp.Spawn(x, density)
	}
	return streams
}

// Recycle handles a stream whose tail has left the screen: with probability
// density it is respawned, otherwise deactivated. It reports whether the
// stream was past the bottom.
func (sp *Spawner) Recycle(s *Stream, height int, density float64) bool {
	if !s.Active || s.HeadRow()-s.Length <= height+sp.params.Margin {
		return false
	}
	if rng.Chance(sp.random, density) {
		sp.Respawn(s)
	} else {
		s.Active = false
	}
	return true
}

// Reactivate gives an inactive stream its small per-frame chance of coming
// back with fresh parameters.
func (sp *Spawner) Reactivate(s *Stream, density float64) bool {
	if s.Active || !rng.Chance(sp.random, density*sp.params.Reactivate) {
		return false
	}
	sp.Respawn(s)
	return true
}

// Mutate occasionally replaces a single glyph so settled tails do not look
// frozen. It returns the replaced offset, or -1.
func (sp *Spawner) Mutate(s *Stream) int {
	idx := -1
	switch {
	case s.Length > 1 && rng.Chance(sp.random, sp.params.MutateHead):
		idx = sp.random.Intn(max(1, int(float64(s.Length)*0.5)))
	case rng.Chance(sp.random, sp.params.MutateAny):
		idx = sp.random.Intn(s.Length)
	default:
		return -1
	}
	s.Chars[idx] = sp.glyphs.Glyph()
	return idx
}
