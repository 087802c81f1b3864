// Package stream simulates one falling trail per screen column.
//
// A Stream's Chars slice is a shift register: index 0 is the glyph at the
// head, and every row the head crosses pushes a fresh glyph in at the front
// and drops the oldest one off the tail. The register is driven by row
// boundary crossings, not frames, so a trail looks the same at any frame
// rate.
package stream

import (
	"math"

	"livemtrx/internal/glyph"
)

// Tier is the brightness class of a trail offset.
type Tier uint8

// Tiers from brightest to darkest.
const (
	TierLead Tier = iota
	TierNear
	TierBody
	TierDeep
)

// bodyFraction is the share of the trail, measured from the head, that
// stays at body brightness before the deep tail starts.
const bodyFraction = 0.55

// BuildLUT returns the tier of every offset of a trail of the given length.
func BuildLUT(length int) []Tier {
	lut := make([]Tier, length)
	body := int(float64(length) * bodyFraction)
	for i := range lut {
		switch {
		case i == 0:
			lut[i] = TierLead
		case i <= 2:
			lut[i] = TierNear
		case i <= body:
			lut[i] = TierBody
		default:
			lut[i] = TierDeep
		}
	}
	return lut
}

// Stream is one column's trail.
type Stream struct {
	X           int
	Y           float64 // head position in rows, sub-cell precision
	Speed       float64 // rows per second before the global speed factor
	Length      int
	Active      bool
	Chars       []rune
	LastHeadRow int
	LUT         []Tier

	// Generation counts spawns, so a stream reused in place by a respawn
	// can be told apart from its previous life.
	Generation uint64
}

// New builds an active stream with its register prefilled from glyphs.
func New(x, length int, y, speed float64, glyphs glyph.Source) *Stream {
	s := &Stream{X: x}
	s.reset(length, y, speed, glyphs)
	return s
}

// reset redraws every parameter of s in place, reusing its buffers.
func (s *Stream) reset(length int, y, speed float64, glyphs glyph.Source) {
	if cap(s.Chars) >= length {
		s.Chars = s.Chars[:length]
	} else {
		s.Chars = make([]rune, length)
	}
	for i := range s.Chars {
		s.Chars[i] = glyphs.Glyph()
	}
	s.Length = length
	s.LUT = BuildLUT(length)
	s.Y = y
	s.Speed = speed
	s.LastHeadRow = rowOf(y)
	s.Active = true
	s.Generation++
}

// HeadRow is the screen row of the head.
func (s *Stream) HeadRow() int { return rowOf(s.Y) }

// TailRow is the row of the last glyph of the trail.
func (s *Stream) TailRow() int { return s.HeadRow() - s.Length + 1 }

// Velocity is the effective fall rate under factor.
func (s *Stream) Velocity(factor float64) float64 { return s.Speed * factor }

// Advance moves the head by dt seconds at the given speed factor and shifts
// the register once per row boundary crossed, at most Length times. It
// returns the number of shifts.
func (s *Stream) Advance(dt, factor float64, glyphs glyph.Source) int {
	if !s.Active {
		return 0
	}
	if v := s.Velocity(factor) * dt; v > 0 {
		s.Y += v
	}
	head := s.HeadRow()
	if head <= s.LastHeadRow {
		return 0
	}
	steps := min(head-s.LastHeadRow, s.Length)
	for range steps {
		s.push(glyphs.Glyph())
	}
	s.LastHeadRow = head
	return steps
}

// TimeToNextRow is how long, in seconds, until the head crosses its next
// row boundary at the given factor. It returns +Inf for a stalled or
// inactive stream.
func (s *Stream) TimeToNextRow(factor float64) float64 {
	v := s.Velocity(factor)
	if !s.Active || v <= 1e-6 {
		return math.Inf(1)
	}
	next := math.Floor(s.Y) + 1
	return (next - s.Y) / v
}

// push shifts the register one place toward the tail and puts r at the head.
func (s *Stream) push(r rune) {
	copy(s.Chars[1:], s.Chars[:len(s.Chars)-1])
	s.Chars[0] = r
}

// rowOf maps a head position to its screen row, flooring negatives.
func rowOf(y float64) int { return int(math.Floor(y)) }
