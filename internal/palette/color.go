// Package palette maps abstract color identifiers onto a bounded table of
// terminal color pairs and builds the rotating theme palettes.
package palette

import (
	"github.com/zyedidia/generic/mapset"
)

// Color is a terminal palette index: 0-7 on basic terminals, 0-255 on
// extended ones.
type Color int

// Basic terminal colors, numbered as the eight ANSI colors.
const (
	Black Color = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
)

// MaxColor is the highest identifier accepted on an extended terminal.
const MaxColor Color = 255

// PairID names a slot in the pair table. DefaultPair is the terminal's own
// foreground on the default background and is never allocated.
type PairID int

// DefaultPair draws with the terminal defaults.
const DefaultPair PairID = 0

// Emphasis is a set of text attribute bits.
type Emphasis uint8

// Emphasis bits.
const (
	Bold Emphasis = 1 << iota
	Dim
)

// With returns the union of e and other.
func (e Emphasis) With(other Emphasis) Emphasis { return e | other }

// Has reports whether every bit of other is in e.
func (e Emphasis) Has(other Emphasis) bool { return e&other == other }

// Attr is what a single cell is drawn with.
type Attr struct {
	Pair     PairID
	Emphasis Emphasis
}

// Plain is the attribute of an empty cell.
var Plain = Attr{}

// With returns a copy of a with the emphasis bits added.
func (a Attr) With(e Emphasis) Attr {
	a.Emphasis = a.Emphasis.With(e)
	return a
}

// Manager owns the pair table. Pairs are created lazily and never freed.
type Manager struct {
	extended bool
	maxPairs int
	pairs    map[Color]PairID
	fgs      []Color
	safe     mapset.Set[Color]
}

// NewManager creates a pair table bounded by maxPairs slots (slot 0
// included). On a basic terminal only the safe set of foregrounds is
// accepted.
func NewManager(extended bool, maxPairs int) *Manager {
	safe := mapset.New[Color]()
	for _, c := range []Color{Green, Cyan, Blue, Magenta, Yellow, Red, White} {
		safe.Put(c)
	}
	return &Manager{
		extended: extended,
		maxPairs: maxPairs,
		pairs:    make(map[Color]PairID),
		fgs:      []Color{-1},
		safe:     safe,
	}
}

// Extended reports whether the terminal supports the 256-color range.
func (m *Manager) Extended() bool { return m.extended }

// Pair returns the slot drawing fg, allocating one on first use. Unsupported
// identifiers snap to green; an exhausted table falls back to the green pair
// or the default pair.
func (m *Manager) Pair(fg Color) PairID {
	fg = m.normalize(fg)
	if pid, ok := m.pairs[fg]; ok {
		return pid
	}
	pid := PairID(len(m.fgs))
	if int(pid) >= m.maxPairs {
		if g, ok := m.pairs[Green]; ok {
			return g
		}
		return DefaultPair
	}
	m.pairs[fg] = pid
	m.fgs = append(m.fgs, fg)
	return pid
}

// Attr is shorthand for an attribute drawing fg with emphasis e.
func (m *Manager) Attr(fg Color, e Emphasis) Attr {
	return Attr{Pair: m.Pair(fg), Emphasis: e}
}

// Foreground returns the color registered for pid. The default pair and
// unknown slots report false.
func (m *Manager) Foreground(pid PairID) (Color, bool) {
	if pid <= DefaultPair || int(pid) >= len(m.fgs) {
		return 0, false
	}
	return m.fgs[pid], true
}

// Len is the number of allocated pairs, excluding the default pair.
func (m *Manager) Len() int { return len(m.fgs) - 1 }

// normalize maps fg onto a color this terminal can show.
func (m *Manager) normalize(fg Color) Color {
	if fg < 0 {
		return Green
	}
	if m.extended {
		return min(fg, MaxColor)
	}
	if !m.safe.Has(fg) {
		return Green
	}
	return fg
}

// Darken shifts fg n steps toward the dark end of the 256-color cube. Basic
// terminals have nothing darker to offer, so fg is returned unchanged.
func Darken(fg Color, n int, extended bool) Color {
	if !extended {
		return fg
	}
	return max(0, fg-Color(n))
}

// Tint derives a subtle fringe color from base. dir < 0 is the left fringe.
func Tint(base Color, dir int, extended bool) Color {
	if !extended {
		if dir < 0 {
			return White
		}
		return Cyan
	}
	if dir < 0 {
		return max(0, base-2)
	}
	return min(MaxColor, base+2)
}
