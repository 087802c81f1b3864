// Package glyph supplies the characters that fill a stream's trail.
package glyph

import (
	"errors"

	"github.com/mattn/go-runewidth"

	"livemtrx/internal/rng"
)

// Plain is the default ASCII pool.
const Plain = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"@#$%&*+=-:;.,!?/\\|[]{}()<>"

// Decorative is the curated pool that usually renders in common monospace
// fonts: half-width katakana, Greek, math, box drawing and geometric shapes.
const Decorative = "ｱｲｳｴｵｶｷｸｹｺｻｼｽｾｿﾀﾁﾂﾃﾄﾅﾆﾇﾈﾉ" +
	"ﾊﾋﾌﾍﾎﾏﾐﾑﾒﾓﾔﾕﾖﾗﾘﾙﾚﾛﾜﾝ" +
	"ΑΒΓΔΕΖΗΘΙΚΛΜΝΞΟΠΡΣΤΥΦΧΨΩ" +
	"αβγδεζηθικλμνξοπρστυφχψω" +
	"∑∏√∞≈≠≤≥÷×±∫∂∇∈∩∪⊂⊃⊕⊗" +
	"│┃━─┌┐└┘├┤┬┴┼╭╮╰╯" +
	"◊◈◇◆○●◎◌◍◐◑◒◓" +
	"■□▢▣▤▥▦▧▨▩"

// ErrEmptyPool is returned when no usable glyph survives filtering.
var ErrEmptyPool = errors.New("glyph pool is empty")

// Source hands out one glyph per call.
type Source interface {
	Glyph() rune
}

// Pool mixes a plain and a decorative pool at a fixed ratio.
type Pool struct {
	plain      []rune
	decorative []rune
	mix        float64
	random     rng.Source
}

// NewPool builds a Pool. Glyphs that do not occupy exactly one terminal cell
// are dropped so a trail never bleeds into its neighbor column.
func NewPool(plain, decorative string, mix float64, random rng.Source) (*Pool, error) {
	p := &Pool{
		plain:      singleWidth(plain),
		decorative: singleWidth(decorative),
		mix:        mix,
		random:     random,
	}
	if len(p.plain) == 0 && len(p.decorative) == 0 {
		return nil, ErrEmptyPool
	}
	if len(p.decorative) == 0 {
		p.mix = 0
	} else if len(p.plain) == 0 {
		p.mix = 1
	}
	return p, nil
}

// Glyph draws from the decorative pool with probability mix, else from the
// plain pool.
func (p *Pool) Glyph() rune {
	if p.mix > 0 && rng.Chance(p.random, p.mix) {
		return p.decorative[p.random.Intn(len(p.decorative))]
	}
	return p.plain[p.random.Intn(len(p.plain))]
}

// Plain returns the filtered plain pool.
func (p *Pool) Plain() []rune { return p.plain }

// Decorative returns the filtered decorative pool.
func (p *Pool) Decorative() []rune { return p.decorative }

// singleWidth returns the distinct runes of s that occupy exactly one cell.
func singleWidth(s string) []rune {
	out := make([]rune, 0, len(s))
	seen := make(map[rune]bool, len(s))
	for _, r := range s {
		if seen[r] || runewidth.RuneWidth(r) != 1 {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
