package render

import (
	"slices"
	"time"

	"livemtrx/internal/palette"
	"livemtrx/internal/rng"
	"livemtrx/internal/stream"
)

// ChromaScope selects which tiers may grow a chroma fringe.
type ChromaScope string

// Chroma scopes.
const (
	ChromaHeadOnly ChromaScope = "head_only"
	ChromaHeadPlus ChromaScope = "head_plus"
	ChromaAll      ChromaScope = "all"
)

// Effects configures the post effects and the redraw policy.
type Effects struct {
	Halo bool

	Scanlines     bool
	ScanlineEvery int

	Rolling    bool
	RollPeriod time.Duration
	RollBright bool

	Chroma          bool
	ChromaStrength  float64
	ChromaScope     ChromaScope
	ChromaMaxOffset int

	FadeChance  float64
	GrainChance float64
	GrainGlyph  rune

	// DeepDarken is how many palette steps the deep tail is darkened by on
	// extended terminals.
	DeepDarken int

	// PartialRedraw limits a stream that crossed a row to its Window
	// offsets nearest the head.
	PartialRedraw bool
	Window        int

	// RepaintOverlays redraws the full trail of a stream that did not cross
	// a row so overlay changes reach the screen; otherwise it is skipped.
	RepaintOverlays bool

	// ClearTail blanks the rows a trail has just vacated.
	ClearTail bool
}

// DefaultEffects is the stock look.
var DefaultEffects = Effects{
	Halo:            true,
	Scanlines:       true,
	ScanlineEvery:   2,
	Rolling:         true,
	RollPeriod:      10 * time.Second,
	RollBright:      true,
	Chroma:          true,
	ChromaStrength:  0.06,
	ChromaScope:     ChromaHeadPlus,
	ChromaMaxOffset: 1,
	FadeChance:      0.10,
	GrainChance:     0.002,
	GrainGlyph:      '·',
	DeepDarken:      10,
	PartialRedraw:   true,
	Window:          4,
	RepaintOverlays: true,
	ClearTail:       true,
}

// Frame is what the renderer needs to know about the frame being drawn.
type Frame struct {
	Width    int
	Height   int
	Elapsed  time.Duration
	Theme    palette.Theme
	Lead     palette.Color
	LeadGrey bool
}

// Renderer draws streams through a Damage buffer.
type Renderer struct {
	damage *Damage
	colors *palette.Manager
	fx     Effects
	random rng.Source

	rollRow int
	dropped int

	// theme is the palette bodies were picked from.
	theme  palette.Theme
	bodies []spawnColor

	// fringes are the cells painted by the chroma fringe last frame.
	fringes []fringeCell
}

// spawnColor is the body color of one spawn of a stream.
type spawnColor struct {
	s     *stream.Stream
	gen   uint64
	color palette.Color
}

type fringeCell struct {
	x, y  int
	glyph rune
	attr  palette.Attr
}

// NewRenderer wires a renderer to its buffer, pair table and random source.
func NewRenderer(damage *Damage, colors *palette.Manager, fx Effects, random rng.Source) *Renderer {
	return &Renderer{damage: damage, colors: colors, fx: fx, random: random, rollRow: -1}
}

// Begin prepares per-frame overlay state. Fringes from the previous frame
// are blanked unless something else has drawn over them since, and a new
// theme releases every stream's body color.
func (r *Renderer) Begin(f *Frame) {
	r.rollRow = -1
	if r.fx.Rolling {
		r.rollRow = RollRow(f.Elapsed, r.fx.RollPeriod, f.Height)
	}
	for _, c := range r.fringes {
		if r.damage.Holds(c.x, c.y, c.glyph, c.attr) {
			r.put(c.x, c.y, ' ', palette.Plain)
		}
	}
	r.fringes = r.fringes[:0]
	if !slices.Equal(r.theme, f.Theme) {
		r.theme = slices.Clone(f.Theme)
		clear(r.bodies)
	}
}

// bodyColor is the body color of s for its current spawn, picked from the
// theme the first time the spawn is drawn.
func (r *Renderer) bodyColor(s *stream.Stream, f *Frame) palette.Color {
	if s.X < 0 {
		return f.Theme.Pick(r.random)
	}
	if s.X >= len(r.bodies) {
		r.bodies = slices.Grow(r.bodies, s.X+1-len(r.bodies))[:s.X+1]
	}
	b := &r.bodies[s.X]
	if b.s != s || b.gen != s.Generation {
		*b = spawnColor{s: s, gen: s.Generation, color: f.Theme.Pick(r.random)}
	}
	return b.color
}

// Dropped counts writes discarded because the surface rejected them.
func (r *Renderer) Dropped() int { return r.dropped }

// ComputeAttr resolves the base attribute of trail offset i, and the color
// it resolved to, from the stream's tier table.
func (r *Renderer) ComputeAttr(i int, s *stream.Stream, body, lead palette.Color, leadGrey bool) (palette.Attr, palette.Color) {
	tier := stream.TierBody
	if i < len(s.LUT) {
		tier = s.LUT[i]
	}
	ext := r.colors.Extended()
	switch tier {
	case stream.TierLead:
		e := palette.Bold
		if !ext && leadGrey {
			e = e.With(palette.Dim)
		}
		return r.colors.Attr(lead, e), lead
	case stream.TierNear:
		return r.colors.Attr(body, palette.Bold), body
	case stream.TierBody:
		return r.colors.Attr(body, 0), body
	default:
		fg := palette.Darken(body, r.fx.DeepDarken, ext)
		return r.colors.Attr(fg, palette.Dim), fg
	}
}

// DrawStream draws s after it shifted steps times this frame. A stream that
// crossed a row repaints only its window nearest the head; one that did not
// is repainted in full when overlays are kept fresh, or skipped.
func (r *Renderer) DrawStream(s *stream.Stream, steps int, f *Frame) {
	if !s.Active {
		return
	}
	n := s.Length
	switch {
	case steps > 0 && r.fx.PartialRedraw:
		n = min(r.fx.Window, s.Length)
	case steps == 0 && !r.fx.RepaintOverlays:
		return
	}

	head := s.HeadRow()
	body := r.bodyColor(s, f)
	for i := range n {
		y := head - i
		if y < 0 || y >= f.Height {
			continue
		}
		glyph := s.Chars[i]
		attr, fg := r.ComputeAttr(i, s, body, f.Lead, f.LeadGrey)
		if i == 0 && r.fx.Halo && y+1 < f.Height {
			r.put(s.X, y+1, glyph, r.colors.Attr(fg, palette.Dim))
		}
		r.put(s.X, y, glyph, r.overlay(y, attr))
		r.fringe(s, i, y, glyph, fg, f)
	}

	if steps > 0 && r.fx.ClearTail {
		end := head - s.Length
		for k := range min(steps, s.Length) {
			if y := end - k; y >= 0 && y < f.Height {
				r.put(s.X, y, ' ', palette.Plain)
			}
		}
	}
}

// Perturb applies the sparse single-cell effects: a random cell fading to
// blank and, more rarely, a speck of grain.
func (r *Renderer) Perturb(f *Frame) {
	if f.Width <= 0 || f.Height <= 0 {
		return
	}
	if rng.Chance(r.random, r.fx.FadeChance) {
		r.put(r.random.Intn(f.Width), r.random.Intn(f.Height), ' ', palette.Plain)
	}
	if rng.Chance(r.random, r.fx.GrainChance) {
		r.put(r.random.Intn(f.Width), r.random.Intn(f.Height), r.fx.GrainGlyph, palette.Attr{Emphasis: palette.Dim})
	}
}

// overlay adds the scanline emphasis for row y. It never changes the color.
func (r *Renderer) overlay(y int, a palette.Attr) palette.Attr {
	if r.fx.Scanlines && ScanlineRow(y, r.fx.ScanlineEvery) {
		a = a.With(palette.Dim)
	}
	if y == r.rollRow {
		if r.fx.RollBright {
			a = a.With(palette.Bold)
		} else {
			a = a.With(palette.Dim)
		}
	}
	return a
}

// fringe paints a faint tinted copy of a glyph into an adjacent empty cell.
func (r *Renderer) fringe(s *stream.Stream, i, y int, glyph rune, fg palette.Color, f *Frame) {
	if !r.fx.Chroma || !r.fringeTier(s, i) || !rng.Chance(r.random, r.fx.ChromaStrength) {
		return
	}
	dir := 1
	if r.random.Intn(2) == 0 {
		dir = -1
	}
	x := s.X + dir*(1+r.random.Intn(max(r.fx.ChromaMaxOffset, 1)))
	if x < 0 || x >= f.Width || !r.damage.Blank(x, y) {
		return
	}
	a := r.colors.Attr(palette.Tint(fg, dir, r.colors.Extended()), palette.Dim)
	if r.put(x, y, glyph, a) {
		r.fringes = append(r.fringes, fringeCell{x: x, y: y, glyph: glyph, attr: a})
	}
}

// fringeTier reports whether trail offset i may grow a fringe.
func (r *Renderer) fringeTier(s *stream.Stream, i int) bool {
	switch r.fx.ChromaScope {
	case ChromaAll:
		return true
	case ChromaHeadPlus:
		return i < len(s.LUT) && s.LUT[i] <= stream.TierNear
	default:
		return i == 0
	}
}

// put is the single write path. A rejected write is dropped without retry:
// one missing cell for one frame is not visible. It reports whether the
// cell now shows glyph.
func (r *Renderer) put(x, y int, glyph rune, a palette.Attr) bool {
	if err := r.damage.Put(x, y, glyph, a); err != nil {
		r.dropped++
		return false
	}
	return true
}

// ScanlineRow reports whether row y is a dimmed scanline.
func ScanlineRow(y, every int) bool {
	return every > 0 && y%every == 0
}

// RollRow maps elapsed time onto the row the rolling scanline occupies.
func RollRow(elapsed, period time.Duration, height int) int {
	if height <= 0 || period <= 0 {
		return 0
	}
	return int(elapsed.Seconds()/period.Seconds()*float64(height)) % height
}
