package palette

import "livemtrx/internal/rng"

// Theme is an ordered set of body colors, one of which is picked per stream
// per frame.
type Theme []Color

// themeSize caps an extended theme.
const themeSize = 10

// NewTheme generates a theme. Extended terminals mostly stay in green and
// teal, with occasional neon greens and rare reds and purples.
func NewTheme(random rng.Source, extended bool) Theme {
	if !extended {
		t := Theme{Green, Cyan, Yellow}
		rng.Shuffle(random, len(t), func(i, j int) { t[i], t[j] = t[j], t[i] })
		return t
	}

	var base Theme
	base = appendRange(base, 22, 46) // greens
	base = appendRange(base, 30, 51) // teals
	if rng.Chance(random, 0.35) {
		base = appendRange(base, 82, 86) // neons
	}
	if rng.Chance(random, 0.08) {
		base = appendRange(base, 160, 200) // chaos
	}
	rng.Shuffle(random, len(base), func(i, j int) { base[i], base[j] = base[j], base[i] })
	if len(base) > themeSize {
		base = base[:themeSize]
	}
	return base
}

// Pick returns one color of the theme, or green for an empty theme.
func (t Theme) Pick(random rng.Source) Color {
	if len(t) == 0 {
		return Green
	}
	return t[random.Intn(len(t))]
}

// greys are the candidate heads when the lead flavor is grey.
var greys = []Color{250, 251, 252, 253, 254, 255}

// LeadColor picks the head color for a frame.
func LeadColor(random rng.Source, extended, grey bool) Color {
	if !extended {
		return White
	}
	if grey {
		return greys[random.Intn(len(greys))]
	}
	return MaxColor
}

// appendRange appends the colors lo through hi inclusive.
func appendRange(t Theme, lo, hi Color) Theme {
	for c := lo; c <= hi; c++ {
		t = append(t, c)
	}
	return t
}
