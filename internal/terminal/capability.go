package terminal

import (
	"io"
	"strconv"

	"github.com/muesli/termenv"

	"livemtrx/internal/palette"
)

// Pair table bounds per class of terminal.
const (
	basicPairs    = 64
	extendedPairs = 256
)

// Capability is what the terminal can show.
type Capability struct {
	Profile  termenv.Profile
	Colors   int
	Extended bool
	MaxPairs int
}

// Detect combines the color count tcell read from terminfo with the profile
// termenv derived from the environment. A terminfo entry that undersells a
// terminal advertising 256 or true color through the environment is
// overruled; a monochrome profile always means basic.
func Detect(colors int, profile termenv.Profile) Capability {
	c := Capability{Profile: profile, Colors: colors}
	switch {
	case profile == termenv.Ascii:
	case colors >= 256:
		c.Extended = true
	case colors >= 8 && (profile == termenv.ANSI256 || profile == termenv.TrueColor):
		c.Extended = true
	}
	c.MaxPairs = basicPairs
	if c.Extended {
		c.MaxPairs = extendedPairs
	}
	return c
}

// EnvProfile reads the color profile of w from the environment.
func EnvProfile(w io.Writer) termenv.Profile {
	return termenv.NewOutput(w).EnvColorProfile()
}

// ProfileName is a human-readable profile name for logs.
func ProfileName(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "truecolor"
	case termenv.ANSI256:
		return "ansi256"
	case termenv.ANSI:
		return "ansi"
	default:
		return "ascii"
	}
}

// Swatch renders text in color c for printing outside the animation.
func Swatch(out *termenv.Output, c palette.Color, text string) string {
	return out.String(text).Foreground(out.Color(strconv.Itoa(int(c)))).String()
}
