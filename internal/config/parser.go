package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/peterbourgon/ff/v3"

	"livemtrx/internal/glyph"
	"livemtrx/internal/palette"
)

// EnvPrefix prefixes environment variables that mirror flags,
// e.g. LIVEMTRX_DEBUG for -debug.
const EnvPrefix = "LIVEMTRX"

// Parser turns flags, environment and an optional TOML file into a Config.
// Precedence, lowest first: defaults, file, environment, flags.
type Parser struct {
	fs    *flag.FlagSet
	flags Config // flag destinations
	path  string
	list  bool
	dump  bool
}

// NewParser defines the flags on a fresh FlagSet.
func NewParser(name string) *Parser {
	p := &Parser{
		fs:    flag.NewFlagSet(name, flag.ContinueOnError),
		flags: Default(),
	}
	fs, c := p.fs, &p.flags
	fs.StringVar(&p.path, "config", "", "TOML config file")
	fs.IntVar(&c.FPS, "fps", c.FPS, "frames per second (1-120)")
	fs.Float64Var(&c.Density, "density", c.Density, "stream density (0.05-1.0)")
	fs.Float64Var(&c.GlyphMix, "mix", c.GlyphMix, "share of decorative glyphs (0-1)")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed, 0 seeds from the clock")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "write a debug log")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "debug log path")
	fs.BoolVar(&c.Effects.Halo, "halo", c.Effects.Halo, "glow below each head")
	fs.BoolVar(&c.Effects.Scanlines, "scanlines", c.Effects.Scanlines, "dim alternate rows")
	fs.BoolVar(&c.Effects.Rolling, "rolling", c.Effects.Rolling, "sweep a scanline down the screen")
	fs.StringVar(&c.Effects.RollMode, "roll-mode", c.Effects.RollMode, "rolling scanline mode (bright, dim)")
	fs.BoolVar(&c.Effects.Chroma, "chroma", c.Effects.Chroma, "tinted fringes beside trails")
	fs.BoolVar(&c.Effects.ClearTail, "clear-tail", c.Effects.ClearTail, "blank rows behind each trail")
	fs.BoolVar(&p.list, "list", false, "list glyph pools and colors")
	fs.BoolVar(&p.dump, "dump-config", false, "print the effective config as TOML")
	return p
}

// FlagSet returns the parser's flags.
func (p *Parser) FlagSet() *flag.FlagSet { return p.fs }

// Options returns the ff options the FlagSet must be parsed with.
func (p *Parser) Options() []ff.Option {
	return []ff.Option{ff.WithEnvVarPrefix(EnvPrefix)}
}

// List reports whether -list was given.
func (p *Parser) List() bool { return p.list }

// Dump reports whether -dump-config was given.
func (p *Parser) Dump() bool { return p.dump }

// Parse parses args and the environment, then resolves the Config.
func (p *Parser) Parse(args []string) (*Config, error) {
	if err := ff.Parse(p.fs, args, p.Options()...); err != nil {
		return nil, err
	}
	return p.Resolve()
}

// Resolve builds the Config from an already parsed FlagSet.
func (p *Parser) Resolve() (*Config, error) {
	cfg := Default()
	if p.path != "" {
		if _, err := toml.DecodeFile(p.path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", p.path, err)
		}
	}
	p.fs.Visit(func(f *flag.Flag) {
		if set, ok := overrides[f.Name]; ok {
			set(&cfg, &p.flags)
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrides copies an explicitly set flag over the file value.
var overrides = map[string]func(dst, src *Config){
	"fps":        func(d, s *Config) { d.FPS = s.FPS },
	"density":    func(d, s *Config) { d.Density = s.Density },
	"mix":        func(d, s *Config) { d.GlyphMix = s.GlyphMix },
	"seed":       func(d, s *Config) { d.Seed = s.Seed },
	"debug":      func(d, s *Config) { d.Debug = s.Debug },
	"log-file":   func(d, s *Config) { d.LogFile = s.LogFile },
	"halo":       func(d, s *Config) { d.Effects.Halo = s.Effects.Halo },
	"scanlines":  func(d, s *Config) { d.Effects.Scanlines = s.Effects.Scanlines },
	"rolling":    func(d, s *Config) { d.Effects.Rolling = s.Effects.Rolling },
	"roll-mode":  func(d, s *Config) { d.Effects.RollMode = s.Effects.RollMode },
	"chroma":     func(d, s *Config) { d.Effects.Chroma = s.Effects.Chroma },
	"clear-tail": func(d, s *Config) { d.Effects.ClearTail = s.Effects.ClearTail },
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// ListOptions prints the glyph pools and color choices. swatch renders a
// sample in a given color and may be nil.
func ListOptions(w io.Writer, cfg *Config, swatch func(c palette.Color, text string) string) {
	if swatch == nil {
		swatch = func(_ palette.Color, text string) string { return text }
	}
	fmt.Fprintln(w, "Glyphs:")
	fmt.Fprintf(w, "  plain       %s\n", cfg.PlainGlyphs)
	fmt.Fprintf(w, "  decorative  %s\n", cfg.DecorativeGlyphs)
	fmt.Fprintf(w, "  built-in    %d plain, %d decorative\n", len([]rune(glyph.Plain)), len([]rune(glyph.Decorative)))
	fmt.Fprintln(w, "\nColors (8-color terminals):")
	for c := palette.Black + 1; c <= palette.White; c++ {
		fmt.Fprintf(w, "  %3d %s\n", c, swatch(c, "ﾊﾐﾋｰｳ"))
	}
	fmt.Fprintln(w, "\nColors (256-color themes):")
	for _, c := range []palette.Color{22, 28, 34, 40, 46, 30, 36, 42, 48, 82, 160, 250, 255} {
		fmt.Fprintf(w, "  %3d %s\n", c, swatch(c, "ﾊﾐﾋｰｳ"))
	}
	fmt.Fprintln(w, "\nFPS: 1-120")
	fmt.Fprintln(w, "Density: 0.05-1.0")
	fmt.Fprintln(w, "Keys: q quit, c cycle theme, r reseed, + denser, - sparser")
	fmt.Fprintf(w, "Debug: -debug or %s_DEBUG=1\n", EnvPrefix)
}
