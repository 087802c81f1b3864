// Package config holds the animation's tuning and loads it from defaults,
// an optional TOML file, flags and LIVEMTRX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"livemtrx/internal/glyph"
	"livemtrx/internal/render"
	"livemtrx/internal/stream"
	"livemtrx/internal/timing"
)

// Duration is a time.Duration written as "1.25s" in TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// seconds converts fractional seconds to a Duration.
func seconds(s float64) Duration {
	return Duration{time.Duration(s * float64(time.Second))}
}

// Config holds every tunable of the animation.
type Config struct {
	FPS         int     `toml:"fps"`
	Density     float64 `toml:"density"`
	DensityStep float64 `toml:"density_step"`
	Seed        int64   `toml:"seed"` // 0 seeds from the clock

	ThemePeriod  Duration `toml:"theme_period"`
	MoodPeriod   Duration `toml:"mood_period"`
	EaseDuration Duration `toml:"ease_duration"`
	LeadFlipMin  Duration `toml:"lead_flip_min"`
	LeadFlipMax  Duration `toml:"lead_flip_max"`
	MaxTick      Duration `toml:"max_tick"`

	MinSpeed  float64 `toml:"min_speed"`
	MaxSpeed  float64 `toml:"max_speed"`
	MinLength int     `toml:"min_length"`
	MaxLength int     `toml:"max_length"`

	GlyphMix         float64 `toml:"glyph_mix"`
	PlainGlyphs      string  `toml:"plain_glyphs"`
	DecorativeGlyphs string  `toml:"decorative_glyphs"`

	Effects Effects `toml:"effects"`

	Debug   bool   `toml:"debug"`
	LogFile string `toml:"log_file"`
}

// Effects holds the post-effect and redraw settings.
type Effects struct {
	Halo bool `toml:"halo"`

	Scanlines     bool `toml:"scanlines"`
	ScanlineEvery int  `toml:"scanline_every"`

	Rolling    bool     `toml:"rolling"`
	RollPeriod Duration `toml:"roll_period"`
	RollMode   string   `toml:"roll_mode"` // "bright" or "dim"

	Chroma          bool    `toml:"chroma"`
	ChromaStrength  float64 `toml:"chroma_strength"`
	ChromaApplyTo   string  `toml:"chroma_apply_to"`
	ChromaMaxOffset int     `toml:"chroma_max_offset"`

	Fade  float64 `toml:"fade"`
	Grain float64 `toml:"grain"`

	PartialRedraw   bool `toml:"partial_redraw"`
	Window          int  `toml:"window"`
	RepaintOverlays bool `toml:"repaint_overlays"`
	ClearTail       bool `toml:"clear_tail"`
}

// Default returns the stock tuning.
func Default() Config {
	fx := render.DefaultEffects
	p := stream.DefaultParams
	return Config{
		FPS:          45,
		Density:      0.75,
		DensityStep:  0.05,
		ThemePeriod:  seconds(30),
		MoodPeriod:   seconds(10),
		EaseDuration: seconds(1.25),
		LeadFlipMin:  seconds(6),
		LeadFlipMax:  seconds(16),
		MaxTick:      Duration{time.Second / 30},

		MinSpeed:  p.MinSpeed,
		MaxSpeed:  p.MaxSpeed,
		MinLength: p.MinLength,
		MaxLength: p.MaxLength,

		GlyphMix:         0.28,
		PlainGlyphs:      glyph.Plain,
		DecorativeGlyphs: glyph.Decorative,

		Effects: Effects{
			Halo:            fx.Halo,
			Scanlines:       fx.Scanlines,
			ScanlineEvery:   fx.ScanlineEvery,
			Rolling:         fx.Rolling,
			RollPeriod:      Duration{fx.RollPeriod},
			RollMode:        "bright",
			Chroma:          fx.Chroma,
			ChromaStrength:  fx.ChromaStrength,
			ChromaApplyTo:   string(fx.ChromaScope),
			ChromaMaxOffset: fx.ChromaMaxOffset,
			Fade:            fx.FadeChance,
			Grain:           fx.GrainChance,
			PartialRedraw:   fx.PartialRedraw,
			Window:          fx.Window,
			RepaintOverlays: fx.RepaintOverlays,
			ClearTail:       fx.ClearTail,
		},

		LogFile: "/tmp/livemtrx.log",
	}
}

// Validate checks the configuration for validity.
func (c *Config) Validate() error {
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("fps out of range (1-120): got %d", c.FPS)
	}
	if c.Density < 0.05 || c.Density > 1.0 {
		return fmt.Errorf("density out of range (0.05-1.0): got %.2f", c.Density)
	}
	if c.DensityStep <= 0 || c.DensityStep > 1 {
		return fmt.Errorf("density step out of range (0-1]: got %.2f", c.DensityStep)
	}
	if c.MinLength <= 0 || c.MaxLength < c.MinLength {
		return errors.New("invalid trail length configuration")
	}
	if c.MinSpeed <= 0 || c.MaxSpeed < c.MinSpeed {
		return errors.New("invalid speed configuration")
	}
	if c.GlyphMix < 0 || c.GlyphMix > 1 {
		return fmt.Errorf("glyph mix out of range (0-1): got %.2f", c.GlyphMix)
	}
	for name, d := range map[string]Duration{
		"theme_period":  c.ThemePeriod,
		"mood_period":   c.MoodPeriod,
		"ease_duration": c.EaseDuration,
		"lead_flip_min": c.LeadFlipMin,
		"max_tick":      c.MaxTick,
		"roll_period":   c.Effects.RollPeriod,
	} {
		if d.Duration <= 0 {
			return fmt.Errorf("%s must be positive: got %s", name, d)
		}
	}
	if c.LeadFlipMax.Duration < c.LeadFlipMin.Duration {
		return errors.New("lead_flip_max is shorter than lead_flip_min")
	}
	return c.Effects.validate()
}

// validate checks the effect settings for validity.
func (e *Effects) validate() error {
	for name, p := range map[string]float64{
		"chroma_strength": e.ChromaStrength,
		"fade":            e.Fade,
		"grain":           e.Grain,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s out of range (0-1): got %.3f", name, p)
		}
	}
	if e.ScanlineEvery < 1 {
		return fmt.Errorf("scanline_every must be at least 1: got %d", e.ScanlineEvery)
	}
	if e.Window < 1 {
		return fmt.Errorf("window must be at least 1: got %d", e.Window)
	}
	if e.ChromaMaxOffset < 1 {
		return fmt.Errorf("chroma_max_offset must be at least 1: got %d", e.ChromaMaxOffset)
	}
	switch e.RollMode {
	case "bright", "dim":
	default:
		return fmt.Errorf("unknown roll_mode: %s", e.RollMode)
	}
	switch render.ChromaScope(e.ChromaApplyTo) {
	case render.ChromaHeadOnly, render.ChromaHeadPlus, render.ChromaAll:
	default:
		return fmt.Errorf("unknown chroma_apply_to: %s", e.ChromaApplyTo)
	}
	return nil
}

// FrameDuration is the nominal time between frames.
func (c *Config) FrameDuration() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// Timing converts the config for the timing controller.
func (c *Config) Timing() timing.Config {
	return timing.Config{
		FrameDuration: c.FrameDuration(),
		ThemePeriod:   c.ThemePeriod.Duration,
		MoodPeriod:    c.MoodPeriod.Duration,
		EaseDuration:  c.EaseDuration.Duration,
		LeadFlipMin:   c.LeadFlipMin.Duration,
		LeadFlipMax:   c.LeadFlipMax.Duration,
		MaxTick:       c.MaxTick.Duration,
	}
}

// Params converts the config for the stream spawner.
func (c *Config) Params() stream.Params {
	p := stream.DefaultParams
	p.MinLength, p.MaxLength = c.MinLength, c.MaxLength
	p.MinSpeed, p.MaxSpeed = c.MinSpeed, c.MaxSpeed
	return p
}

// RenderEffects converts the config for the renderer.
func (c *Config) RenderEffects() render.Effects {
	fx := render.DefaultEffects
	e := c.Effects
	fx.Halo = e.Halo
	fx.Scanlines, fx.ScanlineEvery = e.Scanlines, e.ScanlineEvery
	fx.Rolling, fx.RollPeriod, fx.RollBright = e.Rolling, e.RollPeriod.Duration, e.RollMode == "bright"
	fx.Chroma, fx.ChromaStrength = e.Chroma, e.ChromaStrength
	fx.ChromaScope, fx.ChromaMaxOffset = render.ChromaScope(e.ChromaApplyTo), e.ChromaMaxOffset
	fx.FadeChance, fx.GrainChance = e.Fade, e.Grain
	fx.PartialRedraw, fx.Window = e.PartialRedraw, e.Window
	fx.RepaintOverlays, fx.ClearTail = e.RepaintOverlays, e.ClearTail
	return fx
}
