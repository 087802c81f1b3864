package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"livemtrx/internal/palette"
	"livemtrx/internal/render"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.FrameDuration(); got != time.Second/45 {
		t.Errorf("FrameDuration() = %v, want %v", got, time.Second/45)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fps zero", func(c *Config) { c.FPS = 0 }},
		{"fps too high", func(c *Config) { c.FPS = 500 }},
		{"density low", func(c *Config) { c.Density = 0.01 }},
		{"density high", func(c *Config) { c.Density = 1.5 }},
		{"lengths inverted", func(c *Config) { c.MinLength, c.MaxLength = 20, 10 }},
		{"speed zero", func(c *Config) { c.MinSpeed = 0 }},
		{"mix", func(c *Config) { c.GlyphMix = 2 }},
		{"mood period", func(c *Config) { c.MoodPeriod = Duration{} }},
		{"lead flip window", func(c *Config) { c.LeadFlipMax = seconds(1) }},
		{"fade", func(c *Config) { c.Effects.Fade = -0.1 }},
		{"window", func(c *Config) { c.Effects.Window = 0 }},
		{"roll mode", func(c *Config) { c.Effects.RollMode = "sideways" }},
		{"chroma scope", func(c *Config) { c.Effects.ChromaApplyTo = "tail" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.FPS = 30
	cfg.MinLength, cfg.MaxLength = 5, 6
	cfg.Effects.RollMode = "dim"
	cfg.Effects.ChromaApplyTo = "all"

	tc := cfg.Timing()
	if tc.FrameDuration != time.Second/30 || tc.MoodPeriod != 10*time.Second || tc.EaseDuration != 1250*time.Millisecond {
		t.Errorf("Timing() = %+v", tc)
	}
	p := cfg.Params()
	if p.MinLength != 5 || p.MaxLength != 6 || p.Margin != 2 {
		t.Errorf("Params() = %+v", p)
	}
	fx := cfg.RenderEffects()
	if fx.RollBright || fx.ChromaScope != render.ChromaAll || fx.GrainGlyph != '·' {
		t.Errorf("RenderEffects() = %+v", fx)
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := NewParser("test").Parse([]string{"-fps", "60", "-density", "0.5", "-scanlines=false"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.FPS != 60 || cfg.Density != 0.5 || cfg.Effects.Scanlines {
		t.Errorf("flags not applied: fps=%d density=%.2f scanlines=%v", cfg.FPS, cfg.Density, cfg.Effects.Scanlines)
	}
	if !cfg.Effects.Rolling {
		t.Error("unset flag changed its default")
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("LIVEMTRX_DEBUG", "true")
	t.Setenv("LIVEMTRX_FPS", "24")
	cfg, err := NewParser("test").Parse([]string{"-fps", "30"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("LIVEMTRX_DEBUG ignored")
	}
	if cfg.FPS != 30 {
		t.Errorf("flag should beat environment: fps=%d", cfg.FPS)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	if _, err := NewParser("test").Parse([]string{"-density", "3"}); err == nil {
		t.Error("expected error for density 3")
	}
}

func TestFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rain.toml")
	const doc = `
fps = 20
density = 0.4
mood_period = "5s"

[effects]
halo = false
roll_mode = "dim"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewParser("test").Parse([]string{"-config", path, "-density", "0.9"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.FPS != 20 {
		t.Errorf("fps = %d, want 20 from file", cfg.FPS)
	}
	if cfg.Density != 0.9 {
		t.Errorf("density = %.2f, want 0.9 from flag", cfg.Density)
	}
	if cfg.MoodPeriod.Duration != 5*time.Second {
		t.Errorf("mood_period = %v, want 5s", cfg.MoodPeriod)
	}
	if cfg.Effects.Halo || cfg.Effects.RollMode != "dim" {
		t.Errorf("effects not read from file: %+v", cfg.Effects)
	}
	if !cfg.Effects.Scanlines {
		t.Error("key missing from file lost its default")
	}
}

func TestMissingFile(t *testing.T) {
	_, err := NewParser("test").Parse([]string{"-config", filepath.Join(t.TempDir(), "nope.toml")})
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("err = %v, want read failure", err)
	}
}

func TestWriteReadsBack(t *testing.T) {
	want := Default()
	want.Effects.RollMode = "dim"
	var buf bytes.Buffer
	if err := Write(&buf, &want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), `ease_duration = "1.25s"`) {
		t.Errorf("durations should be written as strings:\n%s", buf.String())
	}
	var got Config
	if _, err := toml.Decode(buf.String(), &got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded config differs:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestDurationRejectsGarbage(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("expected parse error")
	}
}

func TestListOptions(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	calls := 0
	ListOptions(&buf, &cfg, func(c palette.Color, text string) string {
		calls++
		return text
	})
	out := buf.String()
	for _, want := range []string{"Glyphs:", "Density: 0.05-1.0", "LIVEMTRX_DEBUG"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if calls == 0 {
		t.Error("swatch never called")
	}
}
