package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/term"

	"livemtrx/internal/config"
	"livemtrx/internal/glyph"
	"livemtrx/internal/logging"
	"livemtrx/internal/palette"
	"livemtrx/internal/rain"
	"livemtrx/internal/rng"
	"livemtrx/internal/terminal"
	"livemtrx/internal/timing"
)

const longHelp = `Digital rain for the terminal.

Keys:
  q, Esc, Ctrl-C  quit
  c               cycle the color theme
  r               reseed
  + / -           more or fewer streams

Every flag can also be set as LIVEMTRX_<FLAG>, e.g. LIVEMTRX_DEBUG=1.`

// MatrixRain wires the terminal, the engine and the debug log together.
type MatrixRain struct {
	screen *terminal.Screen
	engine *rain.Engine
	logger *clog.Logger
}

// NewMatrixRain opens the terminal and builds the engine for cfg.
func NewMatrixRain(cfg *config.Config, logger *clog.Logger) (*MatrixRain, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	random := rng.New(seed)

	glyphs, err := glyph.NewPool(cfg.PlainGlyphs, cfg.DecorativeGlyphs, cfg.GlyphMix, random)
	if err != nil {
		return nil, fmt.Errorf("failed to build glyph pool: %w", err)
	}

	screen, err := terminal.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	caps := terminal.Detect(screen.Colors(), terminal.EnvProfile(os.Stdout))
	colors := palette.NewManager(caps.Extended, caps.MaxPairs)
	screen.Bind(colors)

	engine := rain.New(screen, colors, glyphs, random, timing.SystemClock{}, rain.Options{
		Density:     cfg.Density,
		DensityStep: cfg.DensityStep,
		Params:      cfg.Params(),
		Timing:      cfg.Timing(),
		Effects:     cfg.RenderEffects(),
	}, logger)

	w, h := screen.Size()
	logger.Info("starting",
		"size", fmt.Sprintf("%dx%d", w, h),
		"colors", caps.Colors,
		"profile", terminal.ProfileName(caps.Profile),
		"extended", caps.Extended,
		"pairs", caps.MaxPairs,
		"seed", seed,
		"fps", cfg.FPS,
		"density", cfg.Density)

	return &MatrixRain{screen: screen, engine: engine, logger: logger}, nil
}

// Run animates until quit, interrupt or SIGTERM. The terminal is restored on
// every way out; a panic is logged and re-raised after the restore.
func (r *MatrixRain) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		r.screen.Close()
		if p := recover(); p != nil {
			r.logger.Error("panic", "err", p)
			panic(p)
		}
	}()

	r.screen.Start()
	if err := r.engine.Run(ctx); err != nil {
		return fmt.Errorf("animation failed: %w", err)
	}
	st := r.engine.State()
	r.logger.Info("stopped", "frames", st.Frames, "density", st.Density)
	return nil
}

// run resolves the config and runs the animation or the requested listing.
func run(ctx context.Context, p *config.Parser) error {
	cfg, err := p.Resolve()
	if err != nil {
		return err
	}
	if p.List() {
		out := termenv.NewOutput(os.Stdout)
		config.ListOptions(os.Stdout, cfg, func(c palette.Color, text string) string {
			return terminal.Swatch(out, c, text)
		})
		return nil
	}
	if p.Dump() {
		return config.Write(os.Stdout, cfg)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal")
	}

	logger, closer, err := logging.New(cfg.Debug, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	app, err := NewMatrixRain(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return err
	}
	return app.Run(ctx)
}

func main() {
	parser := config.NewParser("livemtrx")
	root := &ffcli.Command{
		Name:       "livemtrx",
		ShortUsage: "livemtrx [flags]",
		LongHelp:   longHelp,
		FlagSet:    parser.FlagSet(),
		Options:    parser.Options(),
		Exec: func(ctx context.Context, _ []string) error {
			return run(ctx, parser)
		},
	}
	if err := root.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
