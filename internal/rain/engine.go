// Package rain runs the animation: it owns the streams and drives input,
// timing, stream updates and drawing once per frame.
package rain

import (
	"context"
	"math/rand"
	"time"

	clog "github.com/charmbracelet/log"

	"livemtrx/internal/glyph"
	"livemtrx/internal/palette"
	"livemtrx/internal/render"
	"livemtrx/internal/rng"
	"livemtrx/internal/stream"
	"livemtrx/internal/terminal"
	"livemtrx/internal/timing"
)

// Terminal is the display the engine draws on.
type Terminal interface {
	render.Surface
	Size() (width, height int)
	Poll() (terminal.Key, bool)
	Clear()
	Show()
}

// Options tunes an Engine.
type Options struct {
	Density     float64
	DensityStep float64
	Params      stream.Params
	Timing      timing.Config
	Effects     render.Effects
}

// State is everything the frame loop mutates between frames.
type State struct {
	Width   int
	Height  int
	Density float64
	Streams []*stream.Stream
	Frames  int
}

// Engine is the per-frame pipeline.
type Engine struct {
	term   Terminal
	clock  timing.Clock
	random *rand.Rand
	colors *palette.Manager
	opts   Options
	log    *clog.Logger

	spawner  *stream.Spawner
	timer    *timing.Controller
	damage   *render.Damage
	renderer *render.Renderer

	state State
}

// New builds an engine sized to the terminal. random is shared by every
// component so a reseed affects them all.
func New(term Terminal, colors *palette.Manager, glyphs glyph.Source, random *rand.Rand, clock timing.Clock, opts Options, logger *clog.Logger) *Engine {
	w, h := term.Size()
	damage := render.NewDamage(term, w, h)
	e := &Engine{
		term:     term,
		clock:    clock,
		random:   random,
		colors:   colors,
		opts:     opts,
		log:      logger,
		spawner:  stream.NewSpawner(opts.Params, glyphs, random),
		timer:    timing.New(opts.Timing, random, colors.Extended(), clock.Now()),
		damage:   damage,
		renderer: render.NewRenderer(damage, colors, opts.Effects, random),
		state:    State{Density: opts.Density},
	}
	e.Resize(w, h)
	return e
}

// State exposes the frame loop state.
func (e *Engine) State() *State { return &e.state }

// Damage exposes the damage buffer.
func (e *Engine) Damage() *render.Damage { return e.damage }

// Timer exposes the timing controller.
func (e *Engine) Timer() *timing.Controller { return e.timer }

// Run steps frames until quit is requested or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	wait := time.NewTimer(0)
	defer wait.Stop()
	<-wait.C

	for {
		sleep, quit := e.Step()
		if quit {
			return nil
		}
		wait.Reset(sleep)
		select {
		case <-ctx.Done():
			return nil
		case <-wait.C:
		}
	}
}

// Step renders one frame and returns how long to sleep before the next,
// and whether the user asked to quit.
func (e *Engine) Step() (time.Duration, bool) {
	start := e.clock.Now()
	if k, ok := e.term.Poll(); ok {
		if e.Handle(ActionFor(k), start) {
			return 0, true
		}
	}
	if w, h := e.term.Size(); w != e.state.Width || h != e.state.Height {
		e.Resize(w, h)
	}

	tf := e.timer.Tick(start)
	e.logEvents(tf)

	f := render.Frame{
		Width:    e.state.Width,
		Height:   e.state.Height,
		Elapsed:  tf.Elapsed,
		Theme:    tf.Theme,
		Lead:     palette.LeadColor(e.random, e.colors.Extended(), tf.LeadGrey),
		LeadGrey: tf.LeadGrey,
	}
	e.renderer.Begin(&f)
	e.renderer.Perturb(&f)

	glyphs := e.spawner.Glyphs()
	for _, s := range e.state.Streams {
		if !s.Active {
			e.spawner.Reactivate(s, e.state.Density)
			continue
		}
		steps := s.Advance(tf.Dt, tf.SpeedFactor, glyphs)
		if e.spawner.Recycle(s, e.state.Height, e.state.Density) {
			continue
		}
		if steps == 0 {
			e.spawner.Mutate(s)
		}
		e.renderer.DrawStream(s, steps, &f)
	}
	e.term.Show()
	e.state.Frames++

	return e.timer.Sleep(e.state.Streams, start, e.clock.Now()), false
}

// Handle applies an action. It reports whether the engine should stop.
func (e *Engine) Handle(a Action, now time.Time) bool {
	switch a {
	case ActionQuit:
		return true
	case ActionTheme:
		e.timer.RotateTheme(now)
		e.log.Debug("theme cycled", "theme", e.timer.Theme())
	case ActionReseed:
		rng.Reseed(e.random)
		e.repopulate()
		e.log.Debug("reseeded")
	case ActionDenser, ActionSparser:
		delta := e.opts.DensityStep
		if a == ActionSparser {
			delta = -delta
		}
		e.state.Density = StepDensity(e.state.Density, delta)
		e.repopulate()
		e.log.Debug("density changed", "density", e.state.Density)
	}
	return false
}

// Resize adopts new dimensions: every column gets a fresh stream and the
// whole screen is redrawn.
func (e *Engine) Resize(width, height int) {
	e.state.Width, e.state.Height = width, height
	e.repopulate()
	e.log.Debug("resized", "width", width, "height", height, "streams", len(e.state.Streams))
}

// repopulate respawns every column and forces a full repaint.
func (e *Engine) repopulate() {
	e.state.Streams = e.spawner.Populate(e.state.Width, e.state.Density)
	e.damage.Reset(e.state.Width, e.state.Height)
	e.term.Clear()
}

// logEvents records the periodic events fired on this frame.
func (e *Engine) logEvents(f timing.Frame) {
	if f.Events.Has(timing.ThemeRotated) {
		e.log.Debug("theme rotated", "theme", f.Theme)
	}
	if f.Events.Has(timing.MoodChanged) {
		e.log.Debug("mood changed", "from", f.SpeedFactor, "target", e.timer.Target())
	}
	if f.Events.Has(timing.LeadFlipped) {
		e.log.Debug("lead flipped", "grey", f.LeadGrey)
	}
	if n := e.renderer.Dropped(); n > 0 && e.state.Frames%256 == 0 {
		e.log.Debug("writes dropped", "total", n)
	}
}
