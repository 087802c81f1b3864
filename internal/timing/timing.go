// Package timing owns the frame clock and the slow periodic processes layered
// on it: theme rotation, speed moods with eased transitions, lead flavor
// flips, and the predictive sleep that decides when the next frame is due.
package timing

import (
	"math"
	"time"

	"livemtrx/internal/palette"
	"livemtrx/internal/rng"
	"livemtrx/internal/stream"
)

// Config holds the controller's periods and bounds.
type Config struct {
	// FrameDuration substitutes for a non-positive wall-clock delta and
	// bounds the frame rate.
	FrameDuration time.Duration
	ThemePeriod   time.Duration
	MoodPeriod    time.Duration
	EaseDuration  time.Duration
	LeadFlipMin   time.Duration
	LeadFlipMax   time.Duration
	// MaxTick caps every sleep so input stays responsive.
	MaxTick time.Duration
}

// Events reports which periodic processes fired on a tick.
type Events uint8

// Tick events.
const (
	ThemeRotated Events = 1 << iota
	MoodChanged
	LeadFlipped
)

// Has reports whether e includes ev.
func (e Events) Has(ev Events) bool { return e&ev != 0 }

// Frame is the timing state a single frame renders with.
type Frame struct {
	Now         time.Time
	Dt          float64 // seconds since the previous frame
	Elapsed     time.Duration
	SpeedFactor float64
	LeadGrey    bool
	Theme       palette.Theme
	Events      Events
}

// Controller advances the clock once per frame. It is not safe for
// concurrent use; the frame loop owns it.
type Controller struct {
	cfg      Config
	random   rng.Source
	extended bool

	start time.Time
	last  time.Time

	theme     palette.Theme
	nextTheme time.Time

	factor    float64
	target    float64
	easeFrom  float64
	easeStart time.Time
	nextMood  time.Time

	leadGrey     bool
	nextLeadFlip time.Time
}

// New starts a controller at now. extended selects the theme generator for
// 256-color terminals.
func New(cfg Config, random rng.Source, extended bool, now time.Time) *Controller {
	c := &Controller{
		cfg:       cfg,
		random:    random,
		extended:  extended,
		start:     now,
		last:      now,
		factor:    1,
		target:    1,
		easeFrom:  1,
		easeStart: now,
		nextMood:  now.Add(cfg.MoodPeriod),
	}
	c.RotateTheme(now)
	c.leadGrey = rng.Chance(random, 0.5)
	c.nextLeadFlip = now.Add(c.leadFlipDelay())
	return c
}

// Tick advances the clock to now, fires any due periodic process and
// resolves the speed factor.
func (c *Controller) Tick(now time.Time) Frame {
	dt := now.Sub(c.last).Seconds()
	c.last = now
	if dt <= 0 {
		dt = c.cfg.FrameDuration.Seconds()
	}

	var ev Events
	if !now.Before(c.nextTheme) {
		c.RotateTheme(now)
		ev |= ThemeRotated
	}
	if !now.Before(c.nextLeadFlip) {
		c.leadGrey = !c.leadGrey
		c.nextLeadFlip = now.Add(c.leadFlipDelay())
		ev |= LeadFlipped
	}
	if !now.Before(c.nextMood) {
		c.nextMood = now.Add(c.cfg.MoodPeriod)
		c.easeStart = now
		c.easeFrom = c.factor
		c.target = PickMood(c.random)
		ev |= MoodChanged
	}
	c.factor = Ease(c.easeFrom, c.target, now.Sub(c.easeStart), c.cfg.EaseDuration)

	return Frame{
		Now:         now,
		Dt:          dt,
		Elapsed:     now.Sub(c.start),
		SpeedFactor: c.factor,
		LeadGrey:    c.leadGrey,
		Theme:       c.theme,
		Events:      ev,
	}
}

// RotateTheme regenerates the palette now and restarts its period.
func (c *Controller) RotateTheme(now time.Time) {
	c.theme = palette.NewTheme(c.random, c.extended)
	c.nextTheme = now.Add(c.cfg.ThemePeriod)
}

// Theme is the active body palette.
func (c *Controller) Theme() palette.Theme { return c.theme }

// SpeedFactor is the factor resolved on the last tick.
func (c *Controller) SpeedFactor() float64 { return c.factor }

// Target is the speed factor the current ease is heading to.
func (c *Controller) Target() float64 { return c.target }

// LeadGrey reports the current lead flavor.
func (c *Controller) LeadGrey() bool { return c.leadGrey }

// Sleep returns how long the loop may sleep after a frame that started at
// frameStart and finished at now. It is the predictive wake time, raised to
// keep the frame rate at or below the nominal one, and never negative.
func (c *Controller) Sleep(streams []*stream.Stream, frameStart, now time.Time) time.Duration {
	wake := NextWake(streams, c.factor, c.cfg.MaxTick)
	if budget := c.cfg.FrameDuration - now.Sub(frameStart); budget > wake {
		wake = budget
	}
	return max(wake, 0)
}

// leadFlipDelay draws the time until the next lead flavor flip.
func (c *Controller) leadFlipDelay() time.Duration {
	lo, hi := c.cfg.LeadFlipMin.Seconds(), c.cfg.LeadFlipMax.Seconds()
	return time.Duration(rng.Uniform(c.random, lo, hi) * float64(time.Second))
}

// Ease linearly interpolates from from to to over dur. It returns exactly to
// once elapsed reaches dur.
func Ease(from, to float64, elapsed, dur time.Duration) float64 {
	if dur <= 0 || elapsed >= dur {
		return to
	}
	u := max(elapsed.Seconds()/dur.Seconds(), 0)
	return from + (to-from)*u
}

// PickMood samples a speed factor: mostly calm, sometimes quick, rarely a
// sprint.
func PickMood(random rng.Source) float64 {
	r := random.Float64()
	switch {
	case r < 0.50:
		return rng.Uniform(random, 0.55, 0.85)
	case r < 0.85:
		return rng.Uniform(random, 0.85, 1.20)
	case r < 0.97:
		return rng.Uniform(random, 1.20, 1.70)
	default:
		return rng.Uniform(random, 1.70, 2.40)
	}
}

// NextWake is the time until the first active stream crosses a row boundary
// at factor, capped at maxTick and floored at zero.
func NextWake(streams []*stream.Stream, factor float64, maxTick time.Duration) time.Duration {
	best := maxTick
	for _, s := range streams {
		t := s.TimeToNextRow(factor)
		if t <= 0 || math.IsInf(t, 1) {
			continue
		}
		if d := time.Duration(t * float64(time.Second)); d < best {
			best = d
		}
	}
	return max(best, 0)
}
