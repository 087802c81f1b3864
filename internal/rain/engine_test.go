package rain

import (
	"context"
	"math"
	"testing"
	"time"

	"livemtrx/internal/logging"
	"livemtrx/internal/palette"
	"livemtrx/internal/render"
	"livemtrx/internal/rng"
	"livemtrx/internal/stream"
	"livemtrx/internal/terminal"
	"livemtrx/internal/timing"
)

// fakeTerminal records what the engine draws.
type fakeTerminal struct {
	w, h   int
	keys   []terminal.Key
	cells  map[[2]int]rune
	writes int
	clears int
	shows  int
}

func newFakeTerminal(w, h int) *fakeTerminal {
	return &fakeTerminal{w: w, h: h, cells: make(map[[2]int]rune)}
}

func (t *fakeTerminal) SetCell(x, y int, glyph rune, _ palette.Attr) error {
	if x < 0 || y < 0 || x >= t.w || y >= t.h {
		return render.ErrOutOfBounds
	}
	t.cells[[2]int{x, y}] = glyph
	t.writes++
	return nil
}

func (t *fakeTerminal) Size() (int, int) { return t.w, t.h }

func (t *fakeTerminal) Poll() (terminal.Key, bool) {
	if len(t.keys) == 0 {
		return terminal.Key{}, false
	}
	k := t.keys[0]
	t.keys = t.keys[1:]
	return k, true
}

func (t *fakeTerminal) Clear() {
	clear(t.cells)
	t.clears++
}

func (t *fakeTerminal) Show() { t.shows++ }

// seqGlyphs hands out distinct, ordered glyphs.
type seqGlyphs struct{ n int }

func (g *seqGlyphs) Glyph() rune {
	r := rune(0x2000 + g.n)
	g.n++
	return r
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testOptions() Options {
	p := stream.DefaultParams
	p.MinLength, p.MaxLength = 10, 10
	p.MinSpeed, p.MaxSpeed = 10, 10
	p.MutateHead, p.MutateAny = 0, 0
	return Options{
		Density:     1,
		DensityStep: 0.05,
		Params:      p,
		Timing: timing.Config{
			FrameDuration: time.Second / 45,
			ThemePeriod:   30 * time.Second,
			MoodPeriod:    10 * time.Second,
			EaseDuration:  1250 * time.Millisecond,
			LeadFlipMin:   6 * time.Second,
			LeadFlipMax:   16 * time.Second,
			MaxTick:       time.Second / 30,
		},
		Effects: render.DefaultEffects,
	}
}

type harness struct {
	engine *Engine
	term   *fakeTerminal
	clock  *timing.FakeClock
	glyphs *seqGlyphs
}

func newHarness(t *testing.T, w, h int, opts Options) *harness {
	t.Helper()
	hs := &harness{
		term:   newFakeTerminal(w, h),
		clock:  timing.NewFakeClock(epoch),
		glyphs: &seqGlyphs{},
	}
	hs.engine = New(hs.term, palette.NewManager(true, 256), hs.glyphs, rng.New(7), hs.clock, opts, logging.Discard())
	return hs
}

func TestNewPopulatesEveryColumn(t *testing.T) {
	hs := newHarness(t, 80, 24, testOptions())
	st := hs.engine.State()
	if st.Width != 80 || st.Height != 24 {
		t.Errorf("state size = %dx%d, want 80x24", st.Width, st.Height)
	}
	if len(st.Streams) != 80 {
		t.Fatalf("streams = %d, want 80", len(st.Streams))
	}
	for x, s := range st.Streams {
		if s.X != x {
			t.Errorf("stream %d has X %d", x, s.X)
		}
	}
}

func TestResize(t *testing.T) {
	hs := newHarness(t, 80, 24, testOptions())
	old := hs.engine.State().Streams[0]
	clears := hs.term.clears

	hs.engine.Resize(100, 30)

	st := hs.engine.State()
	if len(st.Streams) != 100 {
		t.Fatalf("streams = %d, want 100", len(st.Streams))
	}
	if st.Streams[0] == old {
		t.Error("stream not freshly spawned")
	}
	if w, h := hs.engine.Damage().Size(); w != 100 || h != 30 {
		t.Errorf("damage size = %dx%d, want 100x30", w, h)
	}
	if got := hs.engine.Damage().DirtyCount(); got != 100*30 {
		t.Errorf("dirty cells = %d, want %d", got, 100*30)
	}
	if hs.term.clears != clears+1 {
		t.Error("screen not cleared on resize")
	}
}

func TestStepFollowsTerminalSize(t *testing.T) {
	hs := newHarness(t, 80, 24, testOptions())
	hs.term.w, hs.term.h = 100, 30
	hs.clock.Advance(time.Second / 45)
	if _, quit := hs.engine.Step(); quit {
		t.Fatal("unexpected quit")
	}
	st := hs.engine.State()
	if st.Width != 100 || st.Height != 30 || len(st.Streams) != 100 {
		t.Errorf("after resize: %dx%d with %d streams", st.Width, st.Height, len(st.Streams))
	}
}

func TestStepShiftsOnePerRow(t *testing.T) {
	hs := newHarness(t, 1, 20, testOptions())
	s := hs.engine.State().Streams[0]
	if !s.Active {
		t.Fatal("stream inactive at density 1")
	}
	before := append([]rune(nil), s.Chars...)
	row := s.LastHeadRow
	issued := hs.glyphs.n

	// Land the head in the middle of the fifth row below.
	secs := (float64(row) + 5.5 - s.Y) / s.Speed
	hs.clock.Advance(time.Duration(secs * float64(time.Second)))
	hs.engine.Step()

	if s.LastHeadRow != row+5 {
		t.Errorf("LastHeadRow = %d, want %d", s.LastHeadRow, row+5)
	}
	if got := hs.glyphs.n - issued; got != 5 {
		t.Errorf("glyphs drawn = %d, want 5", got)
	}
	for i := range 5 {
		want := rune(0x2000 + issued + 4 - i)
		if s.Chars[i] != want {
			t.Errorf("Chars[%d] = %U, want %U", i, s.Chars[i], want)
		}
	}
	for i := 5; i < s.Length; i++ {
		if s.Chars[i] != before[i-5] {
			t.Errorf("Chars[%d] = %U, want shifted %U", i, s.Chars[i], before[i-5])
		}
	}
}

func TestStepDrawsAndSchedules(t *testing.T) {
	opts := testOptions()
	hs := newHarness(t, 40, 20, opts)
	var drew bool
	for range 120 {
		hs.clock.Advance(opts.Timing.FrameDuration)
		sleep, quit := hs.engine.Step()
		if quit {
			t.Fatal("unexpected quit")
		}
		if sleep < 0 || sleep > max(opts.Timing.FrameDuration, opts.Timing.MaxTick) {
			t.Fatalf("sleep = %v out of range", sleep)
		}
		drew = drew || hs.term.writes > 0
	}
	if !drew {
		t.Error("nothing drawn in 120 frames")
	}
	if hs.term.shows != 120 {
		t.Errorf("shows = %d, want 120", hs.term.shows)
	}
	if hs.engine.State().Frames != 120 {
		t.Errorf("frames = %d, want 120", hs.engine.State().Frames)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []terminal.Key{{Rune: 'q'}, {Rune: 'Q'}, {Interrupt: true}} {
		hs := newHarness(t, 10, 10, testOptions())
		hs.term.keys = []terminal.Key{k}
		if _, quit := hs.engine.Step(); !quit {
			t.Errorf("key %+v did not quit", k)
		}
		if hs.term.shows != 0 {
			t.Errorf("key %+v: frame drawn after quit", k)
		}
	}
}

func TestReseedRepopulates(t *testing.T) {
	hs := newHarness(t, 10, 10, testOptions())
	old := hs.engine.State().Streams[0]
	hs.term.keys = []terminal.Key{{Rune: 'r'}}
	hs.engine.Step()
	if hs.engine.State().Streams[0] == old {
		t.Error("streams not rebuilt on reseed")
	}
}

func TestThemeKeyKeepsRunning(t *testing.T) {
	hs := newHarness(t, 10, 10, testOptions())
	hs.term.keys = []terminal.Key{{Rune: 'C'}}
	if _, quit := hs.engine.Step(); quit {
		t.Fatal("theme key quit")
	}
	if len(hs.engine.Timer().Theme()) == 0 {
		t.Error("empty theme after cycling")
	}
}

func TestDensityKeys(t *testing.T) {
	opts := testOptions()
	opts.Density = 0.75
	hs := newHarness(t, 10, 10, opts)
	hs.term.keys = []terminal.Key{{Rune: '+'}}
	hs.engine.Step()
	if got := hs.engine.State().Density; got != 0.8 {
		t.Errorf("density after + = %v, want 0.8", got)
	}
	hs.term.keys = []terminal.Key{{Rune: '-'}, {Rune: '-'}}
	hs.engine.Step()
	hs.engine.Step()
	if got := hs.engine.State().Density; got != 0.7 {
		t.Errorf("density after two - = %v, want 0.7", got)
	}
}

func TestStepDensity(t *testing.T) {
	tests := []struct {
		d, delta, want float64
	}{
		{0.75, 0.05, 0.8},
		{1.0, 0.05, 1.0},
		{0.98, 0.05, 1.0},
		{0.05, -0.05, 0.05},
		{0.07, -0.05, 0.05},
		{0.3, -0.05, 0.25},
	}
	for _, tt := range tests {
		if got := StepDensity(tt.d, tt.delta); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("StepDensity(%v, %v) = %v, want %v", tt.d, tt.delta, got, tt.want)
		}
	}
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		key  terminal.Key
		want Action
	}{
		{terminal.Key{Rune: 'q'}, ActionQuit},
		{terminal.Key{Interrupt: true}, ActionQuit},
		{terminal.Key{Rune: 'c'}, ActionTheme},
		{terminal.Key{Rune: 'R'}, ActionReseed},
		{terminal.Key{Rune: '+'}, ActionDenser},
		{terminal.Key{Rune: '-'}, ActionSparser},
		{terminal.Key{Rune: 'x'}, ActionNone},
	}
	for _, tt := range tests {
		if got := ActionFor(tt.key); got != tt.want {
			t.Errorf("ActionFor(%+v) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestRunStops(t *testing.T) {
	hs := newHarness(t, 10, 10, testOptions())
	hs.term.keys = []terminal.Key{{Rune: 'q'}}
	if err := hs.engine.Run(context.Background()); err != nil {
		t.Errorf("Run on quit = %v", err)
	}

	hs = newHarness(t, 10, 10, testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- hs.engine.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run on cancel = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancelled context")
	}
}
