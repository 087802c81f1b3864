// Package terminal adapts a tcell screen to the cell surface the renderer
// draws on: styled cells addressed by column and row, non-blocking key
// input, size polling, and color capability detection.
package terminal

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"livemtrx/internal/palette"
	"livemtrx/internal/render"
)

// Key is one keypress. Interrupt is set for Ctrl-C and Esc.
type Key struct {
	Rune      rune
	Interrupt bool
}

// Screen is a tcell screen drawn through the pair table of a
// palette.Manager. It must be bound to a Manager before cells are set.
type Screen struct {
	screen tcell.Screen
	colors *palette.Manager
	base   tcell.Style
	styles map[palette.Attr]tcell.Style

	events   chan tcell.Event
	pollDone chan struct{}
	once     sync.Once
}

// Open creates and initializes the process terminal.
func Open() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	return Wrap(s), nil
}

// Wrap adopts an initialized tcell screen.
func Wrap(s tcell.Screen) *Screen {
	return &Screen{
		screen:   s,
		base:     tcell.StyleDefault.Background(tcell.ColorBlack),
		styles:   make(map[palette.Attr]tcell.Style),
		events:   make(chan tcell.Event, 16),
		pollDone: make(chan struct{}),
	}
}

// Bind sets the pair table cells are styled from.
func (t *Screen) Bind(colors *palette.Manager) {
	t.colors = colors
	clear(t.styles)
}

// Start hides the cursor, clears the screen and begins forwarding input.
func (t *Screen) Start() {
	t.screen.SetStyle(t.base)
	t.screen.HideCursor()
	t.screen.Clear()
	go t.pump()
}

// Close restores the terminal. It is safe to call more than once.
func (t *Screen) Close() {
	t.once.Do(func() {
		t.screen.Fini()
		// PollEvent returns nil once the screen is finalized
		select {
		case <-t.pollDone:
		case <-time.After(100 * time.Millisecond):
		}
	})
}

// pump forwards events until the screen is finalized. It is the only
// goroutine besides the frame loop and touches no engine state.
func (t *Screen) pump() {
	defer close(t.pollDone)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		default:
			// frame loop is behind, drop it
		}
	}
}

// Poll returns the next pending keypress without blocking.
func (t *Screen) Poll() (Key, bool) {
	for {
		select {
		case ev := <-t.events:
			if k, ok := keyOf(ev); ok {
				return k, true
			}
		default:
			return Key{}, false
		}
	}
}

// keyOf maps a tcell event to a Key, ignoring everything but key presses.
func keyOf(ev tcell.Event) (Key, bool) {
	kev, ok := ev.(*tcell.EventKey)
	if !ok {
		return Key{}, false
	}
	switch kev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return Key{Interrupt: true}, true
	case tcell.KeyRune:
		return Key{Rune: kev.Rune()}, true
	}
	return Key{}, false
}

// Size is the current width and height in cells.
func (t *Screen) Size() (width, height int) { return t.screen.Size() }

// Colors is the number of colors tcell found in the terminal database.
func (t *Screen) Colors() int { return t.screen.Colors() }

// SetCell draws one cell. Coordinates outside the current screen return
// render.ErrOutOfBounds.
func (t *Screen) SetCell(x, y int, glyph rune, attr palette.Attr) error {
	w, h := t.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return render.ErrOutOfBounds
	}
	t.screen.SetContent(x, y, glyph, nil, t.Style(attr))
	return nil
}

// Style resolves an attribute to a tcell style.
func (t *Screen) Style(attr palette.Attr) tcell.Style {
	if st, ok := t.styles[attr]; ok {
		return st
	}
	st := t.base
	if t.colors != nil {
		if fg, ok := t.colors.Foreground(attr.Pair); ok {
			st = st.Foreground(tcell.PaletteColor(int(fg)))
		}
	}
	st = st.Bold(attr.Emphasis.Has(palette.Bold)).Dim(attr.Emphasis.Has(palette.Dim))
	t.styles[attr] = st
	return st
}

// Clear blanks the whole screen.
func (t *Screen) Clear() { t.screen.Clear() }

// Show flushes pending cell writes to the terminal.
func (t *Screen) Show() { t.screen.Show() }
