// Package render turns stream state into the smallest set of cell writes
// that keeps the terminal in sync.
package render

import (
	"errors"

	"livemtrx/internal/palette"
)

// ErrOutOfBounds is returned for a write outside the surface. It happens
// transiently while a resize is in flight and is never fatal.
var ErrOutOfBounds = errors.New("cell out of bounds")

// Surface is the cell-addressable terminal the renderer draws on.
type Surface interface {
	SetCell(x, y int, glyph rune, attr palette.Attr) error
}

type cell struct {
	glyph rune
	attr  palette.Attr
	known bool
}

// Damage remembers the last (glyph, attr) written to every cell and drops
// writes that would not change anything.
type Damage struct {
	surface Surface
	width   int
	height  int
	cells   []cell
	writes  int
}

// NewDamage creates a buffer with every cell dirty.
func NewDamage(surface Surface, width, height int) *Damage {
	d := &Damage{surface: surface}
	d.Reset(width, height)
	return d
}

// Reset resizes the buffer and forgets every cell, forcing a full repaint.
func (d *Damage) Reset(width, height int) {
	width, height = max(width, 0), max(height, 0)
	size := width * height
	if cap(d.cells) >= size {
		d.cells = d.cells[:size]
		clear(d.cells)
	} else {
		d.cells = make([]cell, size)
	}
	d.width, d.height = width, height
}

// Size is the buffer's width and height.
func (d *Damage) Size() (width, height int) { return d.width, d.height }

// Put writes glyph with attr at (x, y) unless the cell already shows
// exactly that. The cache is only updated once the surface accepts the write.
func (d *Damage) Put(x, y int, glyph rune, attr palette.Attr) error {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return ErrOutOfBounds
	}
	c := &d.cells[y*d.width+x]
	if c.known && c.glyph == glyph && c.attr == attr {
		return nil
	}
	if err := d.surface.SetCell(x, y, glyph, attr); err != nil {
		return err
	}
	*c = cell{glyph: glyph, attr: attr, known: true}
	d.writes++
	return nil
}

// Dirty reports whether (x, y) has not been written since the last reset.
func (d *Damage) Dirty(x, y int) bool {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return false
	}
	return !d.cells[y*d.width+x].known
}

// DirtyCount is the number of cells not written since the last reset.
func (d *Damage) DirtyCount() int {
	n := 0
	for i := range d.cells {
		if !d.cells[i].known {
			n++
		}
	}
	return n
}

// Blank reports whether (x, y) shows nothing: never written, or last written
// with a space.
func (d *Damage) Blank(x, y int) bool {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return false
	}
	c := d.cells[y*d.width+x]
	return !c.known || c.glyph == ' '
}

// Holds reports whether (x, y) was last written with exactly glyph and attr.
func (d *Damage) Holds(x, y int, glyph rune, attr palette.Attr) bool {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return false
	}
	c := d.cells[y*d.width+x]
	return c.known && c.glyph == glyph && c.attr == attr
}

// Writes is the number of writes that reached the surface.
func (d *Damage) Writes() int { return d.writes }
