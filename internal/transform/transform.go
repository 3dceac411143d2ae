// Package transform computes new geometry for resize, crop, group scale and
// rotate gestures. Every function is pure: it takes the geometry captured at
// gesture start plus the total pointer delta in scene units, so repeated
// calls with the same input give the same output.
package transform

import (
	"math"
	"strings"

	"github.com/inamate/canvas/internal/geom"
)

// MinSize is the smallest width or height a resize produces. Every ratio
// division happens on dimensions that have already been clamped to it.
const MinSize = 10.0

// Handle identifies one of the eight resize grips of a box.
type Handle string

const (
	N  Handle = "n"
	S  Handle = "s"
	E  Handle = "e"
	W  Handle = "w"
	NE Handle = "ne"
	NW Handle = "nw"
	SE Handle = "se"
	SW Handle = "sw"
)

// Handles lists every grip in drawing order: corners first, then edges.
var Handles = []Handle{NW, NE, SE, SW, N, E, S, W}

// IsCorner reports whether h is one of the four corner grips.
func (h Handle) IsCorner() bool {
	return len(h) == 2
}

func (h Handle) north() bool { return strings.Contains(string(h), "n") }
func (h Handle) south() bool { return strings.Contains(string(h), "s") }
func (h Handle) east() bool  { return strings.Contains(string(h), "e") }
func (h Handle) west() bool  { return strings.Contains(string(h), "w") }

// Valid reports whether h names a known grip.
func (h Handle) Valid() bool {
	switch h {
	case N, S, E, W, NE, NW, SE, SW:
		return true
	}
	return false
}

// Position returns where the grip sits on r.
func (h Handle) Position(r geom.Rect) geom.Point {
	p := r.Center()
	switch {
	case h.west():
		p.X = r.X
	case h.east():
		p.X = r.Right()
	}
	switch {
	case h.north():
		p.Y = r.Y
	case h.south():
		p.Y = r.Bottom()
	}
	return p
}

// Opposite returns the grip diagonally (or directly) across from h.
func (h Handle) Opposite() Handle {
	var b strings.Builder
	switch {
	case h.north():
		b.WriteByte('s')
	case h.south():
		b.WriteByte('n')
	}
	switch {
	case h.east():
		b.WriteByte('w')
	case h.west():
		b.WriteByte('e')
	}
	return Handle(b.String())
}

// Lock suppresses changes to a dimension. Only frames carry locks.
type Lock struct {
	Width  bool
	Height bool
}

// rawSize applies the pointer delta to the dimensions the grip controls.
func rawSize(h Handle, dx, dy float64, w0, h0 float64) (float64, float64) {
	w, ht := w0, h0
	switch {
	case h.east():
		w = w0 + dx
	case h.west():
		w = w0 - dx
	}
	switch {
	case h.south():
		ht = h0 + dy
	case h.north():
		ht = h0 - dy
	}
	return w, ht
}

// place positions a box of size w x ht so the edges opposite the grip stay
// where they were in box.
func place(h Handle, box geom.Rect, w, ht float64) geom.Rect {
	out := geom.Rect{X: box.X, Y: box.Y, Width: w, Height: ht}
	if h.west() {
		out.X = box.Right() - w
	}
	if h.north() {
		out.Y = box.Bottom() - ht
	}
	return out
}

// aspectScale returns the uniform scale for a corner drag: the axis with the
// larger relative change drives, width wins ties. The result never shrinks
// either dimension below MinSize.
func aspectScale(rawW, rawH, w0, h0 float64) float64 {
	sx, sy := rawW/w0, rawH/h0
	s := sy
	if math.Abs(sx-1) >= math.Abs(sy-1) {
		s = sx
	}
	return max(s, MinSize/w0, MinSize/h0)
}

// Resize computes the box after dragging grip h of box by (dx, dy). Edges
// change one dimension; corners keep the aspect ratio of box and hold the
// opposite corner fixed. A corner drag on a box with any locked dimension
// leaves it unchanged.
func Resize(h Handle, dx, dy float64, box geom.Rect, lock Lock) geom.Rect {
	if !h.Valid() {
		return box
	}
	if h.IsCorner() {
		if lock.Width || lock.Height {
			return box
		}
		rawW, rawH := rawSize(h, dx, dy, box.Width, box.Height)
		s := aspectScale(rawW, rawH, box.Width, box.Height)
		return place(h, box, box.Width*s, box.Height*s)
	}

	w, ht := box.Width, box.Height
	rawW, rawH := rawSize(h, dx, dy, box.Width, box.Height)
	if (h == E || h == W) && !lock.Width {
		w = max(MinSize, rawW)
	}
	if (h == N || h == S) && !lock.Height {
		ht = max(MinSize, rawH)
	}
	return place(h, box, w, ht)
}
