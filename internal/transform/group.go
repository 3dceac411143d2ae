package transform

import (
	"math"

	"github.com/inamate/canvas/internal/geom"
)

// Scale is an anchored scale applied to every member of a group.
type Scale struct {
	Anchor geom.Point
	SX, SY float64
}

// Identity reports whether s leaves geometry unchanged.
func (s Scale) Identity() bool {
	return s.SX == 1 && s.SY == 1
}

// Point maps p: anchor + (p - anchor) * scale.
func (s Scale) Point(p geom.Point) geom.Point {
	return geom.Point{
		X: s.Anchor.X + (p.X-s.Anchor.X)*s.SX,
		Y: s.Anchor.Y + (p.Y-s.Anchor.Y)*s.SY,
	}
}

// Box maps a member box: origin through Point, size times the scale.
func (s Scale) Box(r geom.Rect) geom.Rect {
	o := s.Point(r.Origin())
	return geom.Rect{X: o.X, Y: o.Y, Width: r.Width * s.SX, Height: r.Height * s.SY}
}

// Mean is the factor applied to scalar attributes such as font size.
func (s Scale) Mean() float64 {
	return (s.SX + s.SY) / 2
}

// GroupResize computes the scale produced by dragging grip h of the group
// box bounds by (dx, dy). The anchor is the side or corner opposite the grip.
// Aspect is always kept: corners are driven by the axis with the larger
// relative change (width on ties), e/w by width and n/s by height.
func GroupResize(h Handle, dx, dy float64, bounds geom.Rect) Scale {
	if !h.Valid() {
		return Scale{Anchor: bounds.Origin(), SX: 1, SY: 1}
	}
	anchor := bounds.Origin()
	if h.west() {
		anchor.X = bounds.Right()
	}
	if h.north() {
		anchor.Y = bounds.Bottom()
	}

	w0, h0 := max(MinSize, bounds.Width), max(MinSize, bounds.Height)
	rawW, rawH := rawSize(h, dx, dy, w0, h0)

	var s float64
	switch h {
	case E, W:
		s = rawW / w0
	case N, S:
		s = rawH / h0
	default:
		s = rawH / h0
		if sx := rawW / w0; math.Abs(sx-1) >= math.Abs(s-1) {
			s = sx
		}
	}
	s = max(s, MinSize/w0, MinSize/h0)
	return Scale{Anchor: anchor, SX: s, SY: s}
}
