// Package snap adjusts the position of a moving box to the grid and to the
// edges and centers of its siblings.
package snap

import (
	"math"

	"github.com/inamate/canvas/internal/geom"
)

// Settings are the user's snapping preferences.
type Settings struct {
	SnapToGrid  bool    `json:"snapToGrid"`
	GridSize    float64 `json:"gridSize"`
	SmartGuides bool    `json:"smartGuides"`
	Threshold   float64 `json:"snapThreshold"` // device pixels
	ShowGuides  bool    `json:"showGuides"`
}

// DefaultSettings has every pass disabled.
func DefaultSettings() Settings {
	return Settings{GridSize: 20, Threshold: 5}
}

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Guide is an alignment line drawn while a snap is active. Coordinate is an
// x for vertical guides and a y for horizontal ones.
type Guide struct {
	Orientation Orientation `json:"type"`
	Coordinate  float64     `json:"coordinate"`
}

type Result struct {
	Point  geom.Point
	Guides []Guide
}

// Apply snaps a box of the given size whose top-left would land at pos.
//
// The grid pass rounds pos to the nearest multiple of GridSize. The guide
// pass then tests the unsnapped box against each sibling in order, one axis
// at a time: left to left, left to right, right to left, right to right and
// center to center. The first pair closer than Threshold/zoom aligns that
// axis exactly and overrides the grid; the axis is not tested again.
func Apply(pos geom.Point, size geom.Size, siblings []geom.Rect, zoom float64, s Settings) Result {
	out := Result{Point: pos}

	if s.SnapToGrid && s.GridSize > 0 {
		out.Point.X = math.Round(pos.X/s.GridSize) * s.GridSize
		out.Point.Y = math.Round(pos.Y/s.GridSize) * s.GridSize
	}

	if !s.SmartGuides || len(siblings) == 0 || zoom <= 0 {
		return out
	}
	threshold := s.Threshold / zoom

	var snappedX, snappedY bool
	for _, t := range siblings {
		if !snappedX {
			if x, line, ok := align(pos.X, size.Width, t.X, t.Width, threshold); ok {
				out.Point.X = x
				snappedX = true
				if s.ShowGuides {
					out.Guides = append(out.Guides, Guide{Orientation: Vertical, Coordinate: line})
				}
			}
		}
		if !snappedY {
			if y, line, ok := align(pos.Y, size.Height, t.Y, t.Height, threshold); ok {
				out.Point.Y = y
				snappedY = true
				if s.ShowGuides {
					out.Guides = append(out.Guides, Guide{Orientation: Horizontal, Coordinate: line})
				}
			}
		}
		if snappedX && snappedY {
			break
		}
	}
	return out
}

// align tests one axis of a moving span [start, start+length] against a
// sibling span. It returns the corrected start and the line it aligned to.
func align(start, length, tStart, tLength, threshold float64) (float64, float64, bool) {
	end, mid := start+length, start+length/2
	tEnd, tMid := tStart+tLength, tStart+tLength/2

	pairs := [...]struct{ edge, target float64 }{
		{start, tStart},
		{start, tEnd},
		{end, tStart},
		{end, tEnd},
		{mid, tMid},
	}
	for _, p := range pairs {
		if math.Abs(p.edge-p.target) < threshold {
			return p.target - (p.edge - start), p.target, true
		}
	}
	return start, 0, false
}
