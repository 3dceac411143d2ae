package transform

import (
	"math"

	"github.com/inamate/canvas/internal/geom"
)

// Rotate returns the rotation after dragging the rotate grip from start to
// current around center: initial plus the swept angle, in degrees.
func Rotate(center, start, current geom.Point, initial float64) float64 {
	a0 := math.Atan2(start.Y-center.Y, start.X-center.X)
	a1 := math.Atan2(current.Y-center.Y, current.X-center.X)
	return initial + (a1-a0)*180/math.Pi
}
