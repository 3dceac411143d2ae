package engine

import (
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/transform"
)

// Handle grip geometry, in device pixels.
const (
	HandleSize       = 8.0
	RotateHandleSize = 24.0
	// RotateHandleOffset is the distance from the bottom-edge midpoint to
	// the center of the rotate grip.
	RotateHandleOffset = 27.0
)

// TopNodeAt returns the topmost node whose box contains p. It walks render
// order back to front, so frames are only hit where nothing else is.
// Rotation is ignored and edges are inclusive.
func TopNodeAt(p geom.Point, nodes []*scene.Node) (string, bool) {
	order := scene.RenderOrder(nodes)
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].Box().ContainsPoint(p) {
			return order[i].ID, true
		}
	}
	return "", false
}

// NodesAt returns every node whose box contains p, topmost first.
func NodesAt(p geom.Point, nodes []*scene.Node) []string {
	order := scene.RenderOrder(nodes)
	var ids []string
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].Box().ContainsPoint(p) {
			ids = append(ids, order[i].ID)
		}
	}
	return ids
}

// HandleHit is the grip under the pointer.
type HandleHit struct {
	Handle transform.Handle `json:"handle,omitempty"`
	Rotate bool             `json:"rotate,omitempty"`
}

// HandleTarget is the box whose grips are shown: a single node, the group
// box of a multi-selection, or an image's crop window.
type HandleTarget struct {
	Box    geom.Rect
	Rotate bool // whether the rotate grip is shown
}

// RotateHandleCenter returns the device position of the rotate grip of box.
func RotateHandleCenter(box geom.Rect, vp geom.Viewport) geom.Point {
	bottom := vp.ToDevice(geom.Point{X: box.Center().X, Y: box.Bottom()})
	return geom.Point{X: bottom.X, Y: bottom.Y + RotateHandleOffset}
}

// HandleAt tests a device point against the grips of t. The rotate grip is
// tested first since it never overlaps a resize grip.
func HandleAt(device geom.Point, t HandleTarget, vp geom.Viewport) (HandleHit, bool) {
	if t.Rotate && device.Dist(RotateHandleCenter(t.Box, vp)) <= RotateHandleSize/2 {
		return HandleHit{Rotate: true}, true
	}
	for _, h := range transform.Handles {
		c := vp.ToDevice(h.Position(t.Box))
		if geom.RectAround(c, HandleSize).ContainsPoint(device) {
			return HandleHit{Handle: h}, true
		}
	}
	return HandleHit{}, false
}
