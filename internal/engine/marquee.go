package engine

import (
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
)

// Policy decides which nodes a marquee picks up.
type Policy string

const (
	// Window selects nodes fully inside the marquee.
	Window Policy = "window"
	// Crossing selects nodes that merely intersect it.
	Crossing Policy = "crossing"
)

// Marquee is a rubber-band rectangle in scene coordinates.
type Marquee struct {
	Start   geom.Point `json:"start"`
	Current geom.Point `json:"current"`
}

// Policy is Crossing while the drag heads left of its start and Window
// otherwise. Only the horizontal direction matters.
func (m Marquee) Policy() Policy {
	if m.Current.X-m.Start.X < 0 {
		return Crossing
	}
	return Window
}

// Rect returns the normalized marquee rectangle.
func (m Marquee) Rect() geom.Rect {
	return geom.RectFromPoints(m.Start, m.Current)
}

// Matches returns the ids of nodes picked up under the current policy,
// topmost first. Rotation is ignored.
func (m Marquee) Matches(nodes []*scene.Node) []string {
	r := m.Rect()
	policy := m.Policy()
	order := scene.RenderOrder(nodes)

	var ids []string
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		box := n.Box()
		switch policy {
		case Crossing:
			if r.Intersects(box) {
				ids = append(ids, n.ID)
			}
		case Window:
			if r.ContainsRect(box) {
				ids = append(ids, n.ID)
			}
		}
	}
	return ids
}
