package scene

import (
	"fmt"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/typeid"
)

const (
	strokePadding = 5.0
	minStrokeBox  = 10.0

	// DerivedGap separates a derived node from the node it was made from.
	DerivedGap = 50.0
)

// StrokeStyle carries the brush settings applied to new freehand strokes.
type StrokeStyle struct {
	Color       string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
	Blur        float64 `json:"blur"`
}

// DefaultStrokeStyle is the brush a new editor session starts with.
func DefaultStrokeStyle() StrokeStyle {
	return StrokeStyle{Color: "#000000", StrokeWidth: 5, Opacity: 1}
}

// NewID returns a fresh id carrying the prefix for kind.
func NewID(k Kind) string {
	switch k {
	case KindFrame:
		return typeid.NewFrameID()
	case KindImage:
		return typeid.NewImageID()
	case KindShape:
		return typeid.NewShapeID()
	case KindText:
		return typeid.NewTextID()
	case KindFreehand:
		return typeid.NewFreehandID()
	case KindPath:
		return typeid.NewPathID()
	default:
		panic("scene: unhandled kind " + string(k))
	}
}

// normalizeStroke pads the bounding box of scene-space points and rebases
// them onto its origin.
func normalizeStroke(points []geom.Point) (geom.Rect, []geom.Point) {
	bounds, _ := geom.BoundsOf(points)
	box := geom.Rect{
		X:      bounds.X - strokePadding,
		Y:      bounds.Y - strokePadding,
		Width:  max(minStrokeBox, bounds.Width+2*strokePadding),
		Height: max(minStrokeBox, bounds.Height+2*strokePadding),
	}
	local := make([]geom.Point, len(points))
	for i, p := range points {
		local[i] = p.Sub(box.Origin())
	}
	return box, local
}

// NewFreehand builds a freehand node from scene-space points. It returns nil
// for fewer than two points.
func NewFreehand(points []geom.Point, style StrokeStyle) *Node {
	if len(points) < 2 {
		return nil
	}
	box, local := normalizeStroke(points)
	return &Node{
		ID:      NewID(KindFreehand),
		X:       box.X,
		Y:       box.Y,
		Width:   box.Width,
		Height:  box.Height,
		Opacity: style.Opacity,
		Content: &Freehand{
			Stroke: Stroke{
				Points:      local,
				Base:        box.Size(),
				Color:       style.Color,
				StrokeWidth: style.StrokeWidth,
			},
			Blur: style.Blur,
		},
	}
}

// NewVectorPath builds a vector path node from scene-space vertices. Open
// paths get no fill. It returns nil for fewer than two vertices.
func NewVectorPath(points []geom.Point, closed bool) *Node {
	if len(points) < 2 {
		return nil
	}
	box, local := normalizeStroke(points)
	fill := "transparent"
	if closed {
		fill = "#FF6B6B"
	}
	return &Node{
		ID:      NewID(KindPath),
		X:       box.X,
		Y:       box.Y,
		Width:   box.Width,
		Height:  box.Height,
		Opacity: 1,
		Content: &VectorPath{
			Stroke: Stroke{
				Points:      local,
				Closed:      closed,
				Base:        box.Size(),
				Color:       "#000000",
				StrokeWidth: 2,
			},
			Fill: fill,
		},
	}
}

// NewShape builds a default rectangle shape centred on c.
func NewShape(c geom.Point) *Node {
	const size = 200
	return &Node{
		ID:      NewID(KindShape),
		X:       c.X - size/2,
		Y:       c.Y - size/2,
		Width:   size,
		Height:  size,
		Opacity: 1,
		Content: &Shape{ShapeKind: "rectangle", Fill: "#FF6B6B", Stroke: "#000000"},
	}
}

// NewTextBox builds a default text node centred on c.
func NewTextBox(c geom.Point, text string) *Node {
	const w, h = 240, 60
	return &Node{
		ID:      NewID(KindText),
		X:       c.X - w/2,
		Y:       c.Y - h/2,
		Width:   w,
		Height:  h,
		Opacity: 1,
		Content: &Text{Text: text, FontSize: 48, Align: AlignCenter, Fill: "#000000"},
	}
}

// NewFrame builds a 1920x1080 frame centred on c. ordinal names it.
func NewFrame(c geom.Point, ordinal int) *Node {
	const w, h = 1920, 1080
	return &Node{
		ID:      NewID(KindFrame),
		Name:    fmt.Sprintf("Frame %d", ordinal),
		X:       c.X - w/2,
		Y:       c.Y - h/2,
		Width:   w,
		Height:  h,
		Opacity: 1,
		Content: &Frame{Fill: "#ffffff", Stroke: "#9ca3af", StrokeWidth: 2},
	}
}

// PlaceBeside returns the origin for a node derived from src: to its right,
// top-aligned.
func PlaceBeside(src *Node) geom.Point {
	return geom.Point{X: src.X + src.Width + DerivedGap, Y: src.Y}
}

// NewImage builds an image node of the given size centred on c. The crop
// window starts nil so the content fills the box.
func NewImage(src string, c geom.Point, size geom.Size) *Node {
	return &Node{
		ID:      NewID(KindImage),
		X:       c.X - size.Width/2,
		Y:       c.Y - size.Height/2,
		Width:   size.Width,
		Height:  size.Height,
		Opacity: 1,
		Content: &Image{Src: src, NaturalSize: size},
	}
}

// NewDroppedText builds the text node created by dropping text content:
// top-left at p, left aligned.
func NewDroppedText(p geom.Point, text string) *Node {
	return &Node{
		ID:      NewID(KindText),
		X:       p.X,
		Y:       p.Y,
		Width:   800,
		Height:  400,
		Opacity: 1,
		Content: &Text{Text: text, FontSize: 32, Align: AlignLeft, Fill: "#000000"},
	}
}
