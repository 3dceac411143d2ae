// Package scene defines the canvas node model: a sequence of placed nodes,
// each carrying common geometry plus exactly one kind-specific content
// variant.
package scene

import (
	"slices"

	"github.com/inamate/canvas/internal/geom"
)

type Kind string

const (
	KindFrame    Kind = "frame"
	KindImage    Kind = "image"
	KindShape    Kind = "shape"
	KindText     Kind = "text"
	KindFreehand Kind = "freehand"
	KindPath     Kind = "path"
)

// MinNodeSize is the smallest width or height a node may have.
const MinNodeSize = 1.0

// Content is the kind-specific part of a node. The set of implementations
// is closed; consumers switch over the concrete types.
type Content interface {
	Kind() Kind
	cloneContent() Content
}

type Node struct {
	ID        string
	Name      string
	X         float64
	Y         float64
	Width     float64
	Height    float64
	Rotation  float64 // degrees about the node's own center
	Opacity   float64 // 0 transparent to 1 opaque
	Locked    bool
	SourceIDs []string
	Content   Content
}

// Kind returns the variant tag of the node's content.
func (n *Node) Kind() Kind {
	return n.Content.Kind()
}

// Box returns the node's axis-aligned box, ignoring rotation.
func (n *Node) Box() geom.Rect {
	return geom.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// SetBox moves and resizes the node, clamping each dimension to MinNodeSize.
func (n *Node) SetBox(r geom.Rect) {
	n.X, n.Y = r.X, r.Y
	n.Width = max(MinNodeSize, r.Width)
	n.Height = max(MinNodeSize, r.Height)
}

// Normalize clamps the node into a drawable state: each dimension to
// MinNodeSize and opacity to [0, 1].
func (n *Node) Normalize() {
	n.SetBox(n.Box())
	n.Opacity = min(max(n.Opacity, 0), 1)
}

// Center returns the rotation pivot.
func (n *Node) Center() geom.Point {
	return n.Box().Center()
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	out := *n
	out.SourceIDs = slices.Clone(n.SourceIDs)
	if n.Content != nil {
		out.Content = n.Content.cloneContent()
	}
	return &out
}

type Frame struct {
	Fill         string  `json:"fill"`
	Stroke       string  `json:"stroke"`
	StrokeWidth  float64 `json:"strokeWidth"`
	LockedWidth  bool    `json:"lockedWidth"`
	LockedHeight bool    `json:"lockedHeight"`
}

func (*Frame) Kind() Kind { return KindFrame }

func (f *Frame) cloneContent() Content {
	out := *f
	return &out
}

// Crop is the visible content window of an image, relative to the node box.
type Crop struct {
	Offset geom.Point `json:"offset"`
	Size   geom.Size  `json:"size"`
}

type Image struct {
	Src         string    `json:"src"`
	Crop        *Crop     `json:"crop"` // nil means the content fills the whole box
	NaturalSize geom.Size `json:"naturalSize"`
}

func (*Image) Kind() Kind { return KindImage }

func (i *Image) cloneContent() Content {
	out := *i
	if i.Crop != nil {
		c := *i.Crop
		out.Crop = &c
	}
	return &out
}

// ContentWindow returns the crop window, defaulting to the full box.
func (i *Image) ContentWindow(box geom.Size) Crop {
	if i.Crop != nil {
		return *i.Crop
	}
	return Crop{Size: box}
}

type Shape struct {
	ShapeKind   string  `json:"shapeKind"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

func (*Shape) Kind() Kind { return KindShape }

func (s *Shape) cloneContent() Content {
	out := *s
	return &out
}

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

type Text struct {
	Text     string    `json:"text"`
	FontSize float64   `json:"fontSize"`
	Align    Alignment `json:"align"`
	Fill     string    `json:"fill"`
	Stroke   string    `json:"stroke"`
}

func (*Text) Kind() Kind { return KindText }

func (t *Text) cloneContent() Content {
	out := *t
	return &out
}

// Stroke is a polyline shared by freehand and vector path nodes. Points are
// relative to the node's box origin, captured when the box was Base sized.
type Stroke struct {
	Points      []geom.Point `json:"points"`
	Closed      bool         `json:"closed"`
	Base        geom.Size    `json:"base"`
	Color       string       `json:"stroke"`
	StrokeWidth float64      `json:"strokeWidth"`
}

func (s Stroke) clone() Stroke {
	s.Points = slices.Clone(s.Points)
	return s
}

type Freehand struct {
	Stroke
	Blur float64 `json:"blur"`
}

func (*Freehand) Kind() Kind { return KindFreehand }

func (f *Freehand) cloneContent() Content {
	out := *f
	out.Stroke = f.Stroke.clone()
	return &out
}

type VectorPath struct {
	Stroke
	Fill string `json:"fill"`
}

func (*VectorPath) Kind() Kind { return KindPath }

func (p *VectorPath) cloneContent() Content {
	out := *p
	out.Stroke = p.Stroke.clone()
	return &out
}

// StrokeOf returns the polyline of a freehand or vector path node.
func StrokeOf(n *Node) (*Stroke, bool) {
	switch c := n.Content.(type) {
	case *Freehand:
		return &c.Stroke, true
	case *VectorPath:
		return &c.Stroke, true
	case *Frame, *Image, *Shape, *Text:
		return nil, false
	default:
		panic("scene: unhandled content " + string(n.Kind()))
	}
}
