package scene

import (
	"slices"

	"github.com/inamate/canvas/internal/geom"
)

// Scene is the ordered node collection plus the viewport. Sequence order is
// z-order (later on top); frames are always drawn behind everything else.
type Scene struct {
	Nodes    []*Node       `json:"nodes"`
	Viewport geom.Viewport `json:"viewport"`
}

// New creates a scene holding nodes at the given viewport.
func New(nodes []*Node, vp geom.Viewport) *Scene {
	return &Scene{Nodes: nodes, Viewport: vp}
}

// CloneNodes deep-copies a node sequence.
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Index returns the sequence position of id, or -1.
func (s *Scene) Index(id string) int {
	return slices.IndexFunc(s.Nodes, func(n *Node) bool { return n.ID == id })
}

// Get returns the node with id, or nil.
func (s *Scene) Get(id string) *Node {
	if i := s.Index(id); i >= 0 {
		return s.Nodes[i]
	}
	return nil
}

// Has reports whether id resolves to a node.
func (s *Scene) Has(id string) bool {
	return s.Index(id) >= 0
}

// Add appends nodes on top of the stack.
func (s *Scene) Add(nodes ...*Node) {
	s.Nodes = append(s.Nodes, nodes...)
}

// Remove deletes every node whose id is listed and returns how many went.
func (s *Scene) Remove(ids ...string) int {
	before := len(s.Nodes)
	s.Nodes = slices.DeleteFunc(s.Nodes, func(n *Node) bool {
		return slices.Contains(ids, n.ID)
	})
	return before - len(s.Nodes)
}

// BringToFront moves id to the end of the sequence.
func (s *Scene) BringToFront(id string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	n := s.Nodes[i]
	s.Nodes = append(slices.Delete(s.Nodes, i, i+1), n)
	return true
}

// SendToBack moves id to the start of the sequence.
func (s *Scene) SendToBack(id string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	n := s.Nodes[i]
	s.Nodes = slices.Insert(slices.Delete(s.Nodes, i, i+1), 0, n)
	return true
}

// RenderOrder returns nodes back to front: frames first, then the rest,
// each group in sequence order.
func RenderOrder(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind() == KindFrame {
			out = append(out, n)
		}
	}
	for _, n := range nodes {
		if n.Kind() != KindFrame {
			out = append(out, n)
		}
	}
	return out
}

// Bounds returns the union of the boxes of nodes. ok is false when nodes is
// empty.
func Bounds(nodes []*Node) (geom.Rect, bool) {
	if len(nodes) == 0 {
		return geom.Rect{}, false
	}
	r := nodes[0].Box()
	for _, n := range nodes[1:] {
		r = r.Union(n.Box())
	}
	return r, true
}
