package engine

import (
	"github.com/inamate/canvas/internal/scene"
)

// PasteOffset is added to both coordinates of every pasted node.
const PasteOffset = 20.0

// Clipboard holds copied nodes for one editor session. Engines sharing a
// Clipboard can paste each other's copies; engines with separate ones
// cannot.
type Clipboard struct {
	nodes []*scene.Node
}

func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// Copy stores deep copies of nodes, replacing the previous contents.
func (c *Clipboard) Copy(nodes []*scene.Node) {
	if len(nodes) == 0 {
		return
	}
	c.nodes = scene.CloneNodes(nodes)
}

// Empty reports whether there is anything to paste.
func (c *Clipboard) Empty() bool {
	return len(c.nodes) == 0
}

// Paste returns fresh clones of the stored nodes: new ids, offset by
// PasteOffset, unlocked and without provenance.
func (c *Clipboard) Paste() []*scene.Node {
	out := make([]*scene.Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		p := n.Clone()
		p.ID = scene.NewID(p.Kind())
		p.X += PasteOffset
		p.Y += PasteOffset
		p.Locked = false
		p.SourceIDs = nil
		out = append(out, p)
	}
	return out
}
