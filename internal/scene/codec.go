package scene

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when decoding a node whose type tag is not one
// of the known kinds.
var ErrUnknownKind = errors.New("unknown node kind")

type wireNode struct {
	ID        string          `json:"id"`
	Type      Kind            `json:"type"`
	Name      string          `json:"name,omitempty"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Rotation  float64         `json:"rotation"`
	Opacity   *float64        `json:"opacity"`
	Locked    bool            `json:"locked"`
	SourceIDs []string        `json:"sourceIds,omitempty"`
	Data      json.RawMessage `json:"data"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Content == nil {
		return nil, fmt.Errorf("encode node %q: missing content", n.ID)
	}
	data, err := json.Marshal(n.Content)
	if err != nil {
		return nil, fmt.Errorf("encode node %q: %w", n.ID, err)
	}
	return json.Marshal(wireNode{
		ID:        n.ID,
		Type:      n.Content.Kind(),
		Name:      n.Name,
		X:         n.X,
		Y:         n.Y,
		Width:     n.Width,
		Height:    n.Height,
		Rotation:  n.Rotation,
		Opacity:   &n.Opacity,
		Locked:    n.Locked,
		SourceIDs: n.SourceIDs,
		Data:      data,
	})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var w wireNode
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	content, err := newContent(w.Type)
	if err != nil {
		return fmt.Errorf("decode node %q: %w", w.ID, err)
	}
	if len(w.Data) > 0 && string(w.Data) != "null" {
		if err := json.Unmarshal(w.Data, content); err != nil {
			return fmt.Errorf("decode node %q data: %w", w.ID, err)
		}
	}

	opacity := 1.0
	if w.Opacity != nil {
		opacity = *w.Opacity
	}

	*n = Node{
		ID:        w.ID,
		Name:      w.Name,
		X:         w.X,
		Y:         w.Y,
		Width:     w.Width,
		Height:    w.Height,
		Rotation:  w.Rotation,
		Opacity:   opacity,
		Locked:    w.Locked,
		SourceIDs: w.SourceIDs,
		Content:   content,
	}
	return nil
}

func newContent(k Kind) (Content, error) {
	switch k {
	case KindFrame:
		return &Frame{}, nil
	case KindImage:
		return &Image{}, nil
	case KindShape:
		return &Shape{}, nil
	case KindText:
		return &Text{}, nil
	case KindFreehand:
		return &Freehand{}, nil
	case KindPath:
		return &VectorPath{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}

// DecodeNodes parses a JSON array of nodes.
func DecodeNodes(data []byte) ([]*Node, error) {
	var nodes []*Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// EncodeNodes serializes nodes to a JSON array.
func EncodeNodes(nodes []*Node) ([]byte, error) {
	if nodes == nil {
		nodes = []*Node{}
	}
	return json.Marshal(nodes)
}
