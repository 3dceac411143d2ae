package scene

import (
	"github.com/inamate/canvas/internal/geom"
)

// NewSampleScene returns the scene a fresh editor session opens with: one
// poster frame and an instruction text, viewed at 60%.
func NewSampleScene() *Scene {
	frame := &Node{
		ID:      NewID(KindFrame),
		Name:    "Poster",
		X:       100,
		Y:       100,
		Width:   1920,
		Height:  1080,
		Opacity: 1,
		Content: &Frame{Fill: "#ffffff", Stroke: "#9ca3af"},
	}
	intro := &Node{
		ID:      NewID(KindText),
		X:       760,
		Y:       500,
		Width:   400,
		Height:  60,
		Opacity: 1,
		Content: &Text{
			Text:     "Drop an image here\nor pick a tool on the left",
			FontSize: 32,
			Align:    AlignCenter,
			Fill:     "#52525b",
		},
	}
	return New([]*Node{frame, intro}, geom.NewViewport(geom.Pt(40, 40), 0.6))
}
