package engine

import (
	"encoding/json"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/snap"
	"github.com/inamate/canvas/internal/transform"
)

// Overlay colors.
const (
	selectionColor = "#0096FF"
	guideColor     = "#FF00FF"
)

// DrawCommand is one item of the draw list the renderer executes.
// Scene-space items carry a Transform mapping their local space onto the
// device; grip items are already in device pixels. Op is one of "node",
// "outline", "groupBox", "cropWindow", "handle", "rotateHandle", "guide",
// "marquee", "stroke" or "pathPreview".
type DrawCommand struct {
	Op          string           `json:"op"`
	ObjectID    string           `json:"objectId,omitempty"`
	Transform   []float64        `json:"transform,omitempty"`
	Node        *scene.Node      `json:"node,omitempty"`
	Rect        *geom.Rect       `json:"rect,omitempty"`
	Points      []geom.Point     `json:"points,omitempty"`
	Handle      transform.Handle `json:"handle,omitempty"`
	Guide       *snap.Guide      `json:"guide,omitempty"`
	Policy      Policy           `json:"policy,omitempty"`
	Stroke      string           `json:"stroke,omitempty"`
	StrokeWidth float64          `json:"strokeWidth,omitempty"`
	Fill        string           `json:"fill,omitempty"`
	Opacity     float64          `json:"opacity,omitempty"`
}

// nodeTransform maps a node's local box space onto the device, rotating
// about the box center.
func nodeTransform(n *scene.Node, vp geom.Viewport) geom.Matrix2D {
	local := geom.Translate(n.X, n.Y)
	if n.Rotation != 0 {
		local = local.Multiply(geom.RotateAbout(n.Rotation, geom.Pt(n.Width/2, n.Height/2)))
	}
	return vp.Matrix().Multiply(local)
}

// DrawList compiles the scene and the interaction overlay in painter's
// order: nodes back to front, then selection, grips, guides, marquee and
// in-progress drawing.
func (e *Engine) DrawList() []DrawCommand {
	vp := e.scene.Viewport
	view := vp.Matrix().ToSlice()
	var cmds []DrawCommand

	for _, n := range scene.RenderOrder(e.scene.Nodes) {
		cmds = append(cmds, DrawCommand{
			Op:        "node",
			ObjectID:  n.ID,
			Transform: nodeTransform(n, vp).ToSlice(),
			Node:      n,
			Opacity:   n.Opacity,
		})
	}

	selected := e.selectedNodes()
	for _, n := range selected {
		r := geom.Rect{Width: n.Width, Height: n.Height}
		cmds = append(cmds, DrawCommand{
			Op:          "outline",
			ObjectID:    n.ID,
			Transform:   nodeTransform(n, vp).ToSlice(),
			Rect:        &r,
			Stroke:      selectionColor,
			StrokeWidth: 1 / vp.Zoom,
		})
	}
	if len(selected) > 1 {
		b, _ := scene.Bounds(selected)
		cmds = append(cmds, DrawCommand{Op: "groupBox", Transform: view, Rect: &b, Stroke: selectionColor, StrokeWidth: 1 / vp.Zoom})
	}
	if e.croppingID != "" {
		if n := e.scene.Get(e.croppingID); n != nil {
			w := cropWindow(n)
			cmds = append(cmds, DrawCommand{Op: "cropWindow", ObjectID: n.ID, Transform: view, Rect: &w, Stroke: selectionColor})
		}
	}

	if t, ok := e.handleTarget(); ok && !e.editingFocused() {
		for _, h := range transform.Handles {
			r := geom.RectAround(vp.ToDevice(h.Position(t.Box)), HandleSize)
			cmds = append(cmds, DrawCommand{Op: "handle", Handle: h, Rect: &r, Fill: "#ffffff", Stroke: selectionColor})
		}
		if t.Rotate {
			r := geom.RectAround(RotateHandleCenter(t.Box, vp), RotateHandleSize)
			cmds = append(cmds, DrawCommand{Op: "rotateHandle", Rect: &r, Fill: "#ffffff", Stroke: selectionColor})
		}
	}

	for i := range e.guides {
		cmds = append(cmds, DrawCommand{Op: "guide", Transform: view, Guide: &e.guides[i], Stroke: guideColor, StrokeWidth: 1 / vp.Zoom})
	}

	if e.marquee != nil {
		r := e.marquee.Rect()
		cmds = append(cmds, DrawCommand{Op: "marquee", Transform: view, Rect: &r, Policy: e.marquee.Policy(), Stroke: selectionColor})
	}

	if len(e.drawing) > 0 {
		cmds = append(cmds, DrawCommand{
			Op:          "stroke",
			Transform:   view,
			Points:      e.drawing,
			Stroke:      e.stroke.Color,
			StrokeWidth: e.stroke.StrokeWidth,
			Opacity:     e.stroke.Opacity,
		})
	}
	if len(e.pathPoints) > 0 {
		pts := e.pathPoints
		if e.pathPreview != nil {
			pts = append(pts[:len(pts):len(pts)], *e.pathPreview)
		}
		cmds = append(cmds, DrawCommand{Op: "pathPreview", Transform: view, Points: pts, Stroke: selectionColor, StrokeWidth: 2 / vp.Zoom})
	}
	return cmds
}

func (e *Engine) editingFocused() bool {
	return e.editingID != ""
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		commands = []DrawCommand{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// Render compiles the draw list and returns it as JSON.
func (e *Engine) Render() string {
	result, err := DrawCommandsToJSON(e.DrawList())
	if err != nil {
		e.log.Error("encode draw list", "error", err)
	}
	return result
}

// Tick applies the pointer move queued since the last frame and renders.
// Hosts call it once per display refresh.
func (e *Engine) Tick() string {
	e.sched.Flush()
	return e.Render()
}
