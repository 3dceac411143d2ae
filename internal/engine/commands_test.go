package engine

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/snap"
)

func ops(cmds []DrawCommand) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Op
	}
	return out
}

func TestDrawListOrder(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("s", 10, 10, 50, 50), frame("f", 0, 0, 500, 500))
	e.SetSelection([]string{"s"})

	cmds := e.DrawList()
	want := []string{"node", "node", "outline",
		"handle", "handle", "handle", "handle", "handle", "handle", "handle", "handle",
		"rotateHandle"}
	if got := ops(cmds); !slices.Equal(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	if cmds[0].ObjectID != "f" || cmds[1].ObjectID != "s" {
		t.Errorf("paint order = %s, %s, want frame first", cmds[0].ObjectID, cmds[1].ObjectID)
	}
}

func TestDrawListNodeTransform(t *testing.T) {
	n := shape("s", 10, 20, 100, 50)
	n.Rotation = 90
	e, _ := newTestEngine(t, Options{}, n)
	e.scene.Viewport = geom.NewViewport(geom.Pt(5, 5), 2)

	cmd := e.DrawList()[0]
	m := geom.Matrix2D{}
	copy(m[:], cmd.Transform)
	// The box center is the rotation pivot and must land on the device
	// image of the scene center.
	got := m.TransformPoint(geom.Pt(50, 25))
	want := e.Viewport().ToDevice(n.Center())
	if !approxEqual(got.X, want.X, 1e-9) || !approxEqual(got.Y, want.Y, 1e-9) {
		t.Errorf("center maps to %v, want %v", got, want)
	}
	// The local origin rotates a quarter turn about it.
	o := m.TransformPoint(geom.Pt(0, 0))
	wantO := e.Viewport().ToDevice(geom.Pt(85, -5))
	if !approxEqual(o.X, wantO.X, 1e-9) || !approxEqual(o.Y, wantO.Y, 1e-9) {
		t.Errorf("origin maps to %v, want %v", o, wantO)
	}
}

func TestDrawListOverlays(t *testing.T) {
	settings := snap.Settings{SmartGuides: true, ShowGuides: true, Threshold: 5}
	e, _ := newTestEngine(t, Options{Snap: settings}, shape("a", 0, 0, 100, 100), shape("b", 200, 0, 100, 100))

	e.PointerDown(left(50, 50))
	e.PointerMove(left(147, 50))
	if got := ops(e.DrawList()); slices.Index(got, "guide") < 0 {
		t.Errorf("ops = %v, want guides while snapping", got)
	}
	e.PointerUp(left(147, 50))

	e.SetSelection([]string{"a", "b"})
	if got := ops(e.DrawList()); slices.Index(got, "groupBox") < 0 || slices.Index(got, "rotateHandle") >= 0 {
		t.Errorf("ops = %v, want a group box without a rotate grip", got)
	}

	e.PointerDown(left(500, 500))
	e.PointerMove(left(400, 400))
	cmds := e.DrawList()
	last := cmds[len(cmds)-1]
	if last.Op != "marquee" || last.Policy != Crossing {
		t.Errorf("last = %+v, want a crossing marquee", last)
	}
}

func TestDrawListHidesGripsWhileEditing(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, text("t", 0, 0, 100, 50, "hi"))
	e.DoubleClick(left(10, 10))
	if got := ops(e.DrawList()); slices.Index(got, "handle") >= 0 {
		t.Errorf("ops = %v, want no grips during text editing", got)
	}
}

func TestDrawListInProgressDrawing(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.SetTool(ToolPath)
	click(e, 0, 0)
	e.PointerMove(left(40, 30))
	cmds := e.DrawList()
	if len(cmds) != 1 || cmds[0].Op != "pathPreview" || len(cmds[0].Points) != 2 {
		t.Fatalf("draw list = %+v, want a two point path preview", cmds)
	}
	if len(e.PathPoints()) != 1 {
		t.Error("preview point leaked into the vertices")
	}

	e.SetTool(ToolFreehand)
	e.PointerDown(left(0, 0))
	e.PointerMove(left(5, 5))
	cmds = e.DrawList()
	if len(cmds) != 1 || cmds[0].Op != "stroke" || cmds[0].Stroke != scene.DefaultStrokeStyle().Color {
		t.Errorf("draw list = %+v, want the live stroke", cmds)
	}
}

func TestRenderJSON(t *testing.T) {
	if got, err := DrawCommandsToJSON(nil); err != nil || got != "[]" {
		t.Errorf("DrawCommandsToJSON(nil) = %q, %v, want []", got, err)
	}

	e, _ := newTestEngine(t, Options{}, shape("s", 0, 0, 10, 10))
	var decoded []struct {
		Op       string          `json:"op"`
		ObjectID string          `json:"objectId"`
		Node     json.RawMessage `json:"node"`
	}
	if err := json.Unmarshal([]byte(e.Render()), &decoded); err != nil {
		t.Fatalf("render output is not JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Op != "node" || decoded[0].ObjectID != "s" {
		t.Fatalf("decoded = %+v", decoded)
	}
	var n scene.Node
	if err := json.Unmarshal(decoded[0].Node, &n); err != nil || n.Kind() != scene.KindShape {
		t.Errorf("node payload = %s, %v", decoded[0].Node, err)
	}
}

func TestKeyboardHistoryShortcuts(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("a", 0, 0, 10, 10))
	e.UpdateNode("a", func(n *scene.Node) { n.X = 40 })

	ctrl := Modifiers{Ctrl: true}
	if !e.KeyDown(KeyEvent{Key: "z", Modifiers: ctrl}) || e.Node("a").X != 0 {
		t.Fatal("ctrl+z did not undo")
	}
	if !e.KeyDown(KeyEvent{Key: "Z", Modifiers: Modifiers{Ctrl: true, Shift: true}}) || e.Node("a").X != 40 {
		t.Fatal("ctrl+shift+z did not redo")
	}
	e.KeyDown(KeyEvent{Key: "z", Modifiers: ctrl})
	if !e.KeyDown(KeyEvent{Key: "y", Modifiers: ctrl}) || e.Node("a").X != 40 {
		t.Fatal("ctrl+y did not redo")
	}
	if e.KeyDown(KeyEvent{Key: "q"}) {
		t.Error("unbound key reported handled")
	}
}

func TestEscapeClearsSelection(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("a", 0, 0, 10, 10))
	e.SetSelection([]string{"a"})
	if !e.KeyDown(KeyEvent{Key: "Escape"}) || e.Selection() != nil {
		t.Error("Escape kept the selection")
	}
	if e.KeyDown(KeyEvent{Key: "Escape"}) {
		t.Error("Escape with nothing to do reported handled")
	}
}
