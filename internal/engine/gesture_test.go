package engine

import (
	"slices"
	"testing"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/snap"
)

func left(x, y float64) PointerEvent {
	return PointerEvent{X: x, Y: y, Button: ButtonLeft}
}

// press runs a full down, move, up sequence.
func press(e *Engine, from, to geom.Point) {
	e.PointerDown(left(from.X, from.Y))
	e.PointerMove(left(to.X, to.Y))
	e.PointerUp(left(to.X, to.Y))
}

func click(e *Engine, x, y float64) {
	e.PointerDown(left(x, y))
	e.PointerUp(left(x, y))
}

func TestDragMovesNodeAndCheckpoints(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, shape("a", 0, 0, 100, 100))

	e.PointerDown(left(50, 50))
	if e.Mode() != Dragging {
		t.Fatalf("mode = %v, want dragging", e.Mode())
	}
	if got := e.Selection(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("selection = %v, want [a]", got)
	}
	e.PointerMove(left(80, 90))
	if n := e.Node("a"); n.X != 30 || n.Y != 40 {
		t.Errorf("origin = (%v,%v), want (30,40)", n.X, n.Y)
	}
	e.PointerUp(left(80, 90))

	if e.Mode() != Idle {
		t.Errorf("mode = %v, want idle", e.Mode())
	}
	if rec.checkpoints != 1 {
		t.Errorf("checkpoints = %d, want 1", rec.checkpoints)
	}
	e.Undo()
	if n := e.Node("a"); n.X != 0 || n.Y != 0 {
		t.Errorf("after undo origin = (%v,%v), want (0,0)", n.X, n.Y)
	}
}

func TestDragMovesWholeSelection(t *testing.T) {
	locked := shape("l", 300, 0, 50, 50)
	locked.Locked = true
	e, _ := newTestEngine(t, Options{}, shape("a", 0, 0, 100, 100), shape("b", 150, 0, 100, 100), locked)
	e.SetSelection([]string{"a", "b", "l"})

	press(e, geom.Pt(50, 50), geom.Pt(60, 75))
	if n := e.Node("a"); n.X != 10 || n.Y != 25 {
		t.Errorf("a origin = (%v,%v), want (10,25)", n.X, n.Y)
	}
	if n := e.Node("b"); n.X != 160 || n.Y != 25 {
		t.Errorf("b origin = (%v,%v), want (160,25)", n.X, n.Y)
	}
	if n := e.Node("l"); n.X != 300 || n.Y != 0 {
		t.Errorf("locked origin = (%v,%v), want unchanged", n.X, n.Y)
	}
}

func TestClickWithoutMovingRecordsNothing(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, shape("a", 0, 0, 100, 100))
	click(e, 50, 50)
	press(e, geom.Pt(50, 50), geom.Pt(50.5, 51))
	if rec.checkpoints != 0 {
		t.Errorf("checkpoints = %d, want 0 below the move threshold", rec.checkpoints)
	}
}

func TestDragSnapsToSiblingEdge(t *testing.T) {
	settings := snap.Settings{SmartGuides: true, ShowGuides: true, Threshold: 5, GridSize: 20}
	e, rec := newTestEngine(t, Options{Snap: settings}, shape("a", 0, 0, 100, 100), shape("b", 200, 0, 100, 100))

	e.PointerDown(left(50, 50))
	e.PointerMove(left(147, 50))
	if got := e.Node("a").X; got != 100 {
		t.Errorf("x = %v, want 100: right edge snapped to sibling left edge", got)
	}
	want := []snap.Guide{{Orientation: snap.Vertical, Coordinate: 200}, {Orientation: snap.Horizontal, Coordinate: 0}}
	if got := e.Guides(); !slices.Equal(got, want) {
		t.Errorf("guides = %v, want %v", got, want)
	}
	e.PointerUp(left(147, 50))

	if e.Guides() != nil {
		t.Errorf("guides = %v after release, want none", e.Guides())
	}
	if n := len(rec.guides); n != 2 || rec.guides[1] != nil {
		t.Errorf("guide notifications = %v, want shown then cleared", rec.guides)
	}
}

func TestDragSnapsToGrid(t *testing.T) {
	settings := snap.Settings{SnapToGrid: true, GridSize: 20}
	e, _ := newTestEngine(t, Options{Snap: settings}, shape("a", 0, 0, 50, 50))
	press(e, geom.Pt(10, 10), geom.Pt(43, 18))
	if n := e.Node("a"); n.X != 40 || n.Y != 0 {
		t.Errorf("origin = (%v,%v), want (40,0)", n.X, n.Y)
	}
}

func TestLockedNodeSelectsButDoesNotMove(t *testing.T) {
	a := shape("a", 0, 0, 100, 100)
	a.Locked = true
	e, rec := newTestEngine(t, Options{}, a)
	press(e, geom.Pt(50, 50), geom.Pt(90, 90))
	if a.X != 0 || a.Y != 0 {
		t.Errorf("locked node moved to (%v,%v)", a.X, a.Y)
	}
	if got := e.Selection(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("selection = %v, want [a]", got)
	}
	if rec.checkpoints != 0 {
		t.Errorf("checkpoints = %d, want 0", rec.checkpoints)
	}
}

func TestModifierClicks(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("a", 0, 0, 10, 10), shape("b", 20, 0, 10, 10))
	click(e, 5, 5)
	e.PointerDown(PointerEvent{X: 25, Y: 5, Modifiers: Modifiers{Ctrl: true}})
	e.PointerUp(left(25, 5))
	if got := e.Selection(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("after ctrl click = %v, want [a b]", got)
	}
	e.PointerDown(PointerEvent{X: 5, Y: 5, Modifiers: Modifiers{Alt: true}})
	e.PointerUp(left(5, 5))
	if got := e.Selection(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("after alt click = %v, want [b]", got)
	}
	if e.Mode() != Idle {
		t.Errorf("mode = %v, want idle after modifier clicks", e.Mode())
	}
}

func TestPointerCancelRestoresDrag(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, shape("a", 0, 0, 100, 100))
	e.PointerDown(left(50, 50))
	e.PointerMove(left(150, 150))
	e.PointerCancel()
	if n := e.Node("a"); n.X != 0 || n.Y != 0 {
		t.Errorf("origin = (%v,%v), want (0,0) after cancel", n.X, n.Y)
	}
	if e.Mode() != Idle || rec.checkpoints != 0 {
		t.Errorf("mode = %v, checkpoints = %d, want idle and 0", e.Mode(), rec.checkpoints)
	}
}

func TestPanning(t *testing.T) {
	e, rec := newTestEngine(t, Options{})
	e.PointerDown(PointerEvent{X: 10, Y: 10, Button: ButtonMiddle})
	if e.Mode() != Panning {
		t.Fatalf("mode = %v, want panning", e.Mode())
	}
	e.PointerMove(PointerEvent{X: 40, Y: 30, Button: ButtonMiddle})
	if got := e.Viewport().Pan; got != geom.Pt(30, 20) {
		t.Errorf("pan = %v, want (30,20)", got)
	}
	e.PointerUp(PointerEvent{X: 40, Y: 30, Button: ButtonMiddle})
	if rec.checkpoints != 0 {
		t.Errorf("panning recorded %d checkpoints", rec.checkpoints)
	}

	e.SetTool(ToolHand)
	e.PointerDown(left(0, 0))
	e.PointerMove(left(100, 100))
	e.PointerCancel()
	if got := e.Viewport().Pan; got != geom.Pt(30, 20) {
		t.Errorf("pan = %v after cancel, want (30,20)", got)
	}
}

func TestResizeThroughCornerGrip(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, shape("a", 100, 100, 200, 100))
	e.SetSelection([]string{"a"})

	press(e, geom.Pt(300, 200), geom.Pt(400, 250))
	want := geom.Rect{X: 100, Y: 100, Width: 300, Height: 150}
	if got := e.Node("a").Box(); got != want {
		t.Errorf("box = %+v, want %+v", got, want)
	}
	if rec.checkpoints != 1 {
		t.Errorf("checkpoints = %d, want 1", rec.checkpoints)
	}
}

func TestResizeLockedFrameEdge(t *testing.T) {
	f := frame("f", 0, 0, 200, 100)
	f.Content.(*scene.Frame).LockedWidth = true
	e, _ := newTestEngine(t, Options{}, f)
	e.SetSelection([]string{"f"})

	press(e, geom.Pt(200, 50), geom.Pt(260, 50))
	if f.Width != 200 {
		t.Errorf("locked width changed to %v", f.Width)
	}
	press(e, geom.Pt(100, 100), geom.Pt(100, 140))
	if f.Height != 140 {
		t.Errorf("height = %v, want 140", f.Height)
	}
}

func TestGroupResizeScalesMembers(t *testing.T) {
	c := shape("c", 0, 200, 50, 50)
	c.Locked = true
	e, _ := newTestEngine(t, Options{}, shape("a", 0, 0, 100, 100), text("b", 100, 0, 100, 100, "hi"), c)
	e.SetSelection([]string{"a", "b", "c"})
	if b, _ := e.GroupBounds(); b != (geom.Rect{Width: 200, Height: 250}) {
		t.Fatalf("group bounds = %+v", b)
	}

	press(e, geom.Pt(200, 250), geom.Pt(300, 250))

	if got := e.Node("a").Box(); got != (geom.Rect{Width: 150, Height: 150}) {
		t.Errorf("a box = %+v, want 150x150 at origin", got)
	}
	if got := e.Node("b").Box(); got != (geom.Rect{X: 150, Width: 150, Height: 150}) {
		t.Errorf("b box = %+v, want 150x150 at (150,0)", got)
	}
	if fs := e.Node("b").Content.(*scene.Text).FontSize; !approxEqual(fs, 30, 1e-9) {
		t.Errorf("font size = %v, want 30", fs)
	}
	if got := e.Node("c").Box(); got != (geom.Rect{Y: 200, Width: 50, Height: 50}) {
		t.Errorf("locked member box = %+v, want unchanged", got)
	}
}

func TestRotateGrip(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, shape("a", 100, 100, 200, 100))
	e.SetSelection([]string{"a"})

	e.PointerDown(left(200, 227))
	if e.Mode() != Rotating {
		t.Fatalf("mode = %v, want rotating", e.Mode())
	}
	e.PointerMove(left(277, 150))
	e.PointerUp(left(277, 150))
	if got := e.Node("a").Rotation; !approxEqual(got, -90, 1e-9) {
		t.Errorf("rotation = %v, want -90", got)
	}
	if rec.checkpoints != 1 {
		t.Errorf("checkpoints = %d, want 1", rec.checkpoints)
	}
}

func TestFramesHaveNoRotateGrip(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, frame("f", 100, 100, 200, 100))
	e.SetSelection([]string{"f"})
	e.PointerDown(left(200, 227))
	if e.Mode() == Rotating {
		t.Error("frame started a rotation")
	}
}

func TestMarqueeGesture(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("a", 10, 10, 20, 20), shape("b", 90, 10, 40, 20))

	e.PointerDown(left(0, 0))
	if e.Mode() != MarqueeSelecting {
		t.Fatalf("mode = %v, want marquee", e.Mode())
	}
	e.PointerMove(left(100, 50))
	if m, ok := e.Marquee(); !ok || m.Policy() != Window {
		t.Errorf("marquee = %+v, %v, want a live window marquee", m, ok)
	}
	e.PointerUp(left(100, 50))
	if got := e.Selection(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("window selection = %v, want [a]", got)
	}
	if _, ok := e.Marquee(); ok {
		t.Error("marquee still live after release")
	}

	e.SetSelection([]string{"b"})
	e.PointerDown(left(0, 0))
	e.PointerMove(left(100, 50))
	e.PointerUp(PointerEvent{X: 100, Y: 50, Modifiers: Modifiers{Ctrl: true}})
	if got := e.Selection(); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("additive selection = %v, want [b a]", got)
	}

	press(e, geom.Pt(300, 300), geom.Pt(400, 400))
	if e.Selection() != nil {
		t.Errorf("empty marquee left selection %v", e.Selection())
	}
}

func TestMarqueeCrossingFromRight(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("a", 10, 10, 20, 20), shape("b", 90, 10, 40, 20))
	press(e, geom.Pt(100, 50), geom.Pt(0, 0))
	if got := e.Selection(); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("crossing selection = %v, want [b a]", got)
	}
}

func TestMarqueeCancelRestoresSelection(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("a", 10, 10, 20, 20))
	e.SetSelection([]string{"a"})
	e.PointerDown(left(200, 200))
	e.PointerMove(left(0, 0))
	e.PointerCancel()
	if got := e.Selection(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("selection = %v, want [a] restored", got)
	}
}

func TestContextMenu(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, shape("a", 0, 0, 100, 100), frame("f", 0, 0, 500, 500))

	e.PointerDown(PointerEvent{X: 50, Y: 50, Button: ButtonRight})
	if len(rec.menus) != 1 {
		t.Fatalf("menus = %d, want 1", len(rec.menus))
	}
	m := rec.menus[0]
	if m.TargetID != "a" || m.Kind != "shape" || !slices.Equal(m.Overlapping, []string{"a", "f"}) {
		t.Errorf("menu = %+v", m)
	}
	if got := e.Selection(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("selection = %v, want [a]", got)
	}
	if e.Mode() != Idle {
		t.Errorf("mode = %v, want idle", e.Mode())
	}

	e.PointerDown(PointerEvent{X: 600, Y: 600, Button: ButtonRight})
	if len(rec.menus) != 1 {
		t.Error("right click on empty canvas opened a menu")
	}
}

func TestFreehandStroke(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, shape("a", 500, 500, 10, 10))
	e.SetSelection([]string{"a"})
	e.SetTool(ToolFreehand)

	e.PointerDown(left(10, 10))
	if e.Selection() != nil {
		t.Error("drawing did not clear the selection")
	}
	e.PointerMove(left(20, 20))
	e.PointerMove(left(30, 25))
	e.PointerUp(left(30, 25))

	if len(rec.freehand) != 1 {
		t.Fatalf("freehand completions = %d, want 1", len(rec.freehand))
	}
	want := []geom.Point{{X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 25}}
	if !slices.Equal(rec.freehand[0], want) {
		t.Errorf("points = %v, want %v", rec.freehand[0], want)
	}
	if e.Mode() != Idle {
		t.Errorf("mode = %v, want idle", e.Mode())
	}

	click(e, 50, 50)
	if len(rec.freehand) != 1 {
		t.Error("single point stroke completed")
	}
}

func TestFreehandCancelDropsStroke(t *testing.T) {
	e, rec := newTestEngine(t, Options{})
	e.SetTool(ToolFreehand)
	e.PointerDown(left(10, 10))
	e.PointerMove(left(20, 20))
	e.PointerCancel()
	e.PointerUp(left(20, 20))
	if len(rec.freehand) != 0 {
		t.Errorf("cancelled stroke completed: %v", rec.freehand)
	}
}

func TestPathClosesNearFirstVertex(t *testing.T) {
	e, rec := newTestEngine(t, Options{})
	e.SetTool(ToolPath)
	click(e, 0, 0)
	click(e, 100, 0)
	click(e, 100, 100)
	if e.Mode() != Drawing {
		t.Fatalf("mode = %v, want drawing while drafting", e.Mode())
	}
	if len(e.PathPoints()) != 3 {
		t.Fatalf("vertices = %d, want 3", len(e.PathPoints()))
	}

	click(e, 5, 5)
	if len(rec.paths) != 1 || !rec.paths[0].closed || len(rec.paths[0].points) != 3 {
		t.Fatalf("paths = %+v, want one closed 3-vertex path", rec.paths)
	}
	if e.Mode() != Idle || e.PathPoints() != nil {
		t.Errorf("mode = %v, vertices = %v, want idle and none", e.Mode(), e.PathPoints())
	}
}

func TestPathNearFirstVertexNeedsThreePoints(t *testing.T) {
	e, rec := newTestEngine(t, Options{})
	e.SetTool(ToolPath)
	click(e, 0, 0)
	click(e, 100, 0)
	click(e, 5, 5)
	if len(rec.paths) != 0 || len(e.PathPoints()) != 3 {
		t.Errorf("paths = %v, vertices = %v, want drafting to continue", rec.paths, e.PathPoints())
	}
}

func TestPathFinishes(t *testing.T) {
	draft := func(t *testing.T) (*Engine, *recorder) {
		e, rec := newTestEngine(t, Options{})
		e.SetTool(ToolPath)
		click(e, 0, 0)
		click(e, 100, 0)
		return e, rec
	}

	t.Run("enter", func(t *testing.T) {
		e, rec := draft(t)
		if !e.KeyDown(KeyEvent{Key: "Enter"}) {
			t.Fatal("Enter ignored")
		}
		if len(rec.paths) != 1 || rec.paths[0].closed {
			t.Errorf("paths = %+v, want one open path", rec.paths)
		}
	})
	t.Run("tool switch", func(t *testing.T) {
		e, rec := draft(t)
		e.SetTool(ToolSelect)
		if len(rec.paths) != 1 || rec.paths[0].closed {
			t.Errorf("paths = %+v, want one open path", rec.paths)
		}
		if e.Mode() != Idle {
			t.Errorf("mode = %v, want idle", e.Mode())
		}
	})
	t.Run("double click", func(t *testing.T) {
		e, rec := draft(t)
		click(e, 100, 0)
		e.DoubleClick(left(100, 0))
		if len(rec.paths) != 1 || len(rec.paths[0].points) != 2 {
			t.Errorf("paths = %+v, want one 2-vertex path", rec.paths)
		}
	})
	t.Run("escape", func(t *testing.T) {
		e, rec := draft(t)
		if !e.KeyDown(KeyEvent{Key: "Escape"}) {
			t.Fatal("Escape ignored")
		}
		if len(rec.paths) != 0 || e.PathPoints() != nil {
			t.Errorf("paths = %+v, vertices = %v, want discarded", rec.paths, e.PathPoints())
		}
	})
}

func TestPathSurvivesPanning(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.SetTool(ToolPath)
	click(e, 0, 0)
	e.PointerDown(PointerEvent{X: 10, Y: 10, Button: ButtonMiddle})
	e.PointerMove(PointerEvent{X: 20, Y: 10, Button: ButtonMiddle})
	e.PointerUp(PointerEvent{X: 20, Y: 10, Button: ButtonMiddle})
	if e.Mode() != Drawing || len(e.PathPoints()) != 1 {
		t.Errorf("mode = %v, vertices = %v, want drafting to resume", e.Mode(), e.PathPoints())
	}
}

func TestDoubleClickTextEditing(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, text("t", 0, 0, 100, 50, "hi"), shape("s", 200, 0, 50, 50))
	e.DoubleClick(left(10, 10))
	if e.EditingID() != "t" {
		t.Fatalf("editing = %q, want t", e.EditingID())
	}

	if e.KeyDown(KeyEvent{Key: "z", Modifiers: Modifiers{Ctrl: true}}) {
		t.Error("undo ran during text editing")
	}
	e.SetText("hello")
	if e.KeyDown(KeyEvent{Key: "Backspace"}) {
		t.Error("delete ran during text editing")
	}
	if e.Node("t") == nil {
		t.Fatal("text node deleted while editing")
	}

	e.PointerDown(left(10, 10))
	if e.Mode() != Idle {
		t.Errorf("press on edited text started %v", e.Mode())
	}
	e.PointerUp(left(10, 10))

	if !e.KeyDown(KeyEvent{Key: "Escape"}) || e.EditingID() != "" {
		t.Fatal("Escape did not end editing")
	}
	if rec.checkpoints != 1 {
		t.Errorf("checkpoints = %d, want 1 for the text change", rec.checkpoints)
	}
	e.Undo()
	if got := e.Node("t").Content.(*scene.Text).Text; got != "hi" {
		t.Errorf("text after undo = %q, want hi", got)
	}
}

func TestClickElsewhereEndsTextEditing(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, text("t", 0, 0, 100, 50, "hi"))
	e.DoubleClick(left(10, 10))
	click(e, 500, 500)
	if e.EditingID() != "" {
		t.Error("click on empty canvas kept text focus")
	}
	if rec.checkpoints != 0 {
		t.Errorf("checkpoints = %d, want 0 for unchanged text", rec.checkpoints)
	}
}

func TestCropMode(t *testing.T) {
	e, rec := newTestEngine(t, Options{}, image("i", 0, 0, 200, 100))
	e.DoubleClick(left(50, 50))
	if e.CroppingID() != "i" {
		t.Fatalf("cropping = %q, want i", e.CroppingID())
	}

	press(e, geom.Pt(50, 50), geom.Pt(60, 70))
	n := e.Node("i")
	if n.Box() != (geom.Rect{Width: 200, Height: 100}) {
		t.Errorf("box moved to %+v during crop drag", n.Box())
	}
	want := &scene.Crop{Offset: geom.Pt(10, 20), Size: geom.Size{Width: 200, Height: 100}}
	if got := n.Content.(*scene.Image).Crop; got == nil || *got != *want {
		t.Errorf("crop = %+v, want %+v", got, want)
	}
	if rec.checkpoints != 1 {
		t.Errorf("checkpoints = %d, want 1", rec.checkpoints)
	}

	if !e.KeyDown(KeyEvent{Key: "Escape"}) || e.CroppingID() != "" {
		t.Error("Escape did not leave crop mode")
	}
	if got := e.Selection(); !slices.Equal(got, []string{"i"}) {
		t.Errorf("selection = %v, want [i] kept after leaving crop mode", got)
	}
}

func TestCommandsRejectedDuringGesture(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("a", 0, 0, 100, 100))
	e.UpdateNode("a", func(n *scene.Node) { n.X = 1 })
	e.PointerDown(left(50, 50))

	if e.Undo() {
		t.Error("undo ran during a drag")
	}
	if e.DeleteSelection() != 0 || e.Node("a") == nil {
		t.Error("delete ran during a drag")
	}
	if e.Copy() {
		t.Error("copy ran during a drag")
	}
	e.PointerDown(left(10, 10))
	if e.Mode() != Dragging {
		t.Errorf("second press changed mode to %v", e.Mode())
	}
}

func TestSetToolCancelsGesture(t *testing.T) {
	e, _ := newTestEngine(t, Options{}, shape("a", 0, 0, 100, 100))
	e.PointerDown(left(50, 50))
	e.PointerMove(left(90, 50))
	if !e.SetTool(ToolHand) {
		t.Fatal("SetTool rejected a known tool")
	}
	if e.Node("a").X != 0 || e.Mode() != Idle {
		t.Errorf("x = %v, mode = %v, want drag undone", e.Node("a").X, e.Mode())
	}
	if e.SetTool("lasso") || e.Tool() != ToolHand {
		t.Error("unknown tool accepted")
	}
}

func TestFrameQueueCoalescesMoves(t *testing.T) {
	q := NewFrameQueue()
	var ran []int
	q.Schedule(func() { ran = append(ran, 1) })
	q.Schedule(func() { ran = append(ran, 2) })
	if !q.Pending() {
		t.Fatal("nothing pending after Schedule")
	}
	q.Frame()
	q.Frame()
	if !slices.Equal(ran, []int{2}) {
		t.Errorf("ran = %v, want only the latest update", ran)
	}

	q.Schedule(func() { ran = append(ran, 3) })
	q.Cancel()
	q.Frame()
	if len(ran) != 1 {
		t.Errorf("cancelled update ran: %v", ran)
	}
}

func TestFrameQueueDefersDrag(t *testing.T) {
	q := NewFrameQueue()
	e, rec := newTestEngine(t, Options{Scheduler: q}, shape("a", 0, 0, 100, 100))

	e.PointerDown(left(50, 50))
	e.PointerMove(left(60, 50))
	e.PointerMove(left(80, 50))
	if e.Node("a").X != 0 {
		t.Error("move applied before the frame")
	}
	e.Tick()
	if got := e.Node("a").X; got != 30 {
		t.Errorf("x = %v after tick, want 30", got)
	}

	e.PointerMove(left(90, 50))
	e.PointerUp(left(90, 50))
	if got := e.Node("a").X; got != 40 {
		t.Errorf("x = %v after release, want 40: pending move flushed", got)
	}
	if rec.checkpoints != 1 {
		t.Errorf("checkpoints = %d, want 1", rec.checkpoints)
	}
}

// repeatedMoves is a gesture whose single move sample can be sent many times.
type repeatedMoves struct {
	name     string
	nodes    func() []*scene.Node
	selected []string
	tool     Tool
	from, to geom.Point
}

func TestRepeatedMovesAreIdempotent(t *testing.T) {
	tests := []repeatedMoves{
		{
			name:     "drag",
			nodes:    func() []*scene.Node { return []*scene.Node{shape("a", 0, 0, 100, 100)} },
			selected: []string{"a"},
			from:     geom.Pt(50, 50),
			to:       geom.Pt(80, 90),
		},
		{
			name:     "resize",
			nodes:    func() []*scene.Node { return []*scene.Node{shape("a", 100, 100, 200, 100)} },
			selected: []string{"a"},
			from:     geom.Pt(300, 200),
			to:       geom.Pt(400, 250),
		},
		{
			name: "group resize",
			nodes: func() []*scene.Node {
				return []*scene.Node{shape("a", 0, 0, 100, 100), text("b", 100, 0, 100, 100, "hi")}
			},
			selected: []string{"a", "b"},
			from:     geom.Pt(200, 100),
			to:       geom.Pt(300, 150),
		},
		{
			name:     "rotate",
			nodes:    func() []*scene.Node { return []*scene.Node{shape("a", 100, 100, 200, 100)} },
			selected: []string{"a"},
			from:     geom.Pt(200, 227),
			to:       geom.Pt(277, 150),
		},
		{
			name:  "freehand",
			nodes: func() []*scene.Node { return nil },
			tool:  ToolFreehand,
			from:  geom.Pt(10, 10),
			to:    geom.Pt(30, 25),
		},
	}

	run := func(t *testing.T, tt repeatedMoves, moves int) (*Engine, *recorder) {
		e, rec := newTestEngine(t, Options{}, tt.nodes()...)
		if tt.selected != nil {
			e.SetSelection(tt.selected)
		}
		if tt.tool != "" {
			e.SetTool(tt.tool)
		}
		e.PointerDown(left(tt.from.X, tt.from.Y))
		for range moves {
			e.PointerMove(left(tt.to.X, tt.to.Y))
		}
		e.PointerUp(left(tt.to.X, tt.to.Y))
		return e, rec
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once, onceRec := run(t, tt, 1)
			many, manyRec := run(t, tt, 4)

			for _, n := range once.Nodes() {
				got := many.Node(n.ID)
				if got.Box() != n.Box() || !approxEqual(got.Rotation, n.Rotation, 1e-9) {
					t.Errorf("%s after repeats = %+v rot %v, want %+v rot %v",
						n.ID, got.Box(), got.Rotation, n.Box(), n.Rotation)
				}
			}
			if len(onceRec.freehand) != len(manyRec.freehand) {
				t.Fatalf("freehand completions = %d, want %d", len(manyRec.freehand), len(onceRec.freehand))
			}
			for i := range onceRec.freehand {
				if !slices.Equal(manyRec.freehand[i], onceRec.freehand[i]) {
					t.Errorf("points = %v, want %v", manyRec.freehand[i], onceRec.freehand[i])
				}
			}
			if onceRec.checkpoints != manyRec.checkpoints {
				t.Errorf("checkpoints = %d, want %d", manyRec.checkpoints, onceRec.checkpoints)
			}
		})
	}
}
