package engine

import (
	"math"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/snap"
	"github.com/inamate/canvas/internal/transform"
)

const (
	// MoveThreshold is how far, in device pixels along either axis, the
	// pointer must travel before a gesture counts as an edit.
	MoveThreshold = 1.0
	// PathCloseRadius is the device distance from the first vertex within
	// which a click closes the path being drafted.
	PathCloseRadius = 15.0
)

// Button numbers follow the DOM MouseEvent.button convention.
type Button int

const (
	ButtonLeft   Button = 0
	ButtonMiddle Button = 1
	ButtonRight  Button = 2
)

type Modifiers struct {
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// additive is the toggle modifier: Ctrl, or Cmd on macOS.
func (m Modifiers) additive() bool { return m.Ctrl || m.Meta }

// PointerEvent is a pointer sample in device pixels.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Modifiers
}

func (ev PointerEvent) point() geom.Point { return geom.Pt(ev.X, ev.Y) }

// session is the anchor data of one gesture, captured at pointer-down.
// Geometry during the gesture is always recomputed from it, never
// accumulated.
type session struct {
	startDevice geom.Point
	moved       bool

	// Start copies of every node the gesture transforms.
	anchors []*scene.Node
	// Reference node for snapping and rotation.
	primary string

	handle transform.Handle
	group  bool
	bounds geom.Rect // group box at start
	crop   bool      // the gesture edits a crop window, not the box

	startPan geom.Point
	before   []string // selection before a marquee
}

func (g *session) anchor(id string) *scene.Node {
	for _, a := range g.anchors {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// track records whether the pointer has left the start position.
func (g *session) track(dev geom.Point) {
	if math.Abs(dev.X-g.startDevice.X) > MoveThreshold || math.Abs(dev.Y-g.startDevice.Y) > MoveThreshold {
		g.moved = true
	}
}

// PointerDown starts a gesture. Targets are resolved in a fixed order:
// drawing tools, context menu, rotate grip, resize grips, the text being
// edited, panning, nodes, and finally empty canvas.
func (e *Engine) PointerDown(ev PointerEvent) {
	e.sched.Flush()
	if e.gestureActive() {
		e.log.Debug("pointer down ignored during gesture", "mode", e.mode, "button", ev.Button)
		return
	}
	vp := e.scene.Viewport
	dev := ev.point()
	p := vp.ToScene(dev)

	if ev.Button == ButtonLeft {
		switch e.tool {
		case ToolFreehand:
			e.drawing = []geom.Point{p}
			e.mode = Drawing
			e.gesture = &session{startDevice: dev}
			e.ClearSelection()
			return
		case ToolPath:
			e.addPathVertex(dev, p)
			return
		}
	}

	hitID, hit := TopNodeAt(p, e.scene.Nodes)

	if ev.Button == ButtonRight {
		if hit {
			if !e.selection.Contains(hitID) {
				e.selectOnly(hitID)
			}
			e.listener.OnContextMenu(ContextMenu{
				X:           ev.X,
				Y:           ev.Y,
				TargetID:    hitID,
				Kind:        string(e.scene.Get(hitID).Kind()),
				Overlapping: NodesAt(p, e.scene.Nodes),
			})
		}
		return
	}

	if ev.Button == ButtonLeft {
		if t, ok := e.handleTarget(); ok {
			if h, ok := HandleAt(dev, t, vp); ok && e.beginHandle(h, dev) {
				return
			}
		}
		if hit && hitID == e.editingID {
			return
		}
	}

	if ev.Button == ButtonMiddle || (ev.Button == ButtonLeft && e.tool == ToolHand) {
		e.mode = Panning
		e.gesture = &session{startDevice: dev, startPan: vp.Pan}
		return
	}
	if ev.Button != ButtonLeft {
		return
	}

	if hit {
		e.pressNode(hitID, ev, dev)
		return
	}
	e.EndTextEdit()
	if e.tool == ToolSelect {
		e.marquee = &Marquee{Start: p, Current: p}
		e.mode = MarqueeSelecting
		e.gesture = &session{startDevice: dev, before: e.selection.IDs()}
	}
}

func (e *Engine) addPathVertex(dev, p geom.Point) {
	vp := e.scene.Viewport
	if len(e.pathPoints) >= 3 && dev.Dist(vp.ToDevice(e.pathPoints[0])) < PathCloseRadius {
		e.finishPath(true)
		return
	}
	// The second press of a double-click lands on the vertex just added.
	if n := len(e.pathPoints); n > 0 && dev.Dist(vp.ToDevice(e.pathPoints[n-1])) <= MoveThreshold {
		return
	}
	e.pathPoints = append(e.pathPoints, p)
	e.mode = Drawing
	e.ClearSelection()
}

// finishPath ends the path being drafted. Paths with fewer than two
// vertices are discarded.
func (e *Engine) finishPath(closed bool) {
	pts := e.pathPoints
	e.pathPoints = nil
	e.pathPreview = nil
	if e.mode == Drawing {
		e.mode = Idle
	}
	if len(pts) >= 2 {
		e.listener.OnPathComplete(pts, closed)
	}
}

// CancelPath discards the path being drafted.
func (e *Engine) CancelPath() {
	e.pathPoints = nil
	e.pathPreview = nil
	if e.mode == Drawing && e.gesture == nil {
		e.mode = Idle
	}
}

// handleTarget returns the box whose grips are live: the group box of a
// multi-selection, the crop window in crop mode, or the selected node.
func (e *Engine) handleTarget() (HandleTarget, bool) {
	switch nodes := e.selectedNodes(); {
	case len(nodes) > 1:
		b, _ := scene.Bounds(nodes)
		return HandleTarget{Box: b}, true
	case len(nodes) == 1:
		n := nodes[0]
		if n.ID == e.croppingID {
			return HandleTarget{Box: cropWindow(n)}, true
		}
		return HandleTarget{Box: n.Box(), Rotate: n.Kind() != scene.KindFrame}, true
	}
	return HandleTarget{}, false
}

// cropWindow returns an image's content window in scene coordinates.
func cropWindow(n *scene.Node) geom.Rect {
	img := n.Content.(*scene.Image)
	w := img.ContentWindow(n.Box().Size())
	return geom.Rect{X: n.X + w.Offset.X, Y: n.Y + w.Offset.Y, Width: w.Size.Width, Height: w.Size.Height}
}

// beginHandle starts a resize or rotate from a grip. It returns false when
// the grip belongs to a locked node, letting the press fall through.
func (e *Engine) beginHandle(h HandleHit, dev geom.Point) bool {
	nodes := e.selectedNodes()
	if len(nodes) > 1 {
		if h.Rotate {
			return false
		}
		bounds, _ := scene.Bounds(nodes)
		g := &session{startDevice: dev, handle: h.Handle, group: true, bounds: bounds}
		for _, n := range nodes {
			if !n.Locked {
				g.anchors = append(g.anchors, n.Clone())
			}
		}
		e.gesture = g
		e.mode = Resizing
		return true
	}

	n := nodes[0]
	if n.Locked {
		return false
	}
	g := &session{startDevice: dev, anchors: []*scene.Node{n.Clone()}, primary: n.ID}
	if h.Rotate {
		e.mode = Rotating
	} else {
		g.handle = h.Handle
		g.crop = n.ID == e.croppingID
		e.mode = Resizing
	}
	e.gesture = g
	return true
}

// pressNode handles a left press on a node: modifier clicks edit the
// selection, a plain click selects and starts a drag.
func (e *Engine) pressNode(id string, ev PointerEvent, dev geom.Point) {
	switch {
	case ev.Alt:
		e.changeSelection(func(s *Selection) { s.Remove(id) })
		return
	case ev.additive():
		e.changeSelection(func(s *Selection) { s.Toggle(id) })
		return
	}

	if e.croppingID != "" && e.croppingID != id {
		e.croppingID = ""
	}
	if e.editingID != "" && e.editingID != id {
		e.EndTextEdit()
	}
	if !e.selection.Contains(id) {
		e.selectOnly(id)
	}

	n := e.scene.Get(id)
	if n.Locked {
		return
	}
	g := &session{startDevice: dev, primary: id}
	if id == e.croppingID {
		g.anchors = []*scene.Node{n.Clone()}
		g.crop = true
	} else {
		for _, m := range e.selectedNodes() {
			if !m.Locked {
				g.anchors = append(g.anchors, m.Clone())
			}
		}
		if p, ok := e.selection.Primary(); ok && g.anchor(p) != nil {
			g.primary = p
		}
	}
	e.gesture = g
	e.mode = Dragging
}

// PointerMove feeds a pointer sample to the active gesture. Processing goes
// through the scheduler, so only the latest sample per tick is applied.
func (e *Engine) PointerMove(ev PointerEvent) {
	if e.gesture == nil && !(e.mode == Drawing && len(e.pathPoints) > 0) {
		return
	}
	e.sched.Schedule(func() { e.applyMove(ev) })
}

func (e *Engine) applyMove(ev PointerEvent) {
	vp := e.scene.Viewport
	dev := ev.point()
	g := e.gesture
	if g != nil {
		g.track(dev)
	}
	d := dev.Sub(e.startDevice()).Mul(1 / vp.Zoom)

	switch e.mode {
	case Panning:
		e.scene.Viewport.Pan = g.startPan.Add(dev.Sub(g.startDevice))
	case Dragging:
		e.drag(g, d)
	case Resizing:
		e.resize(g, d)
	case Rotating:
		e.rotate(g, dev)
	case Drawing:
		p := vp.ToScene(dev)
		if e.tool == ToolFreehand {
			// A repeated sample adds nothing to the stroke.
			if n := len(e.drawing); n == 0 || e.drawing[n-1] != p {
				e.drawing = append(e.drawing, p)
			}
		} else {
			e.pathPreview = &p
		}
	case MarqueeSelecting:
		e.marquee.Current = vp.ToScene(dev)
	}
}

func (e *Engine) startDevice() geom.Point {
	if e.gesture == nil {
		return geom.Point{}
	}
	return e.gesture.startDevice
}

func (e *Engine) drag(g *session, d geom.Point) {
	if g.crop {
		a := g.anchors[0]
		n := e.scene.Get(a.ID)
		if n == nil {
			return
		}
		win := cropRect(a)
		setCrop(n, transform.MoveCrop(win, d.X, d.Y))
		return
	}

	ref := g.anchor(g.primary)
	if ref == nil {
		return
	}
	var siblings []geom.Rect
	for _, n := range e.scene.Nodes {
		if g.anchor(n.ID) == nil {
			siblings = append(siblings, n.Box())
		}
	}
	raw := ref.Box().Origin().Add(d)
	res := snap.Apply(raw, ref.Box().Size(), siblings, e.scene.Viewport.Zoom, e.snap)
	fd := res.Point.Sub(ref.Box().Origin())

	for _, a := range g.anchors {
		if n := e.scene.Get(a.ID); n != nil {
			n.X = a.X + fd.X
			n.Y = a.Y + fd.Y
		}
	}
	e.setGuides(res.Guides)
}

func (e *Engine) resize(g *session, d geom.Point) {
	if g.group {
		s := transform.GroupResize(g.handle, d.X, d.Y, g.bounds)
		for _, a := range g.anchors {
			if n := e.scene.Get(a.ID); n != nil {
				scaleMember(n, a, s)
			}
		}
		return
	}

	a := g.anchors[0]
	n := e.scene.Get(a.ID)
	if n == nil {
		return
	}
	if g.crop {
		setCrop(n, transform.Crop(g.handle, d.X, d.Y, cropRect(a)))
		return
	}

	switch c := a.Content.(type) {
	case *scene.Image:
		var win *transform.Window
		if c.Crop != nil {
			w := cropRect(a)
			win = &w
		}
		box, next := transform.ResizeImage(e.resizeMode, g.handle, d.X, d.Y, a.Box(), win)
		n.SetBox(box)
		if next == nil {
			n.Content.(*scene.Image).Crop = nil
		} else {
			setCrop(n, *next)
		}
	case *scene.Frame:
		lock := transform.Lock{Width: c.LockedWidth, Height: c.LockedHeight}
		n.SetBox(transform.Resize(g.handle, d.X, d.Y, a.Box(), lock))
	case *scene.Shape, *scene.Text, *scene.Freehand, *scene.VectorPath:
		n.SetBox(transform.Resize(g.handle, d.X, d.Y, a.Box(), transform.Lock{}))
	default:
		panic("engine: unhandled content " + string(a.Kind()))
	}
}

// scaleMember applies a group scale to one member, starting from its anchor
// copy a.
func scaleMember(n, a *scene.Node, s transform.Scale) {
	n.SetBox(s.Box(a.Box()))
	switch c := a.Content.(type) {
	case *scene.Text:
		n.Content.(*scene.Text).FontSize = c.FontSize * s.Mean()
	case *scene.Image:
		if c.Crop != nil {
			m := s.Mean()
			setCrop(n, transform.Window{
				X:      c.Crop.Offset.X * m,
				Y:      c.Crop.Offset.Y * m,
				Width:  c.Crop.Size.Width * m,
				Height: c.Crop.Size.Height * m,
			})
		}
	case *scene.Frame, *scene.Shape, *scene.Freehand, *scene.VectorPath:
	default:
		panic("engine: unhandled content " + string(a.Kind()))
	}
}

func (e *Engine) rotate(g *session, dev geom.Point) {
	a := g.anchors[0]
	n := e.scene.Get(a.ID)
	if n == nil {
		return
	}
	center := e.scene.Viewport.ToDevice(a.Center())
	n.Rotation = transform.Rotate(center, g.startDevice, dev, a.Rotation)
}

// cropRect returns the box-relative crop window of an image anchor.
func cropRect(a *scene.Node) transform.Window {
	w := a.Content.(*scene.Image).ContentWindow(a.Box().Size())
	return transform.Window{X: w.Offset.X, Y: w.Offset.Y, Width: w.Size.Width, Height: w.Size.Height}
}

func setCrop(n *scene.Node, w transform.Window) {
	n.Content.(*scene.Image).Crop = &scene.Crop{
		Offset: geom.Pt(w.X, w.Y),
		Size:   geom.Size{Width: w.Width, Height: w.Height},
	}
}

func (e *Engine) setGuides(guides []snap.Guide) {
	if len(guides) == 0 && len(e.guides) == 0 {
		return
	}
	e.guides = guides
	e.listener.OnGuidesChange(guides)
}

// PointerUp ends the gesture. Pending moves are applied first. Drags,
// resizes and rotations record a history entry only if the pointer moved.
func (e *Engine) PointerUp(ev PointerEvent) {
	e.sched.Flush()
	g := e.gesture
	e.setGuides(nil)

	switch e.mode {
	case Dragging, Resizing, Rotating:
		if g != nil && g.moved {
			e.checkpoint()
		}
	case Drawing:
		if e.tool == ToolFreehand {
			pts := e.drawing
			e.drawing = nil
			if len(pts) >= 2 {
				e.listener.OnFreehandComplete(pts)
			}
		}
	case MarqueeSelecting:
		e.finishMarquee(g, ev.additive())
	}
	e.settle()
}

// settle returns to Idle once a gesture ends, or to Drawing while a path is
// still being drafted.
func (e *Engine) settle() {
	e.gesture = nil
	e.mode = Idle
	if e.tool == ToolPath && len(e.pathPoints) > 0 {
		e.mode = Drawing
	}
}

func (e *Engine) finishMarquee(g *session, additive bool) {
	ids := e.marquee.Matches(e.scene.Nodes)
	e.marquee = nil
	switch {
	case len(ids) > 0 && additive:
		e.changeSelection(func(s *Selection) {
			s.Replace(g.before...)
			s.Union(ids...)
		})
	case len(ids) > 0:
		e.changeSelection(func(s *Selection) { s.Replace(ids...) })
	case !additive:
		e.ClearSelection()
	}
}

// PointerCancel abandons the gesture after a lost pointer capture. Every
// transformed node returns to its start copy, the pan and the pre-marquee
// selection are restored, and a freehand stroke is dropped.
func (e *Engine) PointerCancel() {
	e.sched.Cancel()
	g := e.gesture
	if g == nil {
		return
	}
	switch e.mode {
	case Dragging, Resizing, Rotating:
		for _, a := range g.anchors {
			if i := e.scene.Index(a.ID); i >= 0 {
				e.scene.Nodes[i] = a.Clone()
			}
		}
	case Panning:
		e.scene.Viewport.Pan = g.startPan
	case MarqueeSelecting:
		e.marquee = nil
		e.changeSelection(func(s *Selection) { s.Replace(g.before...) })
	case Drawing:
		e.drawing = nil
	}
	e.setGuides(nil)
	e.settle()
}

// DoubleClick finishes an open path on empty canvas, enters text editing on
// a text node and crop mode on an image. The clicked node becomes the
// selection.
func (e *Engine) DoubleClick(ev PointerEvent) {
	e.sched.Flush()
	p := e.scene.Viewport.ToScene(ev.point())
	id, hit := TopNodeAt(p, e.scene.Nodes)

	if e.tool == ToolPath && !hit {
		if len(e.pathPoints) >= 2 {
			e.finishPath(false)
		}
		return
	}
	if !hit {
		return
	}

	if e.editingID != "" && e.editingID != id {
		e.EndTextEdit()
	}
	e.selectOnly(id)
	n := e.scene.Get(id)
	switch n.Content.(type) {
	case *scene.Text:
		e.beginTextEdit(id)
	case *scene.Image:
		if !n.Locked {
			e.croppingID = id
		}
	case *scene.Frame, *scene.Shape, *scene.Freehand, *scene.VectorPath:
	default:
		panic("engine: unhandled content " + string(n.Kind()))
	}
}
