// Package engine is the direct-manipulation core of the canvas: it owns the
// scene, turns pointer and keyboard input into gestures, and records
// completed edits in the undo history.
//
// An Engine is single-writer. Every method must be called from the one
// goroutine that drives it.
package engine

import (
	"log/slog"

	"github.com/samber/lo"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/history"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/snap"
	"github.com/inamate/canvas/internal/transform"
)

// Mode is the gesture state.
type Mode int

const (
	Idle Mode = iota
	Panning
	Dragging
	Resizing
	Rotating
	Drawing
	MarqueeSelecting
)

var modeNames = [...]string{"idle", "panning", "dragging", "resizing", "rotating", "drawing", "marquee"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Tool is the active toolbar tool.
type Tool string

const (
	ToolSelect   Tool = "select"
	ToolHand     Tool = "hand"
	ToolFreehand Tool = "draw"
	ToolPath     Tool = "path"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	switch t {
	case ToolSelect, ToolHand, ToolFreehand, ToolPath:
		return true
	}
	return false
}

type Options struct {
	// Scene is the initial scene. Nil opens the sample scene.
	Scene     *scene.Scene
	Listener  Listener
	Scheduler Scheduler

	// Clipboard defaults to a private clipboard.
	Clipboard    *Clipboard
	Snap         snap.Settings
	HistoryLimit int
	Stroke       scene.StrokeStyle
	Logger       *slog.Logger
}

// Engine owns the scene and the interaction state around it.
type Engine struct {
	scene     *scene.Scene
	selection Selection
	history   *history.Manager[[]*scene.Node]
	clipboard *Clipboard
	listener  Listener
	sched     Scheduler
	log       *slog.Logger

	snap       snap.Settings
	stroke     scene.StrokeStyle
	resizeMode transform.ImageMode

	tool    Tool
	mode    Mode
	gesture *session
	guides  []snap.Guide
	marquee *Marquee

	// Freehand points of the stroke being drawn, scene units.
	drawing []geom.Point

	// Vertices of the path being drafted and the rubber-band end point.
	pathPoints  []geom.Point
	pathPreview *geom.Point

	editingID  string // text node with input focus
	textBefore string
	croppingID string // image whose crop window is being edited
}

// New creates an engine and seeds its history with the initial scene.
func New(opts Options) *Engine {
	s := opts.Scene
	if s == nil {
		s = scene.NewSampleScene()
	}
	if s.Viewport.Zoom <= 0 {
		s.Viewport.Zoom = 1
	}
	e := &Engine{
		scene:      s,
		history:    history.New(scene.CloneNodes, opts.HistoryLimit),
		clipboard:  opts.Clipboard,
		listener:   opts.Listener,
		sched:      opts.Scheduler,
		log:        opts.Logger,
		snap:       opts.Snap,
		stroke:     opts.Stroke,
		resizeMode: transform.ModeScale,
		tool:       ToolSelect,
	}
	if e.clipboard == nil {
		e.clipboard = NewClipboard()
	}
	if e.listener == nil {
		e.listener = NopListener{}
	}
	if e.sched == nil {
		e.sched = Immediate{}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.snap == (snap.Settings{}) {
		e.snap = snap.DefaultSettings()
	}
	if e.stroke == (scene.StrokeStyle{}) {
		e.stroke = scene.DefaultStrokeStyle()
	}
	e.history.Snapshot(s.Nodes)
	return e
}

// --- Queries ---

// Scene returns the live scene. Callers must not mutate it.
func (e *Engine) Scene() *scene.Scene { return e.scene }

func (e *Engine) Nodes() []*scene.Node { return e.scene.Nodes }

func (e *Engine) Node(id string) *scene.Node { return e.scene.Get(id) }

func (e *Engine) Viewport() geom.Viewport { return e.scene.Viewport }

// Selection returns the selected ids in order, nil when empty.
func (e *Engine) Selection() []string { return e.selection.IDs() }

// Primary returns the primary selected id.
func (e *Engine) Primary() (string, bool) { return e.selection.Primary() }

func (e *Engine) Mode() Mode { return e.mode }

func (e *Engine) Tool() Tool { return e.tool }

// Guides returns the smart guides of the current drag.
func (e *Engine) Guides() []snap.Guide { return e.guides }

// Marquee returns the live marquee, if one is being dragged.
func (e *Engine) Marquee() (Marquee, bool) {
	if e.marquee == nil {
		return Marquee{}, false
	}
	return *e.marquee, true
}

// PathPoints returns the vertices of the path being drafted.
func (e *Engine) PathPoints() []geom.Point { return e.pathPoints }

// EditingID returns the text node that holds input focus.
func (e *Engine) EditingID() string { return e.editingID }

// CroppingID returns the image in crop mode.
func (e *Engine) CroppingID() string { return e.croppingID }

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// GroupBounds returns the box around every selected node.
func (e *Engine) GroupBounds() (geom.Rect, bool) {
	return scene.Bounds(e.selectedNodes())
}

// --- Settings ---

func (e *Engine) SetSnapSettings(s snap.Settings) { e.snap = s }

func (e *Engine) SnapSettings() snap.Settings { return e.snap }

func (e *Engine) SetStrokeStyle(s scene.StrokeStyle) { e.stroke = s }

// SetResizeMode picks how image resizes treat the crop window.
func (e *Engine) SetResizeMode(m transform.ImageMode) { e.resizeMode = m }

func (e *Engine) ResizeMode() transform.ImageMode { return e.resizeMode }

// SetViewportOrigin records where the canvas element sits on the device.
func (e *Engine) SetViewportOrigin(p geom.Point) { e.scene.Viewport.Origin = p }

// SetTool switches tools. Leaving the path tool with vertices pending
// finishes the path as an open one.
func (e *Engine) SetTool(t Tool) bool {
	if !t.Valid() {
		e.log.Debug("unknown tool ignored", "tool", t)
		return false
	}
	if t == e.tool {
		return true
	}
	e.sched.Flush()
	if e.gestureActive() {
		e.PointerCancel()
	}
	if e.tool == ToolPath && len(e.pathPoints) > 0 {
		e.finishPath(false)
	}
	e.tool = t
	if e.mode == Drawing {
		e.mode = Idle
	}
	return true
}

// --- Selection ---

// SetSelection replaces the selection. Ids that do not resolve are dropped.
func (e *Engine) SetSelection(ids []string) {
	e.changeSelection(func(s *Selection) {
		s.Replace(lo.Filter(ids, func(id string, _ int) bool { return e.scene.Has(id) })...)
	})
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.changeSelection((*Selection).Clear)
}

func (e *Engine) selectOnly(id string) {
	e.changeSelection(func(s *Selection) { s.Replace(id) })
}

// changeSelection applies fn and notifies the listener if anything changed.
// Crop mode ends once its image stops being the only selected node.
func (e *Engine) changeSelection(fn func(s *Selection)) {
	before := e.selection.IDs()
	fn(&e.selection)
	if e.selection.Equal(before) {
		return
	}
	if e.croppingID != "" && !(e.selection.Single() && e.selection.Contains(e.croppingID)) {
		e.croppingID = ""
	}
	e.listener.OnSelectionChange(e.selection.IDs())
}

func (e *Engine) selectedNodes() []*scene.Node {
	var out []*scene.Node
	for _, id := range e.selection.ids {
		if n := e.scene.Get(id); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// --- History ---

// checkpoint records the current nodes as a history entry.
func (e *Engine) checkpoint() {
	e.history.Snapshot(e.scene.Nodes)
	e.listener.OnHistoryCheckpoint(scene.CloneNodes(e.scene.Nodes))
}

// Undo restores the previous history entry.
func (e *Engine) Undo() bool {
	if e.rejectCommand("undo") {
		return false
	}
	nodes, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(nodes)
	return true
}

// Redo restores the next history entry.
func (e *Engine) Redo() bool {
	if e.rejectCommand("redo") {
		return false
	}
	nodes, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(nodes)
	return true
}

func (e *Engine) restore(nodes []*scene.Node) {
	e.scene.Nodes = nodes
	if e.croppingID != "" && !e.scene.Has(e.croppingID) {
		e.croppingID = ""
	}
	e.changeSelection(func(s *Selection) { s.Retain(e.scene.Has) })
}

// rejectCommand reports whether a history, clipboard or delete command must
// be ignored: text input owns the keyboard, or a pointer gesture is running.
func (e *Engine) rejectCommand(op string) bool {
	switch {
	case e.editingID != "":
		e.log.Debug("command ignored during text editing", "op", op)
		return true
	case e.gestureActive():
		e.log.Debug("command ignored during gesture", "op", op, "mode", e.mode)
		return true
	}
	return false
}

// gestureActive reports whether a pointer is held down on the canvas.
// Drafting a path between clicks does not count.
func (e *Engine) gestureActive() bool {
	return e.gesture != nil
}

// --- Clipboard ---

// Copy puts deep copies of the selected nodes on the clipboard.
func (e *Engine) Copy() bool {
	if e.rejectCommand("copy") {
		return false
	}
	nodes := e.selectedNodes()
	if len(nodes) == 0 {
		return false
	}
	e.clipboard.Copy(nodes)
	return true
}

// Paste inserts the clipboard contents on top and selects them.
func (e *Engine) Paste() bool {
	if e.rejectCommand("paste") {
		return false
	}
	nodes := e.clipboard.Paste()
	if len(nodes) == 0 {
		return false
	}
	e.scene.Add(nodes...)
	e.changeSelection(func(s *Selection) {
		s.Replace(lo.Map(nodes, func(n *scene.Node, _ int) string { return n.ID })...)
	})
	e.checkpoint()
	return true
}

// --- Mutations ---

// AddNode inserts n on top of the stack and selects it. A missing id is
// generated; a duplicate id or missing content rejects the node.
func (e *Engine) AddNode(n *scene.Node) bool {
	if n == nil || n.Content == nil {
		e.log.Debug("add ignored: node without content")
		return false
	}
	if n.ID == "" {
		n.ID = scene.NewID(n.Kind())
	}
	if e.scene.Has(n.ID) {
		e.log.Debug("add ignored: duplicate id", "id", n.ID)
		return false
	}
	n.Normalize()
	e.scene.Add(n)
	e.selectOnly(n.ID)
	e.checkpoint()
	return true
}

// InsertDerived adds a node produced asynchronously from existing nodes,
// such as a generated image. It is dropped when any declared source id no
// longer resolves. The node is placed beside its first source as that
// source stands now.
func (e *Engine) InsertDerived(n *scene.Node) bool {
	if n == nil || n.Content == nil {
		e.log.Debug("derived insert ignored: node without content")
		return false
	}
	for _, id := range n.SourceIDs {
		if !e.scene.Has(id) {
			e.log.Debug("derived insert dropped: stale source", "source", id)
			return false
		}
	}
	if n.ID == "" || e.scene.Has(n.ID) {
		n.ID = scene.NewID(n.Kind())
	}
	if len(n.SourceIDs) > 0 {
		p := scene.PlaceBeside(e.scene.Get(n.SourceIDs[0]))
		n.X, n.Y = p.X, p.Y
	}
	n.Normalize()
	e.scene.Add(n)
	e.checkpoint()
	return true
}

// UpdateNode edits one node in place. Locked and stale targets are ignored.
// fn must not change the id.
func (e *Engine) UpdateNode(id string, fn func(n *scene.Node)) bool {
	n := e.scene.Get(id)
	switch {
	case n == nil:
		e.log.Debug("update dropped: stale id", "id", id)
		return false
	case n.Locked:
		e.log.Debug("update ignored: node locked", "id", id)
		return false
	}
	fn(n)
	n.ID = id
	n.Normalize()
	e.checkpoint()
	return true
}

// SetLocked locks or unlocks a node. Locking is the one edit a locked node
// accepts.
func (e *Engine) SetLocked(id string, locked bool) bool {
	n := e.scene.Get(id)
	if n == nil {
		e.log.Debug("lock dropped: stale id", "id", id)
		return false
	}
	if n.Locked == locked {
		return true
	}
	n.Locked = locked
	e.checkpoint()
	return true
}

// Delete removes the listed unlocked nodes and returns how many went.
func (e *Engine) Delete(ids ...string) int {
	if e.gestureActive() {
		e.log.Debug("delete ignored during gesture", "mode", e.mode)
		return 0
	}
	victims := lo.Filter(ids, func(id string, _ int) bool {
		n := e.scene.Get(id)
		return n != nil && !n.Locked
	})
	if len(victims) == 0 {
		return 0
	}
	removed := e.scene.Remove(victims...)
	if e.editingID != "" && !e.scene.Has(e.editingID) {
		e.editingID = ""
	}
	e.changeSelection(func(s *Selection) { s.Remove(victims...) })
	e.checkpoint()
	return removed
}

// DeleteSelection removes every selected unlocked node.
func (e *Engine) DeleteSelection() int {
	if e.rejectCommand("delete") {
		return 0
	}
	return e.Delete(e.selection.ids...)
}

// BringToFront moves an unlocked node to the top of the stack.
func (e *Engine) BringToFront(id string) bool {
	if e.reorderLocked(id) {
		return false
	}
	if !e.scene.BringToFront(id) {
		e.log.Debug("reorder dropped: stale id", "id", id)
		return false
	}
	e.checkpoint()
	return true
}

// SendToBack moves an unlocked node to the bottom of the stack.
func (e *Engine) SendToBack(id string) bool {
	if e.reorderLocked(id) {
		return false
	}
	if !e.scene.SendToBack(id) {
		e.log.Debug("reorder dropped: stale id", "id", id)
		return false
	}
	e.checkpoint()
	return true
}

func (e *Engine) reorderLocked(id string) bool {
	if n := e.scene.Get(id); n != nil && n.Locked {
		e.log.Debug("reorder ignored: node locked", "id", id)
		return true
	}
	return false
}

// LayerAction forwards a context-menu action to the listener, provided the
// target still exists.
func (e *Engine) LayerAction(action LayerAction, targetID string) bool {
	if !e.scene.Has(targetID) {
		e.log.Debug("layer action dropped: stale id", "action", action, "id", targetID)
		return false
	}
	e.listener.OnLayerAction(action, targetID)
	return true
}

// MaterializeFreehand turns a completed stroke into a freehand node.
func (e *Engine) MaterializeFreehand(points []geom.Point) (string, bool) {
	n := scene.NewFreehand(points, e.stroke)
	if n == nil {
		return "", false
	}
	e.scene.Add(n)
	e.checkpoint()
	return n.ID, true
}

// MaterializePath turns completed path vertices into a vector path node.
func (e *Engine) MaterializePath(points []geom.Point, closed bool) (string, bool) {
	n := scene.NewVectorPath(points, closed)
	if n == nil {
		return "", false
	}
	e.scene.Add(n)
	e.checkpoint()
	return n.ID, true
}

// --- Drop ---

type DropKind string

const (
	DropImage DropKind = "image"
	DropText  DropKind = "text"
)

// Dropped image size, and text box size, in scene units.
var (
	DropImageSize = geom.Size{Width: 1200, Height: 1200}
	DropTextSize  = geom.Size{Width: 800, Height: 400}
)

// DropPayload describes something dropped onto the canvas. X and Y are scene
// coordinates. Content carries text, or an image source; File is an opaque
// file reference the host resolved. The engine never reads either.
type DropPayload struct {
	Kind      DropKind `json:"kind"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Content   string   `json:"content,omitempty"`
	File      string   `json:"file,omitempty"`
	SourceIDs []string `json:"sourceIds,omitempty"`
}

// Drop materializes a dropped payload and selects the new node. Unsupported
// kinds and payloads without content are ignored.
func (e *Engine) Drop(p DropPayload) (string, bool) {
	at := geom.Pt(p.X, p.Y)
	var n *scene.Node
	switch p.Kind {
	case DropImage:
		src := p.Content
		if src == "" {
			src = p.File
		}
		if src == "" {
			e.log.Debug("drop ignored: image without source")
			return "", false
		}
		n = scene.NewImage(src, at, DropImageSize)
	case DropText:
		n = scene.NewDroppedText(at, p.Content)
	default:
		e.log.Debug("drop ignored: unsupported kind", "kind", p.Kind)
		return "", false
	}
	n.SourceIDs = lo.Filter(p.SourceIDs, func(id string, _ int) bool { return e.scene.Has(id) })
	if len(n.SourceIDs) == 0 {
		n.SourceIDs = nil
	}
	e.scene.Add(n)
	e.selectOnly(n.ID)
	e.checkpoint()
	return n.ID, true
}

// --- Viewport ---

// WheelEvent is a wheel notch at a device point. Negative DeltaY zooms in.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

// Wheel zooms about the pointer by one step per event.
func (e *Engine) Wheel(ev WheelEvent) {
	if ev.DeltaY == 0 {
		return
	}
	factor := geom.WheelStep
	if ev.DeltaY > 0 {
		factor = 1 / geom.WheelStep
	}
	e.scene.Viewport = e.scene.Viewport.ZoomAt(geom.Pt(ev.X, ev.Y), factor)
}

// --- Text editing ---

func (e *Engine) beginTextEdit(id string) {
	n := e.scene.Get(id)
	t, ok := n.Content.(*scene.Text)
	if !ok || n.Locked {
		return
	}
	e.editingID = id
	e.textBefore = t.Text
}

// SetText replaces the text of the node being edited. No history entry is
// recorded until editing ends.
func (e *Engine) SetText(text string) bool {
	n := e.scene.Get(e.editingID)
	if n == nil {
		return false
	}
	n.Content.(*scene.Text).Text = text
	return true
}

// EndTextEdit releases text focus, recording a history entry if the text
// changed.
func (e *Engine) EndTextEdit() {
	if e.editingID == "" {
		return
	}
	n := e.scene.Get(e.editingID)
	e.editingID = ""
	if n != nil && n.Content.(*scene.Text).Text != e.textBefore {
		e.checkpoint()
	}
}

// ExitCrop leaves crop mode.
func (e *Engine) ExitCrop() {
	e.croppingID = ""
}
