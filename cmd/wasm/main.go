//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/snap"
	"github.com/inamate/canvas/internal/transform"
)

var (
	eng      *engine.Engine
	frames   *engine.FrameQueue
	events   js.Value
	deferred []func()
)

func main() {
	frames = engine.NewFrameQueue()
	eng = engine.New(engine.Options{
		Scene:     scene.NewSampleScene(),
		Listener:  jsListener{},
		Scheduler: frames,
	})

	// Create the engine API object
	canvasEngine := js.Global().Get("Object").New()

	// --- Input (frontend → engine) ---
	canvasEngine.Set("pointerDown", js.FuncOf(pointer(eng.PointerDown)))
	canvasEngine.Set("pointerMove", js.FuncOf(pointer(eng.PointerMove)))
	canvasEngine.Set("pointerUp", js.FuncOf(pointer(eng.PointerUp)))
	canvasEngine.Set("doubleClick", js.FuncOf(pointer(eng.DoubleClick)))
	canvasEngine.Set("pointerCancel", js.FuncOf(pointerCancel))
	canvasEngine.Set("keyDown", js.FuncOf(keyDown))
	canvasEngine.Set("wheel", js.FuncOf(wheel))
	canvasEngine.Set("drop", js.FuncOf(drop))

	// --- Commands ---
	canvasEngine.Set("loadScene", js.FuncOf(loadScene))
	canvasEngine.Set("setListener", js.FuncOf(setListener))
	canvasEngine.Set("setTool", js.FuncOf(setTool))
	canvasEngine.Set("setSelection", js.FuncOf(setSelection))
	canvasEngine.Set("setSnapSettings", js.FuncOf(setSnapSettings))
	canvasEngine.Set("setStrokeStyle", js.FuncOf(setStrokeStyle))
	canvasEngine.Set("setResizeMode", js.FuncOf(setResizeMode))
	canvasEngine.Set("setViewportOrigin", js.FuncOf(setViewportOrigin))
	canvasEngine.Set("setText", js.FuncOf(setText))
	canvasEngine.Set("endTextEdit", js.FuncOf(endTextEdit))
	canvasEngine.Set("layerAction", js.FuncOf(layerAction))
	canvasEngine.Set("insertDerived", js.FuncOf(insertDerived))
	canvasEngine.Set("undo", js.FuncOf(undo))
	canvasEngine.Set("redo", js.FuncOf(redo))
	canvasEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	canvasEngine.Set("render", js.FuncOf(render))
	canvasEngine.Set("getScene", js.FuncOf(getScene))
	canvasEngine.Set("getSelection", js.FuncOf(getSelection))
	canvasEngine.Set("getMode", js.FuncOf(getMode))
	canvasEngine.Set("canUndo", js.FuncOf(canUndo))
	canvasEngine.Set("canRedo", js.FuncOf(canRedo))

	// Register on global scope
	js.Global().Set("canvasEngine", canvasEngine)

	// Signal that WASM is ready
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// run performs an engine call, then the work listener callbacks queued for
// after it.
func run(fn func()) {
	fn()
	for len(deferred) > 0 {
		next := deferred[0]
		deferred = deferred[1:]
		next()
	}
	deferred = nil
}

func decodeArg[T any](args []js.Value) (T, bool) {
	var v T
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return v, false
	}
	if err := json.Unmarshal([]byte(args[0].String()), &v); err != nil {
		return v, false
	}
	return v, true
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Input Handlers ---

func pointer(handle func(engine.PointerEvent)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		ev, ok := decodeArg[engine.PointerEvent](args)
		if !ok {
			return nil
		}
		run(func() { handle(ev) })
		return nil
	}
}

func pointerCancel(this js.Value, args []js.Value) interface{} {
	run(eng.PointerCancel)
	return nil
}

func keyDown(this js.Value, args []js.Value) interface{} {
	ev, ok := decodeArg[engine.KeyEvent](args)
	if !ok {
		return js.ValueOf(false)
	}
	var handled bool
	run(func() { handled = eng.KeyDown(ev) })
	return js.ValueOf(handled)
}

func wheel(this js.Value, args []js.Value) interface{} {
	ev, ok := decodeArg[engine.WheelEvent](args)
	if !ok {
		return nil
	}
	run(func() { eng.Wheel(ev) })
	return nil
}

func drop(this js.Value, args []js.Value) interface{} {
	p, ok := decodeArg[engine.DropPayload](args)
	if !ok {
		return js.ValueOf("")
	}
	var id string
	run(func() { id, _ = eng.Drop(p) })
	return js.ValueOf(id)
}

// --- Command Handlers ---

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing scene JSON"})
	}
	var sc scene.Scene
	if err := json.Unmarshal([]byte(args[0].String()), &sc); err != nil {
		return result(err)
	}
	prev := eng
	eng = engine.New(engine.Options{
		Scene:     &sc,
		Listener:  jsListener{},
		Scheduler: frames,
		Snap:      prev.SnapSettings(),
	})
	frames.Cancel()
	return result(nil)
}

// setListener takes an object whose methods receive engine notifications
// as JSON strings.
func setListener(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		events = js.Undefined()
		return nil
	}
	events = args[0]
	return nil
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	var ok bool
	run(func() { ok = eng.SetTool(engine.Tool(args[0].String())) })
	return js.ValueOf(ok)
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		run(eng.ClearSelection)
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	run(func() { eng.SetSelection(ids) })
	return nil
}

func setSnapSettings(this js.Value, args []js.Value) interface{} {
	s, ok := decodeArg[snap.Settings](args)
	if !ok {
		return nil
	}
	eng.SetSnapSettings(s)
	return nil
}

func setStrokeStyle(this js.Value, args []js.Value) interface{} {
	s, ok := decodeArg[scene.StrokeStyle](args)
	if !ok {
		return nil
	}
	eng.SetStrokeStyle(s)
	return nil
}

func setResizeMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	mode, err := transform.ParseImageMode(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.SetResizeMode(mode)
	return result(nil)
}

func setViewportOrigin(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetViewportOrigin(geom.Pt(args[0].Float(), args[1].Float()))
	return nil
}

func setText(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetText(args[0].String()))
}

func endTextEdit(this js.Value, args []js.Value) interface{} {
	run(eng.EndTextEdit)
	return nil
}

func layerAction(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	var ok bool
	run(func() { ok = eng.LayerAction(engine.LayerAction(args[0].String()), args[1].String()) })
	return js.ValueOf(ok)
}

// insertDerived is the entry point for results of asynchronous work such as
// image generation.
func insertDerived(this js.Value, args []js.Value) interface{} {
	n, ok := decodeArg[scene.Node](args)
	if !ok {
		return js.ValueOf("")
	}
	var inserted bool
	run(func() { inserted = eng.InsertDerived(&n) })
	if !inserted {
		return js.ValueOf("")
	}
	return js.ValueOf(n.ID)
}

func undo(this js.Value, args []js.Value) interface{} {
	var ok bool
	run(func() { ok = eng.Undo() })
	return js.ValueOf(ok)
}

func redo(this js.Value, args []js.Value) interface{} {
	var ok bool
	run(func() { ok = eng.Redo() })
	return js.ValueOf(ok)
}

// tick is called from requestAnimationFrame. It applies the coalesced pointer
// move and returns the draw list.
func tick(this js.Value, args []js.Value) interface{} {
	var out string
	run(func() { out = eng.Tick() })
	return js.ValueOf(out)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func getScene(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Scene())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	ids := eng.Selection()
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return js.ValueOf(out)
}

func getMode(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Mode().String())
}

func canUndo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CanUndo())
}

func canRedo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CanRedo())
}

// jsListener forwards engine notifications to the object passed to
// setListener. Finished drawings become nodes once the current call returns.
type jsListener struct{}

func emit(method string, payload any) {
	if events.IsUndefined() || events.IsNull() {
		return
	}
	fn := events.Get(method)
	if fn.Type() != js.TypeFunction {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fn.Invoke(string(data))
}

func (jsListener) OnPathComplete(points []geom.Point, closed bool) {
	deferred = append(deferred, func() {
		id, _ := eng.MaterializePath(points, closed)
		emit("onPathComplete", map[string]any{"points": points, "closed": closed, "nodeId": id})
	})
}

func (jsListener) OnFreehandComplete(points []geom.Point) {
	deferred = append(deferred, func() {
		id, _ := eng.MaterializeFreehand(points)
		emit("onFreehandComplete", map[string]any{"points": points, "nodeId": id})
	})
}

func (jsListener) OnSelectionChange(ids []string) {
	emit("onSelectionChange", ids)
}

func (jsListener) OnHistoryCheckpoint(nodes []*scene.Node) {
	emit("onHistoryCheckpoint", nodes)
}

func (jsListener) OnLayerAction(action engine.LayerAction, targetID string) {
	emit("onLayerAction", map[string]any{"action": action, "targetId": targetID})
}

func (jsListener) OnContextMenu(menu engine.ContextMenu) {
	emit("onContextMenu", menu)
}

func (jsListener) OnGuidesChange(guides []snap.Guide) {
	emit("onGuidesChange", guides)
}
