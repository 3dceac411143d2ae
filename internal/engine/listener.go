package engine

import (
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/snap"
)

// LayerAction names a context-menu action handed to a collaborator.
type LayerAction string

const (
	ActionDelete           LayerAction = "delete"
	ActionBringToFront     LayerAction = "bringToFront"
	ActionSendToBack       LayerAction = "sendToBack"
	ActionBindSlot         LayerAction = "bindSlot"
	ActionExport           LayerAction = "export"
	ActionRemoveBackground LayerAction = "removeBackground"
	ActionCompose          LayerAction = "compose"
)

// ContextMenu is a right-click request. Overlapping lists every node under
// the pointer, topmost first, for layer switching.
type ContextMenu struct {
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	TargetID    string   `json:"targetId"`
	Kind        string   `json:"type"`
	Overlapping []string `json:"overlapping"`
}

// Listener receives engine notifications. Calls happen synchronously on the
// goroutine driving the engine.
type Listener interface {
	OnPathComplete(points []geom.Point, closed bool)
	OnFreehandComplete(points []geom.Point)
	// OnSelectionChange receives nil when the selection becomes empty.
	OnSelectionChange(ids []string)
	// OnHistoryCheckpoint receives a copy of the nodes just recorded.
	OnHistoryCheckpoint(nodes []*scene.Node)
	OnLayerAction(action LayerAction, targetID string)
	OnContextMenu(menu ContextMenu)
	OnGuidesChange(guides []snap.Guide)
}

// NopListener ignores every notification. Embed it to implement only some
// of Listener.
type NopListener struct{}

func (NopListener) OnPathComplete([]geom.Point, bool) {}
func (NopListener) OnFreehandComplete([]geom.Point) {}
func (NopListener) OnSelectionChange([]string) {}
func (NopListener) OnHistoryCheckpoint([]*scene.Node) {}
func (NopListener) OnLayerAction(LayerAction, string) {}
func (NopListener) OnContextMenu(ContextMenu) {}
func (NopListener) OnGuidesChange([]snap.Guide) {}
