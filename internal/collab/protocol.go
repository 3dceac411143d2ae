package collab

import (
	"encoding/json"

	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
)

// Message is the envelope of every frame on the session socket. Payload
// holds the type-specific body.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Input, client to server
	TypePointerDown   = "pointer.down"
	TypePointerMove   = "pointer.move"
	TypePointerUp     = "pointer.up"
	TypePointerCancel = "pointer.cancel"
	TypeDoubleClick   = "pointer.dblclick"
	TypeKeyDown       = "key.down"
	TypeWheel         = "wheel"
	TypeDrop          = "drop"
	TypeSetTool       = "tool.set"
	TypeSetSelection  = "selection.set"
	TypeSetSnap       = "settings.snap"
	TypeSetStroke     = "settings.stroke"
	TypeSetResizeMode = "settings.resizeMode"
	TypeSetViewOrigin = "viewport.origin"
	TypeSetText       = "text.set"
	TypeEndTextEdit   = "text.end"
	TypeLayerAction   = "layer.action"
	TypeUndo          = "history.undo"
	TypeRedo          = "history.redo"

	// Operations
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Engine notifications, server to client
	TypeDraw              = "draw"
	TypeSelectionChange   = "selection.change"
	TypeHistoryCheckpoint = "history.checkpoint"
	TypePathComplete      = "path.complete"
	TypeFreehandComplete  = "freehand.complete"
	TypeLayerRequest      = "layer.request"
	TypeContextMenu       = "context.menu"
	TypeGuidesChange      = "guides.change"
)

type WelcomePayload struct {
	SessionID string       `json:"sessionId"`
	ClientID  string       `json:"clientId"`
	Scene     *scene.Scene `json:"scene"`
	Selection []string     `json:"selection"`
	Tool      engine.Tool  `json:"tool"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type ToolPayload struct {
	Tool engine.Tool `json:"tool"`
}

type SelectionPayload struct {
	IDs []string `json:"ids"`
}

type ResizeModePayload struct {
	Mode string `json:"mode"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type LayerActionPayload struct {
	Action   engine.LayerAction `json:"action"`
	TargetID string             `json:"targetId"`
}

type CheckpointPayload struct {
	Nodes   []*scene.Node `json:"nodes"`
	CanUndo bool          `json:"canUndo"`
	CanRedo bool          `json:"canRedo"`
}

// StrokePayload reports a completed drawing and the node made from it.
type StrokePayload struct {
	Points []geom.Point `json:"points"`
	Closed bool         `json:"closed,omitempty"`
	NodeID string       `json:"nodeId,omitempty"`
}

type PresencePayload struct {
	Cursor      *geom.Point `json:"cursor,omitempty"`
	Tool        engine.Tool `json:"tool,omitempty"`
	DisplayName string      `json:"displayName,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

// newMessage builds an outbound message, encoding payload.
func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}

// decodePayload unmarshals the body of msg into a T.
func decodePayload[T any](msg *Message) (T, error) {
	var v T
	if len(msg.Payload) == 0 {
		return v, ErrMissingPayload
	}
	err := json.Unmarshal(msg.Payload, &v)
	return v, err
}
