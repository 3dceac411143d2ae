package collab

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/scene"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrRejected         = errors.New("operation rejected")
	ErrMissingPayload   = errors.New("missing payload")
)

// Operation is a node edit submitted from outside the pointer flow, such as
// a properties panel or a generation backend.
type Operation struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	ObjectID string `json:"objectId,omitempty"`

	// For node.create and node.derive
	Node json.RawMessage `json:"node,omitempty"`

	// For node.update
	Changes json.RawMessage `json:"changes,omitempty"`

	// For node.lock
	Locked *bool `json:"locked,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID string `json:"operationId"`
	ObjectID    string `json:"objectId,omitempty"`
	ServerSeq   int64  `json:"serverSeq"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// ApplyOperation runs op against e and returns the id of the node it
// touched.
func ApplyOperation(e *engine.Engine, op Operation) (string, error) {
	switch op.Type {
	case "node.create":
		return applyCreate(e, op, e.AddNode)
	case "node.derive":
		return applyCreate(e, op, e.InsertDerived)
	case "node.update":
		return op.ObjectID, applyUpdate(e, op)
	case "node.delete":
		if e.Delete(op.ObjectID) == 0 {
			return "", fmt.Errorf("delete %s: %w", op.ObjectID, ErrRejected)
		}
		return op.ObjectID, nil
	case "node.lock":
		if op.Locked == nil {
			return "", fmt.Errorf("lock %s: %w", op.ObjectID, ErrMissingPayload)
		}
		return op.ObjectID, applied(e.SetLocked(op.ObjectID, *op.Locked), "lock", op.ObjectID)
	case "node.bringToFront":
		return op.ObjectID, applied(e.BringToFront(op.ObjectID), "bring to front", op.ObjectID)
	case "node.sendToBack":
		return op.ObjectID, applied(e.SendToBack(op.ObjectID), "send to back", op.ObjectID)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

func applied(ok bool, verb, id string) error {
	if !ok {
		return fmt.Errorf("%s %s: %w", verb, id, ErrRejected)
	}
	return nil
}

func applyCreate(e *engine.Engine, op Operation, insert func(*scene.Node) bool) (string, error) {
	if len(op.Node) == 0 {
		return "", fmt.Errorf("%s: %w", op.Type, ErrMissingPayload)
	}
	var n scene.Node
	if err := json.Unmarshal(op.Node, &n); err != nil {
		return "", fmt.Errorf("invalid node: %w", err)
	}
	if !insert(&n) {
		return "", fmt.Errorf("%s %s: %w", op.Type, n.ID, ErrRejected)
	}
	return n.ID, nil
}

// applyUpdate applies a sparse change set. Geometry keys are x, y, width,
// height, rotation and opacity; name is the layer name; fill, stroke,
// strokeWidth, text and fontSize reach the content when it has them.
func applyUpdate(e *engine.Engine, op Operation) error {
	var changes map[string]interface{}
	if err := json.Unmarshal(op.Changes, &changes); err != nil {
		return fmt.Errorf("invalid changes: %w", err)
	}

	ok := e.UpdateNode(op.ObjectID, func(n *scene.Node) {
		setFloat(changes, "x", &n.X)
		setFloat(changes, "y", &n.Y)
		setFloat(changes, "width", &n.Width)
		setFloat(changes, "height", &n.Height)
		setFloat(changes, "rotation", &n.Rotation)
		setFloat(changes, "opacity", &n.Opacity)
		if v, ok := changes["name"].(string); ok {
			n.Name = v
		}
		applyStyle(n.Content, changes)
	})
	return applied(ok, "update", op.ObjectID)
}

func applyStyle(c scene.Content, changes map[string]interface{}) {
	switch c := c.(type) {
	case *scene.Frame:
		setString(changes, "fill", &c.Fill)
		setString(changes, "stroke", &c.Stroke)
		setFloat(changes, "strokeWidth", &c.StrokeWidth)
	case *scene.Shape:
		setString(changes, "fill", &c.Fill)
		setString(changes, "stroke", &c.Stroke)
		setFloat(changes, "strokeWidth", &c.StrokeWidth)
	case *scene.Text:
		setString(changes, "text", &c.Text)
		setString(changes, "fill", &c.Fill)
		setString(changes, "stroke", &c.Stroke)
		setFloat(changes, "fontSize", &c.FontSize)
	case *scene.Freehand:
		setString(changes, "stroke", &c.Color)
		setFloat(changes, "strokeWidth", &c.StrokeWidth)
	case *scene.VectorPath:
		setString(changes, "fill", &c.Fill)
		setString(changes, "stroke", &c.Color)
		setFloat(changes, "strokeWidth", &c.StrokeWidth)
	case *scene.Image:
	default:
		panic("collab: unhandled content " + string(c.Kind()))
	}
}

func setFloat(changes map[string]interface{}, key string, dst *float64) {
	if v, ok := changes[key].(float64); ok {
		*dst = v
	}
}

func setString(changes map[string]interface{}, key string, dst *string) {
	if v, ok := changes[key].(string); ok {
		*dst = v
	}
}
