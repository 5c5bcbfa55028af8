package collab

import (
	"encoding/json"

	"github.com/inamate/shapedraw/backend-go/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	DrawingID string          `json:"drawingId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Editor input
	TypePointerDown = "pointer.down"
	TypePointerDrag = "pointer.drag"
	TypePointerUp   = "pointer.up"
	TypeModeToggle  = "mode.toggle"
	TypeToolSet     = "tool.set"
	TypeCanvasClear = "canvas.clear"

	// Editor output
	TypeSceneRender = "scene.render"
	TypeOpNack      = "op.nack"
)

// PointerPayload carries canvas coordinates for pointer.* messages.
type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToolPayload is the payload for tool.set. Absent fields are left unchanged.
type ToolPayload struct {
	Kind  *string `json:"kind,omitempty"`
	Color *string `json:"color,omitempty"`
}

// WelcomePayload is sent once to a client after it joins a room.
type WelcomePayload struct {
	ClientID string             `json:"clientId"`
	UserID   string             `json:"userId"`
	Frame    engine.Frame       `json:"frame"`
	State    engine.EditorState `json:"state"`
}

// RenderPayload is broadcast to the whole room after every applied input.
type RenderPayload struct {
	Frame engine.Frame       `json:"frame"`
	State engine.EditorState `json:"state"`
}

type NackPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
