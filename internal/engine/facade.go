package engine

import (
	"encoding/json"
	"strings"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/scene"
)

// commandSource is implemented by surfaces that can compile draw commands.
type commandSource interface {
	DrawCommands() []scene.DrawCommand
}

// Frame is everything a front end needs to repaint the canvas.
type Frame struct {
	Mode          string              `json:"mode"`
	Status        string              `json:"status"`
	Commands      []scene.DrawCommand `json:"commands"`
	ControlPoints []string            `json:"controlPoints"`
}

// EditorState is the non-visual part of the editor state.
type EditorState struct {
	Mode      string `json:"mode"`
	ShapeKind string `json:"shapeKind"`
	Color     string `json:"color"`
	Status    string `json:"status"`
	Gesture   string `json:"gesture"`
	Shapes    int    `json:"shapes"`
}

// --- Queries (frontend ← backend) ---

// Frame returns the current draw commands and status.
func (e *Engine) Frame() Frame {
	f := Frame{
		Mode:          e.mode.String(),
		Status:        e.status,
		Commands:      []scene.DrawCommand{},
		ControlPoints: make([]string, 0, len(e.controlPoints)),
	}
	if src, ok := e.surface.(commandSource); ok {
		if cmds := src.DrawCommands(); cmds != nil {
			f.Commands = cmds
		}
	}
	for _, h := range e.controlPoints {
		f.ControlPoints = append(f.ControlPoints, h.String())
	}
	return f
}

// Render returns the current frame as JSON.
func (e *Engine) Render() string {
	data, err := json.Marshal(e.Frame())
	if err != nil {
		e.logger.Error("marshal frame", "error", err)
		return "{}"
	}
	return string(data)
}

// HitTest returns the handle of the committed shape at (x, y), or "".
func (e *Engine) HitTest(x, y float64) string {
	h, ok := e.registry.HitTest(x, y)
	if !ok {
		return ""
	}
	return h.String()
}

// GetShape returns Shape(handle) as JSON, or {"error": ...}.
func (e *Engine) GetShape(handle string) string {
	var data []byte
	entry, err := e.Shape(handle)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": err.Error()})
	} else {
		data, _ = json.Marshal(entry)
	}
	return string(data)
}

// GetEditorState returns the editor state as JSON.
func (e *Engine) GetEditorState() string {
	data, _ := json.Marshal(e.EditorState())
	return string(data)
}

// EditorState returns a snapshot of the non-visual editor state.
func (e *Engine) EditorState() EditorState {
	return EditorState{
		Mode:      e.mode.String(),
		ShapeKind: e.kind.String(),
		Color:     e.color,
		Status:    e.status,
		Gesture:   e.gesture.String(),
		Shapes:    e.registry.Len(),
	}
}

// GetDocument returns the canvas in the persisted JSON form.
func (e *Engine) GetDocument() string {
	data, err := document.Marshal(e.Drawing())
	if err != nil {
		e.logger.Error("marshal drawing", "error", err)
		return "[]"
	}
	return string(data)
}

// --- Commands (frontend → backend) ---

// LoadDocument replaces the canvas with a persisted JSON drawing.
func (e *Engine) LoadDocument(jsonData string) error {
	return e.Load(strings.NewReader(jsonData))
}
