package scene

import "github.com/inamate/shapedraw/backend-go/internal/geometry"

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op     string    `json:"op"`               // Primitive: "oval", "rect", "polygon", "line"
	Handle string    `json:"handle,omitempty"` // For hit correlation
	Kind   string    `json:"kind,omitempty"`   // Shape kind the item was created as
	Points []float64 `json:"points"`           // Flat x,y,x,y,... vertex list
	Fill   string    `json:"fill,omitempty"`   // Fill color
	Stroke string    `json:"stroke,omitempty"` // Stroke color
}

// CompileDrawCommands generates a draw command buffer from the scene.
// Commands are in painter's order (back to front).
func CompileDrawCommands(s *Scene) []DrawCommand {
	if s == nil {
		return nil
	}

	items := s.Items()
	commands := make([]DrawCommand, 0, len(items))
	for _, it := range items {
		cmd := DrawCommand{
			Op:     it.Primitive.String(),
			Handle: it.Handle.String(),
			Kind:   it.Kind.String(),
			Points: geometry.Flatten(it.Points),
			Stroke: it.Stroke,
		}
		// Lines have no interior.
		if it.Primitive != PrimitiveLine {
			cmd.Fill = it.Fill
		}
		commands = append(commands, cmd)
	}
	return commands
}

// DrawCommands compiles the scene's current draw command buffer.
func (s *Scene) DrawCommands() []DrawCommand {
	return CompileDrawCommands(s)
}
