// Package engine implements the interactive editor: modes, pointer gestures,
// status text and save/load. An Engine is not safe for concurrent use; the
// caller delivers one event at a time.
package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/geometry"
	"github.com/inamate/shapedraw/backend-go/internal/registry"
	"github.com/inamate/shapedraw/backend-go/internal/scene"
)

const (
	// HighlightColor is the stroke of a shape while it is being rotated.
	HighlightColor = "#ff0000"
	// ResetStrokeColor is applied to every shape when a rotation ends.
	ResetStrokeColor = "#000000"
	// ControlPointColor is the stroke and fill of resize markers.
	ControlPointColor = "#0000ff"
	// ControlPointHalfSize is half the side of a resize marker.
	ControlPointHalfSize = 5
	// ResizeDamping is the share of the raw scale deviation applied per tick.
	ResizeDamping = 0.01

	DefaultColor = "#000000"
)

// Surface is the rendering surface the engine draws on. *scene.Scene
// implements it.
type Surface interface {
	CreateShape(kind geometry.Kind, pts []geometry.Point, stroke, fill string) scene.Handle
	MoveShape(h scene.Handle, dx, dy float64)
	SetShapeCoordinates(h scene.Handle, pts []geometry.Point)
	SetStrokeColor(h scene.Handle, color string)
	SetAllStrokeColors(color string)
	Coordinates(h scene.Handle) []geometry.Point
	Style(h scene.Handle) (stroke, fill string, ok bool)
	QueryOverlap(x, y float64) []scene.Handle
	DestroyShape(h scene.Handle)
}

// Engine holds the editor state for one canvas.
type Engine struct {
	surface  Surface
	registry *registry.Registry
	logger   *slog.Logger

	kind  geometry.Kind
	color string
	mode  Mode

	// Gesture state
	gesture gesture
	origin  geometry.Point // where the gesture started
	anchor  geometry.Point // last pointer position seen by the gesture
	active  scene.Handle
	preview scene.Handle

	controlPoints []scene.Handle
	status        string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for internal faults.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine drawing on surface.
func New(surface Surface, opts ...Option) *Engine {
	e := &Engine{
		surface:  surface,
		registry: registry.New(surface),
		logger:   slog.Default(),
		kind:     geometry.KindPoint,
		color:    DefaultColor,
		mode:     ModeDraw,
		status:   "Status: Ready",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngine creates an engine with its own in-memory scene.
func NewEngine(opts ...Option) *Engine {
	return New(scene.New(), opts...)
}

// ToggleMode advances to the next mode. Control points and any live preview
// are destroyed and a gesture in progress is ended.
func (e *Engine) ToggleMode() Mode {
	e.CancelGesture()
	e.removeControlPoints()
	e.mode = e.mode.Next()
	e.status = fmt.Sprintf("Status: %s mode", e.mode)
	return e.mode
}

// SetShapeKind selects the kind used by later Draw gestures.
func (e *Engine) SetShapeKind(kind geometry.Kind) {
	e.kind = kind
}

// SetColor selects the colour used by later Draw gestures.
func (e *Engine) SetColor(color string) error {
	if _, err := document.ParseColor(color); err != nil {
		return fmt.Errorf("set color %q: %w", color, err)
	}
	e.color = color
	return nil
}

// Clear removes every shape and all transient items.
func (e *Engine) Clear() {
	e.CancelGesture()
	e.removeControlPoints()
	e.registry.Clear()
}

// CancelGesture ends the gesture in progress without committing it. A
// rotation still resets stroke colours.
func (e *Engine) CancelGesture() {
	if e.gesture == gestureRotate {
		e.surface.SetAllStrokeColors(ResetStrokeColor)
	}
	e.destroyPreview()
	e.endGesture()
}

// Status returns the current status line.
func (e *Engine) Status() string { return e.status }

// Mode returns the current mode.
func (e *Engine) Mode() Mode { return e.mode }

// ShapeKind returns the kind used by Draw gestures.
func (e *Engine) ShapeKind() geometry.Kind { return e.kind }

// Color returns the colour used by Draw gestures.
func (e *Engine) Color() string { return e.color }

// InGesture reports whether a pointer gesture is open.
func (e *Engine) InGesture() bool { return e.gesture != gestureNone }

// ControlPoints returns the handles of the resize markers on screen.
func (e *Engine) ControlPoints() []scene.Handle {
	return slices.Clone(e.controlPoints)
}

// Shapes returns the committed shapes in insertion order.
func (e *Engine) Shapes() []registry.Shape {
	return e.registry.All()
}

// Coordinates returns the current vertices of a shape.
func (e *Engine) Coordinates(h scene.Handle) []geometry.Point {
	return e.surface.Coordinates(h)
}

func (e *Engine) endGesture() {
	e.gesture = gestureNone
	e.active = scene.Handle{}
}

func (e *Engine) destroyPreview() {
	if !e.preview.IsZero() {
		e.surface.DestroyShape(e.preview)
		e.preview = scene.Handle{}
	}
}

func (e *Engine) removeControlPoints() {
	for _, h := range e.controlPoints {
		e.surface.DestroyShape(h)
	}
	e.controlPoints = nil
}

// addControlPoints replaces the markers with one per vertex of h.
func (e *Engine) addControlPoints(h scene.Handle) {
	e.removeControlPoints()
	for _, p := range e.surface.Coordinates(h) {
		d := geometry.Pt(ControlPointHalfSize, ControlPointHalfSize)
		pts := geometry.SquareVertices(p.Sub(d), p.Add(d))
		e.controlPoints = append(e.controlPoints,
			e.surface.CreateShape(geometry.KindSquare, pts, ControlPointColor, ControlPointColor))
	}
}

// fault records an internal consistency failure. The tick that hit it is
// abandoned.
func (e *Engine) fault(op string, err error) {
	e.logger.Error("internal geometry fault", "op", op, "gesture", e.gesture.String(), "handle", e.active.String(), "error", err)
}

// DampedScaleFactor returns the per-tick resize factor for a pointer that
// has moved from start to current distance from the pivot.
func DampedScaleFactor(start, current float64) float64 {
	return 1 + (current/start-1)*ResizeDamping
}
