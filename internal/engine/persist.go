package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/geometry"
	"github.com/inamate/shapedraw/backend-go/internal/registry"
	"github.com/inamate/shapedraw/backend-go/internal/scene"
)

// ErrUnknownShape is returned by Shape for handles with no committed shape.
var ErrUnknownShape = errors.New("unknown shape")

// Drawing returns the committed shapes in the persisted form, with the
// coordinates and colours the surface currently shows.
func (e *Engine) Drawing() document.Drawing {
	shapes := e.registry.All()
	d := make(document.Drawing, 0, len(shapes))
	for _, s := range shapes {
		d = append(d, e.entryFor(s))
	}
	return d
}

// Shape returns the persisted form of one committed shape. handle is the
// string HitTest reports.
func (e *Engine) Shape(handle string) (document.Entry, error) {
	h, err := scene.ParseHandle(handle)
	if err != nil {
		return document.Entry{}, fmt.Errorf("%w: %w", ErrUnknownShape, err)
	}
	s, ok := e.registry.FindByHandle(h)
	if !ok {
		return document.Entry{}, fmt.Errorf("%w: %s", ErrUnknownShape, handle)
	}
	return e.entryFor(s), nil
}

func (e *Engine) entryFor(s registry.Shape) document.Entry {
	stroke, fill, ok := e.surface.Style(s.Handle)
	if !ok {
		stroke, fill = s.StrokeColor, s.FillColor
	}
	return document.Entry{
		Type:   document.TypeOf(s.Kind),
		Coords: geometry.Flatten(e.surface.Coordinates(s.Handle)),
		Color:  stroke,
		Fill:   fill,
	}
}

// Save writes the canvas to w. The canvas is left unchanged either way.
func (e *Engine) Save(w io.Writer) error {
	if err := document.Encode(w, e.Drawing()); err != nil {
		e.status = "Status: Save failed"
		return fmt.Errorf("save canvas: %w", err)
	}
	e.status = "Status: Canvas saved"
	return nil
}

// Load replaces the canvas with the drawing read from r. The canvas is
// cleared first; if the drawing is invalid it stays empty.
func (e *Engine) Load(r io.Reader) error {
	d, err := document.Decode(r)
	if err != nil {
		e.Clear()
		e.status = "Status: Load failed"
		return fmt.Errorf("load canvas: %w", err)
	}
	return e.LoadDrawing(d)
}

type restoreOp struct {
	kind   geometry.Kind
	a, b   geometry.Point
	pts    []geometry.Point
	stroke string
	fill   string
}

// LoadDrawing replaces the canvas with d. Every entry is checked before
// anything is drawn, so a bad entry leaves the canvas empty.
func (e *Engine) LoadDrawing(d document.Drawing) error {
	e.Clear()

	ops := make([]restoreOp, 0, len(d))
	for i, entry := range d {
		op, err := planRestore(entry)
		if err != nil {
			e.status = "Status: Load failed"
			return fmt.Errorf("load canvas: entry %d: %w", i, err)
		}
		ops = append(ops, op)
	}

	for _, op := range ops {
		h := e.commit(op.kind, op.kind.Vertices(op.a, op.b), op.stroke, op.fill)
		// Rotated or resized shapes are not reachable from their anchors.
		if len(op.pts) == op.kind.VertexCount() {
			e.surface.SetShapeCoordinates(h, op.pts)
		}
	}
	e.status = "Status: Canvas loaded"
	return nil
}

func planRestore(entry document.Entry) (restoreOp, error) {
	kind, err := entry.Type.Kind()
	if err != nil {
		return restoreOp{}, err
	}
	pts, err := entry.Points()
	if err != nil {
		return restoreOp{}, fmt.Errorf("%w: %v", document.ErrPersistenceFormat, err)
	}
	if len(pts) == 0 || !document.AcceptsVertexCount(kind, len(pts)) {
		return restoreOp{}, fmt.Errorf("%w: %d vertices is not a valid %s",
			document.ErrPersistenceFormat, len(pts), kind)
	}
	a, b, err := recoverAnchors(kind, pts)
	if err != nil {
		return restoreOp{}, err
	}
	return restoreOp{kind: kind, a: a, b: b, pts: pts, stroke: entry.Color, fill: entry.Fill}, nil
}

// recoverAnchors finds the two gesture anchors that would draw a shape of
// kind with the given vertices.
func recoverAnchors(kind geometry.Kind, pts []geometry.Point) (a, b geometry.Point, err error) {
	switch {
	case len(pts) == 1:
		return pts[0], pts[0], nil
	case kind == geometry.KindPoint:
		return pts[0], pts[0], nil
	case kind == geometry.KindCircle:
		box := geometry.BoundsOf(pts)
		c := box.Center()
		r := (box.Width + box.Height) / 4
		return c, geometry.Pt(c.X+r, c.Y), nil
	case kind == geometry.KindOctagon && len(pts) == kind.VertexCount():
		c, err := geometry.Centroid(pts)
		if err != nil {
			return a, b, err
		}
		return c, pts[0], nil
	default:
		return pts[0], pts[1], nil
	}
}
