package engine

import (
	"github.com/inamate/shapedraw/backend-go/internal/geometry"
	"github.com/inamate/shapedraw/backend-go/internal/scene"
)

// PointerDown starts a gesture at (x, y) according to the current mode.
func (e *Engine) PointerDown(x, y float64) {
	// A down with a gesture still open means the matching up was lost.
	if e.gesture != gestureNone {
		e.CancelGesture()
	}

	p := geometry.Pt(x, y)
	e.origin, e.anchor = p, p

	switch e.mode {
	case ModeDraw:
		e.downDraw(p)
	case ModeDelete:
		if h, ok := e.registry.HitTest(x, y); ok {
			e.registry.RemoveByHandle(h)
			e.status = "Status: Shape deleted"
		}
	case ModeRotate:
		if h, ok := e.registry.HitTest(x, y); ok {
			e.gesture = gestureRotate
			e.active = h
			e.surface.SetStrokeColor(h, HighlightColor)
		}
	case ModeResize:
		if h, ok := e.registry.HitTest(x, y); ok {
			e.gesture = gestureResize
			e.active = h
			e.addControlPoints(h)
		}
	}
}

func (e *Engine) downDraw(p geometry.Point) {
	if e.kind == geometry.KindPoint {
		e.commit(geometry.KindPoint, geometry.PointVertices(p), e.color, e.color)
		return
	}
	if h, ok := e.registry.HitTest(p.X, p.Y); ok {
		e.gesture = gestureMove
		e.active = h
		return
	}
	e.gesture = gestureCreate
}

// PointerDrag advances the open gesture to (x, y). Without a gesture it does
// nothing.
func (e *Engine) PointerDrag(x, y float64) {
	p := geometry.Pt(x, y)

	switch e.gesture {
	case gestureMove:
		d := p.Sub(e.anchor)
		e.surface.MoveShape(e.active, d.X, d.Y)
		e.anchor = p
	case gestureCreate:
		e.destroyPreview()
		e.preview = e.surface.CreateShape(e.kind, e.kind.Vertices(e.origin, p), e.color, e.color)
	case gestureRotate:
		e.dragRotate(p)
	case gestureResize:
		e.dragResize(p)
	}
}

func (e *Engine) dragRotate(p geometry.Point) {
	pts := e.surface.Coordinates(e.active)
	c, err := geometry.Centroid(pts)
	if err != nil {
		e.fault("rotate", err)
		return
	}
	angle := p.Angle(c) - e.anchor.Angle(c)
	rotated, err := geometry.Rotate(pts, c, angle)
	if err != nil {
		e.fault("rotate", err)
		return
	}
	e.surface.SetShapeCoordinates(e.active, rotated)
	e.anchor = p
}

func (e *Engine) dragResize(p geometry.Point) {
	pts := e.surface.Coordinates(e.active)
	c, err := geometry.Centroid(pts)
	if err != nil {
		e.fault("resize", err)
		return
	}
	start := e.origin.Dist(c)
	if start == 0 {
		// The gesture began on the pivot; there is no ratio to damp.
		return
	}
	scaled, err := geometry.Scale(pts, c, DampedScaleFactor(start, p.Dist(c)))
	if err != nil {
		e.fault("resize", err)
		return
	}
	e.surface.SetShapeCoordinates(e.active, scaled)
	e.addControlPoints(e.active)
	e.anchor = p
}

// PointerUp finishes the open gesture at (x, y).
func (e *Engine) PointerUp(x, y float64) {
	p := geometry.Pt(x, y)

	switch e.gesture {
	case gestureCreate:
		e.destroyPreview()
		e.commit(e.kind, e.kind.Vertices(e.origin, p), e.color, e.color)
	case gestureRotate:
		e.surface.SetAllStrokeColors(ResetStrokeColor)
	case gestureResize:
		if _, ok := e.registry.HitTest(x, y); !ok {
			e.removeControlPoints()
		}
	}
	e.endGesture()
}

// commit draws a shape and records it in the registry.
func (e *Engine) commit(kind geometry.Kind, pts []geometry.Point, stroke, fill string) scene.Handle {
	h := e.surface.CreateShape(kind, pts, stroke, fill)
	e.registry.Insert(kind, h, stroke, fill)
	return h
}
