// Package scene is the retained drawing surface: it owns every item drawn on
// the canvas, answers overlap queries, and compiles draw commands for the
// front end.
package scene

import (
	"fmt"

	"github.com/inamate/shapedraw/backend-go/internal/geometry"
)

// pickTolerance widens hit areas so thin lines and 1px points stay clickable.
const pickTolerance = 1.0

// Handle is an opaque reference to an item in a Scene. It is an arena index
// plus a generation, so a handle to a destroyed item never aliases whatever
// later reuses its slot. The zero Handle refers to nothing.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the empty handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string {
	if h.IsZero() {
		return ""
	}
	return fmt.Sprintf("h%d.%d", h.index, h.gen)
}

// ParseHandle reverses Handle.String.
func ParseHandle(s string) (Handle, error) {
	var h Handle
	if _, err := fmt.Sscanf(s, "h%d.%d", &h.index, &h.gen); err != nil {
		return Handle{}, fmt.Errorf("parse handle %q: %w", s, err)
	}
	return h, nil
}

// Primitive is the canvas item type backing a shape.
type Primitive int

const (
	PrimitiveOval Primitive = iota
	PrimitiveRectangle
	PrimitivePolygon
	PrimitiveLine
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveOval:
		return "oval"
	case PrimitiveRectangle:
		return "rect"
	case PrimitivePolygon:
		return "polygon"
	default:
		return "line"
	}
}

// PrimitiveFor maps a shape kind onto the canvas item that draws it.
func PrimitiveFor(kind geometry.Kind) Primitive {
	switch kind {
	case geometry.KindPoint, geometry.KindCircle:
		return PrimitiveOval
	case geometry.KindSquare:
		return PrimitiveRectangle
	case geometry.KindTriangle, geometry.KindOctagon:
		return PrimitivePolygon
	default:
		return PrimitiveLine
	}
}

// Item is one retained canvas item.
type Item struct {
	Handle    Handle
	Kind      geometry.Kind
	Primitive Primitive
	Points    []geometry.Point
	Stroke    string
	Fill      string

	// Hit testing
	Bounds geometry.Rect
}

type slot struct {
	gen  uint32
	item *Item
}

// Scene is the retained scene. It persists between events and is updated in
// place; items are kept in creation order, which is also paint order.
type Scene struct {
	slots []slot
	free  []uint32
	order []Handle
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// CreateShape adds an item for kind with the given vertices and colours and
// returns its handle.
func (s *Scene) CreateShape(kind geometry.Kind, pts []geometry.Point, stroke, fill string) Handle {
	item := &Item{
		Kind:      kind,
		Primitive: PrimitiveFor(kind),
		Stroke:    stroke,
		Fill:      fill,
	}
	item.setPoints(pts)

	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot{})
		idx = uint32(len(s.slots) - 1)
	}
	sl := &s.slots[idx]
	sl.gen++
	sl.item = item
	item.Handle = Handle{index: idx, gen: sl.gen}
	s.order = append(s.order, item.Handle)
	return item.Handle
}

// Item returns the live item for h.
func (s *Scene) Item(h Handle) (*Item, bool) {
	if h.IsZero() || int(h.index) >= len(s.slots) {
		return nil, false
	}
	sl := s.slots[h.index]
	if sl.gen != h.gen || sl.item == nil {
		return nil, false
	}
	return sl.item, true
}

// MoveShape translates an item by (dx, dy).
func (s *Scene) MoveShape(h Handle, dx, dy float64) {
	if it, ok := s.Item(h); ok {
		it.setPoints(geometry.TranslatePoints(it.Points, dx, dy))
	}
}

// SetShapeCoordinates replaces an item's vertices.
func (s *Scene) SetShapeCoordinates(h Handle, pts []geometry.Point) {
	if it, ok := s.Item(h); ok {
		it.setPoints(pts)
	}
}

// SetStrokeColor recolours one item's outline.
func (s *Scene) SetStrokeColor(h Handle, color string) {
	if it, ok := s.Item(h); ok {
		it.Stroke = color
	}
}

// SetAllStrokeColors recolours the outline of every item in the scene.
func (s *Scene) SetAllStrokeColors(color string) {
	for _, h := range s.order {
		if it, ok := s.Item(h); ok {
			it.Stroke = color
		}
	}
}

// Coordinates returns a copy of an item's vertices, or nil if h is stale.
func (s *Scene) Coordinates(h Handle) []geometry.Point {
	it, ok := s.Item(h)
	if !ok {
		return nil
	}
	out := make([]geometry.Point, len(it.Points))
	copy(out, it.Points)
	return out
}

// Style returns an item's current stroke and fill.
func (s *Scene) Style(h Handle) (stroke, fill string, ok bool) {
	it, ok := s.Item(h)
	if !ok {
		return "", "", false
	}
	return it.Stroke, it.Fill, true
}

// QueryOverlap returns every item whose drawn area covers (x, y), in paint
// order (bottom first).
func (s *Scene) QueryOverlap(x, y float64) []Handle {
	var hits []Handle
	for _, h := range s.order {
		it, ok := s.Item(h)
		if !ok {
			continue
		}
		if it.covers(geometry.Pt(x, y)) {
			hits = append(hits, h)
		}
	}
	return hits
}

// DestroyShape removes an item. Stale or zero handles are ignored.
func (s *Scene) DestroyShape(h Handle) {
	if _, ok := s.Item(h); !ok {
		return
	}
	s.slots[h.index].item = nil
	s.free = append(s.free, h.index)
	for i, o := range s.order {
		if o == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// DestroyAll removes every item.
func (s *Scene) DestroyAll() {
	for _, h := range append([]Handle(nil), s.order...) {
		s.DestroyShape(h)
	}
}

// Len returns the number of live items.
func (s *Scene) Len() int { return len(s.order) }

// Items returns the live items in paint order. Callers must not mutate them.
func (s *Scene) Items() []*Item {
	out := make([]*Item, 0, len(s.order))
	for _, h := range s.order {
		if it, ok := s.Item(h); ok {
			out = append(out, it)
		}
	}
	return out
}

// setPoints stores a copy of pts. Oval and rectangle items are defined by two
// corners and keep them normalised to (min, min), (max, max).
func (it *Item) setPoints(pts []geometry.Point) {
	cp := make([]geometry.Point, len(pts))
	copy(cp, pts)
	if (it.Primitive == PrimitiveOval || it.Primitive == PrimitiveRectangle) && len(cp) == 2 {
		a, b := cp[0], cp[1]
		cp[0] = geometry.Pt(min(a.X, b.X), min(a.Y, b.Y))
		cp[1] = geometry.Pt(max(a.X, b.X), max(a.Y, b.Y))
	}
	it.Points = cp
	it.Bounds = geometry.BoundsOf(cp)
}

func (it *Item) covers(p geometry.Point) bool {
	if !it.Bounds.Inflate(pickTolerance).Contains(p.X, p.Y) {
		return false
	}
	switch it.Primitive {
	case PrimitiveOval:
		return geometry.PointInEllipse(p, it.Bounds, pickTolerance)
	case PrimitiveRectangle:
		return true
	case PrimitivePolygon:
		return geometry.PointInPolygon(p, it.Points) ||
			geometry.NearPolyline(p, it.Points, pickTolerance, true)
	default:
		return geometry.NearPolyline(p, it.Points, pickTolerance, false)
	}
}
