// Package registry tracks the shapes the user has committed to the canvas,
// in draw order, alongside their scene handles.
package registry

import (
	"slices"

	"github.com/inamate/shapedraw/backend-go/internal/geometry"
	"github.com/inamate/shapedraw/backend-go/internal/scene"
)

// Surface is the part of the rendering surface the registry needs.
type Surface interface {
	QueryOverlap(x, y float64) []scene.Handle
	DestroyShape(h scene.Handle)
}

// Shape is one committed drawing object.
type Shape struct {
	Kind        geometry.Kind
	Handle      scene.Handle
	StrokeColor string
	FillColor   string
}

// Registry is the ordered collection of committed shapes. Insertion order
// doubles as the hit-test tie-break: the earliest shape wins.
type Registry struct {
	surface Surface
	shapes  []Shape
}

// New creates an empty registry bound to surface.
func New(surface Surface) *Registry {
	return &Registry{surface: surface}
}

// Insert appends a record. No deduplication is done.
func (r *Registry) Insert(kind geometry.Kind, h scene.Handle, stroke, fill string) Shape {
	s := Shape{Kind: kind, Handle: h, StrokeColor: stroke, FillColor: fill}
	r.shapes = append(r.shapes, s)
	return s
}

// RemoveByHandle drops the record for h and destroys its surface item.
// It reports whether a record was found.
func (r *Registry) RemoveByHandle(h scene.Handle) bool {
	i := r.index(h)
	if i < 0 {
		return false
	}
	r.shapes = slices.Delete(r.shapes, i, i+1)
	r.surface.DestroyShape(h)
	return true
}

// Clear removes every record and destroys every handle.
func (r *Registry) Clear() {
	for _, s := range r.shapes {
		r.surface.DestroyShape(s.Handle)
	}
	r.shapes = nil
}

// FindByHandle returns the record for h.
func (r *Registry) FindByHandle(h scene.Handle) (Shape, bool) {
	if i := r.index(h); i >= 0 {
		return r.shapes[i], true
	}
	return Shape{}, false
}

// HitTest returns the first registered shape, in insertion order, whose
// surface item covers (x, y). Items the registry does not track, such as
// previews and control points, never match.
func (r *Registry) HitTest(x, y float64) (scene.Handle, bool) {
	overlapping := r.surface.QueryOverlap(x, y)
	if len(overlapping) == 0 {
		return scene.Handle{}, false
	}
	for _, s := range r.shapes {
		if slices.Contains(overlapping, s.Handle) {
			return s.Handle, true
		}
	}
	return scene.Handle{}, false
}

// All returns a copy of the records in insertion order.
func (r *Registry) All() []Shape {
	return slices.Clone(r.shapes)
}

// Len returns the number of records.
func (r *Registry) Len() int { return len(r.shapes) }

func (r *Registry) index(h scene.Handle) int {
	return slices.IndexFunc(r.shapes, func(s Shape) bool { return s.Handle == h })
}
