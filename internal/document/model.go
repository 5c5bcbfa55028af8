// Package document defines the persisted drawing format: a JSON array with
// one entry per shape, in registry insertion order.
package document

import (
	"errors"
	"fmt"
	"math"

	"github.com/inamate/shapedraw/backend-go/internal/geometry"
)

var (
	// ErrPersistenceFormat marks a document that is malformed or missing a
	// required field.
	ErrPersistenceFormat = errors.New("persistence format error")
	// ErrUnknownShapeKind marks an entry whose type is not a known shape.
	ErrUnknownShapeKind = errors.New("unknown shape kind")
)

type ShapeType string

const (
	ShapeTypePoint    ShapeType = "Point"
	ShapeTypeLine     ShapeType = "Line"
	ShapeTypeCircle   ShapeType = "Circle"
	ShapeTypeSquare   ShapeType = "Square"
	ShapeTypeTriangle ShapeType = "Triangle"
	ShapeTypeOctagon  ShapeType = "Octagon"
)

// TypeOf returns the persisted name of a shape kind.
func TypeOf(k geometry.Kind) ShapeType {
	return ShapeType(k.String())
}

// Kind resolves the persisted name to a geometry kind.
func (t ShapeType) Kind() (geometry.Kind, error) {
	k, err := geometry.ParseKind(string(t))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownShapeKind, string(t))
	}
	return k, nil
}

// Entry is one persisted shape.
type Entry struct {
	Type   ShapeType `json:"type"`
	Coords []float64 `json:"coords"` // flat x,y,x,y,... as currently rendered
	Color  string    `json:"color"`  // stroke
	Fill   string    `json:"fill"`
}

// Points returns the entry's coordinates as points.
func (e Entry) Points() ([]geometry.Point, error) {
	return geometry.Pairs(e.Coords)
}

// MaxCoordinate bounds every stored coordinate. It is far outside any canvas
// and well inside float32, which the rasterizer works in.
const MaxCoordinate = 1 << 20

// ValidCoordinate reports whether v is a finite value within MaxCoordinate.
func ValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= MaxCoordinate
}

// Drawing is a whole persisted canvas.
type Drawing []Entry

// FormatError describes why an entry failed validation.
type FormatError struct {
	Index  int    // entry position, -1 for the document itself
	Field  string // offending field, empty for the whole entry
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("document: %s", e.Reason)
	case e.Field == "":
		return fmt.Sprintf("entry %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("entry %d: %s: %s", e.Index, e.Field, e.Reason)
	}
}

func (e *FormatError) Unwrap() error { return ErrPersistenceFormat }

// AcceptsVertexCount reports whether n vertices are a legal persisted form
// for kind: the rendered vertex list, a bare pair of anchors, or a single
// position for a Point.
func AcceptsVertexCount(kind geometry.Kind, n int) bool {
	if n == kind.VertexCount() || n == 2 {
		return true
	}
	return kind == geometry.KindPoint && n == 1
}
