package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownKind is returned by ParseKind for names outside the closed set.
var ErrUnknownKind = errors.New("unknown shape kind")

// Kind identifies a shape type. The set is closed; every switch over Kind
// handles all six members.
type Kind int

const (
	KindPoint Kind = iota
	KindLine
	KindCircle
	KindSquare
	KindTriangle
	KindOctagon
)

// Kinds lists every shape kind in palette order.
var Kinds = []Kind{KindPoint, KindLine, KindCircle, KindSquare, KindTriangle, KindOctagon}

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLine:
		return "Line"
	case KindCircle:
		return "Circle"
	case KindSquare:
		return "Square"
	case KindTriangle:
		return "Triangle"
	case KindOctagon:
		return "Octagon"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a persisted type name to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// VertexCount is the number of vertices the surface keeps for a shape of
// this kind once drawn.
func (k Kind) VertexCount() int {
	switch k {
	case KindTriangle:
		return 3
	case KindOctagon:
		return 8
	default:
		return 2
	}
}

// Vertices derives the vertex list for k from two anchor points: the
// gesture start a and the current or final pointer position b. Point only
// uses a.
func (k Kind) Vertices(a, b Point) []Point {
	switch k {
	case KindPoint:
		return PointVertices(a)
	case KindLine:
		return LineVertices(a, b)
	case KindCircle:
		return CircleVertices(a, b)
	case KindSquare:
		return SquareVertices(a, b)
	case KindTriangle:
		return TriangleVertices(a, b)
	case KindOctagon:
		return OctagonVertices(a, b)
	default:
		panic(fmt.Sprintf("geometry: vertices for %v", k))
	}
}

// PointVertices is the 1x1 box drawn as a filled dot.
func PointVertices(p Point) []Point {
	return []Point{p, {p.X + 1, p.Y + 1}}
}

// LineVertices returns the anchors unchanged.
func LineVertices(a, b Point) []Point {
	return []Point{a, b}
}

// CircleVertices returns the bounding box of the circle centred on a whose
// radius reaches b. The first anchor is the centre, not the midpoint.
func CircleVertices(a, b Point) []Point {
	r := a.Dist(b)
	return []Point{{a.X - r, a.Y - r}, {a.X + r, a.Y + r}}
}

// SquareVertices returns an axis-aligned box anchored at a with side
// min(|dx|, |dy|). It always grows toward +x,+y whatever the drag direction.
func SquareVertices(a, b Point) []Point {
	size := math.Min(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))
	return []Point{a, {a.X + size, a.Y + size}}
}

// TriangleVertices treats a->b as one edge and puts the apex above its
// midpoint at height (b.x-a.x)*sqrt(3)/2, always toward negative y.
func TriangleVertices(a, b Point) []Point {
	apex := Point{
		X: (a.X + b.X) / 2,
		Y: a.Y - (b.X-a.X)*math.Sqrt(3)/2,
	}
	return []Point{a, b, apex}
}

// OctagonVertices returns a regular octagon centred on a with circumradius
// |ab|. The first vertex sits at angle 0.
func OctagonVertices(a, b Point) []Point {
	r := a.Dist(b)
	pts := make([]Point, 8)
	for i := range pts {
		theta := math.Pi / 4 * float64(i)
		pts[i] = Point{a.X + r*math.Cos(theta), a.Y + r*math.Sin(theta)}
	}
	return pts
}
