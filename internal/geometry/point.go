// Package geometry holds the pure math behind the shape editor: points,
// affine matrices, per-kind vertex generation and the pivot transforms used
// by rotate and resize gestures.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateShape is returned when a transform or centroid is asked of an
// empty coordinate list. Shapes are never created empty, so seeing it means
// an internal invariant was broken.
var ErrDegenerateShape = errors.New("degenerate shape: empty coordinate list")

// Point is a position in canvas space. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Angle returns the angle of the vector pivot->p in radians.
func (p Point) Angle(pivot Point) float64 {
	return math.Atan2(p.Y-pivot.Y, p.X-pivot.X)
}

// Centroid returns the arithmetic mean of all x and all y values.
func Centroid(pts []Point) (Point, error) {
	if len(pts) == 0 {
		return Point{}, ErrDegenerateShape
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Point{X: sx / n, Y: sy / n}, nil
}

// Rotate rotates every point by angle radians about pivot.
func Rotate(pts []Point, pivot Point, angle float64) ([]Point, error) {
	if len(pts) == 0 {
		return nil, ErrDegenerateShape
	}
	return RotateMatrix(angle).About(pivot).TransformPoints(pts), nil
}

// Scale scales every point radially from pivot by factor. A factor of 1
// returns an exact copy.
func Scale(pts []Point, pivot Point, factor float64) ([]Point, error) {
	if len(pts) == 0 {
		return nil, ErrDegenerateShape
	}
	if factor == 1 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out, nil
	}
	return ScaleMatrix(factor, factor).About(pivot).TransformPoints(pts), nil
}

// TranslatePoints returns pts shifted by (dx, dy).
func TranslatePoints(pts []Point, dx, dy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{p.X + dx, p.Y + dy}
	}
	return out
}

// Flatten converts points to the flat x,y,x,y,... form used on the wire.
func Flatten(pts []Point) []float64 {
	out := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		out = append(out, p.X, p.Y)
	}
	return out
}

// Pairs converts a flat x,y,x,y,... list back into points.
func Pairs(coords []float64) ([]Point, error) {
	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("odd coordinate count %d", len(coords))
	}
	out := make([]Point, len(coords)/2)
	for i := range out {
		out[i] = Point{X: coords[2*i], Y: coords[2*i+1]}
	}
	return out, nil
}
