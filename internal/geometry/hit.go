package geometry

import "math"

// DistanceToSegment returns the shortest distance from p to the segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point{a.X + t*dx, a.Y + t*dy})
}

// PointInPolygon reports whether p lies inside the closed polygon using the
// even-odd rule.
func PointInPolygon(p Point, poly []Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// NearPolyline reports whether p is within tol of any edge of pts. When
// closed is set the last vertex also connects back to the first.
func NearPolyline(p Point, pts []Point, tol float64, closed bool) bool {
	for i := 0; i+1 < len(pts); i++ {
		if DistanceToSegment(p, pts[i], pts[i+1]) <= tol {
			return true
		}
	}
	if closed && len(pts) > 2 {
		return DistanceToSegment(p, pts[len(pts)-1], pts[0]) <= tol
	}
	return len(pts) == 1 && p.Dist(pts[0]) <= tol
}

// PointInEllipse reports whether p lies inside the ellipse inscribed in r,
// grown by tol on each axis.
func PointInEllipse(p Point, r Rect, tol float64) bool {
	rx := r.Width/2 + tol
	ry := r.Height/2 + tol
	if rx <= 0 || ry <= 0 {
		return false
	}
	c := r.Center()
	nx := (p.X - c.X) / rx
	ny := (p.Y - c.Y) / ry
	return nx*nx+ny*ny <= 1
}
