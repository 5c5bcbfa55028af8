package document

import "github.com/inamate/shapedraw/backend-go/internal/geometry"

// NewSampleDrawing returns a small drawing with one shape of every kind,
// laid out on an 800x600 canvas. New drawings can start from it and tests
// use it as a fixture.
func NewSampleDrawing() Drawing {
	type spec struct {
		kind         geometry.Kind
		a, b         geometry.Point
		stroke, fill string
	}
	specs := []spec{
		{geometry.KindPoint, geometry.Pt(60, 60), geometry.Pt(60, 60), "#000000", "#000000"},
		{geometry.KindLine, geometry.Pt(100, 60), geometry.Pt(260, 140), "#1f6feb", "#1f6feb"},
		{geometry.KindCircle, geometry.Pt(380, 120), geometry.Pt(440, 120), "#000000", "#ffd33d"},
		{geometry.KindSquare, geometry.Pt(520, 60), geometry.Pt(640, 200), "#000000", "#2ea043"},
		{geometry.KindTriangle, geometry.Pt(120, 420), geometry.Pt(280, 420), "#000000", "#f85149"},
		{geometry.KindOctagon, geometry.Pt(460, 380), geometry.Pt(540, 380), "#000000", "#a371f7"},
	}

	d := make(Drawing, 0, len(specs))
	for _, s := range specs {
		d = append(d, Entry{
			Type:   TypeOf(s.kind),
			Coords: geometry.Flatten(s.kind.Vertices(s.a, s.b)),
			Color:  s.stroke,
			Fill:   s.fill,
		})
	}
	return d
}
