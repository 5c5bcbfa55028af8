package scene

import (
	"testing"

	"github.com/inamate/shapedraw/backend-go/internal/geometry"
)

func TestCreateAndDestroy(t *testing.T) {
	s := New()
	h := s.CreateShape(geometry.KindLine, []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, "#000000", "#000000")
	if h.IsZero() {
		t.Fatal("expected a non-zero handle")
	}
	if got := s.Coordinates(h); len(got) != 2 || got[1] != geometry.Pt(10, 10) {
		t.Fatalf("unexpected coordinates %+v", got)
	}

	s.DestroyShape(h)
	if _, ok := s.Item(h); ok {
		t.Fatal("destroyed handle still resolves")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty scene, got %d items", s.Len())
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	s := New()
	old := s.CreateShape(geometry.KindSquare, []geometry.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}, "#000000", "")
	s.DestroyShape(old)

	fresh := s.CreateShape(geometry.KindSquare, []geometry.Point{{X: 20, Y: 20}, {X: 30, Y: 30}}, "#ff0000", "")
	if fresh == old {
		t.Fatal("reused slot must carry a new generation")
	}
	if _, ok := s.Item(old); ok {
		t.Fatal("stale handle resolved to the new item")
	}
	s.MoveShape(old, 100, 100)
	if got := s.Coordinates(fresh); got[0] != geometry.Pt(20, 20) {
		t.Fatalf("stale handle moved the new item: %+v", got)
	}
}

func TestOvalAndRectNormaliseCorners(t *testing.T) {
	s := New()
	h := s.CreateShape(geometry.KindCircle, []geometry.Point{{X: 10, Y: 10}, {X: 0, Y: 0}}, "#000000", "")
	got := s.Coordinates(h)
	if got[0] != geometry.Pt(0, 0) || got[1] != geometry.Pt(10, 10) {
		t.Fatalf("oval corners not normalised: %+v", got)
	}

	poly := s.CreateShape(geometry.KindTriangle, []geometry.Point{{X: 10, Y: 10}, {X: 0, Y: 0}, {X: 5, Y: -5}}, "#000000", "")
	if got := s.Coordinates(poly); got[0] != geometry.Pt(10, 10) {
		t.Fatalf("polygon vertices must be kept verbatim: %+v", got)
	}
}

func TestQueryOverlap(t *testing.T) {
	s := New()
	circle := s.CreateShape(geometry.KindCircle, geometry.CircleVertices(geometry.Pt(50, 50), geometry.Pt(60, 50)), "#000000", "")
	square := s.CreateShape(geometry.KindSquare, []geometry.Point{{X: 45, Y: 45}, {X: 80, Y: 80}}, "#000000", "")
	line := s.CreateShape(geometry.KindLine, []geometry.Point{{X: 0, Y: 100}, {X: 100, Y: 100}}, "#000000", "")
	tri := s.CreateShape(geometry.KindTriangle, geometry.TriangleVertices(geometry.Pt(200, 200), geometry.Pt(220, 200)), "#000000", "")

	hits := s.QueryOverlap(50, 50)
	if len(hits) != 2 || hits[0] != circle || hits[1] != square {
		t.Fatalf("expected circle then square, got %v", hits)
	}
	// bbox corner of the circle is outside the ellipse, inside nothing else
	if hits := s.QueryOverlap(41, 41); len(hits) != 0 {
		t.Fatalf("expected miss at circle bbox corner, got %v", hits)
	}
	if hits := s.QueryOverlap(30, 100.5); len(hits) != 1 || hits[0] != line {
		t.Fatalf("expected line hit, got %v", hits)
	}
	if hits := s.QueryOverlap(210, 195); len(hits) != 1 || hits[0] != tri {
		t.Fatalf("expected triangle hit, got %v", hits)
	}
}

func TestSetAllStrokeColors(t *testing.T) {
	s := New()
	a := s.CreateShape(geometry.KindLine, []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, "#ff0000", "")
	b := s.CreateShape(geometry.KindSquare, []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, "#00ff00", "#00ff00")
	s.SetAllStrokeColors("#000000")
	for _, h := range []Handle{a, b} {
		if stroke, _, _ := s.Style(h); stroke != "#000000" {
			t.Errorf("%v stroke = %s", h, stroke)
		}
	}
	if _, fill, _ := s.Style(b); fill != "#00ff00" {
		t.Errorf("fill must be untouched, got %s", fill)
	}
}

func TestParseHandle(t *testing.T) {
	s := New()
	h := s.CreateShape(geometry.KindPoint, geometry.PointVertices(geometry.Pt(1, 1)), "#000000", "#000000")
	got, err := ParseHandle(h.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("ParseHandle(%q) = %v", h.String(), got)
	}
}

func TestCompileDrawCommands(t *testing.T) {
	s := New()
	s.CreateShape(geometry.KindLine, []geometry.Point{{X: 0, Y: 0}, {X: 3, Y: 4}}, "#112233", "#112233")
	s.CreateShape(geometry.KindOctagon, geometry.OctagonVertices(geometry.Pt(0, 0), geometry.Pt(5, 0)), "#000000", "#abcdef")

	cmds := CompileDrawCommands(s)
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Op != "line" || cmds[0].Fill != "" || len(cmds[0].Points) != 4 {
		t.Errorf("unexpected line command %+v", cmds[0])
	}
	if cmds[1].Op != "polygon" || cmds[1].Kind != "Octagon" || len(cmds[1].Points) != 16 {
		t.Errorf("unexpected octagon command %+v", cmds[1])
	}
}
