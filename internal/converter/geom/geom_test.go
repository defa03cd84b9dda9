package geom

import (
	"errors"
	"math"
	"testing"
)

func unitSquare() *Path {
	return XYWH(0, 0, 1, 1).Path()
}

func TestPointsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"identical", Pt(1, 1), Pt(1, 1), true},
		{"within tolerance", Pt(1, 1), Pt(1.00005, 0.99995), true},
		{"outside on x", Pt(1, 1), Pt(1.0002, 1), false},
		{"outside on y", Pt(1, 1), Pt(1, 0.9998), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("PointsEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLinesIntersect(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Line
		want   Point
		wantOK bool
	}{
		{"crossing", Ln(0, 0, 2, 2), Ln(0, 2, 2, 0), Pt(1, 1), true},
		{"disjoint", Ln(0, 0, 1, 0), Ln(0, 1, 1, 1), Point{}, false},
		{"touching endpoint", Ln(0, 0, 2, 0), Ln(1, 0, 1, 2), Pt(1, 0), true},
		{"collinear overlap picks first end", Ln(0, 0, 2, 0), Ln(1, 0, 3, 0), Pt(2, 0), true},
		{"collinear overlap start on other", Ln(1, 0, 3, 0), Ln(0, 0, 2, 0), Pt(1, 0), true},
		{"collinear apart", Ln(0, 0, 1, 0), Ln(2, 0, 3, 0), Point{}, false},
		{"degenerate point on segment", Ln(1, 1, 1, 1), Ln(0, 0, 2, 2), Pt(1, 1), true},
		{"degenerate point off segment", Ln(1, 0, 1, 0), Ln(0, 0, 2, 2), Point{}, false},
		{"nearly parallel overlap", Ln(0, 0, 1, 0), Ln(0.5, 0.00005, 1.5, 0.00006), Pt(1, 0), true},
		{"nearly parallel overlap reversed", Ln(0.5, 0.00005, 1.5, 0.00006), Ln(0, 0, 1, 0), Pt(0.5, 0.00005), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LinesIntersect(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("LinesIntersect ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !PointsEqual(got, tt.want) {
				t.Errorf("LinesIntersect = %v, want %v", got, tt.want)
			}
			k := DefaultKernel()
			if ok && (!k.OnSegment(got, tt.a) || !k.OnSegment(got, tt.b)) {
				t.Errorf("LinesIntersect = %v lies outside the segments", got)
			}
			if _, back := LinesIntersect(tt.b, tt.a); back != ok {
				t.Errorf("reverse order reports %v, forward %v", back, ok)
			}
		})
	}
}

func TestFlattenCurves(t *testing.T) {
	k := DefaultKernel()

	p := NewPath()
	p.MoveTo(0, 0)
	p.QuadTo(5, 10, 10, 0)
	flat := k.Flatten(p)

	if flat.Len() < 3 {
		t.Fatalf("expected quad to subdivide, got %d elements", flat.Len())
	}
	for _, e := range flat.Elements() {
		switch e.(type) {
		case MoveTo, LineTo:
		default:
			t.Fatalf("unexpected element %T after flattening", e)
		}
	}
	if !k.PointsEqual(flat.CurrentPoint(), Pt(10, 0)) {
		t.Errorf("flattened end = %v, want (10,0)", flat.CurrentPoint())
	}

	// apex of the quad is (5, 5)
	if d := k.PathDistance(flat, Pt(5, 5)); d > k.Flatness {
		t.Errorf("apex distance %v exceeds flatness %v", d, k.Flatness)
	}
}

func TestFlattenClose(t *testing.T) {
	segs := DefaultKernel().Segments(unitSquare())
	if len(segs) != 4 {
		t.Fatalf("square has %d segments, want 4", len(segs))
	}
	last := segs[3]
	if !PointsEqual(last.B, Pt(0, 0)) {
		t.Errorf("closing segment ends at %v", last.B)
	}
}

func TestContainment(t *testing.T) {
	sq := unitSquare()
	tests := []struct {
		name       string
		pt         Point
		inside     bool
		insideOrOn bool
	}{
		{"center", Pt(0.5, 0.5), true, true},
		{"left border", Pt(0, 0.5), false, true},
		{"corner", Pt(1, 1), false, true},
		{"outside", Pt(2, 0.5), false, false},
	}
	k := DefaultKernel()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.inside && !k.Contains(sq, tt.pt) {
				t.Errorf("Contains(%v) = false", tt.pt)
			}
			if got := k.IsInsideOrOnBoundary(sq, tt.pt); got != tt.insideOrOn {
				t.Errorf("IsInsideOrOnBoundary(%v) = %v, want %v", tt.pt, got, tt.insideOrOn)
			}
		})
	}
}

func TestContainsOpenPathClosesImplicitly(t *testing.T) {
	tri := Polyline(Pt(0, 0), Pt(4, 0), Pt(0, 4))
	if !DefaultKernel().Contains(tri, Pt(1, 1)) {
		t.Error("open triangle should contain (1,1)")
	}
}

func TestPathIntersections(t *testing.T) {
	line := Polyline(Pt(-1, 0.5), Pt(2, 0.5))
	pts := PathIntersections(unitSquare(), line)
	if len(pts) != 2 {
		t.Fatalf("got %d intersections, want 2: %v", len(pts), pts)
	}
	if !PathIntersects(line, unitSquare()) {
		t.Error("PathIntersects should be true")
	}

	far := Polyline(Pt(5, 5), Pt(6, 6))
	if PathIntersects(far, unitSquare()) {
		t.Error("far line should not intersect")
	}

	hits := PathLineIntersections(unitSquare(), Ln(0.5, -1, 0.5, 0.5))
	if len(hits) != 1 || !PointsEqual(hits[0], Pt(0.5, 0)) {
		t.Errorf("PathLineIntersections = %v, want [(0.5,0)]", hits)
	}

	k := DefaultKernel()
	if !k.PathIntersectsLine(unitSquare(), Ln(0.5, -1, 0.5, 0.5)) {
		t.Error("PathIntersectsLine should be true for a line crossing the bottom edge")
	}
	if k.PathIntersectsLine(unitSquare(), Ln(2, 2, 3, 3)) {
		t.Error("PathIntersectsLine should be false for a far line")
	}

	if got := k.PathPointIntersections(unitSquare(), Pt(1, 0.25)); len(got) != 1 || got[0] != Pt(1, 0.25) {
		t.Errorf("PathPointIntersections on edge = %v", got)
	}
	if got := k.PathPointIntersections(unitSquare(), Pt(0.5, 0.5)); got != nil {
		t.Errorf("PathPointIntersections inside = %v, want none", got)
	}
}

func TestFirstIntersection(t *testing.T) {
	a := Polyline(Pt(0, 0), Pt(2, 2))
	b := Polyline(Pt(0, 2), Pt(2, 0))
	pt, ok := DefaultKernel().FirstIntersection(a, b)
	if !ok || !PointsEqual(pt, Pt(1, 1)) {
		t.Errorf("FirstIntersection = %v, %v", pt, ok)
	}
}

func TestPathDistance(t *testing.T) {
	if d := PathDistance(NewPath(), Pt(0, 0)); !math.IsInf(d, 1) {
		t.Errorf("empty path distance = %v, want +Inf", d)
	}
	if d := PathDistance(unitSquare(), Pt(0.5, 2)); math.Abs(d-1) > 1e-9 {
		t.Errorf("distance = %v, want 1", d)
	}
}

func TestRoundPathIdempotent(t *testing.T) {
	p := NewPath()
	p.MoveTo(0.123456789, 1.987654321)
	p.CubicTo(0.33333333, 0.6666666, 1.000049999, 2.5, 3.14159265, 2.71828182)
	once := RoundPath(p)
	twice := RoundPath(once)

	if once.Len() != twice.Len() {
		t.Fatalf("length changed: %d vs %d", once.Len(), twice.Len())
	}
	for i := range once.Elements() {
		if once.Elements()[i] != twice.Elements()[i] {
			t.Errorf("element %d: %v != %v", i, once.Elements()[i], twice.Elements()[i])
		}
	}
	if got := once.CurrentPoint(); got != Pt(3.1416, 2.7183) {
		t.Errorf("rounded end = %v", got)
	}
}

func TestStart(t *testing.T) {
	p := NewPath()
	p.LineTo(1, 1)
	if _, err := p.Start(); !errors.Is(err, ErrMissingMoveTo) {
		t.Errorf("Start() error = %v, want ErrMissingMoveTo", err)
	}
	start, err := Polyline(Pt(2, 3), Pt(4, 5)).Start()
	if err != nil || start != Pt(2, 3) {
		t.Errorf("Start() = %v, %v", start, err)
	}
}

func TestTransform(t *testing.T) {
	m := Multiply(Translate(10, 0), Scale(2, 2))
	got := Apply(m, Pt(1, 1))
	if got != Pt(12, 2) {
		t.Errorf("Apply = %v, want (12,2)", got)
	}

	box := unitSquare().Transform(m).Bounds()
	want := Rect{Min: Pt(10, 0), Max: Pt(12, 2)}
	if box != want {
		t.Errorf("transformed bounds = %v, want %v", box, want)
	}

	r := Apply(Rotate(math.Pi/2), Pt(1, 0))
	if !PointsEqual(r, Pt(0, 1)) {
		t.Errorf("rotate = %v", r)
	}
}

func TestRectIntersectionArea(t *testing.T) {
	a := XYWH(0, 0, 2, 2)
	b := XYWH(1, 1, 2, 2)
	if got := a.IntersectionArea(b); got != 1 {
		t.Errorf("IntersectionArea = %v, want 1", got)
	}
	if got := a.IntersectionArea(XYWH(5, 5, 1, 1)); got != 0 {
		t.Errorf("disjoint IntersectionArea = %v", got)
	}
	if got := BoxDist(a, XYWH(5, 2, 1, 1)); got != 3 {
		t.Errorf("BoxDist = %v, want 3", got)
	}
}

func TestIntersectionSymmetry(t *testing.T) {
	paths := map[string]*Path{
		"square":   unitSquare(),
		"crossing": Polyline(Pt(-1, 0.5), Pt(2, 0.5)),
		"diagonal": Polyline(Pt(0, 0), Pt(3, 3)),
		"far":      Polyline(Pt(5, 5), Pt(6, 6)),
		"point":    Polyline(Pt(1, 1), Pt(1, 1)),
	}
	for an, a := range paths {
		for bn, b := range paths {
			if PathIntersects(a, b) != PathIntersects(b, a) {
				t.Errorf("PathIntersects(%s, %s) is not symmetric", an, bn)
			}
		}
	}
}

func TestPointPathActsLikePoint(t *testing.T) {
	k := DefaultKernel()
	tests := []struct {
		name string
		pt   Point
	}{
		{"on edge", Pt(1, 0.5)},
		{"corner", Pt(0, 0)},
		{"inside", Pt(0.5, 0.5)},
		{"outside", Pt(3, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// отрезок нулевой длины с шумом ниже epsilon
			single := Polyline(tt.pt, tt.pt.Add(Pt(5e-5, 0)))
			if got, want := k.PathIntersects(single, unitSquare()), k.PathIntersectsPoint(unitSquare(), tt.pt); got != want {
				t.Errorf("PathIntersects(point path) = %v, point query = %v", got, want)
			}
		})
	}
}
