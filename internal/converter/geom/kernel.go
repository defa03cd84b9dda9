package geom

import "math"

// Default tolerances.
const (
	DefaultEpsilon   = 1e-4
	DefaultFlatness  = 0.01
	DefaultPrecision = 4

	maxSubdivision = 16
)

// Kernel carries the tolerances used by every geometric predicate.
// The zero value is not usable; start from DefaultKernel.
type Kernel struct {
	// Epsilon is the per-axis tolerance for point equality and the
	// maximum distance at which a point counts as lying on a segment.
	Epsilon float64
	// Flatness is the maximum deviation of a flattened curve from the original.
	Flatness float64
	// Precision is the number of decimal places kept by Round.
	Precision int
}

func DefaultKernel() Kernel {
	return Kernel{Epsilon: DefaultEpsilon, Flatness: DefaultFlatness, Precision: DefaultPrecision}
}

var std = DefaultKernel()

// PointsEqual compares points per axis within Epsilon.
func (k Kernel) PointsEqual(a, b Point) bool {
	return math.Abs(a.X-b.X) < k.Epsilon && math.Abs(a.Y-b.Y) < k.Epsilon
}

// IsPoint reports a segment whose endpoints coincide.
func (k Kernel) IsPoint(l Line) bool {
	return k.PointsEqual(l.A, l.B)
}

// Round rounds v to Precision decimal places.
func (k Kernel) Round(v float64) float64 {
	s := math.Pow10(k.Precision)
	return math.Round(v*s) / s
}

func (k Kernel) RoundPoint(p Point) Point {
	return Point{X: k.Round(p.X), Y: k.Round(p.Y)}
}

// RoundPath returns a copy of p with every coordinate rounded.
func (k Kernel) RoundPath(p *Path) *Path {
	return p.mapPoints(k.RoundPoint)
}

// ============================================================
// Flattening
// ============================================================

// Flatten returns an equivalent path made only of MoveTo and LineTo.
// Close becomes an explicit segment back to the subpath start.
func (k Kernel) Flatten(p *Path) *Path {
	out := NewPath()
	if p.IsEmpty() {
		return out
	}
	var current, start Point
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			out.MoveToPoint(e.Point)
			start, current = e.Point, e.Point
		case LineTo:
			out.LineToPoint(e.Point)
			current = e.Point
		case QuadTo:
			k.flattenQuad(current, e.Control, e.Point, 0, out.LineToPoint)
			current = e.Point
		case CubicTo:
			k.flattenCubic(current, e.Control1, e.Control2, e.Point, 0, out.LineToPoint)
			current = e.Point
		case Close:
			if !k.PointsEqual(current, start) {
				out.LineToPoint(start)
			}
			current = start
		}
	}
	return out
}

func (k Kernel) flattenQuad(p0, p1, p2 Point, depth int, emit func(Point)) {
	if depth >= maxSubdivision || distToLine(p1, Line{A: p0, B: p2}) <= k.Flatness {
		emit(p2)
		return
	}
	a := p0.Lerp(p1, 0.5)
	b := p1.Lerp(p2, 0.5)
	mid := a.Lerp(b, 0.5)
	k.flattenQuad(p0, a, mid, depth+1, emit)
	k.flattenQuad(mid, b, p2, depth+1, emit)
}

func (k Kernel) flattenCubic(p0, p1, p2, p3 Point, depth int, emit func(Point)) {
	chord := Line{A: p0, B: p3}
	if depth >= maxSubdivision || math.Max(distToLine(p1, chord), distToLine(p2, chord)) <= k.Flatness {
		emit(p3)
		return
	}
	ab := p0.Lerp(p1, 0.5)
	bc := p1.Lerp(p2, 0.5)
	cd := p2.Lerp(p3, 0.5)
	abc := ab.Lerp(bc, 0.5)
	bcd := bc.Lerp(cd, 0.5)
	mid := abc.Lerp(bcd, 0.5)
	k.flattenCubic(p0, ab, abc, mid, depth+1, emit)
	k.flattenCubic(mid, bcd, cd, p3, depth+1, emit)
}

// EachSegment walks the flattened segments of p in order. A segment whose
// endpoints are equal stands for a single point. Iteration stops when fn
// returns false.
func (k Kernel) EachSegment(p *Path, fn func(Line) bool) {
	if p.IsEmpty() {
		return
	}
	var current Point
	for _, elem := range k.Flatten(p).elements {
		switch e := elem.(type) {
		case MoveTo:
			current = e.Point
		case LineTo:
			if !fn(Line{A: current, B: e.Point}) {
				return
			}
			current = e.Point
		}
	}
}

// Segments collects the flattened segments of p.
func (k Kernel) Segments(p *Path) []Line {
	var segs []Line
	k.EachSegment(p, func(l Line) bool {
		segs = append(segs, l)
		return true
	})
	return segs
}

// closedSegments is like Segments but closes every subpath implicitly.
func (k Kernel) closedSegments(p *Path) []Line {
	var segs []Line
	if p.IsEmpty() {
		return nil
	}
	var current, start Point
	started := false
	closeSub := func() {
		if started && !k.PointsEqual(current, start) {
			segs = append(segs, Line{A: current, B: start})
		}
	}
	for _, elem := range k.Flatten(p).elements {
		switch e := elem.(type) {
		case MoveTo:
			closeSub()
			start, current, started = e.Point, e.Point, true
		case LineTo:
			segs = append(segs, Line{A: current, B: e.Point})
			current = e.Point
		}
	}
	closeSub()
	return segs
}

// Package level helpers bound to DefaultKernel.

func PointsEqual(a, b Point) bool { return std.PointsEqual(a, b) }
func Round(v float64) float64 { return std.Round(v) }
func RoundPath(p *Path) *Path { return std.RoundPath(p) }
