package geom

import "math"

// parallelTolerance is the relative cross-product magnitude below which two
// segment directions count as parallel.
const parallelTolerance = 1e-12

// ============================================================
// Segment predicates
// ============================================================

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// distToLine is the distance from p to the infinite line through l.
func distToLine(p Point, l Line) float64 {
	length := l.Length()
	if length == 0 {
		return p.Dist(l.A)
	}
	return math.Abs(cross(l.A, l.B, p)) / length
}

// DistToSegment is the distance from p to the closest point of l.
func DistToSegment(p Point, l Line) float64 {
	d := l.B.Sub(l.A)
	lenSq := d.X*d.X + d.Y*d.Y
	if lenSq == 0 {
		return p.Dist(l.A)
	}
	t := ((p.X-l.A.X)*d.X + (p.Y-l.A.Y)*d.Y) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Dist(l.A.Add(d.Scale(t)))
}

// OnSegment reports whether p lies on l within Epsilon.
func (k Kernel) OnSegment(p Point, l Line) bool {
	if k.IsPoint(l) {
		return k.PointsEqual(p, l.A)
	}
	return DistToSegment(p, l) <= k.Epsilon
}

// SegmentsIntersect reports whether two segments share a point. Touching
// endpoints and collinear overlap count.
func (k Kernel) SegmentsIntersect(a, b Line) bool {
	switch {
	case k.IsPoint(a) && k.IsPoint(b):
		return k.PointsEqual(a.A, b.A)
	case k.IsPoint(a):
		return k.OnSegment(a.A, b)
	case k.IsPoint(b):
		return k.OnSegment(b.A, a)
	}

	d1 := cross(b.A, b.B, a.A)
	d2 := cross(b.A, b.B, a.B)
	d3 := cross(a.A, a.B, b.A)
	d4 := cross(a.A, a.B, b.B)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return k.OnSegment(a.A, b) || k.OnSegment(a.B, b) || k.OnSegment(b.A, a) || k.OnSegment(b.B, a)
}

// LinesIntersect returns the point where two segments meet. Parallel
// segments that touch, and nearly parallel ones whose lines cross outside
// the segments, yield the first shared endpoint in the order a.A, a.B,
// b.A, b.B.
func (k Kernel) LinesIntersect(a, b Line) (Point, bool) {
	if !k.SegmentsIntersect(a, b) {
		return Point{}, false
	}
	if k.IsPoint(a) {
		return a.A, true
	}
	if k.IsPoint(b) {
		return b.A, true
	}

	da := a.B.Sub(a.A)
	db := b.B.Sub(b.A)
	det := da.X*db.Y - da.Y*db.X
	if math.Abs(det) <= parallelTolerance*a.Length()*b.Length() {
		return k.touchingEndpoint(a, b)
	}

	w := b.A.Sub(a.A)
	t := (w.X*db.Y - w.Y*db.X) / det
	u := (w.X*da.Y - w.Y*da.X) / det
	// почти параллельные отрезки: прямые пересекаются вне отрезков
	if !k.withinSegment(t, a) || !k.withinSegment(u, b) {
		return k.touchingEndpoint(a, b)
	}
	return a.A.Add(da.Scale(t)), true
}

// withinSegment reports whether parameter t along l stays on l, allowing
// Epsilon of overshoot at either end.
func (k Kernel) withinSegment(t float64, l Line) bool {
	margin := k.Epsilon / l.Length()
	return t >= -margin && t <= 1+margin
}

// touchingEndpoint picks the first endpoint lying on the other segment, in
// the order a.A, a.B, b.A, b.B.
func (k Kernel) touchingEndpoint(a, b Line) (Point, bool) {
	switch {
	case k.OnSegment(a.A, b):
		return a.A, true
	case k.OnSegment(a.B, b):
		return a.B, true
	case k.OnSegment(b.A, a):
		return b.A, true
	case k.OnSegment(b.B, a):
		return b.B, true
	}
	return Point{}, false
}

// ============================================================
// Path predicates
// ============================================================

// PathLineIntersections lists every point where p meets l, in path order.
func (k Kernel) PathLineIntersections(p *Path, l Line) []Point {
	var out []Point
	k.EachSegment(p, func(s Line) bool {
		if pt, ok := k.LinesIntersect(s, l); ok {
			out = append(out, pt)
		}
		return true
	})
	return out
}

// PathPointIntersections returns pt when it lies on p.
func (k Kernel) PathPointIntersections(p *Path, pt Point) []Point {
	if k.PathIntersectsPoint(p, pt) {
		return []Point{pt}
	}
	return nil
}

// PathIntersections lists every point where p meets q, iterating p's
// segments in order and q's segments within each.
func (k Kernel) PathIntersections(p, q *Path) []Point {
	other := k.Segments(q)
	var out []Point
	k.EachSegment(p, func(s Line) bool {
		for _, o := range other {
			if pt, ok := k.LinesIntersect(s, o); ok {
				out = append(out, pt)
			}
		}
		return true
	})
	return out
}

// FirstIntersection is the first point PathIntersections would report.
func (k Kernel) FirstIntersection(p, q *Path) (Point, bool) {
	other := k.Segments(q)
	var (
		found Point
		ok    bool
	)
	k.EachSegment(p, func(s Line) bool {
		for _, o := range other {
			if found, ok = k.LinesIntersect(s, o); ok {
				return false
			}
		}
		return true
	})
	return found, ok
}

func (k Kernel) PathIntersectsLine(p *Path, l Line) bool {
	hit := false
	k.EachSegment(p, func(s Line) bool {
		hit = k.SegmentsIntersect(s, l)
		return !hit
	})
	return hit
}

func (k Kernel) PathIntersectsPoint(p *Path, pt Point) bool {
	hit := false
	k.EachSegment(p, func(s Line) bool {
		hit = k.OnSegment(pt, s)
		return !hit
	})
	return hit
}

func (k Kernel) PathIntersects(p, q *Path) bool {
	if !p.Bounds().Expand(k.Epsilon).Overlaps(q.Bounds()) {
		return false
	}
	_, ok := k.FirstIntersection(p, q)
	return ok
}

// Contains applies the non-zero winding rule to the flattened path, each
// subpath implicitly closed.
func (k Kernel) Contains(p *Path, pt Point) bool {
	winding := 0
	for _, s := range k.closedSegments(p) {
		winding += lineWinding(s.A, s.B, pt)
	}
	return winding != 0
}

func lineWinding(p0, p1, pt Point) int {
	if p0.Y <= pt.Y && p1.Y > pt.Y {
		if cross(p0, p1, pt) > 0 {
			return 1
		}
	} else if p0.Y > pt.Y && p1.Y <= pt.Y {
		if cross(p0, p1, pt) < 0 {
			return -1
		}
	}
	return 0
}

// IsInsideOrOnBoundary is Contains or pt lying on the path itself.
func (k Kernel) IsInsideOrOnBoundary(p *Path, pt Point) bool {
	return k.Contains(p, pt) || k.PathIntersectsPoint(p, pt)
}

// PathDistance is the minimum distance from pt to any segment of p,
// +Inf when p has no segments.
func (k Kernel) PathDistance(p *Path, pt Point) float64 {
	best := math.Inf(1)
	k.EachSegment(p, func(s Line) bool {
		best = math.Min(best, DistToSegment(pt, s))
		return true
	})
	return best
}

func LinesIntersect(a, b Line) (Point, bool) { return std.LinesIntersect(a, b) }
func PathIntersects(p, q *Path) bool { return std.PathIntersects(p, q) }
func IsInsideOrOnBoundary(p *Path, pt Point) bool { return std.IsInsideOrOnBoundary(p, pt) }
func PathDistance(p *Path, pt Point) float64 { return std.PathDistance(p, pt) }
func PathIntersections(p, q *Path) []Point { return std.PathIntersections(p, q) }
func PathLineIntersections(p *Path, l Line) []Point { return std.PathLineIntersections(p, l) }
