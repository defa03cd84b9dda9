package geom

import (
	"errors"
	"math"

	"golang.org/x/image/math/f64"
)

// ErrMissingMoveTo is returned when a path does not begin with a MoveTo.
var ErrMissingMoveTo = errors.New("path does not start with a move-to")

// PathElement is a single element of a Path.
type PathElement interface {
	isPathElement()
}

// MoveTo starts a new subpath.
type MoveTo struct {
	Point Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a straight segment to Point.
type LineTo struct {
	Point Point
}

func (LineTo) isPathElement() {}

// QuadTo draws a quadratic Bezier curve.
type QuadTo struct {
	Control Point
	Point   Point
}

func (QuadTo) isPathElement() {}

// CubicTo draws a cubic Bezier curve.
type CubicTo struct {
	Control1 Point
	Control2 Point
	Point    Point
}

func (CubicTo) isPathElement() {}

// Close ends the current subpath at its start point.
type Close struct{}

func (Close) isPathElement() {}

// Path is an ordered list of path elements.
type Path struct {
	elements []PathElement
	start    Point
	current  Point
}

func NewPath() *Path {
	return &Path{elements: make([]PathElement, 0, 8)}
}

// Polyline builds an open path through pts.
func Polyline(pts ...Point) *Path {
	p := NewPath()
	for i, pt := range pts {
		if i == 0 {
			p.MoveToPoint(pt)
			continue
		}
		p.LineToPoint(pt)
	}
	return p
}

func (p *Path) MoveTo(x, y float64) { p.MoveToPoint(Pt(x, y)) }
func (p *Path) LineTo(x, y float64) { p.LineToPoint(Pt(x, y)) }

func (p *Path) MoveToPoint(pt Point) {
	p.elements = append(p.elements, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
}

func (p *Path) LineToPoint(pt Point) {
	p.elements = append(p.elements, LineTo{Point: pt})
	p.current = pt
}

func (p *Path) QuadTo(cx, cy, x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, QuadTo{Control: Pt(cx, cy), Point: pt})
	p.current = pt
}

func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, CubicTo{Control1: Pt(c1x, c1y), Control2: Pt(c2x, c2y), Point: pt})
	p.current = pt
}

func (p *Path) Close() {
	p.elements = append(p.elements, Close{})
	p.current = p.start
}

// Append adds an element, keeping the current point in sync.
func (p *Path) Append(e PathElement) {
	switch el := e.(type) {
	case MoveTo:
		p.MoveToPoint(el.Point)
	case LineTo:
		p.LineToPoint(el.Point)
	case QuadTo:
		p.QuadTo(el.Control.X, el.Control.Y, el.Point.X, el.Point.Y)
	case CubicTo:
		p.CubicTo(el.Control1.X, el.Control1.Y, el.Control2.X, el.Control2.Y, el.Point.X, el.Point.Y)
	case Close:
		p.Close()
	}
}

func (p *Path) Elements() []PathElement {
	return p.elements
}

func (p *Path) Len() int {
	return len(p.elements)
}

func (p *Path) IsEmpty() bool {
	return p == nil || len(p.elements) == 0
}

// CurrentPoint is the end point of the last element.
func (p *Path) CurrentPoint() Point {
	return p.current
}

// Start returns the point of the leading MoveTo.
func (p *Path) Start() (Point, error) {
	if p.IsEmpty() {
		return Point{}, ErrMissingMoveTo
	}
	m, ok := p.elements[0].(MoveTo)
	if !ok {
		return Point{}, ErrMissingMoveTo
	}
	return m.Point, nil
}

func (p *Path) Clone() *Path {
	result := NewPath()
	result.elements = make([]PathElement, len(p.elements))
	copy(result.elements, p.elements)
	result.start = p.start
	result.current = p.current
	return result
}

// Bounds returns the box spanned by all points of the path, control
// points included. Empty paths yield the zero Rect.
func (p *Path) Bounds() Rect {
	if p.IsEmpty() {
		return Rect{}
	}
	box := Rect{
		Min: Point{X: math.MaxFloat64, Y: math.MaxFloat64},
		Max: Point{X: -math.MaxFloat64, Y: -math.MaxFloat64},
	}
	p.eachPoint(func(pt Point) {
		box.Min.X = math.Min(box.Min.X, pt.X)
		box.Min.Y = math.Min(box.Min.Y, pt.Y)
		box.Max.X = math.Max(box.Max.X, pt.X)
		box.Max.Y = math.Max(box.Max.Y, pt.Y)
	})
	return box
}

// Transform returns a copy of the path mapped through m.
func (p *Path) Transform(m f64.Aff3) *Path {
	return p.mapPoints(func(pt Point) Point { return Apply(m, pt) })
}

// eachPoint visits every stored point, control points included.
func (p *Path) eachPoint(fn func(Point)) {
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			fn(e.Point)
		case LineTo:
			fn(e.Point)
		case QuadTo:
			fn(e.Control)
			fn(e.Point)
		case CubicTo:
			fn(e.Control1)
			fn(e.Control2)
			fn(e.Point)
		}
	}
}

func (p *Path) mapPoints(fn func(Point) Point) *Path {
	out := NewPath()
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			out.MoveToPoint(fn(e.Point))
		case LineTo:
			out.LineToPoint(fn(e.Point))
		case QuadTo:
			c, pt := fn(e.Control), fn(e.Point)
			out.QuadTo(c.X, c.Y, pt.X, pt.Y)
		case CubicTo:
			c1, c2, pt := fn(e.Control1), fn(e.Control2), fn(e.Point)
			out.CubicTo(c1.X, c1.Y, c2.X, c2.Y, pt.X, pt.Y)
		case Close:
			out.Close()
		}
	}
	return out
}
