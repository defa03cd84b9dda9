package inference

import (
	"cmp"
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/graph"
)

// Shape is the registry's view of one shape, all geometry in page
// coordinates and rounded. Exactly one of Path1D and Path2D is set.
type Shape struct {
	ID        int64
	ParentID  int64
	HasParent bool
	Vertex    *graph.Vertex

	Bounds geom.Rect
	Area   float64

	Path1D *geom.Path
	Start  geom.Point
	End    geom.Point
	Path2D *geom.Path

	HasText    bool
	IsTextbox  bool
	TextCenter geom.Point

	LineColor    colorful.Color
	HasLineColor bool
	LinePattern  int

	Removed bool
}

func (s *Shape) Is1D() bool {
	return s.Path1D != nil
}

// Path returns whichever geometry the shape carries.
func (s *Shape) Path() *geom.Path {
	if s.Path1D != nil {
		return s.Path1D
	}
	return s.Path2D
}

func (s *Shape) Center() geom.Point {
	return s.Bounds.Center()
}

func (s *Shape) Label() string {
	return s.Vertex.Label
}

func (s *Shape) String() string {
	return fmt.Sprintf("[Shape %d]", s.ID)
}

// newShape builds the page-coordinate geometry of a source shape.
func newShape(k geom.Kernel, v *graph.Vertex, src *SourceShape) (*Shape, error) {
	m := src.transform()
	s := &Shape{
		ID:          src.ID,
		ParentID:    src.ParentID,
		HasParent:   src.HasParent,
		Vertex:      v,
		HasText:     src.HasText,
		IsTextbox:   src.HasText && !src.HasMaster,
		LinePattern: src.LinePattern,
	}
	s.LineColor, s.HasLineColor = parseLineColor(src.LineColor)

	path := k.RoundPath(src.outline().Transform(m))
	if src.Is1D {
		if err := s.set1DPath(path); err != nil {
			return nil, err
		}
	} else {
		s.Path2D = path
		s.Bounds = path.Bounds()
	}
	s.Area = s.Bounds.Area()

	if src.HasText {
		s.TextCenter = k.RoundPoint(geom.Apply(m, src.TextCenter))
	}
	return s, nil
}

// newFragment clones the non-geometric attributes of orig onto a new 1-D path.
func newFragment(id int64, v *graph.Vertex, orig *Shape, path *geom.Path) (*Shape, error) {
	s := &Shape{
		ID:           id,
		ParentID:     orig.ParentID,
		HasParent:    orig.HasParent,
		Vertex:       v,
		LineColor:    orig.LineColor,
		HasLineColor: orig.HasLineColor,
		LinePattern:  orig.LinePattern,
	}
	if err := s.set1DPath(path); err != nil {
		return nil, err
	}
	s.Area = s.Bounds.Area()
	return s, nil
}

func (s *Shape) set1DPath(path *geom.Path) error {
	start, err := path.Start()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	s.Path1D = path
	s.Start = start
	s.End = path.CurrentPoint()
	s.Bounds = path.Bounds()
	return nil
}

// parseLineColor accepts "#rgb" and "#rrggbb". Anything else counts as unset.
func parseLineColor(hex string) (colorful.Color, bool) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return colorful.Color{}, false
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// sameStroke reports identical line color and pattern.
func sameStroke(a, b *Shape) bool {
	if a.LinePattern != b.LinePattern || a.HasLineColor != b.HasLineColor {
		return false
	}
	return !a.HasLineColor || a.LineColor.AlmostEqualRgb(b.LineColor)
}

// byAreaDesc orders larger shapes first.
func byAreaDesc(a, b *Shape) int {
	return cmp.Compare(b.Area, a.Area)
}
