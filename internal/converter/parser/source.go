package parser

import (
	"fmt"

	"golang.org/x/image/math/f64"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/inference"
	"diagraph/internal/converter/models"
)

// Source adapts one parsed page to inference.ShapeSource.
type Source struct {
	page    models.Page
	shapes  []inference.SourceShape
	conns   []inference.Connection
	parents map[int64]int64
}

// NewSource builds the shape list of a page. Path data errors are reported
// here; a 1-D path that does not start with a move is left for the
// pipeline to reject.
func NewSource(page models.Page) (*Source, error) {
	src := &Source{
		page:    page,
		parents: make(map[int64]int64),
	}
	for _, n := range page.Nodes {
		if n.Parent != nil {
			src.parents[n.ID] = *n.Parent
		}
	}

	for _, s := range page.Shapes {
		shape, err := convertShape(s)
		if err != nil {
			return nil, fmt.Errorf("page %d shape %d: %w", page.ID, s.ID, err)
		}
		if shape.HasParent {
			src.parents[shape.ID] = shape.ParentID
		}
		src.shapes = append(src.shapes, shape)
	}

	for _, c := range page.Connections {
		conn := inference.Connection{From: c.From, To: c.To}
		switch c.Anchor {
		case models.AnchorBegin:
			conn.Anchor = inference.AnchorBegin
		case models.AnchorEnd:
			conn.Anchor = inference.AnchorEnd
		}
		src.conns = append(src.conns, conn)
	}
	return src, nil
}

func convertShape(s models.Shape) (inference.SourceShape, error) {
	out := inference.SourceShape{
		ID:          s.ID,
		Is1D:        s.Is1D,
		HasMaster:   s.Master,
		LineColor:   s.LineColor,
		LinePattern: s.LinePattern,
		Name:        s.Name,
		SymbolName:  s.SymbolName,
		Type:        s.Type,
	}
	if s.Parent != nil {
		out.ParentID, out.HasParent = *s.Parent, true
	}
	if len(s.Transform) == 6 {
		// порядок как в SVG matrix(a b c d e f)
		t := s.Transform
		out.Transform = f64.Aff3{t[0], t[2], t[4], t[1], t[3], t[5]}
	}
	if s.Box != nil {
		out.Box = geom.XYWH(s.Box.X, s.Box.Y, s.Box.Width, s.Box.Height)
	}
	if s.Path != "" {
		p, err := ParsePath(s.Path)
		if err != nil {
			return out, err
		}
		out.Path = p
		if s.Box == nil {
			out.Box = p.Bounds()
		}
	}
	if s.Text != nil {
		out.Text, out.HasText = *s.Text, true
		if s.TextCenter != nil {
			out.TextCenter = geom.Pt(s.TextCenter.X, s.TextCenter.Y)
		} else {
			out.TextCenter = out.Box.Center()
		}
	}
	return out, nil
}

func (s *Source) PageID() int64 { return s.page.ID }
func (s *Source) PageName() string { return s.page.Name }
func (s *Source) Shapes() []inference.SourceShape { return s.shapes }
func (s *Source) Connections() []inference.Connection { return s.conns }

func (s *Source) ParentOf(id int64) (int64, bool) {
	p, ok := s.parents[id]
	return p, ok
}
