package inference

import (
	"fmt"
	"math"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/graph"
)

// collectShapes creates one shape and vertex per source shape, folding
// text-only layers into the ancestor they were drawn on.
func (pg *page) collectShapes() error {
	for _, src := range pg.src.Shapes() {
		if pg.reg.Lookup(src.ID) != nil {
			return failShape(src.ID, ErrDuplicateShape)
		}
		if pg.collapseText(&src) {
			continue
		}

		v, err := pg.g.AddVertex(graph.VertexID(pg.g.Name(), src.ID), src.ID)
		if err != nil {
			return failShape(src.ID, fmt.Errorf("%w: %v", ErrDuplicateShape, err))
		}
		v.Label = src.Text
		v.Is1D = src.Is1D
		v.Name = src.Name
		v.SymbolName = src.SymbolName
		v.Type = src.Type
		v.PageName = pg.name

		s, err := newShape(pg.k, v, &src)
		if err != nil {
			return failShape(src.ID, err)
		}
		v.Center = s.Center()
		pg.reg.Insert(s)
		pg.policy.onCreate(s, &src)
	}
	pg.reg.Compact()
	pg.reg.SortByArea()
	return nil
}

// collapseText hands the text of src to the first untexted ancestor of the
// same width and left edge. Further untexted matches up the chain are
// dropped.
func (pg *page) collapseText(src *SourceShape) bool {
	if !src.HasText || !src.HasParent {
		return false
	}
	outline := src.outline()
	if outline.IsEmpty() {
		return false
	}
	m := src.transform()
	box := pg.k.RoundPath(outline.Transform(m)).Bounds()

	var recipient *Shape
	var extra []*Shape
	for id, ok := src.ParentID, true; ok; {
		anc := pg.reg.Lookup(id)
		if anc == nil || anc.Removed || !pg.sameColumn(box, anc.Bounds) {
			break
		}
		if !anc.HasText {
			if recipient == nil {
				recipient = anc
			} else {
				extra = append(extra, anc)
			}
		}
		id, ok = anc.ParentID, anc.HasParent
	}
	if recipient == nil {
		return false
	}

	recipient.HasText = true
	recipient.TextCenter = pg.k.RoundPoint(geom.Apply(m, src.TextCenter))
	recipient.Vertex.Label = src.Text
	recipient.Vertex.Set("textRef", src.ID)
	for _, s := range extra {
		pg.reg.Remove(s)
	}
	pg.policy.onReassignToParent(recipient, src)
	return true
}

func (pg *page) sameColumn(a, b geom.Rect) bool {
	return math.Abs(a.Width()-b.Width()) < pg.k.Epsilon &&
		math.Abs(a.Min.X-b.Min.X) < pg.k.Epsilon
}

// collectConnections turns explicit glue records into real edges.
func (pg *page) collectConnections() error {
	if !pg.policy.useRealConnections() {
		return nil
	}
	for _, c := range pg.src.Connections() {
		from := pg.reg.FindShape(c.From)
		if from == nil {
			return failShape(c.From, ErrUnresolvedShape)
		}
		to := pg.reg.FindShape(c.To)
		if to == nil {
			return failShape(c.To, ErrUnresolvedShape)
		}
		if err := pg.connect(from, to, graph.EdgeReal, pg.anchorPoint(from, to, c.Anchor)); err != nil {
			return err
		}
	}
	return nil
}

// anchorPoint is the glued end of whichever side is 1-D.
func (pg *page) anchorPoint(from, to *Shape, a Anchor) *geom.Point {
	line := from
	if !line.Is1D() {
		line = to
	}
	if !line.Is1D() {
		return nil
	}
	switch a {
	case AnchorBegin:
		return pg.at(line.Start)
	case AnchorEnd:
		return pg.at(line.End)
	}
	return nil
}
