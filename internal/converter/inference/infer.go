package inference

import (
	"cmp"
	"fmt"
	"slices"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/graph"
)

// infer2DConnections connects 1-D shapes to the 2-D shapes they touch,
// splitting them where they pass through. Fragments join the registry only
// once every 1-D shape has been processed.
func (pg *page) infer2DConnections() error {
	var fragments []*Shape
	for _, s := range slices.Clone(pg.reg.Shapes()) {
		if s.Removed || !s.Is1D() {
			continue
		}
		frags, err := pg.split(s)
		if err != nil {
			return err
		}
		fragments = append(fragments, frags...)
	}

	pg.reg.Compact()
	for _, f := range fragments {
		pg.reg.Insert(f)
	}
	pg.reg.SortByArea()
	return nil
}

// hit is one crossing of a 1-D segment with an obstruction.
type hit struct {
	shape *Shape
	point geom.Point
}

// split handles one 1-D shape. It returns the fragments that replace s, or
// nothing when s is left intact.
func (pg *page) split(s *Shape) ([]*Shape, error) {
	attached := make(map[*graph.Vertex]bool)
	for _, v := range pg.g.Neighbors(s.Vertex, graph.EdgeReal) {
		attached[v] = true
	}

	var obstructions []*Shape
	var direct deferred
	for _, o := range pg.reg.Search(s.Bounds) {
		if o.Is1D() || attached[o.Vertex] {
			continue
		}
		if !pg.k.PathIntersects(s.Path1D, o.Path2D) {
			continue
		}
		switch {
		case pg.k.IsInsideOrOnBoundary(o.Path2D, s.Start):
			direct.add(func() error { return pg.connect(s, o, graph.EdgeInferred2D, pg.at(s.Start)) })
		case pg.k.IsInsideOrOnBoundary(o.Path2D, s.End):
			direct.add(func() error { return pg.connect(s, o, graph.EdgeInferred2D, pg.at(s.End)) })
		default:
			obstructions = append(obstructions, o)
		}
	}
	if err := direct.apply(); err != nil {
		return nil, err
	}
	if len(obstructions) == 0 {
		return nil, nil
	}

	// Existing neighbours are re-attached to the fragment nearest to them.
	var atStart, atEnd []*Shape
	for _, e := range pg.g.EdgesOf(s.Vertex) {
		other, err := pg.endpointShape(e, s.Vertex)
		if err != nil {
			return nil, err
		}
		switch {
		case pg.k.IsInsideOrOnBoundary(other.Path(), s.Start):
			atStart = append(atStart, other)
		case pg.k.IsInsideOrOnBoundary(other.Path(), s.End):
			atEnd = append(atEnd, other)
		case !slices.Contains(obstructions, other):
			obstructions = append(obstructions, other)
		}
	}

	var (
		frags   []*Shape
		last    *Shape
		cursor  geom.Point
		current = geom.NewPath()
	)
	for _, elem := range pg.k.Flatten(s.Path1D).Elements() {
		switch e := elem.(type) {
		case geom.MoveTo:
			current.MoveToPoint(e.Point)
			cursor = e.Point
		case geom.LineTo:
			seg := geom.Line{A: cursor, B: e.Point}
			var hits []hit
			for _, o := range obstructions {
				for _, pt := range pg.k.PathLineIntersections(o.Path(), seg) {
					hits = append(hits, hit{shape: o, point: pt})
				}
			}
			slices.SortStableFunc(hits, func(a, b hit) int {
				return cmp.Compare(s.Start.Dist(a.point), s.Start.Dist(b.point))
			})

			for _, h := range hits {
				if h.shape == last {
					continue
				}
				current.LineToPoint(h.point)
				frag, err := pg.clone1D(s, current)
				if err != nil {
					return nil, err
				}
				if last == nil {
					for _, a := range atStart {
						if err := pg.connect(frag, a, graph.EdgeSplitStart, pg.at(frag.Start)); err != nil {
							return nil, err
						}
					}
				} else if err := pg.connect(last, frag, graph.EdgeSplitMiddle, pg.at(frag.Start)); err != nil {
					return nil, err
				}
				if err := pg.connect(frag, h.shape, graph.EdgeSplitMiddle, pg.at(h.point)); err != nil {
					return nil, err
				}
				frags = append(frags, frag)
				last = h.shape

				current = geom.NewPath()
				current.MoveToPoint(h.point)
			}
			current.LineToPoint(e.Point)
			cursor = e.Point
		}
	}

	tail, err := pg.clone1D(s, current)
	if err != nil {
		return nil, err
	}
	frags = append(frags, tail)
	if last != nil {
		if err := pg.connect(last, tail, graph.EdgeSplitEnd, pg.at(tail.Start)); err != nil {
			return nil, err
		}
	}
	for _, a := range atEnd {
		if err := pg.connect(tail, a, graph.EdgeSplitEnd, pg.at(tail.End)); err != nil {
			return nil, err
		}
	}

	if s.HasText {
		pg.moveText(s, frags)
	}
	pg.reg.Remove(s)
	pg.splits++
	return frags, nil
}

// moveText gives the text of s to the fragment nearest its anchor. Equal
// distances keep the earlier fragment.
func (pg *page) moveText(s *Shape, frags []*Shape) {
	var best *Shape
	bestDist := 0.0
	for _, f := range frags {
		if d := pg.k.PathDistance(f.Path1D, s.TextCenter); best == nil || d < bestDist {
			best, bestDist = f, d
		}
	}
	best.HasText = true
	best.TextCenter = s.TextCenter
	best.Vertex.Label = s.Vertex.Label
	if ref, ok := s.Vertex.Get("textRef"); ok {
		best.Vertex.Set("textRef", ref)
	} else {
		best.Vertex.Set("textRef", s.ID)
	}
}

// clone1D synthesizes a fragment of orig. The fragment resolves by id at
// once but stays out of the spatial index until the sub-pass ends.
func (pg *page) clone1D(orig *Shape, path *geom.Path) (*Shape, error) {
	id := pg.reg.AllocateID()
	v, err := pg.g.AddVertex(graph.VertexID(pg.g.Name(), id), id)
	if err != nil {
		return nil, failShape(orig.ID, fmt.Errorf("%w: %v", ErrDuplicateShape, err))
	}
	v.CopyFrom(orig.Vertex)
	v.Unset("textRef")

	frag, err := newFragment(id, v, orig, pg.k.RoundPath(path))
	if err != nil {
		return nil, failShape(orig.ID, err)
	}
	v.Center = frag.Center()
	pg.reg.reserve(frag)
	pg.policy.onClone1D(orig, frag)
	pg.fragments++
	return frag, nil
}

// infer1DConnections joins crossing 1-D shapes drawn with the same stroke.
func (pg *page) infer1DConnections() error {
	for _, s := range pg.reg.Shapes() {
		if s.Removed || !s.Is1D() {
			continue
		}
		var ops deferred
		for _, o := range pg.reg.Search(s.Bounds) {
			if o == s || !o.Is1D() || !sameStroke(s, o) {
				continue
			}
			if pg.g.Edge(s.Vertex, o.Vertex) != nil {
				continue
			}
			pt, ok := pg.k.FirstIntersection(s.Path1D, o.Path1D)
			if !ok {
				continue
			}
			ops.add(func() error { return pg.connect(s, o, graph.EdgeInferred1D, pg.at(pt)) })
		}
		if err := ops.apply(); err != nil {
			return err
		}
	}
	return nil
}
