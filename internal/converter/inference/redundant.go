package inference

import (
	"slices"

	"diagraph/internal/converter/graph"
)

// removeRedundantConnections drops 1-D to 1-D edges whose point lies on a
// 2-D shape both lines already connect to.
func (pg *page) removeRedundantConnections() error {
	var ops deferred
	doomed := make(map[*graph.Edge]bool)
	for _, s := range pg.reg.Shapes() {
		if s.Removed || !s.Is1D() {
			continue
		}
		for _, e := range pg.g.EdgesOf(s.Vertex) {
			if e.Point == nil || doomed[e] {
				continue
			}
			other, err := pg.endpointShape(e, s.Vertex)
			if err != nil {
				return err
			}
			if !other.Is1D() {
				continue
			}
			mine, err := pg.connected2D(s)
			if err != nil {
				return err
			}
			theirs, err := pg.connected2D(other)
			if err != nil {
				return err
			}
			pt := *e.Point
			for _, c := range mine {
				if slices.Contains(theirs, c) && c.Bounds.Expand(pg.k.Epsilon).Contains(pt) {
					doomed[e] = true
					ops.add(func() error {
						pg.g.RemoveEdge(e)
						pg.redundant++
						return nil
					})
					break
				}
			}
		}
	}
	return ops.apply()
}

// connected2D lists the 2-D shapes adjacent to s.
func (pg *page) connected2D(s *Shape) ([]*Shape, error) {
	var out []*Shape
	for _, e := range pg.g.EdgesOf(s.Vertex) {
		other, err := pg.endpointShape(e, s.Vertex)
		if err != nil {
			return nil, err
		}
		if !other.Is1D() {
			out = append(out, other)
		}
	}
	return out, nil
}
