package inference

import (
	"math"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/graph"
)

// joinGroupedShapes links overlapping 2-D shapes of the same symbol when
// neither contains the other.
func (pg *page) joinGroupedShapes() error {
	for _, s := range pg.reg.Shapes() {
		if s.Removed || s.Is1D() || s.Vertex.SymbolName == "" {
			continue
		}
		var ops deferred
		for _, o := range pg.reg.Search(s.Bounds) {
			if o == s || o.Is1D() || o.Vertex.SymbolName != s.Vertex.SymbolName {
				continue
			}
			if s.Bounds.IntersectionArea(o.Bounds) >= math.Min(s.Area, o.Area) {
				continue
			}
			ops.add(func() error { return pg.connect(s, o, graph.EdgeLinked, nil) })
		}
		if err := ops.apply(); err != nil {
			return err
		}
	}
	return nil
}

// addGroupLabels treats text-bearing 2-D shapes that enclose others as
// groups.
func (pg *page) addGroupLabels() error {
	for _, s := range pg.reg.Shapes() {
		if s.Removed || s.Is1D() || !s.HasText {
			continue
		}
		top := pg.reg.FindTopmostParent(s).ID

		var members, secondary []*Shape
		for _, o := range pg.reg.Search(s.Bounds) {
			if o == s || o.Is1D() {
				continue
			}
			if s.Bounds.IntersectionArea(o.Bounds) < o.Area {
				continue
			}
			if pg.reg.FindTopmostParent(o).ID != top {
				members = append(members, o)
			} else {
				secondary = append(secondary, o)
			}
		}

		if len(members) > 0 {
			for _, m := range members {
				m.Vertex.SetGroup(s.Label(), s.ID)
			}
			pg.groups = append(pg.groups, Group{Shape: s, Children: members, Formal: true})
			pg.reg.Remove(s)
		}
		if len(secondary) > 0 {
			pg.groups = append(pg.groups, Group{Shape: s, Children: secondary})
		}
	}
	return nil
}

// inferGroupConnections wires mostly disconnected groups to the 1-D shapes
// ending on their outline.
func (pg *page) inferGroupConnections() error {
	for _, gr := range pg.groups {
		var live, disconnected []*Shape
		for _, ch := range gr.Children {
			if ch.Removed || !ch.HasText {
				continue
			}
			live = append(live, ch)
			if ch.Vertex.Degree() == 0 {
				disconnected = append(disconnected, ch)
			}
		}
		if len(live) == 0 || 2*len(disconnected) < len(live) {
			continue
		}

		var lines []*Shape
		var touches []geom.Point
		for _, o := range pg.reg.Search(gr.Shape.Bounds) {
			if !o.Is1D() {
				continue
			}
			switch {
			case pg.k.IsInsideOrOnBoundary(gr.Shape.Path2D, o.Start):
				lines = append(lines, o)
				touches = append(touches, o.Start)
			case pg.k.IsInsideOrOnBoundary(gr.Shape.Path2D, o.End):
				lines = append(lines, o)
				touches = append(touches, o.End)
			}
		}
		if len(lines) == 0 {
			continue
		}

		pg.reg.Remove(gr.Shape)
		for _, ch := range disconnected {
			for i, l := range lines {
				if err := pg.connect(ch, l, graph.EdgeDisconnectedGroup, pg.at(touches[i])); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
