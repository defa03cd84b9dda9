package inference

import "diagraph/internal/converter/graph"

// associateText gives every free-standing textbox's label to the nearest
// untexted shape and removes the textbox.
func (pg *page) associateText() error {
	for _, tb := range pg.reg.Shapes() {
		if tb.Removed || !tb.IsTextbox {
			continue
		}
		limit := pg.policy.textInferenceDistance(tb)
		for _, c := range pg.reg.Nearest(tb.Bounds, limit, 0) {
			if c == tb || c.HasText || !pg.policy.allowTextInference(tb, c) {
				continue
			}
			if err := pg.assignText(tb, c); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

func (pg *page) assignText(tb, to *Shape) error {
	to.HasText = true
	to.TextCenter = tb.TextCenter
	to.Vertex.Label = tb.Vertex.Label
	to.Vertex.Set("textRef", tb.ID)

	for _, e := range pg.g.EdgesOf(tb.Vertex) {
		other, err := pg.endpointShape(e, tb.Vertex)
		if err != nil {
			return err
		}
		pg.g.RemoveEdge(e)
		if other == to {
			continue
		}
		if err := pg.connect(other, to, graph.EdgeReparent, e.Point); err != nil {
			return err
		}
	}

	pg.policy.onAssignText(tb, to)
	pg.reg.Remove(tb)
	pg.textAssigned++
	return nil
}
