package inference

import (
	"context"
	"errors"
	"testing"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/graph"
)

// fakePage is an in-memory ShapeSource.
type fakePage struct {
	id      int64
	shapes  []SourceShape
	conns   []Connection
	parents map[int64]int64
}

func (f *fakePage) PageID() int64 { return f.id }
func (f *fakePage) PageName() string { return "Page-1" }
func (f *fakePage) Shapes() []SourceShape { return f.shapes }
func (f *fakePage) Connections() []Connection { return f.conns }

func (f *fakePage) ParentOf(id int64) (int64, bool) {
	if p, ok := f.parents[id]; ok {
		return p, true
	}
	for _, s := range f.shapes {
		if s.ID == id && s.HasParent {
			return s.ParentID, true
		}
	}
	return 0, false
}

func box(id int64, x, y, w, h float64) SourceShape {
	return SourceShape{ID: id, Box: geom.XYWH(x, y, w, h)}
}

func textbox(id int64, text string, x, y, w, h float64) SourceShape {
	s := box(id, x, y, w, h)
	s.Text = text
	s.HasText = true
	s.TextCenter = geom.Pt(x+w/2, y+h/2)
	return s
}

func line(id int64, pts ...geom.Point) SourceShape {
	return SourceShape{ID: id, Is1D: true, Path: geom.Polyline(pts...)}
}

func run(t *testing.T, src ShapeSource, hooks Hooks) *Result {
	t.Helper()
	res, err := New(DefaultConfig(), hooks).Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func edgesOfType(g *graph.Graph, t graph.EdgeType) []*graph.Edge {
	var out []*graph.Edge
	for _, e := range g.Edges() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestCrossingConnectors(t *testing.T) {
	tests := []struct {
		name      string
		colorA    string
		colorB    string
		wantEdges int
	}{
		{"same stroke", "#000", "#000000", 1},
		{"both unset", "", "", 1},
		{"different colors", "#ff0000", "#0000ff", 0},
		{"set and unset", "#ff0000", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := line(1, geom.Pt(0, 0), geom.Pt(2, 2))
			a.LineColor = tt.colorA
			b := line(2, geom.Pt(0, 2), geom.Pt(2, 0))
			b.LineColor = tt.colorB

			res := run(t, &fakePage{id: 1, shapes: []SourceShape{a, b}}, Hooks{})
			edges := edgesOfType(res.Graph, graph.EdgeInferred1D)
			if len(edges) != tt.wantEdges {
				t.Fatalf("inferred-1d edges = %d, want %d", len(edges), tt.wantEdges)
			}
			if res.Graph.EdgeCount() != tt.wantEdges {
				t.Fatalf("total edges = %d, want %d", res.Graph.EdgeCount(), tt.wantEdges)
			}
			if tt.wantEdges == 0 {
				return
			}
			e := edges[0]
			if e.Point == nil || *e.Point != geom.Pt(1, 1) {
				t.Errorf("point = %v, want (1, 1)", e.Point)
			}
			if e.Key != graph.KeyOf(1, 2) {
				t.Errorf("key = %v", e.Key)
			}
		})
	}
}

func TestNearlyParallelConnectors(t *testing.T) {
	src := &fakePage{id: 1, shapes: []SourceShape{
		line(1, geom.Pt(0, 0), geom.Pt(100, 0.0001)),
		line(2, geom.Pt(50, 0.0001), geom.Pt(150, 0.0004)),
	}}
	g := run(t, src, Hooks{}).Graph

	edges := edgesOfType(g, graph.EdgeInferred1D)
	if len(edges) != 1 {
		t.Fatalf("inferred-1d edges = %d, want 1", len(edges))
	}
	// точка касания, а не пересечение продолжений прямых
	if e := edges[0]; e.Point == nil || *e.Point != geom.Pt(50, 0.0001) {
		t.Errorf("point = %v, want (50, 0.0001)", e.Point)
	}
}

func TestSplitThroughBox(t *testing.T) {
	src := &fakePage{id: 7, shapes: []SourceShape{
		box(1, 0, 0, 1, 1),
		line(2, geom.Pt(-1, 0.5), geom.Pt(2, 0.5)),
	}}
	var clones int
	res := run(t, src, Hooks{OnClone1D: func(orig, clone *Shape) {
		if orig.ID != 2 {
			t.Errorf("clone of %d, want 2", orig.ID)
		}
		clones++
	}})
	g := res.Graph

	if g.VertexByShape(2) != nil {
		t.Error("original connector still present")
	}
	if clones != 2 || res.Stats.Fragments != 2 || res.Stats.Splits != 1 {
		t.Fatalf("clones = %d, stats = %+v", clones, res.Stats)
	}

	head := g.VertexByShape(-1)
	tail := g.VertexByShape(-2)
	boxV := g.VertexByShape(1)
	if head == nil || tail == nil {
		t.Fatalf("fragments missing: %v", g.Vertices())
	}
	if head.ID != "7: -1" || !head.Is1D {
		t.Errorf("head vertex = %+v", head)
	}

	if e := g.Edge(head, boxV); e == nil || e.Type != graph.EdgeSplitMiddle || *e.Point != geom.Pt(0, 0.5) {
		t.Errorf("head edge = %+v", e)
	}
	if e := g.Edge(tail, boxV); e == nil || e.Type != graph.EdgeSplitEnd || *e.Point != geom.Pt(0, 0.5) {
		t.Errorf("tail edge = %+v", e)
	}
	if e := g.Edge(head, tail); e != nil {
		t.Errorf("fragments joined directly: %+v", e)
	}
	if res.Stats.Redundant != 1 {
		t.Errorf("redundant = %d, want 1", res.Stats.Redundant)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("edges = %d, want 2", g.EdgeCount())
	}
}

func TestSplitWithStartAttachment(t *testing.T) {
	src := &fakePage{id: 1, shapes: []SourceShape{
		box(1, -3, 0, 2, 1),
		box(2, 0, 0, 1, 1),
		line(3, geom.Pt(-2, 0.5), geom.Pt(2, 0.5)),
	}}
	g := run(t, src, Hooks{}).Graph

	head, tail := g.VertexByShape(-1), g.VertexByShape(-2)
	if head == nil || tail == nil || g.VertexByShape(3) != nil {
		t.Fatalf("vertices = %v", g.Vertices())
	}
	want := map[graph.EdgeKey]graph.EdgeType{
		graph.KeyOf(-1, 1): graph.EdgeSplitStart,
		graph.KeyOf(-1, 2): graph.EdgeSplitMiddle,
		graph.KeyOf(-2, 2): graph.EdgeSplitEnd,
	}
	if g.EdgeCount() != len(want) {
		t.Fatalf("edges = %d, want %d", g.EdgeCount(), len(want))
	}
	for _, e := range g.Edges() {
		if want[e.Key] != e.Type {
			t.Errorf("edge %s type = %s, want %s", e.Key, e.Type, want[e.Key])
		}
	}
	if e := g.Edge(head, g.VertexByShape(1)); *e.Point != geom.Pt(-2, 0.5) {
		t.Errorf("start point = %v", *e.Point)
	}
}

func TestSplitMovesTextToNearestFragment(t *testing.T) {
	conn := line(2, geom.Pt(-1, 0.5), geom.Pt(4, 0.5))
	conn.Text = "feeds"
	conn.HasText = true
	conn.HasMaster = true
	conn.TextCenter = geom.Pt(3, 0.6)

	g := run(t, &fakePage{id: 1, shapes: []SourceShape{box(1, 0, 0, 1, 1), conn}}, Hooks{}).Graph
	if got := g.VertexByShape(-2).Label; got != "feeds" {
		t.Errorf("tail label = %q", got)
	}
	if got := g.VertexByShape(-1).Label; got != "" {
		t.Errorf("head label = %q", got)
	}
	if ref, _ := g.VertexByShape(-2).Get("textRef"); ref != int64(2) {
		t.Errorf("textRef = %v", ref)
	}
}

func TestEndpointInsideBox(t *testing.T) {
	src := &fakePage{id: 1, shapes: []SourceShape{
		box(1, 0, 0, 1, 1),
		line(2, geom.Pt(0.5, 0.5), geom.Pt(3, 0.5)),
	}}
	res := run(t, src, Hooks{})
	e := res.Graph.Edge(res.Graph.VertexByShape(1), res.Graph.VertexByShape(2))
	if e == nil || e.Type != graph.EdgeInferred2D || *e.Point != geom.Pt(0.5, 0.5) {
		t.Fatalf("edge = %+v", e)
	}
	if res.Stats.Splits != 0 {
		t.Errorf("splits = %d", res.Stats.Splits)
	}
}

func TestContainerGroup(t *testing.T) {
	src := &fakePage{id: 1, shapes: []SourceShape{
		textbox(10, "Rack", 0, 0, 10, 10),
		box(11, 1, 1, 2, 2),
		box(12, 4, 1, 2, 2),
		box(13, 1, 5, 2, 2),
	}}
	src.shapes[0].HasMaster = true
	res := run(t, src, Hooks{})
	g := res.Graph

	if g.VertexByShape(10) != nil {
		t.Error("container still present")
	}
	if len(res.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(res.Groups))
	}
	gr := res.Groups[0]
	if gr.Shape.ID != 10 || !gr.Formal || len(gr.Children) != 3 {
		t.Fatalf("group = %+v", gr)
	}
	for _, id := range []int64{11, 12, 13} {
		v := g.VertexByShape(id)
		if v.Group != "Rack" || v.GroupID != 10 || !v.InGroup {
			t.Errorf("shape %d group = %q/%d", id, v.Group, v.GroupID)
		}
	}
}

func TestSameHierarchyContainerIsKept(t *testing.T) {
	child := box(11, 1, 1, 2, 2)
	child.ParentID, child.HasParent = 10, true
	container := textbox(10, "Host", 0, 0, 10, 10)
	container.HasMaster = true

	res := run(t, &fakePage{id: 1, shapes: []SourceShape{container, child}}, Hooks{})
	if res.Graph.VertexByShape(10) == nil {
		t.Error("container removed")
	}
	if len(res.Groups) != 1 || res.Groups[0].Formal {
		t.Fatalf("groups = %+v", res.Groups)
	}
	if res.Graph.VertexByShape(11).InGroup {
		t.Error("child tagged as group member")
	}
}

func TestAssociateText(t *testing.T) {
	tb := textbox(3, "DB", 0, 1.1, 1, 0.2)
	link := line(4, geom.Pt(3, 1.2), geom.Pt(6, 1.2))
	src := &fakePage{
		id:     1,
		shapes: []SourceShape{box(1, 0, 0, 1, 1), tb, link},
		conns:  []Connection{{From: 4, To: 3, Anchor: AnchorBegin}},
	}
	var assigned int
	res := run(t, src, Hooks{OnAssignText: func(from, to *Shape) {
		if from.ID != 3 || to.ID != 1 {
			t.Errorf("assign %d -> %d", from.ID, to.ID)
		}
		assigned++
	}})
	g := res.Graph

	if g.VertexByShape(3) != nil {
		t.Error("textbox still present")
	}
	target := g.VertexByShape(1)
	if target.Label != "DB" || assigned != 1 {
		t.Errorf("label = %q, assigned = %d", target.Label, assigned)
	}
	e := g.Edge(target, g.VertexByShape(4))
	if e == nil || e.Type != graph.EdgeReparent {
		t.Fatalf("reparented edge = %+v", e)
	}
	if e.Point == nil || *e.Point != geom.Pt(3, 1.2) {
		t.Errorf("point = %v, want (3, 1.2)", e.Point)
	}
}

func TestAssociateTextTie(t *testing.T) {
	src := &fakePage{id: 1, shapes: []SourceShape{
		box(1, 0, 0, 1, 1),
		box(2, 1.4, 0, 1, 1),
		textbox(3, "Pump", 1.1, 0, 0.2, 1),
	}}
	g := run(t, src, Hooks{}).Graph

	labelled := 0
	for _, id := range []int64{1, 2} {
		if g.VertexByShape(id).Label == "Pump" {
			labelled++
		}
	}
	if labelled != 1 {
		t.Errorf("label copied to %d shapes, want 1", labelled)
	}
}

func TestAssociateTextHooks(t *testing.T) {
	tests := []struct {
		name  string
		hooks Hooks
		want  string
	}{
		{"default distance", Hooks{}, "Valve"},
		{"distance too short", Hooks{TextInferenceDistance: func(*Shape) float64 { return 0.05 }}, ""},
		{"vetoed", Hooks{AllowTextInference: func(_, c *Shape) bool { return c.ID != 1 }}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakePage{id: 1, shapes: []SourceShape{
				box(1, 0, 0, 1, 1),
				textbox(2, "Valve", 0, 1.1, 1, 0.2),
			}}
			g := run(t, src, tt.hooks).Graph
			if got := g.VertexByShape(1).Label; got != tt.want {
				t.Errorf("label = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollapseTextIntoParent(t *testing.T) {
	label := textbox(2, "Server", 0, 0, 2, 0.5)
	label.ParentID, label.HasParent = 1, true
	label.HasMaster = true

	var reassigned int
	res := run(t, &fakePage{id: 1, shapes: []SourceShape{box(1, 0, 0, 2, 1), label}}, Hooks{
		OnReassignToParent: func(parent *Shape, src *SourceShape) {
			if parent.ID != 1 || src.ID != 2 {
				t.Errorf("reassign %d <- %d", parent.ID, src.ID)
			}
			reassigned++
		},
	})
	g := res.Graph
	if g.VertexCount() != 1 || reassigned != 1 {
		t.Fatalf("vertices = %d, reassigned = %d", g.VertexCount(), reassigned)
	}
	v := g.VertexByShape(1)
	if v.Label != "Server" {
		t.Errorf("label = %q", v.Label)
	}
	if ref, _ := v.Get("textRef"); ref != int64(2) {
		t.Errorf("textRef = %v", ref)
	}
}

func TestRealConnections(t *testing.T) {
	tests := []struct {
		name   string
		hooks  Hooks
		anchor Anchor
		want   *geom.Point
		edges  int
	}{
		{"begin anchor", Hooks{}, AnchorBegin, &geom.Point{X: 5, Y: 0}, 1},
		{"end anchor", Hooks{}, AnchorEnd, &geom.Point{X: 9, Y: 0}, 1},
		{"no anchor", Hooks{}, AnchorNone, nil, 1},
		{"disabled", Hooks{UseRealConnections: func() bool { return false }}, AnchorBegin, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakePage{
				id: 1,
				shapes: []SourceShape{
					box(1, 0, 0, 1, 1),
					line(2, geom.Pt(5, 0), geom.Pt(9, 0)),
				},
				// 20 is elided; it resolves through its parent
				conns:   []Connection{{From: 2, To: 20, Anchor: tt.anchor}},
				parents: map[int64]int64{20: 1},
			}
			g := run(t, src, tt.hooks).Graph
			if g.EdgeCount() != tt.edges {
				t.Fatalf("edges = %d, want %d", g.EdgeCount(), tt.edges)
			}
			if tt.edges == 0 {
				return
			}
			e := g.Edge(g.VertexByShape(1), g.VertexByShape(2))
			if e.Type != graph.EdgeReal {
				t.Errorf("type = %s", e.Type)
			}
			switch {
			case tt.want == nil && e.Point != nil:
				t.Errorf("point = %v, want none", *e.Point)
			case tt.want != nil && (e.Point == nil || *e.Point != *tt.want):
				t.Errorf("point = %v, want %v", e.Point, *tt.want)
			}
		})
	}
}

func TestJoinGroupedShapes(t *testing.T) {
	a := box(1, 0, 0, 2, 2)
	a.SymbolName = "Server"
	b := box(2, 1, 1, 2, 2)
	b.SymbolName = "Server"
	inner := box(3, 0.5, 0.5, 0.5, 0.5)
	inner.SymbolName = "Server"
	other := box(4, 1.5, 0, 2, 1)
	other.SymbolName = "Switch"

	g := run(t, &fakePage{id: 1, shapes: []SourceShape{a, b, inner, other}}, Hooks{}).Graph
	if e := g.Edge(g.VertexByShape(1), g.VertexByShape(2)); e == nil || e.Type != graph.EdgeLinked {
		t.Errorf("overlapping symbols not linked: %+v", e)
	}
	if g.Edge(g.VertexByShape(1), g.VertexByShape(3)) != nil {
		t.Error("contained symbol linked")
	}
	if g.Edge(g.VertexByShape(2), g.VertexByShape(4)) != nil {
		t.Error("different symbols linked")
	}
}

func TestDisconnectedGroup(t *testing.T) {
	container := textbox(10, "Cluster", 0, 0, 10, 10)
	container.HasMaster = true
	nodeA := textbox(11, "A", 1, 1, 2, 2)
	nodeA.HasMaster = true
	nodeB := textbox(12, "B", 6, 6, 2, 2)
	nodeB.HasMaster = true
	feed := line(13, geom.Pt(10, 5), geom.Pt(15, 5))

	res := run(t, &fakePage{id: 1, shapes: []SourceShape{container, nodeA, nodeB, feed}}, Hooks{})
	g := res.Graph
	for _, id := range []int64{11, 12} {
		e := g.Edge(g.VertexByShape(id), g.VertexByShape(13))
		if e == nil || e.Type != graph.EdgeDisconnectedGroup {
			t.Errorf("shape %d edge = %+v", id, e)
			continue
		}
		if *e.Point != geom.Pt(10, 5) {
			t.Errorf("point = %v", *e.Point)
		}
	}
}

func TestPageFailures(t *testing.T) {
	badPath := geom.NewPath()
	badPath.LineTo(1, 1)

	tests := []struct {
		name    string
		src     *fakePage
		wantErr error
		stage   string
		shape   int64
	}{
		{
			name: "unresolved connection",
			src: &fakePage{id: 3, shapes: []SourceShape{box(1, 0, 0, 1, 1)},
				conns: []Connection{{From: 1, To: 99}}},
			wantErr: ErrUnresolvedShape,
			stage:   "collect-connections",
			shape:   99,
		},
		{
			name:    "path without move",
			src:     &fakePage{id: 3, shapes: []SourceShape{{ID: 5, Is1D: true, Path: badPath}}},
			wantErr: ErrInvalidPath,
			stage:   "collect-shapes",
			shape:   5,
		},
		{
			name:    "duplicate id",
			src:     &fakePage{id: 3, shapes: []SourceShape{box(1, 0, 0, 1, 1), box(1, 2, 2, 1, 1)}},
			wantErr: ErrDuplicateShape,
			stage:   "collect-shapes",
			shape:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(DefaultConfig(), Hooks{}).Run(context.Background(), tt.src)
			if res != nil {
				t.Error("partial result emitted")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var pe *PageError
			if !errors.As(err, &pe) {
				t.Fatalf("err %T is not a *PageError", err)
			}
			if pe.PageID != 3 || pe.Stage != tt.stage || !pe.HasShape || pe.ShapeID != tt.shape {
				t.Errorf("page error = %+v", pe)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultConfig(), Hooks{}).Run(ctx, &fakePage{id: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestTransformAndRounding(t *testing.T) {
	s := box(1, 0, 0, 1, 1)
	s.Transform = geom.Translate(0.123456, 10)
	var got *Shape
	run(t, &fakePage{id: 1, shapes: []SourceShape{s}}, Hooks{OnCreate: func(sh *Shape, _ *SourceShape) { got = sh }})
	if got == nil {
		t.Fatal("OnCreate not called")
	}
	want := geom.Rect{Min: geom.Pt(0.1235, 10), Max: geom.Pt(1.1235, 11)}
	if got.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", got.Bounds, want)
	}
}

func TestRemoveRedundantConnections(t *testing.T) {
	type link struct {
		a, b int64
		pt   *geom.Point
	}
	at := func(x, y float64) *geom.Point { return &geom.Point{X: x, Y: y} }

	tests := []struct {
		name      string
		links     []link
		wantKept  bool
		redundant int
	}{
		{
			name:      "shared box holds the point",
			links:     []link{{3, 1, nil}, {4, 1, nil}, {3, 4, at(1, 1)}},
			wantKept:  false,
			redundant: 1,
		},
		{
			name:     "point outside shared box",
			links:    []link{{3, 1, nil}, {4, 1, nil}, {3, 4, at(5, 1)}},
			wantKept: true,
		},
		{
			name:     "no shared box",
			links:    []link{{3, 1, nil}, {4, 2, nil}, {3, 4, at(1, 1)}},
			wantKept: true,
		},
		{
			name:     "no stored point",
			links:    []link{{3, 1, nil}, {4, 1, nil}, {3, 4, nil}},
			wantKept: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakePage{id: 1, shapes: []SourceShape{
				box(1, 0, 0, 2, 2),
				box(2, 10, 0, 2, 2),
				line(3, geom.Pt(-1, 1), geom.Pt(1, 1)),
				line(4, geom.Pt(1, 1), geom.Pt(1, 3)),
			}}
			pg := New(DefaultConfig(), Hooks{}).newPage(src)
			if err := pg.collectShapes(); err != nil {
				t.Fatalf("collectShapes: %v", err)
			}
			for _, l := range tt.links {
				a, b := pg.reg.Lookup(l.a), pg.reg.Lookup(l.b)
				typ := graph.EdgeInferred2D
				if b.Is1D() {
					typ = graph.EdgeInferred1D
				}
				if err := pg.connect(a, b, typ, l.pt); err != nil {
					t.Fatalf("connect %d-%d: %v", l.a, l.b, err)
				}
			}

			if err := pg.removeRedundantConnections(); err != nil {
				t.Fatalf("removeRedundantConnections: %v", err)
			}
			kept := pg.g.Edge(pg.reg.Lookup(3).Vertex, pg.reg.Lookup(4).Vertex) != nil
			if kept != tt.wantKept {
				t.Errorf("line edge kept = %v, want %v", kept, tt.wantKept)
			}
			if pg.redundant != tt.redundant {
				t.Errorf("redundant = %d, want %d", pg.redundant, tt.redundant)
			}
			if got := pg.g.EdgeCount(); got != len(tt.links)-tt.redundant {
				t.Errorf("edges = %d, want %d", got, len(tt.links)-tt.redundant)
			}
		})
	}
}
