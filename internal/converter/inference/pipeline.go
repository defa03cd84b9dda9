// Package inference turns the shapes of one diagram page into a
// connectivity graph. A Pipeline runs a fixed sequence of stages over a
// page-local Registry and Graph; pages share nothing and may be processed
// concurrently by separate Run calls.
package inference

import (
	"context"
	"fmt"
	"strconv"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/graph"
)

// Group pairs a container shape with the shapes it visually encloses.
// Formal groups span different hierarchies and lose their container shape;
// secondary ones keep it.
type Group struct {
	Shape    *Shape
	Children []*Shape
	Formal   bool
}

// Stats summarises one page run.
type Stats struct {
	Shapes       int
	Vertices     int
	Edges        int
	EdgesByType  map[graph.EdgeType]int
	Splits       int
	Fragments    int
	Removed      int
	Redundant    int
	TextAssigned int
	Groups       int
}

// Result is the outcome of a successful page run.
type Result struct {
	PageID   int64
	PageName string
	Graph    *graph.Graph
	Groups   []Group
	Stats    Stats
}

// Pipeline holds configuration only; it is safe for concurrent use.
type Pipeline struct {
	cfg    Config
	policy policy
}

func New(cfg Config, hooks Hooks) *Pipeline {
	if cfg.Kernel == (geom.Kernel{}) {
		cfg.Kernel = geom.DefaultKernel()
	}
	return &Pipeline{cfg: cfg, policy: policy{hooks: hooks, cfg: cfg}}
}

func (p *Pipeline) Config() Config { return p.cfg }

// page is the mutable state threaded through the stages of one run.
type page struct {
	src    ShapeSource
	id     int64
	name   string
	k      geom.Kernel
	policy policy
	g      *graph.Graph
	reg    *Registry
	groups []Group

	splits       int
	fragments    int
	redundant    int
	textAssigned int
}

type stage struct {
	name string
	run  func(*page) error
}

var stages = []stage{
	{"collect-shapes", (*page).collectShapes},
	{"collect-connections", (*page).collectConnections},
	{"join-grouped-shapes", (*page).joinGroupedShapes},
	{"add-group-labels", (*page).addGroupLabels},
	{"infer-2d-connections", (*page).infer2DConnections},
	{"infer-1d-connections", (*page).infer1DConnections},
	{"associate-text", (*page).associateText},
	{"infer-group-connections", (*page).inferGroupConnections},
	{"remove-redundant-connections", (*page).removeRedundantConnections},
	{"verify", (*page).verify},
}

// Run processes one page. On failure the page yields no graph and the
// error is a *PageError.
func (p *Pipeline) Run(ctx context.Context, src ShapeSource) (*Result, error) {
	pg := p.newPage(src)
	log := Logger().With("page", pg.id)

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, newPageError(pg.id, st.name, err)
		}
		if err := st.run(pg); err != nil {
			log.Debug("stage failed", "stage", st.name, "error", err)
			return nil, newPageError(pg.id, st.name, err)
		}
		compacted := pg.reg.Compact()
		log.Debug("stage done",
			"stage", st.name,
			"shapes", pg.reg.Len(),
			"vertices", pg.g.VertexCount(),
			"edges", pg.g.EdgeCount(),
			"compacted", compacted)
	}
	return pg.result(), nil
}

func (p *Pipeline) newPage(src ShapeSource) *page {
	g := graph.New(strconv.FormatInt(src.PageID(), 10))
	return &page{
		src:    src,
		id:     src.PageID(),
		name:   src.PageName(),
		k:      p.cfg.Kernel,
		policy: p.policy,
		g:      g,
		reg:    NewRegistry(g, src.ParentOf, p.cfg.FirstSplitID),
	}
}

func (pg *page) result() *Result {
	return &Result{
		PageID:   pg.id,
		PageName: pg.name,
		Graph:    pg.g,
		Groups:   pg.groups,
		Stats: Stats{
			Shapes:       pg.reg.Len(),
			Vertices:     pg.g.VertexCount(),
			Edges:        pg.g.EdgeCount(),
			EdgesByType:  pg.g.CountByType(),
			Splits:       pg.splits,
			Fragments:    pg.fragments,
			Removed:      pg.reg.RemovedCount(),
			Redundant:    pg.redundant,
			TextAssigned: pg.textAssigned,
			Groups:       len(pg.groups),
		},
	}
}

// connect adds an edge between two live shapes.
func (pg *page) connect(a, b *Shape, t graph.EdgeType, pt *geom.Point) error {
	if a.Removed || b.Removed {
		return failShape(a.ID, fmt.Errorf("%w: edge %d -> %d touches a removed shape", ErrInconsistentGraph, a.ID, b.ID))
	}
	if _, _, err := pg.g.AddEdge(a.Vertex, b.Vertex, t, pt); err != nil {
		return failShape(a.ID, fmt.Errorf("%w: edge %d -> %d: %v", ErrInconsistentGraph, a.ID, b.ID, err))
	}
	return nil
}

// at rounds a connection point.
func (pg *page) at(pt geom.Point) *geom.Point {
	r := pg.k.RoundPoint(pt)
	return &r
}

// endpointShape resolves the shape behind one end of an edge.
func (pg *page) endpointShape(e *graph.Edge, v *graph.Vertex) (*Shape, error) {
	other := graph.OtherEndpoint(e, v)
	s := pg.reg.ShapeOf(other)
	if s == nil || s.Removed {
		return nil, failShape(v.ShapeID, fmt.Errorf("%w: edge %s", ErrInconsistentGraph, e.Key))
	}
	return s, nil
}

// verify checks that every edge still resolves to live shapes.
func (pg *page) verify() error {
	for _, e := range pg.g.Edges() {
		for _, v := range []*graph.Vertex{e.From, e.To} {
			if s := pg.reg.ShapeOf(v); s == nil || s.Removed {
				return failShape(v.ShapeID, fmt.Errorf("%w: edge %s", ErrInconsistentGraph, e.Key))
			}
		}
	}
	return nil
}
