// Package graph holds the connectivity graph of a page: one vertex per
// shape and at most one typed edge per unordered pair of shapes.
package graph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"diagraph/internal/converter/geom"
)

var (
	ErrDuplicateVertex = errors.New("vertex already exists")
	ErrUnknownVertex   = errors.New("vertex not in graph")
)

// ============================================================
// Edge types
// ============================================================

type EdgeType string

const (
	EdgeReal              EdgeType = "real"
	EdgeLinked            EdgeType = "linked"
	EdgeInferred2D        EdgeType = "inferred-2d"
	EdgeInferred1D        EdgeType = "inferred-1d"
	EdgeSplitStart        EdgeType = "inferred2d-split-start"
	EdgeSplitMiddle       EdgeType = "inferred2d-split-middle"
	EdgeSplitEnd          EdgeType = "inferred2d-split-end"
	EdgeReparent          EdgeType = "reparent"
	EdgeDisconnectedGroup EdgeType = "inferred-disconnected-group"
)

// EdgeTypes lists the full vocabulary in a stable order.
var EdgeTypes = []EdgeType{
	EdgeReal, EdgeLinked, EdgeInferred2D, EdgeInferred1D,
	EdgeSplitStart, EdgeSplitMiddle, EdgeSplitEnd,
	EdgeReparent, EdgeDisconnectedGroup,
}

// EdgeKey identifies an edge by its endpoint shape ids, lower id first.
type EdgeKey struct {
	From int64
	To   int64
}

// KeyOf returns the canonical key for a pair of shape ids.
func KeyOf(a, b int64) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{From: a, To: b}
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%d -> %d", k.From, k.To)
}

func compareKeys(a, b EdgeKey) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}
	return cmp.Compare(a.To, b.To)
}

// Edge connects two vertices. Point is the connection coordinate when known.
type Edge struct {
	Key   EdgeKey
	From  *Vertex
	To    *Vertex
	Type  EdgeType
	Point *geom.Point
}

// ============================================================
// Graph
// ============================================================

type Graph struct {
	name     string
	vertices map[string]*Vertex
	byShape  map[int64]*Vertex
	edges    map[EdgeKey]*Edge
}

func New(name string) *Graph {
	return &Graph{
		name:     name,
		vertices: make(map[string]*Vertex),
		byShape:  make(map[int64]*Vertex),
		edges:    make(map[EdgeKey]*Edge),
	}
}

func (g *Graph) Name() string { return g.name }

// VertexID formats the vertex id of a shape on a page.
func VertexID(page string, shapeID int64) string {
	return fmt.Sprintf("%s: %d", page, shapeID)
}

// AddVertex creates a vertex for a shape. Both the id and the shape id
// must be unused.
func (g *Graph) AddVertex(id string, shapeID int64) (*Vertex, error) {
	if _, ok := g.vertices[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateVertex, id)
	}
	if _, ok := g.byShape[shapeID]; ok {
		return nil, fmt.Errorf("%w: shape %d", ErrDuplicateVertex, shapeID)
	}
	v := &Vertex{
		ID:      id,
		ShapeID: shapeID,
		edges:   make(map[EdgeKey]*Edge),
	}
	g.vertices[id] = v
	g.byShape[shapeID] = v
	return v, nil
}

// RemoveVertex drops v together with all of its edges.
func (g *Graph) RemoveVertex(v *Vertex) {
	if v == nil || g.vertices[v.ID] != v {
		return
	}
	for _, e := range v.edges {
		g.RemoveEdge(e)
	}
	delete(g.vertices, v.ID)
	delete(g.byShape, v.ShapeID)
}

func (g *Graph) Vertex(id string) *Vertex {
	return g.vertices[id]
}

// VertexByShape looks a vertex up by its shape id.
func (g *Graph) VertexByShape(shapeID int64) *Vertex {
	return g.byShape[shapeID]
}

func (g *Graph) Contains(v *Vertex) bool {
	return v != nil && g.vertices[v.ID] == v
}

// Vertices returns all vertices ordered by shape id.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(g.vertices))
	for _, v := range g.vertices {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *Vertex) int { return cmp.Compare(a.ShapeID, b.ShapeID) })
	return out
}

func (g *Graph) VertexCount() int { return len(g.vertices) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AddEdge connects a and b. When the pair is already connected the existing
// edge is returned unchanged and created is false. Self edges are ignored.
func (g *Graph) AddEdge(a, b *Vertex, t EdgeType, pt *geom.Point) (e *Edge, created bool, err error) {
	if !g.Contains(a) || !g.Contains(b) {
		return nil, false, ErrUnknownVertex
	}
	if a == b {
		return nil, false, nil
	}
	key := KeyOf(a.ShapeID, b.ShapeID)
	if existing, ok := g.edges[key]; ok {
		return existing, false, nil
	}
	from, to := a, b
	if from.ShapeID != key.From {
		from, to = to, from
	}
	e = &Edge{Key: key, From: from, To: to, Type: t}
	if pt != nil {
		p := *pt
		e.Point = &p
	}
	g.edges[key] = e
	from.edges[key] = e
	to.edges[key] = e
	return e, true, nil
}

func (g *Graph) RemoveEdge(e *Edge) {
	if e == nil || g.edges[e.Key] != e {
		return
	}
	delete(g.edges, e.Key)
	delete(e.From.edges, e.Key)
	delete(e.To.edges, e.Key)
}

// Edge returns the edge between a and b, if any.
func (g *Graph) Edge(a, b *Vertex) *Edge {
	if a == nil || b == nil {
		return nil
	}
	return g.edges[KeyOf(a.ShapeID, b.ShapeID)]
}

// Edges returns all edges ordered by key.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Edge) int { return compareKeys(a.Key, b.Key) })
	return out
}

// EdgesOf returns the edges incident to v ordered by key.
func (g *Graph) EdgesOf(v *Vertex) []*Edge {
	if v == nil {
		return nil
	}
	out := make([]*Edge, 0, len(v.edges))
	for _, e := range v.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Edge) int { return compareKeys(a.Key, b.Key) })
	return out
}

// OtherEndpoint returns the endpoint of e that is not v, or nil when v is
// not on e.
func OtherEndpoint(e *Edge, v *Vertex) *Vertex {
	switch v {
	case e.From:
		return e.To
	case e.To:
		return e.From
	}
	return nil
}

// Neighbors returns the vertices adjacent to v, restricted to the given
// edge types when any are passed.
func (g *Graph) Neighbors(v *Vertex, types ...EdgeType) []*Vertex {
	var out []*Vertex
	for _, e := range g.EdgesOf(v) {
		if len(types) > 0 && !slices.Contains(types, e.Type) {
			continue
		}
		out = append(out, OtherEndpoint(e, v))
	}
	return out
}

// CountByType tallies edges per type.
func (g *Graph) CountByType() map[EdgeType]int {
	out := make(map[EdgeType]int)
	for _, e := range g.edges {
		out[e.Type]++
	}
	return out
}
