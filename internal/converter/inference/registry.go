package inference

import (
	"slices"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/graph"
	"diagraph/internal/converter/spatial"
)

// Registry owns the shapes of one page and keeps the spatial index and the
// graph in step with its membership. Removal only tombstones; Compact
// purges tombstones from the id map and the ordered list.
type Registry struct {
	graph   *graph.Graph
	index   *spatial.Index[*Shape]
	byID    map[int64]*Shape
	shapes  []*Shape
	parents func(id int64) (int64, bool)
	nextID  int64
	removed int
}

// NewRegistry creates an empty registry. parents climbs the source
// hierarchy; firstID is the id handed out by the first AllocateID call.
func NewRegistry(g *graph.Graph, parents func(int64) (int64, bool), firstID int64) *Registry {
	if parents == nil {
		parents = func(int64) (int64, bool) { return 0, false }
	}
	return &Registry{
		graph:   g,
		index:   spatial.New[*Shape](),
		byID:    make(map[int64]*Shape),
		parents: parents,
		nextID:  firstID,
	}
}

func (r *Registry) Graph() *graph.Graph { return r.graph }

// Insert makes s live: id map, ordered list and spatial index.
func (r *Registry) Insert(s *Shape) {
	r.byID[s.ID] = s
	r.shapes = append(r.shapes, s)
	r.index.Insert(s, s.Bounds)
}

// reserve makes s resolvable by id without exposing it to spatial queries.
func (r *Registry) reserve(s *Shape) {
	r.byID[s.ID] = s
}

// Remove tombstones s, evicting it from the index and the graph.
func (r *Registry) Remove(s *Shape) {
	if s.Removed {
		return
	}
	s.Removed = true
	r.index.Delete(s)
	r.graph.RemoveVertex(s.Vertex)
	r.removed++
}

// Compact purges tombstoned shapes and returns how many were dropped.
func (r *Registry) Compact() int {
	before := len(r.shapes)
	r.shapes = slices.DeleteFunc(r.shapes, func(s *Shape) bool { return s.Removed })
	for id, s := range r.byID {
		if s.Removed {
			delete(r.byID, id)
		}
	}
	return before - len(r.shapes)
}

// SortByArea orders shapes largest first, keeping the order of equal areas.
func (r *Registry) SortByArea() {
	slices.SortStableFunc(r.shapes, byAreaDesc)
}

// Shapes returns the ordered list. Tombstones stay visible until Compact.
func (r *Registry) Shapes() []*Shape {
	return r.shapes
}

func (r *Registry) Len() int { return len(r.shapes) }

// RemovedCount is the number of shapes removed so far.
func (r *Registry) RemovedCount() int { return r.removed }

// Lookup is the exact id lookup.
func (r *Registry) Lookup(id int64) *Shape {
	return r.byID[id]
}

// FindShape resolves id, climbing the source hierarchy to the nearest
// registered ancestor when id itself never became a shape.
func (r *Registry) FindShape(id int64) *Shape {
	if s := r.byID[id]; s != nil {
		return s
	}
	seen := map[int64]bool{id: true}
	for {
		parent, ok := r.parents(id)
		if !ok || seen[parent] {
			return nil
		}
		if s := r.byID[parent]; s != nil {
			return s
		}
		seen[parent] = true
		id = parent
	}
}

// FindTopmostParent follows parent ids inside the registry.
func (r *Registry) FindTopmostParent(s *Shape) *Shape {
	seen := map[int64]bool{s.ID: true}
	for s.HasParent {
		parent := r.byID[s.ParentID]
		if parent == nil || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		s = parent
	}
	return s
}

// ShapeOf maps a vertex back to its shape.
func (r *Registry) ShapeOf(v *graph.Vertex) *Shape {
	if v == nil {
		return nil
	}
	return r.byID[v.ShapeID]
}

// AllocateID hands out ids for synthesized shapes, counting down.
func (r *Registry) AllocateID() int64 {
	id := r.nextID
	r.nextID--
	return id
}

// Search returns live shapes whose bounds touch box.
func (r *Registry) Search(box geom.Rect) []*Shape {
	return slices.DeleteFunc(r.index.Search(box), func(s *Shape) bool { return s.Removed })
}

// Nearest returns live shapes by ascending distance to box.
func (r *Registry) Nearest(box geom.Rect, maxDistance float64, maxCount int) []*Shape {
	return slices.DeleteFunc(r.index.Nearest(box, maxDistance, maxCount), func(s *Shape) bool { return s.Removed })
}
