// Package spatial is a bounding-box index used to find candidate shapes
// before running exact geometric predicates.
package spatial

import (
	"github.com/tidwall/rtree"

	"diagraph/internal/converter/geom"
)

// Index maps items to their bounding boxes. Query results are fully
// collected before they are returned, so callers may insert or delete
// while walking a result slice.
type Index[T comparable] struct {
	tree  rtree.RTreeG[T]
	boxes map[T]geom.Rect
}

func New[T comparable]() *Index[T] {
	return &Index[T]{boxes: make(map[T]geom.Rect)}
}

func corners(r geom.Rect) (min, max [2]float64) {
	return [2]float64{r.Min.X, r.Min.Y}, [2]float64{r.Max.X, r.Max.Y}
}

// Insert adds item with the given box, replacing a previous entry.
func (ix *Index[T]) Insert(item T, box geom.Rect) {
	ix.Delete(item)
	min, max := corners(box)
	ix.tree.Insert(min, max, item)
	ix.boxes[item] = box
}

// Delete removes item. It reports whether the item was present.
func (ix *Index[T]) Delete(item T) bool {
	box, ok := ix.boxes[item]
	if !ok {
		return false
	}
	min, max := corners(box)
	ix.tree.Delete(min, max, item)
	delete(ix.boxes, item)
	return true
}

func (ix *Index[T]) Has(item T) bool {
	_, ok := ix.boxes[item]
	return ok
}

// Box returns the stored box of item.
func (ix *Index[T]) Box(item T) (geom.Rect, bool) {
	box, ok := ix.boxes[item]
	return box, ok
}

func (ix *Index[T]) Len() int {
	return ix.tree.Len()
}

// Search returns every item whose box touches box.
func (ix *Index[T]) Search(box geom.Rect) []T {
	var out []T
	min, max := corners(box)
	ix.tree.Search(min, max, func(_, _ [2]float64, item T) bool {
		out = append(out, item)
		return true
	})
	return out
}

// Nearest returns items ordered by ascending box distance to box, at most
// maxDistance away. maxCount <= 0 means no limit. Items at equal distance
// come back in rtree traversal order, not insertion order.
func (ix *Index[T]) Nearest(box geom.Rect, maxDistance float64, maxCount int) []T {
	var out []T
	limit := maxDistance * maxDistance
	min, max := corners(box)
	// BoxDist yields squared distances
	ix.tree.Nearby(
		rtree.BoxDist[float64, T](min, max, nil),
		func(_, _ [2]float64, item T, dist float64) bool {
			if dist > limit {
				return false
			}
			out = append(out, item)
			return maxCount <= 0 || len(out) < maxCount
		},
	)
	return out
}
