package graph

import (
	"maps"
	"slices"

	"diagraph/internal/converter/geom"
)

// Vertex is the graph node of one shape.
type Vertex struct {
	ID      string
	ShapeID int64

	Label      string
	Is1D       bool
	Group      string
	GroupID    int64
	InGroup    bool
	Name       string
	SymbolName string
	Type       string
	PageName   string
	Center     geom.Point

	attrs map[string]any
	edges map[EdgeKey]*Edge
}

// Set stores a free-form attribute.
func (v *Vertex) Set(key string, value any) {
	if v.attrs == nil {
		v.attrs = make(map[string]any)
	}
	v.attrs[key] = value
}

// Unset drops an attribute.
func (v *Vertex) Unset(key string) {
	delete(v.attrs, key)
}

func (v *Vertex) Get(key string) (any, bool) {
	val, ok := v.attrs[key]
	return val, ok
}

// Keys lists attribute names in sorted order.
func (v *Vertex) Keys() []string {
	return slices.Sorted(maps.Keys(v.attrs))
}

// Attrs returns a copy of the free-form attributes.
func (v *Vertex) Attrs() map[string]any {
	return maps.Clone(v.attrs)
}

// Degree is the number of incident edges.
func (v *Vertex) Degree() int {
	return len(v.edges)
}

// CopyFrom takes every descriptive field and attribute of src, except
// identity and label.
func (v *Vertex) CopyFrom(src *Vertex) {
	v.Is1D = src.Is1D
	v.Group = src.Group
	v.GroupID = src.GroupID
	v.InGroup = src.InGroup
	v.Name = src.Name
	v.SymbolName = src.SymbolName
	v.Type = src.Type
	v.PageName = src.PageName
	v.Center = src.Center
	if len(src.attrs) > 0 {
		v.attrs = maps.Clone(src.attrs)
	}
}

// SetGroup tags v as a member of the group shape groupID.
func (v *Vertex) SetGroup(label string, groupID int64) {
	v.Group = label
	v.GroupID = groupID
	v.InGroup = true
}
