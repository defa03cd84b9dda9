package inference

import (
	"golang.org/x/image/math/f64"

	"diagraph/internal/converter/geom"
)

// Anchor names the end of a 1-D shape a connection is glued to.
type Anchor int

const (
	AnchorNone Anchor = iota
	AnchorBegin
	AnchorEnd
)

// SourceShape is one shape as delivered by ingestion, in local coordinates.
type SourceShape struct {
	ID        int64
	ParentID  int64
	HasParent bool
	Is1D      bool

	// Transform maps local to page coordinates. The zero matrix means identity.
	Transform f64.Aff3
	// Box is the local bounding box of the shape.
	Box geom.Rect
	// Path is the 1-D path, or the 2-D outline. 2-D shapes fall back to Box.
	Path *geom.Path

	Text       string
	HasText    bool
	TextCenter geom.Point
	HasMaster  bool

	LineColor   string
	LinePattern int

	Name       string
	SymbolName string
	Type       string
}

// Connection is an explicit glue record between two shapes.
type Connection struct {
	From   int64
	To     int64
	Anchor Anchor
}

// ShapeSource yields the shapes of one page, parents before children.
type ShapeSource interface {
	PageID() int64
	PageName() string
	Shapes() []SourceShape
	Connections() []Connection
	// ParentOf walks the source hierarchy, including shapes that never
	// became vertices.
	ParentOf(id int64) (int64, bool)
}

func (s *SourceShape) transform() f64.Aff3 {
	if geom.IsZero(s.Transform) {
		return geom.Identity()
	}
	return s.Transform
}

// outline returns the local geometry to transform.
func (s *SourceShape) outline() *geom.Path {
	if !s.Path.IsEmpty() {
		return s.Path
	}
	if s.Is1D {
		return geom.NewPath()
	}
	return s.Box.Path()
}
