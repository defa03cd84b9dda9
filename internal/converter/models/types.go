package models

import "time"

// ============================================================
// Source document
// ============================================================

// Document is the ingestion format: one or more pages of shapes.
type Document struct {
	Pages []Page `json:"pages"`
}

type Page struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Shapes      []Shape      `json:"shapes"`
	Connections []Connection `json:"connections,omitempty"`
	// Nodes are hierarchy entries that never become shapes (plain groups).
	Nodes []Node `json:"nodes,omitempty"`
}

// Shape is one drawable element in local coordinates. Geometry comes from
// Path (SVG path data) or, failing that, Box.
type Shape struct {
	ID          int64     `json:"id"`
	Parent      *int64    `json:"parent,omitempty"`
	Is1D        bool      `json:"is_1d"`
	Path        string    `json:"path,omitempty"`
	Box         *Box      `json:"box,omitempty"`
	Transform   []float64 `json:"transform,omitempty"`
	Text        *string   `json:"text,omitempty"`
	TextCenter  *Point    `json:"text_center,omitempty"`
	Master      bool      `json:"master,omitempty"`
	LineColor   string    `json:"line_color,omitempty"`
	LinePattern int       `json:"line_pattern,omitempty"`
	Name        string    `json:"name,omitempty"`
	SymbolName  string    `json:"symbol,omitempty"`
	Type        string    `json:"type,omitempty"`
}

type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connection glues two shapes. Anchor is "begin", "end" or empty.
type Connection struct {
	From   int64  `json:"from"`
	To     int64  `json:"to"`
	Anchor string `json:"anchor,omitempty"`
}

type Node struct {
	ID     int64  `json:"id"`
	Parent *int64 `json:"parent,omitempty"`
}

const (
	AnchorBegin = "begin"
	AnchorEnd   = "end"
)

// ============================================================
// Conversion results
// ============================================================

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type Run struct {
	ID        string       `json:"run_id"`
	Source    string       `json:"source"`
	Format    string       `json:"format"`
	CreatedAt time.Time    `json:"created_at"`
	Pages     []PageResult `json:"pages"`
}

// PageResult is either a complete graph or a failure, never both.
type PageResult struct {
	PageID   int64        `json:"page_id"`
	Name     string       `json:"name"`
	Status   string       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Stage    string       `json:"stage,omitempty"`
	ShapeID  *int64       `json:"shape_id,omitempty"`
	Vertices []VertexView `json:"vertices,omitempty"`
	Edges    []EdgeView   `json:"edges,omitempty"`
	Stats    *Stats       `json:"stats,omitempty"`
}

type VertexView struct {
	ID         string         `json:"id"`
	ShapeID    int64          `json:"shape_id"`
	Label      string         `json:"label"`
	Is1D       bool           `json:"is_1d"`
	Group      string         `json:"group,omitempty"`
	GroupID    *int64         `json:"group_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	SymbolName string         `json:"symbol,omitempty"`
	Type       string         `json:"type,omitempty"`
	PageName   string         `json:"page_name,omitempty"`
	Center     Point          `json:"center"`
	Attrs      map[string]any `json:"attrs,omitempty"`
}

type EdgeView struct {
	From  int64  `json:"from"`
	To    int64  `json:"to"`
	Type  string `json:"type"`
	Point *Point `json:"point,omitempty"`
}

type Stats struct {
	Shapes       int            `json:"shapes"`
	Vertices     int            `json:"vertices"`
	Edges        int            `json:"edges"`
	EdgesByType  map[string]int `json:"edges_by_type"`
	Splits       int            `json:"splits"`
	Fragments    int            `json:"fragments"`
	Removed      int            `json:"removed"`
	Redundant    int            `json:"redundant"`
	TextAssigned int            `json:"text_assigned"`
	Groups       int            `json:"groups"`
}

// RunSummary is the list view of a stored run.
type RunSummary struct {
	ID        string    `json:"run_id"`
	Source    string    `json:"source"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
	Pages     int       `json:"pages"`
	Failed    int       `json:"failed"`
}
