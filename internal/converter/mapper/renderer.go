package mapper

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"diagraph/internal/converter/models"
)

var ErrNothingToRender = errors.New("page has no graph")

// ============================================================
// Renderer
// ============================================================

const (
	renderMargin = 20.0
	vertexRadius = 4.0
)

// edgeColors раскраска ребер по типу
var edgeColors = map[string]string{
	"real":                        "#000",
	"linked":                      "#888",
	"inferred-2d":                 "#1f77b4",
	"inferred-1d":                 "#2ca02c",
	"inferred2d-split-start":      "#ff7f0e",
	"inferred2d-split-middle":     "#d62728",
	"inferred2d-split-end":        "#9467bd",
	"reparent":                    "#8c564b",
	"inferred-disconnected-group": "#e377c2",
}

// Renderer draws the connectivity graph of one page as SVG: vertices at
// their shape centers, edges as straight lines colored by type.
type Renderer struct {
	// Scale maps page units to pixels.
	Scale float64
}

func NewRenderer() *Renderer {
	return &Renderer{Scale: 100}
}

// Render собирает SVG превью графа страницы
func (r *Renderer) Render(page models.PageResult) (string, error) {
	if page.Status != models.StatusOK || len(page.Vertices) == 0 {
		return "", fmt.Errorf("%w: page %d", ErrNothingToRender, page.PageID)
	}

	centers := make(map[int64]models.Point, len(page.Vertices))
	for _, v := range page.Vertices {
		centers[v.ShapeID] = v.Center
	}
	minX, minY, width, height := r.sceneSize(page)
	toPx := func(p models.Point) models.Point {
		return models.Point{
			X: (p.X-minX)*r.Scale + renderMargin,
			Y: (p.Y-minY)*r.Scale + renderMargin,
		}
	}

	var elements []string
	elements = append(elements, r.renderEdges(page.Edges, centers, toPx)...)
	elements = append(elements, r.renderVertices(page.Vertices, toPx)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// sceneSize returns the top-left corner of the vertex cloud in page units
// and the canvas size in pixels.
func (r *Renderer) sceneSize(page models.PageResult) (minX, minY, width, height float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, v := range page.Vertices {
		minX = math.Min(minX, v.Center.X)
		maxX = math.Max(maxX, v.Center.X)
		minY = math.Min(minY, v.Center.Y)
		maxY = math.Max(maxY, v.Center.Y)
	}
	width = (maxX-minX)*r.Scale + 2*renderMargin
	height = (maxY-minY)*r.Scale + 2*renderMargin
	return minX, minY, width, height
}

func (r *Renderer) renderEdges(edges []models.EdgeView, centers map[int64]models.Point, toPx func(models.Point) models.Point) []string {
	var out []string
	for _, e := range edges {
		from, ok1 := centers[e.From]
		to, ok2 := centers[e.To]
		if !ok1 || !ok2 {
			continue
		}
		a, b := toPx(from), toPx(to)
		color, ok := edgeColors[e.Type]
		if !ok {
			color = "#000"
		}
		out = append(out, fmt.Sprintf(`<line data-type="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" />`,
			html.EscapeString(e.Type), formatFloat(a.X), formatFloat(a.Y), formatFloat(b.X), formatFloat(b.Y), color))
	}
	return out
}

func (r *Renderer) renderVertices(vertices []models.VertexView, toPx func(models.Point) models.Point) []string {
	var out []string
	for _, v := range vertices {
		c := toPx(v.Center)
		fill := "#fff"
		if v.Is1D {
			fill = "#ccc"
		}
		out = append(out, fmt.Sprintf(`<circle id="%s" cx="%s" cy="%s" r="%s" fill="%s" stroke="#000" />`,
			html.EscapeString(v.ID), formatFloat(c.X), formatFloat(c.Y), formatFloat(vertexRadius), fill))
		if v.Label != "" {
			out = append(out, fmt.Sprintf(`<text x="%s" y="%s" font-size="10">%s</text>`,
				formatFloat(c.X+vertexRadius+2), formatFloat(c.Y), html.EscapeString(v.Label)))
		}
	}
	return out
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
