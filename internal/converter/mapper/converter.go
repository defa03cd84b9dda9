package mapper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"diagraph/internal/converter/graph"
	"diagraph/internal/converter/inference"
	"diagraph/internal/converter/models"
	"diagraph/internal/converter/parser"
)

const (
	FormatJSON = "json"
	FormatSVG  = "svg"
)

var ErrUnknownFormat = errors.New("unknown document format")

// stage reported for pages rejected before the pipeline starts
const stageSource = "source"

// ============================================================
// Converter
// ============================================================

// Converter runs the inference pipeline over every page of a document.
// Pages are independent, so they are processed in parallel.
type Converter struct {
	pipeline *inference.Pipeline
	jobs     int
}

func New(cfg inference.Config, hooks inference.Hooks, jobs int) *Converter {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return &Converter{
		pipeline: inference.New(cfg, hooks),
		jobs:     jobs,
	}
}

// Parse читает документ в указанном формате
func (c *Converter) Parse(r io.Reader, format string) (*models.Document, error) {
	switch format {
	case "", FormatJSON:
		return parser.ParseDocument(r)
	case FormatSVG:
		return parser.ParseSVG(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Convert returns one result per page in document order. A failing page is
// reported in its result and does not affect the others; only
// cancellation of ctx fails the whole call.
func (c *Converter) Convert(ctx context.Context, doc *models.Document) ([]models.PageResult, error) {
	results := make([]models.PageResult, len(doc.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)
	for i := range doc.Pages {
		g.Go(func() error {
			results[i] = c.convertPage(gctx, doc.Pages[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Status == models.StatusFailed {
			failed++
		}
	}
	log.Printf("[CONVERTER] Converted %d pages, %d failed", len(results), failed)
	return results, nil
}

func (c *Converter) convertPage(ctx context.Context, page models.Page) models.PageResult {
	src, err := parser.NewSource(page)
	if err != nil {
		log.Printf("[CONVERTER] Page %d rejected: %v", page.ID, err)
		return failedPage(page, stageSource, err)
	}

	res, err := c.pipeline.Run(ctx, src)
	if err != nil {
		log.Printf("[CONVERTER] Page %d failed: %v", page.ID, err)
		return failedPage(page, "", err)
	}
	return pageView(res)
}

func failedPage(page models.Page, stage string, err error) models.PageResult {
	out := models.PageResult{
		PageID: page.ID,
		Name:   page.Name,
		Status: models.StatusFailed,
		Error:  err.Error(),
		Stage:  stage,
	}
	var pe *inference.PageError
	if errors.As(err, &pe) {
		out.Stage = pe.Stage
		if pe.HasShape {
			id := pe.ShapeID
			out.ShapeID = &id
		}
	}
	return out
}

// ============================================================
// Result views
// ============================================================

func pageView(res *inference.Result) models.PageResult {
	out := models.PageResult{
		PageID: res.PageID,
		Name:   res.PageName,
		Status: models.StatusOK,
		Stats:  statsView(res.Stats),
	}
	for _, v := range res.Graph.Vertices() {
		out.Vertices = append(out.Vertices, VertexView(v))
	}
	for _, e := range res.Graph.Edges() {
		out.Edges = append(out.Edges, EdgeView(e))
	}
	return out
}

func VertexView(v *graph.Vertex) models.VertexView {
	out := models.VertexView{
		ID:         v.ID,
		ShapeID:    v.ShapeID,
		Label:      v.Label,
		Is1D:       v.Is1D,
		Group:      v.Group,
		Name:       v.Name,
		SymbolName: v.SymbolName,
		Type:       v.Type,
		PageName:   v.PageName,
		Center:     models.Point{X: v.Center.X, Y: v.Center.Y},
		Attrs:      v.Attrs(),
	}
	if v.InGroup {
		id := v.GroupID
		out.GroupID = &id
	}
	return out
}

func EdgeView(e *graph.Edge) models.EdgeView {
	out := models.EdgeView{
		From: e.Key.From,
		To:   e.Key.To,
		Type: string(e.Type),
	}
	if e.Point != nil {
		out.Point = &models.Point{X: e.Point.X, Y: e.Point.Y}
	}
	return out
}

func statsView(s inference.Stats) *models.Stats {
	byType := make(map[string]int, len(s.EdgesByType))
	for t, n := range s.EdgesByType {
		byType[string(t)] = n
	}
	return &models.Stats{
		Shapes:       s.Shapes,
		Vertices:     s.Vertices,
		Edges:        s.Edges,
		EdgesByType:  byType,
		Splits:       s.Splits,
		Fragments:    s.Fragments,
		Removed:      s.Removed,
		Redundant:    s.Redundant,
		TextAssigned: s.TextAssigned,
		Groups:       s.Groups,
	}
}
