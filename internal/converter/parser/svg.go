package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"

	"diagraph/internal/converter/geom"
	"diagraph/internal/converter/models"
)

var ErrBadSVG = errors.New("malformed svg")

// ============================================================
// SVG Document
// ============================================================

const defaultFontSize = 12.0

// frame is one open <g> element.
type frame struct {
	transform f64.Aff3
	node      *int64
	page      bool
}

type svgParser struct {
	doc      models.Document
	page     int // активная data-page, -1 если нет
	implicit int
	stack    []frame
	ids      map[string]int64
	patterns map[string]int
	pending  []pendingConn
	next     int

	// открытый <text>
	text      *models.Shape
	textBuf   strings.Builder
	textAt    textAnchor
	textAttrs map[string]string
}

type pendingConn struct {
	page   int
	from   int64
	ref    string
	anchor string
}

type textAnchor struct {
	x, y, size float64
	align      string
}

// ParseSVG читает SVG и строит документ: <g data-page> задает страницы,
// вложенные <g id> задают иерархию
func ParseSVG(r io.Reader) (*models.Document, error) {
	p := &svgParser{
		page:     -1,
		implicit: -1,
		ids:      make(map[string]int64),
		patterns: make(map[string]int),
	}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSVG, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.start(t); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if err := p.end(t); err != nil {
				return nil, err
			}
		case xml.CharData:
			if p.text != nil {
				p.textBuf.Write(t)
			}
		}
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	if err := normalize(&p.doc); err != nil {
		return nil, err
	}
	return &p.doc, nil
}

func (p *svgParser) start(el xml.StartElement) error {
	attrs := attrMap(el.Attr)
	switch el.Name.Local {
	case "svg":
		p.push(frame{transform: geom.Identity()})
		return nil
	case "g":
		return p.openGroup(attrs)
	}

	// остальные элементы не вкладываются, но End придет все равно
	p.push(frame{transform: p.current()})
	switch el.Name.Local {
	case "rect":
		return p.rect(attrs)
	case "path":
		return p.path(attrs)
	case "line":
		return p.line(attrs)
	case "polyline":
		return p.polyline(attrs)
	case "text":
		return p.openText(attrs)
	}
	return nil
}

func (p *svgParser) end(el xml.EndElement) error {
	if el.Name.Local == "text" && p.text != nil {
		if err := p.closeText(); err != nil {
			return err
		}
	}
	if len(p.stack) == 0 {
		return fmt.Errorf("%w: unbalanced </%s>", ErrBadSVG, el.Name.Local)
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if top.page {
		p.page = -1
	}
	return nil
}

func (p *svgParser) push(f frame) {
	p.stack = append(p.stack, f)
}

func (p *svgParser) current() f64.Aff3 {
	if len(p.stack) == 0 {
		return geom.Identity()
	}
	return p.stack[len(p.stack)-1].transform
}

// parent is the nearest enclosing <g> with an id.
func (p *svgParser) parent() *int64 {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].node != nil {
			return p.stack[i].node
		}
	}
	return nil
}

func (p *svgParser) openGroup(attrs map[string]string) error {
	m, err := parseTransform(attrs["transform"])
	if err != nil {
		return err
	}
	f := frame{transform: geom.Multiply(p.current(), m)}

	if name, ok := attrs["data-page"]; ok && p.page < 0 {
		idx, err := p.newPage(name)
		if err != nil {
			return err
		}
		p.page = idx
		f.page = true
		p.push(f)
		return nil
	}

	if attrs["id"] != "" {
		id, err := p.register(attrs["id"])
		if err != nil {
			return err
		}
		idx, err := p.pageIndex()
		if err != nil {
			return err
		}
		page := &p.doc.Pages[idx]
		page.Nodes = append(page.Nodes, models.Node{ID: id, Parent: p.parent()})
		f.node = &id
	}
	p.push(f)
	return nil
}

func (p *svgParser) newPage(name string) (int, error) {
	id, err := safecast.Conv[int64](len(p.doc.Pages) + 1)
	if err != nil {
		return 0, err
	}
	if name == "" {
		name = fmt.Sprintf("Page-%d", id)
	}
	p.doc.Pages = append(p.doc.Pages, models.Page{ID: id, Name: name})
	return len(p.doc.Pages) - 1, nil
}

// pageIndex is the page new elements belong to. Elements outside any
// data-page group share one implicit page.
func (p *svgParser) pageIndex() (int, error) {
	if p.page >= 0 {
		return p.page, nil
	}
	if p.implicit < 0 {
		idx, err := p.newPage("")
		if err != nil {
			return 0, err
		}
		p.implicit = idx
	}
	return p.implicit, nil
}

// register allocates the numeric id of an element.
func (p *svgParser) register(name string) (int64, error) {
	p.next++
	id, err := safecast.Conv[int64](p.next)
	if err != nil {
		return 0, err
	}
	if name != "" {
		if _, dup := p.ids[name]; dup {
			return 0, fmt.Errorf("%w: duplicate id %q", ErrBadSVG, name)
		}
		p.ids[name] = id
	}
	return id, nil
}

// newShape fills the attributes every drawable element shares.
func (p *svgParser) newShape(attrs map[string]string) (*models.Shape, error) {
	id, err := p.register(attrs["id"])
	if err != nil {
		return nil, err
	}
	own, err := parseTransform(attrs["transform"])
	if err != nil {
		return nil, err
	}
	m := geom.Multiply(p.current(), own)
	s := &models.Shape{
		ID:         id,
		Parent:     p.parent(),
		Name:       attrs["id"],
		SymbolName: attrs["data-symbol"],
		Type:       attrs["data-type"],
		LineColor:  attrs["stroke"],
	}
	if !isIdentity(m) {
		s.Transform = []float64{m[0], m[3], m[1], m[4], m[2], m[5]}
	}
	if label, ok := attrs["data-label"]; ok {
		s.Text = &label
		s.Master = true
	}
	if dash := strings.TrimSpace(attrs["stroke-dasharray"]); dash != "" && dash != "none" {
		if _, ok := p.patterns[dash]; !ok {
			p.patterns[dash] = len(p.patterns) + 1
		}
		s.LinePattern = p.patterns[dash]
	}
	return s, nil
}

var glueAttrs = []struct{ attr, anchor string }{
	{"data-begin", models.AnchorBegin},
	{"data-end", models.AnchorEnd},
}

func (p *svgParser) add(s *models.Shape, attrs map[string]string) error {
	idx, err := p.pageIndex()
	if err != nil {
		return err
	}
	p.doc.Pages[idx].Shapes = append(p.doc.Pages[idx].Shapes, *s)
	for _, g := range glueAttrs {
		if ref := strings.TrimPrefix(attrs[g.attr], "#"); ref != "" {
			p.pending = append(p.pending, pendingConn{page: idx, from: s.ID, ref: ref, anchor: g.anchor})
		}
	}
	return nil
}

func (p *svgParser) rect(attrs map[string]string) error {
	s, err := p.newShape(attrs)
	if err != nil {
		return err
	}
	s.Box = &models.Box{
		X:      num(attrs["x"]),
		Y:      num(attrs["y"]),
		Width:  num(attrs["width"]),
		Height: num(attrs["height"]),
	}
	return p.add(s, attrs)
}

func (p *svgParser) path(attrs map[string]string) error {
	s, err := p.newShape(attrs)
	if err != nil {
		return err
	}
	s.Path = attrs["d"]
	s.Is1D = !strings.ContainsAny(s.Path, "Zz") || attrs["data-1d"] == "true"
	return p.add(s, attrs)
}

func (p *svgParser) line(attrs map[string]string) error {
	s, err := p.newShape(attrs)
	if err != nil {
		return err
	}
	s.Is1D = true
	s.Path = fmt.Sprintf("M%s %s L%s %s", coord(attrs["x1"]), coord(attrs["y1"]), coord(attrs["x2"]), coord(attrs["y2"]))
	return p.add(s, attrs)
}

func (p *svgParser) polyline(attrs map[string]string) error {
	s, err := p.newShape(attrs)
	if err != nil {
		return err
	}
	if s.Path, err = PolylinePath(attrs["points"]); err != nil {
		return fmt.Errorf("polyline %q: %w", attrs["id"], err)
	}
	s.Is1D = true
	return p.add(s, attrs)
}

func (p *svgParser) openText(attrs map[string]string) error {
	s, err := p.newShape(attrs)
	if err != nil {
		return err
	}
	size := num(attrs["font-size"])
	if size <= 0 {
		size = defaultFontSize
	}
	s.Master = false
	p.text = s
	p.textBuf.Reset()
	p.textAt = textAnchor{x: num(attrs["x"]), y: num(attrs["y"]), size: size, align: attrs["text-anchor"]}
	p.textAttrs = attrs
	return nil
}

// closeText sizes the textbox from the rendered width of its content.
func (p *svgParser) closeText() error {
	s, at := p.text, p.textAt
	p.text = nil

	content := p.textBuf.String()
	if s.Text == nil {
		s.Text = &content
	}
	width, ascent, height := measureText(*s.Text, at.size)
	x := at.x
	switch at.align {
	case "middle":
		x -= width / 2
	case "end":
		x -= width
	}
	s.Box = &models.Box{X: x, Y: at.y - ascent, Width: width, Height: height}
	return p.add(s, p.textAttrs)
}

// resolve turns data-begin/data-end references into connections.
func (p *svgParser) resolve() error {
	for _, c := range p.pending {
		to, ok := p.ids[c.ref]
		if !ok {
			return fmt.Errorf("%w: shape %d references unknown id %q", ErrBadSVG, c.from, c.ref)
		}
		page := &p.doc.Pages[c.page]
		page.Connections = append(page.Connections, models.Connection{From: c.from, To: to, Anchor: c.anchor})
	}
	return nil
}

// ============================================================
// Helpers
// ============================================================

func attrMap(attrs []xml.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Name.Local] = a.Value
	}
	// inline style перекрывает атрибуты
	for _, decl := range strings.Split(out["style"], ";") {
		if k, v, ok := strings.Cut(decl, ":"); ok {
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return out
}

func num(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func coord(s string) string {
	return strconv.FormatFloat(num(s), 'g', -1, 64)
}

func isIdentity(m f64.Aff3) bool {
	return m == geom.Identity()
}

var transformRe = regexp.MustCompile(`(\w+)\s*\(([^)]*)\)`)

// parseTransform understands translate, scale, rotate and matrix lists.
func parseTransform(s string) (f64.Aff3, error) {
	m := geom.Identity()
	for _, match := range transformRe.FindAllStringSubmatch(s, -1) {
		args := parseCoords(match[2])
		var t f64.Aff3
		switch match[1] {
		case "translate":
			switch len(args) {
			case 1:
				t = geom.Translate(args[0], 0)
			case 2:
				t = geom.Translate(args[0], args[1])
			default:
				return m, fmt.Errorf("%w: translate takes 1 or 2 values", ErrBadSVG)
			}
		case "scale":
			switch len(args) {
			case 1:
				t = geom.Scale(args[0], args[0])
			case 2:
				t = geom.Scale(args[0], args[1])
			default:
				return m, fmt.Errorf("%w: scale takes 1 or 2 values", ErrBadSVG)
			}
		case "rotate":
			if len(args) != 1 && len(args) != 3 {
				return m, fmt.Errorf("%w: rotate takes 1 or 3 values", ErrBadSVG)
			}
			t = geom.Rotate(args[0] * math.Pi / 180)
			if len(args) == 3 {
				t = geom.Multiply(geom.Translate(args[1], args[2]), geom.Multiply(t, geom.Translate(-args[1], -args[2])))
			}
		case "matrix":
			if len(args) != 6 {
				return m, fmt.Errorf("%w: matrix takes 6 values", ErrBadSVG)
			}
			t = f64.Aff3{args[0], args[2], args[4], args[1], args[3], args[5]}
		default:
			return m, fmt.Errorf("%w: unsupported transform %q", ErrBadSVG, match[1])
		}
		m = geom.Multiply(m, t)
	}
	return m, nil
}

// ============================================================
// Text metrics
// ============================================================

var (
	fontOnce sync.Once
	fontErr  error
	regular  *opentype.Font
	facesMu  sync.Mutex
	faces    = map[float64]font.Face{}
)

// measureText returns width, ascent and line height of s in Go Regular.
// Without the font it falls back to a fixed advance of 0.6em.
func measureText(s string, size float64) (width, ascent, height float64) {
	face, err := faceOf(size)
	if err != nil {
		return 0.6 * size * float64(len([]rune(s))), 0.8 * size, size
	}
	facesMu.Lock()
	defer facesMu.Unlock()
	m := face.Metrics()
	return fixedToFloat(font.MeasureString(face, s)), fixedToFloat(m.Ascent), fixedToFloat(m.Height)
}

func faceOf(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		regular, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(regular, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	faces[size] = f
	return f, nil
}

func fixedToFloat[T ~int32](v T) float64 {
	return float64(v) / 64
}
