package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"diagraph/internal/converter/geom"
)

var (
	ErrEmptyPath   = errors.New("empty path")
	ErrPathCommand = errors.New("bad path command")
)

// ============================================================
// Path Parser
// ============================================================

var (
	commandRe = regexp.MustCompile(`([MmLlHhVvQqCcZz])([^MmLlHhVvQqCcZz]*)`)
	numberRe  = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// ParsePath парсит SVG path data в geom.Path
func ParsePath(d string) (*geom.Path, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, ErrEmptyPath
	}

	path := geom.NewPath()
	var cur, start geom.Point

	for _, match := range commandRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		args := parseCoords(match[2])
		rel := strings.ToLower(cmd) == cmd

		// относительные координаты считаются от текущей точки
		abs := func(x, y float64) geom.Point {
			if rel {
				return geom.Pt(cur.X+x, cur.Y+y)
			}
			return geom.Pt(x, y)
		}

		switch strings.ToUpper(cmd) {
		case "M":
			if len(args) < 2 || len(args)%2 != 0 {
				return nil, fmt.Errorf("%w: %s needs coordinate pairs", ErrPathCommand, cmd)
			}
			cur = abs(args[0], args[1])
			start = cur
			path.MoveToPoint(cur)
			// лишние пары после M - неявные L
			for i := 2; i < len(args); i += 2 {
				cur = abs(args[i], args[i+1])
				path.LineToPoint(cur)
			}

		case "L":
			if len(args) < 2 || len(args)%2 != 0 {
				return nil, fmt.Errorf("%w: %s needs coordinate pairs", ErrPathCommand, cmd)
			}
			for i := 0; i < len(args); i += 2 {
				cur = abs(args[i], args[i+1])
				path.LineToPoint(cur)
			}

		case "H":
			if len(args) == 0 {
				return nil, fmt.Errorf("%w: %s needs a coordinate", ErrPathCommand, cmd)
			}
			for _, x := range args {
				if rel {
					x += cur.X
				}
				cur = geom.Pt(x, cur.Y)
				path.LineToPoint(cur)
			}

		case "V":
			if len(args) == 0 {
				return nil, fmt.Errorf("%w: %s needs a coordinate", ErrPathCommand, cmd)
			}
			for _, y := range args {
				if rel {
					y += cur.Y
				}
				cur = geom.Pt(cur.X, y)
				path.LineToPoint(cur)
			}

		case "Q":
			if len(args) == 0 || len(args)%4 != 0 {
				return nil, fmt.Errorf("%w: %s needs 4 values per segment", ErrPathCommand, cmd)
			}
			for i := 0; i < len(args); i += 4 {
				c := abs(args[i], args[i+1])
				p := abs(args[i+2], args[i+3])
				path.QuadTo(c.X, c.Y, p.X, p.Y)
				cur = p
			}

		case "C":
			if len(args) == 0 || len(args)%6 != 0 {
				return nil, fmt.Errorf("%w: %s needs 6 values per segment", ErrPathCommand, cmd)
			}
			for i := 0; i < len(args); i += 6 {
				c1 := abs(args[i], args[i+1])
				c2 := abs(args[i+2], args[i+3])
				p := abs(args[i+4], args[i+5])
				path.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p.X, p.Y)
				cur = p
			}

		case "Z":
			path.Close()
			cur = start
		}
	}

	if path.IsEmpty() {
		return nil, ErrEmptyPath
	}
	return path, nil
}

func parseCoords(s string) []float64 {
	var coords []float64
	for _, part := range numberRe.FindAllString(s, -1) {
		if val, err := strconv.ParseFloat(part, 64); err == nil {
			coords = append(coords, val)
		}
	}
	return coords
}

// PolylinePath строит path data из списка точек SVG polyline
func PolylinePath(points string) (string, error) {
	coords := parseCoords(points)
	if len(coords) < 4 || len(coords)%2 != 0 {
		return "", fmt.Errorf("%w: polyline needs at least two points", ErrPathCommand)
	}
	var b strings.Builder
	for i := 0; i < len(coords); i += 2 {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(strconv.FormatFloat(coords[i], 'g', -1, 64))
		b.WriteString(" ")
		b.WriteString(strconv.FormatFloat(coords[i+1], 'g', -1, 64))
	}
	return b.String(), nil
}
