package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"diagraph/internal/converter/models"
)

var (
	ErrNoPages     = errors.New("document has no pages")
	ErrBadDocument = errors.New("malformed document")
)

// ============================================================
// JSON Document
// ============================================================

// ParseDocument читает JSON документ и нормализует подписи
func ParseDocument(r io.Reader) (*models.Document, error) {
	var doc models.Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	if err := normalize(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// normalize checks the document and brings every label to NFC.
func normalize(doc *models.Document) error {
	if len(doc.Pages) == 0 {
		return ErrNoPages
	}
	seen := make(map[int64]bool, len(doc.Pages))
	for i := range doc.Pages {
		page := &doc.Pages[i]
		if seen[page.ID] {
			return fmt.Errorf("%w: duplicate page id %d", ErrBadDocument, page.ID)
		}
		seen[page.ID] = true
		page.Name = normalizeLabel(page.Name)

		for j := range page.Shapes {
			s := &page.Shapes[j]
			if s.Text != nil {
				t := normalizeLabel(*s.Text)
				s.Text = &t
			}
			if s.Transform != nil && len(s.Transform) != 6 {
				return fmt.Errorf("%w: page %d shape %d: transform needs 6 values, got %d",
					ErrBadDocument, page.ID, s.ID, len(s.Transform))
			}
			if s.Path == "" && s.Box == nil && !s.Is1D && s.Text == nil {
				return fmt.Errorf("%w: page %d shape %d has no geometry", ErrBadDocument, page.ID, s.ID)
			}
		}
		for _, c := range page.Connections {
			switch c.Anchor {
			case "", models.AnchorBegin, models.AnchorEnd:
			default:
				return fmt.Errorf("%w: page %d: unknown anchor %q", ErrBadDocument, page.ID, c.Anchor)
			}
		}
	}
	return nil
}

// normalizeLabel приводит текст к NFC и схлопывает пробелы
func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
