package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath marks a 1-D path that does not begin with a move-to.
	ErrInvalidPath = errors.New("invalid 1d path")
	// ErrUnresolvedShape marks a connection whose endpoint is not a known shape.
	ErrUnresolvedShape = errors.New("unresolved shape")
	// ErrInconsistentGraph marks an edge whose endpoint has no live shape.
	ErrInconsistentGraph = errors.New("inconsistent graph")
	// ErrDuplicateShape marks two source shapes sharing an id.
	ErrDuplicateShape = errors.New("duplicate shape id")
)

// PageError reports why a page was abandoned.
type PageError struct {
	PageID   int64
	Stage    string
	ShapeID  int64
	HasShape bool
	Err      error
}

func (e *PageError) Error() string {
	if e.HasShape {
		return fmt.Sprintf("page %d: %s: shape %d: %v", e.PageID, e.Stage, e.ShapeID, e.Err)
	}
	return fmt.Sprintf("page %d: %s: %v", e.PageID, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// shapeError ties a failure to the shape that triggered it.
type shapeError struct {
	id  int64
	err error
}

func (e *shapeError) Error() string { return fmt.Sprintf("shape %d: %v", e.id, e.err) }
func (e *shapeError) Unwrap() error { return e.err }

func failShape(id int64, err error) error {
	return &shapeError{id: id, err: err}
}

func newPageError(pageID int64, stage string, err error) *PageError {
	pe := &PageError{PageID: pageID, Stage: stage, Err: err}
	var se *shapeError
	if errors.As(err, &se) {
		pe.ShapeID = se.id
		pe.HasShape = true
		pe.Err = se.err
	}
	return pe
}
