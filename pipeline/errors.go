package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyInput is returned when the input has no header line.
	ErrEmptyInput = errors.New("input file is empty")
	// ErrNoRows is returned when the input has a header but no data.
	ErrNoRows = errors.New("input file has no data rows")
)

// StructuralMismatch reports a data line whose field count differs from the
// header's.
type StructuralMismatch struct {
	Line int
	Want int
	Got  int
}

func (e *StructuralMismatch) Error() string {
	return fmt.Sprintf("line %d: %d fields, header has %d", e.Line, e.Got, e.Want)
}

// LineError locates a field that could not be converted. Column is the
// index in the original header.
type LineError struct {
	Line   int
	Column int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

func (e *LineError) Cause() error { return e.Err }
