// Package dataset holds the in-memory table produced by the converter.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Missing is the transient cell marker for a value that is not known yet.
// It only lives between ingestion and imputation.
var Missing = math.NaN()

// IsMissing reports whether v is the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// ErrNoColumns is returned when the exclusion set removes every column.
var ErrNoColumns = errors.New("no column left after exclusions")

// Dataset is an ordered list of rows of identical width.
type Dataset struct {
	Names []string
	Rows  [][]float64
}

// New returns an empty dataset for the kept column names.
func New(names []string) *Dataset {
	return &Dataset{Names: names}
}

// Width returns the number of kept columns.
func (d *Dataset) Width() int {
	return len(d.Names)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Append adds a row. The row must match the dataset width.
func (d *Dataset) Append(row []float64) error {
	if len(row) != d.Width() {
		return errors.Errorf("row has %d cells, want %d", len(row), d.Width())
	}
	d.Rows = append(d.Rows, row)
	return nil
}

// Column copies column j out of the dataset.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		col[i] = row[j]
	}
	return col
}

// SetColumn overwrites column j in place.
func (d *Dataset) SetColumn(j int, col []float64) {
	for i, row := range d.Rows {
		row[j] = col[i]
	}
}

// Columns returns the dataset in column-major order.
func (d *Dataset) Columns() [][]float64 {
	cols := make([][]float64, d.Width())
	for j := range cols {
		cols[j] = d.Column(j)
	}
	return cols
}

// HasMissing reports whether any cell still holds the missing marker.
func (d *Dataset) HasMissing() bool {
	for _, row := range d.Rows {
		for _, v := range row {
			if IsMissing(v) {
				return true
			}
		}
	}
	return false
}

// Dense copies the rows into a gonum matrix. It returns nil for an empty
// dataset since gonum does not allow zero-sized matrices.
func (d *Dataset) Dense() *mat.Dense {
	return Dense(d.Rows)
}

// Dense copies rows into a gonum matrix, or returns nil when rows is empty.
func Dense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

// ExclusionSet is a set of zero-based column indices of the original header.
type ExclusionSet map[int]struct{}

// ExclusionError reports an exclusion entry that cannot be used.
type ExclusionError struct {
	Entry  string
	Reason string
}

func (e *ExclusionError) Error() string {
	return fmt.Sprintf("invalid excluded column %q: %s", e.Entry, e.Reason)
}

// ParseExclusions parses a semicolon separated list such as "0;3;4".
// An empty string gives an empty set.
func ParseExclusions(s string) (ExclusionSet, error) {
	set := make(ExclusionSet)
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, &ExclusionError{Entry: part, Reason: "not an integer"}
		}
		if idx < 0 {
			return nil, &ExclusionError{Entry: part, Reason: "negative index"}
		}
		set[idx] = struct{}{}
	}
	return set, nil
}

// Contains reports whether idx is excluded.
func (s ExclusionSet) Contains(idx int) bool {
	_, ok := s[idx]
	return ok
}

// Sorted returns the excluded indices in ascending order.
func (s ExclusionSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for idx := range s {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// String renders the set the way it is given on the command line.
func (s ExclusionSet) String() string {
	parts := make([]string, 0, len(s))
	for _, idx := range s.Sorted() {
		parts = append(parts, strconv.Itoa(idx))
	}
	return strings.Join(parts, ";")
}

// Keep resolves the kept original indices for a header of the given width.
// The position of a kept column in every output row is its rank in the
// returned slice.
func (s ExclusionSet) Keep(width int) ([]int, error) {
	for _, idx := range s.Sorted() {
		if idx >= width {
			return nil, &ExclusionError{
				Entry:  strconv.Itoa(idx),
				Reason: fmt.Sprintf("header has %d columns", width),
			}
		}
	}
	kept := make([]int, 0, width)
	for i := 0; i < width; i++ {
		if !s.Contains(i) {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoColumns
	}
	return kept, nil
}
