// Package impute fills missing cells with the mean of the known values of
// their column.
//
// Columns are processed independently. A column without any known value is
// filled with 0.
package impute

import (
	"convertdata/dataset"
)

// ColumnStats accumulates the known values of one column.
type ColumnStats struct {
	Count int
	Sum   float64
}

// Add records v unless it is missing.
func (s *ColumnStats) Add(v float64) {
	if dataset.IsMissing(v) {
		return
	}
	s.Count++
	s.Sum += v
}

// Mean returns the mean of the known values, or 0 if there are none.
func (s ColumnStats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Stats scans column col of rows.
func Stats(rows [][]float64, col int) ColumnStats {
	var s ColumnStats
	for _, row := range rows {
		s.Add(row[col])
	}
	return s
}

// Column replaces the missing cells of column col with the column mean and
// returns that mean. Known cells are left untouched.
func Column(rows [][]float64, col int) float64 {
	mean := Stats(rows, col).Mean()
	for _, row := range rows {
		if dataset.IsMissing(row[col]) {
			row[col] = mean
		}
	}
	return mean
}

// Dataset imputes every column of d in place and returns the means used.
func Dataset(d *dataset.Dataset) []float64 {
	means := make([]float64, d.Width())
	for j := range means {
		means[j] = Column(d.Rows, j)
	}
	return means
}
