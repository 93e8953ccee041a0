// Package scale standardizes dataset columns.
package scale

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"convertdata/dataset"
)

// Standardizer transforms a dataset given in column-major order.
// Implementations return columns of the same shape.
type Standardizer interface {
	Standardize(columns [][]float64) [][]float64
}

// ZScore replaces each value x of a column by (x - mean) / std, using the
// population standard deviation of the column. A column with zero
// deviation is only centered, so it becomes all zeros.
type ZScore struct{}

// Standardize implements Standardizer.
func (ZScore) Standardize(columns [][]float64) [][]float64 {
	out := make([][]float64, len(columns))
	for j, col := range columns {
		if len(col) == 0 {
			out[j] = []float64{}
			continue
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		scaled := make([]float64, len(col))
		copy(scaled, col)
		floats.AddConst(-mean, scaled)
		floats.Scale(1/std, scaled)
		out[j] = scaled
	}
	return out
}

// Apply standardizes d in place with s.
func Apply(d *dataset.Dataset, s Standardizer) {
	cols := s.Standardize(d.Columns())
	for j, col := range cols {
		d.SetColumn(j, col)
	}
}
