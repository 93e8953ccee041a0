// Package matrix reads and writes the plain text matrix format consumed by
// the clustering programs: one row per line, cells separated by a single
// space, no header.
package matrix

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"convertdata/dataset"
)

// Separator is the cell separator of the output format.
const Separator = ' '

// ErrEmpty is returned when a summary is requested for an empty matrix.
var ErrEmpty = errors.New("empty matrix")

// FormatCell renders a cell with the shortest decimal representation that
// parses back to the same value. Exponent notation is only used for
// magnitudes below 1e-4 or from 1e21 on, as fmt does for %v.
func FormatCell(v float64) string {
	return string(AppendCell(nil, v))
}

// AppendCell appends the FormatCell form of v to dst.
func AppendCell(dst []byte, v float64) []byte {
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e21) {
		return strconv.AppendFloat(dst, v, 'e', -1, 64)
	}
	return strconv.AppendFloat(dst, v, 'f', -1, 64)
}

// Write serializes rows to w. Every row, including the last one, ends with
// a newline.
func Write(w io.Writer, rows [][]float64) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)
	for _, row := range rows {
		buf = buf[:0]
		for j, v := range row {
			if j > 0 {
				buf = append(buf, Separator)
			}
			buf = AppendCell(buf, v)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	return errors.Wrap(bw.Flush(), "flush matrix")
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows [][]float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close output")
		}
	}()
	return Write(f, rows)
}

// Read loads a matrix written by Write. Columns are named X0, X1, ...
func Read(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(Separator),
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
	)
	if df.Err != nil {
		return df, errors.Wrap(df.Err, "read matrix")
	}
	return df, nil
}

// ReadFile loads the matrix stored at path.
func ReadFile(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "open matrix")
	}
	defer f.Close()
	return Read(f)
}

// Rows extracts the cells of df row by row.
func Rows(df dataframe.DataFrame) [][]float64 {
	nrow, ncol := df.Dims()
	rows := make([][]float64, nrow)
	for i := range rows {
		rows[i] = make([]float64, ncol)
		for j := 0; j < ncol; j++ {
			rows[i][j] = df.Elem(i, j).Float()
		}
	}
	return rows
}

// Describe summarizes each column of rows (mean, median, stddev, min,
// quartiles, max). names labels the columns and may be nil.
func Describe(rows [][]float64, names []string) (dataframe.DataFrame, error) {
	m := dataset.Dense(rows)
	if m == nil {
		return dataframe.DataFrame{}, ErrEmpty
	}
	df := dataframe.LoadMatrix(m)
	if names != nil {
		if err := df.SetNames(names...); err != nil {
			return df, errors.Wrap(err, "name columns")
		}
	}
	return DescribeFrame(df)
}

// DescribeFrame summarizes an already loaded frame.
func DescribeFrame(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	if nrow, _ := df.Dims(); nrow == 0 {
		return df, ErrEmpty
	}
	summary := df.Describe()
	if summary.Err != nil {
		return summary, errors.Wrap(summary.Err, "describe matrix")
	}
	return summary, nil
}
