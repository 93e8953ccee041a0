package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convertdata/dataset"
	"convertdata/matrix"
	"convertdata/token"
)

// writeInput stores content under dir and returns its path.
func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestConverter(t *testing.T, opts Options, extra ...Option) (*Converter, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer
	options := append([]Option{WithStdout(&stdout), WithStderr(&bytes.Buffer{})}, extra...)
	return New(opts, options...), &stdout
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

type fixedSampler []int

func (f fixedSampler) Indices(n, k int) []int { return f }

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "mixed.csv", "a,b,c\n1,TRUE,2.0\nNA,FALSE,3.0\n")

	opts := DefaultOptions(in)
	opts.Samples = 2
	opts.OutputDir = dir
	c, stdout := newTestConverter(t, opts)

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "n2_mixed.txt"), res.Output)
	assert.Equal(t, "1 1 2\n1 0 3\n", readOutput(t, res.Output))
	assert.Equal(t, []string{"a", "b", "c"}, res.Names)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, []float64{1, 0.5, 2.5}, res.Means)

	assert.Contains(t, stdout.String(), "The variables kept from this file are: a b c\n")
	assert.Contains(t, stdout.String(), "Data has been written in the file: "+res.Output)
}

func TestRunDefaultSampleCountKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "small.csv", "x,y\n3,4\n1,2\n5,6\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts, WithSampler(fixedSampler{0}))

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "n100_small.txt"), res.Output)
	assert.Equal(t, "3 4\n1 2\n5 6\n", readOutput(t, res.Output))
}

func TestRunSubsampleWithReplacement(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "rows.csv", "v\n10\n20\n30\n40\n")

	opts := DefaultOptions(in)
	opts.Samples = 3
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts, WithSampler(fixedSampler{3, 1, 3}))

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "40\n20\n40\n", readOutput(t, res.Output))
	assert.Equal(t, 3, res.Written)
}

func TestRunSeededSubsample(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("id,sq\n")
	for i := 0; i < 50; i++ {
		b.WriteString(matrix.FormatCell(float64(i)) + "," + matrix.FormatCell(float64(i*i)) + "\n")
	}
	in := writeInput(t, dir, "seq.csv", b.String())

	opts := DefaultOptions(in)
	opts.Samples = 10
	opts.Seed = 1234
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts)

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	df, err := matrix.ReadFile(res.Output)
	require.NoError(t, err)
	rows := matrix.Rows(df)
	require.Len(t, rows, 10)
	for _, row := range rows {
		assert.Equal(t, row[0]*row[0], row[1])
		assert.True(t, row[0] >= 0 && row[0] < 50)
	}
}

func TestRunExclusions(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "people.csv", "name,age,smoker,city\nann,30,true,paris\nbob,NA,False,???\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	opts.Exclude = dataset.ExclusionSet{0: {}, 3: {}}
	c, stdout := newTestConverter(t, opts)

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "smoker"}, res.Names)
	assert.Equal(t, "30 1\n30 0\n", readOutput(t, res.Output))
	assert.Contains(t, stdout.String(), "The variables kept from this file are: age smoker\n")
}

func TestRunScaled(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "s.data.csv", "a;b\n0;7\n2;7\n")

	opts := DefaultOptions(in)
	opts.Separator = ";"
	opts.Scale = true
	opts.Samples = 5
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts)

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "scaled_n5_s.data.txt"), res.Output)
	assert.Equal(t, "-1 0\n1 0\n", readOutput(t, res.Output))
}

func TestRunStates(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "st.csv", "a\n1\n")

	for _, scaled := range []bool{false, true} {
		var states []State
		opts := DefaultOptions(in)
		opts.OutputDir = dir
		opts.Scale = scaled
		c, _ := newTestConverter(t, opts, WithStateHook(func(s State) { states = append(states, s) }))

		_, err := c.Run(context.Background())
		require.NoError(t, err)

		want := []State{ReadingHeader, IngestingRows, Imputing, Sampling, Writing, Done}
		if scaled {
			want = []State{ReadingHeader, IngestingRows, Imputing, Scaling, Sampling, Writing, Done}
		}
		assert.Equal(t, want, states)
	}
}

func TestRunParseErrorAborts(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "bad.csv", "a,b\n1,2\n3,oops\n5,6\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	var states []State
	c, _ := newTestConverter(t, opts, WithStateHook(func(s State) { states = append(states, s) }))

	_, err := c.Run(context.Background())
	require.Error(t, err)

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 3, le.Line)
	assert.Equal(t, 1, le.Column)

	var pe *token.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "oops", pe.Token)

	assert.Equal(t, []State{ReadingHeader, IngestingRows}, states)
	assert.NoFileExists(t, filepath.Join(dir, "n100_bad.txt"))
}

func TestRunStructuralMismatch(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "short.csv", "a,b,c\n1,2,3\n4,5\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts)

	_, err := c.Run(context.Background())

	var sm *StructuralMismatch
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, &StructuralMismatch{Line: 3, Want: 3, Got: 2}, sm)
	assert.Equal(t, "line 3: 2 fields, header has 3", err.Error())
	assert.NoFileExists(t, filepath.Join(dir, "n100_short.txt"))
}

func TestRunEmptyInputs(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "", ErrEmptyInput},
		{"blank-header", "\n1,2\n", ErrEmptyInput},
		{"header-only", "a,b\n", ErrNoRows},
		{"blank-rows", "a,b\n\n  \n", ErrNoRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := writeInput(t, dir, tt.name+".csv", tt.content)
			opts := DefaultOptions(in)
			opts.OutputDir = dir
			c, _ := newTestConverter(t, opts)

			_, err := c.Run(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunBadExclusion(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "ex.csv", "a,b\n1,2\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir

	opts.Exclude = dataset.ExclusionSet{2: {}}
	c, _ := newTestConverter(t, opts)
	_, err := c.Run(context.Background())
	var ee *dataset.ExclusionError
	assert.True(t, errors.As(err, &ee))

	opts.Exclude = dataset.ExclusionSet{0: {}, 1: {}}
	c, _ = newTestConverter(t, opts)
	_, err = c.Run(context.Background())
	assert.ErrorIs(t, err, dataset.ErrNoColumns)
}

func TestRunMissingInput(t *testing.T) {
	opts := DefaultOptions(filepath.Join(t.TempDir(), "absent.csv"))
	c, _ := newTestConverter(t, opts)

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunOverwritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "ow.csv", "a\n1\n")
	stale := writeInput(t, dir, "n100_ow.txt", "9 9 9\n8 8 8\n7 7 7\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stale, res.Output)
	assert.Equal(t, "1\n", readOutput(t, stale))
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "c.csv", "a\n1\n2\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts)

	_, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWindowsLineEndings(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "crlf.csv", "\uFEFFa,b\r\n1,true\r\nnan,FALSE\r\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	c, stdout := newTestConverter(t, opts)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1 1\n1 0\n", readOutput(t, res.Output))
	assert.Contains(t, stdout.String(), "are: a b\n")
}

func TestRunMultiByteSeparator(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "ms.txt", "a::b\n1.5::NA\n2.5::4\n")

	opts := DefaultOptions(in)
	opts.Separator = "::"
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.5 4\n2.5 4\n", readOutput(t, res.Output))
}

func TestRunDescribe(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "d.csv", "alpha,beta\n1,2\n3,4\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	opts.Describe = true
	c, stdout := newTestConverter(t, opts)

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "alpha")
	assert.Contains(t, stdout.String(), "mean")
}

func TestRunProgress(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "p.csv", "a\n1\n2\n3\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	opts.Progress = true
	var stderr bytes.Buffer
	c := New(opts, WithStdout(&bytes.Buffer{}), WithStderr(&stderr))

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "Ingesting")
}

func TestRoundTripThroughConverter(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "rt.csv", "a,b,c\n0.1,true,-3\nNA,false,1e-9\n2.75,NaN,123456789\n")

	opts := DefaultOptions(in)
	opts.OutputDir = dir
	c, _ := newTestConverter(t, opts)
	first, err := c.Run(context.Background())
	require.NoError(t, err)

	written, err := matrix.ReadFile(first.Output)
	require.NoError(t, err)

	back := DefaultOptions(first.Output)
	back.Separator = " "
	back.OutputDir = t.TempDir()
	c2, _ := newTestConverter(t, back)

	// the written file has no header, so its first row becomes the header
	ds, err := c2.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, matrix.Rows(written)[1:], ds.Rows)
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "pv.csv", "a,b\n1,NA\nTRUE,2\n")

	opts := DefaultOptions(in)
	c, stdout := newTestConverter(t, opts)

	var out bytes.Buffer
	ds, err := c.Preview(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, "1 NaN\n1 2\n", out.String())
	assert.True(t, ds.HasMissing())
	assert.True(t, math.IsNaN(ds.Rows[0][1]))
	assert.Contains(t, stdout.String(), "are: a b")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input   string
		samples int
		scaled  bool
		want    string
	}{
		{"mixed.csv", 2, false, "n2_mixed.txt"},
		{"data/iris.csv", 100, false, "n100_iris.txt"},
		{"./data/iris.csv", 50, true, "scaled_n50_iris.txt"},
		{"noext", 7, false, "n7_noext.txt"},
		{"a.b.csv", 1, false, "n1_a.b.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.input, tt.samples, tt.scaled), tt.input)
	}
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions("x.csv").Validate())

	o := DefaultOptions("")
	assert.Error(t, o.Validate())

	o = DefaultOptions("x.csv")
	o.Separator = ""
	assert.Error(t, o.Validate())

	o = DefaultOptions("x.csv")
	o.Samples = -1
	assert.Error(t, o.Validate())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "reading-header", ReadingHeader.String())
	assert.Equal(t, "scaling", Scaling.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "unknown", State(99).String())
}
