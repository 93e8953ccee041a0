// Package pipeline converts a loosely typed delimited file into the numeric
// matrix format read by the clustering programs.
//
// A conversion runs through fixed states:
//
//	reading-header -> ingesting-rows -> imputing -> (scaling) -> sampling -> writing -> done
//
// Scaling is skipped unless requested. Any error aborts the run and no
// output file is created before the writing state.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/cheggaaa/pb.v1"

	"convertdata/dataset"
	"convertdata/impute"
	"convertdata/matrix"
	"convertdata/sample"
	"convertdata/scale"
	"convertdata/token"
)

// State is a step of a conversion.
type State int

const (
	ReadingHeader State = iota
	IngestingRows
	Imputing
	Scaling
	Sampling
	Writing
	Done
)

var stateNames = [...]string{
	ReadingHeader: "reading-header",
	IngestingRows: "ingesting-rows",
	Imputing:      "imputing",
	Scaling:       "scaling",
	Sampling:      "sampling",
	Writing:       "writing",
	Done:          "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Result describes a finished conversion.
type Result struct {
	Output  string    // path of the written matrix
	Names   []string  // kept column names, in output order
	Rows    int       // rows ingested
	Written int       // rows written
	Means   []float64 // per column mean used for imputation
}

// Converter runs conversions for one set of options.
type Converter struct {
	opts         Options
	classifier   *token.Classifier
	standardizer scale.Standardizer
	sampler      sample.Sampler
	log          zerolog.Logger
	stdout       io.Writer
	stderr       io.Writer
	onState      func(State)
}

// New returns a converter for opts.
func New(opts Options, options ...Option) *Converter {
	c := &Converter{
		opts:         opts,
		standardizer: scale.ZScore{},
		log:          zerolog.Nop(),
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
	for _, o := range options {
		o(c)
	}
	if c.opts.Exclude == nil {
		c.opts.Exclude = dataset.ExclusionSet{}
	}
	if c.classifier == nil {
		c.classifier = token.NewClassifier(token.DefaultVocabulary())
	}
	if c.sampler == nil {
		src := sample.NewSource(c.opts.Seed)
		if c.opts.Unique {
			c.sampler = sample.WithoutReplacement(src)
		} else {
			c.sampler = sample.WithReplacement(src)
		}
	}
	return c
}

// Run converts the input file and writes the output matrix.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	ds, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}

	c.enter(Imputing)
	means := impute.Dataset(ds)
	c.log.Debug().Floats64("means", means).Msg("imputed missing values")

	if c.opts.Scale {
		c.enter(Scaling)
		scale.Apply(ds, c.standardizer)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "conversion interrupted")
	}

	c.enter(Sampling)
	rows := sample.Select(ds.Rows, c.opts.Samples, c.sampler)
	c.log.Debug().Int("available", ds.Len()).Int("selected", len(rows)).Msg("sampled rows")

	c.enter(Writing)
	name := OutputName(c.opts.Input, c.opts.Samples, c.opts.Scale)
	out := filepath.Join(c.opts.OutputDir, name)
	if err := matrix.WriteFile(out, rows); err != nil {
		return nil, errors.Wrapf(err, "write %s", out)
	}
	if c.opts.Describe {
		c.describe(rows, ds.Names)
	}
	fmt.Fprintf(c.stdout, "Data has been written in the file: %s\n", out)

	c.enter(Done)
	c.log.Info().
		Str("input", c.opts.Input).
		Str("output", out).
		Int("rows", ds.Len()).
		Int("written", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("conversion finished")

	return &Result{
		Output:  out,
		Names:   ds.Names,
		Rows:    ds.Len(),
		Written: len(rows),
		Means:   means,
	}, nil
}

// Load reads the header and ingests every data row. Missing cells are left
// as dataset.Missing.
func (c *Converter) Load(ctx context.Context) (*dataset.Dataset, error) {
	if err := c.opts.Validate(); err != nil {
		return nil, err
	}

	c.enter(ReadingHeader)
	lines, err := readLines(c.opts.Input)
	if err != nil {
		return nil, err
	}
	header := lines[0]
	if strings.TrimSpace(header) == "" {
		return nil, ErrEmptyInput
	}
	fields := strings.Split(header, c.opts.Separator)
	kept, err := c.opts.Exclude.Keep(len(fields))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(kept))
	for i, idx := range kept {
		names[i] = strings.TrimSpace(fields[idx])
	}
	fmt.Fprintf(c.stdout, "The variables kept from this file are: %s\n", strings.Join(names, " "))
	c.log.Debug().
		Int("columns", len(fields)).
		Str("excluded", c.opts.Exclude.String()).
		Strs("kept", names).
		Msg("parsed header")

	c.enter(IngestingRows)
	ds, err := c.ingest(ctx, lines[1:], len(fields), kept, names)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, ErrNoRows
	}
	c.log.Debug().Int("rows", ds.Len()).Msg("ingested rows")
	return ds, nil
}

// Preview loads the input and prints every converted row without imputing
// or writing anything. Missing cells print as NaN.
func (c *Converter) Preview(ctx context.Context, w io.Writer) (*dataset.Dataset, error) {
	ds, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := matrix.Write(w, ds.Rows); err != nil {
		return nil, errors.Wrap(err, "preview")
	}
	return ds, nil
}

func (c *Converter) ingest(ctx context.Context, body []string, width int, kept []int, names []string) (*dataset.Dataset, error) {
	var bar *pb.ProgressBar
	if c.opts.Progress {
		bar = pb.New(len(body))
		bar.Output = c.stderr
		bar.SetMaxWidth(80)
		bar.Prefix("Ingesting ")
		bar.Start()
		defer bar.Finish()
	}

	ds := dataset.New(names)
	for i, line := range body {
		if bar != nil {
			bar.Increment()
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "ingestion interrupted")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		// the header is line 1
		lineNo := i + 2
		fields := strings.Split(line, c.opts.Separator)
		if len(fields) != width {
			return nil, &StructuralMismatch{Line: lineNo, Want: width, Got: len(fields)}
		}
		row := make([]float64, len(kept))
		for j, idx := range kept {
			v, err := c.classifier.Classify(fields[idx])
			if err != nil {
				return nil, &LineError{Line: lineNo, Column: idx, Err: err}
			}
			row[j] = v.Cell()
		}
		if err := ds.Append(row); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
	}
	return ds, nil
}

func (c *Converter) describe(rows [][]float64, names []string) {
	summary, err := matrix.Describe(rows, names)
	if err != nil {
		c.log.Warn().Err(err).Msg("cannot describe output")
		return
	}
	fmt.Fprintln(c.stdout, summary)
}

func (c *Converter) enter(s State) {
	c.log.Debug().Str("state", s.String()).Msg("entering state")
	if c.onState != nil {
		c.onState(s)
	}
}

// readLines loads the whole input and splits it into lines without their
// terminators.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	text := strings.TrimPrefix(string(b), "\uFEFF")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}
