package pipeline

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"convertdata/dataset"
	"convertdata/sample"
	"convertdata/scale"
	"convertdata/token"
)

// Defaults of the command surface.
const (
	DefaultSeparator = ","
	DefaultSamples   = 100
)

// Options configures one conversion.
type Options struct {
	Input     string               // file to convert
	Separator string               // field separator, may be longer than one byte
	Exclude   dataset.ExclusionSet // original column indices left out
	Scale     bool                 // standardize columns before sampling
	Samples   int                  // number of rows to emit
	OutputDir string               // directory of the output file
	Seed      uint64               // sampler seed, 0 picks one from the clock
	Unique    bool                 // sample without replacement
	Progress  bool                 // show a progress bar while ingesting
	Describe  bool                 // print a summary of the written matrix
}

// DefaultOptions returns the options used when only an input is given.
func DefaultOptions(input string) Options {
	return Options{
		Input:     input,
		Separator: DefaultSeparator,
		Exclude:   dataset.ExclusionSet{},
		Samples:   DefaultSamples,
		OutputDir: ".",
	}
}

// Validate checks the options before any file is touched.
func (o Options) Validate() error {
	if o.Input == "" {
		return errors.New("no input file")
	}
	if o.Separator == "" {
		return errors.New("empty separator")
	}
	if o.Samples < 0 {
		return errors.Errorf("negative sample count %d", o.Samples)
	}
	return nil
}

// OutputName derives the output file name from the input path:
// an optional "scaled_" prefix, then "n<samples>_", then the input base
// name without its extension, then ".txt".
func OutputName(input string, samples int, scaled bool) string {
	var b strings.Builder
	if scaled {
		b.WriteString("scaled_")
	}
	b.WriteString("n")
	b.WriteString(strconv.Itoa(samples))
	b.WriteString("_")
	base := filepath.Base(input)
	b.WriteString(strings.TrimSuffix(base, filepath.Ext(base)))
	b.WriteString(".txt")
	return b.String()
}

// Option customizes a Converter.
type Option func(*Converter)

// WithClassifier replaces the default token classifier.
func WithClassifier(c *token.Classifier) Option {
	return func(cv *Converter) { cv.classifier = c }
}

// WithStandardizer replaces the default z-score standardizer.
func WithStandardizer(s scale.Standardizer) Option {
	return func(cv *Converter) { cv.standardizer = s }
}

// WithSampler replaces the sampler derived from Seed and Unique.
func WithSampler(s sample.Sampler) Option {
	return func(cv *Converter) { cv.sampler = s }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(cv *Converter) { cv.log = l }
}

// WithStdout sets where the human readable report goes.
func WithStdout(w io.Writer) Option {
	return func(cv *Converter) { cv.stdout = w }
}

// WithStderr sets where the progress bar is drawn.
func WithStderr(w io.Writer) Option {
	return func(cv *Converter) { cv.stderr = w }
}

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(cv *Converter) { cv.onState = fn }
}
