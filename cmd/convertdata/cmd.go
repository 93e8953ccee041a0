package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"convertdata/dataset"
	"convertdata/internal/logger"
	"convertdata/matrix"
	"convertdata/pipeline"
)

const syntax = `Syntax: convertdata <file_to_read> [sep] ["except_cols1;except_cols2;..."] [do_scale:0/1] [nb_points]`

type flags struct {
	outputDir string
	seed      uint64
	unique    bool
	progress  bool
	describe  bool
	logLevel  string
	jsonLogs  bool
}

func newRootCmd() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "convertdata <file_to_read> [sep] [except_cols] [do_scale:0/1] [nb_points]",
		Short: "Convert a delimited dataset into a numeric matrix for clustering",
		Long: `convertdata reads a delimited file whose first line is a header, converts
TRUE/FALSE literals to 1/0, fills NA/NaN cells with the mean of their column
(0 when the column has no known value), optionally standardizes every column,
keeps nb_points rows picked at random with replacement and writes them to
[scaled_]n<nb_points>_<input name>.txt, one space separated row per line.`,
		Args:          cobra.MaximumNArgs(5),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(cmd.ErrOrStderr(), f.logLevel, f.jsonLogs)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), syntax)
				return nil
			}
			opts, err := parseArgs(args)
			if err != nil {
				return err
			}
			opts.OutputDir = f.outputDir
			opts.Seed = f.seed
			opts.Unique = f.unique
			opts.Progress = f.progress
			opts.Describe = f.describe

			c := pipeline.New(opts,
				pipeline.WithLogger(logger.Logger()),
				pipeline.WithStdout(cmd.OutOrStdout()),
				pipeline.WithStderr(cmd.ErrOrStderr()),
			)
			if _, err := c.Run(cmd.Context()); err != nil {
				return errors.Wrapf(err, "convert %s", opts.Input)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", ".", "directory the matrix file is written to")
	rootCmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed of the row sampler, 0 seeds from the clock")
	rootCmd.Flags().BoolVar(&f.unique, "unique", false, "sample rows without replacement")
	rootCmd.Flags().BoolVar(&f.progress, "progress", false, "show a progress bar while reading rows")
	rootCmd.Flags().BoolVar(&f.describe, "describe", false, "print summary statistics of the written matrix")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&f.jsonLogs, "json-logs", false, "write logs as JSON lines")

	rootCmd.AddCommand(newPreviewCmd(), newInspectCmd())
	return rootCmd
}

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <file_to_read> [sep] [except_cols]",
		Short: "Print the converted rows without imputing or writing them",
		Long: `preview reads the file like the conversion does and prints every row after
token conversion. Missing cells are shown as NaN. Nothing is written.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseArgs(args)
			if err != nil {
				return err
			}
			c := pipeline.New(opts,
				pipeline.WithLogger(logger.Logger()),
				pipeline.WithStdout(cmd.OutOrStdout()),
			)
			if _, err := c.Preview(cmd.Context(), cmd.OutOrStdout()); err != nil {
				return errors.Wrapf(err, "preview %s", opts.Input)
			}
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <matrix_file>",
		Short: "Summarize a matrix file written by convertdata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := matrix.ReadFile(args[0])
			if err != nil {
				return err
			}
			nrow, ncol := df.Dims()
			summary, err := matrix.DescribeFrame(df)
			if err != nil {
				return errors.Wrapf(err, "inspect %s", args[0])
			}
			return printSummary(cmd.OutOrStdout(), args[0], nrow, ncol, summary)
		},
	}
}

func printSummary(w io.Writer, name string, nrow, ncol int, summary fmt.Stringer) error {
	if _, err := fmt.Fprintf(w, "%s: %d rows, %d columns\n", name, nrow, ncol); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// parseArgs maps the positional arguments onto conversion options:
// input, separator, excluded columns, scaling flag and sample count.
func parseArgs(args []string) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions(args[0])
	if len(args) >= 2 {
		opts.Separator = unescape(args[1])
	}
	if len(args) >= 3 {
		set, err := dataset.ParseExclusions(args[2])
		if err != nil {
			return opts, err
		}
		opts.Exclude = set
	}
	if len(args) >= 4 {
		n, err := strconv.Atoi(args[3])
		if err != nil {
			return opts, errors.Errorf("do_scale must be 0 or 1, got %q", args[3])
		}
		opts.Scale = n != 0
	}
	if len(args) >= 5 {
		n, err := strconv.Atoi(args[4])
		if err != nil {
			return opts, errors.Errorf("nb_points must be an integer, got %q", args[4])
		}
		opts.Samples = n
	}
	return opts, opts.Validate()
}

// unescape turns the separators that are awkward to type in a shell into
// their literal form.
func unescape(sep string) string {
	switch sep {
	case `\t`:
		return "\t"
	case `\s`:
		return " "
	}
	return sep
}
