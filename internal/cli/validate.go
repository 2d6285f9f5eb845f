package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mega/internal/problem"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool             `json:"valid"`
	Problem *ProblemSummary  `json:"problem,omitempty"`
	Error   *ValidationError `json:"error,omitempty"`
}

// ProblemSummary describes a valid problem definition.
type ProblemSummary struct {
	Name    string  `json:"name"`
	Rows    int     `json:"rows"`
	Columns int     `json:"columns"`
	A       int16   `json:"a"`
	B       int32   `json:"b"`
	C       int64   `json:"c"`
	D       float32 `json:"d"`
	E       float64 `json:"e"`
}

// ValidationError locates a problem definition error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <problem.cue>",
		Short: "Validate a problem definition",
		Long: `Compile a CUE problem definition against the problem schema without
running it. Reports the first error with its source position.

Exit codes:
  0 - Problem is valid
  1 - Problem is invalid
  2 - Command error (file not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("problem file not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "problem file not found", err)
	}

	formatter.VerboseLog("Compiling %s", path)
	p, err := problem.LoadFile(path)
	if err != nil {
		return outputValidationError(formatter, toValidationError(err))
	}

	summary := &ProblemSummary{
		Name:    p.Name,
		Rows:    p.Rows,
		Columns: p.Columns,
		A:       p.Inputs.A,
		B:       p.Inputs.B,
		C:       p.Inputs.C,
		D:       p.Inputs.D,
		E:       p.Inputs.E,
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Problem: summary})
	}
	fmt.Fprintf(formatter.Writer, "✓ Problem %s valid (%d x %d)\n", p.Name, p.Rows, p.Columns)
	return nil
}

func toValidationError(err error) *ValidationError {
	var ce *problem.CompileError
	if !errors.As(err, &ce) {
		return &ValidationError{Field: "problem", Message: err.Error()}
	}
	ve := &ValidationError{Field: ce.Field, Message: ce.Message}
	if ce.Pos.IsValid() {
		ve.File = ce.Pos.Filename()
		ve.Line = ce.Pos.Line()
		ve.Column = ce.Pos.Column()
	}
	return ve
}

func outputValidationError(formatter *OutputFormatter, ve *ValidationError) error {
	if formatter.Format == "json" {
		err := formatter.JSON("", ValidationResult{Valid: false, Error: ve}, &CLIError{
			Code:    "E_PROBLEM",
			Message: ve.Message,
		})
		if err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	if ve.Line > 0 {
		fmt.Fprintf(formatter.Writer, "  %s:%d:%d: %s: %s\n", ve.File, ve.Line, ve.Column, ve.Field, ve.Message)
	} else {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ve.Field, ve.Message)
	}
	return NewExitError(ExitFailure, "validation failed")
}
