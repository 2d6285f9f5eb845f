package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/mega/internal/ir"
	"github.com/roach88/mega/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - without it, runs are listed
	Action   string // optional - filter to a specific action
}

// TraceResult holds the trace of one run.
type TraceResult struct {
	Run   store.Run    `json:"run"`
	Calls []store.Call `json:"calls"`
	Stats TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for a trace.
type TraceStats struct {
	Calls      int  `json:"calls"`
	Errors     int  `json:"errors"`
	Incomplete int  `json:"incomplete"`
	IsComplete bool `json:"is_complete"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded calls of a run",
		Long: `Show the collaborator calls recorded for a run, in invocation order,
with the outcome of each call.

Without --run, lists the runs stored in the database.

Examples:
  mega trace --db ./mega.db
  mega trace --db ./mega.db --run 0192f0c4-...
  mega trace --db ./mega.db --run 0192f0c4-... --action Decoder.decode
  mega trace --db ./mega.db --run 0192f0c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token to trace")
	cmd.Flags().StringVar(&opts.Action, "action", "", "filter to a specific action")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.RunToken == "" {
		return listRuns(ctx, st, opts, cmd)
	}

	run, err := st.GetRun(ctx, opts.RunToken)
	if errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunToken))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	calls, err := st.ListCalls(ctx, opts.RunToken, opts.Action)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list calls", err)
	}

	result := TraceResult{Run: run, Calls: calls, Stats: traceStats(calls)}

	if opts.Format == "json" {
		formatter := newFormatter(opts.RootOptions, cmd)
		return formatter.JSON(run.Token, result, nil)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func traceStats(calls []store.Call) TraceStats {
	stats := TraceStats{Calls: len(calls)}
	for _, c := range calls {
		switch {
		case !c.Completed:
			stats.Incomplete++
		case c.Outcome == ir.OutcomeError:
			stats.Errors++
		}
	}
	stats.IsComplete = stats.Incomplete == 0
	return stats
}

func listRuns(ctx context.Context, st *store.Store, opts *TraceOptions, cmd *cobra.Command) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		formatter := newFormatter(opts.RootOptions, cmd)
		return formatter.JSON("", runs, nil)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-7s %s/%s rows=%d\n", r.Token, r.Status, r.Problem, r.Contestant, r.Rows)
	}
	return nil
}

// outputTraceText outputs the trace as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	run := result.Run
	fmt.Fprintf(w, "Trace for Run: %s\n", run.Token)
	fmt.Fprintf(w, "Problem: %s (%d x %d), contestant %s\n", run.Problem, run.Rows, run.Columns, run.Contestant)
	fmt.Fprintf(w, "Status: %s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Calls ===")
	if len(result.Calls) == 0 {
		fmt.Fprintln(w, "  (no calls)")
	}
	for _, c := range result.Calls {
		outcome := "(incomplete)"
		if c.Completed {
			outcome = fmt.Sprintf("-> %s [%d]", c.Outcome, c.CompletedSeq)
		}
		fmt.Fprintf(w, "  [%d] %s %s\n", c.Seq, c.Action, outcome)
		if verbose {
			fmt.Fprintf(w, "       Args: %s\n", formatObject(c.Args))
			if len(c.Result) > 0 {
				fmt.Fprintf(w, "       Result: %s\n", formatObject(c.Result))
			}
			fmt.Fprintf(w, "       ID: %s\n", truncateID(c.InvocationID))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Calls:      %d\n", result.Stats.Calls)
	fmt.Fprintf(w, "  Errors:     %d\n", result.Stats.Errors)
	fmt.Fprintf(w, "  Incomplete: %d\n", result.Stats.Incomplete)

	return nil
}

// formatObject renders an IR object as canonical JSON.
func formatObject(obj ir.Object) string {
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return string(data)
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:16] + "..."
}
