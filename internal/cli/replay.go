package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/mega/internal/engine"
	"github.com/roach88/mega/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - specific run only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs          []*engine.ReplayReport `json:"runs"`
	TotalRuns     int                    `json:"total_runs"`
	AllReproduced bool                   `json:"all_reproduced"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded runs and verify determinism",
		Long: `Re-execute recorded runs in memory and compare them with the log.

Each run is replayed with its stored problem, contestant and run token. A
replay matches when stdout and every invocation and completion ID are
reproduced exactly.

Exit codes:
  0 - All runs reproduced
  1 - At least one run diverged
  2 - Command error (database not found, unknown run, etc.)

Examples:
  mega replay --db ./mega.db
  mega replay --db ./mega.db --run 0192f0c4-...
  mega replay --db ./mega.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "replay a specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: opts.logLevel(),
	}))

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	tokens, err := replayTokens(ctx, st, opts.RunToken)
	if err != nil {
		return err
	}

	result := ReplayResult{
		Runs:          make([]*engine.ReplayReport, 0, len(tokens)),
		TotalRuns:     len(tokens),
		AllReproduced: true,
	}

	var mismatch error
	for _, token := range tokens {
		report, err := engine.Replay(ctx, st, token, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", token), err)
		}
		result.Runs = append(result.Runs, report)
		if err := report.Err(); err != nil {
			result.AllReproduced = false
			mismatch = errors.Join(mismatch, err)
		}
	}

	if opts.Format == "json" {
		var cliErr *CLIError
		if mismatch != nil {
			cliErr = &CLIError{Code: "E_REPLAY_MISMATCH", Message: mismatch.Error()}
		}
		formatter := newFormatter(opts.RootOptions, cmd)
		if err := formatter.JSON(opts.RunToken, result, cliErr); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result, opts.Verbose)
	}

	if mismatch != nil {
		return WrapExitError(ExitFailure, "replay diverged", mismatch)
	}
	return nil
}

func replayTokens(ctx context.Context, st *store.Store, token string) ([]string, error) {
	if token != "" {
		if _, err := st.GetRun(ctx, token); err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				return nil, NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", token))
			}
			return nil, WrapExitError(ExitCommandError, "failed to read run", err)
		}
		return []string{token}, nil
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	tokens := make([]string, len(runs))
	for i, r := range runs {
		tokens[i] = r.Token
	}
	return tokens, nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) {
	w := cmd.OutOrStdout()

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}

	for _, r := range result.Runs {
		if r.OK() {
			fmt.Fprintf(w, "✓ %s (%d events)\n", r.RunToken, r.StoredEvents)
			continue
		}
		fmt.Fprintf(w, "✗ %s (stored %d, replayed %d events)\n", r.RunToken, r.StoredEvents, r.ReplayedEvents)
		if !r.StdoutMatch {
			fmt.Fprintln(w, "  stdout differs")
		}
		for _, m := range r.Mismatches {
			if !verbose {
				fmt.Fprintf(w, "  %d event(s) diverged, first at index %d\n", len(r.Mismatches), m.Index)
				break
			}
			fmt.Fprintf(w, "  [%d] stored %s, replayed %s\n", m.Index, orNone(m.StoredID), orNone(m.ReplayedID))
		}
	}

	fmt.Fprintln(w)
	if result.AllReproduced {
		fmt.Fprintf(w, "✓ All %d run(s) reproduced\n", result.TotalRuns)
	} else {
		fmt.Fprintln(w, "✗ Replay diverged")
	}
}

func orNone(id string) string {
	if id == "" {
		return "(none)"
	}
	return truncateID(id)
}
