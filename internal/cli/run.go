package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/mega/internal/contestant"
	"github.com/roach88/mega/internal/engine"
	"github.com/roach88/mega/internal/problem"
	"github.com/roach88/mega/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Problem    string
	Rows       int
	Contestant string
	Database   string
	MaxCalls   int

	// TokenGenerator overrides run token generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.TokenGenerator
}

// RunSummary is the data payload of a JSON run response.
type RunSummary struct {
	RunToken   string `json:"run_token"`
	Problem    string `json:"problem"`
	Contestant string `json:"contestant"`
	Stdout     string `json:"stdout"`
	Events     int    `json:"events"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the driver against a contestant",
		Long: `Run the mega driver once.

The driver prints the solve result with two decimals, builds the table and
hands it to the contestant's encoder. Every collaborator call is recorded;
with --db the run is persisted for trace and replay.

Exit codes:
  0 - Run succeeded
  1 - Run failed (collaborator error, quota exceeded)
  2 - Command error (bad problem file, database not writable, etc.)

Examples:
  mega run
  mega run --problem ./problems/wide.cue --contestant identity
  mega run --db ./mega.db --rows 5 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriver(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Problem, "problem", "", "CUE problem file (default: built-in mega problem)")
	cmd.Flags().IntVar(&opts.Rows, "rows", 0, "override the problem's row count")
	cmd.Flags().StringVar(&opts.Contestant, "contestant", contestant.Reference, fmt.Sprintf("contestant to run %v", contestant.Names()))
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (optional)")
	cmd.Flags().IntVar(&opts.MaxCalls, "max-calls", engine.DefaultMaxCalls, "per-run collaborator call quota")

	return cmd
}

func runDriver(opts *RunOptions, cmd *cobra.Command) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: opts.logLevel(),
	}))

	p := problem.Default()
	if opts.Problem != "" {
		var err error
		if p, err = problem.LoadFile(opts.Problem); err != nil {
			return WrapExitError(ExitCommandError, "failed to load problem", err)
		}
	}
	if cmd.Flags().Changed("rows") {
		if opts.Rows < 0 || opts.Rows > math.MaxInt32 {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --rows %d: must be between 0 and %d", opts.Rows, math.MaxInt32))
		}
		p.Rows = opts.Rows
	}
	if opts.MaxCalls < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --max-calls %d: must be positive", opts.MaxCalls))
	}

	sessOpts := []engine.SessionOption{
		engine.WithLogger(logger),
		engine.WithMaxCalls(opts.MaxCalls),
	}
	if opts.TokenGenerator != nil {
		sessOpts = append(sessOpts, engine.WithTokenGenerator(opts.TokenGenerator))
	}

	if opts.Database != "" {
		logger.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		sessOpts = append(sessOpts, engine.WithStore(st))
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// JSON output carries stdout in the response instead of streaming it.
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		out = nil
	}

	sess := engine.NewSession(sessOpts...)
	res, err := sess.Run(ctx, engine.RunConfig{Problem: p, Contestant: opts.Contestant}, out)
	if res == nil {
		return WrapExitError(ExitCommandError, "failed to start run", err)
	}

	if opts.Format == "json" {
		formatter := newFormatter(opts.RootOptions, cmd)
		summary := RunSummary{
			RunToken:   res.RunToken,
			Problem:    p.Name,
			Contestant: opts.Contestant,
			Stdout:     res.Stdout,
			Events:     len(res.Trace),
		}
		var cliErr *CLIError
		if err != nil {
			cliErr = &CLIError{Code: "E_RUN_FAILED", Message: err.Error()}
		}
		if encErr := formatter.JSON(res.RunToken, summary, cliErr); encErr != nil {
			return encErr
		}
	}

	if err != nil {
		if engine.IsStoreError(err) {
			return WrapExitError(ExitCommandError, "run log failed", err)
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("run %s failed", res.RunToken), err)
	}
	return nil
}
