package engine

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/roach88/mega/internal/contestant"
	"github.com/roach88/mega/internal/mega"
	"github.com/roach88/mega/internal/problem"
	"github.com/roach88/mega/internal/store"
)

// Session runs the driver against a contestant and records the run.
//
// Sessions are reusable; each Run allocates a new run token and a fresh call
// quota, while the clock keeps counting across runs.
type Session struct {
	store    *store.Store
	clock    SeqClock
	tokens   TokenGenerator
	logger   *slog.Logger
	maxCalls int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithStore persists runs to st. Without a store, runs are only traced in
// memory.
func WithStore(st *store.Store) SessionOption {
	return func(s *Session) { s.store = st }
}

// WithClock replaces the session clock.
func WithClock(c SeqClock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithTokenGenerator replaces the run token generator.
func WithTokenGenerator(g TokenGenerator) SessionOption {
	return func(s *Session) { s.tokens = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithMaxCalls sets the per-run call quota.
//
// Default: 64 (DefaultMaxCalls).
func WithMaxCalls(n int) SessionOption {
	return func(s *Session) { s.maxCalls = n }
}

// NewSession creates a session with a fresh Clock and UUIDv7 run tokens.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		clock:    NewClock(),
		tokens:   UUIDv7Generator{},
		logger:   slog.Default(),
		maxCalls: DefaultMaxCalls,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunConfig selects what a run executes.
type RunConfig struct {
	Problem    problem.Problem
	Contestant string
}

// Result is the outcome of one run.
type Result struct {
	RunToken string
	Stdout   string
	Trace    []store.Event
	Err      error
}

// Run executes one driver run. Driver output is captured in Result.Stdout
// and also written to out when out is non-nil.
//
// The returned error is Result.Err. Result is nil only when the run could
// not be started (unknown contestant, store failure writing the header).
func (s *Session) Run(ctx context.Context, cfg RunConfig, out io.Writer) (*Result, error) {
	token := s.tokens.Generate()
	logger := s.logger.With("run", token)

	var stdout bytes.Buffer
	var w io.Writer = &stdout
	if out != nil {
		w = io.MultiWriter(&stdout, out)
	}

	p := cfg.Problem
	driver := mega.NewDriver(w,
		mega.WithRows(p.Rows),
		mega.WithColumns(p.Columns),
		mega.WithInputs(p.Inputs),
		mega.WithLogger(logger),
	)

	rec := NewRecorder(token, s.clock, s.store, NewQuotaEnforcer(s.maxCalls), logger)
	c, err := contestant.New(cfg.Contestant, rec.Host(driver), p.Columns)
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodeUnknownContestant,
			Message: "cannot build contestant",
			Err:     err,
		}
	}
	driver.Bind(rec.Collaborators(c.Collaborators()))

	if s.store != nil {
		err := s.store.WriteRun(context.WithoutCancel(ctx), store.Run{
			Token:      token,
			Problem:    p.Name,
			Contestant: c.Name,
			Rows:       p.Rows,
			Columns:    p.Columns,
			Inputs:     InputsObject(p.Inputs),
			MaxCalls:   s.maxCalls,
		})
		if err != nil {
			return nil, storeError(token, "write run", err)
		}
	}

	logger.Info("run started",
		"problem", p.Name,
		"contestant", c.Name,
		"rows", p.Rows,
		"columns", p.Columns,
	)

	runErr := driver.Run(ctx)

	res := &Result{
		RunToken: token,
		Stdout:   stdout.String(),
		Trace:    rec.Trace(),
		Err:      runErr,
	}

	status, errText := store.RunOK, ""
	if runErr != nil {
		status, errText = store.RunError, runErr.Error()
		logger.Error("run failed", "error", runErr)
	} else {
		logger.Info("run finished", "events", len(res.Trace))
	}

	if s.store != nil {
		if err := s.store.FinishRun(context.WithoutCancel(ctx), token, status, res.Stdout, errText); err != nil {
			if res.Err == nil {
				res.Err = storeError(token, "finish run", err)
			} else {
				logger.Error("finish run", "error", err)
			}
		}
	}

	return res, res.Err
}
