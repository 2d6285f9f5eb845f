package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mega/internal/ir"
)

// GetRun returns the run header for token.
func (s *Store) GetRun(ctx context.Context, token string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, problem, contestant, row_count, column_count, inputs, max_calls, status, stdout, error
		FROM runs WHERE token = ?
	`, token)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", token, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", token, err)
	}
	return run, nil
}

// ListRuns returns all runs in insertion order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, problem, contestant, row_count, column_count, inputs, max_calls, status, stdout, error
		FROM runs ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var inputs string
	if err := sc.Scan(
		&run.Token, &run.Problem, &run.Contestant,
		&run.Rows, &run.Columns, &inputs, &run.MaxCalls,
		&run.Status, &run.Stdout, &run.Error,
	); err != nil {
		return Run{}, err
	}
	obj, err := unmarshalObject(inputs)
	if err != nil {
		return Run{}, fmt.Errorf("inputs: %w", err)
	}
	run.Inputs = obj
	return run, nil
}

// ReadRun returns the invocations and completions of a run, each ordered by
// seq. Empty slices are returned for an unknown token.
func (s *Store) ReadRun(ctx context.Context, token string) ([]ir.Invocation, []ir.Completion, error) {
	invocations, err := s.readInvocations(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	completions, err := s.readCompletions(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	return invocations, completions, nil
}

func (s *Store) readInvocations(ctx context.Context, token string) ([]ir.Invocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_token, action, args, seq, engine_version, ir_version
		FROM invocations
		WHERE run_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	invocations := []ir.Invocation{}
	for rows.Next() {
		var inv ir.Invocation
		var args string
		if err := rows.Scan(&inv.ID, &inv.RunToken, &inv.Action, &args, &inv.Seq, &inv.EngineVersion, &inv.IRVersion); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if inv.Args, err = unmarshalObject(args); err != nil {
			return nil, fmt.Errorf("invocation %s args: %w", inv.ID, err)
		}
		invocations = append(invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return invocations, nil
}

func (s *Store) readCompletions(ctx context.Context, token string) ([]ir.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.invocation_id, c.outcome, c.result, c.seq
		FROM completions c
		JOIN invocations i ON c.invocation_id = i.id
		WHERE i.run_token = ?
		ORDER BY c.seq ASC, c.id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	completions := []ir.Completion{}
	for rows.Next() {
		var comp ir.Completion
		var result string
		if err := rows.Scan(&comp.ID, &comp.InvocationID, &comp.Outcome, &result, &comp.Seq); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		if comp.Result, err = unmarshalObject(result); err != nil {
			return nil, fmt.Errorf("completion %s result: %w", comp.ID, err)
		}
		completions = append(completions, comp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return completions, nil
}

// Call is an invocation joined with its completion, if any.
type Call struct {
	InvocationID string    `json:"invocation_id"`
	Action       string    `json:"action"`
	Args         ir.Object `json:"args"`
	Seq          int64     `json:"seq"`
	Completed    bool      `json:"completed"`
	Outcome      string    `json:"outcome,omitempty"`
	Result       ir.Object `json:"result,omitempty"`
	CompletedSeq int64     `json:"completed_seq,omitempty"`
}

// ListCalls returns the calls of a run ordered by invocation seq. When action
// is non-empty only calls to that action are returned.
func (s *Store) ListCalls(ctx context.Context, token, action string) ([]Call, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.action, i.args, i.seq, c.outcome, c.result, c.seq
		FROM invocations i
		LEFT JOIN completions c ON c.invocation_id = i.id
		WHERE i.run_token = ? AND (? = '' OR i.action = ?)
		ORDER BY i.seq ASC, i.id COLLATE BINARY ASC
	`, token, action, action)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		var call Call
		var args string
		var outcome, result sql.NullString
		var compSeq sql.NullInt64
		if err := rows.Scan(&call.InvocationID, &call.Action, &args, &call.Seq, &outcome, &result, &compSeq); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		if call.Args, err = unmarshalObject(args); err != nil {
			return nil, fmt.Errorf("call %s args: %w", call.InvocationID, err)
		}
		if outcome.Valid {
			call.Completed = true
			call.Outcome = outcome.String
			call.CompletedSeq = compSeq.Int64
			if call.Result, err = unmarshalObject(result.String); err != nil {
				return nil, fmt.Errorf("call %s result: %w", call.InvocationID, err)
			}
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	return calls, nil
}
