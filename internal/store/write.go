package store

import (
	"context"
	"fmt"

	"github.com/roach88/mega/internal/ir"
)

// Run statuses.
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunError   = "error"
)

// Run is the stored header of one driver run.
type Run struct {
	Token      string    `json:"token"`
	Problem    string    `json:"problem"`
	Contestant string    `json:"contestant"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	Inputs     ir.Object `json:"inputs"`
	MaxCalls   int       `json:"max_calls"`
	Status     string    `json:"status"`
	Stdout     string    `json:"stdout"`
	Error      string    `json:"error,omitempty"`
}

// WriteRun inserts a run header with status "running". Writing the same
// token twice is a no-op.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	inputs, err := marshalObject(run.Inputs)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(token, problem, contestant, row_count, column_count, inputs, max_calls, status, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.Problem,
		run.Contestant,
		run.Rows,
		run.Columns,
		inputs,
		run.MaxCalls,
		RunRunning,
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// FinishRun records the final status, captured stdout and error text.
func (s *Store) FinishRun(ctx context.Context, token, status, stdout, errText string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, stdout = ?, error = ? WHERE token = ?
	`, status, stdout, errText, token)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", token, ErrRunNotFound)
	}
	return nil
}

// WriteInvocation inserts an invocation. Duplicate IDs are ignored; other
// constraint violations (unknown run token) are returned.
func (s *Store) WriteInvocation(ctx context.Context, inv ir.Invocation) error {
	args, err := marshalObject(inv.Args)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invocations
		(id, run_token, action, args, seq, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		inv.ID,
		inv.RunToken,
		inv.Action,
		args,
		inv.Seq,
		inv.EngineVersion,
		inv.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	return nil
}

// WriteCompletion inserts a completion. Each invocation has at most one
// completion; a second write for the same invocation is ignored.
func (s *Store) WriteCompletion(ctx context.Context, comp ir.Completion) error {
	result, err := marshalObject(comp.Result)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO completions
		(id, invocation_id, outcome, result, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		comp.ID,
		comp.InvocationID,
		comp.Outcome,
		result,
		comp.Seq,
	)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	return nil
}

func marshalObject(obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalObject(data string) (ir.Object, error) {
	if data == "" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := obj.UnmarshalJSON([]byte(data)); err != nil {
		return nil, err
	}
	return obj, nil
}
