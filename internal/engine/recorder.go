package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/mega/internal/ir"
	"github.com/roach88/mega/internal/mega"
	"github.com/roach88/mega/internal/store"
)

// Recorder wraps collaborators and host methods so that every call is logged
// as an invocation before it runs and a completion after it returns.
//
// Calls nest: the encoder calls Send, which calls the decoder, which calls
// Output. Seq numbers therefore read as a call tree, with each completion
// stamped after the completions of the calls it made.
//
// A Recorder belongs to one run and is not safe for concurrent use.
type Recorder struct {
	runToken string
	clock    SeqClock
	store    *store.Store
	quota    *QuotaEnforcer
	logger   *slog.Logger

	trace []store.Event
}

// NewRecorder creates a recorder for runToken. st may be nil, in which case
// events are only kept in memory.
func NewRecorder(runToken string, clock SeqClock, st *store.Store, quota *QuotaEnforcer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		runToken: runToken,
		clock:    clock,
		store:    st,
		quota:    quota,
		logger:   logger,
	}
}

// Trace returns the recorded events in seq order.
func (r *Recorder) Trace() []store.Event {
	return slices.Clone(r.trace)
}

// Collaborators wraps each collaborator in c.
func (r *Recorder) Collaborators(c mega.Collaborators) mega.Collaborators {
	return mega.Collaborators{
		Solver:  &recordingSolver{r: r, next: c.Solver},
		Encoder: &recordingEncoder{r: r, next: c.Encoder},
		Decoder: &recordingDecoder{r: r, next: c.Decoder},
	}
}

// Host wraps the host methods a contestant calls back into.
func (r *Recorder) Host(h mega.Host) mega.Host {
	return &recordingHost{r: r, next: h}
}

// record logs the invocation, runs call and logs the completion. A failed
// call is recorded with outcome "error" and its message, and its error is
// returned unchanged. Once ctx is done no further calls are made or logged.
func (r *Recorder) record(ctx context.Context, action string, args ir.Object, call func() (ir.Object, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: context cancelled: %w", action, err)
	}

	if err := r.quota.Check(r.runToken); err != nil {
		r.logger.Error("call quota exceeded",
			"action", action,
			"steps", r.quota.Current(),
			"limit", r.quota.MaxSteps(),
		)
		return err
	}

	inv := ir.Invocation{
		RunToken:      r.runToken,
		Action:        action,
		Args:          args,
		Seq:           r.clock.Next(),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	id, err := ir.InvocationID(inv.RunToken, inv.Action, inv.Args, inv.Seq)
	if err != nil {
		return fmt.Errorf("record %s: %w", action, err)
	}
	inv.ID = id

	r.logger.Debug("call", "action", action, "seq", inv.Seq, "id", inv.ID)
	r.trace = append(r.trace, store.Event{Type: store.EventInvocation, Seq: inv.Seq, Invocation: &inv})
	if r.store != nil {
		if err := r.store.WriteInvocation(context.WithoutCancel(ctx), inv); err != nil {
			return storeError(r.runToken, "write invocation", err)
		}
	}

	result, callErr := call()

	outcome := ir.OutcomeOK
	if callErr != nil {
		outcome = ir.OutcomeError
		result = ir.Object{"message": ir.String(callErr.Error())}
	}
	comp := ir.Completion{
		InvocationID: inv.ID,
		Outcome:      outcome,
		Result:       result,
		Seq:          r.clock.Next(),
	}
	if comp.ID, err = ir.CompletionID(comp.InvocationID, comp.Outcome, comp.Result, comp.Seq); err != nil {
		return fmt.Errorf("record %s: %w", action, err)
	}

	r.logger.Debug("return", "action", action, "seq", comp.Seq, "outcome", outcome)
	r.trace = append(r.trace, store.Event{Type: store.EventCompletion, Seq: comp.Seq, Completion: &comp})
	if r.store != nil {
		if err := r.store.WriteCompletion(context.WithoutCancel(ctx), comp); err != nil {
			return storeError(r.runToken, "write completion", err)
		}
	}

	return callErr
}

type recordingSolver struct {
	r    *Recorder
	next mega.Solver
}

func (s *recordingSolver) Solve(ctx context.Context, a int16, b int32, c int64, d float32, e float64) (float64, error) {
	args := InputsObject(mega.Inputs{A: a, B: b, C: c, D: d, E: e})
	var v float64
	err := s.r.record(ctx, ActionSolve, args, func() (ir.Object, error) {
		var err error
		if v, err = s.next.Solve(ctx, a, b, c, d, e); err != nil {
			return nil, err
		}
		return ir.Object{"value": ir.String(formatFloat(v, 64))}, nil
	})
	return v, err
}

type recordingEncoder struct {
	r    *Recorder
	next mega.Encoder
}

func (e *recordingEncoder) Encode(ctx context.Context, n int32, table mega.Table2D) error {
	return e.r.record(ctx, ActionEncode, tableArgs(n, table), func() (ir.Object, error) {
		return nil, e.next.Encode(ctx, n, table)
	})
}

type recordingDecoder struct {
	r    *Recorder
	next mega.Decoder
}

func (d *recordingDecoder) Decode(ctx context.Context, n int32, sums mega.SummedTable) error {
	return d.r.record(ctx, ActionDecode, sumsArgs(n, sums), func() (ir.Object, error) {
		return nil, d.next.Decode(ctx, n, sums)
	})
}

type recordingHost struct {
	r    *Recorder
	next mega.Host
}

func (h *recordingHost) Send(ctx context.Context, n int32, table mega.Table2D) error {
	return h.r.record(ctx, ActionSend, tableArgs(n, table), func() (ir.Object, error) {
		return nil, h.next.Send(ctx, n, table)
	})
}

func (h *recordingHost) Output(ctx context.Context, n int32, values mega.SummedTable) error {
	return h.r.record(ctx, ActionOutput, sumsArgs(n, values), func() (ir.Object, error) {
		return nil, h.next.Output(ctx, n, values)
	})
}
