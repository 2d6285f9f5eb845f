package harness

import (
	"github.com/roach88/mega/internal/ir"
	"github.com/roach88/mega/internal/store"
)

// TraceEvent is one invocation or completion in a scenario trace.
// Completions carry the action of the invocation they complete.
type TraceEvent struct {
	Type      string    `json:"type"` // "invocation" or "completion"
	ActionURI string    `json:"action_uri"`
	Args      ir.Object `json:"args,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Result    ir.Object `json:"result,omitempty"`
	Seq       int64     `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when stdout, error and every assertion matched.
	Pass bool `json:"pass"`

	RunToken string `json:"run_token"`
	Stdout   string `json:"stdout"`

	// RunError is the driver's error text, empty for a successful run.
	RunError string `json:"run_error,omitempty"`

	// Trace contains all invocations and completions in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceFromEvents flattens engine events into trace events, resolving each
// completion's action through its invocation.
func traceFromEvents(events []store.Event) []TraceEvent {
	actions := make(map[string]string, len(events))
	trace := make([]TraceEvent, 0, len(events))

	for _, e := range events {
		switch {
		case e.Invocation != nil:
			actions[e.Invocation.ID] = e.Invocation.Action
			trace = append(trace, TraceEvent{
				Type:      store.EventInvocation,
				ActionURI: e.Invocation.Action,
				Args:      e.Invocation.Args,
				Seq:       e.Seq,
			})
		case e.Completion != nil:
			trace = append(trace, TraceEvent{
				Type:      store.EventCompletion,
				ActionURI: actions[e.Completion.InvocationID],
				Outcome:   e.Completion.Outcome,
				Result:    e.Completion.Result,
				Seq:       e.Seq,
			})
		}
	}
	return trace
}
