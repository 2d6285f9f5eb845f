package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/mega/internal/ir"
)

// Event types.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
)

// Event is one entry of a run's timeline. Exactly one of Invocation and
// Completion is set, matching Type.
type Event struct {
	Type       string
	Seq        int64
	Invocation *ir.Invocation
	Completion *ir.Completion
}

// ID returns the content-addressed ID of the event.
func (e Event) ID() string {
	if e.Invocation != nil {
		return e.Invocation.ID
	}
	if e.Completion != nil {
		return e.Completion.ID
	}
	return ""
}

// ReplayRun returns the run's invocations and completions merged into one
// timeline ordered by seq.
func (s *Store) ReplayRun(ctx context.Context, token string) ([]Event, error) {
	invocations, completions, err := s.ReadRun(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", token, err)
	}

	events := make([]Event, 0, len(invocations)+len(completions))
	for i := range invocations {
		events = append(events, Event{Type: EventInvocation, Seq: invocations[i].Seq, Invocation: &invocations[i]})
	}
	for i := range completions {
		events = append(events, Event{Type: EventCompletion, Seq: completions[i].Seq, Completion: &completions[i]})
	}
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Seq < events[b].Seq
	})
	return events, nil
}
