// Package ir defines the value model used to record driver runs.
//
// Every collaborator call is captured as an Invocation and a Completion whose
// arguments and results are ir Values. Values serialize to canonical JSON
// (RFC 8785 ordering, no HTML escaping, NFC strings), which makes the
// content-addressed IDs stable across runs and replays.
//
// Constraints:
//   - no floats: float inputs and results are recorded as decimal strings
//   - no null
//   - logical clocks (seq) only, never wall-clock timestamps
//
// ir imports nothing internal.
package ir
