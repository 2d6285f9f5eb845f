// Package engine runs the mega driver against a contestant and records
// every collaborator call.
//
// A Session builds a Driver, wraps the contestant's solver, encoder and
// decoder and the driver's host methods in a Recorder, and runs it. Each
// call becomes an invocation event before it executes and a completion
// event after it returns.
//
// Events are stamped from a logical clock (SeqClock). Wall-clock time is
// never used for ordering, and IDs are content-addressed, so a run replayed
// with the same token and starting seq reproduces the same IDs (see Replay).
//
// A per-run call quota (QuotaEnforcer) stops contestants whose callbacks
// recurse.
package engine
