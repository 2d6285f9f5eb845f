// Package store provides SQLite-backed storage for recorded driver runs.
//
// Tables:
//   - runs: one row per run (problem, contestant, shape, stdout, status)
//   - invocations: one row per collaborator or host call
//   - completions: at most one per invocation
//
// All ordering uses the logical seq column, never wall-clock time, so a
// stored run reads back in the order it was recorded. IDs are computed by
// package ir from canonical JSON; writes are idempotent on those IDs.
//
// The database runs in WAL mode with NORMAL synchronous writes, a 5 second
// busy timeout and foreign keys enforced.
package store
