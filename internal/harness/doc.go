// Package harness runs mega conformance scenarios.
//
// A scenario runs the driver once against a contestant, in a fresh in-memory
// store with a deterministic clock and a fixed run token, then checks the
// captured stdout, the run error and a list of assertions over the call
// trace and the stored run.
//
// # Scenario Format
//
//	name: reference_roundtrip
//	description: "Reference contestant doubles on encode and decode"
//	problem: ../problems/mega.cue   # optional, relative to the scenario file
//	contestant: reference            # optional, default reference
//	rows: 3                          # optional override
//	max_calls: 64                    # optional call quota
//	run_token: test-run-001          # optional, default test-run-default
//	expect:
//	  stdout: "10.00\n12\n48\n84\n"
//	  error: ""                      # substring of the expected run error
//	assertions:
//	  - type: trace_contains
//	    action: Main.send
//	    args: { count: 3 }
//	    outcome: ok
//	  - type: trace_order
//	    actions: [Types.solve, Encoder.encode, Main.send]
//	  - type: trace_count
//	    action: Main.output
//	    count: 1
//	  - type: final_state
//	    table: runs
//	    where: { token: test-run-001 }
//	    expect: { status: ok }
//
// Traces are compared against golden files with RunWithGolden. Snapshots are
// canonical JSON, so any change in argument values, call order or seq
// numbering shows up as a golden diff.
package harness
