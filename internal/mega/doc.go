// Package mega implements the driver side of the mega problem.
//
// The driver prints the solver's result for a fixed set of literal inputs,
// builds a row-major counter table and hands it to an encoder. Two host
// utilities are exposed for contestant code to call back into:
//
//   - Send row-sums a table and hands the sums to the decoder
//   - Output prints values one per line
//
// The solver, encoder and decoder are external collaborators. They are bound
// to a Driver through Bind so the driver can be exercised in isolation:
//
//	d := mega.NewDriver(os.Stdout)
//	d.Bind(mega.Collaborators{
//	    Solver:  mega.SolverFunc(sum),
//	    Encoder: enc,
//	    Decoder: dec,
//	})
//	if err := d.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package mega
