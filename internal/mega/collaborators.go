package mega

import "context"

// Solver computes the printed result from the five literal inputs.
type Solver interface {
	Solve(ctx context.Context, a int16, b int32, c int64, d float32, e float64) (float64, error)
}

// Encoder receives the generated table from Run.
type Encoder interface {
	Encode(ctx context.Context, n int32, table Table2D) error
}

// Decoder receives the row sums from Send.
type Decoder interface {
	Decode(ctx context.Context, n int32, sums SummedTable) error
}

// Host is the part of the driver that contestant code may call back into.
type Host interface {
	Send(ctx context.Context, n int32, table Table2D) error
	Output(ctx context.Context, n int32, values SummedTable) error
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, a int16, b int32, c int64, d float32, e float64) (float64, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, a int16, b int32, c int64, d float32, e float64) (float64, error) {
	return f(ctx, a, b, c, d, e)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(ctx context.Context, n int32, table Table2D) error

// Encode calls f.
func (f EncoderFunc) Encode(ctx context.Context, n int32, table Table2D) error {
	return f(ctx, n, table)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, n int32, sums SummedTable) error

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, n int32, sums SummedTable) error {
	return f(ctx, n, sums)
}

// Collaborators groups the external functions a Driver depends on.
type Collaborators struct {
	Solver  Solver
	Encoder Encoder
	Decoder Decoder
}

func (c Collaborators) complete() bool {
	return c.Solver != nil && c.Encoder != nil && c.Decoder != nil
}
