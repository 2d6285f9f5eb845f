package mega

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
)

// Inputs are the literal arguments passed to the solver by Run.
type Inputs struct {
	A int16
	B int32
	C int64
	D float32
	E float64
}

// DefaultInputs returns the inputs of the mega problem: 1, 2, -3, 4.25, 5.75.
func DefaultInputs() Inputs {
	return Inputs{A: 1, B: 2, C: -3, D: 4.25, E: 5.75}
}

// DefaultRows is the number of table rows Run builds unless overridden.
const DefaultRows = 3

// Driver runs the mega entry point and serves the host utilities.
// A Driver is not safe for concurrent use.
type Driver struct {
	out     io.Writer
	rows    int
	columns int
	inputs  Inputs
	logger  *slog.Logger
	collab  Collaborators
}

// Option configures a Driver.
type Option func(*Driver)

// WithRows sets the number of rows Run builds.
func WithRows(n int) Option {
	return func(d *Driver) { d.rows = n }
}

// WithColumns sets the row width used by Run and validated by Send.
func WithColumns(n int) Option {
	return func(d *Driver) { d.columns = n }
}

// WithInputs sets the solver inputs used by Run.
func WithInputs(in Inputs) Option {
	return func(d *Driver) { d.inputs = in }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a driver that writes to out.
func NewDriver(out io.Writer, opts ...Option) *Driver {
	d := &Driver{
		out:     out,
		rows:    DefaultRows,
		columns: DefaultColumns,
		inputs:  DefaultInputs(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Bind attaches the external collaborators.
func (d *Driver) Bind(c Collaborators) {
	d.collab = c
}

// Columns returns the row width the driver builds and validates.
func (d *Driver) Columns() int {
	return d.columns
}

// Run prints the formatted solver result, builds the counter table and hands
// it to the encoder. Collaborator errors are returned wrapped.
func (d *Driver) Run(ctx context.Context) error {
	if !d.collab.complete() {
		return ErrUnbound
	}

	in := d.inputs
	result, err := d.collab.Solver.Solve(ctx, in.A, in.B, in.C, in.D, in.E)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	line, err := FormatResult(result)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(d.out, line+"\n"); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("build table: %w", err)
	}
	table, err := NewTable(d.rows, d.columns)
	if err != nil {
		return fmt.Errorf("build table: %w", err)
	}
	d.logger.Debug("table built", "rows", d.rows, "columns", d.columns, "table", fmt.Sprint(table))

	if err := d.collab.Encoder.Encode(ctx, int32(len(table)), table); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Send sums the first n rows of table and hands the sums to the decoder.
// The table is not modified.
func (d *Driver) Send(ctx context.Context, n int32, table Table2D) error {
	if d.collab.Decoder == nil {
		return ErrUnbound
	}
	if err := table.CheckShape(int(n), d.columns); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	d.logger.Debug("send received", "n", n, "table", fmt.Sprint(table[:n]))

	sums, err := table.RowSums(int(n))
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := d.collab.Decoder.Decode(ctx, n, sums); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Output writes the first n values, one per line.
func (d *Driver) Output(ctx context.Context, n int32, values SummedTable) error {
	if n < 0 || int(n) > len(values) {
		return fmt.Errorf("output: %w: need %d values, have %d", ErrShape, n, len(values))
	}

	w := bufio.NewWriter(d.out)
	for _, v := range values[:n] {
		w.WriteString(strconv.FormatInt(int64(v), 10))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// FormatResult renders v with exactly two digits after the decimal point.
func FormatResult(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	return strconv.FormatFloat(v, 'f', 2, 64), nil
}
