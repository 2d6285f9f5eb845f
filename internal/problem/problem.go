// Package problem loads mega problem definitions written in CUE.
//
// A problem file has a single top-level "problem" struct:
//
//	problem: {
//		name:    "mega"
//		rows:    3
//		columns: 3
//		solve: {a: 1, b: 2, c: -3, d: 4.25, e: 5.75}
//	}
//
// Every field is optional; omitted fields take the mega defaults. The value
// is unified with the embedded #Problem schema and out-of-range values are
// rejected with CUE positions.
package problem

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mega/internal/mega"
)

//go:embed schema.cue
var schemaSrc string

// Problem configures one driver run.
type Problem struct {
	Name    string
	Rows    int
	Columns int
	Inputs  mega.Inputs
}

// Default returns the built-in mega problem.
func Default() Problem {
	return Problem{
		Name:    "mega",
		Rows:    mega.DefaultRows,
		Columns: mega.DefaultColumns,
		Inputs:  mega.DefaultInputs(),
	}
}

// LoadFile reads and compiles a problem file.
func LoadFile(path string) (Problem, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Problem{}, fmt.Errorf("read problem: %w", err)
	}
	return Compile(src, path)
}

// Compile parses src as CUE and validates it against the problem schema.
// filename is only used in error positions.
func Compile(src []byte, filename string) (Problem, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Problem{}, fmt.Errorf("problem schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Problem{}, formatCUEError(err)
	}

	pv := v.LookupPath(cue.ParsePath("problem"))
	if !pv.Exists() {
		return Problem{}, &CompileError{
			Field:   "problem",
			Message: "top-level problem struct is required",
			Pos:     v.Pos(),
		}
	}

	unified := schema.LookupPath(cue.ParsePath("#Problem")).Unify(pv)
	if err := unified.Validate(); err != nil {
		return Problem{}, formatCUEError(err)
	}

	return decode(unified)
}

func decode(v cue.Value) (Problem, error) {
	var p Problem
	var err error

	if p.Name, err = lookupString(v, "name"); err != nil {
		return Problem{}, err
	}

	rows, err := lookupInt(v, "rows")
	if err != nil {
		return Problem{}, err
	}
	columns, err := lookupInt(v, "columns")
	if err != nil {
		return Problem{}, err
	}
	p.Rows, p.Columns = int(rows), int(columns)

	a, err := lookupInt(v, "solve.a")
	if err != nil {
		return Problem{}, err
	}
	b, err := lookupInt(v, "solve.b")
	if err != nil {
		return Problem{}, err
	}
	c, err := lookupInt(v, "solve.c")
	if err != nil {
		return Problem{}, err
	}
	d, err := lookupFloat(v, "solve.d")
	if err != nil {
		return Problem{}, err
	}
	if math.Abs(d) > math.MaxFloat32 {
		return Problem{}, &CompileError{
			Field:   "solve.d",
			Message: fmt.Sprintf("%v does not fit in float32", d),
			Pos:     v.LookupPath(cue.ParsePath("solve.d")).Pos(),
		}
	}
	e, err := lookupFloat(v, "solve.e")
	if err != nil {
		return Problem{}, err
	}

	p.Inputs = mega.Inputs{A: int16(a), B: int32(b), C: c, D: float32(d), E: e}
	return p, nil
}

// field resolves path, applying the schema default when the file left it out.
func field(v cue.Value, path string) (cue.Value, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return cue.Value{}, &CompileError{
			Field:   path,
			Message: "field is required",
			Pos:     v.Pos(),
		}
	}
	if dv, ok := fv.Default(); ok {
		return dv, nil
	}
	return fv, nil
}

func lookupString(v cue.Value, path string) (string, error) {
	fv, err := field(v, path)
	if err != nil {
		return "", err
	}
	s, err := fv.String()
	if err != nil {
		return "", fieldError(path, fv, err)
	}
	return s, nil
}

func lookupInt(v cue.Value, path string) (int64, error) {
	fv, err := field(v, path)
	if err != nil {
		return 0, err
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, fieldError(path, fv, err)
	}
	return n, nil
}

func lookupFloat(v cue.Value, path string) (float64, error) {
	fv, err := field(v, path)
	if err != nil {
		return 0, err
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, fieldError(path, fv, err)
	}
	return f, nil
}

// CompileError is a problem definition error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldError(path string, v cue.Value, err error) error {
	return &CompileError{
		Field:   path,
		Message: err.Error(),
		Pos:     v.Pos(),
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
