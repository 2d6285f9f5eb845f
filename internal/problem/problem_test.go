package problem

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mega/internal/mega"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, "mega", p.Name)
	assert.Equal(t, 3, p.Rows)
	assert.Equal(t, 3, p.Columns)
	assert.Equal(t, mega.DefaultInputs(), p.Inputs)
}

func TestLoadFile_MatchesDefault(t *testing.T) {
	p, err := LoadFile(filepath.Join("testdata", "mega.cue"))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoadFile_Wide(t *testing.T) {
	p, err := LoadFile(filepath.Join("testdata", "wide.cue"))
	require.NoError(t, err)
	assert.Equal(t, Problem{
		Name:    "wide",
		Rows:    2,
		Columns: 5,
		Inputs:  mega.Inputs{A: 10, B: 20, C: 30, D: 0.5, E: 0.25},
	}, p)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read problem")
}

func TestCompile_EmptyStructUsesDefaults(t *testing.T) {
	p, err := Compile([]byte(`problem: {}`), "empty.cue")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestCompile_PartialOverride(t *testing.T) {
	p, err := Compile([]byte(`problem: rows: 0`), "zero.cue")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Rows)
	assert.Equal(t, 3, p.Columns)
	assert.Equal(t, mega.DefaultInputs(), p.Inputs)
}

func TestCompile_IntegerFloatLiterals(t *testing.T) {
	p, err := Compile([]byte(`problem: solve: {d: 4, e: -1}`), "ints.cue")
	require.NoError(t, err)
	assert.Equal(t, float32(4), p.Inputs.D)
	assert.Equal(t, float64(-1), p.Inputs.E)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing problem", `other: 1`},
		{"syntax error", `problem: {`},
		{"negative rows", `problem: rows: -1`},
		{"zero columns", `problem: columns: 0`},
		{"a out of int16", `problem: solve: a: 40000`},
		{"b out of int32", `problem: solve: b: 3000000000`},
		{"rows wrong type", `problem: rows: "three"`},
		{"empty name", `problem: name: ""`},
		{"d out of float32", `problem: solve: d: 1e39`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]byte(tt.src), "bad.cue")
			require.Error(t, err)
		})
	}
}

func TestCompile_MissingProblemIsCompileError(t *testing.T) {
	_, err := Compile([]byte(`other: 1`), "bad.cue")

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "problem", ce.Field)
}

func TestLoadFile_OutOfRange(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "bad_rows.cue"))
	require.Error(t, err)
}

func TestLoadFile_SyntaxErrorCarriesPosition(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "bad_syntax.cue"))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "bad_syntax.cue")
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "rows", Message: "must be >= 0"}
	assert.Equal(t, "rows: must be >= 0", err.Error())
}
