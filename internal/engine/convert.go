package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/mega/internal/ir"
	"github.com/roach88/mega/internal/mega"
)

// Action names recorded in the run log.
const (
	ActionSolve  = "Types.solve"
	ActionEncode = "Encoder.encode"
	ActionSend   = "Main.send"
	ActionDecode = "Decoder.decode"
	ActionOutput = "Main.output"
)

// InputsObject converts solver inputs to an IR object. The IR has no floats,
// so d and e are recorded as their shortest decimal strings.
func InputsObject(in mega.Inputs) ir.Object {
	return ir.Object{
		"a": ir.Int(in.A),
		"b": ir.Int(in.B),
		"c": ir.Int(in.C),
		"d": ir.String(formatFloat(float64(in.D), 32)),
		"e": ir.String(formatFloat(in.E, 64)),
	}
}

// ParseInputs is the inverse of InputsObject.
func ParseInputs(obj ir.Object) (mega.Inputs, error) {
	var in mega.Inputs

	a, err := intField(obj, "a", math.MinInt16, math.MaxInt16)
	if err != nil {
		return in, err
	}
	b, err := intField(obj, "b", math.MinInt32, math.MaxInt32)
	if err != nil {
		return in, err
	}
	c, err := intField(obj, "c", math.MinInt64, math.MaxInt64)
	if err != nil {
		return in, err
	}
	d, err := floatField(obj, "d", 32)
	if err != nil {
		return in, err
	}
	e, err := floatField(obj, "e", 64)
	if err != nil {
		return in, err
	}

	in.A, in.B, in.C, in.D, in.E = int16(a), int32(b), c, float32(d), e
	return in, nil
}

func intField(obj ir.Object, key string, lo, hi int64) (int64, error) {
	v, ok := obj[key].(ir.Int)
	if !ok {
		return 0, fmt.Errorf("inputs: %s: expected integer, got %T", key, obj[key])
	}
	if int64(v) < lo || int64(v) > hi {
		return 0, fmt.Errorf("inputs: %s: %d out of range", key, v)
	}
	return int64(v), nil
}

func floatField(obj ir.Object, key string, bitSize int) (float64, error) {
	v, ok := obj[key].(ir.String)
	if !ok {
		return 0, fmt.Errorf("inputs: %s: expected decimal string, got %T", key, obj[key])
	}
	f, err := strconv.ParseFloat(string(v), bitSize)
	if err != nil {
		return 0, fmt.Errorf("inputs: %s: %w", key, err)
	}
	return f, nil
}

func formatFloat(v float64, bitSize int) string {
	return strconv.FormatFloat(v, 'g', -1, bitSize)
}

func tableArgs(n int32, table mega.Table2D) ir.Object {
	rows := make(ir.Array, len(table))
	for i, row := range table {
		cells := make(ir.Array, len(row))
		for j, v := range row {
			cells[j] = ir.Int(v)
		}
		rows[i] = cells
	}
	return ir.Object{"count": ir.Int(n), "table": rows}
}

func sumsArgs(n int32, sums mega.SummedTable) ir.Object {
	values := make(ir.Array, len(sums))
	for i, v := range sums {
		values[i] = ir.Int(v)
	}
	return ir.Object{"count": ir.Int(n), "table": values}
}
