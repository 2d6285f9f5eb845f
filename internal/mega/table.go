package mega

import (
	"fmt"
	"math"
)

// DefaultColumns is the fixed row width of the mega table.
const DefaultColumns = 3

// Table2D is a rectangular table of integers, stored row-major.
type Table2D [][]int32

// SummedTable holds one sum per row of a Table2D.
type SummedTable []int32

// NewTable builds a rows x columns table filled with 0, 1, 2, ... in
// row-major order. rows == 0 yields an empty, non-nil table.
func NewTable(rows, columns int) (Table2D, error) {
	if rows < 0 || columns < 1 {
		return nil, fmt.Errorf("%w: %d rows x %d columns", ErrShape, rows, columns)
	}
	// Row counts travel as int32.
	if rows > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d rows exceed int32", ErrShape, rows)
	}
	if int64(rows)*int64(columns) > math.MaxInt32+1 {
		return nil, fmt.Errorf("%w: %d cells exceed int32 counter", ErrShape, int64(rows)*int64(columns))
	}

	t := make(Table2D, rows)
	var counter int32
	for i := range t {
		t[i] = make([]int32, columns)
		for j := range t[i] {
			t[i][j] = counter
			counter++
		}
	}
	return t, nil
}

// Clone returns a deep copy of t.
func (t Table2D) Clone() Table2D {
	if t == nil {
		return nil
	}
	out := make(Table2D, len(t))
	for i, row := range t {
		out[i] = append([]int32(nil), row...)
	}
	return out
}

// CheckShape verifies that t has at least n rows and that each of the first
// n rows is exactly columns wide.
func (t Table2D) CheckShape(n, columns int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative row count %d", ErrShape, n)
	}
	if len(t) < n {
		return fmt.Errorf("%w: need %d rows, have %d", ErrShape, n, len(t))
	}
	for i := 0; i < n; i++ {
		if len(t[i]) != columns {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(t[i]), columns)
		}
	}
	return nil
}

// RowSums sums each of the first n rows. The table must already satisfy
// CheckShape for n.
func (t Table2D) RowSums(n int) (SummedTable, error) {
	sums := make(SummedTable, n)
	for i := 0; i < n; i++ {
		var total int64
		for _, v := range t[i] {
			total += int64(v)
		}
		if total > math.MaxInt32 || total < math.MinInt32 {
			return nil, fmt.Errorf("%w: row %d sums to %d", ErrOverflow, i, total)
		}
		sums[i] = int32(total)
	}
	return sums, nil
}

// Clone returns a copy of s.
func (s SummedTable) Clone() SummedTable {
	if s == nil {
		return nil
	}
	return append(SummedTable(nil), s...)
}
