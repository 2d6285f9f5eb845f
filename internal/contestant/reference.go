package contestant

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/mega/internal/mega"
)

// NewReference returns the reference contestant. Its encoder doubles every
// cell before sending; its decoder doubles every sum before output.
func NewReference(host mega.Host, columns int) *Contestant {
	return &Contestant{
		Name:    Reference,
		Solver:  mega.SolverFunc(Sum),
		Encoder: &doublingEncoder{host: host, columns: columns},
		Decoder: &doublingDecoder{host: host},
	}
}

type doublingEncoder struct {
	host    mega.Host
	columns int
}

func (e *doublingEncoder) Encode(ctx context.Context, n int32, table mega.Table2D) error {
	if err := table.CheckShape(int(n), e.columns); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	encoded := table.Clone()
	for i := 0; i < int(n); i++ {
		for j := range encoded[i] {
			v, err := double(encoded[i][j])
			if err != nil {
				return fmt.Errorf("encode: cell [%d][%d]: %w", i, j, err)
			}
			encoded[i][j] = v
		}
	}
	return e.host.Send(ctx, n, encoded)
}

type doublingDecoder struct {
	host mega.Host
}

func (d *doublingDecoder) Decode(ctx context.Context, n int32, sums mega.SummedTable) error {
	if n < 0 || int(n) > len(sums) {
		return fmt.Errorf("decode: %w: need %d sums, have %d", mega.ErrShape, n, len(sums))
	}
	decoded := sums.Clone()
	for i := 0; i < int(n); i++ {
		v, err := double(decoded[i])
		if err != nil {
			return fmt.Errorf("decode: sum %d: %w", i, err)
		}
		decoded[i] = v
	}
	return d.host.Output(ctx, n, decoded)
}

func double(v int32) (int32, error) {
	r := int64(v) * 2
	if r > math.MaxInt32 || r < math.MinInt32 {
		return 0, fmt.Errorf("%w: 2 * %d", mega.ErrOverflow, v)
	}
	return int32(r), nil
}
