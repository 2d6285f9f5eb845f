package contestant

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mega/internal/mega"
)

func runWith(t *testing.T, name string, opts ...mega.Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	d := mega.NewDriver(&out, opts...)
	c, err := New(name, d, d.Columns())
	require.NoError(t, err)
	d.Bind(c.Collaborators())
	err = d.Run(context.Background())
	return out.String(), err
}

func TestReference_EndToEnd(t *testing.T) {
	out, err := runWith(t, Reference)
	require.NoError(t, err)
	assert.Equal(t, "10.00\n12\n48\n84\n", out)
}

func TestIdentity_EndToEnd(t *testing.T) {
	out, err := runWith(t, Identity)
	require.NoError(t, err)
	assert.Equal(t, "10.00\n3\n12\n21\n", out)
}

func TestReference_ZeroRows(t *testing.T) {
	out, err := runWith(t, Reference, mega.WithRows(0))
	require.NoError(t, err)
	assert.Equal(t, "10.00\n", out)
}

func TestNew_UnknownName(t *testing.T) {
	_, err := New("nobody", nil, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown contestant "nobody"`)
}

func TestNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{Identity, Reference}, Names())
}

func TestSum(t *testing.T) {
	got, err := Sum(context.Background(), 1, 2, -3, 4.25, 5.75)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)
}

func TestSum_PromotionOrder(t *testing.T) {
	tests := []struct {
		name string
		a    int16
		b    int32
		c    int64
		d    float32
		e    float64
		want float64
	}{
		// 2^40+4 has no exact float32 form, so the 4 and the 0.5 are lost.
		{"float32 rounding", 1, 2, 1<<40 + 1, 0.5, 0, 1 << 40},
		{"int32 wrap", 1, math.MaxInt32, 0, 0, 0, math.MinInt32},
		{"e added in float64", 0, 0, 0, 0, 0.1, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sum(context.Background(), tt.a, tt.b, tt.c, tt.d, tt.e)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// recordingHost remembers what the contestant sent back.
type recordingHost struct {
	sent   mega.Table2D
	output mega.SummedTable
}

func (h *recordingHost) Send(_ context.Context, _ int32, table mega.Table2D) error {
	h.sent = table
	return nil
}

func (h *recordingHost) Output(_ context.Context, _ int32, values mega.SummedTable) error {
	h.output = values
	return nil
}

func TestReferenceEncoder_DoesNotMutateInput(t *testing.T) {
	host := &recordingHost{}
	c := NewReference(host, 3)
	table := mega.Table2D{{0, 1, 2}, {3, 4, 5}}

	require.NoError(t, c.Encoder.Encode(context.Background(), 2, table))

	assert.Equal(t, mega.Table2D{{0, 2, 4}, {6, 8, 10}}, host.sent)
	assert.Equal(t, mega.Table2D{{0, 1, 2}, {3, 4, 5}}, table)
}

func TestReferenceDecoder_DoesNotMutateInput(t *testing.T) {
	host := &recordingHost{}
	c := NewReference(host, 3)
	sums := mega.SummedTable{6, 24, 42}

	require.NoError(t, c.Decoder.Decode(context.Background(), 3, sums))

	assert.Equal(t, mega.SummedTable{12, 48, 84}, host.output)
	assert.Equal(t, mega.SummedTable{6, 24, 42}, sums)
}

func TestReferenceEncoder_RejectsBadShape(t *testing.T) {
	c := NewReference(&recordingHost{}, 3)
	err := c.Encoder.Encode(context.Background(), 1, mega.Table2D{{1, 2}})
	assert.ErrorIs(t, err, mega.ErrShape)
}

func TestReferenceDecoder_Overflow(t *testing.T) {
	c := NewReference(&recordingHost{}, 3)
	err := c.Decoder.Decode(context.Background(), 1, mega.SummedTable{math.MaxInt32})
	assert.ErrorIs(t, err, mega.ErrOverflow)
}
