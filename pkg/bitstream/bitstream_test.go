package bitstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Take(t *testing.T) {
	testCases := []struct {
		name   string
		data   []byte
		widths []int
		want   []uint64
	}{
		{
			name:   "nibbles",
			data:   []byte{0x12, 0x34},
			widths: []int{4, 4, 4, 4},
			want:   []uint64{1, 2, 3, 4},
		},
		{
			name:   "unaligned within byte",
			data:   []byte{0b10110011},
			widths: []int{3, 5},
			want:   []uint64{0b101, 0b10011},
		},
		{
			name:   "across byte boundary",
			data:   []byte{0xFF, 0x00},
			widths: []int{4, 8, 4},
			want:   []uint64{0xF, 0xF0, 0x0},
		},
		{
			name:   "zero width reads",
			data:   []byte{0xAB},
			widths: []int{0, 8, 0},
			want:   []uint64{0, 0xAB, 0},
		},
		{
			name:   "full 64 bits",
			data:   []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
			widths: []int{64},
			want:   []uint64{0x0102030405060708},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(tc.data)
			for i, n := range tc.widths {
				v, err := r.Take(n)
				require.NoError(t, err)
				assert.Equal(t, tc.want[i], v, "read %d", i)
			}
		})
	}
}

func TestReader_TakeErrors(t *testing.T) {
	r := NewReader([]byte{0xFF})
	_, err := r.Take(9)
	assert.ErrorIs(t, err, ErrEndOfStream)

	_, err = r.Take(65)
	assert.ErrorIs(t, err, ErrBitCount)

	_, err = r.Take(-1)
	assert.ErrorIs(t, err, ErrBitCount)

	// A failed read must not advance the cursor.
	assert.Equal(t, 0, r.Pos())
	v, err := r.Take(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFF), v)
}

func TestReader_TakeBytesUnaligned(t *testing.T) {
	r := NewReader([]byte{0x12, 0x34})

	v, err := r.Take(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	b, err := r.TakeBytes(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x23}, b)

	v, err = r.Take(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), v)
	assert.Equal(t, 0, r.BitsRemaining())
}

func TestReader_TakeBits(t *testing.T) {
	r := NewReader([]byte{0b10100000})
	bits, err := r.TakeBits(3)
	require.NoError(t, err)
	assert.Equal(t, "101", bits.String())
	assert.Equal(t, uint64(0b101), bits.Uint())
	assert.Equal(t, 5, r.BitsRemaining())
}

func TestReader_Rest(t *testing.T) {
	r := NewReader([]byte{0x12, 0x34})
	_, err := r.Take(4)
	require.NoError(t, err)

	_, err = r.Rest()
	assert.ErrorIs(t, err, ErrUnaligned)

	_, err = r.Take(4)
	require.NoError(t, err)
	rest, err := r.Rest()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34}, rest)
	assert.Equal(t, 0, r.BitsRemaining())
}

func TestWriter_PutUint(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.PutUint(1, 4))
	require.NoError(t, w.PutUint(2, 4))
	require.NoError(t, w.PutUint(0x34, 8))

	out, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, out)
	assert.Equal(t, 16, w.Len())
}

func TestWriter_PutUintRange(t *testing.T) {
	w := NewWriter()
	assert.ErrorIs(t, w.PutUint(16, 4), ErrValueRange)
	assert.ErrorIs(t, w.PutUint(1, 0), ErrValueRange)
	assert.ErrorIs(t, w.PutUint(0, 65), ErrBitCount)
	require.NoError(t, w.PutUint(0, 0))
	assert.Equal(t, 0, w.Len())
}

func TestWriter_UnalignedBytes(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.PutUint(5, 3))
	_, err := w.Bytes()
	assert.ErrorIs(t, err, ErrUnaligned)

	require.NoError(t, w.PutUint(0, 5))
	out, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0b10100000}, out)
}

func TestWriter_PutBytesUnaligned(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.PutUint(1, 4))
	w.PutBytes([]byte{0x23})
	require.NoError(t, w.PutUint(4, 4))

	out, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, out)
}

func TestWriter_PutBits(t *testing.T) {
	w := NewWriter()
	w.PutBits(Bits{true, false, true})
	require.NoError(t, w.PutUint(0, 5))
	out, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0b10100000}, out)
}

func TestRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.PutUint(5, 3))
	require.NoError(t, w.PutUint(1000, 10))
	require.NoError(t, w.PutUint(1, 1))
	require.NoError(t, w.PutUint(0xDEAD, 16))
	require.NoError(t, w.PutUint(0, 2))

	out, err := w.Bytes()
	require.NoError(t, err)

	r := NewReader(out)
	for _, c := range []struct {
		n    int
		want uint64
	}{{3, 5}, {10, 1000}, {1, 1}, {16, 0xDEAD}, {2, 0}} {
		v, err := r.Take(c.n)
		require.NoError(t, err)
		assert.Equal(t, c.want, v)
	}
	assert.Equal(t, 0, r.BitsRemaining())
}

func bitsFromString(s string) Bits {
	out := make(Bits, len(s))
	for i, c := range s {
		out[i] = c == '1'
	}
	return out
}

func TestReorderBits(t *testing.T) {
	b := bitsFromString("101100")
	order := []int{1, 3, 5}

	got, err := ReorderBits(b, order)
	require.NoError(t, err)
	assert.Equal(t, bitsFromString("010110"), got)

	back, err := UnreorderBits(got, order)
	require.NoError(t, err)
	assert.Equal(t, b, back)
}

func TestReorderBits_Errors(t *testing.T) {
	b := bitsFromString("1011")

	_, err := ReorderBits(b, []int{4})
	assert.Error(t, err)

	_, err = ReorderBits(b, []int{1, 1})
	assert.Error(t, err)

	got, err := ReorderBits(b, nil)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestReader_Reorder(t *testing.T) {
	order := make([]int, 8)
	for i := range order {
		order[i] = 8 + i
	}
	r := NewReader([]byte{0x12, 0x34})
	r, err := r.Reorder(order)
	require.NoError(t, err)

	v, err := r.Take(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x3412), v)

	// Reordering a partially consumed reader is rejected.
	_, err = r.Reorder(order)
	assert.Error(t, err)
}

func TestWriter_Unreorder(t *testing.T) {
	order := make([]int, 8)
	for i := range order {
		order[i] = 8 + i
	}
	w := NewWriter()
	require.NoError(t, w.PutUint(0x1234, 16))
	w, err := w.Unreorder(order)
	require.NoError(t, err)

	out, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12}, out)
}
