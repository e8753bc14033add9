package framing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khusmann/bydantic/pkg/codec"
)

func TestSimpleFraming_Frame(t *testing.T) {
	kiss := KISS()
	frames := [][]byte{
		{0x01, 0x02, 0x03},
		{0x04, 0x05, 0x06},
	}

	framed, err := kiss.Frame(frames)
	require.NoError(t, err)
	assert.Equal(t, []byte("\xC0\x01\x02\x03\xC0\xC0\x04\x05\x06\xC0"), framed)
}

func TestSimpleFraming_Unframe(t *testing.T) {
	kiss := KISS()
	data := []byte("\xC0\x01\x02\x03\xC0\xC0\x04\x05\x06\xC0")

	frames, remaining, err := kiss.Unframe(data)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x01, 0x02, 0x03}, {0x04, 0x05, 0x06}}, frames)
	assert.Empty(t, remaining)
}

func TestSimpleFraming_UnframeWithRemaining(t *testing.T) {
	kiss := KISS()
	data := []byte("\xC0\x01\x02\x03\xC0\xC0\x04\x05\x06\xC0\xC0\x07\x08")

	frames, remaining, err := kiss.Unframe(data)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x01, 0x02, 0x03}, {0x04, 0x05, 0x06}}, frames)
	assert.Equal(t, []byte{0xC0, 0x07, 0x08}, remaining)
}

func TestSimpleFraming_Escaping(t *testing.T) {
	kiss := KISS()
	frames := [][]byte{
		{0x01, 0x02, 0xC0, 0x03},
		{0x04, 0xDB, 0x05},
	}

	framed, err := kiss.Frame(frames)
	require.NoError(t, err)
	assert.Equal(t, []byte("\xC0\x01\x02\xDB\xDC\x03\xC0\xC0\x04\xDB\xDD\x05\xC0"), framed)

	unframed, remaining, err := kiss.Unframe(framed)
	require.NoError(t, err)
	assert.Equal(t, frames, unframed)
	assert.Empty(t, remaining)
}

func TestSimpleFraming_InvalidEscape(t *testing.T) {
	kiss := KISS()
	_, _, err := kiss.Unframe([]byte("\xC0\x01\x02\xDB\xFF\x03\xC0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid escape sequence")
}

func TestSimpleFraming_MissingEscapeMapping(t *testing.T) {
	broken := SimpleFraming{Delimiter: 0xC0, Escape: 0xDB, EscapeMap: map[byte]byte{}}
	_, err := broken.Frame([][]byte{{0xC0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no escape mapping")
}

func TestFramer_RoundTrip(t *testing.T) {
	foo := codec.MustSchema("Foo",
		codec.F("a", codec.Uint(4)),
		codec.F("b", codec.Uint(4)),
	)
	framer := Framer{Schema: foo, Framing: KISS()}

	rec := foo.MustNew(map[string]any{"a": 1, "b": 2})
	data, err := framer.Encode([]*codec.Record{rec, rec, rec}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("\xC0\x12\xC0\xC0\x12\xC0\xC0\x12\xC0"), data)

	records, remaining, err := framer.DecodeBatch(append(data, 0xC0, 0x12), nil)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, got := range records {
		assert.True(t, got.Equal(rec))
	}
	assert.Equal(t, []byte{0xC0, 0x12}, remaining)
}

func TestFramer_CorruptFrame(t *testing.T) {
	foo := codec.MustSchema("Foo",
		codec.F("magic", codec.LitUint(8, 0xAA)),
	)
	framer := Framer{Schema: foo, Framing: KISS()}

	_, _, err := framer.DecodeBatch([]byte("\xC0\x01\xC0"), nil)
	require.Error(t, err)
	assert.Equal(t, codec.KindLiteralMismatch, codec.KindOf(err))
}
