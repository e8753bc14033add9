package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khusmann/bydantic/pkg/framing"
)

func TestFrameFiles(t *testing.T) {
	tmpDir := t.TempDir()

	pkt1 := filepath.Join(tmpDir, "pkt1.bin")
	pkt2 := filepath.Join(tmpDir, "pkt2.bin")
	require.NoError(t, os.WriteFile(pkt1, []byte{0x01, 0x02}, 0600))
	require.NoError(t, os.WriteFile(pkt2, []byte{0xC0}, 0600))

	data, err := frameFiles(framing.KISS(), []string{pkt1, pkt2})
	require.NoError(t, err)
	assert.Equal(t, []byte("\xC0\x01\x02\xC0\xC0\xDB\xDC\xC0"), data)

	// Round trip through unframing recovers the packets.
	frames, remaining, err := framing.KISS().Unframe(data)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, []byte{0x01, 0x02}, frames[0])
	assert.Equal(t, []byte{0xC0}, frames[1])
	assert.Empty(t, remaining)
}

func TestFrameFiles_MissingInput(t *testing.T) {
	_, err := frameFiles(framing.KISS(), []string{filepath.Join(t.TempDir(), "missing.bin")})
	require.Error(t, err)
}

func TestWriteFrames(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "packets")
	frames := [][]byte{{0x01}, {0x02, 0x03}}

	require.NoError(t, writeFrames(outDir, frames))

	first, err := os.ReadFile(filepath.Join(outDir, "packet_0000.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, first)

	second, err := os.ReadFile(filepath.Join(outDir, "packet_0001.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x03}, second)
}
