package amlogic_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mame82/amlboot/amlogic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "u-boot.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestInspectImageCRC(t *testing.T) {
	info := amlogic.InspectImage([]byte("123456789"), amlogic.DropPartial)
	assert.Equal(t, uint16(0x29b1), info.CRC)
	assert.Equal(t, 9, info.Size)
	assert.Equal(t, 0, info.Chunks)
	assert.Equal(t, 9, info.Trailing)
}

func TestInspectImageLayout(t *testing.T) {
	tests := []struct {
		size   int
		policy amlogic.ChunkPolicy
		chunks int
	}{
		{size: 128, policy: amlogic.DropPartial, chunks: 2},
		{size: 130, policy: amlogic.DropPartial, chunks: 2},
		{size: 130, policy: amlogic.PadPartial, chunks: 3},
		{size: 128, policy: amlogic.PadPartial, chunks: 2},
		{size: 10, policy: amlogic.PadPartial, chunks: 1},
	}
	for _, tt := range tests {
		info := amlogic.InspectImage(pattern(tt.size), tt.policy)
		assert.Equal(t, tt.chunks, info.Chunks, "%d bytes, %s", tt.size, tt.policy)
	}
}

func TestReadImage(t *testing.T) {
	img := pattern(200)
	data, info, err := amlogic.ReadImage(writeImage(t, img), amlogic.DropPartial)
	require.NoError(t, err)

	assert.Equal(t, img, data)
	assert.Equal(t, 3, info.Chunks)
	assert.Equal(t, 8, info.Trailing)
	assert.Contains(t, info.String(), "8 trailing bytes (drop)")
}

func TestReadImageErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, _, err := amlogic.ReadImage(filepath.Join(t.TempDir(), "nope.bin"), amlogic.DropPartial)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := amlogic.ReadImage(writeImage(t, nil), amlogic.PadPartial)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no complete 64 byte chunk")
	})

	t.Run("short without padding", func(t *testing.T) {
		_, info, err := amlogic.ReadImage(writeImage(t, pattern(63)), amlogic.DropPartial)
		require.Error(t, err)
		assert.Equal(t, 63, info.Trailing)
	})

	t.Run("short with padding", func(t *testing.T) {
		_, info, err := amlogic.ReadImage(writeImage(t, pattern(63)), amlogic.PadPartial)
		require.NoError(t, err)
		assert.Equal(t, 1, info.Chunks)
	})
}
