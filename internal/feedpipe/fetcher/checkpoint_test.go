package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fetcher.ckpt")

	ck, err := NewFileCheckpoint(path)
	require.NoError(t, err)

	_, ok, err := ck.Load()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, ck.Save(Ckpt{LastTsMillis: 1700000000123}))

	got, ok, err := ck.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1700000000123), got.LastTsMillis)

	// no stray tmp file after rename
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestFileCheckpointGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetcher.ckpt")
	require.NoError(t, os.WriteFile(path, []byte("not-a-number\n"), 0o644))

	ck, err := NewFileCheckpoint(path)
	require.NoError(t, err)

	_, ok, err := ck.Load()
	require.Error(t, err)
	require.False(t, ok)
}

func TestDecodeHexPayload(t *testing.T) {
	raw, err := decodeHexPayload("0x00ff10")
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0xff, 0x10}, raw)

	raw, err = decodeHexPayload("00ff10")
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0xff, 0x10}, raw)

	_, err = decodeHexPayload("0xzz")
	require.Error(t, err)
}
