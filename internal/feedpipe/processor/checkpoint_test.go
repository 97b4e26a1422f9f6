package processor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcCkptRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processor.ckpt")

	ck, err := NewFileCheckpoint(path)
	require.NoError(t, err)

	_, ok, err := ck.Load()
	require.NoError(t, err)
	require.False(t, ok)

	want := ProcCkpt{
		Offsets:      map[int32]int64{0: 17, 3: 9000},
		LastTsMillis: 1700000000456,
	}
	require.NoError(t, ck.Save(want))

	got, ok, err := ck.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestProcCkptNilOffsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processor.ckpt")

	ck, err := NewFileCheckpoint(path)
	require.NoError(t, err)
	require.NoError(t, ck.Save(ProcCkpt{LastTsMillis: 1}))

	got, ok, err := ck.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.Offsets)
	require.Empty(t, got.Offsets)
}

func TestProcCkptCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processor.ckpt")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	ck, err := NewFileCheckpoint(path)
	require.NoError(t, err)

	_, ok, err := ck.Load()
	require.Error(t, err)
	require.False(t, ok)
}
