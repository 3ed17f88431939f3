package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "passages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "passages", "babbage.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(base), "secret.txt"), []byte("x"), 0o644))

	s, err := NewDirStore(base)
	require.NoError(t, err)

	f, mod, err := s.Open("/passages/babbage.png")
	require.NoError(t, err)
	defer f.Close()
	body, _ := io.ReadAll(f)
	assert.Equal(t, "png", string(body))
	assert.False(t, mod.IsZero())

	for _, key := range []string{"", "passages", "missing.png", "../secret.txt", "passages/../../secret.txt"} {
		_, _, err := s.Open(key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}

	_, err = NewDirStore(filepath.Join(base, "passages", "babbage.png"))
	assert.Error(t, err)
}
