package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFileSystem_ReadWriteRoundTrip(t *testing.T) {
	fs := NewDefaultFileSystem()
	path := filepath.Join(t.TempDir(), "data.bin")

	require.NoError(t, fs.WriteFile(path, []byte("payload"), 0o600))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestDefaultFileSystem_FileExists(t *testing.T) {
	fs := NewDefaultFileSystem()
	dir := t.TempDir()

	exists, err := fs.FileExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = fs.FileExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDefaultFileSystem_Open(t *testing.T) {
	fs := NewDefaultFileSystem()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("abcdef"), 0o600))

	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 3)
	_, err = f.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("cde"), buf)
}

func TestDefaultFileSystem_MkdirAll(t *testing.T) {
	fs := NewDefaultFileSystem()
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, fs.MkdirAll(path, 0o750))

	info, err := os.Lstat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
