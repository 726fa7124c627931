package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600))
	}
}

func TestFindByPrefix_CaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "kernel32.dll", "user32.dll")

	path, ok, err := FindByPrefix(dir, "KERNEL32")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "kernel32.dll"), path)
}

func TestFindByPrefix_NoMatch(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "user32.dll")

	_, ok, err := FindByPrefix(dir, "KERNEL32")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindByPrefix_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "kernel32.dll"), 0o750))
	writeFiles(t, dir, "kernel32.dll.bak")

	path, ok, err := FindByPrefix(dir, "kernel32.dll")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "kernel32.dll.bak"), path)
}

func TestFindByPrefix_MissingDir(t *testing.T) {
	_, _, err := FindByPrefix(filepath.Join(t.TempDir(), "nope"), "a")
	assert.Error(t, err)
}

func TestFindByPrefix_PrefixLongerThanName(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.dll")

	_, ok, err := FindByPrefix(dir, "a.dll.extra")
	require.NoError(t, err)
	assert.False(t, ok)
}
