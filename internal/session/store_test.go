package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "work", "primary.deptrack.json")
	store := NewStore()

	s := New(`C:\samples\primary.exe`)
	_, err := s.LoadModule(testModule(), DefaultLoadOptions)
	require.NoError(t, err)
	s.SetSegmentComment(0, "\ndep: original\n")
	s.SetComment(0x9000, "analyst note", false)

	require.NoError(t, store.Save(path, s))

	loaded, err := store.Load(path)
	require.NoError(t, err)

	assert.Equal(t, s.PrimaryPath(), loaded.PrimaryPath())
	assert.Equal(t, s.SegmentCount(), loaded.SegmentCount())
	assert.Equal(t, s.Functions(), loaded.Functions())
	assert.Equal(t, s.ImportModules(), loaded.ImportModules())

	text, ok := loaded.SegmentComment(0)
	require.True(t, ok)
	assert.Equal(t, "\ndep: original\n", text)

	note, ok := loaded.Comment(0x9000)
	require.True(t, ok)
	assert.Equal(t, "analyst note", note)
}

func TestStore_LoadNotFound(t *testing.T) {
	store := NewStore()

	_, err := store.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_SchemaVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	doc := map[string]any{"schema_version": CurrentSchemaVersion + 1}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = NewStore().Load(path)
	assert.ErrorIs(t, err, ErrSchemaVersionMismatch)
}

func TestStore_CollisionCounterSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore()

	s := New("primary.exe")
	s.AddFunction(0x1000, "Foo", true)
	s.AddFunction(0x2000, "Foo", true)
	require.NoError(t, store.Save(path, s))

	loaded, err := store.Load(path)
	require.NoError(t, err)

	// A reloaded session must not reuse a taken name.
	assert.Equal(t, "Foo_1", loaded.AddFunction(0x3000, "Foo", true))
}

func TestStore_EmptySessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore()

	require.NoError(t, store.Save(path, New("p.exe")))
	loaded, err := store.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, loaded.SegmentCount())
	assert.Empty(t, loaded.Functions())
}
