package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRunID_UniqueAndWellFormed(t *testing.T) {
	a := GenerateRunID()
	b := GenerateRunID()

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestMultiHandler_FansOut(t *testing.T) {
	var bufA, bufB bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&bufA, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&bufB, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h)

	logger.Info("hello")

	assert.Contains(t, bufA.String(), "hello")
	assert.Empty(t, bufB.String(), "second handler is gated at error level")
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := NewMultiHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&buf, nil)).WithAttrs([]slog.Attr{
		slog.String("run_id", "01ABC"),
	})

	slog.New(h).Info("tagged")

	assert.Contains(t, buf.String(), "run_id=01ABC")
}

func TestOpenRunLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	f, err := openRunLogFile(dir, "01TESTRUNID")
	require.NoError(t, err)
	defer f.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "01TESTRUNID")
	assert.Contains(t, entries[0].Name(), ".json")
}
