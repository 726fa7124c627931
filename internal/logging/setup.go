package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	logDirPerm  os.FileMode = 0o750
	logFilePerm os.FileMode = 0o600
)

// ErrInvalidLogLevel is returned for an unrecognized level string.
var ErrInvalidLogLevel = errors.New("invalid log level")

// ParseLevel maps the command line level strings onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
}

// Options configures Setup.
type Options struct {
	// Level is the minimum level for the stderr text handler.
	Level slog.Level

	// LogDir, when non-empty, enables a per-run JSON log file inside it.
	// The file handler records everything down to debug level.
	LogDir string

	// RunID is attached to every record and embedded in the log file
	// name.
	RunID string
}

// Setup installs the default slog logger. It returns a cleanup function
// that closes the per-run log file, if one was opened.
func Setup(opts Options) (func(), error) {
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.Level}),
	}

	closer := func() {}
	if opts.LogDir != "" {
		f, err := openRunLogFile(opts.LogDir, opts.RunID)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers,
			slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = func() { _ = f.Close() }
	}

	logger := slog.New(NewMultiHandler(handlers...)).With("run_id", opts.RunID)
	slog.SetDefault(logger)
	return closer, nil
}

// openRunLogFile creates the auto-named per-run log file:
// <hostname>_<timestamp>_<runid>.json inside dir.
func openRunLogFile(dir, runID string) (io.WriteCloser, error) {
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	name := fmt.Sprintf("%s_%s_%s.json", hostname, timestamp, runID)

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening run log file: %w", err)
	}
	return f, nil
}
