// Package main provides the entry point for deptrack. It opens or creates
// an analysis session for a primary binary, restores the dependency
// registry, drives the load workflow and persists the session again.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redlarch/deptrack/internal/binfmt"
	"github.com/redlarch/deptrack/internal/cmdcommon"
	"github.com/redlarch/deptrack/internal/common"
	"github.com/redlarch/deptrack/internal/config"
	"github.com/redlarch/deptrack/internal/loader"
	"github.com/redlarch/deptrack/internal/logging"
	"github.com/redlarch/deptrack/internal/registry"
	"github.com/redlarch/deptrack/internal/session"
	"github.com/redlarch/deptrack/internal/terminal"
	"github.com/redlarch/deptrack/internal/ui"
	"github.com/redlarch/deptrack/internal/workflow"
)

// Error definitions
var (
	ErrBinaryRequired = errors.New("no session document found; -binary is required to start one")
	ErrBatchAndFile   = errors.New("-batch and -file are mutually exclusive")
)

var (
	sessionPath    = flag.String("session", cmdcommon.DefaultSessionFile, "path to the session document")
	binaryPath     = flag.String("binary", "", "primary binary to analyze (required when starting a new session)")
	configPath     = flag.String("config", "", "path to config file")
	depsDir        = flag.String("deps-dir", "", "folder searched for dependency files in batch mode")
	singleFile     = flag.String("file", "", "load this one dependency file and exit")
	batch          = flag.Bool("batch", false, "batch-load every import module from the dependency folder")
	listDeps       = flag.Bool("list", false, "list loaded dependencies and exit")
	logLevel       = flag.String("log-level", "", "log level (debug, info, warn, error)")
	logDir         = flag.String("log-dir", "", "directory to place per-run JSON log (auto-named). Overrides TOML/env if set.")
	interactive    = flag.Bool("interactive", false, "force interactive prompts")
	nonInteractive = flag.Bool("non-interactive", false, "never prompt; answers come from flags")
)

func main() {
	// Generate run ID early so even setup failures are attributable.
	runID := logging.GenerateRunID()

	if err := run(runID); err != nil {
		fmt.Fprintf(os.Stderr, "deptrack: %v\n", err)
		os.Exit(1)
	}
}

func run(runID string) error {
	flag.Parse()
	if *batch && *singleFile != "" {
		return ErrBatchAndFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	closer, err := setupLogger(cfg, runID)
	if err != nil {
		return err
	}
	defer closer()

	fs := common.NewDefaultFileSystem()
	store := session.NewStore()

	sess, err := openSession(store, fs)
	if err != nil {
		return err
	}

	reg := registry.New()
	ldr := loader.New(reg, sess, cfg.LoadOptions())

	if *listDeps {
		return listDependencies(sess, reg)
	}

	orch := workflow.New(sess, reg, ldr, buildUI(cfg), resolveDepsDir(cfg))
	if err := orch.Run(ctx); err != nil {
		return err
	}

	if err := store.Save(*sessionPath, sess); err != nil {
		return err
	}
	slog.Info("session saved", "path", *sessionPath, "dependencies", reg.Len())
	return nil
}

// loadConfig reads the TOML config when -config is given and falls back to
// the built-in defaults otherwise.
func loadConfig() (*config.Config, error) {
	if *configPath == "" {
		return config.Default(), nil
	}
	return config.NewLoader().LoadConfig(*configPath)
}

// setupLogger installs the logging stack with flags > environment > config
// precedence for level and directory.
func setupLogger(cfg *config.Config, runID string) (func(), error) {
	levelStr := *logLevel
	if levelStr == "" {
		levelStr = cmdcommon.EnvOrDefault(cmdcommon.EnvLogLevel, cfg.Logging.Level)
	}
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}

	dir := *logDir
	if dir == "" {
		dir = cmdcommon.EnvOrDefault(cmdcommon.EnvLogDir, cfg.Logging.Dir)
	}

	return logging.Setup(logging.Options{Level: level, LogDir: dir, RunID: runID})
}

// openSession loads the session document, or starts a fresh session from
// the primary binary when no document exists yet.
func openSession(store *session.Store, fs common.FileSystem) (*session.Session, error) {
	sess, err := store.Load(*sessionPath)
	if err == nil {
		slog.Info("session opened", "path", *sessionPath, "primary", sess.PrimaryPath())
		return sess, nil
	}
	if !errors.Is(err, session.ErrSessionNotFound) {
		return nil, err
	}

	if *binaryPath == "" {
		return nil, ErrBinaryRequired
	}
	sess, err = newSession(fs, *binaryPath)
	if err != nil {
		return nil, err
	}
	slog.Info("session created", "path", *sessionPath, "primary", *binaryPath)
	return sess, nil
}

// newSession parses the primary binary and maps it into a fresh session.
// The primary is always loaded in full; load options only filter
// dependencies.
func newSession(fs common.FileSystem, path string) (*session.Session, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening primary binary: %w", err)
	}
	defer f.Close()

	plan, err := binfmt.Detect(f)
	if err != nil {
		return nil, fmt.Errorf("detecting format of %s: %w", path, err)
	}
	mod, err := binfmt.Read(plan, path, f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	sess := session.New(path)
	if _, err := sess.LoadModule(mod, session.DefaultLoadOptions); err != nil {
		return nil, fmt.Errorf("mapping primary binary: %w", err)
	}
	return sess, nil
}

// listDependencies prints the dependency filenames recorded in the session
// annotations, one per line.
func listDependencies(sess *session.Session, reg *registry.Registry) error {
	reg.Reconstruct(segmentComments(sess))
	for filename := range reg.Enumerate() {
		fmt.Println(filename)
	}
	return nil
}

func segmentComments(sess *session.Session) func(yield func(string) bool) {
	return func(yield func(string) bool) {
		for i := 0; i < sess.SegmentCount(); i++ {
			if text, ok := sess.SegmentComment(i); ok {
				if !yield(text) {
					return
				}
			}
		}
	}
}

// buildUI picks between terminal prompts and flag-driven answers. Explicit
// load-mode flags always mean scripted; otherwise the terminal decides.
func buildUI(cfg *config.Config) ui.UI {
	detector := terminal.NewDetector(terminal.DetectorOptions{
		ForceInteractive:    *interactive,
		ForceNonInteractive: *nonInteractive,
	})

	scriptedChoice := ui.ChoiceCancel
	switch {
	case *batch:
		scriptedChoice = ui.ChoiceBatch
	case *singleFile != "":
		scriptedChoice = ui.ChoiceSingle
	}

	if scriptedChoice != ui.ChoiceCancel || !detector.IsInteractive() {
		return ui.NewScripted(scriptedChoice, resolveDepsDir(cfg), *singleFile, slog.Default())
	}
	return ui.NewConsole(os.Stdin, os.Stderr)
}

// resolveDepsDir applies flags > environment > config precedence to the
// dependency folder.
func resolveDepsDir(cfg *config.Config) string {
	if *depsDir != "" {
		return *depsDir
	}
	return cmdcommon.EnvOrDefault(cmdcommon.EnvDepsDir, cfg.Session.DepsDir)
}
