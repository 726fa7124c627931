// Package ui defines the interaction surface of the tool: choosing between
// batch and single-file loading, asking for paths, and reporting progress.
// A console implementation talks to the terminal; a scripted implementation
// answers from command-line flags so the tool works unattended.
package ui

import (
	"context"
	"errors"
)

// Choice is the analyst's answer to the load-mode question.
type Choice int

const (
	// ChoiceCancel ends the run without loading or post-processing.
	ChoiceCancel Choice = iota

	// ChoiceBatch resolves every import module against a dependency
	// folder.
	ChoiceBatch

	// ChoiceSingle loads one explicitly chosen file.
	ChoiceSingle
)

// String returns a string representation of Choice.
func (c Choice) String() string {
	switch c {
	case ChoiceBatch:
		return "batch"
	case ChoiceSingle:
		return "single"
	default:
		return "cancel"
	}
}

// ErrInputClosed is returned when the input stream ends before an answer is
// read.
var ErrInputClosed = errors.New("input stream closed")

// UI is the interaction surface the workflow drives. Implementations must
// tolerate being called from a single goroutine only.
type UI interface {
	// ChooseLoadMode asks whether to batch-load, load a single file, or
	// skip loading.
	ChooseLoadMode(ctx context.Context) (Choice, error)

	// AskFolder asks for the dependency folder, offering def as the
	// default answer.
	AskFolder(ctx context.Context, def string) (string, error)

	// AskFile asks for the path of a single dependency file.
	AskFile(ctx context.Context) (string, error)

	// Infof reports normal progress information to the analyst.
	Infof(format string, args ...any)

	// Warnf reports a recoverable problem, such as a dependency that
	// could not be found or loaded.
	Warnf(format string, args ...any)

	// Progress reports that done of total name-matching items have been
	// processed. It is called at a coarse interval and once at the end
	// with done == total.
	Progress(done, total int)
}
