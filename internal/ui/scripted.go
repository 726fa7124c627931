package ui

import (
	"context"
	"fmt"
	"log/slog"
)

// Scripted is the non-interactive UI. Every answer comes from the values it
// was constructed with, and messages go to the structured log instead of
// the terminal. It is used when the tool runs from flags, in CI, or with a
// non-terminal stdin.
type Scripted struct {
	choice Choice
	folder string
	file   string
	logger *slog.Logger
}

// NewScripted creates a scripted UI answering with the given choice, folder
// and file. A nil logger falls back to slog.Default.
func NewScripted(choice Choice, folder, file string, logger *slog.Logger) *Scripted {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scripted{
		choice: choice,
		folder: folder,
		file:   file,
		logger: logger,
	}
}

// ChooseLoadMode returns the preset choice.
func (s *Scripted) ChooseLoadMode(ctx context.Context) (Choice, error) {
	if err := ctx.Err(); err != nil {
		return ChoiceCancel, err
	}
	return s.choice, nil
}

// AskFolder returns the preset folder, or def when none was given.
func (s *Scripted) AskFolder(ctx context.Context, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.folder == "" {
		return def, nil
	}
	return s.folder, nil
}

// AskFile returns the preset file path.
func (s *Scripted) AskFile(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.file, nil
}

// Infof logs at info level.
func (s *Scripted) Infof(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

// Warnf logs at warn level.
func (s *Scripted) Warnf(format string, args ...any) {
	s.logger.Warn(fmt.Sprintf(format, args...))
}

// Progress logs only the final report to keep unattended logs quiet.
func (s *Scripted) Progress(done, total int) {
	if done == total {
		s.logger.Info("name matching finished", "items", total)
	}
}
