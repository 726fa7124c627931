package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console is the interactive UI. Prompts and messages go to out; answers
// are read line by line from in.
type Console struct {
	in   *bufio.Reader
	out  io.Writer
	warn *color.Color
	info *color.Color
}

// NewConsole creates a console UI reading answers from in and writing
// prompts to out. Color output follows the fatih/color global settings, so
// it degrades to plain text when out is not a terminal.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:   bufio.NewReader(in),
		out:  out,
		warn: color.New(color.FgYellow),
		info: color.New(color.FgCyan),
	}
}

// ChooseLoadMode asks whether to batch-load, load a single file, or skip
// loading. Unrecognized answers re-prompt.
func (c *Console) ChooseLoadMode(ctx context.Context) (Choice, error) {
	for {
		if err := ctx.Err(); err != nil {
			return ChoiceCancel, err
		}
		fmt.Fprint(c.out, "Load dependencies: [b]atch from folder, [s]ingle file, [n]one? ")
		line, err := c.readLine()
		if err != nil {
			return ChoiceCancel, err
		}
		switch strings.ToLower(line) {
		case "b", "batch":
			return ChoiceBatch, nil
		case "s", "single":
			return ChoiceSingle, nil
		case "n", "none", "":
			return ChoiceCancel, nil
		}
		c.Warnf("unrecognized answer %q", line)
	}
}

// AskFolder asks for the dependency folder. An empty answer takes def.
func (c *Console) AskFolder(ctx context.Context, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(c.out, "Dependency folder [%s]: ", def)
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// AskFile asks for the path of a single dependency file.
func (c *Console) AskFile(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(c.out, "Dependency file: ")
	return c.readLine()
}

// Infof reports normal progress information.
func (c *Console) Infof(format string, args ...any) {
	c.info.Fprintf(c.out, format+"\n", args...)
}

// Warnf reports a recoverable problem.
func (c *Console) Warnf(format string, args ...any) {
	c.warn.Fprintf(c.out, "warning: "+format+"\n", args...)
}

// Progress reports name-matching progress.
func (c *Console) Progress(done, total int) {
	fmt.Fprintf(c.out, "matching names: %d/%d\r", done, total)
	if done == total {
		fmt.Fprintln(c.out)
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return "", ErrInputClosed
		}
		if err != io.EOF {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}
