// Package terminal decides whether the current process should prompt the
// user interactively or fall back to flag-driven, non-interactive behavior.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars contains common CI environment variables
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
	"TF_BUILD",
}

// DetectorOptions contains options for controlling interactive detection
type DetectorOptions struct {
	ForceInteractive    bool // Force interactive mode regardless of environment
	ForceNonInteractive bool // Force non-interactive mode regardless of environment
}

// Detector reports interactive terminal capabilities.
type Detector interface {
	IsInteractive() bool
	IsTerminal() bool
	IsCIEnvironment() bool
}

// DefaultDetector implements Detector against the real process environment.
type DefaultDetector struct {
	options DetectorOptions
}

// NewDetector creates a detector with the given options.
func NewDetector(options DetectorOptions) *DefaultDetector {
	return &DefaultDetector{options: options}
}

// IsInteractive returns true if the current environment is interactive.
// Command line overrides win over CI detection, which wins over terminal
// detection.
func (d *DefaultDetector) IsInteractive() bool {
	if d.options.ForceInteractive {
		return true
	}
	if d.options.ForceNonInteractive {
		return false
	}
	if d.IsCIEnvironment() {
		return false
	}
	return d.IsTerminal()
}

// IsTerminal checks if stdin and stderr are connected to a terminal.
// Prompts read from stdin, so stdout being piped must not disable them.
func (d *DefaultDetector) IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// IsCIEnvironment checks if the current environment is a CI/CD system.
func (d *DefaultDetector) IsCIEnvironment() bool {
	for _, envVar := range ciEnvVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if envVar == "CI" {
			return isCITruthy(value)
		}
		return true
	}
	return false
}

// isCITruthy treats the common false spellings of $CI as "not CI".
func isCITruthy(value string) bool {
	switch strings.ToLower(value) {
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}
