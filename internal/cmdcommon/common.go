// Package cmdcommon holds the environment variable names and default paths
// shared by the command-line entry point.
package cmdcommon

import "os"

// Environment variables recognized by the tool. Command-line flags take
// precedence over these; these take precedence over the config file.
const (
	// EnvDepsDir overrides the default dependency folder.
	EnvDepsDir = "DEPTRACK_DEPS_DIR"

	// EnvLogDir overrides the directory run log files are written to.
	EnvLogDir = "DEPTRACK_LOG_DIR"

	// EnvLogLevel overrides the stderr log level.
	EnvLogLevel = "DEPTRACK_LOG_LEVEL"
)

// DefaultSessionFile is the session database path used when -session is not
// given.
const DefaultSessionFile = "deptrack.session.json"

// EnvOrDefault returns the value of the environment variable key, or def
// when it is unset or empty.
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
