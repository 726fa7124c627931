// Package logging wires the slog-based logging stack: a human-readable
// text handler on stderr plus an optional per-run JSON log file, fanned out
// through a multi-handler. Every record carries the run ID so log lines
// from reopened sessions can be told apart.
package logging

import "github.com/oklog/ulid/v2"

// GenerateRunID generates a new ULID identifying one invocation of the
// tool. ULIDs sort by creation time, which keeps per-run log files in
// chronological order in a directory listing.
func GenerateRunID() string {
	return ulid.Make().String()
}
