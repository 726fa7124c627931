// Package session implements the analysis session the dependency tracker
// operates on: the mapped segments of the primary binary and its loaded
// dependencies, the public function table, the import table, and the
// generic annotation store that carries the durable per-session state.
// The whole session is persisted as one schema-versioned JSON document so
// it survives process restarts.
package session

import "github.com/redlarch/deptrack/internal/binfmt"

// Segment is one named contiguous region of the session address space.
// Comment is the segment's single annotation slot; empty means no
// annotation.
type Segment struct {
	Name    string             `json:"name"`
	Start   uint64             `json:"start"`
	End     uint64             `json:"end"`
	Kind    binfmt.SegmentKind `json:"kind"`
	Comment string             `json:"comment,omitempty"`
}

// Function is one entry of the session function table.
type Function struct {
	Address uint64 `json:"address"`
	Name    string `json:"name"`
	Public  bool   `json:"public"`
}

// ImportSymbol is one import table entry: a slot at Address that an
// external module is expected to fill. Name is empty for ordinal-only
// imports.
type ImportSymbol struct {
	Address uint64 `json:"address"`
	Name    string `json:"name,omitempty"`
	Ordinal uint64 `json:"ordinal,omitempty"`
}

// ImportModule groups the import symbols expected from one external module.
type ImportModule struct {
	Name    string         `json:"name"`
	Symbols []ImportSymbol `json:"symbols,omitempty"`
}

// comment is one address annotation slot. An address holds at most one
// value; the repeatable flag mirrors the host convention where repeatable
// comments are echoed at every reference site.
type comment struct {
	Text       string
	Repeatable bool
}

// LoadOption selects which parts of a module are merged into the session.
type LoadOption uint

const (
	// LoadSegments maps the module's segments into the address space.
	LoadSegments LoadOption = 1 << iota

	// LoadResources includes resource segments when mapping.
	LoadResources

	// LoadImports merges the module's import table into the session.
	LoadImports

	// LoadCode registers the module's exports as public functions.
	LoadCode

	// LoadNameMerge asks the host to merge symbol names into existing
	// functions. Recognized for completeness; the dependency loader
	// never sets it because the merge garbles names across modules.
	LoadNameMerge
)

// DefaultLoadOptions is the fixed option set the dependency loader uses.
const DefaultLoadOptions = LoadSegments | LoadResources | LoadImports | LoadCode
