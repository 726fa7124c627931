// Package registry tracks which dependency files have been loaded into the
// current analysis session. The registry reflects loads that have already
// happened; it does not prevent them, so callers must check Contains before
// performing any side-effecting load.
package registry

import (
	"errors"
	"iter"

	"github.com/redlarch/deptrack/internal/annot"
)

// ErrAlreadyPresent is returned by Insert when the filename is already
// registered. It is a benign signal, not a failure.
var ErrAlreadyPresent = errors.New("dependency already registered")

// Record identifies one loaded dependency. Records are never mutated after
// creation and live until the session is torn down.
type Record struct {
	Filename string
}

// Registry is an insertion-ordered, duplicate-free collection of loaded
// dependency filenames. Filenames are compared case-sensitively and are not
// path-normalized: the exact string that was loaded is the identity.
//
// A Registry is append-only for the lifetime of a session. It is rebuilt at
// session start from persisted segment annotations and grows as further
// dependencies are loaded interactively.
type Registry struct {
	records []Record
	index   map[string]struct{}
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		index: make(map[string]struct{}),
	}
}

// Contains reports whether filename is already registered.
func (r *Registry) Contains(filename string) bool {
	_, ok := r.index[filename]
	return ok
}

// Insert appends a record for filename. It returns ErrAlreadyPresent without
// modifying the registry if the filename is already registered.
func (r *Registry) Insert(filename string) error {
	if r.Contains(filename) {
		return ErrAlreadyPresent
	}
	r.records = append(r.records, Record{Filename: filename})
	r.index[filename] = struct{}{}
	return nil
}

// Len returns the number of registered dependencies.
func (r *Registry) Len() int {
	return len(r.records)
}

// Enumerate returns a restartable sequence of the registered filenames in
// insertion order.
func (r *Registry) Enumerate() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, rec := range r.records {
			if !yield(rec.Filename) {
				return
			}
		}
	}
}

// Filenames returns the registered filenames in insertion order as a fresh
// slice.
func (r *Registry) Filenames() []string {
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Filename)
	}
	return out
}

// Reconstruct rebuilds registry entries from persisted annotation text, one
// string per segment comment slot. Sentinel and foreign slots are skipped;
// dependency slots already present are skipped silently. It returns the
// number of entries restored.
func (r *Registry) Reconstruct(raws iter.Seq[string]) int {
	restored := 0
	for raw := range raws {
		filename, kind := annot.Decode(raw)
		if kind != annot.KindDependency {
			continue
		}
		if err := r.Insert(filename); err == nil {
			restored++
		}
	}
	return restored
}
