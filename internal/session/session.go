package session

import (
	"errors"
	"fmt"

	"github.com/redlarch/deptrack/internal/binfmt"
)

// segmentAlign is the alignment of a newly mapped module's base address.
const segmentAlign = 0x1000

// importSlotSize is the width of one synthetic import table slot.
const importSlotSize = 8

// Error definitions
var (
	// ErrNoSegments indicates a module with nothing to map.
	ErrNoSegments = errors.New("module has no segments")
)

// Session is the in-memory analysis session. It is mutated only by the
// orchestrator's thread of control; no locking is needed.
type Session struct {
	primaryPath string
	segments    []Segment
	functions   []Function
	imports     []ImportModule
	comments    map[uint64]comment

	funcNames map[string]struct{}
}

// New creates an empty session for the primary binary at primaryPath.
func New(primaryPath string) *Session {
	return &Session{
		primaryPath: primaryPath,
		comments:    make(map[uint64]comment),
		funcNames:   make(map[string]struct{}),
	}
}

// PrimaryPath returns the path of the primary binary under analysis.
func (s *Session) PrimaryPath() string {
	return s.primaryPath
}

// SegmentCount returns the number of mapped segments.
func (s *Session) SegmentCount() int {
	return len(s.segments)
}

// Segment returns the i-th segment, or nil if i is out of range.
func (s *Session) Segment(i int) *Segment {
	if i < 0 || i >= len(s.segments) {
		return nil
	}
	return &s.segments[i]
}

// SetSegmentName renames the i-th segment.
func (s *Session) SetSegmentName(i int, name string) {
	if seg := s.Segment(i); seg != nil {
		seg.Name = name
	}
}

// SegmentComment returns the annotation slot of the i-th segment. The
// second return value is false when the slot is empty.
func (s *Session) SegmentComment(i int) (string, bool) {
	seg := s.Segment(i)
	if seg == nil || seg.Comment == "" {
		return "", false
	}
	return seg.Comment, true
}

// SetSegmentComment writes the annotation slot of the i-th segment.
func (s *Session) SetSegmentComment(i int, text string) {
	if seg := s.Segment(i); seg != nil {
		seg.Comment = text
	}
}

// Comment returns the annotation at addr. The second return value is false
// when the slot is empty.
func (s *Session) Comment(addr uint64) (string, bool) {
	c, ok := s.comments[addr]
	if !ok {
		return "", false
	}
	return c.Text, true
}

// SetComment writes the annotation slot at addr. An address holds one
// value: a later write replaces an earlier one. Writing empty text clears
// the slot.
func (s *Session) SetComment(addr uint64, text string, repeatable bool) {
	if text == "" {
		delete(s.comments, addr)
		return
	}
	s.comments[addr] = comment{Text: text, Repeatable: repeatable}
}

// Functions returns the function table in registration order.
func (s *Session) Functions() []Function {
	return s.functions
}

// PublicFunctions returns the publicly named functions in registration
// order.
func (s *Session) PublicFunctions() []Function {
	var out []Function
	for _, f := range s.functions {
		if f.Public {
			out = append(out, f)
		}
	}
	return out
}

// AddFunction registers a function and returns the name it ended up with.
// When a public name collides with an already registered name, the new
// function is renamed by appending an underscore and the first free numeric
// suffix, mirroring how the host disambiguates colliding public names.
func (s *Session) AddFunction(addr uint64, name string, public bool) string {
	final := name
	for i := 0; ; i++ {
		if _, taken := s.funcNames[final]; !taken {
			break
		}
		final = fmt.Sprintf("%s_%d", name, i)
	}
	s.funcNames[final] = struct{}{}
	s.functions = append(s.functions, Function{Address: addr, Name: final, Public: public})
	return final
}

// ImportModules returns the import table. Callers must treat the result as
// read-only; annotations on import entries go through SetComment.
func (s *Session) ImportModules() []ImportModule {
	return s.imports
}

// NextBase returns the lowest aligned address past every mapped segment.
func (s *Session) NextBase() uint64 {
	var max uint64
	for _, seg := range s.segments {
		if seg.End > max {
			max = seg.End
		}
	}
	return (max + segmentAlign - 1) &^ uint64(segmentAlign-1)
}

// LoadResult describes what LoadModule created.
type LoadResult struct {
	// AddedSegments are the indices of the segments created by the load.
	AddedSegments []int

	// Delta is the offset added to every module-relative address to place
	// it in the session address space.
	Delta uint64
}

// LoadModule maps the parsed module into the session address space. Newly
// created segments carry no annotation; tagging them is the dependency
// loader's job.
//
// The option set controls what is merged: resource segments need
// LoadResources, exports become public functions only with LoadCode, and
// the module's import table is merged only with LoadImports. LoadNameMerge
// is deliberately ignored (see LoadOption).
func (s *Session) LoadModule(mod *binfmt.Module, opts LoadOption) (*LoadResult, error) {
	if len(mod.Segments) == 0 {
		return nil, ErrNoSegments
	}

	minAddr := mod.Segments[0].Addr
	for _, seg := range mod.Segments[1:] {
		if seg.Addr < minAddr {
			minAddr = seg.Addr
		}
	}
	res := &LoadResult{Delta: s.NextBase() - minAddr}

	if opts&LoadSegments != 0 {
		for _, seg := range mod.Segments {
			if seg.Kind == binfmt.SegmentResource && opts&LoadResources == 0 {
				continue
			}
			res.AddedSegments = append(res.AddedSegments, len(s.segments))
			s.segments = append(s.segments, Segment{
				Name:  seg.Name,
				Start: seg.Addr + res.Delta,
				End:   seg.Addr + res.Delta + seg.Size,
				Kind:  seg.Kind,
			})
		}
	}

	if opts&LoadCode != 0 {
		for _, exp := range mod.Exports {
			s.AddFunction(exp.Addr+res.Delta, exp.Name, true)
		}
	}

	if opts&LoadImports != 0 {
		s.mergeImports(mod.Imports, &res.AddedSegments, opts)
	}

	return res, nil
}

// mergeImports appends the module's import table, giving every symbol a
// slot address inside a synthetic import segment. The host writes an
// auto-generated repeatable comment on each new slot; the orchestrator
// wipes these afterwards because they drown out analyst comments.
func (s *Session) mergeImports(modules []binfmt.ImportModule, added *[]int, opts LoadOption) {
	total := 0
	for _, m := range modules {
		total += len(m.Symbols)
	}
	if total == 0 {
		return
	}

	base := s.NextBase()
	if opts&LoadSegments != 0 {
		*added = append(*added, len(s.segments))
		s.segments = append(s.segments, Segment{
			Name:  ".imports",
			Start: base,
			End:   base + uint64(total)*importSlotSize,
			Kind:  binfmt.SegmentData,
		})
	}

	slot := base
	for _, m := range modules {
		idx := s.importModuleIndex(m.Name)
		for _, sym := range m.Symbols {
			s.imports[idx].Symbols = append(s.imports[idx].Symbols, ImportSymbol{
				Address: slot,
				Name:    sym.Name,
				Ordinal: sym.Ordinal,
			})
			s.SetComment(slot, fmt.Sprintf("from %s", m.Name), true)
			slot += importSlotSize
		}
	}
}

// importModuleIndex finds or creates the import module entry named name.
func (s *Session) importModuleIndex(name string) int {
	for i := range s.imports {
		if s.imports[i].Name == name {
			return i
		}
	}
	s.imports = append(s.imports, ImportModule{Name: name})
	return len(s.imports) - 1
}
