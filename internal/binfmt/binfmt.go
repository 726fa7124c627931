// Package binfmt reads auxiliary binary modules (PE, ELF, Mach-O) into a
// neutral in-memory description of segments, exported functions and imported
// symbols. Format detection is magic-number based; parsing is delegated to
// debug/pe, debug/elf and blacktop/go-macho.
package binfmt

import "errors"

// Errors shared across the format readers.
var (
	// ErrUnknownFormat indicates the file matched no recognized magic.
	ErrUnknownFormat = errors.New("unrecognized binary format")

	// ErrMalformedExports indicates a PE export directory that points
	// outside the mapped sections.
	ErrMalformedExports = errors.New("malformed export directory")
)

// Format identifies a recognized binary container format.
type Format int

const (
	// FormatUnknown is the zero value; no reader accepts it.
	FormatUnknown Format = iota

	// FormatPE is a Windows Portable Executable image.
	FormatPE

	// FormatELF is an ELF shared object or executable.
	FormatELF

	// FormatMachO is a Mach-O image.
	FormatMachO
)

// String returns a string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatPE:
		return "pe"
	case FormatELF:
		return "elf"
	case FormatMachO:
		return "macho"
	default:
		return "unknown"
	}
}

// SegmentKind classifies a segment for load-option filtering.
type SegmentKind int

const (
	// SegmentData is any mapped segment that is neither code nor resource.
	SegmentData SegmentKind = iota

	// SegmentCode contains executable instructions.
	SegmentCode

	// SegmentResource contains embedded resources (PE .rsrc).
	SegmentResource
)

// String returns a string representation of SegmentKind.
func (k SegmentKind) String() string {
	switch k {
	case SegmentCode:
		return "code"
	case SegmentResource:
		return "resource"
	default:
		return "data"
	}
}

// Segment is one mapped region of a module, with addresses relative to the
// module's own image base.
type Segment struct {
	Name string
	Addr uint64
	Size uint64
	Kind SegmentKind

	Data []byte
}

// Export is a publicly visible function supplied by the module.
type Export struct {
	Name string
	Addr uint64
}

// ImportSymbol is one symbol the module expects another module to supply.
// Name may be empty for ordinal-only imports.
type ImportSymbol struct {
	Name    string
	Ordinal uint64
}

// ImportModule groups the imported symbols that one external module is
// expected to supply.
type ImportModule struct {
	Name    string
	Symbols []ImportSymbol
}

// Module is the parsed, format-neutral view of one binary file.
type Module struct {
	Format   Format
	Segments []Segment
	Exports  []Export
	Imports  []ImportModule
}

// Bytes returns up to n bytes of raw segment content starting at the
// module-relative address addr, or nil if no segment with content covers it.
func (m *Module) Bytes(addr uint64, n int) []byte {
	for i := range m.Segments {
		s := &m.Segments[i]
		if s.Data == nil || addr < s.Addr || addr >= s.Addr+uint64(len(s.Data)) {
			continue
		}
		off := addr - s.Addr
		end := off + uint64(n)
		if end > uint64(len(s.Data)) {
			end = uint64(len(s.Data))
		}
		return s.Data[off:end]
	}
	return nil
}
