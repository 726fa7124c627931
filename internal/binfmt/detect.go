package binfmt

import (
	"fmt"
	"io"
)

// Mach-O magic values, covering both byte orders and fat archives.
const (
	machoMagic32  = 0xfeedface
	machoMagic64  = 0xfeedfacf
	machoFatMagic = 0xcafebabe
)

// Plan is the result of format auto-detection: the selected reader for a
// file. It is the loader-selection collaborator's output and is consumed by
// Read.
type Plan struct {
	Format Format
}

// String returns a string representation of Plan.
func (p Plan) String() string {
	return fmt.Sprintf("plan(%s)", p.Format)
}

// Detect sniffs the leading magic bytes of r and selects a reader plan.
// It returns ErrUnknownFormat when no supported format matches.
func Detect(r io.ReaderAt) (Plan, error) {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return Plan{}, fmt.Errorf("reading file magic: %w", err)
	}

	switch {
	case magic[0] == 'M' && magic[1] == 'Z':
		return Plan{Format: FormatPE}, nil
	case magic[0] == 0x7f && magic[1] == 'E' && magic[2] == 'L' && magic[3] == 'F':
		return Plan{Format: FormatELF}, nil
	case isMachOMagic(magic):
		return Plan{Format: FormatMachO}, nil
	}
	return Plan{}, ErrUnknownFormat
}

func isMachOMagic(magic [4]byte) bool {
	be := uint32(magic[0])<<24 | uint32(magic[1])<<16 | uint32(magic[2])<<8 | uint32(magic[3])
	le := uint32(magic[3])<<24 | uint32(magic[2])<<16 | uint32(magic[1])<<8 | uint32(magic[0])
	for _, m := range []uint32{machoMagic32, machoMagic64, machoFatMagic} {
		if be == m || le == m {
			return true
		}
	}
	return false
}

// Read parses the module at path using the reader selected by plan. The
// PE and ELF readers consume the already-open stream; the Mach-O reader
// reopens by path because go-macho resolves fat slices itself.
func Read(plan Plan, path string, r io.ReaderAt) (*Module, error) {
	switch plan.Format {
	case FormatPE:
		return readPE(r)
	case FormatELF:
		return readELF(r)
	case FormatMachO:
		return readMachO(path)
	default:
		return nil, ErrUnknownFormat
	}
}
