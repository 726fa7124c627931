package binfmt

import (
	"fmt"
	"path"

	"github.com/blacktop/go-macho"
	"github.com/blacktop/go-macho/types"
)

// readMachO parses a Mach-O image via go-macho, which handles fat slices
// internally, so it works from the path rather than the open stream.
func readMachO(filePath string) (*Module, error) {
	m, err := macho.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("parsing Mach-O: %w", err)
	}
	defer m.Close()

	mod := &Module{Format: FormatMachO}

	for _, seg := range m.Segments() {
		if seg.Name == "__PAGEZERO" {
			continue
		}
		kind := SegmentData
		if seg.Name == "__TEXT" {
			kind = SegmentCode
		}
		mod.Segments = append(mod.Segments, Segment{
			Name: seg.Name,
			Addr: seg.Addr,
			Size: seg.Memsz,
			Kind: kind,
		})
	}

	libs := m.ImportedLibraries()
	byLib := make(map[string]int)
	var modules []ImportModule
	moduleFor := func(lib string) *ImportModule {
		i, ok := byLib[lib]
		if !ok {
			i = len(modules)
			byLib[lib] = i
			modules = append(modules, ImportModule{Name: lib})
		}
		return &modules[i]
	}
	for _, lib := range libs {
		// Batch lookup matches on base names, so strip the install path.
		moduleFor(path.Base(lib))
	}

	if m.Symtab != nil {
		for _, sym := range m.Symtab.Syms {
			if sym.Type&types.N_STAB != 0 {
				continue
			}
			switch sym.Type & types.N_TYPE {
			case types.N_SECT:
				if sym.Type&types.N_EXT != 0 {
					mod.Exports = append(mod.Exports, Export{Name: sym.Name, Addr: sym.Value})
				}
			case types.N_UNDF:
				if sym.Name == "" {
					continue
				}
				// Two-level namespace: the high byte of n_desc is
				// the 1-based ordinal of the supplying library.
				lib := unattributedModule
				if ord := int(sym.Desc >> 8); ord >= 1 && ord <= len(libs) {
					lib = path.Base(libs[ord-1])
				}
				im := moduleFor(lib)
				im.Symbols = append(im.Symbols, ImportSymbol{Name: sym.Name})
			}
		}
	}
	mod.Imports = modules

	return mod, nil
}
