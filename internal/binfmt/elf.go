package binfmt

import (
	"debug/elf"
	"fmt"
	"io"
)

// unattributedModule groups imported symbols whose supplying library cannot
// be determined from the symbol version data.
const unattributedModule = "unresolved"

// readELF parses an ELF shared object or executable. Section addresses are
// kept as the module's own virtual addresses; the session rebases them.
func readELF(r io.ReaderAt) (*Module, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("parsing ELF: %w", err)
	}
	defer f.Close()

	mod := &Module{Format: FormatELF}

	for _, s := range f.Sections {
		if s.Flags&elf.SHF_ALLOC == 0 || s.Name == "" {
			continue
		}
		kind := SegmentData
		if s.Flags&elf.SHF_EXECINSTR != 0 {
			kind = SegmentCode
		}

		var data []byte
		if s.Type != elf.SHT_NOBITS {
			data, _ = s.Data()
		}

		mod.Segments = append(mod.Segments, Segment{
			Name: s.Name,
			Addr: s.Addr,
			Size: s.Size,
			Kind: kind,
			Data: data,
		})
	}

	mod.Exports = elfExports(f)
	mod.Imports = elfImports(f)
	return mod, nil
}

// elfExports returns the defined, externally visible dynamic symbols.
func elfExports(f *elf.File) []Export {
	// A stripped or static object has no dynamic symbols.
	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil
	}

	var exports []Export
	for _, sym := range syms {
		if sym.Section == elf.SHN_UNDEF {
			continue
		}
		bind := elf.ST_BIND(sym.Info)
		if bind != elf.STB_GLOBAL && bind != elf.STB_WEAK {
			continue
		}
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}
		exports = append(exports, Export{Name: sym.Name, Addr: sym.Value})
	}
	return exports
}

// elfImports groups the undefined dynamic symbols by the library recorded in
// their version data, with DT_NEEDED entries guaranteeing that every
// required library shows up as a module even when no symbol is attributed
// to it.
func elfImports(f *elf.File) []ImportModule {
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

	if libs, err := f.ImportedLibraries(); err == nil {
		for _, lib := range libs {
			moduleFor(lib)
		}
	}

	syms, err := f.ImportedSymbols()
	if err != nil {
		return modules
	}
	for _, sym := range syms {
		lib := sym.Library
		if lib == "" {
			lib = unattributedModule
		}
		m := moduleFor(lib)
		m.Symbols = append(m.Symbols, ImportSymbol{Name: sym.Name})
	}
	return modules
}
