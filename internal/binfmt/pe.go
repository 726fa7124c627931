package binfmt

import (
	"debug/pe"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Sanity cap on export table entry counts so a corrupt directory cannot
// drive a huge allocation.
const maxExportEntries = 1 << 20

const exportDirectorySize = 40

// readPE parses a Windows PE image. Addresses are kept as RVAs so the
// session can rebase the whole module at once.
func readPE(r io.ReaderAt) (*Module, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("parsing PE: %w", err)
	}
	defer f.Close()

	mod := &Module{Format: FormatPE}
	space := rvaSpace{}

	for _, s := range f.Sections {
		kind := SegmentData
		if s.Characteristics&pe.IMAGE_SCN_CNT_CODE != 0 {
			kind = SegmentCode
		} else if strings.HasPrefix(s.Name, ".rsrc") {
			kind = SegmentResource
		}

		// Section data is best effort; a section that cannot be read
		// still contributes its address range.
		data, _ := s.Data()
		if uint64(len(data)) > uint64(s.VirtualSize) {
			data = data[:s.VirtualSize]
		}

		mod.Segments = append(mod.Segments, Segment{
			Name: s.Name,
			Addr: uint64(s.VirtualAddress),
			Size: uint64(s.VirtualSize),
			Kind: kind,
			Data: data,
		})
		space.sections = append(space.sections, rvaSection{
			addr: s.VirtualAddress,
			size: s.VirtualSize,
			data: data,
		})
	}

	mod.Imports = peImports(f)

	exportRVA := exportDirectoryRVA(f)
	if exportRVA != 0 {
		exports, err := parseExportDirectory(&space, exportRVA)
		if err != nil {
			return nil, err
		}
		mod.Exports = exports
	}

	return mod, nil
}

// peImports groups the import table by originating DLL. debug/pe reports
// named imports as "symbol:DLL.dll" strings.
func peImports(f *pe.File) []ImportModule {
	syms, err := f.ImportedSymbols()
	if err != nil {
		return nil
	}

	byLib := make(map[string]int)
	var modules []ImportModule
	for _, s := range syms {
		idx := strings.LastIndexByte(s, ':')
		if idx < 0 {
			continue
		}
		name, lib := s[:idx], s[idx+1:]

		i, ok := byLib[lib]
		if !ok {
			i = len(modules)
			byLib[lib] = i
			modules = append(modules, ImportModule{Name: lib})
		}

		modules[i].Symbols = append(modules[i].Symbols, importSymbol(name))
	}
	return modules
}

// importSymbol turns one debug/pe symbol name into an import entry.
// Ordinal-only imports arrive as "#<ordinal>"; those carry no name to match
// against. A malformed ordinal keeps the raw name instead of silently
// reporting ordinal zero.
func importSymbol(name string) ImportSymbol {
	ord, found := strings.CutPrefix(name, "#")
	if !found {
		return ImportSymbol{Name: name}
	}
	n, err := strconv.ParseUint(ord, 10, 64)
	if err != nil {
		return ImportSymbol{Name: name}
	}
	return ImportSymbol{Ordinal: n}
}

// exportDirectoryRVA returns the RVA of the export data directory, or 0 if
// the image has none.
func exportDirectoryRVA(f *pe.File) uint32 {
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes > 0 {
			return oh.DataDirectory[0].VirtualAddress
		}
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes > 0 {
			return oh.DataDirectory[0].VirtualAddress
		}
	}
	return 0
}

// rvaSpace resolves RVAs against the mapped section contents. It exists so
// the export directory walk can be tested against synthetic images.
type rvaSpace struct {
	sections []rvaSection
}

type rvaSection struct {
	addr uint32
	size uint32
	data []byte
}

func (s *rvaSpace) readAt(rva uint32, n int) ([]byte, bool) {
	for _, sec := range s.sections {
		if rva < sec.addr || rva >= sec.addr+sec.size {
			continue
		}
		off := int(rva - sec.addr)
		if off+n > len(sec.data) {
			return nil, false
		}
		return sec.data[off : off+n], true
	}
	return nil, false
}

func (s *rvaSpace) cstring(rva uint32) (string, bool) {
	for _, sec := range s.sections {
		if rva < sec.addr || rva >= sec.addr+sec.size {
			continue
		}
		off := int(rva - sec.addr)
		if off >= len(sec.data) {
			return "", false
		}
		end := off
		for end < len(sec.data) && sec.data[end] != 0 {
			end++
		}
		return string(sec.data[off:end]), true
	}
	return "", false
}

// parseExportDirectory walks IMAGE_EXPORT_DIRECTORY and returns the named
// exports. debug/pe exposes imports only, so the export side is read from
// the raw section data.
func parseExportDirectory(space *rvaSpace, dirRVA uint32) ([]Export, error) {
	hdr, ok := space.readAt(dirRVA, exportDirectorySize)
	if !ok {
		return nil, ErrMalformedExports
	}

	numFuncs := binary.LittleEndian.Uint32(hdr[20:])
	numNames := binary.LittleEndian.Uint32(hdr[24:])
	addrFuncs := binary.LittleEndian.Uint32(hdr[28:])
	addrNames := binary.LittleEndian.Uint32(hdr[32:])
	addrOrds := binary.LittleEndian.Uint32(hdr[36:])

	if numFuncs > maxExportEntries || numNames > maxExportEntries {
		return nil, ErrMalformedExports
	}

	// Name pointer table index -> AddressOfFunctions index.
	nameByIndex := make(map[uint16]string, numNames)
	for i := uint32(0); i < numNames; i++ {
		entry, ok := space.readAt(addrNames+i*4, 4)
		if !ok {
			return nil, ErrMalformedExports
		}
		ordEntry, ok := space.readAt(addrOrds+i*2, 2)
		if !ok {
			return nil, ErrMalformedExports
		}
		name, ok := space.cstring(binary.LittleEndian.Uint32(entry))
		if !ok {
			return nil, ErrMalformedExports
		}
		nameByIndex[binary.LittleEndian.Uint16(ordEntry)] = name
	}

	var exports []Export
	for i := uint32(0); i < numFuncs; i++ {
		entry, ok := space.readAt(addrFuncs+i*4, 4)
		if !ok {
			return nil, ErrMalformedExports
		}
		funcRVA := binary.LittleEndian.Uint32(entry)
		if funcRVA == 0 {
			continue
		}
		name, ok := nameByIndex[uint16(i)]
		if !ok {
			// Ordinal-only export: nothing for name matching.
			continue
		}
		exports = append(exports, Export{Name: name, Addr: uint64(funcRVA)})
	}
	return exports, nil
}
