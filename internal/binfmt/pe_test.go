package binfmt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildExportSection lays out a minimal IMAGE_EXPORT_DIRECTORY plus its
// tables inside a single synthetic section mapped at RVA 0x1000.
func buildExportSection() rvaSpace {
	const base = 0x1000
	data := make([]byte, 0x200)

	put32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(data[off:], v) }
	put16 := func(off int, v uint16) { binary.LittleEndian.PutUint16(data[off:], v) }

	// Directory at RVA 0x1000.
	put32(16, 1)             // ordinal base
	put32(20, 3)             // NumberOfFunctions
	put32(24, 2)             // NumberOfNames
	put32(28, base+0x40)     // AddressOfFunctions
	put32(32, base+0x60)     // AddressOfNames
	put32(36, base+0x70)     // AddressOfNameOrdinals

	// Function address table: index 1 is a gap.
	put32(0x40, 0x2000)
	put32(0x44, 0)
	put32(0x48, 0x3000)

	// Name pointer and ordinal-index tables.
	put32(0x60, base+0x80)
	put32(0x64, base+0x90)
	put16(0x70, 0)
	put16(0x72, 2)

	copy(data[0x80:], "Alpha\x00")
	copy(data[0x90:], "Beta\x00")

	return rvaSpace{sections: []rvaSection{{addr: base, size: uint32(len(data)), data: data}}}
}

func TestParseExportDirectory(t *testing.T) {
	space := buildExportSection()

	exports, err := parseExportDirectory(&space, 0x1000)
	require.NoError(t, err)

	assert.Equal(t, []Export{
		{Name: "Alpha", Addr: 0x2000},
		{Name: "Beta", Addr: 0x3000},
	}, exports)
}

func TestParseExportDirectory_Malformed(t *testing.T) {
	space := buildExportSection()

	_, err := parseExportDirectory(&space, 0x9000)
	assert.ErrorIs(t, err, ErrMalformedExports)
}

func TestParseExportDirectory_HugeCounts(t *testing.T) {
	space := buildExportSection()
	binary.LittleEndian.PutUint32(space.sections[0].data[20:], maxExportEntries+1)

	_, err := parseExportDirectory(&space, 0x1000)
	assert.ErrorIs(t, err, ErrMalformedExports)
}

func TestRVASpace_CString(t *testing.T) {
	space := rvaSpace{sections: []rvaSection{
		{addr: 0x100, size: 16, data: append([]byte("hello\x00"), make([]byte, 10)...)},
	}}

	s, ok := space.cstring(0x100)
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = space.cstring(0x500)
	assert.False(t, ok)
}

func TestImportSymbol(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ImportSymbol
	}{
		{"named", "CreateFileW", ImportSymbol{Name: "CreateFileW"}},
		{"ordinal", "#42", ImportSymbol{Ordinal: 42}},
		{"malformed ordinal keeps name", "#x17", ImportSymbol{Name: "#x17"}},
		{"bare hash keeps name", "#", ImportSymbol{Name: "#"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, importSymbol(tt.in))
		})
	}
}
