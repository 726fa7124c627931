package binfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveJumpThunk_RelativeJump(t *testing.T) {
	// jmp +0x10 (E9 rel32), 5 bytes long.
	code := []byte{0xe9, 0x10, 0x00, 0x00, 0x00}

	target, ok := ResolveJumpThunk(code, 0x1000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1015), target)
}

func TestResolveJumpThunk_BackwardJump(t *testing.T) {
	// jmp -0x20 (E9 rel32 with negative displacement).
	code := []byte{0xe9, 0xe0, 0xff, 0xff, 0xff}

	target, ok := ResolveJumpThunk(code, 0x1000)
	require.True(t, ok)
	assert.Equal(t, uint64(0xfe5), target)
}

func TestResolveJumpThunk_RIPIndirect(t *testing.T) {
	// jmp qword ptr [rip+0x20] (FF 25 disp32), 6 bytes long.
	code := []byte{0xff, 0x25, 0x20, 0x00, 0x00, 0x00}

	target, ok := ResolveJumpThunk(code, 0x2000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x2026), target)
}

func TestResolveJumpThunk_NotAJump(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"ret", []byte{0xc3}},
		{"push rbp", []byte{0x55}},
		{"empty", nil},
		{"truncated jmp", []byte{0xe9, 0x10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ResolveJumpThunk(tt.code, 0x1000)
			assert.False(t, ok)
		})
	}
}
