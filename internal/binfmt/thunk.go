package binfmt

import "golang.org/x/arch/x86/x86asm"

// ResolveJumpThunk decodes the first instruction of an x86-64 export body
// and, if it is an unconditional jump, returns the module-relative target
// address. Exports that are forwarding thunks (a single JMP into the import
// address table or to the real implementation) resolve this way; anything
// else reports false.
func ResolveJumpThunk(code []byte, addr uint64) (uint64, bool) {
	inst, err := x86asm.Decode(code, 64)
	if err != nil || inst.Op != x86asm.JMP {
		return 0, false
	}

	next := int64(addr) + int64(inst.Len)
	switch arg := inst.Args[0].(type) {
	case x86asm.Rel:
		return uint64(next + int64(arg)), true
	case x86asm.Mem:
		// RIP-relative indirect jump: report the IAT slot address.
		if arg.Base == x86asm.RIP && arg.Index == 0 {
			return uint64(next + arg.Disp), true
		}
	}
	return 0, false
}
