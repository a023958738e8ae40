package hle

import (
	"fmt"

	"github.com/sarchlab/armv7/emu"
)

// MaxIndex is the largest index a HACK instruction can carry.
const MaxIndex = 0xffff

// Stub encodings.
const (
	thumbHack = 0xf870
	thumbBXLR = 0x4770
	armHack   = 0xe0700090
	armBXLR   = 0xe12fff1e
)

// StubSize returns the number of bytes PatchStub writes.
func StubSize(thumb bool) uint32 {
	if thumb {
		return 6
	}
	return 8
}

// EncodeHack returns the HACK instruction for index. Thumb encodings are
// returned as first<<16 | second halfword.
func EncodeHack(index uint32, thumb bool) uint32 {
	if thumb {
		return thumbHack<<16 | index&0xffff
	}
	return armHack | (index>>4&0xfff)<<8 | index&0xf
}

// PatchStub overwrites the code at addr with a call to native function
// index followed by a return to the caller.
func PatchStub(mem emu.Memory, addr, index uint32, thumb bool) error {
	if index > MaxIndex {
		return fmt.Errorf("native function index %d does not fit a HACK instruction", index)
	}

	if thumb {
		for i, hw := range []uint16{thumbHack, uint16(index), thumbBXLR} {
			if err := mem.Write16(addr+uint32(2*i), hw); err != nil {
				return fmt.Errorf("patch stub at 0x%08x: %w", addr, err)
			}
		}
		return nil
	}

	for i, w := range []uint32{EncodeHack(index, false), armBXLR} {
		if err := mem.Write32(addr+uint32(4*i), w); err != nil {
			return fmt.Errorf("patch stub at 0x%08x: %w", addr, err)
		}
	}
	return nil
}

// WriteReturnStub writes a Thumb stub that ends a native-to-guest call at
// addr and returns the address with the Thumb bit set, ready for
// emu.WithReturnStub.
func WriteReturnStub(mem emu.Memory, addr uint32) (uint32, error) {
	if err := PatchStub(mem, addr, emu.ReturnIndex, true); err != nil {
		return 0, err
	}
	return addr | 1, nil
}
