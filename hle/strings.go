package hle

import (
	"bytes"
	"fmt"

	"github.com/sarchlab/armv7/emu"
)

// ReadString reads a NUL-terminated guest string of at most max bytes. A
// zero address reads as the empty string.
func ReadString(mem emu.Memory, addr uint32, max int) (string, error) {
	if addr == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	for i := 0; i < max; i++ {
		b, err := mem.Read8(addr + uint32(i))
		if err != nil {
			return "", fmt.Errorf("read string at 0x%08x: %w", addr, err)
		}
		if b == 0 {
			break
		}
		buf.WriteByte(b)
	}
	return buf.String(), nil
}
