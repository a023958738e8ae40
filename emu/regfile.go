// Package emu provides functional ARMv7 emulation.
package emu

import "github.com/sarchlab/armv7/insts"

// Register numbers with architectural roles.
const (
	RegSP = 13
	RegLR = 14
	RegPC = 15
)

// APSR holds the application program status flags.
type APSR struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// C is the carry flag.
	C bool
	// V is the overflow flag.
	V bool
	// Q is the sticky saturation flag.
	Q bool
	// GE holds the four SIMD greater-than-or-equal flags.
	GE uint8
}

// Word packs the flags into their APSR bit positions.
func (a APSR) Word() uint32 {
	var w uint32
	if a.N {
		w |= 1 << 31
	}
	if a.Z {
		w |= 1 << 30
	}
	if a.C {
		w |= 1 << 29
	}
	if a.V {
		w |= 1 << 28
	}
	if a.Q {
		w |= 1 << 27
	}
	w |= uint32(a.GE&0xf) << 16
	return w
}

// SetWord updates the flags from w. writeNZCVQ and writeG select the two
// writable groups of an MSR instruction.
func (a *APSR) SetWord(w uint32, writeNZCVQ, writeG bool) {
	if writeNZCVQ {
		a.N = w>>31&1 != 0
		a.Z = w>>30&1 != 0
		a.C = w>>29&1 != 0
		a.V = w>>28&1 != 0
		a.Q = w>>27&1 != 0
	}
	if writeG {
		a.GE = uint8(w >> 16 & 0xf)
	}
}

// setNZ sets N and Z from a result.
func (a *APSR) setNZ(result uint32) {
	a.N = result>>31 != 0
	a.Z = result == 0
}

// Reservation is the state recorded by the last load-exclusive.
type Reservation struct {
	Valid bool
	Addr  uint32
	Size  uint8
	Data  uint64
	Gen   uint64
}

// Context is the architectural state of one guest thread.
type Context struct {
	// GPR holds r0-r14. The program counter is kept separately.
	GPR [15]uint32

	// PC is the address of the instruction being executed.
	PC uint32

	// ISet is the current instruction set.
	ISet insts.ISet

	// APSR holds the condition and saturation flags.
	APSR APSR

	// IT is the Thumb IT-block state.
	IT ITState

	// Reservation is the exclusive-access reservation.
	Reservation Reservation

	// TLS is the value returned by the user read-only thread ID register.
	TLS uint32

	// StackAddr and StackSize describe the thread's stack allocation.
	StackAddr uint32
	StackSize uint32

	// HLECall is the index of the native function currently executing on
	// this thread, or zero.
	HLECall uint32

	nextPC   uint32
	branched bool
}

// SP returns the stack pointer.
func (c *Context) SP() uint32 { return c.GPR[RegSP] }

// LR returns the link register.
func (c *Context) LR() uint32 { return c.GPR[RegLR] }

// ReadPC returns the value an instruction observes when reading r15: the
// current instruction address plus 4 in Thumb state or plus 8 in ARM state.
func (c *Context) ReadPC() uint32 {
	if c.ISet == insts.Thumb {
		return c.PC + 4
	}
	return c.PC + 8
}

// ReadGPR reads a register. r15 reads as ReadPC.
func (c *Context) ReadGPR(n uint32) uint32 {
	if n < RegPC {
		return c.GPR[n]
	}
	return c.ReadPC()
}

// WriteGPR writes a register. A write to r15 is an ALU branch.
func (c *Context) WriteGPR(n uint32, v uint32) {
	if n < RegPC {
		c.GPR[n] = v
		return
	}
	c.ALUWritePC(v)
}

// SetBranch records the address of the next instruction. Every write to the
// program counter goes through here; the execution loop applies it after the
// current instruction retires.
func (c *Context) SetBranch(target uint32) {
	c.nextPC = target
	c.branched = true
}

// Branched reports whether the current instruction wrote the program counter.
func (c *Context) Branched() bool { return c.branched }

// BranchWritePC branches without changing instruction set.
func (c *Context) BranchWritePC(addr uint32) {
	if c.ISet == insts.Thumb {
		c.SetBranch(addr &^ 1)
		return
	}
	c.SetBranch(addr &^ 3)
}

// BXWritePC branches and selects the instruction set from bit 0 of addr.
func (c *Context) BXWritePC(addr uint32) {
	if addr&1 != 0 {
		c.ISet = insts.Thumb
		c.SetBranch(addr &^ 1)
		return
	}
	c.ISet = insts.ARM
	c.SetBranch(addr &^ 3)
}

// LoadWritePC handles a load into r15.
func (c *Context) LoadWritePC(addr uint32) { c.BXWritePC(addr) }

// ALUWritePC handles a data-processing result written to r15.
func (c *Context) ALUWritePC(addr uint32) {
	if c.ISet == insts.ARM {
		c.BXWritePC(addr)
		return
	}
	c.BranchWritePC(addr)
}

// Jump moves execution to addr immediately, selecting the instruction set
// from bit 0. It is used outside instruction execution, when starting a
// thread or a native-to-guest call.
func (c *Context) Jump(addr uint32) {
	if addr&1 != 0 {
		c.ISet = insts.Thumb
		c.PC = addr &^ 1
	} else {
		c.ISet = insts.ARM
		c.PC = addr &^ 3
	}
	c.branched = false
	c.IT = 0
}

// retire advances the program counter past an instruction of the given
// width, or to the recorded branch target.
func (c *Context) retire(width uint8) {
	if c.branched {
		c.PC = c.nextPC
		c.branched = false
		return
	}
	c.PC += uint32(width)
}

// ThumbBit returns 1 in Thumb state and 0 in ARM state, for building return
// addresses.
func (c *Context) ThumbBit() uint32 {
	if c.ISet == insts.Thumb {
		return 1
	}
	return 0
}
