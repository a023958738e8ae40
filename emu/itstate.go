package emu

import "github.com/sarchlab/armv7/insts"

// ITState is the Thumb IT-block state. The top three bits hold the base
// condition; the low five bits are a shift register whose top bit supplies
// the low bit of the condition for the next instruction.
type ITState uint8

// Active reports whether an IT block is in progress.
func (s ITState) Active() bool { return s&0xf != 0 }

// Cond returns the condition for the next instruction in the block.
func (s ITState) Cond() insts.Cond { return insts.Cond(s >> 4) }

// Remaining returns the number of instructions left in the block.
func (s ITState) Remaining() int {
	if !s.Active() {
		return 0
	}
	n := 4
	for m := s & 0xf; m&1 == 0; m >>= 1 {
		n--
	}
	return n
}

// Advance returns the condition governing the instruction about to execute
// and steps the state to the next instruction. Outside a block it returns
// CondNV, which callers treat as "always" and as a signal that 16-bit
// flag-setting encodings do set flags.
func (s *ITState) Advance() insts.Cond {
	if !s.Active() {
		return insts.CondNV
	}

	cond := s.Cond()
	if *s&7 == 0 {
		*s = 0
	} else {
		*s = *s&0xe0 | *s<<1&0x1f
	}
	return cond
}

// NewITState builds the state loaded by an IT instruction from its firstcond
// and mask fields.
func NewITState(firstCond, mask uint32) ITState {
	return ITState(firstCond<<4&0xf0 | mask&0xf)
}
