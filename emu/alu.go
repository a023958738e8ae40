// Package emu provides functional ARMv7 emulation.
package emu

import (
	"fmt"
	"math/bits"
)

// ShiftType selects a barrel shifter operation.
type ShiftType uint8

// Shift types. The first four match the two-bit "type" field of an
// instruction; RRX is selected by ROR with a zero immediate.
const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
	ShiftRRX
)

var shiftNames = [...]string{"lsl", "lsr", "asr", "ror", "rrx"}

func (s ShiftType) String() string {
	if int(s) < len(shiftNames) {
		return shiftNames[s]
	}
	return fmt.Sprintf("ShiftType(%d)", uint8(s))
}

// DecodeImmShift converts an instruction's (type, imm5) pair to a shift type
// and amount. LSR and ASR encode a shift of 32 as 0; ROR #0 is RRX #1.
func DecodeImmShift(typ, imm5 uint32) (ShiftType, uint32) {
	switch typ & 3 {
	case 0:
		return ShiftLSL, imm5
	case 1:
		if imm5 == 0 {
			return ShiftLSR, 32
		}
		return ShiftLSR, imm5
	case 2:
		if imm5 == 0 {
			return ShiftASR, 32
		}
		return ShiftASR, imm5
	default:
		if imm5 == 0 {
			return ShiftRRX, 1
		}
		return ShiftROR, imm5
	}
}

// DecodeRegShift converts the type field of a register-shifted register
// operand.
func DecodeRegShift(typ uint32) ShiftType {
	return ShiftType(typ & 3)
}

// LSLC shifts left. shift must be positive.
func LSLC(x, shift uint32) (uint32, bool) {
	mustShift(shift)
	if shift > 32 {
		return 0, false
	}
	carry := uint64(x)<<shift>>32&1 != 0
	if shift == 32 {
		return 0, carry
	}
	return x << shift, carry
}

// LSL is LSLC without the carry; shift may be zero.
func LSL(x, shift uint32) uint32 {
	if shift == 0 {
		return x
	}
	r, _ := LSLC(x, shift)
	return r
}

// LSRC shifts right logically. shift must be positive.
func LSRC(x, shift uint32) (uint32, bool) {
	mustShift(shift)
	if shift > 32 {
		return 0, false
	}
	carry := x>>(shift-1)&1 != 0
	if shift == 32 {
		return 0, carry
	}
	return x >> shift, carry
}

// LSR is LSRC without the carry; shift may be zero.
func LSR(x, shift uint32) uint32 {
	if shift == 0 {
		return x
	}
	r, _ := LSRC(x, shift)
	return r
}

// ASRC shifts right arithmetically. shift must be positive; shifts of 32 or
// more fill with the sign bit.
func ASRC(x, shift uint32) (uint32, bool) {
	mustShift(shift)
	if shift >= 32 {
		if int32(x) < 0 {
			return 0xffffffff, true
		}
		return 0, false
	}
	carry := x>>(shift-1)&1 != 0
	return uint32(int32(x) >> shift), carry
}

// ASR is ASRC without the carry; shift may be zero.
func ASR(x, shift uint32) uint32 {
	if shift == 0 {
		return x
	}
	r, _ := ASRC(x, shift)
	return r
}

// RORC rotates right. shift must be positive; it is taken modulo 32 and the
// carry is the new bit 31.
func RORC(x, shift uint32) (uint32, bool) {
	mustShift(shift)
	r := bits.RotateLeft32(x, -int(shift%32))
	return r, r>>31 != 0
}

// ROR is RORC without the carry; shift may be zero.
func ROR(x, shift uint32) uint32 {
	return bits.RotateLeft32(x, -int(shift%32))
}

// RRXC rotates right by one through the carry flag.
func RRXC(x uint32, carryIn bool) (uint32, bool) {
	r := x >> 1
	if carryIn {
		r |= 1 << 31
	}
	return r, x&1 != 0
}

// RRX is RRXC without the carry out.
func RRX(x uint32, carryIn bool) uint32 {
	r, _ := RRXC(x, carryIn)
	return r
}

// ShiftC applies a shift with carry. An amount of zero returns the value and
// carry unchanged for every type.
func ShiftC(value uint32, typ ShiftType, amount uint32, carryIn bool) (uint32, bool) {
	if amount == 0 {
		return value, carryIn
	}

	switch typ {
	case ShiftLSL:
		return LSLC(value, amount)
	case ShiftLSR:
		return LSRC(value, amount)
	case ShiftASR:
		return ASRC(value, amount)
	case ShiftROR:
		return RORC(value, amount)
	case ShiftRRX:
		return RRXC(value, carryIn)
	}

	panic(fmt.Sprintf("emu: invalid shift type %d", typ))
}

// Shift is ShiftC without the carry out.
func Shift(value uint32, typ ShiftType, amount uint32, carryIn bool) uint32 {
	r, _ := ShiftC(value, typ, amount, carryIn)
	return r
}

func mustShift(shift uint32) {
	if shift == 0 {
		panic("emu: shift amount must be positive")
	}
}

// AddWithCarry returns x + y + carryIn with the unsigned carry out and the
// signed overflow. x - y is AddWithCarry(x, ^y, true).
func AddWithCarry(x, y uint32, carryIn bool) (result uint32, carryOut, overflow bool) {
	var c uint32
	if carryIn {
		c = 1
	}

	result, carry := bits.Add32(x, y, c)
	overflow = (x^result)&(y^result)>>31 != 0
	return result, carry != 0, overflow
}

// ThumbExpandImmC expands the 12-bit modified immediate i:imm3:imm8 of
// 32-bit Thumb data-processing instructions.
func ThumbExpandImmC(imm12 uint32, carryIn bool) (uint32, bool) {
	imm12 &= 0xfff
	if imm12>>10 == 0 {
		b := imm12 & 0xff
		switch imm12 >> 8 & 3 {
		case 0:
			return b, carryIn
		case 1:
			return b<<16 | b, carryIn
		case 2:
			return b<<24 | b<<8, carryIn
		default:
			return b<<24 | b<<16 | b<<8 | b, carryIn
		}
	}

	// imm12>>7 is at least 8 here, so the rotation is never zero.
	return RORC(0x80|imm12&0x7f, imm12>>7)
}

// ThumbExpandImm is ThumbExpandImmC without the carry.
func ThumbExpandImm(imm12 uint32) uint32 {
	v, _ := ThumbExpandImmC(imm12, false)
	return v
}

// ARMExpandImmC expands the rotated 8-bit immediate of ARM data-processing
// instructions.
func ARMExpandImmC(imm12 uint32, carryIn bool) (uint32, bool) {
	return ShiftC(imm12&0xff, ShiftROR, 2*(imm12>>8&0xf), carryIn)
}

// ARMExpandImm is ARMExpandImmC without the carry.
func ARMExpandImm(imm12 uint32) uint32 {
	return ROR(imm12&0xff, 2*(imm12>>8&0xf))
}

// SignExtend sign-extends the low n bits of x.
func SignExtend(x uint32, n uint) uint32 {
	shift := 32 - n
	return uint32(int32(x<<shift) >> shift)
}

// BitCount returns the number of set bits.
func BitCount(x uint32) int {
	return bits.OnesCount32(x)
}

// CountLeadingZeros returns the number of leading zero bits (32 for zero).
func CountLeadingZeros(x uint32) uint32 {
	return uint32(bits.LeadingZeros32(x))
}

// SignedSatQ saturates i to an n-bit signed range and reports whether it
// saturated.
func SignedSatQ(i int64, n uint) (uint32, bool) {
	hi := int64(1)<<(n-1) - 1
	lo := -(int64(1) << (n - 1))
	switch {
	case i > hi:
		return uint32(hi), true
	case i < lo:
		return uint32(lo), true
	}
	return uint32(i), false
}

// UnsignedSatQ saturates i to an n-bit unsigned range.
func UnsignedSatQ(i int64, n uint) (uint32, bool) {
	hi := int64(1)<<n - 1
	switch {
	case i > hi:
		return uint32(hi), true
	case i < 0:
		return 0, true
	}
	return uint32(i), false
}
