package emu

import (
	"math/bits"

	"github.com/sarchlab/armv7/insts"
)

// regs3 extracts (d, n, m) for the common three-register layouts.
func regs3(inst insts.Instruction) (d, n, m uint32) {
	w := inst.Raw
	if inst.Enc.IsThumb() {
		return bf(w, 8, 11), bf(w, 16, 19), bf(w, 0, 3)
	}
	return bf(w, 12, 15), bf(w, 16, 19), bf(w, 0, 3)
}

// thumbImm5 is the imm3:imm2 shift field of 32-bit Thumb encodings.
func thumbImm5(w uint32) uint32 {
	return bf(w, 12, 14)<<2 | bf(w, 6, 7)
}

func execBitfield(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var d, n, hi, lsb uint32
	if inst.Enc.IsThumb() {
		d, n, hi, lsb = bf(w, 8, 11), bf(w, 16, 19), bf(w, 0, 4), thumbImm5(w)
	} else {
		d, n, hi, lsb = bf(w, 12, 15), bf(w, 0, 3), bf(w, 16, 20), bf(w, 7, 11)
	}

	switch inst.Op {
	case insts.OpBFC, insts.OpBFI:
		// hi is the msb.
		if hi < lsb {
			return unimplemented(inst, "msb below lsb")
		}
		mask := uint32((uint64(1)<<(hi-lsb+1) - 1) << lsb)
		var src uint32
		if inst.Op == insts.OpBFI {
			src = ctx.ReadGPR(n) << lsb
		}
		ctx.WriteGPR(d, ctx.ReadGPR(d)&^mask|src&mask)

	case insts.OpUBFX, insts.OpSBFX:
		// hi is width-1.
		if lsb+hi > 31 {
			return unimplemented(inst, "field beyond bit 31")
		}
		v := ctx.ReadGPR(n) >> lsb & uint32(uint64(1)<<(hi+1)-1)
		if inst.Op == insts.OpSBFX {
			v = SignExtend(v, uint(hi+1))
		}
		ctx.WriteGPR(d, v)

	default:
		return unimplemented(inst, "")
	}
	return nil
}

// execReverse covers CLZ, RBIT, REV, REV16 and REVSH.
func execReverse(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var d, m uint32
	switch {
	case inst.Width == 2:
		d, m = bf(w, 0, 2), bf(w, 3, 5)
	case inst.Enc.IsThumb():
		d, m = bf(w, 8, 11), bf(w, 0, 3)
	default:
		d, m = bf(w, 12, 15), bf(w, 0, 3)
	}

	v := ctx.ReadGPR(m)
	switch inst.Op {
	case insts.OpCLZ:
		v = CountLeadingZeros(v)
	case insts.OpRBIT:
		v = bits.Reverse32(v)
	case insts.OpREV:
		v = bits.ReverseBytes32(v)
	case insts.OpREV16:
		v = v>>8&0x00ff00ff | v<<8&0xff00ff00
	case insts.OpREVSH:
		v = SignExtend(uint32(bits.ReverseBytes16(uint16(v))), 16)
	default:
		return unimplemented(inst, "")
	}

	ctx.WriteGPR(d, v)
	return nil
}

type extendKind struct {
	width  uint // 8 or 16
	signed bool
	dual   bool // the "16" variants extend both halves
	add    bool
}

var extendTable = map[insts.Op]extendKind{
	insts.OpSXTB:    {width: 8, signed: true},
	insts.OpSXTH:    {width: 16, signed: true},
	insts.OpUXTB:    {width: 8},
	insts.OpUXTH:    {width: 16},
	insts.OpSXTB16:  {width: 8, signed: true, dual: true},
	insts.OpUXTB16:  {width: 8, dual: true},
	insts.OpSXTAB:   {width: 8, signed: true, add: true},
	insts.OpSXTAH:   {width: 16, signed: true, add: true},
	insts.OpUXTAB:   {width: 8, add: true},
	insts.OpUXTAH:   {width: 16, add: true},
	insts.OpSXTAB16: {width: 8, signed: true, dual: true, add: true},
	insts.OpUXTAB16: {width: 8, dual: true, add: true},
}

func execExtend(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	k, ok := extendTable[inst.Op]
	if !ok {
		return unimplemented(inst, "")
	}

	var d, n, m, rot uint32
	switch {
	case inst.Width == 2:
		d, m = bf(w, 0, 2), bf(w, 3, 5)
	case inst.Enc.IsThumb():
		d, n, m, rot = bf(w, 8, 11), bf(w, 16, 19), bf(w, 0, 3), bf(w, 4, 5)*8
	default:
		d, n, m, rot = bf(w, 12, 15), bf(w, 16, 19), bf(w, 0, 3), bf(w, 10, 11)*8
	}

	rotated := ROR(ctx.ReadGPR(m), rot)
	ext := func(v uint32) uint32 {
		v &= 1<<k.width - 1
		if k.signed {
			v = SignExtend(v, k.width)
		}
		return v
	}

	var result uint32
	if k.dual {
		lo := ext(rotated)
		hi := ext(rotated >> 16)
		if k.add {
			base := ctx.ReadGPR(n)
			lo += base
			hi += base >> 16
		}
		result = hi<<16 | lo&0xffff
	} else {
		result = ext(rotated)
		if k.add {
			result += ctx.ReadGPR(n)
		}
	}

	ctx.WriteGPR(d, result)
	return nil
}

func execPKH(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	d, n, m := regs3(inst)

	var tb bool
	var imm5 uint32
	if inst.Enc.IsThumb() {
		tb, imm5 = bt(w, 5), thumbImm5(w)
	} else {
		tb, imm5 = bt(w, 6), bf(w, 7, 11)
	}

	var typ uint32
	if tb {
		typ = 2
	}
	shiftType, amount := DecodeImmShift(typ, imm5)
	op2 := Shift(ctx.ReadGPR(m), shiftType, amount, ctx.APSR.C)
	rn := ctx.ReadGPR(n)

	if tb {
		ctx.WriteGPR(d, rn&0xffff0000|op2&0xffff)
	} else {
		ctx.WriteGPR(d, op2&0xffff0000|rn&0xffff)
	}
	return nil
}

func execSEL(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	d, n, m := regs3(inst)
	rn, rm := ctx.ReadGPR(n), ctx.ReadGPR(m)

	var result uint32
	for i := uint(0); i < 4; i++ {
		mask := uint32(0xff) << (8 * i)
		if ctx.APSR.GE>>i&1 != 0 {
			result |= rn & mask
		} else {
			result |= rm & mask
		}
	}

	ctx.WriteGPR(d, result)
	return nil
}

// execSaturate covers SSAT and USAT.
func execSaturate(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var d, n, satImm, imm5 uint32
	var sh bool
	if inst.Enc.IsThumb() {
		d, n, satImm, sh, imm5 = bf(w, 8, 11), bf(w, 16, 19), bf(w, 0, 4), bt(w, 21), thumbImm5(w)
	} else {
		d, n, satImm, sh, imm5 = bf(w, 12, 15), bf(w, 0, 3), bf(w, 16, 20), bt(w, 6), bf(w, 7, 11)
	}

	var typ uint32
	if sh {
		typ = 2
	}
	shiftType, amount := DecodeImmShift(typ, imm5)
	operand := int64(int32(Shift(ctx.ReadGPR(n), shiftType, amount, ctx.APSR.C)))

	var result uint32
	var sat bool
	if inst.Op == insts.OpSSAT {
		result, sat = SignedSatQ(operand, uint(satImm+1))
	} else {
		result, sat = UnsignedSatQ(operand, uint(satImm))
	}

	ctx.WriteGPR(d, result)
	if sat {
		ctx.APSR.Q = true
	}
	return nil
}

// execSaturate16 covers SSAT16 and USAT16, saturating each halfword.
func execSaturate16(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var d, n, satImm uint32
	if inst.Enc.IsThumb() {
		d, n, satImm = bf(w, 8, 11), bf(w, 16, 19), bf(w, 0, 3)
	} else {
		d, n, satImm = bf(w, 12, 15), bf(w, 0, 3), bf(w, 16, 19)
	}

	rn := ctx.ReadGPR(n)
	var result uint32
	var sat bool
	for _, shift := range []uint{0, 16} {
		operand := int64(int16(rn >> shift))
		var r uint32
		var s bool
		if inst.Op == insts.OpSSAT16 {
			r, s = SignedSatQ(operand, uint(satImm+1))
		} else {
			r, s = UnsignedSatQ(operand, uint(satImm))
		}
		result |= (r & 0xffff) << shift
		sat = sat || s
	}

	ctx.WriteGPR(d, result)
	if sat {
		ctx.APSR.Q = true
	}
	return nil
}

// execSatArith covers QADD, QSUB, QDADD and QDSUB.
func execSatArith(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	d, n, m := regs3(inst)
	rn := int64(int32(ctx.ReadGPR(n)))
	rm := int64(int32(ctx.ReadGPR(m)))

	var q bool
	if inst.Op == insts.OpQDADD || inst.Op == insts.OpQDSUB {
		doubled, sat := SignedSatQ(2*rn, 32)
		rn = int64(int32(doubled))
		q = sat
	}

	var result uint32
	var sat bool
	switch inst.Op {
	case insts.OpQADD, insts.OpQDADD:
		result, sat = SignedSatQ(rm+rn, 32)
	default:
		result, sat = SignedSatQ(rm-rn, 32)
	}

	ctx.WriteGPR(d, result)
	if q || sat {
		ctx.APSR.Q = true
	}
	return nil
}

// execDivide covers SDIV and UDIV. Division by zero yields zero.
func execDivide(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var d, n, m uint32
	if inst.Enc.IsThumb() {
		d, n, m = bf(w, 8, 11), bf(w, 16, 19), bf(w, 0, 3)
	} else {
		d, n, m = bf(w, 16, 19), bf(w, 0, 3), bf(w, 8, 11)
	}

	rn, rm := ctx.ReadGPR(n), ctx.ReadGPR(m)
	var result uint32
	switch {
	case rm == 0:
		result = 0
	case inst.Op == insts.OpSDIV:
		result = uint32(int32(rn) / int32(rm))
	default:
		result = rn / rm
	}

	ctx.WriteGPR(d, result)
	return nil
}
