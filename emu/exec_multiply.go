package emu

import (
	"math/bits"

	"github.com/sarchlab/armv7/insts"
)

// mulFields holds the register fields shared by the multiply encodings. For
// long multiplies d is RdHi and a is RdLo.
type mulFields struct {
	d, a, n, m uint32
	setFlags   bool
	nHigh      bool // top half of Rn (halfword forms)
	mHigh      bool // top half of Rm, swap for dual, round for most-significant
}

func decodeMul(inst insts.Instruction) mulFields {
	w := inst.Raw
	if inst.Enc.IsThumb() {
		return mulFields{
			d: bf(w, 8, 11), a: bf(w, 12, 15), n: bf(w, 16, 19), m: bf(w, 0, 3),
			nHigh: bt(w, 5), mHigh: bt(w, 4),
		}
	}

	f := mulFields{
		d: bf(w, 16, 19), a: bf(w, 12, 15), n: bf(w, 0, 3), m: bf(w, 8, 11),
		setFlags: bt(w, 20), nHigh: bt(w, 5), mHigh: bt(w, 6),
	}
	switch inst.Op {
	case insts.OpSMUAD, insts.OpSMUSD, insts.OpSMLAD, insts.OpSMLSD,
		insts.OpSMLALD, insts.OpSMLSLD, insts.OpSMMUL, insts.OpSMMLA, insts.OpSMMLS:
		f.mHigh = bt(w, 5)
	}
	return f
}

func half(v uint32, high bool) int64 {
	if high {
		return int64(int16(v >> 16))
	}
	return int64(int16(v))
}

func (t *Thread) writeLong(dLo, dHi uint32, v uint64, setFlags bool) {
	ctx := &t.ctx
	ctx.WriteGPR(dLo, uint32(v))
	ctx.WriteGPR(dHi, uint32(v>>32))
	if setFlags {
		ctx.APSR.N = v>>63 != 0
		ctx.APSR.Z = v == 0
	}
}

// execMultiply implements the integer multiply family.
func execMultiply(t *Thread, inst insts.Instruction, cond insts.Cond) error {
	ctx := &t.ctx

	if inst.Op == insts.OpMUL && inst.Width == 2 {
		d := bf(inst.Raw, 0, 2)
		result := ctx.ReadGPR(bf(inst.Raw, 3, 5)) * ctx.ReadGPR(d)
		ctx.WriteGPR(d, result)
		if cond == insts.CondNV {
			ctx.APSR.setNZ(result)
		}
		return nil
	}

	f := decodeMul(inst)
	rn, rm := ctx.ReadGPR(f.n), ctx.ReadGPR(f.m)

	switch inst.Op {
	case insts.OpMUL, insts.OpMLA, insts.OpMLS:
		result := rn * rm
		switch inst.Op {
		case insts.OpMLA:
			result += ctx.ReadGPR(f.a)
		case insts.OpMLS:
			result = ctx.ReadGPR(f.a) - result
		}
		ctx.WriteGPR(f.d, result)
		if f.setFlags && inst.Op != insts.OpMLS {
			ctx.APSR.setNZ(result)
		}

	case insts.OpUMULL, insts.OpUMLAL, insts.OpUMAAL:
		hi, lo := bits.Mul32(rn, rm)
		v := uint64(hi)<<32 | uint64(lo)
		switch inst.Op {
		case insts.OpUMLAL:
			v += uint64(ctx.ReadGPR(f.d))<<32 | uint64(ctx.ReadGPR(f.a))
		case insts.OpUMAAL:
			v += uint64(ctx.ReadGPR(f.d)) + uint64(ctx.ReadGPR(f.a))
		}
		t.writeLong(f.a, f.d, v, f.setFlags && inst.Op != insts.OpUMAAL)

	case insts.OpSMULL, insts.OpSMLAL:
		v := uint64(int64(int32(rn)) * int64(int32(rm)))
		if inst.Op == insts.OpSMLAL {
			v += uint64(ctx.ReadGPR(f.d))<<32 | uint64(ctx.ReadGPR(f.a))
		}
		t.writeLong(f.a, f.d, v, f.setFlags)

	case insts.OpSMULxy, insts.OpSMLAxy:
		result := half(rn, f.nHigh) * half(rm, f.mHigh)
		if inst.Op == insts.OpSMLAxy {
			result += int64(int32(ctx.ReadGPR(f.a)))
			if result != int64(int32(result)) {
				ctx.APSR.Q = true
			}
		}
		ctx.WriteGPR(f.d, uint32(result))

	case insts.OpSMULWy, insts.OpSMLAWy:
		result := int64(int32(rn)) * half(rm, f.mHigh) >> 16
		if inst.Op == insts.OpSMLAWy {
			result += int64(int32(ctx.ReadGPR(f.a)))
			if result != int64(int32(result)) {
				ctx.APSR.Q = true
			}
		}
		ctx.WriteGPR(f.d, uint32(result))

	case insts.OpSMLALxy:
		v := uint64(half(rn, f.nHigh) * half(rm, f.mHigh))
		v += uint64(ctx.ReadGPR(f.d))<<32 | uint64(ctx.ReadGPR(f.a))
		t.writeLong(f.a, f.d, v, false)

	case insts.OpSMUAD, insts.OpSMUSD, insts.OpSMLAD, insts.OpSMLSD:
		if f.mHigh {
			rm = ROR(rm, 16)
		}
		p1 := half(rn, false) * half(rm, false)
		p2 := half(rn, true) * half(rm, true)
		var result int64
		if inst.Op == insts.OpSMUAD || inst.Op == insts.OpSMLAD {
			result = p1 + p2
		} else {
			result = p1 - p2
		}
		if inst.Op == insts.OpSMLAD || inst.Op == insts.OpSMLSD {
			result += int64(int32(ctx.ReadGPR(f.a)))
		}
		if result != int64(int32(result)) {
			ctx.APSR.Q = true
		}
		ctx.WriteGPR(f.d, uint32(result))

	case insts.OpSMLALD, insts.OpSMLSLD:
		if f.mHigh {
			rm = ROR(rm, 16)
		}
		p1 := half(rn, false) * half(rm, false)
		p2 := half(rn, true) * half(rm, true)
		v := uint64(ctx.ReadGPR(f.d))<<32 | uint64(ctx.ReadGPR(f.a))
		if inst.Op == insts.OpSMLALD {
			v += uint64(p1 + p2)
		} else {
			v += uint64(p1 - p2)
		}
		t.writeLong(f.a, f.d, v, false)

	case insts.OpSMMUL, insts.OpSMMLA, insts.OpSMMLS:
		product := int64(int32(rn)) * int64(int32(rm))
		var result int64
		switch inst.Op {
		case insts.OpSMMLA:
			result = int64(ctx.ReadGPR(f.a))<<32 + product
		case insts.OpSMMLS:
			result = int64(ctx.ReadGPR(f.a))<<32 - product
		default:
			result = product
		}
		if f.mHigh {
			result += 0x80000000
		}
		ctx.WriteGPR(f.d, uint32(uint64(result)>>32))

	case insts.OpUSAD8, insts.OpUSADA8:
		var sum uint32
		for i := uint(0); i < 32; i += 8 {
			x, y := int32(rn>>i&0xff), int32(rm>>i&0xff)
			diff := x - y
			if diff < 0 {
				diff = -diff
			}
			sum += uint32(diff)
		}
		if inst.Op == insts.OpUSADA8 {
			sum += ctx.ReadGPR(f.a)
		}
		ctx.WriteGPR(f.d, sum)

	default:
		return unimplemented(inst, "")
	}

	return nil
}
