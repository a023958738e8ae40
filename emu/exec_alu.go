package emu

import "github.com/sarchlab/armv7/insts"

// aluOp is the arithmetic or logical operation of a data-processing
// instruction.
type aluOp uint8

const (
	aluAND aluOp = iota
	aluEOR
	aluSUB
	aluRSB
	aluADD
	aluADC
	aluSBC
	aluRSC
	aluTST
	aluTEQ
	aluCMP
	aluCMN
	aluORR
	aluMOV
	aluBIC
	aluMVN
	aluORN
)

func (op aluOp) isTest() bool {
	return op == aluTST || op == aluTEQ || op == aluCMP || op == aluCMN
}

// dpForm describes where the second operand comes from.
type dpForm uint8

const (
	formImm      dpForm = iota // immediate
	formReg                    // register shifted by immediate
	formRsr                    // register shifted by register
	formShiftImm               // LSL/LSR/ASR/ROR/RRX #imm (MOV with shifted register)
	formShiftReg               // LSL/LSR/ASR/ROR Rm (MOV with register-shifted register)
)

type dpInfo struct {
	alu   aluOp
	form  dpForm
	shift ShiftType
}

var dpTable = map[insts.Op]dpInfo{
	insts.OpADCImm: {alu: aluADC, form: formImm},
	insts.OpADCReg: {alu: aluADC, form: formReg},
	insts.OpADCRsr: {alu: aluADC, form: formRsr},
	insts.OpADDImm: {alu: aluADD, form: formImm},
	insts.OpADDReg: {alu: aluADD, form: formReg},
	insts.OpADDRsr: {alu: aluADD, form: formRsr},
	insts.OpANDImm: {alu: aluAND, form: formImm},
	insts.OpANDReg: {alu: aluAND, form: formReg},
	insts.OpANDRsr: {alu: aluAND, form: formRsr},
	insts.OpBICImm: {alu: aluBIC, form: formImm},
	insts.OpBICReg: {alu: aluBIC, form: formReg},
	insts.OpBICRsr: {alu: aluBIC, form: formRsr},
	insts.OpCMNImm: {alu: aluCMN, form: formImm},
	insts.OpCMNReg: {alu: aluCMN, form: formReg},
	insts.OpCMNRsr: {alu: aluCMN, form: formRsr},
	insts.OpCMPImm: {alu: aluCMP, form: formImm},
	insts.OpCMPReg: {alu: aluCMP, form: formReg},
	insts.OpCMPRsr: {alu: aluCMP, form: formRsr},
	insts.OpEORImm: {alu: aluEOR, form: formImm},
	insts.OpEORReg: {alu: aluEOR, form: formReg},
	insts.OpEORRsr: {alu: aluEOR, form: formRsr},
	insts.OpMOVImm: {alu: aluMOV, form: formImm},
	insts.OpMOVReg: {alu: aluMOV, form: formReg},
	insts.OpMVNImm: {alu: aluMVN, form: formImm},
	insts.OpMVNReg: {alu: aluMVN, form: formReg},
	insts.OpMVNRsr: {alu: aluMVN, form: formRsr},
	insts.OpORNImm: {alu: aluORN, form: formImm},
	insts.OpORNReg: {alu: aluORN, form: formReg},
	insts.OpORRImm: {alu: aluORR, form: formImm},
	insts.OpORRReg: {alu: aluORR, form: formReg},
	insts.OpORRRsr: {alu: aluORR, form: formRsr},
	insts.OpRSBImm: {alu: aluRSB, form: formImm},
	insts.OpRSBReg: {alu: aluRSB, form: formReg},
	insts.OpRSBRsr: {alu: aluRSB, form: formRsr},
	insts.OpRSCImm: {alu: aluRSC, form: formImm},
	insts.OpRSCReg: {alu: aluRSC, form: formReg},
	insts.OpRSCRsr: {alu: aluRSC, form: formRsr},
	insts.OpSBCImm: {alu: aluSBC, form: formImm},
	insts.OpSBCReg: {alu: aluSBC, form: formReg},
	insts.OpSBCRsr: {alu: aluSBC, form: formRsr},
	insts.OpSUBImm: {alu: aluSUB, form: formImm},
	insts.OpSUBReg: {alu: aluSUB, form: formReg},
	insts.OpSUBRsr: {alu: aluSUB, form: formRsr},
	insts.OpTEQImm: {alu: aluTEQ, form: formImm},
	insts.OpTEQReg: {alu: aluTEQ, form: formReg},
	insts.OpTEQRsr: {alu: aluTEQ, form: formRsr},
	insts.OpTSTImm: {alu: aluTST, form: formImm},
	insts.OpTSTReg: {alu: aluTST, form: formReg},
	insts.OpTSTRsr: {alu: aluTST, form: formRsr},

	insts.OpADDSPImm: {alu: aluADD, form: formImm},
	insts.OpADDSPReg: {alu: aluADD, form: formReg},
	insts.OpSUBSPImm: {alu: aluSUB, form: formImm},
	insts.OpSUBSPReg: {alu: aluSUB, form: formReg},

	insts.OpLSLImm: {alu: aluMOV, form: formShiftImm, shift: ShiftLSL},
	insts.OpLSRImm: {alu: aluMOV, form: formShiftImm, shift: ShiftLSR},
	insts.OpASRImm: {alu: aluMOV, form: formShiftImm, shift: ShiftASR},
	insts.OpRORImm: {alu: aluMOV, form: formShiftImm, shift: ShiftROR},
	insts.OpLSLReg: {alu: aluMOV, form: formShiftReg, shift: ShiftLSL},
	insts.OpLSRReg: {alu: aluMOV, form: formShiftReg, shift: ShiftLSR},
	insts.OpASRReg: {alu: aluMOV, form: formShiftReg, shift: ShiftASR},
	insts.OpRORReg: {alu: aluMOV, form: formShiftReg, shift: ShiftROR},
}

// dpArgs are the decoded operands of a data-processing instruction.
type dpArgs struct {
	d, n     uint32
	x, y     uint32 // first operand value, second (shifted) operand value
	carry    bool   // shifter carry out
	setFlags bool
}

func bf(w uint32, lo, hi uint) uint32 {
	return (w >> lo) & (1<<(hi-lo+1) - 1)
}

func bt(w uint32, n uint) bool {
	return w>>n&1 != 0
}

// execDataProc implements every data-processing instruction in dpTable.
func execDataProc(t *Thread, inst insts.Instruction, cond insts.Cond) error {
	info, ok := dpTable[inst.Op]
	if !ok {
		return unimplemented(inst, "")
	}

	var a dpArgs
	var err error
	switch {
	case inst.Width == 2:
		a, err = t.decodeDP16(inst, cond, info)
	case inst.Enc.IsThumb():
		a, err = t.decodeDP32(inst, info)
	default:
		a, err = t.decodeDPARM(inst, info)
	}
	if err != nil {
		return err
	}

	return t.applyDP(inst, info.alu, a)
}

func (t *Thread) applyDP(inst insts.Instruction, op aluOp, a dpArgs) error {
	ctx := &t.ctx
	c := ctx.APSR.C
	x, y := a.x, a.y

	var result uint32
	carry, overflow, arith := a.carry, ctx.APSR.V, false
	switch op {
	case aluAND, aluTST:
		result = x & y
	case aluEOR, aluTEQ:
		result = x ^ y
	case aluORR:
		result = x | y
	case aluORN:
		result = x | ^y
	case aluBIC:
		result = x &^ y
	case aluMOV:
		result = y
	case aluMVN:
		result = ^y
	case aluADD, aluCMN:
		result, carry, overflow = AddWithCarry(x, y, false)
		arith = true
	case aluADC:
		result, carry, overflow = AddWithCarry(x, y, c)
		arith = true
	case aluSUB, aluCMP:
		result, carry, overflow = AddWithCarry(x, ^y, true)
		arith = true
	case aluSBC:
		result, carry, overflow = AddWithCarry(x, ^y, c)
		arith = true
	case aluRSB:
		result, carry, overflow = AddWithCarry(^x, y, true)
		arith = true
	case aluRSC:
		result, carry, overflow = AddWithCarry(^x, y, c)
		arith = true
	}

	if op.isTest() {
		a.setFlags = true
	} else {
		if a.d == RegPC && a.setFlags {
			return unimplemented(inst, "flag-setting write to pc is an exception return")
		}
		ctx.WriteGPR(a.d, result)
	}

	if a.setFlags {
		ctx.APSR.setNZ(result)
		ctx.APSR.C = carry
		if arith {
			ctx.APSR.V = overflow
		}
	}
	return nil
}

// decodeDP16 decodes the 16-bit Thumb data-processing encodings. Outside an
// IT block (cond == CondNV) the flag-setting forms set flags.
func (t *Thread) decodeDP16(inst insts.Instruction, cond insts.Cond, info dpInfo) (dpArgs, error) {
	ctx := &t.ctx
	w := inst.Raw
	notIT := cond == insts.CondNV
	a := dpArgs{carry: ctx.APSR.C}

	// Two-register "data processing" format: Rdn in 0-2, Rm in 3-5.
	dataProc := func() {
		a.d, a.n = bf(w, 0, 2), bf(w, 0, 2)
		a.x = ctx.ReadGPR(a.n)
		a.y = ctx.ReadGPR(bf(w, 3, 5))
		a.setFlags = notIT
	}

	switch inst.Op {
	case insts.OpADCReg, insts.OpANDReg, insts.OpBICReg, insts.OpEORReg,
		insts.OpORRReg, insts.OpSBCReg, insts.OpMVNReg, insts.OpTSTReg,
		insts.OpCMNReg:
		dataProc()

	case insts.OpCMPReg:
		if inst.Enc == insts.T1 {
			dataProc()
		} else {
			a.n = bf(w, 7, 7)<<3 | bf(w, 0, 2)
			a.x = ctx.ReadGPR(a.n)
			a.y = ctx.ReadGPR(bf(w, 3, 6))
		}

	case insts.OpCMPImm:
		a.n = bf(w, 8, 10)
		a.x = ctx.ReadGPR(a.n)
		a.y = bf(w, 0, 7)

	case insts.OpADDReg, insts.OpSUBReg:
		if inst.Enc == insts.T1 {
			a.d, a.n = bf(w, 0, 2), bf(w, 3, 5)
			a.x = ctx.ReadGPR(a.n)
			a.y = ctx.ReadGPR(bf(w, 6, 8))
			a.setFlags = notIT
		} else {
			a.d = bf(w, 7, 7)<<3 | bf(w, 0, 2)
			a.n = a.d
			a.x = ctx.ReadGPR(a.n)
			a.y = ctx.ReadGPR(bf(w, 3, 6))
		}

	case insts.OpADDImm, insts.OpSUBImm:
		if inst.Enc == insts.T1 {
			a.d, a.n = bf(w, 0, 2), bf(w, 3, 5)
			a.y = bf(w, 6, 8)
		} else {
			a.d, a.n = bf(w, 8, 10), bf(w, 8, 10)
			a.y = bf(w, 0, 7)
		}
		a.x = ctx.ReadGPR(a.n)
		a.setFlags = notIT

	case insts.OpMOVImm:
		a.d = bf(w, 8, 10)
		a.y = bf(w, 0, 7)
		a.setFlags = notIT

	case insts.OpMOVReg:
		if inst.Enc != insts.T1 {
			return a, unimplemented(inst, "")
		}
		a.d = bf(w, 7, 7)<<3 | bf(w, 0, 2)
		a.y = ctx.ReadGPR(bf(w, 3, 6))

	case insts.OpRSBImm:
		a.d, a.n = bf(w, 0, 2), bf(w, 3, 5)
		a.x = ctx.ReadGPR(a.n)
		a.setFlags = notIT

	case insts.OpADDSPImm:
		a.n = RegSP
		a.x = ctx.GPR[RegSP]
		if inst.Enc == insts.T1 {
			a.d = bf(w, 8, 10)
			a.y = bf(w, 0, 7) << 2
		} else {
			a.d = RegSP
			a.y = bf(w, 0, 6) << 2
		}

	case insts.OpSUBSPImm:
		a.d, a.n = RegSP, RegSP
		a.x = ctx.GPR[RegSP]
		a.y = bf(w, 0, 6) << 2

	case insts.OpADDSPReg:
		a.n = RegSP
		a.x = ctx.GPR[RegSP]
		if inst.Enc == insts.T1 {
			a.d = bf(w, 7, 7)<<3 | bf(w, 0, 2)
			a.y = ctx.ReadGPR(a.d)
		} else {
			a.d = RegSP
			a.y = ctx.ReadGPR(bf(w, 3, 6))
		}

	case insts.OpLSLImm, insts.OpLSRImm, insts.OpASRImm:
		a.d = bf(w, 0, 2)
		typ, amount := DecodeImmShift(uint32(info.shift), bf(w, 6, 10))
		a.y, a.carry = ShiftC(ctx.ReadGPR(bf(w, 3, 5)), typ, amount, ctx.APSR.C)
		a.setFlags = notIT

	case insts.OpLSLReg, insts.OpLSRReg, insts.OpASRReg, insts.OpRORReg:
		a.d = bf(w, 0, 2)
		amount := ctx.ReadGPR(bf(w, 3, 5)) & 0xff
		a.y, a.carry = ShiftC(ctx.ReadGPR(a.d), info.shift, amount, ctx.APSR.C)
		a.setFlags = notIT

	default:
		return a, unimplemented(inst, "")
	}

	return a, nil
}

// usesPlainImm12 reports the 32-bit Thumb encodings whose immediate is
// i:imm3:imm8 zero-extended rather than a modified immediate.
func usesPlainImm12(inst insts.Instruction) bool {
	switch inst.Op {
	case insts.OpADDImm, insts.OpSUBImm, insts.OpADDSPImm:
		return inst.Enc == insts.T4
	case insts.OpSUBSPImm:
		return inst.Enc == insts.T3
	}
	return false
}

func (t *Thread) decodeDP32(inst insts.Instruction, info dpInfo) (dpArgs, error) {
	ctx := &t.ctx
	w := inst.Raw
	a := dpArgs{
		d:        bf(w, 8, 11),
		n:        bf(w, 16, 19),
		setFlags: bt(w, 20),
		carry:    ctx.APSR.C,
	}
	imm5 := bf(w, 12, 14)<<2 | bf(w, 6, 7)

	switch info.form {
	case formImm:
		a.x = ctx.ReadGPR(a.n)
		imm12 := bf(w, 26, 26)<<11 | bf(w, 12, 14)<<8 | bf(w, 0, 7)
		switch {
		case inst.Op == insts.OpMOVImm && inst.Enc == insts.T3:
			a.y = bf(w, 16, 19)<<12 | imm12
			a.setFlags = false
		case usesPlainImm12(inst):
			a.y = imm12
			a.setFlags = false
		default:
			a.y, a.carry = ThumbExpandImmC(imm12, ctx.APSR.C)
		}

	case formReg:
		a.x = ctx.ReadGPR(a.n)
		typ, amount := DecodeImmShift(bf(w, 4, 5), imm5)
		a.y, a.carry = ShiftC(ctx.ReadGPR(bf(w, 0, 3)), typ, amount, ctx.APSR.C)

	case formShiftImm:
		typ, amount := DecodeImmShift(uint32(info.shift), imm5)
		a.y, a.carry = ShiftC(ctx.ReadGPR(bf(w, 0, 3)), typ, amount, ctx.APSR.C)

	case formShiftReg:
		amount := ctx.ReadGPR(bf(w, 0, 3)) & 0xff
		a.y, a.carry = ShiftC(ctx.ReadGPR(a.n), info.shift, amount, ctx.APSR.C)

	default:
		return a, unimplemented(inst, "")
	}

	return a, nil
}

func (t *Thread) decodeDPARM(inst insts.Instruction, info dpInfo) (dpArgs, error) {
	ctx := &t.ctx
	w := inst.Raw
	a := dpArgs{
		d:        bf(w, 12, 15),
		n:        bf(w, 16, 19),
		setFlags: bt(w, 20),
		carry:    ctx.APSR.C,
	}

	switch info.form {
	case formImm:
		a.x = ctx.ReadGPR(a.n)
		if inst.Op == insts.OpMOVImm && inst.Enc == insts.A2 {
			a.y = bf(w, 16, 19)<<12 | bf(w, 0, 11)
			a.setFlags = false
		} else {
			a.y, a.carry = ARMExpandImmC(bf(w, 0, 11), ctx.APSR.C)
		}

	case formReg:
		a.x = ctx.ReadGPR(a.n)
		typ, amount := DecodeImmShift(bf(w, 5, 6), bf(w, 7, 11))
		a.y, a.carry = ShiftC(ctx.ReadGPR(bf(w, 0, 3)), typ, amount, ctx.APSR.C)

	case formRsr:
		a.x = ctx.ReadGPR(a.n)
		amount := ctx.ReadGPR(bf(w, 8, 11)) & 0xff
		a.y, a.carry = ShiftC(ctx.ReadGPR(bf(w, 0, 3)), DecodeRegShift(bf(w, 5, 6)), amount, ctx.APSR.C)

	case formShiftImm:
		typ, amount := DecodeImmShift(uint32(info.shift), bf(w, 7, 11))
		a.y, a.carry = ShiftC(ctx.ReadGPR(bf(w, 0, 3)), typ, amount, ctx.APSR.C)

	case formShiftReg:
		amount := ctx.ReadGPR(bf(w, 8, 11)) & 0xff
		a.y, a.carry = ShiftC(ctx.ReadGPR(bf(w, 0, 3)), info.shift, amount, ctx.APSR.C)
	}

	return a, nil
}

// execADR computes a PC-relative address.
func execADR(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	base := ctx.ReadPC() &^ 3

	var d, imm uint32
	add := true
	switch inst.Enc {
	case insts.T1:
		d, imm = bf(w, 8, 10), bf(w, 0, 7)<<2
	case insts.T2, insts.T3:
		d = bf(w, 8, 11)
		imm = bf(w, 26, 26)<<11 | bf(w, 12, 14)<<8 | bf(w, 0, 7)
		add = inst.Enc == insts.T3
	default:
		return unimplemented(inst, "")
	}

	if add {
		ctx.WriteGPR(d, base+imm)
	} else {
		ctx.WriteGPR(d, base-imm)
	}
	return nil
}

// execMOVT writes the top halfword of a register.
func execMOVT(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var d, imm16 uint32
	if inst.Enc == insts.T1 {
		d = bf(w, 8, 11)
		imm16 = bf(w, 16, 19)<<12 | bf(w, 26, 26)<<11 | bf(w, 12, 14)<<8 | bf(w, 0, 7)
	} else {
		d = bf(w, 12, 15)
		imm16 = bf(w, 16, 19)<<12 | bf(w, 0, 11)
	}

	ctx.WriteGPR(d, imm16<<16|ctx.ReadGPR(d)&0xffff)
	return nil
}
