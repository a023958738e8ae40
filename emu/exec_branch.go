package emu

import "github.com/sarchlab/armv7/insts"

// thumbBranchImm decodes the S:I1:I2:imm10:imm11 offset of the 32-bit
// Thumb B.W (T4) and BL encodings.
func thumbBranchImm(w uint32) uint32 {
	s := bf(w, 26, 26)
	i1 := ^(bf(w, 13, 13) ^ s) & 1
	i2 := ^(bf(w, 11, 11) ^ s) & 1
	imm := s<<24 | i1<<23 | i2<<22 | bf(w, 16, 25)<<12 | bf(w, 0, 10)<<1
	return SignExtend(imm, 25)
}

func execB(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var imm uint32
	switch inst.Enc {
	case insts.T1:
		if !ConditionPassed(ctx.APSR, insts.Cond(bf(w, 8, 11))) {
			return nil
		}
		imm = SignExtend(bf(w, 0, 7)<<1, 9)
	case insts.T2:
		imm = SignExtend(bf(w, 0, 10)<<1, 12)
	case insts.T3:
		if !ConditionPassed(ctx.APSR, insts.Cond(bf(w, 22, 25))) {
			return nil
		}
		imm = bf(w, 26, 26)<<20 | bf(w, 11, 11)<<19 | bf(w, 13, 13)<<18 |
			bf(w, 16, 21)<<12 | bf(w, 0, 10)<<1
		imm = SignExtend(imm, 21)
	case insts.T4:
		imm = thumbBranchImm(w)
	case insts.A1:
		imm = SignExtend(bf(w, 0, 23)<<2, 26)
	default:
		return unimplemented(inst, "")
	}

	ctx.BranchWritePC(ctx.ReadPC() + imm)
	return nil
}

// execBL covers BL and BLX with an immediate target.
func execBL(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	next := ctx.PC + uint32(inst.Width)

	switch inst.Enc {
	case insts.T1:
		ctx.GPR[RegLR] = next | 1
		ctx.BranchWritePC(ctx.ReadPC() + thumbBranchImm(w))
	case insts.T2:
		ctx.GPR[RegLR] = next | 1
		imm := thumbBranchImm(w) &^ 3
		ctx.BXWritePC((ctx.ReadPC() &^ 3) + imm)
	case insts.A1:
		ctx.GPR[RegLR] = next
		ctx.BranchWritePC(ctx.ReadPC() + SignExtend(bf(w, 0, 23)<<2, 26))
	case insts.A2:
		ctx.GPR[RegLR] = next
		imm := SignExtend(bf(w, 0, 23)<<2|bf(w, 24, 24)<<1, 26)
		ctx.BXWritePC((ctx.ReadPC() + imm) | 1)
	default:
		return unimplemented(inst, "")
	}
	return nil
}

// execBLX is BLX with a register target.
func execBLX(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var m uint32
	if inst.Enc == insts.T1 {
		m = bf(w, 3, 6)
	} else {
		m = bf(w, 0, 3)
	}

	target := ctx.ReadGPR(m)
	ctx.GPR[RegLR] = (ctx.PC + uint32(inst.Width)) | ctx.ThumbBit()
	ctx.BXWritePC(target)
	return nil
}

func execBX(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	if inst.Enc == insts.T1 {
		ctx.BXWritePC(ctx.ReadGPR(bf(inst.Raw, 3, 6)))
	} else {
		ctx.BXWritePC(ctx.ReadGPR(bf(inst.Raw, 0, 3)))
	}
	return nil
}

// execCBZ covers CBZ and CBNZ.
func execCBZ(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	nonzero := bt(w, 11)
	imm := bf(w, 9, 9)<<6 | bf(w, 3, 7)<<1

	if (ctx.ReadGPR(bf(w, 0, 2)) == 0) != nonzero {
		ctx.BranchWritePC(ctx.ReadPC() + imm)
	}
	return nil
}

// execTB covers TBB and TBH.
func execTB(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	rn, rm := ctx.ReadGPR(bf(w, 16, 19)), ctx.ReadGPR(bf(w, 0, 3))

	var offset uint32
	if bt(w, 4) {
		h, err := t.mem.Read16(rn + rm<<1)
		if err != nil {
			return err
		}
		offset = uint32(h)
	} else {
		b, err := t.mem.Read8(rn + rm)
		if err != nil {
			return err
		}
		offset = uint32(b)
	}

	ctx.BranchWritePC(ctx.ReadPC() + offset<<1)
	return nil
}

func execIT(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	w := inst.Raw
	t.ctx.IT = NewITState(bf(w, 4, 7), bf(w, 0, 3))
	return nil
}
