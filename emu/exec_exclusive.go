package emu

import "github.com/sarchlab/armv7/insts"

func exclusiveSize(op insts.Op) int {
	switch op {
	case insts.OpLDREXB, insts.OpSTREXB:
		return 1
	case insts.OpLDREXH, insts.OpSTREXH:
		return 2
	case insts.OpLDREXD, insts.OpSTREXD:
		return 8
	}
	return 4
}

// execLoadExclusive covers LDREX, LDREXB, LDREXH and LDREXD.
func execLoadExclusive(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	size := exclusiveSize(inst.Op)

	tReg, n := bf(w, 12, 15), bf(w, 16, 19)
	t2 := tReg + 1
	var imm uint32
	if inst.Enc.IsThumb() {
		t2 = bf(w, 8, 11)
		if inst.Op == insts.OpLDREX {
			imm = bf(w, 0, 7) << 2
		}
	}

	addr := ctx.ReadGPR(n) + imm
	v, err := t.monitor.LoadExclusive(ctx, t.mem, addr, size)
	if err != nil {
		return err
	}

	ctx.WriteGPR(tReg, uint32(v))
	if size == 8 {
		ctx.WriteGPR(t2, uint32(v>>32))
	}
	return nil
}

// execStoreExclusive covers STREX, STREXB, STREXH and STREXD. Rd receives 0
// on success and 1 on failure.
func execStoreExclusive(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	size := exclusiveSize(inst.Op)
	n := bf(w, 16, 19)

	var d, tReg, t2, imm uint32
	switch {
	case !inst.Enc.IsThumb():
		d, tReg = bf(w, 12, 15), bf(w, 0, 3)
		t2 = tReg + 1
	case inst.Op == insts.OpSTREX:
		d, tReg, imm = bf(w, 8, 11), bf(w, 12, 15), bf(w, 0, 7)<<2
	default:
		d, tReg, t2 = bf(w, 0, 3), bf(w, 12, 15), bf(w, 8, 11)
	}

	addr := ctx.ReadGPR(n) + imm
	v := uint64(ctx.ReadGPR(tReg))
	if size == 8 {
		v |= uint64(ctx.ReadGPR(t2)) << 32
	}

	ok, err := t.monitor.StoreExclusive(ctx, t.mem, addr, size, v)
	if err != nil {
		return err
	}

	if ok {
		ctx.WriteGPR(d, 0)
	} else {
		ctx.WriteGPR(d, 1)
	}
	return nil
}

func execCLREX(t *Thread, _ insts.Instruction, _ insts.Cond) error {
	ClearExclusive(&t.ctx)
	return nil
}
