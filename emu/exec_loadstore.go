package emu

import (
	"math/bits"

	"github.com/sarchlab/armv7/insts"
)

type lsForm uint8

const (
	lsImm lsForm = iota
	lsLit
	lsReg
)

type lsKind struct {
	size   int
	signed bool
	load   bool
	form   lsForm
}

var lsTable = map[insts.Op]lsKind{
	insts.OpLDRImm:   {size: 4, load: true, form: lsImm},
	insts.OpLDRLit:   {size: 4, load: true, form: lsLit},
	insts.OpLDRReg:   {size: 4, load: true, form: lsReg},
	insts.OpLDRBImm:  {size: 1, load: true, form: lsImm},
	insts.OpLDRBLit:  {size: 1, load: true, form: lsLit},
	insts.OpLDRBReg:  {size: 1, load: true, form: lsReg},
	insts.OpLDRHImm:  {size: 2, load: true, form: lsImm},
	insts.OpLDRHLit:  {size: 2, load: true, form: lsLit},
	insts.OpLDRHReg:  {size: 2, load: true, form: lsReg},
	insts.OpLDRSBImm: {size: 1, signed: true, load: true, form: lsImm},
	insts.OpLDRSBLit: {size: 1, signed: true, load: true, form: lsLit},
	insts.OpLDRSBReg: {size: 1, signed: true, load: true, form: lsReg},
	insts.OpLDRSHImm: {size: 2, signed: true, load: true, form: lsImm},
	insts.OpLDRSHLit: {size: 2, signed: true, load: true, form: lsLit},
	insts.OpLDRSHReg: {size: 2, signed: true, load: true, form: lsReg},
	insts.OpSTRImm:   {size: 4, form: lsImm},
	insts.OpSTRReg:   {size: 4, form: lsReg},
	insts.OpSTRBImm:  {size: 1, form: lsImm},
	insts.OpSTRBReg:  {size: 1, form: lsReg},
	insts.OpSTRHImm:  {size: 2, form: lsImm},
	insts.OpSTRHReg:  {size: 2, form: lsReg},
	insts.OpLDRDImm:  {size: 8, load: true, form: lsImm},
	insts.OpLDRDLit:  {size: 8, load: true, form: lsLit},
	insts.OpLDRDReg:  {size: 8, load: true, form: lsReg},
	insts.OpSTRDImm:  {size: 8, form: lsImm},
	insts.OpSTRDReg:  {size: 8, form: lsReg},
}

// lsArgs is a decoded single or dual load/store.
type lsArgs struct {
	t, t2, n uint32
	offset   uint32
	add      bool
	index    bool
	wback    bool
	literal  bool
}

// readMem and writeMem move size bytes between memory and a register value.
func (t *Thread) readMem(addr uint32, size int) (uint32, error) {
	switch size {
	case 1:
		v, err := t.mem.Read8(addr)
		return uint32(v), err
	case 2:
		v, err := t.mem.Read16(addr)
		return uint32(v), err
	default:
		return t.mem.Read32(addr)
	}
}

func (t *Thread) writeMem(addr uint32, size int, v uint32) error {
	var err error
	switch size {
	case 1:
		err = t.mem.Write8(addr, uint8(v))
	case 2:
		err = t.mem.Write16(addr, uint16(v))
	default:
		err = t.mem.Write32(addr, v)
	}
	if err == nil && t.monitor != nil && t.monitor.BreakOnStore {
		t.monitor.Invalidate(addr)
	}
	return err
}

func (t *Thread) decodeLS16(inst insts.Instruction, k lsKind) lsArgs {
	ctx := &t.ctx
	w := inst.Raw
	a := lsArgs{add: true, index: true}

	switch {
	case k.form == lsLit:
		a.t, a.offset, a.literal = bf(w, 8, 10), bf(w, 0, 7)<<2, true
	case k.form == lsReg:
		a.t, a.n = bf(w, 0, 2), bf(w, 3, 5)
		a.offset = ctx.ReadGPR(bf(w, 6, 8))
	case inst.Enc == insts.T2:
		// SP-relative word access.
		a.t, a.n, a.offset = bf(w, 8, 10), RegSP, bf(w, 0, 7)<<2
	default:
		a.t, a.n = bf(w, 0, 2), bf(w, 3, 5)
		a.offset = bf(w, 6, 10) * uint32(k.size)
	}
	return a
}

func (t *Thread) decodeLS32(inst insts.Instruction, k lsKind) lsArgs {
	ctx := &t.ctx
	w := inst.Raw
	a := lsArgs{t: bf(w, 12, 15), n: bf(w, 16, 19), add: true, index: true}

	if k.size == 8 {
		a.t2 = bf(w, 8, 11)
		a.offset = bf(w, 0, 7) << 2
		a.add = bt(w, 23)
		a.index = bt(w, 24)
		a.wback = bt(w, 21)
		a.literal = k.form == lsLit
		return a
	}

	switch {
	case k.form == lsLit:
		a.offset, a.add, a.literal = bf(w, 0, 11), bt(w, 23), true
	case k.form == lsReg:
		a.offset = ctx.ReadGPR(bf(w, 0, 3)) << bf(w, 4, 5)
	case bt(w, 23):
		a.offset = bf(w, 0, 11)
	default:
		a.offset = bf(w, 0, 7)
		a.index, a.add, a.wback = bt(w, 10), bt(w, 9), bt(w, 8)
	}
	return a
}

func (t *Thread) decodeLSARM(inst insts.Instruction, k lsKind) lsArgs {
	ctx := &t.ctx
	w := inst.Raw
	a := lsArgs{
		t:     bf(w, 12, 15),
		n:     bf(w, 16, 19),
		add:   bt(w, 23),
		index: bt(w, 24),
	}
	a.wback = !a.index || bt(w, 21)
	if k.size == 8 {
		a.t2 = a.t + 1
	}

	wordOrByte := (k.size == 4 || k.size == 1) && !k.signed
	switch {
	case k.form == lsReg && wordOrByte:
		typ, amount := DecodeImmShift(bf(w, 5, 6), bf(w, 7, 11))
		a.offset = Shift(ctx.ReadGPR(bf(w, 0, 3)), typ, amount, ctx.APSR.C)
	case k.form == lsReg:
		a.offset = ctx.ReadGPR(bf(w, 0, 3))
	case wordOrByte:
		a.offset = bf(w, 0, 11)
	default:
		a.offset = bf(w, 8, 11)<<4 | bf(w, 0, 3)
	}

	return a
}

// execLoadStore implements single and dual register loads and stores.
func execLoadStore(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	k, ok := lsTable[inst.Op]
	if !ok {
		return unimplemented(inst, "")
	}

	var a lsArgs
	switch {
	case inst.Width == 2:
		a = t.decodeLS16(inst, k)
	case inst.Enc.IsThumb():
		a = t.decodeLS32(inst, k)
	default:
		a = t.decodeLSARM(inst, k)
	}

	var base uint32
	if a.literal {
		base = ctx.ReadPC() &^ 3
	} else {
		base = ctx.ReadGPR(a.n)
	}

	offsetAddr := base - a.offset
	if a.add {
		offsetAddr = base + a.offset
	}
	addr := base
	if a.index {
		addr = offsetAddr
	}

	if k.size == 8 {
		return t.loadStoreDual(k, a, addr, offsetAddr)
	}

	if !k.load {
		// Read the source before write-back in case t == n.
		v := ctx.ReadGPR(a.t)
		if err := t.writeMem(addr, k.size, v); err != nil {
			return err
		}
		if a.wback {
			ctx.WriteGPR(a.n, offsetAddr)
		}
		return nil
	}

	v, err := t.readMem(addr, k.size)
	if err != nil {
		return err
	}
	if k.signed {
		v = SignExtend(v, uint(8*k.size))
	}
	if a.wback {
		ctx.WriteGPR(a.n, offsetAddr)
	}
	if a.t == RegPC {
		ctx.LoadWritePC(v)
	} else {
		ctx.WriteGPR(a.t, v)
	}
	return nil
}

func (t *Thread) loadStoreDual(k lsKind, a lsArgs, addr, offsetAddr uint32) error {
	ctx := &t.ctx

	if k.load {
		lo, err := t.mem.Read32(addr)
		if err != nil {
			return err
		}
		hi, err := t.mem.Read32(addr + 4)
		if err != nil {
			return err
		}
		if a.wback {
			ctx.WriteGPR(a.n, offsetAddr)
		}
		ctx.WriteGPR(a.t, lo)
		ctx.WriteGPR(a.t2, hi)
		return nil
	}

	if err := t.writeMem(addr, 4, ctx.ReadGPR(a.t)); err != nil {
		return err
	}
	if err := t.writeMem(addr+4, 4, ctx.ReadGPR(a.t2)); err != nil {
		return err
	}
	if a.wback {
		ctx.WriteGPR(a.n, offsetAddr)
	}
	return nil
}

type blockMode uint8

const (
	blockIA blockMode = iota
	blockIB
	blockDA
	blockDB
)

// blockArgs is a decoded multiple-register transfer.
type blockArgs struct {
	n     uint32
	list  uint16
	wback bool
	mode  blockMode
}

func decodeBlock(inst insts.Instruction) (blockArgs, error) {
	w := inst.Raw
	var a blockArgs

	switch inst.Op {
	case insts.OpLDMDA, insts.OpSTMDA:
		a.mode = blockDA
	case insts.OpLDMDB, insts.OpSTMDB, insts.OpPUSH:
		a.mode = blockDB
	case insts.OpLDMIB, insts.OpSTMIB:
		a.mode = blockIB
	}

	switch inst.Op {
	case insts.OpPUSH, insts.OpPOP:
		a.n, a.wback = RegSP, true
		switch inst.Enc {
		case insts.T1:
			extra := uint16(14) // LR for PUSH
			if inst.Op == insts.OpPOP {
				extra = 15
			}
			a.list = uint16(bf(w, 0, 7)) | uint16(bf(w, 8, 8))<<extra
		case insts.T2:
			a.list = uint16(w)
		case insts.T3:
			a.list = 1 << bf(w, 12, 15)
		default:
			return a, unimplemented(inst, "")
		}
		return a, nil
	}

	if inst.Width == 2 {
		a.n = bf(w, 8, 10)
		a.list = uint16(bf(w, 0, 7))
		// 16-bit LDM writes back unless the base is in the list.
		a.wback = inst.Op != insts.OpLDM || a.list&(1<<a.n) == 0
		return a, nil
	}

	a.n = bf(w, 16, 19)
	a.list = uint16(w)
	a.wback = bt(w, 21)
	return a, nil
}

// execBlock implements LDM/STM in every addressing mode, PUSH and POP.
func execBlock(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	a, err := decodeBlock(inst)
	if err != nil {
		return err
	}
	if a.list == 0 {
		return unimplemented(inst, "empty register list")
	}

	load := inst.Op == insts.OpPOP || inst.Op == insts.OpLDM ||
		inst.Op == insts.OpLDMDA || inst.Op == insts.OpLDMDB || inst.Op == insts.OpLDMIB

	count := uint32(bits.OnesCount16(a.list))
	base := ctx.ReadGPR(a.n)

	var start, final uint32
	switch a.mode {
	case blockIA:
		start, final = base, base+4*count
	case blockIB:
		start, final = base+4, base+4*count
	case blockDA:
		start, final = base-4*count+4, base-4*count
	case blockDB:
		start, final = base-4*count, base-4*count
	}

	addr := start
	if !load {
		for r := uint32(0); r < 16; r++ {
			if a.list&(1<<r) == 0 {
				continue
			}
			if err := t.writeMem(addr, 4, ctx.ReadGPR(r)); err != nil {
				return err
			}
			addr += 4
		}
		if a.wback {
			ctx.WriteGPR(a.n, final)
		}
		return nil
	}

	var values [16]uint32
	for r := uint32(0); r < 16; r++ {
		if a.list&(1<<r) == 0 {
			continue
		}
		v, err := t.mem.Read32(addr)
		if err != nil {
			return err
		}
		values[r] = v
		addr += 4
	}

	if a.wback && a.list&(1<<a.n) == 0 {
		ctx.WriteGPR(a.n, final)
	}
	for r := uint32(0); r < 15; r++ {
		if a.list&(1<<r) != 0 {
			ctx.GPR[r] = values[r]
		}
	}
	if a.list&(1<<RegPC) != 0 {
		ctx.LoadWritePC(values[RegPC])
	}
	return nil
}
