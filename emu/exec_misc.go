package emu

import (
	"fmt"

	"github.com/sarchlab/armv7/insts"
)

// Reserved native function indices.
const (
	// InvalidIndex is never assigned to a function.
	InvalidIndex = 0
	// ReturnIndex ends the innermost native-to-guest call.
	ReturnIndex = 1
)

// HackIndex extracts the native function index from a HACK instruction.
func HackIndex(inst insts.Instruction) uint32 {
	if inst.Enc.IsThumb() {
		return inst.Raw & 0xffff
	}
	return bf(inst.Raw, 8, 19)<<4 | bf(inst.Raw, 0, 3)
}

// execHACK calls the native function named by the instruction.
func execHACK(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	index := HackIndex(inst)

	switch index {
	case InvalidIndex:
		return fmt.Errorf("native call with reserved index 0 at 0x%08x: %w", ctx.PC, ErrUnknownInstruction)
	case ReturnIndex:
		t.signal(ControlReturn)
		return nil
	}

	if t.caller == nil {
		return fmt.Errorf("native call #%d at 0x%08x: no function caller", index, ctx.PC)
	}

	prev := ctx.HLECall
	ctx.HLECall = index
	err := t.caller.CallFunction(t, index)
	ctx.HLECall = prev
	return err
}

// execHint covers NOP, YIELD, WFE, WFI, SEV, DBG and the barriers, none of
// which have an effect on a single interpreted thread.
func execHint(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	if inst.Op == insts.OpYIELD || inst.Op == insts.OpWFE {
		t.yield()
	}
	return nil
}

func execSVC(_ *Thread, inst insts.Instruction, _ insts.Cond) error {
	return unimplemented(inst, "supervisor calls are not used by HLE guests")
}

func execBKPT(_ *Thread, inst insts.Instruction, _ insts.Cond) error {
	return unimplemented(inst, "breakpoint")
}

// execMRC reads the user read-only thread ID register (TPIDRURO); no other
// coprocessor register is readable.
func execMRC(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw
	cp, opc1, crn := bf(w, 8, 11), bf(w, 21, 23), bf(w, 16, 19)
	rt, opc2, crm := bf(w, 12, 15), bf(w, 5, 7), bf(w, 0, 3)

	if cp != 15 || opc1 != 0 || crn != 13 || crm != 0 || opc2 != 3 {
		return unimplemented(inst, fmt.Sprintf("p%d, %d, c%d, c%d, %d", cp, opc1, crn, crm, opc2))
	}
	if rt == RegPC {
		return unimplemented(inst, "transfer to APSR")
	}
	if ctx.TLS == 0 {
		return fmt.Errorf("MRC at 0x%08x: %w", ctx.PC, ErrTLSUnset)
	}

	ctx.WriteGPR(rt, ctx.TLS)
	return nil
}

func execMRS(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	if inst.Enc.IsThumb() {
		ctx.WriteGPR(bf(inst.Raw, 8, 11), ctx.APSR.Word())
	} else {
		ctx.WriteGPR(bf(inst.Raw, 12, 15), ctx.APSR.Word())
	}
	return nil
}

// execMSR writes APSR fields from a register or an immediate.
func execMSR(t *Thread, inst insts.Instruction, _ insts.Cond) error {
	ctx := &t.ctx
	w := inst.Raw

	var v uint32
	var nzcvq, g bool
	switch {
	case inst.Enc.IsThumb():
		v = ctx.ReadGPR(bf(w, 16, 19))
		nzcvq, g = bt(w, 11), bt(w, 10)
	case inst.Op == insts.OpMSRImm:
		v = ARMExpandImm(bf(w, 0, 11))
		nzcvq, g = bt(w, 19), bt(w, 18)
	default:
		v = ctx.ReadGPR(bf(w, 0, 3))
		nzcvq, g = bt(w, 19), bt(w, 18)
	}

	ctx.APSR.SetWord(v, nzcvq, g)
	return nil
}
