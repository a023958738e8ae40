package emu

import (
	"sync"

	"github.com/sarchlab/armv7/insts"
)

// execFunc executes one decoded instruction whose condition has passed.
// cond is the governing condition: for Thumb it is the IT-block condition
// (CondNV outside a block), for ARM the instruction's condition field.
type execFunc func(t *Thread, inst insts.Instruction, cond insts.Cond) error

var opHandlers = map[insts.Op]execFunc{
	insts.OpHACK: execHACK,

	insts.OpADR:  execADR,
	insts.OpMOVT: execMOVT,

	insts.OpBFC:  execBitfield,
	insts.OpBFI:  execBitfield,
	insts.OpSBFX: execBitfield,
	insts.OpUBFX: execBitfield,

	insts.OpCLZ:   execReverse,
	insts.OpRBIT:  execReverse,
	insts.OpREV:   execReverse,
	insts.OpREV16: execReverse,
	insts.OpREVSH: execReverse,

	insts.OpPKH:   execPKH,
	insts.OpSEL:   execSEL,
	insts.OpSSAT:  execSaturate,
	insts.OpUSAT:  execSaturate,
	insts.OpQADD:  execSatArith,
	insts.OpQSUB:  execSatArith,
	insts.OpQDADD: execSatArith,
	insts.OpQDSUB: execSatArith,
	insts.OpSDIV:  execDivide,
	insts.OpUDIV:  execDivide,

	insts.OpSSAT16: execSaturate16,
	insts.OpUSAT16: execSaturate16,

	insts.OpB:   execB,
	insts.OpBL:  execBL,
	insts.OpBLX: execBLX,
	insts.OpBX:  execBX,
	insts.OpCBZ: execCBZ,
	insts.OpTB:  execTB,
	insts.OpIT:  execIT,

	insts.OpLDM:   execBlock,
	insts.OpLDMDA: execBlock,
	insts.OpLDMDB: execBlock,
	insts.OpLDMIB: execBlock,
	insts.OpSTM:   execBlock,
	insts.OpSTMDA: execBlock,
	insts.OpSTMDB: execBlock,
	insts.OpSTMIB: execBlock,
	insts.OpPUSH:  execBlock,
	insts.OpPOP:   execBlock,

	insts.OpLDREX:  execLoadExclusive,
	insts.OpLDREXB: execLoadExclusive,
	insts.OpLDREXH: execLoadExclusive,
	insts.OpLDREXD: execLoadExclusive,
	insts.OpSTREX:  execStoreExclusive,
	insts.OpSTREXB: execStoreExclusive,
	insts.OpSTREXH: execStoreExclusive,
	insts.OpSTREXD: execStoreExclusive,
	insts.OpCLREX:  execCLREX,

	insts.OpNOP:   execHint,
	insts.OpYIELD: execHint,
	insts.OpWFE:   execHint,
	insts.OpWFI:   execHint,
	insts.OpSEV:   execHint,
	insts.OpDBG:   execHint,
	insts.OpDMB:   execHint,
	insts.OpDSB:   execHint,

	insts.OpSVC:    execSVC,
	insts.OpBKPT:   execBKPT,
	insts.OpMRC:    execMRC,
	insts.OpMRS:    execMRS,
	insts.OpMSRImm: execMSR,
	insts.OpMSRReg: execMSR,
}

func init() {
	for op := range dpTable {
		opHandlers[op] = execDataProc
	}
	for op := range lsTable {
		opHandlers[op] = execLoadStore
	}
	for op := range extendTable {
		opHandlers[op] = execExtend
	}
	for _, op := range []insts.Op{
		insts.OpMUL, insts.OpMLA, insts.OpMLS,
		insts.OpUMULL, insts.OpUMLAL, insts.OpUMAAL, insts.OpSMULL, insts.OpSMLAL,
		insts.OpSMULxy, insts.OpSMLAxy, insts.OpSMULWy, insts.OpSMLAWy, insts.OpSMLALxy,
		insts.OpSMUAD, insts.OpSMUSD, insts.OpSMLAD, insts.OpSMLSD, insts.OpSMLALD, insts.OpSMLSLD,
		insts.OpSMMUL, insts.OpSMMLA, insts.OpSMMLS, insts.OpUSAD8, insts.OpUSADA8,
	} {
		opHandlers[op] = execMultiply
	}
}

// dispatchTable maps every (mnemonic, encoding) pair produced by the decode
// tables to its handler. Pairs without a handler stay nil.
type dispatchTable [insts.NumOps][insts.NumEncodings]execFunc

var sharedDispatch = sync.OnceValue(func() *dispatchTable {
	var tbl dispatchTable
	d := insts.NewDecoder()
	tables := [][]insts.Entry{
		d.Entries(insts.Thumb, 2),
		d.Entries(insts.Thumb, 4),
		d.Entries(insts.ARM, 4),
	}
	for _, entries := range tables {
		for _, e := range entries {
			if h, ok := opHandlers[e.Op]; ok {
				tbl[e.Op][e.Enc] = h
			}
		}
	}
	return &tbl
})

// Implemented reports whether the engine executes the given pair.
func Implemented(op insts.Op, enc insts.Encoding) bool {
	if op >= insts.NumOps || enc >= insts.NumEncodings {
		return false
	}
	return sharedDispatch()[op][enc] != nil
}

// execute runs a decoded instruction under cond.
func (t *Thread) execute(inst insts.Instruction, cond insts.Cond) error {
	if !ConditionPassed(t.ctx.APSR, cond) {
		return nil
	}

	h := sharedDispatch()[inst.Op][inst.Enc]
	if h == nil {
		return unimplemented(inst, "")
	}
	return h(t, inst, cond)
}
