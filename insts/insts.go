// Package insts provides ARMv7 instruction definitions and decoding.
package insts

import "fmt"

// Op represents an ARMv7 mnemonic. Register, immediate and register-shifted
// register forms of the same mnemonic are distinct ops because their operand
// extraction differs.
type Op uint16

// ARMv7 mnemonics.
const (
	OpUnknown Op = iota
	OpHACK       // "call native function #N"

	OpADCImm
	OpADCReg
	OpADCRsr
	OpADDImm
	OpADDReg
	OpADDRsr
	OpADDSPImm
	OpADDSPReg
	OpADR
	OpANDImm
	OpANDReg
	OpANDRsr
	OpASRImm
	OpASRReg
	OpB
	OpBFC
	OpBFI
	OpBICImm
	OpBICReg
	OpBICRsr
	OpBKPT
	OpBL
	OpBLX
	OpBX
	OpCBZ
	OpCLREX
	OpCLZ
	OpCMNImm
	OpCMNReg
	OpCMNRsr
	OpCMPImm
	OpCMPReg
	OpCMPRsr
	OpDBG
	OpDMB
	OpDSB
	OpEORImm
	OpEORReg
	OpEORRsr
	OpIT
	OpLDM
	OpLDMDA
	OpLDMDB
	OpLDMIB
	OpLDRImm
	OpLDRLit
	OpLDRReg
	OpLDRBImm
	OpLDRBLit
	OpLDRBReg
	OpLDRDImm
	OpLDRDLit
	OpLDRDReg
	OpLDREX
	OpLDREXB
	OpLDREXD
	OpLDREXH
	OpLDRHImm
	OpLDRHLit
	OpLDRHReg
	OpLDRSBImm
	OpLDRSBLit
	OpLDRSBReg
	OpLDRSHImm
	OpLDRSHLit
	OpLDRSHReg
	OpLSLImm
	OpLSLReg
	OpLSRImm
	OpLSRReg
	OpMLA
	OpMLS
	OpMOVImm
	OpMOVReg
	OpMOVT
	OpMRC
	OpMRS
	OpMSRImm
	OpMSRReg
	OpMUL
	OpMVNImm
	OpMVNReg
	OpMVNRsr
	OpNOP
	OpORNImm
	OpORNReg
	OpORRImm
	OpORRReg
	OpORRRsr
	OpPKH
	OpPOP
	OpPUSH
	OpQADD
	OpQDADD
	OpQDSUB
	OpQSUB
	OpQADD16
	OpQADD8
	OpQASX
	OpQSAX
	OpQSUB16
	OpQSUB8
	OpRBIT
	OpREV
	OpREV16
	OpREVSH
	OpRORImm
	OpRORReg
	OpRSBImm
	OpRSBReg
	OpRSBRsr
	OpRSCImm
	OpRSCReg
	OpRSCRsr
	OpSADD16
	OpSADD8
	OpSASX
	OpSBCImm
	OpSBCReg
	OpSBCRsr
	OpSBFX
	OpSDIV
	OpSEL
	OpSEV
	OpSHADD16
	OpSHADD8
	OpSHASX
	OpSHSAX
	OpSHSUB16
	OpSHSUB8
	OpSMLAxy
	OpSMLAD
	OpSMLAL
	OpSMLALxy
	OpSMLALD
	OpSMLAWy
	OpSMLSD
	OpSMLSLD
	OpSMMLA
	OpSMMLS
	OpSMMUL
	OpSMUAD
	OpSMULxy
	OpSMULL
	OpSMULWy
	OpSMUSD
	OpSSAT
	OpSSAT16
	OpSSAX
	OpSSUB16
	OpSSUB8
	OpSTM
	OpSTMDA
	OpSTMDB
	OpSTMIB
	OpSTRImm
	OpSTRReg
	OpSTRBImm
	OpSTRBReg
	OpSTRDImm
	OpSTRDReg
	OpSTREX
	OpSTREXB
	OpSTREXD
	OpSTREXH
	OpSTRHImm
	OpSTRHReg
	OpSUBImm
	OpSUBReg
	OpSUBRsr
	OpSUBSPImm
	OpSUBSPReg
	OpSVC
	OpSXTAB
	OpSXTAB16
	OpSXTAH
	OpSXTB
	OpSXTB16
	OpSXTH
	OpTB
	OpTEQImm
	OpTEQReg
	OpTEQRsr
	OpTSTImm
	OpTSTReg
	OpTSTRsr
	OpUADD16
	OpUADD8
	OpUASX
	OpUBFX
	OpUDIV
	OpUHADD16
	OpUHADD8
	OpUHASX
	OpUHSAX
	OpUHSUB16
	OpUHSUB8
	OpUMAAL
	OpUMLAL
	OpUMULL
	OpUQADD16
	OpUQADD8
	OpUQASX
	OpUQSAX
	OpUQSUB16
	OpUQSUB8
	OpUSAD8
	OpUSADA8
	OpUSAT
	OpUSAT16
	OpUSAX
	OpUSUB16
	OpUSUB8
	OpUXTAB
	OpUXTAB16
	OpUXTAH
	OpUXTB
	OpUXTB16
	OpUXTH
	OpWFE
	OpWFI
	OpYIELD

	// Coarse groups for the floating-point and Advanced SIMD spaces. They are
	// recognised so they do not fall through to the unknown handler.
	OpVFP
	OpNEON

	NumOps
)

var opNames = [NumOps]string{
	OpUnknown: "UNK", OpHACK: "HACK",
	OpADCImm: "ADC_IMM", OpADCReg: "ADC_REG", OpADCRsr: "ADC_RSR",
	OpADDImm: "ADD_IMM", OpADDReg: "ADD_REG", OpADDRsr: "ADD_RSR",
	OpADDSPImm: "ADD_SPI", OpADDSPReg: "ADD_SPR", OpADR: "ADR",
	OpANDImm: "AND_IMM", OpANDReg: "AND_REG", OpANDRsr: "AND_RSR",
	OpASRImm: "ASR_IMM", OpASRReg: "ASR_REG",
	OpB: "B", OpBFC: "BFC", OpBFI: "BFI",
	OpBICImm: "BIC_IMM", OpBICReg: "BIC_REG", OpBICRsr: "BIC_RSR",
	OpBKPT: "BKPT", OpBL: "BL", OpBLX: "BLX", OpBX: "BX", OpCBZ: "CB_Z",
	OpCLREX: "CLREX", OpCLZ: "CLZ",
	OpCMNImm: "CMN_IMM", OpCMNReg: "CMN_REG", OpCMNRsr: "CMN_RSR",
	OpCMPImm: "CMP_IMM", OpCMPReg: "CMP_REG", OpCMPRsr: "CMP_RSR",
	OpDBG: "DBG", OpDMB: "DMB", OpDSB: "DSB",
	OpEORImm: "EOR_IMM", OpEORReg: "EOR_REG", OpEORRsr: "EOR_RSR",
	OpIT:  "IT",
	OpLDM: "LDM", OpLDMDA: "LDMDA", OpLDMDB: "LDMDB", OpLDMIB: "LDMIB",
	OpLDRImm: "LDR_IMM", OpLDRLit: "LDR_LIT", OpLDRReg: "LDR_REG",
	OpLDRBImm: "LDRB_IMM", OpLDRBLit: "LDRB_LIT", OpLDRBReg: "LDRB_REG",
	OpLDRDImm: "LDRD_IMM", OpLDRDLit: "LDRD_LIT", OpLDRDReg: "LDRD_REG",
	OpLDREX: "LDREX", OpLDREXB: "LDREXB", OpLDREXD: "LDREXD", OpLDREXH: "LDREXH",
	OpLDRHImm: "LDRH_IMM", OpLDRHLit: "LDRH_LIT", OpLDRHReg: "LDRH_REG",
	OpLDRSBImm: "LDRSB_IMM", OpLDRSBLit: "LDRSB_LIT", OpLDRSBReg: "LDRSB_REG",
	OpLDRSHImm: "LDRSH_IMM", OpLDRSHLit: "LDRSH_LIT", OpLDRSHReg: "LDRSH_REG",
	OpLSLImm: "LSL_IMM", OpLSLReg: "LSL_REG", OpLSRImm: "LSR_IMM", OpLSRReg: "LSR_REG",
	OpMLA: "MLA", OpMLS: "MLS",
	OpMOVImm: "MOV_IMM", OpMOVReg: "MOV_REG", OpMOVT: "MOVT",
	OpMRC: "MRC", OpMRS: "MRS", OpMSRImm: "MSR_IMM", OpMSRReg: "MSR_REG",
	OpMUL: "MUL", OpMVNImm: "MVN_IMM", OpMVNReg: "MVN_REG", OpMVNRsr: "MVN_RSR",
	OpNOP: "NOP", OpORNImm: "ORN_IMM", OpORNReg: "ORN_REG",
	OpORRImm: "ORR_IMM", OpORRReg: "ORR_REG", OpORRRsr: "ORR_RSR",
	OpPKH: "PKH", OpPOP: "POP", OpPUSH: "PUSH",
	OpQADD: "QADD", OpQDADD: "QDADD", OpQDSUB: "QDSUB", OpQSUB: "QSUB",
	OpQADD16: "QADD16", OpQADD8: "QADD8", OpQASX: "QASX", OpQSAX: "QSAX",
	OpQSUB16: "QSUB16", OpQSUB8: "QSUB8",
	OpRBIT: "RBIT", OpREV: "REV", OpREV16: "REV16", OpREVSH: "REVSH",
	OpRORImm: "ROR_IMM", OpRORReg: "ROR_REG",
	OpRSBImm: "RSB_IMM", OpRSBReg: "RSB_REG", OpRSBRsr: "RSB_RSR",
	OpRSCImm: "RSC_IMM", OpRSCReg: "RSC_REG", OpRSCRsr: "RSC_RSR",
	OpSADD16: "SADD16", OpSADD8: "SADD8", OpSASX: "SASX",
	OpSBCImm: "SBC_IMM", OpSBCReg: "SBC_REG", OpSBCRsr: "SBC_RSR",
	OpSBFX: "SBFX", OpSDIV: "SDIV", OpSEL: "SEL", OpSEV: "SEV",
	OpSHADD16: "SHADD16", OpSHADD8: "SHADD8", OpSHASX: "SHASX",
	OpSHSAX: "SHSAX", OpSHSUB16: "SHSUB16", OpSHSUB8: "SHSUB8",
	OpSMLAxy: "SMLA__", OpSMLAD: "SMLAD", OpSMLAL: "SMLAL", OpSMLALxy: "SMLAL__",
	OpSMLALD: "SMLALD", OpSMLAWy: "SMLAW_", OpSMLSD: "SMLSD", OpSMLSLD: "SMLSLD",
	OpSMMLA: "SMMLA", OpSMMLS: "SMMLS", OpSMMUL: "SMMUL", OpSMUAD: "SMUAD",
	OpSMULxy: "SMUL__", OpSMULL: "SMULL", OpSMULWy: "SMULW_", OpSMUSD: "SMUSD",
	OpSSAT: "SSAT", OpSSAT16: "SSAT16", OpSSAX: "SSAX", OpSSUB16: "SSUB16", OpSSUB8: "SSUB8",
	OpSTM: "STM", OpSTMDA: "STMDA", OpSTMDB: "STMDB", OpSTMIB: "STMIB",
	OpSTRImm: "STR_IMM", OpSTRReg: "STR_REG", OpSTRBImm: "STRB_IMM", OpSTRBReg: "STRB_REG",
	OpSTRDImm: "STRD_IMM", OpSTRDReg: "STRD_REG",
	OpSTREX: "STREX", OpSTREXB: "STREXB", OpSTREXD: "STREXD", OpSTREXH: "STREXH",
	OpSTRHImm: "STRH_IMM", OpSTRHReg: "STRH_REG",
	OpSUBImm: "SUB_IMM", OpSUBReg: "SUB_REG", OpSUBRsr: "SUB_RSR",
	OpSUBSPImm: "SUB_SPI", OpSUBSPReg: "SUB_SPR", OpSVC: "SVC",
	OpSXTAB: "SXTAB", OpSXTAB16: "SXTAB16", OpSXTAH: "SXTAH",
	OpSXTB: "SXTB", OpSXTB16: "SXTB16", OpSXTH: "SXTH", OpTB: "TB_",
	OpTEQImm: "TEQ_IMM", OpTEQReg: "TEQ_REG", OpTEQRsr: "TEQ_RSR",
	OpTSTImm: "TST_IMM", OpTSTReg: "TST_REG", OpTSTRsr: "TST_RSR",
	OpUADD16: "UADD16", OpUADD8: "UADD8", OpUASX: "UASX", OpUBFX: "UBFX", OpUDIV: "UDIV",
	OpUHADD16: "UHADD16", OpUHADD8: "UHADD8", OpUHASX: "UHASX",
	OpUHSAX: "UHSAX", OpUHSUB16: "UHSUB16", OpUHSUB8: "UHSUB8",
	OpUMAAL: "UMAAL", OpUMLAL: "UMLAL", OpUMULL: "UMULL",
	OpUQADD16: "UQADD16", OpUQADD8: "UQADD8", OpUQASX: "UQASX",
	OpUQSAX: "UQSAX", OpUQSUB16: "UQSUB16", OpUQSUB8: "UQSUB8",
	OpUSAD8: "USAD8", OpUSADA8: "USADA8", OpUSAT: "USAT", OpUSAT16: "USAT16",
	OpUSAX: "USAX", OpUSUB16: "USUB16", OpUSUB8: "USUB8",
	OpUXTAB: "UXTAB", OpUXTAB16: "UXTAB16", OpUXTAH: "UXTAH",
	OpUXTB: "UXTB", OpUXTB16: "UXTB16", OpUXTH: "UXTH",
	OpWFE: "WFE", OpWFI: "WFI", OpYIELD: "YIELD",
	OpVFP: "VFP", OpNEON: "NEON",
}

// String returns the mnemonic of the op.
func (op Op) String() string {
	if op < NumOps && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint16(op))
}

// Encoding identifies the encoding variant of a mnemonic, as numbered by the
// architecture manual (T1..T4 for Thumb, A1..A2 for ARM).
type Encoding uint8

// Encoding variants.
const (
	EncNone Encoding = iota
	T1
	T2
	T3
	T4
	A1
	A2

	NumEncodings
)

var encNames = [NumEncodings]string{"", "T1", "T2", "T3", "T4", "A1", "A2"}

// String returns the variant name, e.g. "T3".
func (e Encoding) String() string {
	if e < NumEncodings {
		return encNames[e]
	}
	return fmt.Sprintf("Enc(%d)", uint8(e))
}

// IsThumb returns true for the Thumb variants.
func (e Encoding) IsThumb() bool {
	return e >= T1 && e <= T4
}

// ISet is the instruction set the processor is executing.
type ISet uint8

// Instruction sets.
const (
	ARM ISet = iota
	Thumb
)

// String returns "ARM" or "Thumb".
func (s ISet) String() string {
	if s == Thumb {
		return "Thumb"
	}
	return "ARM"
}

// Cond represents an ARM condition code.
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
	CondNV Cond = 0b1111 // Always; also "not in an IT block" for Thumb
)

var condNames = [16]string{
	"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc",
	"hi", "ls", "ge", "lt", "gt", "le", "al", "",
}

// String returns the assembler suffix of the condition.
func (c Cond) String() string {
	return condNames[c&0xf]
}

// Instruction is the result of decoding one instruction word.
type Instruction struct {
	Op    Op       // Mnemonic, OpUnknown if nothing matched
	Enc   Encoding // Encoding variant
	Raw   uint32   // Raw word; 32-bit Thumb is first<<16 | second
	Width uint8    // Size in bytes (2 or 4)
}

// Known returns false if no table entry matched.
func (i Instruction) Known() bool {
	return i.Op != OpUnknown
}

// String returns "MNEMONIC.Tn" for the matched variant, the same name the
// execution engine reports in diagnostics.
func (i Instruction) String() string {
	if i.Op == OpUnknown {
		return "UNK"
	}
	return i.Op.String() + "." + i.Enc.String()
}
