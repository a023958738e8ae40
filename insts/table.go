package insts

// Entry is one row of a decode table. A word matches when
// word&Mask == Pattern and Skip (if set) returns false.
type Entry struct {
	Mask    uint32
	Pattern uint32
	Width   uint8
	Op      Op
	Enc     Encoding
	Skip    func(word uint32) bool
}

// Match reports whether the entry claims the word.
func (e *Entry) Match(word uint32) bool {
	return word&e.Mask == e.Pattern && (e.Skip == nil || !e.Skip(word))
}

func bf(w uint32, lo, hi uint) uint32 {
	return (w >> lo) & (1<<(hi-lo+1) - 1)
}

func bt(w uint32, n uint) bool {
	return w>>n&1 != 0
}

// Shared skip predicates. Each routes a reserved sub-encoding to the entry
// that actually owns it.
var (
	// Rd == PC with S set is CMN/CMP/TST/TEQ.
	skipFlagsToPC = func(w uint32) bool { return bf(w, 8, 11) == 15 && bt(w, 20) }
	// As above, plus Rn == SP which is the SP-relative form.
	skipFlagsToPCOrSP = func(w uint32) bool {
		return (bf(w, 8, 11) == 15 && bt(w, 20)) || bf(w, 16, 19) == 13
	}
	skipRnPC = func(w uint32) bool { return bf(w, 16, 19) == 15 }
	// Multiply-accumulate with Ra == PC is the non-accumulating form.
	skipRaPC = func(w uint32) bool { return bf(w, 12, 15) == 15 }
	// ASR #0 on a 32-bit Thumb saturate is the halfword form.
	skipSat16 = func(w uint32) bool { return bt(w, 21) && bf(w, 12, 14) == 0 && bf(w, 6, 7) == 0 }
)

// thumb16Entries are checked in order; the first match wins.
var thumb16Entries = []Entry{
	{Mask: 0xffc0, Pattern: 0x4140, Op: OpADCReg, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x1c00, Op: OpADDImm, Enc: T1},
	{Mask: 0xf800, Pattern: 0x3000, Op: OpADDImm, Enc: T2},
	{Mask: 0xfe00, Pattern: 0x1800, Op: OpADDReg, Enc: T1},
	{Mask: 0xff00, Pattern: 0x4400, Op: OpADDReg, Enc: T2,
		Skip: func(w uint32) bool { return w&0x87 == 0x85 || bf(w, 3, 6) == 13 }},
	{Mask: 0xf800, Pattern: 0xa800, Op: OpADDSPImm, Enc: T1},
	{Mask: 0xff80, Pattern: 0xb000, Op: OpADDSPImm, Enc: T2},
	{Mask: 0xff78, Pattern: 0x4468, Op: OpADDSPReg, Enc: T1},
	{Mask: 0xff87, Pattern: 0x4485, Op: OpADDSPReg, Enc: T2,
		Skip: func(w uint32) bool { return bf(w, 3, 6) == 13 }},
	{Mask: 0xf800, Pattern: 0xa000, Op: OpADR, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4000, Op: OpANDReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x1000, Op: OpASRImm, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4100, Op: OpASRReg, Enc: T1},
	{Mask: 0xf000, Pattern: 0xd000, Op: OpB, Enc: T1,
		Skip: func(w uint32) bool { return bf(w, 9, 11) == 7 }},
	{Mask: 0xf800, Pattern: 0xe000, Op: OpB, Enc: T2},
	{Mask: 0xffc0, Pattern: 0x4380, Op: OpBICReg, Enc: T1},
	{Mask: 0xff00, Pattern: 0xbe00, Op: OpBKPT, Enc: T1},
	{Mask: 0xff80, Pattern: 0x4780, Op: OpBLX, Enc: T1},
	{Mask: 0xff87, Pattern: 0x4700, Op: OpBX, Enc: T1},
	{Mask: 0xf500, Pattern: 0xb100, Op: OpCBZ, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x42c0, Op: OpCMNReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x2800, Op: OpCMPImm, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4280, Op: OpCMPReg, Enc: T1},
	{Mask: 0xff00, Pattern: 0x4500, Op: OpCMPReg, Enc: T2},
	{Mask: 0xffc0, Pattern: 0x4040, Op: OpEORReg, Enc: T1},
	// IT with an empty mask is a hint (NOP, YIELD, WFE, WFI, SEV).
	{Mask: 0xff00, Pattern: 0xbf00, Op: OpIT, Enc: T1,
		Skip: func(w uint32) bool { return bf(w, 0, 3) == 0 }},
	{Mask: 0xf800, Pattern: 0xc800, Op: OpLDM, Enc: T1},
	{Mask: 0xf800, Pattern: 0x6800, Op: OpLDRImm, Enc: T1},
	{Mask: 0xf800, Pattern: 0x9800, Op: OpLDRImm, Enc: T2},
	{Mask: 0xf800, Pattern: 0x4800, Op: OpLDRLit, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x5800, Op: OpLDRReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x7800, Op: OpLDRBImm, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x5c00, Op: OpLDRBReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x8800, Op: OpLDRHImm, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x5a00, Op: OpLDRHReg, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x5600, Op: OpLDRSBReg, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x5e00, Op: OpLDRSHReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x0000, Op: OpLSLImm, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4080, Op: OpLSLReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x0800, Op: OpLSRImm, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x40c0, Op: OpLSRReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x2000, Op: OpMOVImm, Enc: T1},
	{Mask: 0xff00, Pattern: 0x4600, Op: OpMOVReg, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4340, Op: OpMUL, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x43c0, Op: OpMVNReg, Enc: T1},
	{Mask: 0xffff, Pattern: 0xbf00, Op: OpNOP, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4300, Op: OpORRReg, Enc: T1},
	{Mask: 0xfe00, Pattern: 0xbc00, Op: OpPOP, Enc: T1},
	{Mask: 0xfe00, Pattern: 0xb400, Op: OpPUSH, Enc: T1},
	{Mask: 0xffc0, Pattern: 0xba00, Op: OpREV, Enc: T1},
	{Mask: 0xffc0, Pattern: 0xba40, Op: OpREV16, Enc: T1},
	{Mask: 0xffc0, Pattern: 0xbac0, Op: OpREVSH, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x41c0, Op: OpRORReg, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4240, Op: OpRSBImm, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4180, Op: OpSBCReg, Enc: T1},
	{Mask: 0xffff, Pattern: 0xbf40, Op: OpSEV, Enc: T1},
	{Mask: 0xf800, Pattern: 0xc000, Op: OpSTM, Enc: T1},
	{Mask: 0xf800, Pattern: 0x6000, Op: OpSTRImm, Enc: T1},
	{Mask: 0xf800, Pattern: 0x9000, Op: OpSTRImm, Enc: T2},
	{Mask: 0xfe00, Pattern: 0x5000, Op: OpSTRReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x7000, Op: OpSTRBImm, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x5400, Op: OpSTRBReg, Enc: T1},
	{Mask: 0xf800, Pattern: 0x8000, Op: OpSTRHImm, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x5200, Op: OpSTRHReg, Enc: T1},
	{Mask: 0xfe00, Pattern: 0x1e00, Op: OpSUBImm, Enc: T1},
	{Mask: 0xf800, Pattern: 0x3800, Op: OpSUBImm, Enc: T2},
	{Mask: 0xfe00, Pattern: 0x1a00, Op: OpSUBReg, Enc: T1},
	{Mask: 0xff80, Pattern: 0xb080, Op: OpSUBSPImm, Enc: T1},
	{Mask: 0xff00, Pattern: 0xdf00, Op: OpSVC, Enc: T1},
	{Mask: 0xffc0, Pattern: 0xb240, Op: OpSXTB, Enc: T1},
	{Mask: 0xffc0, Pattern: 0xb200, Op: OpSXTH, Enc: T1},
	{Mask: 0xffc0, Pattern: 0x4200, Op: OpTSTReg, Enc: T1},
	{Mask: 0xffc0, Pattern: 0xb2c0, Op: OpUXTB, Enc: T1},
	{Mask: 0xffc0, Pattern: 0xb280, Op: OpUXTH, Enc: T1},
	{Mask: 0xffff, Pattern: 0xbf20, Op: OpWFE, Enc: T1},
	{Mask: 0xffff, Pattern: 0xbf30, Op: OpWFI, Enc: T1},
	{Mask: 0xffff, Pattern: 0xbf10, Op: OpYIELD, Enc: T1},
}

// thumb32Entries hold first<<16 | second words.
var thumb32Entries = []Entry{
	// Permanently undefined in the architecture; used for import stubs.
	{Mask: 0xffff0000, Pattern: 0xf8700000, Op: OpHACK, Enc: T1},
	{Mask: 0xfbe08000, Pattern: 0xf1400000, Op: OpADCImm, Enc: T1},
	{Mask: 0xffe08000, Pattern: 0xeb400000, Op: OpADCReg, Enc: T2},
	{Mask: 0xfbe08000, Pattern: 0xf1000000, Op: OpADDImm, Enc: T3, Skip: skipFlagsToPCOrSP},
	{Mask: 0xfbf08000, Pattern: 0xf2000000, Op: OpADDImm, Enc: T4,
		Skip: func(w uint32) bool { return bf(w, 16, 19)&13 == 13 }},
	{Mask: 0xffe08000, Pattern: 0xeb000000, Op: OpADDReg, Enc: T3, Skip: skipFlagsToPCOrSP},
	{Mask: 0xfbef8000, Pattern: 0xf10d0000, Op: OpADDSPImm, Enc: T3, Skip: skipFlagsToPC},
	{Mask: 0xfbff8000, Pattern: 0xf20d0000, Op: OpADDSPImm, Enc: T4},
	{Mask: 0xffef8000, Pattern: 0xeb0d0000, Op: OpADDSPReg, Enc: T3, Skip: skipFlagsToPC},
	{Mask: 0xfbff8000, Pattern: 0xf2af0000, Op: OpADR, Enc: T2},
	{Mask: 0xfbff8000, Pattern: 0xf20f0000, Op: OpADR, Enc: T3},
	{Mask: 0xfbe08000, Pattern: 0xf0000000, Op: OpANDImm, Enc: T1, Skip: skipFlagsToPC},
	{Mask: 0xffe08000, Pattern: 0xea000000, Op: OpANDReg, Enc: T2, Skip: skipFlagsToPC},
	{Mask: 0xffef8030, Pattern: 0xea4f0020, Op: OpASRImm, Enc: T2},
	{Mask: 0xffe0f0f0, Pattern: 0xfa40f000, Op: OpASRReg, Enc: T2},
	{Mask: 0xf800d000, Pattern: 0xf0008000, Op: OpB, Enc: T3,
		Skip: func(w uint32) bool { return bf(w, 23, 25) == 7 }},
	{Mask: 0xf800d000, Pattern: 0xf0009000, Op: OpB, Enc: T4},
	{Mask: 0xffff8020, Pattern: 0xf36f0000, Op: OpBFC, Enc: T1},
	{Mask: 0xfff08020, Pattern: 0xf3600000, Op: OpBFI, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfbe08000, Pattern: 0xf0200000, Op: OpBICImm, Enc: T1},
	{Mask: 0xffe08000, Pattern: 0xea200000, Op: OpBICReg, Enc: T2},
	{Mask: 0xf800d000, Pattern: 0xf000d000, Op: OpBL, Enc: T1},
	{Mask: 0xf800c001, Pattern: 0xf000c000, Op: OpBL, Enc: T2},
	{Mask: 0xffffffff, Pattern: 0xf3bf8f2f, Op: OpCLREX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfab0f080, Op: OpCLZ, Enc: T1},
	{Mask: 0xfbf08f00, Pattern: 0xf1100f00, Op: OpCMNImm, Enc: T1},
	{Mask: 0xfff08f00, Pattern: 0xeb100f00, Op: OpCMNReg, Enc: T2},
	{Mask: 0xfbf08f00, Pattern: 0xf1b00f00, Op: OpCMPImm, Enc: T2},
	{Mask: 0xfff08f00, Pattern: 0xebb00f00, Op: OpCMPReg, Enc: T3},
	{Mask: 0xfffffff0, Pattern: 0xf3af80f0, Op: OpDBG, Enc: T1},
	{Mask: 0xfffffff0, Pattern: 0xf3bf8f50, Op: OpDMB, Enc: T1},
	{Mask: 0xfffffff0, Pattern: 0xf3bf8f40, Op: OpDSB, Enc: T1},
	{Mask: 0xfbe08000, Pattern: 0xf0800000, Op: OpEORImm, Enc: T1, Skip: skipFlagsToPC},
	{Mask: 0xffe08000, Pattern: 0xea800000, Op: OpEORReg, Enc: T2, Skip: skipFlagsToPC},
	{Mask: 0xffd02000, Pattern: 0xe8900000, Op: OpLDM, Enc: T2,
		Skip: func(w uint32) bool { return bt(w, 21) && bf(w, 16, 19) == 13 }},
	{Mask: 0xffd02000, Pattern: 0xe9100000, Op: OpLDMDB, Enc: T1},
	{Mask: 0xfff00000, Pattern: 0xf8d00000, Op: OpLDRImm, Enc: T3, Skip: skipRnPC},
	{Mask: 0xfff00800, Pattern: 0xf8500800, Op: OpLDRImm, Enc: T4,
		Skip: func(w uint32) bool {
			return bf(w, 16, 19) == 15 || bf(w, 8, 10) == 6 || w&0xf07ff == 0xd0304 || w&0x500 == 0
		}},
	{Mask: 0xff7f0000, Pattern: 0xf85f0000, Op: OpLDRLit, Enc: T2},
	{Mask: 0xfff00fc0, Pattern: 0xf8500000, Op: OpLDRReg, Enc: T2, Skip: skipRnPC},
	{Mask: 0xfff00000, Pattern: 0xf8900000, Op: OpLDRBImm, Enc: T2, Skip: skipRnPC},
	{Mask: 0xfff00800, Pattern: 0xf8100800, Op: OpLDRBImm, Enc: T3, Skip: skipRnPC},
	{Mask: 0xff7f0000, Pattern: 0xf81f0000, Op: OpLDRBLit, Enc: T1},
	{Mask: 0xfff00fc0, Pattern: 0xf8100000, Op: OpLDRBReg, Enc: T2, Skip: skipRnPC},
	{Mask: 0xfe500000, Pattern: 0xe8500000, Op: OpLDRDImm, Enc: T1,
		Skip: func(w uint32) bool { return (!bt(w, 21) && !bt(w, 24)) || bf(w, 16, 19) == 15 }},
	{Mask: 0xfe7f0000, Pattern: 0xe85f0000, Op: OpLDRDLit, Enc: T1},
	{Mask: 0xfff00f00, Pattern: 0xe8500f00, Op: OpLDREX, Enc: T1},
	{Mask: 0xfff00fff, Pattern: 0xe8d00f4f, Op: OpLDREXB, Enc: T1},
	{Mask: 0xfff000ff, Pattern: 0xe8d0007f, Op: OpLDREXD, Enc: T1},
	{Mask: 0xfff00fff, Pattern: 0xe8d00f5f, Op: OpLDREXH, Enc: T1},
	{Mask: 0xfff00000, Pattern: 0xf8b00000, Op: OpLDRHImm, Enc: T2, Skip: skipRnPC},
	{Mask: 0xfff00800, Pattern: 0xf8300800, Op: OpLDRHImm, Enc: T3, Skip: skipRnPC},
	{Mask: 0xff7f0000, Pattern: 0xf83f0000, Op: OpLDRHLit, Enc: T1},
	{Mask: 0xfff00fc0, Pattern: 0xf8300000, Op: OpLDRHReg, Enc: T2, Skip: skipRnPC},
	{Mask: 0xfff00000, Pattern: 0xf9900000, Op: OpLDRSBImm, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfff00800, Pattern: 0xf9100800, Op: OpLDRSBImm, Enc: T2, Skip: skipRnPC},
	{Mask: 0xff7f0000, Pattern: 0xf91f0000, Op: OpLDRSBLit, Enc: T1},
	{Mask: 0xfff00fc0, Pattern: 0xf9100000, Op: OpLDRSBReg, Enc: T2, Skip: skipRnPC},
	{Mask: 0xfff00000, Pattern: 0xf9b00000, Op: OpLDRSHImm, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfff00800, Pattern: 0xf9300800, Op: OpLDRSHImm, Enc: T2, Skip: skipRnPC},
	{Mask: 0xff7f0000, Pattern: 0xf93f0000, Op: OpLDRSHLit, Enc: T1},
	{Mask: 0xfff00fc0, Pattern: 0xf9300000, Op: OpLDRSHReg, Enc: T2, Skip: skipRnPC},
	{Mask: 0xffef8030, Pattern: 0xea4f0000, Op: OpLSLImm, Enc: T2},
	{Mask: 0xffe0f0f0, Pattern: 0xfa00f000, Op: OpLSLReg, Enc: T2},
	{Mask: 0xffef8030, Pattern: 0xea4f0010, Op: OpLSRImm, Enc: T2},
	{Mask: 0xffe0f0f0, Pattern: 0xfa20f000, Op: OpLSRReg, Enc: T2},
	{Mask: 0xfff000f0, Pattern: 0xfb000000, Op: OpMLA, Enc: T1, Skip: skipRaPC},
	{Mask: 0xfff000f0, Pattern: 0xfb000010, Op: OpMLS, Enc: T1},
	{Mask: 0xfbef8000, Pattern: 0xf04f0000, Op: OpMOVImm, Enc: T2},
	{Mask: 0xfbf08000, Pattern: 0xf2400000, Op: OpMOVImm, Enc: T3},
	{Mask: 0xfbf08000, Pattern: 0xf2c00000, Op: OpMOVT, Enc: T1},
	// Floating point and Advanced SIMD (coprocessors 10 and 11) before MRC.
	{Mask: 0xee000e00, Pattern: 0xec000a00, Op: OpVFP, Enc: T1},
	{Mask: 0xef000e00, Pattern: 0xee000a00, Op: OpVFP, Enc: T2},
	{Mask: 0xef000000, Pattern: 0xef000000, Op: OpNEON, Enc: T1},
	{Mask: 0xff100000, Pattern: 0xf9000000, Op: OpNEON, Enc: T2},
	{Mask: 0xff100010, Pattern: 0xee100010, Op: OpMRC, Enc: T1},
	{Mask: 0xff100010, Pattern: 0xfe100010, Op: OpMRC, Enc: T2},
	{Mask: 0xfffff0ff, Pattern: 0xf3ef8000, Op: OpMRS, Enc: T1},
	{Mask: 0xfff0f3ff, Pattern: 0xf3808000, Op: OpMSRReg, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfb00f000, Op: OpMUL, Enc: T2},
	{Mask: 0xfbef8000, Pattern: 0xf06f0000, Op: OpMVNImm, Enc: T1},
	{Mask: 0xffef8000, Pattern: 0xea6f0000, Op: OpMVNReg, Enc: T2},
	{Mask: 0xffffffff, Pattern: 0xf3af8000, Op: OpNOP, Enc: T2},
	{Mask: 0xfbe08000, Pattern: 0xf0600000, Op: OpORNImm, Enc: T1},
	{Mask: 0xffe08000, Pattern: 0xea600000, Op: OpORNReg, Enc: T1},
	{Mask: 0xfbe08000, Pattern: 0xf0400000, Op: OpORRImm, Enc: T1},
	{Mask: 0xffe08000, Pattern: 0xea400000, Op: OpORRReg, Enc: T2, Skip: skipRnPC},
	{Mask: 0xfff08010, Pattern: 0xeac00000, Op: OpPKH, Enc: T1},
	{Mask: 0xffff0000, Pattern: 0xe8bd0000, Op: OpPOP, Enc: T2},
	{Mask: 0xffff0fff, Pattern: 0xf85d0b04, Op: OpPOP, Enc: T3},
	{Mask: 0xffff0000, Pattern: 0xe92d0000, Op: OpPUSH, Enc: T2},
	{Mask: 0xffff0fff, Pattern: 0xf84d0d04, Op: OpPUSH, Enc: T3},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f080, Op: OpQADD, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f010, Op: OpQADD16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f010, Op: OpQADD8, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfaa0f010, Op: OpQASX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f090, Op: OpQDADD, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f0b0, Op: OpQDSUB, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfae0f010, Op: OpQSAX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f0a0, Op: OpQSUB, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfad0f010, Op: OpQSUB16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfac0f010, Op: OpQSUB8, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f0a0, Op: OpRBIT, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f080, Op: OpREV, Enc: T2},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f090, Op: OpREV16, Enc: T2},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f0b0, Op: OpREVSH, Enc: T2},
	{Mask: 0xffef8030, Pattern: 0xea4f0030, Op: OpRORImm, Enc: T1},
	{Mask: 0xffe0f0f0, Pattern: 0xfa60f000, Op: OpRORReg, Enc: T2},
	{Mask: 0xfbe08000, Pattern: 0xf1c00000, Op: OpRSBImm, Enc: T2},
	{Mask: 0xffe08000, Pattern: 0xebc00000, Op: OpRSBReg, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f000, Op: OpSADD16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f000, Op: OpSADD8, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfaa0f000, Op: OpSASX, Enc: T1},
	{Mask: 0xfbe08000, Pattern: 0xf1600000, Op: OpSBCImm, Enc: T1},
	{Mask: 0xffe08000, Pattern: 0xeb600000, Op: OpSBCReg, Enc: T2},
	{Mask: 0xfff08020, Pattern: 0xf3400000, Op: OpSBFX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfb90f0f0, Op: OpSDIV, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfaa0f080, Op: OpSEL, Enc: T1},
	{Mask: 0xffffffff, Pattern: 0xf3af8004, Op: OpSEV, Enc: T2},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f020, Op: OpSHADD16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f020, Op: OpSHADD8, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfaa0f020, Op: OpSHASX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfae0f020, Op: OpSHSAX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfad0f020, Op: OpSHSUB16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfac0f020, Op: OpSHSUB8, Enc: T1},
	{Mask: 0xfff000c0, Pattern: 0xfb100000, Op: OpSMLAxy, Enc: T1, Skip: skipRaPC},
	{Mask: 0xfff000e0, Pattern: 0xfb200000, Op: OpSMLAD, Enc: T1, Skip: skipRaPC},
	{Mask: 0xfff000f0, Pattern: 0xfbc00000, Op: OpSMLAL, Enc: T1},
	{Mask: 0xfff000c0, Pattern: 0xfbc00080, Op: OpSMLALxy, Enc: T1},
	{Mask: 0xfff000e0, Pattern: 0xfbc000c0, Op: OpSMLALD, Enc: T1},
	{Mask: 0xfff000e0, Pattern: 0xfb300000, Op: OpSMLAWy, Enc: T1, Skip: skipRaPC},
	{Mask: 0xfff000e0, Pattern: 0xfb400000, Op: OpSMLSD, Enc: T1, Skip: skipRaPC},
	{Mask: 0xfff000e0, Pattern: 0xfbd000c0, Op: OpSMLSLD, Enc: T1},
	{Mask: 0xfff000e0, Pattern: 0xfb500000, Op: OpSMMLA, Enc: T1, Skip: skipRaPC},
	{Mask: 0xfff000e0, Pattern: 0xfb600000, Op: OpSMMLS, Enc: T1},
	{Mask: 0xfff0f0e0, Pattern: 0xfb50f000, Op: OpSMMUL, Enc: T1},
	{Mask: 0xfff0f0e0, Pattern: 0xfb20f000, Op: OpSMUAD, Enc: T1},
	{Mask: 0xfff0f0c0, Pattern: 0xfb10f000, Op: OpSMULxy, Enc: T1},
	{Mask: 0xfff000f0, Pattern: 0xfb800000, Op: OpSMULL, Enc: T1},
	{Mask: 0xfff0f0e0, Pattern: 0xfb30f000, Op: OpSMULWy, Enc: T1},
	{Mask: 0xfff0f0e0, Pattern: 0xfb40f000, Op: OpSMUSD, Enc: T1},
	{Mask: 0xffd08020, Pattern: 0xf3000000, Op: OpSSAT, Enc: T1, Skip: skipSat16},
	{Mask: 0xfff0f0e0, Pattern: 0xf3200000, Op: OpSSAT16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfae0f000, Op: OpSSAX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfad0f000, Op: OpSSUB16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfac0f000, Op: OpSSUB8, Enc: T1},
	{Mask: 0xffd0a000, Pattern: 0xe8800000, Op: OpSTM, Enc: T2},
	{Mask: 0xffd0a000, Pattern: 0xe9000000, Op: OpSTMDB, Enc: T1},
	{Mask: 0xfff00000, Pattern: 0xf8c00000, Op: OpSTRImm, Enc: T3},
	{Mask: 0xfff00800, Pattern: 0xf8400800, Op: OpSTRImm, Enc: T4},
	{Mask: 0xfff00fc0, Pattern: 0xf8400000, Op: OpSTRReg, Enc: T2},
	{Mask: 0xfff00000, Pattern: 0xf8800000, Op: OpSTRBImm, Enc: T2},
	{Mask: 0xfff00800, Pattern: 0xf8000800, Op: OpSTRBImm, Enc: T3},
	{Mask: 0xfff00fc0, Pattern: 0xf8000000, Op: OpSTRBReg, Enc: T2},
	{Mask: 0xfe500000, Pattern: 0xe8400000, Op: OpSTRDImm, Enc: T1,
		Skip: func(w uint32) bool { return !bt(w, 21) && !bt(w, 24) }},
	{Mask: 0xfff00000, Pattern: 0xe8400000, Op: OpSTREX, Enc: T1},
	{Mask: 0xfff00ff0, Pattern: 0xe8c00f40, Op: OpSTREXB, Enc: T1},
	{Mask: 0xfff000f0, Pattern: 0xe8c00070, Op: OpSTREXD, Enc: T1},
	{Mask: 0xfff00ff0, Pattern: 0xe8c00f50, Op: OpSTREXH, Enc: T1},
	{Mask: 0xfff00000, Pattern: 0xf8a00000, Op: OpSTRHImm, Enc: T2},
	{Mask: 0xfff00800, Pattern: 0xf8200800, Op: OpSTRHImm, Enc: T3},
	{Mask: 0xfff00fc0, Pattern: 0xf8200000, Op: OpSTRHReg, Enc: T2},
	{Mask: 0xfbe08000, Pattern: 0xf1a00000, Op: OpSUBImm, Enc: T3, Skip: skipFlagsToPCOrSP},
	{Mask: 0xfbf08000, Pattern: 0xf2a00000, Op: OpSUBImm, Enc: T4,
		Skip: func(w uint32) bool { return bf(w, 16, 19)&13 == 13 }},
	{Mask: 0xffe08000, Pattern: 0xeba00000, Op: OpSUBReg, Enc: T2, Skip: skipFlagsToPCOrSP},
	{Mask: 0xfbef8000, Pattern: 0xf1ad0000, Op: OpSUBSPImm, Enc: T2, Skip: skipFlagsToPC},
	{Mask: 0xfbff8000, Pattern: 0xf2ad0000, Op: OpSUBSPImm, Enc: T3},
	{Mask: 0xffef8000, Pattern: 0xebad0000, Op: OpSUBSPReg, Enc: T1, Skip: skipFlagsToPC},
	{Mask: 0xfff0f0c0, Pattern: 0xfa40f080, Op: OpSXTAB, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfff0f0c0, Pattern: 0xfa20f080, Op: OpSXTAB16, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfff0f0c0, Pattern: 0xfa00f080, Op: OpSXTAH, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfffff0c0, Pattern: 0xfa4ff080, Op: OpSXTB, Enc: T2},
	{Mask: 0xfffff0c0, Pattern: 0xfa2ff080, Op: OpSXTB16, Enc: T1},
	{Mask: 0xfffff0c0, Pattern: 0xfa0ff080, Op: OpSXTH, Enc: T2},
	{Mask: 0xfff0ffe0, Pattern: 0xe8d0f000, Op: OpTB, Enc: T1},
	{Mask: 0xfbf08f00, Pattern: 0xf0900f00, Op: OpTEQImm, Enc: T1},
	{Mask: 0xfff08f00, Pattern: 0xea900f00, Op: OpTEQReg, Enc: T1},
	{Mask: 0xfbf08f00, Pattern: 0xf0100f00, Op: OpTSTImm, Enc: T1},
	{Mask: 0xfff08f00, Pattern: 0xea100f00, Op: OpTSTReg, Enc: T2},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f040, Op: OpUADD16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f040, Op: OpUADD8, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfaa0f040, Op: OpUASX, Enc: T1},
	{Mask: 0xfff08020, Pattern: 0xf3c00000, Op: OpUBFX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfbb0f0f0, Op: OpUDIV, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f060, Op: OpUHADD16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f060, Op: OpUHADD8, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfaa0f060, Op: OpUHASX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfae0f060, Op: OpUHSAX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfad0f060, Op: OpUHSUB16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfac0f060, Op: OpUHSUB8, Enc: T1},
	{Mask: 0xfff000f0, Pattern: 0xfbe00060, Op: OpUMAAL, Enc: T1},
	{Mask: 0xfff000f0, Pattern: 0xfbe00000, Op: OpUMLAL, Enc: T1},
	{Mask: 0xfff000f0, Pattern: 0xfba00000, Op: OpUMULL, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa90f050, Op: OpUQADD16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfa80f050, Op: OpUQADD8, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfaa0f050, Op: OpUQASX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfae0f050, Op: OpUQSAX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfad0f050, Op: OpUQSUB16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfac0f050, Op: OpUQSUB8, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfb70f000, Op: OpUSAD8, Enc: T1},
	{Mask: 0xfff000f0, Pattern: 0xfb700000, Op: OpUSADA8, Enc: T1},
	{Mask: 0xffd08020, Pattern: 0xf3800000, Op: OpUSAT, Enc: T1, Skip: skipSat16},
	{Mask: 0xfff0f0e0, Pattern: 0xf3a00000, Op: OpUSAT16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfae0f040, Op: OpUSAX, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfad0f040, Op: OpUSUB16, Enc: T1},
	{Mask: 0xfff0f0f0, Pattern: 0xfac0f040, Op: OpUSUB8, Enc: T1},
	{Mask: 0xfff0f0c0, Pattern: 0xfa50f080, Op: OpUXTAB, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfff0f0c0, Pattern: 0xfa30f080, Op: OpUXTAB16, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfff0f0c0, Pattern: 0xfa10f080, Op: OpUXTAH, Enc: T1, Skip: skipRnPC},
	{Mask: 0xfffff0c0, Pattern: 0xfa5ff080, Op: OpUXTB, Enc: T2},
	{Mask: 0xfffff0c0, Pattern: 0xfa3ff080, Op: OpUXTB16, Enc: T1},
	{Mask: 0xfffff0c0, Pattern: 0xfa1ff080, Op: OpUXTH, Enc: T2},
	{Mask: 0xffffffff, Pattern: 0xf3af8002, Op: OpWFE, Enc: T2},
	{Mask: 0xffffffff, Pattern: 0xf3af8003, Op: OpWFI, Enc: T2},
	{Mask: 0xffffffff, Pattern: 0xf3af8001, Op: OpYIELD, Enc: T2},
}

// armEntries are checked in order. Entries whose mask does not cover the
// condition field only match conditional words (cond != 0b1111). The SP and
// PC relative aliases (ADR, PUSH, POP, literal loads) and MOV/RRX decode as
// their general forms.
var armEntries = []Entry{
	{Mask: 0x0ff000f0, Pattern: 0x00700090, Op: OpHACK, Enc: A1},
	{Mask: 0x0ffffff0, Pattern: 0x012fff10, Op: OpBX, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x02a00000, Op: OpADCImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x00a00000, Op: OpADCReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x00a00010, Op: OpADCRsr, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x02800000, Op: OpADDImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x00800000, Op: OpADDReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x00800010, Op: OpADDRsr, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x02000000, Op: OpANDImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x00000000, Op: OpANDReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x00000010, Op: OpANDRsr, Enc: A1},
	{Mask: 0x0fef0070, Pattern: 0x01a00040, Op: OpASRImm, Enc: A1},
	{Mask: 0x0fef00f0, Pattern: 0x01a00050, Op: OpASRReg, Enc: A1},
	{Mask: 0x0f000000, Pattern: 0x0a000000, Op: OpB, Enc: A1},
	{Mask: 0x0fe0007f, Pattern: 0x07c0001f, Op: OpBFC, Enc: A1},
	{Mask: 0x0fe00070, Pattern: 0x07c00010, Op: OpBFI, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x03c00000, Op: OpBICImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x01c00000, Op: OpBICReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x01c00010, Op: OpBICRsr, Enc: A1},
	{Mask: 0x0ff000f0, Pattern: 0x01200070, Op: OpBKPT, Enc: A1},
	{Mask: 0x0f000000, Pattern: 0x0b000000, Op: OpBL, Enc: A1},
	{Mask: 0xfe000000, Pattern: 0xfa000000, Op: OpBL, Enc: A2},
	{Mask: 0x0ffffff0, Pattern: 0x012fff30, Op: OpBLX, Enc: A1},
	{Mask: 0xffffffff, Pattern: 0xf57ff01f, Op: OpCLREX, Enc: A1},
	{Mask: 0x0fff0ff0, Pattern: 0x016f0f10, Op: OpCLZ, Enc: A1},
	{Mask: 0x0ff0f000, Pattern: 0x03700000, Op: OpCMNImm, Enc: A1},
	{Mask: 0x0ff0f010, Pattern: 0x01700000, Op: OpCMNReg, Enc: A1},
	{Mask: 0x0ff0f090, Pattern: 0x01700010, Op: OpCMNRsr, Enc: A1},
	{Mask: 0x0ff0f000, Pattern: 0x03500000, Op: OpCMPImm, Enc: A1},
	{Mask: 0x0ff0f010, Pattern: 0x01500000, Op: OpCMPReg, Enc: A1},
	{Mask: 0x0ff0f090, Pattern: 0x01500010, Op: OpCMPRsr, Enc: A1},
	{Mask: 0x0ffffff0, Pattern: 0x0320f0f0, Op: OpDBG, Enc: A1},
	{Mask: 0xfffffff0, Pattern: 0xf57ff050, Op: OpDMB, Enc: A1},
	{Mask: 0xfffffff0, Pattern: 0xf57ff040, Op: OpDSB, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x02200000, Op: OpEORImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x00200000, Op: OpEORReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x00200010, Op: OpEORRsr, Enc: A1},
	{Mask: 0x0fd00000, Pattern: 0x08900000, Op: OpLDM, Enc: A1},
	{Mask: 0x0fd00000, Pattern: 0x08100000, Op: OpLDMDA, Enc: A1},
	{Mask: 0x0fd00000, Pattern: 0x09100000, Op: OpLDMDB, Enc: A1},
	{Mask: 0x0fd00000, Pattern: 0x09900000, Op: OpLDMIB, Enc: A1},
	{Mask: 0x0e500000, Pattern: 0x04100000, Op: OpLDRImm, Enc: A1},
	{Mask: 0x0e500010, Pattern: 0x06100000, Op: OpLDRReg, Enc: A1},
	{Mask: 0x0e500000, Pattern: 0x04500000, Op: OpLDRBImm, Enc: A1},
	{Mask: 0x0e500010, Pattern: 0x06500000, Op: OpLDRBReg, Enc: A1},
	{Mask: 0x0e5000f0, Pattern: 0x004000d0, Op: OpLDRDImm, Enc: A1},
	{Mask: 0x0e500ff0, Pattern: 0x000000d0, Op: OpLDRDReg, Enc: A1},
	{Mask: 0x0ff00fff, Pattern: 0x01900f9f, Op: OpLDREX, Enc: A1},
	{Mask: 0x0ff00fff, Pattern: 0x01d00f9f, Op: OpLDREXB, Enc: A1},
	{Mask: 0x0ff00fff, Pattern: 0x01b00f9f, Op: OpLDREXD, Enc: A1},
	{Mask: 0x0ff00fff, Pattern: 0x01f00f9f, Op: OpLDREXH, Enc: A1},
	{Mask: 0x0e5000f0, Pattern: 0x005000b0, Op: OpLDRHImm, Enc: A1},
	{Mask: 0x0e500ff0, Pattern: 0x001000b0, Op: OpLDRHReg, Enc: A1},
	{Mask: 0x0e5000f0, Pattern: 0x005000d0, Op: OpLDRSBImm, Enc: A1},
	{Mask: 0x0e500ff0, Pattern: 0x001000d0, Op: OpLDRSBReg, Enc: A1},
	{Mask: 0x0e5000f0, Pattern: 0x005000f0, Op: OpLDRSHImm, Enc: A1},
	{Mask: 0x0e500ff0, Pattern: 0x001000f0, Op: OpLDRSHReg, Enc: A1},
	{Mask: 0x0fef0070, Pattern: 0x01a00000, Op: OpLSLImm, Enc: A1},
	{Mask: 0x0fef00f0, Pattern: 0x01a00010, Op: OpLSLReg, Enc: A1},
	{Mask: 0x0fef0070, Pattern: 0x01a00020, Op: OpLSRImm, Enc: A1},
	{Mask: 0x0fef00f0, Pattern: 0x01a00030, Op: OpLSRReg, Enc: A1},
	{Mask: 0x0fe000f0, Pattern: 0x00200090, Op: OpMLA, Enc: A1},
	{Mask: 0x0ff000f0, Pattern: 0x00600090, Op: OpMLS, Enc: A1},
	{Mask: 0x0fef0000, Pattern: 0x03a00000, Op: OpMOVImm, Enc: A1},
	{Mask: 0x0ff00000, Pattern: 0x03000000, Op: OpMOVImm, Enc: A2},
	{Mask: 0x0ff00000, Pattern: 0x03400000, Op: OpMOVT, Enc: A1},
	{Mask: 0xfe000000, Pattern: 0xf2000000, Op: OpNEON, Enc: A1},
	{Mask: 0xff100000, Pattern: 0xf4000000, Op: OpNEON, Enc: A2},
	{Mask: 0x0e000e00, Pattern: 0x0c000a00, Op: OpVFP, Enc: A1},
	{Mask: 0x0f000e00, Pattern: 0x0e000a00, Op: OpVFP, Enc: A2},
	{Mask: 0x0f100010, Pattern: 0x0e100010, Op: OpMRC, Enc: A1},
	{Mask: 0xff100010, Pattern: 0xfe100010, Op: OpMRC, Enc: A2},
	{Mask: 0x0fff0fff, Pattern: 0x010f0000, Op: OpMRS, Enc: A1},
	{Mask: 0x0ff3f000, Pattern: 0x0320f000, Op: OpMSRImm, Enc: A1,
		Skip: func(w uint32) bool { return bf(w, 18, 19) == 0 }},
	{Mask: 0x0ff3fff0, Pattern: 0x0120f000, Op: OpMSRReg, Enc: A1},
	{Mask: 0x0fe0f0f0, Pattern: 0x00000090, Op: OpMUL, Enc: A1},
	{Mask: 0x0fef0000, Pattern: 0x03e00000, Op: OpMVNImm, Enc: A1},
	{Mask: 0x0fef0010, Pattern: 0x01e00000, Op: OpMVNReg, Enc: A1},
	{Mask: 0x0fef0090, Pattern: 0x01e00010, Op: OpMVNRsr, Enc: A1},
	{Mask: 0x0fffffff, Pattern: 0x0320f000, Op: OpNOP, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x03800000, Op: OpORRImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x01800000, Op: OpORRReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x01800010, Op: OpORRRsr, Enc: A1},
	{Mask: 0x0ff00030, Pattern: 0x06800010, Op: OpPKH, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x01000050, Op: OpQADD, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06200f10, Op: OpQADD16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06200f90, Op: OpQADD8, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06200f30, Op: OpQASX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x01400050, Op: OpQDADD, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x01600050, Op: OpQDSUB, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06200f50, Op: OpQSAX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x01200050, Op: OpQSUB, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06200f70, Op: OpQSUB16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06200ff0, Op: OpQSUB8, Enc: A1},
	{Mask: 0x0fff0ff0, Pattern: 0x06ff0f30, Op: OpRBIT, Enc: A1},
	{Mask: 0x0fff0ff0, Pattern: 0x06bf0f30, Op: OpREV, Enc: A1},
	{Mask: 0x0fff0ff0, Pattern: 0x06bf0fb0, Op: OpREV16, Enc: A1},
	{Mask: 0x0fff0ff0, Pattern: 0x06ff0fb0, Op: OpREVSH, Enc: A1},
	{Mask: 0x0fef0070, Pattern: 0x01a00060, Op: OpRORImm, Enc: A1},
	{Mask: 0x0fef00f0, Pattern: 0x01a00070, Op: OpRORReg, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x02600000, Op: OpRSBImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x00600000, Op: OpRSBReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x00600010, Op: OpRSBRsr, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x02e00000, Op: OpRSCImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x00e00000, Op: OpRSCReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x00e00010, Op: OpRSCRsr, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06100f10, Op: OpSADD16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06100f90, Op: OpSADD8, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06100f30, Op: OpSASX, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x02c00000, Op: OpSBCImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x00c00000, Op: OpSBCReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x00c00010, Op: OpSBCRsr, Enc: A1},
	{Mask: 0x0fe00070, Pattern: 0x07a00050, Op: OpSBFX, Enc: A1},
	{Mask: 0x0ff0f0f0, Pattern: 0x0710f010, Op: OpSDIV, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06800fb0, Op: OpSEL, Enc: A1},
	{Mask: 0x0fffffff, Pattern: 0x0320f004, Op: OpSEV, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06300f10, Op: OpSHADD16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06300f90, Op: OpSHADD8, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06300f30, Op: OpSHASX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06300f50, Op: OpSHSAX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06300f70, Op: OpSHSUB16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06300ff0, Op: OpSHSUB8, Enc: A1},
	{Mask: 0x0ff00090, Pattern: 0x01000080, Op: OpSMLAxy, Enc: A1},
	{Mask: 0x0ff000d0, Pattern: 0x07000010, Op: OpSMLAD, Enc: A1, Skip: skipRaPC},
	{Mask: 0x0fe000f0, Pattern: 0x00e00090, Op: OpSMLAL, Enc: A1},
	{Mask: 0x0ff00090, Pattern: 0x01400080, Op: OpSMLALxy, Enc: A1},
	{Mask: 0x0ff000d0, Pattern: 0x07400010, Op: OpSMLALD, Enc: A1},
	{Mask: 0x0ff000b0, Pattern: 0x01200080, Op: OpSMLAWy, Enc: A1},
	{Mask: 0x0ff000d0, Pattern: 0x07000050, Op: OpSMLSD, Enc: A1, Skip: skipRaPC},
	{Mask: 0x0ff000d0, Pattern: 0x07400050, Op: OpSMLSLD, Enc: A1},
	{Mask: 0x0ff000d0, Pattern: 0x07500010, Op: OpSMMLA, Enc: A1, Skip: skipRaPC},
	{Mask: 0x0ff000d0, Pattern: 0x075000d0, Op: OpSMMLS, Enc: A1},
	{Mask: 0x0ff0f0d0, Pattern: 0x0750f010, Op: OpSMMUL, Enc: A1},
	{Mask: 0x0ff0f0d0, Pattern: 0x0700f010, Op: OpSMUAD, Enc: A1},
	{Mask: 0x0ff0f090, Pattern: 0x01600080, Op: OpSMULxy, Enc: A1},
	{Mask: 0x0fe000f0, Pattern: 0x00c00090, Op: OpSMULL, Enc: A1},
	{Mask: 0x0ff0f0b0, Pattern: 0x012000a0, Op: OpSMULWy, Enc: A1},
	{Mask: 0x0ff0f0d0, Pattern: 0x0700f050, Op: OpSMUSD, Enc: A1},
	{Mask: 0x0fe00030, Pattern: 0x06a00010, Op: OpSSAT, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06a00f30, Op: OpSSAT16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06100f50, Op: OpSSAX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06100f70, Op: OpSSUB16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06100ff0, Op: OpSSUB8, Enc: A1},
	{Mask: 0x0fd00000, Pattern: 0x08800000, Op: OpSTM, Enc: A1},
	{Mask: 0x0fd00000, Pattern: 0x08000000, Op: OpSTMDA, Enc: A1},
	{Mask: 0x0fd00000, Pattern: 0x09000000, Op: OpSTMDB, Enc: A1},
	{Mask: 0x0fd00000, Pattern: 0x09800000, Op: OpSTMIB, Enc: A1},
	{Mask: 0x0e500000, Pattern: 0x04000000, Op: OpSTRImm, Enc: A1},
	{Mask: 0x0e500010, Pattern: 0x06000000, Op: OpSTRReg, Enc: A1},
	{Mask: 0x0e500000, Pattern: 0x04400000, Op: OpSTRBImm, Enc: A1},
	{Mask: 0x0e500010, Pattern: 0x06400000, Op: OpSTRBReg, Enc: A1},
	{Mask: 0x0e5000f0, Pattern: 0x004000f0, Op: OpSTRDImm, Enc: A1},
	{Mask: 0x0e500ff0, Pattern: 0x000000f0, Op: OpSTRDReg, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x01800f90, Op: OpSTREX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x01c00f90, Op: OpSTREXB, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x01a00f90, Op: OpSTREXD, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x01e00f90, Op: OpSTREXH, Enc: A1},
	{Mask: 0x0e5000f0, Pattern: 0x004000b0, Op: OpSTRHImm, Enc: A1},
	{Mask: 0x0e500ff0, Pattern: 0x000000b0, Op: OpSTRHReg, Enc: A1},
	{Mask: 0x0fe00000, Pattern: 0x02400000, Op: OpSUBImm, Enc: A1},
	{Mask: 0x0fe00010, Pattern: 0x00400000, Op: OpSUBReg, Enc: A1},
	{Mask: 0x0fe00090, Pattern: 0x00400010, Op: OpSUBRsr, Enc: A1},
	{Mask: 0x0f000000, Pattern: 0x0f000000, Op: OpSVC, Enc: A1},
	{Mask: 0x0ff003f0, Pattern: 0x06a00070, Op: OpSXTAB, Enc: A1, Skip: skipRnPC},
	{Mask: 0x0ff003f0, Pattern: 0x06800070, Op: OpSXTAB16, Enc: A1, Skip: skipRnPC},
	{Mask: 0x0ff003f0, Pattern: 0x06b00070, Op: OpSXTAH, Enc: A1, Skip: skipRnPC},
	{Mask: 0x0fff03f0, Pattern: 0x06af0070, Op: OpSXTB, Enc: A1},
	{Mask: 0x0fff03f0, Pattern: 0x068f0070, Op: OpSXTB16, Enc: A1},
	{Mask: 0x0fff03f0, Pattern: 0x06bf0070, Op: OpSXTH, Enc: A1},
	{Mask: 0x0ff0f000, Pattern: 0x03300000, Op: OpTEQImm, Enc: A1},
	{Mask: 0x0ff0f010, Pattern: 0x01300000, Op: OpTEQReg, Enc: A1},
	{Mask: 0x0ff0f090, Pattern: 0x01300010, Op: OpTEQRsr, Enc: A1},
	{Mask: 0x0ff0f000, Pattern: 0x03100000, Op: OpTSTImm, Enc: A1},
	{Mask: 0x0ff0f010, Pattern: 0x01100000, Op: OpTSTReg, Enc: A1},
	{Mask: 0x0ff0f090, Pattern: 0x01100010, Op: OpTSTRsr, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06500f10, Op: OpUADD16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06500f90, Op: OpUADD8, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06500f30, Op: OpUASX, Enc: A1},
	{Mask: 0x0fe00070, Pattern: 0x07e00050, Op: OpUBFX, Enc: A1},
	{Mask: 0x0ff0f0f0, Pattern: 0x0730f010, Op: OpUDIV, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06700f10, Op: OpUHADD16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06700f90, Op: OpUHADD8, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06700f30, Op: OpUHASX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06700f50, Op: OpUHSAX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06700f70, Op: OpUHSUB16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06700ff0, Op: OpUHSUB8, Enc: A1},
	{Mask: 0x0ff000f0, Pattern: 0x00400090, Op: OpUMAAL, Enc: A1},
	{Mask: 0x0fe000f0, Pattern: 0x00a00090, Op: OpUMLAL, Enc: A1},
	{Mask: 0x0fe000f0, Pattern: 0x00800090, Op: OpUMULL, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06600f10, Op: OpUQADD16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06600f90, Op: OpUQADD8, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06600f30, Op: OpUQASX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06600f50, Op: OpUQSAX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06600f70, Op: OpUQSUB16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06600ff0, Op: OpUQSUB8, Enc: A1},
	{Mask: 0x0ff0f0f0, Pattern: 0x0780f010, Op: OpUSAD8, Enc: A1},
	{Mask: 0x0ff000f0, Pattern: 0x07800010, Op: OpUSADA8, Enc: A1},
	{Mask: 0x0fe00030, Pattern: 0x06e00010, Op: OpUSAT, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06e00f30, Op: OpUSAT16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06500f50, Op: OpUSAX, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06500f70, Op: OpUSUB16, Enc: A1},
	{Mask: 0x0ff00ff0, Pattern: 0x06500ff0, Op: OpUSUB8, Enc: A1},
	{Mask: 0x0ff003f0, Pattern: 0x06e00070, Op: OpUXTAB, Enc: A1, Skip: skipRnPC},
	{Mask: 0x0ff003f0, Pattern: 0x06c00070, Op: OpUXTAB16, Enc: A1, Skip: skipRnPC},
	{Mask: 0x0ff003f0, Pattern: 0x06f00070, Op: OpUXTAH, Enc: A1, Skip: skipRnPC},
	{Mask: 0x0fff03f0, Pattern: 0x06ef0070, Op: OpUXTB, Enc: A1},
	{Mask: 0x0fff03f0, Pattern: 0x06cf0070, Op: OpUXTB16, Enc: A1},
	{Mask: 0x0fff03f0, Pattern: 0x06ff0070, Op: OpUXTH, Enc: A1},
	{Mask: 0x0fffffff, Pattern: 0x0320f002, Op: OpWFE, Enc: A1},
	{Mask: 0x0fffffff, Pattern: 0x0320f003, Op: OpWFI, Enc: A1},
	{Mask: 0x0fffffff, Pattern: 0x0320f001, Op: OpYIELD, Enc: A1},
}
