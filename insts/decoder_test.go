package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv7/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	It("should share one immutable table", func() {
		Expect(insts.NewDecoder()).To(BeIdenticalTo(decoder))
	})

	Describe("Thumb width", func() {
		DescribeTable("IsThumb32",
			func(hw uint16, wide bool) {
				Expect(insts.IsThumb32(hw)).To(Equal(wide))
			},
			Entry("B T2 is narrow", uint16(0xe7fe), false),
			Entry("0xe800 starts a wide instruction", uint16(0xe800), true),
			Entry("BL prefix", uint16(0xf000), true),
			Entry("0xffff", uint16(0xffff), true),
			Entry("MOVS", uint16(0x2005), false),
		)
	})

	Describe("16-bit Thumb", func() {
		DescribeTable("valid encodings",
			func(hw uint16, op insts.Op, enc insts.Encoding) {
				inst := decoder.DecodeThumb16(hw)
				Expect(inst.Op).To(Equal(op), inst.String())
				Expect(inst.Enc).To(Equal(enc))
				Expect(inst.Width).To(Equal(uint8(2)))
				Expect(inst.Raw).To(Equal(uint32(hw)))
			},
			Entry("MOVS r0, #5", uint16(0x2005), insts.OpMOVImm, insts.T1),
			Entry("ADDS r0, #3", uint16(0x3003), insts.OpADDImm, insts.T2),
			Entry("ADDS r0, r0, #1", uint16(0x1c40), insts.OpADDImm, insts.T1),
			Entry("BX lr", uint16(0x4770), insts.OpBX, insts.T1),
			Entry("BLX r3", uint16(0x4798), insts.OpBLX, insts.T1),
			Entry("ITT eq", uint16(0xbf04), insts.OpIT, insts.T1),
			Entry("IT eq", uint16(0xbf08), insts.OpIT, insts.T1),
			Entry("NOP", uint16(0xbf00), insts.OpNOP, insts.T1),
			Entry("YIELD", uint16(0xbf10), insts.OpYIELD, insts.T1),
			Entry("PUSH {lr}", uint16(0xb500), insts.OpPUSH, insts.T1),
			Entry("POP {pc}", uint16(0xbd00), insts.OpPOP, insts.T1),
			Entry("ADD r0, sp, r0", uint16(0x4468), insts.OpADDSPReg, insts.T1),
			Entry("ADD sp, r0", uint16(0x4485), insts.OpADDSPReg, insts.T2),
			Entry("ADD r1, r2", uint16(0x4411), insts.OpADDReg, insts.T2),
			Entry("SUB sp, #4", uint16(0xb081), insts.OpSUBSPImm, insts.T1),
			Entry("ADD sp, #4", uint16(0xb001), insts.OpADDSPImm, insts.T2),
			Entry("BEQ", uint16(0xd0fe), insts.OpB, insts.T1),
			Entry("B", uint16(0xe7fe), insts.OpB, insts.T2),
			Entry("SVC #1", uint16(0xdf01), insts.OpSVC, insts.T1),
			Entry("CBZ r0", uint16(0xb108), insts.OpCBZ, insts.T1),
			Entry("CBNZ r0", uint16(0xb908), insts.OpCBZ, insts.T1),
			Entry("LSLS r0, r0, #0 wins over MOVS", uint16(0x0000), insts.OpLSLImm, insts.T1),
			Entry("MOV r0, r1", uint16(0x4608), insts.OpMOVReg, insts.T1),
			Entry("LDR r0, [pc, #4]", uint16(0x4801), insts.OpLDRLit, insts.T1),
			Entry("STR r0, [sp, #4]", uint16(0x9001), insts.OpSTRImm, insts.T2),
			Entry("UXTB r0, r1", uint16(0xb2c8), insts.OpUXTB, insts.T1),
			Entry("REV r0, r1", uint16(0xba08), insts.OpREV, insts.T1),
			Entry("CMP r0, #1", uint16(0x2801), insts.OpCMPImm, insts.T1),
			Entry("ADR r0, #8", uint16(0xa002), insts.OpADR, insts.T1),
		)

		DescribeTable("invalid encodings fall back to unknown",
			func(hw uint16) {
				inst := decoder.DecodeThumb16(hw)
				Expect(inst.Known()).To(BeFalse())
				Expect(inst.Op).To(Equal(insts.OpUnknown))
				Expect(inst.Raw).To(Equal(uint32(hw)))
			},
			Entry("UDF", uint16(0xde00)),
			Entry("B T1 with condition 0b1110", uint16(0xdeff)),
			Entry("CPS space", uint16(0xb600)),
			Entry("unallocated hint", uint16(0xbf50)),
			Entry("prefix of a 32-bit instruction", uint16(0xf000)),
		)

		It("should resolve every halfword to the first matching entry", func() {
			entries := decoder.Entries(insts.Thumb, 2)
			for hw := 0; hw < 0x10000; hw++ {
				if insts.IsThumb32(uint16(hw)) {
					continue
				}

				want := insts.OpUnknown
				wantEnc := insts.EncNone
				for i := range entries {
					if entries[i].Match(uint32(hw)) {
						want = entries[i].Op
						wantEnc = entries[i].Enc
						break
					}
				}

				inst := decoder.DecodeThumb16(uint16(hw))
				if inst.Op != want || inst.Enc != wantEnc {
					Fail("mismatch at " + inst.String())
				}
			}
		})
	})

	Describe("32-bit Thumb", func() {
		DescribeTable("valid encodings",
			func(word uint32, op insts.Op, enc insts.Encoding) {
				inst := decoder.DecodeThumb32(word)
				Expect(inst.Op).To(Equal(op), inst.String())
				Expect(inst.Enc).To(Equal(enc))
				Expect(inst.Width).To(Equal(uint8(4)))
			},
			Entry("HLE call #5", uint32(0xf8700005), insts.OpHACK, insts.T1),
			Entry("BL", uint32(0xf000f800), insts.OpBL, insts.T1),
			Entry("BLX imm", uint32(0xf000e800), insts.OpBL, insts.T2),
			Entry("B.W", uint32(0xf000b800), insts.OpB, insts.T4),
			Entry("BEQ.W", uint32(0xf0008000), insts.OpB, insts.T3),
			Entry("ADD.W r0, r1, #1", uint32(0xf1010001), insts.OpADDImm, insts.T3),
			Entry("ADDS.W with Rd=pc is CMN", uint32(0xf1100f01), insts.OpCMNImm, insts.T1),
			Entry("SUBS.W with Rd=pc is CMP", uint32(0xf1b00f01), insts.OpCMPImm, insts.T2),
			Entry("ANDS.W with Rd=pc is TST", uint32(0xf0100f01), insts.OpTSTImm, insts.T1),
			Entry("ADD.W r0, sp, #4", uint32(0xf10d0004), insts.OpADDSPImm, insts.T3),
			Entry("MOV.W r0, #1", uint32(0xf04f0001), insts.OpMOVImm, insts.T2),
			Entry("MOVW r0, #0x1234", uint32(0xf2412034), insts.OpMOVImm, insts.T3),
			Entry("MOVT r0, #0x1234", uint32(0xf2c12034), insts.OpMOVT, insts.T1),
			Entry("LDREX r0, [r1]", uint32(0xe8510f00), insts.OpLDREX, insts.T1),
			Entry("STREX r0, r2, [r1]", uint32(0xe8412000), insts.OpSTREX, insts.T1),
			Entry("LDREXB", uint32(0xe8d10f4f), insts.OpLDREXB, insts.T1),
			Entry("STREXH", uint32(0xe8c10f52), insts.OpSTREXH, insts.T1),
			Entry("CLREX", uint32(0xf3bf8f2f), insts.OpCLREX, insts.T1),
			Entry("MRC TLS read", uint32(0xee1d0f70), insts.OpMRC, insts.T1),
			Entry("PUSH.W", uint32(0xe92d4ff0), insts.OpPUSH, insts.T2),
			Entry("POP.W", uint32(0xe8bd8ff0), insts.OpPOP, insts.T2),
			Entry("LDR.W r0, [r1, #4]", uint32(0xf8d10004), insts.OpLDRImm, insts.T3),
			Entry("LDR.W r0, [pc, #4]", uint32(0xf8df0004), insts.OpLDRLit, insts.T2),
			Entry("LDRD r0, r1, [r2]", uint32(0xe9d20100), insts.OpLDRDImm, insts.T1),
			Entry("TBB [r0, r1]", uint32(0xe8d0f001), insts.OpTB, insts.T1),
			Entry("MUL.W", uint32(0xfb01f002), insts.OpMUL, insts.T2),
			Entry("UMULL", uint32(0xfba10203), insts.OpUMULL, insts.T1),
			Entry("SDIV", uint32(0xfb91f0f2), insts.OpSDIV, insts.T1),
			Entry("UBFX", uint32(0xf3c10007), insts.OpUBFX, insts.T1),
			Entry("BFC", uint32(0xf36f0007), insts.OpBFC, insts.T1),
			Entry("CLZ", uint32(0xfab1f081), insts.OpCLZ, insts.T1),
			Entry("LSL.W imm", uint32(0xea4f0081), insts.OpLSLImm, insts.T2),
			Entry("VADD.F32", uint32(0xee300a00), insts.OpVFP, insts.T2),
			Entry("VLDR", uint32(0xed910a00), insts.OpVFP, insts.T1),
			Entry("Advanced SIMD", uint32(0xef000800), insts.OpNEON, insts.T1),
			Entry("NOP.W", uint32(0xf3af8000), insts.OpNOP, insts.T2),
			Entry("SMMLA r0, r1, r2, r3", uint32(0xfb513002), insts.OpSMMLA, insts.T1),
			Entry("SMMUL r0, r1, r2", uint32(0xfb51f002), insts.OpSMMUL, insts.T1),
			Entry("SMULBB r0, r1, r2", uint32(0xfb11f002), insts.OpSMULxy, insts.T1),
			Entry("SMUAD r0, r1, r2", uint32(0xfb21f002), insts.OpSMUAD, insts.T1),
			Entry("SMULWB r0, r1, r2", uint32(0xfb31f002), insts.OpSMULWy, insts.T1),
			Entry("SMUSD r0, r1, r2", uint32(0xfb41f002), insts.OpSMUSD, insts.T1),
			Entry("SSAT r0, #8, r1, ASR #1", uint32(0xf3210047), insts.OpSSAT, insts.T1),
			Entry("SSAT16 r0, #8, r1", uint32(0xf3210007), insts.OpSSAT16, insts.T1),
			Entry("USAT16 r0, #8, r1", uint32(0xf3a10008), insts.OpUSAT16, insts.T1),
		)

		DescribeTable("invalid encodings fall back to unknown",
			func(word uint32) {
				inst := decoder.DecodeThumb32(word)
				Expect(inst.Known()).To(BeFalse())
				Expect(inst.Raw).To(Equal(word))
			},
			Entry("UDF.W", uint32(0xf7f0a000)),
			Entry("unallocated load/store multiple", uint32(0xe8000000)),
			Entry("16-bit halfword in the high part", uint32(0x20050000)),
		)

		It("should be deterministic", func() {
			first := decoder.DecodeThumb32(0xf1100f01)
			for i := 0; i < 10; i++ {
				Expect(decoder.DecodeThumb32(0xf1100f01)).To(Equal(first))
			}
		})
	})

	Describe("ARM", func() {
		DescribeTable("valid encodings",
			func(word uint32, op insts.Op, enc insts.Encoding) {
				inst := decoder.DecodeARM(word)
				Expect(inst.Op).To(Equal(op), inst.String())
				Expect(inst.Enc).To(Equal(enc))
			},
			Entry("BX lr", uint32(0xe12fff1e), insts.OpBX, insts.A1),
			Entry("MOV r0, #5", uint32(0xe3a00005), insts.OpMOVImm, insts.A1),
			Entry("ADD r0, r0, #3", uint32(0xe2800003), insts.OpADDImm, insts.A1),
			Entry("HLE call #5", uint32(0xe0700095), insts.OpHACK, insts.A1),
			Entry("BL", uint32(0xebfffffe), insts.OpBL, insts.A1),
			Entry("BLX imm", uint32(0xfa000000), insts.OpBL, insts.A2),
			Entry("BLX r3", uint32(0xe12fff33), insts.OpBLX, insts.A1),
			Entry("LDREX r1, [r2]", uint32(0xe1921f9f), insts.OpLDREX, insts.A1),
			Entry("STREX r1, r0, [r2]", uint32(0xe1821f90), insts.OpSTREX, insts.A1),
			Entry("MOV r0, r0 decodes as LSL #0", uint32(0xe1a00000), insts.OpLSLImm, insts.A1),
			Entry("ROR r0, r1, #4", uint32(0xe1a00261), insts.OpRORImm, insts.A1),
			Entry("LSR r0, r1, #4", uint32(0xe1a00221), insts.OpLSRImm, insts.A1),
			Entry("NOP", uint32(0xe320f000), insts.OpNOP, insts.A1),
			Entry("YIELD", uint32(0xe320f001), insts.OpYIELD, insts.A1),
			Entry("MSR APSR_nzcvq, #0", uint32(0xe328f000), insts.OpMSRImm, insts.A1),
			Entry("MVN r0, r1", uint32(0xe1e00001), insts.OpMVNReg, insts.A1),
			Entry("MVNNE r0, r1", uint32(0x11e00001), insts.OpMVNReg, insts.A1),
			Entry("PUSH {r4, lr} decodes as STMDB", uint32(0xe92d4010), insts.OpSTMDB, insts.A1),
			Entry("POP {r4, pc} decodes as LDM", uint32(0xe8bd8010), insts.OpLDM, insts.A1),
			Entry("LDR r0, [pc, #4]", uint32(0xe59f0004), insts.OpLDRImm, insts.A1),
			Entry("SMMUL r0, r1, r2", uint32(0xe750f211), insts.OpSMMUL, insts.A1),
			Entry("SMUAD r0, r1, r2", uint32(0xe700f211), insts.OpSMUAD, insts.A1),
			Entry("LDR r0, [r1, #4]", uint32(0xe5910004), insts.OpLDRImm, insts.A1),
			Entry("STRH r0, [r1]", uint32(0xe1c100b0), insts.OpSTRHImm, insts.A1),
			Entry("MUL r0, r1, r2", uint32(0xe0000291), insts.OpMUL, insts.A1),
			Entry("SDIV r0, r1, r2", uint32(0xe710f211), insts.OpSDIV, insts.A1),
			Entry("MRC TLS read", uint32(0xee1d0f70), insts.OpMRC, insts.A1),
			Entry("DMB", uint32(0xf57ff05f), insts.OpDMB, insts.A1),
			Entry("CLREX", uint32(0xf57ff01f), insts.OpCLREX, insts.A1),
			Entry("Advanced SIMD", uint32(0xf2000000), insts.OpNEON, insts.A1),
			Entry("VFP data processing", uint32(0xee300a00), insts.OpVFP, insts.A2),
			Entry("SVC", uint32(0xef000001), insts.OpSVC, insts.A1),
		)

		DescribeTable("invalid encodings fall back to unknown",
			func(word uint32) {
				Expect(decoder.DecodeARM(word).Known()).To(BeFalse())
			},
			Entry("UDF", uint32(0xe7f000f0)),
			Entry("data processing in the unconditional space", uint32(0xf0800000)),
			Entry("coprocessor space with condition 0b1111", uint32(0xfc000000)),
		)
	})

	DescribeTable("every table entry decodes to itself for some word",
		func(set insts.ISet, width uint8) {
			entries := decoder.Entries(set, width)
			for i := range entries {
				e := entries[i]
				found := false
				for _, fill := range []uint32{0, 0xffffffff, 0x55555555, 0xaaaaaaaa} {
					word := e.Pattern | ^e.Mask&fill
					if width == 2 {
						word &= 0xffff
					}
					if set == insts.ARM && e.Mask>>28 != 0xf {
						word = word&0x0fffffff | 0xe0000000
					}
					if !e.Match(word) {
						continue
					}

					inst := decoder.Decode(set, word)
					if inst.Op == e.Op && inst.Enc == e.Enc {
						found = true
						break
					}
				}
				Expect(found).To(BeTrue(), "entry %d (%v %v) is shadowed", i, e.Op, e.Enc)
			}
		},
		Entry("16-bit Thumb", insts.Thumb, uint8(2)),
		Entry("32-bit Thumb", insts.Thumb, uint8(4)),
		Entry("ARM", insts.ARM, uint8(4)),
	)

	It("should dispatch by instruction set", func() {
		Expect(decoder.Decode(insts.ARM, 0xe12fff1e).Op).To(Equal(insts.OpBX))
		Expect(decoder.Decode(insts.Thumb, 0x4770).Op).To(Equal(insts.OpBX))
		Expect(decoder.Decode(insts.Thumb, 0xf8700001).Op).To(Equal(insts.OpHACK))
	})
})
