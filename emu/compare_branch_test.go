package emu_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/insts"
)

var _ = Describe("Compare and Branch", func() {
	var mem *emu.SparseMemory

	BeforeEach(func() {
		mem = newGuestMemory()
	})

	run := func(r0, r1 uint32) *emu.Context {
		t := newThread(mem, codeBase|1)
		t.Context().GPR[0] = r0
		t.Context().GPR[1] = r1
		Expect(t.Run(context.Background())).To(Succeed())
		return t.Context()
	}

	Describe("CBZ", func() {
		BeforeEach(func() {
			// cbz r0, 1f; movs r1, #1; bx lr; nop; 1: movs r1, #2; bx lr
			writeThumb(mem, codeBase, 0xb110, 0x2101, 0x4770, 0xbf00, 0x2102, 0x4770)
		})

		It("should branch when the register is zero", func() {
			Expect(run(0, 0).GPR[1]).To(Equal(uint32(2)))
		})

		It("should fall through otherwise", func() {
			Expect(run(5, 0).GPR[1]).To(Equal(uint32(1)))
		})
	})

	Describe("CBNZ", func() {
		BeforeEach(func() {
			writeThumb(mem, codeBase, 0xb910, 0x2101, 0x4770, 0xbf00, 0x2102, 0x4770)
		})

		It("should branch when the register is not zero", func() {
			Expect(run(5, 0).GPR[1]).To(Equal(uint32(2)))
		})

		It("should fall through on zero", func() {
			Expect(run(0, 0).GPR[1]).To(Equal(uint32(1)))
		})
	})

	DescribeTable("CMP then B<cond>",
		func(cond insts.Cond, r0, r1 uint32, taken bool) {
			// cmp r0, r1; b<cond> 1f; movs r2, #0; bx lr; 1: movs r2, #1; bx lr
			writeThumb(mem, codeBase, 0x4288, 0xd001|uint16(cond)<<8, 0x2200, 0x4770, 0x2201, 0x4770)

			want := uint32(0)
			if taken {
				want = 1
			}
			Expect(run(r0, r1).GPR[2]).To(Equal(want))
		},
		Entry("EQ taken", insts.CondEQ, uint32(5), uint32(5), true),
		Entry("EQ not taken", insts.CondEQ, uint32(5), uint32(6), false),
		Entry("NE not taken", insts.CondNE, uint32(5), uint32(5), false),
		Entry("CS on unsigned higher or same", insts.CondCS, uint32(5), uint32(3), true),
		Entry("CC on unsigned lower", insts.CondCC, uint32(3), uint32(5), true),
		Entry("MI on a negative difference", insts.CondMI, uint32(3), uint32(5), true),
		Entry("PL on a positive difference", insts.CondPL, uint32(5), uint32(3), true),
		Entry("VS on signed overflow", insts.CondVS, uint32(0x80000000), uint32(1), true),
		Entry("VC without overflow", insts.CondVC, uint32(1), uint32(1), true),
		Entry("HI taken", insts.CondHI, uint32(0xffffffff), uint32(1), true),
		Entry("HI not taken", insts.CondHI, uint32(1), uint32(0xffffffff), false),
		Entry("LS on unsigned lower", insts.CondLS, uint32(1), uint32(0xffffffff), true),
		Entry("GE on negative operands", insts.CondGE, uint32(0xffffffff), uint32(0xfffffffe), true),
		Entry("LT on signed less", insts.CondLT, uint32(0xfffffffe), uint32(1), true),
		Entry("GT taken", insts.CondGT, uint32(5), uint32(3), true),
		Entry("GT not taken when equal", insts.CondGT, uint32(3), uint32(3), false),
		Entry("LE when equal", insts.CondLE, uint32(3), uint32(3), true),
	)

	Describe("TBB", func() {
		BeforeEach(func() {
			// tbb [pc, r0]; table {2, 4}; nop; movs r1, #10; bx lr;
			// movs r1, #20; bx lr
			writeThumb(mem, codeBase, 0xe8df, 0xf000, 0x0402, 0xbf00, 0x210a, 0x4770, 0x2114, 0x4770)
		})

		It("should branch to the first case", func() {
			Expect(run(0, 0).GPR[1]).To(Equal(uint32(10)))
		})

		It("should branch to the second case", func() {
			Expect(run(1, 0).GPR[1]).To(Equal(uint32(20)))
		})
	})

	It("should call ARM code with BLX and return to Thumb", func() {
		// push {lr}; blx arm; pop {pc}
		writeThumb(mem, codeBase, 0xb500, 0xf000, 0xe87e, 0xbd00)
		// mov r0, #42; bx lr
		writeARM(mem, codeBase+0x100, 0xe3a0002a, 0xe12fff1e)

		ctx := run(0, 0)
		Expect(ctx.GPR[0]).To(Equal(uint32(42)))
		Expect(ctx.ISet).To(Equal(insts.Thumb))
	})

	It("should run an ARM prologue, literal load and epilogue", func() {
		// push {r4, lr}; ldr r0, [pc, #4]; mov r4, #7; pop {r4, pc}; .word
		writeARM(mem, codeBase+0x200, 0xe92d4010, 0xe59f0004, 0xe3a04007, 0xe8bd8010, 0x12345678)

		t := newThread(mem, codeBase+0x200)
		t.Context().GPR[4] = 99
		Expect(t.Run(context.Background())).To(Succeed())

		ctx := t.Context()
		Expect(ctx.GPR[0]).To(Equal(uint32(0x12345678)))
		Expect(ctx.GPR[4]).To(Equal(uint32(99)))
		Expect(ctx.SP()).To(Equal(stackTop))
	})
})
