package emu_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/insts"
)

// recordingCaller runs test-provided native functions.
type recordingCaller struct {
	calls []uint32
	fns   map[uint32]func(t *emu.Thread) error
}

func (c *recordingCaller) CallFunction(t *emu.Thread, index uint32) error {
	c.calls = append(c.calls, index)
	Expect(t.Context().HLECall).To(Equal(index))
	if fn, ok := c.fns[index]; ok {
		return fn(t)
	}
	return nil
}

var _ = Describe("Thread", func() {
	var mem *emu.SparseMemory

	BeforeEach(func() {
		mem = newGuestMemory()
	})

	It("should run Thumb code and return through the stub", func() {
		// movs r0, #5; adds r0, #3; bx lr
		writeThumb(mem, codeBase, 0x2005, 0x3003, 0x4770)
		t := newThread(mem, codeBase|1)

		Expect(t.Status()).To(Equal(emu.StatusDormant))
		Expect(t.Run(context.Background())).To(Succeed())

		Expect(t.Context().GPR[0]).To(Equal(uint32(8)))
		Expect(t.Status()).To(Equal(emu.StatusReturned))
		Expect(t.ExitStatus()).To(Equal(uint32(8)))
		Expect(t.InstructionCount()).To(Equal(uint64(4)))
	})

	It("should run ARM code and interwork back to a Thumb stub", func() {
		// mov r0, #5; add r0, r0, #3; bx lr
		writeARM(mem, codeBase, 0xe3a00005, 0xe2800003, 0xe12fff1e)
		t := newThread(mem, codeBase)

		Expect(t.Context().ISet).To(Equal(insts.ARM))
		Expect(t.Run(context.Background())).To(Succeed())
		Expect(t.Context().GPR[0]).To(Equal(uint32(8)))
		Expect(t.Context().ISet).To(Equal(insts.Thumb))
	})

	Describe("IT blocks", func() {
		BeforeEach(func() {
			// cmp r0, #0; itt eq; moveq r1, #1; moveq r2, #2; movs r3, #3; bx lr
			writeThumb(mem, codeBase, 0x2800, 0xbf04, 0x2101, 0x2202, 0x2303, 0x4770)
		})

		It("should execute both instructions when the condition holds", func() {
			t := newThread(mem, codeBase|1)
			Expect(t.Run(context.Background())).To(Succeed())

			ctx := t.Context()
			Expect(ctx.GPR[1]).To(Equal(uint32(1)))
			Expect(ctx.GPR[2]).To(Equal(uint32(2)))
			Expect(ctx.GPR[3]).To(Equal(uint32(3)))
			Expect(ctx.IT.Active()).To(BeFalse())
		})

		It("should skip both instructions when the condition fails", func() {
			t := newThread(mem, codeBase|1)
			t.Context().GPR[0] = 7
			Expect(t.Run(context.Background())).To(Succeed())

			ctx := t.Context()
			Expect(ctx.GPR[1]).To(BeZero())
			Expect(ctx.GPR[2]).To(BeZero())
			Expect(ctx.GPR[3]).To(Equal(uint32(3)))
		})

		It("should not set flags inside the block", func() {
			t := newThread(mem, codeBase|1)
			Expect(t.Step().Control).To(Equal(emu.ControlContinue))
			Expect(t.Step().Control).To(Equal(emu.ControlContinue))
			Expect(t.Context().IT.Remaining()).To(Equal(2))

			Expect(t.Step().Inst.Op).To(Equal(insts.OpMOVImm))
			Expect(t.Context().APSR.Z).To(BeTrue())
			Expect(t.Context().IT.Remaining()).To(Equal(1))
		})
	})

	DescribeTable("ARM data processing",
		func(in [4]uint32, code []uint32, want map[int]uint32) {
			writeARM(mem, codeBase, append(code, 0xe12fff1e)...)
			t := newThread(mem, codeBase)
			copy(t.Context().GPR[:4], in[:])

			Expect(t.Run(context.Background())).To(Succeed())
			for r, v := range want {
				Expect(t.Context().GPR[r]).To(Equal(v), "r%d", r)
			}
		},
		Entry("ADD r0, r1, r2", [4]uint32{0, 2, 3}, []uint32{0xe0810002}, map[int]uint32{0: 5}),
		Entry("SUB r0, r1, r2, LSL #2", [4]uint32{0, 20, 3}, []uint32{0xe0410102}, map[int]uint32{0: 8}),
		Entry("RSB r0, r1, #0", [4]uint32{0, 5}, []uint32{0xe2610000}, map[int]uint32{0: 0xfffffffb}),
		Entry("ORR r0, r1, #0xff000000", [4]uint32{0, 1}, []uint32{0xe38104ff}, map[int]uint32{0: 0xff000001}),
		Entry("BIC r0, r1, #0xf", [4]uint32{0, 0xff}, []uint32{0xe3c1000f}, map[int]uint32{0: 0xf0}),
		Entry("LSL r0, r1, r2", [4]uint32{0, 1, 4}, []uint32{0xe1a00211}, map[int]uint32{0: 16}),
		Entry("MOVW and MOVT", [4]uint32{}, []uint32{0xe3010234, 0xe34b0eef}, map[int]uint32{0: 0xbeef1234}),
		Entry("MUL r0, r1, r2", [4]uint32{0, 6, 7}, []uint32{0xe0000291}, map[int]uint32{0: 42}),
		Entry("UMULL r0, r1, r2, r3", [4]uint32{0, 0, 0xffffffff, 2}, []uint32{0xe0810392},
			map[int]uint32{0: 0xfffffffe, 1: 1}),
		Entry("UBFX r0, r1, #4, #8", [4]uint32{0, 0x12345678}, []uint32{0xe7e70251}, map[int]uint32{0: 0x67}),
		Entry("REV r0, r1", [4]uint32{0, 0x12345678}, []uint32{0xe6bf0f31}, map[int]uint32{0: 0x78563412}),
		Entry("CLZ r0, r1", [4]uint32{0, 0x00010000}, []uint32{0xe16f0f11}, map[int]uint32{0: 15}),
		Entry("UXTB r0, r1", [4]uint32{0, 0x1234}, []uint32{0xe6ef0071}, map[int]uint32{0: 0x34}),
		Entry("SDIV r0, r1, r2", [4]uint32{0, 0xfffffff4, 4}, []uint32{0xe710f211}, map[int]uint32{0: 0xfffffffd}),
		Entry("SDIV by zero", [4]uint32{9, 12, 0}, []uint32{0xe710f211}, map[int]uint32{0: 0}),
		Entry("CMP and MOVEQ taken", [4]uint32{0, 5, 5}, []uint32{0xe1510002, 0x03a00001}, map[int]uint32{0: 1}),
		Entry("CMP and MOVEQ skipped", [4]uint32{0, 5, 6}, []uint32{0xe1510002, 0x03a00001}, map[int]uint32{0: 0}),
	)

	DescribeTable("Thumb instructions",
		func(in [4]uint32, code []uint16, want map[int]uint32) {
			writeThumb(mem, codeBase, append(code, 0x4770)...)
			t := newThread(mem, codeBase|1)
			copy(t.Context().GPR[:4], in[:])

			Expect(t.Run(context.Background())).To(Succeed())
			for r, v := range want {
				Expect(t.Context().GPR[r]).To(Equal(v), "r%d", r)
			}
		},
		Entry("LSLS r0, r1, #3", [4]uint32{0, 2}, []uint16{0x00c8}, map[int]uint32{0: 16}),
		Entry("MULS r0, r1", [4]uint32{6, 7}, []uint16{0x4348}, map[int]uint32{0: 42}),
		Entry("ADD.W r0, r1, #0x00ab00ab", [4]uint32{0, 1}, []uint16{0xf101, 0x10ab}, map[int]uint32{0: 0x00ab00ac}),
		Entry("UDIV r0, r1, r2", [4]uint32{0, 100, 7}, []uint16{0xfbb1, 0xf0f2}, map[int]uint32{0: 14}),
		Entry("STR then LDR", [4]uint32{0, 0xcafe, dataBase}, []uint16{0x6051, 0x6850}, map[int]uint32{0: 0xcafe}),
	)

	It("should save and restore registers with PUSH and POP", func() {
		// push {r4, lr}; movs r4, #9; movs r0, r4; pop {r4, pc}
		writeThumb(mem, codeBase, 0xb510, 0x2409, 0x0020, 0xbd10)
		t := newThread(mem, codeBase|1)
		t.Context().GPR[4] = 1

		Expect(t.Run(context.Background())).To(Succeed())
		Expect(t.Context().GPR[0]).To(Equal(uint32(9)))
		Expect(t.Context().GPR[4]).To(Equal(uint32(1)))
		Expect(t.Context().SP()).To(Equal(stackTop))
	})

	It("should read the TLS register", func() {
		// mrc p15, 0, r0, c13, c0, 3; bx lr
		writeThumb(mem, codeBase, 0xee1d, 0x0f70, 0x4770)

		t := newThread(mem, codeBase|1)
		t.Context().TLS = 0x81000000
		Expect(t.Run(context.Background())).To(Succeed())
		Expect(t.Context().GPR[0]).To(Equal(uint32(0x81000000)))

		t = newThread(mem, codeBase|1)
		err := t.Run(context.Background())
		Expect(errors.Is(err, emu.ErrTLSUnset)).To(BeTrue())
		Expect(t.Status()).To(Equal(emu.StatusHalted))
	})

	It("should halt on an unknown instruction", func() {
		writeThumb(mem, codeBase, 0x2001, 0xde00)
		t := newThread(mem, codeBase|1)

		err := t.Run(context.Background())
		var ue *emu.UnknownInstructionError
		Expect(errors.As(err, &ue)).To(BeTrue())
		Expect(ue.PC).To(Equal(codeBase + 2))
		Expect(ue.Raw).To(Equal(uint32(0xde00)))
		Expect(errors.Is(err, emu.ErrUnknownInstruction)).To(BeTrue())
		Expect(t.Status()).To(Equal(emu.StatusHalted))
		Expect(t.Context().PC).To(Equal(codeBase + 2))
	})

	It("should reject a flag-setting write to PC", func() {
		// subs pc, lr, #0 in ARM state
		writeARM(mem, codeBase, 0xe25ef000)
		t := newThread(mem, codeBase)

		err := t.Run(context.Background())
		Expect(errors.Is(err, emu.ErrUnimplemented)).To(BeTrue())
	})

	It("should stop at the instruction limit", func() {
		// b .
		writeThumb(mem, codeBase, 0xe7fe)
		t := newThread(mem, codeBase|1, emu.WithMaxInstructions(100))

		err := t.Run(context.Background())
		Expect(errors.Is(err, emu.ErrInstructionLimit)).To(BeTrue())
		Expect(t.InstructionCount()).To(Equal(uint64(100)))
	})

	It("should stop when the context is cancelled", func() {
		writeThumb(mem, codeBase, 0xe7fe)
		t := newThread(mem, codeBase|1)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := t.Run(ctx)
		Expect(errors.Is(err, emu.ErrStopped)).To(BeTrue())
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
		Expect(t.Stopped()).To(BeTrue())
	})

	Describe("native calls", func() {
		var caller *recordingCaller

		BeforeEach(func() {
			caller = &recordingCaller{fns: map[uint32]func(*emu.Thread) error{}}
			// Native stub #5 and #6: hack; bx lr
			writeThumb(mem, 0x2000, 0xf870, 0x0005, 0x4770)
			writeThumb(mem, 0x2010, 0xf870, 0x0006, 0x4770)
			// add-one helper: adds r0, #1; bx lr
			writeThumb(mem, 0x2100, 0x3001, 0x4770)
			// push {lr}; blx r4; pop {pc}
			writeThumb(mem, codeBase, 0xb500, 0x47a0, 0xbd00)
		})

		It("should call the function named by the hack instruction", func() {
			caller.fns[5] = func(t *emu.Thread) error {
				t.Context().GPR[0] = 42
				return nil
			}

			t := newThread(mem, codeBase|1, emu.WithFunctionCaller(caller))
			t.Context().GPR[4] = 0x2000 | 1

			Expect(t.Run(context.Background())).To(Succeed())
			Expect(caller.calls).To(Equal([]uint32{5}))
			Expect(t.ExitStatus()).To(Equal(uint32(42)))
			Expect(t.Context().HLECall).To(BeZero())
		})

		It("should run guest code from inside a native function", func() {
			caller.fns[6] = func(t *emu.Thread) error {
				t.Context().GPR[0] = 41
				Expect(t.Depth()).To(Equal(0))
				return t.FastCall(0x2100 | 1)
			}

			t := newThread(mem, codeBase|1, emu.WithFunctionCaller(caller))
			t.Context().GPR[4] = 0x2010 | 1

			Expect(t.Run(context.Background())).To(Succeed())
			Expect(t.ExitStatus()).To(Equal(uint32(42)))
		})

		It("should end the thread when a native function exits", func() {
			caller.fns[5] = func(t *emu.Thread) error {
				t.Exit(3)
				return nil
			}

			t := newThread(mem, codeBase|1, emu.WithFunctionCaller(caller))
			t.Context().GPR[4] = 0x2000 | 1

			Expect(t.Run(context.Background())).To(Succeed())
			Expect(t.Status()).To(Equal(emu.StatusExited))
			Expect(t.ExitStatus()).To(Equal(uint32(3)))
		})

		It("should propagate native errors", func() {
			boom := errors.New("boom")
			caller.fns[5] = func(*emu.Thread) error { return boom }

			t := newThread(mem, codeBase|1, emu.WithFunctionCaller(caller))
			t.Context().GPR[4] = 0x2000 | 1

			Expect(errors.Is(t.Run(context.Background()), boom)).To(BeTrue())
		})
	})

	Describe("FastCall", func() {
		var t *emu.Thread

		BeforeEach(func() {
			// movs r0, #5; adds r0, #3; bx lr
			writeThumb(mem, codeBase, 0x2005, 0x3003, 0x4770)
			t = newThread(mem, 0x5000|1)
			t.Context().GPR[emu.RegLR] = 0x1234
			t.Context().GPR[7] = 77
		})

		It("should restore PC, LR and SP exactly", func() {
			before := *t.Context()

			Expect(t.FastCall(codeBase | 1)).To(Succeed())

			after := *t.Context()
			Expect(after.GPR[0]).To(Equal(uint32(8)))

			before.GPR[0] = 8
			diff := cmp.Diff(before, after,
				cmpopts.IgnoreUnexported(emu.Context{}),
				cmpopts.IgnoreFields(emu.Context{}, "APSR"))
			Expect(diff).To(BeEmpty())
		})

		It("should restore the instruction set", func() {
			writeARM(mem, 0x4000, 0xe3a00009, 0xe12fff1e)
			Expect(t.FastCall(0x4000)).To(Succeed())

			Expect(t.Context().GPR[0]).To(Equal(uint32(9)))
			Expect(t.Context().ISet).To(Equal(insts.Thumb))
			Expect(t.Context().PC).To(Equal(uint32(0x5000)))
		})

		It("should detect a stack pointer mismatch", func() {
			// sub sp, #8; bx lr
			writeThumb(mem, 0x4000, 0xb082, 0x4770)

			err := t.FastCall(0x4000 | 1)
			Expect(errors.Is(err, emu.ErrStackMismatch)).To(BeTrue())
			Expect(t.Context().PC).To(Equal(uint32(0x5000)))
			Expect(t.Context().LR()).To(Equal(uint32(0x1234)))
		})

		// savedState compares everything FastCall restores.
		savedState := func(before, after emu.Context) string {
			return cmp.Diff(before, after,
				cmpopts.IgnoreUnexported(emu.Context{}),
				cmpopts.IgnoreFields(emu.Context{}, "APSR"))
		}

		It("should restore state when stopped", func() {
			writeThumb(mem, 0x4000, 0xe7fe)
			t.Stop()

			err := t.FastCall(0x4000 | 1)
			Expect(errors.Is(err, emu.ErrStopped)).To(BeTrue())
			Expect(t.Context().PC).To(Equal(uint32(0x5000)))
			Expect(t.Context().LR()).To(Equal(uint32(0x1234)))
		})

		It("should restore the stack pointer when the callee faults", func() {
			// sub sp, #8; udf
			writeThumb(mem, 0x4000, 0xb082, 0xde00)
			before := *t.Context()

			err := t.FastCall(0x4000 | 1)
			Expect(errors.Is(err, emu.ErrUnknownInstruction)).To(BeTrue())

			var callErr *emu.FastCallError
			Expect(errors.As(err, &callErr)).To(BeTrue())
			Expect(callErr.Addr).To(Equal(uint32(0x4000 | 1)))

			Expect(t.Context().SP()).To(Equal(stackTop))
			Expect(savedState(before, *t.Context())).To(BeEmpty())
		})

		It("should restore the stack pointer when stopped mid-call", func() {
			caller := &recordingCaller{fns: map[uint32]func(*emu.Thread) error{
				5: func(t *emu.Thread) error {
					t.Stop()
					return nil
				},
			}}
			t := newThread(mem, 0x5000|1, emu.WithFunctionCaller(caller))
			t.Context().GPR[emu.RegLR] = 0x1234
			// sub sp, #8; hack #5; b .
			writeThumb(mem, 0x4000, 0xb082, 0xf870, 0x0005, 0xe7fe)
			before := *t.Context()

			err := t.FastCall(0x4000 | 1)
			Expect(errors.Is(err, emu.ErrStopped)).To(BeTrue())

			var callErr *emu.FastCallError
			Expect(errors.As(err, &callErr)).To(BeTrue())
			Expect(savedState(before, *t.Context())).To(BeEmpty())
		})

		It("should restore the caller's state when the callee exits the thread", func() {
			var diff string
			caller := &recordingCaller{fns: map[uint32]func(*emu.Thread) error{
				5: func(t *emu.Thread) error {
					t.Exit(3)
					return nil
				},
				6: func(t *emu.Thread) error {
					before := *t.Context()
					if err := t.FastCall(0x4000 | 1); err != nil {
						return err
					}
					diff = savedState(before, *t.Context())
					return nil
				},
			}}
			// hack #6; bx lr
			writeThumb(mem, 0x2010, 0xf870, 0x0006, 0x4770)
			// sub sp, #8; hack #5; b .
			writeThumb(mem, 0x4000, 0xb082, 0xf870, 0x0005, 0xe7fe)
			// push {lr}; blx r4; pop {pc}
			writeThumb(mem, 0x4100, 0xb500, 0x47a0, 0xbd00)

			t := newThread(mem, 0x4100|1, emu.WithFunctionCaller(caller))
			t.Context().GPR[4] = 0x2010 | 1

			Expect(t.Run(context.Background())).To(Succeed())
			Expect(diff).To(BeEmpty())
			Expect(t.Status()).To(Equal(emu.StatusExited))
			Expect(t.ExitStatus()).To(Equal(uint32(3)))
			Expect(t.Context().SP()).To(Equal(stackTop - 4))
		})

		It("should require a return stub", func() {
			bare := emu.NewThread(mem)
			Expect(bare.FastCall(codeBase | 1)).To(MatchError(emu.ErrNoReturnStub))
		})
	})

	It("should dump registers", func() {
		t := newThread(mem, codeBase|1)
		t.Context().GPR[0] = 0xdeadbeef
		t.Context().APSR.Z = true

		dump := t.Context().String()
		Expect(dump).To(ContainSubstring("r0   0xdeadbeef"))
		Expect(dump).To(ContainSubstring("pc   0x00001000"))
		Expect(dump).To(ContainSubstring("-Z---"))
		Expect(dump).To(ContainSubstring("iset Thumb"))
	})
})
