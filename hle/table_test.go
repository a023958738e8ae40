package hle_test

import (
	"context"
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/hle"
	"github.com/sarchlab/armv7/insts"
)

const (
	stubBase = uint32(0x3000)
	stackTop = uint32(0x9000)
)

func newMemory() *emu.SparseMemory {
	mem := emu.NewSparseMemory()
	Expect(mem.Map(0, 0x10000)).To(Succeed())
	_, err := hle.WriteReturnStub(mem, stubBase)
	Expect(err).NotTo(HaveOccurred())
	return mem
}

func newThread(mem emu.Memory, table *hle.Table, opts ...emu.ThreadOption) *emu.Thread {
	opts = append([]emu.ThreadOption{
		emu.WithReturnStub(stubBase | 1),
		emu.WithFunctionCaller(table),
	}, opts...)
	t := emu.NewThread(mem, opts...)
	t.Context().GPR[emu.RegSP] = stackTop
	t.Context().GPR[emu.RegLR] = stubBase | 1
	return t
}

var _ = Describe("Table", func() {
	var (
		table *hle.Table
		mem   *emu.SparseMemory
		t     *emu.Thread
	)

	BeforeEach(func() {
		table = hle.NewTable()
		mem = newMemory()
		t = newThread(mem, table)
	})

	It("should reserve the invalid and return indices", func() {
		Expect(table.Len()).To(Equal(2))
		Expect(table.Name(emu.InvalidIndex)).To(Equal("invalid"))
		Expect(table.Name(emu.ReturnIndex)).To(Equal("return"))

		err := table.CallFunction(t, emu.InvalidIndex)
		Expect(errors.Is(err, hle.ErrUnknownFunction)).To(BeTrue())
		err = table.CallFunction(t, 99)
		Expect(errors.Is(err, hle.ErrUnknownFunction)).To(BeTrue())
	})

	Describe("argument marshalling", func() {
		It("should read registers, pairs and stack words", func() {
			var got []uint64
			idx, err := table.Register("SceTest", "five", 0x100,
				func(a uint32, b int32, c uint64, d, e uint32) (uint64, error) {
					got = []uint64{uint64(a), uint64(int64(b)), c, uint64(d), uint64(e)}
					return 0x1_0000_0002, nil
				})
			Expect(err).NotTo(HaveOccurred())
			Expect(idx).To(Equal(uint32(2)))

			ctx := t.Context()
			ctx.GPR[0], ctx.GPR[1], ctx.GPR[2], ctx.GPR[3] = 1, 0xfffffffe, 0x55, 0x66
			ctx.GPR[emu.RegSP] = 0x8000
			Expect(mem.Write32(0x8000, 4)).To(Succeed())
			Expect(mem.Write32(0x8004, 5)).To(Succeed())

			Expect(table.CallFunction(t, idx)).To(Succeed())
			Expect(got).To(Equal([]uint64{1, 0xfffffffffffffffe, 0x66_0000_0055, 4, 5}))
			Expect(ctx.GPR[0]).To(Equal(uint32(2)))
			Expect(ctx.GPR[1]).To(Equal(uint32(1)))
		})

		It("should pass the calling thread", func() {
			idx := table.MustRegister("SceTest", "self", 0x101, func(th *emu.Thread, x uint32) uint32 {
				Expect(th).To(BeIdenticalTo(t))
				return x + 1
			})
			t.Context().GPR[0] = 41

			Expect(table.CallFunction(t, idx)).To(Succeed())
			Expect(t.Context().GPR[0]).To(Equal(uint32(42)))
		})

		It("should read variadic arguments after the fixed ones", func() {
			idx := table.MustRegister("SceTest", "sum", 0x102, func(n uint32, va *hle.Variadic) (uint32, error) {
				var sum uint32
				for i := uint32(0); i < n; i++ {
					v, err := va.Uint32()
					if err != nil {
						return 0, err
					}
					sum += v
				}
				return sum, nil
			})

			ctx := t.Context()
			ctx.GPR[0], ctx.GPR[1], ctx.GPR[2], ctx.GPR[3] = 5, 10, 20, 30
			ctx.GPR[emu.RegSP] = 0x8000
			Expect(mem.Write32(0x8000, 40)).To(Succeed())
			Expect(mem.Write32(0x8004, 50)).To(Succeed())

			Expect(table.CallFunction(t, idx)).To(Succeed())
			Expect(ctx.GPR[0]).To(Equal(uint32(150)))
		})

		It("should convert narrow and floating-point values", func() {
			idx := table.MustRegister("SceTest", "narrow", 0x103, func(b bool, v int8) int32 {
				if b {
					return int32(v)
				}
				return 0
			})
			t.Context().GPR[0], t.Context().GPR[1] = 1, 0xff

			Expect(table.CallFunction(t, idx)).To(Succeed())
			Expect(t.Context().GPR[0]).To(Equal(uint32(0xffffffff)))

			idx = table.MustRegister("SceTest", "twice", 0x104, func(f float64) float64 { return 2 * f })
			bits := math.Float64bits(1.25)
			t.Context().GPR[0], t.Context().GPR[1] = uint32(bits), uint32(bits>>32)

			Expect(table.CallFunction(t, idx)).To(Succeed())
			out := uint64(t.Context().GPR[1])<<32 | uint64(t.Context().GPR[0])
			Expect(math.Float64frombits(out)).To(Equal(2.5))
		})

		It("should accept functions that handle the thread themselves", func() {
			idx := table.MustRegister("SceTest", "raw", 0x105, hle.NativeFunc(func(th *emu.Thread) error {
				th.Context().GPR[0] = 7
				return nil
			}))

			Expect(table.CallFunction(t, idx)).To(Succeed())
			Expect(t.Context().GPR[0]).To(Equal(uint32(7)))
		})

		It("should wrap native errors with the function name", func() {
			boom := errors.New("boom")
			idx := table.MustRegister("SceTest", "fail", 0x106, func() error { return boom })

			err := table.CallFunction(t, idx)
			Expect(errors.Is(err, boom)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("SceTest.fail"))
		})
	})

	DescribeTable("rejected signatures",
		func(fn any) {
			_, err := table.Register("SceTest", "bad", 0x200, fn)
			Expect(errors.Is(err, hle.ErrBadSignature)).To(BeTrue())
		},
		Entry("not a function", 42),
		Entry("host-sized int", func(int) {}),
		Entry("Go variadic", func(...uint32) {}),
		Entry("variadic reader not last", func(*hle.Variadic, uint32) {}),
		Entry("two values", func() (uint32, uint32) { return 0, 0 }),
		Entry("pointer parameter", func(*uint32) {}),
	)

	Describe("registration", func() {
		It("should reject a NID bound twice", func() {
			table.MustRegister("SceTest", "a", 0x300, func() {})
			_, err := table.Register("SceTest", "b", 0x300, func() {})
			Expect(err).To(HaveOccurred())

			_, err = table.Register("SceOther", "a", 0x300, func() {})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should register through a module", func() {
			m := table.Module("SceLibc")
			idx, err := m.Register(0x400, "memset", func() {})
			Expect(err).NotTo(HaveOccurred())

			found, ok := table.Lookup("SceLibc", 0x400)
			Expect(ok).To(BeTrue())
			Expect(found).To(Equal(idx))
			Expect(table.Name(idx)).To(Equal("SceLibc.memset"))
		})
	})

	Describe("Resolve", func() {
		It("should append a placeholder that returns 0", func() {
			idx := table.Resolve("SceFoo", 0x1234, "")
			Expect(table.Name(idx)).To(Equal("SceFoo.0x00001234"))
			Expect(table.Resolve("SceFoo", 0x1234, "")).To(Equal(idx))

			f, ok := table.Function(idx)
			Expect(ok).To(BeTrue())
			Expect(f.Flags & hle.FlagPlaceholder).NotTo(BeZero())

			t.Context().GPR[0] = 99
			Expect(table.CallFunction(t, idx)).To(Succeed())
			Expect(t.Context().GPR[0]).To(BeZero())
		})

		It("should return known functions", func() {
			idx := table.MustRegister("SceFoo", "bar", 0x10, func() {})
			Expect(table.Resolve("SceFoo", 0x10, "bar")).To(Equal(idx))
		})

		It("should let a real implementation replace a placeholder", func() {
			placeholder := table.Resolve("SceFoo", 0x20, "late")
			idx, err := table.Register("SceFoo", "late", 0x20, func() {})
			Expect(err).NotTo(HaveOccurred())
			Expect(idx).NotTo(Equal(placeholder))
			Expect(table.Resolve("SceFoo", 0x20, "late")).To(Equal(idx))
		})

		It("should give concurrent resolvers distinct indices", func() {
			const workers, per = 8, 50
			var wg sync.WaitGroup
			results := make([][]uint32, workers)

			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer GinkgoRecover()
					defer wg.Done()
					for i := 0; i < per; i++ {
						idx := table.Resolve("SceConc", uint32(w*per+i), "")
						_, ok := table.Function(idx)
						Expect(ok).To(BeTrue())
						results[w] = append(results[w], idx)
					}
				}(w)
			}
			wg.Wait()

			seen := map[uint32]bool{}
			for _, r := range results {
				for _, idx := range r {
					Expect(seen[idx]).To(BeFalse())
					seen[idx] = true
				}
			}
			Expect(table.Len()).To(Equal(2 + workers*per))
		})
	})

	Describe("stubs", func() {
		It("should encode indices the decoder and engine read back", func() {
			d := insts.NewDecoder()
			for _, idx := range []uint32{2, 0x1234, hle.MaxIndex} {
				thumb := d.DecodeThumb32(hle.EncodeHack(idx, true))
				Expect(thumb.Op).To(Equal(insts.OpHACK))
				Expect(emu.HackIndex(thumb)).To(Equal(idx))

				arm := d.DecodeARM(hle.EncodeHack(idx, false))
				Expect(arm.Op).To(Equal(insts.OpHACK))
				Expect(emu.HackIndex(arm)).To(Equal(idx))
			}
		})

		It("should reject indices that do not fit", func() {
			Expect(hle.PatchStub(mem, 0x2000, hle.MaxIndex+1, true)).NotTo(Succeed())
		})

		DescribeTable("guest calls through patched stubs",
			func(thumb bool) {
				idx := table.MustRegister("SceTest", "add", 0x500, func(a, b uint32) uint32 { return a + b })
				Expect(hle.PatchStub(mem, 0x2000, idx, thumb)).To(Succeed())

				// push {lr}; blx r4; pop {pc}
				for i, hw := range []uint16{0xb500, 0x47a0, 0xbd00} {
					Expect(mem.Write16(0x1000+uint32(2*i), hw)).To(Succeed())
				}

				target := uint32(0x2000)
				if thumb {
					target |= 1
				}
				ctx := t.Context()
				ctx.GPR[0], ctx.GPR[1], ctx.GPR[4] = 30, 12, target
				ctx.Jump(0x1000 | 1)

				Expect(t.Run(context.Background())).To(Succeed())
				Expect(t.ExitStatus()).To(Equal(uint32(42)))
				Expect(t.Context().ISet).To(Equal(insts.Thumb))
			},
			Entry("Thumb stub", true),
			Entry("ARM stub", false),
		)
	})
})
