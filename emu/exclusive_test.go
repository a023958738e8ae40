package emu_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv7/emu"
)

var _ = Describe("Monitor", func() {
	var (
		mem     *emu.SparseMemory
		monitor *emu.Monitor
		a, b    emu.Context
	)

	BeforeEach(func() {
		mem = newGuestMemory()
		monitor = emu.NewMonitor()
		a, b = emu.Context{}, emu.Context{}
		Expect(mem.Write32(dataBase, 10)).To(Succeed())
	})

	It("should succeed for an undisturbed load/store pair", func() {
		v, err := monitor.LoadExclusive(&a, mem, dataBase, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(10)))
		Expect(a.Reservation.Valid).To(BeTrue())

		ok, err := monitor.StoreExclusive(&a, mem, dataBase, 4, 11)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(a.Reservation.Valid).To(BeFalse())
		Expect(mem.Read32(dataBase)).To(Equal(uint32(11)))
	})

	It("should fail the first store after another thread's successful store", func() {
		_, err := monitor.LoadExclusive(&a, mem, dataBase, 4)
		Expect(err).NotTo(HaveOccurred())
		_, err = monitor.LoadExclusive(&b, mem, dataBase, 4)
		Expect(err).NotTo(HaveOccurred())

		ok, err := monitor.StoreExclusive(&b, mem, dataBase, 4, 20)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = monitor.StoreExclusive(&a, mem, dataBase, 4, 30)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(a.Reservation.Valid).To(BeFalse())
		Expect(mem.Read32(dataBase)).To(Equal(uint32(20)))
	})

	It("should fail without a reservation or for a different address", func() {
		ok, err := monitor.StoreExclusive(&a, mem, dataBase, 4, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		_, err = monitor.LoadExclusive(&a, mem, dataBase, 4)
		Expect(err).NotTo(HaveOccurred())
		ok, err = monitor.StoreExclusive(&a, mem, dataBase+4, 4, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(mem.Read32(dataBase + 4)).To(BeZero())
	})

	It("should fail after ClearExclusive", func() {
		_, err := monitor.LoadExclusive(&a, mem, dataBase, 4)
		Expect(err).NotTo(HaveOccurred())
		emu.ClearExclusive(&a)

		ok, err := monitor.StoreExclusive(&a, mem, dataBase, 4, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should fail when the value changed under the reservation", func() {
		_, err := monitor.LoadExclusive(&a, mem, dataBase, 4)
		Expect(err).NotTo(HaveOccurred())
		monitor.Invalidate(dataBase)

		ok, err := monitor.StoreExclusive(&a, mem, dataBase, 4, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should handle doubleword reservations", func() {
		Expect(mem.Write64(dataBase+8, 0x1_0000_0002)).To(Succeed())

		v, err := monitor.LoadExclusive(&a, mem, dataBase+8, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(0x1_0000_0002)))

		ok, err := monitor.StoreExclusive(&a, mem, dataBase+8, 8, 0xffff_ffff_0000_0000)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(mem.Read64(dataBase + 8)).To(Equal(uint64(0xffff_ffff_0000_0000)))
	})

	It("should keep guest atomic increments exact across threads", func() {
		// loop: ldrex r0, [r1]; adds r0, #1; strex r2, r0, [r1]
		//       cmp r2, #0; bne loop; subs r3, #1; bne loop; bx lr
		writeThumb(mem, codeBase,
			0xe851, 0x0f00,
			0x3001,
			0xe841, 0x0200,
			0x2a00,
			0xd1f8,
			0x3b01,
			0xd1f6,
			0x4770,
		)
		Expect(mem.Write32(dataBase, 0)).To(Succeed())

		const threads, iterations = 4, 500
		var wg sync.WaitGroup
		errs := make([]error, threads)
		for i := 0; i < threads; i++ {
			t := newThread(mem, codeBase|1, emu.WithMonitor(monitor), emu.WithID(uint32(i+1)))
			t.Context().GPR[1] = dataBase
			t.Context().GPR[3] = iterations

			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				errs[i] = t.Run(context.Background())
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(mem.Read32(dataBase)).To(Equal(uint32(threads * iterations)))
	})
})
