package hle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv7/hle"
)

var _ = Describe("Layout", func() {
	G, P := hle.KindGeneral, hle.KindPair

	reg := func(k hle.Kind, r int) hle.Location { return hle.Location{Kind: k, Reg: r} }
	stack := func(k hle.Kind, off uint32) hle.Location { return hle.Location{Kind: k, Reg: -1, Offset: off} }

	DescribeTable("argument placement",
		func(kinds []hle.Kind, want []hle.Location) {
			Expect(hle.Layout(kinds...)).To(Equal(want))
		},
		Entry("four words in r0-r3",
			[]hle.Kind{G, G, G, G},
			[]hle.Location{reg(G, 0), reg(G, 1), reg(G, 2), reg(G, 3)}),
		Entry("fifth word on the stack",
			[]hle.Kind{G, G, G, G, G, G},
			[]hle.Location{reg(G, 0), reg(G, 1), reg(G, 2), reg(G, 3), stack(G, 0), stack(G, 4)}),
		Entry("pair aligned to an even register",
			[]hle.Kind{G, P},
			[]hle.Location{reg(G, 0), reg(P, 2)}),
		Entry("pair after two words",
			[]hle.Kind{G, G, P},
			[]hle.Location{reg(G, 0), reg(G, 1), reg(P, 2)}),
		Entry("pair spills and later words follow it",
			[]hle.Kind{G, G, G, P, G},
			[]hle.Location{reg(G, 0), reg(G, 1), reg(G, 2), stack(P, 0), stack(G, 8)}),
		Entry("stacked pair aligned to 8 bytes",
			[]hle.Kind{P, P, G, P},
			[]hle.Location{reg(P, 0), reg(P, 2), stack(G, 0), stack(P, 8)}),
		Entry("context and variadic take no slot",
			[]hle.Kind{hle.KindContext, G, hle.KindVariadic},
			[]hle.Location{
				{Kind: hle.KindContext, Reg: -1},
				reg(G, 0),
				{Kind: hle.KindVariadic, Reg: -1},
			}),
	)

	It("should report stack placement", func() {
		locs := hle.Layout(G, G, G, G, G, hle.KindContext)
		Expect(locs[3].OnStack()).To(BeFalse())
		Expect(locs[4].OnStack()).To(BeTrue())
		Expect(locs[5].OnStack()).To(BeFalse())
	})

	It("should keep the kind of a spilled value", func() {
		locs := hle.Layout(G, G, G, P)
		Expect(locs[3].Kind).To(Equal(P))
		Expect(locs[3].Reg).To(Equal(-1))
		Expect(locs[3].OnStack()).To(BeTrue())
	})
})
