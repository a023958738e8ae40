package emu

import (
	"fmt"
	"strings"
)

var regNames = [15]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr",
}

func flag(set bool, name byte) byte {
	if set {
		return name
	}
	return '-'
}

// String renders the registers and flags one per line.
func (c *Context) String() string {
	var b strings.Builder

	for i, name := range regNames {
		fmt.Fprintf(&b, "%-4s 0x%08x\n", name, c.GPR[i])
	}
	fmt.Fprintf(&b, "%-4s 0x%08x\n", "pc", c.PC)

	a := c.APSR
	fmt.Fprintf(&b, "apsr %c%c%c%c%c ge=%04b (0x%08x)\n",
		flag(a.N, 'N'), flag(a.Z, 'Z'), flag(a.C, 'C'), flag(a.V, 'V'), flag(a.Q, 'Q'),
		a.GE&0xf, a.Word())
	fmt.Fprintf(&b, "iset %s\n", c.ISet)
	if c.IT.Active() {
		fmt.Fprintf(&b, "it   0x%02x (%s, %d left)\n", uint8(c.IT), c.IT.Cond(), c.IT.Remaining())
	} else {
		fmt.Fprintf(&b, "it   0x%02x\n", uint8(c.IT))
	}
	fmt.Fprintf(&b, "tls  0x%08x\n", c.TLS)
	if c.Reservation.Valid {
		fmt.Fprintf(&b, "excl 0x%08x/%d = 0x%x\n", c.Reservation.Addr, c.Reservation.Size, c.Reservation.Data)
	} else {
		b.WriteString("excl none\n")
	}

	return b.String()
}
