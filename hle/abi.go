// Package hle binds native Go functions to guest code. Guest import stubs
// are patched with a HACK instruction naming an entry of a function Table;
// the Table marshals arguments out of the calling thread's registers and
// stack following the ARM procedure call standard, calls the native
// function, and writes its result back to r0 (and r1).
package hle

import (
	"fmt"

	"github.com/sarchlab/armv7/emu"
)

// Kind classifies a native parameter.
type Kind uint8

// Parameter kinds.
const (
	// KindGeneral is a value of at most 32 bits: one core register or one
	// stack word.
	KindGeneral Kind = iota
	// KindPair is a 64-bit value: an even/odd register pair or an 8-byte
	// aligned stack doubleword.
	KindPair
	// KindContext receives the calling thread and occupies no slot.
	KindContext
	// KindVariadic receives a reader for the arguments after the fixed ones.
	KindVariadic
)

func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindPair:
		return "pair"
	case KindContext:
		return "context"
	case KindVariadic:
		return "variadic"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// argRegs is the number of core registers used for arguments.
const argRegs = 4

// Location is where an argument lives at function entry.
type Location struct {
	Kind Kind
	// Reg is the first register holding the value, or -1 if it is on the
	// stack or occupies no slot.
	Reg int
	// Offset is the byte offset from the entry stack pointer of a
	// stack-passed value.
	Offset uint32
}

// OnStack reports whether the value is passed on the stack.
func (l Location) OnStack() bool {
	return l.Reg < 0 && (l.Kind == KindGeneral || l.Kind == KindPair)
}

// allocator assigns argument slots in order.
type allocator struct {
	next  int
	stack uint32
}

func (a *allocator) place(k Kind) Location {
	switch k {
	case KindGeneral:
		if a.next < argRegs {
			a.next++
			return Location{Kind: k, Reg: a.next - 1}
		}
		loc := Location{Kind: k, Reg: -1, Offset: a.stack}
		a.stack += 4
		return loc

	case KindPair:
		a.next += a.next & 1
		if a.next+2 <= argRegs {
			a.next += 2
			return Location{Kind: k, Reg: a.next - 2}
		}
		// Once a value spills, no later argument uses a register.
		a.next = argRegs
		a.stack = (a.stack + 7) &^ 7
		loc := Location{Kind: k, Reg: -1, Offset: a.stack}
		a.stack += 8
		return loc
	}

	return Location{Kind: k, Reg: -1}
}

// Layout assigns a location to each parameter kind in order.
func Layout(kinds ...Kind) []Location {
	var a allocator
	locs := make([]Location, len(kinds))
	for i, k := range kinds {
		locs[i] = a.place(k)
	}
	return locs
}

// load reads the raw bits of an argument.
func load(t *emu.Thread, loc Location) (uint64, error) {
	ctx := t.Context()

	switch {
	case loc.Kind == KindGeneral && loc.Reg >= 0:
		return uint64(ctx.GPR[loc.Reg]), nil
	case loc.Kind == KindPair && loc.Reg >= 0:
		return uint64(ctx.GPR[loc.Reg]) | uint64(ctx.GPR[loc.Reg+1])<<32, nil
	case loc.Kind == KindGeneral:
		v, err := t.Memory().Read32(ctx.SP() + loc.Offset)
		return uint64(v), err
	case loc.Kind == KindPair:
		return t.Memory().Read64(ctx.SP() + loc.Offset)
	}

	return 0, fmt.Errorf("%s parameter has no value", loc.Kind)
}

// store writes a result to r0, or r0 and r1 for a pair.
func store(t *emu.Thread, k Kind, v uint64) {
	ctx := t.Context()
	ctx.GPR[0] = uint32(v)
	if k == KindPair {
		ctx.GPR[1] = uint32(v >> 32)
	}
}

// Variadic reads the arguments that follow a function's fixed parameters,
// in the order the caller passed them.
type Variadic struct {
	t     *emu.Thread
	slots allocator
}

// Uint32 returns the next 32-bit argument.
func (v *Variadic) Uint32() (uint32, error) {
	raw, err := load(v.t, v.slots.place(KindGeneral))
	return uint32(raw), err
}

// Uint64 returns the next 64-bit argument.
func (v *Variadic) Uint64() (uint64, error) {
	return load(v.t, v.slots.place(KindPair))
}
