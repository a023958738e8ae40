package insts

import "sync"

const (
	thumb16Unknown = 0xffff // no 16-bit entry matches
	thumb16Prefix  = 0xfffe // first half of a 32-bit instruction
)

// Decoder resolves raw instruction words to (mnemonic, encoding) pairs.
// It is immutable once built and safe for concurrent use.
type Decoder struct {
	thumb16 []Entry
	thumb32 []Entry
	arm     []Entry

	// op16 maps every halfword to an index in thumb16.
	op16 [1 << 16]uint16

	// op32Start maps the first halfword of a 32-bit Thumb instruction to the
	// first thumb32 entry that can possibly match it.
	op32Start [1 << 16]uint16
}

var sharedDecoder = sync.OnceValue(func() *Decoder {
	return build(thumb16Entries, thumb32Entries, armEntries)
})

// NewDecoder returns the process-wide decoder. The tables are expanded on
// first use.
func NewDecoder() *Decoder {
	return sharedDecoder()
}

func build(t16, t32, arm []Entry) *Decoder {
	d := &Decoder{
		thumb16: withWidth(t16, 2),
		thumb32: withWidth(t32, 4),
		arm:     withWidth(arm, 4),
	}

	for hw := 0; hw < 1<<16; hw++ {
		if IsThumb32(uint16(hw)) {
			d.op16[hw] = thumb16Prefix
			continue
		}

		d.op16[hw] = thumb16Unknown
		for i := range d.thumb16 {
			if d.thumb16[i].Match(uint32(hw)) {
				d.op16[hw] = uint16(i)
				break
			}
		}
	}

	for hi := 0xe800; hi < 1<<16; hi++ {
		start := len(d.thumb32)
		for i := range d.thumb32 {
			e := &d.thumb32[i]
			if uint32(hi)&(e.Mask>>16) == e.Pattern>>16 {
				start = i
				break
			}
		}
		d.op32Start[hi] = uint16(start)
	}

	return d
}

func withWidth(entries []Entry, width uint8) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].Width = width
	}
	return out
}

// IsThumb32 reports whether a Thumb halfword is the first half of a 32-bit
// instruction (top five bits 0b11101, 0b11110 or 0b11111).
func IsThumb32(hw uint16) bool {
	return hw>>11 >= 0x1d
}

// DecodeThumb16 decodes a 16-bit Thumb instruction. A halfword that begins a
// 32-bit instruction decodes as unknown; callers check IsThumb32 first.
func (d *Decoder) DecodeThumb16(hw uint16) Instruction {
	inst := Instruction{Raw: uint32(hw), Width: 2}

	idx := d.op16[hw]
	if idx == thumb16Unknown || idx == thumb16Prefix {
		return inst
	}

	e := &d.thumb16[idx]
	inst.Op = e.Op
	inst.Enc = e.Enc
	return inst
}

// DecodeThumb32 decodes a 32-bit Thumb instruction given as
// first<<16 | second.
func (d *Decoder) DecodeThumb32(word uint32) Instruction {
	inst := Instruction{Raw: word, Width: 4}

	if !IsThumb32(uint16(word >> 16)) {
		return inst
	}

	for i := int(d.op32Start[word>>16]); i < len(d.thumb32); i++ {
		e := &d.thumb32[i]
		if e.Match(word) {
			inst.Op = e.Op
			inst.Enc = e.Enc
			return inst
		}
	}

	return inst
}

// DecodeARM decodes a 32-bit ARM instruction. Words with condition 0b1111
// only match entries that cover the condition field.
func (d *Decoder) DecodeARM(word uint32) Instruction {
	inst := Instruction{Raw: word, Width: 4}
	unconditional := word>>28 == 0xf

	for i := range d.arm {
		e := &d.arm[i]
		if unconditional && e.Mask>>28 != 0xf {
			continue
		}
		if e.Match(word) {
			inst.Op = e.Op
			inst.Enc = e.Enc
			return inst
		}
	}

	return inst
}

// Decode decodes a word in the given instruction set. For Thumb the width is
// derived from the first halfword, which must be in the upper 16 bits for a
// 32-bit instruction.
func (d *Decoder) Decode(set ISet, word uint32) Instruction {
	if set == ARM {
		return d.DecodeARM(word)
	}
	if word > 0xffff {
		return d.DecodeThumb32(word)
	}
	return d.DecodeThumb16(uint16(word))
}

// Entries returns the table for the given instruction set and width. The
// returned slice must not be modified.
func (d *Decoder) Entries(set ISet, width uint8) []Entry {
	switch {
	case set == ARM:
		return d.arm
	case width == 2:
		return d.thumb16
	default:
		return d.thumb32
	}
}
