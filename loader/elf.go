// Package loader provides ELF binary loading for 32-bit ARM executables.
package loader

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/armv7/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// TLSImage is the initial content of a thread's TLS block.
type TLSImage struct {
	// Data is the initialized part of the block.
	Data []byte
	// MemSize is the full block size, zero-filled past Data.
	MemSize uint32
}

// Program represents a loaded ELF program ready for execution.
type Program struct {
	// EntryPoint is the address where execution should begin. Bit 0 set
	// means the entry is Thumb code.
	EntryPoint uint32
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
	// TLS is the PT_TLS template, or nil.
	TLS *TLSImage
	// Symbols maps symbol names to values. Thumb function symbols keep bit
	// 0 set.
	Symbols map[string]uint32
}

// Load parses a 32-bit ARM ELF executable.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Parse reads a 32-bit ARM ELF executable from r.
func Parse(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}
	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("not an ARM ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		Symbols:    make(map[string]uint32),
	}

	for _, phdr := range f.Progs {
		switch phdr.Type {
		case elf.PT_LOAD:
			data, err := readSegment(phdr)
			if err != nil {
				return nil, err
			}
			prog.Segments = append(prog.Segments, Segment{
				VirtAddr: uint32(phdr.Vaddr),
				Data:     data,
				MemSize:  uint32(phdr.Memsz),
				Flags:    segmentFlags(phdr.Flags),
			})
		case elf.PT_TLS:
			data, err := readSegment(phdr)
			if err != nil {
				return nil, err
			}
			prog.TLS = &TLSImage{Data: data, MemSize: uint32(phdr.Memsz)}
		}
	}

	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("failed to read symbols: %w", err)
	}
	for _, sym := range syms {
		if sym.Name == "" || sym.Section == elf.SHN_UNDEF {
			continue
		}
		prog.Symbols[sym.Name] = uint32(sym.Value)
	}

	return prog, nil
}

func readSegment(phdr *elf.Prog) ([]byte, error) {
	data := make([]byte, phdr.Filesz)
	if phdr.Filesz == 0 {
		return data, nil
	}

	n, err := phdr.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
	}
	if uint64(n) != phdr.Filesz {
		return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
			phdr.Vaddr, n, phdr.Filesz)
	}
	return data, nil
}

func segmentFlags(f elf.ProgFlag) SegmentFlags {
	var flags SegmentFlags
	if f&elf.PF_X != 0 {
		flags |= SegmentFlagExecute
	}
	if f&elf.PF_W != 0 {
		flags |= SegmentFlagWrite
	}
	if f&elf.PF_R != 0 {
		flags |= SegmentFlagRead
	}
	return flags
}

// LoadInto maps every segment into mem and copies its contents. The rest
// of each segment reads as zero.
func (p *Program) LoadInto(mem emu.AddressSpace) error {
	for _, seg := range p.Segments {
		size := max(seg.MemSize, uint32(len(seg.Data)))
		if size == 0 {
			continue
		}
		if err := mem.Map(seg.VirtAddr, size); err != nil {
			return fmt.Errorf("map segment at 0x%08x: %w", seg.VirtAddr, err)
		}
		if err := mem.WriteBytes(seg.VirtAddr, seg.Data); err != nil {
			return fmt.Errorf("write segment at 0x%08x: %w", seg.VirtAddr, err)
		}
		if bss := size - uint32(len(seg.Data)); bss > 0 {
			if err := mem.WriteBytes(seg.VirtAddr+uint32(len(seg.Data)), make([]byte, bss)); err != nil {
				return fmt.Errorf("clear segment at 0x%08x: %w", seg.VirtAddr, err)
			}
		}
	}
	return nil
}

// Symbol returns the value of a symbol.
func (p *Program) Symbol(name string) (uint32, bool) {
	v, ok := p.Symbols[name]
	return v, ok
}
