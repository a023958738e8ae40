//go:build linux && (amd64 || arm64)

package emu

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MappedMemory reserves the whole 4 GiB guest address space in one host
// mapping and commits pages with mprotect. Guest atomics map onto host
// atomics.
type MappedMemory struct {
	base      []byte
	mu        sync.Mutex // serializes commit and release
	committed [1 << 20 / 64]atomic.Uint64
	alloc     *regionAllocator
}

const guestSpace = 1 << 32

// NewMappedMemory reserves the guest address space.
func NewMappedMemory() (*MappedMemory, error) {
	b, err := unix.Mmap(-1, 0, guestSpace, unix.PROT_NONE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("reserve guest address space: %w", err)
	}

	return &MappedMemory{
		base:  b,
		alloc: newRegionAllocator(DefaultArenaBase, DefaultArenaLimit),
	}, nil
}

// Close releases the host mapping.
func (m *MappedMemory) Close() error {
	return unix.Munmap(m.base)
}

func (m *MappedMemory) isCommitted(page uint32) bool {
	return m.committed[page/64].Load()>>(page%64)&1 != 0
}

func (m *MappedMemory) setCommitted(page uint32, on bool) {
	word := &m.committed[page/64]
	bit := uint64(1) << (page % 64)
	for {
		old := word.Load()
		next := old &^ bit
		if on {
			next = old | bit
		}
		if word.CompareAndSwap(old, next) {
			return
		}
	}
}

func pageRange(addr, size uint32) (first, last uint32) {
	return addr / PageSize, uint32((uint64(addr) + uint64(size) - 1) / PageSize)
}

// Map commits the pages covering [addr, addr+size).
func (m *MappedMemory) Map(addr, size uint32) error {
	if size == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	first, last := pageRange(addr, size)
	lo := uint64(first) * PageSize
	hi := (uint64(last) + 1) * PageSize
	if err := unix.Mprotect(m.base[lo:hi], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return fmt.Errorf("commit 0x%08x+0x%x: %w", addr, size, err)
	}
	for p := first; ; p++ {
		m.setCommitted(p, true)
		if p == last {
			break
		}
	}
	return nil
}

// Unmap decommits the pages covering [addr, addr+size) and discards their
// contents.
func (m *MappedMemory) Unmap(addr, size uint32) error {
	if size == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	first, last := pageRange(addr, size)
	for p := first; ; p++ {
		m.setCommitted(p, false)
		if p == last {
			break
		}
	}
	lo := uint64(first) * PageSize
	hi := (uint64(last) + 1) * PageSize
	if err := unix.Madvise(m.base[lo:hi], unix.MADV_DONTNEED); err != nil {
		return err
	}
	return unix.Mprotect(m.base[lo:hi], unix.PROT_NONE)
}

// Alloc implements Allocator.
func (m *MappedMemory) Alloc(size, align uint32) (uint32, error) {
	addr, err := m.alloc.alloc(size, align)
	if err != nil {
		return 0, err
	}
	if err := m.Map(addr, size); err != nil {
		_, _ = m.alloc.free(addr)
		return 0, err
	}
	return addr, nil
}

// Free implements Allocator.
func (m *MappedMemory) Free(addr uint32) error {
	size, err := m.alloc.free(addr)
	if err != nil {
		return err
	}
	return m.Unmap(addr, size)
}

func (m *MappedMemory) check(addr uint32, n int, write bool) error {
	first, last := pageRange(addr, uint32(n))
	for p := first; ; p++ {
		if !m.isCommitted(p) {
			return &AccessError{Addr: addr, Size: n, Write: write}
		}
		if p == last {
			return nil
		}
	}
}

func (m *MappedMemory) bytes(addr uint32, n int, write bool) ([]byte, error) {
	if uint64(addr)+uint64(n) > guestSpace {
		return nil, &AccessError{Addr: addr, Size: n, Write: write}
	}
	if err := m.check(addr, n, write); err != nil {
		return nil, err
	}
	return m.base[addr : uint64(addr)+uint64(n)], nil
}

func (m *MappedMemory) read(addr uint32, n int) (uint64, error) {
	b, err := m.bytes(addr, n, false)
	if err != nil {
		return 0, err
	}
	return decodeLE(b), nil
}

func (m *MappedMemory) write(addr uint32, n int, v uint64) error {
	b, err := m.bytes(addr, n, true)
	if err != nil {
		return err
	}
	encodeLE(b, v)
	return nil
}

// Read8 implements Memory.
func (m *MappedMemory) Read8(addr uint32) (uint8, error) {
	v, err := m.read(addr, 1)
	return uint8(v), err
}

// Read16 implements Memory.
func (m *MappedMemory) Read16(addr uint32) (uint16, error) {
	v, err := m.read(addr, 2)
	return uint16(v), err
}

// Read32 implements Memory.
func (m *MappedMemory) Read32(addr uint32) (uint32, error) {
	v, err := m.read(addr, 4)
	return uint32(v), err
}

// Read64 implements Memory.
func (m *MappedMemory) Read64(addr uint32) (uint64, error) { return m.read(addr, 8) }

// Write8 implements Memory.
func (m *MappedMemory) Write8(addr uint32, v uint8) error { return m.write(addr, 1, uint64(v)) }

// Write16 implements Memory.
func (m *MappedMemory) Write16(addr uint32, v uint16) error { return m.write(addr, 2, uint64(v)) }

// Write32 implements Memory.
func (m *MappedMemory) Write32(addr uint32, v uint32) error { return m.write(addr, 4, uint64(v)) }

// Write64 implements Memory.
func (m *MappedMemory) Write64(addr uint32, v uint64) error { return m.write(addr, 8, v) }

// ReadBytes implements Memory.
func (m *MappedMemory) ReadBytes(addr uint32, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	b, err := m.bytes(addr, len(buf), false)
	if err != nil {
		return err
	}
	copy(buf, b)
	return nil
}

// WriteBytes implements Memory.
func (m *MappedMemory) WriteBytes(addr uint32, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	b, err := m.bytes(addr, len(buf), true)
	if err != nil {
		return err
	}
	copy(b, buf)
	return nil
}

// CompareAndSwap implements Memory. Sub-word sizes are performed on the
// containing aligned 32-bit word.
func (m *MappedMemory) CompareAndSwap(addr uint32, size int, old, val uint64) (bool, error) {
	if err := checkAtomicSize(addr, size); err != nil {
		return false, err
	}
	if _, err := m.bytes(addr, size, true); err != nil {
		return false, err
	}

	if size == 8 {
		p := (*uint64)(unsafe.Pointer(&m.base[addr]))
		return atomic.CompareAndSwapUint64(p, old, val), nil
	}

	word := addr &^ 3
	p := (*uint32)(unsafe.Pointer(&m.base[word]))
	shift := 8 * (addr - word)
	mask := uint32(sizeMask(size)) << shift
	want := uint32(old) << shift & mask
	repl := uint32(val) << shift & mask
	for {
		cur := atomic.LoadUint32(p)
		if cur&mask != want {
			return false, nil
		}
		if atomic.CompareAndSwapUint32(p, cur, cur&^mask|repl) {
			return true, nil
		}
	}
}
