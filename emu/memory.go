package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// PageSize is the granularity at which guest memory is committed.
const PageSize = 0x1000

// Memory is the guest address space seen by a thread. All methods are safe
// for concurrent use by multiple threads.
type Memory interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)
	Read64(addr uint32) (uint64, error)
	Write8(addr uint32, v uint8) error
	Write16(addr uint32, v uint16) error
	Write32(addr uint32, v uint32) error
	Write64(addr uint32, v uint64) error

	// ReadBytes and WriteBytes copy len(buf) bytes.
	ReadBytes(addr uint32, buf []byte) error
	WriteBytes(addr uint32, buf []byte) error

	// CompareAndSwap atomically replaces the size-byte value at addr with
	// val if it currently equals old. size is 1, 2, 4 or 8.
	CompareAndSwap(addr uint32, size int, old, val uint64) (bool, error)
}

// Allocator hands out committed regions of guest memory.
type Allocator interface {
	// Alloc commits size zeroed bytes aligned to align (a power of two) and
	// returns the base address.
	Alloc(size, align uint32) (uint32, error)
	// Free releases a region returned by Alloc.
	Free(addr uint32) error
}

// AddressSpace is memory with an allocator and fixed-address mapping, as
// needed by the loader and thread creation.
type AddressSpace interface {
	Memory
	Allocator

	// Map commits the pages covering [addr, addr+size).
	Map(addr, size uint32) error
}

// ErrOutOfMemory is returned when no region of the requested size is free.
var ErrOutOfMemory = errors.New("guest address space exhausted")

// SparseMemory is a page-granular guest address space backed by a map of
// host pages. Pages are committed by Map or Alloc; accesses elsewhere fail.
type SparseMemory struct {
	mu    sync.RWMutex
	pages map[uint32]*[PageSize]byte
	alloc *regionAllocator
}

// Default bounds of the allocation arena.
const (
	DefaultArenaBase  = 0x81000000
	DefaultArenaLimit = 0xe0000000
)

// NewSparseMemory creates an empty address space whose allocator serves
// addresses in [DefaultArenaBase, DefaultArenaLimit).
func NewSparseMemory() *SparseMemory {
	return &SparseMemory{
		pages: make(map[uint32]*[PageSize]byte),
		alloc: newRegionAllocator(DefaultArenaBase, DefaultArenaLimit),
	}
}

// pageSpan returns the first and last page of a non-empty range, or false
// when the range runs past the top of the address space.
func pageSpan(addr, size uint32) (first, last uint32, ok bool) {
	if uint64(addr)+uint64(size) > 1<<32 {
		return 0, 0, false
	}
	return addr &^ (PageSize - 1), (addr + size - 1) &^ (PageSize - 1), true
}

// Map commits the pages covering [addr, addr+size). Already committed pages
// keep their contents.
func (m *SparseMemory) Map(addr, size uint32) error {
	if size == 0 {
		return nil
	}

	first, last, ok := pageSpan(addr, size)
	if !ok {
		return fmt.Errorf("%w: 0x%x bytes at 0x%08x wrap the address space", ErrAccessViolation, size, addr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for p := first; ; p += PageSize {
		if _, ok := m.pages[p]; !ok {
			m.pages[p] = new([PageSize]byte)
		}
		if p == last {
			return nil
		}
	}
}

// Unmap releases the pages covering [addr, addr+size). A range that wraps
// the address space is ignored.
func (m *SparseMemory) Unmap(addr, size uint32) {
	if size == 0 {
		return
	}

	first, last, ok := pageSpan(addr, size)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for p := first; ; p += PageSize {
		delete(m.pages, p)
		if p == last {
			break
		}
	}
}

// Mapped reports whether every byte of [addr, addr+size) is committed.
func (m *SparseMemory) Mapped(addr, size uint32) bool {
	if size == 0 {
		return true
	}

	first, last, ok := pageSpan(addr, size)
	if !ok {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for p := first; ; p += PageSize {
		if _, ok := m.pages[p]; !ok {
			return false
		}
		if p == last {
			return true
		}
	}
}

// Alloc implements Allocator.
func (m *SparseMemory) Alloc(size, align uint32) (uint32, error) {
	addr, err := m.alloc.alloc(size, align)
	if err != nil {
		return 0, err
	}
	_ = m.Map(addr, size)
	m.zero(addr, size)
	return addr, nil
}

// Free implements Allocator.
func (m *SparseMemory) Free(addr uint32) error {
	size, err := m.alloc.free(addr)
	if err != nil {
		return err
	}
	m.Unmap(addr, size)
	return nil
}

func (m *SparseMemory) zero(addr, size uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := uint32(0); i < size; i++ {
		m.pages[(addr+i)&^(PageSize-1)][(addr+i)&(PageSize-1)] = 0
	}
}

// span returns the committed bytes of [addr, addr+n) when they lie in a
// single page. The caller holds m.mu.
func (m *SparseMemory) span(addr uint32, n int) ([]byte, bool) {
	off := addr & (PageSize - 1)
	if int(off)+n > PageSize {
		return nil, false
	}
	page, ok := m.pages[addr&^(PageSize-1)]
	if !ok {
		return nil, false
	}
	return page[off : int(off)+n], true
}

func (m *SparseMemory) copyOut(addr uint32, buf []byte) error {
	for i := range buf {
		a := addr + uint32(i)
		page, ok := m.pages[a&^(PageSize-1)]
		if !ok {
			return &AccessError{Addr: addr, Size: len(buf)}
		}
		buf[i] = page[a&(PageSize-1)]
	}
	return nil
}

func (m *SparseMemory) copyIn(addr uint32, buf []byte) error {
	// Check first so a failed write leaves memory untouched.
	for i := range buf {
		if _, ok := m.pages[(addr+uint32(i))&^(PageSize-1)]; !ok {
			return &AccessError{Addr: addr, Size: len(buf), Write: true}
		}
	}
	for i, b := range buf {
		a := addr + uint32(i)
		m.pages[a&^(PageSize-1)][a&(PageSize-1)] = b
	}
	return nil
}

func (m *SparseMemory) read(addr uint32, n int) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tmp [8]byte
	b, ok := m.span(addr, n)
	if !ok {
		if err := m.copyOut(addr, tmp[:n]); err != nil {
			return 0, err
		}
		b = tmp[:n]
	}
	return decodeLE(b), nil
}

func (m *SparseMemory) write(addr uint32, n int, v uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tmp [8]byte
	encodeLE(tmp[:n], v)
	if b, ok := m.span(addr, n); ok {
		copy(b, tmp[:n])
		return nil
	}
	return m.copyIn(addr, tmp[:n])
}

// Read8 implements Memory.
func (m *SparseMemory) Read8(addr uint32) (uint8, error) {
	v, err := m.read(addr, 1)
	return uint8(v), err
}

// Read16 implements Memory.
func (m *SparseMemory) Read16(addr uint32) (uint16, error) {
	v, err := m.read(addr, 2)
	return uint16(v), err
}

// Read32 implements Memory.
func (m *SparseMemory) Read32(addr uint32) (uint32, error) {
	v, err := m.read(addr, 4)
	return uint32(v), err
}

// Read64 implements Memory.
func (m *SparseMemory) Read64(addr uint32) (uint64, error) {
	return m.read(addr, 8)
}

// Write8 implements Memory.
func (m *SparseMemory) Write8(addr uint32, v uint8) error { return m.write(addr, 1, uint64(v)) }

// Write16 implements Memory.
func (m *SparseMemory) Write16(addr uint32, v uint16) error { return m.write(addr, 2, uint64(v)) }

// Write32 implements Memory.
func (m *SparseMemory) Write32(addr uint32, v uint32) error { return m.write(addr, 4, uint64(v)) }

// Write64 implements Memory.
func (m *SparseMemory) Write64(addr uint32, v uint64) error { return m.write(addr, 8, v) }

// ReadBytes implements Memory.
func (m *SparseMemory) ReadBytes(addr uint32, buf []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyOut(addr, buf)
}

// WriteBytes implements Memory.
func (m *SparseMemory) WriteBytes(addr uint32, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyIn(addr, buf)
}

// CompareAndSwap implements Memory.
func (m *SparseMemory) CompareAndSwap(addr uint32, size int, old, val uint64) (bool, error) {
	if err := checkAtomicSize(addr, size); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.span(addr, size)
	if !ok {
		return false, &AccessError{Addr: addr, Size: size, Write: true}
	}
	if decodeLE(b) != old&sizeMask(size) {
		return false, nil
	}
	encodeLE(b, val)
	return true, nil
}

func checkAtomicSize(addr uint32, size int) error {
	switch size {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("compare-and-swap of %d bytes is not supported", size)
	}
	if addr&uint32(size-1) != 0 {
		return &AccessError{Addr: addr, Size: size, Write: true}
	}
	return nil
}

func sizeMask(size int) uint64 {
	if size == 8 {
		return ^uint64(0)
	}
	return 1<<(8*size) - 1
}

func decodeLE(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func encodeLE(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

// regionAllocator is a first-fit allocator over [base, limit).
type regionAllocator struct {
	mu      sync.Mutex
	base    uint32
	limit   uint32
	regions []region // sorted by addr
}

type region struct {
	addr uint32
	size uint32
}

func newRegionAllocator(base, limit uint32) *regionAllocator {
	return &regionAllocator{base: base, limit: limit}
}

func (a *regionAllocator) alloc(size, align uint32) (uint32, error) {
	if size == 0 {
		return 0, fmt.Errorf("zero-sized allocation")
	}
	if align < 16 {
		align = 16
	}
	if align&(align-1) != 0 {
		return 0, fmt.Errorf("alignment 0x%x is not a power of two", align)
	}
	// Keep regions on separate pages so freeing one never unmaps another.
	size = (size + PageSize - 1) &^ (PageSize - 1)
	if align < PageSize {
		align = PageSize
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cursor := uint64(a.base)
	for i := 0; i <= len(a.regions); i++ {
		start := (cursor + uint64(align) - 1) &^ uint64(align-1)
		end := uint64(a.limit)
		if i < len(a.regions) {
			end = uint64(a.regions[i].addr)
		}
		if start+uint64(size) <= end {
			r := region{addr: uint32(start), size: size}
			a.regions = append(a.regions, region{})
			copy(a.regions[i+1:], a.regions[i:])
			a.regions[i] = r
			return r.addr, nil
		}
		if i < len(a.regions) {
			cursor = uint64(a.regions[i].addr) + uint64(a.regions[i].size)
		}
	}

	return 0, fmt.Errorf("%w: 0x%x bytes", ErrOutOfMemory, size)
}

func (a *regionAllocator) free(addr uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := sort.Search(len(a.regions), func(i int) bool { return a.regions[i].addr >= addr })
	if i == len(a.regions) || a.regions[i].addr != addr {
		return 0, fmt.Errorf("free of unallocated address 0x%08x", addr)
	}
	size := a.regions[i].size
	a.regions = append(a.regions[:i], a.regions[i+1:]...)
	return size, nil
}
