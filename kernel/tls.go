package kernel

import (
	"fmt"
	"sync/atomic"

	"github.com/sarchlab/armv7/emu"
	"github.com/sirupsen/logrus"
)

const tlsAlign = 16

// TLS is the process-wide thread-local storage slot table. Each slot holds
// one copy of the TLS image; a slot is owned by at most one thread.
type TLS struct {
	mem    emu.Memory
	logger *logrus.Entry

	base   uint32
	stride uint32
	vsize  uint32
	image  []byte

	// owners holds the owning thread id per slot, 0 when free.
	owners []atomic.Uint32
}

// TLSOption configures a TLS table.
type TLSOption func(*TLS)

// WithTLSLogger sets the logger for exhaustion and bad releases.
func WithTLSLogger(l *logrus.Entry) TLSOption {
	return func(t *TLS) {
		t.logger = l
	}
}

// NewTLS reserves slots copies of a vsize-byte TLS block. The first
// len(image) bytes of every block are initialized from image and the rest
// is zeroed. A vsize of 0 means the program has no TLS.
func NewTLS(mem emu.AddressSpace, image []byte, vsize uint32, slots int, opts ...TLSOption) (*TLS, error) {
	t := &TLS{mem: mem, vsize: vsize, image: image}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	if vsize == 0 {
		return t, nil
	}
	if uint32(len(image)) > vsize {
		return nil, fmt.Errorf("TLS image of %d bytes exceeds block size %d", len(image), vsize)
	}
	if slots <= 0 {
		return nil, fmt.Errorf("TLS slot count must be positive, got %d", slots)
	}

	t.stride = (vsize + tlsAlign - 1) &^ (tlsAlign - 1)
	base, err := mem.Alloc(t.stride*uint32(slots), tlsAlign)
	if err != nil {
		return nil, fmt.Errorf("allocate %d TLS slots: %w", slots, err)
	}
	t.base = base
	t.owners = make([]atomic.Uint32, slots)
	return t, nil
}

// Base returns the address of the first slot.
func (t *TLS) Base() uint32 { return t.base }

// Slots returns the slot capacity.
func (t *TLS) Slots() int { return len(t.owners) }

// InUse returns the number of claimed slots.
func (t *TLS) InUse() int {
	n := 0
	for i := range t.owners {
		if t.owners[i].Load() != 0 {
			n++
		}
	}
	return n
}

func (t *TLS) addr(slot int) uint32 { return t.base + uint32(slot)*t.stride }

// Alloc claims a slot for owner, a nonzero thread id, and returns its
// initialized address. A thread that already owns a slot gets the same
// one back. Alloc returns 0 when the program has no TLS.
func (t *TLS) Alloc(owner uint32) (uint32, error) {
	if t == nil || t.vsize == 0 {
		return 0, nil
	}
	if owner == 0 {
		return 0, fmt.Errorf("%w: owner id 0", ErrInvalidThread)
	}

	for i := range t.owners {
		if t.owners[i].Load() == owner {
			return t.addr(i), nil
		}
	}

	for i := range t.owners {
		if !t.owners[i].CompareAndSwap(0, owner) {
			continue
		}

		addr := t.addr(i)
		if err := t.initialize(addr); err != nil {
			t.owners[i].Store(0)
			return 0, err
		}
		return addr, nil
	}

	t.logger.WithFields(logrus.Fields{
		"owner": owner,
		"slots": len(t.owners),
	}).Error("TLS slots exhausted")
	return 0, fmt.Errorf("%w: all %d slots in use", ErrTLSExhausted, len(t.owners))
}

func (t *TLS) initialize(addr uint32) error {
	if err := t.mem.WriteBytes(addr, t.image); err != nil {
		return fmt.Errorf("copy TLS image to 0x%08x: %w", addr, err)
	}
	rest := make([]byte, t.vsize-uint32(len(t.image)))
	if err := t.mem.WriteBytes(addr+uint32(len(t.image)), rest); err != nil {
		return fmt.Errorf("zero TLS block at 0x%08x: %w", addr, err)
	}
	return nil
}

// Free releases the slot at addr.
func (t *TLS) Free(addr uint32) error {
	if t == nil || t.vsize == 0 {
		return nil
	}

	end := t.addr(len(t.owners))
	if addr < t.base || addr >= end || (addr-t.base)%t.stride != 0 {
		t.logger.WithField("addr", fmt.Sprintf("0x%08x", addr)).Error("release of invalid TLS address")
		return fmt.Errorf("%w: 0x%08x is not a slot address", ErrInvalidTLS, addr)
	}

	slot := int((addr - t.base) / t.stride)
	if t.owners[slot].Swap(0) == 0 {
		t.logger.WithField("addr", fmt.Sprintf("0x%08x", addr)).Error("TLS slot released twice")
		return fmt.Errorf("%w: slot %d is already free", ErrInvalidTLS, slot)
	}
	return nil
}
