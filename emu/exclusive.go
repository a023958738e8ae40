package emu

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Reservation granules are 128 bytes. Distinct granules may share a
// generation counter; that only causes spurious store-exclusive failures.
const (
	granuleShift = 7
	granuleCount = 1 << 14
	stripeCount  = 64
)

// Monitor is the global exclusive monitor shared by all threads of a
// process. Each granule has a generation counter that is even when idle and
// odd while a store-exclusive is committing to it. A successful
// store-exclusive advances the generation by two; a load-exclusive records
// the generation it observed.
type Monitor struct {
	gens    [granuleCount]atomic.Uint64
	stripes [stripeCount]sync.Mutex

	// BreakOnStore makes ordinary stores through Thread invalidate
	// reservations on the stored granule.
	BreakOnStore bool
}

// NewMonitor creates an idle monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) gen(addr uint32) *atomic.Uint64 {
	return &m.gens[(addr>>granuleShift)%granuleCount]
}

// Acquire returns the current even generation of the granule containing
// addr, waiting for an in-flight commit to finish.
func (m *Monitor) Acquire(addr uint32) uint64 {
	g := m.gen(addr)
	for {
		v := g.Load()
		if v&1 == 0 {
			return v
		}
		runtime.Gosched()
	}
}

// Invalidate advances the generation of the granule containing addr so that
// outstanding reservations on it fail.
func (m *Monitor) Invalidate(addr uint32) {
	g := m.gen(addr)
	for {
		v := g.Load()
		if v&1 == 0 && g.CompareAndSwap(v, v+2) {
			return
		}
		runtime.Gosched()
	}
}

// Commit performs the store half of a store-exclusive: it writes val to
// the size-byte location at addr if the granule is still at generation gen
// and memory still holds expected. On success the generation advances.
func (m *Monitor) Commit(mem Memory, addr uint32, size int, gen, expected, val uint64) (bool, error) {
	g := m.gen(addr)

	if !g.CompareAndSwap(gen, gen|1) {
		if g.Load() != gen|1 {
			return false, nil
		}

		// Another thread is committing against the same generation.
		// Serialize on the stripe and wait for it to finish.
		stripe := &m.stripes[(addr>>granuleShift)%stripeCount]
		stripe.Lock()
		defer stripe.Unlock()

		for !g.CompareAndSwap(gen, gen|1) {
			if g.Load() != gen|1 {
				return false, nil
			}
			runtime.Gosched()
		}
	}

	ok, err := mem.CompareAndSwap(addr, size, expected, val)
	if err != nil || !ok {
		g.Store(gen)
		return false, err
	}
	g.Store(gen + 2)
	return true, nil
}

// LoadExclusive reads size bytes at addr and records a reservation in ctx.
func (m *Monitor) LoadExclusive(ctx *Context, mem Memory, addr uint32, size int) (uint64, error) {
	gen := m.Acquire(addr)

	var v uint64
	var err error
	switch size {
	case 1:
		var b uint8
		b, err = mem.Read8(addr)
		v = uint64(b)
	case 2:
		var h uint16
		h, err = mem.Read16(addr)
		v = uint64(h)
	case 4:
		var w uint32
		w, err = mem.Read32(addr)
		v = uint64(w)
	default:
		v, err = mem.Read64(addr)
	}
	if err != nil {
		ctx.Reservation = Reservation{}
		return 0, err
	}

	ctx.Reservation = Reservation{
		Valid: true,
		Addr:  addr,
		Size:  uint8(size),
		Data:  v,
		Gen:   gen,
	}
	return v, nil
}

// StoreExclusive attempts to store val to addr under the reservation held in
// ctx. The reservation is cleared whether or not the store succeeds.
func (m *Monitor) StoreExclusive(ctx *Context, mem Memory, addr uint32, size int, val uint64) (bool, error) {
	r := ctx.Reservation
	ctx.Reservation = Reservation{}

	if !r.Valid || r.Addr != addr || int(r.Size) != size {
		return false, nil
	}

	return m.Commit(mem, addr, size, r.Gen, r.Data, val)
}

// ClearExclusive drops the reservation held in ctx.
func ClearExclusive(ctx *Context) {
	ctx.Reservation = Reservation{}
}
