// Package icache provides a per-thread instruction fetch cache built on the
// Akita cache directory.
package icache

import (
	"encoding/binary"
	"sync/atomic"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/armv7/emu"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
}

// DefaultConfig returns a 32KB, 4-way cache with 64B lines.
func DefaultConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 4,
		BlockSize:     64,
	}
}

// Sets returns the number of sets.
func (c Config) Sets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// Epoch counts code modifications. Caches sharing an epoch drop all lines
// the next time they fetch after it is bumped.
type Epoch struct {
	n atomic.Uint64
}

// Bump records that guest code changed.
func (e *Epoch) Bump() { e.n.Add(1) }

// Load returns the current epoch.
func (e *Epoch) Load() uint64 { return e.n.Load() }

// Statistics holds cache performance statistics.
type Statistics struct {
	Fetches   uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
	// Uncached counts fetches from blocks that are not fully mapped.
	Uncached uint64
	Flushes  uint64
}

// Cache caches instruction bytes for one thread. It implements
// emu.InstructionFetcher and is not safe for concurrent use.
type Cache struct {
	config Config
	mem    emu.Memory
	epoch  *Epoch
	seen   uint64

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats Statistics
}

// New creates a cache over mem. epoch may be nil.
func New(config Config, mem emu.Memory, epoch *Epoch) *Cache {
	numSets := config.Sets()
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	if epoch == nil {
		epoch = &Epoch{}
	}

	return &Cache{
		config: config,
		mem:    mem,
		epoch:  epoch,
		seen:   epoch.Load(),
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
	}
}

// Factory returns a constructor for per-thread caches sharing epoch, in the
// form kernel.WithFetcherFactory takes.
func Factory(config Config, epoch *Epoch) func(emu.Memory) emu.InstructionFetcher {
	return func(mem emu.Memory) emu.InstructionFetcher {
		return New(config, mem, epoch)
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// line returns the cached bytes of the block holding addr, filling it on a
// miss. It returns nil when the block cannot be cached.
func (c *Cache) line(addr uint32) []byte {
	if e := c.epoch.Load(); e != c.seen {
		c.directory.Reset()
		c.seen = e
		c.stats.Flushes++
	}

	c.stats.Fetches++
	blockAddr := uint64(addr) &^ uint64(c.config.BlockSize-1)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return c.dataStore[c.blockIndex(block)]
	}

	c.stats.Misses++
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return nil
	}

	data := c.dataStore[c.blockIndex(victim)]
	if err := c.mem.ReadBytes(uint32(blockAddr), data); err != nil {
		victim.IsValid = false
		c.stats.Uncached++
		return nil
	}

	if victim.IsValid {
		c.stats.Evictions++
	}
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)
	return data
}

// Fetch16 implements emu.InstructionFetcher.
func (c *Cache) Fetch16(addr uint32) (uint16, error) {
	data := c.line(addr)
	if data == nil {
		return c.mem.Read16(addr)
	}
	off := int(addr) & (c.config.BlockSize - 1)
	return binary.LittleEndian.Uint16(data[off:]), nil
}

// Fetch32 implements emu.InstructionFetcher.
func (c *Cache) Fetch32(addr uint32) (uint32, error) {
	off := int(addr) & (c.config.BlockSize - 1)
	if off+4 > c.config.BlockSize {
		return c.mem.Read32(addr)
	}

	data := c.line(addr)
	if data == nil {
		return c.mem.Read32(addr)
	}
	return binary.LittleEndian.Uint32(data[off:]), nil
}

// Invalidate drops the line holding addr.
func (c *Cache) Invalidate(addr uint32) {
	blockAddr := uint64(addr) &^ uint64(c.config.BlockSize-1)
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
	c.seen = c.epoch.Load()
}
