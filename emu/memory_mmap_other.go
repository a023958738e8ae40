//go:build !linux || !(amd64 || arm64)

package emu

import "errors"

// MappedMemory is only available on 64-bit Linux.
type MappedMemory struct {
	SparseMemory
}

// NewMappedMemory reports that the mmap backend is unavailable.
func NewMappedMemory() (*MappedMemory, error) {
	return nil, errors.New("mmap memory backend requires 64-bit linux")
}

// Map commits the pages covering [addr, addr+size).
func (m *MappedMemory) Map(addr, size uint32) error {
	return m.SparseMemory.Map(addr, size)
}

// Close is a no-op.
func (m *MappedMemory) Close() error { return nil }
