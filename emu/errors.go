package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/armv7/insts"
)

// Sentinel errors. Typed errors below wrap one of these so callers can use
// errors.Is.
var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrUnimplemented      = errors.New("unimplemented instruction")
	ErrAccessViolation    = errors.New("access violation")
	ErrStackMismatch      = errors.New("stack pointer changed across native-to-guest call")
	ErrStopped            = errors.New("thread stopped")
	ErrTLSUnset           = errors.New("thread-local storage register read before it was set")
	ErrNoReturnStub       = errors.New("no return stub configured")
	ErrInstructionLimit   = errors.New("instruction limit reached")
)

// UnknownInstructionError reports bits that no decode table entry claims.
type UnknownInstructionError struct {
	PC    uint32
	Raw   uint32
	Width uint8
	ISet  insts.ISet
}

func (e *UnknownInstructionError) Error() string {
	if e.Width == 2 {
		return fmt.Sprintf("unknown %s instruction 0x%04x at 0x%08x", e.ISet, e.Raw, e.PC)
	}
	return fmt.Sprintf("unknown %s instruction 0x%08x at 0x%08x", e.ISet, e.Raw, e.PC)
}

func (e *UnknownInstructionError) Unwrap() error { return ErrUnknownInstruction }

// UnimplementedError reports a decoded instruction whose semantics are not
// provided, or an unsupported form of a provided one.
type UnimplementedError struct {
	Op     insts.Op
	Enc    insts.Encoding
	Raw    uint32
	Reason string
}

func (e *UnimplementedError) Error() string {
	msg := fmt.Sprintf("%s.%s (0x%08x) is not implemented", e.Op, e.Enc, e.Raw)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnimplementedError) Unwrap() error { return ErrUnimplemented }

// AccessError reports a guest memory access outside committed memory.
type AccessError struct {
	Addr  uint32
	Size  int
	Write bool
}

func (e *AccessError) Error() string {
	kind := "read"
	if e.Write {
		kind = "write"
	}
	return fmt.Sprintf("%s of %d bytes at 0x%08x", kind, e.Size, e.Addr)
}

func (e *AccessError) Unwrap() error { return ErrAccessViolation }

// FastCallError reports a native-to-guest call that ended in an error. The
// caller's registers have been restored when it is returned.
type FastCallError struct {
	Addr uint32
	Err  error
}

func (e *FastCallError) Error() string {
	return fmt.Sprintf("fast call to 0x%08x: %v", e.Addr, e.Err)
}

func (e *FastCallError) Unwrap() error { return e.Err }

func unimplemented(inst insts.Instruction, reason string) error {
	return &UnimplementedError{Op: inst.Op, Enc: inst.Enc, Raw: inst.Raw, Reason: reason}
}
