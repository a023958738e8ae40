package kernel

import (
	"context"
	"errors"
)

// Errors returned by the scheduler and TLS slot table.
var (
	ErrTLSExhausted  = errors.New("no free TLS slot")
	ErrInvalidTLS    = errors.New("invalid TLS release")
	ErrInvalidThread = errors.New("unknown thread id")
	ErrStackAlloc    = errors.New("cannot allocate thread stack")
	ErrNotDormant    = errors.New("thread is not dormant")
	ErrDormant       = errors.New("thread has not been started")
	ErrRunning       = errors.New("scheduler is already running")
)

// Status codes returned to guest code by the kernel functions. Negative
// values (bit 31 set) are errors.
const (
	CodeOK              uint32 = 0
	CodeIllegalThreadID uint32 = 0x80028001
	CodeUnknownThreadID uint32 = 0x80028002
	CodeWaitTimeout     uint32 = 0x80028005
	CodeWaitCancel      uint32 = 0x80028006
	CodeDormant         uint32 = 0x80028010
	CodeNotDormant      uint32 = 0x80028011
)

// guestCode maps errors the guest is expected to handle to status codes.
// Everything else is fatal for the calling thread.
func guestCode(err error) (uint32, bool) {
	switch {
	case err == nil:
		return CodeOK, true
	case errors.Is(err, ErrInvalidThread):
		return CodeUnknownThreadID, true
	case errors.Is(err, ErrNotDormant):
		return CodeNotDormant, true
	case errors.Is(err, ErrDormant):
		return CodeDormant, true
	case errors.Is(err, context.DeadlineExceeded):
		return CodeWaitTimeout, true
	case errors.Is(err, context.Canceled):
		return CodeWaitCancel, true
	}
	return 0, false
}

// result converts err into the (status, error) pair a native function
// returns.
func result(err error) (uint32, error) {
	if code, ok := guestCode(err); ok {
		return code, nil
	}
	return 0, err
}
