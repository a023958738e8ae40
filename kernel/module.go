package kernel

import (
	"context"
	"fmt"
	"time"

	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/hle"
)

// ModuleName is the module the thread-manager functions are imported from.
const ModuleName = "SceLibKernel"

// NIDs of the thread-manager functions.
const (
	NIDCreateThread        = 0xC5C11EE7
	NIDStartThread         = 0xF08DE149
	NIDExitThread          = 0x0C8A38E1
	NIDDeleteThread        = 0x1BBDE3D9
	NIDExitDeleteThread    = 0x1D17DECF
	NIDWaitThreadEnd       = 0xDDB395A9
	NIDGetThreadId         = 0x0FB972F9
	NIDDelayThread         = 0x4B675D05
	NIDGetProcessId        = 0x9DCB4B7A
	NIDGetThreadExitStatus = 0xD5DC26C4
)

// NIDs of the I/O functions.
const (
	NIDIoOpen    = 0x6C60AC61
	NIDIoClose   = 0xF5C6F098
	NIDIoRead    = 0x713523E1
	NIDIoWrite   = 0x11FED231
	NIDIoLseek   = 0x99BA173E
	NIDIoLseek32 = 0x5CC983AC
)

// IofilemgrName is the module that exports a second copy of the basic I/O
// functions.
const IofilemgrName = "SceIofilemgr"

// NIDs of the SceIofilemgr exports.
const (
	NIDIofilemgrWrite = 0x34EFD876
	NIDIofilemgrClose = 0xC70B8886
	NIDIofilemgrRead  = 0xFDB32293
)

const maxThreadName = 32

func (s *Scheduler) register(table *hle.Table) error {
	m := table.Module(ModuleName)

	funcs := []struct {
		nid   uint32
		name  string
		fn    any
		flags []hle.Flags
	}{
		{NIDCreateThread, "sceKernelCreateThread", s.hleCreateThread, []hle.Flags{hle.FlagPartial}},
		{NIDStartThread, "sceKernelStartThread", s.hleStartThread, nil},
		{NIDExitThread, "sceKernelExitThread", s.hleExitThread, nil},
		{NIDDeleteThread, "sceKernelDeleteThread", s.hleDeleteThread, nil},
		{NIDExitDeleteThread, "sceKernelExitDeleteThread", s.hleExitDeleteThread, nil},
		{NIDWaitThreadEnd, "sceKernelWaitThreadEnd", s.hleWaitThreadEnd, nil},
		{NIDGetThreadId, "sceKernelGetThreadId", s.hleGetThreadID, nil},
		{NIDDelayThread, "sceKernelDelayThread", s.hleDelayThread, nil},
		{NIDGetProcessId, "sceKernelGetProcessId", s.hleGetProcessID, nil},
		{NIDGetThreadExitStatus, "sceKernelGetThreadExitStatus", s.hleGetThreadExitStatus, nil},

		{NIDIoOpen, "sceIoOpen", s.hleIoOpen, nil},
		{NIDIoClose, "sceIoClose", s.hleIoClose, nil},
		{NIDIoRead, "sceIoRead", s.hleIoRead, nil},
		{NIDIoWrite, "sceIoWrite", s.hleIoWrite, nil},
		{NIDIoLseek, "sceIoLseek", s.hleIoLseek, nil},
		{NIDIoLseek32, "sceIoLseek32", s.hleIoLseek32, nil},
	}

	for _, f := range funcs {
		if _, err := m.Register(f.nid, f.name, f.fn, f.flags...); err != nil {
			return err
		}
	}

	iofilemgr := table.Module(IofilemgrName)
	aliases := []struct {
		nid  uint32
		name string
		fn   any
	}{
		{NIDIofilemgrWrite, "sceIoWrite", s.hleIoWrite},
		{NIDIofilemgrClose, "sceIoClose", s.hleIoClose},
		{NIDIofilemgrRead, "sceIoRead", s.hleIoRead},
	}
	for _, f := range aliases {
		if _, err := iofilemgr.Register(f.nid, f.name, f.fn); err != nil {
			return err
		}
	}
	return nil
}

// hleCreateThread ignores attr, the CPU affinity mask and the option block.
func (s *Scheduler) hleCreateThread(
	pName, entry uint32, priority int32, stackSize, attr uint32, affinity int32, pOpt uint32,
) (uint32, error) {
	name, err := hle.ReadString(s.mem, pName, maxThreadName)
	if err != nil {
		return 0, err
	}

	th, err := s.CreateThread(name, entry, priority, stackSize)
	if err != nil {
		return result(err)
	}
	return th.ID(), nil
}

func (s *Scheduler) hleStartThread(id, argSize, pArgBlock uint32) (uint32, error) {
	var args []byte
	if argSize > 0 && pArgBlock != 0 {
		args = make([]byte, argSize)
		if err := s.mem.ReadBytes(pArgBlock, args); err != nil {
			return 0, fmt.Errorf("read thread arguments: %w", err)
		}
	}
	return result(s.StartThread(id, args))
}

func (s *Scheduler) hleExitThread(t *emu.Thread, status int32) uint32 {
	s.ExitThread(t, uint32(status))
	return CodeOK
}

func (s *Scheduler) hleDeleteThread(id uint32) (uint32, error) {
	return result(s.DeleteThread(id))
}

func (s *Scheduler) hleExitDeleteThread(t *emu.Thread, status int32) (uint32, error) {
	return result(s.ExitDeleteThread(t, uint32(status)))
}

// hleWaitThreadEnd takes an optional timeout in microseconds.
func (s *Scheduler) hleWaitThreadEnd(t *emu.Thread, id, pExitStatus, pTimeout uint32) (uint32, error) {
	if id == t.ID() {
		return CodeIllegalThreadID, nil
	}

	ctx := s.runContext()
	if pTimeout != 0 {
		usec, err := s.mem.Read32(pTimeout)
		if err != nil {
			return 0, err
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(usec)*time.Microsecond)
		defer cancel()
	}

	status, err := s.WaitThreadEnd(ctx, id)
	if err != nil {
		if code, ok := guestCode(err); ok {
			return code, nil
		}
		// The waited-for thread failed; that failure stops this process.
		return CodeWaitCancel, nil
	}

	if pExitStatus != 0 {
		if err := s.mem.Write32(pExitStatus, status); err != nil {
			return 0, err
		}
	}
	return CodeOK, nil
}

func (s *Scheduler) hleGetThreadID(t *emu.Thread) uint32 {
	return t.ID()
}

func (s *Scheduler) hleDelayThread(usec uint32) (uint32, error) {
	return result(s.DelayThread(s.runContext(), time.Duration(usec)*time.Microsecond))
}

func (s *Scheduler) hleGetProcessID() uint32 {
	return s.pid
}

func (s *Scheduler) hleGetThreadExitStatus(id, pExitStatus uint32) (uint32, error) {
	status, err := s.GetThreadExitStatus(id)
	if err != nil {
		return result(err)
	}
	if pExitStatus != 0 {
		if err := s.mem.Write32(pExitStatus, status); err != nil {
			return 0, err
		}
	}
	return CodeOK, nil
}
