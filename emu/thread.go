package emu

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/sarchlab/armv7/insts"
	"github.com/sirupsen/logrus"
)

// Control tells the driver what to do after an instruction.
type Control uint8

// Control values.
const (
	// ControlContinue proceeds to the next instruction.
	ControlContinue Control = iota
	// ControlReturn ends the innermost native-to-guest call.
	ControlReturn
	// ControlExit ends the thread after the current instruction.
	ControlExit
	// ControlFatal halts the thread; StepResult.Err says why.
	ControlFatal
)

func (c Control) String() string {
	switch c {
	case ControlContinue:
		return "continue"
	case ControlReturn:
		return "return"
	case ControlExit:
		return "exit"
	case ControlFatal:
		return "fatal"
	}
	return fmt.Sprintf("Control(%d)", uint8(c))
}

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Control is the action the driver takes next.
	Control Control

	// Inst is the instruction that was executed, if one was decoded.
	Inst insts.Instruction

	// Err is set when Control is ControlFatal.
	Err error
}

// Status is the lifecycle state of a thread.
type Status int32

// Status values.
const (
	StatusDormant Status = iota
	StatusRunning
	StatusReturned
	StatusExited
	StatusHalted
)

func (s Status) String() string {
	switch s {
	case StatusDormant:
		return "dormant"
	case StatusRunning:
		return "running"
	case StatusReturned:
		return "returned"
	case StatusExited:
		return "exited"
	case StatusHalted:
		return "halted"
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Done reports whether the thread has finished running.
func (s Status) Done() bool { return s >= StatusReturned }

// FunctionCaller runs native functions on behalf of HACK instructions.
type FunctionCaller interface {
	CallFunction(t *Thread, index uint32) error
}

// InstructionFetcher reads instruction bits. Fetches are always halfword or
// word sized and naturally aligned by the caller.
type InstructionFetcher interface {
	Fetch16(addr uint32) (uint16, error)
	Fetch32(addr uint32) (uint32, error)
}

type memFetcher struct{ mem Memory }

func (f memFetcher) Fetch16(addr uint32) (uint16, error) { return f.mem.Read16(addr) }
func (f memFetcher) Fetch32(addr uint32) (uint32, error) { return f.mem.Read32(addr) }

var defaultMonitor = sync.OnceValue(NewMonitor)

// ThreadOption is a functional option for configuring a Thread.
type ThreadOption func(*Thread)

// WithLogger sets the logger. The thread adds its own fields.
func WithLogger(l *logrus.Entry) ThreadOption {
	return func(t *Thread) {
		t.logger = l
	}
}

// WithMonitor sets the exclusive monitor. Threads sharing memory must share
// a monitor; the default is a process-wide one.
func WithMonitor(m *Monitor) ThreadOption {
	return func(t *Thread) {
		t.monitor = m
	}
}

// WithFunctionCaller sets the handler for native function calls.
func WithFunctionCaller(c FunctionCaller) ThreadOption {
	return func(t *Thread) {
		t.caller = c
	}
}

// WithFetcher sets the instruction fetch path, for example a cache.
func WithFetcher(f InstructionFetcher) ThreadOption {
	return func(t *Thread) {
		t.fetcher = f
	}
}

// WithReturnStub sets the address of a guest stub executing the return
// HACK instruction. Thumb stubs carry bit 0.
func WithReturnStub(addr uint32) ThreadOption {
	return func(t *Thread) {
		t.returnStub = addr
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) ThreadOption {
	return func(t *Thread) {
		t.maxInstructions = max
	}
}

// WithID sets the thread id used in logs.
func WithID(id uint32) ThreadOption {
	return func(t *Thread) {
		t.id = id
	}
}

// WithName sets the thread name used in logs.
func WithName(name string) ThreadOption {
	return func(t *Thread) {
		t.name = name
	}
}

// Thread interprets guest code for one guest thread. Its Context is owned by
// the goroutine running it.
type Thread struct {
	ctx     Context
	mem     Memory
	decoder *insts.Decoder
	monitor *Monitor
	caller  FunctionCaller
	fetcher InstructionFetcher
	logger  *logrus.Entry

	id    uint32
	name  string
	trace xid.ID

	returnStub       uint32
	maxInstructions  uint64
	instructionCount uint64

	control  Control
	depth    int
	stop     atomic.Bool
	status   atomic.Int32
	exitCode atomic.Uint32
}

// NewThread creates a dormant thread executing out of mem.
func NewThread(mem Memory, opts ...ThreadOption) *Thread {
	t := &Thread{
		mem:     mem,
		decoder: insts.NewDecoder(),
		trace:   xid.New(),
	}
	t.ctx.ISet = insts.Thumb

	for _, opt := range opts {
		opt(t)
	}

	if t.monitor == nil {
		t.monitor = defaultMonitor()
	}
	if t.fetcher == nil {
		t.fetcher = memFetcher{mem}
	}
	if t.logger == nil {
		t.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	t.logger = t.logger.WithFields(logrus.Fields{
		"thread": t.id,
		"name":   t.name,
		"trace":  t.trace.String(),
	})

	return t
}

// Context returns the thread's architectural state.
func (t *Thread) Context() *Context { return &t.ctx }

// Memory returns the memory the thread executes from.
func (t *Thread) Memory() Memory { return t.mem }

// Monitor returns the exclusive monitor.
func (t *Thread) Monitor() *Monitor { return t.monitor }

// Logger returns the thread's logger.
func (t *Thread) Logger() *logrus.Entry { return t.logger }

// ID returns the thread id.
func (t *Thread) ID() uint32 { return t.id }

// Name returns the thread name.
func (t *Thread) Name() string { return t.name }

// Trace returns the id that tags this thread's log lines.
func (t *Thread) Trace() xid.ID { return t.trace }

// ReturnStub returns the configured return stub address.
func (t *Thread) ReturnStub() uint32 { return t.returnStub }

// InstructionCount returns the number of instructions retired.
func (t *Thread) InstructionCount() uint64 { return t.instructionCount }

// Status returns the lifecycle state.
func (t *Thread) Status() Status { return Status(t.status.Load()) }

// ExitStatus returns the value the thread exited or returned with.
func (t *Thread) ExitStatus() uint32 { return t.exitCode.Load() }

// Stop asks the thread to halt before its next instruction. It is safe to
// call from any goroutine.
func (t *Thread) Stop() { t.stop.Store(true) }

// Stopped reports whether Stop was called.
func (t *Thread) Stopped() bool { return t.stop.Load() }

// Exit ends the thread with status once the current instruction completes.
// It is called by native functions running on the thread.
func (t *Thread) Exit(status uint32) {
	t.exitCode.Store(status)
	t.signal(ControlExit)
}

func (t *Thread) signal(c Control) {
	if c > t.control {
		t.control = c
	}
}

func (t *Thread) yield() { runtime.Gosched() }

// fetch reads and decodes the instruction at the program counter.
func (t *Thread) fetch() (insts.Instruction, error) {
	ctx := &t.ctx
	if ctx.ISet == insts.ARM {
		w, err := t.fetcher.Fetch32(ctx.PC)
		if err != nil {
			return insts.Instruction{}, err
		}
		return t.decoder.DecodeARM(w), nil
	}

	hw, err := t.fetcher.Fetch16(ctx.PC)
	if err != nil {
		return insts.Instruction{}, err
	}
	if !insts.IsThumb32(hw) {
		return t.decoder.DecodeThumb16(hw), nil
	}

	hw2, err := t.fetcher.Fetch16(ctx.PC + 2)
	if err != nil {
		return insts.Instruction{}, err
	}
	return t.decoder.DecodeThumb32(uint32(hw)<<16 | uint32(hw2)), nil
}

// Step executes a single instruction.
func (t *Thread) Step() StepResult {
	ctx := &t.ctx

	inst, err := t.fetch()
	if err != nil {
		return StepResult{Control: ControlFatal, Err: fmt.Errorf("fetch at 0x%08x: %w", ctx.PC, err)}
	}

	if !inst.Known() {
		err := &UnknownInstructionError{PC: ctx.PC, Raw: inst.Raw, Width: inst.Width, ISet: ctx.ISet}
		t.logger.WithFields(logrus.Fields{
			"pc":  fmt.Sprintf("0x%08x", ctx.PC),
			"raw": fmt.Sprintf("0x%08x", inst.Raw),
		}).Error("unknown instruction")
		return StepResult{Control: ControlFatal, Inst: inst, Err: err}
	}

	var cond insts.Cond
	if ctx.ISet == insts.Thumb {
		cond = ctx.IT.Advance()
	} else {
		cond = insts.Cond(inst.Raw >> 28)
	}

	if t.logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		t.logger.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%08x", ctx.PC),
			"raw":  fmt.Sprintf("0x%08x", inst.Raw),
			"inst": inst.String(),
		}).Debug("step")
	}

	t.control = ControlContinue
	if err := t.execute(inst, cond); err != nil {
		ctx.branched = false
		t.control = ControlContinue
		return StepResult{Control: ControlFatal, Inst: inst, Err: fmt.Errorf("at 0x%08x: %w", ctx.PC, err)}
	}

	control := t.control
	t.control = ControlContinue
	t.instructionCount++

	if control == ControlReturn {
		// The caller restores the program counter.
		ctx.branched = false
		return StepResult{Control: ControlReturn, Inst: inst}
	}

	ctx.retire(inst.Width)
	return StepResult{Control: control, Inst: inst}
}

// loop steps until something other than ControlContinue happens.
func (t *Thread) loop() (Control, error) {
	for {
		if t.stop.Load() {
			return ControlFatal, ErrStopped
		}
		if t.maxInstructions > 0 && t.instructionCount >= t.maxInstructions {
			return ControlFatal, fmt.Errorf("%w (%d)", ErrInstructionLimit, t.maxInstructions)
		}

		res := t.Step()
		switch res.Control {
		case ControlContinue:
		case ControlFatal:
			return ControlFatal, res.Err
		default:
			return res.Control, nil
		}
	}
}

// Run executes the thread from its current program counter until the guest
// returns through the return stub, exits, fails, or ctx is cancelled. A
// return from the entry function is an exit with r0 as the status.
func (t *Thread) Run(ctx context.Context) error {
	t.status.Store(int32(StatusRunning))
	defer context.AfterFunc(ctx, t.Stop)()

	control, err := t.loop()
	switch {
	case err != nil:
		t.status.Store(int32(StatusHalted))
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", err, context.Cause(ctx))
		}
		t.logger.WithError(err).WithField("pc", fmt.Sprintf("0x%08x", t.ctx.PC)).Error("thread halted")
		return err
	case control == ControlReturn:
		t.exitCode.Store(t.ctx.GPR[0])
		t.status.Store(int32(StatusReturned))
	default:
		t.status.Store(int32(StatusExited))
	}

	t.logger.WithField("status", t.exitCode.Load()).Debug("thread finished")
	return nil
}

// FastCall runs guest code at addr on this thread and returns when it
// returns through the return stub. Bit 0 of addr selects Thumb. The program
// counter, instruction set, link register, stack pointer and IT state are
// restored however the call ends; on a normal return the stack pointer must
// also have come back unchanged. Arguments and results are passed in the
// context's registers. A call that fails or is stopped returns a
// *FastCallError.
func (t *Thread) FastCall(addr uint32) error {
	if t.returnStub == 0 {
		return ErrNoReturnStub
	}

	ctx := &t.ctx
	pc, iset, lr, sp, it := ctx.PC, ctx.ISet, ctx.GPR[RegLR], ctx.SP(), ctx.IT

	ctx.GPR[RegLR] = t.returnStub
	ctx.Jump(addr)

	t.depth++
	control, err := t.loop()
	t.depth--

	calleeSP := ctx.SP()
	ctx.PC, ctx.ISet, ctx.GPR[RegLR], ctx.GPR[RegSP], ctx.IT = pc, iset, lr, sp, it
	ctx.branched = false

	switch {
	case err != nil:
		return &FastCallError{Addr: addr, Err: err}
	case control == ControlExit:
		t.signal(ControlExit)
		return nil
	case calleeSP != sp:
		return fmt.Errorf("%w: 0x%08x before, 0x%08x after call to 0x%08x", ErrStackMismatch, sp, calleeSP, addr)
	}
	return nil
}

// Depth returns the number of native-to-guest calls in progress.
func (t *Thread) Depth() int { return t.depth }
