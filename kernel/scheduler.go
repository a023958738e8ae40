// Package kernel manages guest threads (creation, stacks and TLS, running
// them concurrently) and guest file descriptors, and registers the kernel
// functions guest code imports.
package kernel

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/hle"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Defaults.
const (
	DefaultStackSize = 0x40000
	DefaultProcessID = 0x10005
	firstThreadID    = 0x40010001
	stackAlign       = 16
)

// Thread is a guest thread known to the scheduler.
type Thread struct {
	*emu.Thread

	Priority int32
	Entry    uint32

	started      atomic.Bool
	deleteOnExit atomic.Bool
	done         chan struct{}
	err          error
}

// Done is closed when the thread has finished running.
func (t *Thread) Done() <-chan struct{} { return t.done }

// Err returns the error that halted the thread. It is valid once Done is
// closed.
func (t *Thread) Err() error { return t.err }

func (t *Thread) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger threads derive theirs from.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithMonitor shares an exclusive monitor with other schedulers.
func WithMonitor(m *emu.Monitor) Option {
	return func(s *Scheduler) {
		s.monitor = m
	}
}

// WithTLS gives every thread a slot of tls.
func WithTLS(tls *TLS) Option {
	return func(s *Scheduler) {
		s.tls = tls
	}
}

// WithFetcherFactory gives every thread its own instruction fetcher.
func WithFetcherFactory(f func(emu.Memory) emu.InstructionFetcher) Option {
	return func(s *Scheduler) {
		s.newFetcher = f
	}
}

// WithThreadOptions appends options applied to every created thread.
func WithThreadOptions(opts ...emu.ThreadOption) Option {
	return func(s *Scheduler) {
		s.threadOpts = append(s.threadOpts, opts...)
	}
}

// WithDefaultStackSize sets the stack size used when a thread asks for 0.
func WithDefaultStackSize(size uint32) Option {
	return func(s *Scheduler) {
		s.stackSize = size
	}
}

// WithProcessID sets the value GetProcessId reports.
func WithProcessID(pid uint32) Option {
	return func(s *Scheduler) {
		s.pid = pid
	}
}

// WithFiles sets the descriptor table behind the guest I/O functions.
func WithFiles(files *FDTable) Option {
	return func(s *Scheduler) {
		s.files = files
	}
}

// Scheduler owns the guest threads of one process and runs each started
// thread on its own goroutine.
type Scheduler struct {
	mem        emu.AddressSpace
	table      *hle.Table
	monitor    *emu.Monitor
	tls        *TLS
	files      *FDTable
	logger     *logrus.Entry
	newFetcher func(emu.Memory) emu.InstructionFetcher
	threadOpts []emu.ThreadOption
	stackSize  uint32
	pid        uint32
	returnStub uint32

	mu      sync.Mutex
	threads map[uint32]*Thread
	nextID  uint32
	group   *errgroup.Group
	runCtx  context.Context
	pending []*Thread
}

// NewScheduler creates a scheduler for mem, writes its return stub and
// registers the thread-manager and I/O functions in table.
func NewScheduler(mem emu.AddressSpace, table *hle.Table, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		mem:       mem,
		table:     table,
		stackSize: DefaultStackSize,
		pid:       DefaultProcessID,
		threads:   make(map[uint32]*Thread),
		nextID:    firstThreadID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if s.monitor == nil {
		s.monitor = emu.NewMonitor()
	}
	if s.files == nil {
		s.files = NewFDTable("", os.Stdin, os.Stdout, os.Stderr)
	}

	addr, err := mem.Alloc(hle.StubSize(true), stackAlign)
	if err != nil {
		return nil, fmt.Errorf("allocate return stub: %w", err)
	}
	if s.returnStub, err = hle.WriteReturnStub(mem, addr); err != nil {
		return nil, err
	}

	if err := s.register(table); err != nil {
		return nil, err
	}
	return s, nil
}

// ReturnStub returns the address guest code returns to at the end of a
// thread entry or a native-to-guest call.
func (s *Scheduler) ReturnStub() uint32 { return s.returnStub }

// Files returns the descriptor table.
func (s *Scheduler) Files() *FDTable { return s.files }

// TLS returns the slot table, or nil.
func (s *Scheduler) TLS() *TLS { return s.tls }

// ProcessID returns the process id.
func (s *Scheduler) ProcessID() uint32 { return s.pid }

// Thread looks up a thread by id.
func (s *Scheduler) Thread(id uint32) (*Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidThread, id)
	}
	return th, nil
}

// NumThreads returns the number of threads not yet deleted.
func (s *Scheduler) NumThreads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// CreateThread creates a dormant thread that will start at entry. Bit 0 of
// entry selects Thumb. A stackSize of 0 selects the default.
func (s *Scheduler) CreateThread(name string, entry uint32, priority int32, stackSize uint32) (*Thread, error) {
	if stackSize == 0 {
		stackSize = s.stackSize
	}
	stackSize = (stackSize + stackAlign - 1) &^ (stackAlign - 1)

	stack, err := s.mem.Alloc(stackSize, stackAlign)
	if err != nil {
		s.logger.WithError(err).WithField("size", stackSize).Error("stack allocation failed")
		return nil, fmt.Errorf("%w: %d bytes for %q: %w", ErrStackAlloc, stackSize, name, err)
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.mu.Unlock()

	tls, err := s.tls.Alloc(id)
	if err != nil {
		_ = s.mem.Free(stack)
		return nil, fmt.Errorf("create thread %q: %w", name, err)
	}

	opts := []emu.ThreadOption{
		emu.WithID(id),
		emu.WithName(name),
		emu.WithLogger(s.logger),
		emu.WithMonitor(s.monitor),
		emu.WithFunctionCaller(s.table),
		emu.WithReturnStub(s.returnStub),
	}
	if s.newFetcher != nil {
		opts = append(opts, emu.WithFetcher(s.newFetcher(s.mem)))
	}
	opts = append(opts, s.threadOpts...)

	th := &Thread{
		Thread:   emu.NewThread(s.mem, opts...),
		Priority: priority,
		Entry:    entry,
		done:     make(chan struct{}),
	}

	ctx := th.Context()
	ctx.StackAddr, ctx.StackSize = stack, stackSize
	ctx.GPR[emu.RegSP] = stack + stackSize
	ctx.GPR[emu.RegLR] = s.returnStub
	ctx.TLS = tls
	ctx.Jump(entry)

	s.mu.Lock()
	s.threads[id] = th
	s.mu.Unlock()

	th.Logger().WithFields(logrus.Fields{
		"entry": fmt.Sprintf("0x%08x", entry),
		"stack": fmt.Sprintf("0x%08x", stack),
		"tls":   fmt.Sprintf("0x%08x", tls),
	}).Debug("thread created")
	return th, nil
}

// StartThread copies args onto the thread's stack and schedules it. The
// entry receives the argument size in r0 and the copied block in r1. A
// thread started before Run is launched when Run begins.
func (s *Scheduler) StartThread(id uint32, args []byte) error {
	th, err := s.Thread(id)
	if err != nil {
		return err
	}
	if !th.started.CompareAndSwap(false, true) {
		return fmt.Errorf("start thread 0x%08x: %w", id, ErrNotDormant)
	}

	ctx := th.Context()
	ctx.GPR[0] = uint32(len(args))
	ctx.GPR[1] = 0
	if len(args) > 0 {
		sp := (ctx.SP() - uint32(len(args))) &^ 7
		if sp < ctx.StackAddr || sp > ctx.SP() {
			th.started.Store(false)
			return fmt.Errorf("%w: %d-byte argument block does not fit", ErrStackAlloc, len(args))
		}
		if err := s.mem.WriteBytes(sp, args); err != nil {
			th.started.Store(false)
			return fmt.Errorf("copy thread arguments: %w", err)
		}
		ctx.GPR[emu.RegSP] = sp
		ctx.GPR[1] = sp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != nil {
		s.launch(th)
	} else {
		s.pending = append(s.pending, th)
	}
	return nil
}

// Spawn creates and starts a thread.
func (s *Scheduler) Spawn(name string, entry uint32, priority int32, stackSize uint32, args []byte) (*Thread, error) {
	th, err := s.CreateThread(name, entry, priority, stackSize)
	if err != nil {
		return nil, err
	}
	if err := s.StartThread(th.ID(), args); err != nil {
		return nil, err
	}
	return th, nil
}

// launch runs th in the current group. The caller holds s.mu.
func (s *Scheduler) launch(th *Thread) {
	ctx := s.runCtx
	s.group.Go(func() error {
		defer close(th.done)

		th.err = th.Run(ctx)
		if th.deleteOnExit.Load() {
			s.release(th)
		}
		if th.err != nil {
			return fmt.Errorf("thread 0x%08x (%s): %w", th.ID(), th.Name(), th.err)
		}
		return nil
	})
}

// Run runs every started thread, including threads started while it runs,
// until all have finished. The first thread to fail stops the others and
// its error is returned.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	s.mu.Lock()
	if s.group != nil {
		s.mu.Unlock()
		return ErrRunning
	}
	s.group, s.runCtx = g, gctx
	for _, th := range s.pending {
		s.launch(th)
	}
	s.pending = nil
	s.mu.Unlock()

	err := g.Wait()

	s.mu.Lock()
	s.group, s.runCtx = nil, nil
	s.mu.Unlock()
	return err
}

// runContext returns the context of the current run.
func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil {
		return context.Background()
	}
	return s.runCtx
}

// release forgets th and returns its stack and TLS slot.
func (s *Scheduler) release(th *Thread) {
	s.mu.Lock()
	delete(s.threads, th.ID())
	s.mu.Unlock()

	ctx := th.Context()
	if ctx.TLS != 0 {
		_ = s.tls.Free(ctx.TLS)
	}
	if err := s.mem.Free(ctx.StackAddr); err != nil {
		th.Logger().WithError(err).Error("free thread stack")
	}
	th.Logger().Debug("thread deleted")
}

// DeleteThread deletes a thread that is dormant or has finished.
func (s *Scheduler) DeleteThread(id uint32) error {
	th, err := s.Thread(id)
	if err != nil {
		return err
	}
	if th.started.Load() && !th.finished() {
		return fmt.Errorf("delete thread 0x%08x: %w", id, ErrNotDormant)
	}
	s.release(th)
	return nil
}

// ExitThread ends the thread with status once the current native call
// returns.
func (s *Scheduler) ExitThread(t *emu.Thread, status uint32) {
	t.Exit(status)
}

// ExitDeleteThread is ExitThread that also deletes the thread.
func (s *Scheduler) ExitDeleteThread(t *emu.Thread, status uint32) error {
	th, err := s.Thread(t.ID())
	if err != nil {
		return err
	}
	th.deleteOnExit.Store(true)
	t.Exit(status)
	return nil
}

// WaitThreadEnd blocks until the thread finishes and returns its exit
// status.
func (s *Scheduler) WaitThreadEnd(ctx context.Context, id uint32) (uint32, error) {
	th, err := s.Thread(id)
	if err != nil {
		return 0, err
	}

	select {
	case <-th.done:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if th.err != nil {
		return 0, th.err
	}
	return th.ExitStatus(), nil
}

// GetThreadExitStatus returns the exit status of a finished thread.
func (s *Scheduler) GetThreadExitStatus(id uint32) (uint32, error) {
	th, err := s.Thread(id)
	if err != nil {
		return 0, err
	}
	if !th.started.Load() {
		return 0, ErrDormant
	}
	if !th.finished() {
		return 0, ErrNotDormant
	}
	return th.ExitStatus(), nil
}

// DelayThread sleeps for d or until ctx is done.
func (s *Scheduler) DelayThread(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
