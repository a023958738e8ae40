package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armv7/config"
	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/hle"
	"github.com/sarchlab/armv7/icache"
	"github.com/sarchlab/armv7/kernel"
	"github.com/sarchlab/armv7/loader"
)

// Streams behind guest descriptors 0, 1 and 2.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// addressSpace is guest memory that may hold host resources.
type addressSpace interface {
	emu.AddressSpace
	io.Closer
}

type sparseSpace struct{ *emu.SparseMemory }

func (sparseSpace) Close() error { return nil }

func newAddressSpace(backend string) (addressSpace, error) {
	if backend == config.BackendMmap {
		return emu.NewMappedMemory()
	}
	return sparseSpace{emu.NewSparseMemory()}, nil
}

// argBlock packs args as consecutive NUL-terminated strings.
func argBlock(args []string) []byte {
	var b []byte
	for _, a := range args {
		b = append(append(b, a...), 0)
	}
	return b
}

// result is the outcome of running a program.
type result struct {
	ExitStatus   uint32
	Instructions uint64
	Main         *kernel.Thread
}

// execute loads prog into a fresh address space and runs it until every
// thread has finished.
func execute(ctx context.Context, prog *loader.Program, cfg *config.Config, args []string, logger *logrus.Entry) (*result, error) {
	mem, err := newAddressSpace(cfg.MemoryBackend)
	if err != nil {
		return nil, err
	}
	defer func() { _ = mem.Close() }()

	if err := prog.LoadInto(mem); err != nil {
		return nil, err
	}

	table := hle.NewTable(hle.WithTableLogger(logger))
	monitor := emu.NewMonitor()
	monitor.BreakOnStore = cfg.BreakReservationOnStore

	files := kernel.NewFDTable(cfg.FileRoot, stdin, stdout, stderr)
	defer files.CloseAll()

	opts := []kernel.Option{
		kernel.WithLogger(logger),
		kernel.WithMonitor(monitor),
		kernel.WithFiles(files),
		kernel.WithDefaultStackSize(cfg.MainStackSize),
	}
	if cfg.MaxInstructions > 0 {
		opts = append(opts, kernel.WithThreadOptions(emu.WithMaxInstructions(cfg.MaxInstructions)))
	}
	if dc := cfg.DecodeCache; dc.Enabled {
		cacheConfig := icache.Config{
			Size:          dc.Sets * dc.Ways * dc.BlockSize,
			Associativity: dc.Ways,
			BlockSize:     dc.BlockSize,
		}
		opts = append(opts, kernel.WithFetcherFactory(icache.Factory(cacheConfig, &icache.Epoch{})))
	}
	if prog.TLS != nil {
		tls, err := kernel.NewTLS(mem, prog.TLS.Data, prog.TLS.MemSize, cfg.TLSSlots, kernel.WithTLSLogger(logger))
		if err != nil {
			return nil, err
		}
		opts = append(opts, kernel.WithTLS(tls))
	}

	sched, err := kernel.NewScheduler(mem, table, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := prog.Link(mem, table, cfg.Imports, logger); err != nil {
		return nil, err
	}

	mainThread, err := sched.Spawn("main", prog.EntryPoint, cfg.MainPriority, cfg.MainStackSize, argBlock(args))
	if err != nil {
		return nil, err
	}

	res := &result{Main: mainThread}
	err = sched.Run(ctx)
	res.ExitStatus = mainThread.ExitStatus()
	res.Instructions = mainThread.InstructionCount()
	if err != nil {
		return res, fmt.Errorf("run: %w", err)
	}
	return res, nil
}
