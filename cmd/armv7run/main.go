// Package main provides the entry point for armv7run, which runs a 32-bit
// ARM ELF executable on the interpreter with native kernel functions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armv7/config"
	"github.com/sarchlab/armv7/loader"
)

var (
	configPath      = flag.String("config", "", "Path to a YAML or JSON run configuration")
	verbose         = flag.Bool("v", false, "Verbose output")
	maxInstructions = flag.Uint64("max-instructions", 0, "Stop each thread after this many instructions")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: armv7run [options] <program.elf> [args...]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *maxInstructions > 0 {
		cfg.MaxInstructions = *maxInstructions
	}

	logger := logrus.New()
	logger.SetLevel(cfg.Level())
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	log := logrus.NewEntry(logger)

	programPath := flag.Arg(0)
	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	res, err := execute(ctx, prog, cfg, flag.Args(), log)
	stop()

	if err != nil {
		log.WithError(err).Error("program failed")
		if res != nil && *verbose {
			fmt.Fprintf(os.Stderr, "\nMain thread state:\n%s\n", res.Main.Context())
		}
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Exit status: %d\n", int32(res.ExitStatus))
		fmt.Printf("Instructions executed: %d\n", res.Instructions)
	}
	os.Exit(int(int32(res.ExitStatus)))
}
