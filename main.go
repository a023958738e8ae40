// Package main provides the entry point for armv7.
// armv7 is an ARMv7 Thumb/ARM user-mode interpreter with native (HLE)
// kernel functions.
//
// For the full CLI, use: go run ./cmd/armv7run
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("armv7 - ARMv7 Thumb/ARM interpreter")
	fmt.Println("")
	fmt.Println("Usage: armv7run [options] <program.elf> [args...]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config            Path to a YAML or JSON run configuration")
	fmt.Println("  -max-instructions  Stop each thread after this many instructions")
	fmt.Println("  -v                 Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/armv7run' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/armv7run' instead.")
	}
}
