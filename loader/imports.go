package loader

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/hle"
)

// Import binds the stub at a program symbol to a native function.
type Import struct {
	Module string `yaml:"module" json:"module"`
	Name   string `yaml:"name" json:"name"`
	NID    uint32 `yaml:"nid" json:"nid"`
	// Symbol names the stub. Bit 0 of its value selects a Thumb stub.
	Symbol string `yaml:"symbol" json:"symbol"`
}

// Binding records a patched stub.
type Binding struct {
	Import
	Addr  uint32
	Index uint32
	Thumb bool
}

// Link patches the stub of every import with a call to the function table
// entry for its module and NID. Imports with no native implementation get a
// placeholder entry.
func (p *Program) Link(mem emu.Memory, table *hle.Table, imports []Import, logger *logrus.Entry) ([]Binding, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	bindings := make([]Binding, 0, len(imports))
	for _, imp := range imports {
		sym, ok := p.Symbol(imp.Symbol)
		if !ok {
			return nil, fmt.Errorf("import %s.%s: no symbol %q", imp.Module, imp.Name, imp.Symbol)
		}

		b := Binding{
			Import: imp,
			Addr:   sym &^ 1,
			Index:  table.Resolve(imp.Module, imp.NID, imp.Name),
			Thumb:  sym&1 != 0,
		}
		if err := hle.PatchStub(mem, b.Addr, b.Index, b.Thumb); err != nil {
			return nil, fmt.Errorf("import %s: %w", table.Name(b.Index), err)
		}

		logger.WithFields(logrus.Fields{
			"func": table.Name(b.Index),
			"stub": fmt.Sprintf("0x%08x", b.Addr),
		}).Debug("import linked")
		bindings = append(bindings, b)
	}
	return bindings, nil
}
