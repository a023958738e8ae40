package hle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/armv7/emu"
	"github.com/sirupsen/logrus"
)

// ErrUnknownFunction is returned for a HACK index with no callable entry.
var ErrUnknownFunction = errors.New("unknown native function")

// Flags describe the state of a native implementation.
type Flags uint8

// Function flags.
const (
	// FlagPartial marks a function whose implementation is incomplete. Calls
	// are logged as warnings.
	FlagPartial Flags = 1 << iota
	// FlagPlaceholder marks an unresolved import.
	FlagPlaceholder
)

// Function is an entry of the function table.
type Function struct {
	Index  uint32
	Module string
	Name   string
	NID    uint32
	Flags  Flags
	Params []Location

	call NativeFunc
}

type funcKey struct {
	module string
	nid    uint32
}

// Table is the process-wide, append-only list of native functions. Index 0
// is invalid and index 1 is the return-from-native-call sentinel. Lookups by
// index are lock-free; appends are serialized.
type Table struct {
	mu      sync.Mutex
	entries atomic.Pointer[[]*Function]
	byNID   map[funcKey]uint32
	logger  *logrus.Entry
}

// TableOption is a functional option for configuring a Table.
type TableOption func(*Table)

// WithTableLogger sets the logger used for placeholder and partial calls
// made outside a thread context.
func WithTableLogger(l *logrus.Entry) TableOption {
	return func(t *Table) {
		t.logger = l
	}
}

// NewTable creates a table holding only the reserved entries.
func NewTable(opts ...TableOption) *Table {
	t := &Table{byNID: make(map[funcKey]uint32)}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	reserved := []*Function{
		{Index: emu.InvalidIndex, Name: "invalid"},
		{Index: emu.ReturnIndex, Name: "return"},
	}
	t.entries.Store(&reserved)
	return t
}

func (t *Table) snapshot() []*Function { return *t.entries.Load() }

// Len returns the number of entries, reserved ones included.
func (t *Table) Len() int { return len(t.snapshot()) }

// Function returns the entry at index.
func (t *Table) Function(index uint32) (*Function, bool) {
	entries := t.snapshot()
	if index >= uint32(len(entries)) {
		return nil, false
	}
	return entries[index], true
}

// append adds fn under t.mu and publishes a new snapshot.
func (t *Table) append(fn *Function) uint32 {
	old := t.snapshot()
	next := make([]*Function, len(old), len(old)+1)
	copy(next, old)

	fn.Index = uint32(len(next))
	next = append(next, fn)
	t.entries.Store(&next)
	return fn.Index
}

// Register binds fn (see bind for accepted signatures) as module.name with
// the given NID and returns its index.
func (t *Table) Register(module, name string, nid uint32, fn any, flags ...Flags) (uint32, error) {
	call, params, err := bind(fn)
	if err != nil {
		return 0, fmt.Errorf("register %s.%s: %w", module, name, err)
	}

	f := &Function{Module: module, Name: name, NID: nid, Params: params, call: call}
	for _, fl := range flags {
		f.Flags |= fl
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := funcKey{module, nid}
	if idx, ok := t.byNID[key]; ok {
		existing := t.snapshot()[idx]
		if existing.Flags&FlagPlaceholder == 0 {
			return 0, fmt.Errorf("register %s.%s: NID 0x%08X already bound to %s", module, name, nid, existing.Name)
		}
	}

	idx := t.append(f)
	t.byNID[key] = idx
	return idx, nil
}

// MustRegister is Register that panics on error, for static tables.
func (t *Table) MustRegister(module, name string, nid uint32, fn any, flags ...Flags) uint32 {
	idx, err := t.Register(module, name, nid, fn, flags...)
	if err != nil {
		panic(err)
	}
	return idx
}

// Lookup returns the index bound to module and nid.
func (t *Table) Lookup(module string, nid uint32) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byNID[funcKey{module, nid}]
	return idx, ok
}

// Resolve returns the index of module/nid, appending a placeholder entry
// that logs a warning and returns 0 if it is not known. name may be empty.
func (t *Table) Resolve(module string, nid uint32, name string) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := funcKey{module, nid}
	if idx, ok := t.byNID[key]; ok {
		return idx
	}

	f := &Function{Module: module, Name: name, NID: nid, Flags: FlagPlaceholder}
	f.call = func(th *emu.Thread) error {
		th.Logger().WithFields(logrus.Fields{
			"func": t.Name(f.Index),
			"lr":   fmt.Sprintf("0x%08x", th.Context().LR()),
		}).Warn("unresolved import called")
		th.Context().GPR[0] = 0
		return nil
	}

	idx := t.append(f)
	t.byNID[key] = idx
	t.logger.WithField("func", t.Name(idx)).Debug("unresolved import")
	return idx
}

// Name returns "Module.name", or "Module.0xNID" for unnamed entries.
func (t *Table) Name(index uint32) string {
	f, ok := t.Function(index)
	if !ok {
		return fmt.Sprintf("#%d", index)
	}

	name := f.Name
	if name == "" {
		name = fmt.Sprintf("0x%08X", f.NID)
	}
	if f.Module == "" {
		return name
	}
	return f.Module + "." + name
}

// CallFunction implements emu.FunctionCaller.
func (t *Table) CallFunction(th *emu.Thread, index uint32) error {
	f, ok := t.Function(index)
	if !ok || f.call == nil {
		return fmt.Errorf("%w: #%d", ErrUnknownFunction, index)
	}

	log := th.Logger()
	if f.Flags&FlagPartial != 0 {
		log.WithField("func", t.Name(index)).Warn("partially implemented function called")
	} else if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		log.WithFields(logrus.Fields{
			"func": t.Name(index),
			"lr":   fmt.Sprintf("0x%08x", th.Context().LR()),
		}).Debug("native call")
	}

	if err := f.call(th); err != nil {
		return fmt.Errorf("%s: %w", t.Name(index), err)
	}
	return nil
}

// Module registers functions under one module name.
type Module struct {
	Name  string
	table *Table
}

// Module returns a registration helper for name.
func (t *Table) Module(name string) *Module {
	return &Module{Name: name, table: t}
}

// Register registers fn in the module.
func (m *Module) Register(nid uint32, name string, fn any, flags ...Flags) (uint32, error) {
	return m.table.Register(m.Name, name, nid, fn, flags...)
}
