package hle

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/sarchlab/armv7/emu"
)

// ErrBadSignature is returned when a native function's Go signature cannot
// be mapped onto the guest calling convention.
var ErrBadSignature = errors.New("unsupported native function signature")

// NativeFunc is a native function that reads its arguments and writes its
// results through the thread directly.
type NativeFunc func(t *emu.Thread) error

var (
	threadType   = reflect.TypeFor[*emu.Thread]()
	variadicType = reflect.TypeFor[*Variadic]()
	errorType    = reflect.TypeFor[error]()
)

// classify maps a Go parameter or result type to its kind.
func classify(t reflect.Type) (Kind, error) {
	switch t {
	case threadType:
		return KindContext, nil
	case variadicType:
		return KindVariadic, nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Float32:
		return KindGeneral, nil
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return KindPair, nil
	}

	return 0, fmt.Errorf("%w: type %s has no guest representation", ErrBadSignature, t)
}

// fromRaw converts argument bits to a value of type t.
func fromRaw(t reflect.Type, raw uint64) reflect.Value {
	v := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.Bool:
		v.SetBool(uint32(raw) != 0)
	case reflect.Int8:
		v.SetInt(int64(int8(raw)))
	case reflect.Int16:
		v.SetInt(int64(int16(raw)))
	case reflect.Int32:
		v.SetInt(int64(int32(raw)))
	case reflect.Int64:
		v.SetInt(int64(raw))
	case reflect.Uint8:
		v.SetUint(uint64(uint8(raw)))
	case reflect.Uint16:
		v.SetUint(uint64(uint16(raw)))
	case reflect.Uint32:
		v.SetUint(uint64(uint32(raw)))
	case reflect.Uint64:
		v.SetUint(raw)
	case reflect.Float32:
		v.SetFloat(float64(math.Float32frombits(uint32(raw))))
	case reflect.Float64:
		v.SetFloat(math.Float64frombits(raw))
	}

	return v
}

// toRaw converts a result to register bits. Narrow values are extended to
// 32 bits.
func toRaw(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return uint64(uint32(v.Int()))
	case reflect.Int64:
		return uint64(v.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32:
		return uint64(math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		return math.Float64bits(v.Float())
	}
	return 0
}

// binding is a native function adapted to the guest calling convention.
type binding struct {
	params  []Location
	result  Kind
	hasRet  bool
	hasErr  bool
	fn      reflect.Value
	types   []reflect.Type
	tailVar allocator
}

// bind inspects fn and returns a NativeFunc that marshals its arguments and
// results. fn may be a NativeFunc, in which case it is returned as is.
//
// Parameters may be *emu.Thread, *Variadic (last only), integers of at most
// 64 bits, bool, float32 and float64; int, uint and uintptr are rejected
// because their guest width is ambiguous. Results are nothing, a value, an
// error, or a value and an error.
func bind(fn any) (NativeFunc, []Location, error) {
	switch f := fn.(type) {
	case NativeFunc:
		return f, nil, nil
	case func(*emu.Thread) error:
		return f, nil, nil
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, nil, fmt.Errorf("%w: %T is not a function", ErrBadSignature, fn)
	}

	ft := v.Type()
	if ft.IsVariadic() {
		return nil, nil, fmt.Errorf("%w: use *hle.Variadic instead of ...", ErrBadSignature)
	}

	b := &binding{fn: v}
	kinds := make([]Kind, ft.NumIn())
	for i := range kinds {
		k, err := classify(ft.In(i))
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		if k == KindVariadic && i != len(kinds)-1 {
			return nil, nil, fmt.Errorf("%w: *hle.Variadic must be the last parameter", ErrBadSignature)
		}
		kinds[i] = k
		b.types = append(b.types, ft.In(i))
	}

	for i := range kinds {
		loc := b.tailVar.place(kinds[i])
		b.params = append(b.params, loc)
	}

	if err := b.bindResults(ft); err != nil {
		return nil, nil, err
	}

	return b.call, b.params, nil
}

func (b *binding) bindResults(ft reflect.Type) error {
	n := ft.NumOut()
	if n > 2 {
		return fmt.Errorf("%w: at most a value and an error may be returned", ErrBadSignature)
	}

	if n > 0 && ft.Out(n-1) == errorType {
		b.hasErr = true
		n--
	}
	if n == 0 {
		return nil
	}
	if ft.NumOut() == 2 && !b.hasErr {
		return fmt.Errorf("%w: second result must be an error", ErrBadSignature)
	}

	k, err := classify(ft.Out(0))
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}
	if k != KindGeneral && k != KindPair {
		return fmt.Errorf("%w: result of kind %s", ErrBadSignature, k)
	}

	b.hasRet, b.result = true, k
	return nil
}

func (b *binding) call(t *emu.Thread) error {
	args := make([]reflect.Value, len(b.params))
	for i, loc := range b.params {
		switch loc.Kind {
		case KindContext:
			args[i] = reflect.ValueOf(t)
		case KindVariadic:
			args[i] = reflect.ValueOf(&Variadic{t: t, slots: b.tailVar})
		default:
			raw, err := load(t, loc)
			if err != nil {
				return fmt.Errorf("argument %d: %w", i, err)
			}
			args[i] = fromRaw(b.types[i], raw)
		}
	}

	out := b.fn.Call(args)

	if b.hasErr {
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return err
		}
	}
	if b.hasRet {
		store(t, b.result, toRaw(out[0]))
	}
	return nil
}
