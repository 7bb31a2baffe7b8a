package marshal

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

// ArgDef describes one argument of a Prototype.
type ArgDef struct {
	Type   Type
	Input  bool // the guest reads the argument
	Output bool // the guest writes the argument
}

// In is an argument read by the guest.
func In(t Type) ArgDef { return ArgDef{Type: t, Input: true} }

// Out is an argument written by the guest and copied back to the caller.
func Out(t Type) ArgDef { return ArgDef{Type: t, Output: true} }

// InOut is an argument read and written by the guest.
func InOut(t Type) ArgDef { return ArgDef{Type: t, Input: true, Output: true} }

// Func calls a guest export with raw wasm parameters. api.Function.Call
// has this signature.
type Func func(ctx context.Context, params ...uint64) ([]uint64, error)

// Prototype is the signature of a guest export.
type Prototype struct {
	Args    []ArgDef
	Returns Type // nil or Void for no result
}

// NewPrototype returns a prototype for an export returning returns.
func NewPrototype(returns Type, args ...ArgDef) *Prototype {
	return &Prototype{Args: args, Returns: returns}
}

// MangledArgs concatenates the mangled argument types.
func (p *Prototype) MangledArgs() string {
	var b strings.Builder
	for _, a := range p.Args {
		b.WriteString(a.Type.Mangle())
	}
	return b.String()
}

// Mangle returns "<return>_<args>", e.g. "a(f64)_a(f64)a(f64)i32".
func (p *Prototype) Mangle() string {
	ret := Void
	if p.Returns != nil {
		ret = p.Returns
	}
	return ret.Mangle() + "_" + p.MangledArgs()
}

// Invoke marshals args, calls fn and unmarshals the result.
//
// Reference arguments are copied into guest memory (In, InOut) or
// allocated (Out) before the call. After the call, output arguments are
// copied back into the caller's values and every temporary allocation is
// freed. A reference return value is read and then freed; a null return
// yields errors.ErrNullPointer.
func (p *Prototype) Invoke(ctx context.Context, mm *MemoryManager, fn Func, args ...any) (any, error) {
	if len(args) != len(p.Args) {
		return nil, fmt.Errorf("invalid number of arguments: want %d, got %d", len(p.Args), len(args))
	}

	params := make([]uint64, len(args))
	for i, def := range p.Args {
		raw, err := def.marshal(ctx, mm, Frame{Args: args, Index: i})
		if err != nil {
			p.release(ctx, mm, params[:i], args)
			return nil, &errors.MarshalError{Type: def.Type.Mangle(), Argument: i, Err: err}
		}
		params[i] = raw
	}

	results, callErr := fn(ctx, params...)

	var errs []error
	if callErr != nil {
		errs = append(errs, callErr)
	}
	for i, def := range p.Args {
		if err := def.unmarshal(ctx, mm, params[i], Frame{Args: args, Index: i}, callErr == nil); err != nil {
			errs = append(errs, &errors.MarshalError{Type: def.Type.Mangle(), Argument: i, Err: err})
		}
	}
	if len(errs) > 0 {
		return nil, stdErrors.Join(errs...)
	}

	return p.result(ctx, mm, results, args)
}

func (p *Prototype) result(ctx context.Context, mm *MemoryManager, results []uint64, args []any) (any, error) {
	if p.Returns == nil || p.Returns == Void {
		return nil, nil
	}
	if len(results) == 0 {
		return nil, &errors.MarshalError{Type: p.Returns.Mangle(), Argument: -1, Err: stdErrors.New("export returned no value")}
	}

	switch t := p.Returns.(type) {
	case ValueType:
		return t.Decode(results[0]), nil
	case ReferenceType:
		v, err := t.Unmarshal(ctx, mm, uint32(results[0]), Frame{Args: args, Index: -1})
		if err != nil {
			if stdErrors.Is(err, errors.ErrNullPointer) {
				return nil, err
			}
			return nil, &errors.MarshalError{Type: t.Mangle(), Argument: -1, Err: err}
		}
		return v, nil
	}
	return nil, &errors.MarshalError{Type: p.Returns.Mangle(), Argument: -1, Err: stdErrors.New("unsupported return type")}
}

// release frees reference arguments marshalled before a failure.
func (p *Prototype) release(ctx context.Context, mm *MemoryManager, params []uint64, args []any) {
	for i, raw := range params {
		if ref, ok := p.Args[i].Type.(ReferenceType); ok {
			_ = ref.Free(ctx, mm, uint32(raw), Frame{Args: args, Index: i})
		}
	}
}

func (d ArgDef) marshal(ctx context.Context, mm *MemoryManager, f Frame) (uint64, error) {
	switch t := d.Type.(type) {
	case ValueType:
		return t.Encode(f.Value())
	case ReferenceType:
		var (
			ptr uint32
			err error
		)
		switch {
		case d.Input:
			ptr, err = t.Marshal(ctx, mm, f)
		case d.Output:
			ptr, err = t.Alloc(ctx, mm, f)
		default:
			return 0, stdErrors.New("argument must be input and/or output")
		}
		return uint64(ptr), err
	}
	return 0, fmt.Errorf("type %s cannot be an argument", d.Type.Mangle())
}

// unmarshal copies outputs back when copyOut is set and always frees
// reference arguments.
func (d ArgDef) unmarshal(ctx context.Context, mm *MemoryManager, raw uint64, f Frame, copyOut bool) error {
	t, ok := d.Type.(ReferenceType)
	if !ok {
		return nil
	}
	ptr := uint32(raw)
	if !d.Output || !copyOut {
		return t.Free(ctx, mm, ptr, f)
	}
	if f.Value() == nil {
		_ = t.Free(ctx, mm, ptr, f)
		return stdErrors.New("output argument missing")
	}
	v, err := t.Unmarshal(ctx, mm, ptr, f)
	if err != nil {
		return err
	}
	return t.CopyOut(f.Value(), v)
}
