package marshal

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

// LengthFunc computes an array's element count from the call's arguments.
type LengthFunc func(args []any) (int, error)

// ArrayType is a contiguous run of value-type elements in guest memory.
//
// The element count comes from the caller's slice when one is supplied, and
// otherwise from a fixed length or a LengthFunc. A fixed length must match
// any supplied slice.
type ArrayType struct {
	elem       ValueType
	length     int
	lengthFrom LengthFunc
}

// ArrayOption configures an ArrayType.
type ArrayOption func(*ArrayType)

// WithLength fixes the element count.
func WithLength(n int) ArrayOption {
	return func(a *ArrayType) {
		a.length = n
	}
}

// WithLengthFrom derives the element count from the call's arguments.
func WithLengthFrom(fn LengthFunc) ArrayOption {
	return func(a *ArrayType) {
		a.lengthFrom = fn
	}
}

// WithLengthArg takes the element count from the integer argument at index.
func WithLengthArg(index int) ArrayOption {
	return WithLengthFrom(func(args []any) (int, error) {
		if index >= len(args) {
			return 0, fmt.Errorf("length argument %d missing", index)
		}
		switch n := args[index].(type) {
		case int:
			return n, nil
		case int32:
			return int(n), nil
		case uint32:
			return int(n), nil
		case int64:
			return int(n), nil
		}
		return 0, fmt.Errorf("length argument %d is %T", index, args[index])
	})
}

// ArrayOf returns an array type of elem.
func ArrayOf(elem ValueType, opts ...ArrayOption) *ArrayType {
	a := &ArrayType{elem: elem, length: -1}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Mangle implements Type.
func (a *ArrayType) Mangle() string {
	return "a(" + a.elem.Mangle() + ")"
}

// Marshal implements ReferenceType.
func (a *ArrayType) Marshal(ctx context.Context, mm *MemoryManager, f Frame) (uint32, error) {
	rv, err := a.slice(f.Value())
	if err != nil {
		return 0, err
	}
	n, err := a.count(rv, f)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, uint32(n)*a.elem.Size())
	for i := 0; i < n; i++ {
		if err := a.elem.Put(buf[uint32(i)*a.elem.Size():], rv.Index(i).Interface()); err != nil {
			return 0, fmt.Errorf("element %d: %w", i, err)
		}
	}

	ptr, err := mm.Malloc(ctx, uint32(len(buf)))
	if err != nil {
		return 0, err
	}
	if err := mm.Write(ptr, buf); err != nil {
		_ = mm.Free(ctx, ptr)
		return 0, err
	}
	return ptr, nil
}

// Alloc implements ReferenceType.
func (a *ArrayType) Alloc(ctx context.Context, mm *MemoryManager, f Frame) (uint32, error) {
	rv, err := a.slice(f.Value())
	if err != nil {
		return 0, err
	}
	n, err := a.count(rv, f)
	if err != nil {
		return 0, err
	}
	return mm.Malloc(ctx, uint32(n)*a.elem.Size())
}

// Unmarshal implements ReferenceType. It returns a slice of the element's
// Go type, e.g. []float64.
func (a *ArrayType) Unmarshal(ctx context.Context, mm *MemoryManager, ptr uint32, f Frame) (out any, err error) {
	if ptr == 0 {
		return nil, errors.ErrNullPointer
	}
	defer func() {
		if freeErr := mm.Free(ctx, ptr); err == nil {
			err = freeErr
		}
	}()

	rv, err := a.slice(f.Value())
	if err != nil {
		return nil, err
	}
	n, err := a.count(rv, f)
	if err != nil {
		return nil, err
	}

	size := a.elem.Size()
	buf, err := mm.Read(ptr, uint32(n)*size)
	if err != nil {
		return nil, err
	}

	result := reflect.MakeSlice(reflect.SliceOf(a.elem.GoType()), n, n)
	for i := 0; i < n; i++ {
		result.Index(i).Set(reflect.ValueOf(a.elem.Get(buf[uint32(i)*size:])))
	}
	return result.Interface(), nil
}

// Free implements ReferenceType.
func (a *ArrayType) Free(ctx context.Context, mm *MemoryManager, ptr uint32, _ Frame) error {
	return mm.Free(ctx, ptr)
}

// CopyOut implements ReferenceType. dst may be a slice, whose elements are
// overwritten in place, or a pointer to a slice, which is replaced.
func (a *ArrayType) CopyOut(dst, v any) error {
	src := reflect.ValueOf(v)
	d := reflect.ValueOf(dst)
	switch {
	case d.Kind() == reflect.Pointer && d.Elem().Kind() == reflect.Slice && d.Elem().Type() == src.Type():
		d.Elem().Set(src)
	case d.Kind() == reflect.Slice && d.Type() == src.Type():
		reflect.Copy(d, src)
	default:
		return fmt.Errorf("cannot copy %s into %T", a.Mangle(), dst)
	}
	return nil
}

// slice unwraps the caller's argument. A nil argument is allowed for
// outputs whose length is known from the type.
func (a *ArrayType) slice(v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Value{}, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, a.Mangle())
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() && a.hasImpliedLength() {
		return reflect.Value{}, nil
	}
	return rv, nil
}

func (a *ArrayType) hasImpliedLength() bool {
	return a.length >= 0 || a.lengthFrom != nil
}

func (a *ArrayType) count(rv reflect.Value, f Frame) (int, error) {
	if rv.IsValid() {
		n := rv.Len()
		if a.length >= 0 && a.length != n {
			return 0, fmt.Errorf("array has %d elements, type requires %d", n, a.length)
		}
		return n, nil
	}
	switch {
	case a.length >= 0:
		return a.length, nil
	case a.lengthFrom != nil:
		n, err := a.lengthFrom(f.Args)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, fmt.Errorf("negative array length %d", n)
		}
		return n, nil
	}
	return 0, fmt.Errorf("unknown length for %s", a.Mangle())
}
