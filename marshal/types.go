package marshal

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/tetratelabs/wazero/api"
)

// Frame is the caller's view of one invocation: the unmarshalled
// arguments and the index of the one being converted (-1 for the return
// value).
type Frame struct {
	Args  []any
	Index int
}

// Value returns the caller's argument at f.Index, or nil for the return
// value.
func (f Frame) Value() any {
	if f.Index < 0 || f.Index >= len(f.Args) {
		return nil
	}
	return f.Args[f.Index]
}

// Type is a marshallable type.
type Type interface {
	// Mangle returns the type's short name used for overload resolution.
	Mangle() string
}

// ValueType is passed directly as a wasm parameter.
type ValueType interface {
	Type
	// Size is the width of one element in linear memory.
	Size() uint32
	// GoType is the Go type values decode to.
	GoType() reflect.Type
	// Encode converts v to a wasm parameter.
	Encode(v any) (uint64, error)
	// Decode converts a wasm result.
	Decode(raw uint64) any
	// Put stores v little-endian in buf.
	Put(buf []byte, v any) error
	// Get loads a value from buf.
	Get(buf []byte) any
}

// ReferenceType lives in guest memory and is passed by address.
type ReferenceType interface {
	Type
	// Marshal copies the caller's value into newly allocated guest memory.
	Marshal(ctx context.Context, mm *MemoryManager, f Frame) (uint32, error)
	// Alloc reserves guest memory for an output argument.
	Alloc(ctx context.Context, mm *MemoryManager, f Frame) (uint32, error)
	// Unmarshal reads the value at ptr and frees it.
	Unmarshal(ctx context.Context, mm *MemoryManager, ptr uint32, f Frame) (any, error)
	// Free releases the memory at ptr without reading it.
	Free(ctx context.Context, mm *MemoryManager, ptr uint32, f Frame) error
	// CopyOut stores an unmarshalled value into the caller's argument.
	CopyOut(dst, v any) error
}

type scalar[T int32 | uint32 | int64 | uint64 | float32 | float64] struct {
	name    string
	size    uint32
	encode  func(T) uint64
	decode  func(uint64) T
	convert func(any) (T, bool)
}

func (s scalar[T]) Mangle() string       { return s.name }
func (s scalar[T]) Size() uint32         { return s.size }
func (s scalar[T]) GoType() reflect.Type { return reflect.TypeFor[T]() }

func (s scalar[T]) Encode(v any) (uint64, error) {
	x, ok := s.convert(v)
	if !ok {
		return 0, fmt.Errorf("cannot use %T as %s", v, s.name)
	}
	return s.encode(x), nil
}

func (s scalar[T]) Decode(raw uint64) any {
	return s.decode(raw)
}

func (s scalar[T]) Put(buf []byte, v any) error {
	raw, err := s.Encode(v)
	if err != nil {
		return err
	}
	switch s.size {
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(raw))
	default:
		binary.LittleEndian.PutUint64(buf, raw)
	}
	return nil
}

func (s scalar[T]) Get(buf []byte) any {
	if s.size == 4 {
		return s.decode(uint64(binary.LittleEndian.Uint32(buf)))
	}
	return s.decode(binary.LittleEndian.Uint64(buf))
}

// Scalar types.
var (
	Int32 ValueType = scalar[int32]{
		name: "i32", size: 4,
		encode: api.EncodeI32,
		decode: func(r uint64) int32 { return int32(uint32(r)) },
		convert: func(v any) (int32, bool) {
			switch x := v.(type) {
			case int32:
				return x, true
			case int:
				return int32(x), x >= math.MinInt32 && x <= math.MaxInt32
			}
			return 0, false
		},
	}
	Uint32 ValueType = scalar[uint32]{
		name: "u32", size: 4,
		encode: api.EncodeU32,
		decode: api.DecodeU32,
		convert: func(v any) (uint32, bool) {
			switch x := v.(type) {
			case uint32:
				return x, true
			case int:
				return uint32(x), x >= 0 && x <= math.MaxUint32
			case uint:
				return uint32(x), x <= math.MaxUint32
			}
			return 0, false
		},
	}
	Int64 ValueType = scalar[int64]{
		name: "i64", size: 8,
		encode: api.EncodeI64,
		decode: func(r uint64) int64 { return int64(r) },
		convert: func(v any) (int64, bool) {
			switch x := v.(type) {
			case int64:
				return x, true
			case int:
				return int64(x), true
			}
			return 0, false
		},
	}
	Uint64 ValueType = scalar[uint64]{
		name: "u64", size: 8,
		encode: func(x uint64) uint64 { return x },
		decode: func(r uint64) uint64 { return r },
		convert: func(v any) (uint64, bool) {
			switch x := v.(type) {
			case uint64:
				return x, true
			case uint:
				return uint64(x), true
			}
			return 0, false
		},
	}
	Float32 ValueType = scalar[float32]{
		name: "f32", size: 4,
		encode: api.EncodeF32,
		decode: api.DecodeF32,
		convert: func(v any) (float32, bool) {
			x, ok := v.(float32)
			return x, ok
		},
	}
	Float64 ValueType = scalar[float64]{
		name: "f64", size: 8,
		encode: api.EncodeF64,
		decode: api.DecodeF64,
		convert: func(v any) (float64, bool) {
			switch x := v.(type) {
			case float64:
				return x, true
			case float32:
				return float64(x), true
			}
			return 0, false
		},
	}
)

type voidType struct{}

func (voidType) Mangle() string { return "v0" }

// Void is the return type of exports that return nothing.
var Void Type = voidType{}
