// Package abi defines the calling convention between the guest module and
// its host: packed pointer/length values, NUL-terminated strings, and the
// guest-side allocator exported as malloc/free.
package abi

import (
	"fmt"
	"strconv"
)

// PtrHighBits is the shift applied to the pointer half of a packed value.
const PtrHighBits = 32

// DefaultMaxTotalAllocations caps the bytes the guest allocator hands out.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// EnvMaxTotalAllocations overrides the allocation cap when set in the guest
// environment.
const EnvMaxTotalAllocations = "WASM_MARSHAL_MAX_ALLOC"

// PackPtrLen packs a pointer and length into a single uint64.
// Pointer is stored in the high 32 bits, length in the low 32 bits.
// Panics if ptr is 0 and length > 0, indicating an invalid state.
func PackPtrLen(ptr, length uint32) uint64 {
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid pack - null pointer (0x0) with non-zero length (%d)", length))
	}
	return (uint64(ptr) << PtrHighBits) | uint64(length)
}

// UnpackPtrLen unpacks a uint64 into its original pointer and length.
// Panics if ptr is 0 and length > 0, indicating an invalid packed value.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> PtrHighBits)
	length = uint32(packed)
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid unpack - null pointer (0x0) with non-zero length (%d)", length))
	}
	return ptr, length
}

type settings struct {
	maxTotalAllocations int
}

// Option configures the guest allocator.
type Option func(*settings)

// WithMaxTotalAllocations sets the allocation cap in bytes. Non-positive
// values are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(s *settings) {
		if limit > 0 {
			s.maxTotalAllocations = limit
		}
	}
}

// OptionsFromEnv reads allocator settings from the environment.
func OptionsFromEnv(getenv func(string) string) ([]Option, error) {
	raw := getenv(EnvMaxTotalAllocations)
	if raw == "" {
		return nil, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("abi: invalid %s %q", EnvMaxTotalAllocations, raw)
	}
	return []Option{WithMaxTotalAllocations(limit)}, nil
}
