//go:build wasip1

package abi

import (
	"sync"
	"unsafe"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

// memoryManager pins every buffer handed across the boundary so the Go GC
// keeps it alive until the host (or guest) calls free.
var memoryManager = struct {
	sync.Mutex
	ptrs           map[uint32][]byte // ptr -> slice reference
	totalAllocated int               // Total bytes currently allocated
	settings
}{
	ptrs:     make(map[uint32][]byte),
	settings: settings{maxTotalAllocations: DefaultMaxTotalAllocations},
}

// Configure applies allocator options.
func Configure(opts ...Option) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	for _, opt := range opts {
		opt(&memoryManager.settings)
	}
}

// malloc reserves size bytes in linear memory for the host. It returns 0
// when the allocation cap would be exceeded.
//
//go:wasmexport malloc
func malloc(size uint32) uint32 {
	ptr, err := Allocate(size)
	if err != nil {
		SetLastError(err)
		return 0
	}
	return ptr
}

// free releases a pointer returned by malloc or by an export. Unknown
// pointers, including 0, are ignored.
//
//go:wasmexport free
func free(ptr uint32) {
	Free(ptr)
}

// Allocate reserves size bytes and pins them until Free. A zero size still
// yields a unique non-null pointer.
func Allocate(size uint32) (uint32, error) {
	n := int(size)
	if n == 0 {
		n = 1
	}

	memoryManager.Lock()
	defer memoryManager.Unlock()

	if memoryManager.totalAllocated+n > memoryManager.maxTotalAllocations {
		return 0, &errors.AllocationError{
			Requested: int(size),
			Current:   memoryManager.totalAllocated,
			Limit:     memoryManager.maxTotalAllocations,
		}
	}

	buf := make([]byte, n)
	//nolint:gosec // G103: linear memory addresses fit in 32 bits on wasm
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))

	memoryManager.ptrs[ptr] = buf
	memoryManager.totalAllocated += n

	return ptr, nil
}

// Free unpins the buffer at ptr. The stored slice length is used for
// accounting so double frees cannot corrupt the counter.
func Free(ptr uint32) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	stored, exists := memoryManager.ptrs[ptr]
	if !exists {
		return
	}

	delete(memoryManager.ptrs, ptr)
	memoryManager.totalAllocated -= len(stored)
	if memoryManager.totalAllocated < 0 {
		memoryManager.totalAllocated = 0
	}
}

// Stats reports the number of live allocations and their total size.
func Stats() (allocations, totalBytes int) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	return len(memoryManager.ptrs), memoryManager.totalAllocated
}

// FreeAllTracked releases every live allocation.
func FreeAllTracked() {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	clear(memoryManager.ptrs)
	memoryManager.totalAllocated = 0
}

// PtrFromBytes copies data into a new allocation and returns it packed with
// its length. It returns 0 for empty data or when allocation fails.
func PtrFromBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	size := uint32(len(data))
	ptr, err := Allocate(size)
	if err != nil {
		SetLastError(err)
		return 0
	}
	copyToMemory(ptr, data)
	return PackPtrLen(ptr, size)
}

// BytesFromPtr returns a copy of the memory described by a packed value.
func BytesFromPtr(packed uint64) []byte {
	ptr, length := UnpackPtrLen(packed)
	if ptr == 0 || length == 0 {
		return nil
	}
	return readFromMemory(ptr, length)
}

// DeallocatePacked frees the allocation behind a packed value.
func DeallocatePacked(packed uint64) {
	ptr, _ := UnpackPtrLen(packed)
	if ptr != 0 {
		Free(ptr)
	}
}

// CString returns a copy of the NUL-terminated byte string at ptr, without
// the terminator. A null pointer yields nil.
func CString(ptr uint32) []byte {
	if ptr == 0 {
		return nil
	}
	var n uintptr
	for *(*byte)(unsafe.Pointer(uintptr(ptr) + n)) != 0 { //nolint:gosec // G103: linear memory scan
		n++
	}
	return readFromMemory(ptr, uint32(n))
}

// NewCString copies data plus a NUL terminator into a new allocation.
func NewCString(data []byte) (uint32, error) {
	ptr, err := Allocate(uint32(len(data) + 1))
	if err != nil {
		return 0, err
	}
	copyToMemory(ptr, data)
	copyToMemory(ptr+uint32(len(data)), []byte{0})
	return ptr, nil
}

// Float64s views n float64 values at ptr. The slice aliases linear memory.
func Float64s(ptr uint32, n int) []float64 {
	if ptr == 0 || n <= 0 {
		return []float64{}
	}
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	return unsafe.Slice((*float64)(unsafe.Pointer(uintptr(ptr))), n)
}

// Allocator hands out float64 buffers from tracked linear memory so they
// can be returned to the host and released with free. Ptr holds the address
// of the most recent allocation.
type Allocator struct {
	Ptr uint32
}

// AllocFloat64s allocates n zeroed float64 values.
func (a *Allocator) AllocFloat64s(n int) ([]float64, error) {
	if n < 0 {
		n = 0
	}
	ptr, err := Allocate(uint32(n * 8))
	if err != nil {
		return nil, err
	}
	a.Ptr = ptr
	return Float64s(ptr, n), nil
}

// copyToMemory copies data to WASM linear memory at the given pointer.
func copyToMemory(ptr uint32, data []byte) {
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	dest := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), len(data))
	copy(dest, data)
}

// readFromMemory reads data from WASM linear memory.
func readFromMemory(ptr uint32, length uint32) []byte {
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	data := make([]byte, length)
	copy(data, src)
	return data
}
