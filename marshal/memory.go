package marshal

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

// Memory is a guest's linear memory. api.Memory satisfies it.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	Size() uint32
}

// Allocator reserves and releases guest memory.
type Allocator interface {
	Malloc(ctx context.Context, size uint32) (uint32, error)
	Free(ctx context.Context, ptr uint32) error
}

// MemoryManager combines a guest's memory with its allocator.
type MemoryManager struct {
	mem   Memory
	alloc Allocator
}

// NewMemoryManager creates a MemoryManager.
func NewMemoryManager(mem Memory, alloc Allocator) *MemoryManager {
	return &MemoryManager{mem: mem, alloc: alloc}
}

// NewModuleMemoryManager binds to the memory and the malloc/free exports of
// an instantiated module.
func NewModuleMemoryManager(mod api.Module) (*MemoryManager, error) {
	mem := mod.Memory()
	if mem == nil {
		return nil, &errors.ExportError{Export: "memory"}
	}
	malloc := mod.ExportedFunction("malloc")
	if malloc == nil {
		return nil, &errors.ExportError{Export: "malloc"}
	}
	free := mod.ExportedFunction("free")
	if free == nil {
		return nil, &errors.ExportError{Export: "free"}
	}
	return NewMemoryManager(mem, &moduleAllocator{malloc: malloc, free: free}), nil
}

type moduleAllocator struct {
	malloc api.Function
	free   api.Function
}

func (a *moduleAllocator) Malloc(ctx context.Context, size uint32) (uint32, error) {
	results, err := a.malloc.Call(ctx, api.EncodeU32(size))
	if err != nil {
		return 0, &errors.ExportError{Export: "malloc", Err: err}
	}
	return api.DecodeU32(results[0]), nil
}

func (a *moduleAllocator) Free(ctx context.Context, ptr uint32) error {
	if _, err := a.free.Call(ctx, api.EncodeU32(ptr)); err != nil {
		return &errors.ExportError{Export: "free", Err: err}
	}
	return nil
}

// Malloc reserves size bytes in the guest. A null result is reported as an
// *errors.AllocationError.
func (m *MemoryManager) Malloc(ctx context.Context, size uint32) (uint32, error) {
	ptr, err := m.alloc.Malloc(ctx, size)
	if err != nil {
		return 0, err
	}
	if ptr == 0 {
		return 0, &errors.AllocationError{Requested: int(size)}
	}
	return ptr, nil
}

// Free releases ptr. Freeing 0 is a no-op.
func (m *MemoryManager) Free(ctx context.Context, ptr uint32) error {
	if ptr == 0 {
		return nil
	}
	return m.alloc.Free(ctx, ptr)
}

// Read returns a copy of byteCount bytes at ptr.
func (m *MemoryManager) Read(ptr, byteCount uint32) ([]byte, error) {
	buf, ok := m.mem.Read(ptr, byteCount)
	if !ok {
		return nil, outOfRange(ptr, byteCount, m.mem.Size())
	}
	return bytes.Clone(buf), nil
}

// Write copies data to ptr.
func (m *MemoryManager) Write(ptr uint32, data []byte) error {
	if !m.mem.Write(ptr, data) {
		return outOfRange(ptr, uint32(len(data)), m.mem.Size())
	}
	return nil
}

// ReadCString returns the bytes at ptr up to, not including, the first NUL.
func (m *MemoryManager) ReadCString(ptr uint32) ([]byte, error) {
	if ptr == 0 {
		return nil, errors.ErrNullPointer
	}
	size := m.mem.Size()
	if ptr >= size {
		return nil, outOfRange(ptr, 1, size)
	}
	tail, ok := m.mem.Read(ptr, size-ptr)
	if !ok {
		return nil, outOfRange(ptr, size-ptr, size)
	}
	end := bytes.IndexByte(tail, 0)
	if end < 0 {
		return nil, fmt.Errorf("unterminated string at 0x%x", ptr)
	}
	return bytes.Clone(tail[:end]), nil
}

// WriteCString allocates len(data)+1 bytes and stores data NUL-terminated.
func (m *MemoryManager) WriteCString(ctx context.Context, data []byte) (uint32, error) {
	size := uint32(len(data) + 1)
	ptr, err := m.Malloc(ctx, size)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	copy(buf, data)
	if err := m.Write(ptr, buf); err != nil {
		_ = m.Free(ctx, ptr)
		return 0, err
	}
	return ptr, nil
}

// ReadFloat64s reads n little-endian float64 values at ptr.
func (m *MemoryManager) ReadFloat64s(ptr uint32, n int) ([]float64, error) {
	buf, err := m.Read(ptr, uint32(n*8))
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}

// WriteFloat64s stores values little-endian at ptr.
func (m *MemoryManager) WriteFloat64s(ptr uint32, values []float64) error {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return m.Write(ptr, buf)
}

func outOfRange(ptr, n, size uint32) error {
	return fmt.Errorf("range 0x%x+%d outside guest memory of %d bytes", ptr, n, size)
}
