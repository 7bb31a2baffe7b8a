// Package numeric implements elementwise arithmetic over float64 sequences.
//
// Add returns a newly allocated result; AddInto writes into a caller-owned
// buffer. Both process exactly n elements and check that every sequence
// holds at least n of them before touching any output.
package numeric

import (
	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

// Allocator provides the backing storage for results of Add.
// Implementations return an error when the request cannot be satisfied.
type Allocator interface {
	AllocFloat64s(n int) ([]float64, error)
}

// HeapAllocator allocates results on the Go heap.
type HeapAllocator struct{}

// AllocFloat64s implements Allocator.
func (HeapAllocator) AllocFloat64s(n int) ([]float64, error) {
	return make([]float64, n), nil
}

// Add returns a new slice with result[i] = a[i] + b[i] for i in [0, n).
func Add(a, b []float64, n int) ([]float64, error) {
	return AddWith(HeapAllocator{}, a, b, n)
}

// AddWith is Add with an explicit allocator for the result.
// If the allocator fails, no result is produced.
func AddWith(alloc Allocator, a, b []float64, n int) ([]float64, error) {
	if err := checkLen("add", n, a, b); err != nil {
		return nil, err
	}

	result, err := alloc.AllocFloat64s(n)
	if err != nil {
		return nil, &errors.AllocationError{Requested: n * 8, Err: err}
	}
	if result == nil {
		result = []float64{}
	}
	if len(result) < n {
		return nil, &errors.AllocationError{Requested: n * 8}
	}

	sum(a, b, result, n)
	return result[:n], nil
}

// AddInto writes a[i] + b[i] into out[i] for i in [0, n).
func AddInto(a, b, out []float64, n int) error {
	if err := checkLen("add_into", n, a, b); err != nil {
		return err
	}
	if len(out) < n {
		return &errors.LengthError{Operation: "add_into", Argument: "out", Want: n, Got: len(out)}
	}

	sum(a, b, out, n)
	return nil
}

func sum(a, b, out []float64, n int) {
	for i := 0; i < n; i++ {
		out[i] = a[i] + b[i]
	}
}

func checkLen(op string, n int, a, b []float64) error {
	if n < 0 {
		return &errors.LengthError{Operation: op, Want: n}
	}
	if len(a) < n {
		return &errors.LengthError{Operation: op, Argument: "a", Want: n, Got: len(a)}
	}
	if len(b) < n {
		return &errors.LengthError{Operation: op, Argument: "b", Want: n, Got: len(b)}
	}
	return nil
}
