//go:build wasip1

package abi

import (
	"sync"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

var lastError struct {
	sync.Mutex
	payload []byte
}

// SetLastError records err for the host to fetch through last_error.
// A nil err clears the record.
func SetLastError(err error) {
	payload, encErr := errors.ToErrorDetail(err).Encode()
	if encErr != nil {
		payload = nil
	}

	lastError.Lock()
	defer lastError.Unlock()
	lastError.payload = payload
}

// LastError returns the JSON-encoded detail of the most recent failure, or
// nil if the last call succeeded.
func LastError() []byte {
	lastError.Lock()
	defer lastError.Unlock()
	return lastError.payload
}

// lastErrorExport hands the most recent failure to the host as a packed
// pointer/length pair, or 0 if there is none. The host frees the pointer.
//
//go:wasmexport last_error
func lastErrorExport() uint64 {
	payload := LastError()
	if len(payload) == 0 {
		return 0
	}
	size := uint32(len(payload))
	ptr, err := Allocate(size)
	if err != nil {
		return 0
	}
	copyToMemory(ptr, payload)
	return PackPtrLen(ptr, size)
}
