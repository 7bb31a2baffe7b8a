// Package errors provides domain-specific error types for the marshalling
// layer and the guest module. All error types support unwrapping via
// errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/wasm-marshal/wireformat"
)

// ErrorDetail is an alias to wireformat.ErrorDetail for convenience.
type ErrorDetail = wireformat.ErrorDetail

// ErrNullPointer is returned when the guest hands back a null address where
// a buffer was expected.
var ErrNullPointer = stdErrors.New("null pointer returned by guest")

// DetailedError is implemented by error types that can convert themselves to
// a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
// Known error types are categorized; anything else is "internal".
func ToErrorDetail(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	var e *ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &ErrorDetail{
		Message: err.Error(),
		Type:    wireformat.TypeInternal,
	}
}

// LengthError reports a sequence that is shorter than the element count an
// operation was asked to process.
type LengthError struct {
	Operation string
	Argument  string
	Want      int
	Got       int
}

func (e *LengthError) Error() string {
	if e.Want < 0 {
		return fmt.Sprintf("%s: invalid element count %d", e.Operation, e.Want)
	}
	return fmt.Sprintf("%s: %s has %d elements, need %d", e.Operation, e.Argument, e.Got, e.Want)
}

// ToErrorDetail implements DetailedError.
func (e *LengthError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: wireformat.TypeLength, Code: e.Argument}
}

// AllocationError represents a refused memory allocation.
type AllocationError struct {
	Err       error
	Requested int // Requested allocation size in bytes
	Current   int // Current total allocated, if known
	Limit     int // Maximum allowed, if known
}

func (e *AllocationError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("memory allocation failed: requested %d bytes, current %d bytes, limit %d bytes",
			e.Requested, e.Current, e.Limit)
	}
	if e.Err != nil {
		return fmt.Sprintf("memory allocation of %d bytes failed: %v", e.Requested, e.Err)
	}
	return fmt.Sprintf("memory allocation of %d bytes failed", e.Requested)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *AllocationError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: wireformat.TypeAllocation, Code: "alloc_failed"}
}

// DecodeError reports malformed input for the active text encoding.
type DecodeError struct {
	Err      error
	Encoding string
	Offset   int // Byte offset of the first malformed sequence, -1 if unknown
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("invalid %s input", e.Encoding)
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at byte %d", msg, e.Offset)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *DecodeError) ToErrorDetail() *ErrorDetail {
	detail := &ErrorDetail{Message: e.Error(), Type: wireformat.TypeDecode, Code: e.Encoding}
	if e.Offset >= 0 {
		detail = detail.WithDetail("offset", e.Offset)
	}
	return detail
}

// EncodeError reports a code point that cannot be represented in the active
// text encoding.
type EncodeError struct {
	Err      error
	Encoding string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode text as %s: %v", e.Encoding, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *EncodeError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: wireformat.TypeEncode, Code: e.Encoding}
}

// ExportError represents a failure locating or calling a guest export.
type ExportError struct {
	Err    error
	Export string
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export %q: %v", e.Export, e.Err)
	}
	return fmt.Sprintf("export %q not found", e.Export)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ExportError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: wireformat.TypeExport, Code: e.Export}
}

// MarshalError represents a failure moving a value across the module boundary.
type MarshalError struct {
	Err      error
	Type     string // Mangled type name
	Argument int    // Argument index, -1 for the return value
}

func (e *MarshalError) Error() string {
	if e.Argument < 0 {
		return fmt.Sprintf("marshal return value (%s): %v", e.Type, e.Err)
	}
	return fmt.Sprintf("marshal argument %d (%s): %v", e.Argument, e.Type, e.Err)
}

func (e *MarshalError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *MarshalError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: wireformat.TypeMarshal, Code: e.Type}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: wireformat.TypeConfig, Code: e.Field}
}
