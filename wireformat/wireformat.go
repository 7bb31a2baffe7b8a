// Package wireformat defines the JSON wire format structures exchanged between
// the WASM host and the guest module. These types define the ABI contract and
// must remain stable and backward compatible.
package wireformat

import (
	"encoding/json"
	"fmt"
)

// Error types carried in ErrorDetail.Type.
const (
	TypeLength     = "length"
	TypeAllocation = "allocation"
	TypeDecode     = "decode"
	TypeEncode     = "encode"
	TypeMarshal    = "marshal"
	TypeExport     = "export"
	TypeConfig     = "config"
	TypeInternal   = "internal"
)

// ErrorDetail provides structured error information.
// The guest records its last failure as an ErrorDetail and the host reads it
// back through the last_error export.
type ErrorDetail struct {
	// Wrapped contains a wrapped error for error chains.
	Wrapped *ErrorDetail `json:"wrapped,omitempty"`

	// Details contains additional error context.
	Details map[string]any `json:"details,omitempty"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" && e.Type != TypeInternal {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped.Error())
	}
	return msg
}

// NewErrorDetail creates a new ErrorDetail with the given type and message.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    errorType,
		Message: message,
	}
}

// WithDetail returns a copy of the ErrorDetail with key set in Details.
func (e *ErrorDetail) WithDetail(key string, value any) *ErrorDetail {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// Encode marshals the detail to JSON. A nil detail encodes to nil.
func (e *ErrorDetail) Encode() ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

// DecodeErrorDetail parses an ErrorDetail from its JSON form.
func DecodeErrorDetail(data []byte) (*ErrorDetail, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var detail ErrorDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode error detail: %w", err)
	}
	return &detail, nil
}
