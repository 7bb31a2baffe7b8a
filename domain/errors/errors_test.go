package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/wasm-marshal/wireformat"
)

func TestLengthError(t *testing.T) {
	err := &LengthError{Operation: "add", Argument: "b", Want: 4, Got: 2}

	assert.Equal(t, "add: b has 2 elements, need 4", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, wireformat.TypeLength, detail.Type)
	assert.Equal(t, "b", detail.Code)
}

func TestLengthError_NegativeCount(t *testing.T) {
	err := &LengthError{Operation: "add", Want: -1}
	assert.Equal(t, "add: invalid element count -1", err.Error())
}

func TestAllocationError(t *testing.T) {
	t.Run("with limit", func(t *testing.T) {
		err := &AllocationError{Requested: 2048, Current: 512, Limit: 1024}
		assert.Equal(t, "memory allocation failed: requested 2048 bytes, current 512 bytes, limit 1024 bytes", err.Error())
	})

	t.Run("wrapped cause", func(t *testing.T) {
		cause := fmt.Errorf("guest returned null")
		err := &AllocationError{Requested: 32, Err: cause}
		assert.Equal(t, "memory allocation of 32 bytes failed: guest returned null", err.Error())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("bare", func(t *testing.T) {
		err := &AllocationError{Requested: 8}
		assert.Equal(t, "memory allocation of 8 bytes failed", err.Error())
		assert.Equal(t, wireformat.TypeAllocation, err.ToErrorDetail().Type)
	})
}

func TestDecodeError(t *testing.T) {
	err := &DecodeError{Encoding: "UTF-8", Offset: 3}
	assert.Equal(t, "invalid UTF-8 input at byte 3", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, wireformat.TypeDecode, detail.Type)
	assert.Equal(t, "UTF-8", detail.Code)
	assert.Equal(t, 3, detail.Details["offset"])
}

func TestDecodeError_UnknownOffset(t *testing.T) {
	cause := fmt.Errorf("short input")
	err := &DecodeError{Encoding: "EUC-JP", Offset: -1, Err: cause}

	assert.Equal(t, "invalid EUC-JP input: short input", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.NotContains(t, err.ToErrorDetail().Details, "offset")
}

func TestEncodeError(t *testing.T) {
	cause := fmt.Errorf("rune not supported")
	err := &EncodeError{Encoding: "ISO-8859-1", Err: cause}

	assert.Equal(t, "cannot encode text as ISO-8859-1: rune not supported", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestExportError(t *testing.T) {
	err := &ExportError{Export: "malloc"}
	assert.Equal(t, `export "malloc" not found`, err.Error())

	cause := fmt.Errorf("unreachable")
	err = &ExportError{Export: "reverse_string", Err: cause}
	assert.Equal(t, `export "reverse_string": unreachable`, err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestMarshalError(t *testing.T) {
	err := &MarshalError{Type: "a(f64)", Argument: 1, Err: ErrNullPointer}
	assert.Equal(t, "marshal argument 1 (a(f64)): null pointer returned by guest", err.Error())
	assert.True(t, errors.Is(err, ErrNullPointer))

	err = &MarshalError{Type: "s", Argument: -1, Err: ErrNullPointer}
	assert.Equal(t, "marshal return value (s): null pointer returned by guest", err.Error())
}

func TestConfigError(t *testing.T) {
	baseErr := fmt.Errorf("must be positive")
	err := &ConfigError{Field: "memory_limit_pages", Err: baseErr}

	assert.Equal(t, "config validation failed for field 'memory_limit_pages': must be positive", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	noField := &ConfigError{Err: baseErr}
	assert.Equal(t, "config validation failed: must be positive", noField.Error())
}

func TestToErrorDetail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
		wantNil  bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "length", err: &LengthError{Operation: "add", Argument: "a", Want: 1}, wantType: wireformat.TypeLength},
		{name: "wrapped decode", err: fmt.Errorf("reverse: %w", &DecodeError{Encoding: "UTF-8", Offset: 0}), wantType: wireformat.TypeDecode},
		{name: "detail passthrough", err: wireformat.NewErrorDetail("custom", "boom"), wantType: "custom"},
		{name: "generic", err: errors.New("boom"), wantType: wireformat.TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := ToErrorDetail(tt.err)
			if tt.wantNil {
				assert.Nil(t, detail)
				return
			}
			require.NotNil(t, detail)
			assert.Equal(t, tt.wantType, detail.Type)
		})
	}
}
