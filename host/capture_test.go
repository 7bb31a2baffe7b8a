package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureBuffer_Write(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		buf := NewCaptureBuffer(100)
		n, err := buf.Write([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "hello", buf.String())
		assert.False(t, buf.Truncated())
	})

	t.Run("truncates at limit", func(t *testing.T) {
		buf := NewCaptureBuffer(10)
		n, err := buf.Write([]byte("hello world"))
		require.NoError(t, err)
		assert.Equal(t, 11, n, "reports the full write")
		assert.Equal(t, "hello worl", buf.String())
		assert.True(t, buf.Truncated())
	})

	t.Run("full buffer drops writes", func(t *testing.T) {
		buf := NewCaptureBuffer(10)
		_, _ = buf.Write([]byte("12345"))
		_, _ = buf.Write([]byte("67890"))
		n, err := buf.Write([]byte("XXXXX"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "1234567890", buf.String())
		assert.True(t, buf.Truncated())
	})
}

func TestCaptureBuffer_Reset(t *testing.T) {
	buf := NewCaptureBuffer(4)
	_, _ = buf.Write([]byte("abcdef"))
	require.True(t, buf.Truncated())

	buf.Reset()
	assert.Empty(t, buf.String())
	assert.False(t, buf.Truncated())
}

func TestNewCaptureBuffer_DefaultLimit(t *testing.T) {
	buf := NewCaptureBuffer(0)
	n, err := buf.Write(make([]byte, DefaultCaptureLimit+1))
	require.NoError(t, err)
	assert.Equal(t, DefaultCaptureLimit+1, n)
	assert.True(t, buf.Truncated())
}
