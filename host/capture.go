package host

import (
	"bytes"
	"sync"
)

// DefaultCaptureLimit bounds captured guest output (1 MiB).
const DefaultCaptureLimit = 1 << 20

// CaptureBuffer collects guest output up to a limit. Output beyond the limit
// is dropped and reported through Truncated. It is safe for concurrent use.
type CaptureBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

// NewCaptureBuffer returns a CaptureBuffer holding at most limit bytes. A
// non-positive limit selects DefaultCaptureLimit.
func NewCaptureBuffer(limit int) *CaptureBuffer {
	if limit <= 0 {
		limit = DefaultCaptureLimit
	}
	return &CaptureBuffer{limit: limit}
}

// Write implements io.Writer. It always reports len(p) so a guest never
// sees a short write.
func (c *CaptureBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(p)
	remaining := c.limit - c.buf.Len()
	if len(p) > remaining {
		c.truncated = true
		p = p[:max(remaining, 0)]
	}
	c.buf.Write(p)
	return n, nil
}

// String returns the captured output.
func (c *CaptureBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Truncated reports whether output was dropped since the last Reset.
func (c *CaptureBuffer) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}

// Reset empties the buffer.
func (c *CaptureBuffer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	c.truncated = false
}
