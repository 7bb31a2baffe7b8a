package host

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
)

// LineWriter buffers guest output and passes each complete line, without
// its trailing newline, to a callback. A partial line waits for the rest.
type LineWriter struct {
	mu   sync.Mutex
	buf  []byte
	line func(string)
}

// NewLineWriter returns a LineWriter calling line for every complete line.
func NewLineWriter(line func(string)) *LineWriter {
	return &LineWriter{line: line}
}

// NewLogLineWriter returns a LineWriter logging each line at level with a
// "stream" attribute.
func NewLogLineWriter(logger *slog.Logger, level slog.Level, stream string) *LineWriter {
	return NewLineWriter(func(line string) {
		logger.Log(context.Background(), level, line, "stream", stream)
	})
}

// Write implements io.Writer. It never fails.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.line(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) == 0 {
		w.buf = nil
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.line(string(w.buf))
	}
	w.buf = nil
}
