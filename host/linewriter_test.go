package host

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineWriter(t *testing.T) {
	var lines []string
	w := NewLineWriter(func(line string) { lines = append(lines, line) })

	fmt.Fprint(w, "hello")
	assert.Empty(t, lines, "partial line must wait")

	fmt.Fprint(w, " world\nsecond\n\nthird")
	assert.Equal(t, []string{"hello world", "second", ""}, lines)

	w.Flush()
	assert.Equal(t, []string{"hello world", "second", "", "third"}, lines)

	w.Flush()
	assert.Len(t, lines, 4)
}

func TestLineWriter_ReportsFullLength(t *testing.T) {
	w := NewLineWriter(func(string) {})
	n, err := w.Write([]byte("abc\ndef"))
	assert.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestNewLogLineWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))

	w := NewLogLineWriter(logger, slog.LevelWarn, "stderr")
	fmt.Fprint(w, "oops\n")

	assert.Equal(t, "level=WARN msg=oops stream=stderr\n", buf.String())
}
