// Package stream writes text verbatim to the process's standard streams.
package stream

import (
	"io"
	"os"
)

// Writers routes text to an output and an error stream.
type Writers struct {
	Out io.Writer
	Err io.Writer
}

// Default returns Writers bound to os.Stdout and os.Stderr.
func Default() Writers {
	return Writers{Out: os.Stdout, Err: os.Stderr}
}

// WriteStdout writes text to w.Out. Nothing is added and write errors are
// dropped.
func (w Writers) WriteStdout(text string) {
	write(w.Out, text)
}

// WriteStderr writes text to w.Err.
func (w Writers) WriteStderr(text string) {
	write(w.Err, text)
}

// WriteStdout writes text to standard output.
func WriteStdout(text string) {
	Default().WriteStdout(text)
}

// WriteStderr writes text to standard error.
func WriteStderr(text string) {
	Default().WriteStderr(text)
}

func write(dst io.Writer, text string) {
	if dst == nil || text == "" {
		return
	}
	_, _ = io.WriteString(dst, text)
}
