package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriters(t *testing.T) {
	var out, errOut bytes.Buffer
	w := Writers{Out: &out, Err: &errOut}

	w.WriteStdout("hello")
	w.WriteStdout("\n")
	w.WriteStderr("oops")

	assert.Equal(t, "hello\n", out.String())
	assert.Equal(t, "oops", errOut.String())
}

func TestWriters_Verbatim(t *testing.T) {
	var out bytes.Buffer
	w := Writers{Out: &out}

	w.WriteStdout("")
	w.WriteStdout("a\x00b\r\né")

	assert.Equal(t, "a\x00b\r\né", out.String())
}

func TestWriters_NilStreamIsIgnored(t *testing.T) {
	assert.NotPanics(t, func() {
		Writers{}.WriteStdout("x")
		Writers{}.WriteStderr("x")
	})
}

func TestDefault(t *testing.T) {
	w := Default()
	assert.NotNil(t, w.Out)
	assert.NotNil(t, w.Err)
}
