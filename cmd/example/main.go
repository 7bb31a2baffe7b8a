//go:build wasip1

// Command example is the guest module: a wasip1 reactor exporting float64
// array addition, combining-mark-aware reversal and stream writers.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o example.wasm ./cmd/example
//
// Call it with wasmcall:
//
//	wasmcall -wasm example.wasm add 1,2,3 4,5,6
package main

import (
	"log/slog"
	"os"

	"github.com/reglet-dev/wasm-marshal/internal/abi"
	_ "github.com/reglet-dev/wasm-marshal/log" // route slog to the host
	"github.com/reglet-dev/wasm-marshal/numeric"
	"github.com/reglet-dev/wasm-marshal/stream"
	"github.com/reglet-dev/wasm-marshal/textrev"
)

func init() {
	opts, err := abi.OptionsFromEnv(os.Getenv)
	if err != nil {
		slog.Warn("ignoring allocator settings", "error", err)
	}
	abi.Configure(opts...)

	loc := textrev.Init()
	slog.Debug("guest ready", "locale", loc.Name, "codeset", loc.Codeset)
}

func main() {}

// addFloat64Arrays returns a new buffer of n values a[i] + b[i], or 0 if the
// buffer cannot be allocated. The host frees the result.
//
//go:wasmexport add_float64_arrays
func addFloat64Arrays(a, b uint32, n int32) uint32 {
	abi.SetLastError(nil)

	var alloc abi.Allocator
	_, err := numeric.AddWith(&alloc, abi.Float64s(a, int(n)), abi.Float64s(b, int(n)), int(n))
	if err != nil {
		return fail("add_float64_arrays", err)
	}
	return alloc.Ptr
}

// addFloat64ArraysInto writes n values a[i] + b[i] to out.
//
//go:wasmexport add_float64_arrays_into
func addFloat64ArraysInto(a, b, out uint32, n int32) {
	abi.SetLastError(nil)

	count := int(n)
	if err := numeric.AddInto(abi.Float64s(a, count), abi.Float64s(b, count), abi.Float64s(out, count), count); err != nil {
		fail("add_float64_arrays_into", err)
	}
}

// reverseString reverses the NUL-terminated text at ptr in the guest
// locale. It returns a new NUL-terminated string, or 0 on failure.
//
//go:wasmexport reverse_string
func reverseString(ptr uint32) uint32 {
	return reverseWith("reverse_string", ptr, textrev.Reverse)
}

//go:wasmexport reverse_graphemes
func reverseGraphemes(ptr uint32) uint32 {
	return reverseWith("reverse_graphemes", ptr, textrev.ReverseGraphemes)
}

func reverseWith(export string, ptr uint32, reverse func([]byte) ([]byte, error)) uint32 {
	abi.SetLastError(nil)

	out, err := reverse(abi.CString(ptr))
	if err != nil {
		return fail(export, err)
	}
	res, err := abi.NewCString(out)
	if err != nil {
		return fail(export, err)
	}
	return res
}

//go:wasmexport write_stdout
func writeStdout(ptr uint32) {
	stream.WriteStdout(string(abi.CString(ptr)))
}

//go:wasmexport write_stderr
func writeStderr(ptr uint32) {
	stream.WriteStderr(string(abi.CString(ptr)))
}

func fail(export string, err error) uint32 {
	slog.Debug("export failed", "export", export, "error", err)
	abi.SetLastError(err)
	return 0
}
