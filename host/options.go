package host

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/reglet-dev/wasm-marshal/internal/abi"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithLogger sets the logger for host diagnostics and guest log records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithStdout sets where guest standard output goes. Defaults to io.Discard.
func WithStdout(w io.Writer) Option {
	return func(e *Executor) {
		e.stdout = w
	}
}

// WithStderr sets where guest standard error goes. Defaults to io.Discard.
func WithStderr(w io.Writer) Option {
	return func(e *Executor) {
		e.stderr = w
	}
}

// WithEnv adds environment variables visible to guests. They override the
// defaults, including LANG.
func WithEnv(env map[string]string) Option {
	return func(e *Executor) {
		for k, v := range env {
			e.env[k] = v
		}
	}
}

// WithMemoryLimitPages caps each guest's linear memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(e *Executor) {
		e.memoryLimitPages = pages
	}
}

// WithGuestAllocationLimit caps the bytes a guest's allocator hands out.
func WithGuestAllocationLimit(bytes int) Option {
	return func(e *Executor) {
		if bytes > 0 {
			e.env[abi.EnvMaxTotalAllocations] = strconv.Itoa(bytes)
		}
	}
}
