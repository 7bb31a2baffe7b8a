//go:build !wasip1

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// output receives records when the package is built for the host.
var output io.Writer = os.Stderr

// Handle writes the record as one text line. Host processes have no
// marshal_host import to send to.
func (h *WasmLogHandler) Handle(_ context.Context, record slog.Record) error {
	_, err := fmt.Fprintln(output, h.wireRecord(record).String())
	return err
}
