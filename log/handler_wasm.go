//go:build wasip1

package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/reglet-dev/wasm-marshal/internal/abi"
)

// host_log_message is provided by the host's marshal_host module.
//
//go:wasmimport marshal_host log_message
//nolint:revive // intentional snake_case to match WASM import convention
func host_log_message(messagePacked uint64)

// Handle serializes a slog.Record and sends it to the host via a host function.
func (h *WasmLogHandler) Handle(_ context.Context, record slog.Record) error {
	requestBytes, err := json.Marshal(h.wireRecord(record))
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: failed to marshal record for host: %v, original: %s\n", err, record.Message)
		return nil
	}

	packed := abi.PtrFromBytes(requestBytes)
	if packed == 0 {
		return nil
	}
	defer abi.DeallocatePacked(packed)

	host_log_message(packed)
	return nil
}

func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
