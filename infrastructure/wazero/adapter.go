// Package wazero registers the marshal_host module with a wazero runtime.
package wazero

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/wasm-marshal/internal/abi"
	guestlog "github.com/reglet-dev/wasm-marshal/log"
)

// DefaultModuleName is the import module the guest links against.
const DefaultModuleName = "marshal_host"

// DefaultMaxMessageSize bounds a single log record read from guest memory.
const DefaultMaxMessageSize = 64 * 1024

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives guest log records. Defaults to slog.Default().
	Logger *slog.Logger

	// ModuleName is the host module name (default: "marshal_host").
	ModuleName string

	// CustomHandlers adds functions beyond log_message.
	CustomHandlers []CustomHandler

	// MaxMessageSize limits the size of a log record read from guest memory.
	MaxMessageSize uint32
}

// CustomHandler is an additional host function exported by the module.
type CustomHandler struct {
	// Name is the exported function name.
	Name string

	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxMessageSize sets the maximum log record size read from guest memory.
func WithMaxMessageSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxMessageSize = size
	}
}

// WithLogger sets the logger that guest records are re-emitted through.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		c.Logger = logger
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// RegisterWithRuntime instantiates the host module on runtime. It must run
// before any guest module importing it is instantiated.
//
// The module always exports log_message(i64), which reads a packed
// pointer/length LogMessageWire record from guest memory and logs it at
// the record's level with the guest's attributes.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			handleLogMessage(ctx, cfg.Logger, callOf(ctx, mod), mod.Memory(), stack[0], cfg.MaxMessageSize)
		}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{}).
		WithName("log_message").
		Export("log_message")

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

// handleLogMessage decodes one guest record and logs it. Malformed records
// are logged raw instead of trapping the guest.
func handleLogMessage(ctx context.Context, logger *slog.Logger, call Call, mem api.Memory, packed uint64, maxSize uint32) {
	ptr, length := unpackPtrLen(packed)
	if length == 0 {
		return
	}
	if length > maxSize {
		logger.WarnContext(ctx, "wazero: guest log record too large", "guest", call.Guest, "size", length, "limit", maxSize)
		return
	}

	payload, ok := mem.Read(ptr, length)
	if !ok {
		logger.ErrorContext(ctx, "wazero: failed to read log record from guest memory", "guest", call.Guest)
		return
	}

	msg, err := guestlog.DecodeLogMessage(payload)
	if err != nil {
		logger.WarnContext(ctx, "wazero: malformed guest log record", "guest", call.Guest, "payload", string(payload), "error", err)
		return
	}

	attrs := append(msg.SlogAttrs(), call.attrs()...)
	if msg.Source != "" {
		attrs = append(attrs, slog.String("guest_source", msg.Source))
	}
	logger.LogAttrs(ctx, msg.SlogLevel(), msg.Message, attrs...)
}

// unpackPtrLen splits a packed value without panicking on malformed input
// from the guest.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> abi.PtrHighBits) //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed)                 //nolint:gosec // G115: Packed format stores 32-bit values
	if ptr == 0 {
		return 0, 0
	}
	return ptr, length
}
