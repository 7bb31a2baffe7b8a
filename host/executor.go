package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	wazeroadapter "github.com/reglet-dev/wasm-marshal/infrastructure/wazero"
	"github.com/reglet-dev/wasm-marshal/marshal"
)

// DefaultLocale is the LANG guests see unless overridden.
const DefaultLocale = "en_GB.UTF-8"

// Executor manages a wazero runtime and the guest modules loaded into it.
type Executor struct {
	runtime          wazero.Runtime
	logger           *slog.Logger
	stdout           io.Writer
	stderr           io.Writer
	env              map[string]string
	memoryLimitPages uint32
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		logger: slog.Default(),
		stdout: io.Discard,
		stderr: io.Discard,
		env:    map[string]string{"LANG": DefaultLocale},
	}
	for _, opt := range opts {
		opt(e)
	}

	cfg := wazero.NewRuntimeConfig()
	if e.memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(e.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	if err := wazeroadapter.RegisterWithRuntime(ctx, rt, wazeroadapter.WithLogger(e.logger)); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	e.runtime = rt
	return e, nil
}

// Close releases the runtime and every module loaded into it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadModuleFile reads and loads a guest module from path.
func (e *Executor) LoadModuleFile(ctx context.Context, path string) (*Instance, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	return e.LoadModule(ctx, wasm)
}

// LoadModule instantiates a guest reactor module and runs _initialize.
// The module must export memory, malloc and free.
func (e *Executor) LoadModule(ctx context.Context, wasm []byte) (*Instance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	// Reactors are initialized explicitly rather than through _start.
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStdout(e.stdout).
		WithStderr(e.stderr).
		WithStartFunctions()
	for _, k := range slices.Sorted(maps.Keys(e.env)) {
		modCfg = modCfg.WithEnv(k, e.env[k])
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	mm, err := marshal.NewModuleMemoryManager(mod)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, fmt.Errorf("unsupported module: %w", err)
	}

	lookup := func(name string) marshal.Func {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			return nil
		}
		return fn.Call
	}
	exports := slices.Sorted(maps.Keys(mod.ExportedFunctionDefinitions()))

	inst := newInstance(compiled.Name(), mm, lookup, exports, mod.Close)
	e.logger.DebugContext(ctx, "host: module loaded", "exports", len(exports))
	return inst, nil
}
