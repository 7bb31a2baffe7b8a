package host

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
	wazeroadapter "github.com/reglet-dev/wasm-marshal/infrastructure/wazero"
	"github.com/reglet-dev/wasm-marshal/internal/abi"
	"github.com/reglet-dev/wasm-marshal/marshal"
	"github.com/reglet-dev/wasm-marshal/wireformat"
)

// Guest export names.
const (
	ExportAddArrays        = "add_float64_arrays"
	ExportAddArraysInto    = "add_float64_arrays_into"
	ExportReverseString    = "reverse_string"
	ExportReverseGraphemes = "reverse_graphemes"
	ExportWriteStdout      = "write_stdout"
	ExportWriteStderr      = "write_stderr"
	ExportLastError        = "last_error"
)

// Prototypes of the guest exports.
var (
	AddArraysPrototype = marshal.NewPrototype(
		marshal.ArrayOf(marshal.Float64, marshal.WithLengthArg(2)),
		marshal.In(marshal.ArrayOf(marshal.Float64)),
		marshal.In(marshal.ArrayOf(marshal.Float64)),
		marshal.In(marshal.Int32),
	)
	AddArraysIntoPrototype = marshal.NewPrototype(
		marshal.Void,
		marshal.In(marshal.ArrayOf(marshal.Float64)),
		marshal.In(marshal.ArrayOf(marshal.Float64)),
		marshal.Out(marshal.ArrayOf(marshal.Float64, marshal.WithLengthArg(3))),
		marshal.In(marshal.Int32),
	)
	ReversePrototype = marshal.NewPrototype(marshal.String, marshal.In(marshal.String))
	WritePrototype   = marshal.NewPrototype(marshal.Void, marshal.In(marshal.String))
)

var knownExports = map[string]*marshal.Prototype{
	ExportAddArrays:        AddArraysPrototype,
	ExportAddArraysInto:    AddArraysIntoPrototype,
	ExportReverseString:    ReversePrototype,
	ExportReverseGraphemes: ReversePrototype,
	ExportWriteStdout:      WritePrototype,
	ExportWriteStderr:      WritePrototype,
}

// Instance is a loaded guest module. A guest is single-threaded, so calls
// on an Instance are serialized.
type Instance struct {
	mu        sync.Mutex
	name      string
	mm        *marshal.MemoryManager
	registry  *marshal.Registry
	lastError marshal.Func
	exports   []string
	close     func(context.Context) error
}

func newInstance(name string, mm *marshal.MemoryManager, lookup func(string) marshal.Func, exports []string, closeFn func(context.Context) error) *Instance {
	if name == "" {
		name = "guest"
	}
	inst := &Instance{
		name:      name,
		mm:        mm,
		registry:  marshal.NewRegistry(mm),
		lastError: lookup(ExportLastError),
		exports:   exports,
		close:     closeFn,
	}
	for export, proto := range knownExports {
		if fn := lookup(export); fn != nil {
			inst.registry.Register(export, proto, fn)
		}
	}
	return inst
}

// Registry returns the instance's export registry. Callers may register
// further prototypes for exports this package does not know.
func (i *Instance) Registry() *marshal.Registry {
	return i.registry
}

// Exports lists the functions the module exports.
func (i *Instance) Exports() []string {
	return i.exports
}

// Close releases the module.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.close == nil {
		return nil
	}
	return i.close(ctx)
}

// AddArrays returns a new slice with a[i] + b[i]. The slices must have the
// same length.
func (i *Instance) AddArrays(ctx context.Context, a, b []float64) ([]float64, error) {
	if len(b) != len(a) {
		return nil, &errors.LengthError{Operation: ExportAddArrays, Argument: "b", Want: len(a), Got: len(b)}
	}
	res, err := i.Call(ctx, ExportAddArrays, a, b, int32(len(a)))
	if err != nil {
		return nil, err
	}
	return res.([]float64), nil
}

// AddArraysInto writes a[i] + b[i] into out for every element of a.
func (i *Instance) AddArraysInto(ctx context.Context, a, b, out []float64) error {
	n := len(a)
	if len(b) < n {
		return &errors.LengthError{Operation: ExportAddArraysInto, Argument: "b", Want: n, Got: len(b)}
	}
	if len(out) < n {
		return &errors.LengthError{Operation: ExportAddArraysInto, Argument: "out", Want: n, Got: len(out)}
	}
	_, err := i.Call(ctx, ExportAddArraysInto, a[:n], b[:n], out[:n], int32(n))
	return err
}

// Reverse reverses text keeping combining marks on their base characters.
func (i *Instance) Reverse(ctx context.Context, text string) (string, error) {
	return i.callString(ctx, ExportReverseString, text)
}

// ReverseGraphemes reverses text by extended grapheme cluster.
func (i *Instance) ReverseGraphemes(ctx context.Context, text string) (string, error) {
	return i.callString(ctx, ExportReverseGraphemes, text)
}

// WriteStdout writes text to the guest's standard output.
func (i *Instance) WriteStdout(ctx context.Context, text string) error {
	_, err := i.Call(ctx, ExportWriteStdout, text)
	return err
}

// WriteStderr writes text to the guest's standard error.
func (i *Instance) WriteStderr(ctx context.Context, text string) error {
	_, err := i.Call(ctx, ExportWriteStderr, text)
	return err
}

func (i *Instance) callString(ctx context.Context, name, text string) (string, error) {
	res, err := i.Call(ctx, name, text)
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// Call invokes a registered export with Go values.
func (i *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	ctx = wazeroadapter.WithCall(ctx, wazeroadapter.Call{Guest: i.name, Export: name})
	res, err := i.registry.Call(ctx, name, args...)
	if err != nil {
		return nil, i.guestError(ctx, name, err)
	}
	return res, nil
}

// guestError replaces a null-pointer or allocation failure with the
// guest's own account of it, when the guest provides one.
func (i *Instance) guestError(ctx context.Context, name string, err error) error {
	var allocErr *errors.AllocationError
	if !stdErrors.Is(err, errors.ErrNullPointer) && !stdErrors.As(err, &allocErr) {
		return err
	}
	if i.lastError == nil {
		return err
	}

	detail, fetchErr := i.fetchLastError(ctx)
	if fetchErr != nil || detail == nil {
		return err
	}
	return fmt.Errorf("%s: %w", name, detail)
}

func (i *Instance) fetchLastError(ctx context.Context) (*wireformat.ErrorDetail, error) {
	results, err := i.lastError(ctx)
	if err != nil || len(results) == 0 || results[0] == 0 {
		return nil, err
	}

	ptr, length := uint32(results[0]>>abi.PtrHighBits), uint32(results[0])
	if ptr == 0 {
		return nil, nil
	}
	defer func() { _ = i.mm.Free(ctx, ptr) }()

	payload, err := i.mm.Read(ptr, length)
	if err != nil {
		return nil, err
	}
	return wireformat.DecodeErrorDetail(payload)
}
