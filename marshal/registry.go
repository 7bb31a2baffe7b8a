package marshal

import (
	"context"
	"slices"
	"sync"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

// Callable is a registered export bound to its marshalling.
type Callable func(ctx context.Context, args ...any) (any, error)

// Registry resolves named, possibly overloaded, exports.
type Registry struct {
	mm      *MemoryManager
	mu      sync.RWMutex
	entries map[string]map[string]Callable // name -> mangled args -> callable
}

// NewRegistry creates a registry marshalling through mm.
func NewRegistry(mm *MemoryManager) *Registry {
	return &Registry{mm: mm, entries: make(map[string]map[string]Callable)}
}

// Register adds fn under name, keyed by the prototype's mangled arguments.
func (r *Registry) Register(name string, proto *Prototype, fn Func) {
	r.RegisterExplicit(name, proto.MangledArgs(), proto, fn)
}

// RegisterExplicit adds fn under name with an explicit argument mangle.
func (r *Registry) RegisterExplicit(name, mangledArgs string, proto *Prototype, fn Func) {
	r.put(name, mangledArgs, func(ctx context.Context, args ...any) (any, error) {
		return proto.Invoke(ctx, r.mm, fn, args...)
	})
}

// RegisterUnmarshalled adds fn as the fallback for name. Its arguments are
// passed through untouched.
func (r *Registry) RegisterUnmarshalled(name string, fn Callable) {
	r.put(name, Wildcard, fn)
}

func (r *Registry) put(name, key string, fn Callable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[name] == nil {
		r.entries[name] = make(map[string]Callable)
	}
	r.entries[name][key] = fn
}

// Find returns the overload of name registered for mangledArgs, falling
// back to the unmarshalled registration.
func (r *Registry) Find(name, mangledArgs string) (Callable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overloads := r.entries[name]
	if fn, ok := overloads[mangledArgs]; ok {
		return fn, true
	}
	fn, ok := overloads[Wildcard]
	return fn, ok
}

// Match returns the overload of name whose arguments match values.
func (r *Registry) Match(name string, values ...any) (Callable, bool) {
	if !r.Has(name) {
		return nil, false
	}
	return r.Find(name, MangleValues(values...))
}

// Has reports whether any overload of name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]
	return ok
}

// Names lists registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Call matches values to an overload of name and invokes it.
func (r *Registry) Call(ctx context.Context, name string, values ...any) (any, error) {
	fn, ok := r.Match(name, values...)
	if !ok {
		return nil, &errors.ExportError{Export: name}
	}
	return fn(ctx, values...)
}

// CallExplicit invokes the overload of name registered for mangledArgs.
func (r *Registry) CallExplicit(ctx context.Context, name, mangledArgs string, values ...any) (any, error) {
	fn, ok := r.Find(name, mangledArgs)
	if !ok {
		return nil, &errors.ExportError{Export: name}
	}
	return fn(ctx, values...)
}
