package wazero

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero/api"
)

// Call identifies the guest export a host function runs under.
type Call struct {
	Guest  string // module the export belongs to
	Export string // export being invoked; empty during _initialize
}

type callKey struct{}

// WithCall tags ctx with the guest call that host functions reached through
// it belong to.
func WithCall(ctx context.Context, c Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// CallFromContext returns the call stored by WithCall.
func CallFromContext(ctx context.Context) (Call, bool) {
	c, ok := ctx.Value(callKey{}).(Call)
	return c, ok
}

// callOf resolves the call a host function was invoked for. A call without
// a guest name takes the calling module's name.
func callOf(ctx context.Context, mod api.Module) Call {
	c, _ := CallFromContext(ctx)
	if c.Guest == "" && mod != nil {
		c.Guest = mod.Name()
	}
	return c
}

func (c Call) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("guest", c.Guest)}
	if c.Export != "" {
		attrs = append(attrs, slog.String("export", c.Export))
	}
	return attrs
}
