// Package wazero provides the host side of the guest's marshal_host imports.
//
// Guests built from this module import marshal_host.log_message to forward
// slog records. RegisterWithRuntime instantiates that host module so the
// records land in the host's own logger:
//
//	runtime := wazero.NewRuntime(ctx)
//	err := wazero.RegisterWithRuntime(ctx, runtime,
//	    wazero.WithLogger(logger),
//	)
//
// Records carry a "guest" attribute with the module name, or the name set
// with WithCall on the calling context, and an "export" attribute naming
// the export that was running when the guest logged.
package wazero
