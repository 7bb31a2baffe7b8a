// Package host runs guest modules built from this repository on wazero and
// exposes their exports as Go methods.
//
// An Executor owns a wazero runtime with WASI preview1 and the marshal_host
// logging module. LoadModule instantiates a guest reactor, runs its
// _initialize export, and returns an Instance whose methods marshal Go
// values through the guest's malloc/free exports:
//
//	exec, err := host.NewExecutor(ctx, host.WithStdout(os.Stdout))
//	if err != nil {
//	    return err
//	}
//	defer exec.Close(ctx)
//
//	inst, err := exec.LoadModule(ctx, wasmBytes)
//	if err != nil {
//	    return err
//	}
//	sum, err := inst.AddArrays(ctx, []float64{1, 2}, []float64{3, 4})
//
// Guest failures surface as *wireformat.ErrorDetail values fetched from the
// guest's last_error export.
package host
