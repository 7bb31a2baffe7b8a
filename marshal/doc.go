// Package marshal moves Go values in and out of a guest module's linear
// memory so that exports taking pointers can be called like Go functions.
//
// A Prototype describes an export: the Type of each argument, whether the
// argument is read by the guest (In), written by it (Out) or both (InOut),
// and the return Type. Value types (integers and floats) travel as wasm
// parameters. Reference types (arrays and NUL-terminated strings) are
// copied into memory obtained from the guest's malloc export and released
// with free once the call completes.
//
// Exports are registered by name in a Registry. Several prototypes may share
// a name; the overload is chosen by mangling the argument types, e.g.
// "a(f64)a(f64)i32" for two float64 slices and an int32.
package marshal
