package marshal

import (
	"reflect"
	"strings"
)

// Wildcard is the overload key matching any arguments.
const Wildcard = "*"

var kindMangles = map[reflect.Kind]string{
	reflect.Int32:   "i32",
	reflect.Int:     "i32",
	reflect.Uint32:  "u32",
	reflect.Uint:    "u32",
	reflect.Int64:   "i64",
	reflect.Uint64:  "u64",
	reflect.Float32: "f32",
	reflect.Float64: "f64",
	reflect.String:  "s8",
}

// MangleValues mangles the dynamic types of Go values the way prototypes
// mangle their arguments. Plain int and uint mangle as i32 and u32;
// string and []byte as s8; slices and pointers to slices as a(elem).
func MangleValues(values ...any) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(mangleValue(v))
	}
	return b.String()
}

func mangleValue(v any) string {
	if v == nil {
		return "?"
	}
	return mangleType(reflect.TypeOf(v))
}

func mangleType(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		if t.Elem().Kind() == reflect.Uint8 {
			return "s8"
		}
		if m, ok := kindMangles[t.Elem().Kind()]; ok && t.Elem().Kind() != reflect.String {
			return "a(" + m + ")"
		}
		return "?"
	}
	if m, ok := kindMangles[t.Kind()]; ok {
		return m
	}
	return "?"
}
