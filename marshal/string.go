package marshal

import (
	"context"
	"fmt"
)

type stringType struct{}

// String is a NUL-terminated byte string. Go string and []byte arguments
// are accepted; unmarshalled values are strings.
var String ReferenceType = stringType{}

func (stringType) Mangle() string { return "s8" }

func (stringType) Marshal(ctx context.Context, mm *MemoryManager, f Frame) (uint32, error) {
	switch v := f.Value().(type) {
	case string:
		return mm.WriteCString(ctx, []byte(v))
	case []byte:
		return mm.WriteCString(ctx, v)
	case *string:
		if v != nil {
			return mm.WriteCString(ctx, []byte(*v))
		}
	}
	return 0, fmt.Errorf("cannot use %T as s8", f.Value())
}

func (stringType) Alloc(context.Context, *MemoryManager, Frame) (uint32, error) {
	return 0, fmt.Errorf("s8 cannot be an output-only argument: its size is unknown")
}

func (stringType) Unmarshal(ctx context.Context, mm *MemoryManager, ptr uint32, _ Frame) (any, error) {
	data, err := mm.ReadCString(ptr)
	if ptr != 0 {
		if freeErr := mm.Free(ctx, ptr); err == nil {
			err = freeErr
		}
	}
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (stringType) Free(ctx context.Context, mm *MemoryManager, ptr uint32, _ Frame) error {
	return mm.Free(ctx, ptr)
}

func (stringType) CopyOut(dst, v any) error {
	p, ok := dst.(*string)
	if !ok || p == nil {
		return fmt.Errorf("cannot copy s8 into %T", dst)
	}
	*p = v.(string)
	return nil
}
