package memory

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wbg-runtime/errors"
)

// Guest allocator export names.
const (
	ExportMalloc = "__wbindgen_malloc"
	ExportFree   = "__wbindgen_free"
)

// GuestAllocator calls the guest's exported allocator functions.
type GuestAllocator struct {
	malloc api.Function
	free   api.Function
}

// NewGuestAllocator looks up the allocator exports on mod. It returns nil
// when the module exports no malloc; such guests never receive strings.
func NewGuestAllocator(mod api.Module) *GuestAllocator {
	malloc := mod.ExportedFunction(ExportMalloc)
	if malloc == nil {
		return nil
	}
	return &GuestAllocator{malloc: malloc, free: mod.ExportedFunction(ExportFree)}
}

// Malloc allocates size bytes with the given alignment.
func (a *GuestAllocator) Malloc(ctx context.Context, size, align uint32) (uint32, error) {
	results, err := a.malloc.Call(ctx, uint64(size), uint64(align))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseMarshal, errors.KindAllocation, err, fmt.Sprintf("malloc(%d, %d)", size, align))
	}
	if len(results) == 0 {
		return 0, errors.AllocationFailed(errors.PhaseMarshal, size, align)
	}
	return uint32(results[0]), nil
}

// Free releases a buffer previously obtained from Malloc or handed over by
// the guest. Without a free export this is a no-op.
func (a *GuestAllocator) Free(ctx context.Context, ptr, size, align uint32) error {
	if a.free == nil {
		return nil
	}
	if _, err := a.free.Call(ctx, uint64(ptr), uint64(size), uint64(align)); err != nil {
		return errors.Wrap(errors.PhaseMarshal, errors.KindAllocation, err, fmt.Sprintf("free(0x%x, %d)", ptr, size))
	}
	return nil
}
