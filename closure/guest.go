package closure

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Guest export names used by GuestDispatcher.
const (
	ExportInvoke = "__wbindgen_closure_invoke"
	ExportDrop   = "__wbindgen_closure_drop"
)

// GuestDispatcher invokes closures through two typed guest exports:
//
//	__wbindgen_closure_invoke(fn, a, b, args: handle) -> handle
//	__wbindgen_closure_drop(dtor, a, b)
//
// Arguments travel as one borrowed array handle; the result handle is owned
// by the host.
type GuestDispatcher struct {
	invoke api.Function
	drop   api.Function
	heap   *heap.Table

	// Scope, when set, prepares the context of every guest call. Host
	// events dispatched from Go arrive with a bare context.
	Scope func(context.Context) context.Context
}

// NewGuestDispatcher binds to mod's closure exports. It returns nil when the
// module exports neither, meaning it never creates closures.
func NewGuestDispatcher(mod api.Module, table *heap.Table) (*GuestDispatcher, error) {
	invoke := mod.ExportedFunction(ExportInvoke)
	drop := mod.ExportedFunction(ExportDrop)
	switch {
	case invoke == nil && drop == nil:
		return nil, nil
	case invoke == nil:
		return nil, errors.NotFound(errors.PhaseBind, "export", ExportInvoke)
	case drop == nil:
		return nil, errors.NotFound(errors.PhaseBind, "export", ExportDrop)
	}
	return &GuestDispatcher{invoke: invoke, drop: drop, heap: table}, nil
}

// Invoke implements Dispatcher.
func (d *GuestDispatcher) Invoke(ctx context.Context, fn, a, b uint32, args []any) (any, error) {
	if d.Scope != nil {
		ctx = d.Scope(ctx)
	}
	argv := d.heap.Alloc(jsvalue.NewArray(args...))
	res, err := d.invoke.Call(ctx, uint64(fn), uint64(a), uint64(b), uint64(argv))
	d.heap.Free(argv)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return jsvalue.Undefined{}, nil
	}
	return d.heap.Take(heap.Handle(uint32(res[0]))), nil
}

// Destroy implements Dispatcher.
func (d *GuestDispatcher) Destroy(ctx context.Context, dtor, a, b uint32) error {
	if d.Scope != nil {
		ctx = d.Scope(ctx)
	}
	if _, err := d.drop.Call(ctx, uint64(dtor), uint64(a), uint64(b)); err != nil {
		return errors.Wrap(errors.PhaseClosure, errors.KindException, err, fmt.Sprintf("destructor %d", dtor))
	}
	return nil
}
