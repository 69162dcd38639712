package bindings

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/audio"
	"github.com/wippyai/wbg-runtime/closure"
	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/fetch"
	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/idb"
	"github.com/wippyai/wbg-runtime/input"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/memory"
)

// ExportExnStore is the guest export that records a pending exception.
const ExportExnStore = "__wbindgen_exn_store"

// Env is everything a thunk may touch: the guest's memory and handle table,
// the closure registry, the event loop and the host capabilities.
type Env struct {
	Heap     *heap.Table
	Memory   *memory.Bridge
	Alloc    memory.Allocator
	Loop     *eventloop.Loop
	Closures *closure.Registry
	Invoker  closure.Dispatcher

	Window   *dom.Window
	Fetch    *fetch.Client
	IDB      *idb.Factory
	Gamepads *input.Gamepads
	Audio    []audio.Option

	// Global is globalThis; it defaults to a Scope over Window.
	Global any
	// Console receives console.log and console.error output.
	Console *zap.Logger
	Log     *zap.Logger

	exnStore api.Function
	scope    *Scope
}

// Bind attaches the guest exports the thunks call back into.
func (e *Env) Bind(mod api.Module) {
	e.exnStore = mod.ExportedFunction(ExportExnStore)
}

func (e *Env) global() any {
	if e.Global != nil {
		return e.Global
	}
	if e.scope == nil {
		e.scope = &Scope{env: e}
	}
	return e.scope
}

func (e *Env) logger() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return Logger()
}

func (e *Env) console() *zap.Logger {
	if e.Console != nil {
		return e.Console
	}
	return e.logger().Named("console")
}

// Throw stores err's thrown value in the heap and hands its handle to the
// guest. It fails when the guest has no exception slot.
func (e *Env) Throw(ctx context.Context, err error) error {
	if e.exnStore == nil {
		return errors.ContractViolation(errors.PhaseBind, "guest does not export %s: %v", ExportExnStore, err)
	}
	h := e.Heap.Alloc(jsvalue.Thrown(err))
	if _, cerr := e.exnStore.Call(ctx, uint64(h)); cerr != nil {
		return errors.Wrap(errors.PhaseBind, errors.KindException, cerr, fmt.Sprintf("%s(%d)", ExportExnStore, h))
	}
	return nil
}

type envKey struct{}

// WithEnv returns a context carrying env.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom returns the env carried by ctx, or nil.
func EnvFrom(ctx context.Context) *Env {
	env, _ := ctx.Value(envKey{}).(*Env)
	return env
}
