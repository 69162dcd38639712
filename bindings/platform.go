package bindings

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Platform serves console output, localStorage, timing, animation frames
// and the random source probes of the getrandom crate.
var Platform = Group{Name: "platform", Define: definePlatform}

func definePlatform(c *Catalog) {
	c.Func("__wbg_log", Sig(Void, Str), func(_ context.Context, env *Env, args Args) (any, error) {
		env.console().Info(args.Str(0))
		return nil, nil
	})
	c.Func("__wbg_info", Sig(Void, Str), func(_ context.Context, env *Env, args Args) (any, error) {
		env.console().Info(args.Str(0))
		return nil, nil
	})
	c.Func("__wbg_debug", Sig(Void, Str), func(_ context.Context, env *Env, args Args) (any, error) {
		env.console().Debug(args.Str(0))
		return nil, nil
	})
	c.Func("__wbg_warn", Sig(Void, Str), func(_ context.Context, env *Env, args Args) (any, error) {
		env.console().Warn(args.Str(0))
		return nil, nil
	})
	c.Func("__wbg_error", Sig(Void, OwnStr), func(_ context.Context, env *Env, args Args) (any, error) {
		env.console().Error(args.Str(0))
		return nil, nil
	})

	c.getter("__wbg_localStorage", "localStorage", OptHandle, true)
	c.Catch("__wbg_getItem", Sig(RetOptStr, Ref, Str), send("getItem"))
	c.Catch("__wbg_setItem", Sig(Void, Ref, Str, Str), send("setItem"))
	c.Catch("__wbg_removeItem", Sig(Void, Ref, Str), send("removeItem"))
	c.Method("Storage", "__wbg_clear", Sig(Void, Ref), true, send("clear"))

	c.getter("__wbg_performance", "performance", OptHandle, false)
	c.Func("__wbg_now", Sig(RetF64, Ref), send("now"))

	c.Func("__wbg_requestAnimationFrame", Sig(RetI32, Ref, Ref), func(ctx context.Context, env *Env, args Args) (any, error) {
		fn := args.Val(1)
		if !jsvalue.IsFunction(fn) {
			return nil, jsvalue.NewTypeError("Failed to execute 'requestAnimationFrame' on 'Window': The callback provided as parameter 1 is not a function.")
		}
		id := env.Loop.RequestAnimationFrame(func(ts float64) {
			if _, err := jsvalue.Call(ctx, fn, jsvalue.Undefined{}, ts); err != nil {
				env.logger().Warn("animation frame callback threw", zap.Error(err))
			}
		})
		return int32(id), nil
	})
	c.Func("__wbg_cancelAnimationFrame", Sig(Void, Ref, I32), func(_ context.Context, env *Env, args Args) (any, error) {
		env.Loop.CancelAnimationFrame(int(args.I32(1)))
		return nil, nil
	})

	defineRandom(c)
}

// defineRandom serves the probes getrandom walks before settling on
// crypto.getRandomValues. The Node.js branch always comes back empty.
func defineRandom(c *Catalog) {
	for _, p := range []string{"crypto", "msCrypto", "process", "versions", "node"} {
		c.getter("__wbg_"+p, p, Handle, false)
	}
	c.Catch("__wbg_require", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return nil, jsvalue.NewError("ReferenceError", "module is not defined")
	})
	c.Catch("__wbg_randomFillSync", Sig(Void, Ref, Ref), send("randomFillSync"))
	c.Catch("__wbg_getrandom_fill", Sig(Void, U32, U32), fillRandom)
	c.Catch("__wbg_getRandomValues", Sig(Void, U32, U32), func(ctx context.Context, env *Env, args Args) (any, error) {
		// Both forms share a signature: crypto.getRandomValues(view) on two
		// handles, or the global form on a (ptr, len) slice of memory.
		if recv, ok := env.Heap.Lookup(heap.Handle(args.U32(0))); ok && jsvalue.IsObject(recv) {
			if view, ok := env.Heap.Lookup(heap.Handle(args.U32(1))); ok {
				if has, _ := jsvalue.Has(recv, "getRandomValues"); has {
					fn, err := jsvalue.Get(recv, "getRandomValues")
					if err != nil {
						return nil, err
					}
					return jsvalue.Call(ctx, fn, recv, view)
				}
			}
		}
		return fillRandom(ctx, env, args)
	})
}

// fillRandom fills len bytes of guest memory at ptr in place.
func fillRandom(_ context.Context, env *Env, args Args) (any, error) {
	w, err := window(env)
	if err != nil {
		return nil, err
	}
	b, err := env.Memory.Read(args.U32(0), args.U32(1))
	if err != nil {
		return nil, err
	}
	return nil, w.Crypto.GetRandomValues(b)
}
