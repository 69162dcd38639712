package bindings

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/closure"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Intrinsics are the generator's own __wbindgen_* imports: value
// conversion, type probes, equality, errors and handle and closure
// lifetime.
var Intrinsics = Group{Name: "intrinsics", Define: defineIntrinsics}

func defineIntrinsics(c *Catalog) {
	c.Func("__wbindgen_string_new", Sig(Handle, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		return args.Str(0), nil
	})
	c.Func("__wbindgen_string_get", Sig(RetOptStr, Ref), identity)
	c.Func("__wbindgen_number_new", Sig(Handle, F64), func(_ context.Context, _ *Env, args Args) (any, error) {
		return args.F64(0), nil
	})
	c.Func("__wbindgen_number_get", Sig(RetOptF64, Ref), identity)
	c.Func("__wbindgen_boolean_get", Sig(RetI32, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		b, ok := args.Val(0).(bool)
		switch {
		case !ok:
			return int32(2), nil
		case b:
			return int32(1), nil
		}
		return int32(0), nil
	})
	c.Func("__wbindgen_bigint_from_u64", Sig(Handle, U64), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.BigIntFromUint64(args.U64(0)), nil
	})
	c.Func("__wbindgen_bigint_from_i64", Sig(Handle, I64), func(_ context.Context, _ *Env, args Args) (any, error) {
		return big.NewInt(args.I64(0)), nil
	})
	c.Func("__wbindgen_bigint_get_as_i64", Sig(RetOptI64, Ref), identity)
	c.Func("__wbindgen_as_number", Sig(RetF64, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.ToNumber(args.Val(0))
	})

	probe := func(name string, fn func(v any) bool) {
		c.Func(name, Sig(RetBool, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
			return fn(args.Val(0)), nil
		})
	}
	probe("__wbindgen_is_undefined", func(v any) bool { _, ok := v.(jsvalue.Undefined); return ok })
	probe("__wbindgen_is_null", func(v any) bool { _, ok := v.(jsvalue.Null); return ok })
	probe("__wbindgen_is_object", jsvalue.IsObject)
	probe("__wbindgen_is_function", jsvalue.IsFunction)
	probe("__wbindgen_is_string", func(v any) bool { return jsvalue.TypeOf(v) == "string" })
	probe("__wbindgen_is_bigint", func(v any) bool { return jsvalue.TypeOf(v) == "bigint" })
	probe("__wbindgen_is_symbol", func(v any) bool { return jsvalue.TypeOf(v) == "symbol" })

	c.Func("__wbindgen_jsval_eq", Sig(RetBool, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.StrictEquals(args.Val(0), args.Val(1)), nil
	})
	c.Func("__wbindgen_jsval_loose_eq", Sig(RetBool, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.LooseEquals(args.Val(0), args.Val(1)), nil
	})
	c.Func("__wbindgen_in", Sig(RetBool, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Has(args.Val(1), args.Val(0))
	})
	c.Func("__wbindgen_typeof", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.TypeOf(args.Val(0)), nil
	})
	c.Func("__wbindgen_debug_string", Sig(RetStr, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.DebugString(args.Val(0)), nil
	})

	c.Func("__wbindgen_throw", Sig(Void, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		return nil, jsvalue.NewError("Error", args.Str(0))
	})
	c.Func("__wbindgen_rethrow", Sig(Void, Own), func(_ context.Context, _ *Env, args Args) (any, error) {
		return nil, jsvalue.Throw(args.Val(0))
	})
	c.Func("__wbindgen_error_new", Sig(Handle, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.NewError("Error", args.Str(0)), nil
	})

	c.Func("__wbindgen_memory", Sig(Handle), func(_ context.Context, env *Env, _ Args) (any, error) {
		return env.Memory.JSObject(), nil
	})
	c.Func("__wbindgen_object_clone_ref", Sig(Handle, Ref), identity)
	c.Func("__wbindgen_object_drop_ref", Sig(Void, Own), func(context.Context, *Env, Args) (any, error) {
		return nil, nil
	})

	c.Func("__wbindgen_cb_drop", Sig(RetBool, Own), func(_ context.Context, _ *Env, args Args) (any, error) {
		f, err := As[*closure.Func](args.Val(0), "closure")
		if err != nil {
			return nil, err
		}
		return f.Drop()
	})
	c.Func("__wbindgen_closure_new", Sig(Handle, U32, U32, U32, U32, U32), func(_ context.Context, env *Env, args Args) (any, error) {
		kind := closure.Mut
		if args.U32(4) != 0 {
			kind = closure.Shared
		}
		return env.Closures.New(args.U32(0), args.U32(1), args.U32(2), args.U32(3), kind), nil
	})
	c.Func("__wbindgen_init_externref_table", Sig(Void), func(_ context.Context, env *Env, _ Args) (any, error) {
		env.logger().Debug("handle table ready", zap.Int("live", env.Heap.Len()))
		return nil, nil
	})
}

// identity hands the first argument back. Result encoding does the rest.
func identity(_ context.Context, _ *Env, args Args) (any, error) {
	return args.Val(0), nil
}
