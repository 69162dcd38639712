package bindings

import (
	"context"
	"encoding/binary"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/idb"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
)

// Reflection covers the language-level surface: Reflect get/set/has,
// calls, plain objects and arrays, typed arrays, JSON, iteration, errors,
// promises and the global object accessors.
var Reflection = Group{Name: "reflection", Define: defineReflection}

// instanceChecks maps instanceof import suffixes to class names.
var instanceChecks = map[string]string{
	"Array":                 "Array",
	"ArrayBuffer":           "ArrayBuffer",
	"AudioContext":          "AudioContext",
	"Error":                 "Error",
	"Float32Array":          "Float32Array",
	"Function":              "Function",
	"HtmlCanvasElement":     "HTMLCanvasElement",
	"HtmlElement":           "HTMLElement",
	"HtmlImageElement":      "HTMLImageElement",
	"HtmlInputElement":      "HTMLInputElement",
	"IdbCursorWithValue":    "IDBCursorWithValue",
	"IdbDatabase":           "IDBDatabase",
	"IdbFactory":            "IDBFactory",
	"IdbIndex":              "IDBIndex",
	"IdbObjectStore":        "IDBObjectStore",
	"IdbOpenDbRequest":      "IDBOpenDBRequest",
	"IdbRequest":            "IDBRequest",
	"IdbTransaction":        "IDBTransaction",
	"Int32Array":            "Int32Array",
	"KeyboardEvent":         "KeyboardEvent",
	"MouseEvent":            "MouseEvent",
	"Object":                "Object",
	"Promise":               "Promise",
	"Response":              "Response",
	"TouchEvent":            "TouchEvent",
	"Uint8Array":            "Uint8Array",
	"WebGlRenderingContext": "WebGLRenderingContext",
	"Window":                "Window",
}

func defineReflection(c *Catalog) {
	c.Catch("__wbg_get", Sig(Handle, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Get(args.Val(0), args.Val(1))
	})
	c.Method("IDBObjectStore", "__wbg_get", Sig(Handle, Ref, Ref), true, func(_ context.Context, _ *Env, args Args) (any, error) {
		s, err := As[*idb.ObjectStore](args.Val(0), "IDBObjectStore")
		if err != nil {
			return nil, err
		}
		return s.Get(args.Val(1))
	})
	c.Method("IDBIndex", "__wbg_get", Sig(Handle, Ref, Ref), true, func(_ context.Context, _ *Env, args Args) (any, error) {
		ix, err := As[*idb.Index](args.Val(0), "IDBIndex")
		if err != nil {
			return nil, err
		}
		return ix.Get(args.Val(1))
	})
	c.Func("__wbg_get", Sig(RetOptStr, Ref, U32), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Get(args.Val(0), args.U32(1))
	})
	c.Func("__wbg_get_index", Sig(Handle, Ref, U32), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Get(args.Val(0), args.U32(1))
	})
	c.Func("__wbg_getwithrefkey", Sig(Handle, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Get(args.Val(0), args.Val(1))
	})

	c.Func("__wbg_set", Sig(Void, Ref, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return nil, jsvalue.Set(args.Val(0), args.Val(1), args.Val(2))
	})
	for _, class := range []string{"Uint8Array", "Float32Array", "Int32Array"} {
		c.Method(class, "__wbg_set", Sig(Void, Ref, Ref, U32), false, func(_ context.Context, _ *Env, args Args) (any, error) {
			return nil, typedSet(args.Val(0), args.Val(1), int(args.U32(2)))
		})
	}
	c.Func("__wbg_set_index", Sig(Void, Ref, U32, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return nil, jsvalue.Set(args.Val(0), args.U32(1), args.Val(2))
	})
	c.Catch("__wbg_has", Sig(RetBool, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Has(args.Val(0), args.Val(1))
	})

	c.Catch("__wbg_call", Sig(Handle, Ref, Ref), func(ctx context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Call(ctx, args.Val(0), args.Val(1))
	})
	c.Catch("__wbg_call", Sig(Handle, Ref, Ref, Ref), func(ctx context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Call(ctx, args.Val(0), args.Val(1), args.Val(2))
	})
	c.Catch("__wbg_newnoargs", Sig(Handle, Str), func(_ context.Context, env *Env, args Args) (any, error) {
		return newFunction(env, args.Str(0)), nil
	})

	c.Func("__wbg_new_object", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return jsvalue.NewObject(), nil
	})
	c.Func("__wbg_new_array", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return jsvalue.NewArray(), nil
	})
	c.Func("__wbg_push", Sig(RetU32, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		arr, err := As[*jsvalue.Array](args.Val(0), "Array")
		if err != nil {
			return nil, err
		}
		return arr.Push(args.Val(1)), nil
	})
	c.numeric("__wbg_length", "length")
	c.Func("__wbg_isArray", Sig(RetBool, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.IsArray(args.Val(0)), nil
	})
	c.Func("__wbg_isSafeInteger", Sig(RetBool, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.IsSafeInteger(args.Val(0)), nil
	})
	c.Catch("__wbg_stringify", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		s, ok, err := jsvalue.Stringify(args.Val(0))
		if err != nil || !ok {
			return jsvalue.Undefined{}, err
		}
		return s, nil
	})
	c.Func("__wbg_toString", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.ToString(args.Val(0)), nil
	})

	c.Func("__wbg_iterator", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return jsvalue.SymbolIterator, nil
	})
	c.Catch("__wbg_next", Sig(Handle, Ref), send("next"))
	c.getter("__wbg_getnext", "next", Handle, false)
	c.getter("__wbg_done", "done", RetBool, false)
	c.getter("__wbg_getdone", "done", RetOptBool, false)
	c.getter("__wbg_getvalue", "value", Handle, false)

	for suffix, class := range instanceChecks {
		class := class
		c.Func("__wbg_instanceof_"+suffix, Sig(RetBool, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
			return jsvalue.InstanceOf(args.Val(0), class), nil
		})
	}

	global := func(context.Context, *Env, Args) (any, error) { return jsvalue.Null{}, nil }
	scope := func(_ context.Context, env *Env, _ Args) (any, error) { return env.global(), nil }
	c.Func("__wbg_static_accessor_GLOBAL", Sig(OptHandle), global)
	c.Func("__wbg_static_accessor_GLOBAL_THIS", Sig(OptHandle), scope)
	c.Func("__wbg_static_accessor_SELF", Sig(OptHandle), scope)
	c.Func("__wbg_static_accessor_WINDOW", Sig(OptHandle), scope)

	defineTypedArrays(c)
	defineErrors(c)
	definePromises(c)
}

func defineTypedArrays(c *Catalog) {
	c.Func("__wbg_new_uint8array", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return newUint8Array(args.Val(0))
	})
	c.Func("__wbg_new_float32array", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return newFloat32Array(args.Val(0))
	})
	c.Func("__wbg_new_int32array", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return newInt32Array(args.Val(0))
	})
	c.Func("__wbg_newfromslice", Sig(Handle, Bytes), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Uint8ArrayOf(args.Bytes(0)), nil
	})
	c.Func("__wbg_newwithlength", Sig(Handle, U32), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.NewUint8Array(int(args.U32(0))), nil
	})
	c.Func("__wbg_newwithbyteoffsetandlength", Sig(Handle, Ref, U32, U32), func(_ context.Context, _ *Env, args Args) (any, error) {
		buf, err := As[*jsvalue.ArrayBuffer](args.Val(0), "ArrayBuffer")
		if err != nil {
			return nil, err
		}
		off, n := int(args.U32(1)), int(args.U32(2))
		if off+n > len(buf.Data) {
			return nil, jsvalue.NewError("RangeError", "Invalid typed array length: "+jsvalue.FormatNumber(float64(n)))
		}
		return &jsvalue.Uint8Array{Buffer: buf, Offset: off, Length: n}, nil
	})
	c.Func("__wbg_subarray", Sig(Handle, Ref, U32, U32), func(_ context.Context, _ *Env, args Args) (any, error) {
		u, err := As[*jsvalue.Uint8Array](args.Val(0), "Uint8Array")
		if err != nil {
			return nil, err
		}
		return u.Subarray(int(args.U32(1)), int(args.U32(2))), nil
	})
	c.getter("__wbg_buffer", "buffer", Handle, false)
	c.numeric("__wbg_byteLength", "byteLength")
	c.numeric("__wbg_byteOffset", "byteOffset")
}

func defineErrors(c *Catalog) {
	newError := func(_ context.Context, _ *Env, args Args) (any, error) {
		e := jsvalue.NewError("Error", args.Str(0))
		e.Stack = e.Error() + "\n    at wasm"
		return e, nil
	}
	c.Func("__wbg_Error", Sig(Handle, Str), newError)
	c.Func("__wbg_new_error", Sig(Handle, Str), newError)
	c.Func("__wbg_new_error", Sig(Handle), newError)
	c.Func("__wbg_stack", Sig(RetStr, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Get(args.Val(0), "stack")
	})
	c.Func("__wbg_new0", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return &Date{Time: time.Now()}, nil
	})
	c.Func("__wbg_getTime", Sig(RetF64, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		d, err := As[*Date](args.Val(0), "Date")
		if err != nil {
			return nil, err
		}
		return d.UnixMilli(), nil
	})
}

func definePromises(c *Catalog) {
	c.Func("__wbg_new_promise", Sig(Handle, U32, U32, U32), func(ctx context.Context, env *Env, args Args) (any, error) {
		p, res := promise.WithResolvers(env.Loop)
		resolve, reject := res.Funcs()
		if _, err := env.Invoker.Invoke(ctx, args.U32(2), args.U32(0), args.U32(1), []any{resolve, reject}); err != nil {
			res.Reject(promise.Reason(err))
		}
		return p, nil
	})
	c.Func("__wbg_resolve", Sig(Handle, Ref), func(_ context.Context, env *Env, args Args) (any, error) {
		if p, ok := args.Val(0).(*promise.Promise); ok {
			return p, nil
		}
		return promise.Resolved(env.Loop, args.Val(0)), nil
	})
	c.Func("__wbg_then", Sig(Handle, Ref, Ref), func(ctx context.Context, _ *Env, args Args) (any, error) {
		p, err := As[*promise.Promise](args.Val(0), "Promise")
		if err != nil {
			return nil, err
		}
		return p.Then(promise.CallbackHandler(ctx, args.Val(1)), nil), nil
	})
	c.Func("__wbg_then", Sig(Handle, Ref, Ref, Ref), func(ctx context.Context, _ *Env, args Args) (any, error) {
		p, err := As[*promise.Promise](args.Val(0), "Promise")
		if err != nil {
			return nil, err
		}
		return p.Then(promise.CallbackHandler(ctx, args.Val(1)), promise.CallbackHandler(ctx, args.Val(2))), nil
	})
	c.Func("__wbg_catch", Sig(Handle, Ref, Ref), func(ctx context.Context, _ *Env, args Args) (any, error) {
		p, err := As[*promise.Promise](args.Val(0), "Promise")
		if err != nil {
			return nil, err
		}
		return p.Catch(promise.CallbackHandler(ctx, args.Val(1))), nil
	})
	c.Func("__wbg_queueMicrotask", Sig(Void, Ref), func(ctx context.Context, env *Env, args Args) (any, error) {
		fn := args.Val(0)
		if !jsvalue.IsFunction(fn) {
			return nil, jsvalue.NewTypeError("Failed to execute 'queueMicrotask': parameter 1 is not of type 'Function'.")
		}
		env.Loop.QueueMicrotask(func() {
			if _, err := jsvalue.Call(ctx, fn, jsvalue.Undefined{}); err != nil {
				env.logger().Warn("microtask threw", zap.Error(err))
			}
		})
		return nil, nil
	})
	c.getter("__wbg_queueMicrotask", "queueMicrotask", Handle, false)
}

// Date is a Date object. Only the time value is modeled.
type Date struct {
	Time time.Time
}

// UnixMilli returns the time value in milliseconds.
func (d *Date) UnixMilli() float64 {
	return float64(d.Time.UnixNano()) / float64(time.Millisecond)
}

// ClassName implements jsvalue.ClassNamer.
func (d *Date) ClassName() string { return "Date" }

// GetProperty implements jsvalue.PropertyGetter.
func (d *Date) GetProperty(name string) (any, bool) {
	if name == "getTime" || name == "valueOf" {
		return jsvalue.NewFunc(name, func(context.Context, any, []any) (any, error) {
			return d.UnixMilli(), nil
		}), true
	}
	return nil, false
}

// newFunction stands in for the Function constructor. Only the global
// object probe is evaluated; any other body throws when called.
func newFunction(env *Env, body string) *jsvalue.Func {
	return jsvalue.NewFunc("anonymous", func(context.Context, any, []any) (any, error) {
		if strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), ";")) == "return this" {
			return env.global(), nil
		}
		return nil, jsvalue.NewError("EvalError", "code evaluation is not supported")
	})
}

func newUint8Array(v any) (*jsvalue.Uint8Array, error) {
	switch x := jsvalue.Normalize(v).(type) {
	case float64:
		return jsvalue.NewUint8Array(int(x)), nil
	case *jsvalue.ArrayBuffer:
		return &jsvalue.Uint8Array{Buffer: x, Length: len(x.Data)}, nil
	case *jsvalue.Uint8Array:
		return jsvalue.Uint8ArrayOf(append([]byte(nil), x.Bytes()...)), nil
	case *jsvalue.Array:
		out := jsvalue.NewUint8Array(len(x.Elems))
		for i, e := range x.Elems {
			n, _ := jsvalue.ToNumber(e)
			out.Bytes()[i] = byte(int64(n))
		}
		return out, nil
	}
	return nil, jsvalue.NewTypeError("invalid Uint8Array source " + jsvalue.DebugString(v))
}

func newFloat32Array(v any) (*jsvalue.Float32Array, error) {
	switch x := jsvalue.Normalize(v).(type) {
	case float64:
		return jsvalue.Float32ArrayOf(make([]float32, int(x))), nil
	case *jsvalue.ArrayBuffer:
		return &jsvalue.Float32Array{Buffer: x, Length: len(x.Data) / 4}, nil
	case *jsvalue.Float32Array:
		return jsvalue.Float32ArrayOf(x.Values()), nil
	case *jsvalue.Array:
		vals := make([]float32, len(x.Elems))
		for i, e := range x.Elems {
			n, _ := jsvalue.ToNumber(e)
			vals[i] = float32(n)
		}
		return jsvalue.Float32ArrayOf(vals), nil
	}
	return nil, jsvalue.NewTypeError("invalid Float32Array source " + jsvalue.DebugString(v))
}

func newInt32Array(v any) (*jsvalue.Int32Array, error) {
	switch x := jsvalue.Normalize(v).(type) {
	case float64:
		return jsvalue.NewInt32Array(int(x)), nil
	case *jsvalue.ArrayBuffer:
		return &jsvalue.Int32Array{Buffer: x, Length: len(x.Data) / 4}, nil
	case *jsvalue.Int32Array:
		out := jsvalue.NewInt32Array(x.Length)
		for i := 0; i < x.Length; i++ {
			out.SetAt(i, x.At(i))
		}
		return out, nil
	case *jsvalue.Array:
		out := jsvalue.NewInt32Array(len(x.Elems))
		for i, e := range x.Elems {
			n, _ := jsvalue.ToNumber(e)
			out.SetAt(i, toInt32(n))
		}
		return out, nil
	}
	return nil, jsvalue.NewTypeError("invalid Int32Array source " + jsvalue.DebugString(v))
}

// typedView returns the bytes a typed array covers and its element size.
func typedView(v any) ([]byte, int, bool) {
	switch x := v.(type) {
	case *jsvalue.Uint8Array:
		return x.Bytes(), 1, true
	case *jsvalue.Float32Array:
		return x.Buffer.Data[x.Offset : x.Offset+4*x.Length], 4, true
	case *jsvalue.Int32Array:
		return x.Buffer.Data[x.Offset : x.Offset+4*x.Length], 4, true
	}
	return nil, 0, false
}

// typedSet implements TypedArray.prototype.set(src, offset) for a typed
// array or a plain array source.
func typedSet(dst, src any, offset int) error {
	raw, size, ok := typedView(dst)
	if !ok {
		return jsvalue.NewTypeError("set: receiver is not a typed array")
	}
	if arr, isArray := src.(*jsvalue.Array); isArray {
		if (offset+len(arr.Elems))*size > len(raw) {
			return jsvalue.NewError("RangeError", "offset is out of bounds")
		}
		for i, e := range arr.Elems {
			n, _ := jsvalue.ToNumber(e)
			at := raw[(offset+i)*size:]
			switch dst.(type) {
			case *jsvalue.Uint8Array:
				at[0] = byte(int64(n))
			case *jsvalue.Float32Array:
				binary.LittleEndian.PutUint32(at, math.Float32bits(float32(n)))
			default:
				binary.LittleEndian.PutUint32(at, uint32(toInt32(n)))
			}
		}
		return nil
	}
	from, srcSize, ok := typedView(src)
	if !ok || srcSize != size || classOf(src) != classOf(dst) {
		return jsvalue.NewTypeError("set: unsupported source " + jsvalue.DebugString(src))
	}
	if offset*size+len(from) > len(raw) {
		return jsvalue.NewError("RangeError", "offset is out of bounds")
	}
	copy(raw[offset*size:], from)
	return nil
}

func classOf(v any) string {
	switch v.(type) {
	case *jsvalue.Uint8Array:
		return "Uint8Array"
	case *jsvalue.Float32Array:
		return "Float32Array"
	case *jsvalue.Int32Array:
		return "Int32Array"
	}
	return ""
}
