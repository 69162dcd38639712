package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/fetch"
	"github.com/wippyai/wbg-runtime/idb"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/stream"
)

// Fetch serves fetch(), Request, Headers, FormData, Blob, AbortController
// and Response.
var Fetch = Group{Name: "fetch", Define: defineFetch}

// Streams serves ReadableStream readers, the controllers handed to guest
// sources and BYOB requests.
var Streams = Group{Name: "streams", Define: defineStreams}

func client(env *Env) (*fetch.Client, error) {
	if env.Fetch == nil {
		return nil, errors.NotInitialized(errors.PhaseHost, "fetch client")
	}
	return env.Fetch, nil
}

// fetchThunk calls fetch(input[, init]) on the env's client. The receiver,
// when present, is the global scope and plays no part.
func fetchThunk(first int) Thunk {
	return func(ctx context.Context, env *Env, args Args) (any, error) {
		c, err := client(env)
		if err != nil {
			return nil, err
		}
		return c.Fetch(ctx, env.Loop, args.Val(first), args.Val(first+1)), nil
	}
}

func defineFetch(c *Catalog) {
	c.Func("__wbg_fetch", Sig(Handle, Ref, Str), fetchThunk(1))
	c.Func("__wbg_fetch", Sig(Handle, Ref, Ref), fetchThunk(1))
	c.Func("__wbg_fetch", Sig(Handle, Ref), fetchThunk(0))
	c.Func("__wbg_fetch", Sig(Handle, Ref, Ref, Ref), fetchThunk(1))

	c.Catch("__wbg_newwithstrandinit", Sig(Handle, Str, Ref), func(_ context.Context, env *Env, args Args) (any, error) {
		cl, err := client(env)
		if err != nil {
			return nil, err
		}
		return cl.Request(args.Str(0), args.Val(1))
	})
	c.Catch("__wbg_newwithstr", Sig(Handle, Str), func(_ context.Context, env *Env, args Args) (any, error) {
		cl, err := client(env)
		if err != nil {
			return nil, err
		}
		return cl.Request(args.Str(0), jsvalue.Undefined{})
	})
	c.setter("__wbg_setbody", "body", Ref)
	c.setter("__wbg_setheaders", "headers", Ref)
	c.setter("__wbg_setmethod", "method", Str)
	c.setter("__wbg_setsignal", "signal", Ref)
	c.Func("__wbg_setmode", Sig(Void, Ref, U32), assignEnum("mode", requestModes))
	c.Func("__wbg_setcredentials", Sig(Void, Ref, U32), assignEnum("credentials", requestCredentials))

	c.Catch("__wbg_new_headers", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return fetch.NewHeaders(), nil
	})
	c.Catch("__wbg_new_formdata", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return fetch.NewFormData(), nil
	})
	c.Catch("__wbg_append", Sig(Void, Ref, Str, Str), send("append"))
	c.Catch("__wbg_append", Sig(Void, Ref, Str, Ref), send("append"))
	c.Catch("__wbg_append", Sig(Void, Ref, Str, Ref, Str), send("append"))
	c.Catch("__wbg_get", Sig(RetOptStr, Ref, Str), send("get"))
	c.Catch("__wbg_set", Sig(Void, Ref, Str, Str), send("set"))
	c.Catch("__wbg_has", Sig(RetBool, Ref, Str), send("has"))
	c.Catch("__wbg_delete", Sig(Void, Ref, Str), send("delete"))
	c.Catch("__wbg_newwithu8arraysequenceandoptions", Sig(Handle, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return fetch.NewBlob(args.Val(0), args.Val(1))
	})
	c.Catch("__wbg_newwithu8arraysequence", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return fetch.NewBlob(args.Val(0), jsvalue.Undefined{})
	})
	c.setter("__wbg_settype", "type", Str)

	c.Catch("__wbg_new_abortcontroller", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return fetch.NewAbortController(), nil
	})
	c.Func("__wbg_abort", Sig(Void, Ref, Ref), send("abort"))
	c.getter("__wbg_signal", "signal", Handle, false)
	c.getter("__wbg_aborted", "aborted", RetBool, false)
	c.setter("__wbg_setonabort", "onabort", Ref)

	c.numeric("__wbg_status", "status")
	c.getter("__wbg_statusText", "statusText", RetStr, false)
	c.getter("__wbg_ok", "ok", RetBool, false)
	c.getter("__wbg_url", "url", RetStr, false)
	c.getter("__wbg_headers", "headers", Handle, false)
	c.Catch("__wbg_arrayBuffer", Sig(Handle, Ref), send("arrayBuffer"))
	c.Catch("__wbg_text", Sig(Handle, Ref), send("text"))
}

func defineStreams(c *Catalog) {
	c.Catch("__wbg_getReader", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		s, err := As[*stream.ReadableStream](args.Val(0), "ReadableStream")
		if err != nil {
			return nil, err
		}
		return s.GetReader()
	})
	c.Func("__wbg_read", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		r, err := As[*stream.Reader](args.Val(0), "ReadableStreamDefaultReader")
		if err != nil {
			return nil, err
		}
		return r.Read(), nil
	})
	c.Func("__wbg_releaseLock", Sig(Void, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		r, err := As[*stream.Reader](args.Val(0), "ReadableStreamDefaultReader")
		if err != nil {
			return nil, err
		}
		r.ReleaseLock()
		return nil, nil
	})
	cancel := func(_ context.Context, _ *Env, args Args) (any, error) {
		reason := args.Val(1)
		switch v := args.Val(0).(type) {
		case *stream.Reader:
			return v.Cancel(reason), nil
		case *stream.ReadableStream:
			return v.Cancel(reason), nil
		}
		return nil, jsvalue.NewTypeError("expected ReadableStream or reader, got " + jsvalue.DebugString(args.Val(0)))
	}
	c.Func("__wbg_cancel", Sig(Handle, Ref), cancel)
	c.Func("__wbg_cancel", Sig(Handle, Ref, Ref), cancel)

	c.Catch("__wbg_enqueue", Sig(Void, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		ctrl, err := As[interface{ Enqueue(any) error }](args.Val(0), "ReadableStreamController")
		if err != nil {
			return nil, err
		}
		return nil, ctrl.Enqueue(args.Val(1))
	})
	// IDBDatabase.close and the stream controllers' close share a signature.
	c.Catch("__wbg_close", Sig(Void, Ref), func(ctx context.Context, _ *Env, args Args) (any, error) {
		switch v := args.Val(0).(type) {
		case *idb.Database:
			v.Close()
			return nil, nil
		case interface{ Close() error }:
			return nil, v.Close()
		}
		fn, err := jsvalue.Get(args.Val(0), "close")
		if err != nil {
			return nil, err
		}
		return jsvalue.Call(ctx, fn, args.Val(0))
	})
	c.getter("__wbg_desiredSize", "desiredSize", RetOptF64, false)
	c.getter("__wbg_byobRequest", "byobRequest", OptHandle, false)
	c.getter("__wbg_view", "view", OptHandle, false)
	c.Catch("__wbg_respond", Sig(Void, Ref, U32), func(_ context.Context, _ *Env, args Args) (any, error) {
		r, err := As[*stream.BYOBRequest](args.Val(0), "ReadableStreamBYOBRequest")
		if err != nil {
			return nil, err
		}
		return nil, r.Respond(args.U32(1))
	})
	c.setter("__wbg_setsize", "size", U32)
}
