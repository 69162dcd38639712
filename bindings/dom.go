package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// DOM serves the document tree, canvas and image elements, events and the
// loader overlay snippets.
var DOM = Group{Name: "dom", Define: defineDOM}

func defineDOM(c *Catalog) {
	c.getter("__wbg_document", "document", OptHandle, false)
	c.getter("__wbg_body", "body", OptHandle, false)
	c.getter("__wbg_location", "location", Handle, false)
	c.getter("__wbg_href", "href", RetStr, true)
	c.numeric("__wbg_devicePixelRatio", "devicePixelRatio")
	c.getter("__wbg_pointerLockElement", "pointerLockElement", OptHandle, false)
	c.getter("__wbg_style", "style", Handle, false)

	c.Catch("__wbg_createElement", Sig(Handle, Ref, Str), send("createElement"))
	c.Func("__wbg_getElementById", Sig(OptHandle, Ref, Str), send("getElementById"))
	c.Catch("__wbg_appendChild", Sig(Handle, Ref, Ref), send("appendChild"))
	c.Catch("__wbg_getContext", Sig(OptHandle, Ref, Str), send("getContext"))
	c.Catch("__wbg_getContext", Sig(OptHandle, Ref, Str, Ref), send("getContext"))
	c.Catch("__wbg_setProperty", Sig(Void, Ref, Str, Str), send("setProperty"))
	c.Catch("__wbg_setAttribute", Sig(Void, Ref, Str, Str), send("setAttribute"))
	c.Catch("__wbg_focus", Sig(Void, Ref), send("focus"))
	c.Func("__wbg_getBoundingClientRect", Sig(Handle, Ref), send("getBoundingClientRect"))
	c.Catch("__wbg_requestPointerLock", Sig(Void, Ref), func(ctx context.Context, _ *Env, args Args) (any, error) {
		n, err := As[dom.Node](args.Val(0), "Element")
		if err != nil {
			return nil, err
		}
		return nil, n.Base().RequestPointerLock(ctx)
	})
	c.Catch("__wbg_exitPointerLock", Sig(Void, Ref), send("exitPointerLock"))

	for _, p := range []string{"left", "top", "right", "bottom", "width", "height"} {
		c.numeric("__wbg_"+p, p)
	}
	c.setter("__wbg_setwidth", "width", U32)
	c.setter("__wbg_setheight", "height", U32)
	c.setter("__wbg_sethidden", "hidden", Bool)
	c.setter("__wbg_setautofocus", "autofocus", Bool)
	c.setter("__wbg_setid", "id", Str)
	c.setter("__wbg_setsrc", "src", Str)
	c.getter("__wbg_value", "value", RetStr, false)
	c.setter("__wbg_setvalue", "value", Str)

	c.Catch("__wbg_new_image", Sig(Handle), func(_ context.Context, env *Env, _ Args) (any, error) {
		doc, err := document(env)
		if err != nil {
			return nil, err
		}
		return doc.NewImage(), nil
	})

	c.Catch("__wbg_addEventListener", Sig(Void, Ref, Str, Ref), send("addEventListener"))
	c.Catch("__wbg_removeEventListener", Sig(Void, Ref, Str, Ref), send("removeEventListener"))
	c.Func("__wbg_preventDefault", Sig(Void, Ref), send("preventDefault"))
	c.getter("__wbg_target", "target", OptHandle, false)
	c.getter("__wbg_type", "type", RetStr, false)
	c.numeric("__wbg_type", "type")

	defineOverlay(c)
}

// defineOverlay serves the loader page snippets.
func defineOverlay(c *Catalog) {
	c.Func("__wbg_showerror", Sig(Void, Str), func(_ context.Context, env *Env, args Args) (any, error) {
		w, err := window(env)
		if err != nil {
			return nil, err
		}
		w.ShowError(args.Str(0))
		return nil, nil
	})
	c.Func("__wbg_setprogresstitle", Sig(Void, Str), func(_ context.Context, env *Env, args Args) (any, error) {
		w, err := window(env)
		if err != nil {
			return nil, err
		}
		w.SetProgressTitle(args.Str(0))
		return nil, nil
	})
	c.Func("__wbg_setprogress", Sig(Void, F64, OptF64), func(_ context.Context, env *Env, args Args) (any, error) {
		w, err := window(env)
		if err != nil {
			return nil, err
		}
		var total *float64
		if v, ok := args.Maybe(1); ok {
			total = &v
		}
		w.SetProgress(args.F64(0), total)
		return nil, nil
	})
	c.Func("__wbg_setfullscreen", Sig(Void, Ref, Bool), func(ctx context.Context, env *Env, args Args) (any, error) {
		doc, err := document(env)
		if err != nil {
			return nil, err
		}
		n, err := As[dom.Node](args.Val(0), "Element")
		if err != nil {
			return nil, err
		}
		return nil, doc.SetFullscreen(ctx, n, args.Bool(1))
	})
}

func window(env *Env) (*dom.Window, error) {
	if env.Window == nil {
		return nil, errors.NotInitialized(errors.PhaseHost, "window")
	}
	return env.Window, nil
}

func document(env *Env) (*dom.Document, error) {
	w, err := window(env)
	if err != nil {
		return nil, err
	}
	return w.Document, nil
}

// orNull maps nil pointers of host classes to null.
func orNull[T comparable](v T) any {
	var zero T
	if v == zero {
		return jsvalue.Null{}
	}
	return v
}
