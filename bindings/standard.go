package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Standard returns a catalog with every capability group installed and the
// constructor and overload aliases of the engine's glue.
func Standard() *Catalog {
	c := NewCatalog().Install(Intrinsics, Reflection, DOM, WebGL, Audio, IndexedDB, Fetch, Streams, Input, Platform)
	c.Install(Group{Name: "constructors", Define: defineConstructors})
	for importName, target := range standardAliases {
		c.Alias(importName, target)
	}
	return c
}

// standardAliases maps full import names whose base name is ambiguous
// within one wasm signature to the def that serves them.
var standardAliases = map[string]string{
	"__wbg_new_07b483f72211fd66": "__wbg_new_object",
	"__wbg_new_58353953ad2097cc": "__wbg_new_array",
	"__wbg_new_476169e6d59f23ae": "__wbg_new_error",
	"__wbg_new_8a6f238a6ece86ea": "__wbg_new_error",
	"__wbg_new_e52b3efaaa774f96": "__wbg_new_uint8array",
	"__wbg_new_8cdb7f33c6f5aee6": "__wbg_new_float32array",
	"__wbg_new_181343b7eb238d99": "__wbg_new_int32array",
	"__wbg_new_186abcfdff244e42": "__wbg_new_abortcontroller",
	"__wbg_new_1f502cb9a0045bcf": "__wbg_new_image",
	"__wbg_new_4796e1cd2eb9ea6d": "__wbg_new_headers",
	"__wbg_new_6b048f110f05dc54": "__wbg_new_formdata",
	"__wbg_new_adc2769ebb9320f1": "__wbg_new_audiocontext",
	"__wbg_new_370e6e7bb2e64f80": "__wbg_new_gainnode",
	"__wbg_new_00010f248616803b": "__wbg_new_playbackpositionnode",

	"__wbg_get_a131a44bd1eb6979":             "__wbg_get_index",
	"__wbg_set_7422acbe992d64ab":             "__wbg_set_index",
	"__wbg_next_8bb824d217961b5d":            "__wbg_getnext",
	"__wbg_getRandomValues_38a1ff1ea09f6cc7": "__wbg_getrandom_fill",
}

// defineConstructors serves __wbg_new imports that reach the catalog
// without an alias. The argument decides the class.
func defineConstructors(c *Catalog) {
	c.Func("__wbg_new", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return jsvalue.NewObject(), nil
	})
	c.Func("__wbg_new", Sig(Handle, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.NewError("Error", args.Str(0)), nil
	})
	c.Method("AudioContext", "__wbg_new", Sig(Handle, Ref), true, func(_ context.Context, _ *Env, args Args) (any, error) {
		ac, err := audioContext(args, 0)
		if err != nil {
			return nil, err
		}
		return ac.NewGain()
	})
	c.Catch("__wbg_new", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return newUint8Array(args.Val(0))
	})
}
