package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// prop returns a thunk reading the named property of the first argument.
func prop(name string) Thunk {
	return func(_ context.Context, _ *Env, args Args) (any, error) {
		return jsvalue.Get(args.Val(0), name)
	}
}

// assign returns a thunk writing the second argument to the named property
// of the first.
func assign(name string) Thunk {
	return func(_ context.Context, _ *Env, args Args) (any, error) {
		return nil, jsvalue.Set(args.Val(0), name, args.Val(1))
	}
}

// assignEnum is assign for enum-typed properties passed as table indices.
func assignEnum(name string, table []string) Thunk {
	return func(_ context.Context, _ *Env, args Args) (any, error) {
		return nil, jsvalue.Set(args.Val(0), name, enumValue(table, args.U32(1)))
	}
}

// send returns a thunk calling the named method of the first argument with
// the remaining arguments.
func send(name string) Thunk {
	return func(ctx context.Context, _ *Env, args Args) (any, error) {
		recv := args.Val(0)
		fn, err := jsvalue.Get(recv, name)
		if err != nil {
			return nil, err
		}
		rest := make([]any, 0, len(args))
		for _, a := range args[1:] {
			rest = append(rest, jsvalue.Normalize(a))
		}
		return jsvalue.Call(ctx, fn, recv, rest...)
	}
}

// enumValue maps a generated enum discriminant to its string. Out of range
// discriminants are undefined.
func enumValue(table []string, i uint32) any {
	if int(i) < len(table) {
		return table[i]
	}
	return jsvalue.Undefined{}
}

// getter defines a property read.
func (c *Catalog) getter(name, property string, r Result, catch bool) {
	c.Define(&Def{Name: name, Shape: Sig(r, Ref), Catch: catch, Fn: prop(property)})
}

// numeric defines a number-valued property read for every result width a
// guest may declare.
func (c *Catalog) numeric(name, property string) {
	for _, r := range []Result{RetI32, RetF32, RetF64} {
		c.getter(name, property, r, false)
	}
}

// setter defines a property write.
func (c *Catalog) setter(name, property string, p Param) {
	c.Func(name, Sig(Void, Ref, p), assign(property))
}

// Generated enum tables, indexed by discriminant.
var (
	cursorDirections   = []string{"next", "nextunique", "prev", "prevunique"}
	transactionModes   = []string{"readonly", "readwrite", "versionchange", "readwriteflush", "cleanup"}
	streamTypes        = []string{"bytes"}
	requestCredentials = []string{"omit", "same-origin", "include"}
	requestModes       = []string{"same-origin", "no-cors", "cors", "navigate"}
)

func stringArray(list []string) *jsvalue.Array {
	arr := jsvalue.NewArray()
	for _, s := range list {
		arr.Push(s)
	}
	return arr
}
