package bindings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

var (
	i32  = api.ValueTypeI32
	f64  = api.ValueTypeF64
	none []api.ValueType
)

type widget struct{ closed bool }

func (*widget) ClassName() string { return "Widget" }

func constant(v any) Thunk {
	return func(context.Context, *Env, Args) (any, error) { return v, nil }
}

func TestCatalog_ResolveStripsHash(t *testing.T) {
	c := NewCatalog()
	c.Func("__wbg_width", Sig(RetF64, Ref), prop("width"))

	b := c.Resolve("__wbg_width_0123456789abcdef", []api.ValueType{i32}, []api.ValueType{f64})
	require.NotNil(t, b)
	assert.Equal(t, "__wbg_width_0123456789abcdef", b.Import)
	assert.Len(t, b.Defs(), 1)

	assert.Nil(t, c.Resolve("__wbg_width_0123456789abcdef", []api.ValueType{i32}, []api.ValueType{i32}),
		"result type mismatch must not resolve")
	assert.Nil(t, c.Resolve("__wbg_height_0123456789abcdef", []api.ValueType{i32}, []api.ValueType{f64}))
}

func TestCatalog_ShapeOverloads(t *testing.T) {
	c := NewCatalog()
	c.Func("__wbg_start", Sig(Void, Ref), constant(nil))
	c.Func("__wbg_start", Sig(Void, Ref, F64), constant(nil))

	one := c.Resolve("__wbg_start_aaaaaaaaaaaaaaaa", []api.ValueType{i32}, none)
	two := c.Resolve("__wbg_start_bbbbbbbbbbbbbbbb", []api.ValueType{i32, f64}, none)
	require.NotNil(t, one)
	require.NotNil(t, two)
	assert.Len(t, one.Defs()[0].Shape.Params, 1)
	assert.Len(t, two.Defs()[0].Shape.Params, 2)
}

func TestCatalog_DefineReplacesSameShape(t *testing.T) {
	c := NewCatalog()
	c.Func("__wbg_x", Sig(Handle), constant(1.0))
	c.Catch("__wbg_x", Sig(Handle), constant(2.0))
	c.Method("Widget", "__wbg_x", Sig(Handle), false, constant(3.0))

	defs := c.Defs("__wbg_x")
	require.Len(t, defs, 2)
	assert.True(t, defs[0].Catch)
	assert.Equal(t, "Widget", defs[1].Recv)
	assert.Equal(t, 2, c.Len())
}

func TestCatalog_Alias(t *testing.T) {
	c := NewCatalog()
	c.Func("__wbg_new_object", Sig(Handle), constant(jsvalue.NewObject()))
	c.Func("__wbg_new_array", Sig(Handle), constant(jsvalue.NewArray()))
	c.Alias("__wbg_new_07b483f72211fd66", "__wbg_new_object")

	b := c.Resolve("__wbg_new_07b483f72211fd66", none, []api.ValueType{i32})
	require.NotNil(t, b)
	assert.Equal(t, "__wbg_new_object", b.Defs()[0].Name)

	assert.Nil(t, c.Resolve("__wbg_new_58353953ad2097cc", none, []api.ValueType{i32}),
		"unaliased constructor has no __wbg_new def")
}

func TestCatalog_InstallTagsGroups(t *testing.T) {
	c := NewCatalog().Install(
		Group{Name: "a", Define: func(c *Catalog) { c.Func("__wbg_one", Sig(Void), constant(nil)) }},
		Group{Name: "b", Define: func(c *Catalog) { c.Func("__wbg_two", Sig(Void), constant(nil)) }},
	)
	assert.Equal(t, "a", c.Defs("__wbg_one")[0].Group)
	assert.Equal(t, "b", c.Defs("__wbg_two")[0].Group)
	assert.Equal(t, []string{"__wbg_one", "__wbg_two"}, c.Names())
}

func TestBinding_PickByReceiver(t *testing.T) {
	c := NewCatalog()
	c.Method("Widget", "__wbg_close", Sig(Void, Ref), false, func(_ context.Context, _ *Env, args Args) (any, error) {
		args.Val(0).(*widget).closed = true
		return nil, nil
	})
	var fallback int
	c.Func("__wbg_close", Sig(Void, Ref), func(context.Context, *Env, Args) (any, error) {
		fallback++
		return nil, nil
	})

	b := c.Resolve("__wbg_close_0123456789abcdef", []api.ValueType{i32}, none)
	require.NotNil(t, b)
	require.Len(t, b.Defs(), 2)
	assert.Equal(t, "Widget", b.Defs()[0].Recv, "receiver-specific defs come first")

	env := &Env{Heap: heap.NewTable()}
	ctx := WithEnv(context.Background(), env)
	w := &widget{}
	wh := env.Heap.Alloc(w)
	oh := env.Heap.Alloc(jsvalue.NewObject())

	b.Handler()(ctx, nil, []uint64{uint64(wh)})
	assert.True(t, w.closed)
	assert.Zero(t, fallback)

	b.Handler()(ctx, nil, []uint64{uint64(oh)})
	assert.Equal(t, 1, fallback)

	assert.Panics(t, func() { b.Handler()(ctx, nil, []uint64{9999}) }, "dangling handle is a contract violation")
	assert.Equal(t, 1, fallback)
}

func TestBinding_NonCatchingErrorTraps(t *testing.T) {
	c := NewCatalog()
	c.Func("__wbg_fail", Sig(Void), func(context.Context, *Env, Args) (any, error) {
		return nil, jsvalue.NewTypeError("nope")
	})
	b := c.Resolve("__wbg_fail", none, none)
	require.NotNil(t, b)

	ctx := WithEnv(context.Background(), &Env{Heap: heap.NewTable()})
	assert.Panics(t, func() { b.Handler()(ctx, nil, nil) })
}

func TestBinding_MissingEnvPanics(t *testing.T) {
	c := NewCatalog()
	c.Func("__wbg_noop", Sig(Void), constant(nil))
	b := c.Resolve("__wbg_noop", none, none)
	require.NotNil(t, b)
	assert.Panics(t, func() { b.Handler()(context.Background(), nil, nil) })
}

func TestStandard_Groups(t *testing.T) {
	c := Standard()
	groups := map[string]bool{}
	for _, name := range c.Names() {
		for _, d := range c.Defs(name) {
			groups[d.Group] = true
		}
	}
	for _, g := range []string{"intrinsics", "reflection", "dom", "webgl", "audio", "indexeddb", "fetch", "streams", "input", "platform", "constructors"} {
		assert.True(t, groups[g], "group %s installed", g)
	}

	for importName, target := range standardAliases {
		assert.NotEmpty(t, c.Defs(target), "alias %s targets undefined %s", importName, target)
	}
}
