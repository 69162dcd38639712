package bindings

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/memory"
	"github.com/wippyai/wbg-runtime/wat"
)

// allocatorWAT is a bump allocator from address 1024 with a no-op free.
const allocatorWAT = `
	(global $heap_top (mut i32) (i32.const 1024))
	(func (export "__wbindgen_malloc") (param $size i32) (param $align i32) (result i32)
		(local $ptr i32)
		(local.set $ptr (i32.and (i32.add (global.get $heap_top) (i32.const 7)) (i32.const -8)))
		(global.set $heap_top (i32.add (local.get $ptr) (local.get $size)))
		(local.get $ptr))
	(func (export "__wbindgen_free") (param i32 i32 i32))`

// exnSlotWAT exports __wbindgen_exn_store, recording the handle in a
// global read back through the "exn" export.
const exnSlotWAT = `
	(global $exn (mut i32) (i32.const 0))
	(func (export "` + ExportExnStore + `") (param i32) (global.set $exn (local.get 0)))
	(func (export "exn") (result i32) (global.get $exn))`

// guest is a linked test instance with its env.
type guest struct {
	ctx context.Context
	mod api.Module
	env *Env
}

func (g *guest) call(t *testing.T, name string, params ...uint64) []uint64 {
	t.Helper()
	res, err := g.mod.ExportedFunction(name).Call(g.ctx, params...)
	require.NoError(t, err, name)
	return res
}

func compileWAT(t *testing.T, src string) []byte {
	t.Helper()
	bin, err := wat.Compile(src)
	require.NoError(t, err)
	return bin
}

// link compiles src, links it against c and instantiates it.
func link(t *testing.T, src string, c *Catalog) *guest {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	compiled, err := rt.CompileModule(ctx, compileWAT(t, src))
	require.NoError(t, err)
	_, err = Link(ctx, rt, compiled, c)
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	require.NoError(t, err)

	env := &Env{Heap: heap.NewTable(), Memory: memory.NewBridge(mod.Memory())}
	if alloc := memory.NewGuestAllocator(mod); alloc != nil {
		env.Alloc = alloc
	}
	env.Bind(mod)
	return &guest{ctx: WithEnv(ctx, env), mod: mod, env: env}
}

func TestLink_HashedImports(t *testing.T) {
	g := link(t, `(module
		(import "wbg" "__wbg_new_07b483f72211fd66" (func $new_object (result i32)))
		(import "wbg" "__wbindgen_string_new" (func $string_new (param i32 i32) (result i32)))
		(memory (export "memory") 1)
		(data (i32.const 16) "héllo")
		`+allocatorWAT+`
		(func (export "object") (result i32) (call $new_object))
		(func (export "text") (result i32) (call $string_new (i32.const 16) (i32.const 6))))`, Standard())

	h := heap.Handle(g.call(t, "object")[0])
	_, ok := g.env.Heap.Get(h).(*jsvalue.Object)
	assert.True(t, ok, "new Object()")

	h = heap.Handle(g.call(t, "text")[0])
	assert.Equal(t, "héllo", g.env.Heap.Get(h))
}

func TestLink_ReportsMissingImports(t *testing.T) {
	bin := compileWAT(t, `(module
		(import "wbg" "__wbg_teleport_0123456789abcdef" (func (param i32)))
		(import "wbg" "__wbindgen_string_new" (func (param i32 i32) (result i32)))
		(import "env" "other" (func)))`)

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	compiled, err := rt.CompileModule(ctx, bin)
	require.NoError(t, err)

	plan := Standard().Plan(compiled)
	assert.Equal(t, 1, plan.Len())
	assert.Equal(t, []string{"wbg#__wbg_teleport_0123456789abcdef(i32)->()"}, plan.Missing())
	assert.Equal(t, 1, plan.Groups()["intrinsics"])

	_, err = plan.Instantiate(ctx, rt)
	var missing *errors.MissingImportsError
	require.True(t, stderrors.As(err, &missing))
}

func TestLink_CatchStoresException(t *testing.T) {
	c := NewCatalog()
	c.Catch("__wbg_boom", Sig(Handle), func(context.Context, *Env, Args) (any, error) {
		return nil, jsvalue.NewTypeError("boom")
	})
	g := link(t, `(module
		(import "wbg" "__wbg_boom_0123456789abcdef" (func $boom (result i32)))
		(memory (export "memory") 1)
		`+exnSlotWAT+`
		(func (export "run") (result i32) (call $boom)))`, c)
	assert.Zero(t, g.call(t, "run")[0], "results are zeroed")

	h := heap.Handle(g.call(t, "exn")[0])
	require.NotZero(t, h)
	je, ok := g.env.Heap.Get(h).(*jsvalue.Error)
	require.True(t, ok)
	assert.Equal(t, "TypeError", je.Name)
	assert.Equal(t, "boom", je.Message)
}

func TestLink_NonCatchingTraps(t *testing.T) {
	g := link(t, `(module
		(import "wbg" "__wbindgen_throw" (func $throw (param i32 i32)))
		(memory (export "memory") 1)
		(data (i32.const 0) "bad")
		`+exnSlotWAT+`
		(func (export "run") (call $throw (i32.const 0) (i32.const 3))))`, Standard())
	_, err := g.mod.ExportedFunction("run").Call(g.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Zero(t, g.call(t, "exn")[0])
}

func TestLink_StringResultThroughRetptr(t *testing.T) {
	c := NewCatalog()
	c.Func("__wbg_name", Sig(RetStr, Ref), prop("name"))
	g := link(t, `(module
		(import "wbg" "__wbg_name_0123456789abcdef" (func $name (param i32 i32)))
		(memory (export "memory") 1)
		`+allocatorWAT+`
		(func (export "run") (param $obj i32) (call $name (i32.const 64) (local.get $obj))))`, c)

	obj := jsvalue.NewObject()
	require.NoError(t, jsvalue.Set(obj, "name", "canvas"))
	h := g.env.Heap.Alloc(obj)
	g.call(t, "run", uint64(h))

	ptr := g.env.Memory.DataView().GetInt32(64)
	n := g.env.Memory.DataView().GetInt32(68)
	s, err := g.env.Memory.ReadString(uint32(ptr), uint32(n))
	require.NoError(t, err)
	assert.Equal(t, "canvas", s)
}
