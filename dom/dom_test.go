package dom

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/store"
)

func counter(n *int) *jsvalue.Func {
	return jsvalue.NewFunc("listener", func(context.Context, any, []any) (any, error) {
		*n++
		return jsvalue.Undefined{}, nil
	})
}

func TestEventTarget_HandlerThenListeners(t *testing.T) {
	ctx := context.Background()
	var target EventTarget
	var order []string
	mk := func(name string) *jsvalue.Func {
		return jsvalue.NewFunc(name, func(context.Context, any, []any) (any, error) {
			order = append(order, name)
			return jsvalue.Undefined{}, nil
		})
	}
	a, b := mk("a"), mk("b")
	target.AddEventListener("ping", a)
	target.AddEventListener("ping", a)
	target.AddOnceListener("ping", b)
	target.SetHandler("ping", mk("on"))

	_, err := target.Dispatch(ctx, &target, NewEvent("ping"))
	require.NoError(t, err)
	_, err = target.Dispatch(ctx, &target, NewEvent("ping"))
	require.NoError(t, err)
	assert.Equal(t, []string{"on", "a", "b", "on", "a"}, order)

	target.RemoveEventListener("ping", a)
	target.SetHandler("ping", jsvalue.Null{})
	assert.False(t, target.HasListeners("ping"))
}

func TestEventTarget_PreventDefaultAndErrors(t *testing.T) {
	var target EventTarget
	boom := errors.New("boom")
	target.AddEventListener("key", jsvalue.NewFunc("prevent", func(_ context.Context, _ any, args []any) (any, error) {
		args[0].(*Event).PreventDefault()
		return nil, boom
	}))
	n := 0
	target.AddEventListener("key", counter(&n))

	ok, err := target.Dispatch(context.Background(), &target, NewEvent("key"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n, "a throwing listener must not stop later ones")
}

func TestDocument_TreeAndLookup(t *testing.T) {
	doc := NewDocument(eventloop.New(), nil)

	div, err := doc.CreateElement("div")
	require.NoError(t, err)
	canvasNode, err := doc.CreateElement("canvas")
	require.NoError(t, err)
	canvas := canvasNode.(*Canvas)
	canvas.SetAttribute("id", "game")

	assert.Nil(t, doc.GetElementByID("game"), "detached elements are not found")

	_, err = doc.Body().AppendChild(div)
	require.NoError(t, err)
	_, err = div.Base().AppendChild(canvas)
	require.NoError(t, err)
	assert.Same(t, canvas, doc.GetElementByID("game"))
	assert.True(t, canvas.Connected())

	_, err = canvas.AppendChild(div)
	assert.Equal(t, "HierarchyRequestError", err.(*jsvalue.Error).Name)

	_, err = doc.Body().AppendChild(canvas)
	require.NoError(t, err)
	assert.Empty(t, div.Base().Children())
	assert.Same(t, doc.Body(), canvas.Parent())

	_, err = doc.CreateElement("bad name")
	assert.Equal(t, "InvalidCharacterError", err.(*jsvalue.Error).Name)
}

func TestElement_StyleAndReflection(t *testing.T) {
	doc := NewDocument(eventloop.New(), nil)
	n, _ := doc.CreateElement("div")
	el := n.Base()

	style, err := jsvalue.Get(n, "style")
	require.NoError(t, err)
	setProp, _ := jsvalue.Get(style, "setProperty")
	_, err = jsvalue.Call(context.Background(), setProp, style, "Width", "100%")
	require.NoError(t, err)
	el.Style.SetProperty("height", "50px")
	assert.Equal(t, "width: 100%; height: 50px;", el.Style.CSSText())
	el.Style.SetProperty("width", "")
	assert.Equal(t, "height: 50px;", el.Style.CSSText())

	require.NoError(t, jsvalue.Set(n, "hidden", true))
	assert.True(t, el.Hidden)
	el.Rect = Rect{X: 10, Y: 20, Width: 640, Height: 480}
	rect := el.GetBoundingClientRect()
	right, _ := jsvalue.Get(rect, "right")
	assert.Equal(t, 650.0, right)
	assert.True(t, jsvalue.InstanceOf(n, "HTMLElement"))
	assert.False(t, jsvalue.InstanceOf(n, "HTMLCanvasElement"))
}

func TestElement_Focus(t *testing.T) {
	ctx := context.Background()
	doc := NewDocument(eventloop.New(), nil)
	a, _ := doc.CreateElement("input")
	b, _ := doc.CreateElement("canvas")
	doc.Body().AppendChild(a)
	doc.Body().AppendChild(b)

	blurs, focuses := 0, 0
	a.Base().AddEventListener("blur", counter(&blurs))
	b.Base().AddEventListener("focus", counter(&focuses))

	require.NoError(t, a.Base().Focus(ctx))
	require.NoError(t, b.Base().Focus(ctx))
	require.NoError(t, b.Base().Focus(ctx))
	assert.Equal(t, 1, blurs)
	assert.Equal(t, 1, focuses)
	assert.Same(t, b, doc.ActiveElement())
}

func TestCanvas_GetContext(t *testing.T) {
	doc := NewDocument(eventloop.New(), nil)
	created := 0
	doc.RegisterContext("webgl", func(c *Canvas, _ any) (any, error) {
		created++
		return jsvalue.NewObject(), nil
	})
	n, _ := doc.CreateElement("canvas")
	c := n.(*Canvas)
	assert.Equal(t, uint32(300), c.Width)
	assert.Equal(t, uint32(150), c.Height)

	gl, err := c.GetContext("webgl", nil)
	require.NoError(t, err)
	again, _ := c.GetContext("webgl", nil)
	assert.Same(t, gl, again)
	other, _ := c.GetContext("2d", nil)
	assert.Nil(t, other)
	assert.Equal(t, 1, created)

	require.NoError(t, jsvalue.Set(c, "width", 1024.0))
	assert.Equal(t, uint32(1024), c.Width)
	assert.True(t, jsvalue.InstanceOf(c, "HTMLCanvasElement"))
	assert.True(t, jsvalue.InstanceOf(c, "Element"))
}

func TestDocument_PointerLockAndFullscreen(t *testing.T) {
	ctx := context.Background()
	doc := NewDocument(eventloop.New(), nil)
	n, _ := doc.CreateElement("canvas")
	changes, fs := 0, 0
	doc.AddEventListener("pointerlockchange", counter(&changes))
	doc.AddEventListener("fullscreenchange", counter(&fs))

	require.NoError(t, n.Base().RequestPointerLock(ctx))
	require.NoError(t, n.Base().RequestPointerLock(ctx))
	assert.Same(t, n, doc.PointerLockElement())
	require.NoError(t, doc.ExitPointerLock(ctx))
	assert.Nil(t, doc.PointerLockElement())
	assert.Equal(t, 2, changes)

	require.NoError(t, doc.SetFullscreen(ctx, n, true))
	require.NoError(t, doc.SetFullscreen(ctx, n, false))
	require.NoError(t, doc.SetFullscreen(ctx, n, false))
	assert.Nil(t, doc.FullscreenElement())
	assert.Equal(t, 2, fs)
}

func pngBytes(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestImage_Load(t *testing.T) {
	loop := eventloop.New()
	doc := NewDocument(loop, nil)
	data := pngBytes(t, 4, 2)
	doc.Loader = func(_ context.Context, url string) ([]byte, error) {
		if url == "assets/atlas.png" {
			return data, nil
		}
		return nil, errors.New("missing")
	}

	ok := doc.NewImage()
	bad := doc.NewImage()
	var events []string
	ok.SetHandler("load", jsvalue.NewFunc("onload", func(context.Context, any, []any) (any, error) {
		events = append(events, "ok:load")
		return jsvalue.Undefined{}, nil
	}))
	bad.SetHandler("error", jsvalue.NewFunc("onerror", func(context.Context, any, []any) (any, error) {
		events = append(events, "bad:error")
		return jsvalue.Undefined{}, nil
	}))

	loop.Post(func() {
		require.NoError(t, jsvalue.Set(ok, "src", "assets/atlas.png"))
		bad.SetSrc("assets/missing.png")
	})
	require.NoError(t, loop.Run(context.Background()))

	assert.ElementsMatch(t, []string{"ok:load", "bad:error"}, events)
	assert.Equal(t, 4, ok.NaturalWidth)
	assert.Equal(t, 2, ok.NaturalHeight)
	assert.True(t, ok.Complete())
}

func TestWindow_GlobalsAndStorage(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, store.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var overlays []Overlay
	w := NewWindow(eventloop.New(),
		WithHref("https://game.example/play?level=2"),
		WithDevicePixelRatio(2),
		WithStorage(db),
		WithOverlayHook(func(o Overlay) { overlays = append(overlays, o) }),
	)
	assert.Equal(t, "https://game.example", w.Origin())
	search, _ := jsvalue.Get(w.Location, "search")
	assert.Equal(t, "?level=2", search)
	dpr, _ := jsvalue.Get(w, "devicePixelRatio")
	assert.Equal(t, 2.0, dpr)
	self, _ := jsvalue.Get(w, "globalThis")
	assert.Same(t, w, self)

	s := w.LocalStorage()
	require.NotNil(t, s)
	require.NoError(t, s.SetItem(ctx, "volume", "0.5"))
	get, _ := jsvalue.Get(s, "getItem")
	v, err := jsvalue.Call(ctx, get, s, "volume")
	require.NoError(t, err)
	assert.Equal(t, "0.5", v)
	v, _ = jsvalue.Call(ctx, get, s, "missing")
	assert.Equal(t, jsvalue.Null{}, v)

	total := 10.0
	w.SetProgressTitle("Loading")
	w.SetProgress(3, &total)
	w.ShowError("boom")
	require.Len(t, overlays, 3)
	assert.Equal(t, Overlay{Title: "Loading", Progress: 3, Total: 10, HasTotal: true, Error: "boom"}, overlays[2])

	bare := NewWindow(eventloop.New())
	ls, _ := jsvalue.Get(bare, "localStorage")
	assert.Equal(t, jsvalue.Null{}, ls)
	assert.Equal(t, "null", bare.Origin())
}

func TestCrypto(t *testing.T) {
	c := &Crypto{}
	buf := make([]byte, 32)
	require.NoError(t, c.GetRandomValues(buf))
	assert.NotEqual(t, make([]byte, 32), buf)

	err := c.GetRandomValues(make([]byte, maxRandomBytes+1))
	assert.Equal(t, "QuotaExceededError", err.(*jsvalue.Error).Name)
	assert.Len(t, c.RandomUUID(), 36)
}
