package dom

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Loader fetches a resource referenced by an element, e.g. an image src.
type Loader func(ctx context.Context, url string) ([]byte, error)

// Document owns the element tree. It starts with a documentElement holding
// an empty body.
type Document struct {
	EventTarget
	// Loader is used by image elements. A nil Loader fails every load.
	Loader Loader

	loop        *eventloop.Loop
	log         *zap.Logger
	root        *Element
	body        *Element
	contexts    map[string]ContextFactory
	active      Node
	pointerLock Node
	fullscreen  Node
}

// NewDocument creates a document bound to loop.
func NewDocument(loop *eventloop.Loop, log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Document{loop: loop, log: log, contexts: make(map[string]ContextFactory)}
	d.root = &Element{}
	d.root.init(d, "html", d.root)
	d.body = &Element{}
	d.body.init(d, "body", d.body)
	d.root.AppendChild(d.body)
	return d
}

// RegisterContext installs the factory behind canvas.getContext(kind).
func (d *Document) RegisterContext(kind string, f ContextFactory) {
	d.contexts[kind] = f
}

// Body returns the body element.
func (d *Document) Body() *Element { return d.body }

// DocumentElement returns the root element.
func (d *Document) DocumentElement() *Element { return d.root }

// CreateElement creates a detached element. Names must be non-empty and
// free of whitespace and markup characters.
func (d *Document) CreateElement(tag string) (Node, error) {
	if tag == "" || strings.ContainsAny(tag, " \t\n\r\f<>/=\"'") {
		return nil, jsvalue.NewError("InvalidCharacterError",
			"Failed to execute 'createElement' on 'Document': The tag name provided ('"+tag+"') is not a valid name.")
	}
	var n Node
	switch strings.ToLower(tag) {
	case "canvas":
		c := &Canvas{Width: 300, Height: 150}
		c.init(d, tag, c)
		n = c
	case "img":
		img := &Image{}
		img.init(d, tag, img)
		n = img
	case "input":
		in := &Input{}
		in.init(d, tag, in)
		n = in
	default:
		e := &Element{}
		e.init(d, tag, e)
		n = e
	}
	return n, nil
}

// NewImage implements new Image().
func (d *Document) NewImage() *Image {
	n, _ := d.CreateElement("img")
	return n.(*Image)
}

// GetElementByID finds the first connected element with the id in tree
// order.
func (d *Document) GetElementByID(id string) Node {
	if id == "" {
		return nil
	}
	var found Node
	var walk func(n Node) bool
	walk = func(n Node) bool {
		e := n.Base()
		if e.ID == id {
			found = n
			return true
		}
		for _, c := range e.children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.root)
	return found
}

// ActiveElement returns the focused element, or the body.
func (d *Document) ActiveElement() Node {
	if d.active == nil || !d.active.Base().Connected() {
		return d.body
	}
	return d.active
}

// PointerLockElement returns the element holding the pointer lock.
func (d *Document) PointerLockElement() Node { return d.pointerLock }

// ExitPointerLock releases the pointer lock.
func (d *Document) ExitPointerLock(ctx context.Context) error {
	return d.setPointerLock(ctx, nil)
}

func (d *Document) setPointerLock(ctx context.Context, n Node) error {
	if d.pointerLock == n {
		return nil
	}
	d.pointerLock = n
	_, err := d.Dispatch(ctx, d, NewEvent("pointerlockchange"))
	return err
}

// FullscreenElement returns the element shown fullscreen.
func (d *Document) FullscreenElement() Node { return d.fullscreen }

// SetFullscreen enters or leaves fullscreen for n and fires
// fullscreenchange when the state changes.
func (d *Document) SetFullscreen(ctx context.Context, n Node, on bool) error {
	next := d.fullscreen
	switch {
	case on:
		next = n
	case d.fullscreen != nil && (n == nil || d.fullscreen.Base() == n.Base()):
		next = nil
	}
	if next == d.fullscreen {
		return nil
	}
	d.fullscreen = next
	_, err := d.Dispatch(ctx, d, NewEvent("fullscreenchange"))
	return err
}

// ClassName implements jsvalue.ClassNamer.
func (d *Document) ClassName() string { return "HTMLDocument" }

// InstanceOf implements jsvalue.Instancer.
func (d *Document) InstanceOf(class string) bool {
	switch class {
	case "HTMLDocument", "Document", "Node", "EventTarget", "Object":
		return true
	}
	return false
}

func nodeOrNull(n Node) any {
	if n == nil {
		return jsvalue.Null{}
	}
	return n
}

// GetProperty implements jsvalue.PropertyGetter.
func (d *Document) GetProperty(name string) (any, bool) {
	switch name {
	case "body":
		return d.body, true
	case "documentElement":
		return d.root, true
	case "activeElement":
		return d.ActiveElement(), true
	case "pointerLockElement":
		return nodeOrNull(d.pointerLock), true
	case "fullscreenElement":
		return nodeOrNull(d.fullscreen), true
	case "createElement":
		return jsvalue.NewFunc("createElement", func(_ context.Context, _ any, args []any) (any, error) {
			return d.CreateElement(jsvalue.ToString(argAt(args, 0)))
		}), true
	case "getElementById":
		return jsvalue.NewFunc("getElementById", func(_ context.Context, _ any, args []any) (any, error) {
			return nodeOrNull(d.GetElementByID(jsvalue.ToString(argAt(args, 0)))), nil
		}), true
	case "exitPointerLock":
		return jsvalue.NewFunc("exitPointerLock", func(ctx context.Context, _ any, _ []any) (any, error) {
			return jsvalue.Undefined{}, d.ExitPointerLock(ctx)
		}), true
	case "addEventListener":
		return listenerFunc("addEventListener", d.AddEventListener), true
	case "removeEventListener":
		return listenerFunc("removeEventListener", d.RemoveEventListener), true
	}
	return nil, false
}
