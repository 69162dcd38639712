package dom

import (
	"context"
	"strings"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Node is anything that can sit in the element tree.
type Node interface {
	Base() *Element
}

// Rect is a DOMRect in CSS pixels.
type Rect struct {
	X, Y, Width, Height float64
}

// ClassName implements jsvalue.ClassNamer.
func (r *Rect) ClassName() string { return "DOMRect" }

// GetProperty implements jsvalue.PropertyGetter.
func (r *Rect) GetProperty(name string) (any, bool) {
	switch name {
	case "x", "left":
		return r.X, true
	case "y", "top":
		return r.Y, true
	case "width":
		return r.Width, true
	case "height":
		return r.Height, true
	case "right":
		return r.X + r.Width, true
	case "bottom":
		return r.Y + r.Height, true
	}
	return nil, false
}

// Style is an inline CSSStyleDeclaration.
type Style struct {
	keys  []string
	props map[string]string
}

// SetProperty sets a declaration. An empty value removes it.
func (s *Style) SetProperty(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if value == "" {
		s.RemoveProperty(name)
		return
	}
	if s.props == nil {
		s.props = make(map[string]string)
	}
	if _, ok := s.props[name]; !ok {
		s.keys = append(s.keys, name)
	}
	s.props[name] = value
}

// RemoveProperty deletes a declaration and returns its old value.
func (s *Style) RemoveProperty(name string) string {
	old, ok := s.props[name]
	if !ok {
		return ""
	}
	delete(s.props, name)
	for i, k := range s.keys {
		if k == name {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return old
}

// GetPropertyValue returns the declared value or "".
func (s *Style) GetPropertyValue(name string) string {
	return s.props[strings.ToLower(name)]
}

// CSSText serializes the declarations in insertion order.
func (s *Style) CSSText() string {
	var b strings.Builder
	for i, k := range s.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k + ": " + s.props[k] + ";")
	}
	return b.String()
}

// ClassName implements jsvalue.ClassNamer.
func (s *Style) ClassName() string { return "CSSStyleDeclaration" }

// GetProperty implements jsvalue.PropertyGetter.
func (s *Style) GetProperty(name string) (any, bool) {
	switch name {
	case "cssText":
		return s.CSSText(), true
	case "length":
		return float64(len(s.keys)), true
	case "setProperty":
		return jsvalue.NewFunc("setProperty", func(_ context.Context, _ any, args []any) (any, error) {
			s.SetProperty(jsvalue.ToString(argAt(args, 0)), jsvalue.ToString(argAt(args, 1)))
			return jsvalue.Undefined{}, nil
		}), true
	case "getPropertyValue":
		return jsvalue.NewFunc("getPropertyValue", func(_ context.Context, _ any, args []any) (any, error) {
			return s.GetPropertyValue(jsvalue.ToString(argAt(args, 0))), nil
		}), true
	}
	return nil, false
}

// Element is a generic HTML element.
type Element struct {
	EventTarget
	Tag       string
	ID        string
	Hidden    bool
	Autofocus bool
	Style     Style
	Rect      Rect

	doc      *Document
	self     Node
	parent   *Element
	children []Node
	attrs    map[string]string
}

func (e *Element) init(doc *Document, tag string, self Node) {
	e.Tag = strings.ToUpper(tag)
	e.doc = doc
	e.self = self
}

// Base implements Node.
func (e *Element) Base() *Element { return e }

// Document returns the owner document.
func (e *Element) Document() *Document { return e.doc }

// Parent returns the parent element or nil.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the child nodes.
func (e *Element) Children() []Node { return e.children }

// AppendChild moves child under e. Appending an ancestor of e is a
// HierarchyRequestError.
func (e *Element) AppendChild(child Node) (Node, error) {
	c := child.Base()
	for p := e; p != nil; p = p.parent {
		if p == c {
			return nil, jsvalue.NewError("HierarchyRequestError", "The new child element contains the parent.")
		}
	}
	if c.parent != nil {
		c.parent.RemoveChild(child)
	}
	c.parent = e
	e.children = append(e.children, child)
	return child, nil
}

// RemoveChild detaches child from e.
func (e *Element) RemoveChild(child Node) (Node, error) {
	c := child.Base()
	for i, n := range e.children {
		if n.Base() == c {
			e.children = append(e.children[:i], e.children[i+1:]...)
			c.parent = nil
			return child, nil
		}
	}
	return nil, jsvalue.NewError(jsvalue.NotFoundError, "The node to be removed is not a child of this node.")
}

// Connected reports whether e is attached to its document's body.
func (e *Element) Connected() bool {
	if e.doc == nil {
		return false
	}
	for p := e; p != nil; p = p.parent {
		if p == e.doc.root.Base() {
			return true
		}
	}
	return false
}

// SetAttribute sets an attribute. The id attribute is mirrored to ID.
func (e *Element) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	if name == "id" {
		e.ID = value
	}
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

// GetAttribute returns an attribute value.
func (e *Element) GetAttribute(name string) (string, bool) {
	name = strings.ToLower(name)
	if name == "id" && e.ID != "" {
		return e.ID, true
	}
	v, ok := e.attrs[name]
	return v, ok
}

// Focus makes e the document's active element and fires focus events.
func (e *Element) Focus(ctx context.Context) error {
	if e.doc == nil || e.doc.active == e.self {
		return nil
	}
	prev := e.doc.active
	e.doc.active = e.self
	if prev != nil {
		if _, err := prev.Base().Dispatch(ctx, prev, NewEvent("blur")); err != nil {
			return err
		}
	}
	_, err := e.Dispatch(ctx, e.self, NewEvent("focus"))
	return err
}

// GetBoundingClientRect returns a copy of the layout box.
func (e *Element) GetBoundingClientRect() *Rect {
	r := e.Rect
	return &r
}

// RequestPointerLock locks the pointer to e.
func (e *Element) RequestPointerLock(ctx context.Context) error {
	if e.doc == nil {
		return nil
	}
	return e.doc.setPointerLock(ctx, e.self)
}

// ClassName implements jsvalue.ClassNamer.
func (e *Element) ClassName() string { return "HTMLElement" }

// InstanceOf implements jsvalue.Instancer.
func (e *Element) InstanceOf(class string) bool {
	switch class {
	case "HTMLElement", "Element", "Node", "EventTarget", "Object":
		return true
	}
	return false
}

// GetProperty implements jsvalue.PropertyGetter.
func (e *Element) GetProperty(name string) (any, bool) {
	switch name {
	case "tagName", "nodeName":
		return e.Tag, true
	case "id":
		return e.ID, true
	case "hidden":
		return e.Hidden, true
	case "autofocus":
		return e.Autofocus, true
	case "style":
		return &e.Style, true
	case "parentElement", "parentNode":
		if e.parent == nil {
			return jsvalue.Null{}, true
		}
		return e.parent.self, true
	case "isConnected":
		return e.Connected(), true
	case "childElementCount":
		return float64(len(e.children)), true
	case "children", "childNodes":
		arr := jsvalue.NewArray()
		for _, c := range e.children {
			arr.Push(c)
		}
		return arr, true
	case "offsetWidth", "clientWidth":
		return e.Rect.Width, true
	case "offsetHeight", "clientHeight":
		return e.Rect.Height, true
	case "appendChild":
		return jsvalue.NewFunc("appendChild", func(_ context.Context, _ any, args []any) (any, error) {
			n, ok := argAt(args, 0).(Node)
			if !ok {
				return nil, jsvalue.NewTypeError("Failed to execute 'appendChild' on 'Node': parameter 1 is not of type 'Node'.")
			}
			return e.AppendChild(n)
		}), true
	case "focus":
		return jsvalue.NewFunc("focus", func(ctx context.Context, _ any, _ []any) (any, error) {
			return jsvalue.Undefined{}, e.Focus(ctx)
		}), true
	case "getBoundingClientRect":
		return jsvalue.NewFunc("getBoundingClientRect", func(context.Context, any, []any) (any, error) {
			return e.GetBoundingClientRect(), nil
		}), true
	case "getAttribute":
		return jsvalue.NewFunc("getAttribute", func(_ context.Context, _ any, args []any) (any, error) {
			if v, ok := e.GetAttribute(jsvalue.ToString(argAt(args, 0))); ok {
				return v, nil
			}
			return jsvalue.Null{}, nil
		}), true
	case "setAttribute":
		return jsvalue.NewFunc("setAttribute", func(_ context.Context, _ any, args []any) (any, error) {
			e.SetAttribute(jsvalue.ToString(argAt(args, 0)), jsvalue.ToString(argAt(args, 1)))
			return jsvalue.Undefined{}, nil
		}), true
	case "addEventListener":
		return listenerFunc("addEventListener", e.AddEventListener), true
	case "removeEventListener":
		return listenerFunc("removeEventListener", e.RemoveEventListener), true
	}
	if strings.HasPrefix(name, "on") {
		return orNull(e.Handler(name[2:])), true
	}
	if v, ok := e.attrs[name]; ok {
		return v, true
	}
	return nil, false
}

// SetProperty implements jsvalue.PropertySetter.
func (e *Element) SetProperty(name string, v any) error {
	switch name {
	case "id":
		e.ID = jsvalue.ToString(v)
	case "hidden":
		e.Hidden = jsvalue.Truthy(v)
	case "autofocus":
		e.Autofocus = jsvalue.Truthy(v)
	default:
		if strings.HasPrefix(name, "on") {
			e.SetHandler(name[2:], v)
			return nil
		}
		e.SetAttribute(name, jsvalue.ToString(v))
	}
	return nil
}

// Input is an HTMLInputElement.
type Input struct {
	Element
	Type  string
	Value string
}

// ClassName implements jsvalue.ClassNamer.
func (i *Input) ClassName() string { return "HTMLInputElement" }

// InstanceOf implements jsvalue.Instancer.
func (i *Input) InstanceOf(class string) bool {
	return class == "HTMLInputElement" || i.Element.InstanceOf(class)
}

// GetProperty implements jsvalue.PropertyGetter.
func (i *Input) GetProperty(name string) (any, bool) {
	switch name {
	case "type":
		if i.Type == "" {
			return "text", true
		}
		return i.Type, true
	case "value":
		return i.Value, true
	}
	return i.Element.GetProperty(name)
}

// SetProperty implements jsvalue.PropertySetter.
func (i *Input) SetProperty(name string, v any) error {
	switch name {
	case "type":
		i.Type = strings.ToLower(jsvalue.ToString(v))
	case "value":
		i.Value = jsvalue.ToString(v)
	default:
		return i.Element.SetProperty(name, v)
	}
	return nil
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return jsvalue.Undefined{}
}

func listenerFunc(name string, fn func(string, any)) *jsvalue.Func {
	return jsvalue.NewFunc(name, func(_ context.Context, _ any, args []any) (any, error) {
		fn(jsvalue.ToString(argAt(args, 0)), argAt(args, 1))
		return jsvalue.Undefined{}, nil
	})
}
